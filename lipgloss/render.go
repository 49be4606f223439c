package lipgloss

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fwojciec/comparator"
)

// Renderer formats comparator values as styled terminal text.
type Renderer struct {
	r     *lipgloss.Renderer
	theme *Theme
}

// NewRenderer creates a Renderer. A nil renderer or theme falls back to the
// defaults.
func NewRenderer(r *lipgloss.Renderer, theme *Theme) *Renderer {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	if theme == nil {
		theme = DefaultTheme()
	}
	return &Renderer{r: r, theme: theme}
}

func (r *Renderer) color(hex string) lipgloss.Style {
	return r.r.NewStyle().Foreground(lipgloss.Color(hex))
}

// Results renders one panel per provider in display order.
func (r *Renderer) Results(rs comparator.ResultSet) string {
	keys := rs.Keys()
	panels := make([]string, 0, len(keys))
	for _, key := range keys {
		panels = append(panels, r.result(rs[key]))
	}
	return strings.Join(panels, "\n\n")
}

func (r *Renderer) result(res comparator.ProviderResult) string {
	p := r.theme.Palette()

	header := r.color(r.theme.ProviderColor(res.Provider)).Bold(true).Render(res.Provider.Label())
	meta := []string{}
	if res.Model != "" {
		meta = append(meta, res.Model)
	}
	if !res.Timestamp.IsZero() {
		meta = append(meta, res.Timestamp.Local().Format(time.DateTime))
	}
	if len(meta) > 0 {
		header += " " + r.color(p.Muted).Render(strings.Join(meta, " · "))
	}

	body := res.Response
	if res.IsError {
		body = r.color(p.Error).Render("error: " + res.Error)
	}

	box := r.r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(p.Border)).
		Padding(0, 1)
	return box.Render(header + "\n\n" + body)
}

// Evaluation renders rubric scores as a criteria table followed by the
// evaluator's verdict and any consistency warnings.
func (r *Renderer) Evaluation(eval *comparator.RubricEvaluation) string {
	p := r.theme.Palette()
	if eval == nil {
		return ""
	}
	if !eval.Success {
		msg := eval.Error
		if msg == "" {
			msg = "evaluation failed"
		}
		return r.color(p.Error).Render("Rubric: " + msg)
	}

	keys := make([]comparator.ProviderKey, 0, len(comparator.AllProviders))
	for _, k := range comparator.AllProviders {
		if _, ok := eval.Scores[k]; ok {
			keys = append(keys, k)
		}
	}

	headers := []string{"Criterion"}
	for _, k := range keys {
		headers = append(headers, k.Label())
	}
	rows := make([][]string, 0, len(comparator.Criteria)+1)
	for _, c := range comparator.Criteria {
		row := []string{string(c)}
		for _, k := range keys {
			row = append(row, fmt.Sprintf("%d/%d", eval.Scores[k].Value(c), comparator.MaxCriterionScore))
		}
		rows = append(rows, row)
	}
	total := []string{"total"}
	for _, k := range keys {
		total = append(total, fmt.Sprintf("%d/%d", eval.Scores[k].Total, comparator.MaxTotalScore))
	}
	rows = append(rows, total)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.color(p.Border)).
		Headers(headers...).
		Rows(rows...)

	var b strings.Builder
	title := "Rubric"
	if eval.Evaluator != "" {
		title += " " + r.color(p.Muted).Render("("+eval.Evaluator+")")
	}
	b.WriteString(r.r.NewStyle().Bold(true).Render(title))
	b.WriteString("\n")
	b.WriteString(t.String())
	if eval.Recommendation != "" {
		b.WriteString("\n")
		b.WriteString(r.color(p.Success).Bold(true).Render("Recommendation: ") + eval.Recommendation)
	}
	if eval.OverallComparison != "" {
		b.WriteString("\n")
		b.WriteString(eval.OverallComparison)
	}
	for _, w := range eval.Warnings {
		b.WriteString("\n")
		b.WriteString(r.color(p.Warning).Render("warning: " + w.Error()))
	}
	return b.String()
}

// Replay renders a decoded history entry.
func (r *Renderer) Replay(rp comparator.Replay) string {
	p := r.theme.Palette()
	var b strings.Builder
	b.WriteString(r.color(p.Muted).Render("mode: " + string(rp.Mode)))
	b.WriteString("\n")
	if rp.Prompt.System != "" {
		b.WriteString(r.color(p.Accent).Bold(true).Render("System: "))
		b.WriteString(rp.Prompt.System)
		b.WriteString("\n")
	}
	b.WriteString(r.color(p.Accent).Bold(true).Render("Prompt: "))
	b.WriteString(rp.Prompt.User)
	if len(rp.Results) > 0 {
		b.WriteString("\n\n")
		b.WriteString(r.Results(rp.Results))
	}
	return b.String()
}

// History renders one line per entry.
func (r *Renderer) History(entries []comparator.HistoryEntry) string {
	p := r.theme.Palette()
	if len(entries) == 0 {
		return r.color(p.Muted).Render("no history")
	}
	lines := make([]string, 0, len(entries))
	for i, e := range entries {
		line := fmt.Sprintf("%s %s %s %s",
			r.color(p.Muted).Render(strconv.Itoa(i+1)+"."),
			r.color(p.Accent).Render(e.ID),
			r.color(p.Muted).Render(e.CreatedAt.Local().Format(time.DateTime)+" ["+e.Mode+"]"),
			truncate(firstLine(comparator.Decode(e).Prompt.User), 60),
		)
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
