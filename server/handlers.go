package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fwojciec/comparator"
)

type handlers struct {
	service *comparator.Service
	logger  *slog.Logger
	maxBody int64
}

// promptRequest is the body accepted by the comparison endpoints.
type promptRequest struct {
	Prompt       string `json:"prompt"`
	SystemPrompt string `json:"system_prompt"`
	Mode         string `json:"mode,omitempty"`
}

// prompt returns the request as a Prompt. A request without system_prompt
// may carry a client-encoded prompt, so its parts are not recorded.
func (req promptRequest) prompt() comparator.Prompt {
	return comparator.Prompt{
		System:   req.SystemPrompt,
		User:     req.Prompt,
		Combined: req.SystemPrompt == "",
	}
}

type rubricResponse struct {
	Prompt     string                       `json:"prompt"`
	Responses  comparator.ResultSet         `json:"responses"`
	Evaluation *comparator.RubricEvaluation `json:"evaluation"`
}

type historyResponse struct {
	History []comparator.HistoryEntry `json:"history"`
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "AI Comparator API is running",
	})
}

// single handles POST /api/ai/{provider}.
func (h *handlers) single(w http.ResponseWriter, r *http.Request) {
	key := comparator.ProviderKey(strings.ToLower(r.PathValue("provider")))
	if !key.Valid() {
		writeError(w, r, http.StatusNotFound, "unknown provider")
		return
	}

	var req promptRequest
	if !h.decode(w, r, &req) {
		return
	}

	results, err := h.service.RunComparison(r.Context(), SessionFromContext(r.Context()), req.prompt(), comparator.Mode(key))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results[key])
}

// compare handles POST /api/ai/compare. Mode defaults to both.
func (h *handlers) compare(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if !h.decode(w, r, &req) {
		return
	}

	mode := comparator.ModeBoth
	if req.Mode != "" {
		m, err := comparator.ParseMode(req.Mode)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		mode = m
	}

	results, err := h.service.RunComparison(r.Context(), SessionFromContext(r.Context()), req.prompt(), mode)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *handlers) compareWithRubric(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if !h.decode(w, r, &req) {
		return
	}

	prompt := req.prompt()
	out, err := h.service.RunRubricComparison(r.Context(), SessionFromContext(r.Context()), prompt)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rubricResponse{
		Prompt:     prompt.Encode(),
		Responses:  out.Results,
		Evaluation: out.Evaluation,
	})
}

func (h *handlers) history(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.History(r.Context(), SessionFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if entries == nil {
		entries = []comparator.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, historyResponse{History: entries})
}

func (h *handlers) replay(w http.ResponseWriter, r *http.Request) {
	replay, err := h.service.Replay(r.Context(), SessionFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, replay)
}

func (h *handlers) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// fail maps a service error to a status code. Provider and evaluator
// failures never reach here; they are part of successful responses.
func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	var ve *comparator.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, r, http.StatusBadRequest, ve.Error())
	case errors.Is(err, comparator.ErrUnauthenticated):
		writeError(w, r, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, comparator.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, comparator.ErrNoHistoryStore):
		writeError(w, r, http.StatusServiceUnavailable, err.Error())
	default:
		h.logger.Error("request failed", "error", err, "path", r.URL.Path, "request_id", RequestIDFromContext(r.Context()))
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:     "internal server error",
			Details:   err.Error(),
			RequestID: RequestIDFromContext(r.Context()),
		})
	}
}
