// Package comparator provides domain types for sending one prompt to several
// AI providers, comparing their answers, and replaying past comparisons.
package comparator

import (
	"context"
	"strings"
)

// ProviderKey identifies one of the supported AI backends.
type ProviderKey string

// Supported providers.
const (
	Groq   ProviderKey = "groq"
	Gemini ProviderKey = "gemini"
)

// AllProviders lists every provider in display order.
var AllProviders = []ProviderKey{Groq, Gemini}

// Label returns the human-readable name of the provider.
func (k ProviderKey) Label() string {
	switch k {
	case Groq:
		return "Groq"
	case Gemini:
		return "Gemini"
	default:
		return string(k)
	}
}

// Valid reports whether k is one of the supported providers.
func (k ProviderKey) Valid() bool {
	return k == Groq || k == Gemini
}

// Mode selects which providers a comparison dispatches to.
type Mode string

// Comparison modes.
const (
	ModeGroq   Mode = "groq"
	ModeGemini Mode = "gemini"
	ModeBoth   Mode = "both"
)

// legacyRubricMode is how older history records tag rubric runs.
const legacyRubricMode = "compare_with_rubric"

// ParseMode converts s to a Mode. The legacy "compare_with_rubric" value
// found in older history records maps to ModeBoth.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeGroq, ModeGemini, ModeBoth:
		return m, nil
	case legacyRubricMode:
		return ModeBoth, nil
	default:
		return "", &ValidationError{Field: "mode", Err: ErrInvalidMode}
	}
}

// Providers returns the providers dispatched for the mode, or nil if the
// mode is unknown.
func (m Mode) Providers() []ProviderKey {
	switch m {
	case ModeGroq:
		return []ProviderKey{Groq}
	case ModeGemini:
		return []ProviderKey{Gemini}
	case ModeBoth:
		return []ProviderKey{Groq, Gemini}
	default:
		return nil
	}
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m.Providers() != nil
}

// modeFor returns the mode that dispatches exactly the given providers.
func modeFor(keys []ProviderKey) Mode {
	var groq, gemini bool
	for _, k := range keys {
		switch k {
		case Groq:
			groq = true
		case Gemini:
			gemini = true
		}
	}
	switch {
	case groq && !gemini:
		return ModeGroq
	case gemini && !groq:
		return ModeGemini
	default:
		return ModeBoth
	}
}

// Provider sends a serialized prompt to a single AI backend.
type Provider interface {
	// Key identifies the backend.
	Key() ProviderKey
	// Model names the model answering on the backend.
	Model() string
	// Invoke returns the backend's answer to prompt. It does not retry.
	Invoke(ctx context.Context, prompt string) (string, error)
}

// Session identifies the caller of an operation. The zero value is an
// anonymous session: comparisons still run, but nothing is recorded.
type Session struct {
	UserID string
	Token  string
}

// Authenticated reports whether the session belongs to a known user.
func (s Session) Authenticated() bool {
	return s.UserID != ""
}
