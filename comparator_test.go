package comparator_test

import (
	"testing"

	"github.com/fwojciec/comparator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want comparator.Mode
	}{
		{"groq", comparator.ModeGroq},
		{"gemini", comparator.ModeGemini},
		{"both", comparator.ModeBoth},
		{" Both ", comparator.ModeBoth},
		{"compare_with_rubric", comparator.ModeBoth},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := comparator.ParseMode(tt.in)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("rejects unknown modes", func(t *testing.T) {
		t.Parallel()

		_, err := comparator.ParseMode("openai")

		require.ErrorIs(t, err, comparator.ErrInvalidMode)
	})
}

func TestMode_Providers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []comparator.ProviderKey{comparator.Groq}, comparator.ModeGroq.Providers())
	assert.Equal(t, []comparator.ProviderKey{comparator.Gemini}, comparator.ModeGemini.Providers())
	assert.Equal(t, []comparator.ProviderKey{comparator.Groq, comparator.Gemini}, comparator.ModeBoth.Providers())
	assert.Nil(t, comparator.Mode("x").Providers())
	assert.False(t, comparator.Mode("x").Valid())
}

func TestProviderKey_Label(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Groq", comparator.Groq.Label())
	assert.Equal(t, "Gemini", comparator.Gemini.Label())
	assert.True(t, comparator.Groq.Valid())
	assert.False(t, comparator.ProviderKey("openai").Valid())
}

func TestPrompt(t *testing.T) {
	t.Parallel()

	t.Run("encodes with a system part", func(t *testing.T) {
		t.Parallel()

		p := comparator.Prompt{System: "Be concise", User: "What is TCP?"}

		assert.Equal(t, "Be concise\n\nWhat is TCP?", p.Encode())
	})

	t.Run("encodes without a system part", func(t *testing.T) {
		t.Parallel()

		p := comparator.Prompt{User: "What is TCP?"}

		assert.Equal(t, "What is TCP?", p.Encode())
	})

	t.Run("decodes on the first separator only", func(t *testing.T) {
		t.Parallel()

		p := comparator.DecodePrompt("sys\n\nline one\n\nline two")

		assert.Equal(t, "sys", p.System)
		assert.Equal(t, "line one\n\nline two", p.User)
	})

	t.Run("validates the user part", func(t *testing.T) {
		t.Parallel()

		assert.NoError(t, comparator.Prompt{User: "x"}.Validate())
		assert.ErrorIs(t, comparator.Prompt{System: "x"}.Validate(), comparator.ErrEmptyPrompt)
	})
}

func TestSession_Authenticated(t *testing.T) {
	t.Parallel()

	assert.False(t, comparator.Session{}.Authenticated())
	assert.True(t, comparator.Session{UserID: "42"}.Authenticated())
}
