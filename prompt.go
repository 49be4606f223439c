package comparator

import "strings"

// PromptSeparator joins the system and user parts of an encoded prompt.
const PromptSeparator = "\n\n"

// Prompt is a user prompt with an optional system instruction.
type Prompt struct {
	System string `json:"system_prompt,omitempty"`
	User   string `json:"prompt"`

	// Combined marks a prompt a client already encoded. Its parts are
	// unknown, so history keeps only the encoded text.
	Combined bool `json:"-"`
}

// Validate rejects prompts whose user part is empty or only whitespace.
func (p Prompt) Validate() error {
	if strings.TrimSpace(p.User) == "" {
		return &ValidationError{Field: "prompt", Err: ErrEmptyPrompt}
	}
	return nil
}

// Encode serializes the prompt the way providers receive it and history
// stores it.
func (p Prompt) Encode() string {
	if p.System == "" {
		return p.User
	}
	return p.System + PromptSeparator + p.User
}

// DecodePrompt reverses Encode by splitting raw on the first separator.
//
// A user prompt that itself contains a blank line and was stored without a
// system part cannot be told apart from one that had a system part; such
// records decode with the text before the blank line as the system part.
func DecodePrompt(raw string) Prompt {
	system, user, found := strings.Cut(raw, PromptSeparator)
	if !found {
		return Prompt{User: raw}
	}
	return Prompt{System: system, User: user}
}
