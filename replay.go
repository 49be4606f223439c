package comparator

// Replay is a history entry reconstructed into the shapes a live comparison
// produces.
type Replay struct {
	Prompt  Prompt    `json:"prompt"`
	Mode    Mode      `json:"mode"`
	Results ResultSet `json:"results"`
}

// Decode rebuilds the prompt, mode and results of a stored comparison.
// Every stored non-empty response becomes a successful result stamped with
// the entry's creation time. Decode performs no I/O.
func Decode(entry HistoryEntry) Replay {
	prompt := DecodePrompt(entry.Prompt)
	if entry.Parts != nil {
		prompt = *entry.Parts
	}

	results := make(ResultSet, len(entry.Responses))
	for _, key := range AllProviders {
		text := entry.Responses[key]
		if text == "" {
			continue
		}
		results[key] = ProviderResult{
			Provider:  key,
			Model:     key.Label(),
			Response:  text,
			Timestamp: entry.CreatedAt,
		}
	}

	mode, err := ParseMode(entry.Mode)
	if err != nil {
		mode = modeFor(results.Keys())
	}

	return Replay{Prompt: prompt, Mode: mode, Results: results}
}
