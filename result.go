package comparator

import "time"

// ProviderResult is the outcome of one provider call. Failed calls are
// results too: IsError is set and Error describes the failure.
type ProviderResult struct {
	Provider  ProviderKey `json:"provider"`
	Model     string      `json:"model,omitempty"`
	Response  string      `json:"response"`
	Timestamp time.Time   `json:"timestamp"`
	IsError   bool        `json:"isError"`
	Error     string      `json:"error,omitempty"`
}

// ResultSet maps each dispatched provider to its result.
type ResultSet map[ProviderKey]ProviderResult

// Keys returns the providers present in the set in display order.
func (s ResultSet) Keys() []ProviderKey {
	keys := make([]ProviderKey, 0, len(s))
	for _, k := range AllProviders {
		if _, ok := s[k]; ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// HasErrors reports whether any result in the set failed.
func (s ResultSet) HasErrors() bool {
	for _, r := range s {
		if r.IsError {
			return true
		}
	}
	return false
}

// Responses returns the successful response text keyed by provider.
func (s ResultSet) Responses() map[ProviderKey]string {
	out := make(map[ProviderKey]string, len(s))
	for k, r := range s {
		if !r.IsError {
			out[k] = r.Response
		}
	}
	return out
}
