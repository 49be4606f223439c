package comparator

import (
	"errors"
	"time"
)

// Outcome is the raw result of invoking one provider, before it is keyed
// into a ResultSet.
type Outcome struct {
	Provider ProviderKey
	Model    string
	Response string
	Err      error
	At       time.Time
}

// Result converts the outcome into a ProviderResult.
func (o Outcome) Result() ProviderResult {
	r := ProviderResult{
		Provider:  o.Provider,
		Model:     o.Model,
		Response:  o.Response,
		Timestamp: o.At,
	}
	if o.Err != nil {
		r.Response = ""
		r.IsError = true
		var pe *ProviderError
		if errors.As(o.Err, &pe) {
			r.Error = pe.Detail()
		} else {
			r.Error = describeError(o.Err)
		}
	}
	return r
}

// Merge keys outcomes into a ResultSet holding exactly the providers
// dispatched by mode. Outcomes for other providers are ignored, the first
// outcome wins when a provider reports twice, and a dispatched provider with
// no outcome gets an error result so it is never silently dropped.
func Merge(mode Mode, outcomes []Outcome) ResultSet {
	keys := mode.Providers()
	set := make(ResultSet, len(keys))

	var latest time.Time
	for _, o := range outcomes {
		if o.At.After(latest) {
			latest = o.At
		}
	}

	for _, o := range outcomes {
		if !contains(keys, o.Provider) {
			continue
		}
		if _, seen := set[o.Provider]; seen {
			continue
		}
		set[o.Provider] = o.Result()
	}

	for _, k := range keys {
		if _, ok := set[k]; ok {
			continue
		}
		set[k] = ProviderResult{
			Provider:  k,
			Timestamp: latest,
			IsError:   true,
			Error:     "no response received",
		}
	}

	return set
}

func contains(keys []ProviderKey, k ProviderKey) bool {
	for _, key := range keys {
		if key == k {
			return true
		}
	}
	return false
}
