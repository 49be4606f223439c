package comparator

import (
	"context"
	"time"
)

// HistoryLimit is how many recent entries History returns.
const HistoryLimit = 5

// HistoryEntry is a stored comparison.
type HistoryEntry struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	// Prompt is the encoded prompt as sent to the providers.
	Prompt string `json:"prompt"`
	// Parts holds the prompt's system and user parts when they were
	// recorded separately. Older entries only have Prompt.
	Parts     *Prompt                `json:"parts,omitempty"`
	Mode      string                 `json:"mode"`
	Responses map[ProviderKey]string `json:"responses"`
	CreatedAt time.Time              `json:"created_at"`
}

// HistoryStore persists comparison history.
type HistoryStore interface {
	// Save stores entry.
	Save(ctx context.Context, entry HistoryEntry) error
	// Recent returns up to limit entries for userID, most recent first.
	Recent(ctx context.Context, userID string, limit int) ([]HistoryEntry, error)
	// Get returns one entry owned by userID, or ErrNotFound.
	Get(ctx context.Context, userID, id string) (*HistoryEntry, error)
}
