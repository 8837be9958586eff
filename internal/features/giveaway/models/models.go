package models

import "time"

// Candidate is a single member of a group, as reported by the privileged
// client. UserID is the stable identity key: winner uniqueness and entry
// idempotency are both defined over it.
type Candidate struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	IsBot     bool   `json:"is_bot,omitempty"`
}

// Giveaway is a post-based giveaway collecting entries until it is finalized.
// Channel, WinnersCount and Text are immutable after creation; Entries is the
// only field mutated during the lifetime of the giveaway and is owned by the
// registry.
type Giveaway struct {
	ID           string               `json:"id"`
	Channel      string               `json:"channel"`
	MessageID    int64                `json:"message_id"`
	WinnersCount int                  `json:"winners_count"`
	Entries      map[string]Candidate `json:"entries"`
	CreatedBy    int64                `json:"created_by"`
	Text         string               `json:"text"`
	ScheduledAt  time.Time            `json:"scheduled_at,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
}

// HistoryRecord is the append-only record of one completed giveaway.
type HistoryRecord struct {
	Channel      string      `json:"channel"`
	MessageID    int64       `json:"message_id"`
	WinnersCount int         `json:"winners_count"`
	Winners      []Candidate `json:"winners"`
	Text         string      `json:"text"`
	CompletedAt  time.Time   `json:"completed_at"`
}
