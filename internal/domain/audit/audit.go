// Package audit defines the change journal contract used by domain services.
// The PostgreSQL implementation lives in infrastructure/storage/postgres.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"physio/internal/core/id"
)

// Action is the audited operation.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Entry is one journal row as returned to readers.
type Entry struct {
	ID         id.ID           `json:"id"`
	EntityType string          `json:"entity_type"`
	EntityID   id.ID           `json:"entity_id"`
	Action     Action          `json:"action"`
	UserID     string          `json:"user_id,omitempty"`
	Changes    json.RawMessage `json:"changes"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Recorder writes journal entries. Calls run inside the caller's transaction.
type Recorder interface {
	LogChange(ctx context.Context, entityType string, entityID id.ID, action Action, changes map[string]any) error
}

// Reader returns the journal of one record, newest first.
type Reader interface {
	GetEntityHistory(ctx context.Context, entityType string, entityID id.ID, limit int) ([]Entry, error)
}

// Nop discards entries.
type Nop struct{}

func (Nop) LogChange(context.Context, string, id.ID, Action, map[string]any) error { return nil }
