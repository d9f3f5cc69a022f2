// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"encoding/json"
	"fmt"
	"time"

	"physio/internal/core/apperror"
	"physio/internal/core/id"
)

// DateLayout is the wire format of date-only fields.
const DateLayout = "2006-01-02"

// ListResponse wraps list results with pagination.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"total_count"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse documents the error body rendered by middleware.ErrorHandler.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// SetDeletionMarkRequest archives or restores a record.
type SetDeletionMarkRequest struct {
	Marked bool `json:"marked"`
}

// IDsRequest carries a batch of record ids.
type IDsRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,dive,uuid"`
}

// ParseIDs converts the ids, reporting the first malformed one.
func (r IDsRequest) ParseIDs() ([]id.ID, error) {
	ids, err := id.ParseList(r.IDs)
	if err != nil {
		return nil, apperror.NewInvalidInput("ids", err.Error())
	}
	return ids, nil
}

// parseDate parses an optional date; nil and "" give nil.
func parseDate(field string, s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, *s)
	if err != nil {
		return nil, apperror.NewInvalidInput(field, "expected YYYY-MM-DD")
	}
	return &t, nil
}

// parseRef parses an optional reference; nil and "" give nil.
func parseRef(field string, s *string) (*id.ID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	v, err := id.Parse(*s)
	if err != nil {
		return nil, apperror.NewInvalidInput(field, "invalid id")
	}
	return &v, nil
}

// formatDate renders a date-only field, nil stays nil.
func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}

// flatten renders record as a JSON object and adds extra keys on top.
func flatten(record any, extra map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	out := make(map[string]any)
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	for k, v := range extra {
		out[k] = v
	}
	return out, nil
}
