package numerator

import (
	"context"
	"time"
)

// Generator produces sequential codes. The PostgreSQL implementation lives in
// infrastructure/numerator.
type Generator interface {
	// GetNextNumber returns the next code, e.g. TRT-2026-00001.
	GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)

	// SetNextNumber overrides the sequence value (data imports).
	SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error
}
