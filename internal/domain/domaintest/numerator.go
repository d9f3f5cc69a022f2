package domaintest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"physio/internal/core/numerator"
)

// Numerator hands out PREFIX-YEAR-NNNNN codes from memory.
type Numerator struct {
	mu   sync.Mutex
	next map[string]int64
}

var _ numerator.Generator = (*Numerator)(nil)

func NewNumerator() *Numerator {
	return &Numerator{next: make(map[string]int64)}
}

func (n *Numerator) GetNextNumber(_ context.Context, cfg numerator.Config, _ *numerator.Options, period time.Time) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.next[cfg.Prefix]++
	return fmt.Sprintf("%s-%s-%05d", cfg.Prefix, period.Format("2006"), n.next[cfg.Prefix]), nil
}

func (n *Numerator) SetNextNumber(_ context.Context, cfg numerator.Config, _ time.Time, value int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.next[cfg.Prefix] = value
	return nil
}
