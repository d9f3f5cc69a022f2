// Package numerator implements core/numerator.Generator on PostgreSQL.
//
// Sequences live in sys_sequences(key, current_val). Strict numbering bumps the
// row for every code; cached numbering reserves a range per key and hands out
// values from memory.
package numerator

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "physio/internal/core/numerator"
)

// Querier is the subset of pgxpool.Pool used here.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type cachedRange struct {
	current int64
	max     int64
}

// Service generates codes such as TRT-2026-00001.
type Service struct {
	querier Querier

	cacheMu sync.Mutex
	ranges  map[string]*cachedRange
}

var _ corenumerator.Generator = (*Service)(nil)

// New creates a numerator. Calls run outside business transactions on querier.
func New(querier Querier) *Service {
	return &Service{
		querier: querier,
		ranges:  make(map[string]*cachedRange),
	}
}

const upsertNext = `
	INSERT INTO sys_sequences (key, current_val)
	VALUES ($1, $2)
	ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + $2
	RETURNING current_val`

// GetNextNumber implements corenumerator.Generator.
func (s *Service) GetNextNumber(ctx context.Context, cfg corenumerator.Config, opts *corenumerator.Options, period time.Time) (string, error) {
	if s == nil || s.querier == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}
	if opts == nil {
		opts = corenumerator.DefaultOptions()
	}

	key := buildKey(cfg, period)

	var (
		num int64
		err error
	)
	switch opts.Strategy {
	case corenumerator.StrategyCached:
		num, err = s.nextCached(ctx, key, opts.RangeSize)
	default:
		num, err = s.reserve(ctx, key, 1)
	}
	if err != nil {
		return "", err
	}
	return formatNumber(cfg, period, num), nil
}

// reserve bumps the sequence by n and returns the new upper bound.
func (s *Service) reserve(ctx context.Context, key string, n int64) (int64, error) {
	var upper int64
	if err := s.querier.QueryRow(ctx, upsertNext, key, n).Scan(&upper); err != nil {
		return 0, fmt.Errorf("reserve %d for %s: %w", n, key, err)
	}
	return upper, nil
}

func (s *Service) nextCached(ctx context.Context, key string, size int64) (int64, error) {
	if size <= 0 {
		size = 50
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	rng, ok := s.ranges[key]
	if !ok {
		rng = &cachedRange{}
		s.ranges[key] = rng
	}

	if rng.current >= rng.max {
		upper, err := s.reserve(ctx, key, size)
		if err != nil {
			return 0, err
		}
		// range is (upper-size, upper]
		rng.current = upper - size
		rng.max = upper
	}

	rng.current++
	return rng.current, nil
}

// SetNextNumber implements corenumerator.Generator and drops any cached range.
func (s *Service) SetNextNumber(ctx context.Context, cfg corenumerator.Config, period time.Time, value int64) error {
	key := buildKey(cfg, period)

	var stored int64
	err := s.querier.QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = $2
		RETURNING current_val`, key, value).Scan(&stored)

	s.cacheMu.Lock()
	delete(s.ranges, key)
	s.cacheMu.Unlock()

	if err != nil {
		return fmt.Errorf("set sequence %s: %w", key, err)
	}
	return nil
}

func buildKey(cfg corenumerator.Config, period time.Time) string {
	switch cfg.ResetPeriod {
	case corenumerator.ResetMonth:
		return cfg.Prefix + "_" + period.Format("2006_01")
	case corenumerator.ResetYear:
		return cfg.Prefix + "_" + period.Format("2006")
	default:
		return cfg.Prefix
	}
}

func formatNumber(cfg corenumerator.Config, period time.Time, num int64) string {
	pad := cfg.PadWidth
	if pad == 0 {
		pad = 5
	}
	if cfg.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", cfg.Prefix, period.Format("2006"), pad, num)
	}
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, pad, num)
}

// ParseNumber extracts the trailing sequence value from a code.
// Returns -1 if the code has no numeric suffix.
func ParseNumber(code string) int64 {
	i := strings.LastIndex(code, "-")
	if i < 0 || i == len(code)-1 {
		return -1
	}
	n, err := strconv.ParseInt(code[i+1:], 10, 64)
	if err != nil {
		return -1
	}
	return n
}
