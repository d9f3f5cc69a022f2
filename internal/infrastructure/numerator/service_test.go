package numerator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corenumerator "physio/internal/core/numerator"
)

type fakeRow struct {
	val int64
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*int64)) = r.val
	return nil
}

// fakeSequences emulates sys_sequences keyed upserts.
type fakeSequences struct {
	mu    sync.Mutex
	vals  map[string]int64
	calls int
	err   error
}

func newFakeSequences() *fakeSequences {
	return &fakeSequences{vals: make(map[string]int64)}
}

func (f *fakeSequences) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return fakeRow{err: f.err}
	}
	key := args[0].(string)
	n := args[1].(int64)
	if strings.Contains(sql, "current_val + $2") {
		f.vals[key] += n
	} else {
		f.vals[key] = n
	}
	return fakeRow{val: f.vals[key]}
}

var period = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

func TestGetNextNumber_Strict(t *testing.T) {
	q := newFakeSequences()
	svc := New(q)
	cfg := corenumerator.DefaultConfig(corenumerator.PrefixTreatment)

	first, err := svc.GetNextNumber(context.Background(), cfg, nil, period)
	require.NoError(t, err)
	second, err := svc.GetNextNumber(context.Background(), cfg, nil, period)
	require.NoError(t, err)

	assert.Equal(t, "TRT-2026-00001", first)
	assert.Equal(t, "TRT-2026-00002", second)
	assert.Equal(t, int64(2), q.vals["TRT_2026"])
}

func TestGetNextNumber_CachedReservesRanges(t *testing.T) {
	q := newFakeSequences()
	svc := New(q)
	cfg := corenumerator.DefaultConfig(corenumerator.PrefixPartner)
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 10}

	var last string
	for i := 0; i < 10; i++ {
		code, err := svc.GetNextNumber(context.Background(), cfg, opts, period)
		require.NoError(t, err)
		last = code
	}
	assert.Equal(t, "PAT-2026-00010", last)
	assert.Equal(t, 1, q.calls)

	code, err := svc.GetNextNumber(context.Background(), cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "PAT-2026-00011", code)
	assert.Equal(t, 2, q.calls)
	assert.Equal(t, int64(20), q.vals["PAT_2026"])
}

func TestSetNextNumber_DropsCachedRange(t *testing.T) {
	q := newFakeSequences()
	svc := New(q)
	cfg := corenumerator.Config{Prefix: "TH", PadWidth: 3, ResetPeriod: corenumerator.ResetNever}
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 5}

	_, err := svc.GetNextNumber(context.Background(), cfg, opts, period)
	require.NoError(t, err)

	require.NoError(t, svc.SetNextNumber(context.Background(), cfg, period, 100))

	code, err := svc.GetNextNumber(context.Background(), cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "TH-101", code)
}

func TestGetNextNumber_Error(t *testing.T) {
	q := newFakeSequences()
	q.err = errors.New("connection refused")
	svc := New(q)

	_, err := svc.GetNextNumber(context.Background(), corenumerator.DefaultConfig("X"), nil, period)
	assert.ErrorIs(t, err, q.err)
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, int64(42), ParseNumber("TRT-2026-00042"))
	assert.Equal(t, int64(7), ParseNumber("TH-007"))
	assert.Equal(t, int64(-1), ParseNumber("nodash"))
	assert.Equal(t, int64(-1), ParseNumber("TRT-"))
	assert.Equal(t, int64(-1), ParseNumber("TRT-abc"))
}
