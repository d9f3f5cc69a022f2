package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"physio/internal/core/id"
	"physio/internal/domain/physio"
)

type fakeStore struct {
	refs map[string]id.ID
	err  error
}

func (s *fakeStore) LoadTemplateRefs(context.Context) (map[string]id.ID, error) {
	return s.refs, s.err
}

func TestHandleNotification_ReloadsRegistry(t *testing.T) {
	store := &fakeStore{refs: map[string]id.ID{}}
	registry := physio.NewTemplateRegistry()
	w := NewTemplateWatcher(nil, "template_refs_changed", registry, store)

	recordID := id.New()
	key := physio.TemplateKey("partner_treatment")
	store.refs[key] = recordID

	var got []string
	w.OnInvalidation(func(_, payload string) { got = append(got, payload) })
	w.HandleNotification(context.Background(), "template_refs_changed", key)

	resolved, err := registry.Resolve("partner_treatment")
	require.NoError(t, err)
	assert.Equal(t, recordID, resolved)
	assert.Equal(t, []string{key}, got)
	assert.EqualValues(t, 1, w.Reloads())
}

func TestHandleNotification_IgnoresOtherChannels(t *testing.T) {
	store := &fakeStore{refs: map[string]id.ID{physio.TemplateKey("treatment_history"): id.New()}}
	registry := physio.NewTemplateRegistry()
	w := NewTemplateWatcher(nil, "template_refs_changed", registry, store)

	w.HandleNotification(context.Background(), "something_else", "x")

	assert.Empty(t, registry.Keys())
	assert.Zero(t, w.Reloads())
}

func TestHandleNotification_StoreErrorKeepsRegistry(t *testing.T) {
	recordID := id.New()
	registry := physio.NewTemplateRegistry()
	registry.Register("partner_treatment", recordID)
	w := NewTemplateWatcher(nil, "c", registry, &fakeStore{err: errors.New("db down")})

	w.HandleNotification(context.Background(), "c", "")

	resolved, err := registry.Resolve("partner_treatment")
	require.NoError(t, err)
	assert.Equal(t, recordID, resolved)
	assert.Zero(t, w.Reloads())
}

func TestHandleNotification_RecoversListenerPanic(t *testing.T) {
	w := NewTemplateWatcher(nil, "c", physio.NewTemplateRegistry(), &fakeStore{refs: map[string]id.ID{}})
	called := false
	w.OnInvalidation(func(string, string) { panic("boom") })
	w.OnInvalidation(func(string, string) { called = true })

	assert.NotPanics(t, func() { w.HandleNotification(context.Background(), "c", "") })
	assert.True(t, called)
}
