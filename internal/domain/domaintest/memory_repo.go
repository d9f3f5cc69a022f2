// Package domaintest provides in-memory repositories for service tests.
package domaintest

import (
	"context"
	"sort"
	"strings"
	"sync"

	"physio/internal/core/apperror"
	"physio/internal/core/entity"
	"physio/internal/core/id"
	"physio/internal/domain"
)

// Record is what MemoryRepo needs from stored models.
type Record interface {
	entity.Validatable
	GetID() id.ID
	GetCode() string
}

// MemoryRepo is a map-backed domain.CatalogRepository.
type MemoryRepo[T Record] struct {
	mu       sync.RWMutex
	items    map[id.ID]T
	archived map[id.ID]bool

	// PartnerOf, when set, enables ListFilter.PartnerID.
	PartnerOf func(T) id.ID

	// Calls counts mutating calls by method name.
	Calls map[string]int
}

var _ domain.CatalogRepository[*entity.Catalog] = (*MemoryRepo[*entity.Catalog])(nil)

// NewMemoryRepo creates an empty repository.
func NewMemoryRepo[T Record]() *MemoryRepo[T] {
	return &MemoryRepo[T]{
		items:    make(map[id.ID]T),
		archived: make(map[id.ID]bool),
		Calls:    make(map[string]int),
	}
}

func (r *MemoryRepo[T]) Create(_ context.Context, e T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls["Create"]++
	if _, ok := r.items[e.GetID()]; ok {
		return apperror.NewDuplicate("record", "id", e.GetID().String())
	}
	r.items[e.GetID()] = e
	return nil
}

func (r *MemoryRepo[T]) GetByID(_ context.Context, entityID id.ID) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.items[entityID]
	if !ok {
		var zero T
		return zero, apperror.NewNotFound("record", entityID.String())
	}
	return e, nil
}

func (r *MemoryRepo[T]) GetByCode(_ context.Context, code string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.items {
		if e.GetCode() == code && !r.archived[e.GetID()] {
			return e, nil
		}
	}
	var zero T
	return zero, apperror.NewNotFound("record", code)
}

func (r *MemoryRepo[T]) Update(_ context.Context, e T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls["Update"]++
	if _, ok := r.items[e.GetID()]; !ok {
		return apperror.NewNotFound("record", e.GetID().String())
	}
	r.items[e.GetID()] = e
	return nil
}

func (r *MemoryRepo[T]) Delete(_ context.Context, entityID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls["Delete"]++
	if _, ok := r.items[entityID]; !ok {
		return apperror.NewNotFound("record", entityID.String())
	}
	delete(r.items, entityID)
	delete(r.archived, entityID)
	return nil
}

func (r *MemoryRepo[T]) SetDeletionMark(_ context.Context, entityID id.ID, marked bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls["SetDeletionMark"]++
	if _, ok := r.items[entityID]; !ok {
		return apperror.NewNotFound("record", entityID.String())
	}
	r.archived[entityID] = marked
	return nil
}

// IsArchived reports the deletion mark.
func (r *MemoryRepo[T]) IsArchived(entityID id.ID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.archived[entityID]
}

func (r *MemoryRepo[T]) List(_ context.Context, f domain.ListFilter) (domain.ListResult[T], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[id.ID]bool, len(f.IDs))
	for _, x := range f.IDs {
		wanted[x] = true
	}

	var items []T
	for _, e := range r.items {
		if !f.IncludeDeleted && r.archived[e.GetID()] {
			continue
		}
		if len(wanted) > 0 && !wanted[e.GetID()] {
			continue
		}
		if f.PartnerID != nil && r.PartnerOf != nil && r.PartnerOf(e) != *f.PartnerID {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(e.GetCode()), strings.ToLower(f.Search)) {
			continue
		}
		items = append(items, e)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].GetCode() < items[j].GetCode() })

	res := domain.ListResult[T]{TotalCount: int64(len(items)), Limit: f.Limit, Offset: f.Offset}
	if f.Offset > 0 {
		if f.Offset >= len(items) {
			items = nil
		} else {
			items = items[f.Offset:]
		}
	}
	if f.Limit > 0 && len(items) > f.Limit {
		items = items[:f.Limit]
	}
	res.Items = items
	return res, nil
}

func (r *MemoryRepo[T]) Exists(_ context.Context, entityID id.ID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.items[entityID]
	return ok, nil
}

func (r *MemoryRepo[T]) ExistsByCode(ctx context.Context, code string) (bool, error) {
	_, err := r.GetByCode(ctx, code)
	if apperror.IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

// Len returns the number of stored records, archived included.
func (r *MemoryRepo[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
