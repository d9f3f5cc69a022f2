package domain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"physio/internal/core/apperror"
	"physio/internal/core/entity"
	"physio/internal/domain"
	"physio/internal/domain/domaintest"
)

// countingTx counts transactions and runs fn directly.
type countingTx struct {
	runs int
}

func (c *countingTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	c.runs++
	return fn(ctx)
}

func newService(t *testing.T) (*domain.CatalogService[*entity.Catalog], *domaintest.MemoryRepo[*entity.Catalog], *countingTx) {
	t.Helper()
	repo := domaintest.NewMemoryRepo[*entity.Catalog]()
	txm := &countingTx{}
	svc := domain.NewCatalogService(domain.CatalogServiceConfig[*entity.Catalog]{
		Repo:       repo,
		TxManager:  txm,
		Numerator:  domaintest.NewNumerator(),
		EntityName: "partner.sport",
	})
	return svc, repo, txm
}

func newCatalog(name string) *entity.Catalog {
	c := entity.NewCatalog("", name)
	return &c
}

func TestCreate_RunsHooksInsideTransaction(t *testing.T) {
	svc, repo, txm := newService(t)

	var order []string
	svc.Hooks().OnBeforeCreate(func(ctx context.Context, c *entity.Catalog) error {
		order = append(order, "before")
		code, err := svc.NextCode(ctx, "SPT")
		c.Code = code
		return err
	})
	svc.Hooks().OnAfterCreate(func(ctx context.Context, c *entity.Catalog) error {
		order = append(order, "after")
		return errors.New("ignored")
	})

	c := newCatalog("Swimming")
	require.NoError(t, svc.Create(context.Background(), c))

	assert.Equal(t, []string{"before", "after"}, order)
	assert.Equal(t, 1, txm.runs)
	assert.Regexp(t, `^SPT-\d{4}-00001$`, c.Code)
	assert.Equal(t, 1, repo.Len())
}

func TestCreate_ValidationFailsBeforeTransaction(t *testing.T) {
	svc, repo, txm := newService(t)

	err := svc.Create(context.Background(), newCatalog(" "))
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, 0, txm.runs)
	assert.Equal(t, 0, repo.Len())
}

func TestCreate_BeforeHookAborts(t *testing.T) {
	svc, repo, _ := newService(t)
	svc.Hooks().OnBeforeCreate(func(ctx context.Context, c *entity.Catalog) error {
		return apperror.NewConflict("duplicate sport")
	})

	err := svc.Create(context.Background(), newCatalog("Tennis"))
	require.Error(t, err)
	assert.Equal(t, 0, repo.Calls["Create"])
}

func TestUnlink_VetoLeavesRecord(t *testing.T) {
	svc, repo, _ := newService(t)
	c := newCatalog("Running")
	require.NoError(t, svc.Create(context.Background(), c))

	svc.Hooks().OnBeforeDelete(func(ctx context.Context, x *entity.Catalog) error {
		if x.ID == c.ID {
			return apperror.NewTemplateProtected("partner.sport", x.ID)
		}
		return nil
	})

	err := svc.Unlink(context.Background(), c.ID)
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, 0, repo.Calls["Delete"])

	exists, _ := repo.Exists(context.Background(), c.ID)
	assert.True(t, exists)
}

func TestUnlink_RemovesRecord(t *testing.T) {
	svc, repo, _ := newService(t)
	c := newCatalog("Cycling")
	require.NoError(t, svc.Create(context.Background(), c))

	deleted := false
	svc.Hooks().OnAfterDelete(func(ctx context.Context, x *entity.Catalog) error {
		deleted = x.ID == c.ID
		return nil
	})

	require.NoError(t, svc.Unlink(context.Background(), c.ID))
	assert.True(t, deleted)
	assert.Equal(t, 0, repo.Len())
}

func TestDelete_Archives(t *testing.T) {
	svc, repo, _ := newService(t)
	c := newCatalog("Yoga")
	require.NoError(t, svc.Create(context.Background(), c))

	require.NoError(t, svc.Delete(context.Background(), c.ID))
	assert.True(t, repo.IsArchived(c.ID))
	assert.Equal(t, 1, repo.Len())
}

func TestGetByID_NotFoundUsesEntityName(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.GetByID(context.Background(), newCatalog("x").ID)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeNotFound, appErr.Code)
	assert.Equal(t, "partner.sport", appErr.Details["entity"])
}

func TestNextCode_WithoutNumerator(t *testing.T) {
	svc := domain.NewCatalogService(domain.CatalogServiceConfig[*entity.Catalog]{
		Repo:       domaintest.NewMemoryRepo[*entity.Catalog](),
		EntityName: "x",
	})
	_, err := svc.NextCode(context.Background(), "X")
	assert.Error(t, err)
}
