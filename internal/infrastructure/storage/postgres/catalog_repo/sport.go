package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"physio/internal/core/apperror"
	"physio/internal/domain/catalogs/sport"
	"physio/internal/infrastructure/storage/postgres"
)

// SportRepo implements sport.Repository.
type SportRepo struct {
	*BaseCatalogRepo[*sport.Sport]
}

var _ sport.Repository = (*SportRepo)(nil)

func NewSportRepo(txm *postgres.TxManager) *SportRepo {
	return &SportRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*sport.Sport](
			txm,
			sport.TableName,
			postgres.ExtractDBColumns[sport.Sport](),
			func() *sport.Sport { return &sport.Sport{} },
			WithEntityName(sport.ModelName),
		),
	}
}

// FindByName retrieves a live sport by name, case-insensitively.
func (r *SportRepo) FindByName(ctx context.Context, name string) (*sport.Sport, error) {
	q := r.baseSelect().
		Where(squirrel.Expr("lower(name) = lower(?)", name)).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	s, err := r.FindOne(ctx, q)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound(sport.ModelName, name)
		}
		return nil, err
	}
	return s, nil
}
