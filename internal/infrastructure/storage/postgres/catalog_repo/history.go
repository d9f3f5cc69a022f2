package catalog_repo

import (
	"context"

	"physio/internal/domain"
	"physio/internal/domain/catalogs/history"
	"physio/internal/infrastructure/storage/postgres"
)

// HistoryRepo implements history.Repository for one history kind.
type HistoryRepo struct {
	*BaseCatalogRepo[*history.Entry]
	kind history.Kind
}

var _ history.Repository = (*HistoryRepo)(nil)

func NewHistoryRepo(txm *postgres.TxManager, kind history.Kind) *HistoryRepo {
	return &HistoryRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*history.Entry](
			txm,
			kind.TableName(),
			postgres.ExtractDBColumns[history.Entry](),
			func() *history.Entry { return &history.Entry{Kind: kind} },
			WithEntityName(kind.ModelName()),
		),
		kind: kind,
	}
}

func (r *HistoryRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*history.Entry], error) {
	res, err := r.BaseCatalogRepo.List(ctx, f)
	for _, e := range res.Items {
		e.Kind = r.kind
	}
	return res, err
}
