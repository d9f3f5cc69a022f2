package catalog_repo

import (
	"physio/internal/domain/physio/treatment"
	th "physio/internal/domain/physio/treatment_history"
	"physio/internal/infrastructure/storage/postgres"
)

// TreatmentRepo implements treatment.Repository.
type TreatmentRepo struct {
	*BaseCatalogRepo[*treatment.Treatment]
}

var _ treatment.Repository = (*TreatmentRepo)(nil)

func NewTreatmentRepo(txm *postgres.TxManager) *TreatmentRepo {
	return &TreatmentRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*treatment.Treatment](
			txm,
			treatment.TableName,
			postgres.ExtractDBColumns[treatment.Treatment](),
			func() *treatment.Treatment { return &treatment.Treatment{} },
			WithEntityName(treatment.ModelName),
			WithSearchColumns("name", "code", "diagnosis"),
		),
	}
}

// TreatmentHistoryRepo implements treatment_history.Repository.
type TreatmentHistoryRepo struct {
	*BaseCatalogRepo[*th.TreatmentHistory]
}

var _ th.Repository = (*TreatmentHistoryRepo)(nil)

func NewTreatmentHistoryRepo(txm *postgres.TxManager) *TreatmentHistoryRepo {
	return &TreatmentHistoryRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*th.TreatmentHistory](
			txm,
			th.TableName,
			postgres.ExtractDBColumns[th.TreatmentHistory](),
			func() *th.TreatmentHistory { return &th.TreatmentHistory{} },
			WithEntityName(th.ModelName),
			WithSearchColumns("name", "code", "notes"),
		),
	}
}
