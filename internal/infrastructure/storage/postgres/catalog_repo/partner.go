package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"physio/internal/core/id"
	"physio/internal/domain"
	"physio/internal/domain/catalogs/history"
	"physio/internal/domain/catalogs/partner"
	"physio/internal/infrastructure/storage/postgres"
)

// relation is a many2many table between res_partner and a history catalog.
type relation struct {
	table  string
	column string
	get    func(*partner.Partner) []id.ID
	set    func(*partner.Partner, []id.ID)
}

var partnerRelations = []relation{
	{
		table:  history.Personal.RelTable(),
		column: partner.FieldPersonalHistory,
		get:    func(p *partner.Partner) []id.ID { return p.PersonalHistoryIDs },
		set:    func(p *partner.Partner, ids []id.ID) { p.PersonalHistoryIDs = ids },
	},
	{
		table:  history.Familiar.RelTable(),
		column: partner.FieldFamiliarHistory,
		get:    func(p *partner.Partner) []id.ID { return p.FamiliarHistoryIDs },
		set:    func(p *partner.Partner, ids []id.ID) { p.FamiliarHistoryIDs = ids },
	},
}

// PartnerRepo implements partner.Repository over res_partner and the history relation tables.
type PartnerRepo struct {
	*BaseCatalogRepo[*partner.Partner]
}

var _ partner.Repository = (*PartnerRepo)(nil)

func NewPartnerRepo(txm *postgres.TxManager) *PartnerRepo {
	return &PartnerRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*partner.Partner](
			txm,
			partner.TableName,
			postgres.ExtractDBColumns[partner.Partner](),
			func() *partner.Partner { return &partner.Partner{} },
			WithEntityName(partner.ModelName),
			WithSearchColumns("name", "code", "email", "phone"),
		),
	}
}

// Create inserts the partner and its history relations. Callers run it in a transaction.
func (r *PartnerRepo) Create(ctx context.Context, p *partner.Partner) error {
	if err := r.BaseCatalogRepo.Create(ctx, p); err != nil {
		return err
	}
	return r.syncRelations(ctx, p)
}

// Update saves the partner and replaces its history relations.
func (r *PartnerRepo) Update(ctx context.Context, p *partner.Partner) error {
	if err := r.BaseCatalogRepo.Update(ctx, p); err != nil {
		return err
	}
	return r.syncRelations(ctx, p)
}

func (r *PartnerRepo) GetByID(ctx context.Context, partnerID id.ID) (*partner.Partner, error) {
	p, err := r.BaseCatalogRepo.GetByID(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	if err := r.loadRelations(ctx, []*partner.Partner{p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PartnerRepo) GetByCode(ctx context.Context, code string) (*partner.Partner, error) {
	p, err := r.BaseCatalogRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := r.loadRelations(ctx, []*partner.Partner{p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PartnerRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*partner.Partner], error) {
	res, err := r.BaseCatalogRepo.List(ctx, f)
	if err != nil {
		return res, err
	}
	if err := r.loadRelations(ctx, res.Items); err != nil {
		return res, err
	}
	return res, nil
}

// syncRelations makes each relation table hold exactly the partner's ids.
// Inserts of already linked pairs are ignored. All statements go out as one batch.
func (r *PartnerRepo) syncRelations(ctx context.Context, p *partner.Partner) error {
	queries, err := r.relationQueries(p)
	if err != nil {
		return err
	}
	if err := postgres.NewBatchExecutor(r.txm).ExecuteBatch(ctx, queries); err != nil {
		return r.mapWriteErr(err, "sync relations")
	}
	return nil
}

// relationQueries builds the cleanup and insert statements for every relation.
func (r *PartnerRepo) relationQueries(p *partner.Partner) ([]postgres.BatchQuery, error) {
	var queries []postgres.BatchQuery
	for _, rel := range partnerRelations {
		ids := rel.get(p)

		del := r.Builder().Delete(rel.table).Where(squirrel.Eq{"partner_id": p.ID})
		if len(ids) > 0 {
			del = del.Where(squirrel.NotEq{rel.column: ids})
		}
		sql, args, err := del.ToSql()
		if err != nil {
			return nil, fmt.Errorf("build %s cleanup: %w", rel.table, err)
		}
		queries = append(queries, postgres.BatchQuery{SQL: sql, Args: args})

		if len(ids) == 0 {
			continue
		}
		ins := r.Builder().Insert(rel.table).Columns("partner_id", rel.column)
		for _, hid := range ids {
			ins = ins.Values(p.ID, hid)
		}
		sql, args, err = ins.Suffix("ON CONFLICT DO NOTHING").ToSql()
		if err != nil {
			return nil, fmt.Errorf("build %s insert: %w", rel.table, err)
		}
		queries = append(queries, postgres.BatchQuery{SQL: sql, Args: args})
	}
	return queries, nil
}

type relRow struct {
	PartnerID id.ID `db:"partner_id"`
	HistoryID id.ID `db:"history_id"`
}

// loadRelations fills the history id lists of partners with one query per relation.
func (r *PartnerRepo) loadRelations(ctx context.Context, partners []*partner.Partner) error {
	if len(partners) == 0 {
		return nil
	}
	byID := make(map[id.ID]*partner.Partner, len(partners))
	ids := make([]id.ID, 0, len(partners))
	for _, p := range partners {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	for _, rel := range partnerRelations {
		for _, p := range partners {
			rel.set(p, []id.ID{})
		}

		sql, args, err := r.Builder().
			Select("partner_id", rel.column+" AS history_id").
			From(rel.table).
			Where(squirrel.Eq{"partner_id": ids}).
			OrderBy("partner_id", rel.column).
			ToSql()
		if err != nil {
			return fmt.Errorf("build %s query: %w", rel.table, err)
		}

		var rows []relRow
		if err := pgxscan.Select(ctx, r.Querier(ctx), &rows, sql, args...); err != nil {
			return fmt.Errorf("load %s: %w", rel.table, err)
		}
		for _, row := range rows {
			p := byID[row.PartnerID]
			rel.set(p, append(rel.get(p), row.HistoryID))
		}
	}
	return nil
}
