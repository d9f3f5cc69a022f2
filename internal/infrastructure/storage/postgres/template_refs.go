package postgres

import (
	"context"
	"fmt"

	"physio/internal/core/id"
	"physio/internal/domain/physio"
)

var _ physio.TemplateStore = (*TemplateRefStore)(nil)

// TemplateRefStore persists named record references in sys_template_refs,
// keyed like "physiotherapy_mgmt.template_partner_treatment".
type TemplateRefStore struct {
	txm *TxManager
}

func NewTemplateRefStore(txm *TxManager) *TemplateRefStore {
	return &TemplateRefStore{txm: txm}
}

// LoadTemplateRefs implements physio.TemplateStore.
func (s *TemplateRefStore) LoadTemplateRefs(ctx context.Context) (map[string]id.ID, error) {
	rows, err := s.txm.GetQuerier(ctx).Query(ctx, `SELECT key, record_id FROM sys_template_refs`)
	if err != nil {
		return nil, fmt.Errorf("query template refs: %w", err)
	}
	defer rows.Close()

	refs := make(map[string]id.ID)
	for rows.Next() {
		var (
			key      string
			recordID id.ID
		)
		if err := rows.Scan(&key, &recordID); err != nil {
			return nil, fmt.Errorf("scan template ref: %w", err)
		}
		refs[key] = recordID
	}
	return refs, rows.Err()
}

// TemplateRefsChannel is the NOTIFY channel raised by Save. The payload is the key.
const TemplateRefsChannel = "template_refs_changed"

// Lookup returns the record behind key, or false when none is stored.
func (s *TemplateRefStore) Lookup(ctx context.Context, key string) (id.ID, bool, error) {
	refs, err := s.LoadTemplateRefs(ctx)
	if err != nil {
		return id.Nil(), false, err
	}
	recordID, ok := refs[key]
	return recordID, ok, nil
}

// Save stores or replaces the reference key -> recordID of model.
func (s *TemplateRefStore) Save(ctx context.Context, key, model string, recordID id.ID) error {
	_, err := s.txm.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO sys_template_refs (key, model, record_id, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (key) DO UPDATE
		SET model = EXCLUDED.model, record_id = EXCLUDED.record_id, updated_at = now()`,
		key, model, recordID)
	if err != nil {
		return fmt.Errorf("save template ref %s: %w", key, err)
	}
	// Delivered on commit when called inside a transaction.
	if _, err := s.txm.GetQuerier(ctx).Exec(ctx, `SELECT pg_notify($1, $2)`, TemplateRefsChannel, key); err != nil {
		return fmt.Errorf("notify template ref %s: %w", key, err)
	}
	return nil
}
