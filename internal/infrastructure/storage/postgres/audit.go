package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	appctx "physio/internal/core/context"
	"physio/internal/core/id"
	"physio/internal/domain/audit"
)

// Compression algorithms stored in sys_audit.compression_algo.
const (
	compressionNone = "none"
	compressionZstd = "zstd"
)

// DefaultAuditCompressThreshold is the payload size above which changes are compressed.
const DefaultAuditCompressThreshold = 10 * 1024

var (
	_ audit.Recorder = (*AuditStore)(nil)
	_ audit.Reader   = (*AuditStore)(nil)
)

// AuditStore writes the change journal into sys_audit.
// Writes use the caller's transaction, so a failed write aborts the change.
type AuditStore struct {
	txm       *TxManager
	codec     *auditCodec
	threshold int
}

// NewAuditStore creates the store. threshold <= 0 selects the default.
func NewAuditStore(txm *TxManager, threshold int) (*AuditStore, error) {
	codec, err := newAuditCodec()
	if err != nil {
		return nil, err
	}
	if threshold <= 0 {
		threshold = DefaultAuditCompressThreshold
	}
	return &AuditStore{txm: txm, codec: codec, threshold: threshold}, nil
}

// LogChange implements audit.Recorder.
func (s *AuditStore) LogChange(ctx context.Context, entityType string, entityID id.ID, action audit.Action, changes map[string]any) error {
	raw, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("marshal changes: %w", err)
	}

	plain, packed, algo := s.codec.pack(raw, s.threshold)

	const q = `
		INSERT INTO sys_audit (
			id, entity_type, entity_id, action, user_id,
			changes, changes_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = s.txm.GetQuerier(ctx).Exec(ctx, q,
		id.New(), entityType, entityID, string(action), appctx.GetUserID(ctx),
		plain, packed, algo, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// GetEntityHistory implements audit.Reader.
func (s *AuditStore) GetEntityHistory(ctx context.Context, entityType string, entityID id.ID, limit int) ([]audit.Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	const q = `
		SELECT id, entity_type, entity_id, action, user_id,
		       changes, changes_compressed, compression_algo, created_at
		FROM sys_audit
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := s.txm.GetQuerier(ctx).Query(ctx, q, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := make([]audit.Entry, 0)
	for rows.Next() {
		var (
			e      audit.Entry
			action string
			userID *string
			plain  []byte
			packed []byte
			algo   string
		)
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &action, &userID,
			&plain, &packed, &algo, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Action = audit.Action(action)
		if userID != nil {
			e.UserID = *userID
		}
		e.Changes, err = s.codec.unpack(plain, packed, algo)
		if err != nil {
			return nil, fmt.Errorf("audit entry %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// auditCodec compresses large change sets with zstd.
type auditCodec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func newAuditCodec() (*auditCodec, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &auditCodec{encoder: encoder, decoder: decoder}, nil
}

// pack returns either the plain JSON or its compressed form, never both.
func (c *auditCodec) pack(raw []byte, threshold int) (plain, packed []byte, algo string) {
	if len(raw) <= threshold {
		return raw, nil, compressionNone
	}
	return nil, c.encoder.EncodeAll(raw, nil), compressionZstd
}

func (c *auditCodec) unpack(plain, packed []byte, algo string) (json.RawMessage, error) {
	switch algo {
	case compressionZstd:
		out, err := c.decoder.DecodeAll(packed, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress changes: %w", err)
		}
		return out, nil
	case compressionNone, "":
		return plain, nil
	}
	return nil, fmt.Errorf("unknown compression %q", algo)
}
