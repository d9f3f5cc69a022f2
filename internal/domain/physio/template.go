package physio

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"physio/internal/core/apperror"
	"physio/internal/core/entity"
	"physio/internal/core/id"
	"physio/internal/domain"
	"physio/pkg/logger"
)

// TemplateNamespace prefixes every template reference key.
const TemplateNamespace = "physiotherapy_mgmt"

// TemplateKey returns the reference key of table's template,
// e.g. "physiotherapy_mgmt.template_partner_treatment".
func TemplateKey(table string) string {
	return TemplateNamespace + ".template_" + table
}

// TableFromKey is the inverse of TemplateKey.
func TableFromKey(key string) (string, bool) {
	return strings.CutPrefix(key, TemplateNamespace+".template_")
}

// Composing is a stored record type that embeds PartnerFields.
type Composing interface {
	entity.Validatable
	GetID() id.ID
	TableName() string
}

// TemplateStore loads persisted template references keyed by TemplateKey.
type TemplateStore interface {
	LoadTemplateRefs(ctx context.Context) (map[string]id.ID, error)
}

// RejectObserver is told about refused template deletions.
type RejectObserver interface {
	TemplateDeleteRejected(table string)
}

// TemplateRegistry maps each composing table to its template record.
// It is filled at start-up and read by delete guards.
type TemplateRegistry struct {
	mu      sync.RWMutex
	byTable map[string]id.ID
}

// NewTemplateRegistry creates an empty registry.
func NewTemplateRegistry() *TemplateRegistry {
	return &TemplateRegistry{byTable: make(map[string]id.ID)}
}

// Register sets the template of table, replacing any previous one.
func (r *TemplateRegistry) Register(table string, recordID id.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byTable[table] = recordID
}

// RegisterType registers the template of T's table.
func RegisterType[T Composing](r *TemplateRegistry, recordID id.ID) {
	var zero T
	r.Register(zero.TableName(), recordID)
}

// Resolve returns the template of table. A table without a template is a
// wiring error and reported as internal.
func (r *TemplateRegistry) Resolve(table string) (id.ID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	recordID, ok := r.byTable[table]
	if !ok {
		return id.Nil(), apperror.NewInternal(fmt.Errorf("no template registered under %s", TemplateKey(table))).
			WithDetail("key", TemplateKey(table))
	}
	return recordID, nil
}

// IsTemplate reports whether recordID is the template of table.
func (r *TemplateRegistry) IsTemplate(table string, recordID id.ID) (bool, error) {
	tmpl, err := r.Resolve(table)
	if err != nil {
		return false, err
	}
	return tmpl == recordID, nil
}

// Load registers every reference from store. Keys outside the template namespace are ignored.
func (r *TemplateRegistry) Load(ctx context.Context, store TemplateStore) error {
	refs, err := store.LoadTemplateRefs(ctx)
	if err != nil {
		return fmt.Errorf("load template refs: %w", err)
	}
	for key, recordID := range refs {
		if table, ok := TableFromKey(key); ok {
			r.Register(table, recordID)
		}
	}
	return nil
}

// Keys returns the registered references keyed by TemplateKey, sorted by key.
func (r *TemplateRegistry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.byTable))
	for table := range r.byTable {
		keys = append(keys, TemplateKey(table))
	}
	sort.Strings(keys)
	return keys
}

// Guard returns a before-delete hook refusing to delete the template of T.
func Guard[T Composing](r *TemplateRegistry, obs RejectObserver) domain.Hook[T] {
	return func(ctx context.Context, rec T) error {
		table := rec.TableName()
		isTemplate, err := r.IsTemplate(table, rec.GetID())
		if err != nil {
			return err
		}
		if !isTemplate {
			return nil
		}
		logger.Warn(ctx, "template record deletion refused",
			"table", table,
			"record_id", rec.GetID().String(),
		)
		if obs != nil {
			obs.TemplateDeleteRejected(table)
		}
		return apperror.NewTemplateProtected(table, rec.GetID().String())
	}
}
