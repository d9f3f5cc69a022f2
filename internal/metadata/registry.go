// Package metadata describes stored models and their fields.
// It is the platform's "fields_get": clients read it through /meta and the
// partner classifier reads the mixin's declared field names from it.
package metadata

import (
	"sort"
	"sync"
)

// EntityType defines the category of the entity.
type EntityType string

const (
	TypeCatalog EntityType = "catalog"
	TypeRecord  EntityType = "record"
	// TypeMixin marks an abstract field set with no table of its own.
	TypeMixin EntityType = "mixin"
)

// FieldType defines the data type of a field.
type FieldType string

const (
	TypeString    FieldType = "string"
	TypeInteger   FieldType = "integer"
	TypeNumber    FieldType = "number"
	TypeBoolean   FieldType = "boolean"
	TypeDate      FieldType = "date"
	TypeDatetime  FieldType = "datetime"
	TypeReference FieldType = "reference"
	TypeMany2Many FieldType = "many2many"
	TypeOne2Many  FieldType = "one2many"
	TypeSelection FieldType = "selection"
	TypeJSON      FieldType = "json"
)

// Option is one value of a selection field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// EntityDef describes a model.
type EntityDef struct {
	Name      string     `json:"name"`
	Label     string     `json:"label,omitempty"`
	Type      EntityType `json:"type"`
	TableName string     `json:"-"`
	Fields    []FieldDef `json:"fields"`
}

// FieldDef describes a field.
type FieldDef struct {
	Name          string    `json:"name"`
	Label         string    `json:"label,omitempty"`
	Type          FieldType `json:"type"`
	Column        string    `json:"-"`
	ReferenceType string    `json:"reference_type,omitempty"`
	// Related is the "<field>.<field>" path of a mirrored field.
	Related  string   `json:"related,omitempty"`
	Required bool     `json:"required,omitempty"`
	ReadOnly bool     `json:"readonly,omitempty"`
	Scale    int      `json:"scale,omitempty"`
	Options  []Option `json:"options,omitempty"`
}

// Stored reports whether the field has its own column.
func (f FieldDef) Stored() bool {
	return f.Column != "" && f.Related == ""
}

// Field returns the field with the given name.
func (d EntityDef) Field(name string) (FieldDef, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// FieldNames returns the names of all declared fields in declaration order.
func (d EntityDef) FieldNames() []string {
	names := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		names[i] = f.Name
	}
	return names
}

// AddRelated appends read-only mirrors of owner's fields reached through via,
// e.g. AddRelated(partnerDef, "partner_id", "birth_date").
// Names missing on owner are skipped and returned.
func (d *EntityDef) AddRelated(owner EntityDef, via string, names ...string) (missing []string) {
	for _, name := range names {
		f, ok := owner.Field(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		f.Related = via + "." + name
		f.ReadOnly = true
		f.Required = false
		f.Column = ""
		d.Fields = append(d.Fields, f)
	}
	return missing
}

// Registry stores entity definitions.
type Registry struct {
	mu       sync.RWMutex
	entities map[string]EntityDef
}

func NewRegistry() *Registry {
	return &Registry{
		entities: make(map[string]EntityDef),
	}
}

func (r *Registry) Register(def EntityDef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entities[def.Name] = def
}

func (r *Registry) Get(name string) (EntityDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.entities[name]
	return d, ok
}

// List returns all definitions sorted by name.
func (r *Registry) List() []EntityDef {
	r.mu.RLock()
	list := make([]EntityDef, 0, len(r.entities))
	for _, def := range r.entities {
		list = append(list, def)
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}
