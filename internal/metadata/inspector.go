package metadata

import (
	"reflect"
	"strings"
	"time"
	"unicode"

	"physio/internal/core/id"
)

// Selection is implemented by enum types that expose their allowed values.
type Selection interface {
	SelectionOptions() []Option
}

// Magic fields present on every model regardless of its struct.
const (
	FieldID          = "id"
	FieldDisplayName = "display_name"
	FieldLastUpdate  = "__last_update"
)

var (
	idType        = reflect.TypeOf(id.ID{})
	idSliceType   = reflect.TypeOf([]id.ID(nil))
	timeType      = reflect.TypeOf(time.Time{})
	selectionType = reflect.TypeOf((*Selection)(nil)).Elem()
)

// Inspect analyzes a struct and returns its EntityDef.
//
// Recognised tags:
//
//	json:"name"          field name (required for the field to be listed)
//	db:"column"          storage column; "-" or absent means not stored on this table
//	binding:"required"   required field
//	ref:"model"          referenced model for id and []id fields
//	label:"Text"         human label
//	meta:"date,readonly" date-only timestamps, read-only fields, "one2many" back-references
func Inspect(entity any, name string, entityType EntityType) EntityDef {
	t := reflect.TypeOf(entity)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if name == "" {
		name = t.Name()
	}

	def := EntityDef{
		Name:   name,
		Label:  guessLabel(t.Name()),
		Type:   entityType,
		Fields: make([]FieldDef, 0, t.NumField()),
	}
	if entityType != TypeMixin {
		def.TableName = strings.ReplaceAll(name, ".", "_")
	}

	inspectStruct(t, &def)
	addMagicFields(&def)

	return def
}

func inspectStruct(t reflect.Type, def *EntityDef) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Anonymous {
			ft := field.Type
			if ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				inspectStruct(ft, def)
			}
			continue
		}
		if field.PkgPath != "" {
			continue
		}

		name := jsonName(field)
		if name == "-" {
			continue
		}

		fDef := FieldDef{
			Name:          name,
			Label:         fieldLabel(field),
			Column:        columnName(field),
			ReferenceType: field.Tag.Get("ref"),
			Required:      isRequired(field),
			ReadOnly:      hasMeta(field, "readonly"),
		}
		mapFieldType(&fDef, field)

		def.Fields = append(def.Fields, fDef)
	}
}

func addMagicFields(def *EntityDef) {
	magic := []FieldDef{
		{Name: FieldID, Label: "ID", Type: TypeString, ReadOnly: true, Column: "id"},
		{Name: FieldDisplayName, Label: "Display Name", Type: TypeString, ReadOnly: true},
		{Name: FieldLastUpdate, Label: "Last Modified on", Type: TypeDatetime, ReadOnly: true},
	}
	for _, m := range magic {
		if _, exists := def.Field(m.Name); !exists {
			def.Fields = append(def.Fields, m)
		}
	}
}

func mapFieldType(def *FieldDef, field reflect.StructField) {
	t := field.Type
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t.Implements(selectionType) {
		def.Type = TypeSelection
		def.Options = reflect.Zero(t).Interface().(Selection).SelectionOptions()
		return
	}

	switch t {
	case idType:
		def.Type = TypeReference
		return
	case idSliceType:
		if hasMeta(field, "one2many") {
			def.Type = TypeOne2Many
		} else {
			def.Type = TypeMany2Many
		}
		return
	case timeType:
		if hasMeta(field, "date") {
			def.Type = TypeDate
		} else {
			def.Type = TypeDatetime
		}
		return
	}

	switch t.Kind() {
	case reflect.String:
		def.Type = TypeString
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		def.Type = TypeInteger
	case reflect.Float32, reflect.Float64:
		def.Type = TypeNumber
		def.Scale = 2
	case reflect.Bool:
		def.Type = TypeBoolean
	case reflect.Map:
		def.Type = TypeJSON
	case reflect.Slice:
		def.Type = TypeOne2Many
	default:
		def.Type = TypeString
	}
}

func jsonName(field reflect.StructField) string {
	if tag, ok := field.Tag.Lookup("json"); ok {
		parts := strings.Split(tag, ",")
		if parts[0] != "" {
			return parts[0]
		}
	}
	return toSnake(field.Name)
}

func columnName(field reflect.StructField) string {
	tag := field.Tag.Get("db")
	if tag == "-" {
		return ""
	}
	return tag
}

func isRequired(field reflect.StructField) bool {
	if tag, ok := field.Tag.Lookup("binding"); ok {
		return strings.Contains(tag, "required")
	}
	return false
}

func hasMeta(field reflect.StructField, opt string) bool {
	for _, o := range strings.Split(field.Tag.Get("meta"), ",") {
		if strings.TrimSpace(o) == opt {
			return true
		}
	}
	return false
}

func fieldLabel(field reflect.StructField) string {
	if l := field.Tag.Get("label"); l != "" {
		return l
	}
	return guessLabel(field.Name)
}

// guessLabel splits CamelCase: "StyleOfLife" -> "Style Of Life", "SportID" -> "Sport ID".
func guessLabel(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevLower := unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || (nextLower && unicode.IsUpper(runes[i-1])) {
				b.WriteByte(' ')
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

func toSnake(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
