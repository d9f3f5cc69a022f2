package entity

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"maps"

	"github.com/shopspring/decimal"
)

// Attributes holds clinic-specific custom fields stored as JSONB,
// e.g. session fee or insurance number on a treatment.
//
// Numbers are decoded as json.Number so fees keep their exact decimal value.
type Attributes map[string]any

// Scan implements sql.Scanner.
func (a *Attributes) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*a = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("attributes: unsupported source type %T", src)
	}
	if len(raw) == 0 {
		*a = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return fmt.Errorf("attributes: decode: %w", err)
	}
	*a = out
	return nil
}

// Value implements driver.Valuer.
func (a Attributes) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

// GetString returns the string under key or "".
func (a Attributes) GetString(key string) string {
	s, _ := a[key].(string)
	return s
}

// GetInt returns the integer under key or 0.
func (a Attributes) GetInt(key string) int64 {
	switch v := a[key].(type) {
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return 0
		}
		return i
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

// GetDecimal returns the decimal under key or zero.
// Accepts json.Number, numeric strings and float64.
func (a Attributes) GetDecimal(key string) decimal.Decimal {
	switch v := a[key].(type) {
	case json.Number:
		if d, err := decimal.NewFromString(v.String()); err == nil {
			return d
		}
	case string:
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	case float64:
		return decimal.NewFromFloat(v)
	case decimal.Decimal:
		return v
	}
	return decimal.Zero
}

// GetBool returns the boolean under key or false.
func (a Attributes) GetBool(key string) bool {
	b, _ := a[key].(bool)
	return b
}

// Has reports whether key is present, including nil values.
func (a Attributes) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// SetDecimal stores d as a string to keep precision across JSON round-trips.
func (a *Attributes) SetDecimal(key string, d decimal.Decimal) {
	if *a == nil {
		*a = make(Attributes)
	}
	(*a)[key] = d.String()
}

// Clone creates a shallow copy.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	return maps.Clone(a)
}
