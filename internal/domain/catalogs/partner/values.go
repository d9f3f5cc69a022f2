package partner

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"physio/internal/core/apperror"
	"physio/internal/core/entity"
	"physio/internal/core/id"
)

// DateLayout is the wire format of date-only fields.
const DateLayout = "2006-01-02"

// Values is a create/write payload keyed by field name, as decoded from JSON.
// Empty relational values may be sent as null or false.
type Values map[string]any

// Clone returns a shallow copy so callers' maps are never mutated.
func (v Values) Clone() Values {
	if v == nil {
		return Values{}
	}
	return maps.Clone(v)
}

// Has reports whether the payload touches field.
func (v Values) Has(field string) bool {
	_, ok := v[field]
	return ok
}

// readOnly fields are computed or managed by storage.
var readOnly = map[string]bool{
	"id":                    true,
	"version":               true,
	"create_date":           true,
	"display_name":          true,
	"__last_update":         true,
	"treatment_ids":         true,
	"treatment_history_ids": true,
	"treatment_count":       true,
}

// Apply writes the payload onto p. Unknown or read-only keys are rejected
// and p is left partially updated only when an error is returned.
func (p *Partner) Apply(vals Values) error {
	for field, raw := range vals {
		if readOnly[field] {
			return apperror.NewInvalidInput(field, "field is read-only")
		}
		if err := p.set(field, raw); err != nil {
			if apperror.IsAppError(err) {
				return err
			}
			return apperror.NewInvalidInput(field, err.Error())
		}
	}
	return nil
}

func (p *Partner) set(field string, raw any) error {
	var err error
	switch field {
	case "code":
		p.Code, err = asString(raw)
	case "name":
		p.Name, err = asString(raw)
	case "email":
		p.Email, err = asString(raw)
	case "phone":
		p.Phone, err = asString(raw)
	case "function":
		p.Function, err = asString(raw)
	case "allergies":
		p.Allergies, err = asString(raw)
	case "style_of_life":
		p.StyleOfLife, err = asString(raw)
	case "active":
		p.Active, err = asBool(raw)
	case "sport_practice":
		p.SportPractice, err = asBool(raw)
	case FieldPhysiotherapyPartner:
		p.PhysiotherapyPartner, err = asBool(raw)
	case "deletion_mark":
		p.DeletionMark, err = asBool(raw)
	case "birth_date":
		p.BirthDate, err = asDate(raw)
	case "gender":
		var s string
		s, err = asString(raw)
		p.Gender = Gender(s)
	case "civil_state":
		var s string
		s, err = asString(raw)
		p.CivilState = CivilState(s)
	case "sport_periodicity":
		var s string
		s, err = asString(raw)
		p.SportPeriodicity = SportPeriodicity(s)
	case "sport_id":
		p.SportID, err = asRef(raw)
	case FieldCompanyID:
		p.CompanyID, err = asRef(raw)
	case FieldPersonalHistory:
		p.PersonalHistoryIDs, err = asRefList(raw)
	case FieldFamiliarHistory:
		p.FamiliarHistoryIDs, err = asRefList(raw)
	case "attributes":
		p.Attributes, err = asAttributes(raw)
	default:
		return apperror.NewInvalidInput(field, "unknown field")
	}
	return err
}

func isEmpty(raw any) bool {
	if raw == nil {
		return true
	}
	b, ok := raw.(bool)
	return ok && !b
}

func asString(raw any) (string, error) {
	if isEmpty(raw) {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %T", raw)
	}
	return s, nil
}

func asBool(raw any) (bool, error) {
	if raw == nil {
		return false, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, fmt.Errorf("expected boolean, got %T", raw)
	}
	return b, nil
}

func asDate(raw any) (*time.Time, error) {
	if isEmpty(raw) {
		return nil, nil
	}
	switch v := raw.(type) {
	case time.Time:
		d := v.UTC().Truncate(24 * time.Hour)
		return &d, nil
	case string:
		d, err := time.Parse(DateLayout, v)
		if err != nil {
			return nil, fmt.Errorf("expected date YYYY-MM-DD: %w", err)
		}
		return &d, nil
	}
	return nil, fmt.Errorf("expected date, got %T", raw)
}

func asRef(raw any) (*id.ID, error) {
	if isEmpty(raw) {
		return nil, nil
	}
	switch v := raw.(type) {
	case id.ID:
		return &v, nil
	case string:
		parsed, err := id.Parse(v)
		if err != nil {
			return nil, err
		}
		return &parsed, nil
	}
	return nil, fmt.Errorf("expected id, got %T", raw)
}

func asRefList(raw any) ([]id.ID, error) {
	if isEmpty(raw) {
		return []id.ID{}, nil
	}
	switch v := raw.(type) {
	case []id.ID:
		return dedupe(v), nil
	case []string:
		ids, err := id.ParseList(v)
		if err != nil {
			return nil, err
		}
		return dedupe(ids), nil
	case []any:
		ids := make([]id.ID, 0, len(v))
		for _, item := range v {
			ref, err := asRef(item)
			if err != nil {
				return nil, err
			}
			if ref != nil {
				ids = append(ids, *ref)
			}
		}
		return dedupe(ids), nil
	}
	return nil, fmt.Errorf("expected list of ids, got %T", raw)
}

func dedupe(ids []id.ID) []id.ID {
	seen := make(map[id.ID]bool, len(ids))
	out := make([]id.ID, 0, len(ids))
	for _, x := range ids {
		if !seen[x] {
			seen[x] = true
			out = append(out, x)
		}
	}
	return out
}

func asAttributes(raw any) (entity.Attributes, error) {
	if raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case map[string]any:
		return entity.Attributes(v), nil
	case entity.Attributes:
		return v, nil
	case json.RawMessage:
		var a entity.Attributes
		if err := a.Scan([]byte(v)); err != nil {
			return nil, err
		}
		return a, nil
	}
	return nil, fmt.Errorf("expected object, got %T", raw)
}

// ToValues renders the stored fields of p as a payload, used for audit diffs.
func (p *Partner) ToValues() Values {
	v := Values{
		"code":                    p.Code,
		"name":                    p.Name,
		"email":                   p.Email,
		"phone":                   p.Phone,
		"function":                p.Function,
		"active":                  p.Active,
		FieldPhysiotherapyPartner: p.PhysiotherapyPartner,
		"gender":                  string(p.Gender),
		"civil_state":             string(p.CivilState),
		"allergies":               p.Allergies,
		"style_of_life":           p.StyleOfLife,
		"sport_practice":          p.SportPractice,
		"sport_periodicity":       string(p.SportPeriodicity),
		FieldPersonalHistory:      id.Strings(p.PersonalHistoryIDs),
		FieldFamiliarHistory:      id.Strings(p.FamiliarHistoryIDs),
	}
	if p.BirthDate != nil {
		v["birth_date"] = p.BirthDate.Format(DateLayout)
	} else {
		v["birth_date"] = nil
	}
	v["sport_id"] = refString(p.SportID)
	v[FieldCompanyID] = refString(p.CompanyID)
	return v
}

func refString(ref *id.ID) any {
	if ref == nil {
		return nil
	}
	return ref.String()
}
