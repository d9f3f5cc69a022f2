// Package validation registers request validators on gin's binding engine.
package validation

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"physio/internal/core/apperror"
	"physio/internal/domain/catalogs/partner"
	"physio/internal/metadata"
)

// TagSelection validates a string against a named option set:
//
//	Gender string `json:"gender" binding:"omitempty,selection=gender"`
const TagSelection = "selection"

// selections maps partner field names to their allowed options.
var selections = map[string][]metadata.Option{
	"gender":            partner.Gender("").SelectionOptions(),
	"civil_state":       partner.CivilState("").SelectionOptions(),
	"sport_periodicity": partner.SportPeriodicity("").SelectionOptions(),
}

var (
	registerOnce sync.Once
	registerErr  error
	engine       *validator.Validate
)

// Register installs the custom tags on v.
func Register(v *validator.Validate) error {
	return v.RegisterValidation(TagSelection, validSelection)
}

// Setup registers the custom tags on gin's default validator. Safe to call repeatedly.
func Setup() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = fmt.Errorf("unexpected gin validator engine %T", binding.Validator.Engine())
			return
		}
		if registerErr = Register(v); registerErr == nil {
			engine = v
		}
	})
	return registerErr
}

func validSelection(fl validator.FieldLevel) bool {
	opts, ok := selections[fl.Param()]
	if !ok {
		return false
	}
	value := fl.Field().String()
	if value == "" {
		return true
	}
	for _, o := range opts {
		if o.Value == value {
			return true
		}
	}
	return false
}

// CheckPartnerValues validates the selection keys of a partner write payload.
// Payloads are free-form maps, so the tags are applied per value.
func CheckPartnerValues(vals partner.Values) error {
	if err := Setup(); err != nil {
		return apperror.NewInternal(err)
	}
	for field := range selections {
		raw, ok := vals[field]
		if !ok || raw == nil {
			continue
		}
		s, ok := raw.(string)
		if !ok {
			return apperror.NewInvalidInput(field, "expected a string")
		}
		if err := engine.Var(s, TagSelection+"="+field); err != nil {
			return apperror.NewInvalidInput(field, fmt.Sprintf("value %q is not allowed", s)).
				WithDetail("allowed", optionValues(selections[field]))
		}
	}
	return nil
}

func optionValues(opts []metadata.Option) []string {
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = o.Value
	}
	return out
}

// FromBindError converts a binding failure into a validation AppError
// listing the offending fields.
func FromBindError(err error) *apperror.AppError {
	appErr := apperror.NewValidation("invalid request body")
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return appErr.WithDetail("error", err.Error())
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return appErr.WithDetail("fields", fields)
}
