package handlers

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/padraicbc/gridpredict/apperr"
	"github.com/padraicbc/gridpredict/service"
)

// Validator adapts validator/v10 to echo.Validator.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{v: service.NewValidator()}
}

// Validate reports every failing field as a single Validation error.
func (cv *Validator) Validate(i interface{}) error {
	err := cv.v.Struct(i)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		return apperr.Validation("invalid fields: %s", strings.Join(fields, ", "))
	}
	return err
}
