// Package service holds the business rules of leagues, predictions, race
// weekends and accounts on top of a store.Store.
package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/padraicbc/gridpredict/apperr"
	"github.com/padraicbc/gridpredict/models"
)

var validate = NewValidator()

// NewValidator returns a validator reporting fields by their JSON name,
// with the "top10" rule for comma-separated top-10 picks.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("top10", func(fl validator.FieldLevel) bool {
		_, err := models.ParseTop10(fl.Field().String())
		return err == nil
	})
	return v
}

// invalid turns a validator failure into a Validation error naming the
// first failing field. field names Var checks, which carry no field.
func invalid(err error, field string) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if f := verrs[0].Field(); f != "" {
			field = f
		}
		return apperr.Validation("%s failed %q check", field, verrs[0].Tag())
	}
	return apperr.Validation("%s is invalid", field)
}

// canManage reports whether actor may administer league l.
func canManage(actor *models.User, l *models.League) bool {
	return actor.IsSuperadmin || actor.ID == l.OwnerID
}
