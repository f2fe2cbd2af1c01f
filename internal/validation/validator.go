// Package validation checks inbound account and pet requests and reports
// every offending field as a common.ValidationError.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"usersvc/internal/common"
	"usersvc/internal/models"
)

var phonePattern = regexp.MustCompile(`^[0-9]{2,4}-[0-9]{5,8}$`)

// redacted fields never echo their rejected value.
var redacted = map[string]bool{"password": true}

// messages maps field+tag to the message returned to clients. Length tags
// share one message per field.
var messages = map[string]string{
	"firstname.required": "Firstname can not be empty",
	"firstname.length":   "Firstname length invalid",
	"lastname.required":  "Lastname can not be empty",
	"lastname.length":    "Lastname length invalid",
	"birthday.required":  "Birthday can not be empty",
	"birthday.past":      "Birthday can not be present or in the future",
	"mail.email":         "E-mail address invalid",
	"phone.phone":        "Phone number invalid",
	"username.required":  "Username must contain a value",
	"username.length":    "Username length invalid",
	"password.required":  "Password must contain a value",
	"password.length":    "Password length invalid",
	"roles.roles":        "Roles contain an unknown label",
	"name.required":      "Name can not be empty",
	"name.length":        "Name length invalid",
	"species.required":   "Species can not be empty",
	"species.length":     "Species length invalid",
	"sex.length":         "Sex length invalid",
	"age.gte":            "Age can not be negative",
}

// Validator wraps a configured go-playground validator.
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

// New returns a Validator that judges "past" against the wall clock.
func New() *Validator {
	return NewWithClock(time.Now)
}

// NewWithClock returns a Validator with an injectable clock.
func NewWithClock(now func() time.Time) *Validator {
	v := &Validator{validate: validator.New(), now: now}

	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// A zero Date is reported as missing so "required" fails on it.
	v.validate.RegisterCustomTypeFunc(func(field reflect.Value) any {
		d, ok := field.Interface().(models.Date)
		if !ok || d.IsZero() {
			return nil
		}
		return d.Time
	}, models.Date{})

	mustRegister(v.validate, "past", v.validatePast)
	mustRegister(v.validate, "phone", validatePhone)
	mustRegister(v.validate, "roles", validateRoles)

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

func (v *Validator) validatePast(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	now := v.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return t.Before(today)
}

func validatePhone(fl validator.FieldLevel) bool {
	return phonePattern.MatchString(fl.Field().String())
}

func validateRoles(fl validator.FieldLevel) bool {
	roles, ok := fl.Field().Interface().(models.RoleSet)
	if !ok {
		return false
	}
	return roles.Known()
}

// Account validates an inbound account.
func (v *Validator) Account(req models.AccountRequest) error {
	return v.check(req)
}

// Pet validates an inbound pet.
func (v *Validator) Pet(req models.PetRequest) error {
	return v.check(req)
}

func (v *Validator) check(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}
	out := &common.ValidationError{Fields: make([]common.FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, common.FieldError{
			Field:         fe.Field(),
			Message:       message(fe.Field(), fe.Tag()),
			RejectedValue: rejected(fe),
		})
	}
	return out
}

func message(field, tag string) string {
	key := field + "." + tag
	if tag == "min" || tag == "max" {
		key = field + ".length"
	}
	if msg, ok := messages[key]; ok {
		return msg
	}
	return fmt.Sprintf("Field '%s' failed on the '%s' tag", field, tag)
}

func rejected(fe validator.FieldError) string {
	if redacted[fe.Field()] {
		return ""
	}
	switch val := fe.Value().(type) {
	case nil:
		return ""
	case time.Time:
		return val.Format(models.DateLayout)
	case models.RoleSet:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
