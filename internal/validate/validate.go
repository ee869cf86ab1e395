// Package validate holds the shared input validator used by the creation
// wizard and the external operations.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// ErrValidation is wrapped by every *Error.
var ErrValidation = errors.New("validation failed")

// Field error keys reported to users.
const (
	KeyRequired    = "required"
	KeyInvalidDate = "invalid_date"
	KeyOutOfRange  = "out_of_range"
	KeyInvalid     = "invalid"
)

// Error reports per-field failures keyed by JSON field name.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, ", "))
}

func (e *Error) Unwrap() error { return ErrValidation }

var (
	once     sync.Once
	instance *validator.Validate
)

// Validator returns the shared validator. Field names in errors come from
// json tags, and the "isodate" tag accepts what types.ParseDate accepts.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			if s == "" {
				return true
			}
			_, err := types.ParseDate(s)
			return err == nil
		})
		instance = v
	})
	return instance
}

// Struct validates s and converts validator failures into *Error.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = keyFor(fe.Tag())
	}
	return &Error{Fields: fields}
}

func keyFor(tag string) string {
	switch tag {
	case "required":
		return KeyRequired
	case "isodate":
		return KeyInvalidDate
	case "gt", "gte", "lt", "lte", "min", "max":
		return KeyOutOfRange
	default:
		return KeyInvalid
	}
}
