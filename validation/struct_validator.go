package validation

import (
	stderrors "errors"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/profilewizard/errors"
)

var structs = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	return v
})

// tagMessages maps validator tags to the text that follows the field name.
// The rule parameter is appended where the message ends in a space.
var tagMessages = map[string]string{
	"required": "is required",
	"min":      "must be at least ",
	"max":      "must be at most ",
	"gte":      "must be greater than or equal to ",
	"lte":      "must be less than or equal to ",
	"gtefield": "must not be before ",
	"oneof":    "must be one of: ",
	"url":      "must be a valid URL",
}

// Validate checks s against its `validate` struct tags. Failures come back as
// one INVALID_INPUT AppError listing every field, named by its json tag.
func Validate(s any) error {
	err := structs().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.Validation("validation failed").WithCause(err)
	}
	c := New()
	for _, fe := range verrs {
		c.AddError(fe.Field(), message(fe))
	}
	return c.Validate()
}

// Valid reports whether s passes its struct tags. It is side-effect free, so
// completion guards may call it on every render.
func Valid(s any) bool {
	return structs().Struct(s) == nil
}

// Fields returns the per-field failures carried by an error from Validate or
// Checker.Validate.
func Fields(err error) []FieldError {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		return nil
	}
	fields, _ := appErr.Details["fields"].([]FieldError)
	return fields
}

func message(fe validator.FieldError) string {
	msg, ok := tagMessages[fe.Tag()]
	if !ok {
		return "is invalid"
	}
	if strings.HasSuffix(msg, " ") {
		msg += fe.Param()
	}
	return msg
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return toSnakeCase(f.Name)
	}
	return name
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
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
