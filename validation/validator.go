package validation

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/kbukum/profilewizard/errors"
)

// Checker accumulates field errors for hand-parsed input such as command
// arguments, where struct tags do not apply.
//
//	c := validation.New()
//	level := c.Int("level", args[1])
//	c.Range("level", level, 1, 5)
//	if err := c.Validate(); err != nil { ... }
type Checker struct {
	errs []FieldError
}

// FieldError is one rejected field. Field uses the snake_case input name.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New returns an empty Checker.
func New() *Checker { return &Checker{} }

// AddError records a failure for field.
func (c *Checker) AddError(field, message string) {
	c.errs = append(c.errs, FieldError{Field: field, Message: message})
}

// failed reports whether field already has an error, so that dependent
// checks do not pile up messages for the same input.
func (c *Checker) failed(field string) bool {
	return slices.ContainsFunc(c.errs, func(e FieldError) bool { return e.Field == field })
}

// HasErrors reports whether any check failed.
func (c *Checker) HasErrors() bool { return len(c.errs) > 0 }

// Errors returns the recorded failures in check order.
func (c *Checker) Errors() []FieldError { return c.errs }

// Validate returns an INVALID_INPUT AppError carrying every failure under the
// "fields" detail, or nil.
func (c *Checker) Validate() error {
	if len(c.errs) == 0 {
		return nil
	}
	msgs := make([]string, len(c.errs))
	for i, e := range c.errs {
		msgs[i] = e.Field + " " + e.Message
	}
	return errors.Validation(strings.Join(msgs, "; ")).WithDetail("fields", c.errs)
}

// Required fails when value is blank.
func (c *Checker) Required(field, value string) *Checker {
	if strings.TrimSpace(value) == "" {
		c.AddError(field, "is required")
	}
	return c
}

// Int parses text as a base-10 integer. On failure it records an error and
// returns 0.
func (c *Checker) Int(field, text string) int {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		c.AddError(field, "must be a whole number")
		return 0
	}
	return n
}

// Range fails when value is outside [lo, hi]. It is skipped when field
// already failed to parse.
func (c *Checker) Range(field string, value, lo, hi int) *Checker {
	if !c.failed(field) && (value < lo || value > hi) {
		c.AddError(field, fmt.Sprintf("must be between %d and %d", lo, hi))
	}
	return c
}

// OneOf fails when value is not in allowed.
func (c *Checker) OneOf(field, value string, allowed ...string) *Checker {
	if !slices.Contains(allowed, value) {
		c.AddError(field, "must be one of "+strings.Join(allowed, ", "))
	}
	return c
}

// Check records message for field when ok is false.
func (c *Checker) Check(ok bool, field, message string) *Checker {
	if !ok {
		c.AddError(field, message)
	}
	return c
}
