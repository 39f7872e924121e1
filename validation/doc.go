// Package validation checks wizard entries and catalog inputs.
//
// Struct tags (go-playground/validator) describe what a complete entry looks
// like; the same check backs the wizard's completion guards, so "can I move
// forward" and "why not" always agree.
//
//	type Skill struct {
//	    Name  string `json:"name" validate:"required,max=80"`
//	    Level int    `json:"level" validate:"gte=1,lte=5"`
//	}
//	err := validation.Validate(skill)
//
// Checker covers hand-parsed input such as command arguments:
//
//	c := validation.New()
//	years := c.Int("years", arg)
//	err := c.Range("years", years, 0, 60).Validate()
package validation
