package session

import (
	"fmt"
	"slices"
	"time"

	"github.com/kbukum/profilewizard/validation"
)

// Wizard steps in display order.
const (
	StepSkills = iota
	StepExperience
	StepEducation
	StepReview

	// StepCount is the number of wizard steps.
	StepCount
)

var stepNames = [StepCount]string{"skills", "experience", "education", "review"}

// StepName returns the section name of step, or "" when out of range.
func StepName(step int) string {
	if step < 0 || step >= StepCount {
		return ""
	}
	return stepNames[step]
}

// Skill is one entry of the skills step.
type Skill struct {
	Name  string `json:"name" validate:"required,max=80"`
	Level int    `json:"level" validate:"gte=1,lte=5"`
	Years int    `json:"years" validate:"gte=0,lte=60"`
}

// Experience is one entry of the experience step.
type Experience struct {
	Company   string `json:"company" validate:"required,max=120"`
	Role      string `json:"role" validate:"required,max=120"`
	StartYear int    `json:"start_year" validate:"gte=1950,lte=2100"`
	EndYear   int    `json:"end_year,omitempty" validate:"omitempty,gtefield=StartYear"`
	Current   bool   `json:"current,omitempty"`
}

// Education is one entry of the education step.
type Education struct {
	School    string `json:"school" validate:"required,max=120"`
	Degree    string `json:"degree" validate:"required,max=120"`
	Field     string `json:"field,omitempty" validate:"max=120"`
	StartYear int    `json:"start_year,omitempty" validate:"omitempty,gte=1950,lte=2100"`
	EndYear   int    `json:"end_year,omitempty" validate:"omitempty,gtefield=StartYear"`
}

// Draft is the in-progress profile saved by autosave. Step is the visible
// wizard step so a resumed session opens where the user left.
type Draft struct {
	Step       int          `json:"step"`
	Skills     []Skill      `json:"skills,omitempty"`
	Experience []Experience `json:"experience,omitempty"`
	Education  []Education  `json:"education,omitempty"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// Clone returns a copy that shares no slices with d.
func (d Draft) Clone() Draft {
	d.Skills = slices.Clone(d.Skills)
	d.Experience = slices.Clone(d.Experience)
	d.Education = slices.Clone(d.Education)
	return d
}

// Empty reports whether no section has entries.
func (d Draft) Empty() bool {
	return len(d.Skills) == 0 && len(d.Experience) == 0 && len(d.Education) == 0
}

// Complete reports whether the section shown at step has at least one valid
// entry. The review step has no data of its own and is always complete.
func (d Draft) Complete(step int) bool {
	switch step {
	case StepSkills:
		return anyValid(d.Skills)
	case StepExperience:
		return anyValid(d.Experience)
	case StepEducation:
		return anyValid(d.Education)
	case StepReview:
		return true
	default:
		return false
	}
}

// Ready reports whether step may be entered: every step before it is complete.
func (d Draft) Ready(step int) bool {
	if step < 0 || step >= StepCount {
		return false
	}
	for s := 0; s < step; s++ {
		if !d.Complete(s) {
			return false
		}
	}
	return true
}

// Missing explains why step cannot be entered yet, one line per problem.
// It is empty when Ready(step) is true.
func (d Draft) Missing(step int) []string {
	if step < 0 || step >= StepCount {
		return []string{fmt.Sprintf("step %d does not exist", step)}
	}
	var out []string
	for s := 0; s < step; s++ {
		if d.Complete(s) {
			continue
		}
		switch s {
		case StepSkills:
			out = append(out, sectionProblems(stepNames[s], d.Skills)...)
		case StepExperience:
			out = append(out, sectionProblems(stepNames[s], d.Experience)...)
		case StepEducation:
			out = append(out, sectionProblems(stepNames[s], d.Education)...)
		}
	}
	return out
}

func anyValid[T any](items []T) bool {
	for _, it := range items {
		if validation.Valid(it) {
			return true
		}
	}
	return false
}

// sectionProblems describes an incomplete section. Without entries it asks
// for one; otherwise it lists the field errors of the first entry.
func sectionProblems[T any](section string, items []T) []string {
	if len(items) == 0 {
		return []string{section + ": add at least one entry"}
	}
	fields := validation.Fields(validation.Validate(items[0]))
	if len(fields) == 0 {
		return []string{section + ": no complete entry"}
	}
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, fmt.Sprintf("%s[0].%s %s", section, f.Field, f.Message))
	}
	return out
}
