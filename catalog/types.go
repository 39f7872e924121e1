package catalog

// Technology is an entry of the technology catalog.
type Technology struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name" validate:"required,max=80"`
	Category    string `json:"category" validate:"required,max=40"`
	Description string `json:"description,omitempty" validate:"max=500"`
}

// ItemKind names a section of the profile.
type ItemKind string

const (
	KindSkills     ItemKind = "skills"
	KindExperience ItemKind = "experience"
	KindEducation  ItemKind = "education"
)

// Kinds lists every profile section in wizard order.
func Kinds() []ItemKind {
	return []ItemKind{KindSkills, KindExperience, KindEducation}
}

// Valid reports whether k is a known section.
func (k ItemKind) Valid() bool {
	switch k {
	case KindSkills, KindExperience, KindEducation:
		return true
	}
	return false
}

// ProfileItem is one saved line of a profile section.
type ProfileItem struct {
	ID     string   `json:"id,omitempty"`
	Kind   ItemKind `json:"kind" validate:"required,oneof=skills experience education"`
	Title  string   `json:"title" validate:"required,max=120"`
	Detail string   `json:"detail,omitempty" validate:"max=1000"`
	Years  int      `json:"years" validate:"gte=0,lte=60"`
}
