package domain

// SettingsRepository defines the hierarchical settings store the trusted source registry persists through.
// Settings are grouped in sections; a section holds named subsections, each with an ordered list of nested values.
// Subsection names are matched case-insensitively.
type SettingsRepository interface {
	// GetSubsections returns the names of all subsections under section.
	// An unknown section yields an empty slice.
	GetSubsections(section string) ([]string, error)

	// GetNestedValues returns the nested values of a subsection in the order they were written.
	// An unknown subsection yields an empty slice.
	GetNestedValues(section string, subsection string) ([]*NestedValue, error)

	// SetNestedValues replaces all nested values of a subsection.
	SetNestedValues(section string, subsection string, values []*NestedValue) error

	// DeleteSection removes a section with all of its subsections and values.
	DeleteSection(section string) error
}

// NestedValue is a single key/value entry inside a settings subsection.
type NestedValue struct {
	Key            string            // Key of the entry, unique within its subsection.
	Value          string            // String value of the entry.
	Priority       *int              // Optional ordering value.
	AdditionalData map[string]string // Open attribute map stored alongside the value.
}

// PriorityOrDefault returns the value's priority, or 0 when the store has none.
func (v *NestedValue) PriorityOrDefault() int {
	if v.Priority == nil {
		return 0
	}
	return *v.Priority
}
