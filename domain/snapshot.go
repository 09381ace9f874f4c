package domain

// Snapshot is the full set of trusted sources read from the store at one point in time.
// It is the unit of a read-modify-write cycle: loaded whole, changed in memory, saved whole.
type Snapshot []*TrustedSource

// Find returns the source named name, ignoring case, or nil.
func (s Snapshot) Find(name string) *TrustedSource {
	for _, source := range s {
		if source.NameEquals(name) {
			return source
		}
	}
	return nil
}

// Without returns a new snapshot excluding every source named name, ignoring case.
func (s Snapshot) Without(name string) Snapshot {
	out := make(Snapshot, 0, len(s))
	for _, source := range s {
		if !source.NameEquals(name) {
			out = append(out, source)
		}
	}
	return out
}

// Names returns the source names in snapshot order.
func (s Snapshot) Names() []string {
	names := make([]string, len(s))
	for i, source := range s {
		names[i] = source.SourceName
	}
	return names
}
