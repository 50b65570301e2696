package scheduler

// Conflict dimensions.
const (
	DimensionClass   = "CLASS"
	DimensionTeacher = "TEACHER"
)

// Conflict pairs a proposed entry with the entry it collides with.
type Conflict struct {
	Dimension string `json:"dimension"`
	Proposed  Entry  `json:"proposed"`
	Existing  Entry  `json:"existing"`

	// ExistingID is empty when the collision is inside the proposed rows.
	ExistingID string `json:"existingId,omitempty"`
}

// Stored is a persisted entry with its identifier.
type Stored struct {
	ID string
	Entry
}

// Conflicts reports class and teacher double-bookings of proposed rows
// against stored rows and against earlier proposed rows.
func Conflicts(existing []Stored, proposed []Entry) []Conflict {
	type occupant struct {
		id    string
		entry Entry
	}
	classes := make(map[slotKey]occupant, len(existing)+len(proposed))
	teachers := make(map[slotKey]occupant, len(existing)+len(proposed))
	for _, s := range existing {
		classes[slotKey{owner: s.ClassID, day: s.Day, hour: s.Hour}] = occupant{id: s.ID, entry: s.Entry}
		teachers[slotKey{owner: s.TeacherID, day: s.Day, hour: s.Hour}] = occupant{id: s.ID, entry: s.Entry}
	}

	var conflicts []Conflict
	for _, p := range proposed {
		ck := slotKey{owner: p.ClassID, day: p.Day, hour: p.Hour}
		tk := slotKey{owner: p.TeacherID, day: p.Day, hour: p.Hour}
		if occ, ok := classes[ck]; ok {
			conflicts = append(conflicts, Conflict{Dimension: DimensionClass, Proposed: p, Existing: occ.entry, ExistingID: occ.id})
		} else {
			classes[ck] = occupant{entry: p}
		}
		if occ, ok := teachers[tk]; ok {
			conflicts = append(conflicts, Conflict{Dimension: DimensionTeacher, Proposed: p, Existing: occ.entry, ExistingID: occ.id})
		} else {
			teachers[tk] = occupant{entry: p}
		}
	}
	return conflicts
}
