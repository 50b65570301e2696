package scheduler

import "sort"

// SubjectPriority is one eligible subject of a teacher.
type SubjectPriority struct {
	SubjectID string
	Priority  int
}

type limits struct {
	maxWeek   *int
	maxDay    *int
	minLinier *int
}

// pairKey joins an owner (class or teacher) with a subject.
type pairKey struct {
	owner   string
	subject string
}

// Index holds the lookups derived from an Input. It is built once per run and
// never mutated afterwards.
type Index struct {
	teachers        []Teacher
	allowed         map[string][]string
	hoursPerWeek    map[pairKey]int
	teacherSubjects map[string][]SubjectPriority
	teacherLimits   map[string]limits
	linear          map[pairKey]bool
}

// NewIndex builds the per-run lookups from raw configuration lists.
func NewIndex(in Input) *Index {
	idx := &Index{
		teachers:        in.Teachers,
		allowed:         make(map[string][]string),
		hoursPerWeek:    make(map[pairKey]int),
		teacherSubjects: make(map[string][]SubjectPriority),
		teacherLimits:   make(map[string]limits),
		linear:          make(map[pairKey]bool),
	}

	for _, cs := range in.ClassSubjects {
		key := pairKey{owner: cs.ClassID, subject: cs.SubjectID}
		if _, seen := idx.hoursPerWeek[key]; !seen {
			idx.allowed[cs.ClassID] = append(idx.allowed[cs.ClassID], cs.SubjectID)
		}
		hours := cs.HoursPerWeek
		if hours <= 0 {
			hours = DefaultHoursPerWeek
		}
		idx.hoursPerWeek[key] = hours
	}
	for classID := range idx.allowed {
		sort.Strings(idx.allowed[classID])
	}

	pairs := make(map[pairKey]int)
	for _, ts := range in.TeacherSubjects {
		priority := ts.Priority
		if priority <= 0 {
			priority = LinearPriority
		}
		key := pairKey{owner: ts.TeacherID, subject: ts.SubjectID}
		if pos, ok := pairs[key]; ok {
			idx.teacherSubjects[ts.TeacherID][pos].Priority = priority
		} else {
			pairs[key] = len(idx.teacherSubjects[ts.TeacherID])
			idx.teacherSubjects[ts.TeacherID] = append(idx.teacherSubjects[ts.TeacherID], SubjectPriority{SubjectID: ts.SubjectID, Priority: priority})
		}
	}
	for teacherID, subjects := range idx.teacherSubjects {
		sort.SliceStable(subjects, func(i, j int) bool {
			return subjects[i].Priority < subjects[j].Priority
		})
		for _, s := range subjects {
			if s.Priority == LinearPriority {
				idx.linear[pairKey{owner: teacherID, subject: s.SubjectID}] = true
			}
		}
	}

	for _, l := range in.TeacherLimits {
		idx.teacherLimits[l.TeacherID] = limits{
			maxWeek:   l.MaxHoursPerWeek,
			maxDay:    l.MaxHoursPerDay,
			minLinier: l.MinHoursLinier,
		}
	}
	return idx
}

// AllowedSubjects returns the subjects mapped to a class, sorted by id.
func (idx *Index) AllowedSubjects(classID string) []string {
	return idx.allowed[classID]
}

// Quota returns the weekly hour target for a class-subject pair.
func (idx *Index) Quota(classID, subjectID string) int {
	if hours, ok := idx.hoursPerWeek[pairKey{owner: classID, subject: subjectID}]; ok {
		return hours
	}
	return DefaultHoursPerWeek
}

// IsLinear reports whether subjectID is a priority-1 subject of teacherID.
func (idx *Index) IsLinear(teacherID, subjectID string) bool {
	return idx.linear[pairKey{owner: teacherID, subject: subjectID}]
}

// TeacherSubjects returns a teacher's eligible subjects ordered by priority.
func (idx *Index) TeacherSubjects(teacherID string) []SubjectPriority {
	return idx.teacherSubjects[teacherID]
}

// TeachersFor returns every teacher eligible for subjectID in store order.
func (idx *Index) TeachersFor(subjectID string) []Teacher {
	var result []Teacher
	for _, t := range idx.teachers {
		for _, s := range idx.teacherSubjects[t.ID] {
			if s.SubjectID == subjectID {
				result = append(result, t)
				break
			}
		}
	}
	return result
}

func (idx *Index) limitsFor(teacherID string) limits {
	return idx.teacherLimits[teacherID]
}
