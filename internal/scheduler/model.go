// Package scheduler implements the greedy weekly timetable generator.
//
// Generation is a single pass over every (day, hour, class) slot. Each slot
// receives the first (subject, teacher) pair that satisfies eligibility,
// quota and load constraints; slots that cannot be filled are reported as
// failures instead of triggering a search. Ties are broken with an explicit
// *rand.Rand so runs are reproducible for a fixed seed.
package scheduler

// DefaultHoursPerWeek applies when a class-subject quota is unset.
const DefaultHoursPerWeek = 2

// LinearPriority marks a teacher's primary subject.
const LinearPriority = 1

// Failure reasons reported per unfilled slot.
const (
	ReasonNoSubjectMapped = "no subject mapped to this class"
	ReasonQuotaMet        = "all subject quotas already met"
	ReasonNoTeacher       = "no eligible teacher available"
)

// Teacher is a schedulable instructor.
type Teacher struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Subject is a taught subject.
type Subject struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// Class is a student group that occupies one slot per (day, hour).
type Class struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TeacherSubject marks a teacher as eligible for a subject. Lower priority is preferred.
type TeacherSubject struct {
	TeacherID string `json:"teacherId"`
	SubjectID string `json:"subjectId"`
	Priority  int    `json:"priority"`
}

// ClassSubject sets the weekly hour target of a subject within a class.
type ClassSubject struct {
	ClassID      string `json:"classId"`
	SubjectID    string `json:"subjectId"`
	HoursPerWeek int    `json:"hoursPerWeek"`
}

// TeacherLimit bounds a teacher's load. Nil fields are unconstrained.
type TeacherLimit struct {
	TeacherID       string `json:"teacherId"`
	MaxHoursPerWeek *int   `json:"maxWeek"`
	MaxHoursPerDay  *int   `json:"maxDay"`
	MinHoursLinier  *int   `json:"minLinier"`
}

// Input carries the configuration borrowed for a single generation run.
// Teachers and Classes keep the order returned by the store.
type Input struct {
	Teachers        []Teacher
	Classes         []Class
	TeacherSubjects []TeacherSubject
	ClassSubjects   []ClassSubject
	TeacherLimits   []TeacherLimit
}

// Entry is one generated assignment.
type Entry struct {
	Day       string `json:"day"`
	Hour      int    `json:"hour"`
	ClassID   string `json:"classId"`
	SubjectID string `json:"subjectId"`
	TeacherID string `json:"teacherId"`
}

// Failure is a slot the generator could not fill.
type Failure struct {
	Day     string `json:"day"`
	Hour    int    `json:"hour"`
	ClassID string `json:"classId"`
	Reason  string `json:"reason,omitempty"`
}

// LinearWarning reports a teacher short of their minimum linear hours.
type LinearWarning struct {
	TeacherID   string `json:"teacherId"`
	TeacherName string `json:"teacherName"`
	Required    int    `json:"required"`
	Actual      int    `json:"actual"`
}

// Result is the outcome of a generation run.
type Result struct {
	Schedule       []Entry         `json:"schedule"`
	Failed         []Failure       `json:"failed"`
	FailedByClass  map[string]int  `json:"failedByClass"`
	LinearWarnings []LinearWarning `json:"linearWarnings"`
	LinearLoad     map[string]int  `json:"-"`
}

// Slots returns the number of (day, hour, class) slots visited.
func (r Result) Slots() int {
	return len(r.Schedule) + len(r.Failed)
}
