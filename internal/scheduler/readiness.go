package scheduler

import "fmt"

// CheckStatus grades a readiness check.
type CheckStatus string

const (
	CheckValid   CheckStatus = "valid"
	CheckWarning CheckStatus = "warning"
	CheckInvalid CheckStatus = "invalid"
)

// ReadinessCheck is one pre-generation sanity check.
type ReadinessCheck struct {
	Name   string      `json:"name"`
	Label  string      `json:"label"`
	Status CheckStatus `json:"status"`
}

// ReadinessReport groups the checks run before generation.
type ReadinessReport struct {
	Checks []ReadinessCheck `json:"checks"`
}

// Ready is false when any check is invalid. Warnings do not block generation.
func (r ReadinessReport) Ready() bool {
	for _, c := range r.Checks {
		if c.Status == CheckInvalid {
			return false
		}
	}
	return true
}

// Readiness inspects the grid and mappings for configurations that cannot
// produce a useful schedule.
func Readiness(days []string, hoursByDay map[string]int, in Input) ReadinessReport {
	checks := make([]ReadinessCheck, 0, 4)

	checks = append(checks, ReadinessCheck{
		Name:   "days",
		Label:  fmt.Sprintf("%d active days", len(days)),
		Status: statusIf(len(days) > 0),
	})

	hoursOK := len(days) > 0
	for _, d := range days {
		if hoursByDay[d] <= 0 {
			hoursOK = false
			break
		}
	}
	checks = append(checks, ReadinessCheck{
		Name:   "hours",
		Label:  "every active day has hours",
		Status: statusIf(hoursOK),
	})

	mappedClasses := make(map[string]bool)
	for _, cs := range in.ClassSubjects {
		mappedClasses[cs.ClassID] = true
	}
	classCount := 0
	for _, c := range in.Classes {
		if mappedClasses[c.ID] {
			classCount++
		}
	}
	checks = append(checks, ReadinessCheck{
		Name:   "class_subjects",
		Label:  fmt.Sprintf("%d/%d classes have subjects", classCount, len(in.Classes)),
		Status: coverage(classCount, len(in.Classes)),
	})

	mappedTeachers := make(map[string]bool)
	for _, ts := range in.TeacherSubjects {
		mappedTeachers[ts.TeacherID] = true
	}
	teacherCount := 0
	for _, t := range in.Teachers {
		if mappedTeachers[t.ID] {
			teacherCount++
		}
	}
	checks = append(checks, ReadinessCheck{
		Name:   "teacher_subjects",
		Label:  fmt.Sprintf("%d/%d teachers have subjects", teacherCount, len(in.Teachers)),
		Status: coverage(teacherCount, len(in.Teachers)),
	})

	return ReadinessReport{Checks: checks}
}

func statusIf(ok bool) CheckStatus {
	if ok {
		return CheckValid
	}
	return CheckInvalid
}

func coverage(mapped, total int) CheckStatus {
	switch {
	case mapped == 0:
		return CheckInvalid
	case mapped == total:
		return CheckValid
	default:
		return CheckWarning
	}
}
