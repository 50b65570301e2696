package scheduler

import "sort"

// Audit compares accumulated linear hours against each teacher's minimum and
// returns one warning per teacher that falls short. Warnings follow the order
// of teachers, then any limited teacher missing from that list. It never
// alters the schedule.
func Audit(teacherLimits []TeacherLimit, linearLoad map[string]int, teachers []Teacher) []LinearWarning {
	names := make(map[string]string, len(teachers))
	order := make(map[string]int, len(teachers))
	for i, t := range teachers {
		names[t.ID] = t.Name
		order[t.ID] = i
	}

	// A later limit for the same teacher replaces an earlier one, as in NewIndex.
	latest := make(map[string]TeacherLimit, len(teacherLimits))
	var ids []string
	for _, l := range teacherLimits {
		if _, ok := latest[l.TeacherID]; !ok {
			ids = append(ids, l.TeacherID)
		}
		latest[l.TeacherID] = l
	}

	warnings := []LinearWarning{}
	var orphaned []LinearWarning
	for _, id := range ids {
		l := latest[id]
		if l.MinHoursLinier == nil {
			continue
		}
		actual := linearLoad[id]
		if actual >= *l.MinHoursLinier {
			continue
		}
		name := names[id]
		if name == "" {
			name = id
		}
		w := LinearWarning{TeacherID: id, TeacherName: name, Required: *l.MinHoursLinier, Actual: actual}
		if _, ok := order[id]; ok {
			warnings = append(warnings, w)
		} else {
			orphaned = append(orphaned, w)
		}
	}

	sort.SliceStable(warnings, func(i, j int) bool {
		return order[warnings[i].TeacherID] < order[warnings[j].TeacherID]
	})
	return append(warnings, orphaned...)
}
