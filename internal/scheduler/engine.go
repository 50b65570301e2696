package scheduler

import (
	"math/rand"
	"sort"
	"time"
)

// NewSeededRand returns a deterministic source for Generate.
func NewSeededRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

type slotKey struct {
	owner string
	day   string
	hour  int
}

type teacherDayKey struct {
	teacherID string
	day       string
}

// runState holds the accumulators of a single Generate call.
type runState struct {
	idx *Index
	rng *rand.Rand

	loadWeek    map[string]int
	loadDay     map[teacherDayKey]int
	linearLoad  map[string]int
	teacherBusy map[slotKey]bool
	classBusy   map[slotKey]bool
	used        map[pairKey]int

	result Result
}

type subjectCandidate struct {
	subjectID string
	remaining int
}

// Generate fills every (day, hour, class) slot greedily. Days are visited in
// the given order, hours ascending from 1 to hoursByDay[day], classes in the
// order of in.Classes. A nil rng is seeded from the clock.
func Generate(in Input, days []string, hoursByDay map[string]int, rng *rand.Rand) Result {
	if rng == nil {
		rng = NewSeededRand(time.Now().UnixNano())
	}
	st := &runState{
		idx:         NewIndex(in),
		rng:         rng,
		loadWeek:    make(map[string]int, len(in.Teachers)),
		loadDay:     make(map[teacherDayKey]int),
		linearLoad:  make(map[string]int, len(in.Teachers)),
		teacherBusy: make(map[slotKey]bool),
		classBusy:   make(map[slotKey]bool),
		used:        make(map[pairKey]int),
		result: Result{
			Schedule:      []Entry{},
			Failed:        []Failure{},
			FailedByClass: make(map[string]int),
		},
	}
	for _, t := range in.Teachers {
		st.loadWeek[t.ID] = 0
		st.linearLoad[t.ID] = 0
	}

	for _, day := range days {
		hours := hoursByDay[day]
		for hour := 1; hour <= hours; hour++ {
			for _, class := range in.Classes {
				st.fillSlot(day, hour, class.ID)
			}
		}
	}

	st.result.LinearLoad = st.linearLoad
	st.result.LinearWarnings = Audit(in.TeacherLimits, st.linearLoad, in.Teachers)
	return st.result
}

func (st *runState) fillSlot(day string, hour int, classID string) {
	classKey := slotKey{owner: classID, day: day, hour: hour}
	if st.classBusy[classKey] {
		return
	}

	allowed := st.idx.AllowedSubjects(classID)
	if len(allowed) == 0 {
		st.fail(day, hour, classID, ReasonNoSubjectMapped)
		return
	}

	candidates := make([]subjectCandidate, 0, len(allowed))
	for _, subjectID := range allowed {
		remaining := st.idx.Quota(classID, subjectID) - st.used[pairKey{owner: classID, subject: subjectID}]
		if remaining > 0 {
			candidates = append(candidates, subjectCandidate{subjectID: subjectID, remaining: remaining})
		}
	}
	if len(candidates) == 0 {
		st.fail(day, hour, classID, ReasonQuotaMet)
		return
	}

	st.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].remaining > candidates[j].remaining
	})

	for _, cand := range candidates {
		teachers := st.idx.TeachersFor(cand.subjectID)
		st.rng.Shuffle(len(teachers), func(i, j int) {
			teachers[i], teachers[j] = teachers[j], teachers[i]
		})
		sort.SliceStable(teachers, func(i, j int) bool {
			return st.idx.IsLinear(teachers[i].ID, cand.subjectID) && !st.idx.IsLinear(teachers[j].ID, cand.subjectID)
		})

		for _, teacher := range teachers {
			if !st.available(teacher.ID, day, hour) {
				continue
			}
			st.assign(day, hour, classID, cand.subjectID, teacher.ID)
			return
		}
	}

	st.fail(day, hour, classID, ReasonNoTeacher)
}

func (st *runState) available(teacherID, day string, hour int) bool {
	if st.teacherBusy[slotKey{owner: teacherID, day: day, hour: hour}] {
		return false
	}
	lim := st.idx.limitsFor(teacherID)
	if lim.maxWeek != nil && st.loadWeek[teacherID] >= *lim.maxWeek {
		return false
	}
	if lim.maxDay != nil && st.loadDay[teacherDayKey{teacherID: teacherID, day: day}] >= *lim.maxDay {
		return false
	}
	return true
}

func (st *runState) assign(day string, hour int, classID, subjectID, teacherID string) {
	st.result.Schedule = append(st.result.Schedule, Entry{
		Day:       day,
		Hour:      hour,
		ClassID:   classID,
		SubjectID: subjectID,
		TeacherID: teacherID,
	})
	st.teacherBusy[slotKey{owner: teacherID, day: day, hour: hour}] = true
	st.classBusy[slotKey{owner: classID, day: day, hour: hour}] = true
	st.loadWeek[teacherID]++
	st.loadDay[teacherDayKey{teacherID: teacherID, day: day}]++
	st.used[pairKey{owner: classID, subject: subjectID}]++
	if st.idx.IsLinear(teacherID, subjectID) {
		st.linearLoad[teacherID]++
	}
}

func (st *runState) fail(day string, hour int, classID, reason string) {
	st.result.Failed = append(st.result.Failed, Failure{Day: day, Hour: hour, ClassID: classID, Reason: reason})
	st.result.FailedByClass[classID]++
}
