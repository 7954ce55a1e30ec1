package constraint

import (
	"sort"

	"github.com/LiezGoo/scheduling-system-sub000/internal/models"
)

// ConflictPair itemises two meetings that collide on one dimension.
type ConflictPair struct {
	Dimension string  `json:"dimension"`
	First     Meeting `json:"first"`
	Second    Meeting `json:"second"`
}

// SchemeIssue itemises a meeting placed outside its instructor's window.
type SchemeIssue struct {
	Meeting Meeting `json:"meeting"`
	Penalty int     `json:"penalty"`
}

// OverloadIssue itemises one instructor exceeding their contract cap.
type OverloadIssue struct {
	InstructorID string      `json:"instructor_id"`
	Load         LoadSummary `json:"load"`
	Check        LoadCheck   `json:"check"`
}

// Report is the full post-hoc validation result for a set of meetings.
// It is a total function of its input: an empty meeting set yields zero
// counts and AllValid=true.
type Report struct {
	RoomConflicts       []ConflictPair   `json:"room_conflicts"`
	InstructorConflicts []ConflictPair   `json:"instructor_conflicts"`
	SectionConflicts    []ConflictPair   `json:"section_conflicts"`
	FacultyOverloads    []OverloadIssue  `json:"faculty_overloads"`
	SchemeViolations    []SchemeIssue    `json:"scheme_violations"`
	BreakViolations     []BreakViolation `json:"break_violations"`
	Counts              ReportCounts     `json:"counts"`
	AllValid            bool             `json:"all_valid"`
}

// ReportCounts summarises violation totals per category.
type ReportCounts struct {
	RoomConflicts       int `json:"room_conflicts"`
	InstructorConflicts int `json:"instructor_conflicts"`
	SectionConflicts    int `json:"section_conflicts"`
	FacultyOverloads    int `json:"faculty_overloads"`
	SchemeViolations    int `json:"scheme_violations"`
	BreakViolations     int `json:"break_violations"`
}

// ValidateMeetings re-derives every constraint category for an already
// generated timetable. It never fails; penalty math matches the
// construction-time checks so the two views cannot disagree.
func ValidateMeetings(meetings []Meeting, instructors map[string]models.Instructor) Report {
	report := Report{}

	for i := 0; i < len(meetings); i++ {
		for j := i + 1; j < len(meetings); j++ {
			a, b := meetings[i], meetings[j]
			if a.Day != b.Day || !Overlaps(a.Start, a.End, b.Start, b.End) {
				continue
			}
			if a.RoomID == b.RoomID {
				report.RoomConflicts = append(report.RoomConflicts, ConflictPair{Dimension: "room", First: a, Second: b})
			}
			if a.InstructorID == b.InstructorID {
				report.InstructorConflicts = append(report.InstructorConflicts, ConflictPair{Dimension: "instructor", First: a, Second: b})
			}
			if a.Section == b.Section {
				report.SectionConflicts = append(report.SectionConflicts, ConflictPair{Dimension: "section", First: a, Second: b})
			}
		}
	}

	for _, m := range meetings {
		inst, ok := instructors[m.InstructorID]
		if !ok {
			report.SchemeViolations = append(report.SchemeViolations, SchemeIssue{Meeting: m, Penalty: PenaltyUnknownInstructor})
			continue
		}
		if penalty := SchemeViolationPenalty(inst, m.Start, m.End); penalty > 0 {
			report.SchemeViolations = append(report.SchemeViolations, SchemeIssue{Meeting: m, Penalty: penalty})
		}
	}

	loads := SumLoads(meetings)
	instructorIDs := make([]string, 0, len(loads))
	for id := range loads {
		instructorIDs = append(instructorIDs, id)
	}
	sort.Strings(instructorIDs)
	for _, id := range instructorIDs {
		inst, ok := instructors[id]
		if !ok {
			continue
		}
		load := loads[id]
		check := ValidateFacultyLoad(inst, load.LectureHours, load.LabHours)
		if !check.Valid {
			report.FacultyOverloads = append(report.FacultyOverloads, OverloadIssue{InstructorID: id, Load: load, Check: check})
		}
	}

	byInstructorDay := make(map[string]map[int][]Meeting)
	for _, m := range meetings {
		if byInstructorDay[m.InstructorID] == nil {
			byInstructorDay[m.InstructorID] = make(map[int][]Meeting)
		}
		byInstructorDay[m.InstructorID][m.Day] = append(byInstructorDay[m.InstructorID][m.Day], m)
	}
	for _, id := range instructorIDs {
		days := byInstructorDay[id]
		dayKeys := make([]int, 0, len(days))
		for day := range days {
			dayKeys = append(dayKeys, day)
		}
		sort.Ints(dayKeys)
		for _, day := range dayKeys {
			report.BreakViolations = append(report.BreakViolations, BreakViolations(id, day, days[day])...)
		}
	}

	report.Counts = ReportCounts{
		RoomConflicts:       len(report.RoomConflicts),
		InstructorConflicts: len(report.InstructorConflicts),
		SectionConflicts:    len(report.SectionConflicts),
		FacultyOverloads:    len(report.FacultyOverloads),
		SchemeViolations:    len(report.SchemeViolations),
		BreakViolations:     len(report.BreakViolations),
	}
	report.AllValid = report.Counts.RoomConflicts == 0 &&
		report.Counts.InstructorConflicts == 0 &&
		report.Counts.SectionConflicts == 0 &&
		report.Counts.FacultyOverloads == 0 &&
		report.Counts.SchemeViolations == 0 &&
		report.Counts.BreakViolations == 0

	return report
}

// MeetingsFromItems converts persisted schedule items back into validator
// meetings. Items with malformed times are skipped rather than failing
// validation.
func MeetingsFromItems(items []models.ScheduleItem) []Meeting {
	meetings := make([]Meeting, 0, len(items))
	for _, item := range items {
		start, errStart := ParseClock(item.StartTime)
		end, errEnd := ParseClock(item.EndTime)
		if errStart != nil || errEnd != nil {
			continue
		}
		meetings = append(meetings, Meeting{
			SubjectID:    item.SubjectID,
			InstructorID: item.InstructorID,
			RoomID:       item.RoomID,
			Day:          item.Day,
			Start:        start,
			End:          end,
			Section:      item.BlockSection,
			Type:         item.MeetingType,
			Hours:        item.Hours,
		})
	}
	return meetings
}
