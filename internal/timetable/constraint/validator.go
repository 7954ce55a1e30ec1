package constraint

import (
	"fmt"
	"math"
	"sort"

	"github.com/LiezGoo/scheduling-system-sub000/internal/models"
)

// Penalty weights applied by the validator. All values are fixed.
const (
	PenaltyScheme            = 100
	PenaltyRoomConflict      = 100
	PenaltyInstructorClash   = 100
	PenaltySectionClash      = 100
	PenaltyOverloadPerHour   = 80
	PenaltyBreak             = 50
	PenaltyUnknownInstructor = 1000
)

// Faculty load caps per contract category, in weekly hours.
const (
	PermanentLectureCap = 18
	PermanentLabCap     = 21
	Contract27Cap       = 27
	Contract24Cap       = 24
)

// Break rules: a teaching block accumulated across meetings separated by
// less than MinBreakGapMinutes must not exceed MaxContinuousMinutes, and
// instructors with four or more meetings in a day need a free overlap with
// the lunch window.
const (
	MaxContinuousMinutes = 4 * 60
	MinBreakGapMinutes   = 60
	LunchStartMinute     = 12 * 60
	LunchEndMinute       = 13 * 60
)

// Meeting types.
const (
	MeetingLecture = "lecture"
	MeetingLab     = "lab"
)

// Meeting is one proposed class meeting. Start and End are minutes from
// midnight; Day is 1-based within the working week.
type Meeting struct {
	SubjectID    string
	InstructorID string
	RoomID       string
	Day          int
	Start        int
	End          int
	Section      string
	Type         string
	Hours        float64
}

// LoadSummary aggregates one instructor's weekly load in hours.
type LoadSummary struct {
	LectureHours float64 `json:"lecture_hours"`
	LabHours     float64 `json:"lab_hours"`
}

// Total returns the combined weekly hours.
func (l LoadSummary) Total() float64 {
	return l.LectureHours + l.LabHours
}

// LoadViolation describes one exceeded contract cap.
type LoadViolation struct {
	Type   string  `json:"type"`
	Limit  float64 `json:"limit"`
	Actual float64 `json:"actual"`
	Excess float64 `json:"excess"`
}

// LoadCheck is the result of validating an instructor's weekly load.
type LoadCheck struct {
	Valid      bool            `json:"valid"`
	Violations []LoadViolation `json:"violations,omitempty"`
	Penalty    int             `json:"penalty"`
}

// ValidateAssignmentHours rejects laboratory hour requirements that are
// not whole 3-hour units. One lab unit is three hours; one lecture unit
// is a single hour.
func ValidateAssignmentHours(labHours float64) error {
	if math.Mod(labHours, 3) != 0 {
		return fmt.Errorf("lab hours must be a multiple of 3, got %v", labHours)
	}
	return nil
}

// Overlaps reports whether two half-open time intervals intersect.
// Touching boundaries do not overlap.
func Overlaps(start1, end1, start2, end2 int) bool {
	return start1 < end2 && end1 > start2
}

func schemeWindow(inst models.Instructor) (int, int, bool) {
	if inst.SchemeStart == nil || inst.SchemeEnd == nil {
		return DayStartMinute, DayEndMinute, false
	}
	start, err := ParseClock(*inst.SchemeStart)
	if err != nil {
		return DayStartMinute, DayEndMinute, false
	}
	end, err := ParseClock(*inst.SchemeEnd)
	if err != nil {
		return DayStartMinute, DayEndMinute, false
	}
	return start, end, true
}

// SchemeWindow returns the instructor's daily working window in minutes,
// falling back to the institutional day when no scheme is defined.
func SchemeWindow(inst models.Instructor) (start, end int) {
	start, end, _ = schemeWindow(inst)
	return start, end
}

// WithinScheme reports whether [start,end] falls inside the instructor's
// working window. Instructors without a window are unconstrained.
func WithinScheme(inst models.Instructor, start, end int) bool {
	winStart, winEnd, bounded := schemeWindow(inst)
	if !bounded {
		return true
	}
	return start >= winStart && end <= winEnd
}

// SchemeViolationPenalty scores a slot against the instructor's working
// window: zero inside, otherwise a base penalty plus one point per ten
// minutes the slot extends past the window on either side.
func SchemeViolationPenalty(inst models.Instructor, start, end int) int {
	winStart, winEnd, bounded := schemeWindow(inst)
	if !bounded {
		return 0
	}
	if start >= winStart && end <= winEnd {
		return 0
	}
	overflow := 0
	if start < winStart {
		overflow += winStart - start
	}
	if end > winEnd {
		overflow += end - winEnd
	}
	return PenaltyScheme + overflow/10
}

// ValidateFacultyLoad checks an instructor's weekly hours against the cap
// for their contract category. Permanent staff have independent lecture
// and laboratory caps; contract staff have a combined cap.
func ValidateFacultyLoad(inst models.Instructor, lectureHours, labHours float64) LoadCheck {
	var violations []LoadViolation
	switch inst.ContractType {
	case models.ContractPermanent:
		if lectureHours > PermanentLectureCap {
			violations = append(violations, LoadViolation{
				Type:   "lecture_overload",
				Limit:  PermanentLectureCap,
				Actual: lectureHours,
				Excess: lectureHours - PermanentLectureCap,
			})
		}
		if labHours > PermanentLabCap {
			violations = append(violations, LoadViolation{
				Type:   "lab_overload",
				Limit:  PermanentLabCap,
				Actual: labHours,
				Excess: labHours - PermanentLabCap,
			})
		}
	case models.ContractHourly27:
		if total := lectureHours + labHours; total > Contract27Cap {
			violations = append(violations, LoadViolation{
				Type:   "total_overload",
				Limit:  Contract27Cap,
				Actual: total,
				Excess: total - Contract27Cap,
			})
		}
	case models.ContractHourly24:
		if total := lectureHours + labHours; total > Contract24Cap {
			violations = append(violations, LoadViolation{
				Type:   "total_overload",
				Limit:  Contract24Cap,
				Actual: total,
				Excess: total - Contract24Cap,
			})
		}
	}

	penalty := 0.0
	for _, v := range violations {
		penalty += v.Excess * PenaltyOverloadPerHour
	}
	return LoadCheck{
		Valid:      len(violations) == 0,
		Violations: violations,
		Penalty:    int(math.Round(penalty)),
	}
}

// RoomConflict reports whether the proposed slot collides with an already
// placed meeting in the same room on the same day.
func RoomConflict(roomID string, day, start, end int, placed []Meeting) bool {
	for _, m := range placed {
		if m.RoomID == roomID && m.Day == day && Overlaps(start, end, m.Start, m.End) {
			return true
		}
	}
	return false
}

// InstructorConflict reports whether the instructor is already teaching an
// overlapping slot on the same day.
func InstructorConflict(instructorID string, day, start, end int, placed []Meeting) bool {
	for _, m := range placed {
		if m.InstructorID == instructorID && m.Day == day && Overlaps(start, end, m.Start, m.End) {
			return true
		}
	}
	return false
}

// SectionConflict reports whether the block section already attends an
// overlapping slot on the same day.
func SectionConflict(section string, day, start, end int, placed []Meeting) bool {
	for _, m := range placed {
		if m.Section == section && m.Day == day && Overlaps(start, end, m.Start, m.End) {
			return true
		}
	}
	return false
}

// BreakViolation flags a rest-rule breach for one instructor-day.
type BreakViolation struct {
	InstructorID string `json:"instructor_id"`
	Day          int    `json:"day"`
	Type         string `json:"type"`
	Minutes      int    `json:"minutes,omitempty"`
	Penalty      int    `json:"penalty"`
}

// BreakViolations inspects one instructor's meetings for a single day.
// Meetings separated by less than an hour accumulate into one continuous
// teaching block; blocks above four hours are flagged. Days with four or
// more meetings additionally require a free lunch window.
func BreakViolations(instructorID string, day int, meetings []Meeting) []BreakViolation {
	if len(meetings) == 0 {
		return nil
	}
	sorted := make([]Meeting, len(meetings))
	copy(sorted, meetings)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var violations []BreakViolation
	continuous := 0
	prevEnd := -1
	flag := func(minutes int) {
		if minutes > MaxContinuousMinutes {
			violations = append(violations, BreakViolation{
				InstructorID: instructorID,
				Day:          day,
				Type:         "continuous_teaching",
				Minutes:      minutes,
				Penalty:      PenaltyBreak,
			})
		}
	}
	for _, m := range sorted {
		if prevEnd >= 0 && m.Start-prevEnd >= MinBreakGapMinutes {
			flag(continuous)
			continuous = 0
		}
		// Overlapping meetings only extend the block by their uncovered
		// tail; double-booking is the conflict scanners' concern.
		from := m.Start
		if prevEnd > from {
			from = prevEnd
		}
		if m.End > from {
			continuous += m.End - from
		}
		if m.End > prevEnd {
			prevEnd = m.End
		}
	}
	flag(continuous)

	if len(sorted) >= 4 {
		hasLunch := false
		for _, m := range sorted {
			if Overlaps(m.Start, m.End, LunchStartMinute, LunchEndMinute) {
				hasLunch = true
				break
			}
		}
		if !hasLunch {
			violations = append(violations, BreakViolation{
				InstructorID: instructorID,
				Day:          day,
				Type:         "missing_lunch_break",
				Penalty:      PenaltyBreak,
			})
		}
	}
	return violations
}

// GenePenalty aggregates the placement penalties for one proposed meeting
// against the schedule accumulated so far. An unresolvable instructor
// makes the placement invalid outright.
func GenePenalty(gene Meeting, placed []Meeting, instructors map[string]models.Instructor) int {
	inst, ok := instructors[gene.InstructorID]
	if !ok {
		return PenaltyUnknownInstructor
	}
	penalty := SchemeViolationPenalty(inst, gene.Start, gene.End)
	if RoomConflict(gene.RoomID, gene.Day, gene.Start, gene.End, placed) {
		penalty += PenaltyRoomConflict
	}
	if InstructorConflict(gene.InstructorID, gene.Day, gene.Start, gene.End, placed) {
		penalty += PenaltyInstructorClash
	}
	if SectionConflict(gene.Section, gene.Day, gene.Start, gene.End, placed) {
		penalty += PenaltySectionClash
	}
	return penalty
}

// SumLoads recomputes per-instructor weekly loads from scratch. This is
// the single aggregation used during construction, after mutation and in
// post-hoc validation so the three call sites cannot drift apart.
func SumLoads(meetings []Meeting) map[string]LoadSummary {
	loads := make(map[string]LoadSummary)
	for _, m := range meetings {
		load := loads[m.InstructorID]
		if m.Type == MeetingLab {
			load.LabHours += m.Hours
		} else {
			load.LectureHours += m.Hours
		}
		loads[m.InstructorID] = load
	}
	return loads
}
