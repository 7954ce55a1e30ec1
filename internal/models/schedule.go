package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ScheduleStatus represents lifecycle phases for generated timetables.
// Transitions only move forward; FAILED is terminal and recorded when a
// generation run aborts.
type ScheduleStatus string

const (
	ScheduleStatusDraft           ScheduleStatus = "DRAFT"
	ScheduleStatusPendingApproval ScheduleStatus = "PENDING_APPROVAL"
	ScheduleStatusApproved        ScheduleStatus = "APPROVED"
	ScheduleStatusRejected        ScheduleStatus = "REJECTED"
	ScheduleStatusFailed          ScheduleStatus = "FAILED"
)

// Schedule is the persisted header for one generated timetable.
type Schedule struct {
	ID             string         `db:"id" json:"id"`
	ProgramID      string         `db:"program_id" json:"program_id"`
	AcademicYearID string         `db:"academic_year_id" json:"academic_year_id"`
	Semester       string         `db:"semester" json:"semester"`
	YearLevel      int            `db:"year_level" json:"year_level"`
	BlockSection   string         `db:"block_section" json:"block_section"`
	Status         ScheduleStatus `db:"status" json:"status"`
	Params         types.JSONText `db:"params" json:"params"`
	FitnessScore   *int           `db:"fitness_score" json:"fitness_score,omitempty"`
	Progress       types.JSONText `db:"progress" json:"progress,omitempty"`
	ErrorMessage   *string        `db:"error_message" json:"error_message,omitempty"`
	CreatedBy      string         `db:"created_by" json:"created_by"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// ScheduleItem is one persisted class meeting belonging to a schedule.
// Items are replaced atomically with their schedule.
type ScheduleItem struct {
	ID           string    `db:"id" json:"id"`
	ScheduleID   string    `db:"schedule_id" json:"schedule_id"`
	SubjectID    string    `db:"subject_id" json:"subject_id"`
	InstructorID string    `db:"instructor_id" json:"instructor_id"`
	RoomID       string    `db:"room_id" json:"room_id"`
	Day          int       `db:"day" json:"day"`
	StartTime    string    `db:"start_time" json:"start_time"`
	EndTime      string    `db:"end_time" json:"end_time"`
	BlockSection string    `db:"block_section" json:"block_section"`
	MeetingType  string    `db:"meeting_type" json:"meeting_type"`
	Hours        float64   `db:"hours" json:"hours"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// GenerationProgress is the snapshot persisted after every completed
// generation so external pollers can track an in-flight run.
type GenerationProgress struct {
	CurrentGeneration int       `json:"current_generation"`
	TotalGenerations  int       `json:"total_generations"`
	BestFitness       int       `json:"best_fitness"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// GenerationParams records the GA hyperparameters a schedule was built with.
type GenerationParams struct {
	PopulationSize int `json:"population_size"`
	Generations    int `json:"generations"`
	MutationRate   int `json:"mutation_rate"`
	CrossoverRate  int `json:"crossover_rate"`
	EliteSize      int `json:"elite_size"`
}

// CanTransition reports whether a schedule may move from its current
// status to the target. Transitions only move forward.
func (s ScheduleStatus) CanTransition(target ScheduleStatus) bool {
	switch s {
	case ScheduleStatusDraft:
		return target == ScheduleStatusPendingApproval
	case ScheduleStatusPendingApproval:
		return target == ScheduleStatusApproved || target == ScheduleStatusRejected
	default:
		return false
	}
}
