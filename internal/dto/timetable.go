package dto

import (
	"github.com/LiezGoo/scheduling-system-sub000/internal/models"
	"github.com/LiezGoo/scheduling-system-sub000/internal/timetable/constraint"
	"github.com/LiezGoo/scheduling-system-sub000/internal/timetable/genetic"
)

// GenerateTimetableRequest instructs the orchestrator to build and
// persist one timetable. Omitted hyperparameters fall back to the
// configured defaults; rates are whole percentages and nullable so an
// explicit zero survives (a zero-mutation or zero-crossover run is a
// legitimate request).
type GenerateTimetableRequest struct {
	AcademicYearID string `json:"academicYearId" validate:"required"`
	Semester       string `json:"semester" validate:"required"`
	ProgramID      string `json:"programId" validate:"required"`
	YearLevel      int    `json:"yearLevel" validate:"required,min=1,max=6"`
	BlockSection   string `json:"blockSection"`
	CreatedBy      string `json:"createdBy" validate:"required"`
	PopulationSize int    `json:"populationSize" validate:"omitempty,min=2,max=500"`
	Generations    int    `json:"generations" validate:"omitempty,min=1,max=2000"`
	MutationRate   *int   `json:"mutationRate" validate:"omitempty,min=0,max=100"`
	CrossoverRate  *int   `json:"crossoverRate" validate:"omitempty,min=0,max=100"`
	EliteSize      int    `json:"eliteSize" validate:"omitempty,min=1,max=50"`
}

// GenerationMetrics summarises one completed run.
type GenerationMetrics struct {
	ElapsedMS      int64   `json:"elapsedMs"`
	GenerationsRun int     `json:"generationsRun"`
	ItemsPerSecond float64 `json:"itemsPerSecond"`
}

// GenerateTimetableResult is the success payload of a generation run.
type GenerateTimetableResult struct {
	Success      bool                              `json:"success"`
	ScheduleID   string                            `json:"scheduleId"`
	FitnessScore int                               `json:"fitnessScore"`
	Items        []models.ScheduleItem             `json:"items"`
	FacultyLoads map[string]constraint.LoadSummary `json:"facultyLoads"`
	Unfilled     []genetic.UnfilledRequirement     `json:"unfilled,omitempty"`
	Metrics      GenerationMetrics                 `json:"metrics"`
	Validation   constraint.Report                 `json:"validation"`
}

// EnqueueResult acknowledges an asynchronous generation request.
type EnqueueResult struct {
	ScheduleID string `json:"scheduleId"`
	Queued     bool   `json:"queued"`
}

// ProgressResponse exposes the polling view of a schedule run.
type ProgressResponse struct {
	ScheduleID   string                     `json:"scheduleId"`
	Status       models.ScheduleStatus      `json:"status"`
	Progress     *models.GenerationProgress `json:"progress,omitempty"`
	FitnessScore *int                       `json:"fitnessScore,omitempty"`
	ErrorMessage *string                    `json:"errorMessage,omitempty"`
	CreatedAt    string                     `json:"createdAt"`
	UpdatedAt    string                     `json:"updatedAt"`
}

// ScheduleDetail bundles a schedule header with its items.
type ScheduleDetail struct {
	Schedule models.Schedule       `json:"schedule"`
	Items    []models.ScheduleItem `json:"items"`
}

// UpdateScheduleStatusRequest moves a schedule along its lifecycle.
type UpdateScheduleStatusRequest struct {
	Status models.ScheduleStatus `json:"status" validate:"required,oneof=PENDING_APPROVAL APPROVED REJECTED"`
}
