package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/LiezGoo/scheduling-system-sub000/internal/models"
)

// ScheduleRepository persists timetable headers.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new repository instance.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a schedule header.
func (r *ScheduleRepository) Create(ctx context.Context, exec sqlx.ExtContext, schedule *models.Schedule) error {
	if schedule == nil {
		return fmt.Errorf("schedule payload is nil")
	}
	if schedule.ProgramID == "" || schedule.AcademicYearID == "" {
		return fmt.Errorf("program_id and academic_year_id are required")
	}
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	if schedule.Status == "" {
		schedule.Status = models.ScheduleStatusDraft
	}
	if len(schedule.Params) == 0 {
		schedule.Params = types.JSONText(`{}`)
	}
	if len(schedule.Progress) == 0 {
		schedule.Progress = types.JSONText(`{}`)
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now

	const query = `
INSERT INTO schedules (id, program_id, academic_year_id, semester, year_level, block_section, status, params, fitness_score, progress, error_message, created_by, created_at, updated_at)
VALUES (:id, :program_id, :academic_year_id, :semester, :year_level, :block_section, :status, :params, :fitness_score, :progress, :error_message, :created_by, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, schedule); err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	return nil
}

// FindByID loads a schedule header by its identifier.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	const query = `SELECT id, program_id, academic_year_id, semester, year_level, block_section, status, params, fitness_score, progress, error_message, created_by, created_at, updated_at
FROM schedules WHERE id = $1`
	var schedule models.Schedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// UpdateProgress stores the per-generation progress snapshot. It runs on
// the base connection on purpose: snapshots must be visible to pollers
// while the surrounding run is still in flight.
func (r *ScheduleRepository) UpdateProgress(ctx context.Context, id string, progress types.JSONText) error {
	const query = `UPDATE schedules SET progress = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, progress, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update schedule progress: %w", err)
	}
	return nil
}

// SetFitness records the final fitness score of a completed run.
func (r *ScheduleRepository) SetFitness(ctx context.Context, exec sqlx.ExtContext, id string, fitness int) error {
	const query = `UPDATE schedules SET fitness_score = $1, updated_at = $2 WHERE id = $3`
	result, err := r.exec(exec).ExecContext(ctx, query, fitness, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set schedule fitness: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("schedule fitness rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkFailed flags a schedule whose generation run aborted, keeping the
// captured error message for operators.
func (r *ScheduleRepository) MarkFailed(ctx context.Context, id, message string) error {
	const query = `UPDATE schedules SET status = $1, error_message = $2, updated_at = $3 WHERE id = $4`
	if _, err := r.db.ExecContext(ctx, query, models.ScheduleStatusFailed, message, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("mark schedule failed: %w", err)
	}
	return nil
}

// UpdateStatus moves a schedule to a new lifecycle status.
func (r *ScheduleRepository) UpdateStatus(ctx context.Context, id string, status models.ScheduleStatus) error {
	const query = `UPDATE schedules SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update schedule status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("schedule status rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
