package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/LiezGoo/scheduling-system-sub000/internal/models"
)

// ScheduleItemRepository persists the class meetings of a schedule.
type ScheduleItemRepository struct {
	db *sqlx.DB
}

// NewScheduleItemRepository creates a new repository instance.
func NewScheduleItemRepository(db *sqlx.DB) *ScheduleItemRepository {
	return &ScheduleItemRepository{db: db}
}

func (r *ScheduleItemRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// DeleteBySchedule removes every item belonging to a schedule. Used
// inside the replacement transaction before the new set is inserted.
func (r *ScheduleItemRepository) DeleteBySchedule(ctx context.Context, exec sqlx.ExtContext, scheduleID string) error {
	const query = `DELETE FROM schedule_items WHERE schedule_id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, scheduleID); err != nil {
		return fmt.Errorf("delete schedule items: %w", err)
	}
	return nil
}

// BulkInsert persists a batch of schedule items.
func (r *ScheduleItemRepository) BulkInsert(ctx context.Context, exec sqlx.ExtContext, items []models.ScheduleItem) error {
	if len(items) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO schedule_items (id, schedule_id, subject_id, instructor_id, room_id, day, start_time, end_time, block_section, meeting_type, hours, created_at)
VALUES (:id, :schedule_id, :subject_id, :instructor_id, :room_id, :day, :start_time, :end_time, :block_section, :meeting_type, :hours, :created_at)`

	for i := range items {
		item := &items[i]
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		if item.CreatedAt.IsZero() {
			item.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, item); err != nil {
			return fmt.Errorf("insert schedule item: %w", err)
		}
	}
	return nil
}

// ListBySchedule returns items ordered by day and start time.
func (r *ScheduleItemRepository) ListBySchedule(ctx context.Context, scheduleID string) ([]models.ScheduleItem, error) {
	const query = `SELECT id, schedule_id, subject_id, instructor_id, room_id, day, start_time, end_time, block_section, meeting_type, hours, created_at
FROM schedule_items WHERE schedule_id = $1 ORDER BY day ASC, start_time ASC`
	var items []models.ScheduleItem
	if err := r.db.SelectContext(ctx, &items, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list schedule items: %w", err)
	}
	return items, nil
}
