package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/LiezGoo/scheduling-system-sub000/internal/models"
)

// TeachingRoles are the roles eligible for timetable assignment.
var TeachingRoles = []string{"instructor", "assistant_professor", "associate_professor", "professor"}

// InstructorRepository reads teaching staff.
type InstructorRepository struct {
	db *sqlx.DB
}

// NewInstructorRepository creates a new repository instance.
func NewInstructorRepository(db *sqlx.DB) *InstructorRepository {
	return &InstructorRepository{db: db}
}

// ListSchedulable returns active, teaching-eligible instructors of one
// department that have a working scheme defined.
func (r *InstructorRepository) ListSchedulable(ctx context.Context, departmentID string) ([]models.Instructor, error) {
	const query = `SELECT id, full_name, email, department_id, role, contract_type, scheme_start, scheme_end, active, created_at, updated_at
FROM instructors
WHERE department_id = $1
  AND role = ANY($2)
  AND active = TRUE
  AND scheme_start IS NOT NULL
  AND scheme_end IS NOT NULL
ORDER BY full_name ASC`
	var instructors []models.Instructor
	if err := r.db.SelectContext(ctx, &instructors, query, departmentID, pq.Array(TeachingRoles)); err != nil {
		return nil, fmt.Errorf("list schedulable instructors: %w", err)
	}
	return instructors, nil
}

// FindByID returns a single instructor regardless of active state.
func (r *InstructorRepository) FindByID(ctx context.Context, id string) (*models.Instructor, error) {
	const query = `SELECT id, full_name, email, department_id, role, contract_type, scheme_start, scheme_end, active, created_at, updated_at
FROM instructors WHERE id = $1`
	var instructor models.Instructor
	if err := r.db.GetContext(ctx, &instructor, query, id); err != nil {
		return nil, err
	}
	return &instructor, nil
}
