package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/LiezGoo/scheduling-system-sub000/internal/models"
)

// SubjectRepository reads curriculum subjects.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new repository instance.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// ListForGeneration returns the active subjects scoped to one program,
// year level and semester, the exact input set for a generation run.
func (r *SubjectRepository) ListForGeneration(ctx context.Context, programID string, yearLevel int, semester string) ([]models.Subject, error) {
	const query = `SELECT id, code, name, program_id, year_level, semester, lecture_hours, lab_hours, active, created_at, updated_at
FROM subjects
WHERE program_id = $1 AND year_level = $2 AND semester = $3 AND active = TRUE
ORDER BY code ASC`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, programID, yearLevel, semester); err != nil {
		return nil, fmt.Errorf("list subjects for generation: %w", err)
	}
	return subjects, nil
}

// FindByID loads a subject by its identifier.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	const query = `SELECT id, code, name, program_id, year_level, semester, lecture_hours, lab_hours, active, created_at, updated_at
FROM subjects WHERE id = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}
