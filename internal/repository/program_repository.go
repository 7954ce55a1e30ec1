package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/LiezGoo/scheduling-system-sub000/internal/models"
)

// ProgramRepository reads academic programs.
type ProgramRepository struct {
	db *sqlx.DB
}

// NewProgramRepository creates a new repository instance.
func NewProgramRepository(db *sqlx.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

// FindByID loads a program by its identifier.
func (r *ProgramRepository) FindByID(ctx context.Context, id string) (*models.Program, error) {
	const query = `SELECT id, code, name, department_id, created_at, updated_at FROM programs WHERE id = $1`
	var program models.Program
	if err := r.db.GetContext(ctx, &program, query, id); err != nil {
		return nil, err
	}
	return &program, nil
}
