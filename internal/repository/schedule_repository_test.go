package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LiezGoo/scheduling-system-sub000/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestScheduleRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedules")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	schedule := &models.Schedule{
		ProgramID:      "prog-1",
		AcademicYearID: "ay-2026",
		Semester:       "1st",
		YearLevel:      2,
		BlockSection:   "Block 1",
		CreatedBy:      "registrar-1",
	}
	require.NoError(t, repo.Create(context.Background(), nil, schedule))
	assert.NotEmpty(t, schedule.ID)
	assert.Equal(t, models.ScheduleStatusDraft, schedule.Status)
	assert.Equal(t, types.JSONText(`{}`), schedule.Params)
	assert.False(t, schedule.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryCreateRequiresIdentity(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	err := repo.Create(context.Background(), nil, &models.Schedule{ProgramID: "prog-1"})
	assert.Error(t, err)
	err = repo.Create(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestScheduleRepositoryCreateInsideTx(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedules")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), tx, &models.Schedule{
		ProgramID:      "prog-1",
		AcademicYearID: "ay-2026",
	}))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	rows := sqlmock.NewRows([]string{"id", "program_id", "academic_year_id", "semester", "year_level", "block_section", "status", "params", "fitness_score", "progress", "error_message", "created_by", "created_at", "updated_at"}).
		AddRow("sched-1", "prog-1", "ay-2026", "1st", 2, "Block 1", string(models.ScheduleStatusDraft), types.JSONText(`{}`), nil, types.JSONText(`{}`), nil, "registrar-1", time.Now(), time.Now())
	mock.ExpectQuery("SELECT .+ FROM schedules WHERE id = \\$1").
		WithArgs("sched-1").
		WillReturnRows(rows)

	schedule, err := repo.FindByID(context.Background(), "sched-1")
	require.NoError(t, err)
	assert.Equal(t, "prog-1", schedule.ProgramID)
	assert.Equal(t, models.ScheduleStatusDraft, schedule.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositorySetFitnessNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedules SET fitness_score = $1, updated_at = $2 WHERE id = $3")).
		WithArgs(850, sqlmock.AnyArg(), "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetFitness(context.Background(), nil, "missing", 850)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryUpdateProgress(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	payload := types.JSONText(`{"current_generation":3,"total_generations":10,"best_fitness":700}`)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedules SET progress = $1, updated_at = $2 WHERE id = $3")).
		WithArgs(payload, sqlmock.AnyArg(), "sched-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.UpdateProgress(context.Background(), "sched-1", payload))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryMarkFailed(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedules SET status = $1, error_message = $2, updated_at = $3 WHERE id = $4")).
		WithArgs(models.ScheduleStatusFailed, "no rooms", sqlmock.AnyArg(), "sched-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.MarkFailed(context.Background(), "sched-1", "no rooms"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryUpdateStatusNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedules SET status = $1, updated_at = $2 WHERE id = $3")).
		WithArgs(models.ScheduleStatusApproved, sqlmock.AnyArg(), "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", models.ScheduleStatusApproved)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
