package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/LiezGoo/scheduling-system-sub000/internal/dto"
	"github.com/LiezGoo/scheduling-system-sub000/internal/models"
	appErrors "github.com/LiezGoo/scheduling-system-sub000/pkg/errors"
)

func validRequest() dto.GenerateTimetableRequest {
	return dto.GenerateTimetableRequest{
		AcademicYearID: "ay-2026",
		Semester:       "1st",
		ProgramID:      "prog-1",
		YearLevel:      2,
		CreatedBy:      "registrar-1",
		PopulationSize: 10,
		Generations:    5,
	}
}

func TestTimetableServiceGenerateSuccess(t *testing.T) {
	fixture := newTimetableFixture(t, timetableFixtureConfig{})
	fixture.mock.ExpectBegin()
	fixture.mock.ExpectCommit()

	result, err := fixture.service.Generate(context.Background(), validRequest())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.ScheduleID)
	assert.GreaterOrEqual(t, result.FitnessScore, 0)
	assert.NotEmpty(t, result.Items)

	var total float64
	for _, item := range result.Items {
		assert.Equal(t, result.ScheduleID, item.ScheduleID)
		assert.Equal(t, "Block 1", item.BlockSection)
		total += item.Hours
	}
	assert.LessOrEqual(t, total, 3.0+1e-9)

	// Persisted fitness matches the reported one.
	assert.Equal(t, result.FitnessScore, fixture.schedules.fitness[result.ScheduleID])
	assert.NoError(t, fixture.mock.ExpectationsWereMet())
}

func TestTimetableServiceGenerateValidationAgreesWithEngine(t *testing.T) {
	fixture := newTimetableFixture(t, timetableFixtureConfig{})
	fixture.mock.ExpectBegin()
	fixture.mock.ExpectCommit()

	result, err := fixture.service.Generate(context.Background(), validRequest())
	require.NoError(t, err)

	if result.FitnessScore == 1000 {
		assert.True(t, result.Validation.AllValid)
	}
	// The post-hoc report is derived from what was actually persisted.
	persisted := fixture.items.items[result.ScheduleID]
	assert.Len(t, result.Items, len(persisted))
}

func TestTimetableServiceGenerateMissingSubjects(t *testing.T) {
	fixture := newTimetableFixture(t, timetableFixtureConfig{noSubjects: true})

	_, err := fixture.service.Generate(context.Background(), validRequest())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrMissingInput.Code, appErr.Code)
	assert.Empty(t, fixture.schedules.created, "no header should be written when inputs are missing")
}

func TestTimetableServiceGenerateMissingInstructors(t *testing.T) {
	fixture := newTimetableFixture(t, timetableFixtureConfig{noInstructors: true})

	_, err := fixture.service.Generate(context.Background(), validRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMissingInput.Code, appErrors.FromError(err).Code)
	assert.Empty(t, fixture.schedules.created)
	assert.Empty(t, fixture.items.items)
}

func TestTimetableServiceGenerateRejectsBadLabHours(t *testing.T) {
	fixture := newTimetableFixture(t, timetableFixtureConfig{
		subjects: []models.Subject{{ID: "s1", Code: "CS1", LectureHours: 2, LabHours: 4}},
	})

	_, err := fixture.service.Generate(context.Background(), validRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceGenerateInvalidPayload(t *testing.T) {
	fixture := newTimetableFixture(t, timetableFixtureConfig{})

	req := validRequest()
	req.ProgramID = ""
	_, err := fixture.service.Generate(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceProgressSnapshots(t *testing.T) {
	fixture := newTimetableFixture(t, timetableFixtureConfig{})
	fixture.mock.ExpectBegin()
	fixture.mock.ExpectCommit()

	result, err := fixture.service.Generate(context.Background(), validRequest())
	require.NoError(t, err)

	// Five generations produce five snapshots mirrored to the cache.
	snapshot, ok := fixture.cache.Get(context.Background(), result.ScheduleID)
	require.True(t, ok)
	assert.Equal(t, 5, snapshot.CurrentGeneration)
	assert.Equal(t, 5, snapshot.TotalGenerations)
	assert.Equal(t, result.FitnessScore, snapshot.BestFitness)

	progress, err := fixture.service.GetProgress(context.Background(), result.ScheduleID)
	require.NoError(t, err)
	require.NotNil(t, progress.Progress)
	assert.Equal(t, 5, progress.Progress.CurrentGeneration)
}

func TestTimetableServiceGetProgressFallsBackToRow(t *testing.T) {
	fixture := newTimetableFixture(t, timetableFixtureConfig{noCache: true})
	fixture.mock.ExpectBegin()
	fixture.mock.ExpectCommit()

	result, err := fixture.service.Generate(context.Background(), validRequest())
	require.NoError(t, err)

	progress, err := fixture.service.GetProgress(context.Background(), result.ScheduleID)
	require.NoError(t, err)
	require.NotNil(t, progress.Progress)
	assert.Equal(t, 5, progress.Progress.TotalGenerations)
}

func TestTimetableServiceGetProgressUnknownSchedule(t *testing.T) {
	fixture := newTimetableFixture(t, timetableFixtureConfig{})
	_, err := fixture.service.GetProgress(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceUpdateStatus(t *testing.T) {
	fixture := newTimetableFixture(t, timetableFixtureConfig{})
	fixture.mock.ExpectBegin()
	fixture.mock.ExpectCommit()

	result, err := fixture.service.Generate(context.Background(), validRequest())
	require.NoError(t, err)

	// DRAFT cannot jump straight to APPROVED.
	_, err = fixture.service.UpdateStatus(context.Background(), result.ScheduleID, models.ScheduleStatusApproved)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)

	updated, err := fixture.service.UpdateStatus(context.Background(), result.ScheduleID, models.ScheduleStatusPendingApproval)
	require.NoError(t, err)
	assert.Equal(t, models.ScheduleStatusPendingApproval, updated.Status)

	updated, err = fixture.service.UpdateStatus(context.Background(), result.ScheduleID, models.ScheduleStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, models.ScheduleStatusApproved, updated.Status)

	_, err = fixture.service.UpdateStatus(context.Background(), result.ScheduleID, models.ScheduleStatusRejected)
	require.Error(t, err)
}

func TestTimetableServiceValidateSchedule(t *testing.T) {
	fixture := newTimetableFixture(t, timetableFixtureConfig{})
	fixture.mock.ExpectBegin()
	fixture.mock.ExpectCommit()

	result, err := fixture.service.Generate(context.Background(), validRequest())
	require.NoError(t, err)

	report, err := fixture.service.ValidateSchedule(context.Background(), result.ScheduleID)
	require.NoError(t, err)
	assert.Equal(t, result.Validation.AllValid, report.AllValid)
	assert.Equal(t, result.Validation.Counts, report.Counts)
}

func TestTimetableServiceGenerateAsync(t *testing.T) {
	fixture := newTimetableFixture(t, timetableFixtureConfig{})
	fixture.mock.ExpectBegin()
	fixture.mock.ExpectCommit()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fixture.service.StartWorkers(ctx)
	defer fixture.service.StopWorkers()

	ack, err := fixture.service.GenerateAsync(context.Background(), validRequest())
	require.NoError(t, err)
	assert.True(t, ack.Queued)
	require.NotEmpty(t, ack.ScheduleID)

	require.Eventually(t, func() bool {
		fixture.items.mu.Lock()
		defer fixture.items.mu.Unlock()
		return len(fixture.items.items[ack.ScheduleID]) > 0
	}, 5*time.Second, 20*time.Millisecond, "queued run should persist items")
}

func TestTimetableServiceGeneratePersistFailureRollsBack(t *testing.T) {
	fixture := newTimetableFixture(t, timetableFixtureConfig{itemInsertErr: errors.New("disk full")})
	fixture.mock.ExpectBegin()
	fixture.mock.ExpectRollback()

	_, err := fixture.service.Generate(context.Background(), validRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	require.NoError(t, fixture.mock.ExpectationsWereMet(), "transaction must roll back")

	// The header is marked FAILED with the captured message and no item
	// rows stay visible.
	require.Len(t, fixture.schedules.failures, 1)
	for id, message := range fixture.schedules.failures {
		assert.Contains(t, message, "persist schedule items")
		assert.Equal(t, models.ScheduleStatusFailed, fixture.schedules.created[id].Status)
		persisted, listErr := fixture.items.ListBySchedule(context.Background(), id)
		require.NoError(t, listErr)
		assert.Empty(t, persisted)
	}
}

func TestTimetableServiceGenerateHonoursExplicitZeroRates(t *testing.T) {
	fixture := newTimetableFixture(t, timetableFixtureConfig{})
	fixture.mock.ExpectBegin()
	fixture.mock.ExpectCommit()

	zero := 0
	req := validRequest()
	req.MutationRate = &zero
	req.CrossoverRate = &zero

	result, err := fixture.service.Generate(context.Background(), req)
	require.NoError(t, err)

	// An explicit zero must survive into the recorded params instead of
	// being bumped to the configured defaults.
	stored := fixture.schedules.created[result.ScheduleID]
	require.NotNil(t, stored)
	var params models.GenerationParams
	require.NoError(t, json.Unmarshal(stored.Params, &params))
	assert.Zero(t, params.MutationRate)
	assert.Zero(t, params.CrossoverRate)
	assert.Equal(t, 10, params.PopulationSize)
}

// --- Fixtures ---

type timetableFixtureConfig struct {
	subjects      []models.Subject
	noSubjects    bool
	noInstructors bool
	noCache       bool
	itemInsertErr error
}

type timetableFixture struct {
	service   *TimetableService
	schedules *scheduleStoreStub
	items     *itemStoreStub
	cache     *progressCacheStub
	txdb      *sqlx.DB
	mock      sqlmock.Sqlmock
}

func newTimetableFixture(t *testing.T, cfg timetableFixtureConfig) *timetableFixture {
	subjects := cfg.subjects
	if subjects == nil && !cfg.noSubjects {
		subjects = []models.Subject{{ID: "s1", Code: "CS101", Name: "Intro", LectureHours: 3, LabHours: 0}}
	}
	instructors := []models.Instructor{
		fixtureInstructor("i1"),
		fixtureInstructor("i2"),
	}
	if cfg.noInstructors {
		instructors = nil
	}

	schedules := &scheduleStoreStub{
		created:  map[string]*models.Schedule{},
		fitness:  map[string]int{},
		failures: map[string]string{},
	}
	items := &itemStoreStub{items: map[string][]models.ScheduleItem{}}
	var cache *progressCacheStub
	if !cfg.noCache {
		cache = &progressCacheStub{snapshots: map[string]models.GenerationProgress{}}
	}

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	txdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })

	fixture := &timetableFixture{
		schedules: schedules,
		items:     items,
		cache:     cache,
		txdb:      txdb,
		mock:      mock,
	}
	var progress progressSnapshotCache
	if cache != nil {
		progress = cache
	}
	var itemStore scheduleItemStore = items
	if cfg.itemInsertErr != nil {
		itemStore = &failingItemStore{itemStoreStub: items, insertErr: cfg.itemInsertErr}
	}
	fixture.service = NewTimetableService(
		subjectListerStub{subjects: subjects},
		instructorListerStub{instructors: instructors},
		roomListerStub{rooms: []models.Room{{ID: "r1", Code: "L101", Type: models.RoomTypeLecture, Active: true}}},
		programReaderStub{},
		schedules,
		itemStore,
		progress,
		txdb,
		nil,
		validator.New(),
		zap.NewNop(),
		TimetableConfig{Workers: 1, QueueSize: 4, Seed: 42},
	)
	return fixture
}

func fixtureInstructor(id string) models.Instructor {
	start, end := "08:00", "17:00"
	return models.Instructor{
		ID:           id,
		FullName:     "Instructor " + id,
		ContractType: models.ContractPermanent,
		SchemeStart:  &start,
		SchemeEnd:    &end,
		Active:       true,
	}
}

type subjectListerStub struct {
	subjects []models.Subject
	err      error
}

func (s subjectListerStub) ListForGeneration(ctx context.Context, programID string, yearLevel int, semester string) ([]models.Subject, error) {
	return s.subjects, s.err
}

type instructorListerStub struct {
	instructors []models.Instructor
}

func (s instructorListerStub) ListSchedulable(ctx context.Context, departmentID string) ([]models.Instructor, error) {
	return s.instructors, nil
}

type roomListerStub struct {
	rooms []models.Room
}

func (s roomListerStub) ListActive(ctx context.Context) ([]models.Room, error) {
	return s.rooms, nil
}

type programReaderStub struct{}

func (programReaderStub) FindByID(ctx context.Context, id string) (*models.Program, error) {
	return &models.Program{ID: id, Code: "BSCS", DepartmentID: "dept-1"}, nil
}

type scheduleStoreStub struct {
	mu       sync.Mutex
	seq      int
	created  map[string]*models.Schedule
	fitness  map[string]int
	failures map[string]string
}

func (s *scheduleStoreStub) Create(ctx context.Context, exec sqlx.ExtContext, schedule *models.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	schedule.ID = fmt.Sprintf("sched-%d", s.seq)
	schedule.CreatedAt = time.Now().UTC()
	schedule.UpdatedAt = schedule.CreatedAt
	copied := *schedule
	s.created[schedule.ID] = &copied
	return nil
}

func (s *scheduleStoreStub) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	schedule, ok := s.created[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *schedule
	return &copied, nil
}

func (s *scheduleStoreStub) UpdateProgress(ctx context.Context, id string, progress types.JSONText) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if schedule, ok := s.created[id]; ok {
		schedule.Progress = progress
	}
	return nil
}

func (s *scheduleStoreStub) SetFitness(ctx context.Context, exec sqlx.ExtContext, id string, fitness int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.created[id]; !ok {
		return sql.ErrNoRows
	}
	s.fitness[id] = fitness
	value := fitness
	s.created[id].FitnessScore = &value
	return nil
}

func (s *scheduleStoreStub) MarkFailed(ctx context.Context, id, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[id] = message
	if schedule, ok := s.created[id]; ok {
		schedule.Status = models.ScheduleStatusFailed
		schedule.ErrorMessage = &message
	}
	return nil
}

func (s *scheduleStoreStub) UpdateStatus(ctx context.Context, id string, status models.ScheduleStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	schedule, ok := s.created[id]
	if !ok {
		return sql.ErrNoRows
	}
	schedule.Status = status
	return nil
}

type itemStoreStub struct {
	mu    sync.Mutex
	items map[string][]models.ScheduleItem
}

func (s *itemStoreStub) DeleteBySchedule(ctx context.Context, exec sqlx.ExtContext, scheduleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, scheduleID)
	return nil
}

func (s *itemStoreStub) BulkInsert(ctx context.Context, exec sqlx.ExtContext, items []models.ScheduleItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		s.items[item.ScheduleID] = append(s.items[item.ScheduleID], item)
	}
	return nil
}

func (s *itemStoreStub) ListBySchedule(ctx context.Context, scheduleID string) ([]models.ScheduleItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ScheduleItem(nil), s.items[scheduleID]...), nil
}

type failingItemStore struct {
	*itemStoreStub
	insertErr error
}

func (s *failingItemStore) BulkInsert(ctx context.Context, exec sqlx.ExtContext, items []models.ScheduleItem) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	return s.itemStoreStub.BulkInsert(ctx, exec, items)
}

type progressCacheStub struct {
	mu        sync.Mutex
	snapshots map[string]models.GenerationProgress
}

func (s *progressCacheStub) Set(ctx context.Context, scheduleID string, progress models.GenerationProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[scheduleID] = progress
	return nil
}

func (s *progressCacheStub) Get(ctx context.Context, scheduleID string) (models.GenerationProgress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot, ok := s.snapshots[scheduleID]
	return snapshot, ok
}
