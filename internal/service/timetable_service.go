package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/LiezGoo/scheduling-system-sub000/internal/dto"
	"github.com/LiezGoo/scheduling-system-sub000/internal/models"
	"github.com/LiezGoo/scheduling-system-sub000/internal/timetable/constraint"
	"github.com/LiezGoo/scheduling-system-sub000/internal/timetable/genetic"
	appErrors "github.com/LiezGoo/scheduling-system-sub000/pkg/errors"
	"github.com/LiezGoo/scheduling-system-sub000/pkg/jobs"
)

type subjectLister interface {
	ListForGeneration(ctx context.Context, programID string, yearLevel int, semester string) ([]models.Subject, error)
}

type instructorLister interface {
	ListSchedulable(ctx context.Context, departmentID string) ([]models.Instructor, error)
}

type roomLister interface {
	ListActive(ctx context.Context) ([]models.Room, error)
}

type programReader interface {
	FindByID(ctx context.Context, id string) (*models.Program, error)
}

type scheduleStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, schedule *models.Schedule) error
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	UpdateProgress(ctx context.Context, id string, progress types.JSONText) error
	SetFitness(ctx context.Context, exec sqlx.ExtContext, id string, fitness int) error
	MarkFailed(ctx context.Context, id, message string) error
	UpdateStatus(ctx context.Context, id string, status models.ScheduleStatus) error
}

type scheduleItemStore interface {
	DeleteBySchedule(ctx context.Context, exec sqlx.ExtContext, scheduleID string) error
	BulkInsert(ctx context.Context, exec sqlx.ExtContext, items []models.ScheduleItem) error
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.ScheduleItem, error)
}

type progressSnapshotCache interface {
	Set(ctx context.Context, scheduleID string, progress models.GenerationProgress) error
	Get(ctx context.Context, scheduleID string) (models.GenerationProgress, bool)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type generationObserver interface {
	ObserveGenerationRun(success bool, elapsed time.Duration, fitness, items int)
}

// TimetableConfig governs orchestration defaults. Zero-valued fields fall
// back to the documented generator defaults. Seed enables deterministic
// replay; zero seeds from the clock.
type TimetableConfig struct {
	PopulationSize int
	Generations    int
	MutationRate   int
	CrossoverRate  int
	EliteSize      int
	TournamentSize int
	RetryBudget    int
	WorkingDays    int
	DayStart       string
	DayEnd         string
	Workers        int
	QueueSize      int
	Seed           int64
}

func (c *TimetableConfig) applyDefaults() {
	if c.PopulationSize <= 0 {
		c.PopulationSize = 50
	}
	if c.Generations <= 0 {
		c.Generations = 100
	}
	if c.MutationRate <= 0 {
		c.MutationRate = 15
	}
	if c.CrossoverRate <= 0 {
		c.CrossoverRate = 80
	}
	if c.EliteSize <= 0 {
		c.EliteSize = 5
	}
	if c.TournamentSize <= 0 {
		c.TournamentSize = 5
	}
	if c.RetryBudget <= 0 {
		c.RetryBudget = 50
	}
	if c.WorkingDays <= 0 {
		c.WorkingDays = 6
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 8
	}
}

const defaultBlockSection = "Block 1"

// TimetableService orchestrates timetable generation: it loads reference
// data, runs the evolutionary engine, persists the winning candidate
// transactionally and re-validates the persisted result.
type TimetableService struct {
	subjects    subjectLister
	instructors instructorLister
	rooms       roomLister
	programs    programReader
	schedules   scheduleStore
	items       scheduleItemStore
	progress    progressSnapshotCache
	tx          txProvider
	metrics     generationObserver
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         TimetableConfig
	queue       *jobs.Queue
}

// NewTimetableService wires orchestrator dependencies. The progress cache
// and metrics observer are optional.
func NewTimetableService(
	subjects subjectLister,
	instructors instructorLister,
	rooms roomLister,
	programs programReader,
	schedules scheduleStore,
	items scheduleItemStore,
	progress progressSnapshotCache,
	tx txProvider,
	metrics generationObserver,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableConfig,
) *TimetableService {
	cfg.applyDefaults()
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &TimetableService{
		subjects:    subjects,
		instructors: instructors,
		rooms:       rooms,
		programs:    programs,
		schedules:   schedules,
		items:       items,
		progress:    progress,
		tx:          tx,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
	}
	s.queue = jobs.NewQueue("timetable_generation", s.handleJob, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.QueueSize,
		MaxRetries: 1,
		Logger:     logger,
	})
	return s
}

// StartWorkers launches the async generation workers.
func (s *TimetableService) StartWorkers(ctx context.Context) {
	s.queue.Start(ctx)
}

// StopWorkers drains and stops the async generation workers.
func (s *TimetableService) StopWorkers() {
	s.queue.Stop()
}

type generationInputs struct {
	subjects    []models.Subject
	instructors []models.Instructor
	rooms       []models.Room
}

func (in *generationInputs) instructorMap() map[string]models.Instructor {
	byID := make(map[string]models.Instructor, len(in.instructors))
	for _, inst := range in.instructors {
		byID[inst.ID] = inst
	}
	return byID
}

// Generate runs the full pipeline synchronously. Missing reference data
// aborts before any row is written; failures after the header exists mark
// it FAILED with the captured message and leave no items behind.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResult, error) {
	req, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	inputs, err := s.loadInputs(ctx, req)
	if err != nil {
		return nil, err
	}
	schedule, err := s.createHeader(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, schedule, req, inputs)
}

// GenerateAsync validates inputs up front, creates the DRAFT header and
// queues the run. Progress is observable through GetProgress.
func (s *TimetableService) GenerateAsync(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.EnqueueResult, error) {
	req, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadInputs(ctx, req); err != nil {
		return nil, err
	}
	schedule, err := s.createHeader(ctx, req)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(generationJob{ScheduleID: schedule.ID, Request: req})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode generation job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: schedule.ID, Type: "generate", Payload: payload}); err != nil {
		s.markFailed(ctx, schedule.ID, "failed to queue generation: "+err.Error())
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue generation")
	}
	return &dto.EnqueueResult{ScheduleID: schedule.ID, Queued: true}, nil
}

type generationJob struct {
	ScheduleID string                       `json:"schedule_id"`
	Request    dto.GenerateTimetableRequest `json:"request"`
}

// handleJob is the queue worker entry point. Generation failures are
// terminal and recorded on the schedule row, so the job itself never
// reports an error back for retry.
func (s *TimetableService) handleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.([]byte)
	if !ok {
		s.logger.Error("generation job carried unexpected payload", zap.String("job_id", job.ID))
		return nil
	}
	var spec generationJob
	if err := json.Unmarshal(payload, &spec); err != nil {
		s.logger.Error("failed to decode generation job", zap.String("job_id", job.ID), zap.Error(err))
		return nil
	}
	schedule, err := s.schedules.FindByID(ctx, spec.ScheduleID)
	if err != nil {
		s.logger.Error("generation job for unknown schedule", zap.String("schedule_id", spec.ScheduleID), zap.Error(err))
		return nil
	}
	if _, err := s.execute(ctx, schedule, spec.Request, nil); err != nil {
		s.logger.Warn("async generation failed",
			zap.String("schedule_id", spec.ScheduleID),
			zap.Error(err),
		)
	}
	return nil
}

func (s *TimetableService) prepare(req dto.GenerateTimetableRequest) (dto.GenerateTimetableRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return req, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation payload")
	}
	if req.BlockSection == "" {
		req.BlockSection = defaultBlockSection
	}
	if req.PopulationSize <= 0 {
		req.PopulationSize = s.cfg.PopulationSize
	}
	if req.Generations <= 0 {
		req.Generations = s.cfg.Generations
	}
	// Rates are pointers so an explicit zero is kept; only an absent
	// field takes the configured default.
	if req.MutationRate == nil {
		rate := s.cfg.MutationRate
		req.MutationRate = &rate
	}
	if req.CrossoverRate == nil {
		rate := s.cfg.CrossoverRate
		req.CrossoverRate = &rate
	}
	if req.EliteSize <= 0 {
		req.EliteSize = s.cfg.EliteSize
	}
	return req, nil
}

func (s *TimetableService) loadInputs(ctx context.Context, req dto.GenerateTimetableRequest) (*generationInputs, error) {
	subjects, err := s.subjects.ListForGeneration(ctx, req.ProgramID, req.YearLevel, req.Semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	if len(subjects) == 0 {
		return nil, appErrors.Clone(appErrors.ErrMissingInput, "no active subjects found for the requested program, year level and semester")
	}
	for _, subject := range subjects {
		if err := constraint.ValidateAssignmentHours(subject.LabHours); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status,
				fmt.Sprintf("subject %s has invalid lab hours", subject.Code))
		}
	}

	program, err := s.programs.FindByID(ctx, req.ProgramID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}

	instructors, err := s.instructors.ListSchedulable(ctx, program.DepartmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructors")
	}
	if len(instructors) == 0 {
		return nil, appErrors.Clone(appErrors.ErrMissingInput, "no schedulable instructors found for the program's department")
	}

	rooms, err := s.rooms.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	if len(rooms) == 0 {
		return nil, appErrors.Clone(appErrors.ErrMissingInput, "no active rooms found")
	}

	return &generationInputs{subjects: subjects, instructors: instructors, rooms: rooms}, nil
}

func (s *TimetableService) createHeader(ctx context.Context, req dto.GenerateTimetableRequest) (*models.Schedule, error) {
	params, err := json.Marshal(models.GenerationParams{
		PopulationSize: req.PopulationSize,
		Generations:    req.Generations,
		MutationRate:   *req.MutationRate,
		CrossoverRate:  *req.CrossoverRate,
		EliteSize:      req.EliteSize,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode generation params")
	}
	schedule := &models.Schedule{
		ProgramID:      req.ProgramID,
		AcademicYearID: req.AcademicYearID,
		Semester:       req.Semester,
		YearLevel:      req.YearLevel,
		BlockSection:   req.BlockSection,
		Status:         models.ScheduleStatusDraft,
		Params:         types.JSONText(params),
		CreatedBy:      req.CreatedBy,
	}
	if err := s.schedules.Create(ctx, nil, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}
	return schedule, nil
}

func (s *TimetableService) execute(ctx context.Context, schedule *models.Schedule, req dto.GenerateTimetableRequest, inputs *generationInputs) (*dto.GenerateTimetableResult, error) {
	var err error
	if inputs == nil {
		if inputs, err = s.loadInputs(ctx, req); err != nil {
			s.markFailed(ctx, schedule.ID, appErrors.FromError(err).Message)
			return nil, err
		}
	}
	result, err := s.run(ctx, schedule, req, inputs)
	if err != nil {
		s.markFailed(ctx, schedule.ID, appErrors.FromError(err).Message)
		if s.metrics != nil {
			s.metrics.ObserveGenerationRun(false, 0, 0, 0)
		}
		return nil, err
	}
	return result, nil
}

func (s *TimetableService) run(ctx context.Context, schedule *models.Schedule, req dto.GenerateTimetableRequest, inputs *generationInputs) (*dto.GenerateTimetableResult, error) {
	started := time.Now()

	seed := s.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	engine := genetic.New(genetic.Config{
		PopulationSize: req.PopulationSize,
		Generations:    req.Generations,
		MutationRate:   float64(*req.MutationRate) / 100,
		CrossoverRate:  float64(*req.CrossoverRate) / 100,
		EliteSize:      req.EliteSize,
		TournamentSize: s.cfg.TournamentSize,
		RetryBudget:    s.cfg.RetryBudget,
		Section:        req.BlockSection,
		Days:           s.workingDays(),
		DayStart:       s.dayBound(s.cfg.DayStart, constraint.DayStartMinute),
		DayEnd:         s.dayBound(s.cfg.DayEnd, constraint.DayEndMinute),
	}, inputs.subjects, inputs.instructors, inputs.rooms, rand.New(rand.NewSource(seed)), s.logger)

	onProgress := func(generation, total, bestFitness int) {
		snapshot := models.GenerationProgress{
			CurrentGeneration: generation,
			TotalGenerations:  total,
			BestFitness:       bestFitness,
			UpdatedAt:         time.Now().UTC(),
		}
		payload, marshalErr := json.Marshal(snapshot)
		if marshalErr != nil {
			return
		}
		if updateErr := s.schedules.UpdateProgress(ctx, schedule.ID, types.JSONText(payload)); updateErr != nil {
			s.logger.Warn("failed to persist generation progress", zap.String("schedule_id", schedule.ID), zap.Error(updateErr))
		}
		if s.progress != nil {
			if cacheErr := s.progress.Set(ctx, schedule.ID, snapshot); cacheErr != nil {
				s.logger.Debug("failed to cache generation progress", zap.String("schedule_id", schedule.ID), zap.Error(cacheErr))
			}
		}
	}

	engineResult, err := engine.Run(ctx, onProgress)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrGenerationFailed.Code, appErrors.ErrGenerationFailed.Status, "evolutionary search failed")
	}

	items := s.itemsFromGenes(schedule, engineResult.Best.Genes)
	if err := s.persistItems(ctx, schedule.ID, items, engineResult.Fitness); err != nil {
		return nil, err
	}

	persisted, err := s.items.ListBySchedule(ctx, schedule.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload persisted items")
	}
	report := constraint.ValidateMeetings(constraint.MeetingsFromItems(persisted), inputs.instructorMap())

	elapsed := time.Since(started)
	itemsPerSecond := 0.0
	if elapsed > 0 {
		itemsPerSecond = float64(len(persisted)) / elapsed.Seconds()
	}
	if s.metrics != nil {
		s.metrics.ObserveGenerationRun(true, elapsed, engineResult.Fitness, len(persisted))
	}
	s.logger.Info("timetable generated",
		zap.String("schedule_id", schedule.ID),
		zap.Int("fitness", engineResult.Fitness),
		zap.Int("items", len(persisted)),
		zap.Int("generations", engineResult.GenerationsRun),
		zap.Bool("all_valid", report.AllValid),
		zap.Duration("elapsed", elapsed),
	)

	return &dto.GenerateTimetableResult{
		Success:      true,
		ScheduleID:   schedule.ID,
		FitnessScore: engineResult.Fitness,
		Items:        persisted,
		FacultyLoads: engineResult.Loads,
		Unfilled:     engineResult.Unfilled,
		Metrics: dto.GenerationMetrics{
			ElapsedMS:      elapsed.Milliseconds(),
			GenerationsRun: engineResult.GenerationsRun,
			ItemsPerSecond: itemsPerSecond,
		},
		Validation: report,
	}, nil
}

// persistItems replaces the schedule's items and records the final
// fitness inside one transaction so partial timetables are never visible.
func (s *TimetableService) persistItems(ctx context.Context, scheduleID string, items []models.ScheduleItem, fitness int) error {
	if s.tx == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.items.DeleteBySchedule(ctx, tx, scheduleID); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear previous items")
		return err
	}
	if err = s.items.BulkInsert(ctx, tx, items); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist schedule items")
		return err
	}
	if err = s.schedules.SetFitness(ctx, tx, scheduleID, fitness); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record fitness score")
		return err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit schedule items")
		return err
	}
	return nil
}

func (s *TimetableService) itemsFromGenes(schedule *models.Schedule, genes []constraint.Meeting) []models.ScheduleItem {
	items := make([]models.ScheduleItem, 0, len(genes))
	for _, gene := range genes {
		items = append(items, models.ScheduleItem{
			ScheduleID:   schedule.ID,
			SubjectID:    gene.SubjectID,
			InstructorID: gene.InstructorID,
			RoomID:       gene.RoomID,
			Day:          gene.Day,
			StartTime:    constraint.FormatClock(gene.Start),
			EndTime:      constraint.FormatClock(gene.End),
			BlockSection: gene.Section,
			MeetingType:  gene.Type,
			Hours:        gene.Hours,
		})
	}
	return items
}

func (s *TimetableService) workingDays() []int {
	days := make([]int, 0, s.cfg.WorkingDays)
	for day := 1; day <= s.cfg.WorkingDays; day++ {
		days = append(days, day)
	}
	return days
}

func (s *TimetableService) dayBound(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	minutes, err := constraint.ParseClock(raw)
	if err != nil {
		return fallback
	}
	return minutes
}

func (s *TimetableService) markFailed(ctx context.Context, scheduleID, message string) {
	if err := s.schedules.MarkFailed(ctx, scheduleID, message); err != nil {
		s.logger.Error("failed to mark schedule as failed", zap.String("schedule_id", scheduleID), zap.Error(err))
	}
}

// GetProgress exposes the polling view of a run without touching the
// engine. The cache is consulted first; the schedule row is the fallback.
func (s *TimetableService) GetProgress(ctx context.Context, scheduleID string) (*dto.ProgressResponse, error) {
	if scheduleID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schedule id is required")
	}
	schedule, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}

	resp := &dto.ProgressResponse{
		ScheduleID:   schedule.ID,
		Status:       schedule.Status,
		FitnessScore: schedule.FitnessScore,
		ErrorMessage: schedule.ErrorMessage,
		CreatedAt:    schedule.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    schedule.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if s.progress != nil {
		if snapshot, ok := s.progress.Get(ctx, scheduleID); ok {
			resp.Progress = &snapshot
			return resp, nil
		}
	}
	if len(schedule.Progress) > 0 && string(schedule.Progress) != "{}" {
		var snapshot models.GenerationProgress
		if err := json.Unmarshal(schedule.Progress, &snapshot); err == nil {
			resp.Progress = &snapshot
		}
	}
	return resp, nil
}

// GetSchedule returns a schedule header with its items.
func (s *TimetableService) GetSchedule(ctx context.Context, scheduleID string) (*dto.ScheduleDetail, error) {
	schedule, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	items, err := s.items.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule items")
	}
	return &dto.ScheduleDetail{Schedule: *schedule, Items: items}, nil
}

// ValidateSchedule re-derives the conflict report from persisted items.
// It never fails for an empty item set.
func (s *TimetableService) ValidateSchedule(ctx context.Context, scheduleID string) (*constraint.Report, error) {
	schedule, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	items, err := s.items.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule items")
	}

	instructorByID := make(map[string]models.Instructor)
	if program, err := s.programs.FindByID(ctx, schedule.ProgramID); err == nil {
		if instructors, err := s.instructors.ListSchedulable(ctx, program.DepartmentID); err == nil {
			for _, inst := range instructors {
				instructorByID[inst.ID] = inst
			}
		}
	}

	report := constraint.ValidateMeetings(constraint.MeetingsFromItems(items), instructorByID)
	return &report, nil
}

// UpdateStatus records a forward-only lifecycle transition.
func (s *TimetableService) UpdateStatus(ctx context.Context, scheduleID string, target models.ScheduleStatus) (*models.Schedule, error) {
	schedule, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if !schedule.Status.CanTransition(target) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("cannot move schedule from %s to %s", schedule.Status, target))
	}
	if err := s.schedules.UpdateStatus(ctx, scheduleID, target); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule status")
	}
	schedule.Status = target
	return schedule, nil
}
