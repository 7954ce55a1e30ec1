package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LiezGoo/scheduling-system-sub000/internal/dto"
	"github.com/LiezGoo/scheduling-system-sub000/internal/models"
	"github.com/LiezGoo/scheduling-system-sub000/internal/service"
	"github.com/LiezGoo/scheduling-system-sub000/internal/timetable/constraint"
	appErrors "github.com/LiezGoo/scheduling-system-sub000/pkg/errors"
)

type timetableServiceMock struct {
	generateResp *dto.GenerateTimetableResult
	generateErr  error
	asyncResp    *dto.EnqueueResult
	asyncErr     error
	progressResp *dto.ProgressResponse
	progressErr  error
	detailResp   *dto.ScheduleDetail
	detailErr    error
	report       *constraint.Report
	reportErr    error
	statusResp   *models.Schedule
	statusErr    error
}

func (m *timetableServiceMock) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResult, error) {
	return m.generateResp, m.generateErr
}

func (m *timetableServiceMock) GenerateAsync(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.EnqueueResult, error) {
	return m.asyncResp, m.asyncErr
}

func (m *timetableServiceMock) GetProgress(ctx context.Context, scheduleID string) (*dto.ProgressResponse, error) {
	return m.progressResp, m.progressErr
}

func (m *timetableServiceMock) GetSchedule(ctx context.Context, scheduleID string) (*dto.ScheduleDetail, error) {
	return m.detailResp, m.detailErr
}

func (m *timetableServiceMock) ValidateSchedule(ctx context.Context, scheduleID string) (*constraint.Report, error) {
	return m.report, m.reportErr
}

func (m *timetableServiceMock) UpdateStatus(ctx context.Context, scheduleID string, target models.ScheduleStatus) (*models.Schedule, error) {
	return m.statusResp, m.statusErr
}

type exporterMock struct {
	file *service.ExportFile
	err  error
}

func (m *exporterMock) Export(ctx context.Context, scheduleID string, format service.ExportFormat) (*service.ExportFile, error) {
	return m.file, m.err
}

func newRouter(h *TimetableHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/timetables/generate", h.Generate)
	r.GET("/timetables/:id", h.Detail)
	r.GET("/timetables/:id/progress", h.Progress)
	r.GET("/timetables/:id/validation", h.Validation)
	r.GET("/timetables/:id/export", h.Export)
	r.POST("/timetables/:id/status", h.UpdateStatus)
	return r
}

func performJSON(r *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		_ = json.NewEncoder(&body).Encode(payload)
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTimetableHandlerGenerate(t *testing.T) {
	mock := &timetableServiceMock{
		generateResp: &dto.GenerateTimetableResult{Success: true, ScheduleID: "sched-1", FitnessScore: 940},
	}
	r := newRouter(&TimetableHandler{service: mock})

	w := performJSON(r, http.MethodPost, "/timetables/generate", dto.GenerateTimetableRequest{
		AcademicYearID: "ay-2026", Semester: "1st", ProgramID: "prog-1", YearLevel: 2, CreatedBy: "u1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data dto.GenerateTimetableResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "sched-1", envelope.Data.ScheduleID)
	assert.Equal(t, 940, envelope.Data.FitnessScore)
}

func TestTimetableHandlerGenerateAsync(t *testing.T) {
	mock := &timetableServiceMock{
		asyncResp: &dto.EnqueueResult{ScheduleID: "sched-1", Queued: true},
	}
	r := newRouter(&TimetableHandler{service: mock})

	w := performJSON(r, http.MethodPost, "/timetables/generate?async=true", dto.GenerateTimetableRequest{
		AcademicYearID: "ay-2026", Semester: "1st", ProgramID: "prog-1", YearLevel: 2, CreatedBy: "u1",
	})
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestTimetableHandlerGenerateBadPayload(t *testing.T) {
	r := newRouter(&TimetableHandler{service: &timetableServiceMock{}})

	req := httptest.NewRequest(http.MethodPost, "/timetables/generate", bytes.NewBufferString("{broken"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerGenerateMissingInput(t *testing.T) {
	mock := &timetableServiceMock{
		generateErr: appErrors.Clone(appErrors.ErrMissingInput, "no active rooms found"),
	}
	r := newRouter(&TimetableHandler{service: mock})

	w := performJSON(r, http.MethodPost, "/timetables/generate", dto.GenerateTimetableRequest{
		AcademicYearID: "ay-2026", Semester: "1st", ProgramID: "prog-1", YearLevel: 2, CreatedBy: "u1",
	})
	require.Equal(t, http.StatusPreconditionFailed, w.Code)

	var envelope struct {
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrMissingInput.Code, envelope.Error.Code)
}

func TestTimetableHandlerProgressNotFound(t *testing.T) {
	mock := &timetableServiceMock{
		progressErr: appErrors.Clone(appErrors.ErrNotFound, "schedule not found"),
	}
	r := newRouter(&TimetableHandler{service: mock})

	w := performJSON(r, http.MethodGet, "/timetables/missing/progress", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTimetableHandlerUpdateStatusInvalidTransition(t *testing.T) {
	mock := &timetableServiceMock{
		statusErr: appErrors.Clone(appErrors.ErrInvalidTransition, "cannot move schedule from DRAFT to APPROVED"),
	}
	r := newRouter(&TimetableHandler{service: mock})

	w := performJSON(r, http.MethodPost, "/timetables/sched-1/status", dto.UpdateScheduleStatusRequest{
		Status: models.ScheduleStatusApproved,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTimetableHandlerExport(t *testing.T) {
	exp := &exporterMock{
		file: &service.ExportFile{
			Filename:    "timetable_block_1_20260831.csv",
			ContentType: "text/csv",
			Payload:     []byte("Day,Start,End\n"),
		},
	}
	r := newRouter(&TimetableHandler{service: &timetableServiceMock{}, exporter: exp})

	w := performJSON(r, http.MethodGet, "/timetables/sched-1/export?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "timetable_block_1_20260831.csv")
	assert.Equal(t, "Day,Start,End\n", w.Body.String())
}

func TestTimetableHandlerValidation(t *testing.T) {
	mock := &timetableServiceMock{
		report: &constraint.Report{AllValid: true},
	}
	r := newRouter(&TimetableHandler{service: mock})

	w := performJSON(r, http.MethodGet, "/timetables/sched-1/validation", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data constraint.Report `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.AllValid)
}
