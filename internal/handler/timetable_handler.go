package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/LiezGoo/scheduling-system-sub000/internal/dto"
	"github.com/LiezGoo/scheduling-system-sub000/internal/models"
	"github.com/LiezGoo/scheduling-system-sub000/internal/service"
	"github.com/LiezGoo/scheduling-system-sub000/internal/timetable/constraint"
	appErrors "github.com/LiezGoo/scheduling-system-sub000/pkg/errors"
	"github.com/LiezGoo/scheduling-system-sub000/pkg/response"
)

type timetableGenerator interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResult, error)
	GenerateAsync(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.EnqueueResult, error)
	GetProgress(ctx context.Context, scheduleID string) (*dto.ProgressResponse, error)
	GetSchedule(ctx context.Context, scheduleID string) (*dto.ScheduleDetail, error)
	ValidateSchedule(ctx context.Context, scheduleID string) (*constraint.Report, error)
	UpdateStatus(ctx context.Context, scheduleID string, target models.ScheduleStatus) (*models.Schedule, error)
}

type timetableExporter interface {
	Export(ctx context.Context, scheduleID string, format service.ExportFormat) (*service.ExportFile, error)
}

// TimetableHandler exposes timetable generation endpoints.
type TimetableHandler struct {
	service  timetableGenerator
	exporter timetableExporter
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc *service.TimetableService, exporter *service.ExportService) *TimetableHandler {
	return &TimetableHandler{service: svc, exporter: exporter}
}

// Generate godoc
// @Summary Generate a weekly timetable
// @Description Runs the evolutionary search synchronously. Pass async=true to queue the run and poll progress instead.
// @Tags Timetables
// @Accept json
// @Produce json
// @Param async query bool false "Queue the run instead of waiting"
// @Param payload body dto.GenerateTimetableRequest true "Generation payload"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Router /timetables/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return
	}
	async, _ := strconv.ParseBool(c.Query("async"))
	if async {
		result, err := h.service.GenerateAsync(c.Request.Context(), req)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusAccepted, result, nil)
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Progress godoc
// @Summary Poll generation progress
// @Tags Timetables
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/progress [get]
func (h *TimetableHandler) Progress(c *gin.Context) {
	result, err := h.service.GetProgress(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Detail godoc
// @Summary Get a schedule with its items
// @Tags Timetables
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id} [get]
func (h *TimetableHandler) Detail(c *gin.Context) {
	result, err := h.service.GetSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Validation godoc
// @Summary Re-validate persisted schedule items
// @Tags Timetables
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/validation [get]
func (h *TimetableHandler) Validation(c *gin.Context) {
	report, err := h.service.ValidateSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// UpdateStatus godoc
// @Summary Move a schedule through its approval lifecycle
// @Tags Timetables
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body dto.UpdateScheduleStatusRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/status [post]
func (h *TimetableHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateScheduleStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	schedule, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Export godoc
// @Summary Download a schedule as CSV or PDF
// @Tags Timetables
// @Produce octet-stream
// @Param id path string true "Schedule ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /timetables/{id}/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", string(service.ExportFormatCSV)))
	file, err := h.exporter.Export(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Payload)
}
