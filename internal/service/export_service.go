package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/LiezGoo/scheduling-system-sub000/internal/models"
	appErrors "github.com/LiezGoo/scheduling-system-sub000/pkg/errors"
	"github.com/LiezGoo/scheduling-system-sub000/pkg/export"
)

// ExportFormat identifies a supported download format.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportFile is a rendered download ready to stream to the client.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

type subjectCatalog interface {
	subjectLister
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type instructorCatalog interface {
	instructorLister
	FindByID(ctx context.Context, id string) (*models.Instructor, error)
}

type roomCatalog interface {
	roomLister
	FindByID(ctx context.Context, id string) (*models.Room, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type timetableRenderer interface {
	RenderTimetable(doc export.TimetableDoc) ([]byte, error)
}

// ExportService renders persisted timetables as CSV or PDF.
type ExportService struct {
	schedules   scheduleStore
	items       scheduleItemStore
	subjects    subjectCatalog
	instructors instructorCatalog
	rooms       roomCatalog
	programs    programReader
	csv         csvRenderer
	pdf         timetableRenderer
	logger      *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(
	schedules scheduleStore,
	items scheduleItemStore,
	subjects subjectCatalog,
	instructors instructorCatalog,
	rooms roomCatalog,
	programs programReader,
	csv csvRenderer,
	pdf timetableRenderer,
	logger *zap.Logger,
) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		schedules:   schedules,
		items:       items,
		subjects:    subjects,
		instructors: instructors,
		rooms:       rooms,
		programs:    programs,
		csv:         csv,
		pdf:         pdf,
		logger:      logger,
	}
}

// Export renders the schedule's persisted items in the requested format.
// Entities that can no longer be resolved fall back to their raw IDs so
// old exports keep working after reference data changes.
func (s *ExportService) Export(ctx context.Context, scheduleID string, format ExportFormat) (*ExportFile, error) {
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
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

	names := s.resolveNames(ctx, schedule, items)

	var payload []byte
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(buildDataset(items, names))
	case ExportFormatPDF:
		payload, err = s.pdf.RenderTimetable(buildTimetableDoc(schedule, items, names))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	contentType := "text/csv"
	if format == ExportFormatPDF {
		contentType = "application/pdf"
	}
	return &ExportFile{
		Filename:    buildExportFilename(schedule, format),
		ContentType: contentType,
		Payload:     payload,
	}, nil
}

type nameLookup struct {
	subjects    map[string]string
	instructors map[string]string
	rooms       map[string]string
	programCode string
}

func (n nameLookup) subject(id string) string {
	if name, ok := n.subjects[id]; ok {
		return name
	}
	return id
}

func (n nameLookup) instructor(id string) string {
	if name, ok := n.instructors[id]; ok {
		return name
	}
	return id
}

func (n nameLookup) room(id string) string {
	if name, ok := n.rooms[id]; ok {
		return name
	}
	return id
}

func (s *ExportService) resolveNames(ctx context.Context, schedule *models.Schedule, items []models.ScheduleItem) nameLookup {
	names := nameLookup{
		subjects:    map[string]string{},
		instructors: map[string]string{},
		rooms:       map[string]string{},
	}
	if subjects, err := s.subjects.ListForGeneration(ctx, schedule.ProgramID, schedule.YearLevel, schedule.Semester); err == nil {
		for _, subject := range subjects {
			names.subjects[subject.ID] = fmt.Sprintf("%s %s", subject.Code, subject.Name)
		}
	}
	if program, err := s.programs.FindByID(ctx, schedule.ProgramID); err == nil {
		names.programCode = program.Code
		if instructors, err := s.instructors.ListSchedulable(ctx, program.DepartmentID); err == nil {
			for _, instructor := range instructors {
				names.instructors[instructor.ID] = instructor.FullName
			}
		}
	}
	if rooms, err := s.rooms.ListActive(ctx); err == nil {
		for _, room := range rooms {
			names.rooms[room.ID] = room.Code
		}
	}

	// Items can reference entities that have since been archived and no
	// longer show up in the list queries. Fetch those directly.
	for _, item := range items {
		if _, ok := names.subjects[item.SubjectID]; !ok {
			if subject, err := s.subjects.FindByID(ctx, item.SubjectID); err == nil {
				names.subjects[item.SubjectID] = fmt.Sprintf("%s %s", subject.Code, subject.Name)
			}
		}
		if _, ok := names.instructors[item.InstructorID]; !ok {
			if instructor, err := s.instructors.FindByID(ctx, item.InstructorID); err == nil {
				names.instructors[item.InstructorID] = instructor.FullName
			}
		}
		if _, ok := names.rooms[item.RoomID]; !ok {
			if room, err := s.rooms.FindByID(ctx, item.RoomID); err == nil {
				names.rooms[item.RoomID] = room.Code
			}
		}
	}
	return names
}

func buildDataset(items []models.ScheduleItem, names nameLookup) export.Dataset {
	headers := []string{"Day", "Start", "End", "Subject", "Instructor", "Room", "Type", "Hours", "Section"}
	rows := make([]map[string]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, map[string]string{
			"Day":        export.DayLabel(item.Day),
			"Start":      item.StartTime,
			"End":        item.EndTime,
			"Subject":    names.subject(item.SubjectID),
			"Instructor": names.instructor(item.InstructorID),
			"Room":       names.room(item.RoomID),
			"Type":       item.MeetingType,
			"Hours":      fmt.Sprintf("%g", item.Hours),
			"Section":    item.BlockSection,
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func buildTimetableDoc(schedule *models.Schedule, items []models.ScheduleItem, names nameLookup) export.TimetableDoc {
	program := names.programCode
	if program == "" {
		program = schedule.ProgramID
	}
	entries := make([]export.TimetableEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, export.TimetableEntry{
			Day:        item.Day,
			StartTime:  item.StartTime,
			EndTime:    item.EndTime,
			Subject:    names.subject(item.SubjectID),
			Instructor: names.instructor(item.InstructorID),
			Room:       names.room(item.RoomID),
			Type:       item.MeetingType,
		})
	}
	return export.TimetableDoc{
		Title:    fmt.Sprintf("%s Year %d Timetable", program, schedule.YearLevel),
		Subtitle: fmt.Sprintf("%s semester, %s", schedule.Semester, schedule.BlockSection),
		Entries:  entries,
	}
}

func buildExportFilename(schedule *models.Schedule, format ExportFormat) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	section := sanitizeFilename(schedule.BlockSection)
	return fmt.Sprintf("timetable_%s_%s.%s", section, timestamp, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := strings.ToLower(replacer.Replace(raw))
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
