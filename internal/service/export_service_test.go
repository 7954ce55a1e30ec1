package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LiezGoo/scheduling-system-sub000/internal/models"
	appErrors "github.com/LiezGoo/scheduling-system-sub000/pkg/errors"
)

type subjectCatalogStub struct {
	subjectListerStub
	byID map[string]models.Subject
}

func (s subjectCatalogStub) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if subject, ok := s.byID[id]; ok {
		return &subject, nil
	}
	return nil, sql.ErrNoRows
}

type instructorCatalogStub struct {
	instructorListerStub
	byID map[string]models.Instructor
}

func (s instructorCatalogStub) FindByID(ctx context.Context, id string) (*models.Instructor, error) {
	if instructor, ok := s.byID[id]; ok {
		return &instructor, nil
	}
	return nil, sql.ErrNoRows
}

type roomCatalogStub struct {
	roomListerStub
	byID map[string]models.Room
}

func (s roomCatalogStub) FindByID(ctx context.Context, id string) (*models.Room, error) {
	if room, ok := s.byID[id]; ok {
		return &room, nil
	}
	return nil, sql.ErrNoRows
}

func newExportFixture(t *testing.T) (*ExportService, string) {
	t.Helper()
	schedules := &scheduleStoreStub{
		created:  map[string]*models.Schedule{},
		fitness:  map[string]int{},
		failures: map[string]string{},
	}
	schedule := &models.Schedule{
		ProgramID:      "prog-1",
		AcademicYearID: "ay-2026",
		Semester:       "1st",
		YearLevel:      2,
		BlockSection:   "Block 1",
		Status:         models.ScheduleStatusDraft,
		CreatedBy:      "registrar-1",
	}
	require.NoError(t, schedules.Create(context.Background(), nil, schedule))

	items := &itemStoreStub{items: map[string][]models.ScheduleItem{
		schedule.ID: {
			{
				ScheduleID:   schedule.ID,
				SubjectID:    "s1",
				InstructorID: "i-archived",
				RoomID:       "r1",
				Day:          1,
				StartTime:    "08:00",
				EndTime:      "10:00",
				BlockSection: "Block 1",
				MeetingType:  "lecture",
				Hours:        2,
			},
		},
	}}

	archived := fixtureInstructor("i-archived")
	archived.FullName = "Archived Instructor"
	svc := NewExportService(
		schedules,
		items,
		subjectCatalogStub{
			subjectListerStub: subjectListerStub{subjects: []models.Subject{
				{ID: "s1", Code: "CS201", Name: "Data Structures"},
			}},
		},
		instructorCatalogStub{byID: map[string]models.Instructor{"i-archived": archived}},
		roomCatalogStub{
			roomListerStub: roomListerStub{rooms: []models.Room{{ID: "r1", Code: "LEC-1"}}},
		},
		programReaderStub{},
		nil,
		nil,
		nil,
	)
	return svc, schedule.ID
}

func TestExportCSVResolvesNames(t *testing.T) {
	svc, scheduleID := newExportFixture(t)

	file, err := svc.Export(context.Background(), scheduleID, ExportFormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "text/csv", file.ContentType)
	assert.True(t, strings.HasPrefix(file.Filename, "timetable_block_1_"))
	assert.True(t, strings.HasSuffix(file.Filename, ".csv"))

	body := string(file.Payload)
	assert.Contains(t, body, "Day,Start,End,Subject,Instructor,Room,Type,Hours,Section")
	assert.Contains(t, body, "CS201 Data Structures")
	assert.Contains(t, body, "LEC-1")
	// The instructor is absent from the schedulable list and must be
	// resolved through the direct lookup instead of the raw id.
	assert.Contains(t, body, "Archived Instructor")
	assert.NotContains(t, body, "i-archived")
}

func TestExportPDF(t *testing.T) {
	svc, scheduleID := newExportFixture(t)

	file, err := svc.Export(context.Background(), scheduleID, ExportFormatPDF)
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasSuffix(file.Filename, ".pdf"))
	require.NotEmpty(t, file.Payload)
	assert.Equal(t, "%PDF", string(file.Payload[:4]))
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	svc, scheduleID := newExportFixture(t)

	_, err := svc.Export(context.Background(), scheduleID, ExportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportUnknownSchedule(t *testing.T) {
	svc, _ := newExportFixture(t)

	_, err := svc.Export(context.Background(), "missing", ExportFormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
