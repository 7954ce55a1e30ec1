package export

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// TimetableEntry is one rendered meeting in the weekly layout.
type TimetableEntry struct {
	Day        int
	StartTime  string
	EndTime    string
	Subject    string
	Instructor string
	Room       string
	Type       string
}

// TimetableDoc is the input for the weekly timetable PDF.
type TimetableDoc struct {
	Title    string
	Subtitle string
	Entries  []TimetableEntry
}

var dayNames = []string{"", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// DayLabel maps a 1-based working-day index to its weekday name.
func DayLabel(day int) string {
	if day >= 1 && day < len(dayNames) {
		return dayNames[day]
	}
	return fmt.Sprintf("Day %d", day)
}

// PDFExporter renders datasets into a basic tabular PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	pdf.SetFont("Arial", "B", 10)
	colWidth := 190.0 / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			value := row[header]
			pdf.CellFormat(colWidth, 7, value, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderTimetable creates a landscape weekly timetable grouped by day.
// Entries are sorted by day then start time before rendering.
func (e *PDFExporter) RenderTimetable(doc TimetableDoc) ([]byte, error) {
	entries := make([]TimetableEntry, len(doc.Entries))
	copy(entries, doc.Entries)
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Day != entries[j].Day {
			return entries[i].Day < entries[j].Day
		}
		return entries[i].StartTime < entries[j].StartTime
	})

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if doc.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(doc.Title), "", 1, "C", false, 0, "")
	}
	if doc.Subtitle != "" {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, doc.Subtitle, "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	widths := []float64{32, 90, 75, 50, 30}
	headers := []string{"Time", "Subject", "Instructor", "Room", "Type"}

	currentDay := -1
	for _, entry := range entries {
		if entry.Day != currentDay {
			currentDay = entry.Day
			pdf.Ln(2)
			pdf.SetFont("Arial", "B", 11)
			pdf.CellFormat(0, 8, DayLabel(currentDay), "", 1, "L", false, 0, "")
			pdf.SetFont("Arial", "B", 9)
			for i, header := range headers {
				pdf.CellFormat(widths[i], 7, header, "1", 0, "C", false, 0, "")
			}
			pdf.Ln(-1)
			pdf.SetFont("Arial", "", 9)
		}
		cells := []string{
			entry.StartTime + " - " + entry.EndTime,
			entry.Subject,
			entry.Instructor,
			entry.Room,
			entry.Type,
		}
		for i, cell := range cells {
			pdf.CellFormat(widths[i], 7, cell, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(entries) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.CellFormat(0, 8, "No scheduled meetings", "", 1, "C", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render timetable pdf: %w", err)
	}
	return buf.Bytes(), nil
}
