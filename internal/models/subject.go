package models

import "time"

// Subject represents a curriculum subject with weekly hour requirements.
// Lecture and laboratory hours are scheduled as independent requirements.
type Subject struct {
	ID           string    `db:"id" json:"id"`
	Code         string    `db:"code" json:"code"`
	Name         string    `db:"name" json:"name"`
	ProgramID    string    `db:"program_id" json:"program_id"`
	YearLevel    int       `db:"year_level" json:"year_level"`
	Semester     string    `db:"semester" json:"semester"`
	LectureHours float64   `db:"lecture_hours" json:"lecture_hours"`
	LabHours     float64   `db:"lab_hours" json:"lab_hours"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
