package models

import "time"

// RoomType distinguishes lecture halls from laboratories. Lab meetings may
// only be placed in laboratory rooms.
type RoomType string

const (
	RoomTypeLecture    RoomType = "lecture"
	RoomTypeLaboratory RoomType = "laboratory"
)

// Room represents a schedulable room.
type Room struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	Type      RoomType  `db:"type" json:"type"`
	Capacity  int       `db:"capacity" json:"capacity"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
