package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/LiezGoo/scheduling-system-sub000/internal/models"
)

// RoomRepository reads schedulable rooms.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository creates a new repository instance.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// ListActive returns every active room.
func (r *RoomRepository) ListActive(ctx context.Context) ([]models.Room, error) {
	const query = `SELECT id, code, name, type, capacity, active, created_at, updated_at
FROM rooms WHERE active = TRUE ORDER BY code ASC`
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("list active rooms: %w", err)
	}
	return rooms, nil
}

// FindByID returns a single room regardless of active state.
func (r *RoomRepository) FindByID(ctx context.Context, id string) (*models.Room, error) {
	const query = `SELECT id, code, name, type, capacity, active, created_at, updated_at
FROM rooms WHERE id = $1`
	var room models.Room
	if err := r.db.GetContext(ctx, &room, query, id); err != nil {
		return nil, err
	}
	return &room, nil
}
