package repository

import (
	"context"
	"fmt"
	"time"

	"tally/database"
	"tally/models"

	"github.com/jackc/pgx/v5"
)

// RoomRepository implements the service RoomRepository interface
type RoomRepository struct {
	q queryable
}

// NewRoomRepository creates a new room repository
func NewRoomRepository(db *database.DB) *RoomRepository {
	return &RoomRepository{q: db.Pool}
}

// newRoomRepositoryWithTx creates a new room repository with a transaction
func newRoomRepositoryWithTx(tx queryable) *RoomRepository {
	return &RoomRepository{q: tx}
}

// Create inserts a new room. The code column carries a unique constraint, so
// a concurrent creation with the same code fails here and the caller retries
// with a fresh one.
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	query := `
		INSERT INTO rooms (id, code, created_by, current_round)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query, room.ID, room.Code, room.CreatedBy, room.CurrentRound).Scan(
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create room %s: %w", room.Code, err)
	}

	return nil
}

// GetByCode retrieves a room by its join code, nil if no such room exists
func (r *RoomRepository) GetByCode(ctx context.Context, code string) (*models.Room, error) {
	query := `
		SELECT id, code, created_by, current_round, created_at, updated_at
		FROM rooms
		WHERE code = $1
	`

	var room models.Room
	err := r.q.QueryRow(ctx, query, code).Scan(
		&room.ID,
		&room.Code,
		&room.CreatedBy,
		&room.CurrentRound,
		&room.CreatedAt,
		&room.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room by code %s: %w", code, err)
	}

	return &room, nil
}

// GetByID retrieves a room by id, nil if no such room exists
func (r *RoomRepository) GetByID(ctx context.Context, id string) (*models.Room, error) {
	query := `
		SELECT id, code, created_by, current_round, created_at, updated_at
		FROM rooms
		WHERE id = $1
	`

	var room models.Room
	err := r.q.QueryRow(ctx, query, id).Scan(
		&room.ID,
		&room.Code,
		&room.CreatedBy,
		&room.CurrentRound,
		&room.CreatedAt,
		&room.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room %s: %w", id, err)
	}

	return &room, nil
}

// SetCurrentRound updates a room's round counter and bumps updated_at
func (r *RoomRepository) SetCurrentRound(ctx context.Context, id string, round int) error {
	query := `
		UPDATE rooms
		SET current_round = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, round, id)
	if err != nil {
		return fmt.Errorf("failed to set round for room %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("room %s not found", id)
	}

	return nil
}

// Touch bumps a room's updated_at so activity keeps it out of cleanup
func (r *RoomRepository) Touch(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `UPDATE rooms SET updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to touch room %s: %w", id, err)
	}
	return nil
}

// DeleteStale removes rooms that have seen no activity since the cutoff.
// Participants and payments go with them via ON DELETE CASCADE; settlement
// snapshots are deliberately kept.
func (r *RoomRepository) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.q.Exec(ctx, `DELETE FROM rooms WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale rooms: %w", err)
	}
	return result.RowsAffected(), nil
}
