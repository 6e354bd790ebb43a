package repository

import (
	"context"
	"fmt"

	"tally/database"
	"tally/models"

	"github.com/jackc/pgx/v5"
)

// ParticipantRepository implements the service ParticipantRepository interface
type ParticipantRepository struct {
	q queryable
}

// NewParticipantRepository creates a new participant repository
func NewParticipantRepository(db *database.DB) *ParticipantRepository {
	return &ParticipantRepository{q: db.Pool}
}

// newParticipantRepositoryWithTx creates a new participant repository with a transaction
func newParticipantRepositoryWithTx(tx queryable) *ParticipantRepository {
	return &ParticipantRepository{q: tx}
}

// Create adds a participant to a room
func (r *ParticipantRepository) Create(ctx context.Context, participant *models.Participant) error {
	query := `
		INSERT INTO participants (id, room_id, name, avatar_emoji)
		VALUES ($1, $2, $3, $4)
		RETURNING joined_at
	`

	err := r.q.QueryRow(ctx, query,
		participant.ID,
		participant.RoomID,
		participant.Name,
		participant.AvatarEmoji,
	).Scan(&participant.JoinedAt)
	if err != nil {
		return fmt.Errorf("failed to create participant %s in room %s: %w", participant.Name, participant.RoomID, err)
	}

	return nil
}

// GetByID retrieves a participant by id, nil if no such participant exists
func (r *ParticipantRepository) GetByID(ctx context.Context, id string) (*models.Participant, error) {
	query := `
		SELECT id, room_id, name, avatar_emoji, joined_at
		FROM participants
		WHERE id = $1
	`

	var participant models.Participant
	err := r.q.QueryRow(ctx, query, id).Scan(
		&participant.ID,
		&participant.RoomID,
		&participant.Name,
		&participant.AvatarEmoji,
		&participant.JoinedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant %s: %w", id, err)
	}

	return &participant, nil
}

// GetByRoomAndName finds a participant by display name within a room, nil if
// absent. Names are unique per room, so a re-join resolves to the same row.
func (r *ParticipantRepository) GetByRoomAndName(ctx context.Context, roomID, name string) (*models.Participant, error) {
	query := `
		SELECT id, room_id, name, avatar_emoji, joined_at
		FROM participants
		WHERE room_id = $1 AND name = $2
	`

	var participant models.Participant
	err := r.q.QueryRow(ctx, query, roomID, name).Scan(
		&participant.ID,
		&participant.RoomID,
		&participant.Name,
		&participant.AvatarEmoji,
		&participant.JoinedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant %s in room %s: %w", name, roomID, err)
	}

	return &participant, nil
}

// ListByRoom returns a room's roster in join order
func (r *ParticipantRepository) ListByRoom(ctx context.Context, roomID string) ([]models.Participant, error) {
	query := `
		SELECT id, room_id, name, avatar_emoji, joined_at
		FROM participants
		WHERE room_id = $1
		ORDER BY joined_at, id
	`

	rows, err := r.q.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants for room %s: %w", roomID, err)
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.RoomID, &p.Name, &p.AvatarEmoji, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read participants: %w", err)
	}

	return participants, nil
}

// UpdateProfile updates a participant's avatar emoji
func (r *ParticipantRepository) UpdateProfile(ctx context.Context, id, avatarEmoji string) error {
	result, err := r.q.Exec(ctx, `UPDATE participants SET avatar_emoji = $1 WHERE id = $2`, avatarEmoji, id)
	if err != nil {
		return fmt.Errorf("failed to update participant %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("participant %s not found", id)
	}
	return nil
}

// Delete removes a participant from a room
func (r *ParticipantRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.Exec(ctx, `DELETE FROM participants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete participant %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("participant %s not found", id)
	}
	return nil
}
