package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"tally/database"
	"tally/models"
)

// SettlementRepository implements the service SettlementRepository interface
type SettlementRepository struct {
	q queryable
}

// NewSettlementRepository creates a new settlement repository
func NewSettlementRepository(db *database.DB) *SettlementRepository {
	return &SettlementRepository{q: db.Pool}
}

// newSettlementRepositoryWithTx creates a new settlement repository with a transaction
func newSettlementRepositoryWithTx(tx queryable) *SettlementRepository {
	return &SettlementRepository{q: tx}
}

// Create writes a settlement snapshot
func (r *SettlementRepository) Create(ctx context.Context, record *models.SettlementRecord) error {
	resultsJSON, err := json.Marshal(record.PlayerResults)
	if err != nil {
		return fmt.Errorf("failed to marshal player results: %w", err)
	}

	query := `
		INSERT INTO settlements (room_id, room_code, player_results)
		VALUES ($1, $2, $3)
		RETURNING id, settled_at
	`

	err = r.q.QueryRow(ctx, query, record.RoomID, record.RoomCode, resultsJSON).Scan(
		&record.ID,
		&record.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create settlement for room %s: %w", record.RoomID, err)
	}

	return nil
}

// ListByRoom returns a room's settlement history, most recent first
func (r *SettlementRepository) ListByRoom(ctx context.Context, roomID string, limit int) ([]models.SettlementRecord, error) {
	query := `
		SELECT id, room_id, room_code, player_results, settled_at
		FROM settlements
		WHERE room_id = $1
		ORDER BY settled_at DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements for room %s: %w", roomID, err)
	}
	defer rows.Close()

	var records []models.SettlementRecord
	for rows.Next() {
		var record models.SettlementRecord
		var resultsJSON []byte
		if err := rows.Scan(&record.ID, &record.RoomID, &record.RoomCode, &resultsJSON, &record.SettledAt); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		if err := json.Unmarshal(resultsJSON, &record.PlayerResults); err != nil {
			return nil, fmt.Errorf("failed to unmarshal player results: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read settlements: %w", err)
	}

	return records, nil
}
