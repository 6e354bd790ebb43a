package repository

import (
	"context"
	"fmt"

	"tally/database"
	"tally/models"

	"github.com/jackc/pgx/v5"
)

// PaymentRepository implements the service PaymentRepository interface
type PaymentRepository struct {
	q queryable
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *database.DB) *PaymentRepository {
	return &PaymentRepository{q: db.Pool}
}

// newPaymentRepositoryWithTx creates a new payment repository with a transaction
func newPaymentRepositoryWithTx(tx queryable) *PaymentRepository {
	return &PaymentRepository{q: tx}
}

// Create appends a payment to the room's log
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (id, room_id, from_participant_id, to_participant_id, amount, round_num)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		payment.ID,
		payment.RoomID,
		payment.FromParticipantID,
		payment.ToParticipantID,
		payment.Amount,
		payment.RoundNum,
	).Scan(&payment.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment in room %s: %w", payment.RoomID, err)
	}

	return nil
}

// GetByID retrieves a payment by id, nil if no such payment exists
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	query := `
		SELECT id, room_id, from_participant_id, to_participant_id, amount, round_num, created_at
		FROM payments
		WHERE id = $1
	`

	var payment models.Payment
	err := r.q.QueryRow(ctx, query, id).Scan(
		&payment.ID,
		&payment.RoomID,
		&payment.FromParticipantID,
		&payment.ToParticipantID,
		&payment.Amount,
		&payment.RoundNum,
		&payment.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment %s: %w", id, err)
	}

	return &payment, nil
}

// ListByRoom returns a room's full payment log in insertion order
func (r *PaymentRepository) ListByRoom(ctx context.Context, roomID string) ([]models.Payment, error) {
	query := `
		SELECT id, room_id, from_participant_id, to_participant_id, amount, round_num, created_at
		FROM payments
		WHERE room_id = $1
		ORDER BY created_at, id
	`
	return r.list(ctx, query, roomID)
}

// ListByRoomAndRound returns one round's payments in insertion order
func (r *PaymentRepository) ListByRoomAndRound(ctx context.Context, roomID string, round int) ([]models.Payment, error) {
	query := `
		SELECT id, room_id, from_participant_id, to_participant_id, amount, round_num, created_at
		FROM payments
		WHERE room_id = $1 AND round_num = $2
		ORDER BY created_at, id
	`
	return r.list(ctx, query, roomID, round)
}

func (r *PaymentRepository) list(ctx context.Context, query string, args ...any) ([]models.Payment, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		var p models.Payment
		err := rows.Scan(&p.ID, &p.RoomID, &p.FromParticipantID, &p.ToParticipantID, &p.Amount, &p.RoundNum, &p.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read payments: %w", err)
	}

	return payments, nil
}

// Delete removes a payment from the log
func (r *PaymentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete payment %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("payment %s not found", id)
	}
	return nil
}

// DeleteByRoom clears a room's payment log, returning the number of rows
// removed. Used by settle-up after the snapshot is written.
func (r *PaymentRepository) DeleteByRoom(ctx context.Context, roomID string) (int64, error) {
	result, err := r.q.Exec(ctx, `DELETE FROM payments WHERE room_id = $1`, roomID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete payments for room %s: %w", roomID, err)
	}
	return result.RowsAffected(), nil
}
