package models

import (
	"time"
)

// Payment represents a committed peer-to-peer payment within one round of play.
// Amounts are always positive integer cents; direction is payer -> payee.
// Payments are immutable once recorded, but may be deleted.
type Payment struct {
	ID                string    `db:"id"`
	RoomID            string    `db:"room_id"`
	FromParticipantID string    `db:"from_participant_id"`
	ToParticipantID   string    `db:"to_participant_id"`
	Amount            int64     `db:"amount"` // cents
	RoundNum          int       `db:"round_num"`
	CreatedAt         time.Time `db:"created_at"`
}
