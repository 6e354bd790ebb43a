package models

import (
	"time"
)

// Balance is a participant's net position, derived from the payment log.
// Positive means others owe them, negative means they owe others.
// Balances are recomputed from scratch on every calculation and never stored,
// except as part of a settlement snapshot.
type Balance struct {
	ParticipantID string
	Name          string
	Amount        int64 // cents
}

// Transfer is a recommended settling payment: From pays To the given amount
type Transfer struct {
	FromID   string
	FromName string
	ToID     string
	ToName   string
	Amount   int64 // cents, always positive
}

// PlayerResult is one participant's final position captured at settle-up time
type PlayerResult struct {
	ParticipantID string `json:"participant_id"`
	Name          string `json:"name"`
	Emoji         string `json:"emoji"`
	Balance       int64  `json:"balance"`
}

// SettlementRecord is a snapshot written when a room settles up
type SettlementRecord struct {
	ID            int64          `db:"id"`
	RoomID        string         `db:"room_id"`
	RoomCode      string         `db:"room_code"`
	PlayerResults []PlayerResult `db:"player_results"`
	SettledAt     time.Time      `db:"settled_at"`
}
