package models

import (
	"time"
)

// Room represents one game sitting: a set of participants and their payments,
// scoped by a short join code
type Room struct {
	ID           string    `db:"id"`
	Code         string    `db:"code"`
	CreatedBy    string    `db:"created_by"`
	CurrentRound int       `db:"current_round"` // starts at 1
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Participant is a player who joined a room
type Participant struct {
	ID          string    `db:"id"`
	RoomID      string    `db:"room_id"`
	Name        string    `db:"name"`
	AvatarEmoji string    `db:"avatar_emoji"`
	JoinedAt    time.Time `db:"joined_at"`
}
