package testutil

import (
	"tally/models"

	"github.com/google/uuid"
)

// CreateTestRoom creates a room with a fresh creator id and default values
func CreateTestRoom(code string) *models.Room {
	return &models.Room{
		ID:           uuid.NewString(),
		Code:         code,
		CreatedBy:    uuid.NewString(),
		CurrentRound: 1,
	}
}

// CreateTestParticipant creates a participant in the given room
func CreateTestParticipant(roomID, name string) *models.Participant {
	return &models.Participant{
		ID:          uuid.NewString(),
		RoomID:      roomID,
		Name:        name,
		AvatarEmoji: "🀄",
	}
}

// CreateTestPayment creates a payment between two participants
func CreateTestPayment(roomID, fromID, toID string, amount int64) *models.Payment {
	return &models.Payment{
		ID:                uuid.NewString(),
		RoomID:            roomID,
		FromParticipantID: fromID,
		ToParticipantID:   toID,
		Amount:            amount,
		RoundNum:          1,
	}
}
