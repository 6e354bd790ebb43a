package service

import (
	"errors"
)

// Sentinel errors the surfaces map to user-facing responses
var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrParticipantNotFound = errors.New("participant not found in room")
	ErrPaymentNotFound     = errors.New("payment not found in room")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrSelfPayment         = errors.New("cannot record a payment to yourself")
)
