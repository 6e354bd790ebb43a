package service

import (
	"context"
	"time"

	"tally/events"
	"tally/models"
)

// RoomRepository defines the interface for room data access
type RoomRepository interface {
	// Create inserts a new room; fails on a duplicate code
	Create(ctx context.Context, room *models.Room) error

	// GetByCode retrieves a room by its join code, nil if absent
	GetByCode(ctx context.Context, code string) (*models.Room, error)

	// GetByID retrieves a room by id, nil if absent
	GetByID(ctx context.Context, id string) (*models.Room, error)

	// SetCurrentRound updates a room's round counter
	SetCurrentRound(ctx context.Context, id string, round int) error

	// Touch bumps a room's updated_at
	Touch(ctx context.Context, id string) error

	// DeleteStale removes rooms idle since before the cutoff
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// ParticipantRepository defines the interface for roster data access
type ParticipantRepository interface {
	// Create adds a participant to a room
	Create(ctx context.Context, participant *models.Participant) error

	// GetByID retrieves a participant by id, nil if absent
	GetByID(ctx context.Context, id string) (*models.Participant, error)

	// GetByRoomAndName finds a participant by name within a room, nil if absent
	GetByRoomAndName(ctx context.Context, roomID, name string) (*models.Participant, error)

	// ListByRoom returns a room's roster in join order
	ListByRoom(ctx context.Context, roomID string) ([]models.Participant, error)

	// UpdateProfile updates a participant's avatar emoji
	UpdateProfile(ctx context.Context, id, avatarEmoji string) error

	// Delete removes a participant
	Delete(ctx context.Context, id string) error
}

// PaymentRepository defines the interface for payment log access
type PaymentRepository interface {
	// Create appends a payment to the log
	Create(ctx context.Context, payment *models.Payment) error

	// GetByID retrieves a payment by id, nil if absent
	GetByID(ctx context.Context, id string) (*models.Payment, error)

	// ListByRoom returns a room's payment log in insertion order
	ListByRoom(ctx context.Context, roomID string) ([]models.Payment, error)

	// ListByRoomAndRound returns one round's payments in insertion order
	ListByRoomAndRound(ctx context.Context, roomID string, round int) ([]models.Payment, error)

	// Delete removes a payment from the log
	Delete(ctx context.Context, id string) error

	// DeleteByRoom clears a room's payment log
	DeleteByRoom(ctx context.Context, roomID string) (int64, error)
}

// SettlementRepository defines the interface for settlement snapshots
type SettlementRepository interface {
	// Create writes a settlement snapshot
	Create(ctx context.Context, record *models.SettlementRecord) error

	// ListByRoom returns a room's settlement history, most recent first
	ListByRoom(ctx context.Context, roomID string, limit int) ([]models.SettlementRecord, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// RoomState is a full snapshot of a room as the surfaces render it
type RoomState struct {
	Room         *models.Room
	Participants []models.Participant
	Payments     []models.Payment
}

// RoomService defines the interface for room lifecycle operations
type RoomService interface {
	// CreateRoom creates a room with a fresh code and its first participant
	CreateRoom(ctx context.Context, creatorName, avatarEmoji string) (*models.Room, *models.Participant, error)

	// JoinRoom adds a participant to a room by code; joining again under the
	// same name resolves to the existing participant
	JoinRoom(ctx context.Context, code, name, avatarEmoji string) (*models.Room, *models.Participant, error)

	// LeaveRoom removes a participant from a room
	LeaveRoom(ctx context.Context, code, participantID string) error

	// GetRoomState returns the room, roster and payment log for a code
	GetRoomState(ctx context.Context, code string) (*RoomState, error)

	// StartNewRound increments the room's round counter
	StartNewRound(ctx context.Context, code string) (int, error)

	// CleanupStaleRooms deletes rooms idle longer than the given TTL
	CleanupStaleRooms(ctx context.Context, ttl time.Duration) (int64, error)
}

// PaymentService defines the interface for recording payments
type PaymentService interface {
	// RecordPayment appends a payment between two roster members in the
	// room's current round
	RecordPayment(ctx context.Context, code, fromParticipantID, toParticipantID string, amount int64) (*models.Payment, error)

	// DeletePayment removes a payment from a room's log
	DeletePayment(ctx context.Context, code, paymentID string) error
}

// SettlementSummary pairs computed balances with the planned transfers
type SettlementSummary struct {
	Balances  []models.Balance
	Transfers []models.Transfer
}

// SettlementService defines the interface for balance and settle-up operations
type SettlementService interface {
	// GetSummary computes balances and the settlement plan for a room
	GetSummary(ctx context.Context, code string) (*SettlementSummary, error)

	// SettleUp snapshots the current balances, clears the payment log and
	// resets the round counter
	SettleUp(ctx context.Context, code string) (*models.SettlementRecord, error)

	// History returns a room's past settlement snapshots, most recent first
	History(ctx context.Context, code string, limit int) ([]models.SettlementRecord, error)
}

// UnitOfWork defines a transactional scope over the repositories
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	RoomRepository() RoomRepository
	ParticipantRepository() ParticipantRepository
	PaymentRepository() PaymentRepository
	SettlementRepository() SettlementRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
