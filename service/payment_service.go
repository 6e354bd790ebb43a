package service

import (
	"context"
	"fmt"

	"tally/events"
	"tally/models"

	"github.com/google/uuid"
)

type paymentService struct {
	uowFactory UnitOfWorkFactory
}

// NewPaymentService creates a new payment service
func NewPaymentService(uowFactory UnitOfWorkFactory) PaymentService {
	return &paymentService{
		uowFactory: uowFactory,
	}
}

func (s *paymentService) RecordPayment(ctx context.Context, code, fromParticipantID, toParticipantID string, amount int64) (*models.Payment, error) {
	// Validate inputs
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if fromParticipantID == toParticipantID {
		return nil, ErrSelfPayment
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	room, err := uow.RoomRepository().GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}

	// Both sides must be on the room's roster before anything hits the log;
	// the balance core tolerates unknown ids but we never create them
	for _, id := range []string{fromParticipantID, toParticipantID} {
		participant, err := uow.ParticipantRepository().GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get participant %s: %w", id, err)
		}
		if participant == nil || participant.RoomID != room.ID {
			return nil, ErrParticipantNotFound
		}
	}

	payment := &models.Payment{
		ID:                uuid.NewString(),
		RoomID:            room.ID,
		FromParticipantID: fromParticipantID,
		ToParticipantID:   toParticipantID,
		Amount:            amount,
		RoundNum:          room.CurrentRound,
	}
	if err := uow.PaymentRepository().Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	if err := uow.RoomRepository().Touch(ctx, room.ID); err != nil {
		return nil, fmt.Errorf("failed to touch room: %w", err)
	}

	uow.EventBus().Publish(events.PaymentRecordedEvent{
		RoomID:    room.ID,
		PaymentID: payment.ID,
		FromID:    payment.FromParticipantID,
		ToID:      payment.ToParticipantID,
		Amount:    payment.Amount,
		RoundNum:  payment.RoundNum,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return payment, nil
}

func (s *paymentService) DeletePayment(ctx context.Context, code, paymentID string) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	room, err := uow.RoomRepository().GetByCode(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return ErrRoomNotFound
	}

	payment, err := uow.PaymentRepository().GetByID(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("failed to get payment: %w", err)
	}
	if payment == nil || payment.RoomID != room.ID {
		return ErrPaymentNotFound
	}

	if err := uow.PaymentRepository().Delete(ctx, paymentID); err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}

	if err := uow.RoomRepository().Touch(ctx, room.ID); err != nil {
		return fmt.Errorf("failed to touch room: %w", err)
	}

	uow.EventBus().Publish(events.PaymentDeletedEvent{
		RoomID:    room.ID,
		PaymentID: paymentID,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
