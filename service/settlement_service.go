package service

import (
	"context"
	"fmt"

	"tally/events"
	"tally/models"
	"tally/settle"

	log "github.com/sirupsen/logrus"
)

type settlementService struct {
	uowFactory UnitOfWorkFactory
}

// NewSettlementService creates a new settlement service
func NewSettlementService(uowFactory UnitOfWorkFactory) SettlementService {
	return &settlementService{
		uowFactory: uowFactory,
	}
}

func (s *settlementService) GetSummary(ctx context.Context, code string) (*SettlementSummary, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	_, participants, payments, err := loadRoomLedger(ctx, uow, code)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	balances := settle.CalculateBalances(participants, payments)
	return &SettlementSummary{
		Balances:  balances,
		Transfers: settle.CalculateSettlement(balances),
	}, nil
}

// SettleUp snapshots the current balances into the settlement history, then
// wipes the payment log and resets the round counter so the table can start
// a fresh sitting.
func (s *settlementService) SettleUp(ctx context.Context, code string) (*models.SettlementRecord, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	room, participants, payments, err := loadRoomLedger(ctx, uow, code)
	if err != nil {
		return nil, err
	}

	balances := settle.CalculateBalances(participants, payments)

	results := make([]models.PlayerResult, len(participants))
	for i, p := range participants {
		results[i] = models.PlayerResult{
			ParticipantID: p.ID,
			Name:          p.Name,
			Emoji:         p.AvatarEmoji,
			Balance:       balances[i].Amount,
		}
	}

	record := &models.SettlementRecord{
		RoomID:        room.ID,
		RoomCode:      room.Code,
		PlayerResults: results,
	}
	if err := uow.SettlementRepository().Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to write settlement snapshot: %w", err)
	}

	if _, err := uow.PaymentRepository().DeleteByRoom(ctx, room.ID); err != nil {
		return nil, fmt.Errorf("failed to clear payment log: %w", err)
	}
	if err := uow.RoomRepository().SetCurrentRound(ctx, room.ID, 1); err != nil {
		return nil, fmt.Errorf("failed to reset round counter: %w", err)
	}

	uow.EventBus().Publish(events.RoomSettledEvent{
		RoomID:       room.ID,
		RoomCode:     room.Code,
		SettlementID: record.ID,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"room":    room.Code,
		"players": len(results),
	}).Info("Room settled up")

	return record, nil
}

func (s *settlementService) History(ctx context.Context, code string, limit int) ([]models.SettlementRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	room, err := uow.RoomRepository().GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}

	records, err := uow.SettlementRepository().ListByRoom(ctx, room.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return records, nil
}

// loadRoomLedger fetches a room with its roster and payment log inside the
// caller's unit of work
func loadRoomLedger(ctx context.Context, uow UnitOfWork, code string) (*models.Room, []models.Participant, []models.Payment, error) {
	room, err := uow.RoomRepository().GetByCode(ctx, code)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return nil, nil, nil, ErrRoomNotFound
	}

	participants, err := uow.ParticipantRepository().ListByRoom(ctx, room.ID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list participants: %w", err)
	}

	payments, err := uow.PaymentRepository().ListByRoom(ctx, room.ID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list payments: %w", err)
	}

	return room, participants, payments, nil
}
