package service

import (
	"context"
	"fmt"
	"time"

	"tally/events"
	"tally/models"
	"tally/settle"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// maxCodeAttempts bounds the duplicate-code retry loop in CreateRoom
const maxCodeAttempts = 5

type roomService struct {
	uowFactory UnitOfWorkFactory
}

// NewRoomService creates a new room service
func NewRoomService(uowFactory UnitOfWorkFactory) RoomService {
	return &roomService{
		uowFactory: uowFactory,
	}
}

func (s *roomService) CreateRoom(ctx context.Context, creatorName, avatarEmoji string) (*models.Room, *models.Participant, error) {
	if creatorName == "" {
		creatorName = RandomNickname()
	}
	if avatarEmoji == "" {
		avatarEmoji = RandomEmoji()
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	creatorID := uuid.NewString()
	room := &models.Room{
		ID:           uuid.NewString(),
		CreatedBy:    creatorID,
		CurrentRound: 1,
	}

	// The generator does not check for duplicates; we do, with the unique
	// constraint on rooms.code as the backstop against a concurrent winner.
	var created bool
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := settle.GenerateRoomCode()
		existing, err := uow.RoomRepository().GetByCode(ctx, code)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to check room code: %w", err)
		}
		if existing != nil {
			log.WithField("code", code).Warn("Room code collision, regenerating")
			continue
		}
		room.Code = code
		if err := uow.RoomRepository().Create(ctx, room); err != nil {
			return nil, nil, fmt.Errorf("failed to create room: %w", err)
		}
		created = true
		break
	}
	if !created {
		return nil, nil, fmt.Errorf("failed to find a free room code after %d attempts", maxCodeAttempts)
	}

	participant := &models.Participant{
		ID:          creatorID,
		RoomID:      room.ID,
		Name:        creatorName,
		AvatarEmoji: avatarEmoji,
	}
	if err := uow.ParticipantRepository().Create(ctx, participant); err != nil {
		return nil, nil, fmt.Errorf("failed to add creator to room: %w", err)
	}

	uow.EventBus().Publish(events.ParticipantJoinedEvent{
		RoomID:        room.ID,
		ParticipantID: participant.ID,
		Name:          participant.Name,
	})

	if err := uow.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"room":    room.Code,
		"creator": participant.Name,
	}).Info("Room created")

	return room, participant, nil
}

func (s *roomService) JoinRoom(ctx context.Context, code, name, avatarEmoji string) (*models.Room, *models.Participant, error) {
	if name == "" {
		name = RandomNickname()
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	room, err := uow.RoomRepository().GetByCode(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return nil, nil, ErrRoomNotFound
	}

	// Re-joining under the same name resolves to the existing participant so
	// a player who dropped off keeps their payment history. An empty emoji
	// on re-join means keep whatever they had.
	participant, err := uow.ParticipantRepository().GetByRoomAndName(ctx, room.ID, name)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up participant: %w", err)
	}
	if participant != nil {
		if avatarEmoji != "" && avatarEmoji != participant.AvatarEmoji {
			if err := uow.ParticipantRepository().UpdateProfile(ctx, participant.ID, avatarEmoji); err != nil {
				return nil, nil, fmt.Errorf("failed to update participant profile: %w", err)
			}
			participant.AvatarEmoji = avatarEmoji
		}
	} else {
		if avatarEmoji == "" {
			avatarEmoji = RandomEmoji()
		}
		participant = &models.Participant{
			ID:          uuid.NewString(),
			RoomID:      room.ID,
			Name:        name,
			AvatarEmoji: avatarEmoji,
		}
		if err := uow.ParticipantRepository().Create(ctx, participant); err != nil {
			return nil, nil, fmt.Errorf("failed to add participant: %w", err)
		}
	}

	if err := uow.RoomRepository().Touch(ctx, room.ID); err != nil {
		return nil, nil, fmt.Errorf("failed to touch room: %w", err)
	}

	uow.EventBus().Publish(events.ParticipantJoinedEvent{
		RoomID:        room.ID,
		ParticipantID: participant.ID,
		Name:          participant.Name,
	})

	if err := uow.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return room, participant, nil
}

func (s *roomService) LeaveRoom(ctx context.Context, code, participantID string) error {
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

	participant, err := uow.ParticipantRepository().GetByID(ctx, participantID)
	if err != nil {
		return fmt.Errorf("failed to get participant: %w", err)
	}
	if participant == nil || participant.RoomID != room.ID {
		return ErrParticipantNotFound
	}

	if err := uow.ParticipantRepository().Delete(ctx, participantID); err != nil {
		return fmt.Errorf("failed to remove participant: %w", err)
	}

	uow.EventBus().Publish(events.ParticipantLeftEvent{
		RoomID:        room.ID,
		ParticipantID: participantID,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (s *roomService) GetRoomState(ctx context.Context, code string) (*RoomState, error) {
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

	participants, err := uow.ParticipantRepository().ListByRoom(ctx, room.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}

	payments, err := uow.PaymentRepository().ListByRoom(ctx, room.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &RoomState{
		Room:         room,
		Participants: participants,
		Payments:     payments,
	}, nil
}

func (s *roomService) StartNewRound(ctx context.Context, code string) (int, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	room, err := uow.RoomRepository().GetByCode(ctx, code)
	if err != nil {
		return 0, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return 0, ErrRoomNotFound
	}

	newRound := room.CurrentRound + 1
	if err := uow.RoomRepository().SetCurrentRound(ctx, room.ID, newRound); err != nil {
		return 0, fmt.Errorf("failed to advance round: %w", err)
	}

	uow.EventBus().Publish(events.RoundAdvancedEvent{
		RoomID:   room.ID,
		NewRound: newRound,
	})

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return newRound, nil
}

func (s *roomService) CleanupStaleRooms(ctx context.Context, ttl time.Duration) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	deleted, err := uow.RoomRepository().DeleteStale(ctx, time.Now().Add(-ttl))
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale rooms: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if deleted > 0 {
		log.WithField("count", deleted).Info("Cleaned up stale rooms")
	}

	return deleted, nil
}
