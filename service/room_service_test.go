package service

import (
	"context"
	"testing"

	"tally/events"
	"tally/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newMockedUnitOfWork() (*MockUnitOfWorkFactory, *MockUnitOfWork, *MockRoomRepository, *MockParticipantRepository, *MockPaymentRepository, *MockSettlementRepository) {
	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockRoomRepo := new(MockRoomRepository)
	mockParticipantRepo := new(MockParticipantRepository)
	mockPaymentRepo := new(MockPaymentRepository)
	mockSettlementRepo := new(MockSettlementRepository)

	mockUoW.SetRepositories(mockRoomRepo, mockParticipantRepo, mockPaymentRepo, mockSettlementRepo)
	mockFactory.On("Create").Return(mockUoW)

	return mockFactory, mockUoW, mockRoomRepo, mockParticipantRepo, mockPaymentRepo, mockSettlementRepo
}

func TestRoomService_CreateRoom(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockRoomRepo, mockParticipantRepo, _, _ := newMockedUnitOfWork()
	service := NewRoomService(mockFactory)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockRoomRepo.On("GetByCode", ctx, mock.AnythingOfType("string")).Return(nil, nil)
	mockRoomRepo.On("Create", ctx, mock.AnythingOfType("*models.Room")).Return(nil)
	mockParticipantRepo.On("Create", ctx, mock.AnythingOfType("*models.Participant")).Return(nil)

	room, participant, err := service.CreateRoom(ctx, "Alice", "😀")

	require.NoError(t, err)
	require.NotNil(t, room)
	require.NotNil(t, participant)
	assert.Len(t, room.Code, 6)
	assert.Equal(t, 1, room.CurrentRound)
	assert.Equal(t, participant.ID, room.CreatedBy)
	assert.Equal(t, room.ID, participant.RoomID)
	assert.Equal(t, "Alice", participant.Name)

	published := mockUoW.PublishedEvents()
	require.Len(t, published, 1)
	joined, ok := published[0].(events.ParticipantJoinedEvent)
	require.True(t, ok)
	assert.Equal(t, participant.ID, joined.ParticipantID)

	mockRoomRepo.AssertExpectations(t)
	mockParticipantRepo.AssertExpectations(t)
}

func TestRoomService_CreateRoom_DefaultsAnonymousProfile(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockRoomRepo, mockParticipantRepo, _, _ := newMockedUnitOfWork()
	service := NewRoomService(mockFactory)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockRoomRepo.On("GetByCode", ctx, mock.AnythingOfType("string")).Return(nil, nil)
	mockRoomRepo.On("Create", ctx, mock.AnythingOfType("*models.Room")).Return(nil)
	mockParticipantRepo.On("Create", ctx, mock.AnythingOfType("*models.Participant")).Return(nil)

	_, participant, err := service.CreateRoom(ctx, "", "")

	require.NoError(t, err)
	assert.NotEmpty(t, participant.Name)
	assert.NotEmpty(t, participant.AvatarEmoji)
}

func TestRoomService_CreateRoom_RetriesOnCodeCollision(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockRoomRepo, mockParticipantRepo, _, _ := newMockedUnitOfWork()
	service := NewRoomService(mockFactory)

	taken := &models.Room{ID: "other", Code: "TAKEN1"}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	// First generated code is taken, second is free
	mockRoomRepo.On("GetByCode", ctx, mock.AnythingOfType("string")).Return(taken, nil).Once()
	mockRoomRepo.On("GetByCode", ctx, mock.AnythingOfType("string")).Return(nil, nil).Once()
	mockRoomRepo.On("Create", ctx, mock.AnythingOfType("*models.Room")).Return(nil)
	mockParticipantRepo.On("Create", ctx, mock.AnythingOfType("*models.Participant")).Return(nil)

	room, _, err := service.CreateRoom(ctx, "Alice", "😀")

	require.NoError(t, err)
	require.NotNil(t, room)
	mockRoomRepo.AssertNumberOfCalls(t, "GetByCode", 2)
}

func TestRoomService_JoinRoom_RoomNotFound(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockRoomRepo, _, _, _ := newMockedUnitOfWork()
	service := NewRoomService(mockFactory)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockRoomRepo.On("GetByCode", ctx, "NOPE99").Return(nil, nil)

	_, _, err := service.JoinRoom(ctx, "NOPE99", "Bob", "")

	assert.ErrorIs(t, err, ErrRoomNotFound)
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestRoomService_JoinRoom_NewParticipant(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockRoomRepo, mockParticipantRepo, _, _ := newMockedUnitOfWork()
	service := NewRoomService(mockFactory)

	room := &models.Room{ID: "room-1", Code: "ABCDEF", CurrentRound: 1}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockRoomRepo.On("GetByCode", ctx, "ABCDEF").Return(room, nil)
	mockRoomRepo.On("Touch", ctx, "room-1").Return(nil)
	mockParticipantRepo.On("GetByRoomAndName", ctx, "room-1", "Bob").Return(nil, nil)
	mockParticipantRepo.On("Create", ctx, mock.MatchedBy(func(p *models.Participant) bool {
		return p.RoomID == "room-1" && p.Name == "Bob"
	})).Return(nil)

	gotRoom, participant, err := service.JoinRoom(ctx, "ABCDEF", "Bob", "🐶")

	require.NoError(t, err)
	assert.Equal(t, room, gotRoom)
	assert.Equal(t, "Bob", participant.Name)
	assert.Equal(t, "🐶", participant.AvatarEmoji)
	mockParticipantRepo.AssertExpectations(t)
}

func TestRoomService_JoinRoom_RejoinKeepsParticipant(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockRoomRepo, mockParticipantRepo, _, _ := newMockedUnitOfWork()
	service := NewRoomService(mockFactory)

	room := &models.Room{ID: "room-1", Code: "ABCDEF"}
	existing := &models.Participant{ID: "p-1", RoomID: "room-1", Name: "Bob", AvatarEmoji: "🐶"}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockRoomRepo.On("GetByCode", ctx, "ABCDEF").Return(room, nil)
	mockRoomRepo.On("Touch", ctx, "room-1").Return(nil)
	mockParticipantRepo.On("GetByRoomAndName", ctx, "room-1", "Bob").Return(existing, nil)
	mockParticipantRepo.On("UpdateProfile", ctx, "p-1", "🦊").Return(nil)

	_, participant, err := service.JoinRoom(ctx, "ABCDEF", "Bob", "🦊")

	require.NoError(t, err)
	assert.Equal(t, "p-1", participant.ID)
	assert.Equal(t, "🦊", participant.AvatarEmoji)
	mockParticipantRepo.AssertNotCalled(t, "Create")
}

func TestRoomService_JoinRoom_RejoinEmptyEmojiKeepsProfile(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockRoomRepo, mockParticipantRepo, _, _ := newMockedUnitOfWork()
	service := NewRoomService(mockFactory)

	room := &models.Room{ID: "room-1", Code: "ABCDEF"}
	existing := &models.Participant{ID: "p-1", RoomID: "room-1", Name: "Bob", AvatarEmoji: "🐶"}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockRoomRepo.On("GetByCode", ctx, "ABCDEF").Return(room, nil)
	mockRoomRepo.On("Touch", ctx, "room-1").Return(nil)
	mockParticipantRepo.On("GetByRoomAndName", ctx, "room-1", "Bob").Return(existing, nil)

	_, participant, err := service.JoinRoom(ctx, "ABCDEF", "Bob", "")

	require.NoError(t, err)
	assert.Equal(t, "🐶", participant.AvatarEmoji)
	mockParticipantRepo.AssertNotCalled(t, "UpdateProfile")
}

func TestRoomService_StartNewRound(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockRoomRepo, _, _, _ := newMockedUnitOfWork()
	service := NewRoomService(mockFactory)

	room := &models.Room{ID: "room-1", Code: "ABCDEF", CurrentRound: 3}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockRoomRepo.On("GetByCode", ctx, "ABCDEF").Return(room, nil)
	mockRoomRepo.On("SetCurrentRound", ctx, "room-1", 4).Return(nil)

	newRound, err := service.StartNewRound(ctx, "ABCDEF")

	require.NoError(t, err)
	assert.Equal(t, 4, newRound)

	published := mockUoW.PublishedEvents()
	require.Len(t, published, 1)
	advanced, ok := published[0].(events.RoundAdvancedEvent)
	require.True(t, ok)
	assert.Equal(t, 4, advanced.NewRound)
}

func TestRoomService_LeaveRoom_WrongRoom(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockRoomRepo, mockParticipantRepo, _, _ := newMockedUnitOfWork()
	service := NewRoomService(mockFactory)

	room := &models.Room{ID: "room-1", Code: "ABCDEF"}
	stranger := &models.Participant{ID: "p-9", RoomID: "room-2", Name: "Mallory"}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockRoomRepo.On("GetByCode", ctx, "ABCDEF").Return(room, nil)
	mockParticipantRepo.On("GetByID", ctx, "p-9").Return(stranger, nil)

	err := service.LeaveRoom(ctx, "ABCDEF", "p-9")

	assert.ErrorIs(t, err, ErrParticipantNotFound)
	mockParticipantRepo.AssertNotCalled(t, "Delete")
}
