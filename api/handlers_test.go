package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tally/config"
	"tally/models"
	"tally/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRoomService is a mock implementation of service.RoomService
type MockRoomService struct {
	mock.Mock
}

func (m *MockRoomService) CreateRoom(ctx context.Context, creatorName, avatarEmoji string) (*models.Room, *models.Participant, error) {
	args := m.Called(ctx, creatorName, avatarEmoji)
	var room *models.Room
	if args.Get(0) != nil {
		room = args.Get(0).(*models.Room)
	}
	var participant *models.Participant
	if args.Get(1) != nil {
		participant = args.Get(1).(*models.Participant)
	}
	return room, participant, args.Error(2)
}

func (m *MockRoomService) JoinRoom(ctx context.Context, code, name, avatarEmoji string) (*models.Room, *models.Participant, error) {
	args := m.Called(ctx, code, name, avatarEmoji)
	var room *models.Room
	if args.Get(0) != nil {
		room = args.Get(0).(*models.Room)
	}
	var participant *models.Participant
	if args.Get(1) != nil {
		participant = args.Get(1).(*models.Participant)
	}
	return room, participant, args.Error(2)
}

func (m *MockRoomService) LeaveRoom(ctx context.Context, code, participantID string) error {
	args := m.Called(ctx, code, participantID)
	return args.Error(0)
}

func (m *MockRoomService) GetRoomState(ctx context.Context, code string) (*service.RoomState, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RoomState), args.Error(1)
}

func (m *MockRoomService) StartNewRound(ctx context.Context, code string) (int, error) {
	args := m.Called(ctx, code)
	return args.Int(0), args.Error(1)
}

func (m *MockRoomService) CleanupStaleRooms(ctx context.Context, ttl time.Duration) (int64, error) {
	args := m.Called(ctx, ttl)
	return args.Get(0).(int64), args.Error(1)
}

// MockPaymentService is a mock implementation of service.PaymentService
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) RecordPayment(ctx context.Context, code, fromParticipantID, toParticipantID string, amount int64) (*models.Payment, error) {
	args := m.Called(ctx, code, fromParticipantID, toParticipantID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentService) DeletePayment(ctx context.Context, code, paymentID string) error {
	args := m.Called(ctx, code, paymentID)
	return args.Error(0)
}

// MockSettlementService is a mock implementation of service.SettlementService
type MockSettlementService struct {
	mock.Mock
}

func (m *MockSettlementService) GetSummary(ctx context.Context, code string) (*service.SettlementSummary, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SettlementSummary), args.Error(1)
}

func (m *MockSettlementService) SettleUp(ctx context.Context, code string) (*models.SettlementRecord, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SettlementRecord), args.Error(1)
}

func (m *MockSettlementService) History(ctx context.Context, code string, limit int) ([]models.SettlementRecord, error) {
	args := m.Called(ctx, code, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SettlementRecord), args.Error(1)
}

func newTestAPI() (*API, *MockRoomService, *MockPaymentService, *MockSettlementService) {
	rooms := new(MockRoomService)
	payments := new(MockPaymentService)
	settlements := new(MockSettlementService)

	cfg := &config.Config{
		HTTPAddr:           ":0",
		CORSAllowedOrigins: []string{"*"},
	}
	return New(cfg, rooms, payments, settlements), rooms, payments, settlements
}

func doJSON(t *testing.T, api *API, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleCreateRoom(t *testing.T) {
	api, rooms, _, _ := newTestAPI()

	room := &models.Room{ID: "room-1", Code: "ABCDEF", CurrentRound: 1}
	participant := &models.Participant{ID: "p-1", RoomID: "room-1", Name: "Alice", AvatarEmoji: "😀"}
	rooms.On("CreateRoom", mock.Anything, "Alice", "😀").Return(room, participant, nil)

	rec := doJSON(t, api, "POST", "/api/rooms", map[string]string{"name": "Alice", "emoji": "😀"})

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Room        roomResponse        `json:"room"`
		Participant participantResponse `json:"participant"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ABCDEF", resp.Room.Code)
	assert.Equal(t, "p-1", resp.Participant.ID)
}

func TestHandleJoinRoom_NotFound(t *testing.T) {
	api, rooms, _, _ := newTestAPI()

	rooms.On("JoinRoom", mock.Anything, "NOPE99", "Bob", "").
		Return(nil, nil, service.ErrRoomNotFound)

	rec := doJSON(t, api, "POST", "/api/rooms/nope99/join", map[string]string{"name": "Bob"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleJoinRoom_LowercaseCodeNormalized(t *testing.T) {
	api, rooms, _, _ := newTestAPI()

	room := &models.Room{ID: "room-1", Code: "ABCDEF", CurrentRound: 2}
	participant := &models.Participant{ID: "p-2", RoomID: "room-1", Name: "Bob"}
	rooms.On("JoinRoom", mock.Anything, "ABCDEF", "Bob", "🐶").Return(room, participant, nil)

	rec := doJSON(t, api, "POST", "/api/rooms/abcdef/join", map[string]string{"name": "Bob", "emoji": "🐶"})

	assert.Equal(t, http.StatusOK, rec.Code)
	rooms.AssertExpectations(t)
}

func TestHandleGetRoom(t *testing.T) {
	api, rooms, _, _ := newTestAPI()

	state := &service.RoomState{
		Room: &models.Room{ID: "room-1", Code: "ABCDEF", CurrentRound: 3},
		Participants: []models.Participant{
			{ID: "p-1", Name: "Alice", AvatarEmoji: "😀"},
			{ID: "p-2", Name: "Bob", AvatarEmoji: "🐶"},
		},
		Payments: []models.Payment{
			{ID: "pay-1", FromParticipantID: "p-1", ToParticipantID: "p-2", Amount: 150050, RoundNum: 1},
		},
	}
	rooms.On("GetRoomState", mock.Anything, "ABCDEF").Return(state, nil)

	rec := doJSON(t, api, "GET", "/api/rooms/ABCDEF", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Room         roomResponse          `json:"room"`
		Participants []participantResponse `json:"participants"`
		Payments     []paymentResponse     `json:"payments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Room.CurrentRound)
	assert.Len(t, resp.Participants, 2)
	require.Len(t, resp.Payments, 1)
	assert.Equal(t, "1,500.50", resp.Payments[0].Display)
}

func TestHandleRecordPayment(t *testing.T) {
	api, _, payments, _ := newTestAPI()

	payment := &models.Payment{
		ID:                "pay-1",
		RoomID:            "room-1",
		FromParticipantID: "p-1",
		ToParticipantID:   "p-2",
		Amount:            1050,
		RoundNum:          2,
	}
	payments.On("RecordPayment", mock.Anything, "ABCDEF", "p-1", "p-2", int64(1050)).Return(payment, nil)

	rec := doJSON(t, api, "POST", "/api/rooms/ABCDEF/payments", map[string]string{
		"from_participant_id": "p-1",
		"to_participant_id":   "p-2",
		"amount":              "10.50",
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp paymentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1050), resp.Amount)
	assert.Equal(t, "10.50", resp.Display)
	payments.AssertExpectations(t)
}

func TestHandleRecordPayment_BadAmount(t *testing.T) {
	api, _, payments, _ := newTestAPI()

	rec := doJSON(t, api, "POST", "/api/rooms/ABCDEF/payments", map[string]string{
		"from_participant_id": "p-1",
		"to_participant_id":   "p-2",
		"amount":              "abc",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	payments.AssertNotCalled(t, "RecordPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleRecordPayment_SelfPayment(t *testing.T) {
	api, _, payments, _ := newTestAPI()

	payments.On("RecordPayment", mock.Anything, "ABCDEF", "p-1", "p-1", int64(100)).
		Return(nil, service.ErrSelfPayment)

	rec := doJSON(t, api, "POST", "/api/rooms/ABCDEF/payments", map[string]string{
		"from_participant_id": "p-1",
		"to_participant_id":   "p-1",
		"amount":              "1",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleDeletePayment(t *testing.T) {
	api, _, payments, _ := newTestAPI()

	payments.On("DeletePayment", mock.Anything, "ABCDEF", "pay-1").Return(nil)

	rec := doJSON(t, api, "DELETE", "/api/rooms/ABCDEF/payments/pay-1", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	payments.AssertExpectations(t)
}

func TestHandleGetSettlement(t *testing.T) {
	api, _, _, settlements := newTestAPI()

	summary := &service.SettlementSummary{
		Balances: []models.Balance{
			{ParticipantID: "p-1", Name: "Alice", Amount: -1500},
			{ParticipantID: "p-2", Name: "Bob", Amount: 1500},
		},
		Transfers: []models.Transfer{
			{FromID: "p-1", FromName: "Alice", ToID: "p-2", ToName: "Bob", Amount: 1500},
		},
	}
	settlements.On("GetSummary", mock.Anything, "ABCDEF").Return(summary, nil)

	rec := doJSON(t, api, "GET", "/api/rooms/ABCDEF/settlement", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Balances  []balanceResponse  `json:"balances"`
		Transfers []transferResponse `json:"transfers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Balances, 2)
	assert.Equal(t, "-15", resp.Balances[0].Display)
	assert.Equal(t, "+15", resp.Balances[1].Display)
	require.Len(t, resp.Transfers, 1)
	assert.Equal(t, "15", resp.Transfers[0].Display)
}

func TestHandleStartNewRound(t *testing.T) {
	api, rooms, _, _ := newTestAPI()

	rooms.On("StartNewRound", mock.Anything, "ABCDEF").Return(4, nil)

	rec := doJSON(t, api, "POST", "/api/rooms/ABCDEF/rounds", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp["current_round"])
}

func TestHandleCleanup(t *testing.T) {
	api, rooms, _, _ := newTestAPI()
	api.config.RoomTTLHours = 24

	rooms.On("CleanupStaleRooms", mock.Anything, 24*time.Hour).Return(int64(3), nil)

	rec := doJSON(t, api, "POST", "/api/cleanup", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(3), resp["deleted"])
}

func TestHandleSettlementHistory_Empty(t *testing.T) {
	api, _, _, settlements := newTestAPI()

	settlements.On("History", mock.Anything, "ABCDEF", 0).Return([]models.SettlementRecord{}, nil)

	rec := doJSON(t, api, "GET", "/api/rooms/ABCDEF/settlements", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}
