package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tally/models"
	"tally/service"
	"tally/settle"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type roomResponse struct {
	ID           string `json:"id"`
	Code         string `json:"code"`
	CurrentRound int    `json:"current_round"`
	CreatedAt    string `json:"created_at"`
}

type participantResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Emoji    string `json:"emoji"`
	JoinedAt string `json:"joined_at"`
}

type paymentResponse struct {
	ID                string `json:"id"`
	FromParticipantID string `json:"from_participant_id"`
	ToParticipantID   string `json:"to_participant_id"`
	Amount            int64  `json:"amount"`
	Display           string `json:"display"`
	RoundNum          int    `json:"round_num"`
	CreatedAt         string `json:"created_at"`
}

type balanceResponse struct {
	ParticipantID string `json:"participant_id"`
	Name          string `json:"name"`
	Amount        int64  `json:"amount"`
	Display       string `json:"display"`
}

type transferResponse struct {
	FromID   string `json:"from_id"`
	FromName string `json:"from_name"`
	ToID     string `json:"to_id"`
	ToName   string `json:"to_name"`
	Amount   int64  `json:"amount"`
	Display  string `json:"display"`
}

func toRoomResponse(room *models.Room) roomResponse {
	return roomResponse{
		ID:           room.ID,
		Code:         room.Code,
		CurrentRound: room.CurrentRound,
		CreatedAt:    room.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func toParticipantResponse(p *models.Participant) participantResponse {
	return participantResponse{
		ID:       p.ID,
		Name:     p.Name,
		Emoji:    p.AvatarEmoji,
		JoinedAt: p.JoinedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func toPaymentResponse(p *models.Payment) paymentResponse {
	return paymentResponse{
		ID:                p.ID,
		FromParticipantID: p.FromParticipantID,
		ToParticipantID:   p.ToParticipantID,
		Amount:            p.Amount,
		Display:           settle.FormatAmount(p.Amount),
		RoundNum:          p.RoundNum,
		CreatedAt:         p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Emoji string `json:"emoji"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	room, participant, err := a.roomService.CreateRoom(r.Context(), req.Name, req.Emoji)
	if err != nil {
		a.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"room":        toRoomResponse(room),
		"participant": toParticipantResponse(participant),
	})
}

func (a *API) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	code := roomCode(r)

	var req struct {
		Name  string `json:"name"`
		Emoji string `json:"emoji"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	room, participant, err := a.roomService.JoinRoom(r.Context(), code, req.Name, req.Emoji)
	if err != nil {
		a.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"room":        toRoomResponse(room),
		"participant": toParticipantResponse(participant),
	})
}

func (a *API) handleLeaveRoom(w http.ResponseWriter, r *http.Request) {
	code := roomCode(r)

	var req struct {
		ParticipantID string `json:"participant_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := a.roomService.LeaveRoom(r.Context(), code, req.ParticipantID); err != nil {
		a.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "left room"})
}

func (a *API) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	state, err := a.roomService.GetRoomState(r.Context(), roomCode(r))
	if err != nil {
		a.respondError(w, err)
		return
	}

	participants := make([]participantResponse, len(state.Participants))
	for i := range state.Participants {
		participants[i] = toParticipantResponse(&state.Participants[i])
	}
	payments := make([]paymentResponse, len(state.Payments))
	for i := range state.Payments {
		payments[i] = toPaymentResponse(&state.Payments[i])
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"room":         toRoomResponse(state.Room),
		"participants": participants,
		"payments":     payments,
	})
}

func (a *API) handleStartNewRound(w http.ResponseWriter, r *http.Request) {
	round, err := a.roomService.StartNewRound(r.Context(), roomCode(r))
	if err != nil {
		a.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"current_round": round})
}

func (a *API) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	code := roomCode(r)

	var req struct {
		FromParticipantID string `json:"from_participant_id"`
		ToParticipantID   string `json:"to_participant_id"`
		Amount            string `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	amount, ok := settle.ParseToCents(req.Amount)
	if !ok {
		http.Error(w, "invalid amount", http.StatusBadRequest)
		return
	}

	payment, err := a.paymentService.RecordPayment(r.Context(), code, req.FromParticipantID, req.ToParticipantID, amount)
	if err != nil {
		a.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPaymentResponse(payment))
}

func (a *API) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := a.paymentService.DeletePayment(r.Context(), strings.ToUpper(vars["code"]), vars["id"]); err != nil {
		a.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "payment deleted"})
}

func (a *API) handleGetSettlement(w http.ResponseWriter, r *http.Request) {
	summary, err := a.settlementService.GetSummary(r.Context(), roomCode(r))
	if err != nil {
		a.respondError(w, err)
		return
	}

	balances := make([]balanceResponse, len(summary.Balances))
	for i, b := range summary.Balances {
		balances[i] = balanceResponse{
			ParticipantID: b.ParticipantID,
			Name:          b.Name,
			Amount:        b.Amount,
			Display:       settle.FormatBalance(b.Amount),
		}
	}
	transfers := make([]transferResponse, len(summary.Transfers))
	for i, tr := range summary.Transfers {
		transfers[i] = transferResponse{
			FromID:   tr.FromID,
			FromName: tr.FromName,
			ToID:     tr.ToID,
			ToName:   tr.ToName,
			Amount:   tr.Amount,
			Display:  settle.FormatAmount(tr.Amount),
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"balances":  balances,
		"transfers": transfers,
	})
}

func (a *API) handleSettleUp(w http.ResponseWriter, r *http.Request) {
	record, err := a.settlementService.SettleUp(r.Context(), roomCode(r))
	if err != nil {
		a.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":             record.ID,
		"room_code":      record.RoomCode,
		"player_results": record.PlayerResults,
		"settled_at":     record.SettledAt,
	})
}

func (a *API) handleSettlementHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	records, err := a.settlementService.History(r.Context(), roomCode(r), limit)
	if err != nil {
		a.respondError(w, err)
		return
	}
	if records == nil {
		records = []models.SettlementRecord{}
	}

	writeJSON(w, http.StatusOK, records)
}

func (a *API) handleCleanup(w http.ResponseWriter, r *http.Request) {
	ttl := time.Duration(a.config.RoomTTLHours) * time.Hour

	deleted, err := a.roomService.CleanupStaleRooms(r.Context(), ttl)
	if err != nil {
		a.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

// roomCode extracts the room code path variable, normalized to upper case so
// clients can type codes in either case
func roomCode(r *http.Request) string {
	return strings.ToUpper(mux.Vars(r)["code"])
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

// respondError maps service sentinel errors onto HTTP status codes
func (a *API) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrRoomNotFound),
		errors.Is(err, service.ErrParticipantNotFound),
		errors.Is(err, service.ErrPaymentNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrSelfPayment):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.WithError(err).Error("Request failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
