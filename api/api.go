// Package api exposes the room, payment and settlement operations over HTTP
// for the web client.
package api

import (
	"context"
	"net/http"
	"time"

	"tally/config"
	"tally/service"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
)

type API struct {
	router            *mux.Router
	roomService       service.RoomService
	paymentService    service.PaymentService
	settlementService service.SettlementService
	config            *config.Config
	server            *http.Server
}

func New(cfg *config.Config, rooms service.RoomService, payments service.PaymentService, settlements service.SettlementService) *API {
	api := &API{
		router:            mux.NewRouter(),
		roomService:       rooms,
		paymentService:    payments,
		settlementService: settlements,
		config:            cfg,
	}

	api.setupRoutes()
	return api
}

func (a *API) setupRoutes() {
	r := a.router.PathPrefix("/api").Subrouter()

	r.HandleFunc("/health", a.handleHealth).Methods("GET")

	r.HandleFunc("/rooms", a.handleCreateRoom).Methods("POST")
	r.HandleFunc("/rooms/{code}", a.handleGetRoom).Methods("GET")
	r.HandleFunc("/rooms/{code}/join", a.handleJoinRoom).Methods("POST")
	r.HandleFunc("/rooms/{code}/leave", a.handleLeaveRoom).Methods("POST")
	r.HandleFunc("/rooms/{code}/rounds", a.handleStartNewRound).Methods("POST")

	r.HandleFunc("/rooms/{code}/payments", a.handleRecordPayment).Methods("POST")
	r.HandleFunc("/rooms/{code}/payments/{id}", a.handleDeletePayment).Methods("DELETE")

	r.HandleFunc("/rooms/{code}/settlement", a.handleGetSettlement).Methods("GET")
	r.HandleFunc("/rooms/{code}/settle", a.handleSettleUp).Methods("POST")
	r.HandleFunc("/rooms/{code}/settlements", a.handleSettlementHistory).Methods("GET")

	// Deployment cron fallback for when the in-process cleanup loop is off
	r.HandleFunc("/cleanup", a.handleCleanup).Methods("POST")
}

// Handler returns the router wrapped with CORS, for serving and for tests
func (a *API) Handler() http.Handler {
	corsOptions := cors.Options{
		AllowedOrigins: a.config.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}
	return cors.New(corsOptions).Handler(a.router)
}

// Start runs the HTTP server until the listener fails or Stop is called
func (a *API) Start() error {
	a.server = &http.Server{
		Addr:         a.config.HTTPAddr,
		Handler:      a.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.WithField("addr", a.config.HTTPAddr).Info("HTTP API listening")
	err := a.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop gracefully shuts down the HTTP server
func (a *API) Stop(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}
