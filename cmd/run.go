package cmd

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"tally/api"
	"tally/bot"
	"tally/config"
	"tally/database"
	"tally/events"
	"tally/repository"
	"tally/service"
	"tally/settle"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	log.WithField("environment", cfg.Environment).Info("Starting tally")

	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established")

	eventBus := events.NewBus()
	registerActivityLog(eventBus)
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	roomService := service.NewRoomService(uowFactory)
	paymentService := service.NewPaymentService(uowFactory)
	settlementService := service.NewSettlementService(uowFactory)

	// HTTP API
	server := api.New(cfg, roomService, paymentService, settlementService)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	// Discord bot is optional; without a token the API is the only surface
	var discordBot *bot.Bot
	if cfg.DiscordToken != "" {
		discordBot, err = bot.New(bot.Config{
			Token:   cfg.DiscordToken,
			GuildID: cfg.DiscordGuildID,
		}, roomService, paymentService, settlementService)
		if err != nil {
			return fmt.Errorf("failed to initialize Discord bot: %w", err)
		}
	} else {
		log.Info("No Discord token configured, bot disabled")
	}

	// Background cleanup of abandoned rooms
	cleanupDone := make(chan struct{})
	if cfg.CleanupIntervalMinutes > 0 {
		go runCleanupLoop(ctx, roomService, cfg, cleanupDone)
	} else {
		close(cleanupDone)
	}

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		log.WithError(err).Error("Error stopping HTTP server")
	}
	if discordBot != nil {
		if err := discordBot.Close(); err != nil {
			log.WithError(err).Error("Error closing Discord bot")
		}
	}
	<-cleanupDone
	db.Close()

	log.Info("Shutdown completed")
	return nil
}

// registerActivityLog subscribes a structured activity log to the event bus.
// Events only fire after their transaction commits, so this is a faithful
// audit trail of what actually happened to each room.
func registerActivityLog(bus *events.Bus) {
	bus.Subscribe(events.EventTypeParticipantJoined, func(ctx context.Context, event events.Event) {
		joined := event.(events.ParticipantJoinedEvent)
		log.WithFields(log.Fields{
			"room":        joined.RoomID,
			"participant": joined.ParticipantID,
			"name":        joined.Name,
		}).Info("Participant joined")
	})
	bus.Subscribe(events.EventTypePaymentRecorded, func(ctx context.Context, event events.Event) {
		payment := event.(events.PaymentRecordedEvent)
		log.WithFields(log.Fields{
			"room":    payment.RoomID,
			"payment": payment.PaymentID,
			"amount":  settle.FormatAmount(payment.Amount),
			"round":   payment.RoundNum,
		}).Info("Payment recorded")
	})
	bus.Subscribe(events.EventTypeRoundAdvanced, func(ctx context.Context, event events.Event) {
		round := event.(events.RoundAdvancedEvent)
		log.WithFields(log.Fields{
			"room":  round.RoomID,
			"round": round.NewRound,
		}).Info("Round advanced")
	})
	bus.Subscribe(events.EventTypeRoomSettled, func(ctx context.Context, event events.Event) {
		settled := event.(events.RoomSettledEvent)
		log.WithFields(log.Fields{
			"room":       settled.RoomCode,
			"settlement": settled.SettlementID,
		}).Info("Room settled")
	})
}

// runCleanupLoop periodically deletes rooms that have been idle longer than
// the configured TTL
func runCleanupLoop(ctx context.Context, rooms service.RoomService, cfg *config.Config, done chan<- struct{}) {
	defer close(done)

	ttl := time.Duration(cfg.RoomTTLHours) * time.Hour
	ticker := time.NewTicker(time.Duration(cfg.CleanupIntervalMinutes) * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := rooms.CleanupStaleRooms(ctx, ttl)
			if err != nil {
				log.WithError(err).Error("Room cleanup failed")
				continue
			}
			if deleted > 0 {
				log.WithField("deleted", deleted).Info("Cleaned up stale rooms")
			}
		}
	}
}
