// Package bot exposes the room, payment and settlement operations as Discord
// slash commands, so a table can run entirely inside a server channel.
package bot

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"tally/service"

	"github.com/bwmarrin/discordgo"
)

// Config holds bot configuration
type Config struct {
	Token string
	// GuildID scopes command registration to one server; empty registers
	// commands globally
	GuildID string
}

type Bot struct {
	config            Config
	session           *discordgo.Session
	roomService       service.RoomService
	paymentService    service.PaymentService
	settlementService service.SettlementService
}

func New(config Config, rooms service.RoomService, payments service.PaymentService, settlements service.SettlementService) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	bot := &Bot{
		config:            config,
		session:           dg,
		roomService:       rooms,
		paymentService:    payments,
		settlementService: settlements,
	}

	dg.AddHandler(bot.handleCommands)

	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	if err := bot.registerCommands(); err != nil {
		dg.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	log.Info("Discord bot connected")
	return bot, nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case "room":
		b.handleRoomCommand(s, i)
	case "pay":
		b.handlePay(s, i)
	case "balance":
		b.handleBalance(s, i)
	case "settle":
		b.handleSettleCommand(s, i)
	}
}
