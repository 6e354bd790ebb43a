package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"tally/service"
	"tally/settle"

	"github.com/bwmarrin/discordgo"
)

func (b *Bot) handleRoomCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sub := i.ApplicationCommandData().Options[0]

	switch sub.Name {
	case "create":
		b.handleRoomCreate(s, i)
	case "join":
		b.handleRoomJoin(s, i, codeOption(sub))
	case "status":
		b.handleRoomStatus(s, i, codeOption(sub))
	case "round":
		b.handleRoomRound(s, i, codeOption(sub))
	}
}

func (b *Bot) handleRoomCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	name := GetDisplayName(s, i.GuildID, i.Member.User.ID)
	room, participant, err := b.roomService.CreateRoom(ctx, name, "")
	if err != nil {
		log.Errorf("Error creating room for %s: %v", name, err)
		b.respondWithError(s, i, "Unable to create a room. Please try again.")
		return
	}

	b.respondWithContent(s, i, fmt.Sprintf(
		"%s **%s** opened room **%s**. Join with `/room join code:%s`",
		participant.AvatarEmoji, participant.Name, room.Code, room.Code))
}

func (b *Bot) handleRoomJoin(s *discordgo.Session, i *discordgo.InteractionCreate, code string) {
	ctx := context.Background()

	name := GetDisplayName(s, i.GuildID, i.Member.User.ID)
	room, participant, err := b.roomService.JoinRoom(ctx, code, name, "")
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			b.respondWithError(s, i, fmt.Sprintf("Room **%s** does not exist.", code))
			return
		}
		log.Errorf("Error joining room %s: %v", code, err)
		b.respondWithError(s, i, "Unable to join the room. Please try again.")
		return
	}

	b.respondWithContent(s, i, fmt.Sprintf(
		"%s **%s** joined room **%s** (round %d)",
		participant.AvatarEmoji, participant.Name, room.Code, room.CurrentRound))
}

func (b *Bot) handleRoomStatus(s *discordgo.Session, i *discordgo.InteractionCreate, code string) {
	ctx := context.Background()

	state, err := b.roomService.GetRoomState(ctx, code)
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			b.respondWithError(s, i, fmt.Sprintf("Room **%s** does not exist.", code))
			return
		}
		log.Errorf("Error loading room %s: %v", code, err)
		b.respondWithError(s, i, "Unable to load the room. Please try again.")
		return
	}

	names := make(map[string]string, len(state.Participants))
	var roster strings.Builder
	for _, p := range state.Participants {
		names[p.ID] = p.Name
		fmt.Fprintf(&roster, "%s **%s**\n", p.AvatarEmoji, p.Name)
	}

	var payLog strings.Builder
	start := 0
	if len(state.Payments) > 10 {
		start = len(state.Payments) - 10
	}
	for _, p := range state.Payments[start:] {
		fmt.Fprintf(&payLog, "R%d: %s → %s  **%s**\n",
			p.RoundNum, names[p.FromParticipantID], names[p.ToParticipantID],
			settle.FormatAmount(p.Amount))
	}
	if payLog.Len() == 0 {
		payLog.WriteString("No payments yet")
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Room %s — round %d", state.Room.Code, state.Room.CurrentRound),
		Color: 0x5865F2,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Players", Value: roster.String(), Inline: true},
			{Name: "Recent payments", Value: payLog.String(), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("%d payments total", len(state.Payments)),
		},
	}
	b.respondWithEmbed(s, i, embed)
}

func (b *Bot) handleRoomRound(s *discordgo.Session, i *discordgo.InteractionCreate, code string) {
	ctx := context.Background()

	round, err := b.roomService.StartNewRound(ctx, code)
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			b.respondWithError(s, i, fmt.Sprintf("Room **%s** does not exist.", code))
			return
		}
		log.Errorf("Error starting round in room %s: %v", code, err)
		b.respondWithError(s, i, "Unable to start a new round. Please try again.")
		return
	}

	b.respondWithContent(s, i, fmt.Sprintf("🎲 Room **%s** is now on round **%d**", code, round))
}

// codeOption extracts the room code option of a subcommand, normalized to
// upper case
func codeOption(sub *discordgo.ApplicationCommandInteractionDataOption) string {
	for _, opt := range sub.Options {
		if opt.Name == "code" {
			return strings.ToUpper(opt.StringValue())
		}
	}
	return ""
}
