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

func (b *Bot) handleBalance(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	var code string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "code" {
			code = strings.ToUpper(opt.StringValue())
		}
	}

	summary, err := b.settlementService.GetSummary(ctx, code)
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			b.respondWithError(s, i, fmt.Sprintf("Room **%s** does not exist.", code))
			return
		}
		log.Errorf("Error computing balances for room %s: %v", code, err)
		b.respondWithError(s, i, "Unable to compute balances. Please try again.")
		return
	}

	b.respondWithEmbed(s, i, summaryEmbed(code, summary))
}

func (b *Bot) handleSettleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sub := i.ApplicationCommandData().Options[0]

	switch sub.Name {
	case "up":
		b.handleSettleUp(s, i, codeOption(sub))
	case "history":
		b.handleSettleHistory(s, i, codeOption(sub))
	}
}

func (b *Bot) handleSettleUp(s *discordgo.Session, i *discordgo.InteractionCreate, code string) {
	ctx := context.Background()

	record, err := b.settlementService.SettleUp(ctx, code)
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			b.respondWithError(s, i, fmt.Sprintf("Room **%s** does not exist.", code))
			return
		}
		log.Errorf("Error settling room %s: %v", code, err)
		b.respondWithError(s, i, "Unable to settle the room. Please try again.")
		return
	}

	var lines strings.Builder
	for _, result := range record.PlayerResults {
		fmt.Fprintf(&lines, "%s **%s**: %s\n",
			result.Emoji, result.Name, settle.FormatBalance(result.Balance))
	}
	if lines.Len() == 0 {
		lines.WriteString("No players")
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Room %s settled", code),
		Description: lines.String(),
		Color:       0x57F287,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Payment log cleared, round counter reset",
		},
	}
	b.respondWithEmbed(s, i, embed)
}

func (b *Bot) handleSettleHistory(s *discordgo.Session, i *discordgo.InteractionCreate, code string) {
	ctx := context.Background()

	records, err := b.settlementService.History(ctx, code, 5)
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			b.respondWithError(s, i, fmt.Sprintf("Room **%s** does not exist.", code))
			return
		}
		log.Errorf("Error loading history for room %s: %v", code, err)
		b.respondWithError(s, i, "Unable to load settlement history. Please try again.")
		return
	}

	if len(records) == 0 {
		b.respondWithContent(s, i, fmt.Sprintf("Room **%s** has never settled up.", code))
		return
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Room %s — settlement history", code),
		Color: 0x5865F2,
	}
	for _, record := range records {
		var lines strings.Builder
		for _, result := range record.PlayerResults {
			fmt.Fprintf(&lines, "%s %s: %s\n",
				result.Emoji, result.Name, settle.FormatBalance(result.Balance))
		}
		if lines.Len() == 0 {
			lines.WriteString("No players")
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  FormatDiscordTimestamp(record.SettledAt, "f"),
			Value: lines.String(),
		})
	}
	b.respondWithEmbed(s, i, embed)
}

// summaryEmbed renders balances and the settlement plan for a room
func summaryEmbed(code string, summary *service.SettlementSummary) *discordgo.MessageEmbed {
	var balances strings.Builder
	for _, balance := range summary.Balances {
		fmt.Fprintf(&balances, "**%s**: %s\n", balance.Name, settle.FormatBalance(balance.Amount))
	}
	if balances.Len() == 0 {
		balances.WriteString("No players yet")
	}

	var transfers strings.Builder
	for _, transfer := range summary.Transfers {
		fmt.Fprintf(&transfers, "%s → %s: **%s**\n",
			transfer.FromName, transfer.ToName, settle.FormatAmount(transfer.Amount))
	}
	if transfers.Len() == 0 {
		transfers.WriteString("All square 🎉")
	}

	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Room %s — balances", code),
		Color: 0xFEE75C,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Standings", Value: balances.String()},
			{Name: "To settle", Value: transfers.String()},
		},
	}
}
