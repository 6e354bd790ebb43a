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

func (b *Bot) handlePay(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	var code, amountText string
	var recipient *discordgo.User
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "code":
			code = strings.ToUpper(opt.StringValue())
		case "to":
			recipient = opt.UserValue(s)
		case "amount":
			amountText = opt.StringValue()
		}
	}

	if recipient == nil {
		b.respondWithError(s, i, "Invalid recipient.")
		return
	}
	if recipient.ID == i.Member.User.ID {
		b.respondWithError(s, i, "You cannot pay yourself.")
		return
	}

	amount, ok := settle.ParseToCents(amountText)
	if !ok {
		b.respondWithError(s, i, fmt.Sprintf("**%s** is not a valid amount.", amountText))
		return
	}

	// Resolve both players to room participants by display name; joining is
	// idempotent for players already on the roster
	payerName := GetDisplayName(s, i.GuildID, i.Member.User.ID)
	_, payer, err := b.roomService.JoinRoom(ctx, code, payerName, "")
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			b.respondWithError(s, i, fmt.Sprintf("Room **%s** does not exist.", code))
			return
		}
		log.Errorf("Error resolving payer in room %s: %v", code, err)
		b.respondWithError(s, i, "Unable to record the payment. Please try again.")
		return
	}

	payeeName := GetDisplayName(s, i.GuildID, recipient.ID)
	_, payee, err := b.roomService.JoinRoom(ctx, code, payeeName, "")
	if err != nil {
		log.Errorf("Error resolving payee in room %s: %v", code, err)
		b.respondWithError(s, i, "Unable to record the payment. Please try again.")
		return
	}

	payment, err := b.paymentService.RecordPayment(ctx, code, payer.ID, payee.ID, amount)
	if err != nil {
		if errors.Is(err, service.ErrSelfPayment) {
			b.respondWithError(s, i, "You cannot pay yourself.")
			return
		}
		log.Errorf("Error recording payment in room %s: %v", code, err)
		b.respondWithError(s, i, "Unable to record the payment. Please try again.")
		return
	}

	b.respondWithContent(s, i, fmt.Sprintf(
		"💸 **%s** paid **%s** to **%s** (round %d)",
		payer.Name, settle.FormatAmount(payment.Amount), payee.Name, payment.RoundNum))
}
