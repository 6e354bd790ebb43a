// Package settle holds the pure settlement core: reducing a room's payment
// log to per-player balances, planning the transfers that zero them out, and
// the money parsing/formatting rules the rest of the app shares. Everything
// operates on integer cents; no function here does I/O or keeps state.
package settle

import (
	"tally/models"
)

// CalculateBalances reduces the payment log to one net balance per roster
// participant, in roster order. Each payment subtracts its amount from the
// payer and adds it to the payee.
//
// A payment referencing an id that is not on the roster is still applied to
// an internal running total but never surfaces in the result, so the returned
// balances sum to zero only when every payer and payee is on the roster.
func CalculateBalances(participants []models.Participant, payments []models.Payment) []models.Balance {
	totals := make(map[string]int64, len(participants))
	for _, p := range participants {
		totals[p.ID] = 0
	}

	for _, pay := range payments {
		totals[pay.FromParticipantID] -= pay.Amount
		totals[pay.ToParticipantID] += pay.Amount
	}

	balances := make([]models.Balance, len(participants))
	for i, p := range participants {
		balances[i] = models.Balance{
			ParticipantID: p.ID,
			Name:          p.Name,
			Amount:        totals[p.ID],
		}
	}
	return balances
}
