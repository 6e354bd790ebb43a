package settle

import (
	"sort"

	"tally/models"
)

type party struct {
	id        string
	name      string
	remaining int64
}

// CalculateSettlement produces a list of transfers that zero out the given
// balances, greedily matching the largest creditor against the largest
// debtor. The transfer count is bounded by the number of non-zero balances
// minus one. The greedy match is a heuristic, not a guaranteed minimum, but
// ties keep the input order (stable sort) so the output is deterministic.
//
// Balances that do not sum to zero are not an error: the loop stops once one
// side runs out, leaving the excess unrepresented.
func CalculateSettlement(balances []models.Balance) []models.Transfer {
	var creditors, debtors []party
	for _, b := range balances {
		switch {
		case b.Amount > 0:
			creditors = append(creditors, party{b.ParticipantID, b.Name, b.Amount})
		case b.Amount < 0:
			debtors = append(debtors, party{b.ParticipantID, b.Name, -b.Amount})
		}
	}

	sort.SliceStable(creditors, func(i, j int) bool { return creditors[i].remaining > creditors[j].remaining })
	sort.SliceStable(debtors, func(i, j int) bool { return debtors[i].remaining > debtors[j].remaining })

	var transfers []models.Transfer
	ci, di := 0, 0
	for ci < len(creditors) && di < len(debtors) {
		creditor := &creditors[ci]
		debtor := &debtors[di]

		amount := min(creditor.remaining, debtor.remaining)
		if amount > 0 {
			transfers = append(transfers, models.Transfer{
				FromID:   debtor.id,
				FromName: debtor.name,
				ToID:     creditor.id,
				ToName:   creditor.name,
				Amount:   amount,
			})
		}

		creditor.remaining -= amount
		debtor.remaining -= amount

		if creditor.remaining == 0 {
			ci++
		}
		if debtor.remaining == 0 {
			di++
		}
	}

	return transfers
}
