package calculator

import (
	"math"
	"sort"
)

// Transfer represents one suggested settlement payment.
type Transfer struct {
	FromUserID string  `json:"from_user_id"` // Person who owes
	ToUserID   string  `json:"to_user_id"`   // Person who is owed
	Amount     float64 `json:"amount"`
}

// balanceEntry pairs a member with the magnitude of their debt or credit.
type balanceEntry struct {
	userID string
	amount float64
}

// ComputeSettlements turns net balances into a minimal list of transfers
// that settles the group. For k members with non-zero balances it emits at
// most k-1 transfers.
//
// Greedy matching: walk debtors and creditors in descending order of
// magnitude, each transfer moving the minimum of the two outstanding
// amounts, and advance past anyone whose remainder drops below epsilon.
// Balances within epsilon of zero never enter the matching at all, so
// floating point residue cannot produce a near-zero transfer.
//
// The result is deterministic for a given balance set: members are taken
// in sorted ID order before the sort by magnitude, and equal magnitudes
// keep that order.
func ComputeSettlements(balances map[string]float64) []Transfer {
	memberIDs := make([]string, 0, len(balances))
	for id := range balances {
		memberIDs = append(memberIDs, id)
	}
	sort.Strings(memberIDs)

	var debtors, creditors []balanceEntry
	for _, id := range memberIDs {
		balance := balances[id]
		switch {
		case balance < -epsilon:
			debtors = append(debtors, balanceEntry{userID: id, amount: -balance})
		case balance > epsilon:
			creditors = append(creditors, balanceEntry{userID: id, amount: balance})
		}
	}

	sort.SliceStable(debtors, func(i, j int) bool { return debtors[i].amount > debtors[j].amount })
	sort.SliceStable(creditors, func(i, j int) bool { return creditors[i].amount > creditors[j].amount })

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		transfer := math.Min(debtors[i].amount, creditors[j].amount)
		if transfer < epsilon {
			break
		}

		transfers = append(transfers, Transfer{
			FromUserID: debtors[i].userID,
			ToUserID:   creditors[j].userID,
			Amount:     Round2(transfer),
		})

		debtors[i].amount -= transfer
		creditors[j].amount -= transfer

		if debtors[i].amount < epsilon {
			i++
		}
		if creditors[j].amount < epsilon {
			j++
		}
	}

	return transfers
}
