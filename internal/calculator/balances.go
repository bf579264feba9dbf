package calculator

import "math"

// Split modes for an expense.
const (
	SplitEqual  = "equal"
	SplitCustom = "custom"
)

// epsilon is the threshold below which a balance is treated as settled.
// It guards against floating point noise, not against sub-cent debts.
const epsilon = 1e-9

// Expense represents an expense with the minimal information needed for
// balance calculations.
type Expense struct {
	PayerID        string
	Amount         float64
	ParticipantIDs []string
	SplitType      string             // SplitEqual or SplitCustom
	Shares         map[string]float64 // per-participant amounts when SplitCustom
}

// Payment represents a recorded settlement payment between two members.
type Payment struct {
	FromUserID string  // Who paid (debtor settling up)
	ToUserID   string  // Who received (creditor being paid)
	Amount     float64
}

// Round2 rounds a value to two decimal places. Balances and transfer
// amounts are rounded exactly once, at the point they are reported.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ParticipantShares computes how much each participant owes for one expense.
// A custom split uses the recorded share amounts as-is; anything else divides
// the total equally among the participants. Expenses with no participants
// yield no shares.
func ParticipantShares(e Expense) map[string]float64 {
	if len(e.ParticipantIDs) == 0 {
		return nil
	}

	shares := make(map[string]float64, len(e.ParticipantIDs))
	if e.SplitType == SplitCustom && len(e.Shares) > 0 {
		for userID, amount := range e.Shares {
			shares[userID] = amount
		}
		return shares
	}

	perPerson := e.Amount / float64(len(e.ParticipantIDs))
	for _, userID := range e.ParticipantIDs {
		shares[userID] = perPerson
	}
	return shares
}

// ComputeBalances folds expenses and payments into one net balance per member.
// Positive means the member is owed money, negative means they owe.
//
// Algorithm:
// - Every member starts at zero, so settled members still appear in the result
// - For each expense: payer is credited the full amount, each participant is
//   debited their share (custom amounts or an equal division)
// - For each payment: the payer is credited, the receiver is debited
// - Balances are rounded to cents once, after the full fold
//
// Expenses with an empty participant set are skipped entirely, including the
// payer credit. Unrounded shares accumulate through the fold so a member's
// balance never drifts by repeated per-expense rounding.
func ComputeBalances(memberIDs []string, expenses []Expense, payments []Payment) map[string]float64 {
	balances := make(map[string]float64, len(memberIDs))
	for _, id := range memberIDs {
		balances[id] = 0
	}

	for _, e := range expenses {
		if len(e.ParticipantIDs) == 0 {
			continue
		}

		balances[e.PayerID] += e.Amount
		for userID, share := range ParticipantShares(e) {
			balances[userID] -= share
		}
	}

	for _, p := range payments {
		balances[p.FromUserID] += p.Amount
		balances[p.ToUserID] -= p.Amount
	}

	for id, balance := range balances {
		balances[id] = Round2(balance)
	}
	return balances
}
