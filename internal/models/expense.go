package models

import (
	"time"

	"github.com/google/uuid"

	"splittab/internal/calculator"
)

// ExpenseCategories are the accepted values for Expense.Category.
var ExpenseCategories = []string{
	"food",
	"transport",
	"housing",
	"entertainment",
	"utilities",
	"shopping",
	"health",
	"travel",
	"education",
	"other",
}

// ValidCategory reports whether c is one of the accepted categories.
func ValidCategory(c string) bool {
	for _, cat := range ExpenseCategories {
		if c == cat {
			return true
		}
	}
	return false
}

// Expense represents a cost paid by one group member on behalf of a set
// of participants.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string `json:"id"`

	// GroupID is the group this expense belongs to.
	GroupID string `json:"group_id"`

	// PayerID is the member who paid. The payer is credited the full
	// amount regardless of whether they also participate.
	PayerID string `json:"payer_id"`

	// Amount is the total expense amount.
	Amount float64 `json:"amount"`

	// Description is the human-readable label (e.g., "Dinner at Luigi's").
	Description string `json:"description"`

	// Category is one of ExpenseCategories, or empty.
	Category string `json:"category,omitempty"`

	// SplitType is how the amount divides among participants:
	// calculator.SplitEqual or calculator.SplitCustom.
	SplitType string `json:"split_type"`

	// ParticipantIDs are the members splitting this expense.
	ParticipantIDs []string `json:"participant_ids"`

	// Shares maps participant ID to their exact share amount.
	// Only set for custom splits.
	Shares map[string]float64 `json:"shares,omitempty"`

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64 `json:"created_at"`
}

// NewExpense creates an expense with a fresh ID and creation timestamp.
func NewExpense(groupID, payerID string, amount float64, description string) *Expense {
	return &Expense{
		ID:          uuid.New().String(),
		GroupID:     groupID,
		PayerID:     payerID,
		Amount:      amount,
		Description: description,
		SplitType:   calculator.SplitEqual,
		CreatedAt:   time.Now().Unix(),
	}
}

// BalanceInput converts the expense into the shape the balance fold consumes.
func (e *Expense) BalanceInput() calculator.Expense {
	return calculator.Expense{
		PayerID:        e.PayerID,
		Amount:         e.Amount,
		ParticipantIDs: e.ParticipantIDs,
		SplitType:      e.SplitType,
		Shares:         e.Shares,
	}
}
