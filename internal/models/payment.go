package models

import (
	"time"

	"github.com/google/uuid"

	"splittab/internal/calculator"
)

// Payment represents a settlement payment between group members to clear debts.
type Payment struct {
	// ID is the unique identifier for the payment (UUID format).
	ID string `json:"id"`

	// GroupID is the group this payment belongs to.
	GroupID string `json:"group_id"`

	// FromUserID is the member who paid (debtor settling up).
	FromUserID string `json:"from_user_id"`

	// ToUserID is the member who received the payment.
	ToUserID string `json:"to_user_id"`

	// Amount is the payment amount.
	Amount float64 `json:"amount"`

	// Note is an optional description for the payment.
	Note string `json:"note,omitempty"`

	// CreatedAt is the Unix timestamp when the payment was recorded.
	CreatedAt int64 `json:"created_at"`
}

// NewPayment creates a payment with a fresh ID and creation timestamp.
func NewPayment(groupID, fromUserID, toUserID string, amount float64) *Payment {
	return &Payment{
		ID:         uuid.New().String(),
		GroupID:    groupID,
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Amount:     amount,
		CreatedAt:  time.Now().Unix(),
	}
}

// BalanceInput converts the payment into the shape the balance fold consumes.
func (p *Payment) BalanceInput() calculator.Payment {
	return calculator.Payment{
		FromUserID: p.FromUserID,
		ToUserID:   p.ToUserID,
		Amount:     p.Amount,
	}
}
