package models

import "splittab/internal/calculator"

// MemberBalance is one member's net position within a group.
// Positive means the member is owed money, negative means they owe.
type MemberBalance struct {
	UserID  string  `json:"user_id"`
	Balance float64 `json:"balance"`
}

// SettlementSummary is the full settlement picture for a group: every
// member, their balances in join order, and the minimal transfer set
// that clears the group.
type SettlementSummary struct {
	GroupID     string                `json:"group_id"`
	Members     []*User               `json:"members"`
	Balances    []MemberBalance       `json:"balances"`
	Settlements []calculator.Transfer `json:"settlements"`
}

// MemberSpending is how much one member has paid out in total.
type MemberSpending struct {
	UserID string  `json:"user_id"`
	Name   string  `json:"name"`
	Paid   float64 `json:"paid"`
}

// DashboardStats summarizes a group's spending for the dashboard view.
type DashboardStats struct {
	TotalExpenses  float64            `json:"total_expenses"`
	ExpenseCount   int                `json:"expense_count"`
	CategoryTotals map[string]float64 `json:"category_totals"`
	MemberSpending []MemberSpending   `json:"member_spending"`

	// YourBalance is the requesting user's net balance in the group.
	YourBalance float64 `json:"your_balance"`
}
