package service

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"splittab/internal/calculator"
	"splittab/internal/middleware"
	"splittab/internal/models"
	"splittab/internal/storage"
)

// SettlementService reports who owes whom and records settle-up payments.
type SettlementService struct {
	store storage.Store
}

// NewSettlementService creates a new SettlementService with the given
// storage backend.
func NewSettlementService(store storage.Store) *SettlementService {
	return &SettlementService{store: store}
}

type payRequest struct {
	GroupID  string  `json:"group_id" binding:"required"`
	ToUserID string  `json:"to_user_id" binding:"required"`
	Amount   float64 `json:"amount"`
	Note     string  `json:"note"`
}

// GetSettlements returns the group's net balances and the minimal
// transfer list that settles them, computed fresh from the full history.
func (s *SettlementService) GetSettlements(c *gin.Context) {
	group, ok := groupForMember(c, s.store, c.Param("groupID"), "Not a member")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	expenses, err := s.store.ListExpensesByGroup(ctx, group.ID, storage.ExpenseFilter{})
	if err != nil {
		internalError(c, "GetSettlements", err)
		return
	}
	balances, err := s.balancesFor(ctx, group, expenses)
	if err != nil {
		internalError(c, "GetSettlements", err)
		return
	}

	memberBalances := make([]models.MemberBalance, 0, len(group.Members))
	for _, m := range group.Members {
		memberBalances = append(memberBalances, models.MemberBalance{
			UserID:  m.ID,
			Balance: balances[m.ID],
		})
	}
	settlements := calculator.ComputeSettlements(balances)
	if settlements == nil {
		settlements = []calculator.Transfer{}
	}

	c.JSON(http.StatusOK, models.SettlementSummary{
		GroupID:     group.ID,
		Members:     group.Members,
		Balances:    memberBalances,
		Settlements: settlements,
	})
}

// RecordPayment records a settle-up payment from the requester to
// another member.
func (s *SettlementService) RecordPayment(c *gin.Context) {
	var req payRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, ok := groupForMember(c, s.store, req.GroupID, "Not a member")
	if !ok {
		return
	}

	if !group.HasMember(req.ToUserID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Recipient must be a group member"})
		return
	}
	if req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must be positive"})
		return
	}

	payment := models.NewPayment(group.ID, middleware.UserID(c), req.ToUserID, req.Amount)
	payment.Note = req.Note
	if err := s.store.CreatePayment(c.Request.Context(), payment); err != nil {
		internalError(c, "RecordPayment", err)
		return
	}

	slog.Info("Payment recorded", "payment_id", payment.ID, "group_id", group.ID, "amount", payment.Amount)
	c.JSON(http.StatusOK, payment)
}

// ListPayments returns the group's payments, newest first.
func (s *SettlementService) ListPayments(c *gin.Context) {
	group, ok := groupForMember(c, s.store, c.Param("groupID"), "Not a member")
	if !ok {
		return
	}

	payments, err := s.store.ListPaymentsByGroup(c.Request.Context(), group.ID)
	if err != nil {
		internalError(c, "ListPayments", err)
		return
	}
	if payments == nil {
		payments = []*models.Payment{}
	}
	c.JSON(http.StatusOK, payments)
}

// GetDashboard returns spending totals per category and member plus the
// requester's own balance.
func (s *SettlementService) GetDashboard(c *gin.Context) {
	group, ok := groupForMember(c, s.store, c.Param("groupID"), "Not a member")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	expenses, err := s.store.ListExpensesByGroup(ctx, group.ID, storage.ExpenseFilter{})
	if err != nil {
		internalError(c, "GetDashboard", err)
		return
	}

	total := 0.0
	categoryTotals := make(map[string]float64)
	memberPaid := make(map[string]float64, len(group.Members))
	for _, m := range group.Members {
		memberPaid[m.ID] = 0
	}
	for _, e := range expenses {
		total += e.Amount
		cat := e.Category
		if cat == "" {
			cat = "other"
		}
		categoryTotals[cat] = calculator.Round2(categoryTotals[cat] + e.Amount)
		memberPaid[e.PayerID] += e.Amount
	}

	balances, err := s.balancesFor(ctx, group, expenses)
	if err != nil {
		internalError(c, "GetDashboard", err)
		return
	}

	spending := make([]models.MemberSpending, 0, len(group.Members))
	for _, m := range group.Members {
		spending = append(spending, models.MemberSpending{
			UserID: m.ID,
			Name:   m.DisplayName(),
			Paid:   calculator.Round2(memberPaid[m.ID]),
		})
	}

	c.JSON(http.StatusOK, models.DashboardStats{
		TotalExpenses:  calculator.Round2(total),
		ExpenseCount:   len(expenses),
		CategoryTotals: categoryTotals,
		MemberSpending: spending,
		YourBalance:    balances[middleware.UserID(c)],
	})
}

// balancesFor folds the given expenses plus the group's payments into
// net balances per member.
func (s *SettlementService) balancesFor(ctx context.Context, group *models.Group, expenses []*models.Expense) (map[string]float64, error) {
	payments, err := s.store.ListPaymentsByGroup(ctx, group.ID)
	if err != nil {
		return nil, err
	}

	calcExpenses := make([]calculator.Expense, len(expenses))
	for i, e := range expenses {
		calcExpenses[i] = e.BalanceInput()
	}
	calcPayments := make([]calculator.Payment, len(payments))
	for i, p := range payments {
		calcPayments[i] = p.BalanceInput()
	}

	return calculator.ComputeBalances(group.MemberIDs(), calcExpenses, calcPayments), nil
}
