package service

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"splittab/internal/calculator"
	"splittab/internal/export"
	"splittab/internal/models"
	"splittab/internal/storage"
)

// ExpenseService handles expense CRUD, listing, and export.
type ExpenseService struct {
	store storage.Store
}

// NewExpenseService creates a new ExpenseService with the given storage backend.
func NewExpenseService(store storage.Store) *ExpenseService {
	return &ExpenseService{store: store}
}

type createExpenseRequest struct {
	GroupID        string             `json:"group_id" binding:"required"`
	PayerID        string             `json:"payer_id" binding:"required"`
	Amount         float64            `json:"amount" binding:"required,gt=0"`
	Description    string             `json:"description"`
	Category       string             `json:"category"`
	SplitType      string             `json:"split_type"`
	ParticipantIDs []string           `json:"participant_ids"`
	Shares         map[string]float64 `json:"shares"`
}

type updateExpenseRequest struct {
	Amount         *float64           `json:"amount"`
	Description    *string            `json:"description"`
	Category       *string            `json:"category"`
	SplitType      *string            `json:"split_type"`
	ParticipantIDs *[]string          `json:"participant_ids"`
	Shares         map[string]float64 `json:"shares"`
}

// CreateExpense records a new expense after validating the payer,
// participants, category, and custom shares.
func (s *ExpenseService) CreateExpense(c *gin.Context) {
	var req createExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, ok := groupForMember(c, s.store, req.GroupID, "Not a member of this group")
	if !ok {
		return
	}

	if !group.HasMember(req.PayerID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Payer must be a group member"})
		return
	}
	if len(req.ParticipantIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one participant required"})
		return
	}
	if !validParticipants(group, req.ParticipantIDs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "All participants must be group members"})
		return
	}
	if req.Category != "" && !models.ValidCategory(req.Category) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid category. Must be one of: " + strings.Join(models.ExpenseCategories, ", "),
		})
		return
	}

	splitType := req.SplitType
	if splitType == "" {
		splitType = calculator.SplitEqual
	}
	if splitType == calculator.SplitCustom {
		if len(req.Shares) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Custom split requires shares"})
			return
		}
		if !shareKeysMatch(req.Shares, req.ParticipantIDs) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Shares must match participant list"})
			return
		}
		if total := sharesTotal(req.Shares); math.Abs(total-req.Amount) > 0.01 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("Shares total (%v) must equal expense amount (%v)", total, req.Amount),
			})
			return
		}
	}

	expense := models.NewExpense(req.GroupID, req.PayerID, req.Amount, req.Description)
	expense.Category = req.Category
	expense.SplitType = splitType
	expense.ParticipantIDs = req.ParticipantIDs
	if splitType == calculator.SplitCustom {
		expense.Shares = req.Shares
	}

	if err := s.store.CreateExpense(c.Request.Context(), expense); err != nil {
		internalError(c, "CreateExpense", err)
		return
	}

	slog.Info("Expense created", "expense_id", expense.ID, "group_id", group.ID, "amount", expense.Amount)
	c.JSON(http.StatusOK, expense)
}

// ListExpenses returns a group's expenses, newest first, with optional
// search/category filters and paging.
func (s *ExpenseService) ListExpenses(c *gin.Context) {
	groupID := c.Query("group_id")
	if groupID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "group_id required"})
		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 200 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 200"})
			return
		}
		limit = n
	}
	offset := 0
	if v := c.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be non-negative"})
			return
		}
		offset = n
	}

	if _, ok := groupForMember(c, s.store, groupID, "Not a member of this group"); !ok {
		return
	}

	expenses, err := s.store.ListExpensesByGroup(c.Request.Context(), groupID, storage.ExpenseFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		internalError(c, "ListExpenses", err)
		return
	}
	if expenses == nil {
		expenses = []*models.Expense{}
	}
	c.JSON(http.StatusOK, expenses)
}

// ExportExpenses streams the group's full expense history as a CSV or
// XLSX attachment.
func (s *ExpenseService) ExportExpenses(c *gin.Context) {
	groupID := c.Query("group_id")
	if groupID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "group_id required"})
		return
	}

	group, ok := groupForMember(c, s.store, groupID, "Not a member of this group")
	if !ok {
		return
	}

	expenses, err := s.store.ListExpensesByGroup(c.Request.Context(), groupID, storage.ExpenseFilter{})
	if err != nil {
		internalError(c, "ExportExpenses", err)
		return
	}

	switch format := c.DefaultQuery("format", "csv"); format {
	case "csv":
		data, err := export.ExpensesCSV(group, expenses)
		if err != nil {
			internalError(c, "ExportExpenses", err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=expenses-group-%s.csv", groupID))
		c.Data(http.StatusOK, "text/csv", data)
	case "xlsx":
		data, err := export.ExpensesXLSX(group, expenses)
		if err != nil {
			internalError(c, "ExportExpenses", err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=expenses-group-%s.xlsx", groupID))
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xlsx"})
	}
}

// GetExpense returns one expense, requiring membership of its group.
func (s *ExpenseService) GetExpense(c *gin.Context) {
	expense, _, ok := s.expenseForMember(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, expense)
}

// UpdateExpense applies a partial update. Only the fields present in
// the request change; shares are rewritten only when split_type is
// given, and an empty category clears it.
func (s *ExpenseService) UpdateExpense(c *gin.Context) {
	expense, group, ok := s.expenseForMember(c)
	if !ok {
		return
	}

	var req updateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Amount != nil {
		expense.Amount = *req.Amount
	}
	if req.Description != nil {
		expense.Description = *req.Description
	}
	if req.Category != nil {
		if *req.Category != "" && !models.ValidCategory(*req.Category) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category"})
			return
		}
		expense.Category = *req.Category
	}
	if req.ParticipantIDs != nil {
		if !validParticipants(group, *req.ParticipantIDs) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "All participants must be group members"})
			return
		}
		expense.ParticipantIDs = *req.ParticipantIDs
	}
	if req.SplitType != nil {
		expense.SplitType = *req.SplitType
		expense.Shares = nil
		if *req.SplitType == calculator.SplitCustom && len(req.Shares) > 0 {
			if total := sharesTotal(req.Shares); math.Abs(total-expense.Amount) > 0.01 {
				c.JSON(http.StatusBadRequest, gin.H{
					"error": fmt.Sprintf("Shares total (%v) must equal expense amount (%v)", total, expense.Amount),
				})
				return
			}
			expense.Shares = req.Shares
		}
	}

	if err := s.store.UpdateExpense(c.Request.Context(), expense); err != nil {
		internalError(c, "UpdateExpense", err)
		return
	}
	c.JSON(http.StatusOK, expense)
}

// DeleteExpense removes one expense.
func (s *ExpenseService) DeleteExpense(c *gin.Context) {
	expense, _, ok := s.expenseForMember(c)
	if !ok {
		return
	}

	if err := s.store.DeleteExpense(c.Request.Context(), expense.ID); err != nil {
		internalError(c, "DeleteExpense", err)
		return
	}

	slog.Info("Expense deleted", "expense_id", expense.ID, "group_id", expense.GroupID)
	c.Status(http.StatusNoContent)
}

// expenseForMember loads the expense from the id path param and checks
// the requester belongs to its group, writing the error response itself
// when either fails.
func (s *ExpenseService) expenseForMember(c *gin.Context) (*models.Expense, *models.Group, bool) {
	expense, err := s.store.GetExpense(c.Request.Context(), c.Param("id"))
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Expense not found"})
		return nil, nil, false
	}
	if err != nil {
		internalError(c, "GetExpense", err)
		return nil, nil, false
	}

	group, ok := groupForMember(c, s.store, expense.GroupID, "Not a member of this group")
	if !ok {
		return nil, nil, false
	}
	return expense, group, true
}

// validParticipants reports whether ids are distinct members of the group.
func validParticipants(group *models.Group, ids []string) bool {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] || !group.HasMember(id) {
			return false
		}
		seen[id] = true
	}
	return true
}

// shareKeysMatch reports whether the share keys are exactly the
// participant set.
func shareKeysMatch(shares map[string]float64, participantIDs []string) bool {
	if len(shares) != len(participantIDs) {
		return false
	}
	for _, id := range participantIDs {
		if _, ok := shares[id]; !ok {
			return false
		}
	}
	return true
}

// sharesTotal sums the shares, rounded to cents.
func sharesTotal(shares map[string]float64) float64 {
	total := 0.0
	for _, v := range shares {
		total += v
	}
	return calculator.Round2(total)
}
