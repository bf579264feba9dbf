// Package chat implements the natural-language assistant: a set of
// expense actions plus a Gemini function-calling bridge that maps user
// messages onto them.
package chat

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"splittab/internal/calculator"
	"splittab/internal/models"
	"splittab/internal/storage"
)

// ErrUnknownAction is returned when the model requests an action that
// does not exist.
var ErrUnknownAction = errors.New("unknown action")

// Action names the model can call.
const (
	ActionAddExpense   = "add_expense"
	ActionGetBalances  = "get_balances"
	ActionGetDashboard = "get_dashboard"
	ActionSettleDebt   = "settle_debt"
	ActionListExpenses = "list_expenses"
	ActionAddMember    = "add_member"
)

// Args carries the decoded arguments of a model function call. Unused
// fields stay at their zero value.
type Args struct {
	GroupName        string
	Amount           float64
	Description      string
	Category         string
	ParticipantNames []string
	ToUserName       string
	Email            string
	Search           string
}

// Result is the outcome of one executed action: a machine-readable part
// for the API response and a text summary fed back to the model.
type Result struct {
	Action  string
	Data    map[string]any
	Summary string
}

// Dispatch runs the named action for the user. Errors are phrased for
// the person chatting, since they surface in the assistant's reply.
func Dispatch(ctx context.Context, store storage.Store, user *models.User, action string, args Args) (*Result, error) {
	switch action {
	case ActionAddExpense:
		return execAddExpense(ctx, store, user, args)
	case ActionGetBalances:
		return execGetBalances(ctx, store, user, args)
	case ActionGetDashboard:
		return execGetDashboard(ctx, store, user, args)
	case ActionSettleDebt:
		return execSettleDebt(ctx, store, user, args)
	case ActionListExpenses:
		return execListExpenses(ctx, store, user, args)
	case ActionAddMember:
		return execAddMember(ctx, store, user, args)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
}

func execAddExpense(ctx context.Context, store storage.Store, user *models.User, args Args) (*Result, error) {
	group, err := findGroup(ctx, store, user, args.GroupName)
	if err != nil {
		return nil, err
	}

	description := args.Description
	if description == "" {
		description = "expense"
	}
	category := args.Category
	if category != "" && !models.ValidCategory(category) {
		category = "other"
	}

	participants, err := resolveParticipants(group, user, args.ParticipantNames)
	if err != nil {
		return nil, err
	}

	expense := models.NewExpense(group.ID, user.ID, args.Amount, description)
	expense.Category = category
	for _, p := range participants {
		expense.ParticipantIDs = append(expense.ParticipantIDs, p.ID)
	}
	if err := store.CreateExpense(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to save the expense: %w", err)
	}

	names := make([]string, len(participants))
	for i, p := range participants {
		names[i] = p.DisplayName()
	}
	perPerson := decimal.NewFromFloat(args.Amount).
		Div(decimal.NewFromInt(int64(len(participants)))).
		Round(2)

	summary := fmt.Sprintf("Added %s for '%s' in %s, split equally among %s (%s each).",
		usd(args.Amount), description, group.Name, strings.Join(names, ", "), "$"+perPerson.StringFixed(2))
	return &Result{
		Action:  ActionAddExpense,
		Data:    map[string]any{"expense_id": expense.ID, "amount": args.Amount, "group": group.Name},
		Summary: summary,
	}, nil
}

func execGetBalances(ctx context.Context, store storage.Store, user *models.User, args Args) (*Result, error) {
	group, err := findGroup(ctx, store, user, args.GroupName)
	if err != nil {
		return nil, err
	}

	balances, err := groupBalances(ctx, store, group)
	if err != nil {
		return nil, err
	}
	settlements := calculator.ComputeSettlements(balances)

	displayName := func(userID string) string {
		if userID == user.ID {
			return "You"
		}
		if m := group.Member(userID); m != nil {
			return m.DisplayName()
		}
		return "?"
	}

	balanceLines := make([]string, 0, len(group.Members))
	for _, m := range group.Members {
		bal := balances[m.ID]
		name := displayName(m.ID)
		switch {
		case bal > 0.01:
			balanceLines = append(balanceLines, fmt.Sprintf("  %s: is owed %s", name, usd(bal)))
		case bal < -0.01:
			balanceLines = append(balanceLines, fmt.Sprintf("  %s: owes %s", name, usd(-bal)))
		default:
			balanceLines = append(balanceLines, fmt.Sprintf("  %s: settled up", name))
		}
	}

	settleLines := make([]string, 0, len(settlements))
	for _, s := range settlements {
		settleLines = append(settleLines, fmt.Sprintf("  %s pays %s %s",
			displayName(s.FromUserID), displayName(s.ToUserID), usd(s.Amount)))
	}

	summary := fmt.Sprintf("Balances in %s:\n%s", group.Name, strings.Join(balanceLines, "\n"))
	if len(settleLines) > 0 {
		summary += "\n\nSuggested settlements:\n" + strings.Join(settleLines, "\n")
	} else {
		summary += "\n\nEveryone is settled up!"
	}

	return &Result{
		Action:  ActionGetBalances,
		Data:    map[string]any{"group": group.Name},
		Summary: summary,
	}, nil
}

func execGetDashboard(ctx context.Context, store storage.Store, user *models.User, args Args) (*Result, error) {
	group, err := findGroup(ctx, store, user, args.GroupName)
	if err != nil {
		return nil, err
	}

	expenses, err := store.ListExpensesByGroup(ctx, group.ID, storage.ExpenseFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}

	total := 0.0
	catTotals := make(map[string]float64)
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
		catTotals[cat] = calculator.Round2(catTotals[cat] + e.Amount)
		memberPaid[e.PayerID] += e.Amount
	}

	cats := make([]string, 0, len(catTotals))
	for cat := range catTotals {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool {
		if catTotals[cats[i]] != catTotals[cats[j]] {
			return catTotals[cats[i]] > catTotals[cats[j]]
		}
		return cats[i] < cats[j]
	})
	catLines := make([]string, 0, len(cats))
	for _, cat := range cats {
		catLines = append(catLines, fmt.Sprintf("  %s: %s", cat, usd(catTotals[cat])))
	}

	memberLines := make([]string, 0, len(group.Members))
	for _, m := range group.Members {
		if paid := memberPaid[m.ID]; paid > 0 {
			memberLines = append(memberLines, fmt.Sprintf("  %s: paid %s", m.DisplayName(), usd(paid)))
		}
	}

	summary := fmt.Sprintf("Dashboard for %s:\n  Total expenses: %s (%d expenses)\n",
		group.Name, usd(total), len(expenses))
	if len(catLines) > 0 {
		summary += "\nBy category:\n" + strings.Join(catLines, "\n")
	}
	if len(memberLines) > 0 {
		summary += "\n\nBy member:\n" + strings.Join(memberLines, "\n")
	}

	return &Result{
		Action:  ActionGetDashboard,
		Data:    map[string]any{"group": group.Name, "total": total},
		Summary: summary,
	}, nil
}

func execSettleDebt(ctx context.Context, store storage.Store, user *models.User, args Args) (*Result, error) {
	group, err := findGroup(ctx, store, user, args.GroupName)
	if err != nil {
		return nil, err
	}
	toUser, err := findMember(group, args.ToUserName)
	if err != nil {
		return nil, err
	}
	if args.Amount <= 0 {
		return nil, errors.New("Amount must be positive.")
	}

	payment := models.NewPayment(group.ID, user.ID, toUser.ID, args.Amount)
	if err := store.CreatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to record the payment: %w", err)
	}

	toName := toUser.DisplayName()
	summary := fmt.Sprintf("Recorded payment of %s from you to %s in %s.",
		usd(args.Amount), toName, group.Name)
	return &Result{
		Action:  ActionSettleDebt,
		Data:    map[string]any{"group": group.Name, "amount": args.Amount, "to": toName},
		Summary: summary,
	}, nil
}

func execListExpenses(ctx context.Context, store storage.Store, user *models.User, args Args) (*Result, error) {
	group, err := findGroup(ctx, store, user, args.GroupName)
	if err != nil {
		return nil, err
	}

	expenses, err := store.ListExpensesByGroup(ctx, group.ID, storage.ExpenseFilter{
		Search:   args.Search,
		Category: args.Category,
		Limit:    10,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}

	if len(expenses) == 0 {
		return &Result{
			Action:  ActionListExpenses,
			Data:    map[string]any{"group": group.Name, "count": 0},
			Summary: fmt.Sprintf("No expenses found in %s.", group.Name),
		}, nil
	}

	lines := make([]string, 0, len(expenses))
	for _, e := range expenses {
		payer := "?"
		if m := group.Member(e.PayerID); m != nil {
			payer = m.DisplayName()
		}
		description := e.Description
		if description == "" {
			description = "No description"
		}
		cat := ""
		if e.Category != "" {
			cat = fmt.Sprintf(" [%s]", e.Category)
		}
		lines = append(lines, fmt.Sprintf("  %s - %s%s (paid by %s)", usd(e.Amount), description, cat, payer))
	}

	return &Result{
		Action:  ActionListExpenses,
		Data:    map[string]any{"group": group.Name, "count": len(expenses)},
		Summary: fmt.Sprintf("Recent expenses in %s:\n%s", group.Name, strings.Join(lines, "\n")),
	}, nil
}

func execAddMember(ctx context.Context, store storage.Store, user *models.User, args Args) (*Result, error) {
	group, err := findGroup(ctx, store, user, args.GroupName)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(args.Email))
	newUser, err := store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up the user: %w", err)
	}
	if newUser == nil {
		return nil, fmt.Errorf("No registered user with email '%s'. They need to sign up first.", email)
	}
	if group.HasMember(newUser.ID) {
		return nil, fmt.Errorf("%s is already in %s.", newUser.DisplayName(), group.Name)
	}

	if err := store.AddGroupMember(ctx, group.ID, newUser.ID); err != nil {
		return nil, fmt.Errorf("failed to add the member: %w", err)
	}

	name := newUser.DisplayName()
	return &Result{
		Action:  ActionAddMember,
		Data:    map[string]any{"group": group.Name, "member": name},
		Summary: fmt.Sprintf("Added %s to %s.", name, group.Name),
	}, nil
}

// findGroup resolves a spoken group name to one of the user's groups,
// preferring an exact case-insensitive match and falling back to a
// substring match.
func findGroup(ctx context.Context, store storage.Store, user *models.User, name string) (*models.Group, error) {
	groups, err := store.ListGroupsByMember(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load your groups: %w", err)
	}

	nameLower := strings.ToLower(name)
	for _, g := range groups {
		if strings.ToLower(g.Name) == nameLower {
			return g, nil
		}
	}
	for _, g := range groups {
		if strings.Contains(strings.ToLower(g.Name), nameLower) {
			return g, nil
		}
	}

	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.Name
	}
	return nil, fmt.Errorf("No group named '%s' found. Your groups: %s", name, strings.Join(names, ", "))
}

// findMember resolves a spoken name or email to a group member,
// preferring an exact match and falling back to a substring match.
func findMember(group *models.Group, nameOrEmail string) (*models.User, error) {
	val := strings.ToLower(strings.TrimSpace(nameOrEmail))
	for _, m := range group.Members {
		if strings.ToLower(m.Email) == val || (m.Name != "" && strings.ToLower(m.Name) == val) {
			return m, nil
		}
	}
	for _, m := range group.Members {
		if (m.Name != "" && strings.Contains(strings.ToLower(m.Name), val)) ||
			strings.Contains(strings.ToLower(m.Email), val) {
			return m, nil
		}
	}

	memberNames := make([]string, len(group.Members))
	for i, m := range group.Members {
		memberNames[i] = m.DisplayName()
	}
	return nil, fmt.Errorf("No member '%s' found in group. Members: %s",
		nameOrEmail, strings.Join(memberNames, ", "))
}

// resolveParticipants turns spoken participant names into members.
// An empty list or a lone "all" means the whole group. "me"/"myself"
// (or the user's own name) resolve to the current user, and the payer
// always participates.
func resolveParticipants(group *models.Group, user *models.User, participantNames []string) ([]*models.User, error) {
	if len(participantNames) == 0 ||
		(len(participantNames) == 1 && strings.EqualFold(participantNames[0], "all")) {
		return group.Members, nil
	}

	var participants []*models.User
	seen := make(map[string]bool)
	add := func(u *models.User) {
		if !seen[u.ID] {
			seen[u.ID] = true
			participants = append(participants, u)
		}
	}

	for _, pname := range participantNames {
		lower := strings.ToLower(pname)
		if lower == "me" || lower == "myself" || (user.Name != "" && lower == strings.ToLower(user.Name)) {
			add(user)
			continue
		}
		member, err := findMember(group, pname)
		if err != nil {
			return nil, err
		}
		add(member)
	}
	add(user)

	return participants, nil
}

// groupBalances folds the group's full history into net balances.
func groupBalances(ctx context.Context, store storage.Store, group *models.Group) (map[string]float64, error) {
	expenses, err := store.ListExpensesByGroup(ctx, group.ID, storage.ExpenseFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}
	payments, err := store.ListPaymentsByGroup(ctx, group.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
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

// usd formats an amount as dollars with two decimals.
func usd(v float64) string {
	return "$" + decimal.NewFromFloat(v).StringFixed(2)
}
