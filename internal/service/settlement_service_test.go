package service

import (
	"net/http"
	"testing"
)

type settlementSummaryResponse struct {
	GroupID string `json:"group_id"`
	Members []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"members"`
	Balances []struct {
		UserID  string  `json:"user_id"`
		Balance float64 `json:"balance"`
	} `json:"balances"`
	Settlements []struct {
		FromUserID string  `json:"from_user_id"`
		ToUserID   string  `json:"to_user_id"`
		Amount     float64 `json:"amount"`
	} `json:"settlements"`
}

func getSettlements(t *testing.T, serverURL, token, groupID string) settlementSummaryResponse {
	t.Helper()

	resp, body := doRequest(t, http.MethodGet, serverURL+"/api/settlements/group/"+groupID, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("settlements returned %d: %s", resp.StatusCode, body)
	}
	var summary settlementSummaryResponse
	decodeJSON(t, body, &summary)
	return summary
}

func TestSettlementsFlow(t *testing.T) {
	server, cleanup := setupServer(t)
	defer cleanup()

	aliceToken, aliceID := registerUser(t, server.URL, "alice@example.com", "Alice")
	bobToken, bobID := registerUser(t, server.URL, "bob@example.com", "Bob")
	groupID := createTestGroup(t, server.URL, aliceToken, "Trip", bobID)

	createTestExpense(t, server.URL, aliceToken, map[string]any{
		"group_id":        groupID,
		"payer_id":        aliceID,
		"amount":          100.0,
		"description":     "Hotel",
		"participant_ids": []string{aliceID, bobID},
	})

	summary := getSettlements(t, server.URL, aliceToken, groupID)
	if summary.GroupID != groupID || len(summary.Members) != 2 {
		t.Fatalf("summary mismatch: %+v", summary)
	}
	if len(summary.Balances) != 2 {
		t.Fatalf("expected 2 balances, got %d", len(summary.Balances))
	}
	if summary.Balances[0].UserID != aliceID || summary.Balances[0].Balance != 50.0 {
		t.Errorf("expected alice owed 50, got %+v", summary.Balances[0])
	}
	if summary.Balances[1].UserID != bobID || summary.Balances[1].Balance != -50.0 {
		t.Errorf("expected bob owing 50, got %+v", summary.Balances[1])
	}
	if len(summary.Settlements) != 1 {
		t.Fatalf("expected 1 settlement, got %d", len(summary.Settlements))
	}
	s := summary.Settlements[0]
	if s.FromUserID != bobID || s.ToUserID != aliceID || s.Amount != 50.0 {
		t.Errorf("unexpected settlement: %+v", s)
	}

	// Bob settles his debt; the payer is taken from the token.
	resp, body := doRequest(t, http.MethodPost, server.URL+"/api/settlements/pay", bobToken, map[string]any{
		"group_id":   groupID,
		"to_user_id": aliceID,
		"amount":     50.0,
		"note":       "venmo",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pay returned %d: %s", resp.StatusCode, body)
	}
	var payment struct {
		FromUserID string  `json:"from_user_id"`
		ToUserID   string  `json:"to_user_id"`
		Amount     float64 `json:"amount"`
		Note       string  `json:"note"`
	}
	decodeJSON(t, body, &payment)
	if payment.FromUserID != bobID || payment.ToUserID != aliceID || payment.Amount != 50.0 {
		t.Errorf("unexpected payment: %+v", payment)
	}

	summary = getSettlements(t, server.URL, aliceToken, groupID)
	if len(summary.Settlements) != 0 {
		t.Errorf("expected settled group, got %+v", summary.Settlements)
	}
	for _, b := range summary.Balances {
		if b.Balance != 0 {
			t.Errorf("expected zero balance for %s, got %v", b.UserID, b.Balance)
		}
	}

	resp, body = doRequest(t, http.MethodGet, server.URL+"/api/settlements/payments/"+groupID, aliceToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("payments returned %d: %s", resp.StatusCode, body)
	}
	var payments []struct {
		FromUserID string `json:"from_user_id"`
		Note       string `json:"note"`
	}
	decodeJSON(t, body, &payments)
	if len(payments) != 1 || payments[0].FromUserID != bobID || payments[0].Note != "venmo" {
		t.Errorf("unexpected payments: %+v", payments)
	}
}

func TestRecordPaymentValidation(t *testing.T) {
	server, cleanup := setupServer(t)
	defer cleanup()

	aliceToken, _ := registerUser(t, server.URL, "alice@example.com", "Alice")
	_, bobID := registerUser(t, server.URL, "bob@example.com", "Bob")
	carolToken, carolID := registerUser(t, server.URL, "carol@example.com", "Carol")
	groupID := createTestGroup(t, server.URL, aliceToken, "Trip", bobID)

	t.Run("recipient outside group", func(t *testing.T) {
		resp, body := doRequest(t, http.MethodPost, server.URL+"/api/settlements/pay", aliceToken, map[string]any{
			"group_id":   groupID,
			"to_user_id": carolID,
			"amount":     10.0,
		})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
		if msg := errorMessage(t, body); msg != "Recipient must be a group member" {
			t.Errorf("unexpected error message: %q", msg)
		}
	})

	t.Run("non-positive amount", func(t *testing.T) {
		resp, body := doRequest(t, http.MethodPost, server.URL+"/api/settlements/pay", aliceToken, map[string]any{
			"group_id":   groupID,
			"to_user_id": bobID,
			"amount":     0.0,
		})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
		if msg := errorMessage(t, body); msg != "Amount must be positive" {
			t.Errorf("unexpected error message: %q", msg)
		}
	})

	t.Run("payer must belong to the group", func(t *testing.T) {
		resp, body := doRequest(t, http.MethodPost, server.URL+"/api/settlements/pay", carolToken, map[string]any{
			"group_id":   groupID,
			"to_user_id": bobID,
			"amount":     10.0,
		})
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", resp.StatusCode)
		}
		if msg := errorMessage(t, body); msg != "Not a member" {
			t.Errorf("unexpected error message: %q", msg)
		}
	})
}

func TestDashboard(t *testing.T) {
	server, cleanup := setupServer(t)
	defer cleanup()

	aliceToken, aliceID := registerUser(t, server.URL, "alice@example.com", "Alice")
	bobToken, bobID := registerUser(t, server.URL, "bob@example.com", "Bob")
	groupID := createTestGroup(t, server.URL, aliceToken, "Trip", bobID)

	createTestExpense(t, server.URL, aliceToken, map[string]any{
		"group_id":        groupID,
		"payer_id":        aliceID,
		"amount":          60.0,
		"description":     "Groceries",
		"category":        "food",
		"participant_ids": []string{aliceID, bobID},
	})
	createTestExpense(t, server.URL, bobToken, map[string]any{
		"group_id":        groupID,
		"payer_id":        bobID,
		"amount":          40.0,
		"description":     "Gas",
		"category":        "transport",
		"participant_ids": []string{aliceID, bobID},
	})

	resp, body := doRequest(t, http.MethodGet, server.URL+"/api/settlements/dashboard/"+groupID, aliceToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dashboard returned %d: %s", resp.StatusCode, body)
	}
	var stats struct {
		TotalExpenses  float64            `json:"total_expenses"`
		ExpenseCount   int                `json:"expense_count"`
		CategoryTotals map[string]float64 `json:"category_totals"`
		MemberSpending []struct {
			UserID string  `json:"user_id"`
			Name   string  `json:"name"`
			Paid   float64 `json:"paid"`
		} `json:"member_spending"`
		YourBalance float64 `json:"your_balance"`
	}
	decodeJSON(t, body, &stats)

	if stats.TotalExpenses != 100.0 || stats.ExpenseCount != 2 {
		t.Errorf("totals mismatch: %+v", stats)
	}
	if stats.CategoryTotals["food"] != 60.0 || stats.CategoryTotals["transport"] != 40.0 {
		t.Errorf("category totals mismatch: %v", stats.CategoryTotals)
	}
	if len(stats.MemberSpending) != 2 {
		t.Fatalf("expected spending for both members, got %+v", stats.MemberSpending)
	}
	if stats.MemberSpending[0].UserID != aliceID || stats.MemberSpending[0].Paid != 60.0 {
		t.Errorf("unexpected spending for alice: %+v", stats.MemberSpending[0])
	}
	if stats.MemberSpending[1].UserID != bobID || stats.MemberSpending[1].Paid != 40.0 {
		t.Errorf("unexpected spending for bob: %+v", stats.MemberSpending[1])
	}
	// Alice fronted 60, owes 50 of the combined spend.
	if stats.YourBalance != 10.0 {
		t.Errorf("expected balance 10 for alice, got %v", stats.YourBalance)
	}

	// The same dashboard from Bob's token flips the sign.
	resp, body = doRequest(t, http.MethodGet, server.URL+"/api/settlements/dashboard/"+groupID, bobToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dashboard returned %d: %s", resp.StatusCode, body)
	}
	decodeJSON(t, body, &stats)
	if stats.YourBalance != -10.0 {
		t.Errorf("expected balance -10 for bob, got %v", stats.YourBalance)
	}
}

func TestDashboardIncludesQuietMembers(t *testing.T) {
	server, cleanup := setupServer(t)
	defer cleanup()

	aliceToken, aliceID := registerUser(t, server.URL, "alice@example.com", "Alice")
	_, bobID := registerUser(t, server.URL, "bob@example.com", "Bob")
	groupID := createTestGroup(t, server.URL, aliceToken, "Trip", bobID)

	createTestExpense(t, server.URL, aliceToken, map[string]any{
		"group_id":        groupID,
		"payer_id":        aliceID,
		"amount":          30.0,
		"description":     "Lunch",
		"participant_ids": []string{aliceID},
	})

	resp, body := doRequest(t, http.MethodGet, server.URL+"/api/settlements/dashboard/"+groupID, aliceToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dashboard returned %d: %s", resp.StatusCode, body)
	}
	var stats struct {
		MemberSpending []struct {
			UserID string  `json:"user_id"`
			Paid   float64 `json:"paid"`
		} `json:"member_spending"`
	}
	decodeJSON(t, body, &stats)

	if len(stats.MemberSpending) != 2 {
		t.Fatalf("expected all members listed, got %+v", stats.MemberSpending)
	}
	if stats.MemberSpending[1].UserID != bobID || stats.MemberSpending[1].Paid != 0 {
		t.Errorf("expected bob listed with zero paid, got %+v", stats.MemberSpending[1])
	}
}
