package calculator

import (
	"math"
	"testing"
)

func TestParticipantShares(t *testing.T) {
	tests := []struct {
		name    string
		expense Expense
		want    map[string]float64
	}{
		{
			name: "equal split between two",
			expense: Expense{
				PayerID:        "alice",
				Amount:         100.0,
				ParticipantIDs: []string{"alice", "bob"},
				SplitType:      SplitEqual,
			},
			want: map[string]float64{"alice": 50.0, "bob": 50.0},
		},
		{
			name: "equal split with uneven cents",
			expense: Expense{
				PayerID:        "alice",
				Amount:         100.0,
				ParticipantIDs: []string{"alice", "bob", "carol"},
				SplitType:      SplitEqual,
			},
			want: map[string]float64{"alice": 100.0 / 3, "bob": 100.0 / 3, "carol": 100.0 / 3},
		},
		{
			name: "custom split uses recorded shares",
			expense: Expense{
				PayerID:        "alice",
				Amount:         90.0,
				ParticipantIDs: []string{"alice", "bob"},
				SplitType:      SplitCustom,
				Shares:         map[string]float64{"alice": 60.0, "bob": 30.0},
			},
			want: map[string]float64{"alice": 60.0, "bob": 30.0},
		},
		{
			name: "custom split without shares falls back to equal",
			expense: Expense{
				PayerID:        "alice",
				Amount:         40.0,
				ParticipantIDs: []string{"alice", "bob"},
				SplitType:      SplitCustom,
			},
			want: map[string]float64{"alice": 20.0, "bob": 20.0},
		},
		{
			name: "no participants yields no shares",
			expense: Expense{
				PayerID:   "alice",
				Amount:    25.0,
				SplitType: SplitEqual,
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParticipantShares(tt.expense)
			if len(got) != len(tt.want) {
				t.Fatalf("ParticipantShares() returned %d shares, want %d", len(got), len(tt.want))
			}
			for userID, want := range tt.want {
				if math.Abs(got[userID]-want) > 1e-9 {
					t.Errorf("share[%s] = %v, want %v", userID, got[userID], want)
				}
			}
		})
	}
}

func TestComputeBalances(t *testing.T) {
	tests := []struct {
		name      string
		memberIDs []string
		expenses  []Expense
		payments  []Payment
		want      map[string]float64
	}{
		{
			name:      "no activity leaves everyone at zero",
			memberIDs: []string{"alice", "bob"},
			want:      map[string]float64{"alice": 0, "bob": 0},
		},
		{
			name:      "equal split with payer participating",
			memberIDs: []string{"alice", "bob"},
			expenses: []Expense{
				{PayerID: "alice", Amount: 100.0, ParticipantIDs: []string{"alice", "bob"}, SplitType: SplitEqual},
			},
			want: map[string]float64{"alice": 50.0, "bob": -50.0},
		},
		{
			name:      "payer not participating is credited in full",
			memberIDs: []string{"alice", "bob", "carol"},
			expenses: []Expense{
				{PayerID: "alice", Amount: 60.0, ParticipantIDs: []string{"bob", "carol"}, SplitType: SplitEqual},
			},
			want: map[string]float64{"alice": 60.0, "bob": -30.0, "carol": -30.0},
		},
		{
			name:      "custom shares debit exact amounts",
			memberIDs: []string{"alice", "bob", "carol"},
			expenses: []Expense{
				{
					PayerID:        "alice",
					Amount:         100.0,
					ParticipantIDs: []string{"alice", "bob", "carol"},
					SplitType:      SplitCustom,
					Shares:         map[string]float64{"alice": 20.0, "bob": 30.0, "carol": 50.0},
				},
			},
			want: map[string]float64{"alice": 80.0, "bob": -30.0, "carol": -50.0},
		},
		{
			name:      "expense without participants is skipped entirely",
			memberIDs: []string{"alice", "bob"},
			expenses: []Expense{
				{PayerID: "alice", Amount: 75.0, SplitType: SplitEqual},
			},
			want: map[string]float64{"alice": 0, "bob": 0},
		},
		{
			name:      "payment moves balance from debtor to creditor",
			memberIDs: []string{"alice", "bob"},
			expenses: []Expense{
				{PayerID: "alice", Amount: 100.0, ParticipantIDs: []string{"alice", "bob"}, SplitType: SplitEqual},
			},
			payments: []Payment{
				{FromUserID: "bob", ToUserID: "alice", Amount: 50.0},
			},
			want: map[string]float64{"alice": 0, "bob": 0},
		},
		{
			name:      "overpayment flips the sign",
			memberIDs: []string{"alice", "bob"},
			expenses: []Expense{
				{PayerID: "alice", Amount: 100.0, ParticipantIDs: []string{"alice", "bob"}, SplitType: SplitEqual},
			},
			payments: []Payment{
				{FromUserID: "bob", ToUserID: "alice", Amount: 80.0},
			},
			want: map[string]float64{"alice": -30.0, "bob": 30.0},
		},
		{
			name:      "mixed expenses and payments",
			memberIDs: []string{"alice", "bob", "carol"},
			expenses: []Expense{
				{PayerID: "alice", Amount: 90.0, ParticipantIDs: []string{"alice", "bob", "carol"}, SplitType: SplitEqual},
				{PayerID: "bob", Amount: 30.0, ParticipantIDs: []string{"bob", "carol"}, SplitType: SplitEqual},
			},
			payments: []Payment{
				{FromUserID: "carol", ToUserID: "alice", Amount: 10.0},
			},
			want: map[string]float64{"alice": 50.0, "bob": -15.0, "carol": -35.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeBalances(tt.memberIDs, tt.expenses, tt.payments)
			if len(got) != len(tt.want) {
				t.Fatalf("ComputeBalances() returned %d members, want %d", len(got), len(tt.want))
			}
			for userID, want := range tt.want {
				if math.Abs(got[userID]-want) > 1e-9 {
					t.Errorf("balance[%s] = %v, want %v", userID, got[userID], want)
				}
			}
		})
	}
}

// Shares accumulate unrounded, so repeating an awkward division must not
// drift the final balance by a cent.
func TestComputeBalancesRoundsOnceAtTheEnd(t *testing.T) {
	members := []string{"alice", "bob", "carol"}
	expenses := []Expense{
		{PayerID: "alice", Amount: 1.0, ParticipantIDs: members, SplitType: SplitEqual},
		{PayerID: "alice", Amount: 1.0, ParticipantIDs: members, SplitType: SplitEqual},
		{PayerID: "alice", Amount: 1.0, ParticipantIDs: members, SplitType: SplitEqual},
	}

	got := ComputeBalances(members, expenses, nil)

	// Rounding each 0.3333... share per expense would leave bob at -0.99.
	if got["bob"] != -1.0 {
		t.Errorf("balance[bob] = %v, want -1.0", got["bob"])
	}
	if got["alice"] != 2.0 {
		t.Errorf("balance[alice] = %v, want 2.0", got["alice"])
	}
}

func TestComputeBalancesConservation(t *testing.T) {
	members := []string{"alice", "bob", "carol", "dave"}
	expenses := []Expense{
		{PayerID: "alice", Amount: 120.0, ParticipantIDs: members, SplitType: SplitEqual},
		{PayerID: "bob", Amount: 45.5, ParticipantIDs: []string{"bob", "carol"}, SplitType: SplitEqual},
		{
			PayerID:        "carol",
			Amount:         60.0,
			ParticipantIDs: []string{"alice", "bob", "dave"},
			SplitType:      SplitCustom,
			Shares:         map[string]float64{"alice": 25.0, "bob": 15.0, "dave": 20.0},
		},
	}
	payments := []Payment{
		{FromUserID: "dave", ToUserID: "alice", Amount: 30.0},
		{FromUserID: "carol", ToUserID: "alice", Amount: 12.25},
	}

	balances := ComputeBalances(members, expenses, payments)

	sum := 0.0
	for _, balance := range balances {
		sum += balance
	}
	if math.Abs(sum) > 1e-6 {
		t.Errorf("balances sum to %v, want 0", sum)
	}
}
