package calculator

import (
	"math"
	"reflect"
	"testing"
)

func TestComputeSettlements(t *testing.T) {
	tests := []struct {
		name     string
		balances map[string]float64
		want     []Transfer
	}{
		{
			name:     "no balances",
			balances: map[string]float64{},
			want:     nil,
		},
		{
			name:     "everyone settled",
			balances: map[string]float64{"alice": 0, "bob": 0, "carol": 0},
			want:     nil,
		},
		{
			name:     "two person debt",
			balances: map[string]float64{"alice": 50.0, "bob": -50.0},
			want: []Transfer{
				{FromUserID: "bob", ToUserID: "alice", Amount: 50.0},
			},
		},
		{
			name:     "one creditor two debtors, largest debt first",
			balances: map[string]float64{"alice": 100.0, "bob": -60.0, "carol": -40.0},
			want: []Transfer{
				{FromUserID: "bob", ToUserID: "alice", Amount: 60.0},
				{FromUserID: "carol", ToUserID: "alice", Amount: 40.0},
			},
		},
		{
			name:     "one debtor two creditors, largest credit first",
			balances: map[string]float64{"alice": -30.0, "bob": 10.0, "carol": 20.0},
			want: []Transfer{
				{FromUserID: "alice", ToUserID: "carol", Amount: 20.0},
				{FromUserID: "alice", ToUserID: "bob", Amount: 10.0},
			},
		},
		{
			name:     "partial match rolls remainder to next creditor",
			balances: map[string]float64{"alice": 70.0, "bob": 30.0, "carol": -100.0},
			want: []Transfer{
				{FromUserID: "carol", ToUserID: "alice", Amount: 70.0},
				{FromUserID: "carol", ToUserID: "bob", Amount: 30.0},
			},
		},
		{
			name:     "equal magnitudes break ties by member id",
			balances: map[string]float64{"alice": -25.0, "bob": -25.0, "carol": 50.0},
			want: []Transfer{
				{FromUserID: "alice", ToUserID: "carol", Amount: 25.0},
				{FromUserID: "bob", ToUserID: "carol", Amount: 25.0},
			},
		},
		{
			name:     "noise within epsilon is ignored",
			balances: map[string]float64{"alice": 5e-10, "bob": -5e-10},
			want:     nil,
		},
		{
			name:     "sub-epsilon residue ends the walk without a spurious transfer",
			balances: map[string]float64{"alice": 100.0, "bob": -100.0000000001},
			want: []Transfer{
				{FromUserID: "bob", ToUserID: "alice", Amount: 100.0},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeSettlements(tt.balances)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ComputeSettlements() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputeSettlementsTransferBound(t *testing.T) {
	balances := map[string]float64{
		"alice": 80.0,
		"bob":   20.0,
		"carol": -45.0,
		"dave":  -35.0,
		"erin":  -20.0,
	}

	transfers := ComputeSettlements(balances)

	// Five members with non-zero balances settle in at most four transfers.
	if len(transfers) > 4 {
		t.Errorf("got %d transfers, want at most 4", len(transfers))
	}
}

func TestComputeSettlementsSettlesGroup(t *testing.T) {
	balances := map[string]float64{
		"alice": 123.45,
		"bob":   -41.15,
		"carol": -82.30,
		"dave":  0,
	}

	transfers := ComputeSettlements(balances)

	residual := make(map[string]float64, len(balances))
	for id, balance := range balances {
		residual[id] = balance
	}
	for _, tr := range transfers {
		residual[tr.FromUserID] += tr.Amount
		residual[tr.ToUserID] -= tr.Amount
	}
	for id, r := range residual {
		if math.Abs(r) > 0.011 {
			t.Errorf("residual[%s] = %v after applying transfers, want ~0", id, r)
		}
	}
}

func TestComputeSettlementsDeterministic(t *testing.T) {
	balances := map[string]float64{
		"alice": -20.0,
		"bob":   -20.0,
		"carol": 15.0,
		"dave":  15.0,
		"erin":  10.0,
	}

	first := ComputeSettlements(balances)
	for i := 0; i < 20; i++ {
		if got := ComputeSettlements(balances); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d produced %v, first run produced %v", i, got, first)
		}
	}
}
