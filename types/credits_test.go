package types

import (
	"encoding/json"
	"testing"
)

func TestCreditsSplit(t *testing.T) {
	tests := []struct {
		name       string
		amount     Credits
		feePercent int64
		fee        Credits
		share      Credits
	}{
		{"Even split", 1000, 5, 50, 950},
		{"Floor on fee side", 999, 5, 49, 950},
		{"Tiny amount", 1, 5, 0, 1},
		{"Below one fee unit", 19, 5, 0, 19},
		{"Exactly one fee unit", 20, 5, 1, 19},
		{"Zero fee percent", 1000, 0, 0, 1000},
		{"Full fee", 1000, 100, 1000, 0},
		{"Negative percent clamped", 1000, -5, 0, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee, share := tt.amount.Split(tt.feePercent)
			if fee != tt.fee {
				t.Errorf("fee: got %d, want %d", fee, tt.fee)
			}
			if share != tt.share {
				t.Errorf("share: got %d, want %d", share, tt.share)
			}
			if fee+share != tt.amount {
				t.Errorf("fee+share = %d, want %d", fee+share, tt.amount)
			}
		})
	}
}

func TestCreditsArithmetic(t *testing.T) {
	if got := NewCredits(100).Add(NewCredits(200)); got != 300 {
		t.Errorf("Add: got %d, want 300", got)
	}
	if got := NewCredits(500).Subtract(NewCredits(200)); got != 300 {
		t.Errorf("Subtract: got %d, want 300", got)
	}
	if !NewCredits(1).IsPositive() || NewCredits(0).IsPositive() {
		t.Error("IsPositive misclassified")
	}
	if !NewCredits(-1).IsNegative() || !NewCredits(0).IsZero() {
		t.Error("IsNegative/IsZero misclassified")
	}
}

func TestCreditsJSON(t *testing.T) {
	data, err := json.Marshal(NewCredits(950))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "950" {
		t.Errorf("Marshal: got %s, want 950", data)
	}

	var c Credits
	if err := json.Unmarshal([]byte("1000"), &c); err != nil {
		t.Fatal(err)
	}
	if c != 1000 {
		t.Errorf("Unmarshal: got %d, want 1000", c)
	}

	if err := json.Unmarshal([]byte(`"oops"`), &c); err == nil {
		t.Error("expected error for non-integer payload")
	}
}

func TestParsePrincipal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Principal
		ok   bool
	}{
		{"Plain", "acct_123", "acct_123", true},
		{"Trimmed", "  acct_123  ", "acct_123", true},
		{"Empty", "", Nobody, false},
		{"Whitespace only", "   ", Nobody, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePrincipal(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("got (%q, %v), want (%q, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}

	if !Nobody.IsZero() {
		t.Error("Nobody should be zero")
	}
}
