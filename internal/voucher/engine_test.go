package voucher

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestComputePercent(t *testing.T) {
	rule := Rule{Code: "BIENVENUE20", Rate: decimal.RequireFromString("0.2")}
	discount := Compute(4800, rule)
	if discount != 960 {
		t.Fatalf("expected 960 discount, got %d", discount)
	}
}

func TestValidateWindowAndMinSpend(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	from := now.Add(time.Hour)
	to := now.Add(-time.Hour)

	if err := (Rule{ValidFrom: &from}).Validate(now, 0); !errors.Is(err, ErrVoucherInactive) {
		t.Fatalf("expected ErrVoucherInactive, got %v", err)
	}
	if err := (Rule{ValidTo: &to}).Validate(now, 0); !errors.Is(err, ErrVoucherExpired) {
		t.Fatalf("expected ErrVoucherExpired, got %v", err)
	}
	if err := (Rule{MinSpend: 5000}).Validate(now, 4999); !errors.Is(err, ErrMinimumSpendUnmet) {
		t.Fatalf("expected ErrMinimumSpendUnmet, got %v", err)
	}
	if err := (Rule{MinSpend: 5000}).Validate(now, 5000); err != nil {
		t.Fatalf("expected valid rule, got %v", err)
	}
}

func TestCheckRejectsOutOfRangeRate(t *testing.T) {
	rule := Rule{Code: "TROP", Rate: decimal.RequireFromString("1.5")}
	if err := rule.Check(); !errors.Is(err, ErrInvalidRule) {
		t.Fatalf("expected ErrInvalidRule, got %v", err)
	}
}

func TestParseRules(t *testing.T) {
	rules, err := ParseRules("BIENVENUE20:0.2, fidelite10:0.10")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	if rules[1].Code != "fidelite10" {
		t.Fatalf("code case must be kept, got %q", rules[1].Code)
	}
	if !rules[1].Rate.Equal(decimal.RequireFromString("0.1")) {
		t.Fatalf("unexpected rate %s", rules[1].Rate)
	}

	for _, bad := range []string{"NORATE", "X:abc", "X:2", "A:0.1,A:0.2"} {
		if _, err := ParseRules(bad); !errors.Is(err, ErrInvalidRule) {
			t.Fatalf("%q: expected ErrInvalidRule, got %v", bad, err)
		}
	}
}
