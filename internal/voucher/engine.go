package voucher

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/boulangerie-api/internal/pricing"
)

var (
	// ErrNotFound is returned when no promotion matches the code exactly.
	ErrNotFound = errors.New("promotion not found")
	// ErrVoucherInactive is returned when attempting to use a promotion before its active window.
	ErrVoucherInactive = errors.New("promotion not active")
	// ErrVoucherExpired is returned when the promotion has already expired.
	ErrVoucherExpired = errors.New("promotion expired")
	// ErrMinimumSpendUnmet indicates the cart subtotal did not meet the promotion requirement.
	ErrMinimumSpendUnmet = errors.New("promotion minimum spend not met")
	// ErrInvalidRule is returned when a rule definition is malformed.
	ErrInvalidRule = errors.New("invalid promotion rule")
)

// Rule captures the runtime constraints of a promotion code.
type Rule struct {
	Code        string          `json:"code"`
	Rate        decimal.Decimal `json:"rate"`
	Description string          `json:"description,omitempty"`
	MinSpend    pricing.Money   `json:"minSpend,omitempty"`
	ValidFrom   *time.Time      `json:"validFrom,omitempty"`
	ValidTo     *time.Time      `json:"validTo,omitempty"`
}

// Check verifies the rule definition itself is well formed.
func (r Rule) Check() error {
	if strings.TrimSpace(r.Code) == "" || strings.ContainsAny(r.Code, " \t\n") {
		return fmt.Errorf("code %q: %w", r.Code, ErrInvalidRule)
	}
	if err := r.Promotion().Validate(); err != nil {
		return fmt.Errorf("%s: %w: %w", r.Code, ErrInvalidRule, err)
	}
	if r.MinSpend < 0 {
		return fmt.Errorf("%s: negative minimum spend: %w", r.Code, ErrInvalidRule)
	}
	if r.ValidFrom != nil && r.ValidTo != nil && r.ValidTo.Before(*r.ValidFrom) {
		return fmt.Errorf("%s: window ends before it starts: %w", r.Code, ErrInvalidRule)
	}
	return nil
}

// Validate ensures the rule can be applied at the provided instant and subtotal.
func (r Rule) Validate(now time.Time, subtotal pricing.Money) error {
	if r.ValidFrom != nil && now.Before(*r.ValidFrom) {
		return ErrVoucherInactive
	}
	if r.ValidTo != nil && now.After(*r.ValidTo) {
		return ErrVoucherExpired
	}
	if subtotal < r.MinSpend {
		return ErrMinimumSpendUnmet
	}
	return nil
}

// Promotion converts the rule into the pricing engine's promotion value.
func (r Rule) Promotion() pricing.Promotion {
	return pricing.Promotion{Code: r.Code, Rate: r.Rate}
}

// Compute determines the discount the rule grants on subtotal.
func Compute(subtotal pricing.Money, r Rule) pricing.Money {
	return pricing.DiscountFor(subtotal, r.Rate)
}

// ParseRules reads a comma separated list of CODE:rate pairs such as
// "BIENVENUE20:0.2,FIDELITE10:0.1". Codes keep their case.
func ParseRules(csv string) ([]Rule, error) {
	if strings.TrimSpace(csv) == "" {
		return nil, nil
	}
	var rules []Rule
	seen := map[string]struct{}{}
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		code, rawRate, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("entry %q missing rate: %w", part, ErrInvalidRule)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(rawRate))
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", part, ErrInvalidRule)
		}
		rule := Rule{Code: strings.TrimSpace(code), Rate: rate}
		if err := rule.Check(); err != nil {
			return nil, err
		}
		if _, dup := seen[rule.Code]; dup {
			return nil, fmt.Errorf("duplicate code %q: %w", rule.Code, ErrInvalidRule)
		}
		seen[rule.Code] = struct{}{}
		rules = append(rules, rule)
	}
	return rules, nil
}
