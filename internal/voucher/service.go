package voucher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/boulangerie-api/internal/pricing"
)

// PreviewResult describes the outcome of evaluating a promotion without mutating state.
type PreviewResult struct {
	Code     string        `json:"code"`
	Rate     string        `json:"rate"`
	Subtotal pricing.Money `json:"subtotal"`
	Discount pricing.Money `json:"discount"`
}

// Service encapsulates promotion lookup and evaluation.
type Service struct {
	Store Store
	Now   func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Lookup returns the rule for code. Codes are case-sensitive.
func (s *Service) Lookup(ctx context.Context, code string) (Rule, error) {
	if s == nil || s.Store == nil {
		return Rule{}, errors.New("promotion service not configured")
	}
	if strings.TrimSpace(code) == "" {
		return Rule{}, fmt.Errorf("code is required: %w", ErrNotFound)
	}
	return s.Store.Get(ctx, code)
}

// Evaluate resolves code and validates it against subtotal at the current time.
func (s *Service) Evaluate(ctx context.Context, code string, subtotal pricing.Money) (Rule, error) {
	rule, err := s.Lookup(ctx, code)
	if err != nil {
		return Rule{}, err
	}
	if err := rule.Validate(s.now(), subtotal); err != nil {
		return rule, err
	}
	return rule, nil
}

// Preview performs a dry-run evaluation for a hypothetical subtotal.
func (s *Service) Preview(ctx context.Context, code string, subtotal pricing.Money) (PreviewResult, error) {
	rule, err := s.Evaluate(ctx, code, subtotal)
	if err != nil {
		return PreviewResult{}, err
	}
	return PreviewResult{
		Code:     rule.Code,
		Rate:     rule.Rate.String(),
		Subtotal: subtotal,
		Discount: Compute(subtotal, rule),
	}, nil
}

// Put validates and stores rule, replacing any previous rule with the same code.
func (s *Service) Put(ctx context.Context, rule Rule) error {
	if s == nil || s.Store == nil {
		return errors.New("promotion service not configured")
	}
	if err := rule.Check(); err != nil {
		return err
	}
	return s.Store.Put(ctx, rule)
}

// Delete removes the rule for code.
func (s *Service) Delete(ctx context.Context, code string) error {
	if s == nil || s.Store == nil {
		return errors.New("promotion service not configured")
	}
	return s.Store.Delete(ctx, code)
}

// List returns all rules ordered by code.
func (s *Service) List(ctx context.Context) ([]Rule, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("promotion service not configured")
	}
	return s.Store.List(ctx)
}

// Seed stores every rule that is not already present.
func (s *Service) Seed(ctx context.Context, rules []Rule) (int, error) {
	var added int
	for _, r := range rules {
		if _, err := s.Store.Get(ctx, r.Code); err == nil {
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return added, err
		}
		if err := s.Put(ctx, r); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}
