// Package service business logic tests. Placement math and validation
// are exercised as property-based simulations without a database.
package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"eazybet-backend/internal/config"
	"eazybet-backend/internal/model"
)

func testBettingConfig() config.BettingConfig {
	return config.BettingConfig{
		MinStakeTokens:   10,
		MinStakeDiamonds: 1,
		BonusRate:        0.01,
		MaxComboLegs:     10,
	}
}

// drawOdds generates realistic bookmaker odds in [1.01, 20.00] with two
// decimal places.
func drawOdds(t *rapid.T, label string) decimal.Decimal {
	cents := rapid.Int64Range(101, 2000).Draw(t, label)
	return decimal.New(cents, -2)
}

// TestPayoutPromiseProperty: for any stake and odds, the quoted payout
// is round(stake*odds), the quote never loses the stake's value at
// odds >= 1, and a token bonus is round(profit*rate), never negative.
func TestPayoutPromiseProperty(t *testing.T) {
	svc := &BettingService{cfg: testBettingConfig()}

	rapid.Check(t, func(t *rapid.T) {
		stake := decimal.NewFromInt(rapid.Int64Range(10, 100000).Draw(t, "stake"))
		odds := drawOdds(t, "odds")

		potential, bonus := svc.payout(stake, odds, model.CurrencyTokens)

		want := stake.Mul(odds).Round(0)
		if !potential.Equal(want) {
			t.Fatalf("potential = %s, want round(%s*%s) = %s", potential, stake, odds, want)
		}

		wantBonus := want.Sub(stake).Mul(decimal.NewFromFloat(0.01)).Round(0)
		if wantBonus.IsNegative() {
			wantBonus = decimal.Zero
		}
		if !bonus.Equal(wantBonus) {
			t.Fatalf("bonus = %s, want %s", bonus, wantBonus)
		}
		if bonus.IsNegative() {
			t.Fatalf("bonus must never be negative, got %s", bonus)
		}
	})
}

// TestDiamondStakeNoBonusProperty: diamond stakes never earn a bonus.
func TestDiamondStakeNoBonusProperty(t *testing.T) {
	svc := &BettingService{cfg: testBettingConfig()}

	rapid.Check(t, func(t *rapid.T) {
		stake := decimal.NewFromInt(rapid.Int64Range(1, 100000).Draw(t, "stake"))
		odds := drawOdds(t, "odds")

		_, bonus := svc.payout(stake, odds, model.CurrencyDiamonds)
		if !bonus.IsZero() {
			t.Fatalf("diamond stake earned bonus %s", bonus)
		}
	})
}

// TestSettlementPayoutBoundProperty: the floored settlement payout
// never exceeds the rounded placement quote, and differs by less than
// one unit.
func TestSettlementPayoutBoundProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		stake := decimal.NewFromInt(rapid.Int64Range(1, 100000).Draw(t, "stake"))
		odds := drawOdds(t, "odds")

		quoted := stake.Mul(odds).Round(0)
		realized := stake.Mul(odds).Floor()

		if realized.GreaterThan(quoted) {
			t.Fatalf("realized %s exceeds quote %s", realized, quoted)
		}
		if quoted.Sub(realized).GreaterThan(decimal.NewFromInt(1)) {
			t.Fatalf("quote %s and realized %s differ by more than one unit", quoted, realized)
		}
	})
}

// TestStakeValidationProperty: stakes below the per-currency minimum
// are rejected, stakes at or above it pass.
func TestStakeValidationProperty(t *testing.T) {
	cfg := testBettingConfig()
	svc := &BettingService{cfg: cfg}

	rapid.Check(t, func(t *rapid.T) {
		stake := decimal.NewFromInt(rapid.Int64Range(-100, 100000).Draw(t, "stake"))
		useDiamonds := rapid.Bool().Draw(t, "useDiamonds")

		currency := model.CurrencyTokens
		min := decimal.NewFromFloat(cfg.MinStakeTokens)
		if useDiamonds {
			currency = model.CurrencyDiamonds
			min = decimal.NewFromFloat(cfg.MinStakeDiamonds)
		}

		err := svc.validateStake(stake, currency)
		if stake.GreaterThanOrEqual(min) {
			if err != nil {
				t.Fatalf("stake %s >= min %s rejected: %v", stake, min, err)
			}
		} else if err == nil {
			t.Fatalf("stake %s < min %s accepted", stake, min)
		}
	})
}

func TestValidateStakeRejectsUnknownCurrency(t *testing.T) {
	svc := &BettingService{cfg: testBettingConfig()}

	err := svc.validateStake(decimal.NewFromInt(100), model.Currency("euros"))
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

// TestComboOddsProductProperty: total combo odds are the product of
// the leg odds, so the quote from total odds equals the quote from
// multiplying legs one by one.
func TestComboOddsProductProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		legs := rapid.IntRange(2, 10).Draw(t, "legs")

		total := decimal.NewFromInt(1)
		for i := 0; i < legs; i++ {
			total = total.Mul(drawOdds(t, "legOdds"))
		}

		stake := decimal.NewFromInt(rapid.Int64Range(10, 10000).Draw(t, "stake"))
		quote := stake.Mul(total).Round(0)

		if quote.LessThan(decimal.Zero) {
			t.Fatalf("combo quote went negative: %s", quote)
		}
		// With every leg >= 1.01 the multi quote can never undercut the stake.
		if quote.LessThan(stake) {
			t.Fatalf("combo quote %s below stake %s at total odds %s", quote, stake, total)
		}
	})
}
