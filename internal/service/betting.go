// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"eazybet-backend/internal/audit"
	"eazybet-backend/internal/config"
	"eazybet-backend/internal/events"
	"eazybet-backend/internal/metrics"
	"eazybet-backend/internal/model"
	"eazybet-backend/internal/repository"
)

// Common errors for betting operations.
var (
	ErrInvalidStake       = errors.New("invalid stake")
	ErrInvalidChoice      = errors.New("invalid choice")
	ErrInvalidCurrency    = errors.New("invalid currency")
	ErrMatchNotFound      = errors.New("match not found")
	ErrMatchUnavailable   = errors.New("match not available for betting")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrAccountNotFound    = errors.New("account not found")
	ErrTooFewSelections   = errors.New("combo requires at least two selections")
	ErrTooManySelections  = errors.New("too many combo selections")
	ErrDuplicateSelection = errors.New("duplicate match in combo selections")
	ErrWagerCreation      = errors.New("failed to record wager")
	ErrCompensationFailed = errors.New("ledger compensation failed")
)

// MatchFeed is the read interface the betting core consumes for match
// state. Implemented by repository.MatchRepository; owned externally.
type MatchFeed interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Match, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Match, error)
	ListFinishedUnsettled(ctx context.Context) ([]*model.Match, error)
	MarkSettled(ctx context.Context, id uuid.UUID) error
}

// SelectionInput is one requested combo leg. Odds are copied from the
// match server-side, never trusted from the client.
type SelectionInput struct {
	MatchID uuid.UUID
	Choice  model.Choice
}

// BettingService validates wager requests, debits the ledger and
// records the wager, compensating the ledger when recording fails.
type BettingService struct {
	accounts *repository.AccountRepository
	wagers   *repository.WagerRepository
	combos   *repository.ComboRepository
	matches  MatchFeed
	audit    *audit.Log
	pub      *events.Publisher
	cfg      config.BettingConfig
}

// NewBettingService creates a new BettingService instance.
func NewBettingService(
	accounts *repository.AccountRepository,
	wagers *repository.WagerRepository,
	combos *repository.ComboRepository,
	matches MatchFeed,
	auditLog *audit.Log,
	pub *events.Publisher,
	cfg config.BettingConfig,
) *BettingService {
	return &BettingService{
		accounts: accounts,
		wagers:   wagers,
		combos:   combos,
		matches:  matches,
		audit:    auditLog,
		pub:      pub,
		cfg:      cfg,
	}
}

// validateStake checks the stake against the per-currency minimum.
// Rejected before any store access.
func (s *BettingService) validateStake(stake decimal.Decimal, currency model.Currency) error {
	if !currency.Valid() {
		return ErrInvalidCurrency
	}
	if !stake.IsPositive() {
		return ErrInvalidStake
	}
	min := s.cfg.MinStake(currency == model.CurrencyDiamonds)
	if stake.LessThan(min) {
		return ErrInvalidStake
	}
	return nil
}

// payout computes the placement-time promise: the rounded payout and,
// for token stakes, the diamond bonus earned from the profit.
func (s *BettingService) payout(stake, odds decimal.Decimal, currency model.Currency) (potential, bonus decimal.Decimal) {
	potential = stake.Mul(odds).Round(0)
	bonus = decimal.Zero
	if currency == model.CurrencyTokens {
		bonus = potential.Sub(stake).Mul(s.cfg.BonusRateDecimal()).Round(0)
		if bonus.IsNegative() {
			bonus = decimal.Zero
		}
	}
	return potential, bonus
}

// rejected counts a refused placement and passes the error through.
func rejected(reason string, err error) error {
	metrics.BetsRejected.WithLabelValues(reason).Inc()
	return err
}

// mapLedgerErr translates repository sentinels into the service taxonomy.
func mapLedgerErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrInsufficientFunds):
		return ErrInsufficientFunds
	case errors.Is(err, repository.ErrAccountNotFound):
		return ErrAccountNotFound
	default:
		return err
	}
}

// PlaceBet places a single-match wager.
//
// Precondition order: stake minimum, match availability, balance. The
// balance is not pre-checked: the conditional debit re-validates it at
// mutation time, which is what prevents two concurrent placements from
// overdrawing the account.
func (s *BettingService) PlaceBet(
	ctx context.Context,
	accountID, matchID uuid.UUID,
	choice model.Choice,
	stake decimal.Decimal,
	currency model.Currency,
) (*model.Wager, error) {
	if !choice.Valid() {
		return nil, rejected("invalid_choice", ErrInvalidChoice)
	}
	if err := s.validateStake(stake, currency); err != nil {
		return nil, rejected("invalid_stake", err)
	}

	match, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repository.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match: %w", err)
	}
	if match.Status != model.MatchUpcoming {
		return nil, rejected("match_unavailable", ErrMatchUnavailable)
	}

	odds := match.Odds(choice)
	potential, bonus := s.payout(stake, odds, currency)

	if err := s.accounts.DebitForWager(ctx, accountID, currency, stake); err != nil {
		return nil, rejected("insufficient_funds", mapLedgerErr(err))
	}

	wager, err := s.wagers.Create(ctx, &model.Wager{
		AccountID:       accountID,
		MatchID:         matchID,
		Choice:          choice,
		Stake:           stake,
		Currency:        currency,
		Odds:            odds,
		PotentialPayout: potential,
		PotentialBonus:  bonus,
	})
	if err != nil {
		// The debit already happened; restore the exact pre-debit
		// balance and counter before surfacing the failure.
		if compErr := s.compensate(ctx, accountID, currency, stake, map[string]any{
			"match_id": matchID.String(),
			"stake":    stake.String(),
		}); compErr != nil {
			return nil, compErr
		}
		return nil, fmt.Errorf("%w: %v", ErrWagerCreation, err)
	}

	s.audit.Record(ctx, model.LogBetPlaced, map[string]any{
		"wager_id":   wager.ID.String(),
		"account_id": accountID.String(),
		"match_id":   matchID.String(),
		"choice":     string(choice),
		"stake":      stake.String(),
		"currency":   string(currency),
	})
	s.pub.PublishBetPlaced(ctx, events.BetPlaced{
		WagerID:   wager.ID.String(),
		AccountID: accountID.String(),
		Stake:     stake,
		Currency:  string(currency),
		Odds:      odds,
	})
	metrics.BetsPlaced.WithLabelValues("simple").Inc()

	return wager, nil
}

// PlaceComboBet places a multi-match wager. All selections must
// reference distinct UPCOMING matches; the combo is created atomically
// with its selections or not at all.
func (s *BettingService) PlaceComboBet(
	ctx context.Context,
	accountID uuid.UUID,
	inputs []SelectionInput,
	stake decimal.Decimal,
	currency model.Currency,
) (*model.ComboWager, error) {
	if len(inputs) < 2 {
		return nil, ErrTooFewSelections
	}
	if s.cfg.MaxComboLegs > 0 && len(inputs) > s.cfg.MaxComboLegs {
		return nil, ErrTooManySelections
	}
	if err := s.validateStake(stake, currency); err != nil {
		return nil, err
	}

	matchIDs := make([]uuid.UUID, 0, len(inputs))
	seen := make(map[uuid.UUID]struct{}, len(inputs))
	for _, in := range inputs {
		if !in.Choice.Valid() {
			return nil, ErrInvalidChoice
		}
		if _, dup := seen[in.MatchID]; dup {
			return nil, ErrDuplicateSelection
		}
		seen[in.MatchID] = struct{}{}
		matchIDs = append(matchIDs, in.MatchID)
	}

	matches, err := s.matches.GetByIDs(ctx, matchIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load matches: %w", err)
	}

	selections := make([]model.Selection, 0, len(inputs))
	totalOdds := decimal.NewFromInt(1)
	for _, in := range inputs {
		match, ok := matches[in.MatchID]
		if !ok {
			return nil, ErrMatchNotFound
		}
		if match.Status != model.MatchUpcoming {
			return nil, ErrMatchUnavailable
		}
		odds := match.Odds(in.Choice)
		totalOdds = totalOdds.Mul(odds)
		selections = append(selections, model.Selection{
			MatchID: in.MatchID,
			Choice:  in.Choice,
			Odds:    odds,
		})
	}

	potential, bonus := s.payout(stake, totalOdds, currency)

	if err := s.accounts.DebitForWager(ctx, accountID, currency, stake); err != nil {
		return nil, rejected("insufficient_funds", mapLedgerErr(err))
	}

	combo, err := s.combos.CreateHeader(ctx, &model.ComboWager{
		AccountID:       accountID,
		Stake:           stake,
		Currency:        currency,
		TotalOdds:       totalOdds,
		PotentialPayout: potential,
		PotentialBonus:  bonus,
	})
	if err != nil {
		if compErr := s.compensate(ctx, accountID, currency, stake, map[string]any{
			"stake": stake.String(),
		}); compErr != nil {
			return nil, compErr
		}
		return nil, fmt.Errorf("%w: %v", ErrWagerCreation, err)
	}

	if err := s.combos.InsertSelections(ctx, combo.ID, selections); err != nil {
		// Two-step rollback: drop the orphaned header, then restore
		// the ledger. Both steps are required.
		if delErr := s.combos.DeleteHeader(ctx, combo.ID); delErr != nil {
			log.Error().Err(delErr).
				Str("combo_id", combo.ID.String()).
				Msg("Failed to delete orphaned combo header during rollback")
		}
		if compErr := s.compensate(ctx, accountID, currency, stake, map[string]any{
			"combo_id": combo.ID.String(),
			"stake":    stake.String(),
		}); compErr != nil {
			return nil, compErr
		}
		return nil, fmt.Errorf("%w: %v", ErrWagerCreation, err)
	}
	combo.Selections = selections

	s.audit.Record(ctx, model.LogComboBetPlaced, map[string]any{
		"combo_id":   combo.ID.String(),
		"account_id": accountID.String(),
		"legs":       len(selections),
		"total_odds": totalOdds.String(),
		"stake":      stake.String(),
		"currency":   string(currency),
	})
	s.pub.PublishBetPlaced(ctx, events.BetPlaced{
		WagerID:   combo.ID.String(),
		AccountID: accountID.String(),
		Combo:     true,
		Stake:     stake,
		Currency:  string(currency),
		Odds:      totalOdds,
	})
	metrics.BetsPlaced.WithLabelValues("combo").Inc()

	return combo, nil
}

// compensate reverses a placement debit. A compensation failure is the
// one operationally fatal error class: the stake left the ledger with
// no wager to show for it, so it is logged loudly, counted, and
// escalated instead of being swallowed.
func (s *BettingService) compensate(
	ctx context.Context,
	accountID uuid.UUID,
	currency model.Currency,
	stake decimal.Decimal,
	details map[string]any,
) error {
	if err := s.accounts.CompensateWagerDebit(ctx, accountID, currency, stake); err != nil {
		log.Error().Err(err).
			Str("account_id", accountID.String()).
			Str("currency", string(currency)).
			Str("stake", stake.String()).
			Msg("COMPENSATION FAILED: debited stake could not be restored, manual reconciliation required")
		payload := map[string]any{
			"account_id": accountID.String(),
			"currency":   string(currency),
		}
		for k, v := range details {
			payload[k] = v
		}
		s.audit.Record(ctx, model.LogCompensationFailed, payload)
		metrics.CompensationFailures.Inc()
		return fmt.Errorf("%w: %v", ErrCompensationFailed, err)
	}
	return nil
}
