package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"eazybet-backend/internal/audit"
	"eazybet-backend/internal/events"
	"eazybet-backend/internal/metrics"
	"eazybet-backend/internal/model"
	"eazybet-backend/internal/pkg/cache"
	"eazybet-backend/internal/pkg/lock"
	"eazybet-backend/internal/repository"
)

// Settlement errors.
var (
	ErrMatchNotFinished = errors.New("match is not finished")
	ErrNoOutcome        = errors.New("match outcome cannot be determined")
)

// Report summarizes one settlement run over a match.
type Report struct {
	SimpleGraded int
	CombosGraded int
	Failed       int
}

// SettlementService grades pending wagers once a match finishes.
//
// Idempotency comes from the per-wager state compare-and-swap in the
// stores, not from the in-process lock: the lock only dedupes
// concurrent triggers (result submission racing the sweep) so a match
// is not graded twice in parallel by the same process.
type SettlementService struct {
	accounts *repository.AccountRepository
	wagers   *repository.WagerRepository
	combos   *repository.ComboRepository
	matches  MatchFeed
	audit    *audit.Log
	pub      *events.Publisher
	board    *cache.Leaderboard
	locks    *lock.KeyedLock
}

// NewSettlementService creates a new SettlementService instance.
func NewSettlementService(
	accounts *repository.AccountRepository,
	wagers *repository.WagerRepository,
	combos *repository.ComboRepository,
	matches MatchFeed,
	auditLog *audit.Log,
	pub *events.Publisher,
	board *cache.Leaderboard,
) *SettlementService {
	return &SettlementService{
		accounts: accounts,
		wagers:   wagers,
		combos:   combos,
		matches:  matches,
		audit:    auditLog,
		pub:      pub,
		board:    board,
		locks:    lock.NewKeyedLock(),
	}
}

// SettleMatch grades every pending wager and combo touching the given
// match. Safe to call repeatedly: already-settled wagers are skipped by
// the state CAS. A failure on one wager is logged and counted without
// blocking the rest of the run.
func (s *SettlementService) SettleMatch(ctx context.Context, matchID uuid.UUID) (*Report, error) {
	key := matchID.String()
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	match, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repository.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match: %w", err)
	}
	if match.Status != model.MatchFinished {
		return nil, ErrMatchNotFinished
	}
	outcome, ok := match.Outcome()
	if !ok {
		return nil, ErrNoOutcome
	}

	report := &Report{}
	if err := s.settleSimple(ctx, match, outcome, report); err != nil {
		return report, err
	}
	if err := s.settleCombos(ctx, match, report); err != nil {
		return report, err
	}

	log.Info().
		Str("match_id", key).
		Str("outcome", string(outcome)).
		Int("simple_graded", report.SimpleGraded).
		Int("combos_graded", report.CombosGraded).
		Int("failed", report.Failed).
		Msg("Settlement run completed")

	return report, nil
}

func (s *SettlementService) settleSimple(ctx context.Context, match *model.Match, outcome model.Choice, report *Report) error {
	pending, err := s.wagers.ListPendingByMatch(ctx, match.ID)
	if err != nil {
		return fmt.Errorf("failed to list pending wagers: %w", err)
	}

	for _, w := range pending {
		var graded bool
		if w.Choice == outcome {
			// Realized payout is floored, not rounded. The
			// difference from the placement-time quote is at most
			// one unit and always in the house's favor.
			realized := w.Stake.Mul(w.Odds).Floor()
			graded, err = s.gradeWin(ctx, w.ID, false, w.AccountID, match.ID, w.Currency, realized, w.PotentialBonus, s.wagers.Settle)
		} else {
			graded, err = s.gradeLoss(ctx, w.ID, false, w.AccountID, match.ID, s.wagers.Settle)
		}
		if err != nil {
			report.Failed++
			continue
		}
		// A lost race on the CAS means a concurrent run already graded
		// this wager; it does not count toward this run's report.
		if graded {
			report.SimpleGraded++
		}
	}
	return nil
}

// settleCombos re-evaluates every pending combo with a leg on the
// match. A combo loses as soon as any finished leg contradicts its
// selection, even while other legs are unresolved; it wins only when
// every leg is resolved in its favor; otherwise it stays pending.
func (s *SettlementService) settleCombos(ctx context.Context, match *model.Match, report *Report) error {
	pending, err := s.combos.ListPendingByMatch(ctx, match.ID)
	if err != nil {
		return fmt.Errorf("failed to list pending combos: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	matchIDs := make([]uuid.UUID, 0)
	seen := map[uuid.UUID]struct{}{match.ID: {}}
	matchIDs = append(matchIDs, match.ID)
	for _, c := range pending {
		for _, sel := range c.Selections {
			if _, dup := seen[sel.MatchID]; !dup {
				seen[sel.MatchID] = struct{}{}
				matchIDs = append(matchIDs, sel.MatchID)
			}
		}
	}
	matches, err := s.matches.GetByIDs(ctx, matchIDs)
	if err != nil {
		return fmt.Errorf("failed to load combo leg matches: %w", err)
	}

	for _, c := range pending {
		var graded bool
		switch evaluateCombo(c, matches) {
		case comboLost:
			graded, err = s.gradeLoss(ctx, c.ID, true, c.AccountID, match.ID, s.combos.Settle)
		case comboPending:
			// Stays pending until the remaining legs resolve.
			continue
		case comboWon:
			graded, err = s.gradeWin(ctx, c.ID, true, c.AccountID, match.ID, c.Currency, c.PotentialPayout, c.PotentialBonus, s.combos.Settle)
		}
		if err != nil {
			report.Failed++
			continue
		}
		if graded {
			report.CombosGraded++
		}
	}
	return nil
}

// comboVerdict is the result of re-evaluating a combo against the
// current match outcomes.
type comboVerdict int

const (
	comboPending comboVerdict = iota
	comboWon
	comboLost
)

// evaluateCombo decides a combo's fate given the known matches. Any
// resolved leg contradicting its selection loses the whole combo
// immediately; a win requires every leg resolved in its favor.
func evaluateCombo(c *model.ComboWager, matches map[uuid.UUID]*model.Match) comboVerdict {
	unresolved := false
	for _, sel := range c.Selections {
		legMatch, ok := matches[sel.MatchID]
		if !ok {
			unresolved = true
			continue
		}
		outcome, resolved := legMatch.Outcome()
		if !resolved {
			unresolved = true
			continue
		}
		if outcome != sel.Choice {
			return comboLost
		}
	}
	if unresolved {
		return comboPending
	}
	return comboWon
}

type settleFn func(ctx context.Context, id uuid.UUID, state model.WagerState, realizedPayout decimal.Decimal) (bool, error)

// gradeWin flips a wager to WON and credits the account, reporting
// whether this call performed the flip. The CAS goes first: a wager is
// never credited twice, and a credit failure after the flip is a loud,
// counted inconsistency rather than a silent one.
func (s *SettlementService) gradeWin(
	ctx context.Context,
	wagerID uuid.UUID,
	combo bool,
	accountID, matchID uuid.UUID,
	currency model.Currency,
	realized, bonus decimal.Decimal,
	settle settleFn,
) (bool, error) {
	swapped, err := settle(ctx, wagerID, model.WagerWon, realized)
	if err != nil {
		s.recordFailure(wagerID, combo, "state transition failed", err)
		return false, err
	}
	if !swapped {
		return false, nil
	}

	var tokens, diamonds decimal.Decimal
	if currency == model.CurrencyTokens {
		tokens, diamonds = realized, bonus
	} else {
		tokens, diamonds = decimal.Zero, realized
	}
	if err := s.accounts.CreditWin(ctx, accountID, tokens, diamonds); err != nil {
		s.recordFailure(wagerID, combo, "payout credit failed after state transition", err)
		return false, err
	}

	s.board.AddDiamonds(ctx, accountID, diamonds)

	logType := model.LogBetSettledWon
	if combo {
		logType = model.LogComboSettledWon
	}
	s.audit.Record(ctx, logType, map[string]any{
		"wager_id":   wagerID.String(),
		"account_id": accountID.String(),
		"payout":     realized.String(),
		"bonus":      bonus.String(),
		"currency":   string(currency),
	})
	s.pub.PublishBetSettled(ctx, events.BetSettled{
		WagerID:   wagerID.String(),
		AccountID: accountID.String(),
		MatchID:   matchID.String(),
		Combo:     combo,
		Won:       true,
		Payout:    realized,
	})
	metrics.BetsSettled.WithLabelValues(kindLabel(combo), "won").Inc()
	return true, nil
}

// gradeLoss flips a wager to LOST, reporting whether this call
// performed the flip. No ledger movement: the stake was taken at
// placement.
func (s *SettlementService) gradeLoss(
	ctx context.Context,
	wagerID uuid.UUID,
	combo bool,
	accountID, matchID uuid.UUID,
	settle settleFn,
) (bool, error) {
	swapped, err := settle(ctx, wagerID, model.WagerLost, decimal.Zero)
	if err != nil {
		s.recordFailure(wagerID, combo, "state transition failed", err)
		return false, err
	}
	if !swapped {
		return false, nil
	}

	logType := model.LogBetSettledLost
	if combo {
		logType = model.LogComboSettledLost
	}
	s.audit.Record(ctx, logType, map[string]any{
		"wager_id":   wagerID.String(),
		"account_id": accountID.String(),
	})
	s.pub.PublishBetSettled(ctx, events.BetSettled{
		WagerID:   wagerID.String(),
		AccountID: accountID.String(),
		MatchID:   matchID.String(),
		Combo:     combo,
		Won:       false,
		Payout:    decimal.Zero,
	})
	metrics.BetsSettled.WithLabelValues(kindLabel(combo), "lost").Inc()
	return true, nil
}

func (s *SettlementService) recordFailure(wagerID uuid.UUID, combo bool, reason string, err error) {
	log.Error().Err(err).
		Str("wager_id", wagerID.String()).
		Bool("combo", combo).
		Str("reason", reason).
		Msg("Failed to settle wager")
	metrics.SettlementFailures.Inc()
}

func kindLabel(combo bool) string {
	if combo {
		return "combo"
	}
	return "simple"
}

// SweepFinished settles every finished match that is not yet marked
// settled. A match is marked settled only once all of its simple wagers
// are graded; combos pending on other unresolved legs do not hold the
// match open. Intended to run on a schedule as a safety net behind the
// result-submission trigger.
func (s *SettlementService) SweepFinished(ctx context.Context) error {
	matches, err := s.matches.ListFinishedUnsettled(ctx)
	if err != nil {
		return fmt.Errorf("failed to list finished matches: %w", err)
	}

	for _, m := range matches {
		report, err := s.SettleMatch(ctx, m.ID)
		if err != nil {
			log.Error().Err(err).
				Str("match_id", m.ID.String()).
				Msg("Sweep failed to settle match")
			continue
		}
		if report.Failed > 0 {
			continue
		}
		remaining, err := s.wagers.CountPendingByMatch(ctx, m.ID)
		if err != nil {
			log.Error().Err(err).
				Str("match_id", m.ID.String()).
				Msg("Sweep failed to count pending wagers")
			continue
		}
		if remaining > 0 {
			continue
		}
		if err := s.matches.MarkSettled(ctx, m.ID); err != nil {
			log.Error().Err(err).
				Str("match_id", m.ID.String()).
				Msg("Failed to mark match as settled")
		}
	}
	return nil
}
