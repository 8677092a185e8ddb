package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"eazybet-backend/internal/audit"
	"eazybet-backend/internal/config"
	"eazybet-backend/internal/events"
	"eazybet-backend/internal/model"
	"eazybet-backend/internal/pkg/cache"
	"eazybet-backend/internal/repository"
)

// Account and reward errors.
var (
	ErrInvalidUsername = errors.New("invalid username")
	ErrInvalidTapCount = errors.New("invalid tap count")
	ErrDailyCapReached = errors.New("daily tap cap reached")
	ErrSelfReferral    = errors.New("cannot refer yourself")
	ErrReferralExists  = errors.New("referral already rewarded")
)

// WagerList bundles an account's simple and combo wagers.
type WagerList struct {
	Simple []*model.Wager
	Combos []*model.ComboWager
}

// TapResult reports a tap-to-earn grant.
type TapResult struct {
	TokensEarned   decimal.Decimal
	EarnedToday    decimal.Decimal
	RemainingToday decimal.Decimal
}

// AccountService manages accounts, wager history and the engagement
// rewards (tap-to-earn, referrals) that feed the ledger.
type AccountService struct {
	accounts *repository.AccountRepository
	wagers   *repository.WagerRepository
	combos   *repository.ComboRepository
	rewards  *repository.RewardsRepository
	audit    *audit.Log
	pub      *events.Publisher
	board    *cache.Leaderboard
	cfg      config.RewardsConfig
}

// NewAccountService creates a new AccountService instance.
func NewAccountService(
	accounts *repository.AccountRepository,
	wagers *repository.WagerRepository,
	combos *repository.ComboRepository,
	rewards *repository.RewardsRepository,
	auditLog *audit.Log,
	pub *events.Publisher,
	board *cache.Leaderboard,
	cfg config.RewardsConfig,
) *AccountService {
	return &AccountService{
		accounts: accounts,
		wagers:   wagers,
		combos:   combos,
		rewards:  rewards,
		audit:    auditLog,
		pub:      pub,
		board:    board,
		cfg:      cfg,
	}
}

// Register creates an account seeded with the starting balances.
func (s *AccountService) Register(ctx context.Context, username string) (*model.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(username) > 64 {
		return nil, ErrInvalidUsername
	}

	account, err := s.accounts.Create(ctx,
		username,
		decimal.NewFromFloat(s.cfg.InitialTokens),
		decimal.NewFromFloat(s.cfg.InitialDiamonds),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register account: %w", err)
	}

	s.board.AddDiamonds(ctx, account.ID, account.Diamonds)
	return account, nil
}

// GetAccount retrieves an account by id.
func (s *AccountService) GetAccount(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, mapLedgerErr(err)
	}
	return account, nil
}

// ListWagers retrieves an account's wager history, optionally filtered
// by state.
func (s *AccountService) ListWagers(ctx context.Context, accountID uuid.UUID, states []model.WagerState) (*WagerList, error) {
	if _, err := s.accounts.GetByID(ctx, accountID); err != nil {
		return nil, mapLedgerErr(err)
	}

	simple, err := s.wagers.ListByAccount(ctx, accountID, states)
	if err != nil {
		return nil, err
	}
	combos, err := s.combos.ListByAccount(ctx, accountID, states)
	if err != nil {
		return nil, err
	}
	return &WagerList{Simple: simple, Combos: combos}, nil
}

// TapEarn grants tokens for a batch of taps, clamped to the daily cap.
// The day boundary is midnight UTC.
func (s *AccountService) TapEarn(ctx context.Context, accountID uuid.UUID, taps int64) (*TapResult, error) {
	if taps < 1 || taps > s.cfg.MaxTapsPerCall {
		return nil, ErrInvalidTapCount
	}

	dayStart := time.Now().UTC().Truncate(24 * time.Hour)
	earnedToday, err := s.rewards.TapsEarnedSince(ctx, accountID, dayStart)
	if err != nil {
		return nil, err
	}

	perTap := decimal.NewFromFloat(s.cfg.TokensPerTap)
	dailyCap := perTap.Mul(decimal.NewFromInt(s.cfg.MaxTapsPerDay))
	remaining := dailyCap.Sub(earnedToday)
	if !remaining.IsPositive() {
		return nil, ErrDailyCapReached
	}

	grant := perTap.Mul(decimal.NewFromInt(taps))
	if grant.GreaterThan(remaining) {
		grant = remaining
	}

	if err := s.accounts.Credit(ctx, accountID, model.CurrencyTokens, grant); err != nil {
		return nil, mapLedgerErr(err)
	}
	if err := s.rewards.RecordTap(ctx, accountID, grant); err != nil {
		// The credit stands; without the event the cap under-counts,
		// so surface the failure to the caller.
		return nil, err
	}

	earnedToday = earnedToday.Add(grant)
	s.audit.Record(ctx, model.LogTapEarn, map[string]any{
		"account_id": accountID.String(),
		"taps":       taps,
		"tokens":     grant.String(),
	})

	return &TapResult{
		TokensEarned:   grant,
		EarnedToday:    earnedToday,
		RemainingToday: dailyCap.Sub(earnedToday),
	}, nil
}

// ReferralBonus grants the referral reward to both sides of a referral
// pair. Each pair is rewarded at most once, enforced by a unique
// constraint at the store.
func (s *AccountService) ReferralBonus(ctx context.Context, referrerID, refereeID uuid.UUID) error {
	if referrerID == refereeID {
		return ErrSelfReferral
	}
	if _, err := s.accounts.GetByID(ctx, referrerID); err != nil {
		return mapLedgerErr(err)
	}
	if _, err := s.accounts.GetByID(ctx, refereeID); err != nil {
		return mapLedgerErr(err)
	}

	if err := s.rewards.CreateReferral(ctx, referrerID, refereeID); err != nil {
		if errors.Is(err, repository.ErrReferralExists) {
			return ErrReferralExists
		}
		return err
	}

	bonus := decimal.NewFromFloat(s.cfg.ReferralBonus)
	for _, id := range []uuid.UUID{referrerID, refereeID} {
		if err := s.accounts.Credit(ctx, id, model.CurrencyDiamonds, bonus); err != nil {
			return fmt.Errorf("failed to credit referral bonus: %w", err)
		}
		s.board.AddDiamonds(ctx, id, bonus)
	}

	s.audit.Record(ctx, model.LogReferralBonus, map[string]any{
		"referrer_id": referrerID.String(),
		"referee_id":  refereeID.String(),
		"bonus":       bonus.String(),
	})
	return nil
}

// Reset restores an account to its starting state: seed balances, zero
// counters, no wager history.
func (s *AccountService) Reset(ctx context.Context, accountID uuid.UUID) (*model.Account, error) {
	if err := s.wagers.DeleteByAccount(ctx, accountID); err != nil {
		return nil, err
	}
	if err := s.combos.DeleteByAccount(ctx, accountID); err != nil {
		return nil, err
	}
	if err := s.rewards.DeleteTapsByAccount(ctx, accountID); err != nil {
		return nil, err
	}

	err := s.accounts.Reset(ctx, accountID,
		decimal.NewFromFloat(s.cfg.InitialTokens),
		decimal.NewFromFloat(s.cfg.InitialDiamonds),
	)
	if err != nil {
		return nil, mapLedgerErr(err)
	}

	s.board.Remove(ctx, accountID)

	s.audit.Record(ctx, model.LogAccountReset, map[string]any{
		"account_id": accountID.String(),
	})

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, mapLedgerErr(err)
	}
	return account, nil
}

// Leaderboard retrieves the top accounts by diamonds.
func (s *AccountService) Leaderboard(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return s.accounts.Top(ctx, limit)
}
