// End-to-end service tests against a real PostgreSQL instance. Skipped
// when Docker is unavailable.
package service

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"eazybet-backend/internal/audit"
	"eazybet-backend/internal/config"
	"eazybet-backend/internal/model"
	"eazybet-backend/internal/repository"
)

type testEnv struct {
	pool       *pgxpool.Pool
	accounts   *repository.AccountRepository
	wagers     *repository.WagerRepository
	combos     *repository.ComboRepository
	matches    *repository.MatchRepository
	betting    *BettingService
	settlement *SettlementService
	conversion *ConversionService
	account    *AccountService
	matchSvc   *MatchService
}

func dockerAvailable() bool {
	return exec.Command("docker", "info").Run() == nil
}

func setupEnv(t *testing.T) (*testEnv, func()) {
	if !dockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, applyTestSchema(ctx, pool))

	accountRepo := repository.NewAccountRepository(pool)
	wagerRepo := repository.NewWagerRepository(pool)
	comboRepo := repository.NewComboRepository(pool)
	matchRepo := repository.NewMatchRepository(pool)
	rewardsRepo := repository.NewRewardsRepository(pool)
	auditLog := audit.New(repository.NewSystemLogRepository(pool))

	bettingCfg := config.BettingConfig{
		MinStakeTokens:   10,
		MinStakeDiamonds: 1,
		BonusRate:        0.01,
		MaxComboLegs:     10,
	}
	rewardsCfg := config.RewardsConfig{
		TokensPerTap:   1,
		MaxTapsPerDay:  100,
		MaxTapsPerCall: 10,
		ReferralBonus:  10,
		InitialTokens:  1000,
	}
	conversionCfg := config.ConversionConfig{Rate: 0.01, MinTokens: 100}

	settlement := NewSettlementService(accountRepo, wagerRepo, comboRepo, matchRepo, auditLog, nil, nil)
	env := &testEnv{
		pool:       pool,
		accounts:   accountRepo,
		wagers:     wagerRepo,
		combos:     comboRepo,
		matches:    matchRepo,
		betting:    NewBettingService(accountRepo, wagerRepo, comboRepo, matchRepo, auditLog, nil, bettingCfg),
		settlement: settlement,
		conversion: NewConversionService(accountRepo, auditLog, nil, conversionCfg),
		account:    NewAccountService(accountRepo, wagerRepo, comboRepo, rewardsRepo, auditLog, nil, nil, rewardsCfg),
		matchSvc:   NewMatchService(matchRepo, settlement, auditLog),
	}

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}
	return env, cleanup
}

func applyTestSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE accounts (
			id UUID PRIMARY KEY,
			username VARCHAR(64) NOT NULL,
			tokens NUMERIC(20,2) NOT NULL DEFAULT 0 CHECK (tokens >= 0),
			diamonds NUMERIC(20,2) NOT NULL DEFAULT 0 CHECK (diamonds >= 0),
			total_bets BIGINT NOT NULL DEFAULT 0,
			won_bets BIGINT NOT NULL DEFAULT 0 CHECK (won_bets <= total_bets),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE matches (
			id UUID PRIMARY KEY,
			home_team VARCHAR(255) NOT NULL,
			away_team VARCHAR(255) NOT NULL,
			league VARCHAR(255) NOT NULL DEFAULT '',
			status VARCHAR(20) NOT NULL DEFAULT 'UPCOMING',
			odds_home NUMERIC(10,2) NOT NULL,
			odds_draw NUMERIC(10,2) NOT NULL,
			odds_away NUMERIC(10,2) NOT NULL,
			score_home INT,
			score_away INT,
			result VARCHAR(10),
			starts_at TIMESTAMPTZ NOT NULL,
			settled BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE wagers (
			id UUID PRIMARY KEY,
			account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			match_id UUID NOT NULL REFERENCES matches(id),
			choice VARCHAR(10) NOT NULL,
			stake NUMERIC(20,2) NOT NULL CHECK (stake > 0),
			currency VARCHAR(10) NOT NULL,
			odds NUMERIC(10,2) NOT NULL,
			potential_payout NUMERIC(20,2) NOT NULL,
			potential_bonus NUMERIC(20,2) NOT NULL DEFAULT 0,
			state VARCHAR(10) NOT NULL DEFAULT 'PENDING',
			realized_payout NUMERIC(20,2) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			settled_at TIMESTAMPTZ
		);
		CREATE TABLE combo_wagers (
			id UUID PRIMARY KEY,
			account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			stake NUMERIC(20,2) NOT NULL CHECK (stake > 0),
			currency VARCHAR(10) NOT NULL,
			total_odds NUMERIC(14,4) NOT NULL,
			potential_payout NUMERIC(20,2) NOT NULL,
			potential_bonus NUMERIC(20,2) NOT NULL DEFAULT 0,
			state VARCHAR(10) NOT NULL DEFAULT 'PENDING',
			realized_payout NUMERIC(20,2) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			settled_at TIMESTAMPTZ
		);
		CREATE TABLE combo_selections (
			id BIGSERIAL PRIMARY KEY,
			combo_id UUID NOT NULL REFERENCES combo_wagers(id) ON DELETE CASCADE,
			match_id UUID NOT NULL REFERENCES matches(id),
			choice VARCHAR(10) NOT NULL,
			odds NUMERIC(10,2) NOT NULL
		);
		CREATE TABLE system_logs (
			id BIGSERIAL PRIMARY KEY,
			type VARCHAR(50) NOT NULL,
			payload JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE tap_events (
			id BIGSERIAL PRIMARY KEY,
			account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			tokens_earned NUMERIC(20,2) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE referrals (
			id BIGSERIAL PRIMARY KEY,
			referrer_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			referee_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (referrer_id, referee_id)
		);
	`)
	return err
}

func (env *testEnv) newAccount(t *testing.T) *model.Account {
	t.Helper()
	account, err := env.account.Register(context.Background(), "player")
	require.NoError(t, err)
	return account
}

func (env *testEnv) newMatch(t *testing.T, oddsHome string) *model.Match {
	t.Helper()
	match, err := env.matchSvc.CreateMatch(context.Background(), MatchInput{
		HomeTeam: "Arsenal",
		AwayTeam: "Chelsea",
		OddsHome: decimal.RequireFromString(oddsHome),
		OddsDraw: decimal.RequireFromString("3.40"),
		OddsAway: decimal.RequireFromString("3.00"),
		StartsAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	return match
}

func TestPlaceBet_Flow(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()
	ctx := context.Background()

	account := env.newAccount(t)
	match := env.newMatch(t, "2.50")

	wager, err := env.betting.PlaceBet(ctx, account.ID, match.ID, model.ChoiceHome,
		decimal.NewFromInt(20), model.CurrencyTokens)
	require.NoError(t, err)

	assert.True(t, wager.PotentialPayout.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, model.WagerPending, wager.State)

	got, err := env.accounts.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Tokens.Equal(decimal.NewFromInt(980)), "stake must leave the wallet at placement")
	assert.Equal(t, int64(1), got.TotalBets)
}

func TestPlaceBet_InsufficientFunds(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()
	ctx := context.Background()

	account := env.newAccount(t)
	match := env.newMatch(t, "2.50")

	_, err := env.betting.PlaceBet(ctx, account.ID, match.ID, model.ChoiceHome,
		decimal.NewFromInt(1001), model.CurrencyTokens)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// Nothing moved.
	got, err := env.accounts.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Tokens.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, int64(0), got.TotalBets)
}

func TestPlaceBet_Validation(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()
	ctx := context.Background()

	account := env.newAccount(t)
	match := env.newMatch(t, "2.50")

	_, err := env.betting.PlaceBet(ctx, account.ID, match.ID, model.ChoiceHome,
		decimal.NewFromInt(9), model.CurrencyTokens)
	assert.ErrorIs(t, err, ErrInvalidStake)

	_, err = env.betting.PlaceBet(ctx, account.ID, match.ID, model.Choice("BOTH"),
		decimal.NewFromInt(20), model.CurrencyTokens)
	assert.ErrorIs(t, err, ErrInvalidChoice)

	// Bets close once the match leaves UPCOMING.
	_, err = env.matchSvc.UpdateScore(ctx, match.ID, 0, 0, model.MatchLive)
	require.NoError(t, err)
	_, err = env.betting.PlaceBet(ctx, account.ID, match.ID, model.ChoiceHome,
		decimal.NewFromInt(20), model.CurrencyTokens)
	assert.ErrorIs(t, err, ErrMatchUnavailable)
}

func TestPlaceBet_RollbackOnWagerInsertFailure(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()
	ctx := context.Background()

	account := env.newAccount(t)
	match := env.newMatch(t, "2.50")

	// Take the wager table away so the insert after the debit fails.
	_, err := env.pool.Exec(ctx, `ALTER TABLE wagers RENAME TO wagers_offline`)
	require.NoError(t, err)

	_, err = env.betting.PlaceBet(ctx, account.ID, match.ID, model.ChoiceHome,
		decimal.NewFromInt(20), model.CurrencyTokens)
	assert.ErrorIs(t, err, ErrWagerCreation)

	// The debited stake and the counter come back exactly.
	got, err := env.accounts.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Tokens.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, int64(0), got.TotalBets)
}

func TestPlaceComboBet_RollbackDeletesOrphanedHeader(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()
	ctx := context.Background()

	account := env.newAccount(t)
	m1 := env.newMatch(t, "2.00")
	m2 := env.newMatch(t, "2.00")

	// The header insert succeeds; the selections insert cannot.
	_, err := env.pool.Exec(ctx, `ALTER TABLE combo_selections RENAME TO combo_selections_offline`)
	require.NoError(t, err)

	_, err = env.betting.PlaceComboBet(ctx, account.ID, []SelectionInput{
		{MatchID: m1.ID, Choice: model.ChoiceHome},
		{MatchID: m2.ID, Choice: model.ChoiceHome},
	}, decimal.NewFromInt(10), model.CurrencyTokens)
	assert.ErrorIs(t, err, ErrWagerCreation)

	// Both rollback steps ran: no orphaned header, ledger restored.
	var headers int64
	require.NoError(t, env.pool.QueryRow(ctx, `SELECT COUNT(*) FROM combo_wagers`).Scan(&headers))
	assert.Equal(t, int64(0), headers)

	got, err := env.accounts.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Tokens.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, int64(0), got.TotalBets)
}

func TestSettleMatch_GradesWinnersAndLosers(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()
	ctx := context.Background()

	winner := env.newAccount(t)
	loser := env.newAccount(t)
	match := env.newMatch(t, "2.50")

	_, err := env.betting.PlaceBet(ctx, winner.ID, match.ID, model.ChoiceHome,
		decimal.NewFromInt(20), model.CurrencyTokens)
	require.NoError(t, err)
	_, err = env.betting.PlaceBet(ctx, loser.ID, match.ID, model.ChoiceAway,
		decimal.NewFromInt(20), model.CurrencyTokens)
	require.NoError(t, err)

	// Result submission triggers settlement inline.
	_, err = env.matchSvc.SubmitResult(ctx, match.ID, model.ChoiceHome)
	require.NoError(t, err)

	gotWinner, err := env.accounts.GetByID(ctx, winner.ID)
	require.NoError(t, err)
	assert.True(t, gotWinner.Tokens.Equal(decimal.NewFromInt(1030)), "980 after stake + 50 payout")
	assert.Equal(t, int64(1), gotWinner.WonBets)

	gotLoser, err := env.accounts.GetByID(ctx, loser.ID)
	require.NoError(t, err)
	assert.True(t, gotLoser.Tokens.Equal(decimal.NewFromInt(980)))
	assert.Equal(t, int64(0), gotLoser.WonBets)

	// Running settlement again grades nothing and credits nothing.
	report, err := env.settlement.SettleMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, report.SimpleGraded)

	gotWinner, err = env.accounts.GetByID(ctx, winner.ID)
	require.NoError(t, err)
	assert.True(t, gotWinner.Tokens.Equal(decimal.NewFromInt(1030)), "settlement must be idempotent")
}

func TestSettleMatch_FlooredPayout(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()
	ctx := context.Background()

	account := env.newAccount(t)
	match := env.newMatch(t, "2.37")

	// 15 * 2.37 = 35.55: quoted 36 at placement, 35 credited at settlement.
	wager, err := env.betting.PlaceBet(ctx, account.ID, match.ID, model.ChoiceHome,
		decimal.NewFromInt(15), model.CurrencyTokens)
	require.NoError(t, err)
	assert.True(t, wager.PotentialPayout.Equal(decimal.NewFromInt(36)))

	_, err = env.matchSvc.SubmitResult(ctx, match.ID, model.ChoiceHome)
	require.NoError(t, err)

	settled, err := env.wagers.GetByID(ctx, wager.ID)
	require.NoError(t, err)
	assert.Equal(t, model.WagerWon, settled.State)
	assert.True(t, settled.RealizedPayout.Equal(decimal.NewFromInt(35)))
}

func TestSettleMatch_TokenWinEarnsBonusDiamonds(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()
	ctx := context.Background()

	account := env.newAccount(t)
	match := env.newMatch(t, "2.50")

	// Profit 1000*2.5 - 1000 = 1500, bonus 15 diamonds at 1%.
	wager, err := env.betting.PlaceBet(ctx, account.ID, match.ID, model.ChoiceHome,
		decimal.NewFromInt(1000), model.CurrencyTokens)
	require.NoError(t, err)
	assert.True(t, wager.PotentialBonus.Equal(decimal.NewFromInt(15)))

	_, err = env.matchSvc.SubmitResult(ctx, match.ID, model.ChoiceHome)
	require.NoError(t, err)

	got, err := env.accounts.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Diamonds.Equal(decimal.NewFromInt(15)), "bonus diamonds are credited at settlement")
}

func TestComboBet_EarlyLoss(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()
	ctx := context.Background()

	account := env.newAccount(t)
	m1 := env.newMatch(t, "2.00")
	m2 := env.newMatch(t, "2.00")

	combo, err := env.betting.PlaceComboBet(ctx, account.ID, []SelectionInput{
		{MatchID: m1.ID, Choice: model.ChoiceHome},
		{MatchID: m2.ID, Choice: model.ChoiceHome},
	}, decimal.NewFromInt(10), model.CurrencyTokens)
	require.NoError(t, err)
	assert.True(t, combo.TotalOdds.Equal(decimal.NewFromInt(4)))

	// The first leg loses; the combo dies even though m2 is unresolved.
	_, err = env.matchSvc.SubmitResult(ctx, m1.ID, model.ChoiceAway)
	require.NoError(t, err)

	got, err := env.combos.GetByID(ctx, combo.ID)
	require.NoError(t, err)
	assert.Equal(t, model.WagerLost, got.State)
}

func TestComboBet_WinsWhenAllLegsResolve(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()
	ctx := context.Background()

	account := env.newAccount(t)
	m1 := env.newMatch(t, "2.00")
	m2 := env.newMatch(t, "2.00")

	combo, err := env.betting.PlaceComboBet(ctx, account.ID, []SelectionInput{
		{MatchID: m1.ID, Choice: model.ChoiceHome},
		{MatchID: m2.ID, Choice: model.ChoiceHome},
	}, decimal.NewFromInt(10), model.CurrencyTokens)
	require.NoError(t, err)

	_, err = env.matchSvc.SubmitResult(ctx, m1.ID, model.ChoiceHome)
	require.NoError(t, err)

	// Still pending with one leg open.
	got, err := env.combos.GetByID(ctx, combo.ID)
	require.NoError(t, err)
	assert.Equal(t, model.WagerPending, got.State)

	_, err = env.matchSvc.SubmitResult(ctx, m2.ID, model.ChoiceHome)
	require.NoError(t, err)

	got, err = env.combos.GetByID(ctx, combo.ID)
	require.NoError(t, err)
	assert.Equal(t, model.WagerWon, got.State)
	assert.True(t, got.RealizedPayout.Equal(combo.PotentialPayout))

	wallet, err := env.accounts.GetByID(ctx, account.ID)
	require.NoError(t, err)
	// 1000 - 10 stake + 40 payout.
	assert.True(t, wallet.Tokens.Equal(decimal.NewFromInt(1030)))
}

func TestComboBet_Validation(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()
	ctx := context.Background()

	account := env.newAccount(t)
	match := env.newMatch(t, "2.00")

	_, err := env.betting.PlaceComboBet(ctx, account.ID, []SelectionInput{
		{MatchID: match.ID, Choice: model.ChoiceHome},
	}, decimal.NewFromInt(10), model.CurrencyTokens)
	assert.ErrorIs(t, err, ErrTooFewSelections)

	_, err = env.betting.PlaceComboBet(ctx, account.ID, []SelectionInput{
		{MatchID: match.ID, Choice: model.ChoiceHome},
		{MatchID: match.ID, Choice: model.ChoiceDraw},
	}, decimal.NewFromInt(10), model.CurrencyTokens)
	assert.ErrorIs(t, err, ErrDuplicateSelection)
}

func TestConvert_Flow(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()
	ctx := context.Background()

	account := env.newAccount(t)

	result, err := env.conversion.Convert(ctx, account.ID, decimal.NewFromInt(500))
	require.NoError(t, err)
	assert.True(t, result.DiamondsEarned.Equal(decimal.NewFromInt(5)))
	assert.True(t, result.Account.Tokens.Equal(decimal.NewFromInt(500)))
	assert.True(t, result.Account.Diamonds.Equal(decimal.NewFromInt(5)))

	_, err = env.conversion.Convert(ctx, account.ID, decimal.NewFromInt(99))
	assert.ErrorIs(t, err, ErrBelowMinimum)

	_, err = env.conversion.Convert(ctx, account.ID, decimal.NewFromInt(501))
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestTapEarn_DailyCap(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()
	ctx := context.Background()

	account := env.newAccount(t)

	// 10 calls of 10 taps exhaust the 100 token daily cap.
	for i := 0; i < 10; i++ {
		result, err := env.account.TapEarn(ctx, account.ID, 10)
		require.NoError(t, err)
		assert.True(t, result.TokensEarned.Equal(decimal.NewFromInt(10)))
	}

	_, err := env.account.TapEarn(ctx, account.ID, 1)
	assert.ErrorIs(t, err, ErrDailyCapReached)

	_, err = env.account.TapEarn(ctx, account.ID, 11)
	assert.ErrorIs(t, err, ErrInvalidTapCount)

	got, err := env.accounts.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Tokens.Equal(decimal.NewFromInt(1100)))
}

func TestReferralBonus_OncePerPair(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()
	ctx := context.Background()

	referrer := env.newAccount(t)
	referee := env.newAccount(t)

	require.NoError(t, env.account.ReferralBonus(ctx, referrer.ID, referee.ID))

	for _, id := range []*model.Account{referrer, referee} {
		got, err := env.accounts.GetByID(ctx, id.ID)
		require.NoError(t, err)
		assert.True(t, got.Diamonds.Equal(decimal.NewFromInt(10)))
	}

	err := env.account.ReferralBonus(ctx, referrer.ID, referee.ID)
	assert.ErrorIs(t, err, ErrReferralExists)

	err = env.account.ReferralBonus(ctx, referrer.ID, referrer.ID)
	assert.ErrorIs(t, err, ErrSelfReferral)
}

func TestReset_RestoresStartingState(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()
	ctx := context.Background()

	account := env.newAccount(t)
	match := env.newMatch(t, "2.50")

	_, err := env.betting.PlaceBet(ctx, account.ID, match.ID, model.ChoiceHome,
		decimal.NewFromInt(20), model.CurrencyTokens)
	require.NoError(t, err)

	got, err := env.account.Reset(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Tokens.Equal(decimal.NewFromInt(1000)))
	assert.True(t, got.Diamonds.IsZero())
	assert.Equal(t, int64(0), got.TotalBets)

	list, err := env.account.ListWagers(ctx, account.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, list.Simple)
	assert.Empty(t, list.Combos)
}

func TestSweepFinished_MarksSettled(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()
	ctx := context.Background()

	account := env.newAccount(t)
	match := env.newMatch(t, "2.50")

	_, err := env.betting.PlaceBet(ctx, account.ID, match.ID, model.ChoiceHome,
		decimal.NewFromInt(20), model.CurrencyTokens)
	require.NoError(t, err)

	// Finish via score update without an explicit result.
	_, err = env.matches.UpdateScore(ctx, match.ID, 2, 1, model.MatchFinished)
	require.NoError(t, err)

	require.NoError(t, env.settlement.SweepFinished(ctx))

	got, err := env.matches.GetByID(ctx, match.ID)
	require.NoError(t, err)
	assert.True(t, got.Settled)

	settledWagers, err := env.wagers.ListByAccount(ctx, account.ID, []model.WagerState{model.WagerWon})
	require.NoError(t, err)
	assert.Len(t, settledWagers, 1)
}
