package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"eazybet-backend/internal/audit"
	"eazybet-backend/internal/config"
	"eazybet-backend/internal/events"
	"eazybet-backend/internal/metrics"
	"eazybet-backend/internal/model"
	"eazybet-backend/internal/repository"
)

// Conversion errors.
var (
	ErrBelowMinimum     = errors.New("amount below conversion minimum")
	ErrInvalidAmount    = errors.New("invalid conversion amount")
	ErrNothingToConvert = errors.New("conversion yields zero diamonds")
)

// ConversionResult reports what a conversion moved.
type ConversionResult struct {
	TokensSpent    decimal.Decimal
	DiamondsEarned decimal.Decimal
	Account        *model.Account
}

// ConversionService exchanges tokens for diamonds at a configured rate.
type ConversionService struct {
	accounts *repository.AccountRepository
	audit    *audit.Log
	pub      *events.Publisher
	cfg      config.ConversionConfig
}

// NewConversionService creates a new ConversionService instance.
func NewConversionService(
	accounts *repository.AccountRepository,
	auditLog *audit.Log,
	pub *events.Publisher,
	cfg config.ConversionConfig,
) *ConversionService {
	return &ConversionService{accounts: accounts, audit: auditLog, pub: pub, cfg: cfg}
}

// Convert exchanges tokenAmount tokens for diamonds. The debit, the
// credit and the balance check happen in one statement at the store, so
// a concurrent wager placement cannot interleave between them.
func (s *ConversionService) Convert(ctx context.Context, accountID uuid.UUID, tokenAmount decimal.Decimal) (*ConversionResult, error) {
	if !tokenAmount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if tokenAmount.LessThan(s.cfg.MinTokensDecimal()) {
		return nil, ErrBelowMinimum
	}

	diamonds := tokenAmount.Mul(s.cfg.RateDecimal()).Floor()
	if !diamonds.IsPositive() {
		return nil, ErrNothingToConvert
	}

	if err := s.accounts.ConvertTokens(ctx, accountID, tokenAmount, diamonds); err != nil {
		return nil, mapLedgerErr(err)
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, mapLedgerErr(err)
	}

	s.audit.Record(ctx, model.LogConversion, map[string]any{
		"account_id": accountID.String(),
		"tokens":     tokenAmount.String(),
		"diamonds":   diamonds.String(),
	})
	s.pub.PublishConversion(ctx, events.Conversion{
		AccountID:      accountID.String(),
		TokensSpent:    tokenAmount,
		DiamondsEarned: diamonds,
	})
	metrics.Conversions.Inc()

	return &ConversionResult{
		TokensSpent:    tokenAmount,
		DiamondsEarned: diamonds,
		Account:        account,
	}, nil
}
