package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"eazybet-backend/internal/audit"
	"eazybet-backend/internal/model"
	"eazybet-backend/internal/repository"
)

// Match feed errors.
var (
	ErrInvalidOdds   = errors.New("invalid odds")
	ErrInvalidTeams  = errors.New("invalid teams")
	ErrInvalidScore  = errors.New("invalid score")
	ErrInvalidResult = errors.New("invalid result")
	ErrMatchFinished = errors.New("match already finished")
	ErrInvalidStatus = errors.New("invalid match status")
)

// MatchInput describes a match to register on the feed.
type MatchInput struct {
	HomeTeam string
	AwayTeam string
	League   string
	OddsHome decimal.Decimal
	OddsDraw decimal.Decimal
	OddsAway decimal.Decimal
	StartsAt time.Time
}

// MatchService is the admin surface of the match outcome feed. Result
// submission triggers settlement synchronously; the scheduled sweep
// picks up anything the trigger misses.
type MatchService struct {
	matches    *repository.MatchRepository
	settlement *SettlementService
	audit      *audit.Log
}

// NewMatchService creates a new MatchService instance.
func NewMatchService(matches *repository.MatchRepository, settlement *SettlementService, auditLog *audit.Log) *MatchService {
	return &MatchService{matches: matches, settlement: settlement, audit: auditLog}
}

// CreateMatch registers a new upcoming match on the feed.
func (s *MatchService) CreateMatch(ctx context.Context, in MatchInput) (*model.Match, error) {
	if in.HomeTeam == "" || in.AwayTeam == "" || in.HomeTeam == in.AwayTeam {
		return nil, ErrInvalidTeams
	}
	one := decimal.NewFromInt(1)
	for _, odds := range []decimal.Decimal{in.OddsHome, in.OddsDraw, in.OddsAway} {
		if odds.LessThan(one) {
			return nil, ErrInvalidOdds
		}
	}

	return s.matches.Create(ctx, &model.Match{
		HomeTeam: in.HomeTeam,
		AwayTeam: in.AwayTeam,
		League:   in.League,
		OddsHome: in.OddsHome,
		OddsDraw: in.OddsDraw,
		OddsAway: in.OddsAway,
		StartsAt: in.StartsAt,
	})
}

// GetMatch retrieves a match by id.
func (s *MatchService) GetMatch(ctx context.Context, id uuid.UUID) (*model.Match, error) {
	match, err := s.matches.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

// ListMatches retrieves matches in the given status.
func (s *MatchService) ListMatches(ctx context.Context, status model.MatchStatus, limit int) ([]*model.Match, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.matches.ListByStatus(ctx, status, limit)
}

// UpdateScore records the running score. Moving the status to FINISHED
// this way leaves the result to be derived from the final score.
func (s *MatchService) UpdateScore(ctx context.Context, id uuid.UUID, scoreHome, scoreAway int32, status model.MatchStatus) (*model.Match, error) {
	if scoreHome < 0 || scoreAway < 0 {
		return nil, ErrInvalidScore
	}
	if status != model.MatchLive && status != model.MatchFinished {
		return nil, ErrInvalidStatus
	}

	current, err := s.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == model.MatchFinished {
		return nil, ErrMatchFinished
	}

	match, err := s.matches.UpdateScore(ctx, id, scoreHome, scoreAway, status)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, model.LogMatchScoreUpdated, map[string]any{
		"match_id":   id.String(),
		"score_home": scoreHome,
		"score_away": scoreAway,
		"status":     string(status),
	})

	if match.Status == model.MatchFinished {
		s.triggerSettlement(ctx, match.ID)
	}
	return match, nil
}

// SubmitResult finalizes a match with an explicit outcome and triggers
// settlement. Submitting the same result again is a no-op for wagers:
// everything pending was already graded.
func (s *MatchService) SubmitResult(ctx context.Context, id uuid.UUID, result model.Choice) (*model.Match, error) {
	if !result.Valid() {
		return nil, ErrInvalidResult
	}

	if _, err := s.GetMatch(ctx, id); err != nil {
		return nil, err
	}

	match, err := s.matches.SubmitResult(ctx, id, result)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, model.LogMatchResolved, map[string]any{
		"match_id": id.String(),
		"result":   string(result),
	})

	s.triggerSettlement(ctx, match.ID)
	return match, nil
}

// triggerSettlement grades the match inline. A settlement failure does
// not fail the result submission; the sweep will retry.
func (s *MatchService) triggerSettlement(ctx context.Context, matchID uuid.UUID) {
	report, err := s.settlement.SettleMatch(ctx, matchID)
	if err != nil {
		log.Error().Err(err).
			Str("match_id", matchID.String()).
			Msg("Settlement trigger failed, sweep will retry")
		return
	}
	if report.Failed > 0 {
		return
	}
	remaining, err := s.settlement.wagers.CountPendingByMatch(ctx, matchID)
	if err != nil || remaining > 0 {
		return
	}
	if err := s.matches.MarkSettled(ctx, matchID); err != nil {
		log.Error().Err(err).
			Str("match_id", matchID.String()).
			Msg("Failed to mark match as settled")
	}
}
