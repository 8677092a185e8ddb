// Settlement properties exercised as database-free simulations: combo
// re-evaluation and the exactly-once guarantee of state-CAS grading.
package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"pgregory.net/rapid"

	"eazybet-backend/internal/model"
)

func finishedMatch(id uuid.UUID, result model.Choice) *model.Match {
	return &model.Match{ID: id, Status: model.MatchFinished, Result: &result}
}

func upcomingMatch(id uuid.UUID) *model.Match {
	return &model.Match{ID: id, Status: model.MatchUpcoming}
}

// drawChoice picks one of the three outcomes.
func drawChoice(t *rapid.T, label string) model.Choice {
	return rapid.SampledFrom([]model.Choice{
		model.ChoiceHome, model.ChoiceDraw, model.ChoiceAway,
	}).Draw(t, label)
}

// TestEvaluateComboProperty: a combo loses as soon as any resolved leg
// contradicts its selection, wins only when every leg resolved in its
// favor, and stays pending otherwise.
func TestEvaluateComboProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		legs := rapid.IntRange(2, 8).Draw(t, "legs")

		combo := &model.ComboWager{ID: uuid.New(), State: model.WagerPending}
		matches := make(map[uuid.UUID]*model.Match, legs)

		anyContradiction := false
		anyUnresolved := false
		for i := 0; i < legs; i++ {
			matchID := uuid.New()
			choice := drawChoice(t, "choice")
			combo.Selections = append(combo.Selections, model.Selection{
				MatchID: matchID,
				Choice:  choice,
			})

			switch rapid.IntRange(0, 2).Draw(t, "legState") {
			case 0: // resolved in the combo's favor
				matches[matchID] = finishedMatch(matchID, choice)
			case 1: // resolved against it
				wrong := model.ChoiceHome
				if choice == model.ChoiceHome {
					wrong = model.ChoiceAway
				}
				matches[matchID] = finishedMatch(matchID, wrong)
				anyContradiction = true
			default: // not finished yet
				matches[matchID] = upcomingMatch(matchID)
				anyUnresolved = true
			}
		}

		verdict := evaluateCombo(combo, matches)

		switch {
		case anyContradiction:
			if verdict != comboLost {
				t.Fatalf("contradicted combo got verdict %d, want lost", verdict)
			}
		case anyUnresolved:
			if verdict != comboPending {
				t.Fatalf("unresolved combo got verdict %d, want pending", verdict)
			}
		default:
			if verdict != comboWon {
				t.Fatalf("fully correct combo got verdict %d, want won", verdict)
			}
		}
	})
}

// TestEvaluateComboMissingMatchStaysPending: a leg whose match is not
// loaded can never decide the combo.
func TestEvaluateComboMissingMatchStaysPending(t *testing.T) {
	m1 := uuid.New()
	combo := &model.ComboWager{
		ID:    uuid.New(),
		State: model.WagerPending,
		Selections: []model.Selection{
			{MatchID: m1, Choice: model.ChoiceHome},
			{MatchID: uuid.New(), Choice: model.ChoiceDraw},
		},
	}
	matches := map[uuid.UUID]*model.Match{m1: finishedMatch(m1, model.ChoiceHome)}

	if verdict := evaluateCombo(combo, matches); verdict != comboPending {
		t.Fatalf("verdict = %d, want pending", verdict)
	}
}

// casLedger simulates the store-side state CAS: a wager leaves PENDING
// exactly once no matter how many settlement runs race over it.
type casLedger struct {
	mu      sync.Mutex
	states  map[uuid.UUID]model.WagerState
	credits map[uuid.UUID]decimal.Decimal
}

func (l *casLedger) settle(id uuid.UUID, state model.WagerState, payout decimal.Decimal) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.states[id] != model.WagerPending {
		return false
	}
	l.states[id] = state
	l.credits[id] = l.credits[id].Add(payout)
	return true
}

// TestGradeReportsLostRace: a CAS that did not swap means another run
// already graded the wager; grading reports false so the run's counts
// only cover wagers it actually flipped.
func TestGradeReportsLostRace(t *testing.T) {
	s := &SettlementService{}
	alreadySettled := func(ctx context.Context, id uuid.UUID, state model.WagerState, realized decimal.Decimal) (bool, error) {
		return false, nil
	}

	graded, err := s.gradeWin(context.Background(), uuid.New(), false, uuid.New(), uuid.New(),
		model.CurrencyTokens, decimal.NewFromInt(50), decimal.Zero, alreadySettled)
	if err != nil {
		t.Fatalf("gradeWin: %v", err)
	}
	if graded {
		t.Fatal("gradeWin reported a grade for a wager it did not flip")
	}

	graded, err = s.gradeLoss(context.Background(), uuid.New(), false, uuid.New(), uuid.New(), alreadySettled)
	if err != nil {
		t.Fatalf("gradeLoss: %v", err)
	}
	if graded {
		t.Fatal("gradeLoss reported a grade for a wager it did not flip")
	}
}

// TestSettlementExactlyOnceProperty: concurrent settlement runs over
// the same wager set credit each winning wager exactly once and leave
// every wager in a terminal state.
func TestSettlementExactlyOnceProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numWagers := rapid.IntRange(1, 30).Draw(t, "numWagers")
		numRuns := rapid.IntRange(2, 6).Draw(t, "numRuns")

		ledger := &casLedger{
			states:  make(map[uuid.UUID]model.WagerState),
			credits: make(map[uuid.UUID]decimal.Decimal),
		}

		ids := make([]uuid.UUID, numWagers)
		won := make(map[uuid.UUID]bool, numWagers)
		payout := decimal.NewFromInt(50)
		for i := range ids {
			ids[i] = uuid.New()
			ledger.states[ids[i]] = model.WagerPending
			ledger.credits[ids[i]] = decimal.Zero
			won[ids[i]] = rapid.Bool().Draw(t, "won")
		}

		// Every run grades the full set, racing the others.
		var wg sync.WaitGroup
		wg.Add(numRuns)
		for r := 0; r < numRuns; r++ {
			go func() {
				defer wg.Done()
				for _, id := range ids {
					if won[id] {
						ledger.settle(id, model.WagerWon, payout)
					} else {
						ledger.settle(id, model.WagerLost, decimal.Zero)
					}
				}
			}()
		}
		wg.Wait()

		for _, id := range ids {
			state := ledger.states[id]
			if state == model.WagerPending {
				t.Fatalf("wager %s still pending after %d runs", id, numRuns)
			}
			wantCredit := decimal.Zero
			if won[id] {
				wantCredit = payout
			}
			if !ledger.credits[id].Equal(wantCredit) {
				t.Fatalf("wager %s credited %s, want %s", id, ledger.credits[id], wantCredit)
			}
		}
	})
}
