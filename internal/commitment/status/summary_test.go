package status

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/commitment-bets/internal/commitment/model"
	"github.com/radieske/commitment-bets/internal/commitment/progress"
)

func TestSummarize(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	end := now.Add(10 * 24 * time.Hour)
	mk := func(owner string, phase model.Phase, outcome model.Outcome, current, stake int64) *model.Bet {
		return &model.Bet{
			OwnerID: owner, Phase: phase, Outcome: outcome,
			TargetValue:  decimal.NewFromInt(100),
			CurrentValue: decimal.NewFromInt(current),
			StakeAmount:  decimal.NewFromInt(stake),
			EndDate:      end,
		}
	}
	bets := []*model.Bet{
		mk("u1", model.PhaseDraft, model.OutcomeNone, 0, 5),
		mk("u1", model.PhasePendingPayment, model.OutcomeNone, 0, 7),
		mk("u1", model.PhaseActive, model.OutcomeNone, 10, 20),
		mk("u1", model.PhaseActive, model.OutcomeNone, 80, 30),
		mk("u1", model.PhaseSettled, model.OutcomeSuccess, 100, 50),
		mk("u1", model.PhaseSettled, model.OutcomeFailure, 40, 15),
		mk("u2", model.PhaseSettled, model.OutcomeSuccess, 100, 999),
		nil,
	}

	s := New(progress.DefaultPolicy()).Summarize("u1", bets, now)

	if s.Total != 6 {
		t.Fatalf("total=%d want 6", s.Total)
	}
	wantCounts := map[Label]int{LabelPending: 2, LabelActive: 1, LabelOnTrack: 1, LabelWon: 1, LabelLost: 1}
	for l, n := range wantCounts {
		if s.Counts[l] != n {
			t.Errorf("counts[%s]=%d want %d", l, s.Counts[l], n)
		}
	}
	checks := []struct {
		name string
		got  decimal.Decimal
		want int64
	}{
		{"staked", s.TotalStaked, 115},
		{"won back", s.TotalWonBack, 50},
		{"forfeited", s.TotalForfeited, 15},
	}
	for _, c := range checks {
		if !c.got.Equal(decimal.NewFromInt(c.want)) {
			t.Errorf("%s=%s want %d", c.name, c.got, c.want)
		}
	}
}

func TestSummarize_EmptyHasAllLabels(t *testing.T) {
	s := New(progress.DefaultPolicy()).Summarize("nobody", nil, time.Now())
	if len(s.Counts) != len(Labels) {
		t.Fatalf("counts=%v", s.Counts)
	}
	if !s.TotalStaked.IsZero() || s.Total != 0 {
		t.Fatalf("summary=%+v", s)
	}
}
