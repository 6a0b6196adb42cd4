package settlement

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/commitment-bets/internal/commitment/model"
)

type stubResolver struct {
	mu       sync.Mutex
	bets     []*model.Bet
	listErr  error
	outcomes map[string]model.Outcome
	errs     map[string]error
	seenNow  []time.Time
	now      time.Time
}

func (r *stubResolver) ListActive(context.Context) ([]*model.Bet, error) {
	return r.bets, r.listErr
}

func (r *stubResolver) ResolveFromProvider(_ context.Context, id string, now time.Time) (*model.Bet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seenNow = append(r.seenNow, now)
	if err := r.errs[id]; err != nil {
		return nil, err
	}
	b := &model.Bet{ID: id, Phase: model.PhaseActive}
	if o, ok := r.outcomes[id]; ok {
		b.Phase = model.PhaseSettled
		b.Outcome = o
	}
	return b, nil
}

func (r *stubResolver) Now() time.Time { return r.now }

func TestSweep_ContinuesPastFailures(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	r := &stubResolver{
		bets: []*model.Bet{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}},
		outcomes: map[string]model.Outcome{
			"a": model.OutcomeSuccess,
			"c": model.OutcomeFailure,
		},
		errs: map[string]error{
			"b": model.E("findata", model.KindDataProviderError, "down"),
		},
		now: now,
	}

	var settled []string
	errPhases := map[string]int{}
	scanned := 0
	s := &Sweeper{
		Log:       zap.NewNop(),
		Resolver:  r,
		OnScanned: func(n int) { scanned = n },
		OnSettled: func(o string) { settled = append(settled, o) },
		OnError:   func(p string) { errPhases[p]++ },
	}

	res, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	want := Result{Scanned: 4, Won: 1, Lost: 1, Pending: 1, Failed: 1}
	if res != want {
		t.Fatalf("result=%+v want %+v", res, want)
	}
	if scanned != 4 || len(settled) != 2 {
		t.Fatalf("scanned=%d settled=%v", scanned, settled)
	}
	if errPhases[string(model.KindDataProviderError)] != 1 {
		t.Fatalf("error phases=%v", errPhases)
	}
	for _, n := range r.seenNow {
		if !n.Equal(now) {
			t.Fatalf("sweep must use a single now, got %v", n)
		}
	}
}

func TestSweep_ListError(t *testing.T) {
	r := &stubResolver{listErr: errors.New("db down")}
	var phases []string
	s := &Sweeper{Log: zap.NewNop(), Resolver: r, OnError: func(p string) { phases = append(phases, p) }}

	if _, err := s.Sweep(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if len(phases) != 1 || phases[0] != "list" {
		t.Fatalf("phases=%v", phases)
	}
}

func TestSweep_StopsOnCancel(t *testing.T) {
	r := &stubResolver{bets: []*model.Bet{{ID: "a"}, {ID: "b"}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &Sweeper{Log: zap.NewNop(), Resolver: r}
	if _, err := s.Sweep(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v", err)
	}
	if len(r.seenNow) != 0 {
		t.Fatalf("no bet should be resolved after cancel")
	}
}
