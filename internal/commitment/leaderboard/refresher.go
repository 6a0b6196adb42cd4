package leaderboard

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/commitment-bets/internal/commitment/model"
	"github.com/radieske/commitment-bets/pkg/contracts/events"
)

// SettledSource lista as apostas já liquidadas
type SettledSource interface {
	ListSettled(ctx context.Context) ([]*model.Bet, error)
}

// Store guarda o último ranking (ex.: *Cache)
type Store interface {
	Get(ctx context.Context) ([]Entry, bool, error)
	Set(ctx context.Context, upd events.LeaderboardUpdate) error
}

// Publisher difunde o ranking (ex.: *Broadcaster)
type Publisher interface {
	Publish(ctx context.Context, upd events.LeaderboardUpdate) error
}

// Refresher recalcula o ranking a partir das apostas liquidadas.
// Store e Publisher são opcionais; falha neles só gera log.
type Refresher struct {
	Log       *zap.Logger
	Source    SettledSource
	Ranker    Ranker
	Store     Store
	Publisher Publisher
	Now       func() time.Time
}

// Refresh recalcula, grava no cache e publica
func (r *Refresher) Refresh(ctx context.Context, cause string) (events.LeaderboardUpdate, error) {
	bets, err := r.Source.ListSettled(ctx)
	if err != nil {
		return events.LeaderboardUpdate{}, err
	}
	upd := ToContract(r.Ranker.Rank(bets), cause, r.now())

	if r.Store != nil {
		if err := r.Store.Set(ctx, upd); err != nil {
			r.Log.Warn("leaderboard cache set failed", zap.Error(err))
		}
	}
	if r.Publisher != nil {
		if err := r.Publisher.Publish(ctx, upd); err != nil {
			r.Log.Warn("leaderboard publish failed", zap.Error(err))
		}
	}
	return upd, nil
}

// Current serve do cache quando possível; em miss ou erro do cache recalcula
func (r *Refresher) Current(ctx context.Context) ([]Entry, error) {
	if r.Store != nil {
		entries, ok, err := r.Store.Get(ctx)
		if err != nil {
			r.Log.Warn("leaderboard cache get failed", zap.Error(err))
		}
		if ok {
			return entries, nil
		}
	}
	bets, err := r.Source.ListSettled(ctx)
	if err != nil {
		return nil, err
	}
	entries := r.Ranker.Rank(bets)
	if r.Store != nil {
		if err := r.Store.Set(ctx, ToContract(entries, "cache_miss", r.now())); err != nil {
			r.Log.Warn("leaderboard cache set failed", zap.Error(err))
		}
	}
	return entries, nil
}

func (r *Refresher) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
