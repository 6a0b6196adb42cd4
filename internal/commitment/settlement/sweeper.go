// Package settlement varre as apostas ativas e resolve cada uma com o valor do provedor de dados.
package settlement

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/commitment-bets/internal/commitment/model"
)

// Resolver é o subconjunto do lifecycle.Service usado pela varredura
type Resolver interface {
	ListActive(ctx context.Context) ([]*model.Bet, error)
	ResolveFromProvider(ctx context.Context, betID string, now time.Time) (*model.Bet, error)
	Now() time.Time
}

// Sweeper resolve todas as apostas ativas em uma passada
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa
type Sweeper struct {
	Log      *zap.Logger
	Resolver Resolver

	OnScanned func(n int)   // métricas
	OnSettled func(outcome string)
	OnError   func(string) // métricas por fase
}

// Result resume uma passada
type Result struct {
	Scanned int
	Won     int
	Lost    int
	Pending int
	Failed  int
}

// Sweep usa um único "agora" para toda a passada; falha em uma aposta não interrompe as demais
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	var res Result
	bets, err := s.Resolver.ListActive(ctx)
	if err != nil {
		s.fail("list")
		return res, err
	}
	res.Scanned = len(bets)
	if s.OnScanned != nil {
		s.OnScanned(len(bets))
	}

	now := s.Resolver.Now()
	for _, b := range bets {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		out, err := s.Resolver.ResolveFromProvider(ctx, b.ID, now)
		if err != nil {
			res.Failed++
			s.Log.Warn("resolve failed", zap.String("betId", b.ID), zap.Error(err))
			s.fail(string(model.KindOf(err)))
			continue
		}
		switch out.Outcome {
		case model.OutcomeSuccess:
			res.Won++
		case model.OutcomeFailure:
			res.Lost++
		default:
			res.Pending++
			continue
		}
		if s.OnSettled != nil {
			s.OnSettled(string(out.Outcome))
		}
	}

	s.Log.Info("settlement sweep done",
		zap.Int("scanned", res.Scanned),
		zap.Int("won", res.Won),
		zap.Int("lost", res.Lost),
		zap.Int("pending", res.Pending),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}

func (s *Sweeper) fail(phase string) {
	if s.OnError != nil {
		s.OnError(phase)
	}
}
