// Package leaderboard monta o ranking de jogadores a partir das apostas liquidadas.
package leaderboard

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/radieske/commitment-bets/internal/commitment/model"
)

// Entry é derivado, nunca armazenado como fonte de verdade
type Entry struct {
	Rank     int
	PlayerID string
	Points   decimal.Decimal
	Wins     int
}

// Scorer define quantos pontos uma vitória vale
type Scorer interface {
	PointsFor(b *model.Bet) decimal.Decimal
}

// StakeScorer: pontos proporcionais ao valor apostado
type StakeScorer struct {
	PerUnit decimal.Decimal
}

func (s StakeScorer) PointsFor(b *model.Bet) decimal.Decimal {
	per := s.PerUnit
	if per.IsZero() {
		per = decimal.NewFromInt(1)
	}
	return b.StakeAmount.Mul(per)
}

// FixedScorer: toda vitória vale o mesmo
type FixedScorer struct {
	Points decimal.Decimal
}

func (s FixedScorer) PointsFor(*model.Bet) decimal.Decimal { return s.Points }

// Ranker não guarda estado entre chamadas
type Ranker struct {
	Scorer Scorer
}

func NewRanker(s Scorer) Ranker {
	if s == nil {
		s = StakeScorer{}
	}
	return Ranker{Scorer: s}
}

// Rank agrupa por dono e ordena por pontos desc, vitórias desc, playerId asc.
// Só contam apostas liquidadas com sucesso; a entrada não é alterada.
func (r Ranker) Rank(bets []*model.Bet) []Entry {
	scorer := r.Scorer
	if scorer == nil {
		scorer = StakeScorer{}
	}

	byPlayer := make(map[string]*Entry)
	for _, b := range bets {
		if b == nil || b.Phase != model.PhaseSettled || b.Outcome != model.OutcomeSuccess {
			continue
		}
		e, ok := byPlayer[b.OwnerID]
		if !ok {
			e = &Entry{PlayerID: b.OwnerID, Points: decimal.Zero}
			byPlayer[b.OwnerID] = e
		}
		e.Points = e.Points.Add(scorer.PointsFor(b))
		e.Wins++
	}

	out := make([]Entry, 0, len(byPlayer))
	for _, e := range byPlayer {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Points.Cmp(out[j].Points); c != 0 {
			return c > 0
		}
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
