package status

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/commitment-bets/internal/commitment/model"
)

// Summary agrega as apostas de um dono
type Summary struct {
	OwnerID        string
	Total          int
	Counts         map[Label]int   // todas as Labels presentes, mesmo com zero
	TotalStaked    decimal.Decimal // soma das apostas pagas (active e settled)
	TotalWonBack   decimal.Decimal // stake devolvido em vitórias
	TotalForfeited decimal.Decimal // stake doado em derrotas
}

// Summarize usa o mesmo "agora" para todas as apostas
func (m Machine) Summarize(ownerID string, bets []*model.Bet, now time.Time) Summary {
	s := Summary{
		OwnerID:        ownerID,
		Counts:         make(map[Label]int, len(Labels)),
		TotalStaked:    decimal.Zero,
		TotalWonBack:   decimal.Zero,
		TotalForfeited: decimal.Zero,
	}
	for _, l := range Labels {
		s.Counts[l] = 0
	}
	for _, b := range bets {
		if b == nil || b.OwnerID != ownerID {
			continue
		}
		s.Total++
		s.Counts[m.Label(b, now)]++
		if b.Phase == model.PhaseDraft || b.Phase == model.PhasePendingPayment {
			continue
		}
		s.TotalStaked = s.TotalStaked.Add(b.StakeAmount)
		switch b.Outcome {
		case model.OutcomeSuccess:
			s.TotalWonBack = s.TotalWonBack.Add(b.StakeAmount)
		case model.OutcomeFailure:
			s.TotalForfeited = s.TotalForfeited.Add(b.StakeAmount)
		}
	}
	return s
}
