// Package status deriva o rótulo exibido ao usuário a partir da fase/resultado persistidos.
// O rótulo nunca é armazenado.
package status

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/commitment-bets/internal/commitment/model"
	"github.com/radieske/commitment-bets/internal/commitment/progress"
)

type Label string

const (
	LabelPending Label = "pending"
	LabelActive  Label = "active"
	LabelOnTrack Label = "on_track"
	LabelWon     Label = "won"
	LabelLost    Label = "lost"
)

// Labels em ordem estável para agregações
var Labels = []Label{LabelPending, LabelActive, LabelOnTrack, LabelWon, LabelLost}

// Machine aplica a política de progresso na derivação
type Machine struct {
	Policy progress.Policy
}

func New(p progress.Policy) Machine { return Machine{Policy: p} }

// Derive é a função pura (phase, outcome, percent) -> rótulo
func (m Machine) Derive(phase model.Phase, outcome model.Outcome, percent decimal.Decimal) Label {
	switch phase {
	case model.PhaseSettled:
		if outcome == model.OutcomeSuccess {
			return LabelWon
		}
		return LabelLost
	case model.PhaseActive:
		if m.Policy.IsOnTrack(percent) {
			return LabelOnTrack
		}
		return LabelActive
	default:
		return LabelPending
	}
}

// View é a aposta acompanhada dos valores derivados
type View struct {
	Bet             *model.Bet
	ProgressPercent decimal.Decimal
	DaysRemaining   int
	Label           Label
}

func (m Machine) View(b *model.Bet, now time.Time) View {
	pct, err := progress.Percent(b.CurrentValue, b.TargetValue)
	if err != nil {
		// target inválido não passa pelos repositórios; trata como 0%
		pct = decimal.Zero
	}
	days := progress.DaysRemaining(b.EndDate, now)
	if b.Phase == model.PhaseSettled {
		days = 0
	}
	return View{
		Bet:             b,
		ProgressPercent: pct,
		DaysRemaining:   days,
		Label:           m.Derive(b.Phase, b.Outcome, pct),
	}
}

// Label é o atalho para quem só precisa do rótulo
func (m Machine) Label(b *model.Bet, now time.Time) Label {
	return m.View(b, now).Label
}
