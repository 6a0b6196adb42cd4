// Package progress calcula percentual de conclusão e sinais de prazo de uma meta.
// Funções puras, sem dependências de I/O.
package progress

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/commitment-bets/internal/commitment/model"
)

// DefaultOnTrackThreshold é o percentual mínimo para considerar a meta "no caminho"
const DefaultOnTrackThreshold = 75

var (
	hundred = decimal.NewFromInt(100)
	day     = 24 * time.Hour
)

// Policy carrega os limiares configuráveis
type Policy struct {
	OnTrackThreshold decimal.Decimal
}

func DefaultPolicy() Policy {
	return Policy{OnTrackThreshold: decimal.NewFromInt(DefaultOnTrackThreshold)}
}

// NewPolicy aceita o limiar vindo de config; valores fora de (0,100] caem no default
func NewPolicy(threshold float64) Policy {
	if threshold <= 0 || threshold > 100 {
		return DefaultPolicy()
	}
	return Policy{OnTrackThreshold: decimal.NewFromFloat(threshold)}
}

// Percent = min(100, 100 * current / target), sempre em [0,100]
func Percent(current, target decimal.Decimal) (decimal.Decimal, error) {
	if !target.IsPositive() {
		return decimal.Zero, model.E("progress.percent", model.KindInvalidInput, "target value must be positive")
	}
	if current.IsNegative() {
		current = decimal.Zero
	}
	p := current.Mul(hundred).Div(target)
	if p.GreaterThan(hundred) {
		return hundred, nil
	}
	return p, nil
}

// DaysRemaining = max(0, ceil((end - now) / 1 dia))
func DaysRemaining(end, now time.Time) int {
	left := end.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(float64(left) / float64(day)))
}

func (p Policy) IsOnTrack(percent decimal.Decimal) bool {
	return percent.GreaterThanOrEqual(p.OnTrackThreshold)
}

// IsOnTrack usa o limiar padrão
func IsOnTrack(percent decimal.Decimal) bool {
	return DefaultPolicy().IsOnTrack(percent)
}

// Complete indica que a meta foi atingida (100%)
func Complete(percent decimal.Decimal) bool {
	return percent.GreaterThanOrEqual(hundred)
}
