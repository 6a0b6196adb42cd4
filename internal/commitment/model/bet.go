package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Phase é o estado de criação/pagamento persistido da aposta
type Phase string

const (
	PhaseDraft          Phase = "draft"
	PhasePendingPayment Phase = "pending_payment"
	PhaseActive         Phase = "active"
	PhaseSettled        Phase = "settled"
)

// Outcome só é diferente de none quando a fase é settled
type Outcome string

const (
	OutcomeNone    Outcome = "none"
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

type Category string

const (
	CategorySavings       Category = "savings"
	CategoryDebt          Category = "debt"
	CategoryInvestment    Category = "investment"
	CategoryPurchase      Category = "purchase"
	CategorySpendingLimit Category = "spending_limit"
	CategoryHabitChange   Category = "habit_change"
)

var categories = map[Category]struct{}{
	CategorySavings:       {},
	CategoryDebt:          {},
	CategoryInvestment:    {},
	CategoryPurchase:      {},
	CategorySpendingLimit: {},
	CategoryHabitChange:   {},
}

func (c Category) Valid() bool {
	_, ok := categories[c]
	return ok
}

func (p Phase) Valid() bool {
	switch p {
	case PhaseDraft, PhasePendingPayment, PhaseActive, PhaseSettled:
		return true
	}
	return false
}

func (o Outcome) Valid() bool {
	switch o {
	case OutcomeNone, OutcomeSuccess, OutcomeFailure:
		return true
	}
	return false
}

// Bet é a aposta de compromisso: o usuário trava um valor contra uma meta financeira
// com prazo. O valor volta em caso de sucesso e vai para caridade em caso de falha.
type Bet struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	Category    Category

	TargetValue  decimal.Decimal
	CurrentValue decimal.Decimal
	StakeAmount  decimal.Decimal

	StartDate time.Time
	EndDate   time.Time

	Phase           Phase
	Outcome         Outcome
	PaymentIntentID string

	// metadados de auditoria
	CreatedAt time.Time
	UpdatedAt time.Time
	SettledAt *time.Time
	Version   int64
}

// Clone devolve uma cópia independente (decimais são imutáveis; só o ponteiro precisa de cópia)
func (b *Bet) Clone() *Bet {
	if b == nil {
		return nil
	}
	c := *b
	if b.SettledAt != nil {
		t := *b.SettledAt
		c.SettledAt = &t
	}
	return &c
}

// CheckInvariants valida as regras estruturais da entidade.
// Usado pelos repositórios antes de persistir.
func (b *Bet) CheckInvariants() error {
	const op = "bet.invariants"
	switch {
	case b.ID == "" || b.OwnerID == "":
		return E(op, KindInvalidInput, "id and owner are required")
	case !b.TargetValue.IsPositive():
		return E(op, KindInvalidInput, "target value must be positive")
	case !b.StakeAmount.IsPositive():
		return E(op, KindInvalidInput, "stake amount must be positive")
	case b.CurrentValue.IsNegative():
		return E(op, KindInvalidInput, "current value must not be negative")
	case !b.EndDate.After(b.StartDate):
		return E(op, KindInvalidInput, "end date must be after start date")
	case !b.Category.Valid():
		return E(op, KindInvalidInput, "unknown category")
	case !b.Phase.Valid() || !b.Outcome.Valid():
		return E(op, KindInvalidState, "unknown phase or outcome")
	case (b.Outcome != OutcomeNone) != (b.Phase == PhaseSettled):
		return E(op, KindInvalidState, "outcome must be set exactly when settled")
	case (b.PaymentIntentID != "") != (b.Phase != PhaseDraft):
		return E(op, KindInvalidState, "payment intent must be set exactly when not draft")
	}
	return nil
}
