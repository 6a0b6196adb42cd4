// Package lifecycle é dono do protocolo criar → pagar → ativar → liquidar das apostas
// de compromisso. É o único componente que altera phase e outcome.
package lifecycle

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/commitment-bets/internal/commitment/model"
	"github.com/radieske/commitment-bets/internal/commitment/progress"
	"github.com/radieske/commitment-bets/internal/commitment/status"
	"github.com/radieske/commitment-bets/pkg/contracts/events"
)

// Repository define a persistência usada pelo serviço.
// Update e DeleteDraft só gravam se a versão armazenada ainda for expectedVersion;
// caso contrário devolvem model.ErrVersionConflict.
type Repository interface {
	Create(ctx context.Context, b *model.Bet) error
	Get(ctx context.Context, id string) (*model.Bet, error)
	Update(ctx context.Context, b *model.Bet, expectedVersion int64) error
	DeleteDraft(ctx context.Context, id string, expectedVersion int64) error
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Bet, error)
	ListByPhase(ctx context.Context, phase model.Phase) ([]*model.Bet, error)
}

// PaymentGateway cria intents de pagamento; externalRef (betId) é a chave de idempotência
type PaymentGateway interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal, externalRef string) (model.PaymentIntent, error)
}

// DataProvider fornece o currentValue da meta de um usuário/categoria
type DataProvider interface {
	CurrentValue(ctx context.Context, ownerID string, category model.Category, asOf time.Time) (decimal.Decimal, error)
}

// SettlementSink recebe o evento de liquidação para reembolso/doação a jusante
type SettlementSink interface {
	PublishBetSettled(ctx context.Context, e events.BetSettled) error
}

// Options agrupa política e ganchos opcionais
type Options struct {
	AllowedDurations []int // dias; vazio = 7, 30, 90
	Progress         progress.Policy
	GatewayTimeout   time.Duration
	ProviderTimeout  time.Duration
	SinkTimeout      time.Duration
	Now              func() time.Time

	// métricas (op, result)
	OnTransition func(op, result string)
}

var defaultDurations = []int{7, 30, 90}

type Service struct {
	log      *zap.Logger
	repo     Repository
	gateway  PaymentGateway
	provider DataProvider
	sink     SettlementSink

	durations       map[int]struct{}
	machine         status.Machine
	gatewayTimeout  time.Duration
	providerTimeout time.Duration
	sinkTimeout     time.Duration
	now             func() time.Time
	onTransition    func(op, result string)

	locks *keyedMutex
}

// NewService instancia o serviço. provider e sink podem ser nil
// (sem provider, ResolveFromProvider falha com DataProviderError).
func NewService(log *zap.Logger, repo Repository, gw PaymentGateway, provider DataProvider, sink SettlementSink, opts Options) *Service {
	durs := opts.AllowedDurations
	if len(durs) == 0 {
		durs = defaultDurations
	}
	allowed := make(map[int]struct{}, len(durs))
	for _, d := range durs {
		allowed[d] = struct{}{}
	}
	if opts.Progress.OnTrackThreshold.IsZero() {
		opts.Progress = progress.DefaultPolicy()
	}
	if opts.GatewayTimeout <= 0 {
		opts.GatewayTimeout = 2 * time.Second
	}
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = 2 * time.Second
	}
	if opts.SinkTimeout <= 0 {
		opts.SinkTimeout = 2 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.OnTransition == nil {
		opts.OnTransition = func(string, string) {}
	}
	return &Service{
		log:             log,
		repo:            repo,
		gateway:         gw,
		provider:        provider,
		sink:            sink,
		durations:       allowed,
		machine:         status.New(opts.Progress),
		gatewayTimeout:  opts.GatewayTimeout,
		providerTimeout: opts.ProviderTimeout,
		sinkTimeout:     opts.SinkTimeout,
		now:             opts.Now,
		onTransition:    opts.OnTransition,
		locks:           newKeyedMutex(),
	}
}

// DraftInput são os dados informados pelo dono ao criar a aposta
type DraftInput struct {
	OwnerID      string
	Title        string
	Description  string
	Category     model.Category
	TargetValue  decimal.Decimal
	StakeAmount  decimal.Decimal
	DurationDays int
}

func (s *Service) validateDraft(in DraftInput) error {
	const op = "lifecycle.create_draft"
	switch {
	case strings.TrimSpace(in.OwnerID) == "":
		return model.E(op, model.KindInvalidInput, "owner is required")
	case strings.TrimSpace(in.Title) == "":
		return model.E(op, model.KindInvalidInput, "title is required")
	case !in.Category.Valid():
		return model.Errorf(op, model.KindInvalidInput, "unknown category %q", in.Category)
	case !in.TargetValue.IsPositive():
		return model.E(op, model.KindInvalidInput, "target value must be positive")
	case !in.StakeAmount.IsPositive():
		return model.E(op, model.KindInvalidInput, "stake amount must be positive")
	case !in.StakeAmount.Equal(in.StakeAmount.Round(2)) || !in.TargetValue.Equal(in.TargetValue.Round(2)):
		return model.E(op, model.KindInvalidInput, "amounts support at most 2 decimal places")
	}
	if _, ok := s.durations[in.DurationDays]; !ok {
		return model.Errorf(op, model.KindInvalidInput, "duration %d days not allowed", in.DurationDays)
	}
	return nil
}

// CreateDraft cria a aposta em draft; nenhum efeito externo
func (s *Service) CreateDraft(ctx context.Context, in DraftInput) (*model.Bet, error) {
	if err := s.validateDraft(in); err != nil {
		s.onTransition("create_draft", "rejected")
		return nil, err
	}

	now := s.now().UTC()
	b := &model.Bet{
		ID:           uuid.NewString(),
		OwnerID:      strings.TrimSpace(in.OwnerID),
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		Category:     in.Category,
		TargetValue:  in.TargetValue,
		CurrentValue: decimal.Zero,
		StakeAmount:  in.StakeAmount,
		StartDate:    now,
		EndDate:      now.Add(time.Duration(in.DurationDays) * 24 * time.Hour),
		Phase:        model.PhaseDraft,
		Outcome:      model.OutcomeNone,
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      1,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		s.onTransition("create_draft", "error")
		return nil, err
	}

	s.onTransition("create_draft", "ok")
	s.log.Info("bet draft created",
		zap.String("betId", b.ID),
		zap.String("ownerId", b.OwnerID),
		zap.String("category", string(b.Category)),
		zap.String("stake", b.StakeAmount.String()),
	)
	return b.Clone(), nil
}

// RequestPayment leva draft → pending_payment pedindo um intent ao gateway.
// Em pending_payment devolve o intent já gravado sem chamar o gateway.
func (s *Service) RequestPayment(ctx context.Context, betID string) (model.PaymentIntent, error) {
	const op = "lifecycle.request_payment"
	unlock := s.locks.Lock(betID)
	defer unlock()

	b, err := s.repo.Get(ctx, betID)
	if err != nil {
		return model.PaymentIntent{}, err
	}

	switch b.Phase {
	case model.PhasePendingPayment:
		s.onTransition("request_payment", "replayed")
		return model.PaymentIntent{ID: b.PaymentIntentID, Amount: b.StakeAmount}, nil
	case model.PhaseDraft:
	default:
		s.onTransition("request_payment", "rejected")
		return model.PaymentIntent{}, model.Errorf(op, model.KindInvalidState, "bet is %s", b.Phase)
	}

	gctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	intent, err := s.gateway.CreateIntent(gctx, b.StakeAmount, b.ID)
	cancel()
	if err != nil {
		s.onTransition("request_payment", "gateway_error")
		s.log.Warn("payment intent failed", zap.String("betId", b.ID), zap.Error(err))
		return model.PaymentIntent{}, model.Wrap(op, model.KindGatewayError, err)
	}
	if intent.ID == "" || !intent.Amount.Equal(b.StakeAmount) {
		s.onTransition("request_payment", "gateway_error")
		return model.PaymentIntent{}, model.Errorf(op, model.KindGatewayError,
			"gateway returned intent %q for %s, expected %s", intent.ID, intent.Amount, b.StakeAmount)
	}

	next := b.Clone()
	next.Phase = model.PhasePendingPayment
	next.PaymentIntentID = intent.ID
	next.UpdatedAt = s.now().UTC()
	if err := s.commit(ctx, op, next, b.Version); err != nil {
		s.onTransition("request_payment", "error")
		return model.PaymentIntent{}, err
	}

	s.onTransition("request_payment", "ok")
	s.log.Info("payment requested", zap.String("betId", b.ID), zap.String("intentId", intent.ID))
	return model.PaymentIntent{ID: intent.ID, Amount: b.StakeAmount}, nil
}

// Activate confirma a captura: pending_payment → active.
// Intent ou valor divergentes resultam em PaymentMismatch e a fase não muda.
func (s *Service) Activate(ctx context.Context, betID, intentID string, amountPaid decimal.Decimal) (*model.Bet, error) {
	const op = "lifecycle.activate"
	unlock := s.locks.Lock(betID)
	defer unlock()

	b, err := s.repo.Get(ctx, betID)
	if err != nil {
		return nil, err
	}
	if b.Phase != model.PhasePendingPayment {
		s.onTransition("activate", "rejected")
		return nil, model.Errorf(op, model.KindInvalidState, "bet is %s", b.Phase)
	}
	if intentID != b.PaymentIntentID {
		s.onTransition("activate", "mismatch")
		return nil, model.E(op, model.KindPaymentMismatch, "payment intent does not match")
	}
	if !amountPaid.Equal(b.StakeAmount) {
		s.onTransition("activate", "mismatch")
		return nil, model.Errorf(op, model.KindPaymentMismatch, "paid %s, stake is %s", amountPaid, b.StakeAmount)
	}

	next := b.Clone()
	next.Phase = model.PhaseActive
	next.UpdatedAt = s.now().UTC()
	if err := s.commit(ctx, op, next, b.Version); err != nil {
		s.onTransition("activate", "error")
		return nil, err
	}

	s.onTransition("activate", "ok")
	s.log.Info("bet activated", zap.String("betId", b.ID), zap.String("ownerId", b.OwnerID))
	return next.Clone(), nil
}

// Resolve aplica a regra de liquidação com o currentValue informado.
// Em aposta já liquidada é no-op e devolve a aposta como está.
func (s *Service) Resolve(ctx context.Context, betID string, now time.Time, currentValue decimal.Decimal) (*model.Bet, error) {
	const op = "lifecycle.resolve"
	if currentValue.IsNegative() {
		return nil, model.E(op, model.KindInvalidInput, "current value must not be negative")
	}
	if !currentValue.Equal(currentValue.Round(2)) {
		return nil, model.E(op, model.KindInvalidInput, "current value supports at most 2 decimal places")
	}

	out, settled, err := s.resolveValueLocked(ctx, betID, now, currentValue)
	if settled {
		s.emitSettled(ctx, out)
	}
	return out, err
}

// ResolveFromProvider busca o currentValue no provedor (com timeout) e resolve.
// Aposta já liquidada retorna sem consultar o provedor.
func (s *Service) ResolveFromProvider(ctx context.Context, betID string, now time.Time) (*model.Bet, error) {
	out, settled, err := s.resolveFromProviderLocked(ctx, betID, now)
	if settled {
		s.emitSettled(ctx, out)
	}
	return out, err
}

// Os *Locked seguram o lock da aposta e devolvem settled=true quando esta chamada liquidou.
// O evento é emitido pelo chamador, já fora do lock.
func (s *Service) resolveValueLocked(ctx context.Context, betID string, now time.Time, value decimal.Decimal) (*model.Bet, bool, error) {
	unlock := s.locks.Lock(betID)
	defer unlock()

	b, err := s.repo.Get(ctx, betID)
	if err != nil {
		return nil, false, err
	}
	return s.resolveLocked(ctx, b, now, value)
}

func (s *Service) resolveFromProviderLocked(ctx context.Context, betID string, now time.Time) (*model.Bet, bool, error) {
	const op = "lifecycle.resolve"
	unlock := s.locks.Lock(betID)
	defer unlock()

	b, err := s.repo.Get(ctx, betID)
	if err != nil {
		return nil, false, err
	}
	if b.Phase == model.PhaseSettled {
		return b, false, nil
	}
	if b.Phase != model.PhaseActive {
		s.onTransition("resolve", "rejected")
		return nil, false, model.Errorf(op, model.KindInvalidState, "bet is %s", b.Phase)
	}
	if s.provider == nil {
		return nil, false, model.E(op, model.KindDataProviderError, "no data provider configured")
	}

	pctx, cancel := context.WithTimeout(ctx, s.providerTimeout)
	value, err := s.provider.CurrentValue(pctx, b.OwnerID, b.Category, now)
	cancel()
	if err != nil {
		s.onTransition("resolve", "provider_error")
		return nil, false, model.Wrap(op, model.KindDataProviderError, err)
	}
	if value.IsNegative() {
		s.onTransition("resolve", "provider_error")
		return nil, false, model.Errorf(op, model.KindDataProviderError, "provider returned negative value %s", value)
	}
	// mesma escala da coluna NUMERIC(18,2)
	return s.resolveLocked(ctx, b, now, value.Round(2))
}

func (s *Service) resolveLocked(ctx context.Context, b *model.Bet, now time.Time, reported decimal.Decimal) (*model.Bet, bool, error) {
	const op = "lifecycle.resolve"
	switch b.Phase {
	case model.PhaseSettled:
		s.onTransition("resolve", "noop")
		return b, false, nil
	case model.PhaseActive:
	default:
		s.onTransition("resolve", "rejected")
		return nil, false, model.Errorf(op, model.KindInvalidState, "bet is %s", b.Phase)
	}

	// currentValue nunca diminui: valor menor do provedor é ignorado
	current := decimal.Max(b.CurrentValue, reported)
	pct, err := progress.Percent(current, b.TargetValue)
	if err != nil {
		return nil, false, err
	}

	next := b.Clone()
	next.CurrentValue = current
	switch {
	case progress.Complete(pct) && !now.After(b.EndDate):
		next.Outcome = model.OutcomeSuccess
	case now.After(b.EndDate):
		next.Outcome = model.OutcomeFailure
	default:
		if current.Equal(b.CurrentValue) {
			s.onTransition("resolve", "unchanged")
			return b, false, nil
		}
		next.UpdatedAt = s.now().UTC()
		if err := s.commit(ctx, op, next, b.Version); err != nil {
			s.onTransition("resolve", "error")
			return nil, false, err
		}
		s.onTransition("resolve", "progress")
		return next.Clone(), false, nil
	}

	settledAt := now.UTC()
	next.Phase = model.PhaseSettled
	next.SettledAt = &settledAt
	next.UpdatedAt = s.now().UTC()
	if err := s.commit(ctx, op, next, b.Version); err != nil {
		s.onTransition("resolve", "error")
		return nil, false, err
	}

	s.onTransition("resolve", string(next.Outcome))
	s.log.Info("bet settled",
		zap.String("betId", next.ID),
		zap.String("ownerId", next.OwnerID),
		zap.String("outcome", string(next.Outcome)),
		zap.String("current", next.CurrentValue.String()),
		zap.String("target", next.TargetValue.String()),
	)
	return next.Clone(), true, nil
}

// emitSettled publica o evento depois do commit. A liquidação é terminal e já está
// gravada; falha no sink é registrada e contada para reprocessamento a partir da tabela.
func (s *Service) emitSettled(ctx context.Context, b *model.Bet) {
	if s.sink == nil {
		return
	}
	ev := SettlementEvent(b)
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.sinkTimeout)
	defer cancel()
	if err := s.sink.PublishBetSettled(sctx, ev); err != nil {
		s.onTransition("settlement_event", "error")
		s.log.Error("publish bet_settled failed", zap.String("betId", b.ID), zap.Error(err))
		return
	}
	s.onTransition("settlement_event", "ok")
}

// SettlementEvent monta o contrato bet_settled a partir de uma aposta liquidada
func SettlementEvent(b *model.Bet) events.BetSettled {
	ev := events.BetSettled{
		BetID:       b.ID,
		OwnerID:     b.OwnerID,
		Outcome:     string(b.Outcome),
		StakeAmount: b.StakeAmount.StringFixed(2),
		Category:    string(b.Category),
	}
	if b.SettledAt != nil {
		ev.SettledAt = *b.SettledAt
	}
	return ev
}

// Abandon remove um draft. Qualquer outra fase é InvalidState: aposta com
// pagamento solicitado ou capturado nunca é apagada.
func (s *Service) Abandon(ctx context.Context, betID string) error {
	const op = "lifecycle.abandon"
	unlock := s.locks.Lock(betID)
	defer unlock()

	b, err := s.repo.Get(ctx, betID)
	if err != nil {
		return err
	}
	if b.Phase != model.PhaseDraft {
		s.onTransition("abandon", "rejected")
		return model.Errorf(op, model.KindInvalidState, "bet is %s", b.Phase)
	}
	if err := s.repo.DeleteDraft(ctx, b.ID, b.Version); err != nil {
		s.onTransition("abandon", "error")
		if errors.Is(err, model.ErrVersionConflict) {
			return model.Wrap(op, model.KindInvalidState, err)
		}
		return err
	}
	s.onTransition("abandon", "ok")
	s.log.Info("bet draft abandoned", zap.String("betId", b.ID))
	return nil
}

// commit grava com checagem de versão; conflito vira InvalidState para o perdedor
func (s *Service) commit(ctx context.Context, op string, next *model.Bet, expected int64) error {
	if err := s.repo.Update(ctx, next, expected); err != nil {
		if errors.Is(err, model.ErrVersionConflict) {
			s.log.Warn("concurrent transition lost", zap.String("betId", next.ID), zap.String("op", op))
			return model.Wrap(op, model.KindInvalidState, err)
		}
		return err
	}
	return nil
}

func (s *Service) Get(ctx context.Context, betID string) (*model.Bet, error) {
	return s.repo.Get(ctx, betID)
}

func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]*model.Bet, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, model.E("lifecycle.list_by_owner", model.KindInvalidInput, "owner is required")
	}
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *Service) ListActive(ctx context.Context) ([]*model.Bet, error) {
	return s.repo.ListByPhase(ctx, model.PhaseActive)
}

func (s *Service) ListSettled(ctx context.Context) ([]*model.Bet, error) {
	return s.repo.ListByPhase(ctx, model.PhaseSettled)
}

// View devolve a aposta com progresso, dias restantes e rótulo derivados
func (s *Service) View(b *model.Bet, now time.Time) status.View {
	return s.machine.View(b, now)
}

func (s *Service) Now() time.Time { return s.now() }
