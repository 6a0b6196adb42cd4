package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/commitment-bets/internal/commitment/dto"
	"github.com/radieske/commitment-bets/internal/commitment/leaderboard"
	"github.com/radieske/commitment-bets/internal/commitment/lifecycle"
	"github.com/radieske/commitment-bets/internal/commitment/model"
	"github.com/radieske/commitment-bets/internal/commitment/status"
)

// Leaderboard devolve o ranking atual (ex.: *leaderboard.Refresher)
type Leaderboard interface {
	Current(ctx context.Context) ([]leaderboard.Entry, error)
}

// Server expõe a API REST das apostas de compromisso
type Server struct {
	log     *zap.Logger
	svc     *lifecycle.Service
	summary status.Machine
	lb      Leaderboard
}

func NewServer(log *zap.Logger, svc *lifecycle.Service, m status.Machine, lb Leaderboard) *Server {
	return &Server{log: log, svc: svc, summary: m, lb: lb}
}

// Router é a API pública, exposta pelo api-gateway
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/bets", s.createBet)
	r.Get("/v1/bets", s.listBets) // ?ownerId=
	r.Get("/v1/bets/{id}", s.getBet)
	r.Delete("/v1/bets/{id}", s.abandonBet)
	r.Post("/v1/bets/{id}/payment", s.requestPayment)
	r.Post("/v1/bets/{id}/activate", s.activateBet)
	r.Post("/v1/bets/{id}/resolve", s.resolveFromProvider)
	r.Get("/v1/owners/{id}/summary", s.ownerSummary)
	r.Get("/v1/leaderboard", s.getLeaderboard)
	return r
}

// AdminRouter fica só na rede interna (porta própria, fora do api-gateway).
// É o único caminho que aceita currentValue informado pelo chamador.
func (s *Server) AdminRouter() http.Handler {
	r := chi.NewRouter()
	r.Post("/admin/v1/bets/{id}/resolve", s.resolveBet)
	return r
}

func (s *Server) createBet(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.E("http.create_bet", model.KindInvalidInput, "bad json"))
		return
	}
	target, err := parseAmount("targetValue", req.TargetValue)
	if err != nil {
		writeError(w, err)
		return
	}
	stake, err := parseAmount("stakeAmount", req.StakeAmount)
	if err != nil {
		writeError(w, err)
		return
	}

	b, err := s.svc.CreateDraft(r.Context(), lifecycle.DraftInput{
		OwnerID:      req.OwnerID,
		Title:        req.Title,
		Description:  req.Description,
		Category:     model.Category(req.Category),
		TargetValue:  target,
		StakeAmount:  stake,
		DurationDays: req.DurationDays,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.betResponse(b))
}

func (s *Server) listBets(w http.ResponseWriter, r *http.Request) {
	bets, err := s.svc.ListByOwner(r.Context(), r.URL.Query().Get("ownerId"))
	if err != nil {
		writeError(w, err)
		return
	}
	out := dto.BetListResponse{Bets: make([]dto.BetResponse, 0, len(bets))}
	for _, b := range bets {
		out.Bets = append(out.Bets, s.betResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getBet(w http.ResponseWriter, r *http.Request) {
	b, err := s.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.betResponse(b))
}

func (s *Server) abandonBet(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Abandon(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) requestPayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	intent, err := s.svc.RequestPayment(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.PaymentIntentResponse{
		BetID:    id,
		IntentID: intent.ID,
		Amount:   intent.Amount.StringFixed(2),
	})
}

func (s *Server) activateBet(w http.ResponseWriter, r *http.Request) {
	var req dto.ActivateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.E("http.activate", model.KindInvalidInput, "bad json"))
		return
	}
	paid, err := decimal.NewFromString(req.AmountPaid)
	if err != nil {
		writeError(w, model.E("http.activate", model.KindInvalidInput, "amountPaid must be a decimal"))
		return
	}
	b, err := s.svc.Activate(r.Context(), chi.URLParam(r, "id"), req.IntentID, paid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.betResponse(b))
}

// resolveFromProvider ignora o corpo: o valor vem sempre do provedor de dados
func (s *Server) resolveFromProvider(w http.ResponseWriter, r *http.Request) {
	b, err := s.svc.ResolveFromProvider(r.Context(), chi.URLParam(r, "id"), s.svc.Now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.betResponse(b))
}

// resolveBet (admin): com currentValue aplica o valor informado; sem ele consulta o provedor
func (s *Server) resolveBet(w http.ResponseWriter, r *http.Request) {
	var req dto.ResolveRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, model.E("http.resolve", model.KindInvalidInput, "bad json"))
			return
		}
	}

	id := chi.URLParam(r, "id")
	now := s.svc.Now()
	var (
		b   *model.Bet
		err error
	)
	if req.CurrentValue != nil {
		v, perr := decimal.NewFromString(*req.CurrentValue)
		if perr != nil {
			writeError(w, model.E("http.resolve", model.KindInvalidInput, "currentValue must be a decimal"))
			return
		}
		b, err = s.svc.Resolve(r.Context(), id, now, v)
	} else {
		b, err = s.svc.ResolveFromProvider(r.Context(), id, now)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.betResponse(b))
}

func (s *Server) ownerSummary(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "id")
	bets, err := s.svc.ListByOwner(r.Context(), owner)
	if err != nil {
		writeError(w, err)
		return
	}
	sum := s.summary.Summarize(owner, bets, s.svc.Now())
	counts := make(map[string]int, len(sum.Counts))
	for l, n := range sum.Counts {
		counts[string(l)] = n
	}
	writeJSON(w, http.StatusOK, dto.SummaryResponse{
		OwnerID:        sum.OwnerID,
		Total:          sum.Total,
		Counts:         counts,
		TotalStaked:    sum.TotalStaked.StringFixed(2),
		TotalWonBack:   sum.TotalWonBack.StringFixed(2),
		TotalForfeited: sum.TotalForfeited.StringFixed(2),
	})
}

func (s *Server) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := s.lb.Current(r.Context())
	if err != nil {
		s.log.Warn("leaderboard failed", zap.Error(err))
		writeError(w, err)
		return
	}
	out := dto.LeaderboardResponse{Entries: make([]dto.LeaderboardEntry, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, dto.LeaderboardEntry{
			Rank:     e.Rank,
			PlayerID: e.PlayerID,
			Points:   e.Points.String(),
			Wins:     e.Wins,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) betResponse(b *model.Bet) dto.BetResponse {
	v := s.svc.View(b, s.svc.Now())
	return dto.BetResponse{
		BetID:           b.ID,
		OwnerID:         b.OwnerID,
		Title:           b.Title,
		Description:     b.Description,
		Category:        string(b.Category),
		TargetValue:     b.TargetValue.StringFixed(2),
		CurrentValue:    b.CurrentValue.StringFixed(2),
		StakeAmount:     b.StakeAmount.StringFixed(2),
		StartDate:       b.StartDate,
		EndDate:         b.EndDate,
		Phase:           string(b.Phase),
		Outcome:         string(b.Outcome),
		PaymentIntentID: b.PaymentIntentID,
		SettledAt:       b.SettledAt,
		ProgressPercent: v.ProgressPercent.StringFixed(2),
		DaysRemaining:   v.DaysRemaining,
		Status:          string(v.Label),
	}
}

func parseAmount(field, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, model.Errorf("http.parse", model.KindInvalidInput, "%s must be a decimal", field)
	}
	return d, nil
}

// statusFor mapeia o kind do erro para o status HTTP
func statusFor(k model.Kind) int {
	switch k {
	case model.KindInvalidInput:
		return http.StatusBadRequest
	case model.KindInvalidState:
		return http.StatusConflict
	case model.KindPaymentMismatch:
		return http.StatusUnprocessableEntity
	case model.KindGatewayError, model.KindDataProviderError:
		return http.StatusBadGateway
	case model.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	k := model.KindOf(err)
	body := dto.ErrorResponse{Error: string(k)}
	if k == "" {
		body.Error = "internal"
	}
	var me *model.Error
	if errors.As(err, &me) && me.Msg != "" {
		body.Message = me.Msg
	}
	writeJSON(w, statusFor(k), body)
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
