package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	paydto "github.com/radieske/commitment-bets/internal/commitment/payment/dto"
	"github.com/radieske/commitment-bets/internal/payment-gateway/repo"
)

// Repo define as operações de intent usadas pelo handler HTTP
type Repo interface {
	CreateIntent(ctx context.Context, externalRef string, amount decimal.Decimal) (repo.Intent, error)
	GetIntent(ctx context.Context, id string) (repo.Intent, error)
	Capture(ctx context.Context, id string) (repo.Intent, error)
}

// Server simula o gateway de pagamento usado pelo commitment-service
type Server struct {
	log  *zap.Logger
	repo Repo

	OnIntent func(result string) // métricas
}

// NewServer instancia o servidor HTTP do gateway
func NewServer(log *zap.Logger, r Repo) *Server { return &Server{log: log, repo: r} }

// Router retorna as rotas da API de intents
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/payments/intents", s.createIntent)               // idempotente por external_ref
	r.Get("/payments/intents/{id}", s.getIntent)              // consulta
	r.Post("/payments/intents/{id}/capture", s.captureIntent) // confirma o pagamento
	return r
}

// createIntent cria (ou devolve) o intent do external_ref informado
func (s *Server) createIntent(w http.ResponseWriter, r *http.Request) {
	var req paydto.CreateIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if key := r.Header.Get("Idempotency-Key"); req.ExternalRef == "" && key != "" {
		req.ExternalRef = key
	}
	amount, err := decimal.NewFromString(req.Amount)
	if strings.TrimSpace(req.ExternalRef) == "" || err != nil || !amount.IsPositive() {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	in, err := s.repo.CreateIntent(r.Context(), req.ExternalRef, amount)
	if err != nil {
		s.metric("error")
		if errors.Is(err, repo.ErrAmountConflict) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		s.log.Error("create intent failed", zap.String("externalRef", req.ExternalRef), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.metric("ok")
	s.log.Info("intent ready", zap.String("intentId", in.ID), zap.String("externalRef", in.ExternalRef))
	writeJSON(w, http.StatusCreated, toResponse(in))
}

func (s *Server) getIntent(w http.ResponseWriter, r *http.Request) {
	in, err := s.repo.GetIntent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(in))
}

// captureIntent marca o intent como pago; idempotente
func (s *Server) captureIntent(w http.ResponseWriter, r *http.Request) {
	in, err := s.repo.Capture(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeRepoError(w, err)
		return
	}
	s.log.Info("intent captured", zap.String("intentId", in.ID))
	writeJSON(w, http.StatusOK, toResponse(in))
}

func (s *Server) writeRepoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, repo.ErrNotCapturable):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		s.log.Error("intent repo failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) metric(result string) {
	if s.OnIntent != nil {
		s.OnIntent(result)
	}
}

func toResponse(in repo.Intent) paydto.IntentResponse {
	return paydto.IntentResponse{
		IntentID:    in.ID,
		ExternalRef: in.ExternalRef,
		Amount:      in.Amount.StringFixed(2),
		Status:      in.Status,
	}
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
