// Package findatasim simula o provedor de dados financeiros para ambientes locais.
package findatasim

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/commitment-bets/internal/commitment/findata"
)

type Server struct {
	log   *zap.Logger
	store *Store

	OnServed func() // métricas
}

func NewServer(log *zap.Logger, s *Store) *Server { return &Server{log: log, store: s} }

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/metrics", s.getMetric) // ?ownerId=&category=&asOf=
	r.Put("/v1/metrics", s.setMetric) // fixa um valor (testes manuais)
	return r
}

func (s *Server) getMetric(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	owner, category := q.Get("ownerId"), q.Get("category")
	if owner == "" || category == "" {
		http.Error(w, "ownerId and category required", http.StatusBadRequest)
		return
	}
	asOf := time.Now().UTC()
	if raw := q.Get("asOf"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, "asOf must be RFC3339", http.StatusBadRequest)
			return
		}
		asOf = t.UTC()
	}

	v := s.store.Value(owner, category, asOf)
	if s.OnServed != nil {
		s.OnServed()
	}
	writeJSON(w, http.StatusOK, findata.MetricResponse{
		OwnerID:  owner,
		Category: category,
		Value:    v.StringFixed(2),
		AsOf:     asOf,
	})
}

func (s *Server) setMetric(w http.ResponseWriter, r *http.Request) {
	var req findata.MetricResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	v, err := decimal.NewFromString(req.Value)
	if err != nil || v.IsNegative() || req.OwnerID == "" || req.Category == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	s.store.Set(req.OwnerID, req.Category, v)
	s.log.Info("metric fixed", zap.String("ownerId", req.OwnerID), zap.String("category", req.Category), zap.String("value", v.String()))
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
