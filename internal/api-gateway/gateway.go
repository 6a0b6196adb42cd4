// Package gateway é a borda HTTP única na frente dos serviços de apostas de compromisso.
package gateway

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
)

// Targets são as URLs base dos serviços internos
type Targets struct {
	Commitment  string // commitment-service
	Payments    string // payment-gateway
	Leaderboard string // leaderboard-worker (WebSocket)
}

func rp(to string) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(to)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid target %q", to)
	}
	return httputil.NewSingleHostReverseProxy(u), nil
}

// Router monta o mux da borda:
//
//	/api/v1/*       -> commitment-service (/v1/*)
//	/api/payments/* -> payment-gateway (/payments/*)
//	/api/ws         -> leaderboard-worker (/ws)
func Router(t Targets) (http.Handler, error) {
	commitment, err := rp(t.Commitment)
	if err != nil {
		return nil, err
	}
	payments, err := rp(t.Payments)
	if err != nil {
		return nil, err
	}
	lb, err := rp(t.Leaderboard)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/api/v1/", http.StripPrefix("/api", commitment))
	mux.Handle("/api/payments/", http.StripPrefix("/api", payments))
	mux.Handle("/api/ws", http.StripPrefix("/api", lb))
	return withCORS(mux), nil
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Idempotency-Key")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
