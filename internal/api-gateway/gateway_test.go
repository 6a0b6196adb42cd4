package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/commitment-bets/internal/commitment/dto"
	chttp "github.com/radieske/commitment-bets/internal/commitment/http"
	"github.com/radieske/commitment-bets/internal/commitment/lifecycle"
	"github.com/radieske/commitment-bets/internal/commitment/model"
	"github.com/radieske/commitment-bets/internal/commitment/progress"
	"github.com/radieske/commitment-bets/internal/commitment/repo"
	"github.com/radieske/commitment-bets/internal/commitment/status"
)

func echo(name string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, name+" "+r.URL.Path)
	}))
}

func TestRouter(t *testing.T) {
	commitment, payments, lb := echo("commitment"), echo("payments"), echo("leaderboard")
	defer commitment.Close()
	defer payments.Close()
	defer lb.Close()

	h, err := Router(Targets{Commitment: commitment.URL, Payments: payments.URL, Leaderboard: lb.URL})
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	edge := httptest.NewServer(h)
	defer edge.Close()

	tests := []struct {
		method string
		path   string
		status int
		body   string
	}{
		{http.MethodGet, "/api/v1/bets/abc", http.StatusOK, "commitment /v1/bets/abc"},
		{http.MethodGet, "/api/v1/leaderboard", http.StatusOK, "commitment /v1/leaderboard"},
		{http.MethodPost, "/api/payments/intents", http.StatusOK, "payments /payments/intents"},
		{http.MethodGet, "/api/ws", http.StatusOK, "leaderboard /ws"},
		{http.MethodOptions, "/api/v1/bets", http.StatusNoContent, ""},
		{http.MethodGet, "/other", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		req, _ := http.NewRequest(tt.method, edge.URL+tt.path, nil)
		res, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("%s %s: %v", tt.method, tt.path, err)
		}
		b, _ := io.ReadAll(res.Body)
		res.Body.Close()
		if res.StatusCode != tt.status {
			t.Errorf("%s %s: status=%d want %d", tt.method, tt.path, res.StatusCode, tt.status)
		}
		if tt.body != "" && string(b) != tt.body {
			t.Errorf("%s %s: body=%q want %q", tt.method, tt.path, b, tt.body)
		}
		if res.Header.Get("Access-Control-Allow-Origin") != "*" {
			t.Errorf("%s %s: missing CORS header", tt.method, tt.path)
		}
	}
}

func TestRouter_InvalidTarget(t *testing.T) {
	if _, err := Router(Targets{Commitment: "not a url", Payments: "http://x", Leaderboard: "http://y"}); err == nil {
		t.Fatalf("expected error")
	}
}

type paidGateway struct{}

func (paidGateway) CreateIntent(_ context.Context, amount decimal.Decimal, ref string) (model.PaymentIntent, error) {
	return model.PaymentIntent{ID: "pi_" + ref, Amount: amount}, nil
}

type lowProvider struct{}

func (lowProvider) CurrentValue(context.Context, string, model.Category, time.Time) (decimal.Decimal, error) {
	return decimal.NewFromInt(100), nil
}

func TestRouter_CallerCannotSettleWithOwnValue(t *testing.T) {
	svc := lifecycle.NewService(zap.NewNop(), repo.NewMemory(), paidGateway{}, lowProvider{}, nil, lifecycle.Options{})
	api := chttp.NewServer(zap.NewNop(), svc, status.New(progress.DefaultPolicy()), nil)
	commitment := httptest.NewServer(api.Router())
	defer commitment.Close()

	h, err := Router(Targets{Commitment: commitment.URL, Payments: "http://payments.invalid", Leaderboard: "http://lb.invalid"})
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	edge := httptest.NewServer(h)
	defer edge.Close()

	post := func(path string, body any, out any) int {
		t.Helper()
		raw, _ := json.Marshal(body)
		res, err := http.Post(edge.URL+path, "application/json", bytes.NewReader(raw))
		if err != nil {
			t.Fatalf("POST %s: %v", path, err)
		}
		defer res.Body.Close()
		if out != nil {
			_ = json.NewDecoder(res.Body).Decode(out)
		}
		return res.StatusCode
	}

	var bet dto.BetResponse
	post("/api/v1/bets", dto.CreateBetRequest{
		OwnerID: "owner-a", Title: "Emergency fund", Category: "savings",
		TargetValue: "1000", StakeAmount: "50.00", DurationDays: 30,
	}, &bet)
	var intent dto.PaymentIntentResponse
	post("/api/v1/bets/"+bet.BetID+"/payment", nil, &intent)
	post("/api/v1/bets/"+bet.BetID+"/activate", dto.ActivateRequest{IntentID: intent.IntentID, AmountPaid: "50.00"}, nil)

	target := "1000"
	var out dto.BetResponse
	if code := post("/api/v1/bets/"+bet.BetID+"/resolve", dto.ResolveRequest{CurrentValue: &target}, &out); code != http.StatusOK {
		t.Fatalf("resolve status=%d", code)
	}
	if out.Phase != "active" || out.CurrentValue != "100.00" {
		t.Fatalf("bet settled with caller value: %+v", out)
	}

	if code := post("/api/admin/v1/bets/"+bet.BetID+"/resolve", dto.ResolveRequest{CurrentValue: &target}, nil); code != http.StatusNotFound {
		t.Fatalf("admin resolve through the edge status=%d want 404", code)
	}
	got, _ := svc.Get(context.Background(), bet.BetID)
	if got.Phase != model.PhaseActive {
		t.Fatalf("phase=%s want active", got.Phase)
	}
}
