package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/commitment-bets/internal/commitment/dto"
	"github.com/radieske/commitment-bets/internal/commitment/leaderboard"
	"github.com/radieske/commitment-bets/internal/commitment/lifecycle"
	"github.com/radieske/commitment-bets/internal/commitment/model"
	"github.com/radieske/commitment-bets/internal/commitment/progress"
	"github.com/radieske/commitment-bets/internal/commitment/repo"
	"github.com/radieske/commitment-bets/internal/commitment/status"
)

type okGateway struct{ err error }

func (g okGateway) CreateIntent(_ context.Context, amount decimal.Decimal, ref string) (model.PaymentIntent, error) {
	if g.err != nil {
		return model.PaymentIntent{}, g.err
	}
	return model.PaymentIntent{ID: "pi_" + ref, Amount: amount}, nil
}

type fixedProvider struct{ v decimal.Decimal }

func (p fixedProvider) CurrentValue(context.Context, string, model.Category, time.Time) (decimal.Decimal, error) {
	return p.v, nil
}

type testAPI struct {
	srv   *httptest.Server
	admin *httptest.Server
	now   time.Time
}

func newAPI(t *testing.T, gw lifecycle.PaymentGateway) *testAPI {
	t.Helper()
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	r := repo.NewMemory()
	svc := lifecycle.NewService(zap.NewNop(), r, gw, fixedProvider{v: decimal.NewFromInt(1000)}, nil, lifecycle.Options{
		Now: func() time.Time { return now },
	})
	lb := &leaderboard.Refresher{Log: zap.NewNop(), Source: svc, Ranker: leaderboard.NewRanker(nil)}
	s := NewServer(zap.NewNop(), svc, status.New(progress.DefaultPolicy()), lb)
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	admin := httptest.NewServer(s.AdminRouter())
	t.Cleanup(admin.Close)
	return &testAPI{srv: srv, admin: admin, now: now}
}

func (a *testAPI) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	return a.doAt(t, a.srv, method, path, body, out)
}

func (a *testAPI) doAt(t *testing.T, srv *httptest.Server, method, path string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return resp.StatusCode
}

func validCreate() dto.CreateBetRequest {
	return dto.CreateBetRequest{
		OwnerID:      "owner-a",
		Title:        "Emergency fund",
		Category:     "savings",
		TargetValue:  "1000",
		StakeAmount:  "50.00",
		DurationDays: 30,
	}
}

func TestLifecycleOverHTTP(t *testing.T) {
	a := newAPI(t, okGateway{})

	var created dto.BetResponse
	if code := a.do(t, http.MethodPost, "/v1/bets", validCreate(), &created); code != http.StatusCreated {
		t.Fatalf("create status=%d", code)
	}
	if created.Phase != "draft" || created.Status != "pending" || created.DaysRemaining != 30 {
		t.Fatalf("created=%+v", created)
	}

	var intent dto.PaymentIntentResponse
	if code := a.do(t, http.MethodPost, "/v1/bets/"+created.BetID+"/payment", nil, &intent); code != http.StatusOK {
		t.Fatalf("payment status=%d", code)
	}
	if intent.Amount != "50.00" || intent.IntentID == "" {
		t.Fatalf("intent=%+v", intent)
	}

	var active dto.BetResponse
	code := a.do(t, http.MethodPost, "/v1/bets/"+created.BetID+"/activate",
		dto.ActivateRequest{IntentID: intent.IntentID, AmountPaid: "50"}, &active)
	if code != http.StatusOK || active.Status != "active" {
		t.Fatalf("activate status=%d bet=%+v", code, active)
	}

	var resolved dto.BetResponse
	if code := a.do(t, http.MethodPost, "/v1/bets/"+created.BetID+"/resolve", nil, &resolved); code != http.StatusOK {
		t.Fatalf("resolve status=%d", code)
	}
	if resolved.Status != "won" || resolved.ProgressPercent != "100.00" || resolved.DaysRemaining != 0 {
		t.Fatalf("resolved=%+v", resolved)
	}

	var lb dto.LeaderboardResponse
	if code := a.do(t, http.MethodGet, "/v1/leaderboard", nil, &lb); code != http.StatusOK {
		t.Fatalf("leaderboard status=%d", code)
	}
	if len(lb.Entries) != 1 || lb.Entries[0].PlayerID != "owner-a" || lb.Entries[0].Points != "50" {
		t.Fatalf("leaderboard=%+v", lb)
	}

	var sum dto.SummaryResponse
	if code := a.do(t, http.MethodGet, "/v1/owners/owner-a/summary", nil, &sum); code != http.StatusOK {
		t.Fatalf("summary status=%d", code)
	}
	if sum.Total != 1 || sum.Counts["won"] != 1 || sum.TotalWonBack != "50.00" {
		t.Fatalf("summary=%+v", sum)
	}
}

func TestErrorMapping(t *testing.T) {
	a := newAPI(t, okGateway{})

	var draft dto.BetResponse
	a.do(t, http.MethodPost, "/v1/bets", validCreate(), &draft)

	bad := validCreate()
	bad.DurationDays = 12

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		kind   string
	}{
		{"invalid duration", http.MethodPost, "/v1/bets", bad, http.StatusBadRequest, "invalid_input"},
		{"bad amount", http.MethodPost, "/v1/bets", dto.CreateBetRequest{StakeAmount: "x"}, http.StatusBadRequest, "invalid_input"},
		{"unknown bet", http.MethodGet, "/v1/bets/nope", nil, http.StatusNotFound, "not_found"},
		{"activate draft", http.MethodPost, "/v1/bets/" + draft.BetID + "/activate",
			dto.ActivateRequest{IntentID: "x", AmountPaid: "50"}, http.StatusConflict, "invalid_state"},
		{"resolve draft", http.MethodPost, "/v1/bets/" + draft.BetID + "/resolve",
			dto.ResolveRequest{}, http.StatusConflict, "invalid_state"},
		{"list without owner", http.MethodGet, "/v1/bets", nil, http.StatusBadRequest, "invalid_input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body dto.ErrorResponse
			if code := a.do(t, tt.method, tt.path, tt.body, &body); code != tt.status {
				t.Fatalf("status=%d want %d", code, tt.status)
			}
			if body.Error != tt.kind {
				t.Fatalf("error=%q want %q", body.Error, tt.kind)
			}
		})
	}
}

func TestPaymentMismatchAndGatewayError(t *testing.T) {
	a := newAPI(t, okGateway{})
	var b dto.BetResponse
	a.do(t, http.MethodPost, "/v1/bets", validCreate(), &b)
	var intent dto.PaymentIntentResponse
	a.do(t, http.MethodPost, "/v1/bets/"+b.BetID+"/payment", nil, &intent)

	var body dto.ErrorResponse
	code := a.do(t, http.MethodPost, "/v1/bets/"+b.BetID+"/activate",
		dto.ActivateRequest{IntentID: intent.IntentID, AmountPaid: "49.99"}, &body)
	if code != http.StatusUnprocessableEntity || body.Error != "payment_mismatch" {
		t.Fatalf("status=%d body=%+v", code, body)
	}

	down := newAPI(t, okGateway{err: errors.New("connection refused")})
	var d dto.BetResponse
	down.do(t, http.MethodPost, "/v1/bets", validCreate(), &d)
	code = down.do(t, http.MethodPost, "/v1/bets/"+d.BetID+"/payment", nil, &body)
	if code != http.StatusBadGateway || body.Error != "gateway_error" {
		t.Fatalf("status=%d body=%+v", code, body)
	}
}

func TestAbandonDraft(t *testing.T) {
	a := newAPI(t, okGateway{})
	var b dto.BetResponse
	a.do(t, http.MethodPost, "/v1/bets", validCreate(), &b)

	if code := a.do(t, http.MethodDelete, "/v1/bets/"+b.BetID, nil, nil); code != http.StatusNoContent {
		t.Fatalf("delete status=%d", code)
	}
	var body dto.ErrorResponse
	if code := a.do(t, http.MethodGet, "/v1/bets/"+b.BetID, nil, &body); code != http.StatusNotFound {
		t.Fatalf("get after delete status=%d", code)
	}
}

func (a *testAPI) activeBet(t *testing.T) dto.BetResponse {
	t.Helper()
	var b dto.BetResponse
	a.do(t, http.MethodPost, "/v1/bets", validCreate(), &b)
	var intent dto.PaymentIntentResponse
	a.do(t, http.MethodPost, "/v1/bets/"+b.BetID+"/payment", nil, &intent)
	a.do(t, http.MethodPost, "/v1/bets/"+b.BetID+"/activate", dto.ActivateRequest{IntentID: intent.IntentID, AmountPaid: "50.00"}, nil)
	return b
}

func TestAdminResolveWithExplicitValue(t *testing.T) {
	a := newAPI(t, okGateway{})
	b := a.activeBet(t)

	v := "800"
	var out dto.BetResponse
	if code := a.doAt(t, a.admin, http.MethodPost, "/admin/v1/bets/"+b.BetID+"/resolve", dto.ResolveRequest{CurrentValue: &v}, &out); code != http.StatusOK {
		t.Fatalf("status=%d", code)
	}
	if out.Status != "on_track" || out.Phase != "active" || out.CurrentValue != "800.00" {
		t.Fatalf("bet=%+v", out)
	}

	bad := "800.001"
	var body dto.ErrorResponse
	if code := a.doAt(t, a.admin, http.MethodPost, "/admin/v1/bets/"+b.BetID+"/resolve", dto.ResolveRequest{CurrentValue: &bad}, &body); code != http.StatusBadRequest {
		t.Fatalf("three decimals status=%d body=%+v", code, body)
	}
}

func TestPublicResolveIgnoresCallerValue(t *testing.T) {
	a := newAPI(t, okGateway{})
	b := a.activeBet(t)

	// o provedor devolve 1000; o valor do corpo não pode prevalecer
	v := "1"
	var out dto.BetResponse
	if code := a.do(t, http.MethodPost, "/v1/bets/"+b.BetID+"/resolve", dto.ResolveRequest{CurrentValue: &v}, &out); code != http.StatusOK {
		t.Fatalf("status=%d", code)
	}
	if out.CurrentValue != "1000.00" || out.Status != "won" {
		t.Fatalf("bet=%+v", out)
	}

	if code := a.do(t, http.MethodPost, "/admin/v1/bets/"+b.BetID+"/resolve", dto.ResolveRequest{CurrentValue: &v}, nil); code != http.StatusNotFound {
		t.Fatalf("admin route on public router status=%d want 404", code)
	}
}
