package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/commitment-bets/internal/commitment/payment"
	"github.com/radieske/commitment-bets/internal/payment-gateway/repo"
)

func newGateway(t *testing.T) (*httptest.Server, *repo.Memory) {
	t.Helper()
	mem := repo.NewMemory()
	srv := httptest.NewServer(NewServer(zap.NewNop(), mem).Router())
	t.Cleanup(srv.Close)
	return srv, mem
}

// o client do commitment-service fala com o simulador sem adaptações
func TestClientAgainstSimulator(t *testing.T) {
	srv, mem := newGateway(t)
	cli := payment.New(srv.URL, time.Second)
	ctx := context.Background()

	first, err := cli.CreateIntent(ctx, decimal.RequireFromString("50.00"), "bet-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.ID == "" || !first.Amount.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("intent=%+v", first)
	}

	again, err := cli.CreateIntent(ctx, decimal.RequireFromString("50.00"), "bet-1")
	if err != nil || again.ID != first.ID {
		t.Fatalf("replay intent=%+v err=%v", again, err)
	}

	if _, err := cli.CreateIntent(ctx, decimal.RequireFromString("60.00"), "bet-1"); err == nil {
		t.Fatalf("expected conflict for a different amount")
	}

	stored, err := mem.GetIntent(ctx, first.ID)
	if err != nil || stored.Status != repo.StatusRequiresCapture {
		t.Fatalf("stored=%+v err=%v", stored, err)
	}
}

func TestCaptureAndGet(t *testing.T) {
	srv, mem := newGateway(t)
	in, _ := mem.CreateIntent(context.Background(), "bet-9", decimal.NewFromInt(10))

	tests := []struct {
		name   string
		method string
		path   string
		status int
		body   string
	}{
		{"capture", http.MethodPost, "/payments/intents/" + in.ID + "/capture", http.StatusOK, repo.StatusCaptured},
		{"get captured", http.MethodGet, "/payments/intents/" + in.ID, http.StatusOK, repo.StatusCaptured},
		{"unknown", http.MethodGet, "/payments/intents/nope", http.StatusNotFound, "not found"},
		{"bad payload", http.MethodPost, "/payments/intents", http.StatusBadRequest, "invalid payload"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body *strings.Reader
			if tt.method == http.MethodPost && strings.HasSuffix(tt.path, "/intents") {
				body = strings.NewReader(`{"external_ref":"x","amount":"-1"}`)
			} else {
				body = strings.NewReader("")
			}
			req, _ := http.NewRequest(tt.method, srv.URL+tt.path, body)
			res, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("do: %v", err)
			}
			defer res.Body.Close()
			buf := new(strings.Builder)
			_, _ = io.Copy(buf, res.Body)
			if res.StatusCode != tt.status {
				t.Fatalf("status=%d want %d", res.StatusCode, tt.status)
			}
			if !strings.Contains(buf.String(), tt.body) {
				t.Fatalf("body=%q want %q", buf.String(), tt.body)
			}
		})
	}
}
