package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/commitment-bets/internal/commitment/model"
	paydto "github.com/radieske/commitment-bets/internal/commitment/payment/dto"
)

// Client fala com o gateway de pagamento externo via HTTP
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// CreateIntent pede um intent para o valor da aposta; externalRef = betId
func (c *Client) CreateIntent(ctx context.Context, amount decimal.Decimal, externalRef string) (model.PaymentIntent, error) {
	body, err := json.Marshal(paydto.CreateIntentRequest{ExternalRef: externalRef, Amount: amount.StringFixed(2)})
	if err != nil {
		return model.PaymentIntent{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/payments/intents", bytes.NewReader(body))
	if err != nil {
		return model.PaymentIntent{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", externalRef)

	res, err := c.HTTP.Do(req)
	if err != nil {
		return model.PaymentIntent{}, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return model.PaymentIntent{}, fmt.Errorf("payment gateway http %d: %s", res.StatusCode, bytes.TrimSpace(msg))
	}

	var out paydto.IntentResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return model.PaymentIntent{}, fmt.Errorf("decode intent: %w", err)
	}
	amt, err := decimal.NewFromString(out.Amount)
	if err != nil {
		return model.PaymentIntent{}, fmt.Errorf("decode intent amount: %w", err)
	}
	return model.PaymentIntent{ID: out.IntentID, Amount: amt}, nil
}
