// Package findata consulta o provedor de dados financeiros que informa o
// currentValue de uma meta (por usuário e categoria).
package findata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/commitment-bets/internal/commitment/model"
)

// MetricResponse é o payload de GET /v1/metrics
type MetricResponse struct {
	OwnerID  string    `json:"ownerId"`
	Category string    `json:"category"`
	Value    string    `json:"value"`
	AsOf     time.Time `json:"asOf"`
}

// Client busca valores no provedor. Com Rdb configurado, respostas ficam em cache por TTL
// para que várias apostas do mesmo usuário/categoria no mesmo ciclo façam uma chamada só.
// Falha do provedor nunca é mascarada com valor do cache.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Rdb     *redis.Client
	TTL     time.Duration
	Log     *zap.Logger
}

func New(base string, timeout time.Duration, rdb *redis.Client, ttl time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: timeout},
		Rdb:     rdb,
		TTL:     ttl,
		Log:     log,
	}
}

// Espera chave "findata:{ownerID}:{category}" => valor decimal em string, ex: "812.40"
func cacheKey(ownerID string, category model.Category) string {
	return fmt.Sprintf("findata:%s:%s", ownerID, category)
}

func (c *Client) CurrentValue(ctx context.Context, ownerID string, category model.Category, asOf time.Time) (decimal.Decimal, error) {
	key := cacheKey(ownerID, category)
	if c.Rdb != nil && c.TTL > 0 {
		val, err := c.Rdb.Get(ctx, key).Result()
		switch {
		case err == nil:
			if d, perr := decimal.NewFromString(val); perr == nil {
				return d, nil
			}
		case err != redis.Nil:
			// cache indisponível não impede a consulta direta
			c.Log.Warn("findata cache get", zap.String("key", key), zap.Error(err))
		}
	}

	v, err := c.fetch(ctx, ownerID, category, asOf)
	if err != nil {
		return decimal.Zero, err
	}

	if c.Rdb != nil && c.TTL > 0 {
		if err := c.Rdb.Set(ctx, key, v.String(), c.TTL).Err(); err != nil {
			c.Log.Warn("findata cache set", zap.String("key", key), zap.Error(err))
		}
	}
	return v, nil
}

func (c *Client) fetch(ctx context.Context, ownerID string, category model.Category, asOf time.Time) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("ownerId", ownerID)
	q.Set("category", string(category))
	q.Set("asOf", asOf.UTC().Format(time.RFC3339))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/metrics?"+q.Encode(), nil)
	if err != nil {
		return decimal.Zero, err
	}
	res, err := c.HTTP.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return decimal.Zero, fmt.Errorf("findata http %d", res.StatusCode)
	}

	var out MetricResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return decimal.Zero, fmt.Errorf("decode metric: %w", err)
	}
	v, err := decimal.NewFromString(out.Value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("decode metric value %q: %w", out.Value, err)
	}
	if v.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative metric value %s", v)
	}
	return v, nil
}
