package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/radieske/commitment-bets/pkg/contracts/events"
)

const cacheKey = "leaderboard:current"

// Cache guarda o último ranking calculado no Redis.
// O ranking é sempre reconstruível; o cache só evita recomputar a cada request.
type Cache struct {
	R   *redis.Client
	TTL time.Duration
}

func NewCache(r *redis.Client, ttl time.Duration) *Cache { return &Cache{R: r, TTL: ttl} }

// Get retorna (ranking, true) em hit; (nil, false) em miss
func (c *Cache) Get(ctx context.Context) ([]Entry, bool, error) {
	b, err := c.R.Get(ctx, cacheKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var upd events.LeaderboardUpdate
	if err := json.Unmarshal(b, &upd); err != nil {
		return nil, false, fmt.Errorf("decode cached leaderboard: %w", err)
	}
	entries, err := FromContract(upd.Entries)
	if err != nil {
		return nil, false, err
	}
	return entries, true, nil
}

func (c *Cache) Set(ctx context.Context, upd events.LeaderboardUpdate) error {
	b, err := json.Marshal(upd)
	if err != nil {
		return err
	}
	return c.R.Set(ctx, cacheKey, b, c.TTL).Err()
}

// Broadcaster publica o ranking no canal Redis consumido pelo hub WebSocket
type Broadcaster struct {
	r       *redis.Client
	channel string
}

func NewBroadcaster(r *redis.Client, channel string) *Broadcaster {
	return &Broadcaster{r: r, channel: channel}
}

func (b *Broadcaster) Publish(ctx context.Context, upd events.LeaderboardUpdate) error {
	payload, err := json.Marshal(upd)
	if err != nil {
		return err
	}
	return b.r.Publish(ctx, b.channel, payload).Err()
}

// ToContract converte o ranking para o formato publicado
func ToContract(entries []Entry, cause string, now time.Time) events.LeaderboardUpdate {
	out := make([]events.LeaderboardEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, events.LeaderboardEntry{
			Rank:     e.Rank,
			PlayerID: e.PlayerID,
			Points:   e.Points.String(),
			Wins:     e.Wins,
		})
	}
	return events.LeaderboardUpdate{Entries: out, UpdatedAt: now.UTC(), Cause: cause}
}

func FromContract(in []events.LeaderboardEntry) ([]Entry, error) {
	out := make([]Entry, 0, len(in))
	for _, e := range in {
		pts, err := decimal.NewFromString(e.Points)
		if err != nil {
			return nil, fmt.Errorf("decode points for %s: %w", e.PlayerID, err)
		}
		out = append(out, Entry{Rank: e.Rank, PlayerID: e.PlayerID, Points: pts, Wins: e.Wins})
	}
	return out, nil
}
