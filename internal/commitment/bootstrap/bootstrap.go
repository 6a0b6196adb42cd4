// Package bootstrap monta as dependências compartilhadas pelos binários do domínio
// (commitment-service, settlement-worker, leaderboard-worker).
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/commitment-bets/internal/commitment/findata"
	"github.com/radieske/commitment-bets/internal/commitment/leaderboard"
	"github.com/radieske/commitment-bets/internal/commitment/lifecycle"
	"github.com/radieske/commitment-bets/internal/commitment/notify"
	"github.com/radieske/commitment-bets/internal/commitment/payment"
	"github.com/radieske/commitment-bets/internal/commitment/producer"
	"github.com/radieske/commitment-bets/internal/commitment/progress"
	"github.com/radieske/commitment-bets/internal/commitment/repo"
	"github.com/radieske/commitment-bets/internal/shared/cache"
	"github.com/radieske/commitment-bets/internal/shared/config"
	"github.com/radieske/commitment-bets/internal/shared/db"
	"github.com/radieske/commitment-bets/internal/shared/kafka"
	"github.com/radieske/commitment-bets/internal/shared/metrics"
)

// Infra guarda as conexões abertas. Com STORE=memory DB e Redis ficam nil
// e o processo roda isolado (sem Kafka, sem cache).
type Infra struct {
	Cfg    config.Config
	Log    *zap.Logger
	DB     *sql.DB
	Redis  *redis.Client
	Repo   lifecycle.Repository
	Checks []metrics.Check

	closers []func()
}

// RequireSharedStore barra workers que só fazem sentido sobre o store compartilhado:
// com STORE=memory cada processo teria sua própria tabela vazia.
func RequireSharedStore(cfg config.Config) error {
	if cfg.Store == "memory" {
		return fmt.Errorf("%s needs the shared postgres store; STORE=memory is not supported", cfg.ServiceName)
	}
	return nil
}

func Connect(cfg config.Config, log *zap.Logger) (*Infra, error) {
	in := &Infra{Cfg: cfg, Log: log}
	if cfg.Store == "memory" {
		log.Warn("using in-memory store; state is lost on restart")
		mem := repo.NewMemory()
		in.Repo = mem
		in.Checks = append(in.Checks, metrics.Check{Name: "store", Fn: mem.Ping})
		return in, nil
	}

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	in.DB = pg
	in.closers = append(in.closers, func() { _ = pg.Close() })
	pgRepo := repo.NewPostgres(pg)
	in.Repo = pgRepo
	in.Checks = append(in.Checks, metrics.Check{Name: "pg", Fn: pgRepo.Ping})

	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		in.Close()
		return nil, err
	}
	in.Redis = rdb
	in.closers = append(in.closers, func() { _ = rdb.Close() })
	in.Checks = append(in.Checks, metrics.Check{Name: "redis", Fn: func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}})
	return in, nil
}

// Close fecha na ordem inversa da abertura
func (in *Infra) Close() {
	for i := len(in.closers) - 1; i >= 0; i-- {
		in.closers[i]()
	}
	in.closers = nil
}

// SettlementSink monta Kafka (bet_settled) + Telegram opcional
func (in *Infra) SettlementSink() lifecycle.SettlementSink {
	var sinks producer.Multi
	if in.Cfg.Store != "memory" && in.Cfg.KafkaBrokers != "" {
		w := kafka.NewWriter(in.Cfg.KafkaBrokers, in.Cfg.TopicBetSettled)
		in.closers = append(in.closers, func() { _ = w.Close() })
		sinks = append(sinks, producer.NewKafkaPublisher(w, in.Cfg.TopicBetSettled))
	}
	if in.Cfg.TelegramBotToken != "" && in.Cfg.TelegramChatID != "" {
		tg, err := notify.NewTelegram(in.Cfg.TelegramBotToken, in.Cfg.TelegramChatID)
		if err != nil {
			in.Log.Warn("telegram disabled", zap.Error(err))
		} else {
			sinks = append(sinks, tg)
		}
	}
	if len(sinks) == 0 {
		return nil
	}
	return sinks
}

// Service monta o lifecycle.Service com gateway, provedor e sink reais
func (in *Infra) Service(onTransition func(op, result string)) *lifecycle.Service {
	cfg := in.Cfg
	gw := payment.New(cfg.PaymentGatewayURL, cfg.GatewayTimeout)
	provider := findata.New(cfg.FinDataURL, cfg.FinDataTimeout, in.Redis, cfg.FinDataCacheTTL, in.Log)

	return lifecycle.NewService(in.Log, in.Repo, gw, provider, in.SettlementSink(), lifecycle.Options{
		AllowedDurations: cfg.AllowedDurations,
		Progress:         progress.NewPolicy(cfg.OnTrackThreshold),
		GatewayTimeout:   cfg.GatewayTimeout,
		ProviderTimeout:  cfg.FinDataTimeout,
		OnTransition:     onTransition,
	})
}

// Leaderboard monta o Refresher; sem Redis não há cache nem broadcast
func (in *Infra) Leaderboard(src leaderboard.SettledSource) *leaderboard.Refresher {
	r := &leaderboard.Refresher{
		Log:    in.Log,
		Source: src,
		Ranker: leaderboard.NewRanker(scorer(in.Cfg)),
	}
	if in.Redis != nil {
		r.Store = leaderboard.NewCache(in.Redis, in.Cfg.LeaderboardCacheTTL)
		r.Publisher = leaderboard.NewBroadcaster(in.Redis, in.Cfg.RedisPubSubChannel)
	}
	return r
}

func scorer(cfg config.Config) leaderboard.Scorer {
	if cfg.PointsPerWin > 0 {
		return leaderboard.FixedScorer{Points: decimal.NewFromFloat(cfg.PointsPerWin)}
	}
	return leaderboard.StakeScorer{PerUnit: decimal.NewFromFloat(cfg.PointsPerStakeUnit)}
}
