package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/commitment-bets/internal/commitment/bootstrap"
	"github.com/radieske/commitment-bets/internal/commitment/consumer"
	"github.com/radieske/commitment-bets/internal/commitment/lifecycle"
	"github.com/radieske/commitment-bets/internal/commitment/ws"
	"github.com/radieske/commitment-bets/internal/shared/config"
	"github.com/radieske/commitment-bets/internal/shared/kafka"
	"github.com/radieske/commitment-bets/internal/shared/logger"
	"github.com/radieske/commitment-bets/internal/shared/metrics"
)

func main() {
	cfg := config.LoadService("leaderboard-worker")
	log := logger.Must(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	if err := bootstrap.RequireSharedStore(cfg); err != nil {
		log.Fatal("store", zap.Error(err))
	}
	infra, err := bootstrap.Connect(cfg, log)
	if err != nil {
		log.Fatal("infra connect", zap.Error(err))
	}
	defer infra.Close()

	// só leitura: o worker nunca chama gateway nem provedor
	reads := lifecycle.NewService(log, infra.Repo, nil, nil, nil, lifecycle.Options{})
	refresher := infra.Leaderboard(reads)

	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicBetSettled, "leaderboard-worker")
	defer reader.Close()
	dlq := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettledDLQ)
	defer dlq.Close()

	// Métricas Prometheus do consumo
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "leaderboard_messages_consumed_total", Help: "mensagens bet_settled consumidas"})
	refreshed := prometheus.NewCounter(prometheus.CounterOpts{Name: "leaderboard_refreshes_total", Help: "rankings recalculados"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "leaderboard_errors_total", Help: "erros por estágio"}, []string{"stage"})

	hub := ws.NewHub(func(*http.Request) bool { return true })
	wsClients := prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: "leaderboard_ws_clients", Help: "conexões WebSocket abertas"},
		func() float64 { return float64(hub.Clients()) })
	prometheus.MustRegister(consumed, refreshed, errorsBy, wsClients)

	proc := &consumer.Processor{
		Log:         log,
		Reader:      reader,
		DLQ:         dlq,
		Refresher:   refresher,
		OnConsumed:  func() { consumed.Inc() },
		OnRefreshed: func() { refreshed.Inc() },
		OnError:     func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, infra.Checks...)

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// WebSocket do painel: recebe os rankings publicados no Redis
	ws.StartRedisSubscriber(ctx, log, infra.Redis, cfg.RedisPubSubChannel, hub)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleWS)
	wsSrv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("ws listening", zap.String("addr", wsSrv.Addr))
		if err := wsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("ws srv", zap.Error(err))
		}
	}()

	// ranking inicial, para o cache não começar vazio
	if _, err := refresher.Refresh(ctx, "startup"); err != nil {
		log.Warn("initial leaderboard refresh failed", zap.Error(err))
	}

	log.Info("leaderboard-worker started")
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	_ = wsSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("leaderboard-worker stopped")
}
