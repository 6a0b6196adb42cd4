package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/commitment-bets/internal/commitment/bootstrap"
	"github.com/radieske/commitment-bets/internal/commitment/settlement"
	"github.com/radieske/commitment-bets/internal/shared/config"
	"github.com/radieske/commitment-bets/internal/shared/logger"
	"github.com/radieske/commitment-bets/internal/shared/metrics"
)

func main() {
	cfg := config.LoadService("settlement-worker")
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

	// Métricas Prometheus da varredura
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "commitment_transitions_total", Help: "transições do ciclo de vida"}, []string{"op", "result"})
	scanned := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_sweep_scanned_total", Help: "apostas ativas avaliadas"})
	settled := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_sweep_settled_total", Help: "apostas liquidadas por resultado"}, []string{"outcome"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_sweep_errors_total", Help: "erros por fase"}, []string{"phase"})
	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{Name: "settlement_sweep_last_run_timestamp_seconds", Help: "fim da última varredura"})
	prometheus.MustRegister(transitions, scanned, settled, errorsBy, lastRun)

	svc := infra.Service(func(op, result string) { transitions.WithLabelValues(op, result).Inc() })
	sweeper := &settlement.Sweeper{
		Log:       log,
		Resolver:  svc,
		OnScanned: func(n int) { scanned.Add(float64(n)); lastRun.SetToCurrentTime() },
		OnSettled: func(outcome string) { settled.WithLabelValues(outcome).Inc() },
		OnError:   func(phase string) { errorsBy.WithLabelValues(phase).Inc() },
	}

	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, infra.Checks...)

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runner := settlement.NewRunner(log, ctx)
	if _, err := runner.AddSweep(cfg.SettlementSchedule, sweeper, cfg.SettlementJobTimeout); err != nil {
		log.Fatal("invalid settlement schedule", zap.String("schedule", cfg.SettlementSchedule), zap.Error(err))
	}

	// primeira varredura no start, sem esperar o próximo tick
	first, stop := context.WithTimeout(ctx, cfg.SettlementJobTimeout)
	if _, err := sweeper.Sweep(first); err != nil {
		log.Warn("initial sweep failed", zap.Error(err))
	}
	stop()

	runner.Start()
	log.Info("settlement-worker started", zap.String("schedule", cfg.SettlementSchedule))
	<-ctx.Done()

	runner.Stop()
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("settlement-worker stopped")
}
