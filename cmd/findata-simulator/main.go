package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	findatasim "github.com/radieske/commitment-bets/internal/findata-simulator"
	"github.com/radieske/commitment-bets/internal/shared/config"
	"github.com/radieske/commitment-bets/internal/shared/logger"
	"github.com/radieske/commitment-bets/internal/shared/metrics"
)

func main() {
	cfg := config.LoadService("findata-simulator")
	log := logger.Must(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// Métricas Prometheus
	served := prometheus.NewCounter(prometheus.CounterOpts{Name: "findata_sim_metrics_served_total", Help: "consultas respondidas"})
	prometheus.MustRegister(served)

	// cada série cresce 25 unidades por dia
	api := findatasim.NewServer(log, findatasim.NewStore(decimal.NewFromInt(25)))
	api.OnServed = served.Inc

	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort)

	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: api.Router(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("findata simulator listening", zap.String("addr", srv.Addr), zap.String("paths", "/v1/metrics"))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("public server error", zap.Error(err))
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	<-ctx.Done()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	_ = srv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
}
