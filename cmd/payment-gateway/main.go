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

	ghttp "github.com/radieske/commitment-bets/internal/payment-gateway/http"
	grepo "github.com/radieske/commitment-bets/internal/payment-gateway/repo"
	"github.com/radieske/commitment-bets/internal/shared/config"
	"github.com/radieske/commitment-bets/internal/shared/db"
	"github.com/radieske/commitment-bets/internal/shared/logger"
	"github.com/radieske/commitment-bets/internal/shared/metrics"
)

func main() {
	cfg := config.LoadService("payment-gateway")

	// Inicializa logger estruturado
	log := logger.Must(cfg.ServiceName, cfg.Env)
	defer log.Sync()
	log.Info("starting service", zap.String("store", cfg.Store))

	// Repositório de intents: Postgres ou memória
	var repo interface {
		ghttp.Repo
		Ping(ctx context.Context) error
	}
	if cfg.Store == "memory" {
		repo = grepo.NewMemory()
	} else {
		pg, err := db.ConnectPostgres(cfg.PostgresDSN)
		if err != nil {
			log.Fatal("postgres connect", zap.Error(err))
		}
		defer pg.Close()
		repo = grepo.NewPostgres(pg)
	}

	intents := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "payment_gateway_intents_total", Help: "intents criados por resultado"}, []string{"result"})
	prometheus.MustRegister(intents)

	api := ghttp.NewServer(log, repo)
	api.OnIntent = func(result string) { intents.WithLabelValues(result).Inc() }

	// Servidor de métricas e health check
	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, metrics.Check{Name: "store", Fn: repo.Ping})

	// Servidor HTTP público (API de intents)
	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort, // ex: 8082
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("api listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("api srv", zap.Error(err))
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	<-ctx.Done()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	_ = apiSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("payment-gateway stopped")
}
