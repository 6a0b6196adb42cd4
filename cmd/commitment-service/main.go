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
	chttp "github.com/radieske/commitment-bets/internal/commitment/http"
	"github.com/radieske/commitment-bets/internal/commitment/progress"
	"github.com/radieske/commitment-bets/internal/commitment/status"
	"github.com/radieske/commitment-bets/internal/shared/config"
	"github.com/radieske/commitment-bets/internal/shared/logger"
	"github.com/radieske/commitment-bets/internal/shared/metrics"
)

func main() {
	cfg := config.LoadService("commitment-service")

	// Inicializa logger estruturado
	log := logger.Must(cfg.ServiceName, cfg.Env)
	defer log.Sync()
	log.Info("starting service", zap.String("store", cfg.Store))

	// Postgres + Redis (ou memória com STORE=memory)
	infra, err := bootstrap.Connect(cfg, log)
	if err != nil {
		log.Fatal("infra connect", zap.Error(err))
	}
	defer infra.Close()

	// Métricas Prometheus das transições
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "commitment_transitions_total",
		Help: "transições do ciclo de vida por operação e resultado",
	}, []string{"op", "result"})
	prometheus.MustRegister(transitions)

	svc := infra.Service(func(op, result string) { transitions.WithLabelValues(op, result).Inc() })
	lb := infra.Leaderboard(svc)
	api := chttp.NewServer(log, svc, status.New(progress.NewPolicy(cfg.OnTrackThreshold)), lb)

	// Servidor de métricas e health check
	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, infra.Checks...)

	// Servidor HTTP público (API de apostas)
	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort, // ex: 8083
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("api listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("api srv", zap.Error(err))
		}
	}()

	// Rotas de operador: porta interna, não roteada pelo api-gateway
	adminSrv := &http.Server{
		Addr:              ":" + cfg.AdminPort, // ex: 8183
		Handler:           api.AdminRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("admin listening", zap.String("addr", adminSrv.Addr))
		if err := adminSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("admin srv", zap.Error(err))
		}
	}()

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	<-ctx.Done()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = apiSrv.Shutdown(shutdownCtx)
	_ = adminSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("commitment-service stopped")
}
