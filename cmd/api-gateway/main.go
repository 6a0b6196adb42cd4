package main

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	gateway "github.com/radieske/commitment-bets/internal/api-gateway"
	"github.com/radieske/commitment-bets/internal/shared/config"
	"github.com/radieske/commitment-bets/internal/shared/logger"
	"github.com/radieske/commitment-bets/internal/shared/metrics"
)

func main() {
	cfg := config.LoadService("api-gateway")
	log := logger.Must(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// alvos internos
	h, err := gateway.Router(gateway.Targets{
		Commitment:  cfg.CommitmentURL,
		Payments:    cfg.PaymentGatewayURL,
		Leaderboard: cfg.LeaderboardURL,
	})
	if err != nil {
		log.Fatal("gateway targets", zap.Error(err))
	}

	metrics.StartMetricsServer(log, cfg.MetricsPort)

	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	log.Info("api-gateway listening", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("gateway failed", zap.Error(err))
	}
}
