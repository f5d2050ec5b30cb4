package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quantfolio/quantcore/internal/config"
	"github.com/quantfolio/quantcore/internal/database"
	"github.com/quantfolio/quantcore/internal/domain"
	"github.com/quantfolio/quantcore/internal/marketdata"
	"github.com/quantfolio/quantcore/internal/modules/attribution"
	"github.com/quantfolio/quantcore/internal/modules/compliance"
	"github.com/quantfolio/quantcore/internal/modules/optimization"
	"github.com/quantfolio/quantcore/internal/modules/portfolio"
	"github.com/quantfolio/quantcore/internal/modules/rebalancing"
	"github.com/quantfolio/quantcore/internal/modules/risk"
	"github.com/quantfolio/quantcore/internal/scheduler"
	"github.com/quantfolio/quantcore/internal/server"
	"github.com/quantfolio/quantcore/pkg/logger"
)

func main() {
	log := logger.New(logger.Config{
		Level:  "info",
		Pretty: true,
	})

	log.Info().Msg("Starting Quantcore")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Shared leaf dependencies.
	classifier := domain.NewStaticClassifier(nil, "")
	provider := marketdata.NewHistoryRepository(db.Conn(), log)
	market := marketdata.NewService(provider, cfg.Defaults, log)

	// Engines.
	portfolioSvc := portfolio.NewService(
		portfolio.NewPortfolioRepository(db.Conn(), log),
		portfolio.NewPositionRepository(db.Conn(), log),
		log,
	)
	riskSvc := risk.NewService(portfolioSvc, market, classifier, cfg.Defaults, log)
	attributionSvc := attribution.NewService(portfolioSvc, market, provider, classifier, cfg.Defaults, log)
	optimizerSvc := optimization.NewService(portfolioSvc, market, cfg.Defaults, log)
	rebalancerSvc := rebalancing.NewService(portfolioSvc, cfg.Defaults, log)
	complianceSvc := compliance.NewService(
		portfolioSvc,
		compliance.NewRuleRepository(db.Conn(), log),
		compliance.NewViolationRepository(db.Conn(), log),
		classifier,
		log,
	)

	// Background jobs.
	sched := scheduler.New(log)
	sched.Start()
	defer sched.Stop()

	metricsRepo := risk.NewMetricsRepository(db.Conn(), log)
	portfolioRepo, _ := portfolioSvc.Repos()
	analyticsJob := scheduler.NewAnalyticsRefreshJob(riskSvc, metricsRepo, portfolioRepo, log)
	if err := sched.AddJob("30 2 * * *", analyticsJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register analytics job")
	}

	// HTTP shell.
	handlers := server.NewHandlers(riskSvc, attributionSvc, optimizerSvc, rebalancerSvc, complianceSvc, log)
	srv := server.New(server.Config{
		Port:    cfg.Port,
		Log:     log,
		DB:      db,
		Config:  cfg,
		DevMode: cfg.DevMode,
	}, handlers)

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
