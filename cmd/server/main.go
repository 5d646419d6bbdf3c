package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/taskhive/taskhive-backend/internal/ledger"
	"github.com/taskhive/taskhive-backend/internal/server"
	"github.com/taskhive/taskhive-backend/internal/server/config"
	"github.com/taskhive/taskhive-backend/internal/server/handlers"
	"github.com/taskhive/taskhive-backend/internal/server/metrics"
	"github.com/taskhive/taskhive-backend/internal/server/middleware"
	"github.com/taskhive/taskhive-backend/internal/settlement"
	"github.com/taskhive/taskhive-backend/internal/store"
	"github.com/taskhive/taskhive-backend/internal/tasks"
	"github.com/taskhive/taskhive-backend/internal/users"
	"github.com/taskhive/taskhive-backend/internal/verification"
	"github.com/taskhive/taskhive-backend/pkg/client/judge"
	"github.com/taskhive/taskhive-backend/pkg/client/rewards"
	"github.com/taskhive/taskhive-backend/pkg/client/treasury"
	"github.com/taskhive/taskhive-backend/pkg/logging"
	"github.com/taskhive/taskhive-backend/pkg/redis"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := config.Init(); err != nil {
		panic(fmt.Sprintf("Failed to initialize config: %v", err))
	}

	logConfig := logging.LoggerConfig{
		LogDir:        logging.BaseDataDir,
		ProcessName:   logging.ServerProcess,
		IsDevelopment: config.IsDevMode(),
	}

	if err := logging.InitServiceLogger(logConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	logger := logging.GetServiceLogger()

	logger.Info("Starting server...",
		"mode", config.IsDevMode(),
		"port", config.GetServerRPCPort(),
	)

	entityStore := store.NewMemoryStore()
	defer entityStore.Close()

	judgeClient, err := judge.NewJudgeClient(logger, judge.JudgeClientConfig{
		JudgeRPCUrl:    config.GetJudgeRPCUrl(),
		RequestTimeout: config.GetCollaboratorTimeout(),
	})
	if err != nil {
		logger.Fatalf("Failed to create judge client: %v", err)
	}
	defer judgeClient.Close()

	treasuryClient, err := treasury.NewTreasuryClient(logger, treasury.TreasuryClientConfig{
		TreasuryRPCUrl: config.GetTreasuryRPCUrl(),
		RequestTimeout: config.GetCollaboratorTimeout(),
	})
	if err != nil {
		logger.Fatalf("Failed to create treasury client: %v", err)
	}
	defer treasuryClient.Close()

	rewardsClient, err := rewards.NewRewardsClient(logger, rewards.RewardsClientConfig{
		RewardsRPCUrl:  config.GetRewardsRPCUrl(),
		RequestTimeout: config.GetCollaboratorTimeout(),
	})
	if err != nil {
		logger.Fatalf("Failed to create rewards client: %v", err)
	}
	defer rewardsClient.Close()

	taskManager := tasks.NewManager(entityStore, logger, tasks.ManagerConfig{
		MaxTaskReward: config.GetMaxTaskReward(),
	})
	userManager := users.NewManager(entityStore, logger)
	verificationOrch := verification.NewOrchestrator(entityStore, judgeClient, logger)
	settlementOrch := settlement.NewOrchestrator(entityStore, treasuryClient, logger, settlement.OrchestratorConfig{
		MaxPaymentAmount: config.GetMaxPaymentAmount(),
		CallTimeout:      config.GetCollaboratorTimeout(),
	})
	ledgerService := ledger.NewService(entityStore, rewardsClient, logger, ledger.ServiceConfig{
		FundingAddress:  config.GetFundingAddress(),
		RefreshSchedule: config.GetBudgetRefreshSchedule(),
	})

	// Rate limiting needs Redis; without it admin routes fall back to API-key
	// auth alone.
	var rateLimiter *middleware.RateLimiter
	if redisClient, err := redis.NewClient(logger); err != nil {
		logger.Warnf("Redis unavailable, admin rate limiting disabled: %v", err)
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warnf("Failed to close Redis client: %v", err)
			}
		}()
		rateLimiter, err = middleware.NewRateLimiter(redisClient, logger, config.GetAdminRateLimit())
		if err != nil {
			logger.Warnf("Rate limiter disabled: %v", err)
		}
	}

	if config.GetFundingAddress() != "" {
		if err := ledgerService.StartPeriodicRefresh(context.Background()); err != nil {
			logger.Warnf("Periodic budget refresh not started: %v", err)
		}
		defer ledgerService.Stop()
	}

	metrics.StartMetricsCollection()

	handler := handlers.NewHandler(entityStore, taskManager, userManager, verificationOrch, settlementOrch, ledgerService, logger)
	srv := server.NewServer(handler, rateLimiter, logger)

	var wg sync.WaitGroup
	serverErrors := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Start(); err != nil {
			serverErrors <- err
		}
	}()

	logger.Infof("Server initialized, listening on port %s...", config.GetServerRPCPort())

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("Server error received", "error", err)
	case sig := <-shutdown:
		logger.Info("Received shutdown signal", "signal", sig.String())
	}

	performGracefulShutdown(srv, &wg, logger)
}

func performGracefulShutdown(srv *server.Server, wg *sync.WaitGroup, logger logging.Logger) {
	logger.Info("Initiating graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Stop(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	wg.Wait()
	logger.Info("Shutdown complete")
	logging.Shutdown()
}
