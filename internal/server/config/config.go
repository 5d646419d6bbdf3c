package config

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/taskhive/taskhive-backend/pkg/env"
)

type Config struct {
	devMode bool

	// Server RPC Port
	serverRPCPort string

	// Admin API key for privileged operations
	adminAPIKey string

	// Collaborator service URLs
	judgeRPCUrl    string
	treasuryRPCUrl string
	rewardsRPCUrl  string

	// Timeout applied to each collaborator call
	collaboratorTimeout time.Duration

	// Caps on task rewards and single transfers
	maxTaskReward    decimal.Decimal
	maxPaymentAmount decimal.Decimal

	// Budget funding address and refresh schedule
	fundingAddress        string
	budgetRefreshSchedule string

	// Rate limit for admin endpoints (requests per minute, 0 disables)
	adminRateLimit int
}

var cfg Config

// Init initializes the configuration
func Init() error {
	if err := godotenv.Load(); err != nil {
		return fmt.Errorf("error loading .env file: %w", err)
	}
	maxTaskReward, err := decimal.NewFromString(env.GetEnvString("MAX_TASK_REWARD", "100"))
	if err != nil {
		return fmt.Errorf("invalid MAX_TASK_REWARD: %w", err)
	}
	maxPaymentAmount, err := decimal.NewFromString(env.GetEnvString("MAX_PAYMENT_AMOUNT", "100"))
	if err != nil {
		return fmt.Errorf("invalid MAX_PAYMENT_AMOUNT: %w", err)
	}
	cfg = Config{
		devMode:               env.GetEnvBool("DEV_MODE", false),
		serverRPCPort:         env.GetEnvString("SERVER_RPC_PORT", "9010"),
		adminAPIKey:           env.GetEnvString("ADMIN_API_KEY", ""),
		judgeRPCUrl:           env.GetEnvString("JUDGE_RPC_URL", "http://localhost:9011"),
		treasuryRPCUrl:        env.GetEnvString("TREASURY_RPC_URL", "http://localhost:9012"),
		rewardsRPCUrl:         env.GetEnvString("REWARDS_RPC_URL", "http://localhost:9013"),
		collaboratorTimeout:   env.GetEnvDuration("COLLABORATOR_TIMEOUT", 30*time.Second),
		maxTaskReward:         maxTaskReward,
		maxPaymentAmount:      maxPaymentAmount,
		fundingAddress:        env.GetEnvString("FUNDING_ADDRESS", ""),
		budgetRefreshSchedule: env.GetEnvString("BUDGET_REFRESH_SCHEDULE", "@every 5m"),
		adminRateLimit:        env.GetEnvInt("ADMIN_RATE_LIMIT", 60),
	}
	if err := validateConfig(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if !cfg.devMode {
		gin.SetMode(gin.ReleaseMode)
	}
	return nil
}

func validateConfig() error {
	if !env.IsValidPort(cfg.serverRPCPort) {
		return fmt.Errorf("invalid server RPC port: %s", cfg.serverRPCPort)
	}
	if env.IsEmpty(cfg.adminAPIKey) {
		return fmt.Errorf("admin API key is not set")
	}
	if !env.IsValidURL(cfg.judgeRPCUrl) {
		return fmt.Errorf("invalid judge RPC URL: %s", cfg.judgeRPCUrl)
	}
	if !env.IsValidURL(cfg.treasuryRPCUrl) {
		return fmt.Errorf("invalid treasury RPC URL: %s", cfg.treasuryRPCUrl)
	}
	if !env.IsValidURL(cfg.rewardsRPCUrl) {
		return fmt.Errorf("invalid rewards RPC URL: %s", cfg.rewardsRPCUrl)
	}
	if !cfg.maxTaskReward.IsPositive() {
		return fmt.Errorf("max task reward must be positive: %s", cfg.maxTaskReward)
	}
	if !cfg.maxPaymentAmount.IsPositive() {
		return fmt.Errorf("max payment amount must be positive: %s", cfg.maxPaymentAmount)
	}
	if cfg.fundingAddress != "" && !env.IsValidPayoutAddress(cfg.fundingAddress) {
		return fmt.Errorf("invalid funding address: %s", cfg.fundingAddress)
	}
	return nil
}

// IsDevMode returns whether the service is running in development mode
func IsDevMode() bool {
	return cfg.devMode
}

// GetServerRPCPort returns the HTTP API port
func GetServerRPCPort() string {
	return cfg.serverRPCPort
}

// GetAdminAPIKey returns the API key gating admin endpoints
func GetAdminAPIKey() string {
	return cfg.adminAPIKey
}

// GetJudgeRPCUrl returns the approval judge service URL
func GetJudgeRPCUrl() string {
	return cfg.judgeRPCUrl
}

// GetTreasuryRPCUrl returns the treasury service URL
func GetTreasuryRPCUrl() string {
	return cfg.treasuryRPCUrl
}

// GetRewardsRPCUrl returns the rewards source URL
func GetRewardsRPCUrl() string {
	return cfg.rewardsRPCUrl
}

// GetCollaboratorTimeout returns the per-call timeout for collaborator requests
func GetCollaboratorTimeout() time.Duration {
	return cfg.collaboratorTimeout
}

// GetMaxTaskReward returns the maximum reward a task may offer
func GetMaxTaskReward() decimal.Decimal {
	return cfg.maxTaskReward
}

// GetMaxPaymentAmount returns the per-transaction transfer cap
func GetMaxPaymentAmount() decimal.Decimal {
	return cfg.maxPaymentAmount
}

// GetFundingAddress returns the budget funding address
func GetFundingAddress() string {
	return cfg.fundingAddress
}

// GetBudgetRefreshSchedule returns the cron spec for periodic balance refresh
func GetBudgetRefreshSchedule() string {
	return cfg.budgetRefreshSchedule
}

// GetAdminRateLimit returns the admin endpoint rate limit in requests per minute
func GetAdminRateLimit() int {
	return cfg.adminRateLimit
}
