package treasury

import "time"

// TreasuryClientConfig holds the connection settings for the treasury service.
type TreasuryClientConfig struct {
	TreasuryRPCUrl string
	RequestTimeout time.Duration
}
