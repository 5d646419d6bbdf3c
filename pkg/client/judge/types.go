package judge

import "time"

// JudgeClientConfig holds the connection settings for the judge service.
type JudgeClientConfig struct {
	JudgeRPCUrl    string
	RequestTimeout time.Duration
}
