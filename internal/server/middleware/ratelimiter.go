package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskhive/taskhive-backend/pkg/logging"
	"github.com/taskhive/taskhive-backend/pkg/redis"
)

// RateLimiter throttles admin requests through a fixed one-minute window
// counter kept in Redis.
type RateLimiter struct {
	redis  *redis.Client
	logger logging.Logger
	limit  int
}

func NewRateLimiter(redisClient *redis.Client, logger logging.Logger, limit int) (*RateLimiter, error) {
	if redisClient == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("rate limit must be positive, got %d", limit)
	}

	return &RateLimiter{
		redis:  redisClient,
		logger: logger,
		limit:  limit,
	}, nil
}

const rateLimitScript = `
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])

local current = redis.call("INCR", key)
if current == 1 then
    redis.call("EXPIRE", key, window)
end

local ttl = redis.call("TTL", key)

if current > limit then
    return {current, 0, ttl}
else
    return {current, limit - current, ttl}
end
`

// Apply counts the request against the caller's key and returns an error when
// the window limit is exceeded. Redis outages fail open.
func (rl *RateLimiter) Apply(c *gin.Context, callerKey string) error {
	key := fmt.Sprintf("rate_limit:%s", callerKey)
	window := 60 // 1 minute window

	ctx := context.Background()
	result, err := rl.redis.Eval(ctx, rateLimitScript, []string{key}, rl.limit, window)
	if err != nil {
		rl.logger.Errorf("Failed to evaluate rate limit script: %v", err)
		return nil
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 3 {
		rl.logger.Error("Invalid response from rate limit script")
		return fmt.Errorf("invalid response from rate limit script")
	}

	current := values[0].(int64)
	remaining := values[1].(int64)
	reset := values[2].(int64)

	c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit))
	c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Unix()+reset, 10))

	if current > int64(rl.limit) {
		return fmt.Errorf("rate limit exceeded")
	}

	return nil
}
