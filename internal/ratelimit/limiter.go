// Package ratelimit throttles MCP tool calls per tool name.
package ratelimit

import (
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// ToolLimiters maps tool names to their token bucket limiters.
type ToolLimiters map[string]*rate.Limiter

// Tool names with a default limit.
const (
	ToolSimulate = "epigraph_simulate"
	ToolRuns     = "epigraph_runs"
)

// NewToolLimiters creates the default set of per-tool rate limiters.
// A simulation can take seconds of CPU, so it gets the tighter budget.
func NewToolLimiters() ToolLimiters {
	return ToolLimiters{
		ToolSimulate: rate.NewLimiter(rate.Every(6*time.Second), 3), // 10/minute, burst 3
		ToolRuns:     rate.NewLimiter(rate.Limit(1), 10),            // 60/minute, burst 10
	}
}

// CheckLimit checks the rate limit for a given tool name.
// Returns nil if allowed, or an error if rate limited.
// Tools without a configured limiter are always allowed.
func CheckLimit(limiters ToolLimiters, toolName string) error {
	limiter, ok := limiters[toolName]
	if !ok {
		return nil
	}

	if !limiter.Allow() {
		return fmt.Errorf("rate limit exceeded for %s, please try again shortly", toolName)
	}

	return nil
}
