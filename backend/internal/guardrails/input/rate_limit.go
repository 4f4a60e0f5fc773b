package input

import (
	"net/http"
	"sync"
	"time"

	"github.com/blackrose-blackhat/phishguard/backend/internal/chain"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	Enabled           bool   `yaml:"enabled" json:"enabled"`
	RequestsPerMinute int    `yaml:"requests_per_minute" json:"requests_per_minute"`
	RequestsPerHour   int    `yaml:"requests_per_hour" json:"requests_per_hour"`
	KeyBy             string `yaml:"key_by" json:"key_by"` // "ip" or "global"
}

// RateLimitGuardrail enforces fixed-window request limits per key
type RateLimitGuardrail struct {
	config   RateLimitConfig
	counters map[string]*rateLimitCounter
	mu       sync.Mutex
	now      func() time.Time
}

type rateLimitCounter struct {
	minuteCount int
	hourCount   int
	minuteReset time.Time
	hourReset   time.Time
}

// NewRateLimitGuardrail creates a new rate limit guardrail
func NewRateLimitGuardrail(config RateLimitConfig) *RateLimitGuardrail {
	if config.RequestsPerMinute == 0 {
		config.RequestsPerMinute = 60
	}
	if config.RequestsPerHour == 0 {
		config.RequestsPerHour = 1000
	}
	if config.KeyBy == "" {
		config.KeyBy = "global"
	}

	return &RateLimitGuardrail{
		config:   config,
		counters: make(map[string]*rateLimitCounter),
		now:      time.Now,
	}
}

// Name returns the guardrail identifier
func (g *RateLimitGuardrail) Name() string {
	return "rate_limit"
}

// Priority returns execution priority (rate limit runs first)
func (g *RateLimitGuardrail) Priority() int {
	return 1
}

// IsEnabled returns whether this guardrail is active
func (g *RateLimitGuardrail) IsEnabled() bool {
	return g.config.Enabled
}

// Execute counts the request against its windows
func (g *RateLimitGuardrail) Execute(ctx *chain.Context) (*chain.Result, error) {
	key := g.getKey(ctx)
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	counter, exists := g.counters[key]
	if !exists {
		counter = &rateLimitCounter{
			minuteReset: now.Add(time.Minute),
			hourReset:   now.Add(time.Hour),
		}
		g.counters[key] = counter
	}

	if !now.Before(counter.minuteReset) {
		counter.minuteCount = 0
		counter.minuteReset = now.Add(time.Minute)
	}
	if !now.Before(counter.hourReset) {
		counter.hourCount = 0
		counter.hourReset = now.Add(time.Hour)
	}

	if counter.minuteCount >= g.config.RequestsPerMinute {
		return g.exceeded("minute", g.config.RequestsPerMinute, counter.minuteReset.Sub(now), now), nil
	}
	if counter.hourCount >= g.config.RequestsPerHour {
		return g.exceeded("hour", g.config.RequestsPerHour, counter.hourReset.Sub(now), now), nil
	}

	counter.minuteCount++
	counter.hourCount++

	return &chain.Result{Passed: true}, nil
}

func (g *RateLimitGuardrail) exceeded(window string, limit int, retryAfter time.Duration, now time.Time) *chain.Result {
	return &chain.Result{
		Passed:     false,
		Action:     chain.ActionBlock,
		Code:       "rate_limit_exceeded",
		Message:    "Rate limit exceeded: too many requests per " + window,
		StatusCode: http.StatusTooManyRequests,
		Violations: []chain.Violation{{
			GuardrailName: g.Name(),
			Type:          "rate_limit_exceeded",
			Message:       "Requests per " + window + " exceeded",
			Severity:      chain.SeverityHigh,
			Action:        chain.ActionBlock,
			Details: map[string]interface{}{
				"limit":       limit,
				"window":      window,
				"retry_after": retryAfter.Seconds(),
			},
			Timestamp: now,
		}},
	}
}

// getKey determines the rate limit key based on configuration
func (g *RateLimitGuardrail) getKey(ctx *chain.Context) string {
	switch g.config.KeyBy {
	case "ip":
		if ctx.ClientKey != "" {
			return "ip:" + ctx.ClientKey
		}
		return "ip:unknown"
	default:
		return "global"
	}
}

// GetStats returns current rate limit statistics
func (g *RateLimitGuardrail) GetStats() map[string]interface{} {
	g.mu.Lock()
	defer g.mu.Unlock()

	stats := make(map[string]interface{}, len(g.counters))
	for key, counter := range g.counters {
		stats[key] = map[string]interface{}{
			"minute_count": counter.minuteCount,
			"hour_count":   counter.hourCount,
		}
	}
	return stats
}
