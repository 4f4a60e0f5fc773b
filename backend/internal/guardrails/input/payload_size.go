package input

import (
	"net/http"
	"time"

	"github.com/blackrose-blackhat/phishguard/backend/internal/chain"
)

// DefaultMaxInputBytes bounds a single URL or email body
const DefaultMaxInputBytes = 1 << 20

// PayloadSizeConfig holds configuration for input size limits
type PayloadSizeConfig struct {
	Enabled       bool `yaml:"enabled" json:"enabled"`
	MaxInputBytes int  `yaml:"max_input_bytes" json:"max_input_bytes"`
}

// PayloadSizeGuardrail rejects inputs above the configured size
type PayloadSizeGuardrail struct {
	config PayloadSizeConfig
}

// NewPayloadSizeGuardrail creates a new payload size guardrail
func NewPayloadSizeGuardrail(config PayloadSizeConfig) *PayloadSizeGuardrail {
	if config.MaxInputBytes <= 0 {
		config.MaxInputBytes = DefaultMaxInputBytes
	}
	return &PayloadSizeGuardrail{config: config}
}

// Name returns the guardrail identifier
func (g *PayloadSizeGuardrail) Name() string {
	return "payload_size"
}

// Priority returns execution priority (after rate limiting)
func (g *PayloadSizeGuardrail) Priority() int {
	return 2
}

// IsEnabled returns whether this guardrail is active
func (g *PayloadSizeGuardrail) IsEnabled() bool {
	return g.config.Enabled
}

// Execute checks the input length
func (g *PayloadSizeGuardrail) Execute(ctx *chain.Context) (*chain.Result, error) {
	size := ctx.InputLength()
	if size <= g.config.MaxInputBytes {
		return &chain.Result{Passed: true}, nil
	}

	return &chain.Result{
		Passed:     false,
		Action:     chain.ActionBlock,
		Code:       "payload_too_large",
		Message:    "Input exceeds the maximum allowed size",
		StatusCode: http.StatusRequestEntityTooLarge,
		Violations: []chain.Violation{{
			GuardrailName: g.Name(),
			Type:          "payload_size_exceeded",
			Message:       "Input size limit exceeded",
			Severity:      chain.SeverityMedium,
			Action:        chain.ActionBlock,
			Details: map[string]interface{}{
				"actual_size": size,
				"max_size":    g.config.MaxInputBytes,
				"kind":        string(ctx.Kind),
			},
			Timestamp: time.Now(),
		}},
	}, nil
}
