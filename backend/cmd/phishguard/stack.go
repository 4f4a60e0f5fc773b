package main

import (
	"fmt"
	"io"
	"log"

	"github.com/blackrose-blackhat/phishguard/backend/internal/audit"
	"github.com/blackrose-blackhat/phishguard/backend/internal/cache"
	"github.com/blackrose-blackhat/phishguard/backend/internal/cedar"
	"github.com/blackrose-blackhat/phishguard/backend/internal/chain"
	"github.com/blackrose-blackhat/phishguard/backend/internal/config"
	"github.com/blackrose-blackhat/phishguard/backend/internal/guardrails/input"
)

// stack is everything the HTTP boundary runs with besides the analyzer
type stack struct {
	policy *cedar.Engine
	chain  *chain.GuardrailChain
	cache  *cache.ResultCache
	audit  *audit.Logger
}

func newLogger(w io.Writer) *log.Logger {
	return log.New(w, "[phishguard] ", log.LstdFlags)
}

// buildStack wires policy, guardrails, cache and audit from cfg. Without an
// audit file, entries go to stdout only when auditStdout is set.
func buildStack(cfg *config.Config, logger *log.Logger, auditStdout bool) (*stack, error) {
	policy, err := cedar.NewEngine(cfg.Policy.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize policy engine: %w", err)
	}
	if cfg.Policy.WatchChanges && cfg.Policy.Path != "" {
		if err := policy.StartHotReload(); err != nil {
			logger.Printf("[ERROR] Policy hot-reload disabled: %v", err)
		}
	}

	guardrails := []chain.Guardrail{
		input.NewRateLimitGuardrail(input.RateLimitConfig{
			Enabled:           cfg.RateLimit.Enabled,
			RequestsPerMinute: cfg.RateLimit.PerMinute,
			RequestsPerHour:   cfg.RateLimit.PerHour,
			KeyBy:             cfg.RateLimit.KeyBy,
		}),
		input.NewPayloadSizeGuardrail(input.PayloadSizeConfig{
			Enabled:       true,
			MaxInputBytes: cfg.Limits.MaxInputBytes,
		}),
		input.NewPolicyGateGuardrail(policy),
	}

	var chainLogger *log.Logger
	if cfg.Debug() {
		chainLogger = logger
	}

	st := &stack{
		policy: policy,
		chain:  chain.NewGuardrailChain(guardrails, chainLogger),
	}

	if cfg.Cache.Enabled {
		st.cache = cache.NewResultCache(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	}

	if auditStdout || cfg.Logging.AuditFile != "" {
		st.audit, err = audit.NewLogger(cfg.Logging.AuditFile)
		if err != nil {
			policy.StopHotReload()
			return nil, fmt.Errorf("failed to open audit log: %w", err)
		}
	}

	return st, nil
}

func (st *stack) Close() {
	st.policy.StopHotReload()
	if st.audit != nil {
		st.audit.Close()
	}
}
