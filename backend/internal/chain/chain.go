package chain

import (
	"fmt"
	"log"
	"net/http"
	"sort"
)

// Result represents the outcome of a guardrail execution
type Result struct {
	Passed     bool        `json:"passed"`
	Action     ActionType  `json:"action"`
	Code       string      `json:"code,omitempty"`
	Message    string      `json:"message,omitempty"`
	StatusCode int         `json:"status_code,omitempty"`
	Violations []Violation `json:"violations,omitempty"`
}

// Guardrail is an admission check run before analysis
type Guardrail interface {
	// Name returns the unique identifier for this guardrail
	Name() string

	// Execute runs the check against the context
	Execute(ctx *Context) (*Result, error)

	// Priority returns the execution order (lower = earlier)
	Priority() int

	// IsEnabled returns whether this guardrail is currently active
	IsEnabled() bool
}

// GuardrailChain runs admission guardrails in priority order
type GuardrailChain struct {
	guardrails []Guardrail
	logger     *log.Logger
}

// NewGuardrailChain creates a new chain with the enabled guardrails
func NewGuardrailChain(guardrails []Guardrail, logger *log.Logger) *GuardrailChain {
	c := &GuardrailChain{
		guardrails: make([]Guardrail, 0, len(guardrails)),
		logger:     logger,
	}
	for _, g := range guardrails {
		c.AddGuardrail(g)
	}
	return c
}

// Execute runs every guardrail until one blocks. A blocked request is not an
// error; callers check ctx.Blocked.
func (c *GuardrailChain) Execute(ctx *Context) error {
	c.logDebug("Executing %d guardrails for request %s", len(c.guardrails), ctx.RequestID)

	for _, guardrail := range c.guardrails {
		result, err := guardrail.Execute(ctx)
		if err != nil {
			c.logError("Guardrail %s failed with error: %v", guardrail.Name(), err)
			return fmt.Errorf("guardrail %s error: %w", guardrail.Name(), err)
		}
		if result == nil {
			continue
		}

		for _, v := range result.Violations {
			ctx.AddViolation(v)
		}

		if !result.Passed && result.Action == ActionBlock {
			ctx.Blocked = true
			ctx.BlockCode = result.Code
			ctx.BlockMsg = result.Message
			ctx.StatusCode = result.StatusCode
			if ctx.StatusCode == 0 {
				ctx.StatusCode = http.StatusForbidden
			}
			c.logDebug("Request %s blocked by guardrail %s: %s", ctx.RequestID, guardrail.Name(), result.Message)
			return nil
		}
	}

	return nil
}

// AddGuardrail adds a guardrail to the chain at runtime
func (c *GuardrailChain) AddGuardrail(g Guardrail) {
	if g == nil || !g.IsEnabled() {
		return
	}
	c.guardrails = append(c.guardrails, g)
	sort.SliceStable(c.guardrails, func(i, j int) bool {
		return c.guardrails[i].Priority() < c.guardrails[j].Priority()
	})
}

// Guardrails returns the active guardrails in execution order
func (c *GuardrailChain) Guardrails() []Guardrail {
	return c.guardrails
}

// logging helpers
func (c *GuardrailChain) logDebug(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Printf("[DEBUG] "+format, args...)
	}
}

func (c *GuardrailChain) logError(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Printf("[ERROR] "+format, args...)
	}
}
