package input

import (
	"net/http"

	"github.com/blackrose-blackhat/phishguard/backend/internal/cedar"
	"github.com/blackrose-blackhat/phishguard/backend/internal/chain"
)

// PolicyEvaluator decides whether a request may be analyzed
type PolicyEvaluator interface {
	Evaluate(ctx *chain.Context) cedar.EvaluationResult
}

// PolicyGateGuardrail asks the admission policy before any analysis runs
type PolicyGateGuardrail struct {
	engine PolicyEvaluator
}

// NewPolicyGateGuardrail wraps a policy engine. A nil engine disables the gate.
func NewPolicyGateGuardrail(engine PolicyEvaluator) *PolicyGateGuardrail {
	return &PolicyGateGuardrail{engine: engine}
}

func (g *PolicyGateGuardrail) Name() string    { return "policy_gate" }
func (g *PolicyGateGuardrail) Priority() int   { return 10 }
func (g *PolicyGateGuardrail) IsEnabled() bool { return g.engine != nil }

// Execute evaluates the admission policy
func (g *PolicyGateGuardrail) Execute(ctx *chain.Context) (*chain.Result, error) {
	res := g.engine.Evaluate(ctx)
	if res.Decision == cedar.ALLOW {
		return &chain.Result{Passed: true}, nil
	}

	return &chain.Result{
		Passed:     false,
		Action:     chain.ActionBlock,
		Code:       "policy_denied",
		Message:    res.Reason,
		StatusCode: http.StatusForbidden,
		Violations: []chain.Violation{{
			GuardrailName: g.Name(),
			Type:          "policy_denied",
			Message:       res.Reason,
			Severity:      chain.SeverityHigh,
			Action:        chain.ActionBlock,
			Details: map[string]interface{}{
				"policy_id": res.PolicyID,
			},
		}},
	}, nil
}
