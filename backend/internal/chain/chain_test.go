package chain

import (
	"errors"
	"net/http"
	"testing"

	"github.com/blackrose-blackhat/phishguard/backend/internal/analyzer"
	"github.com/google/go-cmp/cmp"
)

type stubGuardrail struct {
	name     string
	priority int
	enabled  bool
	result   *Result
	err      error
	calls    *[]string
}

func (s *stubGuardrail) Name() string    { return s.name }
func (s *stubGuardrail) Priority() int   { return s.priority }
func (s *stubGuardrail) IsEnabled() bool { return s.enabled }

func (s *stubGuardrail) Execute(ctx *Context) (*Result, error) {
	*s.calls = append(*s.calls, s.name)
	return s.result, s.err
}

func TestChainRunsInPriorityOrder(t *testing.T) {
	var calls []string
	c := NewGuardrailChain([]Guardrail{
		&stubGuardrail{name: "third", priority: 30, enabled: true, calls: &calls},
		&stubGuardrail{name: "disabled", priority: 0, enabled: false, calls: &calls},
		&stubGuardrail{name: "first", priority: 1, enabled: true, calls: &calls},
		&stubGuardrail{name: "second", priority: 2, enabled: true, result: &Result{Passed: true}, calls: &calls},
	}, nil)

	ctx := NewContext(analyzer.KindURL, "https://example.com", "test")
	if err := c.Execute(ctx); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if diff := cmp.Diff([]string{"first", "second", "third"}, calls); diff != "" {
		t.Fatalf("call order mismatch (-want +got):\n%s", diff)
	}
	if ctx.Blocked {
		t.Fatal("request should not be blocked")
	}
}

func TestChainStopsAtFirstBlock(t *testing.T) {
	var calls []string
	c := NewGuardrailChain([]Guardrail{
		&stubGuardrail{name: "blocker", priority: 1, enabled: true, calls: &calls, result: &Result{
			Passed:     false,
			Action:     ActionBlock,
			Code:       "too_big",
			Message:    "nope",
			StatusCode: http.StatusRequestEntityTooLarge,
			Violations: []Violation{{GuardrailName: "blocker", Type: "size"}},
		}},
		&stubGuardrail{name: "never", priority: 2, enabled: true, calls: &calls},
	}, nil)

	ctx := NewContext(analyzer.KindEmail, "body", "test")
	if err := c.Execute(ctx); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if !ctx.Blocked || ctx.BlockCode != "too_big" || ctx.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("unexpected block state: %+v", ctx)
	}
	if len(calls) != 1 {
		t.Fatalf("expected chain to stop after blocker, calls = %v", calls)
	}
	if !ctx.HasViolations() || ctx.Violations[0].Timestamp.IsZero() {
		t.Fatalf("violation not recorded with timestamp: %+v", ctx.Violations)
	}
}

func TestChainBlockDefaultsToForbidden(t *testing.T) {
	var calls []string
	c := NewGuardrailChain([]Guardrail{
		&stubGuardrail{name: "deny", priority: 1, enabled: true, calls: &calls, result: &Result{Action: ActionBlock}},
	}, nil)

	ctx := NewContext(analyzer.KindURL, "x", "test")
	_ = c.Execute(ctx)

	if ctx.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", ctx.StatusCode)
	}
}

func TestChainPropagatesErrors(t *testing.T) {
	var calls []string
	boom := errors.New("boom")
	c := NewGuardrailChain([]Guardrail{
		&stubGuardrail{name: "broken", priority: 1, enabled: true, calls: &calls, err: boom},
	}, nil)

	err := c.Execute(NewContext(analyzer.KindURL, "x", "test"))
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
}

func TestNewContextAssignsRequestID(t *testing.T) {
	a := NewContext(analyzer.KindURL, "x", "")
	b := NewContext(analyzer.KindURL, "x", "")

	if a.RequestID == "" || a.RequestID == b.RequestID {
		t.Fatalf("request ids not unique: %q %q", a.RequestID, b.RequestID)
	}
	if a.InputLength() != 1 {
		t.Fatalf("InputLength = %d, want 1", a.InputLength())
	}
}
