package chain

import (
	"time"

	"github.com/blackrose-blackhat/phishguard/backend/internal/analyzer"
	"github.com/google/uuid"
)

// ActionType defines what happens when a guardrail triggers
type ActionType string

const (
	ActionBlock ActionType = "block" // Reject the request
	ActionLog   ActionType = "log"   // Record only
	ActionPass  ActionType = "pass"  // Allow through
)

// Severity indicates how serious a violation is
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Violation is a guardrail finding about the request itself (not the content
// being scored)
type Violation struct {
	GuardrailName string                 `json:"guardrail_name"`
	Type          string                 `json:"type"`
	Message       string                 `json:"message"`
	Severity      Severity               `json:"severity"`
	Action        ActionType             `json:"action"`
	Details       map[string]interface{} `json:"details,omitempty"`
	Timestamp     time.Time              `json:"timestamp"`
}

// Context carries one analysis request through the guardrail chain
type Context struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`

	// What is being analyzed
	Kind  analyzer.Kind `json:"kind"`
	Input string        `json:"-"`

	// Who is asking
	ClientKey string `json:"client_key,omitempty"`

	Violations []Violation `json:"violations,omitempty"`

	// Set by the first blocking guardrail
	Blocked    bool   `json:"blocked"`
	BlockCode  string `json:"block_code,omitempty"`
	BlockMsg   string `json:"block_message,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
}

// NewContext creates a new context for a request
func NewContext(kind analyzer.Kind, input, clientKey string) *Context {
	return &Context{
		RequestID:  uuid.New().String(),
		Timestamp:  time.Now(),
		Kind:       kind,
		Input:      input,
		ClientKey:  clientKey,
		Violations: make([]Violation, 0),
	}
}

// AddViolation records a violation
func (c *Context) AddViolation(v Violation) {
	if v.Timestamp.IsZero() {
		v.Timestamp = time.Now()
	}
	c.Violations = append(c.Violations, v)
}

// HasViolations returns true if any violations were recorded
func (c *Context) HasViolations() bool {
	return len(c.Violations) > 0
}

// InputLength is the size of the submitted content in bytes
func (c *Context) InputLength() int {
	return len(c.Input)
}
