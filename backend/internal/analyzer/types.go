package analyzer

import "errors"

// Kind selects which rule table an input is evaluated against
type Kind string

const (
	KindURL   Kind = "url"
	KindEmail Kind = "email"
)

// Level is the categorical risk classification
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// MaxScore caps the accumulated rule weight
const MaxScore = 10

// ErrUnsupportedKind is returned by Analyze for kinds other than url and email
var ErrUnsupportedKind = errors.New("unsupported input kind")

// Input is a single submission to the engine. Raw is read, never modified.
type Input struct {
	Kind Kind   `json:"kind"`
	Raw  string `json:"raw"`
}

// Indicator is a rendered rule match
type Indicator struct {
	Rule   string `json:"rule"`
	Text   string `json:"text"`
	Weight int    `json:"weight"`
}

// Result is the normalized risk assessment handed to callers
type Result struct {
	RiskScore   int      `json:"risk_score"`
	RiskLevel   Level    `json:"risk_level"`
	Indicators  []string `json:"indicators"`
	Explanation string   `json:"explanation"`
	Type        Kind     `json:"type"`
	Input       string   `json:"input"`

	// Fired keeps rule IDs and weights for metrics and audit; it is not part
	// of the wire format.
	Fired []Indicator `json:"-"`
}

// Safe reports whether no rule fired
func (r Result) Safe() bool {
	return len(r.Fired) == 0
}

// RuleIDs returns the IDs of fired rules in evaluation order
func (r Result) RuleIDs() []string {
	ids := make([]string, len(r.Fired))
	for i, ind := range r.Fired {
		ids[i] = ind.Rule
	}
	return ids
}
