package analyzer

import "fmt"

// Engine is the in-process entry point for callers that want an injectable
// analyzer. It holds no state; the zero value is ready to use.
type Engine struct{}

// NewEngine creates a new Engine
func NewEngine() *Engine {
	return &Engine{}
}

// Analyze runs the rule table matching in.Kind
func (e *Engine) Analyze(in Input) (Result, error) {
	return Analyze(in)
}

// Analyze runs the rule table matching in.Kind. The only error is
// ErrUnsupportedKind; content problems become indicators.
func Analyze(in Input) (Result, error) {
	switch in.Kind {
	case KindURL:
		return AnalyzeURL(in.Raw), nil
	case KindEmail:
		return AnalyzeEmail(in.Raw), nil
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedKind, in.Kind)
	}
}

// assemble packages the fold output into a Result
func assemble(kind Kind, raw string, fired []Indicator, total int) Result {
	score := clamp(total)
	level := Classify(kind, score)

	texts := make([]string, len(fired))
	for i, ind := range fired {
		texts[i] = ind.Text
	}

	return Result{
		RiskScore:   score,
		RiskLevel:   level,
		Indicators:  texts,
		Explanation: Explain(kind, texts, level),
		Type:        kind,
		Input:       raw,
		Fired:       fired,
	}
}

func clamp(total int) int {
	if total < 0 {
		return 0
	}
	if total > MaxScore {
		return MaxScore
	}
	return total
}
