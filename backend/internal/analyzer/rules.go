package analyzer

import (
	"regexp"
	"strings"
)

// ipv4Regex matches a dotted quad anywhere in the text
var ipv4Regex = regexp.MustCompile(`\b(?:[0-9]{1,3}\.){3}[0-9]{1,3}\b`)

// Category groups rules by the heuristic they implement
type Category string

const (
	CategoryDomain        Category = "domain"
	CategoryStructure     Category = "structure"
	CategoryTransport     Category = "transport"
	CategoryKeyword       Category = "keyword"
	CategoryLink          Category = "link"
	CategoryPersonalInfo  Category = "personal_info"
	CategoryImpersonation Category = "impersonation"
	CategoryGrammar       Category = "grammar"
	CategoryFinancial     Category = "financial"
)

// Scoring decides how a match turns into weight
type Scoring int

const (
	// ScoreFlat adds Weight once when the rule fires
	ScoreFlat Scoring = iota
	// ScorePerToken adds Weight for every matched token
	ScorePerToken
)

// Match is the outcome of a rule predicate. Tokens carry whatever triggered
// the rule (keywords, links) and feed the message template.
type Match struct {
	Matched bool
	Tokens  []string
}

var noMatch = Match{}

// Subject is the per-call view that predicates read. The lowercase copy and
// the URL parse are derived once so every rule sees the same data.
type Subject struct {
	Raw   string
	Lower string

	parsed   parsedURL
	parseErr bool
}

func newSubject(kind Kind, raw string) Subject {
	s := Subject{Raw: raw, Lower: strings.ToLower(raw)}
	if kind == KindURL {
		s.parsed, s.parseErr = parseAbsolute(raw)
	}
	return s
}

// Rule is one entry of a rule table
type Rule struct {
	ID       string
	Category Category
	Weight   int
	Scoring  Scoring
	Match    func(Subject) Match
	Message  func(Match) string
}

// score returns the weight contributed by m
func (r Rule) score(m Match) int {
	if r.Scoring == ScorePerToken {
		return r.Weight * len(m.Tokens)
	}
	return r.Weight
}

// evaluate folds the rule table over the subject. It returns the indicators
// in table order and their raw weight sum.
func evaluate(rules []Rule, s Subject) ([]Indicator, int) {
	indicators := make([]Indicator, 0, len(rules))
	total := 0
	for _, rule := range rules {
		m := rule.Match(s)
		if !m.Matched {
			continue
		}
		w := rule.score(m)
		indicators = append(indicators, Indicator{
			Rule:   rule.ID,
			Text:   rule.Message(m),
			Weight: w,
		})
		total += w
	}
	return indicators, total
}

// containsAny fires when any needle occurs in the lowercase view. Tokens hold
// the first needle found.
func containsAny(needles []string) func(Subject) Match {
	return func(s Subject) Match {
		for _, n := range needles {
			if strings.Contains(s.Lower, n) {
				return Match{Matched: true, Tokens: []string{n}}
			}
		}
		return noMatch
	}
}

// containsEach fires with every needle present in the lowercase view, in
// list order. Needles are distinct so the tokens are too.
func containsEach(needles []string) func(Subject) Match {
	return func(s Subject) Match {
		var found []string
		for _, n := range needles {
			if strings.Contains(s.Lower, n) {
				found = append(found, n)
			}
		}
		if len(found) == 0 {
			return noMatch
		}
		return Match{Matched: true, Tokens: found}
	}
}

func fixed(msg string) func(Match) string {
	return func(Match) string { return msg }
}

func listed(prefix string) func(Match) string {
	return func(m Match) string {
		return prefix + strings.Join(m.Tokens, ", ")
	}
}
