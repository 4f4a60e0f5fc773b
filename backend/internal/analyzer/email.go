package analyzer

import (
	"fmt"
	"regexp"
	"strings"
)

// linkRegex extracts embedded http(s) links up to the next whitespace,
// Unicode separators and the byte order mark included
var linkRegex = regexp.MustCompile(`(?i)https?://[^\s\x0B\p{Z}\x{FEFF}]+`)

var (
	urgencyPhrases       = []string{"urgent", "immediate", "expires today", "act now", "limited time", "verify now"}
	personalInfoPhrases  = []string{"social security", "ssn", "password", "pin", "credit card", "bank account"}
	impersonationPhrases = []string{"verify your account", "suspended", "locked", "unauthorized access", "click here to confirm"}
	misspellings         = []string{"recieve", "seperate", "occured", "loose", "there account"}
	financialTerms       = []string{"$", "money", "payment", "refund", "prize", "lottery", "inheritance"}

	// linkShorteners is narrower than urlShorteners: "t.co" would match
	// ordinary hosts such as microsoft.com inside a link.
	linkShorteners = []string{"bit.ly", "tinyurl"}
)

// emailRules is the email rule table in evaluation order
var emailRules = []Rule{
	{
		ID:       "urgency_language",
		Category: CategoryKeyword,
		Weight:   1,
		Scoring:  ScorePerToken,
		Match:    containsEach(urgencyPhrases),
		Message:  listed("Urgent language detected: "),
	},
	{
		ID:       "suspicious_links",
		Category: CategoryLink,
		Weight:   2,
		Scoring:  ScorePerToken,
		Match:    suspiciousLinks,
		Message: func(m Match) string {
			return fmt.Sprintf("Suspicious links detected: %d potentially harmful URLs", len(m.Tokens))
		},
	},
	{
		ID:       "personal_info_request",
		Category: CategoryPersonalInfo,
		Weight:   2,
		Scoring:  ScorePerToken,
		Match:    containsEach(personalInfoPhrases),
		Message:  listed("Requests for personal information: "),
	},
	{
		ID:       "impersonation",
		Category: CategoryImpersonation,
		Weight:   1,
		Scoring:  ScorePerToken,
		Match:    containsEach(impersonationPhrases),
		Message:  listed("Potential impersonation tactics: "),
	},
	{
		ID:       "grammar_red_flags",
		Category: CategoryGrammar,
		Weight:   1,
		Scoring:  ScoreFlat,
		Match:    containsEach(misspellings),
		Message:  fixed("Poor grammar or spelling detected"),
	},
	{
		ID:       "financial_references",
		Category: CategoryFinancial,
		Weight:   1,
		Scoring:  ScorePerToken,
		Match:    containsEach(financialTerms),
		Message:  listed("Financial references detected: "),
	},
}

// suspiciousLinks returns every embedded link that points at a shortener or
// an IP literal. Repeated links count once per occurrence.
func suspiciousLinks(s Subject) Match {
	var found []string
	for _, link := range ExtractLinks(s.Raw) {
		lower := strings.ToLower(link)
		if ipv4Regex.MatchString(link) || containsAnyOf(lower, linkShorteners) {
			found = append(found, link)
		}
	}
	if len(found) == 0 {
		return noMatch
	}
	return Match{Matched: true, Tokens: found}
}

func containsAnyOf(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

// ExtractLinks returns the http(s) links embedded in body, in order
func ExtractLinks(body string) []string {
	return linkRegex.FindAllString(body, -1)
}

// EmailRules returns a copy of the email rule table
func EmailRules() []Rule {
	return append([]Rule(nil), emailRules...)
}

// AnalyzeEmail scores an email body. It never fails.
func AnalyzeEmail(body string) Result {
	indicators, total := evaluate(emailRules, newSubject(KindEmail, body))
	return assemble(KindEmail, body, indicators, total)
}
