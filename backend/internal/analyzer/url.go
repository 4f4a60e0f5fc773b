package analyzer

import "strings"

var (
	suspiciousTLDs     = []string{".tk", ".ml", ".ga", ".cf", ".pw", ".top"}
	urlShorteners      = []string{"bit.ly", "tinyurl", "t.co", "goo.gl", "ow.ly"}
	suspiciousKeywords = []string{"login", "verify", "secure", "update", "confirm", "urgent"}
)

// maxSubdomains is the deepest subdomain nesting that does not fire
const maxSubdomains = 2

// urlRules is the URL rule table in evaluation order
var urlRules = []Rule{
	{
		ID:       "suspicious_tld",
		Category: CategoryDomain,
		Weight:   2,
		Scoring:  ScoreFlat,
		Match:    containsAny(suspiciousTLDs),
		Message:  fixed("Suspicious top-level domain detected"),
	},
	{
		ID:       "url_shortener",
		Category: CategoryDomain,
		Weight:   1,
		Scoring:  ScoreFlat,
		Match:    containsAny(urlShorteners),
		Message:  fixed("URL shortener detected"),
	},
	{
		ID:       "suspicious_keywords",
		Category: CategoryKeyword,
		Weight:   1,
		Scoring:  ScorePerToken,
		Match:    containsEach(suspiciousKeywords),
		Message:  listed("Suspicious keywords detected: "),
	},
	{
		ID:       "ip_literal",
		Category: CategoryDomain,
		Weight:   3,
		Scoring:  ScoreFlat,
		Match: func(s Subject) Match {
			if ip := ipv4Regex.FindString(s.Raw); ip != "" {
				return Match{Matched: true, Tokens: []string{ip}}
			}
			return noMatch
		},
		Message: fixed("IP address used instead of domain name"),
	},
	{
		ID:       "excessive_subdomains",
		Category: CategoryStructure,
		Weight:   2,
		Scoring:  ScoreFlat,
		Match: func(s Subject) Match {
			if s.parseErr || subdomainDepth(s.parsed.Host) <= maxSubdomains {
				return noMatch
			}
			return Match{Matched: true}
		},
		Message: fixed("Excessive number of subdomains"),
	},
	{
		ID:       "invalid_url",
		Category: CategoryStructure,
		Weight:   1,
		Scoring:  ScoreFlat,
		Match: func(s Subject) Match {
			return Match{Matched: s.parseErr}
		},
		Message: fixed("Invalid URL format"),
	},
	{
		ID:       "no_https",
		Category: CategoryTransport,
		Weight:   1,
		Scoring:  ScoreFlat,
		Match: func(s Subject) Match {
			return Match{Matched: !strings.HasPrefix(s.Lower, "https://")}
		},
		Message: fixed("URL does not use HTTPS"),
	},
}

// subdomainDepth counts labels beyond the registrable base (last two labels)
func subdomainDepth(hostname string) int {
	return len(strings.Split(hostname, ".")) - 2
}

// URLRules returns a copy of the URL rule table
func URLRules() []Rule {
	return append([]Rule(nil), urlRules...)
}

// AnalyzeURL scores a candidate URL. Malformed input degrades into the
// invalid_url indicator; it never fails.
func AnalyzeURL(raw string) Result {
	indicators, total := evaluate(urlRules, newSubject(KindURL, raw))
	return assemble(KindURL, raw, indicators, total)
}
