package analyzer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAnalyzeEmail(t *testing.T) {
	cases := []struct {
		name       string
		body       string
		score      int
		level      Level
		indicators []string
	}{
		{
			name:       "harmless note",
			body:       "Hello, just checking in.",
			score:      0,
			level:      LevelLow,
			indicators: []string{},
		},
		{
			name:  "urgency impersonation and ssn",
			body:  "URGENT: verify your account now or it will be suspended. Send your ssn.",
			score: 5,
			level: LevelMedium,
			indicators: []string{
				"Urgent language detected: urgent",
				"Requests for personal information: ssn",
				"Potential impersonation tactics: verify your account, suspended",
			},
		},
		{
			name:       "shortener and ip links",
			body:       "Claim it at http://bit.ly/x and http://10.0.0.1/pay soon",
			score:      4,
			level:      LevelMedium,
			indicators: []string{"Suspicious links detected: 2 potentially harmful URLs"},
		},
		{
			name:       "ordinary link",
			body:       "See https://example.com/docs for details",
			score:      0,
			level:      LevelLow,
			indicators: []string{},
		},
		{
			name:       "uppercase link",
			body:       "Go to HTTP://BIT.LY/X tomorrow",
			score:      2,
			level:      LevelLow,
			indicators: []string{"Suspicious links detected: 1 potentially harmful URLs"},
		},
		{
			name:       "repeated suspicious link counts twice",
			body:       "http://bit.ly/a http://bit.ly/a",
			score:      4,
			level:      LevelMedium,
			indicators: []string{"Suspicious links detected: 2 potentially harmful URLs"},
		},
		{
			name:       "no-break space separates links",
			body:       "http://bit.ly/a\u00a0http://bit.ly/b",
			score:      4,
			level:      LevelMedium,
			indicators: []string{"Suspicious links detected: 2 potentially harmful URLs"},
		},
		{
			name:       "misspellings score once",
			body:       "You will recieve a seperate letter",
			score:      1,
			level:      LevelLow,
			indicators: []string{"Poor grammar or spelling detected"},
		},
		{
			name:       "financial references",
			body:       "You won a prize in the lottery, claim your money",
			score:      3,
			level:      LevelMedium,
			indicators: []string{"Financial references detected: money, prize, lottery"},
		},
		{
			name: "full phishing kit caps at ten",
			body: "URGENT! Act now: your account is locked. Verify your account and send your password " +
				"and credit card via http://bit.ly/abc to claim a $500 refund.",
			score: 10,
			level: LevelHigh,
			indicators: []string{
				"Urgent language detected: urgent, act now",
				"Suspicious links detected: 1 potentially harmful URLs",
				"Requests for personal information: password, credit card",
				"Potential impersonation tactics: verify your account, locked",
				"Financial references detected: $, refund",
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := AnalyzeEmail(tc.body)

			if res.RiskScore != tc.score {
				t.Errorf("score = %d, want %d (fired %v)", res.RiskScore, tc.score, res.Fired)
			}
			if res.RiskLevel != tc.level {
				t.Errorf("level = %s, want %s", res.RiskLevel, tc.level)
			}
			if diff := cmp.Diff(tc.indicators, res.Indicators); diff != "" {
				t.Errorf("indicators mismatch (-want +got):\n%s", diff)
			}
			if res.Type != KindEmail {
				t.Errorf("type = %s, want email", res.Type)
			}
		})
	}
}

func TestAnalyzeEmailWeights(t *testing.T) {
	res := AnalyzeEmail("URGENT: verify your account now or it will be suspended. Send your ssn.")

	want := []Indicator{
		{Rule: "urgency_language", Text: "Urgent language detected: urgent", Weight: 1},
		{Rule: "personal_info_request", Text: "Requests for personal information: ssn", Weight: 2},
		{Rule: "impersonation", Text: "Potential impersonation tactics: verify your account, suspended", Weight: 2},
	}
	if diff := cmp.Diff(want, res.Fired); diff != "" {
		t.Fatalf("fired mismatch (-want +got):\n%s", diff)
	}
}

func TestEmailExplanation(t *testing.T) {
	res := AnalyzeEmail("URGENT: verify your account now or it will be suspended. Send your ssn.")

	want := "This email shows medium risk indicators. The analysis detected 3 potential phishing signals including " +
		"Urgent language detected: urgent and Requests for personal information: ssn among others. " +
		"This email shows concerning patterns - verify the sender before taking any action."
	if res.Explanation != want {
		t.Fatalf("explanation =\n%q\nwant\n%q", res.Explanation, want)
	}
}

func TestExtractLinks(t *testing.T) {
	got := ExtractLinks("a https://x.com/b, and http://y.org\nplus ftp://z.net")
	want := []string{"https://x.com/b,", "http://y.org"}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("links mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractLinksStopsAtUnicodeSeparators(t *testing.T) {
	body := "http://a.com\u00a0http://b.com\u2003http://c.com\u2028http://d.com\ufeffhttp://e.com\vhttp://f.com"
	want := []string{"http://a.com", "http://b.com", "http://c.com", "http://d.com", "http://e.com", "http://f.com"}

	if diff := cmp.Diff(want, ExtractLinks(body)); diff != "" {
		t.Fatalf("links mismatch (-want +got):\n%s", diff)
	}
}

func TestEmailShortenerListIgnoresTCo(t *testing.T) {
	res := AnalyzeEmail("Docs live at https://microsoft.com/help")

	if !res.Safe() {
		t.Fatalf("expected no indicators, got %v", res.Indicators)
	}
}
