package analyzer

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var urlCorpus = []string{
	"",
	"https://example.com",
	"http://192.168.0.1/login",
	"https://secure-verify.tk",
	"not a url",
	"javascript:alert(1)",
	"https://a.b.c.d.e.f.example.ml/update?confirm=1",
	"http://bit.ly/urgent-login-verify-secure-update-confirm",
	strings.Repeat("https://login.", 50) + "tk",
	"ftp://10.0.0.1",
}

var emailCorpus = []string{
	"",
	"Hello, just checking in.",
	"URGENT: verify your account now or it will be suspended. Send your ssn.",
	strings.Repeat("urgent act now http://bit.ly/x password $ ", 30),
	"Your PIN and bank account were locked after unauthorized access.",
	"you will recieve there account details",
}

func allScored() []Result {
	var out []Result
	for _, u := range urlCorpus {
		out = append(out, AnalyzeURL(u))
	}
	for _, e := range emailCorpus {
		out = append(out, AnalyzeEmail(e))
	}
	return out
}

func TestScoreStaysInRange(t *testing.T) {
	for _, res := range allScored() {
		if res.RiskScore < 0 || res.RiskScore > MaxScore {
			t.Errorf("score %d out of range for %q", res.RiskScore, res.Input)
		}
	}
}

func TestAnalysisIsDeterministic(t *testing.T) {
	for _, u := range urlCorpus {
		if diff := cmp.Diff(AnalyzeURL(u), AnalyzeURL(u)); diff != "" {
			t.Errorf("AnalyzeURL(%q) not deterministic:\n%s", u, diff)
		}
	}
	for _, e := range emailCorpus {
		if diff := cmp.Diff(AnalyzeEmail(e), AnalyzeEmail(e)); diff != "" {
			t.Errorf("AnalyzeEmail(%q) not deterministic:\n%s", e, diff)
		}
	}
}

func TestEmptyIndicatorConsistency(t *testing.T) {
	for _, res := range allScored() {
		empty := len(res.Indicators) == 0
		zero := res.RiskScore == 0
		safe := res.Explanation == SafeExplanation(res.Type)

		if empty != zero || zero != safe {
			t.Errorf("inconsistent result for %q: indicators=%v score=%d explanation=%q",
				res.Input, res.Indicators, res.RiskScore, res.Explanation)
		}
		if res.Indicators == nil {
			t.Errorf("indicators for %q must be non-nil", res.Input)
		}
	}
}

func TestAddingTriggersNeverLowersScore(t *testing.T) {
	urlTriggers := []string{"/login", "/verify", "/secure", "/10.0.0.1", "/x.tk", "/bit.ly"}
	for _, u := range urlCorpus {
		base := AnalyzeURL(u).RiskScore
		for _, trig := range urlTriggers {
			if got := AnalyzeURL(u + trig).RiskScore; got < base {
				t.Errorf("AnalyzeURL(%q) = %d < base %d for %q", u+trig, got, base, u)
			}
		}
	}

	emailTriggers := []string{" urgent", " http://bit.ly/a", " ssn", " suspended", " recieve", " lottery"}
	for _, e := range emailCorpus {
		base := AnalyzeEmail(e).RiskScore
		for _, trig := range emailTriggers {
			if got := AnalyzeEmail(e + trig).RiskScore; got < base {
				t.Errorf("AnalyzeEmail(%q) = %d < base %d", e+trig, got, base)
			}
		}
	}
}

func TestLevelFollowsScore(t *testing.T) {
	for _, res := range allScored() {
		if want := Classify(res.Type, res.RiskScore); res.RiskLevel != want {
			t.Errorf("level %s for score %d (%s), want %s", res.RiskLevel, res.RiskScore, res.Type, want)
		}
	}
}

func TestConcurrentAnalyses(t *testing.T) {
	engine := NewEngine()
	want := AnalyzeEmail(emailCorpus[2])

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := engine.Analyze(Input{Kind: KindEmail, Raw: emailCorpus[2]})
			if err != nil {
				errs <- err
				return
			}
			if !cmp.Equal(want, got) {
				errs <- errors.New("concurrent result differs")
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
