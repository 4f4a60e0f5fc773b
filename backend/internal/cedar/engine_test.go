package cedar

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/blackrose-blackhat/phishguard/backend/internal/analyzer"
	"github.com/blackrose-blackhat/phishguard/backend/internal/chain"
)

const testPolicy = `@id("allow-analyze")
permit (principal, action == Action::"analyze", resource);

@id("deny-long-url")
@reason("URL too long for policy")
forbid (principal, action == Action::"analyze", resource == Input::"url")
when { context.input_length > 20 };

@id("deny-blocked")
@reason("Client is blocked")
forbid (principal == Client::"blocked", action == Action::"analyze", resource);
`

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func writePolicy(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.cedar")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write policy: %v", err)
	}
	return path
}

func TestDefaultPolicyAllowsEverything(t *testing.T) {
	e, err := NewEngine("", quietLogger())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	for _, kind := range []analyzer.Kind{analyzer.KindURL, analyzer.KindEmail} {
		res := e.Evaluate(chain.NewContext(kind, strings.Repeat("x", 1<<16), ""))
		if res.Decision != ALLOW {
			t.Errorf("%s: decision = %s, want ALLOW", kind, res.Decision)
		}
	}
	if len(e.PolicyVersion()) != 12 {
		t.Errorf("PolicyVersion = %q, want 12 hex chars", e.PolicyVersion())
	}
}

func TestEvaluate(t *testing.T) {
	e, err := NewEngine(writePolicy(t, testPolicy), quietLogger())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	tests := []struct {
		name       string
		kind       analyzer.Kind
		input      string
		client     string
		want       Decision
		wantReason string
	}{
		{"short url", analyzer.KindURL, "https://example.com", "alice", ALLOW, ""},
		{"long url", analyzer.KindURL, "https://example.com/a/very/long/path", "alice", DENY, "URL too long for policy"},
		{"long email", analyzer.KindEmail, strings.Repeat("hello ", 10), "alice", ALLOW, ""},
		{"blocked client", analyzer.KindEmail, "hi", "blocked", DENY, "Client is blocked"},
		{"anonymous", analyzer.KindURL, "https://a.io", "", ALLOW, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.Evaluate(chain.NewContext(tt.kind, tt.input, tt.client))
			if res.Decision != tt.want {
				t.Fatalf("decision = %s, want %s (reason %q)", res.Decision, tt.want, res.Reason)
			}
			if tt.wantReason != "" && res.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", res.Reason, tt.wantReason)
			}
		})
	}
}

func TestNoMatchingPolicyDenies(t *testing.T) {
	e, err := NewEngineFromSource(`permit (principal == Client::"only", action, resource);`, quietLogger())
	if err != nil {
		t.Fatalf("NewEngineFromSource: %v", err)
	}

	res := e.Evaluate(chain.NewContext(analyzer.KindURL, "https://example.com", "someone"))
	if res.Decision != DENY {
		t.Fatalf("decision = %s, want DENY", res.Decision)
	}
	if res.Reason != "Policy denied the request" {
		t.Errorf("reason = %q", res.Reason)
	}
}

func TestUninitializedEngineFailsClosed(t *testing.T) {
	var e Engine
	res := e.Evaluate(chain.NewContext(analyzer.KindURL, "https://example.com", ""))
	if res.Decision != DENY {
		t.Fatalf("decision = %s, want DENY", res.Decision)
	}
}

func TestLoadRejectsBadPolicies(t *testing.T) {
	for _, src := range []string{"", "   \n", "permit (principal, action"} {
		if _, err := NewEngineFromSource(src, quietLogger()); err == nil {
			t.Errorf("expected error for %q", src)
		}
	}
	if _, err := NewEngine(filepath.Join(t.TempDir(), "missing.cedar"), quietLogger()); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestReloadKeepsPreviousSetOnFailure(t *testing.T) {
	path := writePolicy(t, testPolicy)
	e, err := NewEngine(path, quietLogger())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	before := e.PolicyVersion()

	if err := os.WriteFile(path, []byte("forbid (principal"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := e.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	if e.PolicyVersion() != before {
		t.Fatalf("version changed after failed reload: %s -> %s", before, e.PolicyVersion())
	}
	res := e.Evaluate(chain.NewContext(analyzer.KindEmail, "hi", "blocked"))
	if res.Decision != DENY {
		t.Fatalf("previous policy set not retained")
	}
}

func TestHotReload(t *testing.T) {
	path := writePolicy(t, DefaultPolicy)
	e, err := NewEngine(path, quietLogger())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if err := e.StartHotReload(); err != nil {
		t.Fatalf("StartHotReload: %v", err)
	}
	defer e.StopHotReload()

	before := e.PolicyVersion()
	if err := os.WriteFile(path, []byte(testPolicy), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for e.PolicyVersion() == before {
		if time.Now().After(deadline) {
			t.Fatal("policy was not hot-reloaded")
		}
		time.Sleep(50 * time.Millisecond)
	}

	res := e.Evaluate(chain.NewContext(analyzer.KindEmail, "hi", "blocked"))
	if res.Decision != DENY {
		t.Fatalf("decision = %s after reload, want DENY", res.Decision)
	}
}

func TestHotReloadRequiresPath(t *testing.T) {
	e, err := NewEngine("", quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := e.StartHotReload(); err == nil {
		t.Fatal("expected error without a policy path")
	}
}
