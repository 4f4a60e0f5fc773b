package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestLogWritesOneJSONLinePerEntry(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf)

	secret := "http://192.168.0.1/login?ssn=123"
	l.Log(AnalysisEntry{
		RequestID:      "req-1",
		Type:           "url",
		InputSHA256:    Digest(secret),
		InputLength:    len(secret),
		RiskScore:      5,
		RiskLevel:      "medium",
		IndicatorCount: 3,
		Decision:       DecisionAnalyzed,
		Latency:        1500 * time.Nanosecond,
	})
	l.Log(AnalysisEntry{RequestID: "req-2", Decision: DecisionRejected, Reason: "URL is required"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}

	var got map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &got); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if got["request_id"] != "req-1" || got["decision"] != "analyzed" || got["latency_ns"] != float64(1500) {
		t.Fatalf("unexpected entry: %v", got)
	}
	if _, ok := got["timestamp"]; !ok {
		t.Fatal("timestamp not filled")
	}
	if strings.Contains(buf.String(), secret) {
		t.Fatal("raw input leaked into audit log")
	}
}

func TestDigest(t *testing.T) {
	// sha256("")
	const empty = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Digest(""); got != empty {
		t.Fatalf("Digest(\"\") = %s", got)
	}
	if len(Digest("abc")) != 64 {
		t.Fatal("digest should be 64 hex chars")
	}
}

func TestNewLoggerAppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")

	for i := 0; i < 2; i++ {
		l, err := NewLogger(path)
		if err != nil {
			t.Fatalf("NewLogger: %v", err)
		}
		l.Log(AnalysisEntry{RequestID: "r", Decision: DecisionAnalyzed})
		if err := l.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	n := 0
	for sc := bufio.NewScanner(f); sc.Scan(); n++ {
	}
	if n != 2 {
		t.Fatalf("file has %d lines, want 2", n)
	}
}

func TestConcurrentLogging(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Log(AnalysisEntry{RequestID: "r", Decision: DecisionAnalyzed})
		}()
	}
	wg.Wait()

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if !json.Valid([]byte(line)) {
			t.Fatalf("interleaved line: %q", line)
		}
	}
}
