package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

// Decision values recorded per request
const (
	DecisionAnalyzed = "analyzed"
	DecisionRejected = "rejected"
	DecisionBlocked  = "blocked"
	DecisionError    = "error"
)

// AnalysisEntry is one audit line. It never carries the submitted content,
// only its size and digest.
type AnalysisEntry struct {
	Timestamp      time.Time     `json:"timestamp"`
	RequestID      string        `json:"request_id"`
	Client         string        `json:"client,omitempty"`
	Type           string        `json:"type,omitempty"`
	InputSHA256    string        `json:"input_sha256,omitempty"`
	InputLength    int           `json:"input_length"`
	RiskScore      int           `json:"risk_score"`
	RiskLevel      string        `json:"risk_level,omitempty"`
	IndicatorCount int           `json:"indicator_count"`
	Decision       string        `json:"decision"`
	Reason         string        `json:"reason,omitempty"`
	Cached         bool          `json:"cached"`
	Latency        time.Duration `json:"latency_ns"`
}

// Logger handles structured audit logging
type Logger struct {
	mu       sync.Mutex
	closer   io.Closer
	encoder  *json.Encoder
	fallback *log.Logger
}

// NewLogger creates a new audit logger
// If filePath is empty, logs to stdout in JSON format
func NewLogger(filePath string) (*Logger, error) {
	if filePath == "" {
		return NewWriterLogger(os.Stdout), nil
	}

	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	l := NewWriterLogger(file)
	l.closer = file
	return l, nil
}

// NewWriterLogger writes entries to w. Close does not close w.
func NewWriterLogger(w io.Writer) *Logger {
	return &Logger{
		encoder:  json.NewEncoder(w),
		fallback: log.New(os.Stderr, "[AUDIT] ", log.LstdFlags),
	}
}

// Log writes an audit entry
func (l *Logger) Log(entry AnalysisEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	if err := l.encoder.Encode(entry); err != nil {
		l.fallback.Printf("Failed to write audit entry: %v, request: %s", err, entry.RequestID)
	}
}

// Close closes the audit log file
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closer != nil {
		err := l.closer.Close()
		l.closer = nil
		return err
	}
	return nil
}

// Digest returns the hex SHA-256 of the input for correlation without
// retaining the content
func Digest(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}
