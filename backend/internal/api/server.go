package api

import (
	"log"
	"net/http"

	"github.com/blackrose-blackhat/phishguard/backend/internal/analyzer"
	"github.com/blackrose-blackhat/phishguard/backend/internal/audit"
	"github.com/blackrose-blackhat/phishguard/backend/internal/cache"
	"github.com/blackrose-blackhat/phishguard/backend/internal/chain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Analyzer scores a single input
type Analyzer interface {
	Analyze(in analyzer.Input) (analyzer.Result, error)
}

// PolicyVersioner reports the active admission policy version
type PolicyVersioner interface {
	PolicyVersion() string
}

// StatsReporter is implemented by guardrails that expose runtime counters
type StatsReporter interface {
	GetStats() map[string]interface{}
}

// Options wires the HTTP boundary. Only Analyzer is required.
type Options struct {
	Analyzer       Analyzer
	Chain          *chain.GuardrailChain
	Cache          *cache.ResultCache
	Audit          *audit.Logger
	Policy         PolicyVersioner
	Logger         *log.Logger
	MaxRequestSize int64
	AllowOrigin    string
	MetricsPath    string // empty disables /metrics on this mux
	Debug          bool
}

// Server serves the analysis API
type Server struct {
	opts Options
}

// NewServer creates a Server, filling unset options with defaults
func NewServer(opts Options) *Server {
	if opts.Analyzer == nil {
		opts.Analyzer = analyzer.NewEngine()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.MaxRequestSize <= 0 {
		opts.MaxRequestSize = 2 * 1024 * 1024
	}
	if opts.AllowOrigin == "" {
		opts.AllowOrigin = "*"
	}
	return &Server{opts: opts}
}

// Routes returns the HTTP handler for every endpoint
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	urlRoute := route{kind: analyzer.KindURL}
	emailRoute := route{kind: analyzer.KindEmail}

	mux.Handle("/analyze-url", s.analyzeHandler("/analyze-url", urlRoute))
	mux.Handle("/api/analyze-url", s.analyzeHandler("/api/analyze-url", urlRoute))
	mux.Handle("/analyze-email", s.analyzeHandler("/analyze-email", emailRoute))
	mux.Handle("/api/analyze-email", s.analyzeHandler("/api/analyze-email", emailRoute))
	mux.Handle("/api/analyze", s.analyzeHandler("/api/analyze", route{}))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "phishguard",
		})
	})
	mux.HandleFunc("/api/status", s.handleStatus)

	if s.opts.MetricsPath != "" {
		mux.Handle(s.opts.MetricsPath, promhttp.Handler())
	}

	return s.middleware(mux)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	status := map[string]interface{}{
		"status":  "ok",
		"service": "phishguard",
		"rules": map[string]int{
			"url":   len(analyzer.URLRules()),
			"email": len(analyzer.EmailRules()),
		},
	}
	if s.opts.Policy != nil {
		status["policy_version"] = s.opts.Policy.PolicyVersion()
	}
	if s.opts.Cache != nil {
		status["cache"] = s.opts.Cache.Stats()
	}
	if s.opts.Chain != nil {
		var names []string
		stats := make(map[string]interface{})
		for _, g := range s.opts.Chain.Guardrails() {
			names = append(names, g.Name())
			if r, ok := g.(StatsReporter); ok {
				stats[g.Name()] = r.GetStats()
			}
		}
		status["guardrails"] = names
		status["guardrail_stats"] = stats
	}
	writeJSON(w, http.StatusOK, status)
}

// logging helpers
func (s *Server) logInfo(format string, args ...interface{}) {
	s.opts.Logger.Printf("[INFO] "+format, args...)
}

func (s *Server) logDebug(format string, args ...interface{}) {
	if s.opts.Debug {
		s.opts.Logger.Printf("[DEBUG] "+format, args...)
	}
}

func (s *Server) logError(format string, args ...interface{}) {
	s.opts.Logger.Printf("[ERROR] "+format, args...)
}
