package mcp

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/blackrose-blackhat/phishguard/backend/internal/analyzer"
	"github.com/blackrose-blackhat/phishguard/backend/internal/audit"
	"github.com/blackrose-blackhat/phishguard/backend/internal/metrics"
	"github.com/google/uuid"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Analyzer scores a single input
type Analyzer interface {
	Analyze(in analyzer.Input) (analyzer.Result, error)
}

// Server exposes the analyzers as MCP tools. Register with NewServer, then
// run with s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{}).
type Server struct {
	MCPServer *sdkmcp.Server

	engine Analyzer
	audit  *audit.Logger
	logger *log.Logger
}

// NewServer creates the tool server. auditLog may be nil.
func NewServer(version string, engine Analyzer, auditLog *audit.Logger, logger *log.Logger) *Server {
	if engine == nil {
		engine = analyzer.NewEngine()
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	s := &Server{
		MCPServer: sdkmcp.NewServer(
			&sdkmcp.Implementation{Name: "phishguard", Version: version},
			nil,
		),
		engine: engine,
		audit:  auditLog,
		logger: logger,
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "analyze_url",
		Description: "Score a URL for phishing indicators. Returns risk score (0-10), level, indicators and an explanation.",
	}, s.handleAnalyzeURL)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "analyze_email",
		Description: "Score an email body for phishing indicators. Returns risk score (0-10), level, indicators and an explanation.",
	}, s.handleAnalyzeEmail)
}

// Run serves MCP over stdio until ctx is cancelled or the client disconnects
func (s *Server) Run(ctx context.Context) error {
	s.logger.Printf("[INFO] MCP server listening on stdio")
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

type analyzeURLInput struct {
	URL string `json:"url,omitempty" jsonschema:"the URL to analyze"`
}

type analyzeEmailInput struct {
	Email string `json:"email,omitempty" jsonschema:"the full email body to analyze"`
}

func (s *Server) handleAnalyzeURL(ctx context.Context, _ *sdkmcp.CallToolRequest, in analyzeURLInput) (*sdkmcp.CallToolResult, analyzer.Result, error) {
	if in.URL == "" {
		return nil, analyzer.Result{}, fmt.Errorf("url is required")
	}
	res, err := s.analyze(analyzer.KindURL, in.URL)
	return nil, res, err
}

func (s *Server) handleAnalyzeEmail(ctx context.Context, _ *sdkmcp.CallToolRequest, in analyzeEmailInput) (*sdkmcp.CallToolResult, analyzer.Result, error) {
	if in.Email == "" {
		return nil, analyzer.Result{}, fmt.Errorf("email is required")
	}
	res, err := s.analyze(analyzer.KindEmail, in.Email)
	return nil, res, err
}

func (s *Server) analyze(kind analyzer.Kind, input string) (analyzer.Result, error) {
	start := time.Now()
	entry := audit.AnalysisEntry{
		RequestID:   uuid.New().String(),
		Client:      "mcp",
		Type:        string(kind),
		InputSHA256: audit.Digest(input),
		InputLength: len(input),
	}

	res, err := s.engine.Analyze(analyzer.Input{Kind: kind, Raw: input})
	entry.Latency = time.Since(start)
	if err != nil {
		entry.Decision = audit.DecisionError
		entry.Reason = err.Error()
		s.log(entry)
		return analyzer.Result{}, fmt.Errorf("analyze %s: %w", kind, err)
	}

	metrics.RecordResult(res)
	entry.Decision = audit.DecisionAnalyzed
	entry.RiskScore = res.RiskScore
	entry.RiskLevel = string(res.RiskLevel)
	entry.IndicatorCount = len(res.Indicators)
	s.log(entry)
	return res, nil
}

func (s *Server) log(entry audit.AnalysisEntry) {
	if s.audit != nil {
		s.audit.Log(entry)
	}
}
