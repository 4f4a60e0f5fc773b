package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/blackrose-blackhat/phishguard/backend/internal/analyzer"
	"github.com/blackrose-blackhat/phishguard/backend/internal/audit"
	"github.com/blackrose-blackhat/phishguard/backend/internal/chain"
	"github.com/blackrose-blackhat/phishguard/backend/internal/metrics"
)

var (
	// ErrMissingField is returned when the request names no input
	ErrMissingField = errors.New("missing required field")
	// ErrAmbiguousRequest is returned when the unified endpoint gets both inputs
	ErrAmbiguousRequest = errors.New("ambiguous request")

	errTrailingData = errors.New("unexpected data after JSON body")
)

// validationError pairs a sentinel with the message returned to the client
type validationError struct {
	err     error
	message string
}

func (e *validationError) Error() string { return e.message }
func (e *validationError) Unwrap() error { return e.err }

type analyzeRequest struct {
	URL   string `json:"url"`
	Email string `json:"email"`
}

// route fixes the input kind of an endpoint; the zero kind accepts either
type route struct {
	kind analyzer.Kind
}

func (rt route) resolve(req analyzeRequest) (analyzer.Kind, string, error) {
	switch rt.kind {
	case analyzer.KindURL:
		if req.URL == "" {
			return "", "", &validationError{ErrMissingField, "URL is required"}
		}
		return analyzer.KindURL, req.URL, nil
	case analyzer.KindEmail:
		if req.Email == "" {
			return "", "", &validationError{ErrMissingField, "Email content is required"}
		}
		return analyzer.KindEmail, req.Email, nil
	}

	switch {
	case req.URL != "" && req.Email != "":
		return "", "", &validationError{ErrAmbiguousRequest, "provide exactly one of url or email"}
	case req.URL != "":
		return analyzer.KindURL, req.URL, nil
	case req.Email != "":
		return analyzer.KindEmail, req.Email, nil
	default:
		return "", "", &validationError{ErrMissingField, "url or email is required"}
	}
}

// analyzeHandler serves one analysis endpoint
func (s *Server) analyzeHandler(endpoint string, rt route) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := RequestID(r.Context())
		metrics.RecordRequest(endpoint)

		switch r.Method {
		case http.MethodOptions:
			w.WriteHeader(http.StatusNoContent)
			return
		case http.MethodPost:
		default:
			metrics.RecordRejection("method_not_allowed")
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		client := clientKey(r)
		entry := audit.AnalysisEntry{RequestID: requestID, Client: client, Type: string(rt.kind)}

		var req analyzeRequest
		body := http.MaxBytesReader(w, r.Body, s.opts.MaxRequestSize)
		if err := decodeBody(body, &req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				s.reject(w, entry, start, http.StatusRequestEntityTooLarge, "body_too_large", "Request body too large")
				return
			}
			s.reject(w, entry, start, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
			return
		}

		kind, input, err := rt.resolve(req)
		if err != nil {
			reason := "missing_field"
			if errors.Is(err, ErrAmbiguousRequest) {
				reason = "ambiguous_request"
			}
			s.reject(w, entry, start, http.StatusBadRequest, reason, err.Error())
			return
		}

		entry.Type = string(kind)
		entry.InputLength = len(input)
		entry.InputSHA256 = audit.Digest(input)

		gctx := chain.NewContext(kind, input, client)
		gctx.RequestID = requestID

		if s.opts.Chain != nil {
			if err := s.opts.Chain.Execute(gctx); err != nil {
				s.logError("Guardrail chain failed for request %s: %v", requestID, err)
				s.fail(w, entry, start, err)
				return
			}
			if gctx.Blocked {
				metrics.RecordRejection(gctx.BlockCode)
				entry.Decision = audit.DecisionBlocked
				entry.Reason = gctx.BlockMsg
				s.finish(entry, start)
				writeJSON(w, gctx.StatusCode, errorResponse{
					Error:     gctx.BlockMsg,
					Code:      gctx.BlockCode,
					RequestID: requestID,
				})
				return
			}
		}

		res, cached, err := s.analyze(kind, input)
		if err != nil {
			s.logError("Analysis failed for request %s: %v", requestID, err)
			s.fail(w, entry, start, err)
			return
		}

		if cached {
			metrics.RecordCacheHit()
		}
		metrics.RecordResult(res)

		entry.Decision = audit.DecisionAnalyzed
		entry.Cached = cached
		entry.RiskScore = res.RiskScore
		entry.RiskLevel = string(res.RiskLevel)
		entry.IndicatorCount = len(res.Indicators)
		s.finish(entry, start)

		s.logDebug("Request %s: %s scored %d (%s) cached=%v", requestID, kind, res.RiskScore, res.RiskLevel, cached)
		writeJSON(w, http.StatusOK, res)
	})
}

// analyze consults the cache, then the analyzer. Panics surface as errors.
func (s *Server) analyze(kind analyzer.Kind, input string) (res analyzer.Result, cached bool, err error) {
	if s.opts.Cache != nil {
		if hit, ok := s.opts.Cache.Get(kind, input); ok {
			return hit, true, nil
		}
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("analysis panicked: %v", rec)
		}
	}()

	res, err = s.opts.Analyzer.Analyze(analyzer.Input{Kind: kind, Raw: input})
	if err != nil {
		return analyzer.Result{}, false, err
	}

	if s.opts.Cache != nil {
		s.opts.Cache.Set(kind, input, res)
	}
	return res, false, nil
}

func (s *Server) reject(w http.ResponseWriter, entry audit.AnalysisEntry, start time.Time, status int, reason, message string) {
	metrics.RecordRejection(reason)
	entry.Decision = audit.DecisionRejected
	entry.Reason = message
	s.finish(entry, start)
	writeError(w, status, message)
}

func (s *Server) fail(w http.ResponseWriter, entry audit.AnalysisEntry, start time.Time, err error) {
	metrics.RecordRejection("internal_error")
	entry.Decision = audit.DecisionError
	entry.Reason = err.Error()
	s.finish(entry, start)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

func (s *Server) finish(entry audit.AnalysisEntry, start time.Time) {
	entry.Latency = time.Since(start)
	metrics.ObserveLatency(entry.Latency)
	if s.opts.Audit != nil {
		s.opts.Audit.Log(entry)
	}
}

// clientKey identifies the caller for rate limiting and policy
func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// decodeBody reads exactly one JSON value. An empty body leaves v untouched.
func decodeBody(body io.Reader, v interface{}) error {
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	switch err := dec.Decode(&struct{}{}); {
	case errors.Is(err, io.EOF):
		return nil
	case err == nil:
		return errTrailingData
	default:
		return err
	}
}
