package cedar

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blackrose-blackhat/phishguard/backend/internal/chain"
	"github.com/cedar-policy/cedar-go"
	"github.com/fsnotify/fsnotify"
)

// DefaultPolicy admits every analysis. Operators tighten it with forbid
// rules in a policy file.
const DefaultPolicy = `@id("allow-analyze")
permit (principal, action == Action::"analyze", resource);`

// Decision represents the result of a policy evaluation
type Decision string

const (
	ALLOW Decision = "ALLOW"
	DENY  Decision = "DENY"
)

// EvaluationResult contains the decision and the policy that produced it
type EvaluationResult struct {
	Decision Decision
	Reason   string
	PolicyID string
}

// Engine wraps the Cedar policy engine with hot-reloading support
type Engine struct {
	policySet     atomic.Pointer[cedar.PolicySet]
	policyVersion atomic.Pointer[string]
	PolicyPath    string

	watcher    *fsnotify.Watcher
	stopWatch  chan struct{}
	logger     *log.Logger
	reloadLock sync.Mutex
}

// NewEngine creates a new Engine. An empty policyPath loads DefaultPolicy.
func NewEngine(policyPath string, logger *log.Logger) (*Engine, error) {
	if logger == nil {
		logger = log.Default()
	}
	e := &Engine{
		PolicyPath: policyPath,
		stopWatch:  make(chan struct{}),
		logger:     logger,
	}

	if err := e.Reload(); err != nil {
		return nil, err
	}
	return e, nil
}

// NewEngineFromSource creates an Engine from policy text, without a file
func NewEngineFromSource(src string, logger *log.Logger) (*Engine, error) {
	if logger == nil {
		logger = log.Default()
	}
	e := &Engine{stopWatch: make(chan struct{}), logger: logger}
	if err := e.load([]byte(src)); err != nil {
		return nil, err
	}
	return e, nil
}

// PolicyVersion returns the current policy version (thread-safe)
func (e *Engine) PolicyVersion() string {
	v := e.policyVersion.Load()
	if v == nil {
		return ""
	}
	return *v
}

// StartHotReload enables fsnotify file watching for policy hot-reloading
func (e *Engine) StartHotReload() error {
	if e.PolicyPath == "" {
		return fmt.Errorf("hot reload requires a policy file")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	e.watcher = watcher

	if err := watcher.Add(e.PolicyPath); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch policy file: %w", err)
	}

	go e.watchLoop()

	e.logger.Printf("[INFO] [cedar] Hot-reload enabled for: %s", e.PolicyPath)
	return nil
}

// StopHotReload stops the file watcher
func (e *Engine) StopHotReload() {
	if e.watcher != nil {
		close(e.stopWatch)
		e.watcher.Close()
		e.watcher = nil
	}
}

func (e *Engine) watchLoop() {
	// Debounce rapid successive saves
	var debounceTimer *time.Timer
	debounce := 500 * time.Millisecond

	for {
		select {
		case event, ok := <-e.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounce, func() {
					oldVersion := e.PolicyVersion()
					if err := e.Reload(); err != nil {
						e.logger.Printf("[ERROR] [cedar] Hot-reload failed: %v", err)
					} else {
						e.logger.Printf("[INFO] [cedar] Hot-reload: %s -> %s", oldVersion, e.PolicyVersion())
					}
				})
			}
		case err, ok := <-e.watcher.Errors:
			if !ok {
				return
			}
			e.logger.Printf("[ERROR] [cedar] Watcher error: %v", err)
		case <-e.stopWatch:
			return
		}
	}
}

// Reload re-reads the policy file. A failed reload keeps the previous set.
func (e *Engine) Reload() error {
	e.reloadLock.Lock()
	defer e.reloadLock.Unlock()

	if e.PolicyPath == "" {
		return e.load([]byte(DefaultPolicy))
	}

	data, err := os.ReadFile(e.PolicyPath)
	if err != nil {
		return fmt.Errorf("failed to read policy file: %w", err)
	}
	return e.load(data)
}

// load parses policy text and swaps it in
func (e *Engine) load(data []byte) error {
	hash := sha256.Sum256(data)
	version := hex.EncodeToString(hash[:])[:12]

	ps := cedar.NewPolicySet()

	// Policies are separated by semicolons; annotation values must not
	// contain one.
	chunks := strings.Split(string(data), ";")
	n := 0
	for i, chunk := range chunks {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}

		var policy cedar.Policy
		if err := policy.UnmarshalCedar([]byte(chunk + ";")); err != nil {
			return fmt.Errorf("failed to unmarshal cedar policy part %d: %w", i, err)
		}

		ps.Add(cedar.PolicyID(fmt.Sprintf("policy%d", i)), &policy)
		n++
	}
	if n == 0 {
		return fmt.Errorf("policy source contains no policies")
	}

	e.policySet.Store(ps)
	e.policyVersion.Store(&version)
	return nil
}

// Evaluate decides whether the request in ctx may be analyzed
func (e *Engine) Evaluate(ctx *chain.Context) EvaluationResult {
	ps := e.policySet.Load()
	if ps == nil {
		return EvaluationResult{
			Decision: DENY,
			Reason:   "Policy engine not initialized",
		}
	}

	client := ctx.ClientKey
	if client == "" {
		client = "anonymous"
	}
	kind := string(ctx.Kind)

	resource := cedar.NewEntityUID("Input", cedar.String(kind))
	entities := cedar.EntityMap{
		resource: cedar.Entity{
			UID: resource,
			Attributes: cedar.NewRecord(cedar.RecordMap{
				"kind": cedar.String(kind),
			}),
		},
	}

	req := cedar.Request{
		Principal: cedar.NewEntityUID("Client", cedar.String(client)),
		Action:    cedar.NewEntityUID("Action", "analyze"),
		Resource:  resource,
		Context: cedar.NewRecord(cedar.RecordMap{
			"kind":         cedar.String(kind),
			"input_length": cedar.Long(int64(ctx.InputLength())),
			"client":       cedar.String(client),
		}),
	}

	ok, diagnostics := cedar.Authorize(ps, entities, req)

	var policyID, reason string
	if len(diagnostics.Reasons) > 0 {
		// First contributing policy explains the decision
		r := diagnostics.Reasons[0]
		policyID = string(r.PolicyID)
		if p := ps.Get(r.PolicyID); p != nil {
			annotations := p.Annotations()
			if v, found := annotations["reason"]; found {
				reason = string(v)
			}
			if v, found := annotations["id"]; found {
				policyID = string(v)
			}
		}
	}

	if ok {
		if reason == "" {
			reason = "Policy allowed the request"
		}
		return EvaluationResult{Decision: ALLOW, Reason: reason, PolicyID: policyID}
	}

	if reason == "" {
		reason = "Policy denied the request"
	}
	return EvaluationResult{Decision: DENY, Reason: reason, PolicyID: policyID}
}
