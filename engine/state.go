package engine

import (
	"sync"
	"time"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/flow"
)

// NodeState is a node's position in its per-run lifecycle.
type NodeState string

const (
	StatePending   NodeState = "pending"
	StateReady     NodeState = "ready"
	StateRunning   NodeState = "running"
	StateSucceeded NodeState = "succeeded"
	StateFailed    NodeState = "failed"
)

// FailureKind classifies a node failure.
type FailureKind string

const (
	FailureExecution FailureKind = "execution_error"
	FailureCancelled FailureKind = "cancelled"
	FailureTimeout   FailureKind = "timeout"
)

// Failure describes why a node failed.
type Failure struct {
	NodeID  string           `json:"nodeId"`
	Kind    FailureKind      `json:"kind"`
	Code    errors.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

// NodeReport is what happened to one node during a run.
type NodeReport struct {
	State       NodeState     `json:"state"`
	FromCache   bool          `json:"fromCache,omitempty"`
	CacheReason string        `json:"cacheReason,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
}

// RunOptions adjusts a single run.
type RunOptions struct {
	// Overrides replaces the stored value of input-capture nodes, by id.
	Overrides map[string]string
}

// RunResult is the outcome of a run. Outputs, Errors and Failures are
// keyed by node display label; Nodes and Results by node id.
type RunResult struct {
	RunID    string                 `json:"runId"`
	Outputs  map[string]string      `json:"outputs"`
	Errors   map[string]string      `json:"errors"`
	Failures map[string]Failure     `json:"failures"`
	Nodes    map[string]NodeReport  `json:"nodes"`
	Results  map[string]flow.Result `json:"results"`
	Duration time.Duration          `json:"duration"`
}

func newRunResult(runID string) *RunResult {
	return &RunResult{
		RunID:    runID,
		Outputs:  map[string]string{},
		Errors:   map[string]string{},
		Failures: map[string]Failure{},
		Nodes:    map[string]NodeReport{},
		Results:  map[string]flow.Result{},
	}
}

// Succeeded reports whether no node failed.
func (r *RunResult) Succeeded() bool { return len(r.Failures) == 0 }

// run is the mutable state of one execution.
type run struct {
	mu      sync.Mutex
	graph   *flow.Graph
	index   *flow.Index
	opts    RunOptions
	values  map[string]string
	sources map[string][]string
	result  *RunResult
}

func newRun(g *flow.Graph, opts RunOptions, runID string) *run {
	r := &run{
		graph:   g,
		index:   flow.NewIndex(g),
		opts:    opts,
		values:  map[string]string{},
		sources: map[string][]string{},
		result:  newRunResult(runID),
	}
	for _, n := range g.Nodes {
		r.result.Nodes[n.ID] = NodeReport{State: StatePending}
	}
	for _, e := range g.Edges {
		r.sources[e.Target] = append(r.sources[e.Target], e.Source)
	}
	return r
}

func (r *run) setState(id string, s NodeState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep := r.result.Nodes[id]
	rep.State = s
	r.result.Nodes[id] = rep
}

// inputs resolves id's handles against the values recorded so far.
func (r *run) inputs(id string) map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return flow.ResolveInputs(id, r.graph.Edges, r.values)
}

func (r *run) succeed(n flow.Node, res flow.Result, pulse bool, rep NodeReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[n.ID] = res.Output
	if pulse {
		r.values[flow.PulseKey(n.ID)] = flow.PulseValue
	}
	rep.State = StateSucceeded
	r.result.Nodes[n.ID] = rep
	r.result.Results[n.ID] = res
	if n.Type.IsOutput() {
		r.result.Outputs[n.DisplayLabel()] = res.Output
	}
}

func (r *run) fail(n flow.Node, f Failure, rep NodeReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep.State = StateFailed
	r.result.Nodes[n.ID] = rep
	label := n.DisplayLabel()
	r.result.Errors[label] = f.Message
	r.result.Failures[label] = f
}

// claim moves id from Pending to Ready when every source node has
// succeeded. Only one caller can claim a node.
func (r *run) claim(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep, ok := r.result.Nodes[id]
	if !ok || rep.State != StatePending {
		return false
	}
	for _, src := range r.sources[id] {
		if r.result.Nodes[src].State != StateSucceeded {
			return false
		}
	}
	rep.State = StateReady
	r.result.Nodes[id] = rep
	return true
}
