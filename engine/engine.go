package engine

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/kbukum/flowkit/cache"
	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/executor"
	"github.com/kbukum/flowkit/flow"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
	"github.com/kbukum/flowkit/preview"
)

// errNodeTimeout is the cancellation cause of a node's own deadline.
var errNodeTimeout = stderrors.New("node timeout")

// Engine executes flows against a registry of executors and a result cache.
// It is safe for concurrent runs.
type Engine struct {
	registry    *executor.Registry
	cache       *cache.Manager
	maxParallel int
	sem         *semaphore.Weighted
	preview     preview.Publisher
	log         *logger.Logger
	metrics     *observability.EngineMetrics
}

// New creates an Engine. A nil cache disables result reuse.
func New(registry *executor.Registry, cm *cache.Manager, opts ...Option) *Engine {
	e := &Engine{
		registry: registry,
		cache:    cm,
		log:      logger.WithComponent("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.maxParallel > 0 {
		e.sem = semaphore.NewWeighted(int64(e.maxParallel))
	}
	return e
}

// Cache returns the engine's result cache, possibly nil.
func (e *Engine) Cache() *cache.Manager { return e.cache }

// Registry returns the engine's executor registry.
func (e *Engine) Registry() *executor.Registry { return e.registry }

// NodeResult is the outcome of RunNode.
type NodeResult struct {
	NodeID      string      `json:"nodeId"`
	Label       string      `json:"label"`
	Result      flow.Result `json:"result"`
	FromCache   bool        `json:"fromCache"`
	CacheReason string      `json:"cacheReason,omitempty"`
}

// Run executes every node reachable from the graph's entry nodes. The
// returned result is never nil; the error is non-nil only when the graph
// has nothing to run. Node failures are reported in RunResult.Errors.
func (e *Engine) Run(ctx context.Context, g *flow.Graph, opts RunOptions) (*RunResult, error) {
	runID := uuid.NewString()
	ctx = logger.ContextWithRunID(ctx, runID)
	ctx, span := observability.StartSpan(ctx, observability.SpanRun, trace.WithAttributes(
		attribute.String(observability.AttrRunID, runID),
		attribute.Int(observability.AttrNodeCount, len(g.Nodes)),
		attribute.Int(observability.AttrEdgeCount, len(g.Edges)),
	))
	log := e.log.WithContext(ctx)
	start := time.Now()

	r := newRun(g, opts, runID)
	entries := r.index.EntryNodes(g)
	if len(entries) == 0 {
		err := errors.NoConnectedNodes()
		observability.EndSpan(span, err)
		e.metrics.RecordRun(ctx, "rejected", time.Since(start))
		log.Warn("flow has no connected nodes", logger.Fields("nodes", len(g.Nodes)))
		return r.result, err
	}

	log.Info("flow run started", logger.Fields("nodes", len(g.Nodes), "edges", len(g.Edges), "entries", len(entries)))

	var eg errgroup.Group
	for _, n := range entries {
		if r.claim(n.ID) {
			eg.Go(func() error {
				e.visit(ctx, r, n)
				return nil
			})
		}
	}
	_ = eg.Wait()

	r.result.Duration = time.Since(start)
	status := "succeeded"
	if !r.result.Succeeded() {
		status = "partial"
	}
	span.SetAttributes(attribute.String(observability.AttrStatus, status))
	observability.EndSpan(span, nil)
	e.metrics.RecordRun(ctx, status, r.result.Duration)
	log.Info("flow run finished", logger.MergeWithDuration(logger.Fields(
		logger.FieldStatus, status,
		"outputs", len(r.result.Outputs),
		"errors", len(r.result.Errors),
	), r.result.Duration))
	return r.result, nil
}

// visit runs n and then every downstream node it makes ready.
func (e *Engine) visit(ctx context.Context, r *run, n flow.Node) {
	inputs := r.inputs(n.ID)
	target := n
	if v, ok := r.opts.Overrides[n.ID]; ok && n.Type.IsInputCapture() {
		target = n.WithCapturedValue(v)
	}

	r.setState(n.ID, StateRunning)
	out := e.execute(ctx, r.result.RunID, r.graph, target, inputs)
	rep := NodeReport{FromCache: out.fromCache, CacheReason: out.reason, Duration: out.duration}
	if out.err != nil {
		r.fail(n, failureOf(n.ID, out.err), rep)
		return
	}
	r.succeed(n, out.result, out.pulse, rep)
	if n.Type.IsOutput() {
		return
	}

	var eg errgroup.Group
	seen := make(map[string]bool)
	for _, edge := range r.index.Outgoing(n.ID) {
		if seen[edge.Target] {
			continue
		}
		seen[edge.Target] = true
		child, ok := r.index.Nodes[edge.Target]
		if !ok || !r.claim(child.ID) {
			continue
		}
		eg.Go(func() error {
			e.visit(ctx, r, child)
			return nil
		})
	}
	_ = eg.Wait()
}

// RunNode executes a single node against upstream, a map of node id (or
// pulse key) to output. Nothing downstream is started.
func (e *Engine) RunNode(ctx context.Context, g *flow.Graph, nodeID string, upstream map[string]string) (*NodeResult, error) {
	n, ok := g.Node(nodeID)
	if !ok {
		return nil, errors.NodeNotFound(nodeID)
	}
	runID := uuid.NewString()
	ctx = logger.ContextWithRunID(ctx, runID)

	out := e.execute(ctx, runID, g, n, flow.ResolveInputs(n.ID, g.Edges, upstream))
	if out.err != nil {
		return nil, out.err
	}
	return &NodeResult{
		NodeID:      n.ID,
		Label:       n.DisplayLabel(),
		Result:      out.result,
		FromCache:   out.fromCache,
		CacheReason: out.reason,
	}, nil
}

type outcome struct {
	result    flow.Result
	fromCache bool
	reason    string
	pulse     bool
	duration  time.Duration
	err       *errors.AppError
}

// execute produces n's result from the cache or its executor. inputs are
// the values resolved from incoming edges.
func (e *Engine) execute(ctx context.Context, runID string, g *flow.Graph, n flow.Node, inputs map[string]string) (out outcome) {
	ctx, span := observability.StartSpan(ctx, observability.SpanNode, trace.WithAttributes(
		attribute.String(observability.AttrNodeID, n.ID),
		attribute.String(observability.AttrNodeType, string(n.Type)),
	))
	log := e.log.WithContext(ctx).WithFields(logger.Fields(
		logger.FieldNodeID, n.ID, logger.FieldNodeType, string(n.Type), logger.FieldNodeLabel, n.DisplayLabel(),
	))
	start := time.Now()
	defer func() {
		out.duration = time.Since(start)
		status := "succeeded"
		if out.err != nil {
			status = string(kindOf(out.err))
		}
		span.SetAttributes(attribute.String(observability.AttrStatus, status))
		observability.EndSpan(span, errOrNil(out.err))
	}()

	spec, registered := e.registry.Lookup(n.Type)
	out.pulse = registered && spec.EmitsPulse

	if e.cache != nil {
		res, reason, hit := e.cache.Lookup(n, g.Edges, inputs)
		span.SetAttributes(attribute.Bool(observability.AttrCacheResult, hit))
		if hit {
			log.Debug("node served from cache", logger.Fields(logger.FieldCacheResult, "hit"))
			out.result, out.fromCache = res, true
			return out
		}
		out.reason = string(reason)
		span.SetAttributes(attribute.String(observability.AttrCacheReason, out.reason))
		log.Debug("node cache miss", logger.Fields(logger.FieldCacheResult, "miss", logger.FieldCacheReason, out.reason))
	}

	if !registered || spec.Executor == nil {
		out.err = errors.ExecutorNotFound(string(n.Type)).WithDetail("node_id", n.ID)
		log.Error("no executor for node type")
		return out
	}
	if err := ctx.Err(); err != nil {
		out.err = errors.Cancelled(n.ID).WithCause(err)
		return out
	}

	execInputs := inputs
	if n.Type.IsInputCapture() {
		execInputs = make(map[string]string, len(inputs)+1)
		for k, v := range inputs {
			execInputs[k] = v
		}
		execInputs[flow.InputHandle] = n.CapturedValue()
	}

	res, err := e.call(ctx, runID, spec, n, execInputs, g.WiredHandles(n.ID))
	if err != nil {
		out.err = err
		log.Warn("node failed", logger.Fields(logger.FieldStatus, string(kindOf(err)), logger.FieldError, err.Message))
		return out
	}

	if e.cache != nil {
		e.cache.Set(n, g.Edges, inputs, res)
	}
	out.result = res
	return out
}

// call runs the executor under the executor timeout and the parallelism bound.
func (e *Engine) call(ctx context.Context, runID string, spec executor.Spec, n flow.Node, inputs map[string]string, wired map[string]bool) (res flow.Result, appErr *errors.AppError) {
	if e.sem != nil {
		if err := e.sem.Acquire(ctx, 1); err != nil {
			return flow.Result{}, errors.Cancelled(n.ID).WithCause(err)
		}
		defer e.sem.Release(1)
	}

	tctx, cancel := context.WithTimeoutCause(ctx, spec.Timeout, errNodeTimeout)
	defer cancel()

	var stream func(string)
	if spec.Preview && e.preview != nil {
		stream = func(chunk string) {
			e.preview.Publish(preview.Event{Type: preview.EventChunk, RunID: runID, NodeID: n.ID, Chunk: chunk, Time: time.Now()})
		}
	}

	e.metrics.NodeStarted(ctx)
	start := time.Now()
	defer func() {
		status := "succeeded"
		if appErr != nil {
			status = string(kindOf(appErr))
		}
		e.metrics.RecordNode(ctx, string(n.Type), status, time.Since(start))
		if stream != nil {
			ev := preview.Event{Type: preview.EventDone, RunID: runID, NodeID: n.ID, Output: res.Output, Time: time.Now()}
			if appErr != nil {
				ev = preview.Event{Type: preview.EventError, RunID: runID, NodeID: n.ID, Error: appErr.Message, Time: time.Now()}
			}
			e.preview.Publish(ev)
		}
	}()

	res, err := safeExecute(tctx, spec.Executor, executor.NewContext(n, inputs, wired, stream))
	if err == nil {
		return res, nil
	}
	return flow.Result{}, classify(ctx, tctx, n.ID, spec.Timeout, err)
}

func safeExecute(ctx context.Context, ex executor.Executor, in *executor.Context) (res flow.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("executor panic: %v", p)
		}
	}()
	return ex.Execute(ctx, in)
}

// classify maps an executor error to timeout, cancellation or execution
// failure. The node deadline wins over a later caller cancellation.
func classify(parent, tctx context.Context, nodeID string, timeout time.Duration, err error) *errors.AppError {
	switch {
	case stderrors.Is(context.Cause(tctx), errNodeTimeout):
		return errors.Timeout(nodeID, timeout).WithCause(err)
	case parent.Err() != nil:
		return errors.Cancelled(nodeID).WithCause(err)
	}
	if appErr, ok := errors.As(err); ok {
		return appErr
	}
	return errors.Execution(nodeID, err)
}

func kindOf(err *errors.AppError) FailureKind {
	switch err.Code {
	case errors.ErrCodeTimeout:
		return FailureTimeout
	case errors.ErrCodeCancelled:
		return FailureCancelled
	}
	return FailureExecution
}

func failureOf(nodeID string, err *errors.AppError) Failure {
	return Failure{NodeID: nodeID, Kind: kindOf(err), Code: err.Code, Message: err.Message}
}

func errOrNil(err *errors.AppError) error {
	if err == nil {
		return nil
	}
	return err
}
