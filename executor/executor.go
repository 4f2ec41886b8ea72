package executor

import (
	"context"
	"sort"

	"github.com/kbukum/flowkit/flow"
)

// Executor computes the result of one node.
type Executor interface {
	Execute(ctx context.Context, in *Context) (flow.Result, error)
}

// Func adapts a function to Executor.
type Func func(ctx context.Context, in *Context) (flow.Result, error)

// Execute calls f.
func (f Func) Execute(ctx context.Context, in *Context) (flow.Result, error) { return f(ctx, in) }

// Context is everything an executor may read about the node it computes.
type Context struct {
	Node   flow.Node
	Inputs map[string]string
	Wired  map[string]bool
	stream func(chunk string)
}

// NewContext bundles a node with its inputs. wired lists the handles with
// at least one incoming edge; stream may be nil.
func NewContext(n flow.Node, inputs map[string]string, wired map[string]bool, stream func(string)) *Context {
	if inputs == nil {
		inputs = map[string]string{}
	}
	if wired == nil {
		wired = map[string]bool{}
	}
	return &Context{Node: n, Inputs: inputs, Wired: wired, stream: stream}
}

// NodeID returns the id of the node being computed.
func (c *Context) NodeID() string { return c.Node.ID }

// NodeType returns the type of the node being computed.
func (c *Context) NodeType() flow.NodeType { return c.Node.Type }

// Input returns the value on handle and whether the handle is wired. A
// wired handle whose source produced nothing returns ("", true).
func (c *Context) Input(handle string) (string, bool) {
	v, ok := c.Inputs[handle]
	return v, ok || c.Wired[handle]
}

// InputOr returns the wired value on handle, even when empty, or fallback
// when the handle is not wired.
func (c *Context) InputOr(handle, fallback string) string {
	if v, wired := c.Input(handle); wired {
		return v
	}
	return fallback
}

// Handles returns the handles that have a value, sorted.
func (c *Context) Handles() []string {
	out := make([]string, 0, len(c.Inputs))
	for h := range c.Inputs {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

// Stream forwards a partial output chunk to live listeners, if any.
func (c *Context) Stream(chunk string) {
	if c.stream != nil {
		c.stream(chunk)
	}
}
