package executor

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/flow"
)

// NewDefaultRegistry returns a registry with the engine-native node types:
// input capture, output, code and comment. Model-backed types are
// registered by the caller.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, t := range []flow.NodeType{flow.TypeTextInput, flow.TypeImageInput, flow.TypeAudioInput} {
		r.Register(t, Spec{Executor: Func(captureInput), Cache: flow.CacheImplicit, EmitsPulse: true})
	}
	r.Register(flow.TypeOutput, Spec{Executor: Func(passOutput), Cache: flow.CacheNever})
	r.Register(flow.TypeCode, Spec{Executor: Func(runCode), Cache: flow.CacheOptIn, Preview: true})
	r.Register(flow.TypeComment, Spec{Executor: Func(noop), Cache: flow.CacheNever})
	return r
}

// captureInput returns the value the engine placed on the "value" handle,
// falling back to the stored value.
func captureInput(_ context.Context, in *Context) (flow.Result, error) {
	v := in.InputOr(flow.InputHandle, in.Node.CapturedValue())
	res := flow.Result{Output: v}
	switch in.NodeType() {
	case flow.TypeImageInput:
		res.ImageURL = v
	case flow.TypeAudioInput:
		res.AudioURL = v
	}
	return res, nil
}

// passOutput forwards the "prompt" input, or the first wired input by
// handle name.
func passOutput(_ context.Context, in *Context) (flow.Result, error) {
	if v, wired := in.Input(flow.DefaultTargetHandle); wired {
		return flow.Result{Output: v}, nil
	}
	if handles := in.Handles(); len(handles) > 0 {
		return flow.Result{Output: in.Inputs[handles[0]]}, nil
	}
	return flow.Result{}, nil
}

func noop(context.Context, *Context) (flow.Result, error) { return flow.Result{}, nil }

var codeFuncs = template.FuncMap{
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"trim":  strings.TrimSpace,
}

// runCode renders the node's template over its inputs. An empty template
// passes the "prompt" input through.
func runCode(ctx context.Context, in *Context) (flow.Result, error) {
	cfg, _ := in.Node.Config.(flow.CodeConfig)
	switch cfg.Language {
	case "", "template":
	default:
		return flow.Result{}, errors.InvalidInput("language", fmt.Sprintf("unsupported code language %q", cfg.Language))
	}
	if cfg.Code == "" {
		return flow.Result{Output: in.InputOr(flow.DefaultTargetHandle, "")}, nil
	}

	tmpl, err := template.New(in.NodeID()).Funcs(codeFuncs).Option("missingkey=zero").Parse(cfg.Code)
	if err != nil {
		return flow.Result{}, fmt.Errorf("parsing code: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return flow.Result{}, err
	}

	var out strings.Builder
	if err := tmpl.Execute(&out, in.Inputs); err != nil {
		return flow.Result{}, fmt.Errorf("running code: %w", err)
	}
	in.Stream(out.String())
	return flow.Result{Output: out.String(), Code: cfg.Code}, nil
}
