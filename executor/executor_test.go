package executor

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/flow"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
	"github.com/kbukum/flowkit/resilience"
)

func TestContextInput(t *testing.T) {
	c := NewContext(flow.Node{ID: "n"}, map[string]string{"prompt": "", "system": "s"}, map[string]bool{"prompt": true, "system": true, "image": true}, nil)

	if v, wired := c.Input("prompt"); !wired || v != "" {
		t.Errorf("wired-but-empty: got %q wired=%v", v, wired)
	}
	if v, wired := c.Input("image"); !wired || v != "" {
		t.Errorf("wired without value: got %q wired=%v", v, wired)
	}
	if _, wired := c.Input("audio"); wired {
		t.Error("audio is not wired")
	}
	if got := c.InputOr("prompt", "fallback"); got != "" {
		t.Errorf("wired-but-empty must not fall back, got %q", got)
	}
	if got := c.InputOr("audio", "fallback"); got != "fallback" {
		t.Errorf("unwired handle should fall back, got %q", got)
	}
	c.Stream("ignored")
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register("b", Spec{Executor: Func(noop), Cache: flow.CacheNever})
	r.RegisterFunc("a", noop)

	if types := r.Types(); len(types) != 2 || types[0] != "a" {
		t.Errorf("unexpected types %v", types)
	}
	if r.CachePolicy("b") != flow.CacheNever {
		t.Error("declared policy should win")
	}
	if r.CachePolicy(flow.TypeUserInput) != flow.CacheNever {
		t.Error("unregistered types fall back to the default policy")
	}
	if _, ok := r.Lookup("missing"); ok {
		t.Error("expected lookup miss")
	}
}

func TestLookupDefaultsTimeout(t *testing.T) {
	r := NewRegistry()
	r.RegisterFunc(flow.TypeImageGeneration, noop)
	r.Register(flow.TypePrompt, Spec{Executor: Func(noop), Timeout: time.Second})

	spec, _ := r.Lookup(flow.TypeImageGeneration)
	if spec.Timeout != MediaTimeout {
		t.Errorf("expected media timeout, got %v", spec.Timeout)
	}
	spec, _ = r.Lookup(flow.TypePrompt)
	if spec.Timeout != time.Second {
		t.Errorf("expected explicit timeout, got %v", spec.Timeout)
	}
	if DefaultTimeout(flow.TypeCode) != TextTimeout {
		t.Error("code nodes use the text timeout")
	}

	r.RegisterFunc(flow.TypeCode, noop)
	r.SetDefaultTimeouts(2*time.Second, 0)
	if spec, _ := r.Lookup(flow.TypeCode); spec.Timeout != 2*time.Second {
		t.Errorf("expected configured text timeout, got %v", spec.Timeout)
	}
	if spec, _ := r.Lookup(flow.TypeImageGeneration); spec.Timeout != MediaTimeout {
		t.Errorf("media timeout should be unchanged, got %v", spec.Timeout)
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(inner Executor) Executor {
			return Func(func(ctx context.Context, in *Context) (flow.Result, error) {
				order = append(order, name)
				return inner.Execute(ctx, in)
			})
		}
	}
	r := NewRegistry()
	r.RegisterFunc("x", noop)
	r.Use(mark("a"), mark("b"))
	spec, _ := r.Lookup("x")
	if _, err := spec.Executor.Execute(context.Background(), NewContext(flow.Node{ID: "n"}, nil, nil, nil)); err != nil {
		t.Fatal(err)
	}
	if strings.Join(order, ",") != "a,b" {
		t.Errorf("expected a,b got %v", order)
	}
}

func TestWithLogging(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)
	failing := Func(func(context.Context, *Context) (flow.Result, error) { return flow.Result{}, stderrors.New("boom") })

	_, _ = WithLogging(log)(failing).Execute(context.Background(), NewContext(flow.Node{ID: "n1", Type: flow.TypePrompt}, nil, nil, nil))
	out := buf.String()
	if !strings.Contains(out, `"node_id":"n1"`) || !strings.Contains(out, "boom") {
		t.Errorf("unexpected log output %s", out)
	}
}

func TestWithTracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	_, _ = WithTracing()(Func(noop)).Execute(context.Background(), NewContext(flow.Node{ID: "n1", Type: flow.TypeCode}, nil, nil, nil))
	spans := exporter.GetSpans()
	if len(spans) != 1 || spans[0].Name != observability.SpanExecute {
		t.Fatalf("expected one %s span, got %v", observability.SpanExecute, spans)
	}
}

func TestWithRetry(t *testing.T) {
	calls := 0
	flaky := Func(func(context.Context, *Context) (flow.Result, error) {
		calls++
		if calls == 1 {
			return flow.Result{}, errors.Provider("p", nil)
		}
		return flow.Result{Output: "ok"}, nil
	})
	cfg := resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond}
	res, err := WithRetry(cfg)(flaky).Execute(context.Background(), NewContext(flow.Node{ID: "n"}, nil, nil, nil))
	if err != nil || res.Output != "ok" || calls != 2 {
		t.Errorf("expected success on second call, got %v %v after %d", res, err, calls)
	}
}

func run(t *testing.T, r *Registry, n flow.Node, inputs map[string]string) (flow.Result, error) {
	t.Helper()
	spec, ok := r.Lookup(n.Type)
	if !ok {
		t.Fatalf("no executor for %s", n.Type)
	}
	wired := map[string]bool{}
	for h := range inputs {
		wired[h] = true
	}
	return spec.Executor.Execute(context.Background(), NewContext(n, inputs, wired, nil))
}

func TestCaptureInput(t *testing.T) {
	r := NewDefaultRegistry()
	img := flow.Node{ID: "i", Type: flow.TypeImageInput, Config: flow.ImageInputConfig{ImageURL: "stored.png"}}

	res, _ := run(t, r, img, nil)
	if res.Output != "stored.png" || res.ImageURL != "stored.png" {
		t.Errorf("expected stored value, got %+v", res)
	}
	res, _ = run(t, r, img, map[string]string{flow.InputHandle: "override.png"})
	if res.Output != "override.png" {
		t.Errorf("expected override, got %+v", res)
	}
	spec, _ := r.Lookup(flow.TypeTextInput)
	if spec.Cache != flow.CacheImplicit || !spec.EmitsPulse {
		t.Errorf("unexpected text-input spec %+v", spec)
	}
}

func TestPassOutput(t *testing.T) {
	r := NewDefaultRegistry()
	out := flow.Node{ID: "o", Type: flow.TypeOutput}
	if res, _ := run(t, r, out, map[string]string{"prompt": "p", "a": "x"}); res.Output != "p" {
		t.Errorf("expected prompt handle, got %q", res.Output)
	}
	if res, _ := run(t, r, out, map[string]string{"b": "y", "a": "x"}); res.Output != "x" {
		t.Errorf("expected first handle by name, got %q", res.Output)
	}
}

func TestRunCode(t *testing.T) {
	r := NewDefaultRegistry()
	tests := []struct {
		name    string
		cfg     flow.CodeConfig
		inputs  map[string]string
		want    string
		wantErr bool
	}{
		{"upper", flow.CodeConfig{Code: "{{ upper .prompt }}"}, map[string]string{"prompt": "hello"}, "HELLO", false},
		{"multi", flow.CodeConfig{Code: "{{ .a }}-{{ trim .b }}"}, map[string]string{"a": "x", "b": " y "}, "x-y", false},
		{"missing key", flow.CodeConfig{Code: "[{{ .nope }}]"}, map[string]string{}, "[]", false},
		{"passthrough", flow.CodeConfig{}, map[string]string{"prompt": "same"}, "same", false},
		{"bad template", flow.CodeConfig{Code: "{{ .a "}, nil, "", true},
		{"bad language", flow.CodeConfig{Code: "x", Language: "python"}, nil, "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := run(t, r, flow.Node{ID: "c", Type: flow.TypeCode, Config: tc.cfg}, tc.inputs)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Output != tc.want {
				t.Errorf("expected %q, got %q", tc.want, res.Output)
			}
		})
	}
}

func TestRunCodeStreams(t *testing.T) {
	var chunks []string
	n := flow.Node{ID: "c", Type: flow.TypeCode, Config: flow.CodeConfig{Code: "{{ lower .prompt }}"}}
	c := NewContext(n, map[string]string{"prompt": "ABC"}, nil, func(s string) { chunks = append(chunks, s) })
	if _, err := runCode(context.Background(), c); err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 || chunks[0] != "abc" {
		t.Errorf("unexpected chunks %v", chunks)
	}
}

func TestPromptExecutor(t *testing.T) {
	var got TextRequest
	model := TextModelFunc(func(_ context.Context, req TextRequest) (TextResponse, error) {
		got = req
		req.Stream("par")
		return TextResponse{Text: "answer", Usage: map[string]any{"tokens": 3}}, nil
	})
	exec := NewPromptExecutor(model)
	n := flow.Node{ID: "p", Type: flow.TypePrompt, Config: flow.PromptConfig{Prompt: "inline", SystemPrompt: "sys", Model: "m1"}}

	var chunks []string
	res, err := exec.Execute(context.Background(), NewContext(n, map[string]string{"prompt": "wired"}, map[string]bool{"prompt": true}, func(s string) { chunks = append(chunks, s) }))
	if err != nil {
		t.Fatal(err)
	}
	if got.Prompt != "wired" || got.SystemPrompt != "sys" || got.Model != "m1" {
		t.Errorf("unexpected request %+v", got)
	}
	if res.Output != "answer" || res.DebugInfo["model"] != "m1" || res.DebugInfo["tokens"] != 3 {
		t.Errorf("unexpected result %+v", res)
	}
	if len(chunks) != 1 {
		t.Errorf("expected streamed chunk, got %v", chunks)
	}

	_, err = exec.Execute(context.Background(), NewContext(n, map[string]string{"prompt": ""}, map[string]bool{"prompt": true}, nil))
	if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("wired-but-empty prompt should fail, got %v", err)
	}

	if _, err := exec.Execute(context.Background(), NewContext(n, nil, nil, nil)); err != nil || got.Prompt != "inline" {
		t.Errorf("unwired prompt should use config, got %q %v", got.Prompt, err)
	}
}
