package bootstrap

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/flowkit/component"
	"github.com/kbukum/flowkit/config"
	"github.com/kbukum/flowkit/engine"
	"github.com/kbukum/flowkit/flow"
	"github.com/kbukum/flowkit/logger"
)

type mockComponent struct {
	name     string
	startErr error
	health   component.Health
	events   *[]string
}

func (m *mockComponent) Name() string { return m.name }

func (m *mockComponent) Start(context.Context) error {
	*m.events = append(*m.events, "start:"+m.name)
	return m.startErr
}

func (m *mockComponent) Stop(context.Context) error {
	*m.events = append(*m.events, "stop:"+m.name)
	return nil
}

func (m *mockComponent) Health(context.Context) component.Health { return m.health }

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := &config.Config{ServiceConfig: config.ServiceConfig{Name: "test-svc", Version: "1.0.0"}}
	app, err := NewApp(cfg, WithLogger(logger.Nop()), WithGracefulTimeout(time.Second))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app
}

func healthy(name string, events *[]string) *mockComponent {
	return &mockComponent{name: name, events: events, health: component.Health{Status: component.StatusHealthy}}
}

func TestNewApp(t *testing.T) {
	app := newTestApp(t)
	if app.Name != "test-svc" || app.Version != "1.0.0" {
		t.Errorf("unexpected identity %s %s", app.Name, app.Version)
	}
	if app.Components == nil || app.Logger == nil {
		t.Fatal("expected registry and logger")
	}
	if app.Cfg.Server.Port != 8080 {
		t.Errorf("expected defaults to be applied, got port %d", app.Cfg.Server.Port)
	}
	if app.gracefulTimeout != time.Second {
		t.Errorf("expected graceful timeout option, got %v", app.gracefulTimeout)
	}
}

func TestNewAppInvalidConfig(t *testing.T) {
	cfg := &config.Config{ServiceConfig: config.ServiceConfig{Environment: "moon"}}
	if _, err := NewApp(cfg, WithLogger(logger.Nop())); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestRunTaskLifecycle(t *testing.T) {
	app := newTestApp(t)
	var events []string
	for _, name := range []string{"a", "b"} {
		if err := app.RegisterComponent(healthy(name, &events)); err != nil {
			t.Fatal(err)
		}
	}
	app.OnStart(func(context.Context) error { events = append(events, "onStart"); return nil })
	app.OnReady(func(context.Context) error { events = append(events, "onReady"); return nil })
	app.OnStop(func(context.Context) error { events = append(events, "onStop"); return nil })

	err := app.RunTask(context.Background(), func(context.Context) error {
		events = append(events, "task")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "start:a,start:b,onStart,onReady,task,onStop,stop:b,stop:a"
	if got := strings.Join(events, ","); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestRunTaskReturnsTaskError(t *testing.T) {
	app := newTestApp(t)
	boom := errors.New("boom")
	if err := app.RunTask(context.Background(), func(context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Errorf("expected task error, got %v", err)
	}
}

func TestStartFailureStopsStarted(t *testing.T) {
	app := newTestApp(t)
	var events []string
	_ = app.RegisterComponent(healthy("a", &events))
	_ = app.RegisterComponent(&mockComponent{name: "b", events: &events, startErr: errors.New("no port")})

	ran := false
	err := app.RunTask(context.Background(), func(context.Context) error { ran = true; return nil })
	if err == nil || !strings.Contains(err.Error(), "no port") {
		t.Fatalf("expected start error, got %v", err)
	}
	if ran {
		t.Error("task must not run after a failed start")
	}
	if got := strings.Join(events, ","); got != "start:a,start:b,stop:a" {
		t.Errorf("unexpected events %s", got)
	}
}

func TestHookFailure(t *testing.T) {
	app := newTestApp(t)
	app.OnStart(func(context.Context) error { return errors.New("migrate") })
	err := app.RunTask(context.Background(), func(context.Context) error { return nil })
	if err == nil || !strings.Contains(err.Error(), "start hook start#0: migrate") {
		t.Fatalf("expected named start hook error, got %v", err)
	}
}

func TestStopHooksAllRun(t *testing.T) {
	var events []string
	flushErr := errors.New("exporter unreachable")
	cfg := &config.Config{ServiceConfig: config.ServiceConfig{Name: "test-svc"}}
	app, err := NewApp(cfg,
		WithLogger(logger.Nop()),
		WithHook(PhaseStop, "traces", func(context.Context) error { events = append(events, "traces"); return flushErr }),
	)
	if err != nil {
		t.Fatal(err)
	}
	app.OnStop(func(context.Context) error { events = append(events, "metrics"); return nil })

	err = app.RunTask(context.Background(), func(context.Context) error { return nil })
	if !errors.Is(err, flushErr) || !strings.Contains(err.Error(), "stop hook traces") {
		t.Errorf("expected the failing flush to be reported, got %v", err)
	}
	if got := strings.Join(events, ","); got != "traces,metrics" {
		t.Errorf("a failing stop hook must not skip the rest, got %s", got)
	}
}

func TestReadyCheck(t *testing.T) {
	app := newTestApp(t)
	var events []string
	_ = app.RegisterComponent(&mockComponent{name: "db", events: &events,
		health: component.Health{Status: component.StatusDegraded, Message: "slow"}})
	err := app.ReadyCheck(context.Background())
	if err == nil || !strings.Contains(err.Error(), "db=degraded(slow)") {
		t.Errorf("unexpected ready check result %v", err)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	app := newTestApp(t)
	var events []string
	_ = app.RegisterComponent(healthy("a", &events))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	app.OnReady(func(context.Context) error { cancel(); return nil })
	go func() { done <- app.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if got := strings.Join(events, ","); got != "start:a,stop:a" {
		t.Errorf("unexpected events %s", got)
	}
}

func TestInitTelemetryDisabled(t *testing.T) {
	app := newTestApp(t)
	metrics, err := app.InitTelemetry(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if metrics == nil {
		t.Fatal("expected instruments on the global meter")
	}
	if len(app.hooks[PhaseStop]) != 0 {
		t.Error("no providers to flush when telemetry is disabled")
	}
}

func TestNewStackRunsFlow(t *testing.T) {
	app := newTestApp(t)
	app.Cfg.Engine.TextTimeout = 3 * time.Second
	stack := NewStack(app.Cfg, app.Logger, nil)
	if err := app.RegisterComponent(stack.Preview); err != nil {
		t.Fatal(err)
	}
	if spec, _ := stack.Registry.Lookup(flow.TypeCode); spec.Timeout != 3*time.Second {
		t.Errorf("expected configured timeout, got %v", spec.Timeout)
	}

	g := &flow.Graph{
		Nodes: []flow.Node{
			{ID: "in", Type: flow.TypeTextInput, Config: flow.TextInputConfig{Value: "hi"}},
			{ID: "out", Type: flow.TypeOutput, Label: "Answer"},
		},
		Edges: []flow.Edge{{Source: "in", Target: "out"}},
	}
	var res *engine.RunResult
	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		var err error
		res, err = stack.Engine.Run(ctx, g, engine.RunOptions{})
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Outputs["Answer"] != "hi" {
		t.Errorf("expected hi, got %v", res.Outputs)
	}
	if !stack.Cache.Has("in") {
		t.Error("input node should be cached")
	}
}
