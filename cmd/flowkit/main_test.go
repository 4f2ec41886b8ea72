package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbukum/flowkit/engine"
)

const shoutFlow = `
nodes:
  - id: topic
    type: text-input
    config:
      value: hello
  - id: shout
    type: code
    config:
      code: "{{ upper .prompt }}"
  - id: out
    type: output
    label: Result
edges:
  - source: topic
    target: shout
  - source: shout
    target: out
`

func writeFlow(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flow.yml")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVersionCommand(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run(context.Background(), []string{"version"}, &out, &errOut); code != 0 {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	if !strings.HasPrefix(out.String(), "flowkit ") {
		t.Errorf("unexpected version output %q", out.String())
	}
}

func TestUnknownCommand(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run(context.Background(), []string{"launch"}, &out, &errOut); code != 2 {
		t.Errorf("expected exit 2, got %d", code)
	}
	if !strings.Contains(errOut.String(), "usage:") {
		t.Error("expected usage on stderr")
	}
	if code := run(context.Background(), nil, &out, &errOut); code != 2 {
		t.Errorf("expected exit 2 without a command, got %d", code)
	}
}

func TestValidateCommand(t *testing.T) {
	var out, errOut bytes.Buffer
	path := writeFlow(t, shoutFlow)
	if code := run(context.Background(), []string{"validate", path}, &out, &errOut); code != 0 {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	if got := out.String(); got != "ok: 3 nodes, 2 edges, 1 entry nodes\n" {
		t.Errorf("unexpected output %q", got)
	}

	bad := writeFlow(t, "nodes:\n  - id: a\n    type: text-input\nedges:\n  - source: a\n    target: ghost\n")
	errOut.Reset()
	if code := run(context.Background(), []string{"validate", bad}, &out, &errOut); code != 1 {
		t.Errorf("expected exit 1, got %d", code)
	}
	if !strings.Contains(errOut.String(), "INVALID_GRAPH") {
		t.Errorf("expected INVALID_GRAPH, got %q", errOut.String())
	}
}

func TestRunCommand(t *testing.T) {
	var out, errOut bytes.Buffer
	path := writeFlow(t, shoutFlow)
	code := run(context.Background(), []string{"run", path, "--set", "topic=a=b"}, &out, &errOut)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	var res engine.RunResult
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("stdout is not a result document: %v\n%s", err, out.String())
	}
	if res.Outputs["Result"] != "A=B" {
		t.Errorf("expected A=B, got %v", res.Outputs)
	}
}

func TestRunCommandSingleNode(t *testing.T) {
	var out, errOut bytes.Buffer
	path := writeFlow(t, shoutFlow)
	code := run(context.Background(), []string{"run", path, "--node", "shout", "--set", "topic=quiet"}, &out, &errOut)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	var res engine.NodeResult
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Result.Output != "QUIET" {
		t.Errorf("expected QUIET, got %q", res.Result.Output)
	}
}

func TestRunCommandFailure(t *testing.T) {
	var out, errOut bytes.Buffer
	path := writeFlow(t, `
nodes:
  - id: topic
    type: text-input
  - id: mystery
    type: telepathy
edges:
  - source: topic
    target: mystery
`)
	if code := run(context.Background(), []string{"run", path}, &out, &errOut); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	var res engine.RunResult
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("expected the partial result on stdout: %v", err)
	}
	if res.Failures["mystery"].Code != "EXECUTOR_NOT_FOUND" {
		t.Errorf("unexpected failures %+v", res.Failures)
	}
}

func TestRunCommandArgs(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run(context.Background(), []string{"run"}, &out, &errOut); code != 1 {
		t.Errorf("expected exit 1 without a file, got %d", code)
	}
	path := writeFlow(t, shoutFlow)
	if code := run(context.Background(), []string{"run", path, "--set", "novalue"}, &out, &errOut); code != 1 {
		t.Errorf("expected exit 1 for a malformed --set, got %d", code)
	}
}

func TestParseSets(t *testing.T) {
	got, err := parseSets([]string{"a=1", "b=x=y", "c="})
	if err != nil {
		t.Fatal(err)
	}
	if got["a"] != "1" || got["b"] != "x=y" || got["c"] != "" || len(got) != 3 {
		t.Errorf("unexpected values %v", got)
	}
	if _, err := parseSets([]string{"=v"}); err == nil {
		t.Error("expected error for empty id")
	}
	if m, _ := parseSets(nil); m != nil {
		t.Error("expected nil map without sets")
	}
}
