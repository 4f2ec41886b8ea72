package version

import (
	"strings"
	"testing"
)

func TestGetUsesLinkerValues(t *testing.T) {
	v, c, b := Version, GitCommit, BuildTime
	defer func() { Version, GitCommit, BuildTime = v, c, b }()

	Version, GitCommit, BuildTime = "1.4.0", "abcdef1234567", "2026-01-02T03:04:05Z"
	info := Get()
	if info.Version != "1.4.0" {
		t.Errorf("expected 1.4.0, got %q", info.Version)
	}
	if info.GitCommit != "abcdef1" {
		t.Errorf("commit should be shortened, got %q", info.GitCommit)
	}
	if info.BuildTime != "2026-01-02T03:04:05Z" {
		t.Errorf("unexpected build time %q", info.BuildTime)
	}
}

func TestShort(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Info{Version: "dev"}, "dev"},
		{Info{Version: "1.0.0", GitCommit: "abc1234"}, "1.0.0-abc1234"},
		{Info{Version: "1.0.0", GitCommit: "abc1234", Dirty: true}, "1.0.0-abc1234-dirty"},
	}
	for _, tc := range tests {
		if got := tc.info.Short(); got != tc.want {
			t.Errorf("expected %q, got %q", tc.want, got)
		}
	}
}

func TestString(t *testing.T) {
	s := Info{Version: "1.0.0", BuildTime: "2026-01-02T03:04:05Z", GoVersion: "go1.26.0"}.String()
	if !strings.HasPrefix(s, "1.0.0 (built 2026-01-02T03:04:05Z)") || !strings.HasSuffix(s, "go1.26.0") {
		t.Errorf("unexpected string %q", s)
	}
}
