package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/flm/core/internal/tick"
)

func newFileLogger(t *testing.T, minLevel Level) (*Logger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flm.log")
	log, err := NewFile(path, minLevel, false)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	t.Cleanup(func() { _ = log.Close() })
	return log, path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}

func TestLogger_FiltersBelowMinLevel(t *testing.T) {
	log, path := newFileLogger(t, WARN)
	log.Info("should be dropped")
	log.Warn("should appear")

	got := readFile(t, path)
	if strings.Contains(got, "should be dropped") {
		t.Fatalf("log contained a below-threshold line: %q", got)
	}
	if !strings.Contains(got, "should appear") {
		t.Fatalf("log missing the at-threshold line: %q", got)
	}
}

func TestLogger_ComponentTagsEveryLine(t *testing.T) {
	log, path := newFileLogger(t, TRACE)
	sched := log.Component("scheduler")
	sched.Info("tick dispatched")

	got := readFile(t, path)
	if !strings.Contains(got, "component=scheduler") {
		t.Fatalf("missing component tag: %q", got)
	}
}

func TestLogger_WithTickTagsEveryLineAcrossWraparound(t *testing.T) {
	log, path := newFileLogger(t, TRACE)
	nearWrap := tick.T(4294967290)
	log.WithTick(nearWrap).Warn("fault pending")

	got := readFile(t, path)
	if !strings.Contains(got, "tick=4294967290") {
		t.Fatalf("missing tick tag: %q", got)
	}
}

func TestLogger_ComponentAndTickComposeAndDoNotMutateParent(t *testing.T) {
	log, path := newFileLogger(t, TRACE)
	scoped := log.Component("safety").WithTick(tick.T(42))
	scoped.Error("fault")
	log.Info("root stays untagged")

	got := readFile(t, path)
	if !strings.Contains(got, "component=safety tick=42") {
		t.Fatalf("scoped logger missing both tags: %q", got)
	}
	lines := strings.Split(strings.TrimSpace(got), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), got)
	}
	if strings.Contains(lines[1], "component=") || strings.Contains(lines[1], "tick=") {
		t.Fatalf("root logger picked up its child's scope: %q", lines[1])
	}
}

func TestLogger_SetMinLevelAffectsAllDerivedLoggers(t *testing.T) {
	log, path := newFileLogger(t, INFO)
	child := log.Component("actuator")
	log.SetMinLevel(ERROR)

	child.Warn("now suppressed")
	child.Error("still visible")

	got := readFile(t, path)
	if strings.Contains(got, "now suppressed") {
		t.Fatalf("derived logger did not observe the root's new min level: %q", got)
	}
	if !strings.Contains(got, "still visible") {
		t.Fatalf("missing the at-threshold line: %q", got)
	}
}
