package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const redScene = `
function draw(frame)
	vg_fill_color(1, 0, 0, 1)
	vg_rect(0, 0, 8, 8)
	vg_render_fill()
end
`

// writeScene writes an 8x8 scene and returns its configuration path.
func writeScene(t *testing.T, script string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "scene.lua"), []byte(script), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := "canvas:\n  width: 8\n  height: 8\nbackend:\n  name: gg\nscript:\n  path: scene.lua\n"
	path := filepath.Join(dir, "scene.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestVersion(t *testing.T) {
	code, out, _ := runCLI("-v")
	if code != exitOK {
		t.Errorf("exit = %d, want %d", code, exitOK)
	}
	if !strings.Contains(out, Version) {
		t.Errorf("stdout = %q, want the version", out)
	}
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no config", nil},
		{"unknown flag", []string{"-nope"}},
		{"threshold too large", []string{"-c", "x.toml", "-threshold", "300"}},
		{"bad dump format", []string{"-c", "x.toml", "-dump-config", "ini"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code, _, _ := runCLI(tt.args...); code != exitUsage {
				t.Errorf("exit = %d, want %d", code, exitUsage)
			}
		})
	}
}

func TestMissingConfig(t *testing.T) {
	code, _, stderr := runCLI("-c", filepath.Join(t.TempDir(), "missing.toml"))
	if code != exitError {
		t.Errorf("exit = %d, want %d", code, exitError)
	}
	if !strings.Contains(stderr, "missing.toml") {
		t.Errorf("stderr = %q, want the file name", stderr)
	}
}

func TestDumpConfig(t *testing.T) {
	path := writeScene(t, redScene)

	code, out, stderr := runCLI("-c", path, "-dump-config", "toml")
	if code != exitOK {
		t.Fatalf("exit = %d, stderr = %s", code, stderr)
	}
	for _, want := range []string{"[canvas]", "width = 8", "name = 'gg'", "entry = 'draw'"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderToFile(t *testing.T) {
	path := writeScene(t, redScene)
	out := filepath.Join(t.TempDir(), "out", "frame.png")

	code, _, stderr := runCLI("-c", path, "-o", out, "-frames", "2")
	if code != exitOK {
		t.Fatalf("exit = %d, stderr = %s", code, stderr)
	}
	for _, name := range []string{"frame-0000.png", "frame-0001.png"} {
		if _, err := os.Stat(filepath.Join(filepath.Dir(out), name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}

	// stderr is not a terminal, so logs are JSON.
	var summary map[string]any
	for _, line := range strings.Split(strings.TrimSpace(stderr), "\n") {
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("log line is not JSON: %v\n%s", err, line)
		}
		if rec["msg"] == "done" {
			summary = rec
		}
	}
	if summary == nil || summary["frames"] != float64(2) {
		t.Errorf("summary = %v, want 2 frames", summary)
	}
}

func TestGoldenWorkflow(t *testing.T) {
	path := writeScene(t, redScene)
	dir := t.TempDir()
	golden := filepath.Join(dir, "golden.png")
	diff := filepath.Join(dir, "diff.png")

	if code, _, stderr := runCLI("-c", path, "-golden", golden, "-update-golden"); code != exitOK {
		t.Fatalf("update exit = %d, stderr = %s", code, stderr)
	}
	if code, _, stderr := runCLI("-c", path, "-golden", golden); code != exitOK {
		t.Fatalf("compare exit = %d, stderr = %s", code, stderr)
	}

	blue := strings.Replace(redScene, "vg_fill_color(1, 0, 0, 1)", "vg_fill_color(0, 0, 1, 1)", 1)
	other := filepath.Join(filepath.Dir(path), "blue.lua")
	if err := os.WriteFile(other, []byte(blue), 0o644); err != nil {
		t.Fatal(err)
	}
	code, _, stderr := runCLI("-c", path, "-script", other, "-golden", golden, "-diff", diff)
	if code != exitMismatch {
		t.Fatalf("exit = %d, want %d; stderr = %s", code, exitMismatch, stderr)
	}
	if _, err := os.Stat(diff); err != nil {
		t.Errorf("diff not written: %v", err)
	}
}

func TestScriptError(t *testing.T) {
	path := writeScene(t, "function draw() error('boom') end")
	code, _, stderr := runCLI("-c", path)
	if code != exitError {
		t.Errorf("exit = %d, want %d", code, exitError)
	}
	if !strings.Contains(stderr, "boom") {
		t.Errorf("stderr = %q, want the script error", stderr)
	}
}

func TestWindowNeedsWindowBackend(t *testing.T) {
	path := writeScene(t, redScene)
	code, _, stderr := runCLI("-c", path, "-window", "-backend", "gg")
	if code != exitError {
		t.Errorf("exit = %d, want %d", code, exitError)
	}
	if !strings.Contains(stderr, "window") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestProfilingFlags(t *testing.T) {
	path := writeScene(t, redScene)
	dir := t.TempDir()
	cpu := filepath.Join(dir, "cpu.prof")
	mem := filepath.Join(dir, "mem.prof")

	if code, _, stderr := runCLI("-c", path, "-cpuprofile", cpu, "-memprofile", mem); code != exitOK {
		t.Fatalf("exit = %d, stderr = %s", code, stderr)
	}
	for _, p := range []string{cpu, mem} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("%s not written: %v", filepath.Base(p), err)
		}
	}
}

func TestNewLoggerNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, false).Debug("hidden")
	newLogger(&buf, false).Info("shown", "k", 1)

	out := strings.TrimSpace(buf.String())
	if strings.Contains(out, "hidden") {
		t.Error("debug record written at info level")
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatalf("not JSON: %v: %s", err, out)
	}
	if rec["msg"] != "shown" {
		t.Errorf("record = %v", rec)
	}
}
