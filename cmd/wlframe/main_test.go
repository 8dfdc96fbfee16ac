package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/wlframe/internal/config"
)

const demoTrace = `
steps:
  - action: create_window
    title: demo
    width: 640
    height: 480
    decorated: true
  - event: toplevel_configure
    window: 1
    width: 800
    height: 600
    state: [activated]
  - event: surface_configure
    window: 1
    serial: 1
  - pump: true
  - event: toplevel_close
    window: 1
`

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestSessionOptions_FromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Decorations.PreferServerSide = false
	cfg.Decorations.TitlebarHeight = 40
	cfg.Keyboard.RepeatRate = 40
	cfg.Keyboard.RepeatDelayMS = 250
	cfg.Cursor.Size = 48
	cfg.Clipboard.MaxMimesPerOffer = 4
	cfg.Activation.TimeoutMS = 1500

	opts := sessionOptions(cfg)
	if opts.PreferServerSide {
		t.Error("expected server-side preference off")
	}
	if opts.Style.TitlebarHeight != 40 {
		t.Errorf("titlebar height = %d, want 40", opts.Style.TitlebarHeight)
	}
	if opts.RepeatRate != 40 || opts.RepeatDelay != 250*time.Millisecond {
		t.Errorf("repeat = %d/%s, want 40/250ms", opts.RepeatRate, opts.RepeatDelay)
	}
	if opts.CursorSize != 48 || opts.MaxMimesPerOffer != 4 {
		t.Errorf("cursor size %d, max mimes %d", opts.CursorSize, opts.MaxMimesPerOffer)
	}
	if opts.ActivationTimeout != 1500*time.Millisecond {
		t.Errorf("activation timeout = %s", opts.ActivationTimeout)
	}
}

func TestFormatSource(t *testing.T) {
	tests := []struct {
		src  config.Source
		want string
	}{
		{config.Source{Kind: config.SourceDefault}, "default"},
		{config.Source{Kind: config.SourceFile}, "file"},
		{config.Source{Kind: config.SourceFile, File: "/a.yaml"}, "file:/a.yaml"},
		{config.Source{Kind: config.SourceFile, File: "/a.yaml", Line: 3, Column: 5}, "file:/a.yaml:3:5"},
	}
	for _, tt := range tests {
		if got := formatSource(tt.src); got != tt.want {
			t.Errorf("formatSource(%+v) = %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestRunReplay_PrintsTranscript(t *testing.T) {
	dir := t.TempDir()
	tracePath := writeFile(t, dir, "demo.yaml", demoTrace)
	cfgPath := filepath.Join(dir, "missing.yaml")

	var stdout, stderr bytes.Buffer
	code := runReplay([]string{"--path", cfgPath, tracePath}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit %d, stderr:\n%s", code, stderr.String())
	}
	out := stdout.String()
	for _, want := range []string{"transcript", "resize window=1 800x600", "close window=1", "windows:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunReplay_JSON(t *testing.T) {
	dir := t.TempDir()
	tracePath := writeFile(t, dir, "demo.yaml", demoTrace)

	var stdout, stderr bytes.Buffer
	code := runReplay([]string{"--path", filepath.Join(dir, "none.yaml"), "--json", tracePath}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit %d, stderr:\n%s", code, stderr.String())
	}
	var out struct {
		Transcript []string `json:"transcript"`
		Status     struct {
			Windows int `json:"windows"`
		} `json:"status"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v\n%s", err, stdout.String())
	}
	if len(out.Transcript) == 0 || out.Status.Windows != 1 {
		t.Fatalf("unexpected output %+v", out)
	}
}

func TestRunReplay_Served(t *testing.T) {
	dir := t.TempDir()
	tracePath := writeFile(t, dir, "demo.yaml", demoTrace)

	var stdout, stderr bytes.Buffer
	code := runReplay([]string{
		"--path", filepath.Join(dir, "none.yaml"),
		"--serve",
		"--socket", filepath.Join(dir, "w.sock"),
		tracePath,
	}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit %d, stderr:\n%s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "resize window=1 800x600") {
		t.Fatalf("missing resize in output:\n%s", stdout.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "w.sock")); !os.IsNotExist(err) {
		t.Fatalf("expected socket removed after replay, stat err = %v", err)
	}
}

func TestRunReplay_Failures(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.yaml", "steps:\n  - action: set_title\n    window: 9\n    title: x\n")
	cfgPath := filepath.Join(dir, "none.yaml")

	tests := []struct {
		name string
		args []string
		code int
		want string
	}{
		{"no trace", []string{"--path", cfgPath}, 2, "exactly one trace file"},
		{"hold without serve", []string{"--path", cfgPath, "--hold", bad}, 2, "--hold requires --serve"},
		{"missing trace", []string{"--path", cfgPath, filepath.Join(dir, "nope.yaml")}, 1, "failed to read"},
		{"failing step", []string{"--path", cfgPath, bad}, 1, "replay failed: step 1 (action set_title): unknown window 9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := runReplay(tt.args, &stdout, &stderr); code != tt.code {
				t.Fatalf("exit %d, want %d; stderr:\n%s", code, tt.code, stderr.String())
			}
			if !strings.Contains(stderr.String(), tt.want) {
				t.Fatalf("stderr missing %q:\n%s", tt.want, stderr.String())
			}
		})
	}
}

func TestRunConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", "keyboard:\n  repeat_rate: 33\n")

	var stdout, stderr bytes.Buffer
	if code := runConfig([]string{"validate", "--path", cfgPath}, &stdout, &stderr); code != 0 {
		t.Fatalf("validate exit %d: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "config: ok") {
		t.Fatalf("unexpected validate output %q", stdout.String())
	}

	stdout.Reset()
	if code := runConfig([]string{"explain", "--path", cfgPath, "keyboard.repeat_rate"}, &stdout, &stderr); code != 0 {
		t.Fatalf("explain exit %d: %s", code, stderr.String())
	}
	out := stdout.String()
	if !strings.Contains(out, "source: file:"+cfgPath+":2:") || !strings.Contains(out, "33") {
		t.Fatalf("unexpected explain output:\n%s", out)
	}

	stdout.Reset()
	if code := runConfig([]string{"print", "--defaults"}, &stdout, &stderr); code != 0 {
		t.Fatalf("print exit %d: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "repeat_rate: 25") {
		t.Fatalf("defaults missing repeat_rate:\n%s", stdout.String())
	}

	stderr.Reset()
	bad := writeFile(t, dir, "bad.yaml", "cursor:\n  size: 2\n")
	if code := runConfig([]string{"validate", "--path", bad}, &stdout, &stderr); code != 1 {
		t.Fatalf("expected validation failure, got %d", code)
	}
	if !strings.Contains(stderr.String(), "cursor.size") {
		t.Fatalf("stderr missing field path: %s", stderr.String())
	}
}
