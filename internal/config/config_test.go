package config

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/wlframe/internal/decor"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.Style() != decor.DefaultStyle() {
		t.Fatalf("expected default config to produce the default decoration style")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	res, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Keyboard.RepeatRate != 25 || len(res.Files) != 0 {
		t.Fatalf("expected defaults with no files, got rate=%d files=%v", res.Config.Keyboard.RepeatRate, res.Files)
	}
}

func TestLoad_EmptyFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "# empty\n")

	res, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Decorations.TitlebarHeight != 30 {
		t.Fatalf("expected default titlebar height, got %d", res.Config.Decorations.TitlebarHeight)
	}
}

func TestLoad_OverridesNestedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
log_level: DEBUG
decorations:
  prefer_server_side: false
  titlebar_height: 24
  colors:
    close_hover: "#ff000080"
keyboard:
  repeat_delay_ms: 250
clipboard:
  self_offer_fast_path: false
ipc:
  socket: " /tmp/wl.sock "
`
	writeFile(t, path, strings.TrimSpace(data)+"\n")

	res, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected log level normalized to debug, got %q", cfg.LogLevel)
	}
	if cfg.Decorations.PreferServerSide {
		t.Fatalf("expected prefer_server_side false")
	}
	if !cfg.Decorations.UseFrameLibrary {
		t.Fatalf("expected use_frame_library to keep its default")
	}
	if cfg.RepeatDelay() != 250*time.Millisecond {
		t.Fatalf("expected 250ms repeat delay, got %v", cfg.RepeatDelay())
	}
	if cfg.Clipboard.SelfOfferFastPath {
		t.Fatalf("expected self_offer_fast_path false")
	}
	if cfg.IPC.Socket != "/tmp/wl.sock" {
		t.Fatalf("expected trimmed socket path, got %q", cfg.IPC.Socket)
	}

	style := cfg.Style()
	if style.TitlebarHeight != 24 {
		t.Fatalf("expected style titlebar 24, got %d", style.TitlebarHeight)
	}
	if style.CloseHover != (color.NRGBA{R: 0xff, A: 0x80}) {
		t.Fatalf("unexpected close hover color %#v", style.CloseHover)
	}
	if style.ActiveTitle != (color.NRGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}) {
		t.Fatalf("expected untouched colors to keep defaults, got %#v", style.ActiveTitle)
	}
}

func TestLoad_StrictUnknownKeyErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "decorations:\n  shadow: true\n")

	_, err := Load(path)
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "shadow") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("expected error to include file path, got %v", err)
	}
}

func TestLoad_IncludeDirectoryOrderAndMainOverrides(t *testing.T) {
	dir := t.TempDir()

	// config.d loaded first, in sorted order.
	configD := filepath.Join(dir, "config.d")
	if err := os.MkdirAll(configD, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile(t, filepath.Join(configD, "20-override.yaml"), "keyboard:\n  repeat_rate: 40\ncursor:\n  size: 48\n")
	writeFile(t, filepath.Join(configD, "10-base.yaml"), "keyboard:\n  repeat_rate: 30\n  repeat_delay_ms: 200\n")
	writeFile(t, filepath.Join(configD, "notes.txt"), "not yaml: [")

	// Main file overrides includes.
	path := filepath.Join(dir, "config.yaml")
	main := strings.Join([]string{
		"include:",
		"  - config.d",
		"cursor:",
		"  size: 32",
		"",
	}, "\n")
	writeFile(t, path, main)

	res, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.Keyboard.RepeatRate != 40 {
		t.Fatalf("expected repeat_rate 40 from the later include, got %d", cfg.Keyboard.RepeatRate)
	}
	if cfg.Keyboard.RepeatDelayMS != 200 {
		t.Fatalf("expected repeat_delay_ms 200 to survive, got %d", cfg.Keyboard.RepeatDelayMS)
	}
	if cfg.Cursor.Size != 32 {
		t.Fatalf("expected main file to override cursor size, got %d", cfg.Cursor.Size)
	}
	if len(res.Files) != 3 || res.Files[2] != path {
		t.Fatalf("expected two includes then the main file, got %v", res.Files)
	}
}

func TestLoad_IncludeMissingPathHasContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "include:\n  - missing.yaml\n")

	_, err := Load(path)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "include") || !strings.Contains(err.Error(), "missing.yaml") {
		t.Fatalf("expected include error, got %v", err)
	}
	if !strings.Contains(err.Error(), path+":2:5:") {
		t.Fatalf("expected error to include file:line:col prefix, got %v", err)
	}
}

func TestLoad_IncludeCycleDetection(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")
	writeFile(t, a, "include: b.yaml\n")
	writeFile(t, b, "include: a.yaml\n")

	_, err := Load(a)
	if err == nil {
		t.Fatalf("expected cycle error")
	}
	if !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestLoad_ValidationErrorHasSourceContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "clipboard:\n  max_mimes_per_offer: 0\n")

	_, err := Load(path)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if verr.Path != "clipboard.max_mimes_per_offer" {
		t.Fatalf("unexpected path %q", verr.Path)
	}
	if !strings.HasPrefix(err.Error(), path+":2:24: clipboard.max_mimes_per_offer:") {
		t.Fatalf("expected file:line:col prefix, got %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"log level", func(c *Config) { c.LogLevel = "trace" }, "log_level"},
		{"titlebar", func(c *Config) { c.Decorations.TitlebarHeight = 0 }, "decorations.titlebar_height"},
		{"corner radius", func(c *Config) { c.Decorations.CornerRadius = 20 }, "decorations.corner_radius"},
		{"color", func(c *Config) { c.Decorations.Colors.Border = "red" }, "decorations.colors.border"},
		{"cursor size", func(c *Config) { c.Cursor.Size = 4 }, "cursor.size"},
		{"activation", func(c *Config) { c.Activation.TimeoutMS = -1 }, "activation.timeout_ms"},
		{"queue", func(c *Config) { c.IPC.QueueSize = 0 }, "ipc.queue_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if verr.Path != tt.path {
				t.Fatalf("expected path %q, got %q", tt.path, verr.Path)
			}
		})
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{"#102030", color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff}, false},
		{"#10203040", color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 0x40}, false},
		{" #ABCDEF ", color.NRGBA{R: 0xab, G: 0xcd, B: 0xef, A: 0xff}, false},
		{"102030", color.NRGBA{}, true},
		{"#12345", color.NRGBA{}, true},
		{"#gg0000", color.NRGBA{}, true},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("ParseColor(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestExplain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "keyboard:\n  repeat_rate: 33\n")

	res, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	value, src, err := Explain(res, "keyboard.repeat_rate")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if value != 33 {
		t.Fatalf("expected 33, got %#v", value)
	}
	if src.Kind != SourceFile || src.File != path || src.Line != 2 {
		t.Fatalf("unexpected source %#v", src)
	}

	value, src, err = Explain(res, "activation.timeout_ms")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if value != 5000 || src.Kind != SourceDefault {
		t.Fatalf("expected default 5000, got %#v from %#v", value, src)
	}

	if _, _, err := Explain(res, "keyboard.repeat_rate.extra"); err == nil {
		t.Fatalf("expected unknown path error")
	}
	if _, _, err := Explain(res, "nope"); err == nil {
		t.Fatalf("expected unknown path error")
	}
}

func TestPath_Priority(t *testing.T) {
	tests := []struct {
		name string
		env  string
		xdg  string
		home string
		want string
	}{
		{"env wins", "/etc/wlframe.yaml", "/xdg", "/home/u", "/etc/wlframe.yaml"},
		{"xdg config home", "", "/xdg", "/home/u", "/xdg/wlframe/config.yaml"},
		{"home fallback", "", "", "/home/u", "/home/u/.config/wlframe/config.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(PathEnv, tt.env)
			t.Setenv("XDG_CONFIG_HOME", tt.xdg)
			t.Setenv("HOME", tt.home)
			got, err := Path()
			if err != nil {
				t.Fatalf("path: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestLoad_EmptyPathReadsEnvLocation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	writeFile(t, path, "keyboard:\n  repeat_rate: 12\n")
	t.Setenv(PathEnv, path)

	res, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Keyboard.RepeatRate != 12 {
		t.Fatalf("expected repeat_rate from %s, got %d", path, res.Config.Keyboard.RepeatRate)
	}
	if src := res.Sources["keyboard.repeat_rate"]; src.File != path || src.Line != 2 {
		t.Fatalf("unexpected source %+v", src)
	}
}

func TestLoad_SharedIncludeMergedOnce(t *testing.T) {
	dir := t.TempDir()
	shared := filepath.Join(dir, "shared.yaml")
	writeFile(t, shared, "cursor:\n  size: 40\n")
	writeFile(t, filepath.Join(dir, "keys.yaml"), "include: shared.yaml\nkeyboard:\n  repeat_rate: 33\n")
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "include:\n  - shared.yaml\n  - keys.yaml\n")

	res, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Cursor.Size != 40 || res.Config.Keyboard.RepeatRate != 33 {
		t.Fatalf("unexpected config %+v %+v", res.Config.Cursor, res.Config.Keyboard)
	}
	if len(res.Files) != 3 || res.Files[0] != shared {
		t.Fatalf("expected shared.yaml merged once and first, got %v", res.Files)
	}
}
