package config

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"time"

	"github.com/1broseidon/wlframe/internal/decor"
)

// Colors are the decoration colors as #rrggbb or #rrggbbaa strings.
type Colors struct {
	ActiveTitlebar   string `yaml:"active_titlebar"`
	InactiveTitlebar string `yaml:"inactive_titlebar"`
	ActiveTitle      string `yaml:"active_title"`
	InactiveTitle    string `yaml:"inactive_title"`
	Border           string `yaml:"border"`
	ButtonHover      string `yaml:"button_hover"`
	CloseHover       string `yaml:"close_hover"`
}

// Decorations configures window decorations.
type Decorations struct {
	// PreferServerSide asks the compositor to draw decorations when it can.
	PreferServerSide bool `yaml:"prefer_server_side"`
	// UseFrameLibrary decorates through the frame library when one is
	// available, ahead of the compositor's decoration protocol.
	UseFrameLibrary bool   `yaml:"use_frame_library"`
	TitlebarHeight  int    `yaml:"titlebar_height"`
	BorderWidth     int    `yaml:"border_width"`
	CornerRadius    int    `yaml:"corner_radius"`
	FontSize        int    `yaml:"font_size"`
	DoubleClickMS   int    `yaml:"double_click_ms"`
	Colors          Colors `yaml:"colors"`
}

// Keyboard configures key repeat until the compositor sends its own values.
type Keyboard struct {
	RepeatRate    int `yaml:"repeat_rate"`
	RepeatDelayMS int `yaml:"repeat_delay_ms"`
}

// Cursor configures the cursor theme.
type Cursor struct {
	Size int `yaml:"size"`
}

// Clipboard configures data offers.
type Clipboard struct {
	MaxMimesPerOffer  int  `yaml:"max_mimes_per_offer"`
	SelfOfferFastPath bool `yaml:"self_offer_fast_path"`
}

// Activation configures activation token requests.
type Activation struct {
	TimeoutMS int `yaml:"timeout_ms"`
}

// IPC configures the inspection socket and the dispatch queue.
type IPC struct {
	// Socket overrides the socket path. Empty means the runtime directory.
	Socket    string `yaml:"socket"`
	QueueSize int    `yaml:"queue_size"`
}

// Config is the effective configuration.
type Config struct {
	LogLevel     string `yaml:"log_level"`
	LogFile      string `yaml:"log_file"`
	LogMaxSizeMB int    `yaml:"log_max_size_mb"`
	LogMaxFiles  int    `yaml:"log_max_files"`

	Decorations Decorations `yaml:"decorations"`
	Keyboard    Keyboard    `yaml:"keyboard"`
	Cursor      Cursor      `yaml:"cursor"`
	Clipboard   Clipboard   `yaml:"clipboard"`
	Activation  Activation  `yaml:"activation"`
	IPC         IPC         `yaml:"ipc"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:     "info",
		LogMaxSizeMB: 10,
		LogMaxFiles:  3,
		Decorations: Decorations{
			PreferServerSide: true,
			UseFrameLibrary:  true,
			TitlebarHeight:   30,
			BorderWidth:      6,
			CornerRadius:     8,
			FontSize:         13,
			DoubleClickMS:    400,
			Colors: Colors{
				ActiveTitlebar:   "#303030",
				InactiveTitlebar: "#484848",
				ActiveTitle:      "#eeeeee",
				InactiveTitle:    "#a0a0a0",
				Border:           "#00000030",
				ButtonHover:      "#606060",
				CloseHover:       "#c03030",
			},
		},
		Keyboard: Keyboard{
			RepeatRate:    25,
			RepeatDelayMS: 600,
		},
		Cursor: Cursor{Size: 24},
		Clipboard: Clipboard{
			MaxMimesPerOffer:  32,
			SelfOfferFastPath: true,
		},
		Activation: Activation{TimeoutMS: 5000},
		IPC:        IPC{QueueSize: 256},
	}
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warn, error")}
	}
	if c.LogMaxSizeMB < 0 {
		return &ValidationError{Path: "log_max_size_mb", Err: fmt.Errorf("log_max_size_mb must be >= 0")}
	}
	if c.LogMaxFiles < 1 {
		return &ValidationError{Path: "log_max_files", Err: fmt.Errorf("log_max_files must be >= 1")}
	}

	d := c.Decorations
	if d.TitlebarHeight < 1 {
		return &ValidationError{Path: "decorations.titlebar_height", Err: fmt.Errorf("titlebar_height must be >= 1")}
	}
	if d.BorderWidth < 0 {
		return &ValidationError{Path: "decorations.border_width", Err: fmt.Errorf("border_width must be >= 0")}
	}
	if d.CornerRadius < 0 || d.CornerRadius*2 > d.TitlebarHeight {
		return &ValidationError{Path: "decorations.corner_radius", Err: fmt.Errorf("corner_radius must be between 0 and half the titlebar height")}
	}
	if d.FontSize < 1 {
		return &ValidationError{Path: "decorations.font_size", Err: fmt.Errorf("font_size must be >= 1")}
	}
	if d.DoubleClickMS < 1 {
		return &ValidationError{Path: "decorations.double_click_ms", Err: fmt.Errorf("double_click_ms must be >= 1")}
	}
	for _, field := range d.Colors.fields() {
		if _, err := ParseColor(field.value); err != nil {
			return &ValidationError{Path: "decorations.colors." + field.name, Err: err}
		}
	}

	if c.Keyboard.RepeatRate < 0 {
		return &ValidationError{Path: "keyboard.repeat_rate", Err: fmt.Errorf("repeat_rate must be >= 0")}
	}
	if c.Keyboard.RepeatDelayMS < 0 {
		return &ValidationError{Path: "keyboard.repeat_delay_ms", Err: fmt.Errorf("repeat_delay_ms must be >= 0")}
	}
	if c.Cursor.Size < 8 || c.Cursor.Size > 256 {
		return &ValidationError{Path: "cursor.size", Err: fmt.Errorf("cursor size must be between 8 and 256")}
	}
	if c.Clipboard.MaxMimesPerOffer < 1 {
		return &ValidationError{Path: "clipboard.max_mimes_per_offer", Err: fmt.Errorf("max_mimes_per_offer must be >= 1")}
	}
	if c.Activation.TimeoutMS < 0 {
		return &ValidationError{Path: "activation.timeout_ms", Err: fmt.Errorf("timeout_ms must be >= 0")}
	}
	if c.IPC.QueueSize < 1 {
		return &ValidationError{Path: "ipc.queue_size", Err: fmt.Errorf("queue_size must be >= 1")}
	}
	return nil
}

type colorField struct {
	name  string
	value string
}

func (c Colors) fields() []colorField {
	return []colorField{
		{name: "active_titlebar", value: c.ActiveTitlebar},
		{name: "inactive_titlebar", value: c.InactiveTitlebar},
		{name: "active_title", value: c.ActiveTitle},
		{name: "inactive_title", value: c.InactiveTitle},
		{name: "border", value: c.Border},
		{name: "button_hover", value: c.ButtonHover},
		{name: "close_hover", value: c.CloseHover},
	}
}

// ParseColor parses #rrggbb or #rrggbbaa.
func ParseColor(s string) (color.NRGBA, error) {
	trimmed := strings.TrimSpace(s)
	hex, ok := strings.CutPrefix(trimmed, "#")
	if !ok || (len(hex) != 6 && len(hex) != 8) {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: want #rrggbb or #rrggbbaa", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	if len(hex) == 6 {
		v = v<<8 | 0xff
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// Style returns the decoration style. The configuration must be valid.
func (c *Config) Style() decor.Style {
	d := c.Decorations
	s := decor.DefaultStyle()
	s.TitlebarHeight = d.TitlebarHeight
	s.BorderWidth = d.BorderWidth
	s.CornerRadius = d.CornerRadius
	s.FontSize = float64(d.FontSize)
	s.DoubleClickInterval = time.Duration(d.DoubleClickMS) * time.Millisecond

	targets := []*color.NRGBA{
		&s.ActiveTitlebar,
		&s.InactiveTitlebar,
		&s.ActiveTitle,
		&s.InactiveTitle,
		&s.Border,
		&s.ButtonHover,
		&s.CloseHover,
	}
	for i, field := range d.Colors.fields() {
		if col, err := ParseColor(field.value); err == nil {
			*targets[i] = col
		}
	}
	return s
}

// RepeatDelay returns the configured key repeat delay.
func (c *Config) RepeatDelay() time.Duration {
	return time.Duration(c.Keyboard.RepeatDelayMS) * time.Millisecond
}

// ActivationTimeout returns the configured activation request timeout.
func (c *Config) ActivationTimeout() time.Duration {
	return time.Duration(c.Activation.TimeoutMS) * time.Millisecond
}
