package config

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// BuildEffectiveConfig layers raw over DefaultConfig. It does not validate.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.LogLevel != nil {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(*raw.LogLevel))
	}
	if raw.LogFile != nil {
		cfg.LogFile = *raw.LogFile
	}
	if raw.LogMaxSizeMB != nil {
		cfg.LogMaxSizeMB = *raw.LogMaxSizeMB
	}
	if raw.LogMaxFiles != nil {
		cfg.LogMaxFiles = *raw.LogMaxFiles
	}

	if d := raw.Decorations; d != nil {
		setBool(&cfg.Decorations.PreferServerSide, d.PreferServerSide)
		setBool(&cfg.Decorations.UseFrameLibrary, d.UseFrameLibrary)
		setInt(&cfg.Decorations.TitlebarHeight, d.TitlebarHeight)
		setInt(&cfg.Decorations.BorderWidth, d.BorderWidth)
		setInt(&cfg.Decorations.CornerRadius, d.CornerRadius)
		setInt(&cfg.Decorations.FontSize, d.FontSize)
		setInt(&cfg.Decorations.DoubleClickMS, d.DoubleClickMS)
		if c := d.Colors; c != nil {
			colors := &cfg.Decorations.Colors
			setString(&colors.ActiveTitlebar, c.ActiveTitlebar)
			setString(&colors.InactiveTitlebar, c.InactiveTitlebar)
			setString(&colors.ActiveTitle, c.ActiveTitle)
			setString(&colors.InactiveTitle, c.InactiveTitle)
			setString(&colors.Border, c.Border)
			setString(&colors.ButtonHover, c.ButtonHover)
			setString(&colors.CloseHover, c.CloseHover)
		}
	}
	if k := raw.Keyboard; k != nil {
		setInt(&cfg.Keyboard.RepeatRate, k.RepeatRate)
		setInt(&cfg.Keyboard.RepeatDelayMS, k.RepeatDelayMS)
	}
	if raw.Cursor != nil {
		setInt(&cfg.Cursor.Size, raw.Cursor.Size)
	}
	if c := raw.Clipboard; c != nil {
		setInt(&cfg.Clipboard.MaxMimesPerOffer, c.MaxMimesPerOffer)
		setBool(&cfg.Clipboard.SelfOfferFastPath, c.SelfOfferFastPath)
	}
	if raw.Activation != nil {
		setInt(&cfg.Activation.TimeoutMS, raw.Activation.TimeoutMS)
	}
	if i := raw.IPC; i != nil {
		if i.Socket != nil {
			cfg.IPC.Socket = strings.TrimSpace(*i.Socket)
		}
		setInt(&cfg.IPC.QueueSize, i.QueueSize)
	}

	return cfg, nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
