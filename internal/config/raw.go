package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawColors struct {
	ActiveTitlebar   *string `yaml:"active_titlebar"`
	InactiveTitlebar *string `yaml:"inactive_titlebar"`
	ActiveTitle      *string `yaml:"active_title"`
	InactiveTitle    *string `yaml:"inactive_title"`
	Border           *string `yaml:"border"`
	ButtonHover      *string `yaml:"button_hover"`
	CloseHover       *string `yaml:"close_hover"`
}

type RawDecorations struct {
	PreferServerSide *bool      `yaml:"prefer_server_side"`
	UseFrameLibrary  *bool      `yaml:"use_frame_library"`
	TitlebarHeight   *int       `yaml:"titlebar_height"`
	BorderWidth      *int       `yaml:"border_width"`
	CornerRadius     *int       `yaml:"corner_radius"`
	FontSize         *int       `yaml:"font_size"`
	DoubleClickMS    *int       `yaml:"double_click_ms"`
	Colors           *RawColors `yaml:"colors"`
}

type RawKeyboard struct {
	RepeatRate    *int `yaml:"repeat_rate"`
	RepeatDelayMS *int `yaml:"repeat_delay_ms"`
}

type RawCursor struct {
	Size *int `yaml:"size"`
}

type RawClipboard struct {
	MaxMimesPerOffer  *int  `yaml:"max_mimes_per_offer"`
	SelfOfferFastPath *bool `yaml:"self_offer_fast_path"`
}

type RawActivation struct {
	TimeoutMS *int `yaml:"timeout_ms"`
}

type RawIPC struct {
	Socket    *string `yaml:"socket"`
	QueueSize *int    `yaml:"queue_size"`
}

// RawConfig is one file's worth of settings. Unset keys stay nil so files
// can be layered.
type RawConfig struct {
	Include IncludeList `yaml:"include"`

	LogLevel     *string `yaml:"log_level"`
	LogFile      *string `yaml:"log_file"`
	LogMaxSizeMB *int    `yaml:"log_max_size_mb"`
	LogMaxFiles  *int    `yaml:"log_max_files"`

	Decorations *RawDecorations `yaml:"decorations"`
	Keyboard    *RawKeyboard    `yaml:"keyboard"`
	Cursor      *RawCursor      `yaml:"cursor"`
	Clipboard   *RawClipboard   `yaml:"clipboard"`
	Activation  *RawActivation  `yaml:"activation"`
	IPC         *RawIPC         `yaml:"ipc"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	if overlay.LogFile != nil {
		out.LogFile = overlay.LogFile
	}
	if overlay.LogMaxSizeMB != nil {
		out.LogMaxSizeMB = overlay.LogMaxSizeMB
	}
	if overlay.LogMaxFiles != nil {
		out.LogMaxFiles = overlay.LogMaxFiles
	}

	if overlay.Decorations != nil {
		var base RawDecorations
		if out.Decorations != nil {
			base = *out.Decorations
		}
		merged := mergeRawDecorations(base, *overlay.Decorations)
		out.Decorations = &merged
	}
	if overlay.Keyboard != nil {
		merged := RawKeyboard{}
		if out.Keyboard != nil {
			merged = *out.Keyboard
		}
		if overlay.Keyboard.RepeatRate != nil {
			merged.RepeatRate = overlay.Keyboard.RepeatRate
		}
		if overlay.Keyboard.RepeatDelayMS != nil {
			merged.RepeatDelayMS = overlay.Keyboard.RepeatDelayMS
		}
		out.Keyboard = &merged
	}
	if overlay.Cursor != nil && overlay.Cursor.Size != nil {
		out.Cursor = &RawCursor{Size: overlay.Cursor.Size}
	}
	if overlay.Clipboard != nil {
		merged := RawClipboard{}
		if out.Clipboard != nil {
			merged = *out.Clipboard
		}
		if overlay.Clipboard.MaxMimesPerOffer != nil {
			merged.MaxMimesPerOffer = overlay.Clipboard.MaxMimesPerOffer
		}
		if overlay.Clipboard.SelfOfferFastPath != nil {
			merged.SelfOfferFastPath = overlay.Clipboard.SelfOfferFastPath
		}
		out.Clipboard = &merged
	}
	if overlay.Activation != nil && overlay.Activation.TimeoutMS != nil {
		out.Activation = &RawActivation{TimeoutMS: overlay.Activation.TimeoutMS}
	}
	if overlay.IPC != nil {
		merged := RawIPC{}
		if out.IPC != nil {
			merged = *out.IPC
		}
		if overlay.IPC.Socket != nil {
			merged.Socket = overlay.IPC.Socket
		}
		if overlay.IPC.QueueSize != nil {
			merged.QueueSize = overlay.IPC.QueueSize
		}
		out.IPC = &merged
	}

	// Include is file-local.
	out.Include = nil
	return out
}

func mergeRawDecorations(base RawDecorations, overlay RawDecorations) RawDecorations {
	out := base
	if overlay.PreferServerSide != nil {
		out.PreferServerSide = overlay.PreferServerSide
	}
	if overlay.UseFrameLibrary != nil {
		out.UseFrameLibrary = overlay.UseFrameLibrary
	}
	if overlay.TitlebarHeight != nil {
		out.TitlebarHeight = overlay.TitlebarHeight
	}
	if overlay.BorderWidth != nil {
		out.BorderWidth = overlay.BorderWidth
	}
	if overlay.CornerRadius != nil {
		out.CornerRadius = overlay.CornerRadius
	}
	if overlay.FontSize != nil {
		out.FontSize = overlay.FontSize
	}
	if overlay.DoubleClickMS != nil {
		out.DoubleClickMS = overlay.DoubleClickMS
	}
	if overlay.Colors != nil {
		var colors RawColors
		if out.Colors != nil {
			colors = *out.Colors
		}
		merged := mergeRawColors(colors, *overlay.Colors)
		out.Colors = &merged
	}
	return out
}

func mergeRawColors(base RawColors, overlay RawColors) RawColors {
	out := base
	if overlay.ActiveTitlebar != nil {
		out.ActiveTitlebar = overlay.ActiveTitlebar
	}
	if overlay.InactiveTitlebar != nil {
		out.InactiveTitlebar = overlay.InactiveTitlebar
	}
	if overlay.ActiveTitle != nil {
		out.ActiveTitle = overlay.ActiveTitle
	}
	if overlay.InactiveTitle != nil {
		out.InactiveTitle = overlay.InactiveTitle
	}
	if overlay.Border != nil {
		out.Border = overlay.Border
	}
	if overlay.ButtonHover != nil {
		out.ButtonHover = overlay.ButtonHover
	}
	if overlay.CloseHover != nil {
		out.CloseHover = overlay.CloseHover
	}
	return out
}
