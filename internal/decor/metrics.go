// Package decor draws client-side window decorations on sub-surfaces and
// bridges to an optional frame library that decorates windows itself.
package decor

import (
	"image/color"
	"time"
)

// Style is the unscaled look of client-side decorations.
type Style struct {
	TitlebarHeight int
	BorderWidth    int
	CornerRadius   int
	FontSize       float64

	ActiveTitlebar   color.NRGBA
	InactiveTitlebar color.NRGBA
	ActiveTitle      color.NRGBA
	InactiveTitle    color.NRGBA
	Border           color.NRGBA
	ButtonHover      color.NRGBA
	CloseHover       color.NRGBA

	DoubleClickInterval time.Duration
}

// DefaultStyle returns the built-in decoration style.
func DefaultStyle() Style {
	return Style{
		TitlebarHeight:      30,
		BorderWidth:         6,
		CornerRadius:        8,
		FontSize:            13,
		ActiveTitlebar:      color.NRGBA{R: 0x30, G: 0x30, B: 0x30, A: 0xff},
		InactiveTitlebar:    color.NRGBA{R: 0x48, G: 0x48, B: 0x48, A: 0xff},
		ActiveTitle:         color.NRGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff},
		InactiveTitle:       color.NRGBA{R: 0xa0, G: 0xa0, B: 0xa0, A: 0xff},
		Border:              color.NRGBA{A: 0x30},
		ButtonHover:         color.NRGBA{R: 0x60, G: 0x60, B: 0x60, A: 0xff},
		CloseHover:          color.NRGBA{R: 0xc0, G: 0x30, B: 0x30, A: 0xff},
		DoubleClickInterval: 400 * time.Millisecond,
	}
}

// Metrics are decoration sizes in surface-local (logical) units.
type Metrics struct {
	TitlebarHeight  int
	BorderWidth     int
	CornerRadius    int
	TitlebarVisible bool
}

// VisibleTitlebar returns the titlebar height when shown, otherwise zero.
func (m Metrics) VisibleTitlebar() int {
	if !m.TitlebarVisible {
		return 0
	}
	return m.TitlebarHeight
}

// ComputeMetrics derives the metrics for a window state. Docked windows sit
// against screen edges and get no borders or titlebar.
func ComputeMetrics(s Style, docked bool) Metrics {
	if docked {
		return Metrics{TitlebarHeight: s.TitlebarHeight}
	}
	return Metrics{
		TitlebarHeight:  s.TitlebarHeight,
		BorderWidth:     s.BorderWidth,
		CornerRadius:    s.CornerRadius,
		TitlebarVisible: s.TitlebarHeight > 0,
	}
}
