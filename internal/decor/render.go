package decor

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/1broseidon/wlframe/internal/shm"
)

// Button is a titlebar button.
type Button int

const (
	ButtonNone Button = iota
	ButtonClose
	ButtonMaximize
	ButtonMinimize
)

// String returns the string representation of the button.
func (b Button) String() string {
	switch b {
	case ButtonClose:
		return "close"
	case ButtonMaximize:
		return "maximize"
	case ButtonMinimize:
		return "minimize"
	default:
		return "none"
	}
}

// titlebarButtons lists buttons from the right end of the titlebar.
var titlebarButtons = []Button{ButtonClose, ButtonMaximize, ButtonMinimize}

// TitlebarParams describes one titlebar drawing, in buffer pixels.
type TitlebarParams struct {
	Width    int
	Height   int
	Border   int
	Titlebar int
	Radius   int
	Scale    int

	Title   string
	Focused bool
	Hovered bool
	Hover   Button
}

// Renderer rasterizes decoration edges.
type Renderer struct {
	style Style
	font  *truetype.Font
	faces map[int]font.Face
}

// NewRenderer parses the titlebar font.
func NewRenderer(style Style) (*Renderer, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return &Renderer{style: style, font: f, faces: make(map[int]font.Face)}, nil
}

// Style returns the style the renderer draws with.
func (r *Renderer) Style() Style {
	return r.style
}

func (r *Renderer) face(scale int) font.Face {
	if f, ok := r.faces[scale]; ok {
		return f
	}
	f := truetype.NewFace(r.font, &truetype.Options{
		Size:    r.style.FontSize * float64(scale),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	r.faces[scale] = f
	return f
}

// Titlebar draws the top edge into dst.
func (r *Renderer) Titlebar(dst []byte, p TitlebarParams) {
	dc := gg.NewContext(p.Width, p.Height)
	dc.SetColor(color.Transparent)
	dc.Clear()

	b := float64(p.Border)
	t := float64(p.Titlebar)
	w := float64(p.Width)

	if p.Border > 0 {
		dc.SetColor(r.style.Border)
		dc.DrawRectangle(0, 0, w, b)
		dc.DrawRectangle(0, b, b, t)
		dc.DrawRectangle(w-b, b, b, t)
		dc.Fill()
	}

	if p.Titlebar > 0 {
		bg := r.style.InactiveTitlebar
		fg := r.style.InactiveTitle
		if p.Focused {
			bg = r.style.ActiveTitlebar
			fg = r.style.ActiveTitle
		}
		if p.Hovered && p.Hover == ButtonNone {
			bg = lighten(bg, 0x10)
		}
		dc.SetColor(bg)
		radius := float64(p.Radius)
		// Overflow below the edge so only the top corners are rounded.
		dc.DrawRoundedRectangle(b, b, w-2*b, t+radius, radius)
		dc.Fill()

		r.drawButtons(dc, p, fg)
		r.drawTitle(dc, p, fg)
	}

	shm.PutRGBA(dst, dc.Image().(*image.RGBA))
}

// ButtonRect returns the bounds of a titlebar button in top edge pixels.
func ButtonRect(btn Button, width, border, titlebar int) image.Rectangle {
	for i, b := range titlebarButtons {
		if b != btn {
			continue
		}
		right := width - border - i*titlebar
		return image.Rect(right-titlebar, border, right, border+titlebar)
	}
	return image.Rectangle{}
}

func (r *Renderer) drawButtons(dc *gg.Context, p TitlebarParams, fg color.NRGBA) {
	s := float64(p.Scale)
	for _, btn := range titlebarButtons {
		rect := ButtonRect(btn, p.Width, p.Border, p.Titlebar)
		cx := float64(rect.Min.X+rect.Max.X) / 2
		cy := float64(rect.Min.Y+rect.Max.Y) / 2
		half := float64(p.Titlebar) * 0.18

		if p.Hover == btn {
			hover := r.style.ButtonHover
			if btn == ButtonClose {
				hover = r.style.CloseHover
			}
			dc.SetColor(hover)
			dc.DrawCircle(cx, cy, float64(p.Titlebar)*0.34)
			dc.Fill()
		}

		dc.SetColor(fg)
		dc.SetLineWidth(1.5 * s)
		switch btn {
		case ButtonClose:
			dc.DrawLine(cx-half, cy-half, cx+half, cy+half)
			dc.DrawLine(cx-half, cy+half, cx+half, cy-half)
		case ButtonMaximize:
			dc.DrawRectangle(cx-half, cy-half, 2*half, 2*half)
		case ButtonMinimize:
			dc.DrawLine(cx-half, cy+half*0.6, cx+half, cy+half*0.6)
		}
		dc.Stroke()
	}
}

func (r *Renderer) drawTitle(dc *gg.Context, p TitlebarParams, fg color.NRGBA) {
	if p.Title == "" {
		return
	}
	dc.SetFontFace(r.face(p.Scale))
	dc.SetColor(fg)

	reserved := len(titlebarButtons)*p.Titlebar + p.Border
	avail := float64(p.Width - 2*reserved)
	if avail <= 0 {
		return
	}
	title := elide(dc, p.Title, avail)
	dc.DrawStringAnchored(title, float64(p.Width)/2, float64(p.Border)+float64(p.Titlebar)/2, 0.5, 0.35)
}

// elide shortens s with a trailing ellipsis until it fits into width.
func elide(dc *gg.Context, s string, width float64) string {
	if w, _ := dc.MeasureString(s); w <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "…"
		if w, _ := dc.MeasureString(candidate); w <= width {
			return candidate
		}
	}
	return ""
}

// Border fills a border strip into dst.
func (r *Renderer) Border(dst []byte, width, height int) {
	dc := gg.NewContext(width, height)
	dc.SetColor(r.style.Border)
	dc.Clear()
	shm.PutRGBA(dst, dc.Image().(*image.RGBA))
}

func lighten(c color.NRGBA, by uint8) color.NRGBA {
	add := func(v uint8) uint8 {
		if int(v)+int(by) > 0xff {
			return 0xff
		}
		return v + by
	}
	return color.NRGBA{R: add(c.R), G: add(c.G), B: add(c.B), A: c.A}
}
