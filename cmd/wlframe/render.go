package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/1broseidon/wlframe/internal/ipc"
	"github.com/1broseidon/wlframe/internal/window"
)

// printer writes aligned label/value output, styled when writing to a
// terminal.
type printer struct {
	w      io.Writer
	styled bool

	heading lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	dim     lipgloss.Style
	bad     lipgloss.Style
}

func newPrinter(w io.Writer) *printer {
	styled := false
	if f, ok := w.(*os.File); ok {
		styled = term.IsTerminal(int(f.Fd()))
	}
	return &printer{
		w:       w,
		styled:  styled,
		heading: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		label:   lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Width(20),
		value:   lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
		dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		bad:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

func (p *printer) render(s lipgloss.Style, text string) string {
	if !p.styled {
		return text
	}
	return s.Render(text)
}

func (p *printer) section(title string) {
	fmt.Fprintln(p.w, p.render(p.heading, title))
}

func (p *printer) field(name string, v any) {
	label := fmt.Sprintf("%-20s", name+":")
	fmt.Fprintf(p.w, "  %s %s\n", p.render(p.label, label), p.render(p.value, fmt.Sprint(v)))
}

func (p *printer) line(text string) {
	style := p.dim
	if strings.HasPrefix(text, "error") {
		style = p.bad
	}
	fmt.Fprintln(p.w, p.render(style, text))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) status(st window.Status, source string) {
	p.section("session")
	if source != "" {
		p.field("source", source)
	}
	p.field("windows", st.Windows)
	p.field("offers", st.Offers)
	p.field("sources", st.Sources)
	p.field("activation_pending", st.ActivationPending)
	p.field("key_repeat_active", st.KeyRepeatActive)
	p.field("cursor_animating", st.CursorAnimating)
	p.field("uptime_seconds", st.UptimeSeconds)
	if len(st.Timers) > 0 {
		p.field("timers", strings.Join(st.Timers, ", "))
	}
	if st.Error != "" {
		fmt.Fprintf(p.w, "  %s %s\n", p.render(p.label, fmt.Sprintf("%-20s", "error:")), p.render(p.bad, st.Error))
	}
}

func (p *printer) window(w window.Info) {
	p.section(fmt.Sprintf("window %d", w.ID))
	p.field("surface", w.Surface)
	p.field("title", w.Title)
	if w.AppID != "" {
		p.field("app_id", w.AppID)
	}
	p.field("size", fmt.Sprintf("%dx%d", w.Width, w.Height))
	if w.PendingWidth != w.Width || w.PendingHeight != w.Height {
		p.field("pending", fmt.Sprintf("%dx%d", w.PendingWidth, w.PendingHeight))
	}
	state := "floating"
	if len(w.State) > 0 {
		state = strings.Join(w.State, ",")
	}
	p.field("state", state)
	p.field("phase", w.Phase)
	decoration := w.Decoration
	if w.FrameLibrary {
		decoration += " (frame library)"
	}
	p.field("decoration", decoration)
	p.field("scale", w.Scale)
	p.field("cursor", w.Cursor)
	p.field("focused", w.Focused)
	if d := w.Decorations; d != nil {
		p.field("titlebar", fmt.Sprintf("%dpx, border %dpx", d.TitlebarHeight, d.BorderWidth))
		p.field("csd work", fmt.Sprintf("relayouts=%d skipped=%d redraws=%d reallocs=%d presents=%d",
			d.Relayouts, d.Skipped, d.Redraws, d.Reallocs, d.Presents))
	}
}

func (p *printer) offer(o window.OfferInfo) {
	title := fmt.Sprintf("offer %d (%s, slot %d)", o.ID, o.Type, o.Slot)
	if o.SelfOffer {
		title += " self"
	}
	p.section(title)
	p.field("mimes", strings.Join(o.Mimes, ", "))
	if o.AcceptedMime != "" {
		p.field("accepted", o.AcceptedMime)
	}
	if o.Type == "drag-and-drop" {
		p.field("source_actions", o.SourceActions)
		p.field("dnd_action", o.DndAction)
		p.field("dropped", o.Dropped)
	}
}

func (p *printer) windows(data *ipc.WindowsData) {
	if len(data.Windows) == 0 {
		p.line("no windows")
		return
	}
	for _, w := range data.Windows {
		p.window(w)
	}
}

func (p *printer) offers(data *ipc.OffersData) {
	if len(data.Offers) == 0 {
		p.line("no live offers")
		return
	}
	for _, o := range data.Offers {
		p.offer(o)
	}
}
