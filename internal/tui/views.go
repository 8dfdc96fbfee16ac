package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/wlframe/internal/ipc"
	"github.com/1broseidon/wlframe/internal/window"
)

var (
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Width(22).
			Align(lipgloss.Right).
			PaddingRight(1)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("250"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62"))

	detailStyle = lipgloss.NewStyle().
			MarginTop(1).
			PaddingLeft(2).
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(lipgloss.Color("238"))
)

func row(label string, value any) string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		labelStyle.Render(label),
		valueStyle.Render(fmt.Sprint(value)),
	)
}

func renderDisconnected(err error, width, height int) string {
	msg := "waiting for session"
	if err != nil {
		msg = err.Error()
	}
	style := lipgloss.NewStyle().
		Width(width).
		Height(height).
		Foreground(lipgloss.Color("241")).
		Align(lipgloss.Center, lipgloss.Center)
	return style.Render(msg + "\n\nstart one with: wlframe replay --serve --hold <trace>")
}

func renderStatus(st *ipc.StatusData, width int) string {
	if st == nil {
		return dimStyle.Render("no data")
	}
	lines := []string{
		row("windows", st.Windows),
		row("data offers", st.Offers),
		row("clipboard sources", st.Sources),
		row("activation pending", st.ActivationPending),
		row("key repeat", onOff(st.KeyRepeatActive)),
		row("cursor animation", onOff(st.CursorAnimating)),
		row("uptime", fmt.Sprintf("%ds", st.UptimeSeconds)),
	}
	if len(st.Timers) > 0 {
		lines = append(lines, row("timers", strings.Join(st.Timers, ", ")))
	}
	if st.Error != "" {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top,
			labelStyle.Render("error"),
			errorStyle.Render(st.Error),
		))
	}
	return lipgloss.NewStyle().Width(width).Render(strings.Join(lines, "\n"))
}

func onOff(b bool) string {
	if b {
		return "active"
	}
	return "idle"
}

func renderWindows(windows []window.Info, selected, width int) string {
	if len(windows) == 0 {
		return dimStyle.Render("no windows")
	}
	header := headerStyle.Render(fmt.Sprintf("%-4s %-24s %-11s %-22s %-12s %s", "ID", "TITLE", "SIZE", "STATE", "DECORATION", "PHASE"))
	lines := []string{header}
	for i, w := range windows {
		state := "floating"
		if len(w.State) > 0 {
			state = strings.Join(w.State, ",")
		}
		line := fmt.Sprintf("%-4d %-24s %-11s %-22s %-12s %s",
			w.ID, truncate(w.Title, 24), fmt.Sprintf("%dx%d", w.Width, w.Height), truncate(state, 22), w.Decoration, w.Phase)
		if i == selected {
			line = selectedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	if selected >= 0 && selected < len(windows) {
		lines = append(lines, windowDetail(windows[selected]))
	}
	return lipgloss.NewStyle().Width(width).Render(strings.Join(lines, "\n"))
}

func windowDetail(w window.Info) string {
	lines := []string{
		row("surface", w.Surface),
		row("app id", w.AppID),
		row("pending size", fmt.Sprintf("%dx%d", w.PendingWidth, w.PendingHeight)),
		row("scale", w.Scale),
		row("cursor", w.Cursor),
		row("focused / hovered", fmt.Sprintf("%v / %v", w.Focused, w.Hovered)),
	}
	if w.FrameLibrary {
		lines = append(lines, row("frame library", "yes"))
	}
	if d := w.Decorations; d != nil {
		lines = append(lines,
			row("titlebar", fmt.Sprintf("%dpx (border %dpx)", d.TitlebarHeight, d.BorderWidth)),
			row("relayouts / skipped", fmt.Sprintf("%d / %d", d.Relayouts, d.Skipped)),
			row("redraws / reallocs", fmt.Sprintf("%d / %d", d.Redraws, d.Reallocs)),
			row("presents", d.Presents),
		)
	}
	return detailStyle.Render(strings.Join(lines, "\n"))
}

func renderOffers(offers []window.OfferInfo, selected, width int) string {
	if len(offers) == 0 {
		return dimStyle.Render("no live offers")
	}
	header := headerStyle.Render(fmt.Sprintf("%-6s %-5s %-18s %-6s %s", "ID", "SLOT", "TYPE", "MIMES", "ACTION"))
	lines := []string{header}
	for i, o := range offers {
		action := "-"
		if o.Type == "drag-and-drop" {
			action = o.DndAction
		}
		line := fmt.Sprintf("%-6d %-5d %-18s %-6d %s", o.ID, o.Slot, o.Type, len(o.Mimes), action)
		if i == selected {
			line = selectedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	if selected >= 0 && selected < len(offers) {
		o := offers[selected]
		detail := []string{row("mimes", strings.Join(o.Mimes, "\n"))}
		if o.AcceptedMime != "" {
			detail = append(detail, row("accepted", o.AcceptedMime))
		}
		if o.SelfOffer {
			detail = append(detail, row("self offer", "yes"))
		}
		if o.Type == "drag-and-drop" {
			detail = append(detail,
				row("source actions", o.SourceActions),
				row("dropped", o.Dropped),
			)
		}
		lines = append(lines, detailStyle.Render(strings.Join(detail, "\n")))
	}
	return lipgloss.NewStyle().Width(width).Render(strings.Join(lines, "\n"))
}

func truncate(s string, n int) string {
	if lipgloss.Width(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) > n-1 {
		r = r[:n-1]
	}
	return string(r) + "…"
}
