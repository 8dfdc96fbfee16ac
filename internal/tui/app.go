// Package tui is a live terminal view of a served session. It polls the
// inspection socket and shows the session summary, its windows and its
// data offers.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/wlframe/internal/ipc"
	"github.com/1broseidon/wlframe/internal/window"
)

// DefaultInterval is the refresh period used when none is given.
const DefaultInterval = time.Second

// Source is where the view reads session state from. *ipc.Client
// implements it.
type Source interface {
	GetStatus() (*ipc.StatusData, error)
	GetWindows() (*ipc.WindowsData, error)
	GetOffers() (*ipc.OffersData, error)
}

var _ Source = (*ipc.Client)(nil)

// snapshotMsg carries one poll of the session.
type snapshotMsg struct {
	status  *ipc.StatusData
	windows []window.Info
	offers  []window.OfferInfo
	err     error
	at      time.Time
}

type tickMsg time.Time

// model is the root bubbletea model for the TUI.
type model struct {
	source   Source
	interval time.Duration
	now      func() time.Time

	activeTab Tab
	selected  int

	// Last poll
	connected bool
	lastErr   error
	updated   time.Time
	status    *ipc.StatusData
	windows   []window.Info
	offers    []window.OfferInfo

	// Terminal dimensions
	width  int
	height int
}

func newModel(source Source, interval time.Duration) model {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return model{
		source:    source,
		interval:  interval,
		now:       time.Now,
		activeTab: TabStatus,
	}
}

// Run shows the view until the user quits.
func Run(source Source, interval time.Duration) error {
	_, err := tea.NewProgram(newModel(source, interval), tea.WithAltScreen()).Run()
	return err
}

// fetch polls the session once.
func (m model) fetch() tea.Cmd {
	source, now := m.source, m.now
	return func() tea.Msg {
		msg := snapshotMsg{at: now()}
		status, err := source.GetStatus()
		if err != nil {
			msg.err = err
			return msg
		}
		msg.status = status
		if data, err := source.GetWindows(); err != nil {
			msg.err = err
		} else {
			msg.windows = data.Windows
		}
		if data, err := source.GetOffers(); err != nil {
			msg.err = err
		} else {
			msg.offers = data.Offers
		}
		return msg
	}
}

func (m model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.tick())
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m = m.switchTab((m.activeTab + 1) % tabCount)
		case "shift+tab":
			m = m.switchTab((m.activeTab - 1 + tabCount) % tabCount)
		case "1":
			m = m.switchTab(TabStatus)
		case "2":
			m = m.switchTab(TabWindows)
		case "3":
			m = m.switchTab(TabOffers)
		case "j", "down":
			if m.selected < m.rows()-1 {
				m.selected++
			}
		case "k", "up":
			if m.selected > 0 {
				m.selected--
			}
		case "r":
			return m, m.fetch()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.fetch(), m.tick())

	case snapshotMsg:
		m.updated = msg.at
		m.lastErr = msg.err
		if msg.status == nil {
			m.connected = false
			return m, nil
		}
		m.connected = true
		m.status = msg.status
		m.windows = msg.windows
		m.offers = msg.offers
		if n := m.rows(); m.selected >= n {
			m.selected = max(n-1, 0)
		}
		return m, nil
	}
	return m, nil
}

func (m model) switchTab(t Tab) model {
	m.activeTab = t
	m.selected = 0
	return m
}

// rows is the number of selectable rows on the active tab.
func (m model) rows() int {
	switch m.activeTab {
	case TabWindows:
		return len(m.windows)
	case TabOffers:
		return len(m.offers)
	default:
		return 0
	}
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	source := ""
	if m.status != nil {
		source = m.status.Source
	}
	statusBar := renderStatusBar(m.connected, source, m.updated, m.width)
	tabBar := renderTabBar(m.activeTab, m.width)
	helpBar := renderHelpBar(m.width)

	usedHeight := lipgloss.Height(statusBar) + lipgloss.Height(tabBar) + lipgloss.Height(helpBar)
	contentHeight := m.height - usedHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	var content string
	switch {
	case !m.connected:
		content = renderDisconnected(m.lastErr, m.width, contentHeight)
	case m.activeTab == TabStatus:
		content = renderStatus(m.status, m.width)
	case m.activeTab == TabWindows:
		content = renderWindows(m.windows, m.selected, m.width)
	case m.activeTab == TabOffers:
		content = renderOffers(m.offers, m.selected, m.width)
	}
	content = lipgloss.NewStyle().Height(contentHeight).MaxHeight(contentHeight).Render(content)

	return lipgloss.JoinVertical(lipgloss.Left,
		statusBar,
		tabBar,
		content,
		helpBar,
	)
}
