package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"threadstate/internal/aggregate"
	"threadstate/internal/threads"
)

const (
	minWatchWidth    = 20
	minWatchHeight   = 8
	maxListFraction  = 2
	watchChromeLines = 3
)

type WatchOptions struct {
	SortKey aggregate.SortKey
	Dark    bool
	// Copy overrides the clipboard writer; CopyText is used when nil.
	Copy func(string) (ClipboardMethod, error)
}

type watchRow struct {
	workspaceID string
	row         aggregate.ThreadRow
}

// WatchModel is a live view over engine snapshots: a thread list with the
// selected thread's transcript below it.
type WatchModel struct {
	updates <-chan *threads.State
	opts    WatchOptions

	state    *threads.State
	rows     []watchRow
	selected string
	viewport viewport.Model
	width    int
	height   int
	status   string
	closed   bool
}

type snapshotMsg struct {
	state *threads.State
}

type updatesClosedMsg struct{}

func NewWatchModel(updates <-chan *threads.State, opts WatchOptions) *WatchModel {
	if opts.Copy == nil {
		opts.Copy = CopyText
	}
	return &WatchModel{
		updates:  updates,
		opts:     opts,
		state:    threads.NewState(),
		viewport: viewport.New(minWatchWidth, minWatchHeight),
		width:    minWatchWidth,
		height:   minWatchHeight,
	}
}

func (m *WatchModel) Init() tea.Cmd {
	return waitForSnapshot(m.updates)
}

func waitForSnapshot(updates <-chan *threads.State) tea.Cmd {
	return func() tea.Msg {
		state, ok := <-updates
		if !ok {
			return updatesClosedMsg{}
		}
		return snapshotMsg{state: state}
	}
}

func (m *WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = max(minWatchWidth, msg.Width)
		m.height = max(minWatchHeight, msg.Height)
		m.refresh()
		return m, nil
	case snapshotMsg:
		if msg.state != nil {
			m.state = msg.state
		}
		m.refresh()
		return m, waitForSnapshot(m.updates)
	case updatesClosedMsg:
		m.closed = true
		m.status = "event stream ended"
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *WatchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "j", "down":
		m.moveSelection(1)
		return m, nil
	case "k", "up":
		m.moveSelection(-1)
		return m, nil
	case "c":
		m.copySelected()
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// SelectedThreadID is the thread whose transcript is shown.
func (m *WatchModel) SelectedThreadID() string {
	return m.selected
}

func (m *WatchModel) moveSelection(delta int) {
	if len(m.rows) == 0 {
		return
	}
	index := m.selectedIndex() + delta
	index = min(max(index, 0), len(m.rows)-1)
	m.selected = m.rows[index].row.Thread.ID
	m.refreshTranscript(true)
}

func (m *WatchModel) selectedIndex() int {
	for i, row := range m.rows {
		if row.row.Thread.ID == m.selected {
			return i
		}
	}
	return 0
}

func (m *WatchModel) copySelected() {
	if m.selected == "" {
		m.status = "nothing to copy"
		return
	}
	method, err := m.opts.Copy(Transcript(m.state.Items(m.selected)))
	if err != nil {
		m.status = "copy failed: " + err.Error()
		return
	}
	m.status = "copied transcript (" + method.String() + ")"
}

func (m *WatchModel) refresh() {
	m.rows = m.rows[:0]
	for _, workspaceID := range Workspaces(m.state) {
		for _, row := range aggregate.ThreadRows(m.state, workspaceID, m.opts.SortKey) {
			m.rows = append(m.rows, watchRow{workspaceID: workspaceID, row: row})
		}
	}
	if len(m.rows) == 0 {
		m.selected = ""
	} else if m.rows[m.selectedIndex()].row.Thread.ID != m.selected {
		m.selected = m.rows[0].row.Thread.ID
		for _, row := range m.rows {
			if row.row.Active {
				m.selected = row.row.Thread.ID
				break
			}
		}
	}
	m.refreshTranscript(false)
}

func (m *WatchModel) listHeight() int {
	avail := m.height - watchChromeLines
	want := len(m.rows) + len(Workspaces(m.state))
	return max(1, min(want, avail/maxListFraction))
}

func (m *WatchModel) refreshTranscript(reset bool) {
	m.viewport.Width = m.width
	m.viewport.Height = max(1, m.height-watchChromeLines-m.listHeight())
	atBottom := m.viewport.AtBottom()
	content := ""
	if m.selected != "" {
		content = RenderMarkdown(Transcript(m.state.Items(m.selected)), m.width, m.opts.Dark)
	}
	m.viewport.SetContent(content)
	if reset || atBottom {
		m.viewport.GotoBottom()
	}
}

func (m *WatchModel) View() string {
	badge := aggregate.BadgeCount(m.state, aggregate.HasParent)
	header := headerStyle.Render("threadstate") + "  " + statusStyle.Render(fmt.Sprintf("badge %d", badge))
	sections := []string{
		xansi.Truncate(header, m.width, ""),
		m.renderList(),
		m.viewport.View(),
		m.renderStatus(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *WatchModel) renderList() string {
	if len(m.rows) == 0 {
		return metaStyle.Render("no threads")
	}
	var lines []string
	lastWorkspace := ""
	for _, entry := range m.rows {
		if entry.workspaceID != lastWorkspace {
			lastWorkspace = entry.workspaceID
			lines = append(lines, workspaceStyle.Render(FitWidth(entry.workspaceID, m.width)))
		}
		label := PadWidth(RowLabel(entry.row, m.width), m.width)
		style := attentionStyle(entry.row.Attention)
		if entry.row.Thread.ID == m.selected {
			style = activeStyle
		}
		lines = append(lines, style.Render(label))
	}
	height := m.listHeight()
	if len(lines) > height {
		// keep the selection on screen
		start := min(max(0, m.selectedLine(lines)-height+1), len(lines)-height)
		lines = lines[start : start+height]
	}
	return strings.Join(lines, "\n")
}

func (m *WatchModel) selectedLine(lines []string) int {
	line := 0
	lastWorkspace := ""
	for _, entry := range m.rows {
		if entry.workspaceID != lastWorkspace {
			lastWorkspace = entry.workspaceID
			line++
		}
		if entry.row.Thread.ID == m.selected {
			return line
		}
		line++
	}
	return len(lines) - 1
}

func (m *WatchModel) renderStatus() string {
	help := "j/k select  pgup/pgdn scroll  c copy  q quit"
	if m.status != "" {
		return statusStyle.Render(FitWidth(m.status, m.width))
	}
	return helpStyle.Render(FitWidth(help, m.width))
}
