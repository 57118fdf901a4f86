package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	bubbleKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/gubarz/cmtscan/internal/executor"
	"github.com/gubarz/cmtscan/internal/scan"
)

const (
	previewHeight = 8
	footerHeight  = 3 // divider, help line, filter input
	minListHeight = 3
	pageStep      = 10
	filterDelay   = 50 * time.Millisecond
)

// annotationItem is one browser row with its precomputed search text
type annotationItem struct {
	annotation scan.Annotation
	location   string
	search     string
}

func newAnnotationItem(a scan.Annotation) annotationItem {
	location := executor.Location(a.File, a.Line)
	fields := []string{a.Marker.Token, a.Marker.Label, a.Body, location, a.Context}
	return annotationItem{
		annotation: a,
		location:   location,
		search:     strings.ToLower(strings.Join(fields, "\n")),
	}
}

// filterItems keeps the items whose search text contains every word of query,
// ignoring case. A blank query keeps everything.
func filterItems(items []annotationItem, query string) []annotationItem {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return items
	}
	var kept []annotationItem
next:
	for _, item := range items {
		for _, w := range words {
			if !strings.Contains(item.search, w) {
				continue next
			}
		}
		kept = append(kept, item)
	}
	return kept
}

// filterMsg fires once typing has paused; query is the input value it was
// scheduled for.
type filterMsg struct {
	query string
}

func filterAfterPause(query string) tea.Cmd {
	return tea.Tick(filterDelay, func(time.Time) tea.Msg {
		return filterMsg{query: query}
	})
}

// editorDoneMsg reports the result of an editor session
type editorDoneMsg struct {
	location string
	err      error
}

type browserKeys struct {
	quit, open, copy, up, down, pageUp, pageDown, top, bottom bubbleKey.Binding
}

func defaultBrowserKeys() browserKeys {
	return browserKeys{
		quit:     bubbleKey.NewBinding(bubbleKey.WithKeys("esc", "ctrl+c"), bubbleKey.WithHelp("esc", "quit")),
		open:     bubbleKey.NewBinding(bubbleKey.WithKeys("enter"), bubbleKey.WithHelp("enter", "open")),
		copy:     bubbleKey.NewBinding(bubbleKey.WithKeys("ctrl+y"), bubbleKey.WithHelp("ctrl+y", "copy")),
		up:       bubbleKey.NewBinding(bubbleKey.WithKeys("up", "ctrl+p")),
		down:     bubbleKey.NewBinding(bubbleKey.WithKeys("down", "ctrl+n")),
		pageUp:   bubbleKey.NewBinding(bubbleKey.WithKeys("pgup")),
		pageDown: bubbleKey.NewBinding(bubbleKey.WithKeys("pgdown")),
		top:      bubbleKey.NewBinding(bubbleKey.WithKeys("home", "ctrl+a")),
		bottom:   bubbleKey.NewBinding(bubbleKey.WithKeys("end", "ctrl+e")),
	}
}

// browserModel lists annotations above a filter input and previews the one
// under the cursor.
type browserModel struct {
	keys  browserKeys
	input textinput.Model

	width, height int
	quitting      bool

	items    []annotationItem
	filtered []annotationItem
	query    string // query filtered is built from
	cursor   int
	offset   int // first list row on screen
	status   string

	root     string
	executor *executor.Executor
}

func newBrowserModel(annotations []scan.Annotation, root string, exec *executor.Executor) browserModel {
	input := textinput.New()
	input.Placeholder = "Type to filter..."
	input.CharLimit = 256
	input.Width = 50
	input.Focus()

	sorted := scan.SortForDisplay(annotations)
	items := make([]annotationItem, 0, len(sorted))
	for _, a := range sorted {
		items = append(items, newAnnotationItem(a))
	}

	return browserModel{
		keys:     defaultBrowserKeys(),
		input:    input,
		items:    items,
		filtered: items,
		root:     root,
		executor: exec,
	}
}

func (m browserModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = msg.Width - 4
		m.scrollToCursor()
	case filterMsg:
		// A newer keystroke has scheduled its own filter
		if msg.query == m.input.Value() {
			m.setQuery(msg.query)
		}
		return m, nil
	case editorDoneMsg:
		m.status = ""
		if msg.err != nil {
			m.status = fmt.Sprintf("Error opening %s: %v", msg.location, msg.err)
		}
		return m, nil
	case tea.KeyMsg:
		if cmd, ok := m.handleKey(msg); ok {
			return m, cmd
		}
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		return m, tea.Batch(cmd, filterAfterPause(after))
	}
	return m, cmd
}

// handleKey runs the action bound to msg. Keys without a binding are left
// for the filter input.
func (m *browserModel) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case bubbleKey.Matches(msg, m.keys.quit):
		m.quitting = true
		return tea.Quit, true
	case bubbleKey.Matches(msg, m.keys.open):
		return m.openSelected(), true
	case bubbleKey.Matches(msg, m.keys.copy):
		m.copySelected()
	case bubbleKey.Matches(msg, m.keys.up):
		m.moveCursor(-1)
	case bubbleKey.Matches(msg, m.keys.down):
		m.moveCursor(1)
	case bubbleKey.Matches(msg, m.keys.pageUp):
		m.moveCursor(-pageStep)
	case bubbleKey.Matches(msg, m.keys.pageDown):
		m.moveCursor(pageStep)
	case bubbleKey.Matches(msg, m.keys.top):
		m.moveCursor(-len(m.filtered))
	case bubbleKey.Matches(msg, m.keys.bottom):
		m.moveCursor(len(m.filtered))
	default:
		return nil, false
	}
	return nil, true
}

func (m *browserModel) selected() (annotationItem, bool) {
	if m.cursor >= 0 && m.cursor < len(m.filtered) {
		return m.filtered[m.cursor], true
	}
	return annotationItem{}, false
}

// openSelected hands the terminal to the editor until it exits
func (m *browserModel) openSelected() tea.Cmd {
	item, ok := m.selected()
	if !ok || m.executor == nil {
		return nil
	}
	a := item.annotation
	cmd := m.executor.EditorCommand(filepath.Join(m.root, a.File), a.Line)
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return editorDoneMsg{location: item.location, err: err}
	})
}

func (m *browserModel) copySelected() {
	item, ok := m.selected()
	if !ok || m.executor == nil {
		return
	}
	if err := m.executor.CopyLocation(item.annotation.File, item.annotation.Line); err != nil {
		m.status = fmt.Sprintf("Copy failed: %v", err)
		return
	}
	m.status = "Copied " + item.location
}

func (m *browserModel) moveCursor(delta int) {
	m.cursor = max(0, min(m.cursor+delta, len(m.filtered)-1))
	m.scrollToCursor()
}

func (m *browserModel) setQuery(query string) {
	if query == m.query {
		return
	}
	m.query = query
	m.filtered = filterItems(m.items, query)
	m.cursor, m.offset = 0, 0
}

// listHeight is the number of list rows that fit under the preview
func (m *browserModel) listHeight() int {
	return max(max(m.height, 24)-previewHeight-1-footerHeight, minListHeight)
}

func (m *browserModel) scrollToCursor() {
	m.offset, _ = visibleRange(m.cursor, len(m.filtered), m.listHeight(), m.offset)
}

// visibleRange returns the rows [start, end) of a list of total rows that
// are drawn in height lines. It starts at offset and moves only as far as
// needed to keep cursor on screen.
func visibleRange(cursor, total, height, offset int) (start, end int) {
	start = max(min(offset, cursor), cursor-height+1)
	start = max(0, min(start, total-height))
	return start, min(start+height, total)
}

func (m browserModel) View() string {
	if m.quitting {
		return ""
	}
	width := max(m.width, 80)

	var b strings.Builder
	b.WriteString(m.renderPreview(width))
	list := m.renderList(width)
	b.WriteString(list)
	if blank := m.listHeight() - strings.Count(list, "\n"); blank > 0 {
		b.WriteString(strings.Repeat("\n", blank))
	}
	b.WriteString(m.renderFooter(width))
	return b.String()
}

// renderPreview draws the selected annotation and its context in a block of
// previewHeight lines followed by a divider.
func (m browserModel) renderPreview(width int) string {
	var lines []string
	if item, ok := m.selected(); ok {
		a := item.annotation
		lines = append(lines,
			styles.Marker(a.Marker.Color).Render(a.Marker.Label)+"  "+styles.PreviewPath.Render(item.location),
			styles.PreviewHeader.Render(ellipsize(a.Body, width)),
		)
		if a.Context != "" {
			for _, line := range strings.Split(a.Context, "\n") {
				style := styles.PreviewContext
				if strings.HasPrefix(line, "→") {
					style = styles.PreviewTarget
				}
				lines = append(lines, style.Render(ellipsize(line, width)))
			}
		}
	}
	if len(lines) > previewHeight {
		lines = lines[:previewHeight]
	}
	for len(lines) < previewHeight {
		lines = append(lines, "")
	}
	lines = append(lines, styles.Divider.Render(strings.Repeat("─", width)))
	return strings.Join(lines, "\n") + "\n"
}

func (m browserModel) renderList(width int) string {
	start, end := visibleRange(m.cursor, len(m.filtered), m.listHeight(), m.offset)
	labelWidth := m.labelWidth()

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(m.renderRow(m.filtered[i], i == m.cursor, labelWidth, width))
		b.WriteByte('\n')
	}
	return b.String()
}

// labelWidth is the widest marker label, so bodies line up across filters
func (m browserModel) labelWidth() int {
	width := 0
	for _, item := range m.items {
		width = max(width, lipgloss.Width(item.annotation.Marker.Label))
	}
	return width
}

// renderRow draws label, body and location; the selected row is highlighted
// end to end and gets a cursor mark.
func (m browserModel) renderRow(item annotationItem, selected bool, labelWidth, width int) string {
	a := item.annotation
	label, body, path := styles.Marker(a.Marker.Color), styles.Body, styles.Path
	gap, prefix := "  ", "  "
	if selected {
		label, body, path = styles.Highlighted(label), styles.Highlighted(body), styles.Highlighted(path)
		gap, prefix = styles.Selected.Render(gap), styles.Cursor.Render("▶ ")
	}

	bodyWidth := max(width-labelWidth-runewidth.StringWidth(item.location)-8, 10)
	return prefix +
		label.Render(runewidth.FillRight(a.Marker.Label, labelWidth)) + gap +
		body.Render(runewidth.FillRight(ellipsize(a.Body, bodyWidth), bodyWidth)) + gap +
		path.Render(item.location)
}

func (m browserModel) renderFooter(width int) string {
	help := []string{strconv.Itoa(len(m.filtered)) + "/" + strconv.Itoa(len(m.items))}
	for _, k := range []bubbleKey.Binding{m.keys.open, m.keys.copy, m.keys.quit} {
		h := k.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	line := "  " + styles.Dim.Render(strings.Join(help, " • "))
	if m.status != "" {
		line += "  " + styles.Status.Render(m.status)
	}
	return styles.Divider.Render(strings.Repeat("─", width)) + "\n" + line + "\n" + m.input.View()
}

// ellipsize shortens s to at most width terminal cells, marking the cut
func ellipsize(s string, width int) string {
	if width <= 3 {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}

// terminal is where the browser reads keys and draws
type terminal struct {
	in, out *os.File
	opened  []*os.File
}

// openTerminal returns stdin and stdout unless stdout is redirected, in
// which case the browser talks to the controlling terminal directly so the
// redirect only receives what the command prints afterwards.
func openTerminal() *terminal {
	t := &terminal{in: os.Stdin, out: os.Stdout}
	if info, err := os.Stdout.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
		return t
	}

	t.out = os.Stderr
	if f, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0); err == nil {
		t.out = f
		t.opened = append(t.opened, f)
	}
	if f, err := os.OpenFile("/dev/tty", os.O_RDONLY, 0); err == nil {
		t.in = f
		t.opened = append(t.opened, f)
	}
	// Color support is detected on the output actually drawn to
	lipgloss.SetDefaultRenderer(lipgloss.NewRenderer(t.out))
	return t
}

func (t *terminal) Close() {
	for _, f := range t.opened {
		_ = f.Close()
	}
}

// RunBrowser launches the interactive annotation browser. root is the scan
// root that annotation paths are relative to.
func RunBrowser(annotations []scan.Annotation, root string, exec *executor.Executor) error {
	if len(annotations) == 0 {
		return nil
	}

	term := openTerminal()
	defer term.Close()
	styles = DefaultTheme() // pick up the renderer chosen above

	p := tea.NewProgram(newBrowserModel(annotations, root, exec),
		tea.WithAltScreen(), tea.WithInput(term.in), tea.WithOutput(term.out))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("browser error: %w", err)
	}
	return nil
}
