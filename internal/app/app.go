// Package app contains the document browser model.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/kinship/internal/config"
	"github.com/zjrosen/kinship/internal/document"
	"github.com/zjrosen/kinship/internal/keys"
	"github.com/zjrosen/kinship/internal/kql"
	"github.com/zjrosen/kinship/internal/log"
	"github.com/zjrosen/kinship/internal/pubsub"
	"github.com/zjrosen/kinship/internal/ui/details"
	"github.com/zjrosen/kinship/internal/ui/kqlinput"
	"github.com/zjrosen/kinship/internal/ui/overlay"
	"github.com/zjrosen/kinship/internal/ui/styles"
	"github.com/zjrosen/kinship/internal/ui/tree"
	"github.com/zjrosen/kinship/internal/watcher"
)

// DocumentLoadedMsg carries the result of reloading the document from disk.
type DocumentLoadedMsg struct {
	Document *document.Entry
	Err      error
}

const (
	// minDetailsWidth is the narrowest window that fits the details pane.
	minDetailsWidth = 60
	paneDivider     = " │ "
)

var helpPanelStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(styles.AccentColor).
	Padding(0, 1)

// status is the message shown in the status bar.
type status struct {
	text string
	err  bool
}

// Model is the browser state.
type Model struct {
	cfg        config.Config
	docPath    string
	configPath string

	keys     keys.KeyMap
	help     help.Model
	tree     *tree.Model
	input    kqlinput.Model
	compiler *kql.Compiler

	details     details.Model
	showDetails bool
	treeWidth   int

	views     []config.ViewConfig
	viewIndex int // -1 when no view is active

	// Last query run, replayed after a reload.
	lastQuery  string
	lastSource string

	status status
	width  int
	height int

	// File watcher for auto-refresh (pubsub-based)
	watcherHandle   *watcher.Watcher
	watcherCancel   context.CancelFunc
	watcherListener *pubsub.ContinuousListener[watcher.Event]
}

// NewWithConfig creates a browser over doc. docPath is watched for changes
// when auto-refresh is enabled; configPath is where saved views are written.
func NewWithConfig(doc *document.Entry, cfg config.Config, docPath, configPath string) (Model, error) {
	km, err := keys.DefaultKeyMap().ApplyConfig(cfg.Keybindings)
	if err != nil {
		return Model{}, err
	}

	input := kqlinput.New()
	input.SetPlaceholder("press / to query")

	m := Model{
		cfg:        cfg,
		docPath:    docPath,
		configPath: configPath,
		keys:       km,
		help:       help.New(),
		tree: tree.New(doc, tree.Options{
			ShowKeys: cfg.UI.ShowKeys,
			ShowIDs:  cfg.UI.ShowIDs,
			Zones:    cfg.UI.Mouse,
		}),
		input:     input,
		compiler:  kql.NewCompiler(cfg.Query.CacheTTL),
		details:   details.New(cfg.UI.MarkdownStyle),
		views:     cfg.GetViews(),
		viewIndex: -1,
	}

	if cfg.AutoRefresh && docPath != "" {
		m.startWatcher()
	}
	return m, nil
}

func (m *Model) startWatcher() {
	w, err := watcher.New(watcher.Config{Path: m.docPath, Debounce: m.cfg.AutoRefreshDebounce})
	if err != nil {
		log.Warn(log.CatWatcher, "Auto-refresh disabled", "error", err)
		return
	}
	if err := w.Start(); err != nil {
		log.Warn(log.CatWatcher, "Auto-refresh disabled", "error", err)
		_ = w.Stop()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.watcherHandle = w
	m.watcherCancel = cancel
	m.watcherListener = pubsub.NewContinuousListener(ctx, w.Broker())
}

// Init implements tea.Model. It starts the watcher listener if auto-refresh
// is enabled.
func (m Model) Init() tea.Cmd {
	return m.listen()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := m.update(msg)
	m.syncDetails()
	return m, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.SetWidth(msg.Width - 2)
		m.help.Width = msg.Width
		m.layout()
		return m, nil

	case DocumentLoadedMsg:
		return m.handleDocumentLoaded(msg), nil

	case pubsub.Event[watcher.Event]:
		return m.handleWatcherEvent(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg), nil

	case tea.KeyMsg:
		if m.input.Focused() {
			return m.updateInput(msg)
		}
		return m.updateTree(msg)
	}

	return m, nil
}

// handleMouse selects a clicked row, focuses a row clicked while selected
// and moves the cursor with the wheel.
func (m Model) handleMouse(msg tea.MouseMsg) Model {
	if !m.cfg.UI.Mouse || m.input.Focused() || m.help.ShowAll {
		return m
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.tree.MoveCursor(-1)
	case tea.MouseButtonWheelDown:
		m.tree.MoveCursor(1)
	case tea.MouseButtonLeft:
		if msg.Action != tea.MouseActionRelease {
			return m
		}
		start, end := m.tree.VisibleRange()
		for i := start; i < end; i++ {
			z := zone.Get(tree.ZoneID(i))
			if z == nil || !z.InBounds(msg) {
				continue
			}
			if i == m.tree.Cursor() {
				if err := m.tree.Refocus(m.tree.SelectedEntry()); err != nil {
					m.setError(err.Error())
				}
			} else {
				m.tree.SetCursor(i)
			}
			break
		}
	}
	return m
}

func (m Model) handleWatcherEvent(msg pubsub.Event[watcher.Event]) (Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg.Type {
	case pubsub.ChangedEvent:
		log.Debug(log.CatUI, "Document changed, reloading", "path", msg.Payload.Path)
		cmd = loadDocument(m.docPath)
	case pubsub.RemovedEvent:
		m.setError(fmt.Sprintf("%s was removed; showing last loaded version", m.docPath))
	case pubsub.ErrorEvent:
		log.Warn(log.CatWatcher, "Watcher error received", "error", msg.Payload.Err)
		m.setError(fmt.Sprintf("watcher: %v", msg.Payload.Err))
	}
	return m, tea.Batch(cmd, m.listen())
}

func (m Model) listen() tea.Cmd {
	if m.watcherListener == nil {
		return nil
	}
	return m.watcherListener.Listen()
}

func (m Model) handleDocumentLoaded(msg DocumentLoadedMsg) Model {
	if msg.Err != nil {
		log.ErrorErr(log.CatUI, "Reload failed", msg.Err, "path", m.docPath)
		m.setError(fmt.Sprintf("reload failed: %v", msg.Err))
		return m
	}

	m.tree.SetDocument(msg.Document)
	m.setStatus("reloaded " + m.docPath)
	if m.lastQuery != "" {
		source, err := document.Lookup(msg.Document, m.lastSource)
		if err != nil {
			source = m.tree.Root()
		}
		m.runQuery(m.lastQuery, source)
	}
	return m
}

func (m Model) updateInput(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Execute):
		m.input.Blur()
		query := m.input.Value()
		if strings.TrimSpace(query) == "" {
			m.clearQuery()
			return m, nil
		}
		m.viewIndex = -1
		m.runQuery(query, m.tree.SelectedEntry())
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		m.input.Blur()
		m.clearQuery()
		m.layout()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.layout()
	return m, cmd
}

func (m Model) updateTree(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.tree.MoveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.tree.MoveCursor(1)
	case key.Matches(msg, m.keys.Top):
		m.tree.MoveCursor(-m.tree.Len())
	case key.Matches(msg, m.keys.Bottom):
		m.tree.MoveCursor(m.tree.Len())
	case key.Matches(msg, m.keys.Parent):
		m.tree.SelectParent()
	case key.Matches(msg, m.keys.Refocus):
		if err := m.tree.Refocus(m.tree.SelectedEntry()); err != nil {
			m.setError(err.Error())
		}
	case key.Matches(msg, m.keys.Back):
		if !m.tree.GoBack() {
			m.setStatus("already at the root")
		}
	case key.Matches(msg, m.keys.Original):
		m.tree.GoToOriginal()
	case key.Matches(msg, m.keys.Search):
		cmd := m.input.Focus()
		m.layout()
		return m, cmd
	case key.Matches(msg, m.keys.Clear):
		m.clearQuery()
	case key.Matches(msg, m.keys.NextMatch):
		m.tree.NextMatch()
	case key.Matches(msg, m.keys.PrevMatch):
		m.tree.PrevMatch()
	case key.Matches(msg, m.keys.NextView):
		m.applyView(m.viewIndex + 1)
	case key.Matches(msg, m.keys.PrevView):
		m.applyView(m.viewIndex - 1)
	case key.Matches(msg, m.keys.SaveView):
		m.saveView()
	case key.Matches(msg, m.keys.Reload):
		if m.docPath == "" {
			m.setError("no document file to reload")
			return m, nil
		}
		return m, loadDocument(m.docPath)
	case key.Matches(msg, m.keys.Details):
		m.toggleDetails()
	case key.Matches(msg, m.keys.DetailsDown):
		m.details = m.details.ScrollDown(max(m.details.Height()/2, 1))
	case key.Matches(msg, m.keys.DetailsUp):
		m.details = m.details.ScrollUp(max(m.details.Height()/2, 1))
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m *Model) toggleDetails() {
	if !m.showDetails && m.width > 0 && m.width < minDetailsWidth {
		m.setError("window too narrow for details")
		return
	}
	m.showDetails = !m.showDetails
	m.layout()
}

// syncDetails points the details pane at the selected entry.
func (m *Model) syncDetails() {
	if m.showDetails {
		m.details = m.details.SetEntry(m.tree.SelectedEntry())
	}
}

// runQuery compiles query through the cache and highlights its results.
func (m *Model) runQuery(query string, source *document.Entry) {
	if source == nil {
		source = m.tree.Root()
	}
	m.lastQuery = query
	m.lastSource = source.Path()

	plan, err := m.compiler.Compile(query)
	if err != nil {
		m.tree.ClearMatches()
		m.setError(err.Error())
		return
	}

	result, err := plan.RunContext(context.Background(), source)
	if err != nil {
		// Only assert queries fail here.
		m.tree.ClearMatches()
		m.setError(err.Error())
		log.Debug(log.CatUI, "Assertion failed", "query", query, "error", err)
		return
	}

	if plan.Query().Action == kql.TokenHas {
		m.tree.ClearMatches()
		m.setStatus(fmt.Sprintf("%s: %t", plan.String(), result.Found))
		return
	}

	entries := make([]*document.Entry, 0, len(result.Nodes))
	for _, n := range result.Nodes {
		if e, ok := n.(*document.Entry); ok {
			entries = append(entries, e)
		}
	}
	m.tree.SetMatches(entries)
	if !m.tree.IsMatch(m.tree.SelectedEntry()) {
		m.tree.NextMatch()
	}
	m.setStatus(styles.FormatCount(len(entries), "match", "matches"))
	log.Debug(log.CatUI, "Ran query", "query", query, "source", source.Path(), "matches", len(entries))
}

func (m *Model) clearQuery() {
	m.input.Reset()
	m.tree.ClearMatches()
	m.lastQuery = ""
	m.viewIndex = -1
	m.status = status{}
}

// applyView runs the view at index, wrapping around.
func (m *Model) applyView(index int) {
	if len(m.views) == 0 {
		return
	}
	index = ((index % len(m.views)) + len(m.views)) % len(m.views)
	view := m.views[index]
	m.viewIndex = index

	m.tree.GoToOriginal()
	if view.From != "" {
		if err := m.tree.RefocusPath(view.From); err != nil {
			m.setError(fmt.Sprintf("view %s: %v", view.Name, err))
			return
		}
	}
	m.input.SetValue(view.Query)
	m.runQuery(view.Query, m.tree.Root())
	m.layout()
}

// saveView stores the current query as a view named after its text.
func (m *Model) saveView() {
	query := strings.TrimSpace(m.input.Value())
	if query == "" {
		m.setError("nothing to save, run a query first")
		return
	}
	if m.configPath == "" {
		m.setError("no config file to save views to")
		return
	}

	view := config.ViewConfig{Name: query, Query: query}
	if root := m.tree.Root(); root != m.tree.Document() {
		view.From = root.Path()
	}

	views, err := config.AddView(m.configPath, m.views, view)
	if err != nil {
		m.setError(fmt.Sprintf("saving view: %v", err))
		return
	}
	m.views = views
	for i, v := range views {
		if v.Name == view.Name {
			m.viewIndex = i
		}
	}
	m.setStatus("saved view " + view.Name)
}

func (m *Model) setStatus(text string) {
	m.status = status{text: text}
}

func (m *Model) setError(text string) {
	m.status = status{text: text, err: true}
}

// layout gives the panes whatever height the chrome leaves. The details
// pane takes two fifths of the width when shown.
func (m *Model) layout() {
	h := m.bodyHeight()
	m.treeWidth = m.width
	if m.showDetails {
		m.treeWidth = m.width * 3 / 5
		m.details = m.details.SetSize(m.width-m.treeWidth-lipgloss.Width(paneDivider), h)
	}
	m.tree.SetSize(m.treeWidth, h)
}

func (m Model) bodyHeight() int {
	return max(m.height-m.chromeHeight(), 1)
}

func (m Model) chromeHeight() int {
	h := m.input.Height()
	if m.cfg.UI.ShowStatusBar {
		h += lipgloss.Height(m.statusView())
	}
	return h + lipgloss.Height(m.help.ShortHelpView(m.keys.ShortHelp()))
}

// View implements tea.Model.
func (m Model) View() string {
	body := strings.TrimRight(m.tree.View(), "\n")
	if m.showDetails {
		h := m.bodyHeight()
		left := lipgloss.NewStyle().Width(m.treeWidth).Render(body)
		divider := styles.MutedStyle.Render(strings.TrimRight(strings.Repeat(paneDivider+"\n", h), "\n"))
		body = lipgloss.JoinHorizontal(lipgloss.Top, left, divider, m.details.View())
	}
	if m.help.ShowAll {
		panel := helpPanelStyle.Render(m.help.FullHelpView(m.keys.FullHelp()))
		body = overlay.Center(m.width, m.bodyHeight(), panel, body)
	}

	parts := []string{body, m.inputView()}
	if m.cfg.UI.ShowStatusBar {
		parts = append(parts, m.statusView())
	}
	parts = append(parts, m.help.ShortHelpView(m.keys.ShortHelp()))

	view := strings.Join(parts, "\n")
	if m.cfg.UI.Mouse {
		return zone.Scan(view)
	}
	return view
}

func (m Model) inputView() string {
	prompt := styles.MutedStyle.Render("/ ")
	if m.input.Focused() {
		prompt = styles.MatchStyle.Render("/ ")
	}
	return prompt + m.input.View()
}

func (m Model) statusView() string {
	left := m.docPath
	if left == "" {
		left = m.tree.Document().String()
	}
	if m.viewIndex >= 0 && m.viewIndex < len(m.views) {
		left = fmt.Sprintf("[%s] %s", m.views[m.viewIndex].Name, left)
	}
	if root := m.tree.Root(); root != m.tree.Document() {
		left += " › " + root.Path()
	}

	text := m.status.text
	if m.status.err {
		width := max(m.width-lipgloss.Width(left)-4, 20)
		return styles.StatusBarStyle.Render(left + "  " + styles.ErrorStyle.Render(styles.Wrap(text, width)))
	}
	if text != "" {
		text = "  " + styles.MutedStyle.Render(text)
	}
	return styles.StatusBarStyle.Render(left + text)
}

// Status returns the current status bar message.
func (m Model) Status() string { return m.status.text }

// Tree exposes the tree component.
func (m Model) Tree() *tree.Model { return m.tree }

// Details exposes the details pane.
func (m Model) Details() details.Model { return m.details }

// DetailsShown reports whether the details pane is visible.
func (m Model) DetailsShown() bool { return m.showDetails }

// Views returns the views the browser cycles through.
func (m Model) Views() []config.ViewConfig { return m.views }

// Close releases resources held by the application.
func (m *Model) Close() error {
	// Cancel watcher subscription context (stops listener)
	if m.watcherCancel != nil {
		m.watcherCancel()
	}
	if m.watcherHandle != nil {
		return m.watcherHandle.Stop()
	}
	return nil
}

func loadDocument(path string) tea.Cmd {
	return func() tea.Msg {
		doc, err := document.Load(path)
		return DocumentLoadedMsg{Document: doc, Err: err}
	}
}
