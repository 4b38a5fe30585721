package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matheuskafuri/petitions/internal/logging"
	"github.com/matheuskafuri/petitions/internal/petition"
	"github.com/matheuskafuri/petitions/internal/presenter"
)

type focusPane int

const (
	focusList focusPane = iota
	focusDetail
)

type mode int

const (
	modeNormal mode = iota
	modeFilter
	modeHelp
	modeCredits
)

// tab is one feed screen: a presenter plus what its surface last showed.
type tab struct {
	name      string
	presenter *presenter.Presenter
	queue     *eventQueue
	activated bool

	rows   []petition.Row
	cursor int
	detail *petition.Petition
	errMsg string
}

type App struct {
	ctx    context.Context
	cancel context.CancelFunc
	log    *slog.Logger

	tabs    []*tab
	active  int
	focus   focusPane
	mode    mode
	credits string

	width  int
	height int

	filterInput  textinput.Model
	spinner      spinner.Model
	spinning     bool
	detailScroll int
	notice       string
}

// RunOpts holds all parameters for launching the TUI.
type RunOpts struct {
	Loader   presenter.Loader
	Sources  []string
	StartTab int
	Credits  string
	Observer presenter.Observer
	Log      *slog.Logger
}

func NewApp(opts RunOpts) *App {
	ti := textinput.New()
	ti.Placeholder = "Filter petitions..."
	ti.Prompt = filterPromptStyle.Render("/ ")
	ti.CharLimit = 100

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	log := opts.Log
	if log == nil {
		log = logging.Discard()
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		ctx:         ctx,
		cancel:      cancel,
		log:         log,
		credits:     opts.Credits,
		filterInput: ti,
		spinner:     sp,
	}

	popts := []presenter.Option{presenter.WithLogger(log)}
	if opts.Observer != nil {
		popts = append(popts, presenter.WithObserver(opts.Observer))
	}
	for i, name := range opts.Sources {
		q := newEventQueue()
		a.tabs = append(a.tabs, &tab{
			name:      name,
			queue:     q,
			presenter: presenter.New(opts.Loader, q, i, popts...),
		})
	}
	if opts.StartTab >= 0 && opts.StartTab < len(a.tabs) {
		a.active = opts.StartTab
	}
	return a
}

func (a *App) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(a.tabs)+1)
	for i, t := range a.tabs {
		cmds = append(cmds, waitForEvents(a.ctx, i, t.queue))
	}
	cmds = append(cmds, a.activate(a.active))
	return tea.Batch(cmds...)
}

func (a *App) current() *tab {
	if a.active < 0 || a.active >= len(a.tabs) {
		return nil
	}
	return a.tabs[a.active]
}

// activate starts a load for tab i. A load already in flight is left alone.
func (a *App) activate(i int) tea.Cmd {
	if i < 0 || i >= len(a.tabs) {
		return nil
	}
	t := a.tabs[i]
	if _, err := t.presenter.Activate(a.ctx); err != nil {
		if errors.Is(err, presenter.ErrLoadInFlight) {
			a.notice = "already loading"
		}
		return nil
	}
	t.activated = true
	t.errMsg = ""
	if i == a.active {
		a.filterInput.SetValue("")
	}
	return a.startSpinner()
}

func (a *App) startSpinner() tea.Cmd {
	if a.spinning {
		return nil
	}
	a.spinning = true
	return a.spinner.Tick
}

func (a *App) anyLoading() bool {
	for _, t := range a.tabs {
		if t.presenter.State() == presenter.StateLoading {
			return true
		}
	}
	return false
}

func (a *App) switchTab(i int) tea.Cmd {
	if i < 0 || i >= len(a.tabs) || i == a.active {
		return nil
	}
	a.active = i
	a.focus = focusList
	a.detailScroll = 0
	a.filterInput.SetValue(a.tabs[i].presenter.Query())
	if !a.tabs[i].activated {
		return a.activate(i)
	}
	return nil
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		a.notice = ""
		return a.handleKey(msg)

	case surfaceMsg:
		a.applyEvents(msg)
		if msg.tab < 0 || msg.tab >= len(a.tabs) {
			return a, nil
		}
		return a, waitForEvents(a.ctx, msg.tab, a.tabs[msg.tab].queue)

	case spinner.TickMsg:
		if a.anyLoading() {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		a.spinning = false
		return a, nil
	}

	return a, nil
}

func (a *App) applyEvents(msg surfaceMsg) {
	if msg.tab < 0 || msg.tab >= len(a.tabs) {
		return
	}
	t := a.tabs[msg.tab]
	for _, ev := range msg.events {
		switch ev.kind {
		case eventRender:
			t.rows = ev.rows
			t.errMsg = ""
			t.detail = nil
			if t.cursor >= len(t.rows) {
				t.cursor = max(0, len(t.rows)-1)
			}
			if msg.tab == a.active {
				a.detailScroll = 0
			}
		case eventDetail:
			d := ev.detail
			t.detail = &d
			if msg.tab == a.active {
				a.detailScroll = 0
			}
		case eventError:
			t.rows = nil
			t.detail = nil
			t.cursor = 0
			t.errMsg = ev.message
		}
	}
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return a.quit()
	}

	switch a.mode {
	case modeFilter:
		return a.handleFilterKey(msg)
	case modeHelp, modeCredits:
		a.mode = modeNormal
		return a, nil
	}

	t := a.current()
	if t == nil {
		if msg.String() == "q" {
			return a.quit()
		}
		return a, nil
	}

	switch msg.String() {
	case "q":
		return a.quit()
	case "j", "down":
		if a.focus == focusList && t.cursor < len(t.rows)-1 {
			t.cursor++
		} else if a.focus == focusDetail {
			a.detailScroll++
		}
		return a, nil
	case "k", "up":
		if a.focus == focusList && t.cursor > 0 {
			t.cursor--
		} else if a.focus == focusDetail && a.detailScroll > 0 {
			a.detailScroll--
		}
		return a, nil
	case "enter", "o":
		if _, err := t.presenter.Select(t.cursor); err != nil {
			a.log.Debug("select", "row", t.cursor, "err", err)
			return a, nil
		}
		a.focus = focusDetail
		return a, nil
	case "esc":
		a.focus = focusList
		return a, nil
	case "tab":
		return a, a.switchTab((a.active + 1) % len(a.tabs))
	case "shift+tab":
		return a, a.switchTab((a.active - 1 + len(a.tabs)) % len(a.tabs))
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		return a, a.switchTab(int(msg.String()[0] - '1'))
	case "/":
		if t.presenter.State() != presenter.StateLoaded {
			a.notice = "nothing to filter yet"
			return a, nil
		}
		a.mode = modeFilter
		a.filterInput.SetValue(t.presenter.Query())
		a.filterInput.CursorEnd()
		a.filterInput.Focus()
		return a, textinput.Blink
	case "r":
		t.cursor = 0
		return a, a.activate(a.active)
	case "c":
		a.mode = modeCredits
		return a, nil
	case "?":
		a.mode = modeHelp
		return a, nil
	}

	return a, nil
}

func (a *App) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	t := a.current()
	switch msg.String() {
	case "esc":
		a.mode = modeNormal
		a.filterInput.Blur()
		a.filterInput.SetValue(t.presenter.Query())
		return a, nil
	case "enter":
		a.mode = modeNormal
		a.filterInput.Blur()
		if err := t.presenter.ApplyFilter(a.filterInput.Value()); err != nil {
			a.notice = err.Error()
			return a, nil
		}
		t.cursor = 0
		a.focus = focusList
		return a, nil
	}

	var cmd tea.Cmd
	a.filterInput, cmd = a.filterInput.Update(msg)
	return a, cmd
}

func (a *App) quit() (tea.Model, tea.Cmd) {
	a.Close()
	return a, tea.Quit
}

// Close tears down every tab's presenter. Safe to call more than once.
func (a *App) Close() {
	for _, t := range a.tabs {
		t.presenter.Close()
	}
	a.cancel()
}

func (a *App) View() string {
	if a.width == 0 {
		return lipgloss.NewStyle().Foreground(colorAccent).Render("  petitions")
	}

	if a.mode == modeHelp {
		return a.renderHelp()
	}
	if a.mode == modeCredits {
		return a.renderCredits()
	}

	t := a.current()
	if t == nil {
		return lipglossCenter("No feed sources configured", a.width, a.height)
	}

	headerHeight := 1
	tabsHeight := 1
	statusHeight := 1
	contentHeight := a.height - headerHeight - tabsHeight - statusHeight - 2 // borders

	listWidth := int(float64(a.width) * 0.4)
	detailWidth := a.width - listWidth

	if contentHeight < 3 {
		contentHeight = 3
	}

	state := t.presenter.State()

	// Header
	headerLeft := headerStyle.Render("petitions")
	var headerRight string
	if state == presenter.StateLoaded {
		headerRight = headerCountStyle.Render(fmt.Sprintf("%d shown ", len(t.rows)))
	}
	headerGap := a.width - lipgloss.Width(headerLeft) - lipgloss.Width(headerRight)
	if headerGap < 0 {
		headerGap = 0
	}
	header := headerLeft + fmt.Sprintf("%*s", headerGap, "") + headerRight

	// Tabs, or the filter prompt while typing
	bar := renderTabs(a.tabNames(), a.active, a.width)
	if a.mode == modeFilter {
		bar = a.filterInput.View()
	}

	// List pane
	innerListW := listWidth - 4
	var listContent string
	switch state {
	case presenter.StateLoading, presenter.StateIdle:
		listContent = lipglossCenter(a.spinner.View()+" Loading petitions...", innerListW, contentHeight)
	case presenter.StateError:
		listContent = renderError(presenter.LoadErrorTitle, t.errMsg, innerListW, contentHeight)
	default:
		listContent = renderList(t.rows, t.cursor, contentHeight, innerListW)
	}

	listStyle := listPaneStyle
	if a.focus == focusList {
		listStyle = listPaneActiveStyle
	}
	listPane := listStyle.Width(listWidth - 2).Height(contentHeight).Render(listContent)

	// Detail pane
	innerDetailW := detailWidth - 4
	detailContent := renderDetail(t.detail, innerDetailW, contentHeight, a.detailScroll)
	detailStyle := detailPaneStyle
	if a.focus == focusDetail {
		detailStyle = detailPaneActiveStyle
	}
	detailPane := detailStyle.Width(detailWidth - 2).Height(contentHeight).Render(detailContent)

	content := lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)

	status := renderStatusBar(state, len(t.rows), len(t.presenter.All()), t.presenter.Query(), a.width, a.mode == modeFilter)
	if a.notice != "" {
		status = lipgloss.NewStyle().Foreground(colorAccent).Render(" " + a.notice)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, bar, content, status)
}

func (a *App) tabNames() []string {
	names := make([]string, len(a.tabs))
	for i, t := range a.tabs {
		names[i] = t.name
	}
	return names
}

func (a *App) renderCredits() string {
	title := lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render("Info")
	body := wrapText(a.credits, 50)
	card := helpCardStyle.Render(title + "\n\n" + body + "\n\n" + helpDimStyle.Render("press any key"))
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card)
}

func (a *App) renderHelp() string {
	title := lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render("petitions")
	dim := helpDimStyle

	var tabs strings.Builder
	for i, t := range a.tabs {
		fmt.Fprintf(&tabs, "  %d             %s\n", i+1, t.name)
	}

	help := title + dim.Render(" · Keyboard Shortcuts") + "\n\n" +
		dim.Render("Navigation") + "\n" +
		"  j/k, ↑/↓     Move through petitions\n" +
		"  enter, o      Open the selected petition\n" +
		"  esc           Back to the list\n" +
		"  tab           Next feed\n" +
		tabs.String() + "\n" +
		dim.Render("Actions") + "\n" +
		"  /             Filter by title or body\n" +
		"  r             Reload the current feed\n" +
		"  c             Credits\n\n" +
		dim.Render("General") + "\n" +
		"  ?             Toggle this help\n" +
		"  q, ctrl+c    Quit"

	card := helpCardStyle.Render(help)

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card)
}

// Run starts the TUI application.
func Run(opts RunOpts) error {
	app := NewApp(opts)
	defer app.Close()
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
