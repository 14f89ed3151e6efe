package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/jj-tsao/reelix-ai-sub001/internal/api"
	"github.com/jj-tsao/reelix-ai-sub001/internal/config"
	"github.com/jj-tsao/reelix-ai-sub001/internal/sse"
	"github.com/jj-tsao/reelix-ai-sub001/internal/stream"
	"github.com/jj-tsao/reelix-ai-sub001/internal/watchlist"
)

// ─── App mode ───────────────────────────────────────────────────────────────

type appMode int

const (
	modeIdle appMode = iota
	modeStreaming
	modeLoginServer
	modeLoginUser
	modeLoginPass
	modeRating
)

type streamKind int

const (
	streamNone streamKind = iota
	streamRecommend
	streamDiscover
)

// ─── Slash command registry ─────────────────────────────────────────────────

type slashCmd struct {
	name string
	desc string
}

var slashCommands = []slashCmd{
	{"/add", "Add a pick to your watchlist"},
	{"/clear", "Clear the screen"},
	{"/config", "Show current configuration"},
	{"/discover", "Stream live rating updates"},
	{"/help", "Show all commands"},
	{"/login", "Login to a Reelix server"},
	{"/quit", "Exit Reelix"},
	{"/rate", "Rate a watched pick 1-10"},
	{"/remove", "Remove a pick from your watchlist"},
	{"/seen", "Mark a pick as watched"},
	{"/set", "Set media kind or server"},
	{"/skip", "Dismiss the rating prompt"},
	{"/unrate", "Clear a pick's rating"},
	{"/want", "Mark a pick as want-to-watch"},
	{"/watchlist", "Show watchlist state for current picks"},
}

// ─── Model ──────────────────────────────────────────────────────────────────

type model struct {
	width  int
	height int

	// Bubble Tea components
	input   textinput.Model
	spinner spinner.Model

	// App state
	mode    appMode
	cfg     *config.Config
	client  api.ReelixAPI
	watch   *watchlist.Manager
	log     zerolog.Logger
	version string
	profile string

	// Recommendation stream state. The session is only touched from
	// Update; the network goroutine just forwards raw chunks.
	kind        streamKind
	session     *stream.Session
	records     []stream.Record
	chatBuffer  string // partial line buffer for chat deltas
	chatStarted bool
	cancel      context.CancelFunc

	// Discover feed state
	feed       *sse.Parser
	lastStatus string
	whyBuf     string // partial line buffer for why updates
	whyMedia   int
	whyShown   map[int]bool

	// Rating prompt state
	ratingIdx int // index into records being rated, -1 when closed

	// Login flow state
	loginServer string
	loginUser   string

	// UI state
	ready        bool
	cmdMenuIdx   int
	cmdMenuOpen  bool
	lastInputVal string

	// Command history
	history      []string
	historyIdx   int
	historySaved string
}

func initialModel(version, profile string, log zerolog.Logger) model {
	ti := textinput.New()
	ti.Placeholder = "Describe what you feel like watching, or type /help..."
	ti.Focus()
	ti.CharLimit = 4096
	ti.Prompt = "❯ "
	ti.PromptStyle = promptSymbol
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(colorAmber)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorAmber)

	cfg, _ := config.Load(profile)

	var client api.ReelixAPI
	var watch *watchlist.Manager
	if cfg != nil && cfg.Server != "" {
		c := api.NewClient(cfg, log)
		client = c
		watch = watchlist.NewManager(c, c, log)
	}

	return model{
		input:      ti,
		spinner:    sp,
		version:    version,
		profile:    profile,
		log:        log,
		cfg:        cfg,
		client:     client,
		watch:      watch,
		mode:       modeIdle,
		ratingIdx:  -1,
		whyMedia:   -1,
		whyShown:   make(map[int]bool),
		history:    make([]string, 0),
		historyIdx: -1,
	}
}

// ─── Init ───────────────────────────────────────────────────────────────────

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
	)
}

// ─── Update ─────────────────────────────────────────────────────────────────

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = m.width - 6

		if !m.ready {
			m.ready = true
			welcome := renderWelcome(m.version, serverStr(m.cfg), kindStr(m.cfg), m.width)
			cmds = append(cmds, tea.Println(welcome))
		}

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			if m.mode == modeStreaming {
				return m.cancelStream()
			}
			return m, tea.Quit

		case tea.KeyEsc:
			if m.mode == modeStreaming {
				return m.cancelStream()
			}
			if m.mode == modeLoginServer || m.mode == modeLoginUser || m.mode == modeLoginPass {
				m.mode = modeIdle
				m.resetInput()
				cmds = append(cmds, tea.Println(warnMsgStyle.Render("  ! Login cancelled.")))
				return m, tea.Batch(cmds...)
			}
			if m.mode == modeRating {
				return m.dismissRatingPrompt()
			}
			if m.cmdMenuOpen {
				m.cmdMenuOpen = false
				m.cmdMenuIdx = 0
				return m, nil
			}

		case tea.KeyUp:
			if m.mode == modeIdle {
				if m.cmdMenuOpen {
					matches := matchCommands(m.input.Value())
					if len(matches) > 0 {
						m.cmdMenuIdx--
						if m.cmdMenuIdx < 0 {
							m.cmdMenuIdx = len(matches) - 1
						}
						return m, nil
					}
				} else if len(m.history) > 0 {
					if m.historyIdx == -1 {
						m.historySaved = m.input.Value()
						m.historyIdx = len(m.history) - 1
					} else {
						m.historyIdx--
						if m.historyIdx < 0 {
							m.historyIdx = 0
						}
					}
					m.input.SetValue(m.history[m.historyIdx])
					m.input.CursorEnd()
					return m, nil
				}
			}

		case tea.KeyDown:
			if m.mode == modeIdle {
				if m.cmdMenuOpen {
					matches := matchCommands(m.input.Value())
					if len(matches) > 0 {
						m.cmdMenuIdx++
						if m.cmdMenuIdx >= len(matches) {
							m.cmdMenuIdx = 0
						}
						return m, nil
					}
				} else if m.historyIdx != -1 {
					m.historyIdx++
					if m.historyIdx >= len(m.history) {
						m.historyIdx = -1
						m.input.SetValue(m.historySaved)
						m.historySaved = ""
					} else {
						m.input.SetValue(m.history[m.historyIdx])
					}
					m.input.CursorEnd()
					return m, nil
				}
			}

		case tea.KeyTab:
			if m.mode == modeIdle && m.cmdMenuOpen {
				matches := matchCommands(m.input.Value())
				if len(matches) > 0 {
					idx := m.cmdMenuIdx
					if idx < 0 || idx >= len(matches) {
						idx = 0
					}
					m.input.SetValue(matches[idx].name + " ")
					m.input.CursorEnd()
					m.cmdMenuOpen = false
					m.cmdMenuIdx = 0
				}
				return m, nil
			}

		case tea.KeyEnter:
			if m.mode == modeIdle && m.cmdMenuOpen && m.cmdMenuIdx >= 0 {
				matches := matchCommands(m.input.Value())
				if m.cmdMenuIdx < len(matches) {
					m.input.SetValue(matches[m.cmdMenuIdx].name + " ")
					m.input.CursorEnd()
					m.cmdMenuOpen = false
					m.cmdMenuIdx = 0
					return m, nil
				}
			}

			value := strings.TrimSpace(m.input.Value())
			if value == "" && m.mode != modeRating {
				return m, nil
			}

			if value != "" && (len(m.history) == 0 || m.history[len(m.history)-1] != value) {
				m.history = append(m.history, value)
				if len(m.history) > 1000 {
					m.history = m.history[len(m.history)-1000:]
				}
			}
			m.historyIdx = -1
			m.historySaved = ""

			m.input.SetValue("")
			m.cmdMenuOpen = false
			m.cmdMenuIdx = 0

			switch m.mode {
			case modeLoginServer:
				return m.handleLoginServerSubmit(value)
			case modeLoginUser:
				return m.handleLoginUserSubmit(value)
			case modeLoginPass:
				return m.handleLoginPassSubmit(value)
			case modeRating:
				return m.handleRatingSubmit(value)
			default:
				return m.dispatchInput(value)
			}
		}

	// ── Stream messages ───────────────────────────────────────────────
	case streamChunkMsg:
		var printCmd tea.Cmd
		switch m.kind {
		case streamRecommend:
			printCmd = m.renderStreamEvents(m.session.Feed(msg.chunk))
		case streamDiscover:
			printCmd = m.renderFeedFrames(m.feed.Feed(msg.chunk))
		}
		if printCmd != nil {
			cmds = append(cmds, printCmd)
		}
		if activeStreamCh != nil {
			cmds = append(cmds, waitForStream(activeStreamCh))
		}
		return m, tea.Batch(cmds...)

	case streamDoneMsg:
		return m.handleStreamDone()

	case streamErrMsg:
		return m.handleStreamErr(msg.err)

	// ── Async results ─────────────────────────────────────────────────
	case loginResultMsg:
		return m.handleLoginResult(msg)

	case watchSyncedMsg:
		return m.handleWatchSynced(msg)

	case watchOpMsg:
		return m.handleWatchOp(msg)
	}

	// Update sub-components
	var cmd tea.Cmd

	if m.mode != modeStreaming {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.spinner, cmd = m.spinner.Update(msg)
	cmds = append(cmds, cmd)

	// Track input changes to open/close command menu and reset selection
	newVal := m.input.Value()
	if newVal != m.lastInputVal {
		m.lastInputVal = newVal
		if m.historyIdx != -1 {
			if m.historyIdx < len(m.history) && m.history[m.historyIdx] != newVal {
				m.historyIdx = -1
				m.historySaved = ""
			}
		}
		if strings.HasPrefix(newVal, "/") && m.mode == modeIdle {
			m.cmdMenuOpen = true
			m.cmdMenuIdx = 0
		} else {
			m.cmdMenuOpen = false
			m.cmdMenuIdx = 0
		}
	}

	return m, tea.Batch(cmds...)
}

// ─── Stream handling ────────────────────────────────────────────────────────

func (m model) cancelStream() (tea.Model, tea.Cmd) {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.mode = modeIdle
	m.kind = streamNone
	activeStreamCh = nil
	m.chatBuffer = ""
	m.whyBuf = ""
	m.lastStatus = ""
	return m, tea.Println(warnMsgStyle.Render("  ! Stream cancelled."))
}

// renderStreamEvents turns session events into print commands.
func (m *model) renderStreamEvents(events []stream.Event) tea.Cmd {
	var printCmds []tea.Cmd

	for _, ev := range events {
		switch ev.Type {
		case stream.EventIntro:
			printCmds = append(printCmds, tea.Println(""))
			for _, line := range strings.Split(ev.Text, "\n") {
				printCmds = append(printCmds, tea.Println("  "+renderMarkdownText(line)))
			}

		case stream.EventRecord:
			m.records = append(m.records, ev.Record)
			entry := m.watchEntry(len(m.records) - 1)
			printCmds = append(printCmds,
				tea.Println(""),
				tea.Println(renderRecordCard(len(m.records), ev.Record, entry)),
			)

		case stream.EventChatDelta:
			if !m.chatStarted {
				m.chatStarted = true
				printCmds = append(printCmds, tea.Println(""))
			}
			combined := m.chatBuffer + ev.Text
			lines := strings.Split(combined, "\n")
			for i, line := range lines {
				if i < len(lines)-1 {
					printCmds = append(printCmds, tea.Println("  "+renderMarkdownText(line)))
				} else {
					m.chatBuffer = line
				}
			}

		case stream.EventEpilogue:
			printCmds = append(printCmds, tea.Println(""))
			for _, line := range strings.Split(ev.Text, "\n") {
				printCmds = append(printCmds, tea.Println("  "+renderMarkdownText(line)))
			}
		}
	}

	if len(printCmds) > 0 {
		return tea.Sequence(printCmds...)
	}
	return nil
}

// renderFeedFrames turns discover SSE frames into print commands.
func (m *model) renderFeedFrames(frames []sse.Frame) tea.Cmd {
	var printCmds []tea.Cmd

	flushWhy := func() {
		if strings.TrimSpace(m.whyBuf) != "" {
			printCmds = append(printCmds, tea.Println("     "+renderMarkdownText(m.whyBuf)))
		}
		m.whyBuf = ""
	}

	for _, f := range frames {
		switch f.Event {
		case sse.EventStarted:
			printCmds = append(printCmds,
				tea.Println(""),
				tea.Println(recordTitleStyle.Render("  Discover feed")),
			)

		case sse.EventProgress:
			if p := sse.ParseProgress(f.Data); p != nil && p.Message != "" {
				m.lastStatus = p.Message
			}

		case sse.EventWhyDelta:
			w := sse.ParseWhyDelta(f.Data)
			if w == nil {
				continue
			}
			if m.whyMedia != w.MediaID {
				flushWhy()
				m.whyMedia = w.MediaID
			}
			if !m.whyShown[w.MediaID] {
				m.whyShown[w.MediaID] = true
				printCmds = append(printCmds, tea.Println("  "+recordMetaStyle.Render(feedHeader(w))))
			}
			combined := m.whyBuf + w.Delta
			lines := strings.Split(combined, "\n")
			for i, line := range lines {
				if i < len(lines)-1 {
					printCmds = append(printCmds, tea.Println("     "+renderMarkdownText(line)))
				} else {
					m.whyBuf = line
				}
			}

		case sse.EventDone:
			flushWhy()
			printCmds = append(printCmds, tea.Println(successMsgStyle.Render("  ✓ Feed complete")))

		case sse.EventError:
			flushWhy()
			msg := "stream error"
			if p := sse.ParseError(f.Data); p != nil && p.Message != "" {
				msg = p.Message
			}
			printCmds = append(printCmds, tea.Println(errorMsgStyle.Render("  ✗ "+msg)))
		}
	}

	if len(printCmds) > 0 {
		return tea.Sequence(printCmds...)
	}
	return nil
}

func feedHeader(w *sse.WhyDelta) string {
	line := fmt.Sprintf("✎ #%d", w.MediaID)
	if w.IMDBRating != nil {
		line += fmt.Sprintf("  IMDb %.1f", *w.IMDBRating)
	}
	if w.RottenTomatoes != nil {
		line += fmt.Sprintf("  RT %.0f%%", *w.RottenTomatoes)
	}
	return line
}

// handleStreamErr ends a stream that died mid-flight. The session still
// owes its tail: drain Finish/Flush so buffered chat and the closing
// remarks are not lost, then report the error.
func (m model) handleStreamErr(err error) (tea.Model, tea.Cmd) {
	kind := m.kind
	m.mode = modeIdle
	m.kind = streamNone
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	activeStreamCh = nil
	m.lastStatus = ""

	var cmds []tea.Cmd

	switch kind {
	case streamRecommend:
		if printCmd := m.renderStreamEvents(m.session.Finish()); printCmd != nil {
			cmds = append(cmds, printCmd)
		}
		if m.chatBuffer != "" {
			cmds = append(cmds, tea.Println("  "+renderMarkdownText(m.chatBuffer)))
			m.chatBuffer = ""
		}
	case streamDiscover:
		if printCmd := m.renderFeedFrames(m.feed.Flush()); printCmd != nil {
			cmds = append(cmds, printCmd)
		}
		if strings.TrimSpace(m.whyBuf) != "" {
			cmds = append(cmds, tea.Println("     "+renderMarkdownText(m.whyBuf)))
			m.whyBuf = ""
		}
	}

	cmds = append(cmds, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ Stream error: %v", err))))
	return m, tea.Sequence(cmds...)
}

func (m model) handleStreamDone() (tea.Model, tea.Cmd) {
	kind := m.kind
	m.mode = modeIdle
	m.kind = streamNone
	m.cancel = nil
	activeStreamCh = nil
	m.lastStatus = ""

	var cmds []tea.Cmd

	switch kind {
	case streamRecommend:
		if printCmd := m.renderStreamEvents(m.session.Finish()); printCmd != nil {
			cmds = append(cmds, printCmd)
		}
		if m.chatBuffer != "" {
			cmds = append(cmds, tea.Println("  "+renderMarkdownText(m.chatBuffer)))
			m.chatBuffer = ""
		}
		cmds = append(cmds, tea.Println(""))

		if len(m.records) > 0 {
			records := m.records
			client := m.client
			cmds = append(cmds, func() tea.Msg {
				client.LogRecommendations(records)
				return nil
			})

			if m.watch != nil {
				items := m.recordItems()
				m.watch.Reset(items)
				watch := m.watch
				cmds = append(cmds,
					tea.Println(dimStyle.Render("  Syncing watchlist...")),
					func() tea.Msg {
						return watchSyncedMsg{err: watch.Init(context.Background(), items)}
					},
				)
			}
		}

	case streamDiscover:
		if printCmd := m.renderFeedFrames(m.feed.Flush()); printCmd != nil {
			cmds = append(cmds, printCmd)
		}
		if strings.TrimSpace(m.whyBuf) != "" {
			cmds = append(cmds, tea.Println("     "+renderMarkdownText(m.whyBuf)))
			m.whyBuf = ""
		}
		cmds = append(cmds, tea.Println(""))
	}

	return m, tea.Sequence(cmds...)
}

// ─── View ───────────────────────────────────────────────────────────────────
//
// Inline mode: View() only shows the input prompt + hints.
// All output is printed above via tea.Println.

func (m model) View() string {
	if !m.ready {
		return ""
	}

	var s strings.Builder

	if m.mode == modeStreaming {
		status := "Finding picks..."
		if m.kind == streamDiscover {
			status = "Listening for updates..."
		}
		if m.lastStatus != "" {
			status = m.lastStatus
		}
		s.WriteString(m.spinner.View() + " " + statusStyle.Render(status))
	} else {
		s.WriteString(m.input.View())
	}
	s.WriteString("\n")

	sepWidth := min(m.width, 80)
	if sepWidth < 20 {
		sepWidth = 20
	}
	s.WriteString(separatorStyle.Render(strings.Repeat("─", sepWidth)))
	s.WriteString("\n")

	s.WriteString(m.renderHints())

	return s.String()
}

// ─── Hint bar ───────────────────────────────────────────────────────────────

func (m model) renderHints() string {
	if m.mode == modeStreaming {
		return hintBarStyle.Render("  Esc cancel")
	}

	if m.mode == modeLoginServer || m.mode == modeLoginUser || m.mode == modeLoginPass {
		return hintBarStyle.Render("  Enter submit   Esc cancel")
	}

	if m.mode == modeRating {
		return hintBarStyle.Render("  1-10 rate   Enter skip   Esc skip")
	}

	if m.cmdMenuOpen {
		val := m.input.Value()
		matches := matchCommands(val)
		if len(matches) > 0 {
			return m.renderCommandMenu(matches)
		}
	}

	return hintBarStyle.Render("  ? for help")
}

// renderCommandMenu renders a vertical list of matching commands.
func (m model) renderCommandMenu(matches []slashCmd) string {
	maxLen := 0
	for _, c := range matches {
		if len(c.name) > maxLen {
			maxLen = len(c.name)
		}
	}

	var lines []string
	for i, c := range matches {
		padded := c.name
		for len(padded) < maxLen {
			padded += " "
		}

		var line string
		if i == m.cmdMenuIdx {
			line = "  " + cmdSelectedNameStyle.Render(padded) + "  " + cmdSelectedDescStyle.Render(c.desc)
		} else {
			line = "  " + cmdNameStyle.Render(padded) + "  " + cmdDescStyle.Render(c.desc)
		}
		lines = append(lines, line)
	}

	lines = append(lines, hintBarStyle.Render("  ↑↓ navigate  Tab/Enter select"))

	return strings.Join(lines, "\n")
}

// matchCommands returns all slash commands matching a prefix.
func matchCommands(prefix string) []slashCmd {
	prefix = strings.ToLower(prefix)
	if prefix == "/" {
		return slashCommands
	}
	var matches []slashCmd
	for _, c := range slashCommands {
		if strings.HasPrefix(c.name, prefix) {
			matches = append(matches, c)
		}
	}
	return matches
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func (m *model) resetInput() {
	m.input.Placeholder = "Describe what you feel like watching, or type /help..."
	m.input.SetValue("")
	m.input.EchoMode = textinput.EchoNormal
}

func (m model) mediaKind() string {
	if m.cfg != nil && m.cfg.MediaKind != "" {
		return m.cfg.MediaKind
	}
	return "movie"
}

// recordItem maps a 1-based pick number to its watchlist item.
func (m model) recordItem(num int) (watchlist.Item, stream.Record, bool) {
	if num < 1 || num > len(m.records) {
		return watchlist.Item{}, stream.Record{}, false
	}
	rec := m.records[num-1]
	if rec.MediaID < 0 {
		return watchlist.Item{}, rec, false
	}
	return watchlist.Item{MediaID: rec.MediaID, Kind: m.mediaKind()}, rec, true
}

func (m model) recordItems() []watchlist.Item {
	var items []watchlist.Item
	for _, rec := range m.records {
		if rec.MediaID >= 0 {
			items = append(items, watchlist.Item{MediaID: rec.MediaID, Kind: m.mediaKind()})
		}
	}
	return items
}

// watchEntry reads the current watchlist entry for a 0-based record index.
func (m model) watchEntry(idx int) watchlist.Entry {
	if m.watch == nil || idx < 0 || idx >= len(m.records) {
		return watchlist.Entry{State: watchlist.StateNotAdded}
	}
	rec := m.records[idx]
	if rec.MediaID < 0 {
		return watchlist.Entry{State: watchlist.StateNotAdded}
	}
	item := watchlist.Item{MediaID: rec.MediaID, Kind: m.mediaKind()}
	return m.watch.Get(item.Key())
}

func serverStr(cfg *config.Config) string {
	if cfg == nil {
		return ""
	}
	return cfg.Server
}

func kindStr(cfg *config.Config) string {
	if cfg == nil {
		return ""
	}
	return cfg.MediaKind
}
