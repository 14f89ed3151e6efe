package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jj-tsao/reelix-ai-sub001/internal/api"
	"github.com/jj-tsao/reelix-ai-sub001/internal/config"
	"github.com/jj-tsao/reelix-ai-sub001/internal/service"
	"github.com/jj-tsao/reelix-ai-sub001/internal/sse"
	"github.com/jj-tsao/reelix-ai-sub001/internal/stream"
	"github.com/jj-tsao/reelix-ai-sub001/internal/watchlist"
)

// ─── Input dispatcher ───────────────────────────────────────────────────────

func (m model) dispatchInput(input string) (tea.Model, tea.Cmd) {
	if input == "?" {
		return m.cmdHelp()
	}
	if strings.HasPrefix(input, "/") {
		return m.dispatchCommand(input)
	}
	// Default: treat as a recommendation question
	return m.cmdAsk(input)
}

func (m model) dispatchCommand(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "/help", "/h":
		return m.cmdHelp()
	case "/login":
		return m.cmdLogin(args)
	case "/config":
		return m.cmdConfig()
	case "/set":
		return m.cmdSet(args)
	case "/discover":
		return m.cmdDiscover()
	case "/watchlist", "/wl":
		return m.cmdWatchlist()
	case "/add":
		return m.cmdAdd(args)
	case "/want":
		return m.cmdWant(args)
	case "/seen":
		return m.cmdSeen(args)
	case "/rate":
		return m.cmdRate(args)
	case "/skip":
		return m.cmdSkip(args)
	case "/unrate":
		return m.cmdUnrate(args)
	case "/remove", "/rm":
		return m.cmdRemove(args)
	case "/clear":
		return m, tea.ClearScreen
	case "/quit", "/exit", "/q":
		return m, tea.Quit
	default:
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ Unknown command: %s — type /help", cmd)))
	}
}

// ─── /help ──────────────────────────────────────────────────────────────────

func (m model) cmdHelp() (tea.Model, tea.Cmd) {
	pad := func(s string, w int) string {
		for len(s) < w {
			s += " "
		}
		return s
	}

	lines := []tea.Cmd{
		tea.Println(""),
		tea.Println(dimStyle.Render("  Shortcuts:")),
		tea.Println(""),
		tea.Println("  " + pad(hintKeyStyle.Render("/login <url>"), 30) + dimStyle.Render("Login to a Reelix server")),
		tea.Println("  " + pad(hintKeyStyle.Render("/discover"), 30) + dimStyle.Render("Stream live rating updates")),
		tea.Println("  " + pad(hintKeyStyle.Render("/watchlist"), 30) + dimStyle.Render("Show watchlist state for current picks")),
		tea.Println("  " + pad(hintKeyStyle.Render("/add <n>"), 30) + dimStyle.Render("Add pick n to your watchlist")),
		tea.Println("  " + pad(hintKeyStyle.Render("/want <n>"), 30) + dimStyle.Render("Mark pick n want-to-watch")),
		tea.Println("  " + pad(hintKeyStyle.Render("/seen <n>"), 30) + dimStyle.Render("Mark pick n watched")),
		tea.Println("  " + pad(hintKeyStyle.Render("/rate <n> <1-10>"), 30) + dimStyle.Render("Rate pick n")),
		tea.Println("  " + pad(hintKeyStyle.Render("/unrate <n>"), 30) + dimStyle.Render("Clear pick n's rating")),
		tea.Println("  " + pad(hintKeyStyle.Render("/remove <n>"), 30) + dimStyle.Render("Remove pick n from your watchlist")),
		tea.Println("  " + pad(hintKeyStyle.Render("/set kind <movie|tv>"), 30) + dimStyle.Render("Switch media kind")),
		tea.Println("  " + pad(hintKeyStyle.Render("/config"), 30) + dimStyle.Render("Show current configuration")),
		tea.Println("  " + pad(hintKeyStyle.Render("/clear"), 30) + dimStyle.Render("Clear the screen")),
		tea.Println("  " + pad(hintKeyStyle.Render("/quit"), 30) + dimStyle.Render("Exit Reelix")),
		tea.Println(""),
		tea.Println(dimStyle.Render("  Or just describe what you feel like watching!")),
		tea.Println(""),
	}
	return m, tea.Sequence(lines...)
}

// ─── /login ─────────────────────────────────────────────────────────────────

func (m model) cmdLogin(args []string) (tea.Model, tea.Cmd) {
	if len(args) > 0 {
		m.loginServer = args[0]
		m.mode = modeLoginUser
		m.input.Placeholder = "Username / Email..."
		m.input.SetValue("")
		return m, tea.Println(dimStyle.Render(fmt.Sprintf("  Logging in to %s", m.loginServer)))
	}

	m.mode = modeLoginServer
	m.input.Placeholder = "Server URL (e.g. https://api.reelix.app)..."
	m.input.SetValue("")
	return m, tea.Println(dimStyle.Render("  Enter the Reelix server URL:"))
}

func (m model) handleLoginServerSubmit(value string) (tea.Model, tea.Cmd) {
	m.loginServer = value
	m.mode = modeLoginUser
	m.input.Placeholder = "Username / Email..."
	m.input.SetValue("")
	return m, tea.Sequence(
		tea.Println(dimStyle.Render(fmt.Sprintf("  Server: %s", value))),
		tea.Println(dimStyle.Render("  Enter your username/email:")),
	)
}

func (m model) handleLoginUserSubmit(value string) (tea.Model, tea.Cmd) {
	m.loginUser = value
	m.mode = modeLoginPass
	m.input.Placeholder = "Password..."
	m.input.SetValue("")
	m.input.EchoCharacter = '•'
	m.input.EchoMode = textinput.EchoPassword
	return m, tea.Sequence(
		tea.Println(dimStyle.Render(fmt.Sprintf("  User: %s", value))),
		tea.Println(dimStyle.Render("  Enter your password:")),
	)
}

type loginResultMsg struct {
	cfg *config.Config
	err error
}

func (m model) handleLoginPassSubmit(value string) (tea.Model, tea.Cmd) {
	password := value
	m.input.EchoMode = textinput.EchoNormal
	m.input.SetValue("")
	m.input.Placeholder = "Authenticating..."

	serverURL := strings.TrimRight(m.loginServer, "/")
	username := m.loginUser
	profile := m.profile
	log := m.log

	return m, tea.Sequence(
		tea.Println(statusStyle.Render("  ⟳ Authenticating...")),
		func() tea.Msg {
			client := api.NewClient(&config.Config{Server: serverURL}, log)

			loginResp, err := client.Login(username, password)
			if err != nil {
				return loginResultMsg{err: fmt.Errorf("authentication failed: %w", err)}
			}

			cfg, err := config.Load(profile)
			if err != nil {
				return loginResultMsg{err: err}
			}

			cfg.Server = serverURL
			cfg.Username = username
			cfg.Token = loginResp.AccessToken

			if err := cfg.Save(); err != nil {
				return loginResultMsg{err: err}
			}

			return loginResultMsg{cfg: cfg}
		},
	)
}

func (m model) handleLoginResult(msg loginResultMsg) (tea.Model, tea.Cmd) {
	m.mode = modeIdle
	m.resetInput()

	if msg.err != nil {
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ %v", msg.err)))
	}

	m.cfg = msg.cfg
	client := api.NewClient(m.cfg, m.log)
	m.client = client
	m.watch = watchlist.NewManager(client, client, m.log)

	m.loginServer = ""
	m.loginUser = ""
	return m, tea.Sequence(
		tea.Println(successMsgStyle.Render("  ✓ Logged in successfully!")),
		tea.Println(dimStyle.Render(fmt.Sprintf("    Server: %s", m.cfg.Server))),
		tea.Println(dimStyle.Render(fmt.Sprintf("    User: %s", m.cfg.Username))),
		tea.Println(""),
	)
}

// ─── /config ────────────────────────────────────────────────────────────────

func (m model) cmdConfig() (tea.Model, tea.Cmd) {
	if m.cfg == nil {
		return m, tea.Println(warnMsgStyle.Render("  ! No configuration found. Run /login first."))
	}

	val := func(s string) string {
		if s == "" {
			return dimStyle.Render("(not set)")
		}
		return s
	}
	token := dimStyle.Render("(not set)")
	if m.cfg.Token != "" {
		end := 12
		if len(m.cfg.Token) < end {
			end = len(m.cfg.Token)
		}
		token = m.cfg.Token[:end] + "..."
	}

	return m, tea.Sequence(
		tea.Println(""),
		tea.Println(dimStyle.Render("  Configuration:")),
		tea.Println(fmt.Sprintf("    Profile:    %s", config.ProfileName(m.profile))),
		tea.Println(fmt.Sprintf("    Server:     %s", val(m.cfg.Server))),
		tea.Println(fmt.Sprintf("    User:       %s", val(m.cfg.Username))),
		tea.Println(fmt.Sprintf("    Media kind: %s", service.KindLabel(m.mediaKind()))),
		tea.Println(fmt.Sprintf("    Token:      %s", token)),
		tea.Println(""),
	)
}

// ─── /set ───────────────────────────────────────────────────────────────────

func (m model) cmdSet(args []string) (tea.Model, tea.Cmd) {
	if len(args) < 2 {
		return m, tea.Sequence(
			tea.Println(""),
			tea.Println(dimStyle.Render("  Usage: /set kind <movie|tv>  ·  /set server <url>")),
			tea.Println(""),
		)
	}
	if m.cfg == nil {
		return m, tea.Println(errorMsgStyle.Render("  ✗ No configuration found. Run /login first."))
	}

	key := strings.ToLower(args[0])
	value := args[1]

	switch key {
	case "kind":
		if err := config.ValidateKind(value); err != nil {
			return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ %v", err)))
		}
		m.cfg.MediaKind = value
	case "server":
		m.cfg.Server = strings.TrimRight(value, "/")
	default:
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ Unknown key: %s (valid: kind, server)", key)))
	}

	if err := m.cfg.Save(); err != nil {
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ Failed to save config: %v", err)))
	}
	// The media kind is baked into the client, so rebuild it.
	if m.cfg.Server != "" {
		client := api.NewClient(m.cfg, m.log)
		m.client = client
		m.watch = watchlist.NewManager(client, client, m.log)
	}
	return m, tea.Println(successMsgStyle.Render(fmt.Sprintf("  ✓ %s set to: %s", key, value)))
}

// ─── Ask (recommendation stream) ────────────────────────────────────────────

func (m model) cmdAsk(question string) (tea.Model, tea.Cmd) {
	if m.client == nil {
		return m, tea.Println(errorMsgStyle.Render("  ✗ Not logged in. Type /login to get started."))
	}

	m.mode = modeStreaming
	m.kind = streamRecommend
	m.session = stream.NewSession()
	m.records = nil
	m.chatBuffer = ""
	m.chatStarted = false

	if m.cfg != nil {
		m.cfg.LastQuestion = question
		if err := m.cfg.Save(); err != nil {
			m.log.Debug().Err(err).Msg("saving last question failed")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	return m, tea.Sequence(
		tea.Println(""),
		tea.Println(userPromptStyle.Render("  ❯ "+question)),
		beginRecommendStream(ctx, m.client, question),
	)
}

// ─── /discover ──────────────────────────────────────────────────────────────

func (m model) cmdDiscover() (tea.Model, tea.Cmd) {
	if m.client == nil {
		return m, tea.Println(errorMsgStyle.Render("  ✗ Not logged in. Type /login to get started."))
	}

	m.mode = modeStreaming
	m.kind = streamDiscover
	m.feed = sse.NewParser()
	m.whyBuf = ""
	m.whyMedia = -1
	m.whyShown = make(map[int]bool)
	m.lastStatus = ""

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	return m, beginDiscoverStream(ctx, m.client)
}

// ─── /watchlist ─────────────────────────────────────────────────────────────

func (m model) cmdWatchlist() (tea.Model, tea.Cmd) {
	if len(m.records) == 0 {
		return m, tea.Println(dimStyle.Render("  No picks yet. Ask for recommendations first."))
	}

	var cmds []tea.Cmd
	cmds = append(cmds, tea.Println(""))
	for i, rec := range m.records {
		entry := m.watchEntry(i)
		line := fmt.Sprintf("  %d. %s", i+1, rec.Title)
		switch {
		case entry.Busy:
			line += "  " + dimStyle.Render("(syncing...)")
		case entry.State == watchlist.StateInList:
			line += "  " + watchStateStyle.Render(watchBadge(entry))
		case entry.State == watchlist.StateLoading:
			line += "  " + dimStyle.Render("(checking...)")
		default:
			line += "  " + dimStyle.Render("(not in list)")
		}
		cmds = append(cmds, tea.Println(line))
	}
	cmds = append(cmds, tea.Println(""))
	return m, tea.Sequence(cmds...)
}

// ─── Watchlist edits ────────────────────────────────────────────────────────

type watchOpMsg struct {
	num  int // 1-based pick number
	verb string
	err  error
}

type watchSyncedMsg struct {
	err error
}

// watchAction runs one watchlist edit asynchronously for the pick
// number in args[0].
func (m model) watchAction(args []string, verb, usage string, run func(ctx context.Context, item watchlist.Item) error) (tea.Model, tea.Cmd) {
	if m.watch == nil {
		return m, tea.Println(errorMsgStyle.Render("  ✗ Not logged in. Type /login to get started."))
	}
	if len(args) == 0 {
		return m, tea.Println(warnMsgStyle.Render("  ! Usage: " + usage))
	}
	num, err := strconv.Atoi(args[0])
	if err != nil {
		return m, tea.Println(warnMsgStyle.Render("  ! Usage: " + usage))
	}
	item, rec, ok := m.recordItem(num)
	if !ok {
		if num >= 1 && num <= len(m.records) {
			return m, tea.Println(warnMsgStyle.Render(fmt.Sprintf("  ! %q has no media id; it can't be tracked.", rec.Title)))
		}
		return m, tea.Println(warnMsgStyle.Render(fmt.Sprintf("  ! No pick #%d. /watchlist shows the current picks.", num)))
	}

	return m, tea.Sequence(
		tea.Println(statusStyle.Render(fmt.Sprintf("  ⟳ Updating %q...", rec.Title))),
		func() tea.Msg {
			return watchOpMsg{num: num, verb: verb, err: run(context.Background(), item)}
		},
	)
}

// upsertWatch adds the item, or restates its status when it is already
// tracked, so repeated adds never create a duplicate remote entry.
func upsertWatch(ctx context.Context, watch *watchlist.Manager, item watchlist.Item, status watchlist.Status) error {
	if watch.Get(item.Key()).State == watchlist.StateInList {
		return watch.SetStatus(ctx, item, status)
	}
	return watch.Add(ctx, item, status)
}

func (m model) cmdAdd(args []string) (tea.Model, tea.Cmd) {
	watch := m.watch
	return m.watchAction(args, "add", "/add <n>", func(ctx context.Context, item watchlist.Item) error {
		return upsertWatch(ctx, watch, item, watchlist.StatusWant)
	})
}

func (m model) cmdWant(args []string) (tea.Model, tea.Cmd) {
	watch := m.watch
	return m.watchAction(args, "want", "/want <n>", func(ctx context.Context, item watchlist.Item) error {
		return upsertWatch(ctx, watch, item, watchlist.StatusWant)
	})
}

func (m model) cmdSeen(args []string) (tea.Model, tea.Cmd) {
	watch := m.watch
	return m.watchAction(args, "seen", "/seen <n>", func(ctx context.Context, item watchlist.Item) error {
		return upsertWatch(ctx, watch, item, watchlist.StatusWatched)
	})
}

func (m model) cmdRate(args []string) (tea.Model, tea.Cmd) {
	if len(args) < 2 {
		return m, tea.Println(warnMsgStyle.Render("  ! Usage: /rate <n> <1-10>"))
	}
	rating, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return m, tea.Println(warnMsgStyle.Render("  ! Rating must be a number between 1 and 10."))
	}
	watch := m.watch
	return m.watchAction(args[:1], "rate", "/rate <n> <1-10>", func(ctx context.Context, item watchlist.Item) error {
		return watch.Rate(ctx, item, rating)
	})
}

func (m model) cmdUnrate(args []string) (tea.Model, tea.Cmd) {
	watch := m.watch
	return m.watchAction(args, "unrate", "/unrate <n>", func(ctx context.Context, item watchlist.Item) error {
		return watch.ClearRating(ctx, item)
	})
}

func (m model) cmdRemove(args []string) (tea.Model, tea.Cmd) {
	watch := m.watch
	return m.watchAction(args, "remove", "/remove <n>", func(ctx context.Context, item watchlist.Item) error {
		return watch.Remove(ctx, item)
	})
}

func (m model) cmdSkip(args []string) (tea.Model, tea.Cmd) {
	if m.watch == nil {
		return m, tea.Println(errorMsgStyle.Render("  ✗ Not logged in. Type /login to get started."))
	}
	num := m.ratingIdx + 1
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			num = n
		}
	}
	item, _, ok := m.recordItem(num)
	if !ok {
		return m, tea.Println(warnMsgStyle.Render("  ! Nothing to skip."))
	}
	m.watch.SkipRatingPrompt(item)
	if m.mode == modeRating {
		m.mode = modeIdle
		m.ratingIdx = -1
		m.resetInput()
	}
	return m, tea.Println(dimStyle.Render("  Rating skipped."))
}

// ─── Async watchlist results ────────────────────────────────────────────────

func (m model) handleWatchOp(msg watchOpMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		switch {
		case errors.Is(msg.err, watchlist.ErrBusy):
			return m, tea.Println(warnMsgStyle.Render("  ! That pick is still syncing; try again in a moment."))
		case errors.Is(msg.err, watchlist.ErrNotAuthenticated):
			return m, tea.Println(errorMsgStyle.Render("  ✗ Not logged in. Type /login to get started."))
		case errors.Is(msg.err, watchlist.ErrInvalidRating):
			return m, tea.Println(warnMsgStyle.Render("  ! Rating must be between 1 and 10."))
		case errors.Is(msg.err, watchlist.ErrNotInList):
			return m, tea.Println(warnMsgStyle.Render("  ! That pick isn't on your watchlist. /add it first."))
		default:
			return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ %v", msg.err)))
		}
	}

	idx := msg.num - 1
	rec := stream.Record{}
	if idx >= 0 && idx < len(m.records) {
		rec = m.records[idx]
	}
	entry := m.watchEntry(idx)

	var cmds []tea.Cmd
	switch {
	case entry.State == watchlist.StateInList:
		cmds = append(cmds, tea.Println(successMsgStyle.Render(
			fmt.Sprintf("  ✓ %s  %s", rec.Title, watchBadge(entry)))))
	case msg.verb == "remove":
		cmds = append(cmds, tea.Println(successMsgStyle.Render(
			fmt.Sprintf("  ✓ %s removed from watchlist", rec.Title))))
	default:
		cmds = append(cmds, tea.Println(successMsgStyle.Render("  ✓ Done")))
	}

	if entry.PromptOpen && m.mode == modeIdle {
		m.mode = modeRating
		m.ratingIdx = idx
		m.input.Placeholder = fmt.Sprintf("Rate %q 1-10 (Enter to skip)...", rec.Title)
		cmds = append(cmds, tea.Println(ratingPromptStyle.Render(
			fmt.Sprintf("  ★ How would you rate %q?", rec.Title))))
	}

	return m, tea.Sequence(cmds...)
}

func (m model) handleWatchSynced(msg watchSyncedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if errors.Is(msg.err, watchlist.ErrNotAuthenticated) {
			return m, tea.Println(dimStyle.Render("  Watchlist not synced (log in to track picks)."))
		}
		return m, tea.Println(dimStyle.Render("  Watchlist unavailable; pick states shown as not-added."))
	}

	var cmds []tea.Cmd
	for i, rec := range m.records {
		entry := m.watchEntry(i)
		if entry.State == watchlist.StateInList {
			cmds = append(cmds, tea.Println(
				"  "+watchStateStyle.Render(fmt.Sprintf("✓ %d. %s  %s", i+1, rec.Title, watchBadge(entry)))))
		}
	}
	if len(cmds) == 0 {
		return m, tea.Println(dimStyle.Render("  None of these picks are on your watchlist yet."))
	}
	return m, tea.Sequence(cmds...)
}

// ─── Rating prompt ──────────────────────────────────────────────────────────

func (m model) dismissRatingPrompt() (tea.Model, tea.Cmd) {
	if item, _, ok := m.recordItem(m.ratingIdx + 1); ok && m.watch != nil {
		m.watch.SkipRatingPrompt(item)
	}
	m.mode = modeIdle
	m.ratingIdx = -1
	m.resetInput()
	return m, tea.Println(dimStyle.Render("  Rating skipped."))
}

func (m model) handleRatingSubmit(value string) (tea.Model, tea.Cmd) {
	if value == "" {
		return m.dismissRatingPrompt()
	}

	rating, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return m, tea.Println(warnMsgStyle.Render("  ! Enter a number 1-10, or press Enter to skip."))
	}

	num := m.ratingIdx + 1
	m.mode = modeIdle
	m.ratingIdx = -1
	m.resetInput()

	watch := m.watch
	return m.watchAction([]string{strconv.Itoa(num)}, "rate", "/rate <n> <1-10>", func(ctx context.Context, item watchlist.Item) error {
		return watch.Rate(ctx, item, rating)
	})
}
