package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jj-tsao/reelix-ai-sub001/internal/api"
	"github.com/jj-tsao/reelix-ai-sub001/internal/config"
	"github.com/jj-tsao/reelix-ai-sub001/internal/display"
	"github.com/jj-tsao/reelix-ai-sub001/internal/logging"
	"github.com/jj-tsao/reelix-ai-sub001/internal/service"
	"github.com/jj-tsao/reelix-ai-sub001/internal/stream"
	"github.com/jj-tsao/reelix-ai-sub001/internal/tui"
	"github.com/jj-tsao/reelix-ai-sub001/internal/watchlist"

	"github.com/rs/zerolog"
)

const version = "0.1.0"

var activeProfile string
var debugMode bool

func main() {
	args := os.Args[1:]

	// Parse global flags first (--profile, --debug)
	args = parseGlobalFlags(args)

	log, closeLog, err := logging.New(debugMode)
	if err != nil {
		display.Error(err.Error())
		os.Exit(1)
	}
	defer closeLog()

	// No args → launch interactive mode (default)
	if len(args) == 0 {
		if err := tui.Run(version, activeProfile, log); err != nil {
			display.Error(err.Error())
			os.Exit(1)
		}
		return
	}

	// Explicit -i flag also launches interactive mode
	if args[0] == "-i" || args[0] == "--interactive" || args[0] == "interactive" {
		if err := tui.Run(version, activeProfile, log); err != nil {
			display.Error(err.Error())
			os.Exit(1)
		}
		return
	}

	switch args[0] {
	case "login":
		err = cmdLogin(args[1:], log)
	case "set":
		err = cmdSet(args[1:])
	case "config":
		err = cmdConfig()
	case "recommend", "ask":
		err = cmdAsk(args[1:], log)
	case "discover":
		err = cmdDiscover(log)
	case "watchlist":
		err = cmdWatchlist(args[1:], log)
	case "profiles":
		err = cmdProfiles()
	case "help", "--help", "-h":
		printUsage()
	case "version", "--version", "-v":
		fmt.Printf("reelix %s\n", version)
	default:
		display.Error(fmt.Sprintf("Unknown command: %s", args[0]))
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		display.Error(err.Error())
		os.Exit(1)
	}
}

// ─── login ───────────────────────────────────────────────────────────────────

func cmdLogin(args []string, log zerolog.Logger) error {
	var username, password string
	var positional []string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-u", "--username":
			if i+1 < len(args) {
				i++
				username = args[i]
			} else {
				return fmt.Errorf("--username requires a value")
			}
		case "-p", "--password":
			if i+1 < len(args) {
				i++
				password = args[i]
			} else {
				return fmt.Errorf("--password requires a value")
			}
		default:
			positional = append(positional, args[i])
		}
	}

	if len(positional) == 0 {
		fmt.Println("Usage: reelix login <server-url> -u <username> -p <password>")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  reelix login https://api.reelix.app -u user@example.com -p pass")
		fmt.Println("  reelix login http://localhost:8000 -u admin@example.com -p mypassword")
		return nil
	}

	serverURL := strings.TrimRight(positional[0], "/")

	if username == "" {
		fmt.Print("Username/Email: ")
		fmt.Scanln(&username)
	}
	if password == "" {
		fmt.Print("Password: ")
		fmt.Scanln(&password)
	}

	if username == "" || password == "" {
		return fmt.Errorf("username and password are required")
	}

	fmt.Println()
	display.Spinner("Authenticating...")

	client := api.NewClient(&config.Config{Server: serverURL}, log)
	loginResp, err := client.Login(username, password)
	if err != nil {
		display.ClearLine()
		return fmt.Errorf("authentication failed: %w", err)
	}

	display.ClearLine()
	display.Success("Authenticated successfully")

	cfg, err := config.Load(activeProfile)
	if err != nil {
		return err
	}

	cfg.Server = serverURL
	cfg.Username = username
	cfg.Token = loginResp.AccessToken

	if err := cfg.Save(); err != nil {
		return err
	}

	display.Info("Server:", serverURL)
	display.Info("User:", username)
	display.Info("Media kind:", service.KindLabel(cfg.MediaKind))

	pf := ""
	if activeProfile != "" {
		pf = " --profile " + activeProfile
	}

	fmt.Println()
	fmt.Printf("  %sNext:%s Run %sreelix%s ask \"<what you feel like watching>\"%s to get picks.\n\n",
		display.Dim, display.Reset, display.Cyan, pf, display.Reset)

	return nil
}

// ─── set ────────────────────────────────────────────────────────────────────

func cmdSet(args []string) error {
	if len(args) < 2 {
		fmt.Println("Usage: reelix set <key> <value>")
		fmt.Println()
		fmt.Println("Keys:")
		fmt.Println("  server  Reelix server URL  (e.g. http://server:8000)")
		fmt.Println("  kind    Media kind: movie or tv")
		fmt.Println("  token   Bearer authentication token")
		return nil
	}

	cfg, err := config.Load(activeProfile)
	if err != nil {
		return err
	}

	key, value := args[0], args[1]

	switch key {
	case "server":
		cfg.Server = strings.TrimRight(value, "/")
	case "kind":
		if err := config.ValidateKind(value); err != nil {
			return err
		}
		cfg.MediaKind = value
	case "token":
		cfg.Token = value
	default:
		return fmt.Errorf("unknown config key: %s (valid: server, kind, token)", key)
	}

	if err := cfg.Save(); err != nil {
		return err
	}

	display.Success(fmt.Sprintf("%s set to %s", key, value))
	return nil
}

// ─── config ─────────────────────────────────────────────────────────────────

func cmdConfig() error {
	cfg, err := config.Load(activeProfile)
	if err != nil {
		return err
	}

	display.Header("Reelix CLI Configuration")

	display.Info("Profile:", config.ProfileName(activeProfile))

	server := cfg.Server
	if server == "" {
		server = display.Dim + "(not set)" + display.Reset
	}
	display.Info("Server:", server)

	username := cfg.Username
	if username == "" {
		username = display.Dim + "(not set)" + display.Reset
	}
	display.Info("User:", username)

	display.Info("Media kind:", service.KindLabel(cfg.MediaKind))

	token := display.Dim + "(not set)" + display.Reset
	if cfg.Token != "" {
		end := 12
		if len(cfg.Token) < end {
			end = len(cfg.Token)
		}
		token = cfg.Token[:end] + "..."
	}
	display.Info("Token:", token)

	question := cfg.LastQuestion
	if question == "" {
		question = display.Dim + "(none)" + display.Reset
	}
	display.Info("Last Question:", question)
	fmt.Println()

	return nil
}

// ─── ask ────────────────────────────────────────────────────────────────────

func cmdAsk(args []string, log zerolog.Logger) error {
	cfg, err := config.Load(activeProfile)
	if err != nil {
		return err
	}
	if err := cfg.ValidateFull(); err != nil {
		return err
	}

	question := strings.Join(args, " ")
	if question == "" {
		question = cfg.LastQuestion
	}
	if question == "" {
		fmt.Println("Usage: reelix ask <question>")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println(`  reelix ask "A slow-burn sci-fi with a great soundtrack"`)
		fmt.Println(`  reelix ask "Something like Heat but more recent"`)
		return nil
	}

	client := api.NewClient(cfg, log)

	cfg.LastQuestion = question
	if err := cfg.Save(); err != nil {
		log.Debug().Err(err).Msg("saving last question")
	}

	fmt.Printf("\n %s── 🎬 Reelix Picks ───────────────────────────────────────────────────────%s\n", display.Dim, display.Reset)
	fmt.Println()
	fmt.Printf("    %sQuestion:%s  %s\n", display.Dim, display.Reset, question)
	fmt.Printf("    %sKind:%s      %s\n", display.Dim, display.Reset, service.KindLabel(cfg.MediaKind))
	fmt.Println()
	fmt.Printf(" %s──────────────────────────────────────────────────────────────────────────%s\n", display.Dim, display.Reset)

	d := api.NewStreamDisplay()

	ctx := context.Background()
	err = client.RecommendStream(ctx, question, d.HandleChunk)
	d.Finish()

	fmt.Println()
	fmt.Printf(" %s──────────────────────────────────────────────────────────────────────────%s\n", display.Dim, display.Reset)

	if err != nil {
		return fmt.Errorf("stream error: %w", err)
	}

	if len(d.Records) > 0 {
		client.LogRecommendations(d.Records)
		printWatchlistStatus(ctx, client, cfg.MediaKind, d.Records)
		display.Success(fmt.Sprintf("%d picks found", len(d.Records)))
	} else {
		display.Success("Done")
	}

	fmt.Printf("\n  %sTip:%s Run %sreelix%s to add picks to your watchlist interactively.\n\n",
		display.Dim, display.Reset, display.Cyan, display.Reset)

	return nil
}

// printWatchlistStatus looks up which picks are already tracked and
// prints their status. Lookup failures degrade to a warning; the picks
// themselves have already been shown.
func printWatchlistStatus(ctx context.Context, client *api.Client, kind string, records []stream.Record) {
	var items []watchlist.Item
	for _, rec := range records {
		if rec.MediaID < 0 {
			continue
		}
		items = append(items, watchlist.Item{MediaID: rec.MediaID, Kind: kind})
	}
	if len(items) == 0 {
		return
	}

	remote, err := client.LookupWatchlist(ctx, items)
	if err != nil {
		display.Warn("Watchlist not checked (" + err.Error() + ")")
		return
	}

	var lines []string
	for _, rec := range records {
		if rec.MediaID < 0 {
			continue
		}
		entry, ok := remote[watchlist.Item{MediaID: rec.MediaID, Kind: kind}.Key()]
		if !ok || !entry.Exists {
			continue
		}
		status := display.StatusLabel(entry.Status)
		if entry.Rating > 0 {
			status += fmt.Sprintf("  %s%d/10%s", display.Yellow, entry.Rating, display.Reset)
		}
		lines = append(lines, fmt.Sprintf("  • %s%s%s  %s", display.Bold, rec.Title, display.Reset, status))
	}
	if len(lines) == 0 {
		return
	}

	fmt.Printf("\n  %sAlready on your watchlist:%s\n", display.Dim, display.Reset)
	for _, line := range lines {
		fmt.Println(line)
	}
	fmt.Println()
}

// ─── discover ───────────────────────────────────────────────────────────────

func cmdDiscover(log zerolog.Logger) error {
	cfg, err := config.Load(activeProfile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	client := api.NewClient(cfg, log)

	fmt.Printf("\n %s── 📡 Discover Feed ──────────────────────────────────────────────────────%s\n", display.Dim, display.Reset)

	d := api.NewFeedDisplay()

	err = client.DiscoverStream(context.Background(), d.HandleChunk)
	d.Finish()

	fmt.Println()
	fmt.Printf(" %s──────────────────────────────────────────────────────────────────────────%s\n", display.Dim, display.Reset)

	if err != nil {
		return fmt.Errorf("stream error: %w", err)
	}
	if d.Err != "" {
		return fmt.Errorf("feed error: %s", d.Err)
	}

	display.Success(fmt.Sprintf("Feed complete (%d updates)", d.Updates))
	fmt.Println()
	return nil
}

// ─── watchlist ──────────────────────────────────────────────────────────────

func cmdWatchlist(args []string, log zerolog.Logger) error {
	if len(args) == 0 {
		fmt.Println("Usage: reelix watchlist <subcommand> [arguments]")
		fmt.Println()
		fmt.Println("Subcommands:")
		fmt.Println("  status <media-id>...      Show tracked status for the given ids")
		fmt.Println("  add <media-id> [--seen]   Track a title (want by default)")
		fmt.Println("  rate <media-id> <1-10>    Rate a title already on the list")
		fmt.Println("  rm <media-id>             Remove a title from the list")
		return nil
	}

	cfg, err := config.Load(activeProfile)
	if err != nil {
		return err
	}
	if err := cfg.ValidateFull(); err != nil {
		return err
	}

	client := api.NewClient(cfg, log)
	mgr := watchlist.NewManager(client, client, log)
	ctx := context.Background()

	sub := args[0]
	rest := args[1:]

	switch sub {
	case "status":
		items, err := parseItems(rest, cfg.MediaKind)
		if err != nil {
			return err
		}
		mgr.Reset(items)
		if err := mgr.Init(ctx, items); err != nil {
			return fmt.Errorf("looking up watchlist: %w", err)
		}
		for _, it := range items {
			printEntry(it, mgr.Get(it.Key()))
		}
		return nil

	case "add":
		status := watchlist.StatusWant
		var idArgs []string
		for _, a := range rest {
			if a == "--seen" || a == "--watched" {
				status = watchlist.StatusWatched
				continue
			}
			idArgs = append(idArgs, a)
		}
		items, err := parseItems(idArgs, cfg.MediaKind)
		if err != nil {
			return err
		}
		mgr.Reset(items)
		_ = mgr.Init(ctx, items)
		for _, it := range items {
			e := mgr.Get(it.Key())
			if e.State == watchlist.StateInList {
				err = mgr.SetStatus(ctx, it, status)
			} else {
				err = mgr.Add(ctx, it, status)
			}
			if err != nil {
				return fmt.Errorf("adding #%d: %w", it.MediaID, err)
			}
			printEntry(it, mgr.Get(it.Key()))
		}
		return nil

	case "rate":
		if len(rest) < 2 {
			return fmt.Errorf("usage: reelix watchlist rate <media-id> <1-10>")
		}
		items, err := parseItems(rest[:1], cfg.MediaKind)
		if err != nil {
			return err
		}
		rating, err := strconv.ParseFloat(rest[1], 64)
		if err != nil {
			return fmt.Errorf("invalid rating: %s", rest[1])
		}
		it := items[0]
		mgr.Reset(items)
		if err := mgr.Init(ctx, items); err != nil {
			return fmt.Errorf("looking up watchlist: %w", err)
		}
		if err := mgr.Rate(ctx, it, rating); err != nil {
			return fmt.Errorf("rating #%d: %w", it.MediaID, err)
		}
		printEntry(it, mgr.Get(it.Key()))
		return nil

	case "rm", "remove":
		items, err := parseItems(rest, cfg.MediaKind)
		if err != nil {
			return err
		}
		mgr.Reset(items)
		if err := mgr.Init(ctx, items); err != nil {
			return fmt.Errorf("looking up watchlist: %w", err)
		}
		for _, it := range items {
			if err := mgr.Remove(ctx, it); err != nil {
				return fmt.Errorf("removing #%d: %w", it.MediaID, err)
			}
			display.Success(fmt.Sprintf("#%d removed", it.MediaID))
		}
		return nil

	default:
		return fmt.Errorf("unknown watchlist subcommand: %s (valid: status, add, rate, rm)", sub)
	}
}

func parseItems(args []string, kind string) ([]watchlist.Item, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one media id is required")
	}
	var items []watchlist.Item
	for _, a := range args {
		id, err := strconv.Atoi(a)
		if err != nil || id < 0 {
			return nil, fmt.Errorf("invalid media id: %s", a)
		}
		items = append(items, watchlist.Item{MediaID: id, Kind: kind})
	}
	return items, nil
}

func printEntry(it watchlist.Item, e watchlist.Entry) {
	label := display.StateLabel(e.State)
	if e.State == watchlist.StateInList {
		label = display.StatusLabel(e.Status)
		if e.Rating > 0 {
			label += fmt.Sprintf("  %s%d/10%s", display.Yellow, e.Rating, display.Reset)
		}
	}
	fmt.Printf("  #%-10d %s\n", it.MediaID, label)
}

// ─── profiles ───────────────────────────────────────────────────────────────

func cmdProfiles() error {
	profiles, err := config.ListProfiles()
	if err != nil {
		return err
	}

	display.Header(fmt.Sprintf("Profiles (%d)", len(profiles)))

	if len(profiles) == 0 {
		display.Warn("No profiles found.")
		return nil
	}

	for _, p := range profiles {
		marker := " "
		if p == config.ProfileName(activeProfile) {
			marker = display.Green + "●" + display.Reset
		}
		fmt.Printf("  %s %s\n", marker, p)
	}
	fmt.Println()

	return nil
}

// ─── helpers ────────────────────────────────────────────────────────────────

func parseGlobalFlags(args []string) []string {
	var remaining []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--profile":
			if i+1 < len(args) {
				i++
				activeProfile = args[i]
			}
			continue
		case "--debug":
			debugMode = true
			continue
		}
		remaining = append(remaining, args[i])
	}
	return remaining
}

// ─── usage ──────────────────────────────────────────────────────────────────

func printUsage() {
	fmt.Printf(`%sReelix CLI%s — AI movie & TV recommendations (v%s)

%sUsage:%s
  reelix                                             Launch interactive mode (default)
  reelix [--profile <name>] [--debug] <command>      Run a specific command

%sGetting Started:%s
  login <url> -u <user> -p <pass>  Authenticate against a Reelix server
  config                           Show current configuration

%sSettings:%s
  set server <url>          Override the server URL
  set kind <movie|tv>       Choose what gets recommended
  set token <token>         Manually set the auth token

%sRecommendations:%s
  ask|recommend "<mood>"    Stream AI picks for what you feel like watching
                            (no argument repeats your last question)
  discover                  Follow the live discovery feed

%sWatchlist:%s
  watchlist status <id>...  Show tracked status for media ids
  watchlist add <id>        Track a title (--seen marks it watched)
  watchlist rate <id> <n>   Rate a tracked title 1-10
  watchlist rm <id>         Remove a title

%sProfiles:%s
  profiles                  List all config profiles
  --profile <name>          Use a named config profile (default: unnamed)

%sExamples:%s
  reelix                                             # Start interactive mode
  reelix login https://api.reelix.app -u me@example.com -p secret
  reelix set kind tv
  reelix ask "A cozy mystery for a rainy sunday"
  reelix discover
  reelix --profile family ask "Animated adventure for kids"

`, display.Bold, display.Reset, version,
		display.Cyan, display.Reset,
		display.Cyan, display.Reset,
		display.Cyan, display.Reset,
		display.Cyan, display.Reset,
		display.Cyan, display.Reset,
		display.Cyan, display.Reset,
		display.Cyan, display.Reset)
}
