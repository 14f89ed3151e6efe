package tui

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/jj-tsao/reelix-ai-sub001/internal/api"
	"github.com/jj-tsao/reelix-ai-sub001/internal/config"
	"github.com/jj-tsao/reelix-ai-sub001/internal/stream"
	"github.com/jj-tsao/reelix-ai-sub001/internal/watchlist"
)

// mockAPI implements api.ReelixAPI for testing.
type mockAPI struct {
	token   string
	entries map[string]watchlist.RemoteEntry
	logged  []stream.Record
	creates int
	updates int

	err error // if set, all methods return this error
}

func (m *mockAPI) Login(username, password string) (*api.LoginResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.token = "test-token"
	return &api.LoginResponse{AccessToken: "test-token"}, nil
}

func (m *mockAPI) Token() string {
	return m.token
}

func (m *mockAPI) RecommendStream(ctx context.Context, question string, cb api.ChunkCallback) error {
	if m.err != nil {
		return m.err
	}
	cb([]byte("[[MODE:chat]]test response"))
	return nil
}

func (m *mockAPI) DiscoverStream(ctx context.Context, cb api.ChunkCallback) error {
	if m.err != nil {
		return m.err
	}
	cb([]byte("event: done\ndata: {}\n\n"))
	return nil
}

func (m *mockAPI) LookupWatchlist(ctx context.Context, items []watchlist.Item) (map[string]watchlist.RemoteEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.entries, nil
}

func (m *mockAPI) CreateWatchlistItem(ctx context.Context, item watchlist.Item, status watchlist.Status) (watchlist.RemoteEntry, error) {
	if m.err != nil {
		return watchlist.RemoteEntry{}, m.err
	}
	m.creates++
	return watchlist.RemoteEntry{Exists: true, ID: "wl-1", Status: status}, nil
}

func (m *mockAPI) UpdateWatchlistItem(ctx context.Context, id string, patch watchlist.Patch) (watchlist.RemoteEntry, error) {
	if m.err != nil {
		return watchlist.RemoteEntry{}, m.err
	}
	m.updates++
	re := watchlist.RemoteEntry{Exists: true, ID: id, Status: watchlist.StatusWant}
	if patch.Status != nil {
		re.Status = *patch.Status
	}
	if patch.Rating != nil {
		re.Rating = *patch.Rating
	}
	return re, nil
}

func (m *mockAPI) DeleteWatchlistItem(ctx context.Context, id string) error {
	return m.err
}

func (m *mockAPI) LogRecommendations(records []stream.Record) {
	m.logged = append(m.logged, records...)
}

// Verify mockAPI satisfies the interface at compile time.
var _ api.ReelixAPI = (*mockAPI)(nil)

func newTestModel(t *testing.T) model {
	t.Helper()
	t.Setenv("HOME", t.TempDir()) // keep cfg.Save away from the real config
	m := initialModel("test", "", zerolog.Nop())
	m.cfg = &config.Config{
		Server:    "http://localhost:8080",
		Token:     "test-token",
		MediaKind: "movie",
	}
	mock := &mockAPI{token: "test-token"}
	m.client = mock
	m.watch = watchlist.NewManager(mock, mock, zerolog.Nop())
	m.ready = true
	m.width = 80
	m.height = 24
	return m
}

func TestDispatchCommand(t *testing.T) {
	tests := []struct {
		input    string
		wantMode appMode
	}{
		{"/help", modeIdle},
		{"/config", modeIdle},
		{"/clear", modeIdle},
		{"/quit", modeIdle}, // quit returns tea.Quit cmd
		{"/watchlist", modeIdle},
		{"/unknown", modeIdle},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m := newTestModel(t)
			result, _ := m.dispatchCommand(tt.input)
			rm := result.(model)
			if rm.mode != tt.wantMode {
				t.Errorf("mode = %d, want %d", rm.mode, tt.wantMode)
			}
		})
	}
}

func TestDispatchInput(t *testing.T) {
	t.Run("question mark shows help", func(t *testing.T) {
		m := newTestModel(t)
		result, _ := m.dispatchInput("?")
		rm := result.(model)
		if rm.mode != modeIdle {
			t.Errorf("mode = %d, want modeIdle", rm.mode)
		}
	})

	t.Run("slash dispatches command", func(t *testing.T) {
		m := newTestModel(t)
		result, _ := m.dispatchInput("/config")
		rm := result.(model)
		if rm.mode != modeIdle {
			t.Errorf("mode = %d, want modeIdle", rm.mode)
		}
	})

	t.Run("plain text starts recommendation stream", func(t *testing.T) {
		m := newTestModel(t)
		result, _ := m.dispatchInput("something cozy for a rainy night")
		rm := result.(model)
		if rm.mode != modeStreaming {
			t.Errorf("mode = %d, want modeStreaming", rm.mode)
		}
		if rm.kind != streamRecommend {
			t.Errorf("kind = %d, want streamRecommend", rm.kind)
		}
		if rm.session == nil {
			t.Error("session not initialized")
		}
	})

	t.Run("ask without client shows error", func(t *testing.T) {
		m := newTestModel(t)
		m.client = nil
		result, cmd := m.dispatchInput("test question")
		rm := result.(model)
		if rm.mode != modeIdle {
			t.Errorf("mode = %d, want modeIdle", rm.mode)
		}
		if cmd == nil {
			t.Error("expected error message cmd, got nil")
		}
	})
}

func TestLoginFlow(t *testing.T) {
	t.Run("login without args enters server mode", func(t *testing.T) {
		m := newTestModel(t)
		result, _ := m.cmdLogin(nil)
		rm := result.(model)
		if rm.mode != modeLoginServer {
			t.Errorf("mode = %d, want modeLoginServer", rm.mode)
		}
	})

	t.Run("login with URL enters user mode", func(t *testing.T) {
		m := newTestModel(t)
		result, _ := m.cmdLogin([]string{"https://test.example.com"})
		rm := result.(model)
		if rm.mode != modeLoginUser {
			t.Errorf("mode = %d, want modeLoginUser", rm.mode)
		}
		if rm.loginServer != "https://test.example.com" {
			t.Errorf("loginServer = %q", rm.loginServer)
		}
	})

	t.Run("server submit transitions to user mode", func(t *testing.T) {
		m := newTestModel(t)
		m.mode = modeLoginServer
		result, _ := m.handleLoginServerSubmit("https://server.com")
		rm := result.(model)
		if rm.mode != modeLoginUser {
			t.Errorf("mode = %d, want modeLoginUser", rm.mode)
		}
	})

	t.Run("user submit transitions to pass mode", func(t *testing.T) {
		m := newTestModel(t)
		m.mode = modeLoginUser
		result, _ := m.handleLoginUserSubmit("user@test.com")
		rm := result.(model)
		if rm.mode != modeLoginPass {
			t.Errorf("mode = %d, want modeLoginPass", rm.mode)
		}
		if rm.loginUser != "user@test.com" {
			t.Errorf("loginUser = %q", rm.loginUser)
		}
	})
}

func TestStreamEventsCollectRecords(t *testing.T) {
	m := newTestModel(t)
	m.session = stream.NewSession()

	raw := "[[MODE:recommendation]]Intro here.\n<!-- END_INTRO -->\n" +
		"### 1. Heat\n- MEDIA_ID: 949\n" +
		"- WHY_YOU_MIGHT_ENJOY_IT: A meticulous heist epic where both sides of the law mirror each other. The street shootout alone rewards the patient build-up with staggering craft.\n" +
		"<!-- END_MOVIE -->\n"

	cmd := m.renderStreamEvents(m.session.Feed([]byte(raw)))
	if cmd == nil {
		t.Fatal("expected print cmd, got nil")
	}
	if len(m.records) != 1 {
		t.Fatalf("records = %d, want 1", len(m.records))
	}
	if m.records[0].Title != "Heat" {
		t.Errorf("title = %q, want %q", m.records[0].Title, "Heat")
	}
	if m.records[0].MediaID != 949 {
		t.Errorf("media id = %d, want 949", m.records[0].MediaID)
	}
}

func TestStreamErrDrainsSessionTail(t *testing.T) {
	m := newTestModel(t)
	m.session = stream.NewSession()
	m.mode = modeStreaming
	m.kind = streamRecommend
	canceled := false
	m.cancel = func() { canceled = true }

	raw := "[[MODE:recommendation]]Intro here.\n<!-- END_INTRO -->\n" +
		"### 1. Heat\n- MEDIA_ID: 949\n" +
		"- WHY_YOU_MIGHT_ENJOY_IT: A meticulous heist epic where both sides of the law mirror each other. The street shootout alone rewards the patient build-up with staggering craft.\n" +
		"<!-- END_MOVIE -->\n" +
		"Thanks for reading, this trailing remark is well over fifty characters long."
	m.renderStreamEvents(m.session.Feed([]byte(raw)))

	updated, cmd := m.Update(streamErrMsg{err: errors.New("connection reset")})
	got := updated.(model)

	if got.mode != modeIdle || got.kind != streamNone {
		t.Errorf("mode/kind = %v/%v, want idle/none", got.mode, got.kind)
	}
	if !canceled {
		t.Error("stream context not canceled")
	}
	if got.cancel != nil {
		t.Error("cancel func not cleared")
	}
	if cmd == nil {
		t.Fatal("expected print cmd, got nil")
	}
	// The tail must have been flushed: a second Finish owes nothing.
	if leftover := got.session.Finish(); len(leftover) != 0 {
		t.Errorf("session still held %d events after error", len(leftover))
	}
}

func TestChatDeltaLineBuffering(t *testing.T) {
	m := newTestModel(t)
	m.session = stream.NewSession()

	m.renderStreamEvents(m.session.Feed([]byte("[[MODE:chat]]first line\npartial")))
	if m.chatBuffer != "partial" {
		t.Errorf("chatBuffer = %q, want %q", m.chatBuffer, "partial")
	}
	if !m.chatStarted {
		t.Error("chatStarted should be true")
	}
}

func TestRecordItem(t *testing.T) {
	m := newTestModel(t)
	m.records = []stream.Record{
		{MediaID: 550, Title: "Fight Club"},
		{MediaID: -1, Title: "Unknown"},
	}

	t.Run("valid pick", func(t *testing.T) {
		item, rec, ok := m.recordItem(1)
		if !ok {
			t.Fatal("recordItem(1) not ok")
		}
		if item.Key() != "movie:550" {
			t.Errorf("key = %q, want %q", item.Key(), "movie:550")
		}
		if rec.Title != "Fight Club" {
			t.Errorf("title = %q", rec.Title)
		}
	})

	t.Run("missing media id", func(t *testing.T) {
		if _, _, ok := m.recordItem(2); ok {
			t.Error("recordItem(2) should fail for id -1")
		}
	})

	t.Run("out of range", func(t *testing.T) {
		if _, _, ok := m.recordItem(3); ok {
			t.Error("recordItem(3) should fail")
		}
		if _, _, ok := m.recordItem(0); ok {
			t.Error("recordItem(0) should fail")
		}
	})
}

func TestWatchActionValidation(t *testing.T) {
	t.Run("without manager shows error", func(t *testing.T) {
		m := newTestModel(t)
		m.watch = nil
		_, cmd := m.cmdAdd([]string{"1"})
		if cmd == nil {
			t.Error("expected error cmd, got nil")
		}
	})

	t.Run("bad index shows usage", func(t *testing.T) {
		m := newTestModel(t)
		_, cmd := m.cmdAdd([]string{"abc"})
		if cmd == nil {
			t.Error("expected usage cmd, got nil")
		}
	})

	t.Run("no args shows usage", func(t *testing.T) {
		m := newTestModel(t)
		_, cmd := m.cmdAdd(nil)
		if cmd == nil {
			t.Error("expected usage cmd, got nil")
		}
	})
}

func TestUpsertWatchNeverDuplicates(t *testing.T) {
	m := newTestModel(t)
	mock := m.client.(*mockAPI)
	item := watchlist.Item{MediaID: 550, Kind: "movie"}

	if err := upsertWatch(context.Background(), m.watch, item, watchlist.StatusWant); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := upsertWatch(context.Background(), m.watch, item, watchlist.StatusWant); err != nil {
		t.Fatalf("second add: %v", err)
	}

	if mock.creates != 1 {
		t.Errorf("creates = %d, want 1", mock.creates)
	}
	if mock.updates != 1 {
		t.Errorf("updates = %d, want 1", mock.updates)
	}
	if got := m.watch.Get(item.Key()); got.State != watchlist.StateInList {
		t.Errorf("state = %v, want InList", got.State)
	}
}

func TestWatchOpOpensRatingPrompt(t *testing.T) {
	m := newTestModel(t)
	m.records = []stream.Record{{MediaID: 550, Title: "Fight Club"}}
	item := watchlist.Item{MediaID: 550, Kind: "movie"}

	// Mark watched with no rating via the manager so PromptOpen is set.
	if err := m.watch.Add(context.Background(), item, watchlist.StatusWatched); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !m.watch.Get(item.Key()).PromptOpen {
		t.Fatal("expected PromptOpen after watched add")
	}

	result, _ := m.handleWatchOp(watchOpMsg{num: 1, verb: "seen"})
	rm := result.(model)
	if rm.mode != modeRating {
		t.Errorf("mode = %d, want modeRating", rm.mode)
	}
	if rm.ratingIdx != 0 {
		t.Errorf("ratingIdx = %d, want 0", rm.ratingIdx)
	}
}

func TestRatingSubmit(t *testing.T) {
	t.Run("empty skips", func(t *testing.T) {
		m := newTestModel(t)
		m.records = []stream.Record{{MediaID: 550, Title: "Fight Club"}}
		m.mode = modeRating
		m.ratingIdx = 0
		result, _ := m.handleRatingSubmit("")
		rm := result.(model)
		if rm.mode != modeIdle {
			t.Errorf("mode = %d, want modeIdle", rm.mode)
		}
		if rm.ratingIdx != -1 {
			t.Errorf("ratingIdx = %d, want -1", rm.ratingIdx)
		}
	})

	t.Run("non-numeric keeps prompt", func(t *testing.T) {
		m := newTestModel(t)
		m.records = []stream.Record{{MediaID: 550, Title: "Fight Club"}}
		m.mode = modeRating
		m.ratingIdx = 0
		result, _ := m.handleRatingSubmit("great")
		rm := result.(model)
		if rm.mode != modeRating {
			t.Errorf("mode = %d, want modeRating", rm.mode)
		}
	})

	t.Run("number dispatches rate", func(t *testing.T) {
		m := newTestModel(t)
		m.records = []stream.Record{{MediaID: 550, Title: "Fight Club"}}
		m.mode = modeRating
		m.ratingIdx = 0
		result, cmd := m.handleRatingSubmit("8")
		rm := result.(model)
		if rm.mode != modeIdle {
			t.Errorf("mode = %d, want modeIdle", rm.mode)
		}
		if cmd == nil {
			t.Error("expected rate cmd, got nil")
		}
	})
}

func TestHandleWatchOpErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"busy", watchlist.ErrBusy},
		{"not logged in", watchlist.ErrNotAuthenticated},
		{"invalid rating", watchlist.ErrInvalidRating},
		{"not in list", watchlist.ErrNotInList},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t)
			result, cmd := m.handleWatchOp(watchOpMsg{num: 1, verb: "add", err: tt.err})
			rm := result.(model)
			if rm.mode != modeIdle {
				t.Errorf("mode = %d, want modeIdle", rm.mode)
			}
			if cmd == nil {
				t.Error("expected message cmd, got nil")
			}
		})
	}
}

func TestMatchCommands(t *testing.T) {
	t.Run("bare slash lists all", func(t *testing.T) {
		if got := len(matchCommands("/")); got != len(slashCommands) {
			t.Errorf("matches = %d, want %d", got, len(slashCommands))
		}
	})

	t.Run("prefix filters", func(t *testing.T) {
		matches := matchCommands("/se")
		for _, c := range matches {
			if c.name != "/seen" && c.name != "/set" {
				t.Errorf("unexpected match %q", c.name)
			}
		}
		if len(matches) != 2 {
			t.Errorf("matches = %d, want 2", len(matches))
		}
	})

	t.Run("no match", func(t *testing.T) {
		if got := len(matchCommands("/zzz")); got != 0 {
			t.Errorf("matches = %d, want 0", got)
		}
	})
}

func TestCmdSet(t *testing.T) {
	t.Run("invalid kind rejected", func(t *testing.T) {
		m := newTestModel(t)
		_, cmd := m.cmdSet([]string{"kind", "anime"})
		if cmd == nil {
			t.Error("expected error cmd, got nil")
		}
		if m.cfg.MediaKind != "movie" {
			t.Errorf("MediaKind = %q, want unchanged", m.cfg.MediaKind)
		}
	})

	t.Run("unknown key rejected", func(t *testing.T) {
		m := newTestModel(t)
		_, cmd := m.cmdSet([]string{"color", "blue"})
		if cmd == nil {
			t.Error("expected error cmd, got nil")
		}
	})
}
