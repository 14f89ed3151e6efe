package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jj-tsao/reelix-ai-sub001/internal/api"
)

// ─── Messages sent from stream goroutine to Bubble Tea ──────────────────────

type streamChunkMsg struct {
	chunk []byte
}

type streamDoneMsg struct{}

type streamErrMsg struct {
	err error
}

// ─── Stream commands ────────────────────────────────────────────────────────
//
// The request runs in a goroutine and forwards raw body chunks through
// a channel. waitForStream reads one message per call; Update schedules
// the next read after handling each chunk, so all stream state is
// mutated on the Update goroutine only.

var activeStreamCh chan tea.Msg

func beginRecommendStream(ctx context.Context, client api.ReelixAPI, question string) tea.Cmd {
	ch := make(chan tea.Msg, 64)
	activeStreamCh = ch

	go func() {
		defer close(ch)
		err := client.RecommendStream(ctx, question, func(chunk []byte) {
			ch <- streamChunkMsg{chunk: chunk}
		})
		if err != nil && ctx.Err() == nil {
			ch <- streamErrMsg{err: err}
		}
	}()

	return waitForStream(ch)
}

func beginDiscoverStream(ctx context.Context, client api.ReelixAPI) tea.Cmd {
	ch := make(chan tea.Msg, 64)
	activeStreamCh = ch

	go func() {
		defer close(ch)
		err := client.DiscoverStream(ctx, func(chunk []byte) {
			ch <- streamChunkMsg{chunk: chunk}
		})
		if err != nil && ctx.Err() == nil {
			ch <- streamErrMsg{err: err}
		}
	}()

	return waitForStream(ch)
}

// waitForStream reads the next message from the channel.
func waitForStream(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return streamDoneMsg{}
		}
		return msg
	}
}
