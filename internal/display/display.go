package display

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jj-tsao/reelix-ai-sub001/internal/watchlist"
)

const (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	Dim     = "\033[2m"
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"
	Gray    = "\033[90m"
)

func Header(text string) {
	fmt.Printf("\n%s%s%s\n", Bold+Cyan, text, Reset)
	fmt.Println(strings.Repeat("─", min(len(text)+4, 80)))
}

func SubHeader(text string) {
	fmt.Printf("%s%s%s\n", Bold+White, text, Reset)
}

func Success(text string) {
	fmt.Printf("%s✓%s %s\n", Green, Reset, text)
}

func Error(text string) {
	fmt.Fprintf(os.Stderr, "%s✗%s %s\n", Red, Reset, text)
}

func Warn(text string) {
	fmt.Printf("%s!%s %s\n", Yellow, Reset, text)
}

func Info(label, value string) {
	fmt.Printf("  %s%-20s%s %s\n", Dim, label, Reset, value)
}

func Spinner(text string) {
	fmt.Printf("\r%s⟳%s %s", Yellow, Reset, text)
}

func ClearLine() {
	fmt.Print("\r\033[K")
}

// Watchlist status display
func StatusLabel(status watchlist.Status) string {
	switch status {
	case watchlist.StatusWant:
		return Yellow + "○ Want to watch" + Reset
	case watchlist.StatusWatched:
		return Green + "✓ Watched" + Reset
	default:
		return string(status)
	}
}

func StateLabel(state watchlist.State) string {
	switch state {
	case watchlist.StateLoading:
		return Gray + "… checking" + Reset
	case watchlist.StateNotAdded:
		return Dim + "not in list" + Reset
	case watchlist.StateInList:
		return Green + "in list" + Reset
	default:
		return state.String()
	}
}

// Discovery feed event display
func FeedEventLabel(event string) string {
	labels := map[string]string{
		"started":   Yellow + "⟳ Started" + Reset,
		"progress":  Yellow + "⟳ Progress" + Reset,
		"why_delta": Cyan + "✎ Update" + Reset,
		"done":      Green + "✓ Done" + Reset,
		"error":     Red + "✗ Error" + Reset,
	}
	if label, ok := labels[event]; ok {
		return label
	}
	return Gray + event + Reset
}

func FormatTime(ts string) string {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		t, err = time.Parse(time.RFC3339, ts)
		if err != nil {
			return ts
		}
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
