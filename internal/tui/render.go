package tui

import (
	"fmt"
	"strings"

	"github.com/jj-tsao/reelix-ai-sub001/internal/service"
	"github.com/jj-tsao/reelix-ai-sub001/internal/stream"
	"github.com/jj-tsao/reelix-ai-sub001/internal/watchlist"
)

// ─── Welcome Screen ─────────────────────────────────────────────────────────

func renderWelcome(version, server, kind string, width int) string {
	titleLine := logoTitleStyle.Render("Reelix") + " " + versionStyle.Render("v"+version)

	var infoLine string
	if server == "" {
		infoLine = welcomeHintStyle.Render("Type /login <url> to get started")
	} else {
		serverDisplay := server
		if len(serverDisplay) > 40 {
			serverDisplay = serverDisplay[:37] + "..."
		}
		infoLine = welcomeInfoLabel.Render(fmt.Sprintf("%s · %s", serverDisplay, service.KindLabel(kind)))
	}

	return fmt.Sprintf("\n%s\n\n%s\n%s\n", renderReelASCIIArt(), titleLine, infoLine)
}

const reelASCIIArt = `
          **************
       ********************
     *****    ******    *****
    ****    ***    ***    ****
   ****    **        **    ****
   ****     **      **     ****
   **** ******++++++****** ****
   ****     **      **     ****
   ****    **        **    ****
    ****    ***    ***    ****
     *****    ******    *****
       ********************
          **************  ***
                             ****
`

func renderReelASCIIArt() string {
	lines := strings.Split(reelASCIIArt, "\n")
	lines = trimEmptyEdgeLines(lines)

	minIndent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := countLeadingSpaces(line)
		if minIndent == -1 || indent < minIndent {
			minIndent = indent
		}
	}

	for i, line := range lines {
		line = strings.TrimRight(line, " ")
		if minIndent > 0 && len(line) >= minIndent {
			line = line[minIndent:]
		}
		lines[i] = colorizeReelLine(line)
	}

	return strings.Join(lines, "\n")
}

func trimEmptyEdgeLines(lines []string) []string {
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}

	end := len(lines)
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}

func countLeadingSpaces(s string) int {
	i := 0
	for i < len(s) && s[i] == ' ' {
		i++
	}
	return i
}

func colorizeReelLine(line string) string {
	const (
		stylePlain = iota
		styleReel
		styleHub
	)

	styleFor := func(r rune) int {
		switch r {
		case '*', '%', '@':
			return styleReel
		case '+', '#':
			return styleHub
		default:
			return stylePlain
		}
	}

	render := func(style int, s string) string {
		switch style {
		case styleReel:
			return logoReelStyle.Render(s)
		case styleHub:
			return logoFrameStyle.Render(s)
		default:
			return s
		}
	}

	var out strings.Builder
	var run strings.Builder
	currentStyle := stylePlain
	first := true

	flush := func() {
		if run.Len() == 0 {
			return
		}
		out.WriteString(render(currentStyle, run.String()))
		run.Reset()
	}

	for _, r := range line {
		nextStyle := styleFor(r)
		if first {
			currentStyle = nextStyle
			first = false
		} else if nextStyle != currentStyle {
			flush()
			currentStyle = nextStyle
		}
		run.WriteRune(r)
	}

	flush()
	return out.String()
}

// ─── Recommendation cards ───────────────────────────────────────────────────

// renderRecordCard lays out one recommendation with its watchlist state.
func renderRecordCard(num int, rec stream.Record, entry watchlist.Entry) string {
	var b strings.Builder

	title := fmt.Sprintf("%d. %s", num, rec.Title)
	b.WriteString("  " + recordTitleStyle.Render(title))
	if entry.State == watchlist.StateInList {
		b.WriteString("  " + watchStateStyle.Render(watchBadge(entry)))
	}
	b.WriteString("\n")

	if line := service.RatingLine(rec.IMDBRating, rec.RottenTomatoes); line != "" {
		b.WriteString("     " + recordMetaStyle.Render(line) + "\n")
	}
	if genres := service.FormatGenres(rec.Genres, 4); genres != "" {
		b.WriteString("     " + dimStyle.Render(genres) + "\n")
	}
	if rec.TrailerKey != "" {
		b.WriteString("     " + dimStyle.Render("Trailer: "+service.TrailerURL(rec.TrailerKey)) + "\n")
	}
	for _, line := range strings.Split(rec.Why, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		b.WriteString("     " + renderMarkdownText(line) + "\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// watchBadge is the short membership tag shown next to a card title.
func watchBadge(entry watchlist.Entry) string {
	switch {
	case entry.Status == watchlist.StatusWatched && entry.Rating > 0:
		return "[" + service.FormatUserRating(entry.Rating) + "]"
	case entry.Status == watchlist.StatusWatched:
		return "[watched]"
	case entry.Status == watchlist.StatusWant:
		return "[want to watch]"
	default:
		return "[in list]"
	}
}

// ─── Streaming markdown ─────────────────────────────────────────────────────
//
// Line-at-a-time rendering for streamed prose. Chat deltas arrive as
// fragments, so block-level rendering is off the table; this handles
// the constructs that survive a line split.

const (
	ansiReset     = "\033[0m"
	ansiBold      = "\033[1m"
	ansiItalic    = "\033[3m"
	ansiUnderline = "\033[4m"

	ansiHeading = "\033[1;97m"     // bold bright white
	ansiInfo    = "\033[38;5;39m"  // cyan, links
	ansiCode    = "\033[38;5;220m" // yellow, inline code
	ansiAccent  = "\033[38;5;73m"  // teal, rules and numbered dots
	ansiBody    = "\033[38;5;252m" // light gray, body text
)

// renderMarkdownText renders a single line with list/header detection
// plus inline formatting. Stateless, safe for streamed lines.
func renderMarkdownText(line string) string {
	trimmed := strings.TrimSpace(line)

	for _, h := range []string{"###### ", "##### ", "#### ", "### ", "## ", "# "} {
		if strings.HasPrefix(trimmed, h) {
			return fmt.Sprintf("%s%s%s", ansiHeading, trimmed[len(h):], ansiReset)
		}
	}

	if trimmed == "---" || trimmed == "***" || trimmed == "___" {
		return fmt.Sprintf("%s────────────────────────────────────────%s", ansiAccent, ansiReset)
	}

	indent := len(line) - len(strings.TrimLeft(line, " \t"))
	pad := strings.Repeat(" ", indent)

	if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
		return fmt.Sprintf("%s%s• %s%s", pad, ansiBody, renderInlineMarkdown(trimmed[2:]), ansiReset)
	}

	if dotIdx := strings.Index(trimmed, ". "); dotIdx > 0 && dotIdx <= 3 {
		num := trimmed[:dotIdx]
		allDigit := true
		for _, c := range num {
			if c < '0' || c > '9' {
				allDigit = false
				break
			}
		}
		if allDigit {
			return fmt.Sprintf("%s%s%s.%s %s%s%s", pad, ansiAccent, num, ansiReset, ansiBody, renderInlineMarkdown(trimmed[dotIdx+2:]), ansiReset)
		}
	}

	return fmt.Sprintf("%s%s%s", ansiBody, renderInlineMarkdown(line), ansiReset)
}

// renderInlineMarkdown handles **bold**, *italic*, `code`, [links](url).
func renderInlineMarkdown(text string) string {
	var out strings.Builder
	i := 0
	for i < len(text) {
		// Bold: **text**
		if i+3 < len(text) && text[i] == '*' && text[i+1] == '*' {
			end := strings.Index(text[i+2:], "**")
			if end > 0 {
				out.WriteString(ansiBold)
				out.WriteString(renderInlineMarkdown(text[i+2 : i+2+end]))
				out.WriteString(ansiReset)
				i += 4 + end
				continue
			}
		}

		// Italic: *text*
		if text[i] == '*' && (i == 0 || text[i-1] == ' ') {
			end := strings.IndexByte(text[i+1:], '*')
			if end > 0 {
				out.WriteString(ansiItalic)
				out.WriteString(text[i+1 : i+1+end])
				out.WriteString(ansiReset)
				i += 2 + end
				continue
			}
		}

		// Inline code: `code`
		if text[i] == '`' {
			end := strings.IndexByte(text[i+1:], '`')
			if end >= 0 {
				out.WriteString(ansiCode)
				out.WriteString(text[i+1 : i+1+end])
				out.WriteString(ansiReset)
				i += 2 + end
				continue
			}
		}

		// Links: [text](url)
		if text[i] == '[' {
			cb := strings.IndexByte(text[i:], ']')
			if cb > 1 && i+cb+1 < len(text) && text[i+cb+1] == '(' {
				cp := strings.IndexByte(text[i+cb+1:], ')')
				if cp > 0 {
					linkText := text[i+1 : i+cb]
					url := text[i+cb+2 : i+cb+1+cp]
					out.WriteString(ansiUnderline)
					out.WriteString(ansiInfo)
					out.WriteString(linkText)
					out.WriteString(ansiReset)
					out.WriteString(ansiInfo)
					out.WriteString(" (")
					out.WriteString(url)
					out.WriteString(")")
					out.WriteString(ansiReset)
					i += cb + 1 + cp + 1
					continue
				}
			}
		}

		out.WriteByte(text[i])
		i++
	}
	return out.String()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
