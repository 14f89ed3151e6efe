package main

import (
	"fmt"
)

// ANSI color helpers
const (
	amber = "\033[38;2;232;161;60m"
	gray  = "\033[38;5;242m"
	white = "\033[1;37m"
	reset = "\033[0m"
	bold  = "\033[1m"
	dim   = "\033[2m"
)

func main() {
	info1 := white + "Reelix CLI " + gray + "v0.1.0" + reset
	info2 := gray + "localhost:8000 · Movies" + reset

	fmt.Println()
	fmt.Println(bold + "═══ Pick a reel logo ═══" + reset)

	// ── Option A: Film reel ──
	fmt.Println()
	fmt.Println(dim + "Option A — Film reel" + reset)
	fmt.Println()
	fmt.Printf("   %s▄▀▀▀▄%s\n", gray, reset)
	fmt.Printf("   %s█%s %s◉%s %s█%s%s▬▬▬▬▬▬▬▬%s   %s\n", gray, reset, amber, reset, gray, reset, amber, reset, info1)
	fmt.Printf("   %s▀▄▄▄▀%s%s▁▁▁▁▁▁▁▁%s    %s\n", gray, reset, amber, reset, info2)

	// ── Option B: Clapperboard ──
	fmt.Println()
	fmt.Println(dim + "Option B — Clapperboard" + reset)
	fmt.Println()
	fmt.Printf("   %s▄▀▄▀▄▀▄%s\n", amber, reset)
	fmt.Printf("   %s▐█████▌%s   %s\n", gray, reset, info1)
	fmt.Printf("   %s▐█████▌%s   %s\n", gray, reset, info2)

	// ── Option C: Projector beam ──
	fmt.Println()
	fmt.Println(dim + "Option C — Projector beam" + reset)
	fmt.Println()
	fmt.Printf("   %s▄██▄%s\n", gray, reset)
	fmt.Printf("   %s█%s%s◉%s%s▐█%s%s▶▶▶▶▶▶▶▶%s   %s\n", gray, reset, amber, reset, gray, reset, amber, reset, info1)
	fmt.Printf("   %s▀██▀%s            %s\n", gray, reset, info2)

	// ── Option D: Ticket stub ──
	fmt.Println()
	fmt.Println(dim + "Option D — Ticket stub" + reset)
	fmt.Println()
	fmt.Printf("   %s▛▀▀▀▀▀▜%s\n", amber, reset)
	fmt.Printf("   %s▌%s %s▶%s %s▐%s   %s\n", amber, reset, white, reset, amber, reset, info1)
	fmt.Printf("   %s▙▄▄▄▄▄▟%s   %s\n", amber, reset, info2)

	fmt.Println()
	fmt.Println(dim + "Which one? (A/B/C/D)" + reset)
	fmt.Println()
}
