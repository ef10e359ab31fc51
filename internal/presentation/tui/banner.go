package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs an ASCII art banner with the running version.
func PrintBanner(version string) {
	p := termenv.ColorProfile()
	// Cool-to-warm gradient, one color per row.
	s1 := termenv.String(`  ____  ___ ____ _   _  ___  `).Foreground(p.Color("#38bdf8"))
	s2 := termenv.String(` |  _ \|_ _/ ___| \ | |/ _ \ `).Foreground(p.Color("#60a5fa"))
	s3 := termenv.String(` | |_) || | |  _|  \| | | | |`).Foreground(p.Color("#818cf8"))
	s4 := termenv.String(` |  _ < | | |_| | |\  | |_| |`).Foreground(p.Color("#a78bfa"))
	s5 := termenv.String(` |_| \_\___\____|_| \_|\___/ `).Foreground(p.Color("#c084fc"))
	v := termenv.String(fmt.Sprintf("   region interaction graph operator v%s", version)).Foreground(p.Color("#94a3b8"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println(v)
	fmt.Println()
}
