package output

import (
	"os"

	"golang.org/x/term"
)

// TerminalCapabilities describes what the attached terminal can render.
type TerminalCapabilities struct {
	IsTTY           bool
	SupportsColor   bool
	SupportsUnicode bool
	Width           int
}

// Symbols is the set of marks printed next to task titles.
type Symbols struct {
	Success    string
	Failure    string
	Skipped    string
	Pointer    string
	Output     string
	SpinnerSet int
}

// DetectTerminalCapabilities inspects stdout and the NO_COLOR and PLUGINPUB_ASCII variables.
func DetectTerminalCapabilities() TerminalCapabilities {
	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	noColor := os.Getenv("NO_COLOR") != ""
	forceASCII := os.Getenv("PLUGINPUB_ASCII") == "1"
	width := 0
	if isTTY {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			width = w
		}
	}
	return TerminalCapabilities{
		IsTTY:           isTTY,
		SupportsColor:   isTTY && !noColor,
		SupportsUnicode: isTTY && !forceASCII,
		Width:           width,
	}
}

// SelectSymbols returns unicode marks with the braille spinner (set 14),
// or ASCII marks with the |/-\ spinner (set 9).
func SelectSymbols(caps TerminalCapabilities) Symbols {
	if caps.SupportsUnicode {
		return Symbols{
			Success:    "✔",
			Failure:    "✖",
			Skipped:    "↓",
			Pointer:    "❯",
			Output:     "→",
			SpinnerSet: 14,
		}
	}
	return Symbols{
		Success:    "[OK]",
		Failure:    "[FAIL]",
		Skipped:    "[SKIP]",
		Pointer:    ">",
		Output:     "->",
		SpinnerSet: 9,
	}
}
