package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/picatz/icall"
	"golang.org/x/term"
)

// Pastel / adaptive lipgloss styles. Users may disable color with NO_COLOR,
// ICALL_THEME=plain or --plain; output that is not a terminal is always
// plain. Initialized via initStyles.
var (
	styled       bool
	styleFaint   lipgloss.Style
	styleNumber  lipgloss.Style
	styleHeader  lipgloss.Style
	styleSuccess lipgloss.Style
	styleWarning lipgloss.Style
	styleError   lipgloss.Style
	stylePos     lipgloss.Style
)

func initStyles(plain bool) {
	plain = plain ||
		os.Getenv("NO_COLOR") != "" ||
		strings.EqualFold(os.Getenv("ICALL_THEME"), "plain") ||
		!term.IsTerminal(int(os.Stdout.Fd()))

	styled = !plain
	if plain {
		reset := lipgloss.NewStyle()
		styleFaint = reset
		styleNumber = reset
		styleHeader = reset
		styleSuccess = reset
		styleWarning = reset
		styleError = reset
		stylePos = reset
		return
	}

	pastelBlue := lipgloss.AdaptiveColor{Light: "#3366cc", Dark: "#8fb3ff"}
	pastelRose := lipgloss.AdaptiveColor{Light: "#ad5d7d", Dark: "#ffb3c9"}
	pastelGold := lipgloss.AdaptiveColor{Light: "#b58b00", Dark: "#ffd666"}
	pastelGreen := lipgloss.AdaptiveColor{Light: "#2f7d32", Dark: "#9ada9f"}
	pastelGray := lipgloss.AdaptiveColor{Light: "#6b6f76", Dark: "#9aa0aa"}
	pastelPkg := lipgloss.AdaptiveColor{Light: "#4a6892", Dark: "#87a7d9"}

	styleFaint = lipgloss.NewStyle().Foreground(pastelGray)
	styleNumber = lipgloss.NewStyle().Foreground(pastelGold).Bold(true)
	styleHeader = lipgloss.NewStyle().Foreground(pastelBlue).Bold(true)
	styleSuccess = lipgloss.NewStyle().Foreground(pastelGreen)
	styleWarning = lipgloss.NewStyle().Foreground(pastelGold).Bold(true)
	styleError = lipgloss.NewStyle().Foreground(pastelRose).Bold(true)
	stylePos = lipgloss.NewStyle().Foreground(pastelPkg)
}

// verdictStyle returns the style used for counts of v.
func verdictStyle(v icall.Verdict) lipgloss.Style {
	switch v {
	case icall.DevirtCovered, icall.PGOCovered:
		return styleSuccess
	case icall.Uncovered:
		return styleError
	case icall.Unexercised:
		return styleWarning
	default:
		return styleFaint
	}
}

// styledEmitter prints uncovered call sites as they are found.
func styledEmitter(w io.Writer) icall.Emitter {
	if !styled {
		return icall.TextEmitter(w)
	}
	return icall.EmitterFunc(func(site icall.Site) {
		pos := icall.PositionOf(site.Instr)
		prefix := ""
		if pos.IsValid() {
			prefix = stylePos.Render(pos.String()) + ": "
		}
		fmt.Fprintf(w, "%s %s%s\n", styleError.Render("✗"), prefix, site.Instr)
	})
}

var verdictLabels = map[icall.Verdict]string{
	icall.DevirtCovered: "covered by devirt",
	icall.PGOCovered:    "covered by PGO",
	icall.Unexercised:   "not covered but also not exercised",
	icall.Uncovered:     "exercised and not covered",
	icall.UnnamedBlock:  "in unnamed blocks",
}

// writeSummary writes the audit summary. Plain output is the fixed four
// line report; styled output adds the uncovered and unnamed counts and
// percentages of the total.
func writeSummary(w io.Writer, c icall.Counters) error {
	if !styled {
		return c.Report(w)
	}

	var b strings.Builder
	b.WriteString("\n" + styleHeader.Render("Indirect calls") + " " + styleNumber.Render(humanize.Comma(int64(c.Total))) + "\n")

	for _, v := range []icall.Verdict{icall.DevirtCovered, icall.PGOCovered, icall.Unexercised, icall.Uncovered, icall.UnnamedBlock} {
		n := c.Count(v)
		percent := 0.0
		if c.Total > 0 {
			percent = float64(n) / float64(c.Total) * 100
		}
		fmt.Fprintf(&b, "  %s %s %s\n",
			verdictStyle(v).Render(fmt.Sprintf("%8s", humanize.Comma(int64(n)))),
			styleFaint.Render(fmt.Sprintf("%5.1f%%", percent)),
			verdictLabels[v],
		)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
