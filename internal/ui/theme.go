// Package ui holds the shared CLI theme: a small set of lipgloss
// styles and glyph renderers used by every fd command. Styling is
// disabled automatically when stdout is not a terminal, so piped
// output stays plain.
package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const (
	GlyphDone    = "✓"
	GlyphOpen    = "○"
	GlyphStep    = "·"
	GlyphPomo    = "🍅"
	GlyphStreak  = "🔥"
	GlyphCloud   = "☁"
	GlyphGuest   = "💻"
	GlyphWarn    = "⚠"
	GlyphError   = "✗"
	GlyphSelect  = "▸"
	GlyphCalItem = "▪"
)

var (
	cAccent = lipgloss.Color("205")
	cGood   = lipgloss.Color("42")
	cWarn   = lipgloss.Color("214")
	cBad    = lipgloss.Color("196")
	cMuted  = lipgloss.Color("244")
	cBlue   = lipgloss.Color("63")
)

var (
	Title  = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	Header = lipgloss.NewStyle().Bold(true).Foreground(cBlue)
	Good   = lipgloss.NewStyle().Bold(true).Foreground(cGood)
	Warn   = lipgloss.NewStyle().Bold(true).Foreground(cWarn)
	Bad    = lipgloss.NewStyle().Bold(true).Foreground(cBad)
	Muted  = lipgloss.NewStyle().Foreground(cMuted)
	Key    = lipgloss.NewStyle().Bold(true).Foreground(cBlue)
)

func init() {
	// Plain output for pipes and dumb terminals.
	if !term.IsTerminal(int(os.Stdout.Fd())) || termenv.EnvColorProfile() == termenv.Ascii {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// RenderPass renders a success line.
func RenderPass(msg string) string {
	return Good.Render(GlyphDone) + " " + msg
}

// RenderWarn renders a warning line.
func RenderWarn(msg string) string {
	return Warn.Render(GlyphWarn) + " " + msg
}

// RenderFail renders a failure line.
func RenderFail(msg string) string {
	return Bad.Render(GlyphError) + " " + msg
}

// RenderAccent renders an emphasized heading.
func RenderAccent(msg string) string {
	return Title.Render(msg)
}

// LabelValue renders a "key: value" pair with the key emphasized.
func LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", Key.Render(label+":"), value)
}

// Checkbox renders the completed/open glyph for list rows.
func Checkbox(completed bool) string {
	if completed {
		return Good.Render(GlyphDone)
	}
	return Muted.Render(GlyphOpen)
}

// ModeBadge renders the sync mode indicator.
func ModeBadge(mode string) string {
	switch strings.ToLower(mode) {
	case "cloud":
		return Header.Render(GlyphCloud + " cloud")
	case "guest":
		return Muted.Render(GlyphGuest + " guest")
	default:
		return Muted.Render(mode)
	}
}

// PomoProgress renders "completed/estimated" pomodoro counts, dimmed
// when nothing is estimated.
func PomoProgress(completed, estimated int) string {
	if estimated == 0 {
		return Muted.Render(fmt.Sprintf("%s %d", GlyphPomo, completed))
	}
	s := fmt.Sprintf("%s %d/%d", GlyphPomo, completed, estimated)
	if completed >= estimated {
		return Good.Render(s)
	}
	return Header.Render(s)
}

// Streak renders a streak count with its glyph, dimmed at zero.
func Streak(days int) string {
	if days == 0 {
		return Muted.Render(GlyphStreak + " 0")
	}
	return Warn.Render(fmt.Sprintf("%s %d", GlyphStreak, days))
}
