// Package formatter styles the interactive shell's output with lipgloss.
package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for the console.
type Theme struct {
	PromptColor lipgloss.Color
	AnswerColor lipgloss.Color
	ErrorColor  lipgloss.Color
	MutedColor  lipgloss.Color
}

// DefaultTheme returns the default color theme.
func DefaultTheme() *Theme {
	return &Theme{
		PromptColor: lipgloss.Color("86"),  // Cyan
		AnswerColor: lipgloss.Color("142"), // Green
		ErrorColor:  lipgloss.Color("196"), // Red
		MutedColor:  lipgloss.Color("245"), // Grey
	}
}

// Console renders shell output. Zero value is unstyled; use NewConsole
// for the default theme.
type Console struct {
	// NoColor disables all styling.
	NoColor bool

	// Theme controls the color scheme.
	Theme *Theme
}

// NewConsole creates a console with the default theme.
func NewConsole() *Console {
	return &Console{Theme: DefaultTheme()}
}

// Prompt returns the styled input prompt.
func (c *Console) Prompt() string {
	return c.style("➜ ", c.color().PromptColor)
}

// Banner returns the startup banner naming the connected provider and model.
func (c *Console) Banner(server, version, model string) string {
	head := c.style("mcpchat", c.color().PromptColor)
	info := fmt.Sprintf("connected to %s %s · model %s", server, version, model)
	return head + "\n" + c.style(info, c.color().MutedColor) + "\n" + c.style("Type a query, or 'quit' to exit.", c.color().MutedColor)
}

// Answer returns the styled query result. Report lines keep the muted
// color so the summary stands out.
func (c *Console) Answer(text string) string {
	report, summary, split := splitReport(text)
	if !split {
		return c.style(text, c.color().AnswerColor)
	}
	return c.style(report, c.color().MutedColor) + "\n\n" + c.style(summary, c.color().AnswerColor)
}

// Error returns a styled error line.
func (c *Console) Error(err error) string {
	return c.style(fmt.Sprintf("Error: %v", err), c.color().ErrorColor)
}

func (c *Console) color() *Theme {
	if c.Theme == nil {
		return DefaultTheme()
	}
	return c.Theme
}

func (c *Console) style(text string, color lipgloss.Color) string {
	if c.NoColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}

// splitReport separates the tool report block from the summary at the
// first blank line.
func splitReport(text string) (report, summary string, ok bool) {
	i := strings.Index(text, "\n\n")
	if i < 0 {
		return "", "", false
	}
	return text[:i], text[i+2:], true
}
