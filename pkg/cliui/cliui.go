// Package cliui provides reusable terminal UI helpers (spinners, step
// indicators, tables, markdown rendering) for relay CLI commands.
package cliui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var (
	SuccessMark = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	FailMark    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")
	StepStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	NameStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	DimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	WarnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	HeaderStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	KeyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	ValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))

	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
)

var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// DisableColor strips styling from every helper, for piped output and
// NO_COLOR.
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// ConfigureColor disables color when stdout is not a terminal or the
// environment asks for no color.
func ConfigureColor() {
	if os.Getenv("NO_COLOR") != "" || !IsTerminal(os.Stdout) {
		DisableColor()
		return
	}
	lipgloss.SetColorProfile(termenv.EnvColorProfile())
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Width returns the terminal width of stdout, or fallback.
func Width(fallback int) int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}

// Step prints an animated spinner while fn runs, then replaces it with
// a ✓ or ✗ checkmark and elapsed time.
func Step(w io.Writer, msg string, fn func() error) error {
	done := make(chan struct{})
	var mu sync.Mutex

	go func() {
		frame := 0
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for {
			mu.Lock()
			fmt.Fprintf(w, "\r  %s %s",
				spinnerStyle.Render(spinnerFrames[frame%len(spinnerFrames)]),
				msg,
			)
			mu.Unlock()

			select {
			case <-done:
				return
			case <-ticker.C:
				frame++
			}
		}
	}()

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	close(done)

	mu.Lock()
	fmt.Fprintf(w, "\r  %s %s %s\n",
		Mark(err),
		msg,
		StepStyle.Render(fmt.Sprintf("(%s)", FormatDuration(elapsed))),
	)
	mu.Unlock()

	return err
}

// Mark returns a ✓ for nil errors or ✗ for non-nil errors.
func Mark(err error) string {
	if err != nil {
		return FailMark
	}
	return SuccessMark
}

// FormatDuration formats a duration for display (e.g. "12ms" or "3.2s").
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// Table writes rows as left-aligned columns. Cells may contain ANSI styling;
// widths are measured on the visible text. A cell wider than maxCell is
// truncated with an ellipsis. The header row is rendered with HeaderStyle.
func Table(w io.Writer, header []string, rows [][]string, maxCell int) {
	all := append([][]string{header}, rows...)

	widths := make([]int, len(header))
	for _, row := range all {
		for i := range widths {
			if i >= len(row) {
				continue
			}
			if n := ansi.StringWidth(clip(row[i], maxCell)); n > widths[i] {
				widths[i] = n
			}
		}
	}

	for r, row := range all {
		var sb strings.Builder
		sb.WriteString("  ")
		for i := range widths {
			cell := ""
			if i < len(row) {
				cell = clip(row[i], maxCell)
			}
			pad := widths[i] - ansi.StringWidth(cell)
			if r == 0 {
				cell = HeaderStyle.Render(cell)
			}
			sb.WriteString(cell)
			if i < len(widths)-1 {
				sb.WriteString(strings.Repeat(" ", pad+2))
			}
		}
		fmt.Fprintln(w, strings.TrimRight(sb.String(), " "))
	}
}

func clip(s string, maxCell int) string {
	if maxCell <= 0 || ansi.StringWidth(s) <= maxCell {
		return s
	}
	return ansi.Truncate(s, maxCell, "…")
}

// RenderMarkdown renders markdown content for terminal display using glamour.
func RenderMarkdown(content string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(min(Width(80), 120)),
	)
	if err != nil {
		return content, err
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content, err
	}

	return rendered, nil
}
