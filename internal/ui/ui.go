package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorPrimary = lipgloss.Color("#F7A41D") // zig orange
	colorSuccess = lipgloss.Color("#10B981")
	colorError   = lipgloss.Color("#EF4444")
	colorWarning = lipgloss.Color("#F59E0B")
	colorInfo    = lipgloss.Color("#3B82F6")
	colorMuted   = lipgloss.Color("#6B7280")
	colorSubtle  = lipgloss.Color("#9CA3AF")
	colorText    = lipgloss.Color("#F9FAFB")
)

var (
	styleSuccess = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	styleError   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	styleWarn    = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	styleInfo    = lipgloss.NewStyle().Foreground(colorInfo).Bold(true)

	styleBold    = lipgloss.NewStyle().Bold(true)
	styleDim     = lipgloss.NewStyle().Foreground(colorMuted)
	stylePrimary = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)

	styleLabel = lipgloss.NewStyle().Foreground(colorSubtle).Width(12)
	styleValue = lipgloss.NewStyle().Foreground(colorText)
)

const (
	iconSuccess  = "✓"
	iconError    = "✗"
	iconWarning  = "!"
	iconInfo     = "●"
	iconArrow    = "→"
	iconBullet   = "•"
	iconDownload = "↓"
	iconBuild    = "⚙"
)

// Output is where all messages go. Tests may redirect it.
var Output io.Writer = os.Stderr

func SuccessPrefix() string { return styleSuccess.Render(iconSuccess) }
func ErrorPrefix() string   { return styleError.Render(iconError) }
func WarnPrefix() string    { return styleWarn.Render(iconWarning) }
func InfoPrefix() string    { return styleInfo.Render(iconInfo) }

// Success prints a success message.
func Success(msg string, args ...any) {
	fmt.Fprintf(Output, "%s %s\n", SuccessPrefix(), fmt.Sprintf(msg, args...))
}

// Error prints an error message.
func Error(msg string, args ...any) {
	fmt.Fprintf(Output, "%s %s\n", ErrorPrefix(), fmt.Sprintf(msg, args...))
}

// Warn prints a warning message.
func Warn(msg string, args ...any) {
	fmt.Fprintf(Output, "%s %s\n", WarnPrefix(), fmt.Sprintf(msg, args...))
}

// Info prints an info message.
func Info(msg string, args ...any) {
	fmt.Fprintf(Output, "%s %s\n", InfoPrefix(), fmt.Sprintf(msg, args...))
}

// Step prints an indented step message.
func Step(msg string, args ...any) {
	fmt.Fprintf(Output, "  %s %s\n", styleDim.Render(iconBullet), fmt.Sprintf(msg, args...))
}

// Label prints a key-value pair with consistent formatting.
func Label(key, value string) {
	fmt.Fprintf(Output, "  %s %s\n", styleLabel.Render(key), styleValue.Render(value))
}

// Target prints the cross-compilation header.
func Target(target, host string) {
	fmt.Fprintf(Output, "%s %s %s\n",
		styleInfo.Render(iconArrow),
		stylePrimary.Render(target),
		styleDim.Render("(host "+host+")"))
}

// Building prints the build start message.
func Building(target string) {
	fmt.Fprintf(Output, "%s %s %s\n",
		styleInfo.Render(iconBuild),
		styleDim.Render("Building"),
		styleBold.Render(target))
}

// Built prints the build completion message.
func Built(duration time.Duration) {
	fmt.Fprintf(Output, "%s %s %s\n",
		SuccessPrefix(),
		styleDim.Render("Built in"),
		FormatDuration(duration))
}

// Downloading prints the download start message.
func Downloading(name string) {
	fmt.Fprintf(Output, "%s %s %s\n",
		styleInfo.Render(iconDownload),
		styleDim.Render("Downloading"),
		name)
}

// Table renders a simple aligned table.
type Table struct {
	headers []string
	rows    [][]string
	widths  []int
}

// NewTable creates a new table with headers.
func NewTable(headers ...string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	return &Table{headers: headers, widths: widths}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cols ...string) {
	for i, c := range cols {
		if i < len(t.widths) && len(c) > t.widths[i] {
			t.widths[i] = len(c)
		}
	}
	t.rows = append(t.rows, cols)
}

// Render writes the table to w.
func (t *Table) Render(w io.Writer) {
	fmt.Fprintf(w, "  %s\n", styleDim.Render(t.line(t.headers)))

	sep := make([]string, len(t.widths))
	for i, n := range t.widths {
		sep[i] = strings.Repeat("─", n)
	}
	fmt.Fprintf(w, "  %s\n", styleDim.Render(strings.Join(sep, "  ")))

	for _, row := range t.rows {
		fmt.Fprintf(w, "  %s\n", t.line(row))
	}
}

func (t *Table) line(cols []string) string {
	var b strings.Builder
	for i, col := range cols {
		if i > 0 {
			b.WriteString("  ")
		}
		if i < len(t.widths) && i < len(cols)-1 {
			fmt.Fprintf(&b, "%-*s", t.widths[i], col)
		} else {
			b.WriteString(col)
		}
	}
	return b.String()
}

// FormatSize formats bytes as human readable string.
func FormatSize(b int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)
	switch {
	case b >= GB:
		return fmt.Sprintf("%.1f GB", float64(b)/GB)
	case b >= MB:
		return fmt.Sprintf("%.1f MB", float64(b)/MB)
	case b >= KB:
		return fmt.Sprintf("%.1f KB", float64(b)/KB)
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// FormatDuration formats duration as human readable string.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
