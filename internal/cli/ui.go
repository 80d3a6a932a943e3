// Copyright (c) 2026 John Dewey

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to
// deal in the Software without restriction, including without limitation the
// rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
// sell copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:

// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER
// DEALINGS IN THE SOFTWARE.

package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/retr0h/tether/internal/auth"
	"github.com/retr0h/tether/internal/data"
	"github.com/retr0h/tether/internal/diag"
	"github.com/retr0h/tether/internal/session"
)

// Theme colors for terminal UI rendering.
var (
	Purple    = lipgloss.Color("99")
	Gray      = lipgloss.Color("245")
	LightGray = lipgloss.Color("241")
	White     = lipgloss.Color("15")
	Teal      = lipgloss.Color("#06ffa5")
)

// Reusable inline styles for compact key-value output.
var (
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(Purple)
	valueStyle = lipgloss.NewStyle().Foreground(Teal)

	// DimStyle is a muted style for secondary text.
	DimStyle = lipgloss.NewStyle().Foreground(Gray)
)

// Section represents a header with its corresponding rows.
type Section struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// compactMaxColWidth is the maximum column width before truncation.
const compactMaxColWidth = 50

// PrintCompactTable renders a compact column-aligned table (kubectl-style).
// Headers are uppercase purple, data rows are teal, with 2-space indent.
// Multi-line cell values are flattened to a single line and long values
// are truncated with an ellipsis.
func PrintCompactTable(
	sections []Section,
) {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(Purple)
	evenStyle := lipgloss.NewStyle().Foreground(Teal)
	oddStyle := lipgloss.NewStyle().Foreground(White)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(Purple)

	const colGap = 2

	for _, section := range sections {
		if section.Title != "" {
			fmt.Printf("\n  %s:\n", titleStyle.Render(section.Title))
		} else {
			fmt.Println()
		}

		flatRows := make([][]string, len(section.Rows))
		for r, row := range section.Rows {
			flat := make([]string, len(row))
			for c, cell := range row {
				flat[c] = strings.Join(strings.Fields(cell), " ")
			}
			flatRows[r] = flat
		}

		widths := make([]int, len(section.Headers))
		for i, h := range section.Headers {
			widths[i] = len(h)
		}
		for _, row := range flatRows {
			for i, cell := range row {
				if i < len(widths) && len(cell) > widths[i] {
					widths[i] = len(cell)
				}
			}
		}
		for i := range widths {
			if widths[i] > compactMaxColWidth {
				widths[i] = compactMaxColWidth
			}
		}

		var hdr strings.Builder
		hdr.WriteString("  ")
		for i, h := range section.Headers {
			if i < len(section.Headers)-1 {
				hdr.WriteString(
					headerStyle.Render(fmt.Sprintf("%-*s", widths[i]+colGap, strings.ToUpper(h))),
				)
			} else {
				hdr.WriteString(headerStyle.Render(strings.ToUpper(h)))
			}
		}
		fmt.Println(hdr.String())

		for r, row := range flatRows {
			rowStyle := evenStyle
			if r%2 != 0 {
				rowStyle = oddStyle
			}
			var line strings.Builder
			line.WriteString("  ")
			for i := range section.Headers {
				cell := ""
				if i < len(row) {
					cell = row[i]
				}
				if len(cell) > widths[i] {
					cell = cell[:widths[i]-1] + "…"
				}
				if i < len(section.Headers)-1 {
					line.WriteString(rowStyle.Render(fmt.Sprintf("%-*s", widths[i]+colGap, cell)))
				} else {
					line.WriteString(rowStyle.Render(cell))
				}
			}
			fmt.Println(line.String())
		}
	}
}

// KVMinColWidth is the minimum visual width for each key-value column.
// A consistent minimum ensures columns align across consecutive PrintKV calls.
const KVMinColWidth = 20

// PrintKV prints labeled key-value pairs on a single indented line.
// Pairs are padded to equal column widths for alignment.
// Arguments alternate between labels and values: label1, val1, label2, val2, ...
func PrintKV(
	pairs ...string,
) {
	if len(pairs)%2 != 0 || len(pairs) == 0 {
		return
	}

	rendered := make([]string, 0, len(pairs)/2)
	maxWidth := KVMinColWidth
	for i := 0; i < len(pairs); i += 2 {
		pair := labelStyle.Render(pairs[i]+":") + " " + valueStyle.Render(pairs[i+1])
		rendered = append(rendered, pair)
		if w := lipgloss.Width(pair); w > maxWidth {
			maxWidth = w
		}
	}

	var line strings.Builder
	line.WriteString("  ")
	for i, pair := range rendered {
		line.WriteString(pair)
		if i < len(rendered)-1 {
			pad := maxWidth - lipgloss.Width(pair) + 4
			line.WriteString(strings.Repeat(" ", pad))
		}
	}
	fmt.Println(line.String())
}

// FormatAge formats a duration as a human-readable age string.
// Returns "3d 4h", "12h 30m", "45m", "30s" etc.
func FormatAge(
	d time.Duration,
) string {
	if d <= 0 {
		return ""
	}

	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm", minutes)
	default:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
}

// FormatBytes formats a byte count as a human-readable string (e.g., "5.2 KB", "1.0 MB").
func FormatBytes(
	b int,
) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)

	switch {
	case b >= gb:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// FormatStatus renders an HTTP status, naming the synthetic code when
// the backend was never reached.
func FormatStatus(
	status int,
	syntheticCode string,
) string {
	if status == 0 && syntheticCode != "" {
		return "0 (" + syntheticCode + ")"
	}

	return fmt.Sprintf("%d", status)
}

// FormatTime renders t relative to now, or "never" for the zero time.
func FormatTime(
	t time.Time,
	now time.Time,
) string {
	if t.IsZero() {
		return "never"
	}

	if age := FormatAge(now.Sub(t)); age != "" {
		return age + " ago"
	}

	return t.Format(time.RFC3339)
}

// PrettyJSON indents raw JSON for display. Input that is not JSON is
// returned unchanged.
func PrettyJSON(
	raw []byte,
) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}

	return buf.String()
}

// HandleResultError logs a failed data operation.
func HandleResultError(
	res data.Result,
	logger *slog.Logger,
) {
	if res.Error == nil {
		logger.Error(
			"operation failed",
			slog.Int("status", res.Status),
		)
		return
	}

	attrs := []any{
		slog.Int("status", res.Status),
		slog.String("code", res.Error.Code),
		slog.String("message", res.Error.Message),
	}
	if res.Error.Details != "" {
		attrs = append(attrs, slog.String("details", res.Error.Details))
	}
	if res.Error.Hint != "" {
		attrs = append(attrs, slog.String("hint", res.Error.Hint))
	}

	logger.Error("operation failed", attrs...)
}

// DisplayResult prints a successful data result.
func DisplayResult(
	res data.Result,
) {
	fmt.Println()
	PrintKV("Status", FormatStatus(res.Status, res.SyntheticCode()))
	if len(res.Data) == 0 {
		return
	}

	fmt.Println()
	fmt.Println(PrettyJSON(res.Data))
}

// DisplaySession prints the signed-in user and token expiry. Tokens are
// never printed.
func DisplaySession(
	sess *auth.Session,
	now time.Time,
) {
	fmt.Println()
	if sess == nil {
		PrintKV("Session", "none")
		return
	}

	expires := "unknown"
	if exp := sess.Expiry(); !exp.IsZero() {
		if left := exp.Sub(now); left > 0 {
			expires = "in " + FormatAge(left)
		} else {
			expires = "expired"
		}
	}

	PrintKV("User", sess.User.Email, "ID", sess.User.ID)
	PrintKV("Role", sess.User.Role, "Expires", expires)
}

// BuildEventRows converts network events to table rows, newest first.
func BuildEventRows(
	events []diag.NetEvent,
) [][]string {
	rows := make([][]string, 0, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		rows = append(rows, []string{
			ev.Timestamp.Format(time.TimeOnly),
			ev.Via,
			ev.Method,
			ev.Path,
			FormatStatus(ev.Status, ev.SyntheticCode),
			fmt.Sprintf("%dms", ev.DurationMs),
		})
	}

	return rows
}

// DisplayDiagnostics prints a diagnostics payload.
func DisplayDiagnostics(
	d session.Diagnostics,
	now time.Time,
) {
	fmt.Println()
	PrintKV(
		"Environment", d.Config.Environment,
		"URL", presence(d.Config.URLPresent, d.Config.URL),
		"API Key", presence(d.Config.APIKeyPresent, d.Config.APIKey),
	)
	PrintKV(
		"Recorded", fmt.Sprintf("%d", d.Stats.TotalRecorded),
		"Reported", fmt.Sprintf("%d", d.Stats.Reported),
		"Suppressed", fmt.Sprintf("%d", d.Stats.Suppressed),
	)
	PrintKV(
		"Refresh", FormatTime(d.Refresh.LastAttemptAt, now),
		"In Flight", fmt.Sprintf("%t", d.Refresh.InFlight),
		"Auto Refresh", fmt.Sprintf("%t", d.Lifecycle.Running),
	)
	if !d.Refresh.LastAuthFailureAt.IsZero() {
		PrintKV(
			"Auth Failure", FormatTime(d.Refresh.LastAuthFailureAt, now),
			"Auth Status", fmt.Sprintf("%d", d.Refresh.LastAuthStatus),
		)
	}
	if d.Probe != nil {
		PrintKV(
			"Probe", d.Probe.Reason,
			"Probe Status", FormatStatus(d.Probe.Status, d.Probe.SyntheticCode),
			"Probed", FormatTime(d.Probe.At, now),
		)
	}

	if len(d.Events) == 0 {
		fmt.Println()
		fmt.Println("  " + DimStyle.Render("No network events recorded."))
		return
	}

	PrintCompactTable([]Section{{
		Title:   "Events",
		Headers: []string{"TIME", "VIA", "METHOD", "PATH", "STATUS", "DURATION"},
		Rows:    BuildEventRows(d.Events),
	}})
}

func presence(
	ok bool,
	value string,
) string {
	if !ok {
		return "missing"
	}

	return value
}
