package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/SCuellar21/picard/internal/webservice"
)

const (
	colID       = 8
	colMethod   = 6
	colHost     = 18
	colFlags    = 3
	colState    = 10
	colStatus   = 4
	colDuration = 8
	minPathCol  = 12
)

func (m Model) renderMain() string {
	styles := m.theme.Styles()
	var b strings.Builder

	b.WriteString(m.renderHeader(styles))
	b.WriteString("\n")
	b.WriteString(m.renderTable(styles))
	b.WriteString("\n")
	if m.showLog {
		b.WriteString(m.renderLog(styles))
		b.WriteString("\n")
	}
	b.WriteString(m.renderFooter(styles))
	return b.String()
}

func (m Model) renderHeader(styles Styles) string {
	c := m.snapshot.Counts
	parts := []string{
		styles.AccentText.Render(m.title),
		fmt.Sprintf("queued %d", c.Queued),
		fmt.Sprintf("running %d", c.Running),
		fmt.Sprintf("done %d", c.Done),
		styles.DangerText.Render(fmt.Sprintf("failed %d", c.Failed)),
		fmt.Sprintf("canceled %d", c.Canceled),
		styles.MutedText.Render("filter: " + m.filter.String()),
	}
	if m.snapshot.Idle() {
		parts = append(parts, styles.MutedText.Render("idle"))
	}
	line := strings.Join(parts, "  ")

	if err := m.snapshot.LastError; err != nil {
		line += "\n" + styles.WarningText.Render(truncate("last error: "+err.Error(), max(m.width-2, 10)))
	}
	return styles.Header.Width(max(m.width, 0)).Render(line)
}

func (m Model) pathWidth() int {
	fixed := colID + colMethod + colHost + colFlags + colState + colStatus + colDuration + 8
	return max(m.width-fixed, minPathCol)
}

func (m Model) renderTable(styles Styles) string {
	rows := m.visibleRequests()
	pathCol := m.pathWidth()

	header := formatRow(styles.MutedText, pathCol, "ID", "METHOD", "HOST", "PATH", "FL", "STATE", "CODE", "TIME")
	lines := []string{header}

	if len(rows) == 0 {
		lines = append(lines, styles.MutedText.Render("  no requests"))
		return strings.Join(lines, "\n")
	}

	limit := len(rows)
	reserved := 4
	if m.showLog {
		reserved += m.logHeight() + 1
	}
	if avail := m.height - reserved; avail > 0 && limit > avail {
		limit = avail
	}
	start := 0
	if m.selectedRow >= limit {
		start = m.selectedRow - limit + 1
	}
	for i := start; i < start+limit && i < len(rows); i++ {
		r := rows[i]
		status := ""
		if r.StatusCode > 0 {
			status = fmt.Sprintf("%d", r.StatusCode)
		}
		textStyle := styles.Text
		if i == m.selectedRow {
			textStyle = styles.Selected
		}
		lines = append(lines, formatRow(textStyle, pathCol,
			shortID(r.ID),
			r.Method,
			r.Host,
			r.Path,
			flags(r),
			styles.StateStyle(r.State).Render(r.State.String()),
			status,
			formatDuration(r.Duration()),
		))
	}
	return strings.Join(lines, "\n")
}

func formatRow(style lipgloss.Style, pathCol int, id, method, host, path, fl, state, code, dur string) string {
	left := strings.Join([]string{
		padRight(truncate(id, colID), colID),
		padRight(truncate(method, colMethod), colMethod),
		padRight(truncate(host, colHost), colHost),
		padRight(truncate(path, pathCol), pathCol),
		padRight(fl, colFlags),
	}, " ")
	right := strings.Join([]string{
		padRight(code, colStatus),
		dur,
	}, " ")
	return style.Render(left+" ") + padRight(state, colState) + style.Render(" "+right)
}

// logHeight is the number of log lines shown, a third of the screen.
func (m Model) logHeight() int {
	return max(m.height/3, 3)
}

func (m Model) renderLog(styles Styles) string {
	lines := []string{styles.AccentText.Render("log " + m.logPath)}
	if len(m.logLines) == 0 {
		lines = append(lines, styles.MutedText.Render("  no log entries"))
		return strings.Join(lines, "\n")
	}
	width := max(m.width-2, 10)
	for _, line := range m.logLines {
		lines = append(lines, styles.MutedText.Render(truncate(line, width)))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderFooter(styles Styles) string {
	text := m.help.ShortHelpView(m.keys.ShortHelp())
	if m.notice != "" {
		text = m.notice + "  " + text
	}
	return styles.Footer.Width(max(m.width, 0)).Render(text)
}

func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	body := m.help.FullHelpView(m.keys.FullHelp())
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Render(styles.AccentText.Render("Keys") + "\n\n" + body)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// flags renders P for priority and I for important.
func flags(r webservice.RequestInfo) string {
	var b strings.Builder
	if r.Priority {
		b.WriteByte('P')
	}
	if r.Important {
		b.WriteByte('I')
	}
	if b.Len() == 0 {
		return "-"
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > colID {
		return id[:colID]
	}
	return id
}

func formatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return ""
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
