package ui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/lookout/internal/logging"
)

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	if m.snapshot.Alert != "" {
		return m.renderAlert()
	}
	if m.showHelp {
		return m.renderHelp()
	}

	left := m.width / 2
	panels := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderPanel("Session", m.sessionLines(), left),
		m.renderPanel(m.rosterTitle(), m.rosterLines(), m.width-left),
	)
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		panels,
		m.renderPanel(m.logTitle(), strings.Split(m.logViewport.View(), "\n"), m.width),
		m.renderFooter(),
	)
}

// renderHeader renders the one-line status bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	snap := m.snapshot

	status := "STOPPED"
	switch {
	case snap.Halted:
		status = "HALTED"
	case snap.Running:
		status = "RUNNING"
	}

	parts := []string{
		styles.Logo.Render("lookout"),
		styles.Badge(status).Render(status),
		styles.Badge(snap.Session.Stage.String()).Render(snap.Session.Stage.String()),
	}

	switch {
	case snap.Paused:
		parts = append(parts, styles.WarningText.Render("viewer open, checks paused"))
	case !snap.LastCycle.IsZero():
		parts = append(parts, styles.MutedText.Render(fmt.Sprintf("last check %s (%d checked)",
			snap.LastCycle.Format("15:04:05"), snap.Checked)))
	}
	if snap.IsDegraded() {
		parts = append(parts, styles.DangerText.Render(fmt.Sprintf("%d cycles failed", snap.ConsecutiveFailures)))
	}
	if len(m.problems) > 0 {
		parts = append(parts, styles.DangerText.Render(fmt.Sprintf("%d config problems", len(m.problems))))
	}
	if m.notice != "" {
		parts = append(parts, styles.InfoText.Render(m.notice))
	}

	return styles.Header.Width(m.width).Render(strings.Join(parts, "  "))
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	var parts []string
	for _, binding := range m.keys.ShortHelp() {
		h := binding.Help()
		parts = append(parts, styles.AccentText.Render(h.Key)+" "+h.Desc)
	}
	return styles.Footer.Width(m.width).Render(strings.Join(parts, "  "))
}

// renderPanel draws a titled, bordered box of the given outer width.
func (m Model) renderPanel(title string, lines []string, width int) string {
	styles := m.theme.Styles()
	body := styles.TableHeader.Render(title) + "\n" + strings.Join(lines, "\n")
	return styles.Panel.Width(max(width-2, 1)).Render(body)
}

func (m Model) sessionLines() []string {
	styles := m.theme.Styles()
	snap := m.snapshot.Session
	row := func(label, value string) string {
		return styles.MutedText.Render(fmt.Sprintf("%-8s", label)) + " " + styles.Text.Render(value)
	}

	lines := make([]string, 0, panelHeight)
	if len(m.problems) > 0 {
		for _, problem := range m.problems {
			lines = append(lines, styles.DangerText.Render("! ")+styles.Text.Render(problem))
		}
		return clampLines(lines, panelHeight)
	}

	if !snap.InProgress() {
		lines = append(lines, styles.FaintText.Render("no session"))
	} else {
		lines = append(lines, row("player", fmt.Sprintf("%s (%s)", snap.Identity.Name, snap.Identity.RiotID)))
		if snap.Match != nil {
			lines = append(lines,
				row("game", fmt.Sprintf("%d %s %s", snap.Match.GameID, snap.Match.Mode, strings.ToUpper(snap.Match.Region))),
				row("length", formatDuration(snap.Match.Duration)),
			)
		}
		if !snap.StartedAt.IsZero() {
			lines = append(lines, row("since", snap.StartedAt.Format("15:04:05")))
		}
		if snap.Identity.Channel != "" {
			lines = append(lines, row("channel", snap.Identity.Channel))
		}
	}
	if err := snap.LastError; err != nil {
		lines = append(lines, styles.DangerText.Render("last failure ")+styles.Text.Render(err.Error()))
	}
	if m.snapshot.LastError != nil {
		lines = append(lines, styles.WarningText.Render("cycle ")+styles.Text.Render(m.snapshot.LastError.Error()))
	}
	return clampLines(lines, panelHeight)
}

func (m Model) rosterTitle() string {
	return fmt.Sprintf("Roster (%d)", len(m.snapshot.Roster))
}

func (m Model) rosterLines() []string {
	styles := m.theme.Styles()
	if len(m.snapshot.Roster) == 0 {
		return []string{styles.FaintText.Render("no players")}
	}

	current := m.snapshot.Session.Identity.Name
	if !m.snapshot.Session.InProgress() {
		current = ""
	}

	lines := make([]string, 0, len(m.snapshot.Roster))
	for _, id := range m.snapshot.Roster {
		marker := "  "
		style := styles.Text
		switch {
		case id.Name == current:
			marker = "▶ "
			style = styles.SuccessText
		case id.Name == m.snapshot.Selected:
			marker = "• "
		}
		lines = append(lines, style.Render(fmt.Sprintf("%s%3d  %-16s %-22s %s",
			marker, id.Priority, truncate(id.Name, 16), truncate(id.RiotID, 22), strings.ToUpper(id.Region))))
	}
	return clampLines(lines, panelHeight)
}

func (m Model) logTitle() string {
	follow := "off"
	if m.follow {
		follow = "on"
	}
	return fmt.Sprintf("Log (%d lines, follow %s)", len(m.logs), follow)
}

func (m Model) renderLogContent() string {
	lines := make([]string, len(m.logs))
	for i, record := range m.logs {
		lines[i] = m.formatRecord(record)
	}
	return strings.Join(lines, "\n")
}

func (m Model) formatRecord(record logging.Record) string {
	styles := m.theme.Styles()

	level := styles.InfoText
	switch {
	case record.Level >= slog.LevelError:
		level = styles.DangerText
	case record.Level >= slog.LevelWarn:
		level = styles.WarningText
	case record.Level >= logging.LevelSuccess:
		level = styles.SuccessText
	case record.Level < slog.LevelInfo:
		level = styles.FaintText
	}

	var b strings.Builder
	b.WriteString(styles.FaintText.Render(record.Time.Format("15:04:05")))
	b.WriteString(" ")
	b.WriteString(level.Render(fmt.Sprintf("%-7s", logging.LevelName(record.Level))))
	b.WriteString(" ")
	b.WriteString(styles.Text.Render(record.Message))
	for _, attr := range record.Attrs {
		b.WriteString(" ")
		b.WriteString(styles.MutedText.Render(attr.Key + "=" + attr.Value.String()))
	}
	return b.String()
}

func (m Model) renderAlert() string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(styles.DangerText.Render("Service halted"))
	b.WriteString("\n\n")
	b.WriteString(styles.Text.Render(m.snapshot.Alert))
	if m.snapshot.LastError != nil {
		b.WriteString("\n\n")
		b.WriteString(styles.MutedText.Render(m.snapshot.LastError.Error()))
	}
	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render("enter dismiss   s restart   e quit"))
	return m.overlay(b.String(), m.theme.Danger, 60)
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 1 {
		return string(runes[:n])
	}
	return string(runes[:n-1]) + "…"
}

func clampLines(lines []string, n int) []string {
	if len(lines) <= n {
		return lines
	}
	out := append([]string(nil), lines[:n-1]...)
	return append(out, fmt.Sprintf("… %d more", len(lines)-n+1))
}
