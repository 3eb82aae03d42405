package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/NicolasHaas/medscribe/pkg/audit"
	"github.com/NicolasHaas/medscribe/pkg/view"
)

var (
	accent = lipgloss.Color("#89b4fa")
	subtle = lipgloss.Color("#a6adc8")
	green  = lipgloss.Color("#a6e3a1")
	red    = lipgloss.Color("#f38ba8")
	peach  = lipgloss.Color("#fab387")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(accent)
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(subtle)
	okStyle      = lipgloss.NewStyle().Foreground(green)
	errorStyle   = lipgloss.NewStyle().Foreground(red)
	badgeStyle   = lipgloss.NewStyle().Foreground(peach).Bold(true)
	noteBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(subtle).
			Padding(0, 1)
)

// table renders rows in padded columns under a header.
func table(w io.Writer, header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	line := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = style.Render(cell) + strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
		}
		return strings.TrimRight(strings.Join(parts, "  "), " ")
	}

	_, _ = fmt.Fprintln(w, line(header, headerStyle))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, line(row, lipgloss.NewStyle()))
	}
}

func renderPatients(w io.Writer, rows []view.PatientRow, empty string) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, mutedStyle.Render(empty))
		return
	}
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		badge := ""
		if r.Shared {
			badge = badgeStyle.Render("Shared")
		}
		cells = append(cells, []string{strconv.FormatInt(r.ID, 10), r.Name, r.Phone, badge})
	}
	table(w, []string{"ID", "NAME", "PHONE", ""}, cells)
}

func renderPatient(w io.Writer, h view.PatientHeader) {
	_, _ = fmt.Fprintln(w, titleStyle.Render(h.Title))
	_, _ = fmt.Fprintln(w, mutedStyle.Render(h.Subtitle))
	if h.Membership != "" {
		_, _ = fmt.Fprintln(w, h.Membership)
	}
	if !h.CanWrite {
		_, _ = fmt.Fprintln(w, mutedStyle.Render("Read-only access"))
	}
}

func renderNotes(w io.Writer, cards []view.NoteCard, canWrite bool) {
	if len(cards) == 0 {
		_, _ = fmt.Fprintln(w, mutedStyle.Render(view.EmptyNotesText(canWrite)))
		return
	}
	for _, c := range cards {
		_, _ = fmt.Fprintln(w, mutedStyle.Render(c.Meta))
		_, _ = fmt.Fprintln(w, noteBoxStyle.Render(c.Text))
	}
}

func renderVitals(w io.Writer, rows []view.VitalsRow) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, mutedStyle.Render(view.EmptyVitalsText))
		return
	}
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, []string{r.Date, r.Time, r.BP, r.HeartRate, r.Temperature, r.SpO2})
	}
	table(w, []string{"DATE", "TIME", "BP", "HR", "TEMP", "SPO2"}, cells)
}

func renderShares(w io.Writer, list view.ShareList) {
	if list.Empty != "" {
		_, _ = fmt.Fprintln(w, mutedStyle.Render(list.Empty))
		return
	}
	cells := make([][]string, 0, len(list.Rows))
	for _, r := range list.Rows {
		revoke := ""
		if r.CanRevoke {
			revoke = "yes"
		}
		cells = append(cells, []string{strconv.FormatInt(r.UserID, 10), r.Name, r.Email, r.Permission, revoke})
	}
	table(w, []string{"USER", "NAME", "EMAIL", "ACCESS", "REVOCABLE"}, cells)
}

func renderAudit(w io.Writer, entries []audit.Entry, clock view.Clock) {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, mutedStyle.Render("No activity recorded"))
		return
	}
	cells := make([][]string, 0, len(entries))
	for _, e := range entries {
		patient := ""
		if e.Event.PatientID != 0 {
			patient = strconv.FormatInt(e.Event.PatientID, 10)
		}
		outcome := okStyle.Render(e.Event.Outcome)
		if e.Event.Outcome == audit.OutcomeFailed {
			outcome = errorStyle.Render(e.Event.Outcome)
		}
		cells = append(cells, []string{
			clock.Date(e.CreatedAt) + " " + clock.Time(e.CreatedAt),
			string(e.Event.Kind),
			patient,
			outcome,
			e.Event.Detail,
		})
	}
	table(w, []string{"WHEN", "EVENT", "PATIENT", "OUTCOME", "DETAIL"}, cells)
}
