package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Status is the outcome shown by a badge.
type Status int

const (
	StatusPass Status = iota
	StatusFail
	StatusSkip
)

// Badge renders a short status marker.
func Badge(s Status) string {
	switch s {
	case StatusPass:
		return StyleStatusGood.Render("PASS")
	case StatusFail:
		return StyleStatusBad.Render("FAIL")
	}
	return StyleStatusWarn.Render("SKIP")
}

// Row is one labelled line of a card.
type Row struct {
	Status Status
	Label  string
	Detail string
}

// labelWidth aligns row details in a card.
const labelWidth = 34

// Card renders a titled panel of status rows.
func Card(title string, rows []Row) string {
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		line := Badge(r.Status) + " " + StyleLabel.Render(fmt.Sprintf("%-*s", labelWidth, r.Label))
		if r.Detail != "" {
			line += " " + StyleMuted.Render(r.Detail)
		}
		lines = append(lines, line)
	}
	body := lipgloss.JoinVertical(lipgloss.Left, StyleTitle.Render(title), strings.Join(lines, "\n"))
	return StyleCard.Render(body)
}

// Tally renders "passed/total" colored by whether everything passed.
func Tally(passed, total int) string {
	text := fmt.Sprintf("%d/%d", passed, total)
	if passed == total {
		return StyleStatusGood.Render(text)
	}
	return StyleStatusBad.Render(text)
}
