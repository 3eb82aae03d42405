package view

import (
	"strings"

	"github.com/NicolasHaas/medscribe/pkg/model"
)

// NoNotesText is shown for a note that carries no text at all.
const NoNotesText = "No notes recorded"

// EmptyNotesText is shown when a patient has no notes. The prompt to add one
// is left out for users who cannot write to the record.
func EmptyNotesText(canWrite bool) string {
	if canWrite {
		return "No clinical notes yet. Add the first note!"
	}
	return "No clinical notes yet."
}

// NoteCard is one entry of the notes timeline.
type NoteCard struct {
	ID   int64
	Meta string
	Text string
}

// NoteText prefers the free-text notes, then the SOAP sections.
func NoteText(n model.Note) string {
	if strings.TrimSpace(n.RawNotes) != "" {
		return n.RawNotes
	}
	var parts []string
	for _, s := range []string{n.Subjective, n.Objective, n.Assessment, n.Plan} {
		if strings.TrimSpace(s) != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return NoNotesText
	}
	return strings.Join(parts, "\n\n")
}

// NoteCards renders the timeline in the order the backend returned it.
func NoteCards(notes []model.Note, c Clock) []NoteCard {
	cards := make([]NoteCard, 0, len(notes))
	for _, n := range notes {
		date, clock := c.Stamp(n.CreatedAt)
		meta := date
		if clock != "" {
			meta += ", " + clock
		}
		if n.PhysicianName != "" {
			meta += " • Dr. " + n.PhysicianName
		}
		cards = append(cards, NoteCard{ID: n.ID, Meta: meta, Text: NoteText(n)})
	}
	return cards
}
