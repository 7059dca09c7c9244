// Package speaker maps raw diarization labels to human-readable names.
package speaker

import (
	"fmt"

	"github.com/harumilabs/kikiwake/internal/align"
)

// Participant is one expected party in a session.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DefaultParticipants is the two-party interview scheme used when a session
// is started without an explicit participant list.
func DefaultParticipants() []Participant {
	return []Participant{
		{ID: "interviewer", Name: "Interviewer"},
		{ID: "subject", Name: "Interview Subject"},
	}
}

// canonical role names for the two-party interview scheme, keyed by
// detection order of the diarized labels.
var twoPartyRoles = []string{"Interviewer", "Interview Subject", "Additional Speaker"}

// Resolve maps each detected label to a display name. Resolution order:
// exact participant-id match, then the canonical interview roles when the
// session uses the default two-party scheme, then ordinal names by
// detection order. Pure function of (participants, labels).
func Resolve(participants []Participant, labels []string) map[string]string {
	byID := make(map[string]string, len(participants))
	for _, p := range participants {
		byID[p.ID] = p.Name
	}
	twoParty := isDefaultTwoParty(participants)

	names := make(map[string]string, len(labels)+1)
	ordinal := 0
	for _, label := range labels {
		if label == align.UnknownLabel {
			continue
		}
		ordinal++
		if name, ok := byID[label]; ok {
			names[label] = name
			continue
		}
		if twoParty && ordinal <= len(twoPartyRoles) {
			names[label] = twoPartyRoles[ordinal-1]
			continue
		}
		names[label] = fmt.Sprintf("Speaker %d", ordinal)
	}
	names[align.UnknownLabel] = "Unknown"
	return names
}

// Name looks up one label against a resolved mapping, with the generic
// fallback for labels never seen during resolution.
func Name(resolved map[string]string, label string) string {
	if name, ok := resolved[label]; ok {
		return name
	}
	if label == align.UnknownLabel || label == "" {
		return "Unknown"
	}
	return fmt.Sprintf("Speaker %s", label)
}

func isDefaultTwoParty(participants []Participant) bool {
	if len(participants) != 2 {
		return false
	}
	return participants[0].ID == "interviewer" && participants[1].ID == "subject"
}
