// Package align assigns diarized speakers to transcription segments by
// maximum time overlap.
package align

import (
	"math"

	"github.com/google/uuid"
	"github.com/harumilabs/kikiwake/internal/asr"
	"github.com/harumilabs/kikiwake/internal/diarize"
)

// UnknownLabel is assigned when a transcription segment overlaps no
// speaker timeline at all.
const UnknownLabel = "UNKNOWN"

// defaultConfidence matches the recognizer default reported upstream.
const defaultConfidence = 0.95

// Utterance is one speaker-attributed transcribed span. Immutable once
// created.
type Utterance struct {
	ID           string  `json:"id"`
	SpeakerLabel string  `json:"speaker_id"`
	SpeakerName  string  `json:"speaker_name"`
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	DurationMS   int64   `json:"duration_ms"`
	Text         string  `json:"text"`
	Confidence   float64 `json:"confidence"`
}

// Assign produces exactly one utterance per transcription segment. The
// speaker is the label whose summed timeline overlap with the segment is
// largest; ties break toward the label that appears first in the
// annotation, so results never depend on map iteration order. SpeakerName
// is left empty for the caller to resolve.
func Assign(ann *diarize.Annotation, segments []asr.Segment) []Utterance {
	utterances := make([]Utterance, 0, len(segments))
	for _, seg := range segments {
		label := bestSpeaker(ann, seg)
		utterances = append(utterances, Utterance{
			ID:           uuid.NewString(),
			SpeakerLabel: label,
			Start:        seg.Start,
			End:          seg.End,
			DurationMS:   int64(math.Round((seg.End - seg.Start) * 1000)),
			Text:         seg.Text,
			Confidence:   defaultConfidence,
		})
	}
	return utterances
}

func bestSpeaker(ann *diarize.Annotation, seg asr.Segment) string {
	best := UnknownLabel
	bestOverlap := 0.0
	if ann == nil {
		return best
	}
	for _, label := range ann.Labels() {
		total := 0.0
		for _, g := range ann.LabelTimeline(label) {
			total += diarize.Overlap(seg.Start, seg.End, g.Start, g.End)
		}
		// strict improvement keeps the earliest-seen label on ties
		if total > bestOverlap {
			bestOverlap = total
			best = label
		}
	}
	return best
}
