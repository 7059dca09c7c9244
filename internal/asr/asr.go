package asr

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by engines missing their credentials.
var ErrNotConfigured = errors.New("transcription engine not configured")

// Segment is one transcribed span, in seconds. Segments are ordered with
// non-decreasing start times.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the result of transcribing a full session asset once.
type Transcript struct {
	Segments []Segment
	Language string
}

// Engine is an external speech-to-text service operating on a whole audio
// asset.
type Engine interface {
	Transcribe(ctx context.Context, audioPath string) (Transcript, error)
}

type Source string

const (
	SourceEngine   Source = "engine"
	SourceFallback Source = "fallback"
)

type Result struct {
	Transcript Transcript
	Source     Source
}
