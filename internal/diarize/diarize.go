package diarize

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by engines that were built without the
// credentials or endpoint they need.
var ErrNotConfigured = errors.New("diarization engine not configured")

// Engine is an external speaker diarization service.
type Engine interface {
	Diarize(ctx context.Context, audioPath string) (*Annotation, error)
}

// Source records whether an annotation came from the real engine or from
// the windowed heuristic.
type Source string

const (
	SourceEngine   Source = "engine"
	SourceFallback Source = "fallback"
)

// Result is the uniform adapter output: the annotation shape is identical
// for both sources, so the aligner never special-cases which produced it.
type Result struct {
	Annotation *Annotation
	Source     Source
}
