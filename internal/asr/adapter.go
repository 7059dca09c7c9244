package asr

import (
	"context"
	"log/slog"
	"sort"
	"time"
)

// Adapter wraps an engine with the single-segment fallback. The session
// audio is transcribed at most once; Run is invoked only from session
// finalization.
type Adapter struct {
	engine  Engine
	timeout time.Duration
}

func NewAdapter(engine Engine, timeout time.Duration) *Adapter {
	return &Adapter{engine: engine, timeout: timeout}
}

func (a *Adapter) Run(ctx context.Context, audioPath string, durationSec float64) Result {
	if a.engine == nil {
		slog.Warn("transcription engine not configured; using single-segment fallback", "audio_path", audioPath)
		return Result{Transcript: fallbackTranscript(durationSec), Source: SourceFallback}
	}

	callCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	tr, err := a.engine.Transcribe(callCtx, audioPath)
	if err != nil {
		slog.Warn("transcription engine failed; using single-segment fallback", "error", err, "audio_path", audioPath)
		return Result{Transcript: fallbackTranscript(durationSec), Source: SourceFallback}
	}
	if len(tr.Segments) == 0 {
		slog.Warn("transcription returned no segments; using single-segment fallback", "audio_path", audioPath)
		return Result{Transcript: fallbackTranscript(durationSec), Source: SourceFallback}
	}
	sort.SliceStable(tr.Segments, func(i, j int) bool { return tr.Segments[i].Start < tr.Segments[j].Start })
	slog.Info("transcription completed", "audio_path", audioPath, "segments", len(tr.Segments), "language", tr.Language)
	return Result{Transcript: tr, Source: SourceEngine}
}

func fallbackTranscript(durationSec float64) Transcript {
	return Transcript{Segments: []Segment{{Start: 0, End: durationSec, Text: ""}}}
}
