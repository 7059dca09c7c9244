package diarize

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	DefaultWindowSec    = 10.0
	DefaultSpeakerCount = 2
)

// Adapter prefers the engine and degrades to the deterministic windowed
// heuristic when the engine is missing, errors, or times out. Run never
// fails: the pipeline always gets an annotation.
type Adapter struct {
	engine       Engine
	timeout      time.Duration
	windowSec    float64
	speakerCount int
}

func NewAdapter(engine Engine, timeout time.Duration, windowSec float64, speakerCount int) *Adapter {
	if windowSec <= 0 {
		windowSec = DefaultWindowSec
	}
	if speakerCount <= 0 {
		speakerCount = DefaultSpeakerCount
	}
	return &Adapter{
		engine:       engine,
		timeout:      timeout,
		windowSec:    windowSec,
		speakerCount: speakerCount,
	}
}

func (a *Adapter) Run(ctx context.Context, audioPath string, durationSec float64) Result {
	if a.engine == nil {
		slog.Warn("diarization engine not configured; using windowed fallback", "audio_path", audioPath)
		return Result{Annotation: a.fallback(durationSec), Source: SourceFallback}
	}

	callCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	ann, err := a.engine.Diarize(callCtx, audioPath)
	if err != nil {
		slog.Warn("diarization engine failed; using windowed fallback", "error", err, "audio_path", audioPath)
		return Result{Annotation: a.fallback(durationSec), Source: SourceFallback}
	}
	if ann == nil || ann.Empty() {
		slog.Warn("diarization engine returned no segments; using windowed fallback", "audio_path", audioPath)
		return Result{Annotation: a.fallback(durationSec), Source: SourceFallback}
	}
	slog.Info("diarization completed", "audio_path", audioPath, "speakers", len(ann.Labels()), "segments", len(ann.Segments()))
	return Result{Annotation: ann, Source: SourceEngine}
}

// fallback splits [0, duration) into fixed windows and assigns speakers
// round-robin: a contiguous, gapless, non-overlapping cover.
func (a *Adapter) fallback(durationSec float64) *Annotation {
	ann := NewAnnotation()
	speaker := 0
	for t := 0.0; t < durationSec; t += a.windowSec {
		end := t + a.windowSec
		if end > durationSec {
			end = durationSec
		}
		ann.Add(Segment{Start: t, End: end, Speaker: FallbackLabel(speaker)})
		speaker = (speaker + 1) % a.speakerCount
	}
	return ann
}

// FallbackLabel formats heuristic speaker labels in the same scheme real
// diarization engines use (SPEAKER_00, SPEAKER_01, ...).
func FallbackLabel(i int) string {
	return fmt.Sprintf("SPEAKER_%02d", i)
}
