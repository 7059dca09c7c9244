package asr

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubEngine struct {
	tr  Transcript
	err error
}

func (s *stubEngine) Transcribe(_ context.Context, _ string) (Transcript, error) {
	return s.tr, s.err
}

func TestRun_NoEngineFallsBackToSingleSegment(t *testing.T) {
	a := NewAdapter(nil, 0)
	res := a.Run(context.Background(), "audio.wav", 42.5)
	if res.Source != SourceFallback {
		t.Fatalf("expected fallback source, got %s", res.Source)
	}
	segs := res.Transcript.Segments
	if len(segs) != 1 {
		t.Fatalf("expected single fallback segment, got %v", segs)
	}
	if segs[0].Start != 0 || segs[0].End != 42.5 {
		t.Fatalf("expected segment spanning [0,42.5), got %v", segs[0])
	}
}

func TestRun_EngineErrorFallsBack(t *testing.T) {
	a := NewAdapter(&stubEngine{err: errors.New("quota exceeded")}, time.Second)
	res := a.Run(context.Background(), "audio.wav", 10)
	if res.Source != SourceFallback {
		t.Fatalf("expected fallback on engine error, got %s", res.Source)
	}
}

func TestRun_SortsSegmentsByStart(t *testing.T) {
	a := NewAdapter(&stubEngine{tr: Transcript{Segments: []Segment{
		{Start: 5, End: 8, Text: "second"},
		{Start: 0, End: 4, Text: "first"},
	}}}, time.Second)
	res := a.Run(context.Background(), "audio.wav", 8)
	if res.Source != SourceEngine {
		t.Fatalf("expected engine source, got %s", res.Source)
	}
	segs := res.Transcript.Segments
	if segs[0].Text != "first" || segs[1].Text != "second" {
		t.Fatalf("expected segments ordered by start, got %v", segs)
	}
}
