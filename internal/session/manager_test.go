package session

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/harumilabs/kikiwake/internal/asr"
	"github.com/harumilabs/kikiwake/internal/audio"
	"github.com/harumilabs/kikiwake/internal/config"
	"github.com/harumilabs/kikiwake/internal/diarize"
	"github.com/harumilabs/kikiwake/internal/export"
	"github.com/harumilabs/kikiwake/internal/repository"
	"github.com/harumilabs/kikiwake/internal/speaker"
)

type mockRepository struct {
	mu              sync.Mutex
	createCalls     []repository.CreateSessionInput
	completeCalls   []repository.CompleteSessionInput
	utteranceCalls  map[string][]repository.InsertUtteranceInput
	completeSessErr error
}

func newMockRepository() *mockRepository {
	return &mockRepository{utteranceCalls: make(map[string][]repository.InsertUtteranceInput)}
}

func (m *mockRepository) CreateSession(_ context.Context, input repository.CreateSessionInput) (*repository.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls = append(m.createCalls, input)
	return &repository.Session{
		ID:        input.SessionID,
		ProjectID: input.ProjectID,
		Name:      input.Name,
		StartedAt: input.StartedAt,
		Status:    repository.SessionStatusProcessing,
	}, nil
}

func (m *mockRepository) CompleteSession(_ context.Context, input repository.CompleteSessionInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.completeSessErr != nil {
		return m.completeSessErr
	}
	m.completeCalls = append(m.completeCalls, input)
	return nil
}

func (m *mockRepository) GetSession(_ context.Context, _ string) (*repository.Session, error) {
	return nil, nil
}

func (m *mockRepository) InsertUtterances(_ context.Context, sessionID string, inputs []repository.InsertUtteranceInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.utteranceCalls[sessionID] = inputs
	return nil
}

func (m *mockRepository) ListUtterancesBySessionID(_ context.Context, _ string) ([]repository.Utterance, error) {
	return nil, nil
}

type mockWriter struct {
	writeErr error
}

func (m *mockWriter) WriteWAV(_ string, pcm []byte, sampleRate int) (float64, error) {
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	return audio.DurationSec(int64(len(pcm)), sampleRate), nil
}

type mockWebhook struct {
	mu      sync.Mutex
	bundles []export.Bundle
}

func (m *mockWebhook) SendTranscript(_ context.Context, bundle export.Bundle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bundles = append(m.bundles, bundle)
	return nil
}

type scriptedASREngine struct {
	tr asr.Transcript
}

func (e *scriptedASREngine) Transcribe(_ context.Context, _ string) (asr.Transcript, error) {
	return e.tr, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Env:                   "development",
		ListenAddr:            ":0",
		StorageDir:            t.TempDir(),
		DatabaseURL:           "postgres://test",
		ASREngine:             config.ASREngineNone,
		EngineTimeoutSec:      5,
		FallbackWindowSec:     10,
		FallbackSpeakerCount:  2,
		MaxSessionBufferBytes: 1 << 20,
	}
}

func newTestManager(t *testing.T, cfg *config.Config, repo repository.Repository, asrEngine asr.Engine, writer *mockWriter) (*Manager, *mockWebhook) {
	t.Helper()
	wh := &mockWebhook{}
	m := NewManager(
		cfg,
		NewMemoryStore(),
		repo,
		diarize.NewAdapter(nil, time.Second, cfg.FallbackWindowSec, cfg.FallbackSpeakerCount),
		asr.NewAdapter(asrEngine, time.Second),
		writer,
		wh,
	)
	return m, wh
}

// pcmSeconds builds n seconds of silence at 16kHz mono PCM16.
func pcmSeconds(n int) []byte {
	return make([]byte, n*16000*2)
}

func TestLifecycle_StartChunkEnd(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	repo := newMockRepository()
	engine := &scriptedASREngine{tr: asr.Transcript{Segments: []asr.Segment{
		{Start: 0, End: 8, Text: "how did the project begin"},
		{Start: 12, End: 19, Text: "it started two years ago"},
	}}}
	m, wh := newTestManager(t, cfg, repo, engine, &mockWriter{})

	id, err := m.Start(ctx, "project-1", "pilot interview", nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(repo.createCalls) != 1 || repo.createCalls[0].ProjectID != "project-1" {
		t.Fatalf("expected session record, got %+v", repo.createCalls)
	}

	count, err := m.AppendChunk(ctx, id, pcmSeconds(20), 16000)
	if err != nil {
		t.Fatalf("append chunk: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected chunk count 1, got %d", count)
	}
	if count, err = m.AppendChunk(ctx, id, pcmSeconds(20), 16000); err != nil || count != 2 {
		t.Fatalf("expected chunk count 2, got %d (%v)", count, err)
	}

	res, err := m.End(ctx, id)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if res.DiarizationSource != diarize.SourceFallback {
		t.Fatalf("expected fallback diarization, got %s", res.DiarizationSource)
	}
	if len(res.Utterances) != 2 {
		t.Fatalf("expected 2 utterances, got %d", len(res.Utterances))
	}
	// 40s of audio, 10s windows, 2 speakers: [0,8) lands on SPEAKER_00,
	// [12,19) on SPEAKER_01.
	if res.Utterances[0].SpeakerLabel != "SPEAKER_00" || res.Utterances[1].SpeakerLabel != "SPEAKER_01" {
		t.Fatalf("unexpected speaker assignment: %+v", res.Utterances)
	}
	if res.Utterances[0].SpeakerName != "Interviewer" || res.Utterances[1].SpeakerName != "Interview Subject" {
		t.Fatalf("unexpected speaker names: %+v", res.Utterances)
	}

	if len(repo.completeCalls) != 1 || repo.completeCalls[0].UtteranceCount != 2 {
		t.Fatalf("expected completion record with 2 utterances, got %+v", repo.completeCalls)
	}
	if len(repo.utteranceCalls[id]) != 2 {
		t.Fatalf("expected 2 utterance rows, got %d", len(repo.utteranceCalls[id]))
	}
	if len(wh.bundles) != 1 || wh.bundles[0].SessionID != id {
		t.Fatalf("expected webhook bundle, got %+v", wh.bundles)
	}

	// artifacts exist and the timing file round-trips
	ann, err := export.ParseRTTM(res.SegmentTimingPath)
	if err != nil {
		t.Fatalf("parse exported rttm: %v", err)
	}
	if got := len(ann.Segments()); got != 4 {
		t.Fatalf("expected 4 fallback windows in rttm, got %d", got)
	}
	bundle, err := export.ReadBundle(res.TranscriptPath)
	if err != nil {
		t.Fatalf("read exported bundle: %v", err)
	}
	if bundle.SessionID != id || len(bundle.Utterances) != 2 {
		t.Fatalf("unexpected bundle %+v", bundle)
	}
	if filepath.Dir(res.AudioPath) != filepath.Join(cfg.StorageDir, id) {
		t.Fatalf("audio asset outside session dir: %s", res.AudioPath)
	}
}

func TestAppendChunk_UnknownSession(t *testing.T) {
	m, _ := newTestManager(t, testConfig(t), newMockRepository(), nil, &mockWriter{})
	if _, err := m.AppendChunk(context.Background(), "no-such-id", pcmSeconds(1), 16000); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestAppendChunk_AfterEndFails(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, testConfig(t), newMockRepository(), nil, &mockWriter{})
	id, err := m.Start(ctx, "p", "s", nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := m.AppendChunk(ctx, id, pcmSeconds(1), 16000); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := m.End(ctx, id); err != nil {
		t.Fatalf("end: %v", err)
	}
	if _, err := m.AppendChunk(ctx, id, pcmSeconds(1), 16000); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after end, got %v", err)
	}
}

func TestEnd_SecondCallFails(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, testConfig(t), newMockRepository(), nil, &mockWriter{})
	id, err := m.Start(ctx, "p", "s", nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := m.End(ctx, id); err != nil {
		t.Fatalf("first end: %v", err)
	}
	if _, err := m.End(ctx, id); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on second end, got %v", err)
	}
}

func TestAppendChunk_BufferLimit(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.MaxSessionBufferBytes = 1024
	m, _ := newTestManager(t, cfg, newMockRepository(), nil, &mockWriter{})
	id, err := m.Start(ctx, "p", "s", nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := m.AppendChunk(ctx, id, make([]byte, 1024), 16000); err != nil {
		t.Fatalf("append within limit: %v", err)
	}
	if _, err := m.AppendChunk(ctx, id, make([]byte, 2), 16000); !errors.Is(err, ErrBufferLimit) {
		t.Fatalf("expected ErrBufferLimit, got %v", err)
	}
}

func TestEnd_AudioWriteFailureSurfaces(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, testConfig(t), newMockRepository(), nil, &mockWriter{writeErr: errors.New("disk full")})
	id, err := m.Start(ctx, "p", "s", nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := m.End(ctx, id); err == nil {
		t.Fatal("expected error when audio asset cannot be written")
	}
	// the session is consumed even on failure
	if _, err := m.End(ctx, id); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after failed end, got %v", err)
	}
}

func TestEnd_ConcurrentSessionsIndependent(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, testConfig(t), newMockRepository(), nil, &mockWriter{})
	idA, err := m.Start(ctx, "p", "a", nil)
	if err != nil {
		t.Fatalf("start a: %v", err)
	}
	idB, err := m.Start(ctx, "p", "b", nil)
	if err != nil {
		t.Fatalf("start b: %v", err)
	}
	if _, err := m.AppendChunk(ctx, idA, pcmSeconds(1), 16000); err != nil {
		t.Fatalf("append a: %v", err)
	}
	if _, err := m.End(ctx, idA); err != nil {
		t.Fatalf("end a: %v", err)
	}
	// session B is untouched by A's finalization
	if _, err := m.AppendChunk(ctx, idB, pcmSeconds(1), 16000); err != nil {
		t.Fatalf("append b after ending a: %v", err)
	}
	if _, err := m.End(ctx, idB); err != nil {
		t.Fatalf("end b: %v", err)
	}
}

func TestStart_CustomParticipants(t *testing.T) {
	ctx := context.Background()
	engine := &scriptedASREngine{tr: asr.Transcript{Segments: []asr.Segment{{Start: 0, End: 5, Text: "hello"}}}}
	m, _ := newTestManager(t, testConfig(t), newMockRepository(), engine, &mockWriter{})

	participants := []speaker.Participant{
		{ID: "SPEAKER_00", Name: "Dr. Ishikawa"},
		{ID: "SPEAKER_01", Name: "Patient"},
	}
	id, err := m.Start(ctx, "p", "s", participants)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := m.AppendChunk(ctx, id, pcmSeconds(6), 16000); err != nil {
		t.Fatalf("append: %v", err)
	}
	res, err := m.End(ctx, id)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if len(res.Utterances) != 1 || res.Utterances[0].SpeakerName != "Dr. Ishikawa" {
		t.Fatalf("expected participant name resolution, got %+v", res.Utterances)
	}
}
