package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harumilabs/kikiwake/internal/align"
	"github.com/harumilabs/kikiwake/internal/asr"
	"github.com/harumilabs/kikiwake/internal/audio"
	"github.com/harumilabs/kikiwake/internal/config"
	"github.com/harumilabs/kikiwake/internal/diarize"
	"github.com/harumilabs/kikiwake/internal/export"
	"github.com/harumilabs/kikiwake/internal/repository"
	"github.com/harumilabs/kikiwake/internal/speaker"
	"github.com/harumilabs/kikiwake/internal/webhook"
)

const (
	audioAssetFilename     = "complete_audio.wav"
	transcriptFilename     = "transcription.json"
	segmentTimingFilename  = "predicted_diarization.rttm"
	defaultChunkSampleRate = 16000
)

// EndResult is the one-shot output of finalizing a session.
type EndResult struct {
	SessionID           string            `json:"session_id"`
	Utterances          []align.Utterance `json:"utterances"`
	AudioPath           string            `json:"audio_file_path"`
	TranscriptPath      string            `json:"transcription_file_path"`
	SegmentTimingPath   string            `json:"segment_timing_file_path"`
	DiarizationSource   diarize.Source    `json:"diarization_source"`
	TranscriptionSource asr.Source        `json:"transcription_source"`
}

// Manager owns the session lifecycle: start, ordered chunk ingestion, and
// the finalize pipeline (diarize + transcribe → align → resolve names →
// export → record).
type Manager struct {
	cfg      *config.Config
	store    Store
	repo     repository.Repository
	diarizer *diarize.Adapter
	asr      *asr.Adapter
	writer   audio.Writer
	webhook  webhook.Sender
}

func NewManager(cfg *config.Config, store Store, repo repository.Repository, diarizer *diarize.Adapter, transcriber *asr.Adapter, writer audio.Writer, wh webhook.Sender) *Manager {
	return &Manager{
		cfg:      cfg,
		store:    store,
		repo:     repo,
		diarizer: diarizer,
		asr:      transcriber,
		writer:   writer,
		webhook:  wh,
	}
}

// Start allocates a new active session. Participants default to the
// two-party interview scheme when omitted.
func (m *Manager) Start(ctx context.Context, projectID, name string, participants []speaker.Participant) (string, error) {
	id := uuid.NewString()
	s := newSession(id, projectID, name, participants)

	if err := os.MkdirAll(m.sessionDir(id), 0o755); err != nil {
		return "", fmt.Errorf("create session dir: %w", err)
	}
	if _, err := m.repo.CreateSession(ctx, repository.CreateSessionInput{
		SessionID: id,
		ProjectID: projectID,
		Name:      name,
		StartedAt: s.StartedAt,
	}); err != nil {
		return "", fmt.Errorf("create session record: %w", err)
	}

	m.store.Put(s)
	slog.Info("recording session started", "session_id", id, "project_id", projectID, "participants", len(s.Participants))
	return id, nil
}

// AppendChunk stores one PCM16 chunk. Appends on a session are serialized
// by its lock, preserving arrival order.
func (m *Manager) AppendChunk(_ context.Context, sessionID string, pcm []byte, sampleRate int) (int, error) {
	s, ok := m.store.Get(sessionID)
	if !ok {
		return 0, ErrSessionNotFound
	}
	count, err := s.appendChunk(pcm, sampleRate, m.cfg.MaxSessionBufferBytes)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// End finalizes a session: it consumes the buffer exactly once, runs the
// two external engine calls concurrently (the only suspension points),
// aligns speakers to transcription segments, persists artifacts, and
// removes the session from the registry. Only artifact persistence
// failures surface as errors; engine trouble degrades to fallbacks.
func (m *Manager) End(ctx context.Context, sessionID string) (*EndResult, error) {
	s, ok := m.store.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	pcm, sampleRate, claimed := s.claimForProcessing()
	if !claimed {
		return nil, ErrSessionNotFound
	}
	defer m.store.Delete(sessionID)
	if sampleRate <= 0 {
		sampleRate = defaultChunkSampleRate
	}

	dir := m.sessionDir(sessionID)
	audioPath := filepath.Join(dir, audioAssetFilename)
	durationSec, err := m.writer.WriteWAV(audioPath, pcm, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("write audio asset: %w", err)
	}
	slog.Info("session audio asset written", "session_id", sessionID, "path", audioPath, "duration_sec", durationSec)

	var (
		wg         sync.WaitGroup
		diarized   diarize.Result
		transcript asr.Result
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		diarized = m.diarizer.Run(ctx, audioPath, durationSec)
	}()
	go func() {
		defer wg.Done()
		transcript = m.asr.Run(ctx, audioPath, durationSec)
	}()
	wg.Wait()

	utterances := align.Assign(diarized.Annotation, transcript.Transcript.Segments)
	names := speaker.Resolve(s.Participants, detectedLabels(utterances))
	for i := range utterances {
		utterances[i].SpeakerName = speaker.Name(names, utterances[i].SpeakerLabel)
	}

	endedAt := time.Now()
	transcriptPath := filepath.Join(dir, transcriptFilename)
	rttmPath := filepath.Join(dir, segmentTimingFilename)
	bundle := export.Bundle{
		SessionID:           sessionID,
		ProjectID:           s.ProjectID,
		SessionName:         s.Name,
		Participants:        s.Participants,
		StartedAt:           s.StartedAt,
		EndedAt:             endedAt,
		AudioFilePath:       audioPath,
		DiarizationSource:   string(diarized.Source),
		TranscriptionSource: string(transcript.Source),
		Utterances:          utterances,
	}
	if err := export.WriteRTTM(rttmPath, sessionID, diarized.Annotation); err != nil {
		return nil, fmt.Errorf("write segment timing: %w", err)
	}
	if err := export.WriteBundle(transcriptPath, bundle); err != nil {
		return nil, fmt.Errorf("write transcript bundle: %w", err)
	}

	if err := m.persistRecords(ctx, sessionID, endedAt, audioPath, transcriptPath, utterances); err != nil {
		return nil, err
	}
	s.markCompleted()

	if err := m.webhook.SendTranscript(ctx, bundle); err != nil {
		slog.Error("failed to send transcript webhook", "error", err, "session_id", sessionID)
	}

	slog.Info("recording session completed",
		"session_id", sessionID,
		"utterances", len(utterances),
		"diarization_source", diarized.Source,
		"transcription_source", transcript.Source)
	return &EndResult{
		SessionID:           sessionID,
		Utterances:          utterances,
		AudioPath:           audioPath,
		TranscriptPath:      transcriptPath,
		SegmentTimingPath:   rttmPath,
		DiarizationSource:   diarized.Source,
		TranscriptionSource: transcript.Source,
	}, nil
}

func (m *Manager) persistRecords(ctx context.Context, sessionID string, endedAt time.Time, audioPath, transcriptPath string, utterances []align.Utterance) error {
	inputs := make([]repository.InsertUtteranceInput, 0, len(utterances))
	for _, u := range utterances {
		inputs = append(inputs, repository.InsertUtteranceInput{
			ID:           u.ID,
			SessionID:    sessionID,
			SpeakerLabel: u.SpeakerLabel,
			SpeakerName:  u.SpeakerName,
			StartSec:     u.Start,
			EndSec:       u.End,
			Text:         u.Text,
			Confidence:   u.Confidence,
		})
	}
	if err := m.repo.InsertUtterances(ctx, sessionID, inputs); err != nil {
		return fmt.Errorf("insert utterances: %w", err)
	}
	if err := m.repo.CompleteSession(ctx, repository.CompleteSessionInput{
		SessionID:      sessionID,
		EndedAt:        endedAt,
		AudioPath:      audioPath,
		TranscriptPath: transcriptPath,
		UtteranceCount: len(utterances),
	}); err != nil {
		return fmt.Errorf("complete session record: %w", err)
	}
	return nil
}

func (m *Manager) sessionDir(sessionID string) string {
	return filepath.Join(m.cfg.StorageDir, sessionID)
}

// detectedLabels returns utterance labels in first-detection order.
func detectedLabels(utterances []align.Utterance) []string {
	seen := make(map[string]bool, 4)
	var labels []string
	for _, u := range utterances {
		if !seen[u.SpeakerLabel] {
			seen[u.SpeakerLabel] = true
			labels = append(labels, u.SpeakerLabel)
		}
	}
	return labels
}
