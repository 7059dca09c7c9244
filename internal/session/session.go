package session

import (
	"errors"
	"sync"
	"time"

	"github.com/harumilabs/kikiwake/internal/speaker"
)

var (
	// ErrSessionNotFound covers unknown ids and sessions that already left
	// the active state; callers cannot distinguish the two on purpose.
	ErrSessionNotFound = errors.New("session not found")
	// ErrBufferLimit is returned when a chunk would push the session's
	// audio buffer past the configured bound.
	ErrBufferLimit = errors.New("session audio buffer limit exceeded")
)

type Status string

const (
	StatusActive     Status = "active"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
)

// Session is one active recording. Chunk appends and the status
// transition at finalize time are serialized by mu; sessions are
// independent, so there is no cross-session locking.
type Session struct {
	ID           string
	ProjectID    string
	Name         string
	Participants []speaker.Participant
	StartedAt    time.Time

	mu          sync.Mutex
	status      Status
	chunks      [][]byte
	bufferBytes int64
	sampleRate  int
}

func newSession(id, projectID, name string, participants []speaker.Participant) *Session {
	if len(participants) == 0 {
		participants = speaker.DefaultParticipants()
	}
	return &Session{
		ID:           id,
		ProjectID:    projectID,
		Name:         name,
		Participants: participants,
		StartedAt:    time.Now(),
		status:       StatusActive,
	}
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// appendChunk stores one audio chunk in arrival order. Only legal while
// active.
func (s *Session) appendChunk(pcm []byte, sampleRate int, maxBytes int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusActive {
		return 0, ErrSessionNotFound
	}
	if s.bufferBytes+int64(len(pcm)) > maxBytes {
		return 0, ErrBufferLimit
	}
	buf := make([]byte, len(pcm))
	copy(buf, pcm)
	s.chunks = append(s.chunks, buf)
	s.bufferBytes += int64(len(pcm))
	if sampleRate > 0 {
		s.sampleRate = sampleRate
	}
	return len(s.chunks), nil
}

// claimForProcessing performs the active→processing transition exactly
// once; the buffer is handed to the caller and released from the session.
func (s *Session) claimForProcessing() (pcm []byte, sampleRate int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusActive {
		return nil, 0, false
	}
	s.status = StatusProcessing
	total := 0
	for _, c := range s.chunks {
		total += len(c)
	}
	pcm = make([]byte, 0, total)
	for _, c := range s.chunks {
		pcm = append(pcm, c...)
	}
	s.chunks = nil
	s.bufferBytes = 0
	return pcm, s.sampleRate, true
}

func (s *Session) markCompleted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusProcessing {
		s.status = StatusCompleted
	}
}
