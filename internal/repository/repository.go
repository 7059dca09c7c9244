package repository

import (
	"context"
	"time"
)

type CreateSessionInput struct {
	SessionID string
	ProjectID string
	Name      string
	StartedAt time.Time
}

type CompleteSessionInput struct {
	SessionID      string
	EndedAt        time.Time
	AudioPath      string
	TranscriptPath string
	UtteranceCount int
}

type InsertUtteranceInput struct {
	ID           string
	SessionID    string
	SpeakerLabel string
	SpeakerName  string
	StartSec     float64
	EndSec       float64
	Text         string
	Confidence   float64
}

type SessionRepository interface {
	CreateSession(ctx context.Context, input CreateSessionInput) (*Session, error)
	CompleteSession(ctx context.Context, input CompleteSessionInput) error
	GetSession(ctx context.Context, sessionID string) (*Session, error)
}

type UtteranceRepository interface {
	InsertUtterances(ctx context.Context, sessionID string, inputs []InsertUtteranceInput) error
	ListUtterancesBySessionID(ctx context.Context, sessionID string) ([]Utterance, error)
}

type Repository interface {
	SessionRepository
	UtteranceRepository
}
