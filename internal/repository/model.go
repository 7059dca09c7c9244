package repository

import "time"

type SessionStatus string

const (
	SessionStatusProcessing SessionStatus = "processing"
	SessionStatusCompleted  SessionStatus = "completed"
)

type Session struct {
	ID             string
	ProjectID      string
	Name           string
	StartedAt      time.Time
	EndedAt        *time.Time
	Status         SessionStatus
	AudioPath      string
	TranscriptPath string
	UtteranceCount int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Utterance struct {
	ID           string
	SessionID    string
	SpeakerLabel string
	SpeakerName  string
	StartSec     float64
	EndSec       float64
	Text         string
	Confidence   float64
	CreatedAt    time.Time
}
