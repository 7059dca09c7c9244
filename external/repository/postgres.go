package repository

import (
	"context"
	"time"

	"github.com/harumilabs/kikiwake/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) repository.Repository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) CreateSession(ctx context.Context, input repository.CreateSessionInput) (*repository.Session, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO sessions (id, project_id, name, started_at, status)
		 VALUES ($1, $2, $3, $4, 'processing')
		 RETURNING id, project_id, name, started_at, ended_at, status, audio_path, transcript_path, utterance_count, created_at, updated_at`,
		input.SessionID, input.ProjectID, input.Name, input.StartedAt)
	return scanSession(row)
}

func (r *PostgresRepository) CompleteSession(ctx context.Context, input repository.CompleteSessionInput) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE sessions
		 SET status = 'completed', ended_at = $2, audio_path = $3, transcript_path = $4, utterance_count = $5, updated_at = NOW()
		 WHERE id = $1`,
		input.SessionID, input.EndedAt, input.AudioPath, input.TranscriptPath, input.UtteranceCount)
	return err
}

func (r *PostgresRepository) GetSession(ctx context.Context, sessionID string) (*repository.Session, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, project_id, name, started_at, ended_at, status, audio_path, transcript_path, utterance_count, created_at, updated_at
		 FROM sessions WHERE id = $1`,
		sessionID)
	s, err := scanSession(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

func (r *PostgresRepository) InsertUtterances(ctx context.Context, sessionID string, inputs []repository.InsertUtteranceInput) error {
	if len(inputs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, u := range inputs {
		batch.Queue(
			`INSERT INTO utterances (id, session_id, speaker_label, speaker_name, start_sec, end_sec, content, confidence)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			u.ID, sessionID, u.SpeakerLabel, u.SpeakerName, u.StartSec, u.EndSec, u.Text, u.Confidence)
	}
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range inputs {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return results.Close()
}

func (r *PostgresRepository) ListUtterancesBySessionID(ctx context.Context, sessionID string) ([]repository.Utterance, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, speaker_label, speaker_name, start_sec, end_sec, content, confidence, created_at
		 FROM utterances WHERE session_id = $1 ORDER BY start_sec ASC`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.Utterance
	for rows.Next() {
		var u repository.Utterance
		if err := rows.Scan(&u.ID, &u.SessionID, &u.SpeakerLabel, &u.SpeakerName, &u.StartSec, &u.EndSec, &u.Text, &u.Confidence, &u.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

func scanSession(row pgx.Row) (*repository.Session, error) {
	var s repository.Session
	var endedAt *time.Time
	var audioPath, transcriptPath *string
	err := row.Scan(&s.ID, &s.ProjectID, &s.Name, &s.StartedAt, &endedAt, &s.Status, &audioPath, &transcriptPath, &s.UtteranceCount, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.EndedAt = endedAt
	if audioPath != nil {
		s.AudioPath = *audioPath
	}
	if transcriptPath != nil {
		s.TranscriptPath = *transcriptPath
	}
	return &s, nil
}
