package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/harumilabs/kikiwake/internal/config"
)

type envConfig struct {
	Env        string `env:"ENV" envDefault:"production"`
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`
	StorageDir string `env:"STORAGE_DIR" envDefault:"recordings"`

	DatabaseURL string `env:"DATABASE_URL,required"`

	DiarizationURL   string `env:"DIARIZATION_URL"`
	DiarizationToken string `env:"DIARIZATION_TOKEN"`

	ASREngine     string `env:"ASR_ENGINE" envDefault:"openai"`
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	OpenAIModel   string `env:"OPENAI_ASR_MODEL" envDefault:"whisper-1"`

	GoogleCloudProjectID       string `env:"GOOGLE_CLOUD_PROJECT_ID"`
	GoogleCloudCredentialsJSON string `env:"GOOGLE_CLOUD_CREDENTIALS_JSON"`
	GoogleCloudSpeechLocation  string `env:"GOOGLE_CLOUD_SPEECH_LOCATION" envDefault:"global"`
	GoogleCloudSpeechModel     string `env:"GOOGLE_CLOUD_SPEECH_MODEL" envDefault:"chirp_3"`

	EngineTimeoutSec      int     `env:"ENGINE_TIMEOUT_SEC" envDefault:"300"`
	FallbackWindowSec     float64 `env:"FALLBACK_WINDOW_SEC" envDefault:"10"`
	FallbackSpeakerCount  int     `env:"FALLBACK_SPEAKER_COUNT" envDefault:"2"`
	MaxSessionBufferBytes int64   `env:"MAX_SESSION_BUFFER_BYTES" envDefault:"536870912"`

	TranscriptWebhookURL string `env:"TRANSCRIPT_WEBHOOK_URL"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                        raw.Env,
		ListenAddr:                 raw.ListenAddr,
		StorageDir:                 raw.StorageDir,
		DatabaseURL:                raw.DatabaseURL,
		DiarizationURL:             raw.DiarizationURL,
		DiarizationToken:           raw.DiarizationToken,
		ASREngine:                  internalconfig.ASREngine(raw.ASREngine),
		OpenAIAPIKey:               raw.OpenAIAPIKey,
		OpenAIBaseURL:              raw.OpenAIBaseURL,
		OpenAIModel:                raw.OpenAIModel,
		GoogleCloudProjectID:       raw.GoogleCloudProjectID,
		GoogleCloudCredentialsJSON: raw.GoogleCloudCredentialsJSON,
		GoogleCloudSpeechLocation:  raw.GoogleCloudSpeechLocation,
		GoogleCloudSpeechModel:     raw.GoogleCloudSpeechModel,
		EngineTimeoutSec:           raw.EngineTimeoutSec,
		FallbackWindowSec:          raw.FallbackWindowSec,
		FallbackSpeakerCount:       raw.FallbackSpeakerCount,
		MaxSessionBufferBytes:      raw.MaxSessionBufferBytes,
		TranscriptWebhookURL:       raw.TranscriptWebhookURL,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
