package config

import "fmt"

type ASREngine string

const (
	ASREngineOpenAI ASREngine = "openai"
	ASREngineGoogle ASREngine = "google"
	ASREngineNone   ASREngine = "none"
)

type Config struct {
	Env        string
	ListenAddr string
	StorageDir string

	DatabaseURL string

	DiarizationURL   string
	DiarizationToken string

	ASREngine     ASREngine
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	GoogleCloudProjectID       string
	GoogleCloudCredentialsJSON string
	GoogleCloudSpeechLocation  string
	GoogleCloudSpeechModel     string

	EngineTimeoutSec      int
	FallbackWindowSec     float64
	FallbackSpeakerCount  int
	MaxSessionBufferBytes int64

	TranscriptWebhookURL string
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	switch c.ASREngine {
	case ASREngineOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when ASR_ENGINE=openai")
		}
	case ASREngineGoogle:
		if c.GoogleCloudProjectID == "" || c.GoogleCloudCredentialsJSON == "" {
			return fmt.Errorf("GOOGLE_CLOUD_PROJECT_ID and GOOGLE_CLOUD_CREDENTIALS_JSON are required when ASR_ENGINE=google")
		}
	case ASREngineNone:
	default:
		return fmt.Errorf("ASR_ENGINE must be one of openai, google, none, got %q", c.ASREngine)
	}
	if c.EngineTimeoutSec <= 0 {
		return fmt.Errorf("ENGINE_TIMEOUT_SEC must be positive, got %d", c.EngineTimeoutSec)
	}
	if c.FallbackWindowSec <= 0 {
		return fmt.Errorf("FALLBACK_WINDOW_SEC must be positive, got %g", c.FallbackWindowSec)
	}
	if c.FallbackSpeakerCount <= 0 {
		return fmt.Errorf("FALLBACK_SPEAKER_COUNT must be positive, got %d", c.FallbackSpeakerCount)
	}
	if c.MaxSessionBufferBytes <= 0 {
		return fmt.Errorf("MAX_SESSION_BUFFER_BYTES must be positive, got %d", c.MaxSessionBufferBytes)
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "LISTEN_ADDR", value: c.ListenAddr},
		{name: "STORAGE_DIR", value: c.StorageDir},
		{name: "DATABASE_URL", value: c.DatabaseURL},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
