package asr

import (
	"time"

	"github.com/harumilabs/kikiwake/internal/asr"
	"github.com/harumilabs/kikiwake/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*asr.Adapter, error) {
		c := do.MustInvoke[*config.Config](i)
		var engine asr.Engine
		switch c.ASREngine {
		case config.ASREngineOpenAI:
			engine = NewWhisperEngine(c.OpenAIBaseURL, c.OpenAIAPIKey, c.OpenAIModel)
		case config.ASREngineGoogle:
			engine = NewCloudSpeechEngine(CloudSpeechConfig{
				ProjectID:       c.GoogleCloudProjectID,
				CredentialsJSON: c.GoogleCloudCredentialsJSON,
				Location:        c.GoogleCloudSpeechLocation,
				Model:           c.GoogleCloudSpeechModel,
			})
		case config.ASREngineNone:
			// fallback-only mode; the adapter degrades to a single segment
		}
		return asr.NewAdapter(engine, time.Duration(c.EngineTimeoutSec)*time.Second), nil
	})
}
