package diarize

import (
	"time"

	"github.com/harumilabs/kikiwake/internal/config"
	"github.com/harumilabs/kikiwake/internal/diarize"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*diarize.Adapter, error) {
		c := do.MustInvoke[*config.Config](i)
		var engine diarize.Engine
		if c.DiarizationURL != "" {
			engine = NewHTTPEngine(c.DiarizationURL, c.DiarizationToken)
		}
		return diarize.NewAdapter(
			engine,
			time.Duration(c.EngineTimeoutSec)*time.Second,
			c.FallbackWindowSec,
			c.FallbackSpeakerCount,
		), nil
	})
}
