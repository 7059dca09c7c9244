package session

import (
	"github.com/harumilabs/kikiwake/internal/asr"
	"github.com/harumilabs/kikiwake/internal/audio"
	"github.com/harumilabs/kikiwake/internal/config"
	"github.com/harumilabs/kikiwake/internal/diarize"
	"github.com/harumilabs/kikiwake/internal/repository"
	"github.com/harumilabs/kikiwake/internal/webhook"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (Store, error) {
		return NewMemoryStore(), nil
	})
	do.Provide(injector, func(i do.Injector) (*Manager, error) {
		cfg := do.MustInvoke[*config.Config](i)
		store := do.MustInvoke[Store](i)
		repo := do.MustInvoke[repository.Repository](i)
		diarizer := do.MustInvoke[*diarize.Adapter](i)
		transcriber := do.MustInvoke[*asr.Adapter](i)
		writer := do.MustInvoke[audio.Writer](i)
		wh := do.MustInvoke[webhook.Sender](i)
		return NewManager(cfg, store, repo, diarizer, transcriber, writer, wh), nil
	})
}
