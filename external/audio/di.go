package audio

import (
	internalaudio "github.com/harumilabs/kikiwake/internal/audio"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (internalaudio.Writer, error) {
		return NewWAVWriter(), nil
	})
}
