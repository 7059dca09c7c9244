package webhook

import (
	"context"

	"github.com/harumilabs/kikiwake/internal/export"
)

// Sender delivers the completed transcript bundle to an external consumer.
type Sender interface {
	SendTranscript(ctx context.Context, bundle export.Bundle) error
}
