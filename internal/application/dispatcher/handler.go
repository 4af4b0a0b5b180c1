package dispatcher

import (
	"context"

	"github.com/ac-tresor/dossiers/internal/domain/event"
)

// Handler processes dossier events
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo contains handler metadata for debugging
type HandlerInfo struct {
	Name        string
	EventType   event.Type
	Handler     Handler
	Description string
}
