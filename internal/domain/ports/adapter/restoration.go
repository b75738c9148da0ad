package adapter

import (
	"context"

	"fotomagic-pro/internal/domain/model"
)

// RestorationAdapter is the port for the generative-image collaborator. A
// call may take tens of seconds; implementations must honor ctx cancellation
// and the caller enforces a timeout at the protocol boundary.
//
// Authorization failures surface as domain.ErrUpstreamAuth (the user remedy
// differs), anything else as domain.ErrUpstreamProcessing.
type RestorationAdapter interface {
	Name() string
	Restore(ctx context.Context, image []byte, mimeType string, mode model.RestorationMode) (*model.RestorationResult, error)
}
