package restoration

import (
	"context"
	"time"

	"fotomagic-pro/internal/domain/model"
	"fotomagic-pro/internal/domain/ports/adapter"
)

var _ adapter.RestorationAdapter = (*NoopAdapter)(nil)

// NoopAdapter echoes the input image back for local/dev runs without API keys.
type NoopAdapter struct{}

func NewNoopAdapter() *NoopAdapter { return &NoopAdapter{} }

func (a *NoopAdapter) Name() string { return "noop" }

func (a *NoopAdapter) Restore(ctx context.Context, image []byte, mimeType string, mode model.RestorationMode) (*model.RestorationResult, error) {
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &model.RestorationResult{
		ImageBytes:      image,
		MimeType:        mimeType,
		DescriptiveText: "noop restoration, image returned unchanged",
	}, nil
}
