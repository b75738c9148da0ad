package restoration

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"fotomagic-pro/internal/domain"
	"fotomagic-pro/internal/domain/model"
	"fotomagic-pro/internal/domain/ports/adapter"
)

var _ adapter.RestorationAdapter = (*FailoverAdapter)(nil)

// FailoverAdapter tries each backend in order until one returns an image.
// Auth failures do not fail over: swapping providers cannot fix a revoked
// key, and the caller needs the distinct error.
type FailoverAdapter struct {
	backends []adapter.RestorationAdapter
	log      *zerolog.Logger
}

func NewFailoverAdapter(logger *zerolog.Logger, backends ...adapter.RestorationAdapter) *FailoverAdapter {
	compLog := logger.With().Str("component", "RestorationFailover").Logger()
	return &FailoverAdapter{backends: backends, log: &compLog}
}

func (f *FailoverAdapter) Name() string {
	if len(f.backends) == 1 {
		return f.backends[0].Name()
	}
	return "failover"
}

func (f *FailoverAdapter) Restore(ctx context.Context, image []byte, mimeType string, mode model.RestorationMode) (*model.RestorationResult, error) {
	var lastErr error
	for _, b := range f.backends {
		result, err := b.Restore(ctx, image, mimeType, mode)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, domain.ErrUpstreamAuth) || ctx.Err() != nil {
			return nil, err
		}
		f.log.Warn().Err(err).Str("backend", b.Name()).Msg("backend failed, trying next")
		lastErr = err
	}
	if lastErr == nil {
		lastErr = domain.ErrUpstreamProcessing
	}
	return nil, lastErr
}
