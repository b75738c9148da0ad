package restoration

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"fotomagic-pro/internal/domain"
	"fotomagic-pro/internal/domain/model"
	"fotomagic-pro/internal/domain/ports/adapter"
	"fotomagic-pro/internal/infra/metrics"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.RestorationAdapter = (*OpenAIAdapter)(nil)

// OpenAIAdapter is the fallback backend, driving the image-edit endpoint with
// the same prompt the Gemini adapter uses.
type OpenAIAdapter struct {
	client openai.Client
	model  string
}

func NewOpenAIAdapter(apiKey, model string) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if model == "" {
		model = "gpt-image-1"
	}
	return &OpenAIAdapter{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

func (o *OpenAIAdapter) Name() string { return "openai" }

func (o *OpenAIAdapter) Restore(ctx context.Context, image []byte, mimeType string, mode model.RestorationMode) (*model.RestorationResult, error) {
	file := openai.File(bytes.NewReader(image), "photo"+extensionFor(mimeType), mimeType)

	started := time.Now()
	resp, err := o.client.Images.Edit(ctx, openai.ImageEditParams{
		Image:  openai.ImageEditParamsImageUnion{OfFile: file},
		Prompt: buildPrompt(mode),
		Model:  openai.ImageModel(o.model),
	})
	metrics.ObserveRestorationDuration(o.Name(), time.Since(started).Seconds())
	if err != nil {
		return nil, classifyOpenAIError(err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, domain.ErrUpstreamProcessing
	}

	raw, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, domain.ErrUpstreamProcessing
	}
	return &model.RestorationResult{
		ImageBytes: raw,
		MimeType:   "image/png",
	}, nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 401 || apiErr.StatusCode == 403 {
			return domain.ErrUpstreamAuth
		}
		return domain.ErrUpstreamProcessing
	}
	return err
}
