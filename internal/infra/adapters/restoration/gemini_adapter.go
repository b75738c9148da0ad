package restoration

import (
	"context"
	"errors"
	"time"

	"google.golang.org/genai"

	"fotomagic-pro/internal/domain"
	"fotomagic-pro/internal/domain/model"
	"fotomagic-pro/internal/domain/ports/adapter"
	"fotomagic-pro/internal/infra/metrics"
)

var _ adapter.RestorationAdapter = (*GeminiAdapter)(nil)

// GeminiAdapter restores photographs through the Gemini image model: the
// original image travels as inline data next to the instruction prompt, and
// the restored image comes back as an inline part of the candidate.
type GeminiAdapter struct {
	client *genai.Client
	model  string
}

func NewGeminiAdapter(ctx context.Context, apiKey, baseURL, model string) (*GeminiAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	return &GeminiAdapter{client: c, model: model}, nil
}

func (g *GeminiAdapter) Name() string { return "gemini" }

func (g *GeminiAdapter) Restore(ctx context.Context, image []byte, mimeType string, mode model.RestorationMode) (*model.RestorationResult, error) {
	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
			{Text: buildPrompt(mode)},
		},
	}}
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	}

	started := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	metrics.ObserveRestorationDuration(g.Name(), time.Since(started).Seconds())
	if err != nil {
		return nil, classifyGenAIError(err)
	}

	out := &model.RestorationResult{}
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				out.ImageBytes = part.InlineData.Data
				out.MimeType = part.InlineData.MIMEType
			} else if part.Text != "" {
				out.DescriptiveText += part.Text
			}
		}
	}
	if len(out.ImageBytes) == 0 {
		// Text-only answers happen when the model refuses or misreads the
		// task; for this service that is a failed restoration.
		return nil, domain.ErrUpstreamProcessing
	}
	if out.MimeType == "" {
		out.MimeType = "image/png"
	}
	return out, nil
}

func classifyGenAIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == 401 || apiErr.Code == 403 {
			return domain.ErrUpstreamAuth
		}
		return domain.ErrUpstreamProcessing
	}
	return err
}
