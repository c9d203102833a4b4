package core

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"golang.org/x/time/rate"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/krishimitra/assistant/pkg/log"
)

// InlineImage is an image attached to a prompt, declared by MIME type and raw bytes.
type InlineImage struct {
	MIMEType string
	Data     []byte
}

// GenerationOptions is the free-form configuration bag passed through to the
// model unmodified. Nil fields keep the model's defaults.
type GenerationOptions struct {
	Model           string
	Temperature     *float32
	TopP            *float32
	TopK            *int32
	MaxOutputTokens *int32
}

type GenerateRequest struct {
	Prompt            string
	Image             *InlineImage
	SystemInstruction string
	Options           GenerationOptions
}

// Gateway is the external generation capability. Stream delivers text
// fragments in order via onFragment before returning; a failure may occur
// before or after fragments have been delivered, and delivered fragments
// remain valid. No retries: one failed attempt is one failed call.
type Gateway interface {
	Stream(ctx context.Context, req GenerateRequest, onFragment func(string)) error
	CompleteOnce(ctx context.Context, req GenerateRequest) (string, error)
	GenerateImage(ctx context.Context, prompt string) (*InlineImage, error)
}

type GeminiGateway struct {
	client     *genai.Client
	limiter    *rate.Limiter
	imageModel string
}

// NewGeminiGateway builds the Gemini-backed gateway. rpm caps outbound model
// calls per minute across all callers.
func NewGeminiGateway(ctx context.Context, apiKey, imageModel string, rpm int) (*GeminiGateway, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	if rpm <= 0 {
		rpm = 600
	}
	return &GeminiGateway{
		client:     client,
		limiter:    rate.NewLimiter(rate.Limit(float64(rpm)/60.0), rpm/10+1),
		imageModel: imageModel,
	}, nil
}

func (g *GeminiGateway) Close() {
	if g.client != nil {
		if err := g.client.Close(); err != nil {
			log.Errorw("error closing GenAI client", "error", err)
		}
	}
}

func (g *GeminiGateway) model(req GenerateRequest) *genai.GenerativeModel {
	model := g.client.GenerativeModel(req.Options.Model)
	if req.SystemInstruction != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.SystemInstruction)},
		}
	}
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:     req.Options.Temperature,
		TopP:            req.Options.TopP,
		TopK:            req.Options.TopK,
		MaxOutputTokens: req.Options.MaxOutputTokens,
	}
	return model
}

func buildParts(req GenerateRequest) []genai.Part {
	var parts []genai.Part
	if req.Prompt != "" {
		parts = append(parts, genai.Text(req.Prompt))
	}
	if req.Image != nil {
		parts = append(parts, genai.Blob{MIMEType: req.Image.MIMEType, Data: req.Image.Data})
	}
	return parts
}

func (g *GeminiGateway) Stream(ctx context.Context, req GenerateRequest, onFragment func(string)) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("gateway rate limiter: %w", err)
	}

	iter := g.model(req).GenerateContentStream(ctx, buildParts(req)...)
	for {
		resp, err := iter.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return fmt.Errorf("gemini streaming request failed: %w", err)
		}
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if txt, ok := part.(genai.Text); ok && len(txt) > 0 {
					onFragment(string(txt))
				}
			}
		}
	}
}

func (g *GeminiGateway) CompleteOnce(ctx context.Context, req GenerateRequest) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("gateway rate limiter: %w", err)
	}

	resp, err := g.model(req).GenerateContent(ctx, buildParts(req)...)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			out.WriteString(string(txt))
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("gemini returned a non-text response")
	}
	return out.String(), nil
}

func (g *GeminiGateway) GenerateImage(ctx context.Context, prompt string) (*InlineImage, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("gateway rate limiter: %w", err)
	}

	model := g.client.GenerativeModel(g.imageModel)
	resp, err := model.GenerateContent(ctx, genai.Text("Generate a realistic image of: "+prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini image request failed: %w", err)
	}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if blob, ok := part.(genai.Blob); ok {
				return &InlineImage{MIMEType: blob.MIMEType, Data: blob.Data}, nil
			}
		}
	}
	return nil, fmt.Errorf("gemini returned no image data")
}

// ParseInlineImage decodes a browser-style data URL ("data:image/png;base64,...")
// into MIME type and raw bytes. An empty input yields a nil image.
func ParseInlineImage(dataURL string) (*InlineImage, error) {
	if dataURL == "" {
		return nil, nil
	}
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return nil, fmt.Errorf("invalid image format: missing data URL prefix")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("invalid image format: missing payload")
	}
	mime, _, _ := strings.Cut(meta, ";")
	if mime == "" || !strings.HasSuffix(meta, "base64") {
		return nil, fmt.Errorf("invalid image format: expected base64 data URL")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid image format: %w", err)
	}
	return &InlineImage{MIMEType: mime, Data: data}, nil
}

// EncodeInlineImage renders the image back into a data URL for transport.
func EncodeInlineImage(img *InlineImage) string {
	if img == nil {
		return ""
	}
	return "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}
