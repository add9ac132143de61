// Package gateway is the only code that talks to the generative AI provider.
// Every operation is a single request/response round trip: nothing is
// retried, cached, or queued.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"menugen-studio/internal/imagedata"
	"menugen-studio/internal/style"
)

const (
	DefaultTextModel  = "gemini-2.5-flash"
	DefaultImageModel = "imagen-4.0-generate-001"
	DefaultEditModel  = "gemini-2.5-flash-image"
)

var errNoImage = errors.New("provider returned no image")

// Models is the subset of the genai model service the gateway uses.
// *genai.Models satisfies it.
type Models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

type Config struct {
	TextModel  string
	ImageModel string
	EditModel  string
}

func (c Config) withDefaults() Config {
	if c.TextModel == "" {
		c.TextModel = DefaultTextModel
	}
	if c.ImageModel == "" {
		c.ImageModel = DefaultImageModel
	}
	if c.EditModel == "" {
		c.EditModel = DefaultEditModel
	}
	return c
}

// MenuItem is one dish as extracted from menu text.
type MenuItem struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Gateway struct {
	models Models
	cfg    Config
	log    *zap.Logger
}

func New(models Models, cfg Config, log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{models: models, cfg: cfg.withDefaults(), log: log}
}

// Dial builds a Gateway backed by the Gemini API.
func Dial(ctx context.Context, apiKey string, cfg Config, log *zap.Logger) (*Gateway, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return New(client.Models, cfg, log), nil
}

var menuSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name": {
				Type:        genai.TypeString,
				Description: "The name of the dish.",
			},
			"description": {
				Type:        genai.TypeString,
				Description: "A brief, appealing description of the dish.",
			},
		},
		Required: []string{"name", "description"},
	},
}

// ParseMenu extracts dishes from free-form menu text. A decoded payload that
// is not a JSON array yields an empty list, not an error.
func (g *Gateway) ParseMenu(ctx context.Context, menuText string) ([]MenuItem, error) {
	resp, err := g.models.GenerateContent(ctx, g.cfg.TextModel, genai.Text(menuParsePrompt(menuText)), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   menuSchema,
	})
	if err != nil {
		g.log.Error("Failed to parse menu", zap.Error(err))
		return nil, &MenuParseError{Err: err}
	}

	var decoded any
	if err := json.Unmarshal([]byte(responseText(resp)), &decoded); err != nil {
		g.log.Error("Failed to decode menu response", zap.Error(err))
		return nil, &MenuParseError{Err: err}
	}

	entries, ok := decoded.([]any)
	if !ok {
		g.log.Warn("Menu response was not an array", zap.String("type", fmt.Sprintf("%T", decoded)))
		return []MenuItem{}, nil
	}

	items := make([]MenuItem, 0, len(entries))
	for _, entry := range entries {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		name, _ := obj["name"].(string)
		description, _ := obj["description"].(string)
		items = append(items, MenuItem{
			Name:        strings.TrimSpace(name),
			Description: strings.TrimSpace(description),
		})
	}

	g.log.Info("Parsed menu", zap.Int("dishes", len(items)))
	return items, nil
}

// GenerateFromDescription renders a single 4:3 JPEG of the dish in the
// given style.
func (g *Gateway) GenerateFromDescription(ctx context.Context, name, description string, id style.ID) (imagedata.Image, error) {
	resp, err := g.models.GenerateImages(ctx, g.cfg.ImageModel, descriptionPrompt(name, description, id), &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: imagedata.DefaultMIMEType,
		AspectRatio:    "4:3",
	})
	if err != nil {
		g.log.Error("Failed to generate image from description", zap.String("dish", name), zap.Error(err))
		return imagedata.Image{}, &GenerationError{Dish: name, Err: err}
	}

	if resp == nil || len(resp.GeneratedImages) == 0 ||
		resp.GeneratedImages[0].Image == nil || len(resp.GeneratedImages[0].Image.ImageBytes) == 0 {
		g.log.Warn("No image generated from description", zap.String("dish", name))
		return imagedata.Image{}, &GenerationError{Dish: name, Err: errNoImage}
	}

	out := resp.GeneratedImages[0].Image
	return imagedata.New(out.ImageBytes, out.MIMEType), nil
}

// GenerateFromReference restyles a user photo without changing the food.
func (g *Gateway) GenerateFromReference(ctx context.Context, ref imagedata.Image, name, description string, id style.ID) (imagedata.Image, error) {
	img, err := g.imageToImage(ctx, ref, referencePrompt(name, description, id))
	if err != nil {
		g.log.Error("Failed to generate image from reference", zap.String("dish", name), zap.Error(err))
		return imagedata.Image{}, &GenerationError{Dish: name, Err: err}
	}
	return img, nil
}

// EditImage applies a free-text instruction to an existing photo.
func (g *Gateway) EditImage(ctx context.Context, img imagedata.Image, instruction string) (imagedata.Image, error) {
	out, err := g.imageToImage(ctx, img, editPrompt(instruction))
	if err != nil {
		g.log.Error("Failed to edit image", zap.Error(err))
		return imagedata.Image{}, &EditError{Err: err}
	}
	return out, nil
}

func (g *Gateway) imageToImage(ctx context.Context, in imagedata.Image, prompt string) (imagedata.Image, error) {
	parts := []*genai.Part{
		genai.NewPartFromBytes(in.Data, in.MIMEType),
		genai.NewPartFromText(prompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := g.models.GenerateContent(ctx, g.cfg.EditModel, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityImage)},
	})
	if err != nil {
		return imagedata.Image{}, err
	}

	out, ok := inlineImage(resp)
	if !ok {
		return imagedata.Image{}, errNoImage
	}
	return out, nil
}

func firstParts(resp *genai.GenerateContentResponse) []*genai.Part {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil {
		return nil
	}
	return c.Content.Parts
}

func responseText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, p := range firstParts(resp) {
		if p != nil && !p.Thought {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

func inlineImage(resp *genai.GenerateContentResponse) (imagedata.Image, bool) {
	for _, p := range firstParts(resp) {
		if p != nil && p.InlineData != nil && len(p.InlineData.Data) > 0 {
			return imagedata.New(p.InlineData.Data, p.InlineData.MIMEType), true
		}
	}
	return imagedata.Image{}, false
}
