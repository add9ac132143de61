package gateway

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"google.golang.org/genai"

	"menugen-studio/internal/imagedata"
	"menugen-studio/internal/style"
)

type fakeModels struct {
	contentResp *genai.GenerateContentResponse
	contentErr  error
	imagesResp  *genai.GenerateImagesResponse
	imagesErr   error

	contentCalls  int
	imagesCalls   int
	lastModel     string
	lastContents  []*genai.Content
	lastConfig    *genai.GenerateContentConfig
	lastPrompt    string
	lastImagesCfg *genai.GenerateImagesConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.contentCalls++
	f.lastModel = model
	f.lastContents = contents
	f.lastConfig = config
	return f.contentResp, f.contentErr
}

func (f *fakeModels) GenerateImages(_ context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	f.imagesCalls++
	f.lastModel = model
	f.lastPrompt = prompt
	f.lastImagesCfg = config
	return f.imagesResp, f.imagesErr
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func imageResponse(data []byte, mime string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "here you go"},
				{InlineData: &genai.Blob{Data: data, MIMEType: mime}},
			}},
		}},
	}
}

func TestParseMenu(t *testing.T) {
	fake := &fakeModels{contentResp: textResponse(`[{"name":"Tacos","description":"Corn tortillas with beef"}]`)}
	g := New(fake, Config{}, nil)

	items, err := g.ParseMenu(context.Background(), "Tacos - Corn tortillas with beef")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].Name != "Tacos" || items[0].Description != "Corn tortillas with beef" {
		t.Fatalf("unexpected items: %+v", items)
	}

	if fake.lastModel != DefaultTextModel {
		t.Fatalf("model = %q", fake.lastModel)
	}
	if fake.lastConfig == nil || fake.lastConfig.ResponseMIMEType != "application/json" {
		t.Fatal("expected JSON response mime type")
	}
	schema := fake.lastConfig.ResponseSchema
	if schema == nil || schema.Type != genai.TypeArray || schema.Items == nil {
		t.Fatal("expected array schema")
	}
	if got := strings.Join(schema.Items.Required, ","); got != "name,description" {
		t.Fatalf("required = %q", got)
	}
	prompt := fake.lastContents[0].Parts[0].Text
	if !strings.Contains(prompt, "Only include actual food items") || !strings.Contains(prompt, "Tacos - Corn tortillas with beef") {
		t.Fatalf("unexpected prompt: %q", prompt)
	}
}

func TestParseMenuNonArrayIsEmpty(t *testing.T) {
	fake := &fakeModels{contentResp: textResponse(`{"name":"Tacos"}`)}
	g := New(fake, Config{}, nil)

	items, err := g.ParseMenu(context.Background(), "Tacos")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", items)
	}
}

func TestParseMenuErrors(t *testing.T) {
	cases := map[string]*fakeModels{
		"transport":  {contentErr: errors.New("boom")},
		"bad json":   {contentResp: textResponse("not json")},
		"no content": {contentResp: &genai.GenerateContentResponse{}},
	}
	for name, fake := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := New(fake, Config{}, nil).ParseMenu(context.Background(), "menu")
			var perr *MenuParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected MenuParseError, got %v", err)
			}
			if err.Error() != "Failed to parse the menu. Please check the format." {
				t.Fatalf("unexpected message %q", err.Error())
			}
		})
	}
}

func TestGenerateFromDescription(t *testing.T) {
	fake := &fakeModels{imagesResp: &genai.GenerateImagesResponse{
		GeneratedImages: []*genai.GeneratedImage{{Image: &genai.Image{ImageBytes: []byte("jpeg"), MIMEType: "image/jpeg"}}},
	}}
	g := New(fake, Config{ImageModel: "imagen-test"}, nil)

	img, err := g.GenerateFromDescription(context.Background(), "Tacos", "Corn tortillas", style.RusticDark)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(img.Data) != "jpeg" || img.MIMEType != "image/jpeg" {
		t.Fatalf("unexpected image %+v", img)
	}
	if fake.lastModel != "imagen-test" {
		t.Fatalf("model = %q", fake.lastModel)
	}
	if fake.lastImagesCfg.NumberOfImages != 1 || fake.lastImagesCfg.AspectRatio != "4:3" || fake.lastImagesCfg.OutputMIMEType != "image/jpeg" {
		t.Fatalf("unexpected config %+v", fake.lastImagesCfg)
	}
	for _, want := range []string{`"Tacos"`, `"Corn tortillas"`, style.Prompt(style.RusticDark)} {
		if !strings.Contains(fake.lastPrompt, want) {
			t.Fatalf("prompt missing %q: %s", want, fake.lastPrompt)
		}
	}
}

func TestGenerateFromDescriptionNoImages(t *testing.T) {
	fake := &fakeModels{imagesResp: &genai.GenerateImagesResponse{}}
	_, err := New(fake, Config{}, nil).GenerateFromDescription(context.Background(), "Paella", "", style.BrightModern)

	var gerr *GenerationError
	if !errors.As(err, &gerr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if !strings.Contains(err.Error(), "Paella") {
		t.Fatalf("message should name the dish: %q", err.Error())
	}
	if fake.imagesCalls != 1 {
		t.Fatalf("expected exactly one provider call, got %d", fake.imagesCalls)
	}
}

func TestGenerateFromReference(t *testing.T) {
	fake := &fakeModels{contentResp: imageResponse([]byte("png-out"), "image/png")}
	g := New(fake, Config{}, nil)
	ref := imagedata.Image{MIMEType: "image/webp", Data: []byte("ref-bytes")}

	img, err := g.GenerateFromReference(context.Background(), ref, "Tacos", "Beef", style.SocialMedia)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.MIMEType != "image/png" || string(img.Data) != "png-out" {
		t.Fatalf("unexpected image %+v", img)
	}

	if fake.lastModel != DefaultEditModel {
		t.Fatalf("model = %q", fake.lastModel)
	}
	parts := fake.lastContents[0].Parts
	if parts[0].InlineData == nil || parts[0].InlineData.MIMEType != "image/webp" || !bytes.Equal(parts[0].InlineData.Data, ref.Data) {
		t.Fatalf("reference not sent as inline data: %+v", parts[0])
	}
	if !strings.Contains(parts[1].Text, "Do not add, remove, or change any food items") {
		t.Fatalf("prompt must forbid changing the food: %s", parts[1].Text)
	}
	if got := fake.lastConfig.ResponseModalities; len(got) != 1 || got[0] != "IMAGE" {
		t.Fatalf("modalities = %v", got)
	}
}

func TestGenerateFromReferenceNoImage(t *testing.T) {
	fake := &fakeModels{contentResp: textResponse("I cannot do that")}
	_, err := New(fake, Config{}, nil).GenerateFromReference(context.Background(), imagedata.New([]byte("x"), ""), "Soup", "", style.BrightModern)

	var gerr *GenerationError
	if !errors.As(err, &gerr) || gerr.Dish != "Soup" {
		t.Fatalf("expected GenerationError for Soup, got %v", err)
	}
	if !errors.Is(err, errNoImage) {
		t.Fatalf("expected wrapped errNoImage, got %v", err)
	}
}

func TestEditImage(t *testing.T) {
	fake := &fakeModels{contentResp: imageResponse([]byte("edited"), "")}
	g := New(fake, Config{}, nil)

	img, err := g.EditImage(context.Background(), imagedata.New([]byte("orig"), "image/jpeg"), "add a retro filter")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(img.Data) != "edited" || img.MIMEType != imagedata.DefaultMIMEType {
		t.Fatalf("unexpected image %+v", img)
	}
	if !strings.Contains(fake.lastContents[0].Parts[1].Text, `"add a retro filter"`) {
		t.Fatalf("instruction not wrapped into prompt: %s", fake.lastContents[0].Parts[1].Text)
	}
}

func TestEditImageFailure(t *testing.T) {
	fake := &fakeModels{contentErr: errors.New("quota")}
	_, err := New(fake, Config{}, nil).EditImage(context.Background(), imagedata.New([]byte("orig"), ""), "brighter")

	var eerr *EditError
	if !errors.As(err, &eerr) {
		t.Fatalf("expected EditError, got %v", err)
	}
	if err.Error() != "Failed to edit the image." {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
