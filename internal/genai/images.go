package genai

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gosimple/slug"
	openai "github.com/sashabaranov/go-openai"
)

// MinDescriptionLength is the shortest image description worth sending to the
// backend. Anything shorter is rejected locally as a validation failure.
const MinDescriptionLength = 10

// DallEGenerator produces report images through the OpenAI image API and
// downloads them into a local asset directory.
type DallEGenerator struct {
	client     *openai.Client
	httpClient *http.Client
	assetDir   string
	log        *slog.Logger
}

// NewDallEGenerator creates an image generator storing assets under assetDir.
func NewDallEGenerator(apiKey, assetDir string, log *slog.Logger) *DallEGenerator {
	return &DallEGenerator{
		client:     openai.NewClient(apiKey),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		assetDir:   assetDir,
		log:        log,
	}
}

// GenerateImage renders the description and returns the local asset path.
// Returns ("", nil) when the description fails validation.
func (g *DallEGenerator) GenerateImage(ctx context.Context, description, caption string) (string, error) {
	if len(description) < MinDescriptionLength {
		g.log.Warn("image description too short, skipping", "caption", caption, "length", len(description))
		return "", nil
	}

	resp, err := g.client.CreateImage(ctx, openai.ImageRequest{
		Model: openai.CreateImageModelDallE3,
		Prompt: fmt.Sprintf(
			"Create an abstract, conceptual visualization representing %s. "+
				"Make it visually striking with modern design elements. The image should be "+
				"artistic and symbolic, avoiding any explicit text or labels.",
			description),
		N:              1,
		Size:           openai.CreateImageSize1792x1024,
		Quality:        openai.CreateImageQualityStandard,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return "", classifyError("image generation", err)
	}
	if len(resp.Data) == 0 {
		return "", fmt.Errorf("image generation: no image data returned")
	}

	path, err := g.download(ctx, resp.Data[0].URL, caption)
	if err != nil {
		return "", err
	}
	g.log.Debug("image saved", "caption", caption, "path", path)
	return path, nil
}

// download fetches the generated image into the asset directory. Filenames
// combine the caption slug with a ULID so captions never collide.
func (g *DallEGenerator) download(ctx context.Context, url, caption string) (string, error) {
	if err := os.MkdirAll(g.assetDir, 0o755); err != nil {
		return "", fmt.Errorf("create asset dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create download request: %w", err)
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", &RetryableError{Message: fmt.Sprintf("download image: %v", err)}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &RetryableError{StatusCode: resp.StatusCode, Message: "download image"}
	}

	name := slug.Make(caption)
	if name == "" {
		name = "figure"
	}
	path := filepath.Join(g.assetDir, name+"-"+newULID()+".png")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create asset file: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write asset file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close asset file: %w", err)
	}
	return path, nil
}
