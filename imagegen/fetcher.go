// Package imagegen fetches one generated still image per storyboard segment.
package imagegen

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"slidecast-studio/config"
	"slidecast-studio/credential"
	"slidecast-studio/faults"
	"slidecast-studio/types"
)

// Prompt prefixes match the two roles an image can play.
const (
	posterPrefix = "YouTube high-impact professional thumbnail, DSLR quality, cinematic lighting. Subject:"
	slidePrefix  = "High-fidelity professional product/scene photography, 8k resolution, neutral balanced color, sharp focus. Context:"
)

// Fetcher requests generated images from the backend.
type Fetcher struct {
	cfg        *config.Config
	httpClient *http.Client
}

// New creates an image Fetcher.
func New(cfg *config.Config) *Fetcher {
	return &Fetcher{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Fetch generates one image for a segment. Segment 0 uses the poster
// styling; everything else is a slide. The index doubles as a deterministic
// seed so retried runs reproduce the same imagery.
func (f *Fetcher) Fetch(ctx context.Context, instruction string, index int, aspect types.AspectRatio) ([]byte, error) {
	if instruction == "" {
		return nil, faults.New(faults.Validation, "segment %d has no image instruction", index)
	}

	prefix := slidePrefix
	if index == 0 {
		prefix = posterPrefix
	}
	width, height := dimensions(aspect)

	imageURL := fmt.Sprintf("%s/v1/images/%s?prompt=%s&width=%d&height=%d&seed=%d",
		f.cfg.Backend.BaseURL,
		url.PathEscape(f.cfg.Backend.ImageModel),
		url.QueryEscape(prefix+" "+instruction),
		width, height,
		index*42+7,
	)

	log.Printf("[imagegen] Segment %d: requesting image (%dx%d)...", index, width, height)

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		data, err := f.download(ctx, imageURL)
		if err == nil {
			return data, nil
		}
		lastErr = err
		log.Printf("[imagegen] Attempt %d failed for segment %d: %v", attempt, index, err)
		select {
		case <-ctx.Done():
			return nil, faults.Wrap(faults.Fetch, ctx.Err(), "image request canceled")
		case <-time.After(time.Duration(attempt) * 3 * time.Second):
		}
	}
	return nil, faults.Wrap(faults.Fetch, lastErr, "image request failed after 3 attempts")
}

func (f *Fetcher) download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+credential.Key())

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from image backend", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	// An error page is never a plausible image.
	if len(data) < 100 {
		return nil, fmt.Errorf("response too small (%d bytes)", len(data))
	}
	return data, nil
}

func dimensions(aspect types.AspectRatio) (int, int) {
	if aspect == types.Portrait {
		return 1080, 1920
	}
	return 1920, 1080
}
