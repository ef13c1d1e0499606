// Package provideo drives the single-shot video pipeline: submit one refined
// prompt, poll the returned operation handle on a fixed interval, then fetch
// the finished video bytes. Polling is bounded; exhaustion is a timeout
// fault, never an infinite loop.
package provideo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"slidecast-studio/config"
	"slidecast-studio/credential"
	"slidecast-studio/faults"
	"slidecast-studio/types"
)

// Generator talks to the backend's video-generation endpoint.
type Generator struct {
	cfg        *config.Config
	httpClient *http.Client

	// pollInterval and maxAttempts default from config; tests narrow them.
	pollInterval time.Duration
	maxAttempts  int
}

// New creates a video Generator.
func New(cfg *config.Config) *Generator {
	return &Generator{
		cfg:          cfg,
		httpClient:   &http.Client{Timeout: 120 * time.Second},
		pollInterval: time.Duration(cfg.Backend.PollIntervalSec) * time.Second,
		maxAttempts:  cfg.Backend.PollMaxAttempts,
	}
}

type startRequest struct {
	Model       string `json:"model"`
	Prompt      string `json:"prompt"`
	Resolution  string `json:"resolution"`
	AspectRatio string `json:"aspect_ratio"`
	Count       int    `json:"number_of_videos"`
}

type operationResponse struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	VideoURI string `json:"video_uri"`
	Error    *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Run submits the prompt and polls until the operation completes, returning
// the fetched video bytes.
func (g *Generator) Run(ctx context.Context, prompt string, res types.Resolution, aspect types.AspectRatio) ([]byte, error) {
	op, err := g.start(ctx, prompt, res, aspect)
	if err != nil {
		return nil, err
	}
	log.Printf("[provideo] Operation %s started — polling every %s...", op.Name, g.pollInterval)

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if op.Done {
			break
		}
		select {
		case <-ctx.Done():
			return nil, faults.Wrap(faults.Canceled, ctx.Err(), "video generation canceled")
		case <-time.After(g.pollInterval):
		}
		op, err = g.poll(ctx, op.Name)
		if err != nil {
			return nil, err
		}
		log.Printf("[provideo] Poll %d/%d: done=%v", attempt, g.maxAttempts, op.Done)
	}
	if !op.Done {
		return nil, faults.New(faults.Timeout, "video generation did not finish within %d polls", g.maxAttempts)
	}
	if op.Error != nil {
		return nil, faults.New(faults.Fetch, "video generation failed: %s", op.Error.Message)
	}
	if op.VideoURI == "" {
		return nil, faults.New(faults.Decode, "completed operation carries no video URI")
	}
	return g.fetchVideo(ctx, op.VideoURI)
}

func (g *Generator) start(ctx context.Context, prompt string, res types.Resolution, aspect types.AspectRatio) (*operationResponse, error) {
	body, err := json.Marshal(startRequest{
		Model:       g.cfg.Backend.VideoModel,
		Prompt:      prompt,
		Resolution:  string(res),
		AspectRatio: string(aspect),
		Count:       1,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal video request: %w", err)
	}
	return g.doOperation(ctx, http.MethodPost, g.cfg.Backend.BaseURL+"/v1/videos/generate", body)
}

func (g *Generator) poll(ctx context.Context, name string) (*operationResponse, error) {
	return g.doOperation(ctx, http.MethodGet, g.cfg.Backend.BaseURL+"/v1/operations/"+name, nil)
}

func (g *Generator) doOperation(ctx context.Context, method, url string, body []byte) (*operationResponse, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+credential.Key())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, faults.Wrap(faults.Fetch, err, "video operation request failed")
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, faults.Wrap(faults.Fetch, err, "read video operation response")
	}
	var op operationResponse
	if err := json.Unmarshal(respBytes, &op); err != nil {
		return nil, faults.Wrap(faults.Decode, err, "parse video operation response")
	}
	return &op, nil
}

func (g *Generator) fetchVideo(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+credential.Key())

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, faults.Wrap(faults.Fetch, err, "fetch generated video")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, faults.New(faults.Fetch, "HTTP %d fetching generated video", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, faults.Wrap(faults.Fetch, err, "read generated video")
	}
	log.Printf("[provideo] ✅ Video fetched: %.1f MB", float64(len(data))/1024/1024)
	return data, nil
}
