// Package storyboard asks the generative backend for a production plan:
// ordered image-instruction/script segments plus publish metadata.
package storyboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"slidecast-studio/config"
	"slidecast-studio/credential"
	"slidecast-studio/faults"
	"slidecast-studio/types"
)

const planSystemPrompt = `You are a professional video production planner for faceless YouTube channels.
You design storyboards for narrated slideshow tutorials and reviews.

You MUST respond with ONLY valid JSON — no preamble, no markdown, no explanation.

The JSON must have exactly these fields:
- "storyboard": array of segments, each with:
  - "image_prompt": a detailed cinematic image generation prompt
  - "script": the exact words to be spoken for this segment
- "metadata": { "title": string (max 100 chars), "description": string with timestamps for every part, "tags": array of 15 strings }

Segment layout rules:
1. THUMBNAIL: high-impact cinematic composite. Its script is never spoken.
2. INTRO: professional hook.
3..N-2. DEEP DIVE: core analytical segments.
N-1. FINAL VERDICT / SUMMARY.
N. OUTRO & CTA.`

// Generator plans storyboards via the backend's chat-completion endpoint.
type Generator struct {
	cfg        *config.Config
	httpClient *http.Client
}

// New creates a storyboard Generator.
func New(cfg *config.Config) *Generator {
	return &Generator{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type planRequest struct {
	Model       string        `json:"model"`
	Messages    []planMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type planMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type planResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Sources []types.GroundingSource `json:"sources"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type storyboardJSON struct {
	Storyboard []segmentJSON       `json:"storyboard"`
	Metadata   types.VideoMetadata `json:"metadata"`
}

type segmentJSON struct {
	ImagePrompt string `json:"image_prompt"`
	Script      string `json:"script"`
}

// Run plans a storyboard for the request. The segment count comes from the
// category's configured profile; the first segment is the poster.
func (g *Generator) Run(ctx context.Context, req types.GenerationRequest) (*types.Storyboard, error) {
	segments := g.cfg.SegmentCount(string(req.Category), req.DeepDive)
	log.Printf("[storyboard] Planning %d segments for %q (%s)...", segments, req.Topic, req.Category)

	content, sources, err := g.complete(ctx, buildPlanPrompt(req, segments))
	if err != nil {
		return nil, err
	}

	var raw storyboardJSON
	if err := json.Unmarshal([]byte(cleanJSON(content)), &raw); err != nil {
		return nil, faults.Wrap(faults.Decode, err, "storyboard response is not valid JSON")
	}
	if len(raw.Storyboard) == 0 {
		return nil, faults.New(faults.Decode, "storyboard response contains no segments")
	}

	sb := &types.Storyboard{Metadata: raw.Metadata, Sources: sources}
	for _, s := range raw.Storyboard {
		sb.Segments = append(sb.Segments, types.StoryboardSegment{
			ImagePrompt: strings.TrimSpace(s.ImagePrompt),
			Script:      strings.TrimSpace(s.Script),
		})
	}
	log.Printf("[storyboard] ✅ Plan ready: %d segments, title %q", len(sb.Segments), sb.Metadata.Title)
	return sb, nil
}

// Refine produces the single-shot video inputs: an ultra-detailed scene
// prompt, a narration script, and publish metadata, via the backend's
// research-augmented completion.
func (g *Generator) Refine(ctx context.Context, req types.GenerationRequest) (prompt, script string, meta *types.VideoMetadata, sources []types.GroundingSource, err error) {
	log.Printf("[storyboard] Refining prompt for single-shot video %q...", req.Topic)

	content, sources, err := g.complete(ctx, buildRefinePrompt(req))
	if err != nil {
		return "", "", nil, nil, err
	}

	prompt = extractSection(content, "PROMPT")
	script = extractSection(content, "SCRIPT")
	if prompt == "" {
		prompt = req.Topic
	}
	if script == "" {
		script = req.Topic
	}

	title := extractSection(content, "YOUTUBE_TITLE")
	desc := extractSection(content, "YOUTUBE_DESC")
	tags := extractSection(content, "YOUTUBE_TAGS")
	if title != "" && desc != "" && tags != "" {
		m := &types.VideoMetadata{Title: title, Description: desc}
		for _, t := range strings.Split(tags, ",") {
			if t = strings.TrimSpace(t); t != "" {
				m.Tags = append(m.Tags, t)
			}
		}
		meta = m
	}
	return prompt, script, meta, sources, nil
}

func (g *Generator) complete(ctx context.Context, userPrompt string) (string, []types.GroundingSource, error) {
	reqBody := planRequest{
		Model: g.cfg.Backend.PlanModel,
		Messages: []planMessage{
			{Role: "system", Content: planSystemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: g.cfg.Backend.Temperature,
		MaxTokens:   8192,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", nil, fmt.Errorf("marshal plan request: %w", err)
	}

	url := g.cfg.Backend.BaseURL + "/v1/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+credential.Key())
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", nil, faults.Wrap(faults.Fetch, err, "storyboard request failed")
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, faults.Wrap(faults.Fetch, err, "read storyboard response")
	}

	var planResp planResponse
	if err := json.Unmarshal(respBytes, &planResp); err != nil {
		return "", nil, faults.Wrap(faults.Decode, err, "parse storyboard response")
	}
	if planResp.Error != nil {
		return "", nil, faults.New(faults.Fetch, "backend error: %s", planResp.Error.Message)
	}
	if len(planResp.Choices) == 0 {
		return "", nil, faults.New(faults.Decode, "backend returned no choices")
	}
	return planResp.Choices[0].Message.Content, planResp.Sources, nil
}

func buildPlanPrompt(req types.GenerationRequest, segments int) string {
	currentDate := time.Now().Format("Monday, January 2, 2006")
	var sb strings.Builder
	fmt.Fprintf(&sb, "Create a professional %d-segment production storyboard for: %q in the category: %s.\n", segments, req.Topic, req.Category)
	fmt.Fprintf(&sb, "CURRENT DATE: %s.\n\n", currentDate)

	switch req.Category {
	case types.CategoryDramaReview:
		sb.WriteString("ACT AS A BROADCAST TELEVISION CRITIC. Each segment MUST have an extremely lengthy, professional script (230-260 words per segment). Keep the pace steady and analytical.\n")
	case types.CategoryPriceInBD:
		sb.WriteString("ACT AS A TECH ANALYST IN BANGLADESH. Each segment MUST have a script of 140-160 words and mention the current price in BDT in almost every segment. Include full specs and a comparison with two similar products popular in the Bangladesh market.\n")
	default:
		if req.DeepDive {
			sb.WriteString("Provide a very detailed, comprehensive explanation (170-200 words per segment).\n")
		} else {
			sb.WriteString("Provide a concise professional explanation (60-90 words per segment).\n")
		}
	}

	sb.WriteString("\nRespond ONLY with valid JSON. No markdown. No explanation.")
	return sb.String()
}

func buildRefinePrompt(req types.GenerationRequest) string {
	currentDate := time.Now().Format("1/2/2006")
	return fmt.Sprintf(`High-End Studio Production for: %q in category %s.
TODAY: %s.
Research this topic then output:
PROMPT: [Ultra detailed cinematic scene prompt]
SCRIPT: [Exhaustive narration script]
YOUTUBE_TITLE: [Title]
YOUTUBE_DESC: [Description]
YOUTUBE_TAGS: [Comma-separated tags]`, req.Topic, req.Category, currentDate)
}

// extractSection pulls the body of one LABEL: section from loosely
// structured model output, stopping at the next known label.
func extractSection(text, label string) string {
	idx := strings.Index(text, label+":")
	if idx < 0 {
		return ""
	}
	body := text[idx+len(label)+1:]
	for _, next := range []string{"PROMPT:", "SCRIPT:", "YOUTUBE_TITLE:", "YOUTUBE_DESC:", "YOUTUBE_TAGS:"} {
		if next == label+":" {
			continue
		}
		if cut := strings.Index(body, next); cut >= 0 {
			body = body[:cut]
		}
	}
	return strings.TrimSpace(body)
}

// cleanJSON strips markdown fences if the model wraps its response.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
