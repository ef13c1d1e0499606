// Package narration turns the concatenated storyboard script into a decoded
// audio buffer via the backend's speech endpoint. The backend produces raw
// linear PCM at a fixed sample rate (24000 Hz mono in this deployment).
package narration

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"slidecast-studio/config"
	"slidecast-studio/credential"
	"slidecast-studio/faults"
	"slidecast-studio/pcm"
)

// Synthesizer requests narration audio from the speech backend.
type Synthesizer struct {
	cfg        *config.Config
	httpClient *http.Client
}

// New creates a Synthesizer.
func New(cfg *config.Config) *Synthesizer {
	return &Synthesizer{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

type speechRequest struct {
	Model string `json:"model"`
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

type speechResponse struct {
	Audio string `json:"audio"` // base64 raw PCM
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Run synthesizes the script with the named voice and decodes the returned
// PCM payload into a buffer. A malformed payload is a decode fault.
func (s *Synthesizer) Run(ctx context.Context, script, voice string) (*pcm.Buffer, error) {
	if script == "" {
		return nil, faults.New(faults.Validation, "narration script is empty")
	}
	if voice == "" {
		voice = s.cfg.Narration.DefaultVoice
	}
	log.Printf("[narration] Synthesizing %d chars with voice %q...", len(script), voice)

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		raw, err := s.request(ctx, script, voice)
		if err == nil {
			buf, derr := pcm.DecodePCM16(raw, s.cfg.Narration.SampleRate, s.cfg.Narration.Channels)
			if derr != nil {
				return nil, faults.Wrap(faults.Decode, derr, "narration payload is malformed")
			}
			log.Printf("[narration] ✅ Narration ready: %.1fs at %d Hz", buf.Duration(), buf.SampleRate)
			return buf, nil
		}
		lastErr = err
		log.Printf("[narration] Attempt %d failed: %v — retrying...", attempt, err)
		select {
		case <-ctx.Done():
			return nil, faults.Wrap(faults.Fetch, ctx.Err(), "narration request canceled")
		case <-time.After(time.Duration(attempt) * 2 * time.Second):
		}
	}
	return nil, faults.Wrap(faults.Fetch, lastErr, "narration request failed after 3 attempts")
}

func (s *Synthesizer) request(ctx context.Context, script, voice string) ([]byte, error) {
	body, err := json.Marshal(speechRequest{
		Model: s.cfg.Backend.SpeechModel,
		Text:  "Speak at a steady, professional informative pace: " + script,
		Voice: voice,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal speech request: %w", err)
	}

	url := s.cfg.Backend.BaseURL + "/v1/audio/speech"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+credential.Key())
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var sr speechResponse
	if err := json.Unmarshal(respBytes, &sr); err != nil {
		return nil, fmt.Errorf("parse speech response: %w", err)
	}
	if sr.Error != nil {
		return nil, fmt.Errorf("speech backend error: %s", sr.Error.Message)
	}
	if sr.Audio == "" {
		return nil, fmt.Errorf("speech response carries no audio")
	}
	raw, err := base64.StdEncoding.DecodeString(sr.Audio)
	if err != nil {
		return nil, fmt.Errorf("decode speech payload: %w", err)
	}
	return raw, nil
}
