// Package publish runs the scripted release flow: a staged progress
// animation against a named channel, plus a JSON release log. This is a
// demo surface, deliberately not a real upload protocol.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"slidecast-studio/capture"
	"slidecast-studio/config"
	"slidecast-studio/faults"
	"slidecast-studio/types"
)

// stage is one step of the scripted progress animation.
type stage struct {
	percent int
	status  string
}

var stages = []stage{
	{15, "Optimizing bitrates for broadcast standard..."},
	{40, "Transmitting master file..."},
	{70, "Injecting high-fidelity thumbnail..."},
	{90, "Finalizing SEO tags and descriptions..."},
	{100, "Episode live!"},
}

// Release records one completed publish.
type Release struct {
	Channel    string `json:"channel"`
	Title      string `json:"title"`
	SizeBytes  int    `json:"size_bytes"`
	MimeType   string `json:"mime_type"`
	ReleasedAt string `json:"released_at"`
}

// Publisher runs simulated releases.
type Publisher struct {
	cfg   *config.Config
	sleep func(time.Duration)
}

// New creates a Publisher.
func New(cfg *config.Config) *Publisher {
	return &Publisher{cfg: cfg, sleep: time.Sleep}
}

// Run walks the scripted stages for the chosen channel and writes the
// release log. onProgress may be nil.
func (p *Publisher) Run(ctx context.Context, master *capture.Blob, meta types.VideoMetadata, channel string, onProgress func(percent int, status string)) (*Release, error) {
	if master == nil || len(master.Data) == 0 {
		return nil, faults.New(faults.Validation, "nothing to publish: master blob is empty")
	}
	if channel == "" {
		channel = p.cfg.Publish.DefaultChannel
	}
	if !p.knownChannel(channel) {
		return nil, faults.New(faults.Validation, "unknown channel %q", channel)
	}

	log.Printf("[publish] Releasing %q to channel %q...", meta.Title, channel)
	delay := time.Duration(p.cfg.Publish.StepDelayMs) * time.Millisecond
	for _, st := range stages {
		select {
		case <-ctx.Done():
			return nil, faults.Wrap(faults.Canceled, ctx.Err(), "release canceled")
		default:
		}
		if onProgress != nil {
			onProgress(st.percent, st.status)
		}
		p.sleep(delay)
	}

	rel := &Release{
		Channel:    channel,
		Title:      meta.Title,
		SizeBytes:  len(master.Data),
		MimeType:   master.MimeType,
		ReleasedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := p.logRelease(rel); err != nil {
		log.Printf("[publish] Warning: could not save release log: %v", err)
	}
	log.Printf("[publish] ✅ Released to %q", channel)
	return rel, nil
}

func (p *Publisher) knownChannel(name string) bool {
	for _, c := range p.cfg.Publish.Channels {
		if c == name {
			return true
		}
	}
	return false
}

func (p *Publisher) logRelease(rel *Release) error {
	if err := os.MkdirAll(p.cfg.Paths.Logs, 0755); err != nil {
		return err
	}
	logFile := filepath.Join(p.cfg.Paths.Logs,
		fmt.Sprintf("release_%s.json", time.Now().Format("20060102_150405")))
	data, err := json.MarshalIndent(rel, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(logFile, data, 0644)
}
