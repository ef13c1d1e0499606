// Package config loads config.yaml. Secrets (the backend API key) come from
// the environment, never from the config file.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Backend    BackendConfig    `yaml:"backend"`
	Storyboard StoryboardConfig `yaml:"storyboard"`
	Narration  NarrationConfig  `yaml:"narration"`
	Export     ExportConfig     `yaml:"export"`
	Publish    PublishConfig    `yaml:"publish"`
	Paths      PathsConfig      `yaml:"paths"`
}

type BackendConfig struct {
	BaseURL         string  `yaml:"base_url"`
	PlanModel       string  `yaml:"plan_model"`
	ImageModel      string  `yaml:"image_model"`
	SpeechModel     string  `yaml:"speech_model"`
	VideoModel      string  `yaml:"video_model"`
	Temperature     float64 `yaml:"temperature"`
	PollIntervalSec int     `yaml:"poll_interval_sec"`
	PollMaxAttempts int     `yaml:"poll_max_attempts"`
}

type StoryboardConfig struct {
	// Segment counts per category; deep-dive overrides the how-to count.
	SegmentProfiles map[string]int `yaml:"segment_profiles"`
	DeepDiveCount   int            `yaml:"deep_dive_count"`
}

type NarrationConfig struct {
	SampleRate   int    `yaml:"sample_rate"`
	Channels     int    `yaml:"channels"`
	DefaultVoice string `yaml:"default_voice"`
}

// QualityProfile is one caller-selectable frame-rate/bitrate tier.
type QualityProfile struct {
	FPS          int `yaml:"fps"`
	VideoBitrate int `yaml:"video_bitrate"`
}

type ExportConfig struct {
	Width          int                       `yaml:"width"`
	Height         int                       `yaml:"height"`
	Profiles       map[string]QualityProfile `yaml:"profiles"`
	DefaultProfile string                    `yaml:"default_profile"`
}

type PublishConfig struct {
	Channels       []string `yaml:"channels"`
	DefaultChannel string   `yaml:"default_channel"`
	StepDelayMs    int      `yaml:"step_delay_ms"`
}

type PathsConfig struct {
	Output string `yaml:"output"`
	Logs   string `yaml:"logs"`
}

// Load reads config.yaml and fills in defaults for anything omitted.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		// Missing file runs entirely on defaults.
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if c.Backend.PlanModel == "" {
		c.Backend.PlanModel = "gemini-3-pro-preview"
	}
	if c.Backend.ImageModel == "" {
		c.Backend.ImageModel = "gemini-2.5-flash-image"
	}
	if c.Backend.SpeechModel == "" {
		c.Backend.SpeechModel = "gemini-2.5-flash-preview-tts"
	}
	if c.Backend.VideoModel == "" {
		c.Backend.VideoModel = "veo-3.1-fast-generate-preview"
	}
	if c.Backend.PollIntervalSec <= 0 {
		c.Backend.PollIntervalSec = 10
	}
	if c.Backend.PollMaxAttempts <= 0 {
		c.Backend.PollMaxAttempts = 60
	}
	if c.Storyboard.SegmentProfiles == nil {
		c.Storyboard.SegmentProfiles = map[string]int{
			"how-to-guide":        7,
			"price-in-bd":         12,
			"drama-serial-review": 25,
		}
	}
	if c.Storyboard.DeepDiveCount <= 0 {
		c.Storyboard.DeepDiveCount = 15
	}
	if c.Narration.SampleRate <= 0 {
		c.Narration.SampleRate = 24000
	}
	if c.Narration.Channels <= 0 {
		c.Narration.Channels = 1
	}
	if c.Narration.DefaultVoice == "" {
		c.Narration.DefaultVoice = "Zephyr"
	}
	if c.Export.Width <= 0 || c.Export.Height <= 0 {
		c.Export.Width, c.Export.Height = 1920, 1080
	}
	if c.Export.Profiles == nil {
		c.Export.Profiles = map[string]QualityProfile{
			"baseline": {FPS: 30, VideoBitrate: 8_000_000},
			"master":   {FPS: 60, VideoBitrate: 25_000_000},
		}
	}
	if c.Export.DefaultProfile == "" {
		c.Export.DefaultProfile = "baseline"
	}
	if len(c.Publish.Channels) == 0 {
		c.Publish.Channels = []string{"Review Master HD", "Tutorial Series", "Drama Bites"}
	}
	if c.Publish.DefaultChannel == "" {
		c.Publish.DefaultChannel = c.Publish.Channels[0]
	}
	if c.Publish.StepDelayMs <= 0 {
		c.Publish.StepDelayMs = 1000
	}
	if c.Paths.Output == "" {
		c.Paths.Output = "output"
	}
	if c.Paths.Logs == "" {
		c.Paths.Logs = "logs"
	}
}

// Profile resolves a quality tier name, falling back to the default tier.
func (c *Config) Profile(name string) QualityProfile {
	if p, ok := c.Export.Profiles[name]; ok {
		return p
	}
	return c.Export.Profiles[c.Export.DefaultProfile]
}

// SegmentCount resolves the storyboard length for a request.
func (c *Config) SegmentCount(category string, deepDive bool) int {
	if deepDive && category == "how-to-guide" {
		return c.Storyboard.DeepDiveCount
	}
	if n, ok := c.Storyboard.SegmentProfiles[category]; ok {
		return n
	}
	return c.Storyboard.SegmentProfiles["how-to-guide"]
}
