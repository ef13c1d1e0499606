// Package types holds the value objects passed between pipeline stages.
package types

import "strings"

// ContentCategory selects the editorial style of the production.
type ContentCategory string

const (
	CategoryHowTo       ContentCategory = "how-to-guide"
	CategoryDramaReview ContentCategory = "drama-serial-review"
	CategoryPriceInBD   ContentCategory = "price-in-bd"
)

// TutorialType selects the production pipeline.
type TutorialType string

const (
	BasicSlideshow TutorialType = "basic-slideshow" // storyboard + stills + narrated export
	ProVideo       TutorialType = "pro-video"       // single-shot generated video
)

// AspectRatio of the generated imagery and video.
type AspectRatio string

const (
	Landscape AspectRatio = "16:9"
	Portrait  AspectRatio = "9:16"
)

// Resolution of the single-shot video request.
type Resolution string

const (
	Res720  Resolution = "720p"
	Res1080 Resolution = "1080p"
)

// GenerationRequest is one immutable production order. It is built once from
// user input and passed by value between stages; stages never mutate shared
// flags behind each other's backs.
type GenerationRequest struct {
	Topic        string          `json:"topic"`
	Category     ContentCategory `json:"category"`
	TutorialType TutorialType    `json:"tutorial_type"`
	AspectRatio  AspectRatio     `json:"aspect_ratio"`
	Resolution   Resolution      `json:"resolution"`
	Voice        string          `json:"voice"`
	DeepDive     bool            `json:"deep_dive"`
	QualityTier  string          `json:"quality_tier"`
	Voiceover    bool            `json:"voiceover"`
}

// StoryboardSegment pairs one image instruction with its narration script.
type StoryboardSegment struct {
	ImagePrompt string `json:"image_prompt"`
	Script      string `json:"script"`
}

// VideoMetadata is the descriptive metadata returned alongside the
// storyboard, used verbatim by the publish step.
type VideoMetadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// GroundingSource is a citation from the backend's research step.
// Passthrough data; the pipeline displays it and never processes it.
type GroundingSource struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Storyboard is the ordered production plan. Segment 0 is reserved for the
// poster/thumbnail: its image leads the metadata and its script is excluded
// from the narration.
type Storyboard struct {
	Segments []StoryboardSegment `json:"segments"`
	Metadata VideoMetadata       `json:"metadata"`
	Sources  []GroundingSource   `json:"sources,omitempty"`
}

// pauseMarker gives the speech backend a natural breath between segments.
const pauseMarker = " ... [pause] ... "

// NarrationScript concatenates the spoken scripts of all slide segments.
// The poster segment (index 0) does not speak.
func (s *Storyboard) NarrationScript() string {
	var sb strings.Builder
	for i, seg := range s.Segments {
		if i == 0 {
			continue
		}
		sb.WriteString(seg.Script)
		sb.WriteString(pauseMarker)
	}
	return sb.String()
}

// SlideCount is the number of displayable slides (poster excluded).
func (s *Storyboard) SlideCount() int {
	if len(s.Segments) == 0 {
		return 0
	}
	return len(s.Segments) - 1
}

// RunState tracks one full pipeline run for the state JSON saved on exit.
type RunState struct {
	RunID         string            `json:"run_id"`
	StartedAt     string            `json:"started_at"`
	CompletedAt   string            `json:"completed_at"`
	Request       GenerationRequest `json:"request"`
	Metadata      *VideoMetadata    `json:"metadata,omitempty"`
	Sources       []GroundingSource `json:"sources,omitempty"`
	PosterFile    string            `json:"poster_file,omitempty"`
	SlideFiles    []string          `json:"slide_files,omitempty"`
	NarrationFile string            `json:"narration_file,omitempty"`
	MasterFile    string            `json:"master_file,omitempty"`
	MimeType      string            `json:"mime_type,omitempty"`
	Error         string            `json:"error,omitempty"`
}
