package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"slidecast-studio/capture"
	"slidecast-studio/compositor"
	"slidecast-studio/config"
	"slidecast-studio/credential"
	"slidecast-studio/export"
	"slidecast-studio/imagegen"
	"slidecast-studio/narration"
	"slidecast-studio/pcm"
	"slidecast-studio/provideo"
	"slidecast-studio/publish"
	"slidecast-studio/storyboard"
	"slidecast-studio/types"
)

func main() {
	// Load .env (local dev only)
	_ = godotenv.Load()

	var (
		topicFlag    = flag.String("topic", "", "topic or serial title to produce")
		categoryFlag = flag.String("category", string(types.CategoryHowTo), "content category: how-to-guide | drama-serial-review | price-in-bd")
		typeFlag     = flag.String("type", string(types.BasicSlideshow), "pipeline: basic-slideshow | pro-video")
		aspectFlag   = flag.String("aspect", string(types.Landscape), "aspect ratio: 16:9 | 9:16")
		resFlag      = flag.String("resolution", string(types.Res1080), "single-shot video resolution: 720p | 1080p")
		voiceFlag    = flag.String("voice", "", "narration voice (default from config)")
		tierFlag     = flag.String("tier", "", "quality tier: baseline | master (default from config)")
		deepFlag     = flag.Bool("deepdive", false, "longer, more detailed storyboard")
		voiceoverOn  = flag.Bool("voiceover", true, "narrate the single-shot video too")
		publishFlag  = flag.String("publish", "", "channel to run the scripted release against")
		configFlag   = flag.String("config", "config.yaml", "config file path")
	)
	flag.Parse()

	if *topicFlag == "" {
		log.Fatal("usage: -topic is required")
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Credential precondition, checked before any paid backend call.
	switch res := credential.Check(); res.State {
	case credential.Ready:
	case credential.NeedsCredential:
		log.Fatalf("Backend credential missing: %s", res.Detail)
	default:
		log.Fatalf("Backend credential unusable: %s", res.Detail)
	}

	req := types.GenerationRequest{
		Topic:        *topicFlag,
		Category:     types.ContentCategory(*categoryFlag),
		TutorialType: types.TutorialType(*typeFlag),
		AspectRatio:  types.AspectRatio(*aspectFlag),
		Resolution:   types.Resolution(*resFlag),
		Voice:        *voiceFlag,
		DeepDive:     *deepFlag,
		QualityTier:  *tierFlag,
		Voiceover:    *voiceoverOn,
	}

	for _, dir := range []string{cfg.Paths.Output, cfg.Paths.Logs} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create dir %s: %v", dir, err)
		}
	}

	runID := uuid.NewString()[:8]
	runDir := filepath.Join(cfg.Paths.Output, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		log.Fatalf("Failed to create run dir: %v", err)
	}

	log.Printf("🎬 Slidecast Studio starting — Run ID: %s", runID)
	log.Printf("📁 Output dir: %s", runDir)

	ctx := context.Background()
	state := &types.RunState{
		RunID:     runID,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
		Request:   req,
	}

	defer func() {
		state.CompletedAt = time.Now().UTC().Format(time.RFC3339)
		saveJSON(filepath.Join(runDir, "run_state.json"), state)
		if state.Error != "" {
			log.Printf("❌ Production failed: %s", state.Error)
			os.Exit(1)
		}
		log.Printf("✅ Production complete! Master: %s", state.MasterFile)
	}()

	if req.TutorialType == types.ProVideo {
		runProVideo(ctx, cfg, req, runDir, state)
	} else {
		runSlideshow(ctx, cfg, req, runDir, state)
	}

	if state.Error == "" && *publishFlag != "" && state.Metadata != nil {
		runPublish(ctx, cfg, *publishFlag, runDir, state)
	}
}

// runSlideshow is the full compositor pipeline: storyboard → images →
// narration → export session → master file.
func runSlideshow(ctx context.Context, cfg *config.Config, req types.GenerationRequest, runDir string, state *types.RunState) {
	// ─────────────────────────────────────────────
	// STAGE 1: Storyboard
	// ─────────────────────────────────────────────
	log.Println("\n━━━ STAGE 1: Storyboard ━━━")
	planner := storyboard.New(cfg)
	sb, err := planner.Run(ctx, req)
	if err != nil {
		state.Error = fmt.Sprintf("Stage 1 Storyboard: %v", err)
		return
	}
	state.Metadata = &sb.Metadata
	state.Sources = sb.Sources
	saveJSON(filepath.Join(runDir, "storyboard.json"), sb)

	// ─────────────────────────────────────────────
	// STAGE 2: Images
	// ─────────────────────────────────────────────
	log.Println("\n━━━ STAGE 2: Images ━━━")
	fetcher := imagegen.New(cfg)
	var slideFiles []string
	for i, seg := range sb.Segments {
		data, err := fetcher.Fetch(ctx, seg.ImagePrompt, i, req.AspectRatio)
		if err != nil {
			state.Error = fmt.Sprintf("Stage 2 Images (segment %d): %v", i, err)
			return
		}
		name := fmt.Sprintf("slide_%03d.png", i)
		if i == 0 {
			name = "poster.png"
		}
		path := filepath.Join(runDir, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			state.Error = fmt.Sprintf("Stage 2 Images (save %s): %v", name, err)
			return
		}
		if i == 0 {
			state.PosterFile = path
		} else {
			slideFiles = append(slideFiles, path)
		}
	}
	state.SlideFiles = slideFiles
	log.Printf("[imagegen] ✅ %d slides + poster saved", len(slideFiles))

	// ─────────────────────────────────────────────
	// STAGE 3: Narration
	// ─────────────────────────────────────────────
	log.Println("\n━━━ STAGE 3: Narration ━━━")
	synth := narration.New(cfg)
	track, err := synth.Run(ctx, sb.NarrationScript(), req.Voice)
	if err != nil {
		state.Error = fmt.Sprintf("Stage 3 Narration: %v", err)
		return
	}
	narrationFile := filepath.Join(runDir, "narration.wav")
	if err := os.WriteFile(narrationFile, pcm.EncodeWAV(track), 0644); err != nil {
		state.Error = fmt.Sprintf("Stage 3 Narration (save): %v", err)
		return
	}
	state.NarrationFile = narrationFile

	// ─────────────────────────────────────────────
	// STAGE 4: Export
	// ─────────────────────────────────────────────
	log.Println("\n━━━ STAGE 4: Export ━━━")
	profile := cfg.Profile(req.QualityTier)
	format := capture.SelectFormat()
	log.Printf("[export] Profile: %d fps, %d bps — container %s", profile.FPS, profile.VideoBitrate, format.MimeType)

	recorder := capture.NewPipeline(capture.Config{
		Width:        cfg.Export.Width,
		Height:       cfg.Export.Height,
		FrameRate:    profile.FPS,
		VideoBitrate: profile.VideoBitrate,
		Format:       format,
		TempDir:      runDir,
	})
	canvas := compositor.NewCanvas(cfg.Export.Width, cfg.Export.Height)
	session := export.NewSession(export.NewSourceLoader(), recorder, canvas, profile.FPS, func(p export.Progress) {
		log.Printf("[export] %3d%% [%s] %s", p.Percent, p.Status, p.Message)
	})

	blob, err := session.Run(ctx, slideFiles, track)
	if err != nil {
		state.Error = fmt.Sprintf("Stage 4 Export: %v", err)
		return
	}

	masterFile := filepath.Join(runDir, "master"+format.Extension())
	if err := os.WriteFile(masterFile, blob.Data, 0644); err != nil {
		state.Error = fmt.Sprintf("Stage 4 Export (save): %v", err)
		return
	}
	state.MasterFile = masterFile
	state.MimeType = blob.MimeType
	log.Printf("[export] ✅ Master ready: %s (%.1f MB)", masterFile, float64(len(blob.Data))/1024/1024)
}

// runProVideo is the alternate single-shot pipeline: refine → generate →
// poll → fetch, with optional narration alongside.
func runProVideo(ctx context.Context, cfg *config.Config, req types.GenerationRequest, runDir string, state *types.RunState) {
	// ─────────────────────────────────────────────
	// STAGE 1: Prompt Refinement
	// ─────────────────────────────────────────────
	log.Println("\n━━━ STAGE 1: Prompt Refinement ━━━")
	planner := storyboard.New(cfg)
	prompt, script, meta, sources, err := planner.Refine(ctx, req)
	if err != nil {
		state.Error = fmt.Sprintf("Stage 1 Refinement: %v", err)
		return
	}
	state.Metadata = meta
	state.Sources = sources

	// ─────────────────────────────────────────────
	// STAGE 2: Video Generation
	// ─────────────────────────────────────────────
	log.Println("\n━━━ STAGE 2: Video Generation ━━━")
	gen := provideo.New(cfg)
	video, err := gen.Run(ctx, prompt, req.Resolution, req.AspectRatio)
	if err != nil {
		state.Error = fmt.Sprintf("Stage 2 Video: %v", err)
		return
	}
	masterFile := filepath.Join(runDir, "master.mp4")
	if err := os.WriteFile(masterFile, video, 0644); err != nil {
		state.Error = fmt.Sprintf("Stage 2 Video (save): %v", err)
		return
	}
	state.MasterFile = masterFile
	state.MimeType = "video/mp4"

	// ─────────────────────────────────────────────
	// STAGE 3: Narration (optional)
	// ─────────────────────────────────────────────
	if !req.Voiceover {
		return
	}
	log.Println("\n━━━ STAGE 3: Narration ━━━")
	synth := narration.New(cfg)
	track, err := synth.Run(ctx, script, req.Voice)
	if err != nil {
		log.Printf("⚠️  Stage 3 Narration failed: %v — continuing without voiceover", err)
		return
	}
	narrationFile := filepath.Join(runDir, "narration.wav")
	if err := os.WriteFile(narrationFile, pcm.EncodeWAV(track), 0644); err != nil {
		log.Printf("⚠️  Stage 3 Narration save failed: %v", err)
		return
	}
	state.NarrationFile = narrationFile
}

// runPublish walks the scripted release flow against the chosen channel.
func runPublish(ctx context.Context, cfg *config.Config, channel, runDir string, state *types.RunState) {
	log.Println("\n━━━ STAGE 5: Release ━━━")
	data, err := os.ReadFile(state.MasterFile)
	if err != nil {
		log.Printf("⚠️  Release skipped: %v", err)
		return
	}
	pub := publish.New(cfg)
	rel, err := pub.Run(ctx, &capture.Blob{Data: data, MimeType: state.MimeType}, *state.Metadata, channel, func(pct int, status string) {
		log.Printf("[publish] %3d%% %s", pct, status)
	})
	if err != nil {
		log.Printf("⚠️  Release failed: %v", err)
		return
	}
	saveJSON(filepath.Join(runDir, "release.json"), rel)
}

func saveJSON(path string, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Printf("Warning: could not marshal JSON for %s: %v", path, err)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Printf("Warning: could not save %s: %v", path, err)
	}
}
