// Package export coordinates one slideshow-to-video export end to end:
// pre-fetching slide bitmaps, starting narration playback, driving the
// per-frame render loop against the playback clock, and finalizing the
// capture pipeline into a downloadable blob. All acquired resources are
// released on every exit path.
package export

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"slidecast-studio/capture"
	"slidecast-studio/compositor"
	"slidecast-studio/faults"
	"slidecast-studio/pcm"
	"slidecast-studio/playback"
	"slidecast-studio/schedule"
)

// Status is the session lifecycle state. Transitions only move forward;
// Complete and Failed are terminal for the session.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusLoading    Status = "loading"
	StatusRecording  Status = "recording"
	StatusFinalizing Status = "finalizing"
	StatusComplete   Status = "complete"
	StatusFailed     Status = "failed"
)

// Progress is one status report delivered to the caller's callback.
// Percent is monotonically non-decreasing while recording.
type Progress struct {
	Status  Status
	Percent int
	Message string
}

// BitmapLoader fetches one slide source and decodes it to a bitmap.
type BitmapLoader interface {
	Load(ctx context.Context, src string) (*compositor.Bitmap, error)
}

// Recorder is the capture/encode pipeline as the session sees it.
// *capture.Pipeline is the production implementation.
type Recorder interface {
	Start(ctx context.Context, audio *pcm.Buffer) error
	WriteFrame(frame *image.RGBA) error
	Stop() (*capture.Blob, error)
}

// Session is one export attempt. A session runs at most once; a new export
// requires a fresh session.
type Session struct {
	loader     BitmapLoader
	recorder   Recorder
	canvas     *compositor.Canvas
	frameRate  int
	onProgress func(Progress)

	mu      sync.Mutex
	status  Status
	percent int
	message string
	output  *capture.Blob
	bitmaps []*compositor.Bitmap

	stopOnce sync.Once
	stopC    chan struct{}
}

// NewSession wires a session to its collaborators. canvas may be nil, in
// which case a master-resolution surface is created. onProgress may be nil.
func NewSession(loader BitmapLoader, rec Recorder, canvas *compositor.Canvas, frameRate int, onProgress func(Progress)) *Session {
	if canvas == nil {
		canvas = compositor.NewCanvas(compositor.MasterWidth, compositor.MasterHeight)
	}
	if frameRate <= 0 {
		frameRate = 30
	}
	return &Session{
		loader:     loader,
		recorder:   rec,
		canvas:     canvas,
		frameRate:  frameRate,
		onProgress: onProgress,
		status:     StatusIdle,
		stopC:      make(chan struct{}),
	}
}

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Output returns the finalized blob, or nil before completion.
func (s *Session) Output() *capture.Blob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.output
}

// Stop requests an early end of the export. During Recording it finalizes
// the encoder with whatever has been captured; during Loading it aborts.
// Safe to call at any time, from any goroutine.
func (s *Session) Stop() {
	s.stopOnce.Do(func() { close(s.stopC) })
}

// Run executes the export. It validates inputs while still Idle, then moves
// Loading → Recording → Finalizing → Complete, or → Failed on any error.
// Decoded bitmaps and the playback clock are released unconditionally.
func (s *Session) Run(ctx context.Context, slides []string, narration *pcm.Buffer) (*capture.Blob, error) {
	s.mu.Lock()
	if s.status != StatusIdle {
		st := s.status
		s.mu.Unlock()
		return nil, faults.New(faults.Busy, "export session already used (status %s)", st)
	}
	if narration == nil || narration.Duration() <= 0 {
		s.mu.Unlock()
		return nil, faults.New(faults.Validation, "narration track is missing or empty")
	}
	if len(slides) == 0 {
		s.mu.Unlock()
		return nil, faults.New(faults.Validation, "no slide images to export")
	}
	s.status = StatusLoading
	s.mu.Unlock()

	// Bitmaps are exclusively owned by this session; release them on every
	// exit path so repeated exports cannot grow memory without bound.
	defer s.releaseBitmaps()

	// loadBitmaps classifies its own failures with per-scene context.
	if err := s.loadBitmaps(ctx, slides); err != nil {
		return nil, s.fail(err)
	}

	player := playback.NewPlayer(narration)
	defer player.Close()

	if err := player.Play(); err != nil {
		return nil, s.fail(faults.Wrap(faults.Playback, err, "narration playback refused to start"))
	}
	if err := s.recorder.Start(ctx, player.Source()); err != nil {
		return nil, s.fail(faults.Wrap(faults.Encoder, err, "capture pipeline failed to open"))
	}

	if err := s.record(ctx, player); err != nil {
		// The encoder is open; flush and discard so nothing leaks.
		_, _ = s.recorder.Stop()
		return nil, s.fail(err)
	}

	s.setProgress(StatusFinalizing, s.percentNow(), "Finalizing container...")
	player.Pause()

	blob, err := s.recorder.Stop()
	if err != nil {
		return nil, s.fail(faults.Wrap(faults.Encoder, err,
			"encoder finalize failed; retry with a lower frame rate or bitrate"))
	}

	s.mu.Lock()
	s.status = StatusComplete
	s.percent = 100
	s.message = "Export complete"
	s.output = blob
	s.mu.Unlock()
	s.report(Progress{Status: StatusComplete, Percent: 100, Message: "Export complete"})
	return blob, nil
}

// loadBitmaps fetches and decodes every slide source in order. Any failure
// aborts the whole load; bitmaps decoded so far are released by Run's defer.
func (s *Session) loadBitmaps(ctx context.Context, slides []string) error {
	for i, src := range slides {
		select {
		case <-ctx.Done():
			return faults.Wrap(faults.Canceled, ctx.Err(), "export canceled while buffering")
		case <-s.stopC:
			return faults.New(faults.Canceled, "export stopped while buffering")
		default:
		}
		s.setProgress(StatusLoading, 0, fmt.Sprintf("Buffering scene %d/%d...", i+1, len(slides)))
		bm, err := s.loader.Load(ctx, src)
		if err != nil {
			kind := faults.KindOf(err)
			if kind == "" {
				kind = faults.Fetch
			}
			return &faults.Fault{Kind: kind, Message: fmt.Sprintf("scene %d/%d failed to buffer", i+1, len(slides)), Err: err}
		}
		s.mu.Lock()
		s.bitmaps = append(s.bitmaps, bm)
		s.mu.Unlock()
	}
	return nil
}

// record drives the render loop: on each tick it re-samples the playback
// position, draws the scheduled slide, and feeds the frame to the encoder.
// It returns nil when playback has ended or an early stop was requested.
func (s *Session) record(ctx context.Context, player *playback.Player) error {
	s.setProgress(StatusRecording, 0, "Recording started")

	interval := time.Second / time.Duration(s.frameRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	bitmaps := s.bitmapsSnapshot()
	duration := player.Duration()

	for {
		select {
		case <-ctx.Done():
			player.Pause()
			return nil
		case <-s.stopC:
			player.Pause()
			return nil
		case <-ticker.C:
			// Paused or ended playback means there is nothing left to
			// capture; finalize instead of spinning.
			if !player.Playing() || player.Ended() {
				return nil
			}
			elapsed := player.CurrentTime()
			idx, ok := schedule.ActiveIndex(elapsed, duration, len(bitmaps))
			if !ok {
				continue
			}
			if err := s.canvas.Draw(bitmaps[idx]); err != nil {
				return faults.Wrap(faults.Encoder, err, "frame draw failed")
			}
			if err := s.recorder.WriteFrame(s.canvas.Frame()); err != nil {
				return faults.Wrap(faults.Encoder, err, "frame capture failed")
			}
			pct := int(schedule.Fraction(elapsed, duration) * 100)
			s.setProgress(StatusRecording, pct,
				fmt.Sprintf("Mastering: %ds of %ds processed", int(elapsed), int(duration+0.5)))
		}
	}
}

// fail moves the session to its terminal Failed state. The session does not
// revert to Idle; the caller must create a fresh session to retry.
func (s *Session) fail(err error) error {
	f := faults.Wrap(faults.Encoder, err, "export failed")
	s.mu.Lock()
	s.status = StatusFailed
	s.message = f.Message
	pct := s.percent
	s.mu.Unlock()
	s.report(Progress{Status: StatusFailed, Percent: pct, Message: f.Message})
	return f
}

func (s *Session) releaseBitmaps() {
	s.mu.Lock()
	bitmaps := s.bitmaps
	s.bitmaps = nil
	s.mu.Unlock()
	for _, b := range bitmaps {
		b.Release()
	}
}

func (s *Session) bitmapsSnapshot() []*compositor.Bitmap {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*compositor.Bitmap, len(s.bitmaps))
	copy(out, s.bitmaps)
	return out
}

func (s *Session) percentNow() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.percent
}

// setProgress records status/percent/message and notifies the caller.
// Percent never decreases within a session.
func (s *Session) setProgress(status Status, percent int, message string) {
	s.mu.Lock()
	if percent < s.percent {
		percent = s.percent
	}
	s.status = status
	s.percent = percent
	s.message = message
	s.mu.Unlock()
	s.report(Progress{Status: status, Percent: percent, Message: message})
}

func (s *Session) report(p Progress) {
	if s.onProgress != nil {
		s.onProgress(p)
	}
}
