// Package capture encodes the compositor surface plus the narration track
// into a single downloadable container. Raw RGBA frames stream into ffmpeg
// over a pipe at the configured frame rate; encoder output streams back and
// is accumulated as ordered chunks until finalize.
package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"sync"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"slidecast-studio/pcm"
)

// Blob is the finalized container. It is immutable and only valid once
// Stop has returned.
type Blob struct {
	Data     []byte
	MimeType string
}

// Config sizes the encode. FrameRate and VideoBitrate come from the
// caller-selected quality profile.
type Config struct {
	Width        int
	Height       int
	FrameRate    int
	VideoBitrate int
	Format       Format
	TempDir      string // scratch space for the narration WAV; "" uses the OS default
}

type pipelineState int

const (
	stateIdle pipelineState = iota
	stateRecording
	stateStopped
)

// Pipeline is a single-use encoder session. Start once, write frames from
// one goroutine, Stop to flush and collect the blob.
type Pipeline struct {
	cfg Config

	mu        sync.Mutex
	state     pipelineState
	frames    io.WriteCloser
	sink      *chunkSink
	stderr    lockedBuffer
	waitErr   chan error
	audioPath string
	frameLen  int
}

// NewPipeline creates an encoder session for one export.
func NewPipeline(cfg Config) *Pipeline {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 1920, 1080
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = 30
	}
	return &Pipeline{cfg: cfg, frameLen: cfg.Width * cfg.Height * 4}
}

// Start materializes the narration buffer as a WAV scratch file (the same
// decoded instance that drives the playback clock; audio is never
// re-fetched for export) and launches the streaming encoder.
func (p *Pipeline) Start(ctx context.Context, audio *pcm.Buffer) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != stateIdle {
		return fmt.Errorf("capture pipeline already started")
	}
	if audio == nil || audio.Duration() <= 0 {
		return fmt.Errorf("capture pipeline needs a non-empty narration track")
	}

	tmp, err := os.CreateTemp(p.cfg.TempDir, "narration_*.wav")
	if err != nil {
		return fmt.Errorf("create narration scratch file: %w", err)
	}
	if _, err := tmp.Write(pcm.EncodeWAV(audio)); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write narration scratch file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close narration scratch file: %w", err)
	}
	p.audioPath = tmp.Name()

	pr, pw := io.Pipe()
	p.frames = pw
	p.sink = &chunkSink{}

	video := ffmpeg.Input("pipe:0", ffmpeg.KwArgs{
		"f":          "rawvideo",
		"pix_fmt":    "rgba",
		"video_size": fmt.Sprintf("%dx%d", p.cfg.Width, p.cfg.Height),
		"framerate":  p.cfg.FrameRate,
	})
	narration := ffmpeg.Input(p.audioPath)

	outArgs := ffmpeg.KwArgs{
		"f":       p.cfg.Format.Container,
		"pix_fmt": "yuv420p",
		"t":       fmt.Sprintf("%.3f", audio.Duration()),
	}
	if p.cfg.Format.VideoCodec != "" {
		outArgs["c:v"] = p.cfg.Format.VideoCodec
	}
	if p.cfg.Format.AudioCodec != "" {
		outArgs["c:a"] = p.cfg.Format.AudioCodec
	}
	if p.cfg.VideoBitrate > 0 {
		outArgs["b:v"] = p.cfg.VideoBitrate
	}

	cmd := ffmpeg.Output([]*ffmpeg.Stream{video, narration}, "pipe:1", outArgs).
		OverWriteOutput().
		WithInput(pr).
		WithOutput(p.sink, &p.stderr).
		Compile()

	if err := cmd.Start(); err != nil {
		p.cleanupLocked()
		return fmt.Errorf("start encoder: %w", err)
	}

	p.waitErr = make(chan error, 1)
	go func() {
		p.waitErr <- cmd.Wait()
		// Unblock a writer stuck on a dead encoder.
		pr.CloseWithError(io.ErrClosedPipe)
	}()

	p.state = stateRecording
	return nil
}

// WriteFrame feeds one RGBA frame to the encoder. Frames must arrive in
// non-decreasing playback-time order; the pipe preserves delivery order.
func (p *Pipeline) WriteFrame(frame *image.RGBA) error {
	p.mu.Lock()
	if p.state != stateRecording {
		p.mu.Unlock()
		return fmt.Errorf("capture pipeline is not recording")
	}
	w := p.frames
	p.mu.Unlock()

	if len(frame.Pix) != p.frameLen {
		return fmt.Errorf("frame is %d bytes, expected %d", len(frame.Pix), p.frameLen)
	}
	if _, err := w.Write(frame.Pix); err != nil {
		return fmt.Errorf("write frame: %w (%s)", err, p.stderr.tail())
	}
	return nil
}

// Stop closes the frame stream, waits for the encoder to flush, and
// concatenates the collected chunks into the final blob.
func (p *Pipeline) Stop() (*Blob, error) {
	p.mu.Lock()
	if p.state != stateRecording {
		p.mu.Unlock()
		return nil, fmt.Errorf("capture pipeline is not recording")
	}
	p.state = stateStopped
	frames := p.frames
	waitErr := p.waitErr
	p.mu.Unlock()

	frames.Close()
	err := <-waitErr

	p.mu.Lock()
	defer p.mu.Unlock()
	p.cleanupLocked()

	if err != nil {
		return nil, fmt.Errorf("encoder exited with error: %w (%s)", err, p.stderr.tail())
	}
	data := p.sink.assemble()
	if len(data) == 0 {
		return nil, fmt.Errorf("encoder produced no output (%s)", p.stderr.tail())
	}
	return &Blob{Data: data, MimeType: p.cfg.Format.MimeType}, nil
}

func (p *Pipeline) cleanupLocked() {
	if p.audioPath != "" {
		os.Remove(p.audioPath)
		p.audioPath = ""
	}
}

// lockedBuffer collects encoder stderr. The exec copier writes it from its
// own goroutine while WriteFrame error paths read the tail, so both sides
// take the lock.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// tail returns the trimmed last stretch of the log, where ffmpeg puts the
// actual failure reason.
func (b *lockedBuffer) tail() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := bytes.TrimSpace(b.buf.Bytes())
	const max = 400
	if len(s) > max {
		s = s[len(s)-max:]
	}
	return string(s)
}

// chunkSink accumulates encoder output chunks in delivery order. Chunks are
// never reordered or deduplicated; zero-length writes are discarded.
type chunkSink struct {
	mu     sync.Mutex
	chunks [][]byte
}

func (s *chunkSink) Write(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	s.mu.Lock()
	s.chunks = append(s.chunks, cp)
	s.mu.Unlock()
	return len(b), nil
}

func (s *chunkSink) assemble() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int
	for _, c := range s.chunks {
		total += len(c)
	}
	out := make([]byte, 0, total)
	for _, c := range s.chunks {
		out = append(out, c...)
	}
	return out
}
