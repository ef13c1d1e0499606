// Package playback provides the narration playback clock. During export the
// player is the single time source: the slide scheduler reads its position
// and the capture pipeline encodes the same underlying buffer, which keeps
// exported audio and displayed slide in lock-step.
package playback

import (
	"sync"
	"time"

	"slidecast-studio/faults"
	"slidecast-studio/pcm"
)

// Player is a monotonic playback clock over one decoded narration buffer.
// Nothing mutates the position once recording begins; the exporter only
// reads CurrentTime and pauses at the end.
type Player struct {
	mu       sync.Mutex
	buf      *pcm.Buffer
	duration float64
	playing  bool
	closed   bool
	started  time.Time
	elapsed  float64 // accumulated seconds from completed play intervals
	now      func() time.Time
}

// NewPlayer binds a player to a decoded narration buffer.
func NewPlayer(buf *pcm.Buffer) *Player {
	p := &Player{buf: buf, now: time.Now}
	if buf != nil {
		p.duration = buf.Duration()
	}
	return p
}

// Play starts the clock. An empty narration cannot be played, and a player
// that is already running refuses a second Play the way a busy audio
// element would: a retryable playback fault, not a decode fault.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return faults.New(faults.Playback, "player is closed")
	}
	if p.duration <= 0 {
		return faults.New(faults.Validation, "narration has no playable duration")
	}
	if p.playing {
		return faults.New(faults.Playback, "narration is already playing")
	}
	if p.elapsed >= p.duration {
		return faults.New(faults.Playback, "narration already ended; create a new player")
	}
	p.playing = true
	p.started = p.now()
	return nil
}

// Pause freezes the clock at the current position.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return
	}
	p.elapsed = p.positionLocked()
	p.playing = false
}

// CurrentTime returns the playback position in seconds, clamped to the
// narration duration.
func (p *Player) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionLocked()
}

// Duration returns the narration length in seconds.
func (p *Player) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

// Playing reports whether the clock is currently advancing.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing && p.positionLocked() < p.duration
}

// Ended reports whether playback has reached the end of the narration.
func (p *Player) Ended() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration > 0 && p.positionLocked() >= p.duration
}

// Source returns the decoded buffer this player plays. The capture pipeline
// encodes this exact instance rather than re-fetching audio.
func (p *Player) Source() *pcm.Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf
}

// Close stops the clock and detaches the buffer. The player cannot be
// restarted afterwards.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing {
		p.elapsed = p.positionLocked()
		p.playing = false
	}
	p.closed = true
	p.buf = nil
}

func (p *Player) positionLocked() float64 {
	pos := p.elapsed
	if p.playing {
		pos += p.now().Sub(p.started).Seconds()
	}
	if pos > p.duration {
		pos = p.duration
	}
	return pos
}
