// Package pcm decodes the raw linear-PCM narration payload returned by the
// speech backend into a seekable in-memory buffer, and encodes buffers back
// into self-contained WAV files.
package pcm

import (
	"encoding/binary"
	"fmt"
)

// Buffer is a decoded audio resource: per-channel samples normalized to
// [-1.0, 1.0]. One Buffer is owned by exactly one export session at a time.
type Buffer struct {
	SampleRate int
	Channels   int
	Data       [][]float64 // Data[channel][frame]
}

// FrameCount returns the number of sample frames per channel.
func (b *Buffer) FrameCount() int {
	if len(b.Data) == 0 {
		return 0
	}
	return len(b.Data[0])
}

// Duration returns the playable length in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(b.FrameCount()) / float64(b.SampleRate)
}

// DecodePCM16 turns raw interleaved signed 16-bit little-endian PCM bytes
// into a Buffer. The byte length must be a whole multiple of channels*2;
// a trailing partial frame is an error, never silently dropped.
func DecodePCM16(data []byte, sampleRate, channels int) (*Buffer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("invalid channel count %d", channels)
	}
	frameBytes := channels * 2
	if len(data)%frameBytes != 0 {
		return nil, fmt.Errorf("pcm payload length %d is not a multiple of frame size %d", len(data), frameBytes)
	}

	frameCount := len(data) / frameBytes
	buf := &Buffer{
		SampleRate: sampleRate,
		Channels:   channels,
		Data:       make([][]float64, channels),
	}
	for ch := range buf.Data {
		buf.Data[ch] = make([]float64, frameCount)
	}

	for i := 0; i < frameCount; i++ {
		for ch := 0; ch < channels; ch++ {
			off := (i*channels + ch) * 2
			s := int16(binary.LittleEndian.Uint16(data[off : off+2]))
			buf.Data[ch][i] = float64(s) / 32768.0
		}
	}
	return buf, nil
}
