package pcm

import (
	"encoding/binary"
	"fmt"
)

const wavHeaderSize = 44

// EncodeWAV renders a Buffer as a self-contained uncompressed WAV file:
// the canonical 44-byte RIFF header followed by interleaved little-endian
// 16-bit samples. Floats are clamped to [-1, 1] before narrowing.
func EncodeWAV(buf *Buffer) []byte {
	frames := buf.FrameCount()
	dataLen := frames * buf.Channels * 2
	total := wavHeaderSize + dataLen
	out := make([]byte, total)

	le := binary.LittleEndian
	copy(out[0:4], "RIFF")
	le.PutUint32(out[4:8], uint32(total-8))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	le.PutUint32(out[16:20], 16) // PCM fmt chunk size
	le.PutUint16(out[20:22], 1)  // format tag 1 = linear PCM
	le.PutUint16(out[22:24], uint16(buf.Channels))
	le.PutUint32(out[24:28], uint32(buf.SampleRate))
	le.PutUint32(out[28:32], uint32(buf.SampleRate*2*buf.Channels)) // byte rate
	le.PutUint16(out[32:34], uint16(buf.Channels*2))                // block align
	le.PutUint16(out[34:36], 16)                                    // bits per sample
	copy(out[36:40], "data")
	le.PutUint32(out[40:44], uint32(dataLen))

	pos := wavHeaderSize
	for i := 0; i < frames; i++ {
		for ch := 0; ch < buf.Channels; ch++ {
			sample := buf.Data[ch][i]
			if sample < -1 {
				sample = -1
			} else if sample > 1 {
				sample = 1
			}
			var v int16
			if sample < 0 {
				v = int16(sample * 0x8000)
			} else {
				v = int16(sample * 0x7FFF)
			}
			le.PutUint16(out[pos:pos+2], uint16(v))
			pos += 2
		}
	}
	return out
}

// DecodeWAV parses a canonical PCM WAV file produced by EncodeWAV back into
// a Buffer. Only format tag 1 with 16 bits per sample is accepted.
func DecodeWAV(data []byte) (*Buffer, error) {
	if len(data) < wavHeaderSize {
		return nil, fmt.Errorf("wav payload too short: %d bytes", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF/WAVE file")
	}
	if string(data[12:16]) != "fmt " {
		return nil, fmt.Errorf("missing fmt chunk")
	}

	le := binary.LittleEndian
	formatTag := le.Uint16(data[20:22])
	if formatTag != 1 {
		return nil, fmt.Errorf("unsupported format tag %d (want 1 = PCM)", formatTag)
	}
	bits := le.Uint16(data[34:36])
	if bits != 16 {
		return nil, fmt.Errorf("unsupported bit depth %d (want 16)", bits)
	}
	channels := int(le.Uint16(data[22:24]))
	sampleRate := int(le.Uint32(data[24:28]))

	if string(data[36:40]) != "data" {
		return nil, fmt.Errorf("missing data chunk")
	}
	dataLen := int(le.Uint32(data[40:44]))
	if wavHeaderSize+dataLen > len(data) {
		return nil, fmt.Errorf("data chunk claims %d bytes, only %d present", dataLen, len(data)-wavHeaderSize)
	}

	return DecodePCM16(data[wavHeaderSize:wavHeaderSize+dataLen], sampleRate, channels)
}
