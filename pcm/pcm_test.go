package pcm

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"
)

func pcm16Bytes(samples ...int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func TestDecodePCM16Normalizes(t *testing.T) {
	raw := pcm16Bytes(0, -32768, 32767, 16384)
	buf, err := DecodePCM16(raw, 24000, 1)
	if err != nil {
		t.Fatalf("DecodePCM16: %v", err)
	}
	if buf.SampleRate != 24000 || buf.Channels != 1 {
		t.Fatalf("buffer shape = %d Hz x%d, want 24000 Hz x1", buf.SampleRate, buf.Channels)
	}
	want := []float64{0, -1, 32767.0 / 32768.0, 0.5}
	if buf.FrameCount() != len(want) {
		t.Fatalf("FrameCount = %d, want %d", buf.FrameCount(), len(want))
	}
	for i, w := range want {
		if got := buf.Data[0][i]; math.Abs(got-w) > 1e-12 {
			t.Errorf("sample %d = %v, want %v", i, got, w)
		}
	}
}

func TestDecodePCM16Deinterleaves(t *testing.T) {
	// L R L R interleaving for two stereo frames.
	raw := pcm16Bytes(100, -100, 200, -200)
	buf, err := DecodePCM16(raw, 44100, 2)
	if err != nil {
		t.Fatalf("DecodePCM16: %v", err)
	}
	if buf.FrameCount() != 2 {
		t.Fatalf("FrameCount = %d, want 2", buf.FrameCount())
	}
	if buf.Data[0][0] != 100.0/32768.0 || buf.Data[0][1] != 200.0/32768.0 {
		t.Errorf("left channel = %v", buf.Data[0])
	}
	if buf.Data[1][0] != -100.0/32768.0 || buf.Data[1][1] != -200.0/32768.0 {
		t.Errorf("right channel = %v", buf.Data[1])
	}
}

func TestDecodePCM16RejectsPartialFrame(t *testing.T) {
	// 3 bytes cannot hold a whole mono 16-bit frame.
	if _, err := DecodePCM16([]byte{1, 2, 3}, 24000, 1); err == nil {
		t.Fatal("expected error for partial frame")
	}
	// 6 bytes is 1.5 stereo frames.
	if _, err := DecodePCM16(make([]byte, 6), 24000, 2); err == nil {
		t.Fatal("expected error for partial stereo frame")
	}
}

func TestDecodePCM16RejectsBadShape(t *testing.T) {
	if _, err := DecodePCM16(nil, 0, 1); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
	if _, err := DecodePCM16(nil, 24000, 0); err == nil {
		t.Fatal("expected error for zero channels")
	}
}

func TestDuration(t *testing.T) {
	buf := &Buffer{SampleRate: 24000, Channels: 1, Data: [][]float64{make([]float64, 48000)}}
	if got := buf.Duration(); got != 2.0 {
		t.Fatalf("Duration = %v, want 2.0", got)
	}
	empty := &Buffer{SampleRate: 24000, Channels: 1}
	if got := empty.Duration(); got != 0 {
		t.Fatalf("empty Duration = %v, want 0", got)
	}
}

func TestEncodeWAVHeader(t *testing.T) {
	buf := &Buffer{
		SampleRate: 24000,
		Channels:   1,
		Data:       [][]float64{{0, 0.5, -0.5}},
	}
	wav := EncodeWAV(buf)
	if len(wav) != 44+6 {
		t.Fatalf("wav length = %d, want 50", len(wav))
	}
	le := binary.LittleEndian
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Fatal("missing RIFF/WAVE magic")
	}
	if le.Uint32(wav[4:8]) != uint32(len(wav)-8) {
		t.Errorf("riff size = %d, want %d", le.Uint32(wav[4:8]), len(wav)-8)
	}
	if got := le.Uint16(wav[20:22]); got != 1 {
		t.Errorf("format tag = %d, want 1", got)
	}
	if got := le.Uint16(wav[22:24]); got != 1 {
		t.Errorf("channels = %d, want 1", got)
	}
	if got := le.Uint32(wav[24:28]); got != 24000 {
		t.Errorf("sample rate = %d, want 24000", got)
	}
	if got := le.Uint32(wav[28:32]); got != 48000 {
		t.Errorf("byte rate = %d, want 48000", got)
	}
	if got := le.Uint16(wav[32:34]); got != 2 {
		t.Errorf("block align = %d, want 2", got)
	}
	if got := le.Uint16(wav[34:36]); got != 16 {
		t.Errorf("bits = %d, want 16", got)
	}
	if string(wav[36:40]) != "data" {
		t.Fatal("missing data chunk")
	}
	if got := le.Uint32(wav[40:44]); got != 6 {
		t.Errorf("data length = %d, want 6", got)
	}
}

func TestEncodeWAVClampsOutOfRange(t *testing.T) {
	buf := &Buffer{
		SampleRate: 24000,
		Channels:   1,
		Data:       [][]float64{{2.0, -2.0}},
	}
	wav := EncodeWAV(buf)
	le := binary.LittleEndian
	if got := int16(le.Uint16(wav[44:46])); got != 0x7FFF {
		t.Errorf("clamped positive sample = %d, want %d", got, 0x7FFF)
	}
	if got := int16(le.Uint16(wav[46:48])); got != -0x8000 {
		t.Errorf("clamped negative sample = %d, want %d", got, -0x8000)
	}
}

func TestWAVRoundTrip(t *testing.T) {
	src := &Buffer{
		SampleRate: 24000,
		Channels:   2,
		Data: [][]float64{
			{0, 0.25, -0.75, 1},
			{0.5, -0.5, 0.125, -1},
		},
	}
	got, err := DecodeWAV(EncodeWAV(src))
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if got.SampleRate != src.SampleRate || got.Channels != src.Channels || got.FrameCount() != src.FrameCount() {
		t.Fatalf("round-trip shape mismatch: %d Hz x%d, %d frames", got.SampleRate, got.Channels, got.FrameCount())
	}
	// 16-bit quantization loses at most one step.
	const tol = 1.0 / 32768.0
	for ch := range src.Data {
		for i := range src.Data[ch] {
			if diff := math.Abs(got.Data[ch][i] - src.Data[ch][i]); diff > tol {
				t.Errorf("ch %d frame %d: got %v, want %v ± %v", ch, i, got.Data[ch][i], src.Data[ch][i], tol)
			}
		}
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	cases := map[string][]byte{
		"too short": make([]byte, 10),
		"bad magic": append([]byte("JUNKxxxxJUNK"), make([]byte, 40)...),
	}
	for name, data := range cases {
		if _, err := DecodeWAV(data); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}

	// A compressed format tag is refused even with valid magic.
	wav := EncodeWAV(&Buffer{SampleRate: 8000, Channels: 1, Data: [][]float64{{0}}})
	wav[20] = 3 // IEEE float tag
	_, err := DecodeWAV(wav)
	if err == nil || !strings.Contains(err.Error(), "format tag") {
		t.Errorf("expected format tag error, got %v", err)
	}
}
