package narration

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"slidecast-studio/config"
	"slidecast-studio/credential"
	"slidecast-studio/faults"
)

func speechServer(t *testing.T, pcmBytes []byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/speech" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Text  string `json:"text"`
			Voice string `json:"voice"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Voice == "" {
			t.Error("voice not filled in")
		}
		json.NewEncoder(w).Encode(map[string]string{
			"audio": base64.StdEncoding.EncodeToString(pcmBytes),
		})
	}))
}

func testSynthesizer(baseURL string) *Synthesizer {
	cfg, _ := config.Load("does-not-exist.yaml")
	cfg.Backend.BaseURL = baseURL
	return New(cfg)
}

func TestRunDecodesSpeechPayload(t *testing.T) {
	t.Setenv(credential.EnvKey, "test-key")
	raw := make([]byte, 4)
	for i, s := range []int16{16384, -16384} {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(s))
	}
	srv := speechServer(t, raw)
	defer srv.Close()

	s := testSynthesizer(srv.URL)
	buf, err := s.Run(context.Background(), "Hello world.", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if buf.SampleRate != 24000 || buf.Channels != 1 {
		t.Fatalf("buffer shape = %d Hz x%d", buf.SampleRate, buf.Channels)
	}
	if buf.FrameCount() != 2 {
		t.Fatalf("FrameCount = %d", buf.FrameCount())
	}
	if math.Abs(buf.Data[0][0]-0.5) > 1e-12 || math.Abs(buf.Data[0][1]+0.5) > 1e-12 {
		t.Fatalf("samples = %v", buf.Data[0])
	}
}

func TestRunRejectsEmptyScript(t *testing.T) {
	s := testSynthesizer("http://unused.invalid")
	_, err := s.Run(context.Background(), "", "Zephyr")
	if faults.KindOf(err) != faults.Validation {
		t.Fatalf("fault kind = %v, want %v", faults.KindOf(err), faults.Validation)
	}
}

func TestRunMalformedPayloadIsDecodeFault(t *testing.T) {
	t.Setenv(credential.EnvKey, "test-key")
	// 3 bytes is a torn 16-bit frame; decoding must fail without retrying.
	srv := speechServer(t, []byte{1, 2, 3})
	defer srv.Close()

	s := testSynthesizer(srv.URL)
	_, err := s.Run(context.Background(), "Hello.", "Zephyr")
	if faults.KindOf(err) != faults.Decode {
		t.Fatalf("fault kind = %v, want %v", faults.KindOf(err), faults.Decode)
	}
}
