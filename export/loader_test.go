package export

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"slidecast-studio/faults"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.SetRGBA(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestLoadLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slide.png")
	if err := os.WriteFile(path, pngBytes(t), 0644); err != nil {
		t.Fatal(err)
	}
	bm, err := NewSourceLoader().Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if bm.Released() {
		t.Fatal("fresh bitmap reports released")
	}
}

func TestLoadHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pngBytes(t))
	}))
	defer srv.Close()

	if _, err := NewSourceLoader().Load(context.Background(), srv.URL+"/slide.png"); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestLoadClassifiesFetchFailures(t *testing.T) {
	_, err := NewSourceLoader().Load(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	if faults.KindOf(err) != faults.Fetch {
		t.Fatalf("missing file fault kind = %v, want %v", faults.KindOf(err), faults.Fetch)
	}

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	_, err = NewSourceLoader().Load(context.Background(), srv.URL+"/slide.png")
	if faults.KindOf(err) != faults.Fetch {
		t.Fatalf("HTTP 404 fault kind = %v, want %v", faults.KindOf(err), faults.Fetch)
	}
}

func TestLoadClassifiesDecodeFailures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	if err := os.WriteFile(path, []byte("not an image at all"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := NewSourceLoader().Load(context.Background(), path)
	if faults.KindOf(err) != faults.Decode {
		t.Fatalf("fault kind = %v, want %v", faults.KindOf(err), faults.Decode)
	}
}
