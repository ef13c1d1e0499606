package publish

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"slidecast-studio/capture"
	"slidecast-studio/config"
	"slidecast-studio/faults"
	"slidecast-studio/types"
)

func testPublisher(t *testing.T) *Publisher {
	t.Helper()
	cfg, _ := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	cfg.Paths.Logs = t.TempDir()
	p := New(cfg)
	p.sleep = func(time.Duration) {}
	return p
}

func testBlob() *capture.Blob {
	return &capture.Blob{Data: []byte("master"), MimeType: "video/webm"}
}

func TestRunWalksScriptedStages(t *testing.T) {
	p := testPublisher(t)
	var percents []int
	rel, err := p.Run(context.Background(), testBlob(), types.VideoMetadata{Title: "Ep 1"}, "Drama Bites", func(pct int, status string) {
		percents = append(percents, pct)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []int{15, 40, 70, 90, 100}
	if len(percents) != len(want) {
		t.Fatalf("progress steps = %v, want %v", percents, want)
	}
	for i := range want {
		if percents[i] != want[i] {
			t.Fatalf("progress steps = %v, want %v", percents, want)
		}
	}
	if rel.Channel != "Drama Bites" || rel.Title != "Ep 1" || rel.SizeBytes != 6 {
		t.Fatalf("release = %+v", rel)
	}
	if rel.MimeType != "video/webm" {
		t.Fatalf("mime = %q", rel.MimeType)
	}
}

func TestRunDefaultsChannel(t *testing.T) {
	p := testPublisher(t)
	rel, err := p.Run(context.Background(), testBlob(), types.VideoMetadata{Title: "x"}, "", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rel.Channel != p.cfg.Publish.DefaultChannel {
		t.Fatalf("channel = %q, want the default %q", rel.Channel, p.cfg.Publish.DefaultChannel)
	}
}

func TestRunRejectsBadInput(t *testing.T) {
	p := testPublisher(t)
	_, err := p.Run(context.Background(), nil, types.VideoMetadata{}, "", nil)
	if faults.KindOf(err) != faults.Validation {
		t.Fatalf("nil blob fault kind = %v", faults.KindOf(err))
	}
	_, err = p.Run(context.Background(), &capture.Blob{}, types.VideoMetadata{}, "", nil)
	if faults.KindOf(err) != faults.Validation {
		t.Fatalf("empty blob fault kind = %v", faults.KindOf(err))
	}
	_, err = p.Run(context.Background(), testBlob(), types.VideoMetadata{}, "Channel That Does Not Exist", nil)
	if faults.KindOf(err) != faults.Validation {
		t.Fatalf("unknown channel fault kind = %v", faults.KindOf(err))
	}
}

func TestRunHonorsCancel(t *testing.T) {
	p := testPublisher(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Run(ctx, testBlob(), types.VideoMetadata{Title: "x"}, "", nil)
	if faults.KindOf(err) != faults.Canceled {
		t.Fatalf("fault kind = %v, want %v", faults.KindOf(err), faults.Canceled)
	}
}
