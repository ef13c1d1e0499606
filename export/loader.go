package export

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"slidecast-studio/compositor"
	"slidecast-studio/faults"
)

// SourceLoader is the production BitmapLoader: slide sources are either
// local files written by the image stage or http(s) URLs. Fetch failures and
// decode failures are classified separately since the remedies differ.
type SourceLoader struct {
	client *http.Client
}

// NewSourceLoader builds a loader with the stage-standard 60s HTTP timeout.
func NewSourceLoader() *SourceLoader {
	return &SourceLoader{client: &http.Client{Timeout: 60 * time.Second}}
}

// Load fetches the slide bytes and decodes them into a bitmap.
func (l *SourceLoader) Load(ctx context.Context, src string) (*compositor.Bitmap, error) {
	data, err := l.fetch(ctx, src)
	if err != nil {
		return nil, faults.Wrap(faults.Fetch, err, "fetch slide %q", src)
	}
	bm, err := compositor.Decode(data)
	if err != nil {
		return nil, faults.Wrap(faults.Decode, err, "decode slide %q", src)
	}
	return bm, nil
}

func (l *SourceLoader) fetch(ctx context.Context, src string) ([]byte, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return os.ReadFile(src)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d fetching slide", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
