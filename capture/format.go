package capture

import (
	"os/exec"
	"strings"
)

// Format describes one encodable container/codec pairing.
type Format struct {
	Container  string // ffmpeg muxer name
	VideoCodec string // empty means the container default
	AudioCodec string
	MimeType   string
}

// preferredFormat is the modern open pairing; fallbackFormat is the generic
// container with whatever default codecs the runtime ships.
var (
	preferredFormat = Format{
		Container:  "webm",
		VideoCodec: "libvpx-vp9",
		AudioCodec: "libopus",
		MimeType:   "video/webm;codecs=vp9,opus",
	}
	fallbackFormat = Format{
		Container: "webm",
		MimeType:  "video/webm",
	}
)

// SelectFormat probes the installed ffmpeg for the preferred codec pairing
// and falls back to the generic container when either encoder is missing.
func SelectFormat() Format {
	out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").Output()
	if err != nil {
		// No usable probe; the preferred pairing will surface a clear
		// encoder error at Start if it is truly unavailable.
		return preferredFormat
	}
	return chooseFormat(string(out))
}

// chooseFormat picks a format from an `ffmpeg -encoders` listing.
func chooseFormat(encoders string) Format {
	if strings.Contains(encoders, preferredFormat.VideoCodec) &&
		strings.Contains(encoders, preferredFormat.AudioCodec) {
		return preferredFormat
	}
	return fallbackFormat
}

// Extension returns the file extension for the container.
func (f Format) Extension() string {
	switch f.Container {
	case "webm":
		return ".webm"
	case "matroska":
		return ".mkv"
	default:
		return "." + f.Container
	}
}
