// Package faults defines the error taxonomy shared by every pipeline stage.
// Errors raised inside a stage are wrapped into a Fault before they cross the
// export session boundary, so callers always see a {kind, message} pair.
package faults

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so the caller can pick the right remedy
// (retry, re-prompt the user, narrow the encoder config, ...).
type Kind string

const (
	Validation Kind = "validation" // bad or missing input, nothing started
	Fetch      Kind = "fetch"      // network fetch of a remote resource failed
	Decode     Kind = "decode"     // payload arrived but could not be decoded
	Playback   Kind = "playback"   // narration playback could not start or was interrupted
	Encoder    Kind = "encoder"    // capture/encode pipeline failure
	Timeout    Kind = "timeout"    // bounded polling exhausted its attempts
	Busy       Kind = "busy"       // operation rejected because a session is already active
	Canceled   Kind = "canceled"   // caller stopped the operation before it finished
)

// Fault is a classified error. Message is always human-readable.
type Fault struct {
	Kind    Kind
	Message string
	Err     error
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Fault) Unwrap() error { return f.Err }

// New creates a Fault with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Fault {
	return &Fault{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error. If err is already
// a Fault it is returned unchanged so the original classification survives.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Fault {
	var f *Fault
	if errors.As(err, &f) {
		return f
	}
	return &Fault{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf reports the kind of err, or an empty Kind for unclassified errors.
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}
