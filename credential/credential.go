// Package credential checks the backend API key precondition before any
// paid generation call. The check returns a typed result the caller handles
// up front, instead of failing somewhere inside the generation flow.
package credential

import (
	"os"
	"strings"
)

// EnvKey is the environment variable holding the generative backend key.
const EnvKey = "STUDIO_API_KEY"

// State of the credential precondition.
type State string

const (
	Ready           State = "ready"
	NeedsCredential State = "needs-credential"
	Error           State = "error"
)

// Result of one precondition check.
type Result struct {
	State  State
	Detail string
}

// Check inspects the environment for a usable API key.
func Check() Result {
	key := strings.TrimSpace(os.Getenv(EnvKey))
	if key == "" {
		return Result{State: NeedsCredential, Detail: EnvKey + " is not set"}
	}
	if strings.ContainsAny(key, " \t\n") {
		return Result{State: Error, Detail: EnvKey + " contains whitespace"}
	}
	return Result{State: Ready}
}

// Key returns the API key; only meaningful after Check reports Ready.
func Key() string {
	return strings.TrimSpace(os.Getenv(EnvKey))
}
