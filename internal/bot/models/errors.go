package models

import "errors"

// Backend call failure kinds. The Overseerr client classifies every failed
// call as exactly one of these so callers can decide between re-prompting
// credentials and asking the user to retry the same step.
var (
	ErrBadCredentials   = errors.New("backend rejected credentials")
	ErrTransientBackend = errors.New("backend temporarily unavailable")
)
