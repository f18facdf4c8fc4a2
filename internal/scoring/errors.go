package scoring

import (
	"errors"
	"fmt"
)

// ErrAmbiguousIntent matches every *AmbiguousIntentError via errors.Is.
var ErrAmbiguousIntent = errors.New("ambiguous intent")

// AmbiguousIntentError reports an intent that a strategy cannot classify.
type AmbiguousIntentError struct {
	Intent string
	Reason string
}

// Error describes the intent and why it could not be classified.
func (err *AmbiguousIntentError) Error() string {
	return fmt.Sprintf("ambiguous intent %q: %s", err.Intent, err.Reason)
}

// Is lets errors.Is(err, ErrAmbiguousIntent) match.
func (err *AmbiguousIntentError) Is(target error) bool {
	return target == ErrAmbiguousIntent
}
