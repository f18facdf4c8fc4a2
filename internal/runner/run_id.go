package runner

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"time"
)

// Run ids sort chronologically: a UTC timestamp followed by a random suffix.
const (
	runIDLayout      = "20060102T150405Z"
	runIDSuffixBytes = 6
)

// NewRunID returns a run id for the current time.
func NewRunID() (string, error) {
	return newRunID(time.Now(), rand.Reader)
}

func newRunID(now time.Time, random io.Reader) (string, error) {
	if random == nil {
		return "", fmt.Errorf("random reader is nil")
	}
	suffix := make([]byte, runIDSuffixBytes)
	if _, err := io.ReadFull(random, suffix); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return FormatRunID(now, hex.EncodeToString(suffix)), nil
}

// FormatRunID joins a timestamp and suffix into a run id.
func FormatRunID(now time.Time, suffix string) string {
	return now.UTC().Format(runIDLayout) + "-" + suffix
}
