package history

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"editbench/internal/report"
)

// VerdictsKey returns a SHA-256 digest of the verdicts. Two runs of a
// deterministic engine over the same fixture share a key.
func VerdictsKey(verdicts []report.Verdict) (string, error) {
	if verdicts == nil {
		verdicts = []report.Verdict{}
	}
	data, err := json.Marshal(verdicts)
	if err != nil {
		return "", fmt.Errorf("marshal verdicts: %w", err)
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}
