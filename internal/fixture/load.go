package fixture

import (
	"fmt"
	"os"
)

// Load reads a fixture file from disk and parses it.
func Load(path string, opts ...Option) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return Parse(path, string(data), opts...)
}
