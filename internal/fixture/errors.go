package fixture

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedFixture matches every *MalformedFixtureError via errors.Is.
var ErrMalformedFixture = errors.New("malformed fixture")

// Issue describes one problem found while parsing a fixture.
type Issue struct {
	Line    int
	Message string
}

// MalformedFixtureError reports a fixture that cannot produce test cases.
type MalformedFixtureError struct {
	Path   string
	Issues []Issue
}

// Error renders all issues on a single line.
func (err *MalformedFixtureError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return ErrMalformedFixture.Error()
	}
	parts := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		if issue.Line > 0 {
			parts = append(parts, fmt.Sprintf("line %d: %s", issue.Line, issue.Message))
		} else {
			parts = append(parts, issue.Message)
		}
	}
	name := err.Path
	if name == "" {
		name = "<input>"
	}
	return fmt.Sprintf("%s %s: %s", ErrMalformedFixture, name, strings.Join(parts, "; "))
}

// Is lets errors.Is(err, ErrMalformedFixture) match.
func (err *MalformedFixtureError) Is(target error) bool {
	return target == ErrMalformedFixture
}

type issueCollector struct {
	issues []Issue
}

func (collector *issueCollector) add(line int, message string) {
	collector.issues = append(collector.issues, Issue{Line: line, Message: message})
}

func (collector *issueCollector) result(path string) error {
	if len(collector.issues) == 0 {
		return nil
	}
	return &MalformedFixtureError{Path: path, Issues: collector.issues}
}
