package config

import (
	"errors"
	"strings"
)

var (
	// ErrConfigNotFound reports that no config file exists above a directory.
	ErrConfigNotFound = errors.New("config not found")
	// ErrInvalidConfig matches every *ValidationError under errors.Is.
	ErrInvalidConfig = errors.New("invalid config")
)

// Issue is one problem with a config field.
type Issue struct {
	Field   string
	Message string
}

func (i Issue) String() string {
	return i.Field + ": " + i.Message
}

// ValidationError lists every issue found in a config, one per line.
type ValidationError struct {
	Issues []Issue
}

func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return ErrInvalidConfig.Error()
	}
	var b strings.Builder
	for i, issue := range err.Issues {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(issue.String())
	}
	return b.String()
}

func (err *ValidationError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// issueAdder records an issue against a field.
type issueAdder func(field, message string)

type issueList []Issue

func (l *issueList) add(field, message string) {
	*l = append(*l, Issue{Field: field, Message: message})
}

func (l issueList) err() error {
	if len(l) == 0 {
		return nil
	}
	return &ValidationError{Issues: l}
}
