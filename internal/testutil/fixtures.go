package testutil

import (
	"path/filepath"
	"runtime"
	"testing"
)

// ExampleFixture returns the absolute path of the bundled Java fixture with
// eight markers.
func ExampleFixture(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("locate testutil source")
	}
	return filepath.Join(filepath.Dir(file), "..", "fixture", "testdata", "ExampleCode.java")
}
