package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"spidervision-report/lib/telemetry"
)

// Setup sets up telemetry for the test, it is flushed when the test ends.
func Setup(t testing.TB, name string) {
	cleanup := telemetry.SetupForTesting(t, fmt.Sprintf("test:%s", name))
	t.Cleanup(cleanup)
}

// WriteFile writes `contents` to `name` in a fresh temporary directory and
// returns its path.
func WriteFile(t testing.TB, name, contents string) string {
	path := filepath.Join(t.TempDir(), name)
	err := os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		t.Fatal(err)
	}
	return path
}
