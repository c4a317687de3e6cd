package testutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func recordingDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "testdata", "recordings")
}

// RecordingPath returns where the sanitized recording of scenario on site
// lives: testdata/recordings/<site>/<scenario>.har.json.
func RecordingPath(site, scenario string) string {
	return filepath.Join(recordingDir(), site, scenario+".har.json")
}

// LoadRecording loads a recorded storefront session for replay. The test is
// skipped unless E2E_TEST_MODE=replay, and when nothing was recorded for
// site and scenario.
func LoadRecording(t *testing.T, site, scenario string) *HARLog {
	t.Helper()
	SkipUnlessMode(t, ModeReplay)

	path := RecordingPath(site, scenario)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		t.Skipf("no recording at %s", path)
	}
	return MustLoadHAR(t, path)
}

// FirstURL returns the first recorded GET whose URL contains substr.
func (h *HARLog) FirstURL(substr string) (string, bool) {
	for _, e := range h.Entries {
		if e.Request.Method != "" && e.Request.Method != "GET" {
			continue
		}
		if strings.Contains(e.Request.URL, substr) {
			return e.Request.URL, true
		}
	}
	return "", false
}
