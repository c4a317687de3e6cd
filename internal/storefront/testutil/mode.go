package testutil

import (
	"os"
	"testing"
)

// Mode selects what a storefront test runs against.
type Mode string

const (
	ModeFixture Mode = "fixture" // synthetic pages served through the replayer
	ModeReplay  Mode = "replay"  // sanitized recordings, see LoadRecording
	ModeLive    Mode = "live"    // production storefronts
)

// CurrentMode reads E2E_TEST_MODE, defaulting to fixture.
func CurrentMode() Mode {
	if m := os.Getenv("E2E_TEST_MODE"); m != "" {
		return Mode(m)
	}
	return ModeFixture
}

// SkipUnlessMode skips the test unless E2E_TEST_MODE equals required.
func SkipUnlessMode(t *testing.T, required Mode) {
	t.Helper()
	if CurrentMode() != required {
		t.Skipf("Skipping: requires E2E_TEST_MODE=%s", required)
	}
}
