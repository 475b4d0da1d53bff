package testutil

import (
	"os"
	"testing"
)

// skipContainersEnv disables every container-backed test when set.
const skipContainersEnv = "STEPFORM_SKIP_CONTAINERS"

// skipUnlessStarted skips the calling test when container tests are
// disabled or the container failed to start (typically no Docker daemon).
func skipUnlessStarted(t *testing.T, name string, err error) {
	t.Helper()
	if err != nil {
		t.Skipf("%s container unavailable: %v", name, err)
	}
}

func containersDisabled(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in -short mode")
	}
	if os.Getenv(skipContainersEnv) != "" {
		t.Skipf("%s is set", skipContainersEnv)
	}
}
