package containers

import (
	"testing"

	"github.com/testcontainers/testcontainers-go"
)

// RequireDocker skips container-backed tests under -short or when no
// container runtime is reachable.
func RequireDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
}
