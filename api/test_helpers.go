package api

import (
	"testing"
	"time"

	"chorus/broadcast"
	"chorus/orchestrate"
	"chorus/provider"
	"chorus/srv/sqlite"

	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/require"
)

// newTestController builds a controller backed by an isolated in-memory
// database and offline stub providers with no pacing, making it safe for
// parallel tests.
func newTestController(t *testing.T) Controller {
	t.Helper()

	storage := sqlite.NewTestSqliteStorage(t, "api_test_"+ksuid.New().String())
	broadcaster := broadcast.NewRegistry()
	registry := provider.NewRegistryFromClients(
		provider.NewStubClientWithDelay("alpha", 0),
		provider.NewStubClientWithDelay("beta", 0),
	)
	orchestrator := orchestrate.New(storage, registry, broadcaster, orchestrate.Config{
		ProviderTimeout: 5 * time.Second,
		SynthChunkSize:  10,
	})

	allowedOrigins, err := ParseAllowedOrigins("")
	require.NoError(t, err)

	return Controller{
		service:        storage,
		orchestrator:   orchestrator,
		broadcaster:    broadcaster,
		allowedOrigins: allowedOrigins,
	}
}
