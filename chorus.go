package chorus

import (
	"fmt"

	"chorus/srv"
	"chorus/srv/sqlite"
)

// Version is the chorus release version, reported by the health endpoint and
// the CLI version command.
const Version = "0.1.0"

const ServiceName = "chorus"

// GetService initializes the storage backend. SQLite is the only backend for
// now; the indirection exists so callers don't bind to a concrete store.
func GetService() (srv.Storage, error) {
	storage, err := sqlite.NewStorage()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite storage: %w", err)
	}
	return storage, nil
}
