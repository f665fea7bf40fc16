package mirror

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// Backend names accepted by OpenStore
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// OpenStore builds the Durable named by backend. path is the file or
// directory for the file and badger backends; db serves the sqlite backend.
func OpenStore(backend, path string, db *sql.DB, logger *zap.Logger) (Durable, error) {
	switch backend {
	case BackendFile:
		return NewFileStore(path), nil
	case BackendSQLite:
		if db == nil {
			return nil, fmt.Errorf("sqlite mirror backend requires a database")
		}
		return NewSQLiteStore(db, logger), nil
	case BackendBadger:
		return OpenBadgerStore(path)
	default:
		return nil, fmt.Errorf("unknown mirror backend: %s", backend)
	}
}
