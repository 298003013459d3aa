package sqlite

import (
	"database/sql"

	"github.com/univerify/univerify/internal/config"
	"github.com/univerify/univerify/internal/repository"
)

// NewRepositories creates all SQLite repository implementations.
// The db parameter must be a valid, open database connection; Cleanup
// closes it.
func NewRepositories(cfg *config.Config, db *sql.DB) (*repository.Repositories, error) {
	if db == nil {
		return nil, repository.ErrNilDatabase
	}

	// Handle nil config gracefully for testing scenarios
	dbPath := ""
	if cfg != nil {
		dbPath = cfg.DBPath
	}

	return &repository.Repositories{
		Sessions:      NewSessionRepository(db),
		Uploads:       NewUploadRepository(db),
		Verifications: NewVerificationRepository(db),
		Health:        NewHealthRepository(db, dbPath),
		Cleanup: func() {
			db.Close()
		},
	}, nil
}
