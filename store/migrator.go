package store

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
)

// The migration system is deliberately small: a fresh database gets the full
// LATEST.sql schema for its driver, an initialized one is left alone.
// Incremental migrations can slot in next to LATEST.sql when the schema
// starts evolving.

//go:embed migration
var migrationFS embed.FS

// LatestSchemaFileName is the full schema applied to new installations.
const LatestSchemaFileName = "LATEST.sql"

// Migrate initializes the database schema if needed.
func (s *Store) Migrate(ctx context.Context) error {
	initialized, err := s.driver.IsInitialized(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check database state")
	}
	if initialized {
		return nil
	}

	filePath := fmt.Sprintf("migration/%s/%s", s.profile.Driver, LatestSchemaFileName)
	buf, err := migrationFS.ReadFile(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to read latest schema %q", filePath)
	}

	if _, err := s.driver.GetDB().ExecContext(ctx, string(buf)); err != nil {
		return errors.Wrap(err, "failed to apply latest schema")
	}

	slog.Info("database initialized", "driver", s.profile.Driver)
	return nil
}
