package db

import (
	"github.com/pkg/errors"

	"github.com/askdoc/askdoc/internal/profile"
	"github.com/askdoc/askdoc/store"
	"github.com/askdoc/askdoc/store/db/postgres"
	"github.com/askdoc/askdoc/store/db/sqlite"
)

// NewDBDriver creates new db driver based on profile.
//
// SQLite is the default single-node setup: embeddings stored as BLOBs,
// write serialization via the database's single-writer lock.
// PostgreSQL is for multi-process deployments: embeddings stored in a
// pgvector column, write serialization via row locks.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver %q: only 'sqlite' and 'postgres' are supported", profile.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
