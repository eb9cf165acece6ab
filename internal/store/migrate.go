package store

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations applies all pending migrations from dir against the
// database at databaseURL. A database already at the latest version is not
// an error.
func RunMigrations(databaseURL, dir string) error {
	m, err := migrate.New("file://"+dir, "pgx5://"+trimScheme(databaseURL))
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// trimScheme strips a postgres:// or postgresql:// prefix so the URL can be
// re-anchored under the migrate pgx5 driver scheme.
func trimScheme(url string) string {
	for _, prefix := range []string{"postgres://", "postgresql://", "pgx5://"} {
		if len(url) > len(prefix) && url[:len(prefix)] == prefix {
			return url[len(prefix):]
		}
	}
	return url
}
