package database

import (
	"os"
	"strings"

	"github.com/jackc/pgx"
	"github.com/pkg/errors"
)

// PostgresConnection opens a pgx connection to the PostgreSQL backend
// configured via the TASKWARD_POSTGRES environment variable
func PostgresConnection() (*pgx.Conn, error) {
	dsn := strings.TrimSpace(os.Getenv("TASKWARD_POSTGRES"))
	if dsn == "" {
		return nil, ErrEmptyDSN
	}

	cfg, err := pgx.ParseURI(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse postgres URI")
	}

	conn, err := pgx.Connect(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to postgres")
	}

	return conn, nil
}
