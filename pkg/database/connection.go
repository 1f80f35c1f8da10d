package database

import (
	"os"
	"strings"

	"github.com/gocraft/dbr/v2"
	"github.com/pkg/errors"

	_ "github.com/go-sql-driver/mysql"
)

// errors
var (
	ErrEmptyDSN     = errors.New("database DSN is empty")
	ErrEmptyTestDSN = errors.New("test database DSN is empty")
)

// MySQLConnection opens a dbr connection to the MySQL backend
// configured via the TASKWARD_DATABASE environment variable
func MySQLConnection() (*dbr.Connection, error) {
	dsn := strings.TrimSpace(os.Getenv("TASKWARD_DATABASE"))
	if dsn == "" {
		return nil, ErrEmptyDSN
	}

	conn, err := dbr.Open("mysql", dsn, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open mysql connection")
	}

	return conn, nil
}

// ForTesting opens a dbr connection to the dedicated test database;
// tests that need a live backend must skip when it is not configured
func ForTesting() (*dbr.Connection, error) {
	dsn := strings.TrimSpace(os.Getenv("TASKWARD_TEST_DATABASE"))
	if dsn == "" {
		return nil, ErrEmptyTestDSN
	}

	conn, err := dbr.Open("mysql", dsn, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open mysql test connection")
	}

	return conn, nil
}
