// Package dbpkg provides db support functionality.
package dbpkg

import (
	"context"
	"database/sql"
)

// Setup sets up connection with database.
func Setup(driver, source string) (*sql.DB, error) {
	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, err
	}

	if err = db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

// SQLInterface provides neccessary db methods to perform queries.
//
// Both *sql.DB and *sql.Tx satisfy it, so repositories can run either
// on the pool connection or inside a caller-owned transaction.
type SQLInterface interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}
