package repository

import "database/sql"

// Querier is satisfied by both *sql.DB and *sql.Tx so repositories work
// unchanged inside the scan runner's batched transactions.
type Querier interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}
