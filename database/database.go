// Package database embeds the SQL schema migrations for each supported driver.
package database

import "embed"

// PostgresMigrations holds the golang-migrate files for PostgreSQL. The same
// DDL is also applied to SQLite in tests.
//
//go:embed migrations/postgres/*.sql
var PostgresMigrations embed.FS

// OracleMigrations holds the Oracle DDL, applied statement by statement.
//
//go:embed migrations/oracle/*.sql
var OracleMigrations embed.FS
