package database

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	dbmigrations "exam-agent/database"
	"exam-agent/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// RunMigrations brings the schema up to date for driver. PostgreSQL goes
// through golang-migrate; Oracle and SQLite execute the embedded up files in
// name order.
func RunMigrations(db *sql.DB, driver string) error {
	switch driver {
	case DriverPostgres:
		return migratePostgres(db)
	case DriverOracle:
		return execMigrations(db, dbmigrations.OracleMigrations, "migrations/oracle")
	case DriverSQLite:
		return execMigrations(db, dbmigrations.PostgresMigrations, "migrations/postgres")
	default:
		return fmt.Errorf("unsupported database driver: %s", driver)
	}
}

func migratePostgres(db *sql.DB) error {
	source, err := iofs.New(dbmigrations.PostgresMigrations, "migrations/postgres")
	if err != nil {
		return fmt.Errorf("could not open migration source: %w", err)
	}
	target, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "pgx5", target)
	if err != nil {
		return fmt.Errorf("could not create migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	version, dirty, verr := m.Version()
	if verr == nil {
		logger.Get().Info("Migrations completed successfully",
			zap.Uint("version", version), zap.Bool("dirty", dirty))
	}
	return nil
}

func execMigrations(db *sql.DB, fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("could not read migrations directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}
		content, err := fs.ReadFile(fsys, dir+"/"+entry.Name())
		if err != nil {
			return fmt.Errorf("could not read migration file %s: %w", entry.Name(), err)
		}
		for _, stmt := range splitStatements(string(content)) {
			if _, err := db.Exec(stmt); err != nil {
				return fmt.Errorf("could not execute migration %s: %w", entry.Name(), err)
			}
		}
		logger.Get().Info("Executed migration", zap.String("file", entry.Name()))
	}
	return nil
}

// splitStatements breaks a script on terminating semicolons. Drivers such as
// go-ora reject multi-statement Exec calls and the trailing semicolon itself.
func splitStatements(script string) []string {
	var stmts []string
	for _, part := range strings.Split(script, ";") {
		var lines []string
		for _, line := range strings.Split(part, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "--") {
				continue
			}
			lines = append(lines, line)
		}
		if stmt := strings.TrimSpace(strings.Join(lines, "\n")); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
