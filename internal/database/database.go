package database

import (
	"fmt"
	"strings"
	"time"

	"exam-agent/internal/logger"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver ("pgx")
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/reflectx"
	_ "github.com/sijms/go-ora/v2" // Oracle driver ("oracle")
	"go.uber.org/zap"
)

const (
	DriverPostgres = "pgx"
	DriverOracle   = "oracle"
	DriverSQLite   = "sqlite3"
)

func init() {
	// go-ora registers as "oracle", which sqlx does not map to a bind style.
	sqlx.BindDriver(DriverOracle, sqlx.NAMED)
}

// NewDB opens and pings a sqlx connection pool for driver.
func NewDB(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverPostgres, DriverOracle:
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}

	if driver == DriverOracle {
		// Oracle reports unquoted column names in upper case.
		db.Mapper = reflectx.NewMapperTagFunc("db", strings.ToUpper, strings.ToUpper)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	logger.Get().Info("Database connection established", zap.String("driver", driver))
	return db, nil
}
