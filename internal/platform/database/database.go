package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"vgp_platform/internal/platform/config"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var DB *sql.DB

// Connect opens the configured database into DB and applies the schema.
func Connect() {
	var err error
	driver := config.AppConfig.DBDriver
	dsn := config.AppConfig.DBConnStr
	if driver == DriverSQLite {
		dsn = config.AppConfig.SQLitePath
	}

	DB, err = Open(context.Background(), driver, dsn)
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}
	fmt.Printf("Successfully connected to %s database!\n", driver)
}

// Open connects, verifies the connection and ensures the schema exists.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	var sqlDriver string
	switch driver {
	case DriverPostgres:
		sqlDriver = "pgx"
	case DriverSQLite:
		sqlDriver = "sqlite"
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		// One writer at a time; the pool would otherwise see SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	if err := Migrate(ctx, db, driver); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates missing tables and indexes. It is safe to run repeatedly.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	schema := postgresSchema
	if driver == DriverSQLite {
		schema = sqliteSchema
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply %s schema: %w", driver, err)
	}
	return nil
}

func Close() {
	if DB != nil {
		DB.Close()
		fmt.Println("Database connection closed.")
	}
}
