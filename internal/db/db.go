// internal/db/db.go
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/config"
	"github.com/ObiwanKenobee/ethical-journey-platform-2-sub005/internal/models"

	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

var DB *sql.DB

func RunMigrations(dbConn *sql.DB, dbName string) error {
	driverInstance, err := mysql.WithInstance(dbConn, &mysql.Config{
		DatabaseName: dbName,
	})
	if err != nil {
		return fmt.Errorf("creating mysql migration driver: %w", err)
	}

	// Resolve the migrations directory relative to this file so migrations run
	// regardless of the process working directory.
	_, currentFilePath, _, ok := runtime.Caller(0)
	if !ok {
		return fmt.Errorf("could not resolve current file path for migrations")
	}
	projectRoot := filepath.Join(filepath.Dir(currentFilePath), "..", "..")
	migrationsURL := "file://" + filepath.Join(projectRoot, "migrations")

	m, err := migrate.NewWithDatabaseInstance(migrationsURL, "mysql", driverInstance)
	if err != nil {
		return fmt.Errorf("creating migrate instance (check path '%s'): %w", migrationsURL, err)
	}

	slog.Info("Applying migrations", "path", migrationsURL)
	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		version, dirty, verr := m.Version()
		if verr == nil {
			slog.Error("Migration failed", "current_version", version, "dirty_state", dirty, "error", err)
		}
		return fmt.Errorf("applying migrations: %w", err)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		slog.Info("Migrations: no changes.")
	} else {
		slog.Info("Migrations applied.")
	}
	return nil
}

func InitDB(appConfig *config.Config) error {
	var err error
	var dsn string

	dbCfg := appConfig.Database

	// clientFoundRows makes RowsAffected count matched rows rather than
	// changed rows, so an idempotent re-verification of an already-terminal
	// transaction is not mistaken for a missing row.
	const dsnParams = "parseTime=true&charset=utf8mb4&multiStatements=true&clientFoundRows=true"

	if dbCfg.DSN != "" {
		dsn = dbCfg.DSN
		for _, p := range strings.Split(dsnParams, "&") {
			if !strings.Contains(dsn, strings.SplitN(p, "=", 2)[0]) {
				if strings.Contains(dsn, "?") {
					dsn += "&" + p
				} else {
					dsn += "?" + p
				}
			}
		}
		slog.Info("Using DATABASE_DSN for MySQL connection")
	} else if dbCfg.Host != "" && dbCfg.User != "" && dbCfg.DBName != "" {
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
			dbCfg.User,
			dbCfg.Password,
			dbCfg.Host,
			dbCfg.Port,
			dbCfg.DBName,
			dsnParams,
		)
		slog.Info("Building MySQL DSN from components")
	} else {
		return fmt.Errorf("insufficient MySQL connection parameters: DSN or Host+User+DBName required")
	}

	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("opening MySQL connection: %w", err)
	}

	DB.SetConnMaxLifetime(time.Minute * 3)
	DB.SetMaxOpenConns(10)
	DB.SetMaxIdleConns(10)

	if err = DB.Ping(); err != nil {
		openedDB := DB
		if openedDB != nil {
			_ = openedDB.Close()
		}
		return fmt.Errorf("connecting to MySQL (ping failed): %w", err)
	}
	slog.Info("Connected to MySQL.")

	if err = RunMigrations(DB, dbCfg.DBName); err != nil {
		if DB != nil {
			_ = DB.Close()
		}
		return fmt.Errorf("running migrations: %w", err)
	}

	// Session storage for scs/mysqlstore.
	createTableSQL := `CREATE TABLE IF NOT EXISTS sessions (
		token CHAR(43) PRIMARY KEY,
		data BLOB NOT NULL,
		expiry TIMESTAMP(6) NOT NULL
	);`
	createIndexSQL := `CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions (expiry);`

	if _, errTable := DB.Exec(createTableSQL); errTable != nil {
		slog.Error("Could not create 'sessions' table", "error", errTable)
	} else {
		if _, errIndex := DB.Exec(createIndexSQL); errIndex != nil {
			slog.Warn("Could not create 'sessions_expiry_idx' index", "error", errIndex)
		}
	}

	defaultRoles := []models.Role{
		{Name: models.RoleUser, Description: "Default user role"},
		{Name: models.RoleAdmin, Description: "Administrator with full access"},
		{Name: models.RoleAuditor, Description: "Read-only access to compliance records"},
		{Name: models.RoleCompliance, Description: "Compliance officer with workspace access"},
	}
	for _, r := range defaultRoles {
		if _, errRole := CreateRoleIfNotExists(&r); errRole != nil {
			slog.Warn("Could not seed default role", "role_name", r.Name, "error", errRole)
		}
	}

	slog.Info("Database initialized (migrations and seed data applied).")
	return nil
}
