package database

import (
	"fmt"
	"hospitalintake/cmd/internal/config"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/gommon/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Connector hands out short-lived database handles. Every handle returned by
// Open owns a single connection and must be released with Close.
type Connector interface {
	// Open connects to the database server. An empty database name connects
	// without selecting a schema.
	Open(database string) (*gorm.DB, error)

	// CreateDatabase creates the named database unless it already exists.
	CreateDatabase(db *gorm.DB, name string) error
}

func NewConnector(cfg *config.Config) (Connector, error) {
	level := gormLogLevel(cfg.Log.Level)

	switch cfg.Database.Driver {
	case config.DriverMySQL:
		return NewMySQLConnector(&cfg.Database, level), nil
	case config.DriverSQLite:
		return NewSQLiteConnector(cfg.Database.SQLiteDir, level), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
}

// Close releases the connection held by db.
func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Warnf("failed to reach database connection for closing: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warnf("failed to close database connection: %v", err)
	}
}

type MySQLConnector struct {
	cfg      *config.DatabaseConfig
	logLevel logger.LogLevel
}

func NewMySQLConnector(cfg *config.DatabaseConfig, logLevel logger.LogLevel) *MySQLConnector {
	return &MySQLConnector{cfg: cfg, logLevel: logLevel}
}

func (m *MySQLConnector) Open(database string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(m.cfg.DSN(database)), newGormConfig(m.logLevel))
	if err != nil {
		return nil, err
	}
	return singleConn(db)
}

func (m *MySQLConnector) CreateDatabase(db *gorm.DB, name string) error {
	return db.Exec("CREATE DATABASE IF NOT EXISTS ?", clause.Table{Name: name}).Error
}

// SQLiteConnector keeps each database in its own file under dir. It backs
// local development and the test suite.
type SQLiteConnector struct {
	dir      string
	logLevel logger.LogLevel
}

func NewSQLiteConnector(dir string, logLevel logger.LogLevel) *SQLiteConnector {
	return &SQLiteConnector{dir: dir, logLevel: logLevel}
}

func (s *SQLiteConnector) Open(database string) (*gorm.DB, error) {
	dsn := ":memory:"
	if database != "" {
		dsn = s.Path(database) + "?_busy_timeout=5000"
	}

	db, err := gorm.Open(sqlite.Open(dsn), newGormConfig(s.logLevel))
	if err != nil {
		return nil, err
	}
	return singleConn(db)
}

// CreateDatabase only prepares the directory; sqlite creates the file on first open.
func (s *SQLiteConnector) CreateDatabase(_ *gorm.DB, _ string) error {
	return os.MkdirAll(s.dir, 0o755)
}

func (s *SQLiteConnector) Path(database string) string {
	return filepath.Join(s.dir, database+".db")
}

func singleConn(db *gorm.DB) (*gorm.DB, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

func newGormConfig(level logger.LogLevel) *gorm.Config {
	return &gorm.Config{
		Logger: logger.Default.LogMode(level),
	}
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug":
		return logger.Info
	case "error":
		return logger.Error
	default:
		return logger.Warn
	}
}
