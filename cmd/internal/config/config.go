package config

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"

	defaultMySQLPort = 3306
)

var (
	ErrMissingHost         = errors.New("DB_HOST is required")
	ErrInvalidDatabaseName = errors.New("DB_NAME must only contain letters, digits, '_' or '$'")
)

// Database names end up inside DDL, where they cannot be bound as parameters.
var databaseNamePattern = regexp.MustCompile(`^[A-Za-z0-9_$]{1,64}$`)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
	API      APIConfig

	// Strict refuses to start when DB_HOST is absent instead of assuming localhost.
	Strict bool
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	Driver         string
	Host           string
	Port           int // 0 selects the driver default
	User           string
	Password       string
	Name           string
	SQLiteDir      string
	ConnectTimeout time.Duration
}

type LogConfig struct {
	Level string
}

type APIConfig struct {
	HideErrorDetail bool
}

// Load builds the configuration from the process environment. Call godotenv
// beforehand if a .env file should be taken into account.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_PORT", "8000")
	v.SetDefault("APP_STRICT_CONFIG", false)
	v.SetDefault("DB_DRIVER", DriverMySQL)
	v.SetDefault("DB_USER", "root")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "hospital")
	v.SetDefault("DB_SQLITE_DIR", "data")
	v.SetDefault("DB_CONNECT_TIMEOUT", "5s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("API_HIDE_ERROR_DETAIL", false)

	cfg := &Config{
		Strict: v.GetBool("APP_STRICT_CONFIG"),
		Server: ServerConfig{
			Host: v.GetString("APP_HOST"),
		},
		Database: DatabaseConfig{
			Driver:         strings.ToLower(strings.TrimSpace(v.GetString("DB_DRIVER"))),
			Host:           strings.TrimSpace(v.GetString("DB_HOST")),
			User:           v.GetString("DB_USER"),
			Password:       v.GetString("DB_PASSWORD"),
			Name:           strings.TrimSpace(v.GetString("DB_NAME")),
			SQLiteDir:      v.GetString("DB_SQLITE_DIR"),
			ConnectTimeout: v.GetDuration("DB_CONNECT_TIMEOUT"),
		},
		Log: LogConfig{
			Level: strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL"))),
		},
		API: APIConfig{
			HideErrorDetail: v.GetBool("API_HIDE_ERROR_DETAIL"),
		},
	}

	var err error
	if cfg.Server.Port, err = parsePort(v, "APP_PORT"); err != nil {
		return nil, err
	}
	if cfg.Database.Port, err = parsePort(v, "DB_PORT"); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverMySQL:
		if c.Database.Host == "" {
			if c.Strict {
				return ErrMissingHost
			}
			c.Database.Host = "localhost"
		}
	case DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (expected %q or %q)", c.Database.Driver, DriverMySQL, DriverSQLite)
	}

	if !databaseNamePattern.MatchString(c.Database.Name) {
		return fmt.Errorf("%w: %q", ErrInvalidDatabaseName, c.Database.Name)
	}

	if c.Database.ConnectTimeout <= 0 {
		return errors.New("DB_CONNECT_TIMEOUT must be a positive duration such as 5s")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported LOG_LEVEL %q", c.Log.Level)
	}
	return nil
}

// Addr is the HTTP listen address.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Addr is the database server address, falling back to the MySQL default port.
func (c *DatabaseConfig) Addr() string {
	port := c.Port
	if port == 0 {
		port = defaultMySQLPort
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

// DSN returns a MySQL data source name. An empty database connects to the
// server without selecting a schema.
func (c *DatabaseConfig) DSN(database string) string {
	dsn := mysqldriver.NewConfig()
	dsn.User = c.User
	dsn.Passwd = c.Password
	dsn.Net = "tcp"
	dsn.Addr = c.Addr()
	dsn.DBName = database
	dsn.Timeout = c.ConnectTimeout
	dsn.ParseTime = true
	dsn.Params = map[string]string{"charset": "utf8mb4"}
	return dsn.FormatDSN()
}

func parsePort(v *viper.Viper, key string) (int, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, nil
	}

	port, err := strconv.Atoi(raw)
	if err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("invalid %s %q: expected a port number", key, raw)
	}
	return port, nil
}
