package cli

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/pthm/vantage/pkg/expr"
)

const (
	maxWalkDepth = 25
)

// Supported database drivers.
const (
	// DriverPgx uses a native pgx connection pool.
	DriverPgx = "pgx"
	// DriverPgxStdlib uses pgx through database/sql.
	DriverPgxStdlib = "pgx-stdlib"
	// DriverPostgres uses lib/pq through database/sql.
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// AppFs is the filesystem used for model and .env lookups.
var AppFs = afero.NewOsFs()

// Config represents the vantage configuration from vantage.yaml.
type Config struct {
	// Model is the path to the YAML table definitions.
	Model string `mapstructure:"model" json:"model"`

	Database DatabaseConfig `mapstructure:"database" json:"database"`
	Render   RenderConfig   `mapstructure:"render" json:"render"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver" json:"driver"`
	URL      string `mapstructure:"url" json:"url"`
	Host     string `mapstructure:"host" json:"host"`
	Port     int    `mapstructure:"port" json:"port"`
	Name     string `mapstructure:"name" json:"name"`
	User     string `mapstructure:"user" json:"user"`
	Password string `mapstructure:"password" json:"password"`
	SSLMode  string `mapstructure:"sslmode" json:"sslmode"`
}

// RenderConfig holds settings for the render command.
type RenderConfig struct {
	// Placeholder overrides the driver's parameter marker style.
	Placeholder string `mapstructure:"placeholder" json:"placeholder"`
	// Preview prints statements with parameters inlined.
	Preview bool `mapstructure:"preview" json:"preview"`
}

// LoadDotEnv loads .env, then .env.local over it, from the working
// directory. Missing files are ignored.
func LoadDotEnv() error {
	if _, err := AppFs.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return fmt.Errorf("loading .env: %w", err)
		}
	}
	if _, err := AppFs.Stat(".env.local"); err == nil {
		if err := godotenv.Overload(".env.local"); err != nil {
			return fmt.Errorf("loading .env.local: %w", err)
		}
	}
	return nil
}

// LoadConfig discovers and loads configuration with proper precedence:
// flags > env > config file > defaults.
//
// Returns the loaded config, the path to the config file (empty if none found),
// and any error encountered.
func LoadConfig(explicitConfigPath string) (*Config, string, error) {
	v := viper.New()

	// 1. Set defaults first (lowest precedence)
	setDefaults(v)

	// 2. Set up environment variable binding
	v.SetEnvPrefix("VANTAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 3. Find and load config file
	configPath, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	// 4. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, configPath, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model", "vantage.model.yaml")

	// Database defaults
	v.SetDefault("database.driver", DriverPgx)
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 0)
	v.SetDefault("database.name", "")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", "prefer")

	// Render defaults
	v.SetDefault("render.placeholder", "")
	v.SetDefault("render.preview", false)
}

// findConfigFile finds the config file to use.
// If explicitPath is provided, it validates the file exists.
// Otherwise, it walks up from cwd looking for vantage.yaml or vantage.yml,
// stopping at a .git directory or after maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for range maxWalkDepth {
		for _, name := range []string{"vantage.yaml", "vantage.yml"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		// Stop at the repository root.
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", nil // No config found, use defaults
}

// SQLDriver returns the database/sql driver name for the configured driver,
// or "" for the native pgx pool.
func (c *Config) SQLDriver() (string, error) {
	switch c.Database.Driver {
	case DriverPgx:
		return "", nil
	case DriverPgxStdlib:
		return "pgx", nil
	case DriverPostgres, DriverMySQL, DriverSQLite:
		return c.Database.Driver, nil
	}
	return "", fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
}

// Placeholder returns render.placeholder if set, otherwise the marker style
// the driver expects.
func (c *Config) Placeholder() (expr.Placeholder, error) {
	if c.Render.Placeholder != "" {
		return expr.ParsePlaceholder(c.Render.Placeholder)
	}
	switch c.Database.Driver {
	case DriverMySQL:
		return expr.Question, nil
	case DriverSQLite:
		return expr.QuestionNumbered, nil
	}
	return expr.Dollar, nil
}

// DSN returns the database connection string.
// If database.url is set, it's returned directly.
// Otherwise, builds a DSN from discrete fields in the driver's format.
func (c *Config) DSN() (string, error) {
	db := c.Database

	if db.URL != "" {
		return db.URL, nil
	}

	if db.Driver == DriverSQLite {
		if db.Name == "" {
			return "", fmt.Errorf("database.name is required for sqlite")
		}
		return db.Name, nil
	}

	if db.Host == "" {
		return "", fmt.Errorf("database.host is required when database.url is not set")
	}
	if db.Name == "" {
		return "", fmt.Errorf("database.name is required when database.url is not set")
	}
	if db.User == "" {
		return "", fmt.Errorf("database.user is required when database.url is not set")
	}

	if db.Driver == DriverMySQL {
		port := db.Port
		if port == 0 {
			port = 3306
		}
		mc := mysql.NewConfig()
		mc.User = db.User
		mc.Passwd = db.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(db.Host, strconv.Itoa(port))
		mc.DBName = db.Name
		return mc.FormatDSN(), nil
	}

	port := db.Port
	if port == 0 {
		port = 5432
	}
	u := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(db.Host, strconv.Itoa(port)),
		Path:   "/" + db.Name,
	}

	if db.Password != "" {
		u.User = url.UserPassword(db.User, db.Password)
	} else {
		u.User = url.User(db.User)
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}
