package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"

	"taskboard/internal/util"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"

	defaultSecret = "change-me-in-production"
)

// Config is built once at startup and passed by value into constructors.
type Config struct {
	Addr      string
	Env       string
	StaticDir string
	Database  DatabaseConfig
	Auth      AuthConfig
	Log       LogConfig
}

// DatabaseConfig selects and locates the persistence engine.
type DatabaseConfig struct {
	Driver        string
	Path          string
	MongoURI      string
	MongoDatabase string
	Timeout       time.Duration
}

// AuthConfig holds token signing and password hashing settings.
type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	Issuer     string
	BcryptCost int
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string
	Format string
	File   string
}

// Development reports whether internal error details may be returned to clients.
func (c Config) Development() bool {
	return c.Env == EnvDevelopment
}

// Load reads an optional .env file, then parses flags whose defaults come
// from the environment.
func Load(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	dbTimeout, errTimeout := dbTimeout
	tokenTTL, errTTL := tokenTTL
	bcryptCost, errCost := bcryptCost
	if err := errors.Join(errTimeout, errTTL, errCost); err != nil {
		return Config{}, fmt.Errorf("environment: %w", err)
	}

	var cfg Config
	fset := flag.NewFlagSet("taskboard", flag.ContinueOnError)
	fset.StringVar(&cfg.Addr, "addr", util.EnvOrDefault("TASKBOARD_ADDR", ":5000"), "HTTP listen address")
	fset.StringVar(&cfg.Env, "env", util.EnvOrDefault("TASKBOARD_ENV", EnvDevelopment), "Runtime environment (development|production)")
	fset.StringVar(&cfg.StaticDir, "static", util.EnvOrDefault("TASKBOARD_STATIC_DIR", "web/dist"), "Directory with built frontend")

	fset.StringVar(&cfg.Database.Driver, "db-driver", util.EnvOrDefault("TASKBOARD_DB_DRIVER", DriverSQLite), "Persistence engine (sqlite|mongo)")
	fset.StringVar(&cfg.Database.Path, "db", util.EnvOrDefault("TASKBOARD_DB_PATH", "data/taskboard.db"), "Path to sqlite database file")
	fset.StringVar(&cfg.Database.MongoURI, "mongo-uri", util.EnvOrDefault("MONGODB_URI", "mongodb://localhost:27017"), "MongoDB connection string")
	fset.StringVar(&cfg.Database.MongoDatabase, "mongo-db", util.EnvOrDefault("MONGODB_DATABASE", "taskboard"), "MongoDB database name")
	fset.DurationVar(&cfg.Database.Timeout, "db-timeout", dbTimeout, "Database connect timeout")

	fset.StringVar(&cfg.Auth.JWTSecret, "jwt-secret", util.EnvOrDefault("JWT_SECRET", defaultSecret), "HMAC key for session tokens")
	fset.DurationVar(&cfg.Auth.TokenTTL, "jwt-expires-in", tokenTTL, "Session token lifetime")
	fset.StringVar(&cfg.Auth.Issuer, "jwt-issuer", util.EnvOrDefault("JWT_ISSUER", "taskboard"), "Session token issuer")
	fset.IntVar(&cfg.Auth.BcryptCost, "bcrypt-cost", bcryptCost, "bcrypt work factor")

	fset.StringVar(&cfg.Log.Level, "log-level", util.EnvOrDefault("TASKBOARD_LOG_LEVEL", "info"), "Log level (debug|info|warn|error)")
	fset.StringVar(&cfg.Log.Format, "log-format", util.EnvOrDefault("TASKBOARD_LOG_FORMAT", "text"), "Log format (text|json)")
	fset.StringVar(&cfg.Log.File, "log-file", util.EnvOrDefault("TASKBOARD_LOG_FILE", ""), "Optional rotating log file")

	if err := fset.Parse(args); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Env {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("unknown environment %q", c.Env)
	}
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("empty database path")
		}
	case DriverMongo:
		if c.Database.MongoURI == "" || c.Database.MongoDatabase == "" {
			return fmt.Errorf("mongo driver needs a URI and a database name")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("empty JWT secret")
	}
	if c.Env == EnvProduction && c.Auth.JWTSecret == defaultSecret {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token lifetime must be positive")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("bcrypt cost %d out of range 4-31", c.Auth.BcryptCost)
	}
	return nil
}
