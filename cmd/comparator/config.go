package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/comparator/gemini"
	"github.com/fwojciec/comparator/groq"
	"github.com/fwojciec/comparator/postgres"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// History backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendJSONL    = "jsonl"
)

// Config is the resolved runtime configuration.
type Config struct {
	GroqAPIKey   string
	GroqModel    string
	GeminiAPIKey string
	GeminiModel  string

	DBType      string
	DatabaseURL string
	DB          postgres.Config
	SQLitePath  string
	JSONLPath   string

	JWTSecret    string
	OTelEndpoint string
	OTelInsecure bool

	User     string
	Timeout  time.Duration
	JSON     bool
	Verbose  bool
	LogLevel string
}

// setDefaults registers defaults and environment bindings on v.
func setDefaults(v *viper.Viper) {
	dataDir := ".comparator"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".comparator")
	}

	v.SetDefault("groq_model", groq.DefaultModel)
	v.SetDefault("gemini_model", gemini.DefaultModel)
	v.SetDefault("db_name", "ai_comparator")
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_password", "")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", 5432)
	v.SetDefault("sqlite_path", filepath.Join(dataDir, "history.db"))
	v.SetDefault("jsonl_path", filepath.Join(dataDir, "history.jsonl"))
	v.SetDefault("timeout", 60*time.Second)
	v.SetDefault("log_level", "info")
	v.SetDefault("otel_insecure", true)

	_ = v.BindEnv("groq_api_key", "GROQ_API_KEY")
	_ = v.BindEnv("gemini_api_key", "GEMINI_API_KEY")
	_ = v.BindEnv("db_type", "DB_TYPE")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("db_name", "DB_NAME")
	_ = v.BindEnv("db_user", "DB_USER")
	_ = v.BindEnv("db_password", "DB_PASSWORD")
	_ = v.BindEnv("db_host", "DB_HOST")
	_ = v.BindEnv("db_port", "DB_PORT")
	_ = v.BindEnv("jwt_secret", "JWT_SECRET")
	_ = v.BindEnv("otel_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")

	v.SetEnvPrefix("comparator")
	v.AutomaticEnv()
}

// readConfig loads .env, then the config file, into v. A missing default
// config file is not an error; a missing explicit one is.
func readConfig(v *viper.Viper, cfgFile string) error {
	// .env is optional.
	_ = godotenv.Load()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		v.AddConfigPath(home)
		v.SetConfigType("yaml")
		v.SetConfigName(".comparator")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// LoadConfig resolves a Config from v.
func LoadConfig(v *viper.Viper) Config {
	return Config{
		GroqAPIKey:   v.GetString("groq_api_key"),
		GroqModel:    v.GetString("groq_model"),
		GeminiAPIKey: v.GetString("gemini_api_key"),
		GeminiModel:  v.GetString("gemini_model"),
		DBType:       strings.ToLower(v.GetString("db_type")),
		DatabaseURL:  v.GetString("database_url"),
		DB: postgres.Config{
			Host:     v.GetString("db_host"),
			Port:     v.GetInt("db_port"),
			User:     v.GetString("db_user"),
			Password: v.GetString("db_password"),
			Name:     v.GetString("db_name"),
		},
		SQLitePath:   v.GetString("sqlite_path"),
		JSONLPath:    v.GetString("jsonl_path"),
		JWTSecret:    v.GetString("jwt_secret"),
		OTelEndpoint: v.GetString("otel_endpoint"),
		OTelInsecure: v.GetBool("otel_insecure"),
		User:         v.GetString("user"),
		Timeout:      v.GetDuration("timeout"),
		JSON:         v.GetBool("json"),
		Verbose:      v.GetBool("verbose"),
		LogLevel:     v.GetString("log_level"),
	}
}

// Validate reports settings that are malformed. Missing API keys are not
// an error: unconfigured providers report it in their results.
func (c Config) Validate() error {
	if c.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	switch c.DBType {
	case "", "sqlite", "postgresql", "postgres", BackendJSONL:
	default:
		return fmt.Errorf("unknown DB_TYPE %q", c.DBType)
	}
	return nil
}

// HistoryBackend selects the history store. DB_TYPE wins; otherwise a
// postgresql DATABASE_URL selects postgres; SQLite is the default.
func (c Config) HistoryBackend() string {
	switch c.DBType {
	case "postgresql", "postgres":
		return BackendPostgres
	case BackendJSONL:
		return BackendJSONL
	case "sqlite":
		return BackendSQLite
	}
	if strings.Contains(strings.ToLower(c.DatabaseURL), "postgres") {
		return BackendPostgres
	}
	return BackendSQLite
}

// PostgresDSN returns DATABASE_URL when it names a PostgreSQL database,
// else a DSN built from the discrete DB_* settings.
func (c Config) PostgresDSN() string {
	if strings.Contains(strings.ToLower(c.DatabaseURL), "postgres") {
		return c.DatabaseURL
	}
	return c.DB.DSN()
}
