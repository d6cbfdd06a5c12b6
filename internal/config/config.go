// Package config loads application settings from .env files and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"jiracounter/internal/esindex"
	"jiracounter/internal/jira"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// WorkConfig selects the business calendar and workflow tables.
type WorkConfig struct {
	Country      string `validate:"required"`
	Timezone     string `validate:"required"`
	WorkflowFile string
}

// SyncConfig controls the incremental sync.
type SyncConfig struct {
	Agent        string `validate:"required"`
	Workers      int    `validate:"min=1,max=64"`
	BatchSize    int    `validate:"min=1,max=1000"`
	LookbackDays int    `validate:"min=1"`
}

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Jira      jira.Config
	Elastic   esindex.Config
	Work      WorkConfig
	Sync      SyncConfig
	DataPath  string
	StatePath string
}

// Scope names a group of settings a command depends on.
type Scope int

const (
	ScopeJira Scope = 1 << iota
	ScopeElastic
	ScopeSync
)

var validate = validator.New()

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// The binary-relative .env wins: MCP clients start the server from arbitrary directories.
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	dataPath := getEnv("DATA_PATH", "")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	cfg := &AppConfig{
		Jira: jira.Config{
			BaseURL:      getEnv("JIRA_URL", ""),
			Username:     getEnv("JIRA_USERNAME", ""),
			Token:        getEnv("JIRA_TOKEN", ""),
			RequestDelay: time.Duration(getEnvInt("JIRA_REQUEST_DELAY_MS", 200)) * time.Millisecond,
			CacheTTL:     time.Duration(getEnvInt("JIRA_CACHE_TTL_SECONDS", 300)) * time.Second,
		},
		Elastic: esindex.Config{
			Addresses: splitList(getEnv("ES_URL", "http://localhost:9200")),
			Username:  getEnv("ES_USERNAME", ""),
			Password:  getEnv("ES_PASSWORD", ""),
			Index:     getEnv("ES_INDEX", "jira_issues"),
		},
		Work: WorkConfig{
			Country:      strings.ToUpper(getEnv("WORK_COUNTRY", "PL")),
			Timezone:     getEnv("WORK_TIMEZONE", "UTC"),
			WorkflowFile: getEnv("WORKFLOW_FILE", ""),
		},
		Sync: SyncConfig{
			Agent:        getEnv("SYNC_AGENT", "JiraETLAgent"),
			Workers:      getEnvInt("SYNC_WORKERS", 4),
			BatchSize:    getEnvInt("SYNC_BATCH_SIZE", 100),
			LookbackDays: getEnvInt("SYNC_DEFAULT_LOOKBACK_DAYS", 30),
		},
		DataPath:  dataPath,
		StatePath: filepath.Join(dataPath, "state", "sync_state.db"),
	}

	if err := validate.Struct(cfg.Work); err != nil {
		return nil, fmt.Errorf("invalid work calendar settings: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings required by the given scopes.
func (c *AppConfig) Validate(scopes Scope) error {
	if scopes&ScopeJira != 0 {
		if err := validate.Struct(c.Jira); err != nil {
			return fmt.Errorf("invalid Jira settings (JIRA_URL, JIRA_TOKEN): %w", err)
		}
	}
	if scopes&ScopeElastic != 0 {
		if err := validate.Struct(c.Elastic); err != nil {
			return fmt.Errorf("invalid Elasticsearch settings (ES_URL, ES_INDEX): %w", err)
		}
	}
	if scopes&ScopeSync != 0 {
		if err := validate.Struct(c.Sync); err != nil {
			return fmt.Errorf("invalid sync settings: %w", err)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intVal, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intVal
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-numeric setting")
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
