package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds the application's configuration
type Config struct {
	WebPort                 int           `mapstructure:"WEB_PORT"`
	LogLevel                string        `mapstructure:"LOG_LEVEL"`
	Debug                   bool          `mapstructure:"DEBUG"`
	GeminiAPIKey            string        `mapstructure:"GEMINI_API_KEY"`
	GeminiModel             string        `mapstructure:"GEMINI_MODEL"`
	GeminiBaseURL           string        `mapstructure:"GEMINI_BASE_URL"`
	LLMRequestTimeoutSecs   int           `mapstructure:"LLM_REQUEST_TIMEOUT"`
	MaxTurns                int           `mapstructure:"MAX_TURNS"`
	ConsecutiveErrors       int           `mapstructure:"CONSECUTIVE_ERRORS"`
	AgentHistoryChars       int           `mapstructure:"AGENT_HISTORY_CHARS"`
	QAMaxAnswerChars        int           `mapstructure:"QA_MAX_ANSWER_CHARS"`
	GraphSummaryFile        string        `mapstructure:"GRAPH_SUMMARY_FILE"`
	SampleCSVPath           string        `mapstructure:"SAMPLE_CSV_PATH"`
	WriteSampleCSV          bool          `mapstructure:"WRITE_SAMPLE_CSV"`
	MaxUploadBytes          int64         `mapstructure:"MAX_UPLOAD_BYTES"`
	SessionCapacity         int           `mapstructure:"SESSION_CAPACITY"`
	CleanupEnabled          bool          `mapstructure:"CLEANUP_ENABLED"`
	CleanupIntervalMins     int           `mapstructure:"CLEANUP_INTERVAL"`
	SessionRetentionMins    int           `mapstructure:"SESSION_RETENTION_AGE"`
	RateLimitMessagesPerMin int           `mapstructure:"RATE_LIMIT_MESSAGES_PER_MIN"`
	RateLimitFilesPerHour   int           `mapstructure:"RATE_LIMIT_FILES_PER_HOUR"`
	RateLimitBurstSize      int           `mapstructure:"RATE_LIMIT_BURST_SIZE"`

	// Derived from the *Secs and *Mins counts in normalize.
	LLMRequestTimeout   time.Duration `mapstructure:"-"`
	CleanupInterval     time.Duration `mapstructure:"-"`
	SessionRetentionAge time.Duration `mapstructure:"-"`
}

// Load reads config.yaml (if present) and the environment. configFile overrides
// the search path when non-empty.
func Load(logger *zap.Logger, configFile string) *Config {
	var config Config
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")        // For running locally
		v.AddConfigPath("../")      // For running from docker subdir
		v.AddConfigPath("./config") // Common config folder
	}
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if logger != nil {
			logger.Warn("Could not read config file, using defaults/env vars", zap.Error(err))
		}
	}

	if err := v.Unmarshal(&config); err != nil {
		// Config unmarshaling is critical - fail fast during bootstrap
		if logger != nil {
			logger.Fatal("Unable to decode config into struct", zap.Error(err))
		} else {
			fmt.Fprintf(os.Stderr, "FATAL: Unable to decode config into struct: %v\n", err)
			os.Exit(1)
		}
	}

	config.normalize()
	return &config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("WEB_PORT", 8050)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DEBUG", false)
	// GEMINI_API_KEY only ever comes from the environment or the config file.
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	v.SetDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")
	v.SetDefault("LLM_REQUEST_TIMEOUT", 120)
	v.SetDefault("MAX_TURNS", 8)
	v.SetDefault("CONSECUTIVE_ERRORS", 3)
	v.SetDefault("AGENT_HISTORY_CHARS", 60000)
	v.SetDefault("QA_MAX_ANSWER_CHARS", 4000)
	v.SetDefault("GRAPH_SUMMARY_FILE", "")
	v.SetDefault("SAMPLE_CSV_PATH", "sample_dataset.csv")
	v.SetDefault("WRITE_SAMPLE_CSV", true)
	v.SetDefault("MAX_UPLOAD_BYTES", 10*1024*1024)
	v.SetDefault("SESSION_CAPACITY", 1024)
	v.SetDefault("CLEANUP_ENABLED", true)
	v.SetDefault("CLEANUP_INTERVAL", 10)
	v.SetDefault("SESSION_RETENTION_AGE", 120)
	v.SetDefault("RATE_LIMIT_MESSAGES_PER_MIN", 20)
	v.SetDefault("RATE_LIMIT_FILES_PER_HOUR", 30)
	v.SetDefault("RATE_LIMIT_BURST_SIZE", 5)
}

// normalize converts the raw second/minute counts from viper into durations
// and clamps values that would otherwise disable a component.
func (c *Config) normalize() {
	c.GeminiAPIKey = strings.TrimSpace(c.GeminiAPIKey)
	c.GeminiBaseURL = strings.TrimRight(c.GeminiBaseURL, "/")

	c.LLMRequestTimeout = time.Duration(c.LLMRequestTimeoutSecs) * time.Second
	c.CleanupInterval = time.Duration(c.CleanupIntervalMins) * time.Minute
	c.SessionRetentionAge = time.Duration(c.SessionRetentionMins) * time.Minute

	if c.MaxTurns <= 0 {
		c.MaxTurns = 8
	}
	if c.ConsecutiveErrors <= 0 {
		c.ConsecutiveErrors = 3
	}
	if c.AgentHistoryChars <= 0 {
		c.AgentHistoryChars = 60000
	}
	if c.SessionCapacity <= 0 {
		c.SessionCapacity = 1024
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = 10 * time.Minute
	}
}
