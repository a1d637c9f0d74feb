package config

import (
	"time"

	"stagefinder/pkg/config"
)

// Config stores environment configuration for Stagefinder.
type Config struct {
	Port        string
	DatabaseURL string

	LLMProvider string
	LLMModel    string
	LLMAPIKey   string
	LLMAPIURL   string

	// Pacing intervals for rate-limited external dependencies
	LLMPace     time.Duration
	FetchPace   time.Duration
	SourcePause time.Duration

	// Extraction limits
	MaxPostsPerSource int

	// Cron schedule for the expired-event sweep
	SweepSchedule string
}

// LoadConfig loads the Stagefinder configuration from environment variables.
func LoadConfig() Config {
	return Config{
		Port:              config.GetEnv("PORT", "18030"),
		DatabaseURL:       config.RequireEnv("DATABASE_URL"),
		LLMProvider:       config.GetEnv("LLM_PROVIDER", ""),
		LLMModel:          config.GetEnv("LLM_MODEL", ""),
		LLMAPIKey:         config.GetEnv("LLM_API_KEY", ""),
		LLMAPIURL:         config.GetEnv("LLM_API_URL", ""),
		LLMPace:           config.GetEnvDuration("LLM_PACE", 2*time.Second),
		FetchPace:         config.GetEnvDuration("FETCH_PACE", time.Second),
		SourcePause:       config.GetEnvDuration("SOURCE_PAUSE", 3*time.Second),
		MaxPostsPerSource: config.GetEnvInt("MAX_POSTS_PER_SOURCE", 15),
		SweepSchedule:     config.GetEnv("SWEEP_SCHEDULE", "@hourly"),
	}
}
