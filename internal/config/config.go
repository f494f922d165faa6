package config

import (
	"path/filepath"
)

type Config struct {
	Storage StorageConfig
	Log     LogConfig
	Output  OutputConfig
}

type StorageConfig struct {
	DataDir string
	// File is the feedback file name. Relative names resolve against DataDir.
	File string
}

type LogConfig struct {
	Level string
}

type OutputConfig struct {
	NoColor bool
}

func defaults() Config {
	return Config{
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
			File:    "complaints.json",
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// FeedbackPath returns the resolved location of the feedback file.
func (c Config) FeedbackPath() string {
	if filepath.IsAbs(c.Storage.File) {
		return c.Storage.File
	}
	return filepath.Join(c.Storage.DataDir, c.Storage.File)
}

// Load reads configuration from the platform-native backend and
// environment variables.
//
// On macOS the backend is UserDefaults (domain: com.complaintctl.app).
// Elsewhere it is a JSON file at $XDG_CONFIG_HOME/complaintctl/config.json.
//
// Environment variables (COMPLAINTCTL_*) override backend values.
func Load() (Config, error) {
	return loadWith(newPlatformBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}
