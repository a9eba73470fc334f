package config

import (
	"fmt"
	"os"
	"path/filepath"
)

type Config struct {
	Server   ServerConfig
	Lyrics   LyricsConfig
	Voice    VoiceConfig
	Storage  StorageConfig
	Features FeatureConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port       int
	AdminToken string
}

// LyricsConfig points at an OpenAI-compatible chat completions API.
type LyricsConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// VoiceConfig points at an OpenAI-compatible speech synthesis API.
// When APIKey is empty the lyrics credential is reused.
type VoiceConfig struct {
	BaseURL string
	APIKey  string
}

type StorageConfig struct {
	DataDir  string
	MediaDir string
}

type FeatureConfig struct {
	PublishWebhookURL string
	CollabEnabled     bool
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	dataDir := defaultDataDir()
	return Config{
		Server: ServerConfig{
			Port: 4600,
		},
		Lyrics: LyricsConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o",
		},
		Voice: VoiceConfig{
			BaseURL: "https://api.openai.com/v1",
		},
		Storage: StorageConfig{
			DataDir:  dataDir,
			MediaDir: filepath.Join(dataDir, "media"),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON file backend at
// $XDG_CONFIG_HOME/songsmith/config.json, then applies SONGSMITH_*
// environment overrides. Secrets (API keys, admin token) are
// environment-only and never written to the backend.
func Load() (Config, error) {
	return loadWith(newFileBackend(configFilePath()))
}

func loadWith(b Backend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if cfg.Voice.APIKey == "" {
		cfg.Voice.APIKey = cfg.Lyrics.APIKey
	}

	if cfg.Lyrics.APIKey == "" {
		return Config{}, fmt.Errorf(
			"missing required config: lyrics API key. Set it via environment variable SONGSMITH_LYRICS_API_KEY")
	}

	return cfg, nil
}

func applyBackend(cfg *Config, b Backend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading config key %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading config key %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kBool:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading config key %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v == "true" || v == "1")
			}
		}
	}
	return nil
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "songsmith-data"
		}
	}
	return filepath.Join(dir, "songsmith")
}

func configFilePath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, "songsmith", "config.json")
}
