package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kBool
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "SONGSMITH_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.admin_token", typ: kString, env: "SONGSMITH_ADMIN_TOKEN", secret: true,
		apply:   func(cfg *Config, v any) { cfg.Server.AdminToken = v.(string) },
		extract: func(cfg Config) any { return "" },
	},
	{
		key: "lyrics.base_url", typ: kString, env: "SONGSMITH_LYRICS_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Lyrics.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Lyrics.BaseURL },
	},
	{
		key: "lyrics.api_key", typ: kString, env: "SONGSMITH_LYRICS_API_KEY", secret: true,
		apply:   func(cfg *Config, v any) { cfg.Lyrics.APIKey = v.(string) },
		extract: func(cfg Config) any { return "" },
	},
	{
		key: "lyrics.model", typ: kString, env: "SONGSMITH_LYRICS_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Lyrics.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Lyrics.Model },
	},
	{
		key: "voice.base_url", typ: kString, env: "SONGSMITH_VOICE_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Voice.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Voice.BaseURL },
	},
	{
		key: "voice.api_key", typ: kString, env: "SONGSMITH_VOICE_API_KEY", secret: true,
		apply:   func(cfg *Config, v any) { cfg.Voice.APIKey = v.(string) },
		extract: func(cfg Config) any { return "" },
	},
	{
		key: "storage.data_dir", typ: kString, env: "SONGSMITH_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "storage.media_dir", typ: kString, env: "SONGSMITH_STORAGE_MEDIA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.MediaDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.MediaDir },
	},
	{
		key: "features.publish_webhook_url", typ: kString, env: "SONGSMITH_PUBLISH_WEBHOOK_URL",
		apply:   func(cfg *Config, v any) { cfg.Features.PublishWebhookURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Features.PublishWebhookURL },
	},
	{
		key: "features.collab_enabled", typ: kBool, env: "SONGSMITH_COLLAB_ENABLED",
		apply:   func(cfg *Config, v any) { cfg.Features.CollabEnabled = v.(bool) },
		extract: func(cfg Config) any { return cfg.Features.CollabEnabled },
	},
	{
		key: "log.level", typ: kString, env: "SONGSMITH_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kBool:
			if b, err := strconv.ParseBool(raw); err == nil {
				s.apply(cfg, b)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}

// KeyInfo describes a config key for display purposes.
type KeyInfo struct {
	Key    string
	EnvVar string
	Value  string
}

// ShowAll returns all non-secret config key/value pairs from the current config.
func ShowAll(cfg Config) []KeyInfo {
	var result []KeyInfo
	for _, s := range specs {
		if s.secret {
			continue
		}
		result = append(result, KeyInfo{
			Key:    s.key,
			EnvVar: s.env,
			Value:  fmt.Sprintf("%v", s.extract(cfg)),
		})
	}
	return result
}

// SetKey writes a non-secret config key to the file backend.
func SetKey(key, value string) error {
	b := newFileBackend(configFilePath())

	for _, s := range specs {
		if s.key != key {
			continue
		}
		if s.secret {
			return fmt.Errorf("cannot set secret %q via config; use environment variable %s", key, s.env)
		}
		switch s.typ {
		case kString, kBool:
			return b.SetString(key, value)
		case kInt:
			i, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("invalid integer value for %s: %w", key, err)
			}
			return b.SetInt(key, i)
		}
	}

	return fmt.Errorf("unknown config key: %q", key)
}
