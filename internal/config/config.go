package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"

	"github.com/inkwell-ai/inkwell/internal/pathutil"
)

type Config struct {
	Logging    LoggingConfig    `koanf:"logging"`
	Backend    BackendConfig    `koanf:"backend"`
	Chat       ChatConfig       `koanf:"chat"`
	Story      StoryConfig      `koanf:"story"`
	Workspace  WorkspaceConfig  `koanf:"workspace"`
	Models     ModelsConfig     `koanf:"models"`
	Store      StoreConfig      `koanf:"store"`
	Sourcebook SourcebookConfig `koanf:"sourcebook"`
	Backup     BackupConfig     `koanf:"backup"`
}

type LoggingConfig struct {
	Level string `koanf:"level"`
}

type BackendConfig struct {
	BaseURL        string `koanf:"base_url"`
	RequestTimeout string `koanf:"request_timeout"`
	AllowWebSearch bool   `koanf:"allow_web_search"`
}

type ChatConfig struct {
	ModelType    string `koanf:"model_type"`
	ModelName    string `koanf:"model_name"`
	HistoryLimit int    `koanf:"history_limit"`
}

type StoryConfig struct {
	ID              string `koanf:"id"`
	ActiveChapterID int    `koanf:"active_chapter_id"`
}

type WorkspaceConfig struct {
	ID   string `koanf:"id"`
	Path string `koanf:"path"`
}

type ModelsConfig struct {
	Fallback  string          `koanf:"fallback"`
	Embedding string          `koanf:"embedding"`
	Registry  []ModelRegistry `koanf:"registry"`
}

type ModelRegistry struct {
	Name     string `koanf:"name"`
	Provider string `koanf:"provider"`
	BaseURL  string `koanf:"base_url"`
	APIKey   string `koanf:"api_key"`
}

type StoreConfig struct {
	LockTimeout              string `koanf:"lock_timeout"`
	LockRetry                string `koanf:"lock_retry"`
	LockMaxRetry             int    `koanf:"lock_max_retry"`
	InboxSize                int    `koanf:"inbox_size"`
	TranscriptRotateMaxBytes int64  `koanf:"transcript_rotate_max_bytes"`
}

type SourcebookConfig struct {
	ReindexParallelism int `koanf:"reindex_parallelism"`
	SearchLimit        int `koanf:"search_limit"`
}

type BackupConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Schedule string `koanf:"schedule"`
	Keep     int    `koanf:"keep"`
}

const (
	DefaultWorkspaceID                   = "default"
	DefaultLogLevel                      = "info"
	DefaultBackendBaseURL                = "http://localhost:8000"
	DefaultBackendRequestTimeout         = "120s"
	DefaultChatModelType                 = "chat"
	DefaultChatModelName                 = "gpt-4o"
	DefaultChatHistoryLimit              = 200
	DefaultModelFallback                 = "gpt-4o"
	DefaultModelEmbedding                = "nomic-embed-text"
	DefaultStoreLockTimeout              = "10s"
	DefaultStoreLockRetry                = "200ms"
	DefaultStoreLockMaxRetry             = 50
	DefaultStoreInboxSize                = 64
	DefaultStoreTranscriptRotateMaxBytes = 10 * 1024 * 1024
	DefaultSourcebookReindexParallelism  = 4
	DefaultSourcebookSearchLimit         = 5
	DefaultBackupSchedule                = "0 * * * *"
	DefaultBackupKeep                    = 10
)

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"logging.level":            DefaultLogLevel,
		"backend.base_url":         DefaultBackendBaseURL,
		"backend.request_timeout":  DefaultBackendRequestTimeout,
		"backend.allow_web_search": false,
		"chat.model_type":          DefaultChatModelType,
		"chat.model_name":          DefaultChatModelName,
		"chat.history_limit":       DefaultChatHistoryLimit,
		"workspace.id":             DefaultWorkspaceID,
		"workspace.path":           filepath.Join(os.Getenv("HOME"), ".inkwell", "workspaces"),
		"models.fallback":          DefaultModelFallback,
		"models.embedding":         DefaultModelEmbedding,
		"models.registry": []ModelRegistry{
			{Name: DefaultChatModelName, Provider: "openai"},
			{Name: DefaultModelEmbedding, Provider: "ollama"},
		},
		"store.lock_timeout":                DefaultStoreLockTimeout,
		"store.lock_retry":                  DefaultStoreLockRetry,
		"store.lock_max_retry":              DefaultStoreLockMaxRetry,
		"store.inbox_size":                  DefaultStoreInboxSize,
		"store.transcript_rotate_max_bytes": DefaultStoreTranscriptRotateMaxBytes,
		"sourcebook.reindex_parallelism":    DefaultSourcebookReindexParallelism,
		"sourcebook.search_limit":           DefaultSourcebookSearchLimit,
		"backup.enabled":                    false,
		"backup.schedule":                   DefaultBackupSchedule,
		"backup.keep":                       DefaultBackupKeep,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	configPath := ""
	if cmd != nil {
		if flag := cmd.Flags().Lookup("config"); flag != nil {
			configPath = strings.TrimSpace(flag.Value.String())
		}
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, err
		}
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			globalPath := filepath.Join(home, ".inkwell", "config.yaml")
			if err := k.Load(file.Provider(globalPath), yaml.Parser()); err != nil {
				slog.Debug("Global config not found or invalid", "path", globalPath, "error", err)
			}
		}
	}

	k.Load(env.Provider("INKWELL_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "INKWELL_")), "_", ".", -1)
	}), nil)

	if cmd != nil {
		k.Load(posflag.Provider(cmd.Flags(), ".", k), nil)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	for i, m := range cfg.Models.Registry {
		if m.Provider == "" {
			cfg.Models.Registry[i].Provider = "openai"
		}
	}

	if err := normalizePathFields(&cfg); err != nil {
		return nil, err
	}

	injectAPIKeys(&cfg)

	return &cfg, nil
}

// injectAPIKeys fills registry entries from the standard env vars when the
// config left api_key blank.
func injectAPIKeys(cfg *Config) {
	envByProvider := map[string]string{
		"openai":    os.Getenv("OPENAI_API_KEY"),
		"anthropic": os.Getenv("ANTHROPIC_API_KEY"),
		"gemini":    os.Getenv("GEMINI_API_KEY"),
	}
	for i, m := range cfg.Models.Registry {
		if m.APIKey != "" {
			continue
		}
		if key := envByProvider[m.Provider]; key != "" {
			cfg.Models.Registry[i].APIKey = key
		}
	}
}

func normalizePathFields(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	workspacePath, err := expandConfiguredPath(cfg.Workspace.Path)
	if err != nil {
		return err
	}
	if workspacePath != "" {
		cfg.Workspace.Path = workspacePath
	}

	return nil
}

func expandConfiguredPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	return pathutil.Expand(trimmed)
}
