package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inkwell-ai/inkwell/internal/backend"
	"github.com/inkwell-ai/inkwell/internal/backup"
	"github.com/inkwell-ai/inkwell/internal/config"
	"github.com/inkwell-ai/inkwell/internal/provider"
	"github.com/inkwell-ai/inkwell/internal/session"
	"github.com/inkwell-ai/inkwell/internal/sourcebook"
	"github.com/inkwell-ai/inkwell/internal/store"
)

// runtimeComponents wires the store worker, session manager, backend client,
// and provider router for one command invocation.
type runtimeComponents struct {
	cfg        *config.Config
	store      *store.Worker
	sessions   *session.Manager
	backend    *backend.Client
	router     *provider.Router
	sourcebook *sourcebook.Manager
	backup     *backup.Scheduler
}

func resolveWorkspaceID(cmd *cobra.Command) string {
	if cmd != nil {
		if flag := cmd.Flags().Lookup("workspace"); flag != nil {
			if id := strings.TrimSpace(flag.Value.String()); id != "" {
				return id
			}
		}
	}
	if cfg != nil && cfg.Workspace.ID != "" {
		return cfg.Workspace.ID
	}
	return config.DefaultWorkspaceID
}

func buildRuntime(cmd *cobra.Command) (*runtimeComponents, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}

	workspaceID := resolveWorkspaceID(cmd)

	lockTimeout, err := config.DurationOrDefault(cfg.Store.LockTimeout, config.DefaultStoreLockTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid store.lock_timeout: %w", err)
	}
	lockRetry, err := config.DurationOrDefault(cfg.Store.LockRetry, config.DefaultStoreLockRetry)
	if err != nil {
		return nil, fmt.Errorf("invalid store.lock_retry: %w", err)
	}

	worker, err := store.NewWorker(workspaceID, cfg.Workspace.Path, store.RuntimeConfig{
		LockTimeout:              lockTimeout,
		LockRetry:                lockRetry,
		LockMaxRetry:             cfg.Store.LockMaxRetry,
		InboxSize:                cfg.Store.InboxSize,
		TranscriptRotateMaxBytes: cfg.Store.TranscriptRotateMaxBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	worker.Start()

	requestTimeout, err := config.DurationOrDefault(cfg.Backend.RequestTimeout, config.DefaultBackendRequestTimeout)
	if err != nil {
		worker.Stop()
		return nil, fmt.Errorf("invalid backend.request_timeout: %w", err)
	}

	registry := make([]provider.RegistryEntry, 0, len(cfg.Models.Registry))
	for _, m := range cfg.Models.Registry {
		registry = append(registry, provider.RegistryEntry{
			Name:     m.Name,
			Provider: m.Provider,
			APIKey:   m.APIKey,
			BaseURL:  m.BaseURL,
		})
	}
	router, err := provider.NewRouter(registry, cfg.Models.Fallback)
	if err != nil {
		worker.Stop()
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	r := &runtimeComponents{
		cfg:      cfg,
		store:    worker,
		sessions: session.NewManager(worker, cfg.Chat.HistoryLimit),
		backend:  backend.New(cfg.Backend.BaseURL, requestTimeout),
		router:   router,
		sourcebook: sourcebook.NewManager(
			worker, router, cfg.Models.Embedding, cfg.Sourcebook.ReindexParallelism),
	}

	if cfg.Backup.Enabled {
		backupsDir, err := store.GetBackupsDir(workspaceID, cfg.Workspace.Path)
		if err != nil {
			r.Stop()
			return nil, err
		}
		sched, err := backup.NewScheduler(worker.SessionsPath(), backupsDir, cfg.Backup.Schedule, cfg.Backup.Keep)
		if err != nil {
			r.Stop()
			return nil, fmt.Errorf("failed to initialize backup scheduler: %w", err)
		}
		if err := sched.Start(); err != nil {
			r.Stop()
			return nil, err
		}
		r.backup = sched
	}

	return r, nil
}

func (r *runtimeComponents) Stop() {
	if r.backup != nil {
		r.backup.Stop()
	}
	if r.store != nil {
		r.store.Stop()
	}
	slog.Debug("Runtime stopped")
}

// storyID relies on config.Load having already merged the --story.id flag
// into the config.
func (r *runtimeComponents) storyID() (string, error) {
	if r.cfg.Story.ID != "" {
		return r.cfg.Story.ID, nil
	}
	return "", fmt.Errorf("no story selected (use --story.id or set story.id in config)")
}
