package backup

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/robfig/cron/v3"
)

const defaultKeep = 10

// Scheduler snapshots the workspace sessions directory on a cron schedule.
// Snapshots are plain directory copies named by timestamp and run id, oldest
// pruned beyond the retention count.
type Scheduler struct {
	sessionsDir string
	backupsDir  string
	schedule    string
	keep        int
	cron        *cron.Cron
}

func NewScheduler(sessionsDir, backupsDir, schedule string, keep int) (*Scheduler, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid backup schedule %q: %w", schedule, err)
	}
	if keep <= 0 {
		keep = defaultKeep
	}
	return &Scheduler{
		sessionsDir: sessionsDir,
		backupsDir:  backupsDir,
		schedule:    schedule,
		keep:        keep,
		cron:        cron.New(),
	}, nil
}

func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.RunOnce(); err != nil {
			slog.Error("Workspace backup failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	slog.Info("Backup scheduler started", "schedule", s.schedule, "keep", s.keep)
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// RunOnce takes one snapshot immediately.
func (s *Scheduler) RunOnce() error {
	name := fmt.Sprintf("%s-%s", time.Now().Format("20060102T150405"), ulid.Make().String())
	target := filepath.Join(s.backupsDir, name)

	if err := copyDir(s.sessionsDir, target); err != nil {
		return fmt.Errorf("snapshot sessions: %w", err)
	}

	slog.Info("Workspace backup written", "path", target)
	return s.prune()
}

func (s *Scheduler) prune() error {
	entries, err := os.ReadDir(s.backupsDir)
	if err != nil {
		return err
	}

	var snapshots []string
	for _, e := range entries {
		if e.IsDir() {
			snapshots = append(snapshots, e.Name())
		}
	}
	if len(snapshots) <= s.keep {
		return nil
	}

	// Names sort chronologically because they lead with the timestamp.
	sort.Strings(snapshots)
	for _, name := range snapshots[:len(snapshots)-s.keep] {
		if err := os.RemoveAll(filepath.Join(s.backupsDir, name)); err != nil {
			slog.Warn("Failed to prune old backup", "name", name, "error", err)
		}
	}
	return nil
}

func copyDir(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dst, 0755); err != nil {
		return err
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		// Skip rotated transcript backups, they are already copies.
		if strings.HasSuffix(e.Name(), ".bak") {
			continue
		}
		if err := copyFile(filepath.Join(src, e.Name()), filepath.Join(dst, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
