package stepcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"sleeperrecap/internal/fileutil"
	"sleeperrecap/internal/logging"
	"sleeperrecap/internal/services"
	"sleeperrecap/internal/textutil"
)

// Artifact file names.
const (
	FileTruth        = "truth.json"
	FileEvidence     = "evidence.json"
	FilePlan         = "plan.txt"
	FileRecap        = "recap.md"
	FileAudit        = "audit.json"
	FileAuditInitial = "audit_initial.json"
	FileDraft        = "draft.json"

	lockFile = ".lock"
)

// Files lists every step artifact, in pipeline order.
var Files = []string{FileTruth, FileEvidence, FilePlan, FileRecap, FileDraft, FileAuditInitial, FileAudit}

// ErrLocked reports that another run holds the week lock.
var ErrLocked = errors.New("week cache is locked by another run")

// Dir returns the cache directory for a league week.
func Dir(outputDir, leagueID string, season, week int) string {
	return filepath.Join(outputDir, textutil.SanitizeToken(leagueID), fmt.Sprintf("%d_week%d", season, week))
}

// Week is the artifact directory for one league week.
type Week struct {
	dir    string
	lock   *flock.Flock
	logger *slog.Logger
}

// Open creates the week directory and takes its lock. Close releases it.
func Open(outputDir, leagueID string, season, week int, logger *slog.Logger) (*Week, error) {
	w := newWeek(Dir(outputDir, leagueID, season, week), logger)
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "cache", "create dir", "Could not create the week cache directory", err)
	}
	w.lock = flock.New(filepath.Join(w.dir, lockFile))
	ok, err := w.lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "cache", "lock", "Could not lock the week cache directory", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "cache", "lock",
			fmt.Sprintf("Another run is already working on %s", w.dir), ErrLocked)
	}
	return w, nil
}

// View opens the week directory for reading without locking. The directory
// must exist.
func View(outputDir, leagueID string, season, week int, logger *slog.Logger) (*Week, error) {
	w := newWeek(Dir(outputDir, leagueID, season, week), logger)
	info, err := os.Stat(w.dir)
	if err != nil || !info.IsDir() {
		return nil, services.Wrap(services.ErrNotFound, "cache", "view",
			fmt.Sprintf("No cached run for season %d week %d", season, week), err)
	}
	return w, nil
}

func newWeek(dir string, logger *slog.Logger) *Week {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Week{dir: dir, logger: logging.NewComponentLogger(logger, "stepcache")}
}

// Dir returns the week directory.
func (w *Week) Dir() string { return w.dir }

// Path returns the path of an artifact.
func (w *Week) Path(name string) string { return filepath.Join(w.dir, name) }

// Has reports whether an artifact exists.
func (w *Week) Has(name string) bool {
	_, err := os.Stat(w.Path(name))
	return err == nil
}

// Close releases the lock taken by Open.
func (w *Week) Close() error {
	if w == nil || w.lock == nil {
		return nil
	}
	return w.lock.Unlock()
}

// Invalidate removes every step artifact.
func (w *Week) Invalidate() error {
	for _, name := range Files {
		if err := os.Remove(w.Path(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	w.logger.Debug("invalidated week cache", logging.String("dir", w.dir))
	return nil
}

// Remove deletes one artifact if present.
func (w *Week) Remove(name string) error {
	if err := os.Remove(w.Path(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

// LoadJSON decodes an artifact into v. A missing or unreadable artifact is a
// miss; a corrupt one is logged and also treated as a miss so the step runs
// again.
func (w *Week) LoadJSON(name string, v any) (bool, error) {
	data, ok, err := fileutil.ReadFileIfExists(w.Path(name))
	if err != nil {
		return false, fmt.Errorf("read %s: %w", name, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		logging.WarnWithContext(w.logger, "cached artifact is corrupt", "cache_corrupt",
			logging.String("artifact", name),
			logging.String(logging.FieldErrorHint, "delete the file or rerun with --force"),
			logging.String(logging.FieldImpact, "step will be regenerated"),
			logging.Error(err))
		return false, nil
	}
	return true, nil
}

// SaveJSON writes v as indented JSON.
func (w *Week) SaveJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	if err := fileutil.WriteFileAtomic(w.Path(name), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// LoadText reads a text artifact. Blank files count as a miss.
func (w *Week) LoadText(name string) (string, bool, error) {
	data, ok, err := fileutil.ReadFileIfExists(w.Path(name))
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", name, err)
	}
	text := strings.TrimSpace(string(data))
	if !ok || text == "" {
		return "", false, nil
	}
	return text, true, nil
}

// SaveText writes a text artifact with a trailing newline.
func (w *Week) SaveText(name, text string) error {
	if err := fileutil.WriteFileAtomic(w.Path(name), []byte(strings.TrimSpace(text)+"\n"), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
