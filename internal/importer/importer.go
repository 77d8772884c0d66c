// Package importer loads program documents from JSON files on disk. Each file
// holds one program in the same shape the create API accepts. Files that were
// already imported (tracked by path, size, and content hash in a local SQLite
// database) are skipped, so the importer can be pointed at the same directory
// repeatedly.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/claude/liftplan/internal/program"
	"github.com/claude/liftplan/internal/storage"
)

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
	FilesErrored   int

	ProgramsCreated  int
	NameConflicts    int
	CreatedExercises []string
}

// Importer reads program JSON files from a directory and creates programs.
type Importer struct {
	svc    *program.Service
	log    *slog.Logger
	state  *StateDB
	dryRun bool
	stats  Stats
}

// New creates a new Importer. state may be nil, in which case every file is
// processed on every run.
func New(svc *program.Service, state *StateDB, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{svc: svc, state: state, log: log, dryRun: dryRun}
}

// Import processes all .json files in the given directory (non-recursive) for
// the given user. A file whose program name already exists counts as a
// conflict, not an error: the file is marked done and skipped on later runs.
func (imp *Importer) Import(ctx context.Context, dir string, userID int) (*Stats, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return &imp.stats, fmt.Errorf("reading import dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := imp.importFile(ctx, path, name, userID); err != nil {
			imp.stats.FilesErrored++
			imp.log.Error("import file failed", "file", name, "error", err)
			continue
		}
	}

	return &imp.stats, nil
}

func (imp *Importer) importFile(ctx context.Context, path, relPath string, userID int) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	hash, err := HashFile(path)
	if err != nil {
		return fmt.Errorf("hashing: %w", err)
	}

	if imp.state != nil {
		done, err := imp.state.IsImported(relPath, info.Size(), hash)
		if err != nil {
			return fmt.Errorf("checking state: %w", err)
		}
		if done {
			imp.stats.FilesSkipped++
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var req program.CreateRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("parsing: %w", err)
	}

	imp.stats.FilesProcessed++

	if imp.dryRun {
		imp.log.Info("would import", "file", relPath, "program", req.Name, "days", len(req.Days))
		return nil
	}

	result, err := imp.svc.Create(ctx, userID, req)
	switch {
	case errors.Is(err, storage.ErrConflict):
		imp.stats.NameConflicts++
		imp.log.Warn("program already exists, skipping", "file", relPath, "program", req.Name)
	case err != nil:
		return err
	default:
		imp.stats.ProgramsCreated++
		imp.stats.CreatedExercises = append(imp.stats.CreatedExercises, result.CreatedExercises...)
		imp.log.Info("program imported", "file", relPath, "program", result.Name, "days", result.DaysWritten)
	}

	if imp.state != nil {
		if err := imp.state.MarkImported(relPath, info.Size(), hash); err != nil {
			return fmt.Errorf("recording state: %w", err)
		}
	}
	return nil
}
