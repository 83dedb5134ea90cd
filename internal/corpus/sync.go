package corpus

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/clayarnold/crosstrainer/internal/domain"
	"github.com/clayarnold/crosstrainer/internal/storage"
)

// Report summarizes one sync run.
type Report struct {
	Sources  int `json:"sources"`
	Parsed   int `json:"parsed"`
	Inserted int `json:"inserted"`
	Orphaned int `json:"orphaned_deleted"`
	Errors   int `json:"errors"`
}

// SourceTypeLocal and SourceTypeGit classify registered sources.
const (
	SourceTypeLocal = "local"
	SourceTypeGit   = "git"
)

// Solve files carry this extension.
const solveFileExt = ".solves"

// Sync reconciles every registered source with the store: new solve records
// are inserted, records whose file entry disappeared are removed unless
// something is scheduled against them.
func Sync(ctx context.Context, db *storage.DB, reposDir string) (*Report, error) {
	sources, err := db.GetAllSources(ctx)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		slog.Info("no corpus sources configured")
		return &Report{}, nil
	}

	report := &Report{Sources: len(sources)}
	for _, source := range sources {
		slog.Info("syncing source", "id", source.ID, "type", source.Type, "path", source.Path)

		scanPath := source.Path
		if source.Type == SourceTypeGit {
			localPath, err := gitURLToLocalPath(reposDir, source.Path)
			if err != nil {
				slog.Error("cannot map git source to a local path", "url", source.Path, "error", err)
				report.Errors++
				continue
			}
			if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create repos directory: %w", err)
			}
			if err := syncGitRepo(source.Path, localPath); err != nil {
				slog.Error("git sync failed", "url", source.Path, "error", err)
				report.Errors++
				continue
			}
			scanPath = localPath
		}

		reconcileSource(ctx, db, source.ID, scanPath, report)

		if err := db.UpdateSourceLastScanned(ctx, source.ID, time.Now()); err != nil {
			slog.Warn("failed to stamp source", "source_id", source.ID, "error", err)
		}
	}

	slog.Info("sync complete",
		"sources", report.Sources,
		"parsed", report.Parsed,
		"inserted", report.Inserted,
		"orphaned_deleted", report.Orphaned,
		"errors", report.Errors,
	)
	return report, nil
}

func reconcileSource(ctx context.Context, db *storage.DB, sourceID int64, root string, report *Report) {
	seen := make(map[string]bool)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), solveFileExt) {
			return nil
		}

		solves, parseErr := ParseFile(path)
		if parseErr != nil {
			slog.Warn("parse errors in solve file", "path", path, "error", parseErr)
			report.Errors++
		}
		for i := range solves {
			s := &solves[i]
			report.Parsed++
			seen[s.Hash] = true

			existing, err := db.FindSolveByHash(ctx, s.Hash)
			if err != nil {
				slog.Error("lookup failed", "hash", s.Hash, "error", err)
				report.Errors++
				continue
			}
			if existing != nil {
				continue
			}
			if _, err := db.InsertSolve(ctx, s, sourceID); err != nil {
				if errors.Is(err, domain.ErrDuplicate) {
					// Same solve in two files of one scan.
					continue
				}
				slog.Error("insert failed", "hash", s.Hash, "error", err)
				report.Errors++
				continue
			}
			report.Inserted++
		}
		return nil
	})
	if walkErr != nil {
		slog.Error("error walking source", "path", root, "error", walkErr)
		report.Errors++
		return
	}

	known, err := db.SolveHashesBySource(ctx, sourceID)
	if err != nil {
		slog.Error("failed to load known solves", "source_id", sourceID, "error", err)
		report.Errors++
		return
	}
	for hash, id := range known {
		if seen[hash] {
			continue
		}
		deleted, err := db.DeleteSolveIfUnscheduled(ctx, id)
		if err != nil {
			slog.Warn("failed to delete orphaned solve", "hash", hash, "error", err)
			report.Errors++
			continue
		}
		if deleted {
			slog.Info("orphaned solve removed", "hash", hash)
			report.Orphaned++
		}
	}
}
