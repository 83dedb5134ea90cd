package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/clayarnold/crosstrainer/internal/storage"
)

// Scramble pool files are cross_<n>_move.json, each a JSON array of scramble
// strings for an n-move cross, as produced by the SpeedCubeDB downloader.
const (
	MinScrambleMoves = 1
	MaxScrambleMoves = 7
)

// ImportScrambles loads every cross_<n>_move.json file under dir into the
// scramble pool. Files for moves outside [1,7] do not exist; missing files
// are skipped.
func ImportScrambles(ctx context.Context, db *storage.DB, dir string) (int, error) {
	imported := 0
	for moves := MinScrambleMoves; moves <= MaxScrambleMoves; moves++ {
		path := filepath.Join(dir, fmt.Sprintf("cross_%d_move.json", moves))
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return imported, fmt.Errorf("failed to read %s: %w", path, err)
		}

		var scrambles []string
		if err := json.Unmarshal(data, &scrambles); err != nil {
			return imported, fmt.Errorf("failed to parse %s: %w", path, err)
		}

		for _, s := range scrambles {
			if err := db.InsertScramble(ctx, moves, s); err != nil {
				return imported, err
			}
			imported++
		}
		slog.Info("imported scrambles", "moves", moves, "count", len(scrambles))
	}
	return imported, nil
}
