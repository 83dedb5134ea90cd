package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/pflag"

	"github.com/clayarnold/crosstrainer/internal/config"
	"github.com/clayarnold/crosstrainer/internal/corpus"
	"github.com/clayarnold/crosstrainer/internal/srs"
	"github.com/clayarnold/crosstrainer/internal/storage"
	"github.com/clayarnold/crosstrainer/internal/web"
)

func main() {
	flags := pflag.NewFlagSet("crosstrainer", pflag.ExitOnError)
	configPath := flags.String("config", "crosstrainer.yaml", "Path to the yaml config file")
	flags.String("listen", ":11001", "Address to serve the API on")
	flags.String("db", "crosstrainer.db", "Path to the SQLite database file")
	flags.String("repos_dir", "repos", "Directory git corpus sources are checked out into")
	flags.String("scrambles_dir", "scrambles", "Directory holding cross_<n>_move.json scramble files")
	addSource := flags.String("add-source", "", "Register a corpus source (local dir or git URL) and exit")
	runSync := flags.Bool("sync", false, "Reconcile all corpus sources and exit")
	importScrambles := flags.Bool("import-scrambles", false, "Load the scramble pool from the scrambles dir and exit")
	flags.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	ctx := context.Background()

	if *addSource != "" {
		sourceType := corpus.SourceTypeLocal
		if corpus.IsGitURL(*addSource) {
			sourceType = corpus.SourceTypeGit
		}
		id, err := db.InsertSource(ctx, *addSource, sourceType)
		if err != nil {
			log.Fatalf("Failed to add source: %v", err)
		}
		slog.Info("source registered", "id", id, "type", sourceType, "path", *addSource)
		return
	}

	if *runSync {
		if _, err := corpus.Sync(ctx, db, cfg.ReposDir); err != nil {
			log.Fatalf("Sync failed: %v", err)
		}
		return
	}

	if *importScrambles {
		n, err := corpus.ImportScrambles(ctx, db, cfg.ScramblesDir)
		if err != nil {
			log.Fatalf("Scramble import failed: %v", err)
		}
		slog.Info("scramble import complete", "imported", n)
		return
	}

	server := web.NewServer(db, srs.New(db), cfg.ReposDir)
	slog.Info("serving", "addr", cfg.Listen)
	if err := http.ListenAndServe(cfg.Listen, server); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
