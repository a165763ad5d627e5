package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"comicsort/internal/snapshot"
	"comicsort/pkg/database"
)

func main() {
	outDir := flag.String("out", "CSVs", "directory to write <series_id>_<date>.csv files into")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	repo := snapshot.NewRepo(db)

	ids := flag.Args()
	if len(ids) == 0 {
		infos, err := repo.List(ctx)
		if err != nil {
			log.Fatalf("list snapshots: %v", err)
		}
		for _, info := range infos {
			ids = append(ids, info.SeriesID)
		}
	}

	n := 0
	for _, id := range ids {
		path, err := exportSeries(ctx, repo, id, *outDir)
		if err != nil {
			log.Fatalf("export %s failed: %v", id, err)
		}
		if path == "" {
			log.Printf("%s: no snapshot stored", id)
			continue
		}
		log.Printf("%s -> %s", id, path)
		n++
	}

	log.Printf("✅ exported %d snapshots to %s", n, *outDir)
}

func exportSeries(ctx context.Context, repo *snapshot.Repo, seriesID, outDir string) (string, error) {
	snap, err := repo.Read(ctx, seriesID)
	if err != nil {
		return "", err
	}
	if snap == nil {
		return "", nil
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(outDir, snapshot.CSVFileName(snap.SeriesID, snap.FetchDate))

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := snapshot.WriteCSV(f, snap.Records); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, f.Close()
}
