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
	"comicsort/pkg/models"
)

func main() {
	inDir := flag.String("in", "CSVs", "directory holding <series_id>_<date>.csv files")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	repo := snapshot.NewRepo(db)

	files := flag.Args()
	if len(files) == 0 {
		matches, err := filepath.Glob(filepath.Join(*inDir, "*.csv"))
		if err != nil {
			log.Fatalf("list %s: %v", *inDir, err)
		}
		files = matches
	}

	n := 0
	for _, path := range files {
		snap, err := importFile(ctx, repo, path)
		if err != nil {
			log.Printf("skip %s: %v", path, err)
			continue
		}
		log.Printf("%s: %d issues (%s)", snap.SeriesID, len(snap.Records), snap.FetchDate)
		n++
	}

	log.Printf("✅ imported %d snapshots", n)
}

// importFile replaces the stored snapshot of the file's series with the
// file's contents.
func importFile(ctx context.Context, repo *snapshot.Repo, path string) (models.CatalogSnapshot, error) {
	seriesID, fetchDate, err := snapshot.ParseCSVFileName(filepath.Base(path))
	if err != nil {
		return models.CatalogSnapshot{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return models.CatalogSnapshot{}, err
	}
	defer f.Close()

	records, err := snapshot.ReadCSV(f)
	if err != nil {
		return models.CatalogSnapshot{}, fmt.Errorf("parse: %w", err)
	}
	if len(records) == 0 {
		return models.CatalogSnapshot{}, fmt.Errorf("no issues")
	}

	snap := models.CatalogSnapshot{SeriesID: seriesID, FetchDate: fetchDate, Records: records}
	if err := repo.Write(ctx, snap); err != nil {
		return models.CatalogSnapshot{}, err
	}
	return snap, nil
}
