package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"comicsort/internal/catalog"
	"comicsort/internal/snapshot"
	"comicsort/pkg/database"
)

// export-mirror renders stored snapshots as catalog pages for mirror-server.
func main() {
	outDir := flag.String("out", "data/mirror", "directory to write <series_id>.html pages into")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	repo := snapshot.NewRepo(db)
	infos, err := repo.List(ctx)
	if err != nil {
		log.Fatalf("list snapshots: %v", err)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("mkdir failed: %v", err)
	}

	for _, info := range infos {
		snap, err := repo.Read(ctx, info.SeriesID)
		if err != nil {
			log.Fatalf("read %s: %v", info.SeriesID, err)
		}
		if snap == nil {
			continue
		}

		path := filepath.Join(*outDir, snap.SeriesID+".html")
		f, err := os.Create(path)
		if err != nil {
			log.Fatalf("create %s: %v", path, err)
		}
		if err := catalog.RenderIssueTable(f, snap.SeriesID, snap.Records); err != nil {
			f.Close()
			log.Fatalf("render %s: %v", path, err)
		}
		if err := f.Close(); err != nil {
			log.Fatalf("close %s: %v", path, err)
		}
	}

	log.Printf("✅ exported %d series pages to %s", len(infos), *outDir)
}
