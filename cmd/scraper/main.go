package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"comicsort/internal/catalog"
	"comicsort/internal/snapshot"
	"comicsort/pkg/database"
	"comicsort/pkg/utils"
)

func main() {
	configPath := flag.String("config", "", "TOML config file (default $COMICSORT_CONFIG)")
	source := flag.String("source", "", "catalog endpoint, overrides catalog_url (e.g. a local mirror-server)")
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatalf("usage: scraper [-config file] [-source url] <series_id>...")
	}

	cfg, err := utils.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *source != "" {
		cfg.CatalogURL = *source
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	repo := snapshot.NewRepo(db)
	store := catalog.NewStore(catalog.NewMAWSource(cfg.CatalogURL, cfg.HTTPTimeout()), repo, nil)

	for _, id := range flag.Args() {
		msg, err := scrapeSeries(ctx, store, repo, id)
		if err != nil {
			log.Fatalf("fetch %s: %v", id, err)
		}
		log.Print(msg)
	}
}

// scrapeSeries fetches one series into the store and describes the outcome.
func scrapeSeries(ctx context.Context, store *catalog.Store, repo *snapshot.Repo, id string) (string, error) {
	records, err := store.Fetch(ctx, id)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return fmt.Sprintf("%s: nothing fetched", id), nil
	}
	created, err := repo.Created(ctx, id)
	if err != nil {
		return "", fmt.Errorf("read snapshot date: %w", err)
	}
	return fmt.Sprintf("%s: %d issues stored (%s)", id, len(records), created), nil
}
