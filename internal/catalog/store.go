package catalog

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"comicsort/pkg/models"
)

const dateLayout = "2006-01-02"

// SnapshotStore persists at most one catalog snapshot per series.
type SnapshotStore interface {
	Exists(ctx context.Context, seriesID string) (bool, error)
	Read(ctx context.Context, seriesID string) (*models.CatalogSnapshot, error)
	Write(ctx context.Context, snap models.CatalogSnapshot) error
	Delete(ctx context.Context, seriesID string) error
}

// Store loads series catalogs, preferring a stored snapshot over a scrape.
type Store struct {
	Source    Source
	Snapshots SnapshotStore
	Logger    *log.Logger
	Now       func() time.Time
}

func NewStore(src Source, snapshots SnapshotStore, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{Source: src, Snapshots: snapshots, Logger: logger, Now: time.Now}
}

// Load returns the stored snapshot for seriesID as is, or fetches a fresh one
// when none exists. A blank series id is logged and yields nothing.
func (s *Store) Load(ctx context.Context, seriesID string) ([]models.IssueRecord, error) {
	seriesID = strings.TrimSpace(seriesID)
	if seriesID == "" {
		s.Logger.Printf("[catalog] series id has not been set")
		return nil, nil
	}

	ok, err := s.Snapshots.Exists(ctx, seriesID)
	if err != nil {
		return nil, fmt.Errorf("check snapshot %s: %w", seriesID, err)
	}
	if !ok {
		return s.Fetch(ctx, seriesID)
	}

	snap, err := s.Snapshots.Read(ctx, seriesID)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", seriesID, err)
	}
	if snap == nil {
		return s.Fetch(ctx, seriesID)
	}
	s.Logger.Printf("[catalog] loaded snapshot %s from %s (%d issues)", seriesID, snap.FetchDate, len(snap.Records))
	return snap.Records, nil
}

// Fetch scrapes seriesID and replaces its snapshot with the result. The old
// snapshot is deleted only once the source has answered: a source failure is
// logged, returns no records and leaves the old snapshot in place for the
// next Load. A successful scrape with no issues still deletes it.
func (s *Store) Fetch(ctx context.Context, seriesID string) ([]models.IssueRecord, error) {
	seriesID = strings.TrimSpace(seriesID)
	if seriesID == "" {
		s.Logger.Printf("[catalog] series id has not been set")
		return nil, nil
	}

	s.Logger.Printf("[catalog] fetching %s from %s", seriesID, s.Source.Name())
	records, err := s.Source.FetchSeries(ctx, seriesID)
	if err != nil {
		s.Logger.Printf("[catalog] source %s error for %s: %v", s.Source.Name(), seriesID, err)
		return []models.IssueRecord{}, nil
	}

	if err := s.Snapshots.Delete(ctx, seriesID); err != nil {
		return nil, fmt.Errorf("delete snapshot %s: %w", seriesID, err)
	}

	if len(records) == 0 {
		s.Logger.Printf("[catalog] %s returned no issues; nothing written", seriesID)
		return []models.IssueRecord{}, nil
	}

	snap := models.CatalogSnapshot{
		SeriesID:  seriesID,
		FetchDate: s.Now().Format(dateLayout),
		Records:   records,
	}
	if err := s.Snapshots.Write(ctx, snap); err != nil {
		return nil, fmt.Errorf("write snapshot %s: %w", seriesID, err)
	}
	s.Logger.Printf("[catalog] stored %s for %s (%d issues)", seriesID, snap.FetchDate, len(records))
	return records, nil
}
