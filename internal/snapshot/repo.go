package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"comicsort/pkg/models"
)

// Repo stores catalog snapshots in sqlite. Writing a snapshot replaces every
// earlier snapshot of the same series, so a series has at most one.
type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) Exists(ctx context.Context, seriesID string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM catalog_snapshots WHERE series_id = ?
	`, seriesID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count snapshots: %w", err)
	}
	return n > 0, nil
}

// Created returns the fetch date of the stored snapshot, or "" if none.
func (r *Repo) Created(ctx context.Context, seriesID string) (string, error) {
	var date string
	err := r.DB.QueryRowContext(ctx, `
		SELECT fetch_date FROM catalog_snapshots
		WHERE series_id = ?
		ORDER BY fetch_date DESC
		LIMIT 1
	`, seriesID).Scan(&date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("snapshot date: %w", err)
	}
	return date, nil
}

// Read returns the latest snapshot for seriesID with issues in stored order,
// or nil when the series has none.
func (r *Repo) Read(ctx context.Context, seriesID string) (*models.CatalogSnapshot, error) {
	date, err := r.Created(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	if date == "" {
		return nil, nil
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT issue_name, cover_date
		FROM catalog_issues
		WHERE series_id = ? AND fetch_date = ?
		ORDER BY position ASC
	`, seriesID, date)
	if err != nil {
		return nil, fmt.Errorf("read issues: %w", err)
	}
	defer rows.Close()

	snap := &models.CatalogSnapshot{
		SeriesID:  seriesID,
		FetchDate: date,
		Records:   []models.IssueRecord{},
	}
	for rows.Next() {
		var rec models.IssueRecord
		if err := rows.Scan(&rec.IssueName, &rec.CoverDate); err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		snap.Records = append(snap.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return snap, nil
}

func (r *Repo) Write(ctx context.Context, snap models.CatalogSnapshot) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := deleteSeries(ctx, tx, snap.SeriesID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO catalog_snapshots (series_id, fetch_date) VALUES (?, ?)
	`, snap.SeriesID, snap.FetchDate); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO catalog_issues (series_id, fetch_date, position, issue_name, cover_date)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	for i, rec := range snap.Records {
		if _, err := stmt.ExecContext(ctx, snap.SeriesID, snap.FetchDate, i, rec.IssueName, rec.CoverDate); err != nil {
			return fmt.Errorf("insert issue %d of %s: %w", i, snap.SeriesID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, seriesID string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := deleteSeries(ctx, tx, seriesID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// List returns one entry per stored snapshot, newest series fetch first.
func (r *Repo) List(ctx context.Context) ([]models.SnapshotInfo, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT s.series_id, s.fetch_date, COUNT(i.position)
		FROM catalog_snapshots s
		LEFT JOIN catalog_issues i
		  ON i.series_id = s.series_id AND i.fetch_date = s.fetch_date
		GROUP BY s.series_id, s.fetch_date
		ORDER BY s.fetch_date DESC, s.series_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	out := []models.SnapshotInfo{}
	for rows.Next() {
		var info models.SnapshotInfo
		if err := rows.Scan(&info.SeriesID, &info.FetchDate, &info.IssueCount); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func deleteSeries(ctx context.Context, tx *sql.Tx, seriesID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM catalog_issues WHERE series_id = ?`, seriesID); err != nil {
		return fmt.Errorf("delete issues: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM catalog_snapshots WHERE series_id = ?`, seriesID); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}
