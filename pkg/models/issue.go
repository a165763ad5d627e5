package models

// IssueRecord is one row of a series catalog as scraped from the catalog
// source. Month and Year are derived from CoverDate and stay empty until
// catalog.DeriveMonthYear has run over the record.
type IssueRecord struct {
	IssueName string `json:"issue_name"`
	CoverDate string `json:"cover_date"` // e.g. "January 2024"
	Month     string `json:"month,omitempty"`
	Year      string `json:"year,omitempty"`
}

// CatalogSnapshot is the persisted copy of one fetch for a series.
// Records keep the order the catalog returned them in (ascending cover date).
type CatalogSnapshot struct {
	SeriesID  string        `json:"series_id"`
	FetchDate string        `json:"fetch_date"` // YYYY-MM-DD
	Records   []IssueRecord `json:"records"`
}

type SnapshotInfo struct {
	SeriesID   string `json:"series_id"`
	FetchDate  string `json:"fetch_date"`
	IssueCount int    `json:"issue_count"`
}
