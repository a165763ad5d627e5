package catalog

import (
	"strings"

	"comicsort/pkg/models"
)

// DeriveMonthYear fills Month and Year by splitting each cover date on its
// first space ("January 2024" -> "January", "2024"). A cover date without a
// space leaves both fields empty.
func DeriveMonthYear(records []models.IssueRecord) []models.IssueRecord {
	out := make([]models.IssueRecord, len(records))
	for i, r := range records {
		r.Month, r.Year = "", ""
		if month, year, ok := strings.Cut(r.CoverDate, " "); ok {
			r.Month, r.Year = month, year
		}
		out[i] = r
	}
	return out
}
