package catalog

import (
	"context"
	"fmt"

	"comicsort/pkg/models"
)

// Source is implemented by each catalog backend. FetchSeries returns the
// series' issues sorted ascending by cover date.
type Source interface {
	Name() string
	FetchSeries(ctx context.Context, seriesID string) ([]models.IssueRecord, error)
}

// StatusError is returned when the catalog answers with a non-200 status.
type StatusError struct {
	Source string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Source, e.Code)
}
