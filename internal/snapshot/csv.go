package snapshot

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"comicsort/pkg/models"
)

// Legacy CSV snapshots are named <series_id>_<YYYY-MM-DD>.csv and carry an
// "Issue Name,Cover Date" header.
var csvHeader = []string{"Issue Name", "Cover Date"}

var ErrBadCSVName = errors.New("not a snapshot csv name")

func CSVFileName(seriesID, fetchDate string) string {
	return seriesID + "_" + fetchDate + ".csv"
}

// ParseCSVFileName splits a legacy file name into series id and fetch date.
func ParseCSVFileName(name string) (seriesID, fetchDate string, err error) {
	base, ok := strings.CutSuffix(name, ".csv")
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrBadCSVName, name)
	}
	seriesID, fetchDate, ok = strings.Cut(base, "_")
	if !ok || seriesID == "" {
		return "", "", fmt.Errorf("%w: %q", ErrBadCSVName, name)
	}
	if _, err := time.Parse("2006-01-02", fetchDate); err != nil {
		return "", "", fmt.Errorf("%w: %q: bad date", ErrBadCSVName, name)
	}
	return seriesID, fetchDate, nil
}

func WriteCSV(w io.Writer, records []models.IssueRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write([]string{r.IssueName, r.CoverDate}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a legacy snapshot. Columns are found by header name, so
// extra columns are ignored.
func ReadCSV(r io.Reader) ([]models.IssueRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	nameCol, dateCol := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		case csvHeader[0]:
			nameCol = i
		case csvHeader[1]:
			dateCol = i
		}
	}
	if nameCol < 0 || dateCol < 0 {
		return nil, fmt.Errorf("header must contain %q and %q", csvHeader[0], csvHeader[1])
	}

	out := []models.IssueRecord{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(rec) <= max(nameCol, dateCol) {
			return nil, fmt.Errorf("line %d: expected %d columns, got %d", line, len(header), len(rec))
		}
		out = append(out, models.IssueRecord{
			IssueName: strings.TrimSpace(rec[nameCol]),
			CoverDate: strings.TrimSpace(rec[dateCol]),
		})
	}
	return out, nil
}
