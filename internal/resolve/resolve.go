// Package resolve pairs sorted drive files with filtered catalog issues and
// turns each pair into a destination folder.
//
// Pairing is by position only: file i goes with issue i. Both lists must
// already be in the same logical order (files by name, issues by cover date)
// before they reach this package.
package resolve

import (
	"fmt"
	"log"

	"comicsort/pkg/models"
)

const DefaultRootLabel = "root/Comics/Monthly Packages"

// Resolve looks up publisher/year/month for every positional pair and returns
// the mappings it could resolve. Misses are logged and skipped.
func Resolve(files []models.DriveFile, records []models.IssueRecord, publisher string, tree *models.FolderNode, logger *log.Logger) []models.FinalMapping {
	if logger == nil {
		logger = log.Default()
	}
	warnMismatch(len(files), len(records), logger)

	out := []models.FinalMapping{}
	if tree == nil {
		logger.Printf("[resolve] folder tree has not been built")
		return out
	}

	n := min(len(files), len(records))
	for i := 0; i < n; i++ {
		rec := records[i]
		month := FormatMonth(rec.Month)

		pub, ok := tree.Child(publisher)
		if !ok {
			logger.Printf("[resolve] publisher %q not found in the folder structure", publisher)
			continue
		}
		year, ok := pub.Child(rec.Year)
		if !ok {
			logger.Printf("[resolve] year %q not found in the folder structure", rec.Year)
			continue
		}
		dest, ok := year.Child(month)
		if !ok {
			logger.Printf("[resolve] month %q not found in the folder structure", month)
			continue
		}

		out = append(out, models.FinalMapping{
			FileID:        files[i].FileID,
			DestinationID: dest.FolderID,
		})
	}
	return out
}

// Preview describes each positional pair for review before any folder is
// looked up. The publisher is left as a placeholder since it is chosen later.
func Preview(files []models.DriveFile, records []models.IssueRecord, rootLabel string) []models.PreviewRow {
	if rootLabel == "" {
		rootLabel = DefaultRootLabel
	}

	n := min(len(files), len(records))
	rows := make([]models.PreviewRow, 0, n)
	for i := 0; i < n; i++ {
		rec := records[i]
		rows = append(rows, models.PreviewRow{
			FileName:    files[i].FileName,
			IssueName:   rec.IssueName,
			CoverDate:   rec.CoverDate,
			Destination: fmt.Sprintf("%s/[Publisher]/%s/%s", rootLabel, rec.Year, FormatMonth(rec.Month)),
		})
	}
	return rows
}

func warnMismatch(files, records int, logger *log.Logger) {
	if files != records {
		logger.Printf("[resolve] WARNING: %d files vs %d catalog issues; only the first %d pairs are used",
			files, records, min(files, records))
	}
}
