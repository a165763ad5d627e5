package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"comicsort/internal/session"
	"comicsort/pkg/models"
)

func renderView(w io.Writer, v session.View) {
	fmt.Fprintf(w, "session %s  state: %s", v.ID, v.State)
	if v.SeriesID != "" {
		fmt.Fprintf(w, "  series: %s", v.SeriesID)
	}
	fmt.Fprintln(w)
	if len(v.Filters) > 0 {
		fmt.Fprintf(w, "filters: %s\n", strings.Join(v.Filters, "  "))
	}

	if len(v.Records) > 0 {
		fmt.Fprintln(w, renderRecords(v.Records))
	}
	if len(v.Files) > 0 {
		fmt.Fprintln(w, renderFiles(v.Files))
	}
	if n, m := len(v.Files), len(v.Records); n > 0 && n != m {
		fmt.Fprintf(w, "warning: %d files vs %d catalog issues\n", n, m)
	}
}

func renderRecords(records []models.IssueRecord) string {
	rows := make([][]string, 0, len(records))
	for i, r := range records {
		rows = append(rows, []string{strconv.Itoa(i + 1), r.IssueName, r.CoverDate})
	}
	return renderTable([]string{"#", "Issue Name", "Cover Date"}, rows, []columnAlignment{alignRight})
}

// renderFiles numbers rows from 1, the index truncate expects.
func renderFiles(files []models.DriveFile) string {
	rows := make([][]string, 0, len(files))
	for i, f := range files {
		rows = append(rows, []string{strconv.Itoa(i + 1), f.FileName, f.FolderName})
	}
	return renderTable([]string{"#", "File Name", "Folder"}, rows, []columnAlignment{alignRight})
}

func renderPreview(rows []models.PreviewRow) string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{r.FileName, r.IssueName, r.CoverDate, r.Destination})
	}
	return renderTable([]string{"File Name", "Issue Name", "Cover Date", "Destination"}, out, nil)
}

func renderSnapshots(items []models.SnapshotInfo) string {
	rows := make([][]string, 0, len(items))
	for _, s := range items {
		rows = append(rows, []string{s.SeriesID, s.FetchDate, strconv.Itoa(s.IssueCount)})
	}
	return renderTable([]string{"Series", "Fetched", "Issues"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight})
}

func renderFinalize(w io.Writer, res session.FinalizeResult) {
	fmt.Fprintf(w, "moved %d of %d files", res.Moved, len(res.Mappings))
	if res.Skipped > 0 {
		fmt.Fprintf(w, " (%d without a destination folder)", res.Skipped)
	}
	fmt.Fprintln(w)
}
