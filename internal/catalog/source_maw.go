package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"comicsort/pkg/models"
)

const mawSeriesIssuesURL = "http://www.mikesamazingworld.com/mikes/features/comic/seriesissues.php"

// MAWSource scrapes the series issue table from Mike's Amazing World.
type MAWSource struct {
	URL    string
	Client *http.Client
}

func NewMAWSource(endpoint string, timeout time.Duration) *MAWSource {
	if endpoint == "" {
		endpoint = mawSeriesIssuesURL
	}
	return &MAWSource{
		URL:    endpoint,
		Client: &http.Client{Timeout: timeout},
	}
}

func (s *MAWSource) Name() string { return "maw" }

func (s *MAWSource) FetchSeries(ctx context.Context, seriesID string) ([]models.IssueRecord, error) {
	form := url.Values{}
	form.Set("seriesid", seriesID)
	form.Set("sortField", "date")
	form.Set("sortDir", "ASC")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("maw: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("maw: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Source: s.Name(), Code: resp.StatusCode}
	}

	records, err := parseIssueTable(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("maw: parse: %w", err)
	}
	return records, nil
}

// parseIssueTable reads every <tr> that has at least two <td> cells and takes
// the first as the issue name and the second as the cover date. Header rows
// built from <th> cells are skipped naturally.
func parseIssueTable(r io.Reader) ([]models.IssueRecord, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var out []models.IssueRecord
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			cells := rowCells(n)
			if len(cells) >= 2 {
				out = append(out, models.IssueRecord{
					IssueName: cells[0],
					CoverDate: cells[1],
				})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out, nil
}

// rowCells returns the trimmed text of the row's own <td> cells. Rows of
// nested tables are visited separately by the caller.
func rowCells(tr *html.Node) []string {
	var cells []string
	var find func(n *html.Node)
	find = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == "td" {
				cells = append(cells, strings.TrimSpace(nodeText(c)))
				continue
			}
			if c.Type == html.ElementNode && c.Data == "tr" {
				continue
			}
			find(c)
		}
	}
	find(tr)
	return cells
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return b.String()
}
