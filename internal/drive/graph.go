package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const graphBase = "https://graph.microsoft.com/v1.0"

// Item is the subset of a Graph driveItem the pipeline reads.
type Item struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	ParentReference struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"parentReference"`
	Folder *struct {
		ChildCount int `json:"childCount"`
	} `json:"folder,omitempty"`
}

func (i Item) IsFolder() bool { return i.Folder != nil }

type itemPage struct {
	Value    []Item `json:"value"`
	NextLink string `json:"@odata.nextLink"`
}

// GraphClient talks to the signed-in user's OneDrive through Microsoft Graph.
type GraphClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewGraphClient(baseURL, token string, timeout time.Duration) *GraphClient {
	if baseURL == "" {
		baseURL = graphBase
	}
	return &GraphClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: timeout},
	}
}

// Search runs a drive-wide search and follows continuation links until the
// last page. If a page fails, the items gathered so far are returned together
// with the error.
func (g *GraphClient) Search(ctx context.Context, query string) ([]Item, error) {
	q := strings.ReplaceAll(query, "'", "''")
	endpoint := fmt.Sprintf("%s/me/drive/root/search(q='%s')?$select=name,parentReference,id,folder",
		g.BaseURL, url.PathEscape(q))

	var all []Item
	for endpoint != "" {
		var page itemPage
		if err := g.getJSON(ctx, endpoint, &page); err != nil {
			return all, fmt.Errorf("graph: search %q: %w", query, err)
		}
		all = append(all, page.Value...)
		endpoint = page.NextLink
	}
	return all, nil
}

// ListChildren lists the direct children of a folder, following paging.
func (g *GraphClient) ListChildren(ctx context.Context, folderID string) ([]Item, error) {
	endpoint := fmt.Sprintf("%s/me/drive/items/%s/children", g.BaseURL, url.PathEscape(folderID))

	var all []Item
	for endpoint != "" {
		var page itemPage
		if err := g.getJSON(ctx, endpoint, &page); err != nil {
			return nil, fmt.Errorf("graph: list children of %s: %w", folderID, err)
		}
		all = append(all, page.Value...)
		endpoint = page.NextLink
	}
	return all, nil
}

// FindFolder returns the id of the first folder whose name is exactly name,
// or "" when the search finds none.
func (g *GraphClient) FindFolder(ctx context.Context, name string) (string, error) {
	items, err := g.Search(ctx, name)
	if err != nil {
		return "", err
	}
	for _, it := range items {
		if it.Name == name && it.IsFolder() {
			return it.ID, nil
		}
	}
	return "", nil
}

// Move reparents a drive item.
func (g *GraphClient) Move(ctx context.Context, fileID, parentID string) error {
	payload := map[string]any{
		"parentReference": map[string]string{"id": parentID},
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("graph: marshal move: %w", err)
	}

	endpoint := fmt.Sprintf("%s/me/drive/items/%s", g.BaseURL, url.PathEscape(fileID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("graph: build move request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.do(req)
	if err != nil {
		return fmt.Errorf("graph: move %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("graph: move %s: status %d: %s", fileID, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func (g *GraphClient) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := g.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func (g *GraphClient) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+g.Token)
	return g.Client.Do(req)
}
