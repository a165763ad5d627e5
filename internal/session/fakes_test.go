package session

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"

	"comicsort/internal/catalog"
	"comicsort/internal/drive"
	"comicsort/internal/events"
	"comicsort/pkg/models"
)

var quiet = log.New(io.Discard, "", 0)

type fakeSource struct {
	records map[string][]models.IssueRecord
	calls   int
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) FetchSeries(ctx context.Context, id string) ([]models.IssueRecord, error) {
	f.calls++
	return f.records[id], nil
}

type memSnapshots struct {
	snaps map[string]models.CatalogSnapshot
}

func (m *memSnapshots) Exists(ctx context.Context, id string) (bool, error) {
	_, ok := m.snaps[id]
	return ok, nil
}

func (m *memSnapshots) Read(ctx context.Context, id string) (*models.CatalogSnapshot, error) {
	s, ok := m.snaps[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memSnapshots) Write(ctx context.Context, s models.CatalogSnapshot) error {
	m.snaps[s.SeriesID] = s
	return nil
}

func (m *memSnapshots) Delete(ctx context.Context, id string) error {
	delete(m.snaps, id)
	return nil
}

type fakeDrive struct {
	mu       sync.Mutex
	items    []drive.Item
	children map[string][]drive.Item
	folders  map[string]string
	failMove string
	moves    []models.FinalMapping
	searches int
}

func (f *fakeDrive) Search(ctx context.Context, q string) ([]drive.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches++
	return f.items, nil
}

func (f *fakeDrive) ListChildren(ctx context.Context, id string) ([]drive.Item, error) {
	return f.children[id], nil
}

func (f *fakeDrive) FindFolder(ctx context.Context, name string) (string, error) {
	return f.folders[name], nil
}

func (f *fakeDrive) Move(ctx context.Context, fileID, parentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if fileID == f.failMove {
		return errors.New("403 forbidden")
	}
	f.moves = append(f.moves, models.FinalMapping{FileID: fileID, DestinationID: parentID})
	return nil
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) ofType(t string) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func file(id, name string) drive.Item {
	return drive.Item{ID: id, Name: name}
}

func folder(id, name string) drive.Item {
	it := drive.Item{ID: id, Name: name}
	it.Folder = &struct {
		ChildCount int `json:"childCount"`
	}{}
	return it
}

// fixture is series "4242": two monthly issues and an annual the default
// filter drops, with a DC/2020 folder tree under "Monthly Packages".
type fixture struct {
	source *fakeSource
	snaps  *memSnapshots
	store  *catalog.Store
	drive  *fakeDrive
	events *recorder
}

func newFixture() *fixture {
	src := &fakeSource{records: map[string][]models.IssueRecord{
		"4242": {
			{IssueName: "Batman 1", CoverDate: "March 2020"},
			{IssueName: "Batman Annual 1", CoverDate: "March 2020"},
			{IssueName: "Batman 2", CoverDate: "April 2020"},
		},
	}}
	snaps := &memSnapshots{snaps: map[string]models.CatalogSnapshot{}}
	d := &fakeDrive{
		items: []drive.Item{
			file("f2", "Batman 002.cbz"),
			file("f1", "Batman 001.cbz"),
		},
		folders: map[string]string{"Monthly Packages": "root"},
		children: map[string][]drive.Item{
			"root":    {folder("dc", "DC"), file("readme", "readme.txt")},
			"dc":      {folder("dc2020", "2020")},
			"dc2020":  {folder("mar", "03 - March"), folder("apr", "04 - April")},
			"mar":     {},
			"apr":     {},
			"unknown": {},
		},
	}
	return &fixture{
		source: src,
		snaps:  snaps,
		store:  catalog.NewStore(src, snaps, quiet),
		drive:  d,
		events: &recorder{},
	}
}

func (f *fixture) options() Options {
	return Options{Logger: quiet, Events: f.events}
}

func (f *fixture) session() *Session {
	return New("sess-1", f.store, f.drive, f.options())
}
