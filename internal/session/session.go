package session

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"comicsort/internal/catalog"
	"comicsort/internal/drive"
	"comicsort/internal/events"
	"comicsort/internal/resolve"
	"comicsort/pkg/models"
)

// Drive is the slice of the Graph client a session works with.
type Drive interface {
	drive.Lister
	drive.Mover
	Search(ctx context.Context, query string) ([]drive.Item, error)
	FindFolder(ctx context.Context, name string) (string, error)
}

type Options struct {
	// RootFolderID, when set, skips the folder-name lookup.
	RootFolderID     string
	RootFolderName   string
	DestinationLabel string
	Logger           *log.Logger
	Events           events.Publisher
}

func (o Options) withDefaults() Options {
	if o.RootFolderName == "" {
		o.RootFolderName = "Monthly Packages"
	}
	if o.DestinationLabel == "" {
		o.DestinationLabel = resolve.DefaultRootLabel
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return o
}

// Session is one operator's walk through the reconciliation workflow.
type Session struct {
	ID        string
	CreatedAt time.Time

	catalog *catalog.Store
	drive   Drive
	opts    Options

	mu       sync.Mutex
	state    State
	seriesID string
	base     []models.IssueRecord
	records  []models.IssueRecord
	filter   *catalog.Filter
	files    *drive.FileSet
	tree     *models.FolderNode
}

func New(id string, store *catalog.Store, d Drive, opts Options) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now(),
		catalog:   store,
		drive:     d,
		opts:      opts.withDefaults(),
		state:     StateInit,
		filter:    catalog.NewFilter(),
	}
}

type View struct {
	ID         string               `json:"id"`
	State      State                `json:"state"`
	SeriesID   string               `json:"series_id,omitempty"`
	Filters    []string             `json:"filters"`
	Records    []models.IssueRecord `json:"records"`
	Files      []models.DriveFile   `json:"files"`
	TreeLoaded bool                 `json:"tree_loaded"`
	CreatedAt  time.Time            `json:"created_at"`
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

func (s *Session) view() View {
	v := View{
		ID:         s.ID,
		State:      s.state,
		SeriesID:   s.seriesID,
		Filters:    s.filter.Patterns(),
		Records:    append([]models.IssueRecord{}, s.records...),
		Files:      []models.DriveFile{},
		TreeLoaded: s.tree != nil,
		CreatedAt:  s.CreatedAt,
	}
	if s.files != nil {
		v.Files = s.files.Files()
	}
	return v
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetSeries loads the catalog for seriesID, from its snapshot when one exists.
func (s *Session) SetSeries(ctx context.Context, seriesID string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seriesID = strings.TrimSpace(seriesID)
	if seriesID == "" {
		s.logf("series id has not been set")
		return s.view(), nil
	}

	base, err := s.catalog.Load(ctx, seriesID)
	if err != nil {
		return s.view(), fmt.Errorf("load catalog: %w", err)
	}
	s.seriesID = seriesID
	s.base = base
	s.records = s.filter.Apply(base)
	s.setState(StateCatalogLoaded)
	return s.view(), nil
}

// Refetch scrapes the series again, replacing its snapshot.
func (s *Session) Refetch(ctx context.Context) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seriesID == "" {
		s.logf("series id has not been set")
		return s.view(), nil
	}

	base, err := s.catalog.Fetch(ctx, s.seriesID)
	if err != nil {
		return s.view(), fmt.Errorf("fetch catalog: %w", err)
	}
	s.base = base
	s.records = s.filter.Apply(base)
	s.setState(StateCatalogLoaded)
	return s.view(), nil
}

// AddFilter excludes issues matching pattern. Any later approval has to be
// given again.
func (s *Session) AddFilter(pattern string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.AtLeast(StateCatalogLoaded) {
		return s.view(), ErrInvalidState
	}
	if err := s.filter.Add(pattern); err != nil {
		return s.view(), err
	}
	s.refilter()
	return s.view(), nil
}

// ResetFilters drops user patterns and restores the default filter.
func (s *Session) ResetFilters() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.AtLeast(StateCatalogLoaded) {
		return s.view(), ErrInvalidState
	}
	s.filter.Reset()
	s.refilter()
	return s.view(), nil
}

func (s *Session) refilter() {
	s.records = s.filter.Apply(s.base)
	s.setState(StateCatalogFiltered)
}

func (s *Session) ApproveCatalog() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.AtLeast(StateCatalogLoaded) {
		return s.view(), ErrInvalidState
	}
	s.setState(StateCatalogApproved)
	return s.view(), nil
}

// Search replaces the file set with the drive files matching query. The
// folder tree is built the first time a search runs.
func (s *Session) Search(ctx context.Context, query string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.AtLeast(StateCatalogApproved) {
		return s.view(), ErrInvalidState
	}
	query = strings.TrimSpace(query)
	if query == "" {
		s.logf("search query is empty")
		return s.view(), nil
	}

	items, err := s.drive.Search(ctx, query)
	if err != nil {
		s.logf("search %q stopped early, using %d items: %v", query, len(items), err)
	}
	s.files = drive.NewFileSet(items)
	s.logf("search %q found %d files", query, s.files.Len())

	s.ensureTree(ctx)
	s.setState(StateFilesSearched)
	return s.view(), nil
}

func (s *Session) ensureTree(ctx context.Context) {
	if s.tree != nil {
		return
	}

	rootID := s.opts.RootFolderID
	if rootID == "" {
		id, err := s.drive.FindFolder(ctx, s.opts.RootFolderName)
		if err != nil {
			s.logf("find root folder %q: %v", s.opts.RootFolderName, err)
		}
		if id == "" {
			s.logf("root folder %q not found; folder tree not built", s.opts.RootFolderName)
			return
		}
		rootID = id
	}
	s.tree = drive.BuildTree(ctx, s.drive, rootID, s.opts.Logger)
}

func (s *Session) RemoveEntry(fileName string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireFiles(); err != nil {
		return s.view(), err
	}
	s.files.Remove(fileName)
	s.setState(StateFilesEdited)
	return s.view(), nil
}

// TruncateAfter keeps the first index-1 files.
func (s *Session) TruncateAfter(index int) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireFiles(); err != nil {
		return s.view(), err
	}
	s.files.TruncateAfter(index)
	s.setState(StateFilesEdited)
	return s.view(), nil
}

func (s *Session) ApproveFiles() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireFiles(); err != nil {
		return s.view(), err
	}
	if n, m := s.files.Len(), len(s.records); n != m {
		s.logf("WARNING: approving %d files against %d catalog issues", n, m)
	}
	s.setState(StateFilesApproved)
	return s.view(), nil
}

// requireFiles lets file edits through once a search has run, even if the
// catalog was refiltered since.
func (s *Session) requireFiles() error {
	if s.files == nil || !s.state.AtLeast(StateCatalogApproved) {
		return ErrInvalidState
	}
	return nil
}

func (s *Session) Preview() ([]models.PreviewRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.AtLeast(StateFilesApproved) {
		return nil, ErrInvalidState
	}
	s.records = catalog.DeriveMonthYear(s.records)
	rows := resolve.Preview(s.files.Files(), s.records, s.opts.DestinationLabel)
	s.setState(StatePreview)
	return rows, nil
}

type FinalizeResult struct {
	Mappings []models.FinalMapping `json:"mappings"`
	Moved    int                   `json:"moved"`
	// Skipped counts pairs that had no destination folder.
	Skipped int `json:"skipped"`
}

// Finalize resolves a destination for every pair and moves the files. The
// first failed move ends the batch with a *drive.MoveError and leaves the
// session in preview so the batch can be retried.
func (s *Session) Finalize(ctx context.Context, publisher string) (FinalizeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// only straight after a preview; a finalized session needs a new preview
	// before it moves anything again
	if s.state != StatePreview {
		return FinalizeResult{}, ErrInvalidState
	}
	publisher = strings.TrimSpace(publisher)
	if publisher == "" {
		s.logf("publisher has not been set")
		return FinalizeResult{}, ErrMissingInput
	}

	s.ensureTree(ctx)
	s.records = catalog.DeriveMonthYear(s.records)
	files := s.files.Files()
	mappings := resolve.Resolve(files, s.records, publisher, s.tree, s.opts.Logger)

	res := FinalizeResult{
		Mappings: mappings,
		Skipped:  min(len(files), len(s.records)) - len(mappings),
	}

	moved, err := drive.ExecuteMoves(ctx, s.drive, mappings, func(m models.FinalMapping) {
		s.publish(events.Event{Type: events.TypeMoved, FileID: m.FileID, DestinationID: m.DestinationID})
	})
	res.Moved = moved
	if err != nil {
		s.logf("finalize stopped after %d of %d moves: %v", moved, len(mappings), err)
		s.publish(events.Event{Type: events.TypeMoveFailed, FileID: mappings[moved].FileID, Message: err.Error()})
		return res, err
	}

	s.logf("finalized %d moves (%d skipped)", moved, res.Skipped)
	s.setState(StateFinalized)
	return res, nil
}

func (s *Session) setState(st State) {
	s.state = st
	s.publish(events.Event{Type: events.TypeState, State: string(st)})
}

func (s *Session) publish(e events.Event) {
	if s.opts.Events == nil {
		return
	}
	e.SessionID = s.ID
	e.At = time.Now().UTC()
	s.opts.Events.Publish(e)
}

func (s *Session) logf(format string, args ...any) {
	s.opts.Logger.Printf("[session] %s: "+format, append([]any{s.ID}, args...)...)
}
