package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comicsort/internal/catalog"
	"comicsort/internal/drive"
	"comicsort/internal/events"
	"comicsort/pkg/models"
)

func issueNames(records []models.IssueRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.IssueName)
	}
	return out
}

func walkToPreview(t *testing.T, s *Session) []models.PreviewRow {
	t.Helper()
	ctx := context.Background()
	_, err := s.SetSeries(ctx, "4242")
	require.NoError(t, err)
	_, err = s.ApproveCatalog()
	require.NoError(t, err)
	_, err = s.Search(ctx, "Batman")
	require.NoError(t, err)
	_, err = s.ApproveFiles()
	require.NoError(t, err)
	rows, err := s.Preview()
	require.NoError(t, err)
	return rows
}

func TestSession_FullWorkflow(t *testing.T) {
	f := newFixture()
	s := f.session()
	ctx := context.Background()

	v, err := s.SetSeries(ctx, "4242")
	require.NoError(t, err)
	assert.Equal(t, StateCatalogLoaded, v.State)
	assert.Equal(t, []string{"Batman 1", "Batman 2"}, issueNames(v.Records))

	v, err = s.ApproveCatalog()
	require.NoError(t, err)
	assert.Equal(t, StateCatalogApproved, v.State)

	v, err = s.Search(ctx, "Batman")
	require.NoError(t, err)
	assert.Equal(t, StateFilesSearched, v.State)
	assert.True(t, v.TreeLoaded)
	require.Len(t, v.Files, 2)
	assert.Equal(t, "Batman 001.cbz", v.Files[0].FileName)

	v, err = s.ApproveFiles()
	require.NoError(t, err)
	assert.Equal(t, StateFilesApproved, v.State)

	rows, err := s.Preview()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "root/Comics/Monthly Packages/[Publisher]/2020/03 - March", rows[0].Destination)
	assert.Equal(t, StatePreview, s.State())

	res, err := s.Finalize(ctx, "DC")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Moved)
	assert.Zero(t, res.Skipped)
	assert.Equal(t, []models.FinalMapping{
		{FileID: "f1", DestinationID: "mar"},
		{FileID: "f2", DestinationID: "apr"},
	}, f.drive.moves)
	assert.Equal(t, StateFinalized, s.State())

	assert.Len(t, f.events.ofType(events.TypeMoved), 2)
	states := f.events.ofType(events.TypeState)
	require.NotEmpty(t, states)
	assert.Equal(t, string(StateFinalized), states[len(states)-1].State)
	assert.Equal(t, "sess-1", states[0].SessionID)
}

func TestSession_StepsOutOfOrder(t *testing.T) {
	f := newFixture()
	s := f.session()
	ctx := context.Background()

	_, err := s.AddFilter("Batman")
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = s.ApproveCatalog()
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = s.SetSeries(ctx, "4242")
	require.NoError(t, err)

	_, err = s.Search(ctx, "Batman")
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = s.RemoveEntry("Batman 001.cbz")
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = s.ApproveFiles()
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = s.Preview()
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = s.Finalize(ctx, "DC")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Zero(t, f.drive.searches)
}

func TestSession_BlankSeriesIsNoOp(t *testing.T) {
	f := newFixture()
	s := f.session()

	v, err := s.SetSeries(context.Background(), "  ")
	require.NoError(t, err)
	assert.Equal(t, StateInit, v.State)
	assert.Zero(t, f.source.calls)

	v, err = s.Refetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateInit, v.State)
	assert.Zero(t, f.source.calls)
}

func TestSession_SnapshotReusedUntilRefetch(t *testing.T) {
	f := newFixture()
	s := f.session()
	ctx := context.Background()

	_, err := s.SetSeries(ctx, "4242")
	require.NoError(t, err)
	_, err = s.SetSeries(ctx, "4242")
	require.NoError(t, err)
	assert.Equal(t, 1, f.source.calls)

	f.source.records["4242"] = append(f.source.records["4242"], models.IssueRecord{IssueName: "Batman 3", CoverDate: "May 2020"})
	v, err := s.Refetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, f.source.calls)
	assert.Equal(t, []string{"Batman 1", "Batman 2", "Batman 3"}, issueNames(v.Records))
}

func TestSession_FiltersReapplyToBase(t *testing.T) {
	f := newFixture()
	s := f.session()
	ctx := context.Background()

	_, err := s.SetSeries(ctx, "4242")
	require.NoError(t, err)

	v, err := s.AddFilter(" 2$")
	require.NoError(t, err)
	assert.Equal(t, StateCatalogFiltered, v.State)
	assert.Equal(t, []string{"Batman 1"}, issueNames(v.Records))

	_, err = s.AddFilter("([")
	assert.ErrorIs(t, err, catalog.ErrInvalidPattern)

	v, err = s.ResetFilters()
	require.NoError(t, err)
	assert.Equal(t, []string{"Batman 1", "Batman 2"}, issueNames(v.Records))
}

func TestSession_RefilterAfterApprovalNeedsReapproval(t *testing.T) {
	f := newFixture()
	s := f.session()
	ctx := context.Background()

	_, err := s.SetSeries(ctx, "4242")
	require.NoError(t, err)
	_, err = s.ApproveCatalog()
	require.NoError(t, err)
	_, err = s.Search(ctx, "Batman")
	require.NoError(t, err)

	v, err := s.AddFilter("Batman 2")
	require.NoError(t, err)
	assert.Equal(t, StateCatalogFiltered, v.State)
	assert.Len(t, v.Files, 2, "searched files survive a refilter")

	_, err = s.ApproveFiles()
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = s.ApproveCatalog()
	require.NoError(t, err)
	v, err = s.ApproveFiles()
	require.NoError(t, err)
	assert.Equal(t, StateFilesApproved, v.State)
	assert.Equal(t, 1, f.drive.searches)
}

func TestSession_EditFiles(t *testing.T) {
	f := newFixture()
	f.drive.items = append(f.drive.items, file("f3", "Batman 003.cbz"), file("f4", "Batman 004.cbz"))
	s := f.session()
	ctx := context.Background()

	_, err := s.SetSeries(ctx, "4242")
	require.NoError(t, err)
	_, err = s.ApproveCatalog()
	require.NoError(t, err)
	_, err = s.Search(ctx, "Batman")
	require.NoError(t, err)

	v, err := s.RemoveEntry("Batman 002.cbz")
	require.NoError(t, err)
	assert.Equal(t, StateFilesEdited, v.State)
	require.Len(t, v.Files, 3)

	v, err = s.TruncateAfter(3)
	require.NoError(t, err)
	require.Len(t, v.Files, 2)
	assert.Equal(t, "Batman 001.cbz", v.Files[0].FileName)
	assert.Equal(t, "Batman 003.cbz", v.Files[1].FileName)
}

func TestSession_FinalizeNeedsPublisher(t *testing.T) {
	f := newFixture()
	s := f.session()
	walkToPreview(t, s)

	_, err := s.Finalize(context.Background(), " ")
	assert.ErrorIs(t, err, ErrMissingInput)
	assert.Empty(t, f.drive.moves)
	assert.Equal(t, StatePreview, s.State())
}

func TestSession_FinalizeStopsAtFirstFailedMove(t *testing.T) {
	f := newFixture()
	f.drive.items = append(f.drive.items, file("f3", "Batman 003.cbz"))
	f.source.records["4242"] = append(f.source.records["4242"], models.IssueRecord{IssueName: "Batman 3", CoverDate: "April 2020"})
	f.drive.failMove = "f2"
	s := f.session()
	walkToPreview(t, s)

	res, err := s.Finalize(context.Background(), "DC")
	var moveErr *drive.MoveError
	require.ErrorAs(t, err, &moveErr)
	assert.Equal(t, 1, moveErr.Index)
	assert.Equal(t, 1, res.Moved)
	assert.Len(t, res.Mappings, 3)
	assert.Equal(t, []models.FinalMapping{{FileID: "f1", DestinationID: "mar"}}, f.drive.moves)
	assert.Equal(t, StatePreview, s.State())

	failed := f.events.ofType(events.TypeMoveFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, "f2", failed[0].FileID)
}

func TestSession_UnknownPublisherMovesNothing(t *testing.T) {
	f := newFixture()
	s := f.session()
	walkToPreview(t, s)

	res, err := s.Finalize(context.Background(), "Marvel")
	require.NoError(t, err)
	assert.Empty(t, res.Mappings)
	assert.Equal(t, 2, res.Skipped)
	assert.Empty(t, f.drive.moves)
}

func TestSession_RootFolderMissing(t *testing.T) {
	f := newFixture()
	f.drive.folders = map[string]string{}
	s := f.session()
	walkToPreview(t, s)
	assert.False(t, s.View().TreeLoaded)

	res, err := s.Finalize(context.Background(), "DC")
	require.NoError(t, err)
	assert.Zero(t, res.Moved)
	assert.Equal(t, 2, res.Skipped)
}

func TestSession_ConfiguredRootSkipsLookup(t *testing.T) {
	f := newFixture()
	f.drive.folders = map[string]string{}
	f.drive.children["configured"] = f.drive.children["root"]
	opts := f.options()
	opts.RootFolderID = "configured"
	s := New("sess-2", f.store, f.drive, opts)
	walkToPreview(t, s)
	assert.True(t, s.View().TreeLoaded)

	res, err := s.Finalize(context.Background(), "DC")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Moved)
}

func TestManager_StartGetEnd(t *testing.T) {
	f := newFixture()
	var tokens []string
	m := NewManager(f.store, func(token string) Drive {
		tokens = append(tokens, token)
		return f.drive
	}, f.options())

	id := m.Start("graph-token")
	assert.Equal(t, []string{"graph-token"}, tokens)
	assert.True(t, m.Exists(id))
	assert.Equal(t, 1, m.Len())

	s, ok := m.Get(id)
	require.True(t, ok)
	assert.Equal(t, id, s.ID)
	assert.Equal(t, StateInit, s.State())

	other := m.Start("graph-token")
	assert.NotEqual(t, id, other)

	assert.True(t, m.End(id))
	assert.False(t, m.End(id))
	assert.False(t, m.Exists(id))
	assert.Equal(t, 1, m.Len())
}

func TestSession_FinalizeNeedsFreshPreview(t *testing.T) {
	f := newFixture()
	s := f.session()
	walkToPreview(t, s)
	ctx := context.Background()

	_, err := s.Finalize(ctx, "DC")
	require.NoError(t, err)
	require.Len(t, f.drive.moves, 2)

	_, err = s.Finalize(ctx, "DC")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Len(t, f.drive.moves, 2, "a second finalize must not move anything")

	_, err = s.Preview()
	require.NoError(t, err)
	_, err = s.Finalize(ctx, "DC")
	require.NoError(t, err)
	assert.Len(t, f.drive.moves, 4)
}

func TestSession_PreviewPairsFilesInNameOrder(t *testing.T) {
	f := newFixture()
	f.source.records["4242"] = []models.IssueRecord{
		{IssueName: "Batman 1", CoverDate: "March 2020"},
		{IssueName: "Batman 1 [Variant]", CoverDate: "March 2020"},
		{IssueName: "Batman 2", CoverDate: "April 2020"},
		{IssueName: "Batman Annual 1", CoverDate: "April 2020"},
		{IssueName: "Batman 3", CoverDate: "May 2020"},
	}
	f.drive.items = []drive.Item{
		file("f3", "Batman 003.cbz"),
		file("f1", "Batman 001.cbz"),
		file("f2", "Batman 002.cbz"),
	}
	f.drive.children["dc2020"] = append(f.drive.children["dc2020"], folder("may", "05 - May"))
	s := f.session()

	rows := walkToPreview(t, s)
	require.Len(t, rows, 3)
	assert.Equal(t, []models.PreviewRow{
		{FileName: "Batman 001.cbz", IssueName: "Batman 1", CoverDate: "March 2020", Destination: "root/Comics/Monthly Packages/[Publisher]/2020/03 - March"},
		{FileName: "Batman 002.cbz", IssueName: "Batman 2", CoverDate: "April 2020", Destination: "root/Comics/Monthly Packages/[Publisher]/2020/04 - April"},
		{FileName: "Batman 003.cbz", IssueName: "Batman 3", CoverDate: "May 2020", Destination: "root/Comics/Monthly Packages/[Publisher]/2020/05 - May"},
	}, rows)

	res, err := s.Finalize(context.Background(), "DC")
	require.NoError(t, err)
	assert.Equal(t, []models.FinalMapping{
		{FileID: "f1", DestinationID: "mar"},
		{FileID: "f2", DestinationID: "apr"},
		{FileID: "f3", DestinationID: "may"},
	}, res.Mappings)
}
