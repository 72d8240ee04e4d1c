package explorer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openlibrary-explorer/internal/cache"
	"openlibrary-explorer/internal/explorer"
	"openlibrary-explorer/internal/logger"
	"openlibrary-explorer/internal/models"
	"openlibrary-explorer/mocks"
)

const duneBody = `{
  "numFound": 2,
  "start": 0,
  "docs": [
    {"title": "Dune", "author_name": ["Herbert, Frank"], "person": []},
    {"title": "Dune Messiah", "author_name": ["Herbert, Frank"], "person": ["Paul"]}
  ]
}`

const variedAuthorsBody = `{
  "numFound": 6,
  "docs": [
    {"title": "The Hobbit", "author_name": ["J.R.R. Tolkien"]},
    {"title": "The Silmarillion", "author_name": ["J.R.R. Tolkien"]},
    {"title": "Narnia", "author_name": ["C.S. Lewis"]},
    {"title": "Earthsea", "author_name": ["Ursula K. Le Guin"]},
    {"title": "Unfinished Tales", "author_name": ["J.R.R. Tolkien"], "person": ["Tuor", "Turin"]},
    {"title": "Perelandra", "author_name": ["C.S. Lewis"]}
  ]
}`

func fixedClock() func() time.Time {
	t0 := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return func() time.Time { return t0 }
}

func query(facet models.Facet) models.Query {
	return models.Query{Text: "dune", Facet: facet, Limit: 100, TopWords: 10}
}

type fixture struct {
	searcher *mocks.MockSearcher
	events   *mocks.MockEventProducer
	cache    *cache.MemoryCache
	svc      *explorer.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := &fixture{
		searcher: mocks.NewMockSearcher(ctrl),
		events:   mocks.NewMockEventProducer(ctrl),
		cache:    cache.NewMemoryCache(),
	}
	f.svc = explorer.NewService(f.searcher, f.cache, nil,
		explorer.WithEvents(f.events, time.Second),
		explorer.WithClock(fixedClock()))
	return f
}

func (f *fixture) expectEvent(t *testing.T, outcome string, kind explorer.Kind) {
	t.Helper()
	f.events.EXPECT().WriteEvent(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, ev models.SearchEvent) error {
		if ev.Outcome != outcome || ev.ErrorKind != string(kind) {
			t.Errorf("unexpected event outcome=%s kind=%s, want %s/%s", ev.Outcome, ev.ErrorKind, outcome, kind)
		}
		return nil
	})
}

func TestRunProducesReport(t *testing.T) {
	f := newFixture(t)
	q := query(models.FacetAnywhere)
	f.searcher.EXPECT().Search(gomock.Any(), q).Return([]byte(duneBody), nil)
	f.expectEvent(t, "ok", "")

	ctx := logger.ContextWithID(context.Background(), "req-1")
	report, err := f.svc.Run(ctx, q)
	require.NoError(t, err)

	assert.Equal(t, "req-1", report.RequestID)
	assert.Empty(t, report.Warning)
	assert.Equal(t, 2, report.NumFound)
	assert.Equal(t, 2, report.Rows)
	assert.False(t, report.Cached)
	assert.Equal(t, []models.WordFrequency{{Word: "dune", Count: 2}, {Word: "messiah", Count: 1}}, report.TopWords)

	require.Len(t, report.Characters, 2)
	assert.Equal(t, 0, report.Characters[0].CharactersNum)
	assert.Equal(t, 1, report.Characters[1].CharactersNum)
	assert.Equal(t, "Herbert, Frank", report.Characters[1].AuthorName)

	require.NotNil(t, report.Matches)
	assert.Equal(t, `Most relevant matches for "dune" in Anywhere:`, report.Matches.Heading)
	assert.Len(t, report.Matches.Preview, 2)
	assert.Empty(t, report.Matches.Authors)
	assert.JSONEq(t, duneBody, string(report.RawJSON))
}

func TestRunMemoizesByQueryTriple(t *testing.T) {
	f := newFixture(t)
	q := query(models.FacetTitles)
	f.searcher.EXPECT().Search(gomock.Any(), gomock.Any()).Return([]byte(duneBody), nil).Times(1)
	f.events.EXPECT().WriteEvent(gomock.Any(), gomock.Any()).Return(nil).Times(3)

	first, err := f.svc.Run(context.Background(), q)
	require.NoError(t, err)

	// Top words are not part of the key.
	q.TopWords = 1
	second, err := f.svc.Run(context.Background(), q)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Len(t, second.TopWords, 1)

	q.TopWords = 10
	third, err := f.svc.Run(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, first.TopWords, third.TopWords)
	assert.Equal(t, first.Characters, third.Characters)
	assert.Equal(t, first.Matches, third.Matches)
	assert.Equal(t, 1, f.cache.Len())
}

func TestRunEmptyDocsWarns(t *testing.T) {
	f := newFixture(t)
	f.searcher.EXPECT().Search(gomock.Any(), gomock.Any()).Return([]byte(`{"numFound":0,"docs":[]}`), nil)
	f.expectEvent(t, "warning", explorer.KindEmpty)

	report, err := f.svc.Run(context.Background(), query(models.FacetAuthors))
	require.NoError(t, err)
	assert.Equal(t, explorer.NoResultsWarning, report.Warning)
	assert.Empty(t, report.TopWords)
	assert.Empty(t, report.Characters)
	assert.Nil(t, report.Matches)
	assert.Nil(t, report.RawJSON)
}

func TestRunMalformedWarns(t *testing.T) {
	f := newFixture(t)
	f.searcher.EXPECT().Search(gomock.Any(), gomock.Any()).Return([]byte(`{"numFound":3}`), nil)
	f.expectEvent(t, "warning", explorer.KindMalformed)

	report, err := f.svc.Run(context.Background(), query(models.FacetAnywhere))
	require.NoError(t, err)
	assert.Equal(t, explorer.NoResultsWarning, report.Warning)
	assert.Nil(t, report.Matches)
}

func TestRunTransportFailure(t *testing.T) {
	f := newFixture(t)
	q := query(models.FacetAnywhere)
	f.searcher.EXPECT().Search(gomock.Any(), q).Return(nil, errors.New("connection reset")).Times(2)
	f.events.EXPECT().WriteEvent(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	for i := 0; i < 2; i++ {
		report, err := f.svc.Run(context.Background(), q)
		require.Error(t, err)
		assert.Nil(t, report)
		assert.Equal(t, explorer.KindTransport, explorer.KindOf(err))
	}
	assert.Equal(t, 0, f.cache.Len(), "failures must not be memoized")
}

func TestRunNonJSONBodyIsTransportFailure(t *testing.T) {
	f := newFixture(t)
	f.searcher.EXPECT().Search(gomock.Any(), gomock.Any()).Return([]byte(`<html>maintenance</html>`), nil)
	f.expectEvent(t, "error", explorer.KindTransport)

	_, err := f.svc.Run(context.Background(), query(models.FacetAnywhere))
	require.Error(t, err)
	assert.Equal(t, explorer.KindTransport, explorer.KindOf(err))
	assert.Equal(t, 0, f.cache.Len())
}

func TestRunInvalidQuery(t *testing.T) {
	f := newFixture(t)
	f.searcher.EXPECT().Search(gomock.Any(), gomock.Any()).Times(0)
	f.expectEvent(t, "error", explorer.KindInvalid)

	q := query(models.FacetAnywhere)
	q.Limit = 10
	_, err := f.svc.Run(context.Background(), q)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidQuery))
	assert.Equal(t, explorer.KindInvalid, explorer.KindOf(err))
}

func TestRunAuthorsFacet(t *testing.T) {
	f := newFixture(t)
	f.searcher.EXPECT().Search(gomock.Any(), gomock.Any()).Return([]byte(variedAuthorsBody), nil)
	f.expectEvent(t, "ok", "")

	report, err := f.svc.Run(context.Background(), query(models.FacetAuthors))
	require.NoError(t, err)
	require.NotNil(t, report.Matches)
	assert.Equal(t, `Best matches for "dune" in Authors:`, report.Matches.Heading)
	assert.Empty(t, report.Matches.Preview)

	authors := report.Matches.Authors
	require.Len(t, authors, 3)
	assert.Equal(t, "J.R.R. Tolkien", authors[0].AuthorName)
	assert.Equal(t, 3, authors[0].BooksFound)
	assert.Equal(t, []string{"The Hobbit", "The Silmarillion", "Unfinished Tales"}, authors[0].TopTitles)
	assert.Equal(t, "C.S. Lewis", authors[1].AuthorName)
	assert.Equal(t, "Ursula K. Le Guin", authors[2].AuthorName)
}

func TestRunAuthorsFacetSkipsSummaryForFewAuthors(t *testing.T) {
	f := newFixture(t)
	f.searcher.EXPECT().Search(gomock.Any(), gomock.Any()).Return([]byte(duneBody), nil)
	f.expectEvent(t, "ok", "")

	report, err := f.svc.Run(context.Background(), query(models.FacetAuthors))
	require.NoError(t, err)
	assert.Empty(t, report.Matches.Authors)
}

func TestRunPersonsAndSubjectsFacets(t *testing.T) {
	f := newFixture(t)
	f.searcher.EXPECT().Search(gomock.Any(), gomock.Any()).Return([]byte(variedAuthorsBody), nil).Times(2)
	f.events.EXPECT().WriteEvent(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	persons, err := f.svc.Run(context.Background(), query(models.FacetPersons))
	require.NoError(t, err)
	assert.True(t, persons.Matches.ShowPerson)
	assert.Equal(t, "Tuor, Turin", persons.Matches.Preview[4].Person)
	assert.Empty(t, persons.Matches.Authors)

	subjects, err := f.svc.Run(context.Background(), query(models.FacetSubjects))
	require.NoError(t, err)
	assert.Equal(t, `Most popular authors for "dune" in Subjects:`, subjects.Matches.AuthorsHeading)
	assert.Len(t, subjects.Matches.Preview, 6)
	assert.Empty(t, subjects.Matches.Preview[4].Person)
	assert.Len(t, subjects.Matches.Authors, 3)
}

func TestRunIgnoresEventAndCacheFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	searcher := mocks.NewMockSearcher(ctrl)
	responses := mocks.NewMockResponseCache(ctrl)
	events := mocks.NewMockEventProducer(ctrl)
	svc := explorer.NewService(searcher, responses, nil, explorer.WithEvents(events, time.Second))

	responses.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, false, errors.New("redis down"))
	responses.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("redis down"))
	searcher.EXPECT().Search(gomock.Any(), gomock.Any()).Return([]byte(duneBody), nil)
	events.EXPECT().WriteEvent(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

	report, err := svc.Run(context.Background(), query(models.FacetAnywhere))
	require.NoError(t, err)
	assert.Empty(t, report.Warning)
	assert.Equal(t, 2, report.Rows)
}

func TestRunWithoutEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	searcher := mocks.NewMockSearcher(ctrl)
	searcher.EXPECT().Search(gomock.Any(), gomock.Any()).Return([]byte(duneBody), nil)

	report, err := explorer.NewService(searcher, nil, nil).Run(context.Background(), query(models.FacetPlaces))
	require.NoError(t, err)
	assert.NotEmpty(t, report.RequestID)
	assert.Equal(t, `Most relevant matches for "dune" in Places:`, report.Matches.Heading)
}

func TestErrorKinds(t *testing.T) {
	err := &explorer.Error{Kind: explorer.KindEmpty, Err: explorer.ErrNoResults}
	assert.True(t, errors.Is(err, explorer.ErrNoResults))
	assert.Equal(t, explorer.KindInternal, explorer.KindOf(errors.New("boom")))
	assert.True(t, explorer.KindMalformed.Recoverable())
	assert.False(t, explorer.KindTransport.Recoverable())
	assert.False(t, explorer.KindInvalid.Recoverable())
}
