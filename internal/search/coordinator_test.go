package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"book_search/internal/models"
	"book_search/internal/service"
)

const (
	testDebounce = 80 * time.Millisecond
	waitTimeout  = 2 * time.Second
	quietPeriod  = 150 * time.Millisecond
)

// fakeSearcher answers from a fixed table. Queries listed in gates block until
// their gate is closed or the search context is canceled.
type fakeSearcher struct {
	mu      sync.Mutex
	calls   []string
	results map[string][]models.Book
	gates   map[string]chan struct{}
	started chan string
}

func newFakeSearcher() *fakeSearcher {
	return &fakeSearcher{
		results: map[string][]models.Book{},
		gates:   map[string]chan struct{}{},
		started: make(chan string, 16),
	}
}

func (f *fakeSearcher) Search(ctx context.Context, query string) []models.Book {
	f.mu.Lock()
	f.calls = append(f.calls, query)
	gate := f.gates[query]
	books := f.results[query]
	f.mu.Unlock()

	f.started <- query
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return []models.Book{}
		}
	}
	if books == nil {
		return []models.Book{}
	}
	return books
}

func (f *fakeSearcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type recordingObserver struct {
	sections  chan []Section
	confirmed chan models.Book
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{
		sections:  make(chan []Section, 32),
		confirmed: make(chan models.Book, 32),
	}
}

func (o *recordingObserver) SectionsChanged(sections []Section) { o.sections <- sections }
func (o *recordingObserver) BookConfirmed(book models.Book)     { o.confirmed <- book }

func (o *recordingObserver) nextSections(t *testing.T) []Section {
	t.Helper()
	select {
	case s := <-o.sections:
		return s
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for sections")
		return nil
	}
}

func (o *recordingObserver) assertNoSections(t *testing.T) {
	t.Helper()
	select {
	case s := <-o.sections:
		t.Fatalf("unexpected sections: %+v", s)
	case <-time.After(quietPeriod):
	}
}

func startCoordinator(t *testing.T, searcher Searcher, opts ...Option) (*Coordinator, *recordingObserver) {
	t.Helper()
	observer := newRecordingObserver()
	opts = append([]Option{WithDebounce(testDebounce)}, opts...)
	c := New(searcher, observer, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errCh:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(waitTimeout):
			t.Error("coordinator did not stop")
		}
	})
	return c, observer
}

func TestDebounceOnlyLastQuerySearches(t *testing.T) {
	searcher := newFakeSearcher()
	searcher.results["해리포"] = []models.Book{{Title: "해리포터"}}
	c, observer := startCoordinator(t, searcher)

	for _, q := range []string{"해", "해리", "해리포"} {
		c.SubmitQuery(q)
		time.Sleep(testDebounce / 8)
	}

	sections := observer.nextSections(t)
	require.Len(t, sections, 1)
	assert.Equal(t, []models.Book{{Title: "해리포터"}}, sections[0].Items)

	observer.assertNoSections(t)
	assert.Equal(t, []string{"해리포"}, searcher.Calls())
}

func TestQueriesAfterQuietPeriodEachSearch(t *testing.T) {
	searcher := newFakeSearcher()
	c, observer := startCoordinator(t, searcher)

	c.SubmitQuery("a")
	observer.nextSections(t)
	c.SubmitQuery("a")
	observer.nextSections(t)

	assert.Equal(t, []string{"a", "a"}, searcher.Calls())
}

func TestNewerSearchDiscardsOlderResult(t *testing.T) {
	searcher := newFakeSearcher()
	slowGate := make(chan struct{})
	searcher.gates["반지"] = slowGate
	searcher.results["반지"] = []models.Book{{Title: "반지의 제왕"}}
	searcher.results["호빗"] = []models.Book{{Title: "호빗"}}
	c, observer := startCoordinator(t, searcher)

	c.SubmitQuery("반지")
	require.Equal(t, "반지", <-searcher.started)

	c.SubmitQuery("호빗")
	require.Equal(t, "호빗", <-searcher.started)

	sections := observer.nextSections(t)
	require.Len(t, sections, 1)
	assert.Equal(t, []models.Book{{Title: "호빗"}}, sections[0].Items)

	close(slowGate)
	observer.assertNoSections(t)
}

func TestSupersededResultArrivingLateIsDropped(t *testing.T) {
	searcher := newFakeSearcher()
	oldGate := make(chan struct{})
	newGate := make(chan struct{})
	searcher.gates["old"] = oldGate
	searcher.gates["new"] = newGate
	searcher.results["new"] = []models.Book{{Title: "new book"}}
	c, observer := startCoordinator(t, searcher)

	c.SubmitQuery("old")
	require.Equal(t, "old", <-searcher.started)
	c.SubmitQuery("new")
	require.Equal(t, "new", <-searcher.started)

	// The old search was canceled when the new one started; whatever it returns is stale.
	close(oldGate)
	observer.assertNoSections(t)

	close(newGate)
	sections := observer.nextSections(t)
	assert.Equal(t, []models.Book{{Title: "new book"}}, sections[len(sections)-1].Items)
}

func TestEmptyQueryClearsImmediately(t *testing.T) {
	searcher := newFakeSearcher()
	c, observer := startCoordinator(t, searcher, WithDebounce(time.Hour))

	c.SubmitQuery("반지")
	c.ClearQuery()

	sections := observer.nextSections(t)
	require.Len(t, sections, 1)
	assert.Equal(t, SectionSearch, sections[0].Kind)
	assert.Equal(t, SearchTitle, sections[0].Title)
	assert.NotNil(t, sections[0].Items)
	assert.Empty(t, sections[0].Items)
	assert.Empty(t, searcher.Calls(), "clearing must not hit the network")
}

func TestEmptyQueryDiscardsInFlightSearch(t *testing.T) {
	searcher := newFakeSearcher()
	gate := make(chan struct{})
	searcher.gates["반지"] = gate
	searcher.results["반지"] = []models.Book{{Title: "반지의 제왕"}}
	c, observer := startCoordinator(t, searcher)

	c.SubmitQuery("반지")
	require.Equal(t, "반지", <-searcher.started)
	c.ClearQuery()

	sections := observer.nextSections(t)
	assert.Empty(t, sections[0].Items)

	close(gate)
	observer.assertNoSections(t)
}

func TestSearchWithoutRecentBooks(t *testing.T) {
	searcher := newFakeSearcher()
	harry := models.Book{Title: "해리포터", Price: 10000}
	searcher.results["해리"] = []models.Book{harry}
	c, observer := startCoordinator(t, searcher)

	c.SubmitQuery("해리")

	sections := observer.nextSections(t)
	assert.Equal(t, []Section{
		{Kind: SectionSearch, Title: "검색 결과", Items: []models.Book{harry}},
	}, sections)
}

func TestSelectedBookShowsUpAsRecent(t *testing.T) {
	searcher := newFakeSearcher()
	harry := models.Book{Title: "해리포터", Price: 10000}
	ring := models.Book{Title: "반지의 제왕", Price: 12000}
	searcher.results["반지"] = []models.Book{ring}
	c, observer := startCoordinator(t, searcher)

	c.SelectBook(harry)

	select {
	case got := <-observer.confirmed:
		assert.Equal(t, harry, got)
	case <-time.After(waitTimeout):
		t.Fatal("selection was not confirmed")
	}

	// Selection refreshes the sections right away.
	sections := observer.nextSections(t)
	assert.Equal(t, []Section{
		{Kind: SectionRecent, Title: "최근 본 책", Items: []models.Book{harry}},
		{Kind: SectionSearch, Title: "검색 결과", Items: []models.Book{}},
	}, sections)

	c.SubmitQuery("반지")
	sections = observer.nextSections(t)
	assert.Equal(t, []Section{
		{Kind: SectionRecent, Title: "최근 본 책", Items: []models.Book{harry}},
		{Kind: SectionSearch, Title: "검색 결과", Items: []models.Book{ring}},
	}, sections)
}

func TestSelectingSameBookTwice(t *testing.T) {
	c, observer := startCoordinator(t, newFakeSearcher())
	harry := models.Book{Title: "해리포터"}

	c.SelectBook(models.Book{Title: "호빗"})
	observer.nextSections(t)
	c.SelectBook(harry)
	observer.nextSections(t)
	c.SelectBook(harry)
	sections := observer.nextSections(t)

	require.Equal(t, SectionRecent, sections[0].Kind)
	assert.Equal(t, []models.Book{harry, {Title: "호빗"}}, sections[0].Items)
}

func TestObserverCannotAlterRecentBooks(t *testing.T) {
	c, observer := startCoordinator(t, newFakeSearcher())

	c.SelectBook(models.Book{Title: "해리포터", Authors: []string{"J.K. 롤링"}})
	<-observer.confirmed
	sections := observer.nextSections(t)
	sections[0].Items[0].Authors[0] = "mutated"

	c.ClearQuery()
	sections = observer.nextSections(t)
	require.Equal(t, SectionRecent, sections[0].Kind)
	assert.Equal(t, []string{"J.K. 롤링"}, sections[0].Items[0].Authors)
}

func TestFailingUpstreamYieldsEmptySearchSection(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer upstream.Close()

	client := service.NewKakaoClient(upstream.Client(), upstream.URL, "KakaoAK", "k")
	c, observer := startCoordinator(t, client)

	c.SubmitQuery("해리")

	sections := observer.nextSections(t)
	require.Len(t, sections, 1)
	assert.Equal(t, SectionSearch, sections[0].Kind)
	assert.NotNil(t, sections[0].Items)
	assert.Empty(t, sections[0].Items)
}

func TestRunOnlyOnce(t *testing.T) {
	c, observer := startCoordinator(t, newFakeSearcher())
	c.ClearQuery()
	observer.nextSections(t)

	assert.ErrorIs(t, c.Run(context.Background()), ErrAlreadyRunning)
}

func TestInputsAfterStopAreDropped(t *testing.T) {
	c := New(newFakeSearcher(), newRecordingObserver(), WithEventBuffer(0))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, c.Run(ctx), context.Canceled)

	<-c.Done()
	done := make(chan struct{})
	go func() {
		c.SubmitQuery("late")
		c.SelectBook(models.Book{Title: "late"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(waitTimeout):
		t.Fatal("inputs blocked after the coordinator stopped")
	}
}
