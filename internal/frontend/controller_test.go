package frontend

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	httphandler "github.com/ogurasousui/staff-directory/internal/adapters/http/handler"
	"github.com/ogurasousui/staff-directory/internal/core/directory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	s       *fakeScheduler
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

type fakeScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
	// settle はタイマー実行直後、時刻を進める前に呼ばれます。
	settle func()
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{s: s, at: s.now + d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// AdvanceTo は仮想時刻を at まで進め、期限の来たタイマーを時刻順に実行します。
func (s *fakeScheduler) AdvanceTo(at time.Duration) {
	s.mu.Lock()
	for {
		var next *fakeTimer
		for _, t := range s.timers {
			if t.stopped || t.fired || t.at > at {
				continue
			}
			if next == nil || t.at < next.at {
				next = t
			}
		}
		if next == nil {
			break
		}
		next.fired = true
		s.now = next.at
		settle := s.settle
		s.mu.Unlock()
		next.f()
		if settle != nil {
			settle()
		}
		s.mu.Lock()
	}
	s.now = at
	s.mu.Unlock()
}

type fetchCall struct {
	at     time.Duration
	params Params
}

type fakeFetcher struct {
	clock *fakeScheduler

	mu      sync.Mutex
	calls   []fetchCall
	respond func(n int, p Params) (*Result, error)
}

func (f *fakeFetcher) Fetch(_ context.Context, p Params) (*Result, error) {
	f.mu.Lock()
	var at time.Duration
	if f.clock != nil {
		at = f.clock.Now()
	}
	f.calls = append(f.calls, fetchCall{at: at, params: p})
	n := len(f.calls)
	respond := f.respond
	f.mu.Unlock()

	if respond != nil {
		return respond(n, p)
	}
	return &Result{
		Items:      []httphandler.ItemView{},
		Pagination: httphandler.PaginationView{CurrentPage: max(p.Page, 1), TotalPages: 5},
	}, nil
}

func (f *fakeFetcher) Calls() []fetchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fetchCall(nil), f.calls...)
}

type recordingObserver struct {
	mu       sync.Mutex
	states   []State
	scrolled int
}

func (o *recordingObserver) StateChanged(s State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states = append(o.states, s)
}

func (o *recordingObserver) ScrollToResults() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.scrolled++
}

func (o *recordingObserver) Scrolled() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.scrolled
}

type failingPreferences struct{}

func (failingPreferences) Get(string) (string, error) { return "", errors.New("storage unavailable") }
func (failingPreferences) Set(string, string) error   { return errors.New("storage unavailable") }

func newTestController(t *testing.T, f *fakeFetcher, s *fakeScheduler, opts ...Option) *Controller {
	t.Helper()
	opts = append([]Option{WithScheduler(s)}, opts...)
	c := NewController(f, Locked{}, opts...)
	s.settle = c.Wait
	t.Cleanup(c.Close)
	return c
}

func TestTypeSearchDebouncesWithinQuietPeriod(t *testing.T) {
	s := &fakeScheduler{}
	f := &fakeFetcher{clock: s}
	c := newTestController(t, f, s)

	c.TypeSearch("a")
	s.AdvanceTo(100 * time.Millisecond)
	c.TypeSearch("al")
	s.AdvanceTo(150 * time.Millisecond)
	c.TypeSearch("ali")
	s.AdvanceTo(400 * time.Millisecond)
	c.TypeSearch("alic")

	s.AdvanceTo(699 * time.Millisecond)
	c.Wait()
	assert.Empty(t, f.Calls())

	s.AdvanceTo(time.Second)
	c.Wait()
	calls := f.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, 700*time.Millisecond, calls[0].at)
	assert.Equal(t, "alic", calls[0].params.Search)
	assert.Equal(t, 1, calls[0].params.Page)
}

func TestTypeSearchTimeline(t *testing.T) {
	s := &fakeScheduler{}
	f := &fakeFetcher{clock: s}
	c := newTestController(t, f, s)

	for _, step := range []struct {
		at   time.Duration
		text string
	}{
		{0, "m"},
		{100 * time.Millisecond, "ma"},
		{150 * time.Millisecond, "mar"},
		{500 * time.Millisecond, "mari"},
	} {
		s.AdvanceTo(step.at)
		c.Wait()
		c.TypeSearch(step.text)
	}
	s.AdvanceTo(2 * time.Second)
	c.Wait()

	calls := f.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, 450*time.Millisecond, calls[0].at)
	assert.Equal(t, "mar", calls[0].params.Search)
	assert.Equal(t, 800*time.Millisecond, calls[1].at)
	assert.Equal(t, "mari", calls[1].params.Search)
}

func TestTypeSearchClearsLetter(t *testing.T) {
	s := &fakeScheduler{}
	f := &fakeFetcher{clock: s}
	c := newTestController(t, f, s)

	c.ClickLetter("b")
	c.Wait()
	c.TypeSearch("ann")

	st := c.State()
	assert.Equal(t, "", st.Letter)
	assert.Equal(t, 1, st.Page)

	s.AdvanceTo(DefaultDebounce)
	c.Wait()
	calls := f.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, Params{Search: "ann", Sort: directory.SortNameAsc, Page: 1}, calls[1].params)
}

func TestClickLetterToggle(t *testing.T) {
	s := &fakeScheduler{}
	f := &fakeFetcher{clock: s}
	c := newTestController(t, f, s)

	c.TypeSearch("zed")
	c.ClickLetter("M")
	c.Wait()
	c.ClickLetter("M")
	c.Wait()

	calls := f.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "M", calls[0].params.Letter)
	assert.Equal(t, "", calls[0].params.Search)
	assert.Equal(t, "", calls[1].params.Letter)
	assert.Equal(t, "", calls[1].params.Search)
	assert.Equal(t, "", c.State().Letter)

	// the pending keystroke must not fire after the letter click
	s.AdvanceTo(time.Second)
	c.Wait()
	assert.Len(t, f.Calls(), 2)
}

func TestClickLetterIgnoresInvalidInput(t *testing.T) {
	s := &fakeScheduler{}
	f := &fakeFetcher{clock: s}
	c := newTestController(t, f, s)

	c.ClickLetter("ab")
	c.Wait()
	calls := f.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "", calls[0].params.Letter)
}

func TestChangeDepartmentAndSortFetchImmediately(t *testing.T) {
	s := &fakeScheduler{}
	f := &fakeFetcher{clock: s}
	prefs := NewMemoryPreferences()
	c := newTestController(t, f, s, WithPreferences(prefs))

	c.ClickPage(3, false)
	c.Wait()
	c.ChangeDepartment("Sales")
	c.Wait()
	c.ChangeSort(directory.SortStartDateDesc)
	c.Wait()

	calls := f.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, 3, calls[0].params.Page)
	assert.Equal(t, Params{Department: "Sales", Sort: directory.SortNameAsc, Page: 1}, calls[1].params)
	assert.Equal(t, Params{Department: "Sales", Sort: directory.SortStartDateDesc, Page: 1}, calls[2].params)

	saved, err := prefs.Get(SortPreferenceKey)
	require.NoError(t, err)
	assert.Equal(t, "start_date_desc", saved)
}

func TestLockedDepartmentWins(t *testing.T) {
	s := &fakeScheduler{}
	f := &fakeFetcher{clock: s}
	c := NewController(f, Locked{Instance: "eng", Department: "Engineering"}, WithScheduler(s))
	t.Cleanup(c.Close)

	c.ChangeDepartment("Sales")
	c.Wait()
	assert.Empty(t, f.Calls())

	c.Load()
	c.Wait()
	calls := f.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Engineering", calls[0].params.Department)
	assert.Equal(t, "eng", calls[0].params.Instance)
}

func TestClickPage(t *testing.T) {
	s := &fakeScheduler{}
	f := &fakeFetcher{clock: s}
	obs := &recordingObserver{}
	c := newTestController(t, f, s, WithObserver(obs))

	c.ClickPage(1, false)
	c.ClickPage(2, true)
	c.ClickPage(0, false)
	c.Wait()
	assert.Empty(t, f.Calls())

	c.ClickPage(2, false)
	c.Wait()
	require.Len(t, f.Calls(), 1)
	assert.Equal(t, 2, c.State().Page)
	assert.Equal(t, 1, obs.Scrolled())
}

func TestFailureKeepsPreviousResults(t *testing.T) {
	s := &fakeScheduler{}
	first := &Result{Items: []httphandler.ItemView{{DisplayName: "Alice"}}, Pagination: httphandler.PaginationView{CurrentPage: 1, TotalPages: 3}}
	f := &fakeFetcher{clock: s, respond: func(n int, _ Params) (*Result, error) {
		if n == 1 {
			return first, nil
		}
		return nil, errors.New("connection refused")
	}}
	obs := &recordingObserver{}
	c := newTestController(t, f, s, WithObserver(obs))

	c.Load()
	c.Wait()
	c.ClickPage(2, false)
	c.Wait()

	st := c.State()
	assert.False(t, st.Loading)
	assert.Same(t, first, st.Result)
	assert.EqualError(t, st.LastError, "connection refused")
	assert.Equal(t, 0, obs.Scrolled())
}

func TestLoginRequiredIsDistinct(t *testing.T) {
	s := &fakeScheduler{}
	f := &fakeFetcher{clock: s, respond: func(int, Params) (*Result, error) {
		return nil, ErrLoginRequired
	}}
	c := newTestController(t, f, s)

	c.Load()
	c.Wait()

	st := c.State()
	assert.True(t, st.LoginRequired)
	assert.False(t, st.Loading)
	assert.Nil(t, st.Result)
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	s := &fakeScheduler{}
	release := make(chan struct{})
	slow := &Result{Total: 1}
	fast := &Result{Total: 2}
	f := &fakeFetcher{clock: s, respond: func(n int, _ Params) (*Result, error) {
		if n == 1 {
			<-release
			return slow, nil
		}
		return fast, nil
	}}
	c := newTestController(t, f, s)

	c.ChangeDepartment("Sales")
	require.Eventually(t, func() bool { return len(f.Calls()) == 1 }, time.Second, time.Millisecond)
	c.ChangeDepartment("Engineering")
	require.Eventually(t, func() bool { return c.State().Result == fast }, time.Second, time.Millisecond)

	close(release)
	c.Wait()

	st := c.State()
	assert.Same(t, fast, st.Result)
	assert.Equal(t, "Engineering", st.Department)
	assert.False(t, st.Loading)
}

func TestViewPreference(t *testing.T) {
	s := &fakeScheduler{}
	f := &fakeFetcher{clock: s}
	prefs := NewMemoryPreferences()
	require.NoError(t, prefs.Set(ViewPreferenceKey, "list"))
	require.NoError(t, prefs.Set(SortPreferenceKey, "department_asc"))
	c := newTestController(t, f, s, WithPreferences(prefs))

	c.Load()
	c.Wait()
	st := c.State()
	assert.Equal(t, ViewList, st.View)
	assert.Equal(t, directory.SortDepartmentAsc, st.Sort)

	c.ToggleView(ViewVertical)
	c.Wait()
	assert.Len(t, f.Calls(), 1, "toggling the view must not fetch")
	saved, err := prefs.Get(ViewPreferenceKey)
	require.NoError(t, err)
	assert.Equal(t, "vertical", saved)
}

func TestPreferenceFailureFallsBack(t *testing.T) {
	s := &fakeScheduler{}
	f := &fakeFetcher{clock: s}
	c := newTestController(t, f, s, WithPreferences(failingPreferences{}))

	c.Load()
	c.Wait()
	c.ToggleView(ViewList)
	c.ChangeSort(directory.SortNameDesc)
	c.Wait()

	st := c.State()
	assert.Equal(t, ViewList, st.View)
	assert.Equal(t, directory.SortNameDesc, st.Sort)
	assert.Len(t, f.Calls(), 2)
}

func TestFlushSkipsQuietPeriod(t *testing.T) {
	s := &fakeScheduler{}
	f := &fakeFetcher{clock: s}
	c := newTestController(t, f, s)

	c.Flush()
	c.Wait()
	assert.Empty(t, f.Calls(), "flush without a pending search must not fetch")

	c.TypeSearch("dana")
	c.Flush()
	c.Wait()
	s.AdvanceTo(time.Second)
	c.Wait()

	calls := f.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, time.Duration(0), calls[0].at)
	assert.Equal(t, "dana", calls[0].params.Search)
}
