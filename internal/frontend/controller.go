package frontend

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ogurasousui/staff-directory/internal/core/directory"
)

// Fetcher は一覧 API を呼び出します。
type Fetcher interface {
	Fetch(ctx context.Context, p Params) (*Result, error)
}

// Observer は状態変化を受け取ります。
type Observer interface {
	StateChanged(State)
	ScrollToResults()
}

type noopObserver struct{}

func (noopObserver) StateChanged(State) {}
func (noopObserver) ScrollToResults()   {}

// Option は Controller の任意設定です。
type Option func(*Controller)

// WithScheduler は遅延実行の提供元を設定します。
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		if s != nil {
			c.scheduler = s
		}
	}
}

// WithPreferences は設定の保存先を設定します。
func WithPreferences(p Preferences) Option {
	return func(c *Controller) {
		if p != nil {
			c.prefs = p
		}
	}
}

// WithObserver は状態変化の通知先を設定します。
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithDebounce は検索入力の静止待ち時間を設定します。
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.debounce = d
		}
	}
}

// WithLogger はロガーを設定します。
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Controller は検索・絞り込み・ページ送り・表示形式の操作を一覧取得に変換します。
// 取得ごとに単調増加の番号を振り、最新以外の応答は捨てます。
type Controller struct {
	fetcher   Fetcher
	locked    Locked
	scheduler Scheduler
	prefs     Preferences
	observer  Observer
	debounce  time.Duration
	logger    *slog.Logger

	mu          sync.Mutex
	state       State
	pending     Timer
	debounceGen uint64
	seq         uint64
	cancelPrev  context.CancelFunc
	closed      bool
	inflight    sync.WaitGroup
}

// NewController は Controller を生成します。
func NewController(fetcher Fetcher, locked Locked, opts ...Option) *Controller {
	c := &Controller{
		fetcher:   fetcher,
		locked:    locked,
		scheduler: realScheduler{},
		prefs:     NewMemoryPreferences(),
		observer:  noopObserver{},
		debounce:  DefaultDebounce,
		logger:    slog.Default(),
		state: State{
			Department: locked.Department,
			Sort:       directory.SortNameAsc,
			Page:       1,
			View:       ViewGrid,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State は現在の状態を返します。
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Load は保存済みの表示形式と並び順を復元し、一覧を取得します。
func (c *Controller) Load() {
	view := ViewGrid
	if raw, err := c.prefs.Get(ViewPreferenceKey); err == nil {
		if v, ok := ParseView(raw); ok {
			view = v
		}
	} else if !errors.Is(err, ErrPreferenceNotFound) {
		c.logger.Debug("restore view preference", slog.Any("err", err))
	}

	sort := directory.SortNameAsc
	if raw, err := c.prefs.Get(SortPreferenceKey); err == nil {
		sort = directory.ParseSortKey(raw)
	} else if !errors.Is(err, ErrPreferenceNotFound) {
		c.logger.Debug("restore sort preference", slog.Any("err", err))
	}

	c.mu.Lock()
	c.state.View = view
	c.state.Sort = sort
	c.mu.Unlock()

	c.fetchNow(false)
}

// TypeSearch は検索欄への入力です。文字フィルタを解除し、静止待ちの後に取得します。
func (c *Controller) TypeSearch(text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.stopPendingLocked()
	c.state.SearchText = text
	c.state.Letter = ""
	c.state.Page = 1

	c.debounceGen++
	gen := c.debounceGen
	c.pending = c.scheduler.AfterFunc(c.debounce, func() {
		c.mu.Lock()
		if gen != c.debounceGen || c.closed {
			c.mu.Unlock()
			return
		}
		c.pending = nil
		c.mu.Unlock()
		c.fetchNow(false)
	})
	snapshot := c.state
	c.mu.Unlock()

	c.observer.StateChanged(snapshot)
}

// ClickLetter は頭文字ボタンの押下です。同じ文字を続けて押すと解除します。
func (c *Controller) ClickLetter(letter string) {
	letter = normalizeLetter(letter)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.stopPendingLocked()
	if letter == c.state.Letter {
		letter = ""
	}
	c.state.Letter = letter
	if letter != "" {
		c.state.SearchText = ""
	}
	c.state.Page = 1
	c.mu.Unlock()

	c.fetchNow(false)
}

// ChangeDepartment は部署の選択です。部署が固定されている場合は何もしません。
func (c *Controller) ChangeDepartment(department string) {
	c.mu.Lock()
	if c.closed || c.locked.Department != "" {
		c.mu.Unlock()
		return
	}
	c.stopPendingLocked()
	c.state.Department = department
	c.state.Page = 1
	c.mu.Unlock()

	c.fetchNow(false)
}

// ChangeSort は並び順の選択です。選択は保存されます。
func (c *Controller) ChangeSort(sort directory.SortKey) {
	sort = directory.ParseSortKey(string(sort))

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.stopPendingLocked()
	c.state.Sort = sort
	c.state.Page = 1
	c.mu.Unlock()

	if err := c.prefs.Set(SortPreferenceKey, string(sort)); err != nil {
		c.logger.Debug("persist sort preference", slog.Any("err", err))
	}
	c.fetchNow(false)
}

// ClickPage はページ送りボタンの押下です。無効なボタンと現在のページは無視します。
func (c *Controller) ClickPage(page int, disabled bool) {
	c.mu.Lock()
	if c.closed || disabled || page < 1 || page == c.state.Page {
		c.mu.Unlock()
		return
	}
	c.stopPendingLocked()
	c.state.Page = page
	c.mu.Unlock()

	c.fetchNow(true)
}

// ToggleView は表示形式を切り替えます。取得は行いません。
func (c *Controller) ToggleView(view View) {
	view, ok := ParseView(string(view))
	if !ok {
		return
	}

	c.mu.Lock()
	c.state.View = view
	snapshot := c.state
	c.mu.Unlock()

	if err := c.prefs.Set(ViewPreferenceKey, string(view)); err != nil {
		c.logger.Debug("persist view preference", slog.Any("err", err))
	}
	c.observer.StateChanged(snapshot)
}

// Flush は静止待ち中の検索があれば待たずに取得します。
func (c *Controller) Flush() {
	c.mu.Lock()
	if c.closed || c.pending == nil {
		c.mu.Unlock()
		return
	}
	c.stopPendingLocked()
	c.mu.Unlock()

	c.fetchNow(false)
}

// Wait は実行中の取得がすべて終わるまで待ちます。
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// Close は保留中の静止待ちを取り消し、実行中の取得の終了を待ちます。
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.stopPendingLocked()
	if c.cancelPrev != nil {
		c.cancelPrev()
	}
	c.mu.Unlock()
	c.inflight.Wait()
}

func (c *Controller) stopPendingLocked() {
	c.debounceGen++
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
}

func (c *Controller) fetchNow(scroll bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.seq++
	seq := c.seq
	if c.cancelPrev != nil {
		c.cancelPrev()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancelPrev = cancel

	params := Params{
		Search:     c.state.SearchText,
		Department: c.state.Department,
		Sort:       c.state.Sort,
		Letter:     c.state.Letter,
		Page:       c.state.Page,
		Instance:   c.locked.Instance,
	}
	if params.Letter != "" {
		params.Search = ""
	}
	if c.locked.Department != "" {
		params.Department = c.locked.Department
	}
	c.state.Loading = true
	snapshot := c.state
	c.inflight.Add(1)
	c.mu.Unlock()

	c.observer.StateChanged(snapshot)

	go func() {
		defer c.inflight.Done()
		defer cancel()

		res, err := c.fetcher.Fetch(ctx, params)
		c.complete(seq, res, err, scroll)
	}()
}

func (c *Controller) complete(seq uint64, res *Result, err error, scroll bool) {
	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		return
	}
	c.state.Loading = false
	switch {
	case errors.Is(err, ErrLoginRequired):
		c.state.LoginRequired = true
		c.state.LastError = err
	case err != nil:
		c.state.LastError = err
	default:
		c.state.LoginRequired = false
		c.state.LastError = nil
		c.state.Result = res
		if res != nil && res.Pagination.CurrentPage > 0 {
			c.state.Page = res.Pagination.CurrentPage
		}
	}
	snapshot := c.state
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("fetch employees", slog.Uint64("seq", seq), slog.Any("err", err))
	}
	c.observer.StateChanged(snapshot)
	if err == nil && scroll {
		c.observer.ScrollToResults()
	}
}
