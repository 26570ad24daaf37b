package directory

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// DepartmentLoader は部署一覧をストアから読み込みます。
type DepartmentLoader func(ctx context.Context) ([]string, error)

// CacheObserver はキャッシュのヒット／ミスを受け取ります。
type CacheObserver interface {
	ObserveDepartmentCache(hit bool)
}

type noopCacheObserver struct{}

func (noopCacheObserver) ObserveDepartmentCache(bool) {}

type departmentEntry struct {
	departments []string
	expiresAt   time.Time
	generation  uint64
}

// DepartmentCache は部署一覧を TTL 付きで保持します。
// 破棄は世代番号の更新で行い、破棄より前に始まった読み込み結果は採用しません。
type DepartmentCache struct {
	load     DepartmentLoader
	ttl      time.Duration
	clock    Clock
	observer CacheObserver

	generation atomic.Uint64
	entry      atomic.Pointer[departmentEntry]
	group      singleflight.Group
}

// NewDepartmentCache は DepartmentCache を生成します。ttl が 0 以下の場合は 1 時間です。
func NewDepartmentCache(load DepartmentLoader, ttl time.Duration, clock Clock, observer CacheObserver) *DepartmentCache {
	if ttl <= 0 {
		ttl = DefaultDepartmentCacheTTL
	}
	if clock == nil {
		clock = realClock{}
	}
	if observer == nil {
		observer = noopCacheObserver{}
	}
	return &DepartmentCache{load: load, ttl: ttl, clock: clock, observer: observer}
}

// Get はキャッシュ済みの部署一覧を返し、期限切れまたは破棄済みであれば読み込み直します。
func (c *DepartmentCache) Get(ctx context.Context) ([]string, error) {
	gen := c.generation.Load()
	if e := c.entry.Load(); e != nil && e.generation == gen && c.clock.Now().Before(e.expiresAt) {
		c.observer.ObserveDepartmentCache(true)
		return cloneStrings(e.departments), nil
	}
	c.observer.ObserveDepartmentCache(false)

	// 読み込みは待ち合わせた全呼び出し元で共有するため、最初の呼び出し元のキャンセルから切り離します。
	fill := context.WithoutCancel(ctx)
	ch := c.group.DoChan(strconv.FormatUint(gen, 10), func() (any, error) {
		departments, err := c.load(fill)
		if err != nil {
			return nil, err
		}
		if departments == nil {
			departments = []string{}
		}
		if c.generation.Load() == gen {
			c.entry.Store(&departmentEntry{
				departments: departments,
				expiresAt:   c.clock.Now().Add(c.ttl),
				generation:  gen,
			})
		}
		return departments, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return cloneStrings(res.Val.([]string)), nil
	}
}

// InvalidateDepartments はキャッシュを破棄します。何度呼んでも安全で、ブロックしません。
func (c *DepartmentCache) InvalidateDepartments() {
	c.generation.Add(1)
	c.entry.Store(nil)
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
