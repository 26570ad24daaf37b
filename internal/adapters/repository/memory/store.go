// Package memory はプロセス内で完結するアカウント集合とプロフィールストアを提供します。
// 開発用サーバーとテストで PostgreSQL の代わりに利用します。
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/ogurasousui/staff-directory/internal/core/directory"
	"github.com/ogurasousui/staff-directory/internal/core/profile"
)

// Store はアカウントとプロフィール属性をメモリ上に保持します。並行利用に対して安全です。
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*directory.Account
	attrs    map[string]map[string]string
}

// NewStore は空の Store を生成します。
func NewStore() *Store {
	return &Store{
		accounts: make(map[string]*directory.Account),
		attrs:    make(map[string]map[string]string),
	}
}

// AddAccount はアカウントを登録します。ID が空なら UUID を採番し、スラッグが空ならログイン名から作ります。
func (s *Store) AddAccount(a directory.Account) directory.Account {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Slug == "" {
		a.Slug = strings.ToLower(a.Login)
	}
	a.Roles = append([]string(nil), a.Roles...)

	s.mu.Lock()
	defer s.mu.Unlock()
	stored := a
	s.accounts[a.ID] = &stored
	return a
}

// Count は Query の条件に一致するアカウント数を返します。
func (s *Store) Count(_ context.Context, q directory.Query) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.match(q.Predicates)), nil
}

// Find は Query の条件・並び順・ページ範囲でアカウントを返します。
func (s *Store) Find(_ context.Context, q directory.Query) ([]*directory.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.match(q.Predicates)
	s.sort(matched, q.Order)

	offset := q.Offset()
	if offset >= len(matched) {
		return []*directory.Account{}, nil
	}
	end := len(matched)
	if q.PageSize > 0 && offset+q.PageSize < end {
		end = offset + q.PageSize
	}

	out := make([]*directory.Account, 0, end-offset)
	for _, a := range matched[offset:end] {
		out = append(out, cloneAccount(a))
	}
	return out, nil
}

// FindBySlug はスラッグでアカウントを返します。
func (s *Store) FindBySlug(_ context.Context, slug string) (*directory.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.accounts {
		if a.Slug == slug {
			return cloneAccount(a), nil
		}
	}
	return nil, directory.ErrEmployeeNotFound
}

// SetHidden はアカウントの掲載可否を切り替えます。
func (s *Store) SetHidden(_ context.Context, id string, hidden bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return profile.ErrAccountNotFound
	}
	a.Hidden = hidden
	return nil
}

// Get はアカウントの全属性を返します。
func (s *Store) Get(_ context.Context, id string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAttrs(s.attrs[id]), nil
}

// GetMany は複数アカウントの属性を返します。
func (s *Store) GetMany(_ context.Context, ids []string) (map[string]map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]map[string]string, len(ids))
	for _, id := range ids {
		if attrs, ok := s.attrs[id]; ok {
			out[id] = cloneAttrs(attrs)
		}
	}
	return out, nil
}

// Set は指定キーだけを上書きします。未登録のアカウントはエラーです。
func (s *Store) Set(_ context.Context, id string, attrs map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[id]; !ok {
		return profile.ErrAccountNotFound
	}
	if s.attrs[id] == nil {
		s.attrs[id] = make(map[string]string, len(attrs))
	}
	for k, v := range attrs {
		s.attrs[id][k] = v
	}
	return nil
}

// DistinctDepartments は空でない部署名を重複なく昇順で返します。
func (s *Store) DistinctDepartments(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, attrs := range s.attrs {
		if d := attrs[profile.KeyDepartment]; d != "" {
			seen[d] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) match(predicates []directory.Predicate) []*directory.Account {
	out := make([]*directory.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		if s.matchesAll(a, predicates) {
			out = append(out, a)
		}
	}
	return out
}

func (s *Store) matchesAll(a *directory.Account, predicates []directory.Predicate) bool {
	attrs := s.attrs[a.ID]
	for _, p := range predicates {
		if !matches(a, attrs, p) {
			return false
		}
	}
	return true
}

func matches(a *directory.Account, attrs map[string]string, p directory.Predicate) bool {
	switch p.Kind {
	case directory.PredicateVisibleOnly:
		return !a.Hidden
	case directory.PredicateDepartmentEquals:
		return attrs[profile.KeyDepartment] == p.Value
	case directory.PredicateRoleIn:
		for _, r := range a.Roles {
			for _, v := range p.Values {
				if r == v {
					return true
				}
			}
		}
		return false
	case directory.PredicateTextSearch:
		needle := strings.ToLower(p.Value)
		for _, f := range p.Fields {
			if strings.Contains(strings.ToLower(searchValue(a, f)), needle) {
				return true
			}
		}
		return false
	case directory.PredicateNamePrefix:
		return strings.HasPrefix(strings.ToLower(a.DisplayName), strings.ToLower(p.Value))
	case directory.PredicateStartedSince:
		start := attrs[profile.KeyStartDate]
		return start != "" && start >= p.Value
	case directory.PredicateMatchNone:
		return false
	default:
		return true
	}
}

func searchValue(a *directory.Account, f directory.SearchField) string {
	switch f {
	case directory.SearchDisplayName:
		return a.DisplayName
	case directory.SearchEmail:
		return a.Email
	case directory.SearchLogin:
		return a.Login
	default:
		return ""
	}
}

func (s *Store) sort(accounts []*directory.Account, o directory.Ordering) {
	key := func(a *directory.Account) string {
		switch o.Field {
		case directory.OrderStartDate:
			return s.attrs[a.ID][profile.KeyStartDate]
		case directory.OrderDepartment:
			return s.attrs[a.ID][profile.KeyDepartment]
		default:
			return strings.ToLower(a.DisplayName)
		}
	}

	sort.SliceStable(accounts, func(i, j int) bool {
		ki, kj := key(accounts[i]), key(accounts[j])
		if o.EmptyLast && (ki == "") != (kj == "") {
			return kj == ""
		}
		if ki != kj {
			if o.Direction == directory.Desc {
				return ki > kj
			}
			return ki < kj
		}
		ni, nj := strings.ToLower(accounts[i].DisplayName), strings.ToLower(accounts[j].DisplayName)
		if ni != nj {
			return ni < nj
		}
		return accounts[i].ID < accounts[j].ID
	})
}

func cloneAccount(a *directory.Account) *directory.Account {
	clone := *a
	clone.Roles = append([]string{}, a.Roles...)
	return &clone
}

func cloneAttrs(attrs map[string]string) map[string]string {
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
