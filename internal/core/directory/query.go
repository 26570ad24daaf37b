package directory

import (
	"strings"
	"unicode/utf8"
)

// SortKey は一覧の並び順指定です。
type SortKey string

const (
	SortNameAsc       SortKey = "name_asc"
	SortNameDesc      SortKey = "name_desc"
	SortStartDateDesc SortKey = "start_date_desc"
	SortDepartmentAsc SortKey = "department_asc"
)

// ParseSortKey は文字列を SortKey に変換します。未知の値は SortNameAsc になります。
func ParseSortKey(raw string) SortKey {
	switch key := SortKey(strings.TrimSpace(raw)); key {
	case SortNameAsc, SortNameDesc, SortStartDateDesc, SortDepartmentAsc:
		return key
	default:
		return SortNameAsc
	}
}

// Request はクライアントから受け取る一覧条件です。
type Request struct {
	Search     string
	Department string
	Letter     string
	Sort       SortKey
	Page       int
	PerPage    int
	Roles      []string
}

// Locked は埋め込み先で固定された一覧条件です。空でない値はクライアント入力より常に優先されます。
type Locked struct {
	Department string
	PerPage    int
	Role       string
}

// IsZero は固定条件が一つも無いかを返します。
func (l Locked) IsZero() bool {
	return l.Department == "" && l.PerPage <= 0 && l.Role == ""
}

// OrderField は並び替え対象の項目です。
type OrderField string

const (
	OrderDisplayName OrderField = "display_name"
	OrderStartDate   OrderField = "start_date"
	OrderDepartment  OrderField = "department"
)

// Direction は並び替えの向きです。
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Ordering は並び順の規則です。EmptyLast が true の場合、値が空のレコードは向きに関係なく末尾に置きます。
// 同順位は表示名の昇順 (大文字小文字を区別しない)、次にアカウント ID の昇順で決定します。
type Ordering struct {
	Field     OrderField
	Direction Direction
	EmptyLast bool
}

// PredicateKind は検索条件の種別です。
type PredicateKind string

const (
	PredicateVisibleOnly      PredicateKind = "visible_only"
	PredicateDepartmentEquals PredicateKind = "department_equals"
	PredicateRoleIn           PredicateKind = "role_in"
	PredicateTextSearch       PredicateKind = "text_search"
	PredicateNamePrefix       PredicateKind = "name_prefix"
	PredicateStartedSince     PredicateKind = "started_since"
	PredicateMatchNone        PredicateKind = "match_none"
)

// SearchField は部分一致検索の対象項目です。
type SearchField string

const (
	SearchDisplayName SearchField = "display_name"
	SearchEmail       SearchField = "email"
	SearchLogin       SearchField = "login"
)

var defaultSearchFields = []SearchField{SearchDisplayName, SearchEmail, SearchLogin}

// Predicate は検索条件です。TextSearch の Fields は OR で評価します。
type Predicate struct {
	Kind   PredicateKind
	Value  string
	Values []string
	Fields []SearchField
}

// Query はアカウント集合に対する具体的な検索内容です。Predicates は AND で評価します。
type Query struct {
	Page       int
	PageSize   int
	Order      Ordering
	Predicates []Predicate
}

// Offset はページ先頭のオフセットを返します。
func (q Query) Offset() int {
	if q.Page <= 1 || q.PageSize <= 0 {
		return 0
	}
	return (q.Page - 1) * q.PageSize
}

// Predicate は指定種別の最初の条件を返します。
func (q Query) Predicate(kind PredicateKind) (Predicate, bool) {
	for _, p := range q.Predicates {
		if p.Kind == kind {
			return p, true
		}
	}
	return Predicate{}, false
}

// With は条件を追加した Query を返します。元の Query は変更しません。
func (q Query) With(p Predicate) Query {
	out := q
	out.Predicates = make([]Predicate, 0, len(q.Predicates)+1)
	out.Predicates = append(out.Predicates, q.Predicates...)
	out.Predicates = append(out.Predicates, p)
	return out
}

// Transform は Build の後に適用される Query の変換です。I/O を伴わない純粋関数でなければなりません。
type Transform func(Query) Query

// Builder は Request と Locked から Query を組み立てます。
type Builder struct {
	transforms []Transform
}

// NewBuilder は登録順に適用される変換を持つ Builder を生成します。
func NewBuilder(transforms ...Transform) *Builder {
	kept := make([]Transform, 0, len(transforms))
	for _, t := range transforms {
		if t != nil {
			kept = append(kept, t)
		}
	}
	return &Builder{transforms: kept}
}

// Build は変換を持たない Builder で Query を組み立てます。
func Build(req Request, locked Locked, settings Settings) Query {
	return NewBuilder().Build(req, locked, settings)
}

// Build は固定条件を優先してリクエストと合成し、Query を返します。副作用はありません。
func (b *Builder) Build(req Request, locked Locked, settings Settings) Query {
	settings = settings.Normalize()

	q := Query{
		Page:     req.Page,
		PageSize: resolvePageSize(req.PerPage, locked.PerPage, settings),
		Order:    resolveOrdering(req.Sort),
	}
	if q.Page < 1 {
		q.Page = 1
	}

	q.Predicates = append(q.Predicates, Predicate{Kind: PredicateVisibleOnly})

	department := strings.TrimSpace(req.Department)
	if locked.Department != "" {
		department = locked.Department
	}
	if department != "" {
		q.Predicates = append(q.Predicates, Predicate{Kind: PredicateDepartmentEquals, Value: department})
	}

	if p, ok := resolveRoles(req.Roles, locked.Role, settings.AllowedRoles); ok {
		q.Predicates = append(q.Predicates, p)
	}

	if letter := normalizeLetter(req.Letter); letter != "" {
		q.Predicates = append(q.Predicates, Predicate{Kind: PredicateNamePrefix, Value: letter})
	} else if search := strings.TrimSpace(req.Search); search != "" {
		fields := make([]SearchField, len(defaultSearchFields))
		copy(fields, defaultSearchFields)
		q.Predicates = append(q.Predicates, Predicate{Kind: PredicateTextSearch, Value: search, Fields: fields})
	}

	for _, t := range b.transforms {
		q = t(q)
	}
	return q
}

func resolvePageSize(requested, locked int, settings Settings) int {
	if locked > 0 {
		return locked
	}
	if requested > 0 {
		return clampInt(requested, 1, settings.MaxPerPage)
	}
	return settings.DefaultPerPage
}

func resolveOrdering(key SortKey) Ordering {
	switch ParseSortKey(string(key)) {
	case SortNameDesc:
		return Ordering{Field: OrderDisplayName, Direction: Desc}
	case SortStartDateDesc:
		return Ordering{Field: OrderStartDate, Direction: Desc, EmptyLast: true}
	case SortDepartmentAsc:
		return Ordering{Field: OrderDepartment, Direction: Asc, EmptyLast: true}
	default:
		return Ordering{Field: OrderDisplayName, Direction: Asc}
	}
}

// resolveRoles は固定ロールがあればリクエストのロールを無視し、許可ロールと交差させます。
// 交差が空の場合はどのアカウントにも一致しない条件を返します。
func resolveRoles(requested []string, locked string, allowed []string) (Predicate, bool) {
	wanted := uniqueNonEmpty(requested)
	if locked = strings.TrimSpace(locked); locked != "" {
		wanted = []string{locked}
	}

	if len(allowed) == 0 {
		if len(wanted) == 0 {
			return Predicate{}, false
		}
		return Predicate{Kind: PredicateRoleIn, Values: wanted}, true
	}

	if len(wanted) == 0 {
		values := make([]string, len(allowed))
		copy(values, allowed)
		return Predicate{Kind: PredicateRoleIn, Values: values}, true
	}

	allowedSet := make(map[string]struct{}, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}
	var effective []string
	for _, r := range wanted {
		if _, ok := allowedSet[r]; ok {
			effective = append(effective, r)
		}
	}
	if len(effective) == 0 {
		return Predicate{Kind: PredicateMatchNone}, true
	}
	return Predicate{Kind: PredicateRoleIn, Values: effective}, true
}

// normalizeLetter は A–Z の 1 文字だけを大文字で受け付けます。それ以外は空文字です。
func normalizeLetter(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if utf8.RuneCountInString(trimmed) != 1 {
		return ""
	}
	c := trimmed[0]
	switch {
	case c >= 'a' && c <= 'z':
		return string(c - 'a' + 'A')
	case c >= 'A' && c <= 'Z':
		return string(c)
	default:
		return ""
	}
}
