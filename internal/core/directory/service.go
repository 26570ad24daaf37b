package directory

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/ogurasousui/staff-directory/internal/core/profile"
)

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// UseCase はディレクトリ閲覧ユースケースの公開インターフェースです。
type UseCase interface {
	ListEmployees(ctx context.Context, in ListEmployeesInput) (*ListEmployeesResult, error)
	ListNewHires(ctx context.Context, in ListNewHiresInput) ([]*Item, error)
	GetDepartments(ctx context.Context, in GetDepartmentsInput) ([]string, error)
	GetEmployee(ctx context.Context, in GetEmployeeInput) (*Item, error)
}

// Service はディレクトリ一覧に関するユースケースをまとめます。
type Service struct {
	accounts    AccountCollection
	profiles    ProfileReader
	departments *DepartmentCache
	builder     *Builder
	clock       Clock
	tx          TransactionManager
	logger      *slog.Logger
	listing     ListingObserver
}

// ListingObserver は一覧 1 ページの件数を受け取ります。
type ListingObserver interface {
	ObserveListedItems(n int)
}

// Option は Service の任意設定です。
type Option func(*Service)

// WithClock は現在時刻の取得元を設定します。
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithTransactionManager はトランザクション制御を設定します。
func WithTransactionManager(tx TransactionManager) Option {
	return func(s *Service) {
		if tx != nil {
			s.tx = tx
		}
	}
}

// WithLogger はロガーを設定します。
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTransforms は Query 組み立て後に適用する変換を登録します。
func WithTransforms(transforms ...Transform) Option {
	return func(s *Service) {
		s.builder = NewBuilder(transforms...)
	}
}

// WithDepartmentCache は部署一覧キャッシュを設定します。
func WithDepartmentCache(cache *DepartmentCache) Option {
	return func(s *Service) {
		if cache != nil {
			s.departments = cache
		}
	}
}

// WithListingObserver は一覧件数の記録先を設定します。
func WithListingObserver(o ListingObserver) Option {
	return func(s *Service) {
		s.listing = o
	}
}

// NewService は Service を生成します。部署キャッシュ未指定の場合は既定 TTL のキャッシュを作ります。
func NewService(accounts AccountCollection, profiles ProfileReader, opts ...Option) *Service {
	s := &Service{
		accounts: accounts,
		profiles: profiles,
		builder:  NewBuilder(),
		clock:    realClock{},
		tx:       noopTransactionManager{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.departments == nil {
		s.departments = NewDepartmentCache(profiles.DistinctDepartments, DefaultDepartmentCacheTTL, s.clock, nil)
	}
	return s
}

// Departments は Service が使う部署キャッシュを返します。プロフィール更新側からの破棄に使います。
func (s *Service) Departments() *DepartmentCache {
	return s.departments
}

// ListEmployeesInput は一覧取得時の入力です。
type ListEmployeesInput struct {
	Request       Request
	Locked        Locked
	Settings      Settings
	Authenticated bool
}

// ListEmployeesResult は一覧取得結果を表します。
type ListEmployeesResult struct {
	Items  []*Item
	Window Window
	Total  int
}

// ListNewHiresInput は新入社員一覧の入力です。Limit が 0 以下なら既定の件数です。
type ListNewHiresInput struct {
	Settings      Settings
	Authenticated bool
	Limit         int
}

// GetDepartmentsInput は部署一覧取得時の入力です。
type GetDepartmentsInput struct {
	Settings      Settings
	Authenticated bool
}

// GetEmployeeInput はスラッグによる社員取得時の入力です。
type GetEmployeeInput struct {
	Slug          string
	Settings      Settings
	Authenticated bool
}

// ListEmployees は条件に一致する社員の 1 ページ分とページ送り情報を返します。
func (s *Service) ListEmployees(ctx context.Context, in ListEmployeesInput) (*ListEmployeesResult, error) {
	settings := in.Settings.Normalize()
	if settings.RequireLogin && !in.Authenticated {
		return nil, ErrLoginRequired
	}

	q := s.builder.Build(in.Request, in.Locked, settings)

	result := &ListEmployeesResult{Items: []*Item{}}
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		total, err := s.accounts.Count(txCtx, q)
		if err != nil {
			return err
		}
		result.Total = total
		result.Window = ComputeWindow(total, q.PageSize, q.Page)
		if total == 0 {
			return nil
		}

		q.Page = result.Window.CurrentPage
		accounts, err := s.accounts.Find(txCtx, q)
		if err != nil {
			return err
		}
		items, err := s.assemble(txCtx, accounts, settings)
		if err != nil {
			return err
		}
		result.Items = items
		return nil
	}); err != nil {
		return nil, err
	}

	if s.listing != nil {
		s.listing.ObserveListedItems(len(result.Items))
	}
	s.logger.DebugContext(ctx, "employees listed",
		slog.Int("total", result.Total),
		slog.Int("page", result.Window.CurrentPage),
		slog.Int("page_size", q.PageSize),
	)
	return result, nil
}

// ListNewHires は入社日が閾値日数以内の社員を入社日の新しい順に返します。閾値が 0 の場合は空です。
func (s *Service) ListNewHires(ctx context.Context, in ListNewHiresInput) ([]*Item, error) {
	settings := in.Settings.Normalize()
	if settings.RequireLogin && !in.Authenticated {
		return nil, ErrLoginRequired
	}
	if settings.NewHireDays <= 0 {
		return []*Item{}, nil
	}

	today := s.clock.Now()
	q := s.builder.Build(Request{Sort: SortStartDateDesc, PerPage: in.Limit}, Locked{}, settings).
		With(Predicate{Kind: PredicateStartedSince, Value: profile.NewHireCutoff(today, settings.NewHireDays)})

	var items []*Item
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		accounts, err := s.accounts.Find(txCtx, q)
		if err != nil {
			return err
		}
		assembled, err := s.assemble(txCtx, accounts, settings)
		if err != nil {
			return err
		}
		items = assembled
		return nil
	}); err != nil {
		return nil, err
	}

	out := make([]*Item, 0, len(items))
	for _, item := range items {
		if item.NewHire {
			out = append(out, item)
		}
	}
	return out, nil
}

// GetDepartments は登録済みの部署名を重複なく昇順で返します。
func (s *Service) GetDepartments(ctx context.Context, in GetDepartmentsInput) ([]string, error) {
	settings := in.Settings.Normalize()
	if settings.RequireLogin && !in.Authenticated {
		return nil, ErrLoginRequired
	}
	return s.departments.Get(ctx)
}

// GetEmployee はスラッグで社員を取得します。非掲載もしくは許可ロール外のアカウントは存在しない扱いです。
func (s *Service) GetEmployee(ctx context.Context, in GetEmployeeInput) (*Item, error) {
	settings := in.Settings.Normalize()
	if settings.RequireLogin && !in.Authenticated {
		return nil, ErrLoginRequired
	}

	slug := strings.ToLower(strings.TrimSpace(in.Slug))
	if !slugPattern.MatchString(slug) {
		return nil, ErrInvalidSlug
	}

	var item *Item
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		account, err := s.accounts.FindBySlug(txCtx, slug)
		if err != nil {
			return err
		}
		if account == nil || account.Hidden || !hasAllowedRole(account.Roles, settings.AllowedRoles) {
			return ErrEmployeeNotFound
		}
		items, err := s.assemble(txCtx, []*Account{account}, settings)
		if err != nil {
			return err
		}
		item = items[0]
		return nil
	}); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) assemble(ctx context.Context, accounts []*Account, settings Settings) ([]*Item, error) {
	if len(accounts) == 0 {
		return []*Item{}, nil
	}

	ids := make([]string, 0, len(accounts))
	for _, a := range accounts {
		ids = append(ids, a.ID)
	}
	attrs, err := s.profiles.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	today := s.clock.Now()
	items := make([]*Item, 0, len(accounts))
	for _, a := range accounts {
		items = append(items, newItem(*a, profile.FromAttributes(a.ID, attrs[a.ID]), settings, today))
	}
	return items, nil
}

func newItem(account Account, p *profile.Profile, settings Settings, today time.Time) *Item {
	return &Item{
		Employee:        Employee{Account: account, Profile: p},
		DepartmentColor: profile.DepartmentColor(p.Department),
		Tenure:          profile.Tenure(p.StartDate, today),
		NewHire:         profile.IsNewHire(p.StartDate, today, settings.NewHireDays),
		AvatarURL:       profile.AvatarURL(p.PhotoURL, settings.AvatarStyle, account.DisplayName),
		Social:          p.VisibleSocialLinks(),
	}
}

func hasAllowedRole(roles, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, r := range roles {
		for _, a := range allowed {
			if r == a {
				return true
			}
		}
	}
	return false
}
