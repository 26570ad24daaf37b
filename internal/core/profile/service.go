package profile

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
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

// DepartmentInvalidator は部署一覧キャッシュの破棄を受け付けます。
type DepartmentInvalidator interface {
	InvalidateDepartments()
}

type noopInvalidator struct{}

func (noopInvalidator) InvalidateDepartments() {}

// UseCase は HR 向けプロフィール管理ユースケースの公開インターフェースです。
type UseCase interface {
	GetProfile(ctx context.Context, in GetProfileInput) (*Profile, error)
	UpdateProfile(ctx context.Context, in UpdateProfileInput) (*Profile, error)
	SetVisibility(ctx context.Context, in SetVisibilityInput) error
}

// Service はプロフィールの読み書きをまとめます。
type Service struct {
	store       Store
	accounts    AccountVisibility
	invalidator DepartmentInvalidator
	tx          TransactionManager
	logger      *slog.Logger
}

// Option は Service の任意設定です。
type Option func(*Service)

// WithInvalidator は部署キャッシュの破棄先を設定します。
func WithInvalidator(inv DepartmentInvalidator) Option {
	return func(s *Service) {
		if inv != nil {
			s.invalidator = inv
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

// NewService は Service を生成します。
func NewService(store Store, accounts AccountVisibility, opts ...Option) *Service {
	s := &Service{
		store:       store,
		accounts:    accounts,
		invalidator: noopInvalidator{},
		tx:          noopTransactionManager{},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetProfileInput はプロフィール取得時の入力です。
type GetProfileInput struct {
	AccountID string
}

// UpdateProfileInput はプロフィール部分更新の入力です。Fields に含まれないキーは変更しません。
type UpdateProfileInput struct {
	AccountID       string
	Fields          map[string]string
	HiddenSocial    []Platform
	HiddenSocialSet bool
}

// SetVisibilityInput はディレクトリ掲載可否の変更入力です。
type SetVisibilityInput struct {
	AccountID string
	Hidden    bool
}

// GetProfile はプロフィールを取得します。
func (s *Service) GetProfile(ctx context.Context, in GetProfileInput) (*Profile, error) {
	id, err := normalizeAccountID(in.AccountID)
	if err != nil {
		return nil, err
	}

	var result *Profile
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		attrs, err := s.store.Get(txCtx, id)
		if err != nil {
			return err
		}
		result = FromAttributes(id, attrs)
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// UpdateProfile は項目定義に従って入力を正規化し、指定された項目だけを保存します。
func (s *Service) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*Profile, error) {
	id, err := normalizeAccountID(in.AccountID)
	if err != nil {
		return nil, err
	}

	attrs, err := sanitizeFields(in.Fields)
	if err != nil {
		return nil, err
	}

	if in.HiddenSocialSet {
		for _, pl := range in.HiddenSocial {
			if !IsValidPlatform(pl) {
				return nil, fmt.Errorf("%s: %w", pl, ErrInvalidPlatform)
			}
		}
		attrs[KeyHiddenSocialFields] = EncodeHiddenSocial(in.HiddenSocial)
	}

	if len(attrs) == 0 {
		return nil, ErrNothingToUpdate
	}

	var updated *Profile
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.store.Set(txCtx, id, attrs); err != nil {
			return err
		}
		current, err := s.store.Get(txCtx, id)
		if err != nil {
			return err
		}
		updated = FromAttributes(id, current)
		return nil
	}); err != nil {
		return nil, err
	}

	if _, ok := attrs[KeyDepartment]; ok {
		s.invalidator.InvalidateDepartments()
		s.logger.DebugContext(ctx, "department cache invalidated", slog.String("account_id", id))
	}

	return updated, nil
}

// SetVisibility はアカウントのディレクトリ掲載可否を切り替えます。プロフィールは削除しません。
func (s *Service) SetVisibility(ctx context.Context, in SetVisibilityInput) error {
	id, err := normalizeAccountID(in.AccountID)
	if err != nil {
		return err
	}

	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		return s.accounts.SetHidden(txCtx, id, in.Hidden)
	}); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "directory visibility changed",
		slog.String("account_id", id),
		slog.Bool("hidden", in.Hidden),
	)
	return nil
}

func sanitizeFields(raw map[string]string) (map[string]string, error) {
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make(map[string]string, len(raw))
	for _, key := range keys {
		field, ok := LookupField(key)
		if !ok {
			return nil, fmt.Errorf("%s: %w", key, ErrUnknownField)
		}
		value, err := field.Normalize(raw[key])
		if err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, nil
}

func normalizeAccountID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidAccountID
	}
	parsed, err := uuid.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%s: %w", trimmed, ErrInvalidAccountID)
	}
	return parsed.String(), nil
}
