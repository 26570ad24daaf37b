package profile

import "context"

// Store はアカウント ID をキーとするプロフィール属性ストアの抽象です。
type Store interface {
	Get(ctx context.Context, accountID string) (map[string]string, error)
	GetMany(ctx context.Context, accountIDs []string) (map[string]map[string]string, error)
	// Set は指定キーのみを更新します。指定のないキーは変更しません。
	Set(ctx context.Context, accountID string, attrs map[string]string) error
	DistinctDepartments(ctx context.Context) ([]string, error)
}

// AccountVisibility はディレクトリ掲載可否フラグの更新を提供します。
type AccountVisibility interface {
	SetHidden(ctx context.Context, accountID string, hidden bool) error
}
