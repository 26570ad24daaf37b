package directory

import "context"

// AccountCollection は外部アカウント集合に対する検索の抽象です。
// Count はページ範囲に依存しない総件数、Find は Query のページ範囲を返します。
type AccountCollection interface {
	Count(ctx context.Context, q Query) (int, error)
	Find(ctx context.Context, q Query) ([]*Account, error)
	FindBySlug(ctx context.Context, slug string) (*Account, error)
}

// ProfileReader はプロフィール属性の読み取りを提供します。
type ProfileReader interface {
	GetMany(ctx context.Context, accountIDs []string) (map[string]map[string]string, error)
	DistinctDepartments(ctx context.Context) ([]string, error)
}
