package directory

import "errors"

var (
	// ErrLoginRequired はログイン必須設定で未認証の閲覧者がアクセスした場合に返却されます。
	ErrLoginRequired = errors.New("directory: login required")
	// ErrEmployeeNotFound は社員が存在しないか非掲載の場合に返却されます。
	ErrEmployeeNotFound = errors.New("directory: employee not found")
	// ErrInvalidSlug はプロフィールのスラッグが不正な場合に返却されます。
	ErrInvalidSlug = errors.New("directory: invalid slug")
	// ErrUnknownInstance は未登録の固定条件セット名が指定された場合に返却されます。
	ErrUnknownInstance = errors.New("directory: unknown instance")
)
