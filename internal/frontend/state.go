// Package frontend はディレクトリ閲覧クライアントの操作状態を管理します。
package frontend

import (
	"errors"
	"strings"
	"time"

	httphandler "github.com/ogurasousui/staff-directory/internal/adapters/http/handler"
	"github.com/ogurasousui/staff-directory/internal/core/directory"
)

const (
	// DefaultDebounce は検索入力の静止待ち時間です。
	DefaultDebounce = 300 * time.Millisecond
	// ViewPreferenceKey は表示形式の保存キーです。
	ViewPreferenceKey = "ed_view"
	// SortPreferenceKey は並び順の保存キーです。
	SortPreferenceKey = "ed_sort"
)

// ErrLoginRequired は一覧の閲覧にログインが必要な場合に返却されます。
var ErrLoginRequired = errors.New("frontend: login required")

// View は一覧の表示形式です。
type View string

const (
	ViewGrid     View = "grid"
	ViewList     View = "list"
	ViewVertical View = "vertical"
)

// ParseView は文字列を View に変換します。未知の値は ok=false です。
func ParseView(raw string) (View, bool) {
	switch v := View(strings.TrimSpace(raw)); v {
	case ViewGrid, ViewList, ViewVertical:
		return v, true
	default:
		return ViewGrid, false
	}
}

// Locked は埋め込み先で固定された条件です。Instance はサーバー側の固定条件セット名です。
type Locked struct {
	Instance   string
	Department string
}

// Params は 1 回の一覧取得に使う条件です。
type Params struct {
	Search     string
	Department string
	Sort       directory.SortKey
	Letter     string
	Page       int
	Instance   string
}

// Result は一覧取得の応答です。
type Result = httphandler.ListResponse

// Button はページ送りボタンです。ページ番号 0 は省略記号です。
type Button = httphandler.ButtonView

// State はクライアントが保持する操作状態のスナップショットです。
type State struct {
	SearchText string
	Department string
	Sort       directory.SortKey
	Letter     string
	Page       int
	View       View

	Loading       bool
	LoginRequired bool
	LastError     error
	Result        *Result
}

func normalizeLetter(raw string) string {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if len(raw) != 1 || raw[0] < 'A' || raw[0] > 'Z' {
		return ""
	}
	return raw
}
