package directory

import (
	"strings"
	"time"
)

const (
	DefaultPerPage            = 200
	MaxPerPage                = 500
	DefaultDepartmentCacheTTL = time.Hour
	DefaultAvatarStyle        = "initials"
)

// Settings はディレクトリ全体の設定です。呼び出しごとに明示的に渡します。
type Settings struct {
	DefaultPerPage int
	MaxPerPage     int
	AllowedRoles   []string
	RequireLogin   bool
	NewHireDays    int
	AvatarStyle    string
}

// DefaultSettings は既定値の Settings を返します。
func DefaultSettings() Settings {
	return Settings{
		DefaultPerPage: DefaultPerPage,
		MaxPerPage:     MaxPerPage,
		AvatarStyle:    DefaultAvatarStyle,
	}
}

// Normalize は範囲外の値を補正した Settings を返します。
func (s Settings) Normalize() Settings {
	out := s
	if out.MaxPerPage <= 0 || out.MaxPerPage > MaxPerPage {
		out.MaxPerPage = MaxPerPage
	}
	if out.DefaultPerPage <= 0 {
		out.DefaultPerPage = DefaultPerPage
	}
	out.DefaultPerPage = clampInt(out.DefaultPerPage, 1, out.MaxPerPage)
	if out.NewHireDays < 0 {
		out.NewHireDays = 0
	}
	if strings.TrimSpace(out.AvatarStyle) == "" {
		out.AvatarStyle = DefaultAvatarStyle
	}
	out.AllowedRoles = uniqueNonEmpty(out.AllowedRoles)
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func uniqueNonEmpty(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
