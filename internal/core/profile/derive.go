package profile

import (
	"hash/crc32"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// departmentPalette の並びと CRC32 (IEEE) による割り当ては利用者に見えるため変更しないこと。
var departmentPalette = [...]string{
	"#3b82f6",
	"#10b981",
	"#f59e0b",
	"#ef4444",
	"#8b5cf6",
	"#ec4899",
	"#06b6d4",
	"#84cc16",
}

// DepartmentColor は部署名から決定的に色 (#rrggbb) を返します。部署が空の場合は空文字です。
func DepartmentColor(department string) string {
	if department == "" {
		return ""
	}
	sum := crc32.ChecksumIEEE([]byte(department))
	return departmentPalette[sum%uint32(len(departmentPalette))]
}

var yearMonthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// ParseStartDate は YYYY-MM もしくは YYYY-MM-DD を解釈します。日が無い場合は月初とみなします。
func ParseStartDate(raw string) (time.Time, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, false
	}
	if yearMonthPattern.MatchString(value) {
		value += "-01"
	}

	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Tenure は入社日から today までの在籍年数を "{n} yrs" / "< 1 yr" で返します。解釈できない場合は空文字です。
func Tenure(startDate string, today time.Time) string {
	start, ok := ParseStartDate(startDate)
	if !ok {
		return ""
	}

	years := wholeYears(start, dateOf(today))
	if years >= 1 {
		return strconv.Itoa(years) + " yrs"
	}
	return "< 1 yr"
}

// IsNewHire は入社日からの経過日数が thresholdDays 以内かを判定します。
// thresholdDays が 0 以下、または入社日が未来の場合は false です。
func IsNewHire(startDate string, today time.Time, thresholdDays int) bool {
	if thresholdDays <= 0 {
		return false
	}
	start, ok := ParseStartDate(startDate)
	if !ok {
		return false
	}

	days := int(dateOf(today).Sub(start).Hours() / 24)
	return days >= 0 && days <= thresholdDays
}

// NewHireCutoff は新入社員とみなす最も古い入社月 (YYYY-MM) を返します。
func NewHireCutoff(today time.Time, thresholdDays int) string {
	return dateOf(today).AddDate(0, 0, -thresholdDays).Format("2006-01")
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// wholeYears は start から end までの満年数を返します。end が start より前なら 0 以下です。
func wholeYears(start, end time.Time) int {
	years := end.Year() - start.Year()
	if end.Month() < start.Month() || (end.Month() == start.Month() && end.Day() < start.Day()) {
		years--
	}
	return years
}

// Link はソーシャルリンクの表示情報です。URL が空の場合はテキストのみ表示します。
type Link struct {
	Platform Platform
	Label    string
	URL      string
	Value    string
}

var nonDigitPattern = regexp.MustCompile(`\D`)

// SocialLink はプラットフォームと保存値からリンクを組み立てます。
func SocialLink(pl Platform, value string) Link {
	value = strings.TrimSpace(value)
	handle := url.PathEscape(strings.TrimLeft(value, "@"))

	link := Link{Platform: pl, Value: value}
	switch pl {
	case PlatformWhatsApp:
		link.Label = "WhatsApp"
		link.URL = "https://wa.me/" + nonDigitPattern.ReplaceAllString(value, "")
	case PlatformTelegram:
		link.Label = "Telegram"
		link.URL = "https://t.me/" + handle
	case PlatformDiscord:
		// Discord には共通のプロフィール URL が無い
		link.Label = "Discord"
	case PlatformInstagram:
		link.Label = "Instagram"
		link.URL = "https://instagram.com/" + handle + "/"
	case PlatformFacebook:
		link.Label = "Facebook"
		link.URL = value
	case PlatformTwitter:
		link.Label = "Twitter / X"
		link.URL = "https://x.com/" + handle
	case PlatformYouTube:
		link.Label = "YouTube"
		link.URL = value
	case PlatformTikTok:
		link.Label = "TikTok"
		link.URL = "https://tiktok.com/@" + handle
	}
	return link
}

const avatarBaseURL = "https://api.dicebear.com/9.x/"

// AvatarURL は写真 URL があればそれを、無ければ表示名をシードにした DiceBear の URL を返します。
func AvatarURL(photoURL, style, displayName string) string {
	if photoURL != "" {
		return photoURL
	}
	if style == "" {
		style = "initials"
	}
	return avatarBaseURL + url.PathEscape(style) + "/svg?seed=" + url.QueryEscape(displayName)
}
