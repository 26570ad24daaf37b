package profile

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// FieldKind はプロフィール項目ごとの正規化規則の種別です。
type FieldKind int

const (
	KindText FieldKind = iota + 1
	KindURL
	KindMultilineText
	KindDateYearMonth
)

func (k FieldKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindURL:
		return "url"
	case KindMultilineText:
		return "multiline_text"
	case KindDateYearMonth:
		return "date_year_month"
	default:
		return "unknown"
	}
}

// Field はプロフィール項目の定義です。
type Field struct {
	Key   string
	Label string
	Kind  FieldKind
}

var fields = []Field{
	{Key: KeyDepartment, Label: "Department", Kind: KindText},
	{Key: KeyJobTitle, Label: "Job Title", Kind: KindText},
	{Key: KeyPhone, Label: "Phone", Kind: KindText},
	{Key: KeyOffice, Label: "Office / Location", Kind: KindText},
	{Key: KeyBio, Label: "Bio", Kind: KindMultilineText},
	{Key: KeyPhotoURL, Label: "Profile Photo URL", Kind: KindURL},
	{Key: KeyLinkedInURL, Label: "LinkedIn URL", Kind: KindURL},
	{Key: KeyStartDate, Label: "Start Date", Kind: KindDateYearMonth},
	{Key: string(PlatformWhatsApp), Label: "WhatsApp", Kind: KindText},
	{Key: string(PlatformTelegram), Label: "Telegram", Kind: KindText},
	{Key: string(PlatformDiscord), Label: "Discord", Kind: KindText},
	{Key: string(PlatformInstagram), Label: "Instagram", Kind: KindText},
	{Key: string(PlatformFacebook), Label: "Facebook", Kind: KindURL},
	{Key: string(PlatformTwitter), Label: "Twitter / X", Kind: KindText},
	{Key: string(PlatformYouTube), Label: "YouTube", Kind: KindURL},
	{Key: string(PlatformTikTok), Label: "TikTok", Kind: KindText},
}

// Fields はプロフィール項目の定義を表示順で返します。
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// LookupField はキーから項目定義を引きます。
func LookupField(key string) (Field, bool) {
	for _, f := range fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

var (
	validate = validator.New()

	tagPattern         = regexp.MustCompile(`<[^>]*>`)
	inlineSpacePattern = regexp.MustCompile(`[ \t\f\v]+`)
	anySpacePattern    = regexp.MustCompile(`\s+`)
)

// Normalize は項目種別に応じて入力値を正規化します。空文字は常に有効です。
func (f Field) Normalize(raw string) (string, error) {
	switch f.Kind {
	case KindText:
		return normalizeText(raw), nil
	case KindMultilineText:
		return normalizeMultiline(raw), nil
	case KindURL:
		v, err := normalizeURL(raw)
		if err != nil {
			return "", fmt.Errorf("%s: %w", f.Key, err)
		}
		return v, nil
	case KindDateYearMonth:
		v, err := normalizeYearMonth(raw)
		if err != nil {
			return "", fmt.Errorf("%s: %w", f.Key, err)
		}
		return v, nil
	default:
		return "", fmt.Errorf("%s: %w", f.Key, ErrUnknownField)
	}
}

func normalizeText(raw string) string {
	stripped := tagPattern.ReplaceAllString(raw, "")
	return strings.TrimSpace(anySpacePattern.ReplaceAllString(stripped, " "))
}

func normalizeMultiline(raw string) string {
	stripped := tagPattern.ReplaceAllString(raw, "")
	stripped = strings.ReplaceAll(stripped, "\r\n", "\n")
	stripped = strings.ReplaceAll(stripped, "\r", "\n")

	lines := strings.Split(stripped, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(inlineSpacePattern.ReplaceAllString(line, " "))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func normalizeURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil
	}
	if err := validate.Var(trimmed, "url"); err != nil {
		return "", ErrInvalidFieldValue
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", ErrInvalidFieldValue
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
		return trimmed, nil
	default:
		return "", ErrInvalidFieldValue
	}
}

// normalizeYearMonth は YYYY-MM または YYYY-MM-DD を受け付け、YYYY-MM で返します。
func normalizeYearMonth(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil
	}

	if len(trimmed) == len("2006-01-02") {
		if _, err := time.Parse("2006-01-02", trimmed); err != nil {
			return "", ErrInvalidFieldValue
		}
		trimmed = trimmed[:len("2006-01")]
	}

	if err := validate.Var(trimmed, "datetime=2006-01"); err != nil {
		return "", ErrInvalidFieldValue
	}
	return trimmed, nil
}
