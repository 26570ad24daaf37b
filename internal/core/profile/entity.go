package profile

import (
	"sort"
	"strings"
)

// Platform はソーシャル／連絡先サービスの識別子です。
type Platform string

const (
	PlatformWhatsApp  Platform = "whatsapp"
	PlatformTelegram  Platform = "telegram"
	PlatformDiscord   Platform = "discord"
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformTwitter   Platform = "twitter"
	PlatformYouTube   Platform = "youtube"
	PlatformTikTok    Platform = "tiktok"
)

var platforms = []Platform{
	PlatformWhatsApp,
	PlatformTelegram,
	PlatformDiscord,
	PlatformInstagram,
	PlatformFacebook,
	PlatformTwitter,
	PlatformYouTube,
	PlatformTikTok,
}

// Platforms は既知のプラットフォームを表示順で返します。
func Platforms() []Platform {
	out := make([]Platform, len(platforms))
	copy(out, platforms)
	return out
}

// IsValidPlatform は既知のプラットフォームかどうかを判定します。
func IsValidPlatform(p Platform) bool {
	for _, known := range platforms {
		if known == p {
			return true
		}
	}
	return false
}

// 属性キー
const (
	KeyDepartment         = "department"
	KeyJobTitle           = "job_title"
	KeyPhone              = "phone"
	KeyOffice             = "office"
	KeyBio                = "bio"
	KeyPhotoURL           = "photo_url"
	KeyLinkedInURL        = "linkedin_url"
	KeyStartDate          = "start_date"
	KeyHiddenSocialFields = "hidden_social_fields"
)

// Profile は社員プロフィールです。レコードが存在しない場合は全項目が空のプロフィールとして扱います。
type Profile struct {
	AccountID    string
	Department   string
	JobTitle     string
	Phone        string
	Office       string
	Bio          string
	PhotoURL     string
	LinkedInURL  string
	StartDate    string
	Social       map[Platform]string
	HiddenSocial []Platform
}

// FromAttributes はキー/値の属性からプロフィールを組み立てます。
func FromAttributes(accountID string, attrs map[string]string) *Profile {
	p := &Profile{
		AccountID:   accountID,
		Department:  attrs[KeyDepartment],
		JobTitle:    attrs[KeyJobTitle],
		Phone:       attrs[KeyPhone],
		Office:      attrs[KeyOffice],
		Bio:         attrs[KeyBio],
		PhotoURL:    attrs[KeyPhotoURL],
		LinkedInURL: attrs[KeyLinkedInURL],
		StartDate:   attrs[KeyStartDate],
		Social:      make(map[Platform]string),
	}

	for _, pl := range platforms {
		if v := attrs[string(pl)]; v != "" {
			p.Social[pl] = v
		}
	}

	p.HiddenSocial = DecodeHiddenSocial(attrs[KeyHiddenSocialFields])
	return p
}

// Attributes はプロフィールをキー/値の属性に変換します。空の値も含みます。
func (p *Profile) Attributes() map[string]string {
	attrs := map[string]string{
		KeyDepartment:         p.Department,
		KeyJobTitle:           p.JobTitle,
		KeyPhone:              p.Phone,
		KeyOffice:             p.Office,
		KeyBio:                p.Bio,
		KeyPhotoURL:           p.PhotoURL,
		KeyLinkedInURL:        p.LinkedInURL,
		KeyStartDate:          p.StartDate,
		KeyHiddenSocialFields: EncodeHiddenSocial(p.HiddenSocial),
	}
	for _, pl := range platforms {
		attrs[string(pl)] = p.Social[pl]
	}
	return attrs
}

// IsSocialHidden は指定プラットフォームが本人により非表示にされているかを返します。
func (p *Profile) IsSocialHidden(pl Platform) bool {
	for _, hidden := range p.HiddenSocial {
		if hidden == pl {
			return true
		}
	}
	return false
}

// VisibleSocialLinks は非表示設定を除いたソーシャルリンクを表示順で返します。
func (p *Profile) VisibleSocialLinks() []Link {
	links := make([]Link, 0, len(p.Social))
	for _, pl := range platforms {
		value, ok := p.Social[pl]
		if !ok || strings.TrimSpace(value) == "" || p.IsSocialHidden(pl) {
			continue
		}
		links = append(links, SocialLink(pl, value))
	}
	return links
}

// EncodeHiddenSocial は非表示プラットフォーム集合を単一の文字列値に直列化します。
// 属性は単一値であるため、カンマ区切りかつソート済みで保存します。
func EncodeHiddenSocial(hidden []Platform) string {
	set := make(map[Platform]struct{}, len(hidden))
	for _, pl := range hidden {
		if IsValidPlatform(pl) {
			set[pl] = struct{}{}
		}
	}

	keys := make([]string, 0, len(set))
	for pl := range set {
		keys = append(keys, string(pl))
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

// DecodeHiddenSocial は保存形式から非表示プラットフォームを復元します。未知の値は無視します。
func DecodeHiddenSocial(raw string) []Platform {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var out []Platform
	for _, part := range strings.Split(raw, ",") {
		pl := Platform(strings.TrimSpace(part))
		if IsValidPlatform(pl) {
			out = append(out, pl)
		}
	}
	return out
}
