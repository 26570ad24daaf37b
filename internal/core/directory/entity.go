package directory

import "github.com/ogurasousui/staff-directory/internal/core/profile"

// Account は外部アカウント集合から取得した利用者の情報です。
type Account struct {
	ID          string
	Login       string
	Email       string
	DisplayName string
	Slug        string
	Roles       []string
	Hidden      bool
}

// Employee はアカウントとプロフィールの組です。
type Employee struct {
	Account Account
	Profile *profile.Profile
}

// Item は一覧・プロフィール表示用に派生属性を付与した社員です。
type Item struct {
	Employee
	DepartmentColor string
	Tenure          string
	NewHire         bool
	AvatarURL       string
	Social          []profile.Link
}
