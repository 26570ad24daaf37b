package memory

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ogurasousui/staff-directory/internal/core/directory"
	"gopkg.in/yaml.v3"
)

// SeedAccount は初期データの 1 件です。
type SeedAccount struct {
	ID          string            `yaml:"id"`
	Login       string            `yaml:"login"`
	Email       string            `yaml:"email"`
	DisplayName string            `yaml:"display_name"`
	Slug        string            `yaml:"slug"`
	Roles       []string          `yaml:"roles"`
	Hidden      bool              `yaml:"hidden"`
	Profile     map[string]string `yaml:"profile"`
}

// SeedFile は初期データファイルの構造です。
type SeedFile struct {
	Accounts []SeedAccount `yaml:"accounts"`
}

// LoadSeedFile は YAML の初期データを読み込んで Store に登録します。
func LoadSeedFile(ctx context.Context, s *Store, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("memory: open seed %s: %w", path, err)
	}
	defer f.Close()
	return LoadSeed(ctx, s, f)
}

// LoadSeed は r から YAML の初期データを読み込んで Store に登録し、登録件数を返します。
func LoadSeed(ctx context.Context, s *Store, r io.Reader) (int, error) {
	var seed SeedFile
	if err := yaml.NewDecoder(r).Decode(&seed); err != nil {
		return 0, fmt.Errorf("memory: parse seed: %w", err)
	}

	for i, sa := range seed.Accounts {
		if sa.Login == "" {
			return i, fmt.Errorf("memory: seed account %d: login must be set", i)
		}
		a := s.AddAccount(directory.Account{
			ID:          sa.ID,
			Login:       sa.Login,
			Email:       sa.Email,
			DisplayName: sa.DisplayName,
			Slug:        sa.Slug,
			Roles:       sa.Roles,
			Hidden:      sa.Hidden,
		})
		if len(sa.Profile) > 0 {
			if err := s.Set(ctx, a.ID, sa.Profile); err != nil {
				return i, fmt.Errorf("memory: seed account %s: %w", sa.Login, err)
			}
		}
	}
	return len(seed.Accounts), nil
}
