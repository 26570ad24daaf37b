package directory

import (
	"fmt"
	"strings"
)

// Instances は埋め込み先の名前ごとの固定条件です。固定値はサーバー側の設定からのみ与えられます。
type Instances map[string]Locked

// Resolve は名前に対応する固定条件を返します。空の名前は固定条件無しです。
func (i Instances) Resolve(name string) (Locked, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Locked{}, nil
	}
	locked, ok := i[name]
	if !ok {
		return Locked{}, fmt.Errorf("%s: %w", name, ErrUnknownInstance)
	}
	return locked, nil
}
