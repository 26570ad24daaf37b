// Package auth はベアラートークン (HMAC 署名の JWT) による閲覧者の識別を提供します。
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken はトークンの形式・署名・有効期限のいずれかが不正な場合に返却されます。
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrUnauthenticated は認証が必要な操作を匿名で呼び出した場合に返却されます。
	ErrUnauthenticated = errors.New("auth: unauthenticated")
	// ErrForbidden は必要なロールを持たない閲覧者が操作した場合に返却されます。
	ErrForbidden = errors.New("auth: forbidden")
)

// Viewer は認証済みの閲覧者です。
type Viewer struct {
	Subject string
	Roles   []string
}

// HasRole は閲覧者が role を持つかを返します。
func (v *Viewer) HasRole(role string) bool {
	if v == nil {
		return false
	}
	for _, r := range v.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Claims はトークンに含めるクレームです。
type Claims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Verifier はトークンの検証と発行を行います。
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// NewVerifier は Verifier を生成します。secret が空の場合は nil を返し、認証を無効化します。
func NewVerifier(secret string) *Verifier {
	if secret == "" {
		return nil
	}
	return &Verifier{secret: []byte(secret), now: time.Now}
}

// Verify はトークン文字列を検証し、閲覧者を返します。
func (v *Verifier) Verify(token string) (*Viewer, error) {
	if v == nil {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithTimeFunc(v.now))
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return nil, fmt.Errorf("%w: subject is required", ErrInvalidToken)
	}

	return &Viewer{Subject: subject, Roles: append([]string(nil), claims.Roles...)}, nil
}

// Issue は subject とロールを持つトークンを発行します。ttl が 0 以下なら有効期限を付けません。
func (v *Verifier) Issue(subject string, roles []string, ttl time.Duration) (string, error) {
	if v == nil {
		return "", ErrInvalidToken
	}
	now := v.now()
	claims := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// BearerToken は Authorization ヘッダ値からトークンを取り出します。
func BearerToken(header string) (string, bool) {
	const prefix = "bearer "
	header = strings.TrimSpace(header)
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

type viewerContextKey struct{}

// WithViewer は閲覧者をコンテキストに格納します。
func WithViewer(ctx context.Context, v *Viewer) context.Context {
	return context.WithValue(ctx, viewerContextKey{}, v)
}

// ViewerFromContext はコンテキストから閲覧者を取り出します。
func ViewerFromContext(ctx context.Context) (*Viewer, bool) {
	if ctx == nil {
		return nil, false
	}
	v, ok := ctx.Value(viewerContextKey{}).(*Viewer)
	return v, ok && v != nil
}

// Authenticated はコンテキストに認証済みの閲覧者がいるかを返します。
func Authenticated(ctx context.Context) bool {
	_, ok := ViewerFromContext(ctx)
	return ok
}

// RequireRole は閲覧者が role を持つことを確認します。
func RequireRole(ctx context.Context, role string) error {
	v, ok := ViewerFromContext(ctx)
	if !ok {
		return ErrUnauthenticated
	}
	if !v.HasRole(role) {
		return ErrForbidden
	}
	return nil
}
