package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// UnaryServerInterceptor は authorization メタデータを検証し、閲覧者をコンテキストに格納します。
// トークンが無いリクエストは匿名として通し、不正なトークンは Unauthenticated で拒否します。
func UnaryServerInterceptor(v *Verifier) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if v == nil {
			return handler(ctx, req)
		}

		md, _ := metadata.FromIncomingContext(ctx)
		values := md.Get("authorization")
		if len(values) == 0 {
			return handler(ctx, req)
		}

		token, ok := BearerToken(values[0])
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "malformed authorization metadata")
		}
		viewer, err := v.Verify(token)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
		}
		return handler(WithViewer(ctx, viewer), req)
	}
}

// Middleware は Authorization ヘッダを検証し、閲覧者をリクエストコンテキストに格納します。
func Middleware(v *Verifier) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if v == nil || header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := BearerToken(header)
			if !ok {
				writeUnauthorized(w, "invalid authorization header")
				return
			}
			viewer, err := v.Verify(token)
			if err != nil {
				writeUnauthorized(w, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), viewer)))
		})
	}
}

// writeUnauthorized は JSON API と同じ {"error": ...} 形式で 401 を返します。
func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
