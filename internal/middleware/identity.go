// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hitoshi/kpiboard/internal/model"
)

// userIDHeader は信頼された前段（APIゲートウェイ）が付与する認証済みユーザーIDヘッダー。
const userIDHeader = "X-User-ID"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// callerContextKey はリクエストコンテキストに呼び出しユーザーを格納するためのキー。
var callerContextKey = contextKey("caller")

// UserFinder は呼び出しユーザーの解決に必要なインターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*model.User, error)
}

// NewIdentityMiddleware はX-User-IDヘッダーから呼び出しユーザーを解決し、
// リクエストコンテキストに注入するミドルウェアを返す。
// ヘッダーが無い、不正、または未知のユーザーの場合は401を返す。
func NewIdentityMiddleware(userFinder UserFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(userIDHeader)
			if raw == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			userID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			caller, err := userFinder.FindByID(r.Context(), userID)
			if err != nil {
				slog.Error("failed to resolve caller",
					slog.Int64("user_id", userID),
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}
			if caller == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			ctx := context.WithValue(r.Context(), callerContextKey, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerFromContext はリクエストコンテキストから呼び出しユーザーを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func CallerFromContext(ctx context.Context) (*model.User, error) {
	caller, ok := ctx.Value(callerContextKey).(*model.User)
	if !ok || caller == nil {
		return nil, fmt.Errorf("caller not found in context")
	}
	return caller, nil
}

// ContextWithCaller はコンテキストに呼び出しユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithCaller(ctx context.Context, caller *model.User) context.Context {
	return context.WithValue(ctx, callerContextKey, caller)
}
