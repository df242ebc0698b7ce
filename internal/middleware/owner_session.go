// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/garagesale/internal/access"
	"github.com/hitoshi/garagesale/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// ownerGarageIDContextKey はオーナーセッションが示すガレージIDを格納するキー。
var ownerGarageIDContextKey = contextKey("owner_garage_id")

// garageIDHolderContextKey はロギングミドルウェアへガレージIDを受け渡すホルダーのキー。
var garageIDHolderContextKey = contextKey("garage_id_holder")

// garageIDHolder は内側のミドルウェアで判明したガレージIDを外側のロギングへ伝える。
type garageIDHolder struct {
	garageID string
}

func contextWithGarageIDHolder(ctx context.Context, h *garageIDHolder) context.Context {
	return context.WithValue(ctx, garageIDHolderContextKey, h)
}

// SessionVerifier はオーナーセッショントークンの検証に必要なインターフェース。
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (*model.OwnerSession, error)
}

// NewOwnerSessionMiddleware はオーナーセッションCookieを検証し、
// 有効な場合はガレージIDをリクエストコンテキストに注入するミドルウェアを返す。
// 閲覧は匿名でも可能なため、Cookieがない・無効な場合もリクエストは拒否しない。
func NewOwnerSessionMiddleware(verifier SessionVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := access.TokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			session, err := verifier.Verify(r.Context(), token)
			if err != nil {
				if !errors.Is(err, access.ErrInvalidToken) {
					slog.Error("failed to verify owner session",
						slog.String("error", err.Error()),
					)
				}
				next.ServeHTTP(w, r)
				return
			}

			if h, ok := r.Context().Value(garageIDHolderContextKey).(*garageIDHolder); ok {
				h.garageID = session.GarageID
			}
			next.ServeHTTP(w, r.WithContext(ContextWithOwnerGarageID(r.Context(), session.GarageID)))
		})
	}
}

// RequireOwner はオーナーセッションのないリクエストを401で拒否するミドルウェア。
// どのガレージのオーナーかの照合はサービス層で行う。
func RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if OwnerGarageIDFromContext(r.Context()) == "" {
			WriteErrorResponse(w, http.StatusUnauthorized, model.NewOwnerRequiredError())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// OwnerGarageIDFromContext はオーナーセッションが示すガレージIDを返す。
// 匿名リクエストでは空文字列を返す。
func OwnerGarageIDFromContext(ctx context.Context) string {
	garageID, _ := ctx.Value(ownerGarageIDContextKey).(string)
	return garageID
}

// ContextWithOwnerGarageID はコンテキストにオーナーのガレージIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithOwnerGarageID(ctx context.Context, garageID string) context.Context {
	return context.WithValue(ctx, ownerGarageIDContextKey, garageID)
}
