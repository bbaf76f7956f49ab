// Package identity извлекает пользователя из входящего HTTP-запроса.
package identity

import (
	"context"
	"net/http"
	"strings"

	"github.com/vladislavdragonenkov/foodhub/internal/domain"
)

// Заголовки, из которых читается пользователь.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserName = "X-User-Name"
	headerAuth     = "Authorization"
	bearerPrefix   = "Bearer "
)

type ctxKey struct{}

// WithIdentity кладёт пользователя в контекст.
func WithIdentity(ctx context.Context, user domain.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

// FromContext достаёт пользователя из контекста.
func FromContext(ctx context.Context) (domain.Identity, bool) {
	user, ok := ctx.Value(ctxKey{}).(domain.Identity)
	if !ok || user.UserID == "" {
		return domain.Identity{}, false
	}
	return user, true
}

// ContextProvider реализует domain.IdentityProvider поверх контекста запроса.
type ContextProvider struct{}

// CurrentUser возвращает пользователя текущего запроса.
func (ContextProvider) CurrentUser(ctx context.Context) (domain.Identity, bool) {
	return FromContext(ctx)
}

var _ domain.IdentityProvider = ContextProvider{}

// FromRequest читает пользователя из заголовков. Пустой X-User-Id означает анонимный запрос.
func FromRequest(r *http.Request) (domain.Identity, bool) {
	uid := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if uid == "" {
		return domain.Identity{}, false
	}

	user := domain.Identity{
		UserID: uid,
		Name:   strings.TrimSpace(r.Header.Get(HeaderUserName)),
	}
	if auth := r.Header.Get(headerAuth); strings.HasPrefix(auth, bearerPrefix) {
		user.Token = strings.TrimSpace(strings.TrimPrefix(auth, bearerPrefix))
	}
	return user, true
}

// Middleware кладёт пользователя из заголовков в контекст запроса.
// Анонимные запросы пропускаются без изменений: решение о доступе принимает обработчик.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, ok := FromRequest(r); ok {
			r = r.WithContext(WithIdentity(r.Context(), user))
		}
		next.ServeHTTP(w, r)
	})
}
