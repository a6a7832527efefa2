package echoapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/seatech/enthusiasm/core/token"
)

const (
	identityKey = "identity"
	tokenParam  = "token"
)

var (
	loginPaths = map[token.Role]string{
		token.RoleStudent: "/login",
		token.RoleAdmin:   "/admin/login",
	}
	cookieNames = map[token.Role]string{
		token.RoleStudent: "token",
		token.RoleAdmin:   "admin_token",
	}
	cookiePaths = map[token.Role]string{
		token.RoleStudent: "/",
		token.RoleAdmin:   "/admin",
	}
	missingTokenMsgs = map[token.Role]string{
		token.RoleStudent: "Session Expired",
		token.RoleAdmin:   "Admin Access Required",
	}
	invalidTokenMsgs = map[token.Role]string{
		token.RoleStudent: "Invalid Token",
		token.RoleAdmin:   "Unauthorized",
	}
)

// authMiddleware only lets through requests carrying a valid token issued for role.
// The identity is then available through contextIdentity.
func authMiddleware(tokens *token.Issuer, role token.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			tkn := requestToken(ctx, role)
			if tkn == "" {
				return newAuthError(role, missingTokenMsgs[role])
			}
			id, err := tokens.Verify(tkn, role)
			if err != nil {
				return newAuthError(role, invalidTokenMsgs[role])
			}
			ctx.Set(identityKey, id)
			return next(ctx)
		}
	}
}

// requestToken looks for a token in the Authorization header, the role's cookie,
// the query string and finally the form body.
func requestToken(ctx echo.Context, role token.Role) string {
	auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
	if scheme := "Bearer "; len(auth) > len(scheme) && strings.EqualFold(auth[:len(scheme)], scheme) {
		return strings.TrimSpace(auth[len(scheme):])
	}
	if c, err := ctx.Cookie(cookieNames[role]); err == nil && c.Value != "" {
		return c.Value
	}
	if tkn := ctx.QueryParam(tokenParam); tkn != "" {
		return tkn
	}
	return ctx.FormValue(tokenParam)
}

func contextIdentity(ctx echo.Context) (token.Identity, bool) {
	id, ok := ctx.Get(identityKey).(token.Identity)
	return id, ok
}

func setTokenCookie(ctx echo.Context, role token.Role, tkn string, ttl time.Duration, secure bool) {
	ctx.SetCookie(&http.Cookie{
		Name:     cookieNames[role],
		Value:    tkn,
		Path:     cookiePaths[role],
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearTokenCookie(ctx echo.Context, role token.Role) {
	ctx.SetCookie(&http.Cookie{
		Name:     cookieNames[role],
		Value:    "",
		Path:     cookiePaths[role],
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
