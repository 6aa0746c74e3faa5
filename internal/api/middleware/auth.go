package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/granrifa/rifa-api/internal/api/handler/v1/response"
	"github.com/granrifa/rifa-api/internal/pkg/jwthelper"
)

// SessionCookieName is the cookie the browser UI carries the session in.
// API callers may send the same token as a Bearer header instead.
const SessionCookieName = "auth_session"

const usernameKey = "session_username"

var errNoSession = errors.New("authentication required")

type Authenticator struct {
	signingKey []byte
}

func NewAuthenticator(signingKey string) *Authenticator {
	return &Authenticator{
		signingKey: []byte(signingKey),
	}
}

// VerifySession gates every admin route. The handler body never checks auth
// itself; an invalid or absent token aborts here with a 401.
func (a *Authenticator) VerifySession() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString := a.extractToken(ctx)
		if tokenString == "" {
			response.RenderErr(ctx, response.ErrUnauthorized(errNoSession))

			return
		}

		claims, err := jwthelper.ParseToken(a.signingKey, tokenString)
		if err != nil {
			response.RenderErr(ctx, response.ErrUnauthorized(err))

			return
		}

		ctx.Set(usernameKey, claims.Username)
		ctx.Next()
	}
}

func (a *Authenticator) extractToken(ctx *gin.Context) string {
	if cookie, err := ctx.Cookie(SessionCookieName); err == nil && cookie != "" {
		return cookie
	}

	header := ctx.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}

	return ""
}

// SessionUsername returns the admin name the middleware stored, empty if the
// route was not gated.
func SessionUsername(ctx *gin.Context) string {
	return ctx.GetString(usernameKey)
}
