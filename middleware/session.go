package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	backoffice "github.com/sulpet/backoffice"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "session"

// claimsContextKey is where RequireSession stores the verified claims in
// the echo context.
const claimsContextKey = "session-claims"

// RequireSession gates a route on a valid session token. The token is read
// from the Authorization header ("Bearer <token>") first; when no bearer
// token is present the session cookie is used. A bearer token, once
// present, is authoritative: an invalid one is rejected even if a valid
// cookie rides along. Failures answer 401 {"ok":false}.
func RequireSession(sessions *backoffice.SessionService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c.Request())
			if token == "" {
				if cookie, err := c.Cookie(SessionCookieName); err == nil {
					token = cookie.Value
				}
			}
			if token == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"ok": false})
			}

			claims, err := sessions.Verify(token)
			if err != nil {
				log.Debug().Err(err).Msg("session verification failed")
				return c.JSON(http.StatusUnauthorized, echo.Map{"ok": false})
			}

			c.Set(claimsContextKey, claims)
			return next(c)
		}
	}
}

// ClaimsFrom returns the verified session claims stored by RequireSession.
func ClaimsFrom(c echo.Context) (*backoffice.Claims, bool) {
	claims, ok := c.Get(claimsContextKey).(*backoffice.Claims)
	return claims, ok
}

func bearerToken(req *http.Request) string {
	const prefix = "Bearer "
	header := req.Header.Get(echo.HeaderAuthorization)
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
