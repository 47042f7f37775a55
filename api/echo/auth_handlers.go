package echo

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/sulpet/backoffice/middleware"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginHandler authenticates a credential pair and issues a session token.
// The token is returned in the body and also set as an HttpOnly cookie so
// both bearer-style and cookie-style clients work.
func (a *BackOfficeAPI) LoginHandler(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Usuário e senha obrigatórios"})
	}

	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Usuário e senha obrigatórios"})
	}

	if err := a.credentials.Authenticate(username, req.Password); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Credenciais inválidas"})
	}

	token, expiresIn, err := a.sessions.Issue(username)
	if err != nil {
		log.Error().Err(err).Msg("failed to issue session token")
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false})
	}

	c.SetCookie(a.sessionCookie(token, expiresIn))

	return c.JSON(http.StatusOK, echo.Map{"ok": true, "token": token, "expiresIn": expiresIn})
}

// MeHandler returns the authenticated principal.
func (a *BackOfficeAPI) MeHandler(c echo.Context) error {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"ok": false})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "user": echo.Map{"username": claims.Subject}})
}

// LogoutHandler clears the session cookie. Tokens are stateless, so logout
// only discards the client-held copy; an already-exported bearer token
// stays valid until expiry.
func (a *BackOfficeAPI) LogoutHandler(c echo.Context) error {
	cookie := a.sessionCookie("", -1)
	cookie.Expires = time.Unix(0, 0)
	c.SetCookie(cookie)

	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// sessionCookie builds the session cookie: HttpOnly, host-wide. Production
// runs cross-site behind HTTPS and needs SameSite=None; Secure; elsewhere
// Lax keeps local development over plain HTTP working.
func (a *BackOfficeAPI) sessionCookie(token string, maxAge int) *http.Cookie {
	cookie := &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   maxAge,
	}
	if maxAge > 0 {
		cookie.Expires = time.Now().Add(time.Duration(maxAge) * time.Second)
	}
	if a.cfg.IsProduction() {
		cookie.SameSite = http.SameSiteNoneMode
		cookie.Secure = true
	} else {
		cookie.SameSite = http.SameSiteLaxMode
	}
	return cookie
}
