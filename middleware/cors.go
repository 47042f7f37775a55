package middleware

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const (
	corsAllowHeaders = "Content-Type, Authorization, X-Requested-With"
	corsAllowMethods = "GET,POST,PUT,PATCH,DELETE,OPTIONS"
)

// CORSConfig configures the request-boundary CORS gate.
type CORSConfig struct {
	// AllowAll bypasses the allow-list entirely. Debug deployments only.
	AllowAll bool
	// Origins are allowed origin patterns: exact scheme+host strings, or
	// globs with "*" segments ("https://app-*.vercel.app", "*.example.com").
	Origins []string
	// Debug logs the per-request decision.
	Debug bool
}

// CORS returns the CORS gate middleware. Matched origins are echoed back in
// Access-Control-Allow-Origin (plus Vary: Origin); credentials, fixed
// allow-headers and allow-methods are emitted on every response. OPTIONS
// preflights are always answered with 204 without invoking the wrapped
// handler, whether or not the origin matched. A non-matching origin simply
// gets no allow-origin header: the request is still served, the browser
// refuses to expose the response.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	matcher := newOriginMatcher(cfg.Origins)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			origin := req.Header.Get(echo.HeaderOrigin)
			allowed := cfg.AllowAll || matcher.match(origin)

			res := c.Response().Header()
			if origin != "" && allowed {
				res.Set(echo.HeaderAccessControlAllowOrigin, origin)
				res.Add(echo.HeaderVary, echo.HeaderOrigin)
			}
			res.Set(echo.HeaderAccessControlAllowCredentials, "true")
			res.Set(echo.HeaderAccessControlAllowHeaders, corsAllowHeaders)
			res.Set(echo.HeaderAccessControlAllowMethods, corsAllowMethods)

			if cfg.Debug {
				log.Debug().
					Str("origin", origin).
					Bool("allowed", allowed).
					Bool("allow_all", cfg.AllowAll).
					Str("method", req.Method).
					Str("path", req.URL.Path).
					Msg("cors decision")
			}

			if req.Method == http.MethodOptions {
				return c.NoContent(http.StatusNoContent)
			}
			return next(c)
		}
	}
}

// originMatcher matches request origins against configured patterns.
// Origins are normalized to lowercase scheme://host before matching, so a
// pattern never accidentally matches into the path and casing never
// matters (URL schemes and hosts are case-insensitive).
type originMatcher struct {
	exact map[string]bool
	globs []*regexp.Regexp
}

func newOriginMatcher(patterns []string) *originMatcher {
	m := &originMatcher{exact: make(map[string]bool, len(patterns))}
	for _, pat := range patterns {
		if !strings.Contains(pat, "*") {
			m.exact[strings.ToLower(pat)] = true
			continue
		}
		if re := compileGlob(pat); re != nil {
			m.globs = append(m.globs, re)
		}
	}
	return m
}

func (m *originMatcher) match(origin string) bool {
	if origin == "" {
		return false
	}

	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}
	full := strings.ToLower(u.Scheme + "://" + u.Host)

	if m.exact[full] {
		return true
	}
	for _, re := range m.globs {
		if re.MatchString(full) {
			return true
		}
	}
	return false
}

// compileGlob turns a "*" wildcard pattern into an anchored
// case-insensitive regexp.
func compileGlob(pat string) *regexp.Regexp {
	escaped := strings.ReplaceAll(regexp.QuoteMeta(pat), `\*`, ".*")
	re, err := regexp.Compile("(?i)^" + escaped + "$")
	if err != nil {
		log.Warn().Str("pattern", pat).Err(err).Msg("ignoring invalid origin pattern")
		return nil
	}
	return re
}
