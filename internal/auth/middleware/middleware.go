package auth

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mind-engage/mindengage-courses/internal/apierr"
	"github.com/mind-engage/mindengage-courses/internal/httpx"
)

const (
	CookieAccess  = "sb-access-token"
	CookieRefresh = "sb-refresh-token"

	tokenAccess  = "access"
	tokenRefresh = "refresh"

	AccessTTL  = 8 * time.Hour
	RefreshTTL = 30 * 24 * time.Hour
)

// legacyAccessCookies are still honoured when reading a session.
var legacyAccessCookies = []string{"access_token", "me_access_token"}

type AuthService struct {
	hmac []byte
	now  func() time.Time
}

func NewAuthService(secret string) *AuthService {
	return &AuthService{hmac: []byte(secret), now: time.Now}
}

type Claims struct {
	Sub  string `json:"sub"`
	Kind string `json:"kind"` // access|refresh
	jwt.RegisteredClaims
}

func (a *AuthService) issue(sub, kind string, ttl time.Duration) (string, error) {
	now := a.now()
	claims := &Claims{
		Sub:  sub,
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "mindengage-courses",
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.hmac)
}

func (a *AuthService) IssueAccess(sub string) (string, error) {
	return a.issue(sub, tokenAccess, AccessTTL)
}

func (a *AuthService) IssueRefresh(sub string) (string, error) {
	return a.issue(sub, tokenRefresh, RefreshTTL)
}

func (a *AuthService) parse(tokenStr, kind string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, err
	}
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || c.Sub == "" {
		return nil, errors.New("invalid token")
	}
	if c.Kind != kind {
		return nil, errors.New("wrong token kind")
	}
	return c, nil
}

// Parse validates an access token.
func (a *AuthService) Parse(tokenStr string) (*Claims, error) {
	return a.parse(tokenStr, tokenAccess)
}

func (a *AuthService) ParseRefresh(tokenStr string) (*Claims, error) {
	return a.parse(tokenStr, tokenRefresh)
}

// AccessToken extracts the raw session token from a Bearer header or one of
// the session cookies.
func AccessToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	for _, name := range append([]string{CookieAccess}, legacyAccessCookies...) {
		if c, err := r.Cookie(name); err == nil && c.Value != "" {
			return c.Value
		}
	}
	return ""
}

// HasSessionCookie reports whether any session-bearing credential is present,
// without validating it.
func HasSessionCookie(r *http.Request) bool {
	if AccessToken(r) != "" {
		return true
	}
	c, err := r.Cookie(CookieRefresh)
	return err == nil && c.Value != ""
}

// SessionMiddleware resolves the caller's identity or answers 401.
func SessionMiddleware(a *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := AccessToken(r)
			if tok == "" {
				httpx.WriteError(w, apierr.Unauthenticated())
				return
			}
			claims, err := a.Parse(tok)
			if err != nil {
				httpx.WriteError(w, apierr.Unauthenticated())
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), claims.Sub)))
		})
	}
}

// PageSessionMiddleware is SessionMiddleware for server-rendered pages: a
// missing or invalid session redirects to the login page.
func PageSessionMiddleware(a *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := a.Parse(AccessToken(r))
			if err != nil {
				http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), claims.Sub)))
		})
	}
}
