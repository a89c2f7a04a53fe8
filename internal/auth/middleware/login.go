package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/mind-engage/mindengage-courses/internal/apierr"
	"github.com/mind-engage/mindengage-courses/internal/httpx"
	"github.com/mind-engage/mindengage-courses/internal/profile"
)

type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (profile.Profile, error)
}

type CookieOptions struct {
	Secure bool
}

func (o CookieOptions) set(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
	})
}

func (o CookieOptions) clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", Expires: time.Unix(0, 0), MaxAge: -1})
}

// SetSession mints both tokens for sub and writes them as cookies.
func (a *AuthService) SetSession(w http.ResponseWriter, opts CookieOptions, sub string) (string, error) {
	access, err := a.IssueAccess(sub)
	if err != nil {
		return "", err
	}
	refresh, err := a.IssueRefresh(sub)
	if err != nil {
		return "", err
	}
	opts.set(w, CookieAccess, access, AccessTTL)
	opts.set(w, CookieRefresh, refresh, RefreshTTL)
	return access, nil
}

// POST /auth/login  { "email": "...", "password": "..." }
func LoginHandler(a *AuthService, users Authenticator, opts CookieOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.WriteError(w, apierr.Invalid("invalid JSON body"))
			return
		}
		if strings.TrimSpace(req.Email) == "" || req.Password == "" {
			httpx.WriteError(w, apierr.Invalid("email and password are required"))
			return
		}
		p, err := users.Authenticate(r.Context(), req.Email, req.Password)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		tok, err := a.SetSession(w, opts, p.ID)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"access_token": tok})
	}
}

// POST /auth/refresh exchanges the refresh cookie for a new session.
func RefreshHandler(a *AuthService, opts CookieOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(CookieRefresh)
		if err != nil || c.Value == "" {
			httpx.WriteError(w, apierr.Unauthenticated())
			return
		}
		claims, err := a.ParseRefresh(c.Value)
		if err != nil {
			httpx.WriteError(w, apierr.Unauthenticated())
			return
		}
		tok, err := a.SetSession(w, opts, claims.Sub)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"access_token": tok})
	}
}

// POST /auth/logout
func LogoutHandler(opts CookieOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts.clear(w, CookieAccess)
		opts.clear(w, CookieRefresh)
		for _, name := range legacyAccessCookies {
			opts.clear(w, name)
		}
		httpx.OK(w)
	}
}
