package rbac

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNormalizeRole(t *testing.T) {
	cases := map[string]string{
		"Admin":         RoleAdmin,
		" admin ":       RoleAdmin,
		"ADMIN":         RoleAdmin,
		"super_admin":   RoleSuperAdmin,
		"superadmin":    RoleSuperAdmin,
		"super admin":   RoleSuperAdmin,
		"Super-Admin":   RoleSuperAdmin,
		" super  admin": RoleSuperAdmin,
		"Teacher":       RoleTutor,
		"student":       RoleStudent,
		"":              "",
		"guest_user":    "guest user",
	}
	for in, want := range cases {
		if got := NormalizeRole(in); got != want {
			t.Errorf("NormalizeRole(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsAdmin(t *testing.T) {
	for _, r := range []string{"Admin", " admin ", "ADMIN", "super_admin", "superadmin", "super admin"} {
		if !IsAdmin(r) {
			t.Errorf("IsAdmin(%q) = false", r)
		}
	}
	for _, r := range []string{"tutor", "student", "administrator", ""} {
		if IsAdmin(r) {
			t.Errorf("IsAdmin(%q) = true", r)
		}
	}
}

func TestNormalizeStatus(t *testing.T) {
	if NormalizeStatus(" Active ") != StatusActive {
		t.Fatal("active")
	}
	if NormalizeStatus("SUSPENDED") != StatusSuspended {
		t.Fatal("suspended")
	}
	if NormalizeStatus("weird") != StatusPending {
		t.Fatal("unknown should fold to pending")
	}
}

func TestCheckerHas(t *testing.T) {
	c := NewChecker(nil)
	if !c.Has("student", "attempt:create") {
		t.Fatal("student should start attempts")
	}
	if c.Has("student", "course:create") {
		t.Fatal("student should not create courses")
	}
	if !c.Has("Super_Admin", "anything:at-all") {
		t.Fatal("super admin wildcard")
	}
	if !c.Any("tutor", "course:delete", "course:create") {
		t.Fatal("tutor any")
	}
}

func serve(h http.Handler, role string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if role != "" {
		req = req.WithContext(WithRole(context.Background(), role))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

func TestRequireAdmin(t *testing.T) {
	h := RequireAdmin()(okHandler)
	if got := serve(h, "super_admin"); got != http.StatusNoContent {
		t.Fatalf("super admin: %d", got)
	}
	if got := serve(h, "tutor"); got != http.StatusForbidden {
		t.Fatalf("tutor: %d", got)
	}
	if got := serve(h, ""); got != http.StatusForbidden {
		t.Fatalf("no role: %d", got)
	}
}

func TestRequireOwnerOr(t *testing.T) {
	owner := true
	h := RequireOwnerOr("course:edit_any", func(r *http.Request) (bool, error) { return owner, nil })(okHandler)
	if got := serve(h, "tutor"); got != http.StatusNoContent {
		t.Fatalf("owner tutor: %d", got)
	}
	owner = false
	if got := serve(h, "tutor"); got != http.StatusForbidden {
		t.Fatalf("non-owner tutor: %d", got)
	}
	if got := serve(h, "admin"); got != http.StatusNoContent {
		t.Fatalf("admin: %d", got)
	}

	failing := RequireOwnerOr("course:edit_any", func(r *http.Request) (bool, error) { return false, errors.New("db down") })(okHandler)
	if got := serve(failing, "tutor"); got != http.StatusInternalServerError {
		t.Fatalf("lookup error: %d", got)
	}
}
