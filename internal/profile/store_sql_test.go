package profile

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/mindengage-courses/internal/apierr"
	"github.com/mind-engage/mindengage-courses/internal/db/dbtest"
)

func init() { hashCost = bcrypt.MinCost }

func ptr(s string) *string { return &s }

func TestCreateGetAuthenticate(t *testing.T) {
	s := NewSQLStore(dbtest.Open(t))
	ctx := context.Background()

	p, err := s.Create(ctx, Profile{Email: " Ada@Example.com ", FirstName: "Ada"}, "s3cret")
	if err != nil {
		t.Fatal(err)
	}
	if p.Role != "student" || p.Status != "pending" {
		t.Fatalf("defaults: %+v", p)
	}

	got, err := s.Get(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Email != "ada@example.com" || got.DisplayName() != "Ada" {
		t.Fatalf("got %+v", got)
	}

	if _, err := s.Authenticate(ctx, "ada@example.com", "s3cret"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	_, err = s.Authenticate(ctx, "ada@example.com", "wrong")
	if apierr.StatusOf(err) != http.StatusUnauthorized {
		t.Fatalf("wrong password: %v", err)
	}
	_, err = s.Authenticate(ctx, "nobody@example.com", "s3cret")
	if apierr.StatusOf(err) != http.StatusUnauthorized {
		t.Fatalf("unknown email: %v", err)
	}
}

func TestGetMissing(t *testing.T) {
	s := NewSQLStore(dbtest.Open(t))
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, apierr.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestUpdateKeepsRoleAsWritten(t *testing.T) {
	s := NewSQLStore(dbtest.Open(t))
	ctx := context.Background()
	p, _ := s.Create(ctx, Profile{Email: "t@example.com"}, "")

	up, err := s.Update(ctx, p.ID, Patch{Role: ptr(" Super_Admin "), Status: ptr("active")})
	if err != nil {
		t.Fatal(err)
	}
	if up.Role != "Super_Admin" || up.Status != "active" {
		t.Fatalf("updated %+v", up)
	}

	admins, err := s.List(ctx, "super admin")
	if err != nil {
		t.Fatal(err)
	}
	if len(admins) != 1 || admins[0].ID != p.ID {
		t.Fatalf("list by normalized role: %+v", admins)
	}
}

func TestUpdateRefusesToDemoteLastAdmin(t *testing.T) {
	s := NewSQLStore(dbtest.Open(t))
	ctx := context.Background()
	a, _ := s.Create(ctx, Profile{Email: "a@example.com", Role: "admin"}, "")

	_, err := s.Update(ctx, a.ID, Patch{Role: ptr("tutor")})
	if apierr.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("err = %v", err)
	}

	if _, err := s.Create(ctx, Profile{Email: "b@example.com", Role: "super admin"}, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Update(ctx, a.ID, Patch{Role: ptr("tutor")}); err != nil {
		t.Fatalf("second admin exists, demotion should pass: %v", err)
	}
}

func TestUpdateRefusesToSuspendLastAdmin(t *testing.T) {
	s := NewSQLStore(dbtest.Open(t))
	ctx := context.Background()
	a, _ := s.Create(ctx, Profile{Email: "a@example.com", Role: "admin", Status: "active"}, "")
	b, _ := s.Create(ctx, Profile{Email: "b@example.com", Role: "super admin", Status: "suspended"}, "")

	_, err := s.Update(ctx, a.ID, Patch{Status: ptr(" Suspended ")})
	if !errors.Is(err, apierr.ErrInvalid) {
		t.Fatalf("suspending the only usable admin: %v", err)
	}
	// A suspended admin does not count as a remaining one for demotion either.
	if _, err := s.Update(ctx, a.ID, Patch{Role: ptr("student")}); !errors.Is(err, apierr.ErrInvalid) {
		t.Fatalf("demotion with only a suspended peer: %v", err)
	}

	if _, err := s.Update(ctx, b.ID, Patch{Status: ptr("active")}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Update(ctx, a.ID, Patch{Status: ptr("suspended")}); err != nil {
		t.Fatalf("second admin active, suspension should pass: %v", err)
	}
	if _, _, err := s.Import(ctx, []ImportRow{{Email: "B@example.com", Role: "admin", Status: "suspended"}}); !errors.Is(err, apierr.ErrInvalid) {
		t.Fatalf("import suspending last admin: %v", err)
	}
}

func TestEmailIsCaseInsensitiveUnique(t *testing.T) {
	s := NewSQLStore(dbtest.Open(t))
	ctx := context.Background()
	ada, err := s.Create(ctx, Profile{Email: "Ada@Example.com"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if ada.Email != "ada@example.com" {
		t.Fatalf("stored email = %q", ada.Email)
	}
	_, err = s.Create(ctx, Profile{Email: "ada@example.com"}, "")
	if !errors.Is(err, apierr.ErrConflict) || apierr.StatusOf(err) != http.StatusConflict {
		t.Fatalf("duplicate create: %v", err)
	}

	bob, _ := s.Create(ctx, Profile{Email: "bob@example.com"}, "")
	if _, err := s.Update(ctx, bob.ID, Patch{Email: ptr("ADA@example.com")}); !errors.Is(err, apierr.ErrConflict) {
		t.Fatalf("duplicate update: %v", err)
	}
	up, err := s.Update(ctx, bob.ID, Patch{Email: ptr(" Robert@Example.com ")})
	if err != nil || up.Email != "robert@example.com" {
		t.Fatalf("update: %+v %v", up, err)
	}

	ins, upd, err := s.Import(ctx, []ImportRow{{Email: "ADA@EXAMPLE.COM", FirstName: "Ada"}, {Email: "New@Example.com", Password: "secret-1"}})
	if err != nil || ins != 1 || upd != 1 {
		t.Fatalf("import: %d %d %v", ins, upd, err)
	}
	fresh, err := s.GetByEmail(ctx, "new@example.com")
	if err != nil || fresh.Email != "new@example.com" {
		t.Fatalf("imported email: %+v %v", fresh, err)
	}
}

func TestUpdateMissing(t *testing.T) {
	s := NewSQLStore(dbtest.Open(t))
	_, err := s.Update(context.Background(), "ghost", Patch{Status: ptr("active")})
	if !errors.Is(err, apierr.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	s := NewSQLStore(dbtest.Open(t))
	ctx := context.Background()
	p, err := s.Create(ctx, Profile{Email: "a@example.com"}, "first-pass")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.ChangePassword(ctx, p.ID, "wrong", "second-pass"); apierr.StatusOf(err) != http.StatusForbidden {
		t.Fatalf("wrong old password: %v", err)
	}
	if err := s.ChangePassword(ctx, p.ID, "first-pass", "short"); !errors.Is(err, apierr.ErrInvalid) {
		t.Fatalf("short password: %v", err)
	}
	if err := s.ChangePassword(ctx, p.ID, "first-pass", "second-pass"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Authenticate(ctx, "a@example.com", "second-pass"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestImport(t *testing.T) {
	s := NewSQLStore(dbtest.Open(t))
	ctx := context.Background()
	if _, err := s.Create(ctx, Profile{Email: "boss@example.com", Role: "admin", Status: "active"}, "pw"); err != nil {
		t.Fatal(err)
	}

	ins, upd, err := s.Import(ctx, []ImportRow{
		{Email: "new@example.com", FirstName: "New", Password: "secret-1"},
		{Email: "BOSS@example.com", Role: "Super_Admin"},
	})
	if err != nil || ins != 1 || upd != 1 {
		t.Fatalf("import: %d %d %v", ins, upd, err)
	}
	boss, _ := s.GetByEmail(ctx, "boss@example.com")
	if boss.Role != "Super_Admin" {
		t.Fatalf("role = %q", boss.Role)
	}
	fresh, err := s.Authenticate(ctx, "new@example.com", "secret-1")
	if err != nil || fresh.Status != "active" || fresh.Role != "student" {
		t.Fatalf("fresh: %+v %v", fresh, err)
	}

	if _, _, err := s.Import(ctx, []ImportRow{{Email: "nopass@example.com"}}); !errors.Is(err, apierr.ErrInvalid) {
		t.Fatalf("missing password: %v", err)
	}
	if _, _, err := s.Import(ctx, []ImportRow{{Email: "x@example.com", Role: "wizard", Password: "p"}}); !errors.Is(err, apierr.ErrInvalid) {
		t.Fatalf("bad role: %v", err)
	}
	if _, _, err := s.Import(ctx, []ImportRow{{Email: "boss@example.com", Role: "student"}}); !errors.Is(err, apierr.ErrInvalid) {
		t.Fatalf("last admin: %v", err)
	}
	all, _ := s.List(ctx, "")
	if len(all) != 2 {
		t.Fatalf("failed imports left rows: %d", len(all))
	}
}
