package profile

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/mindengage-courses/internal/apierr"
	"github.com/mind-engage/mindengage-courses/internal/db"
	"github.com/mind-engage/mindengage-courses/internal/rbac"
)

// hashCost is lowered by tests.
var hashCost = 12

const profileCols = `id, email, first_name, last_name, role, status, password_hash, created_at`

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(dbh *sql.DB) *SQLStore {
	return &SQLStore{db: dbh}
}

func scanProfile(row interface{ Scan(...any) error }) (Profile, error) {
	var p Profile
	var created int64
	if err := row.Scan(&p.ID, &p.Email, &p.FirstName, &p.LastName, &p.Role, &p.Status, &p.PasswordHash, &created); err != nil {
		return Profile{}, err
	}
	p.CreatedAt = time.Unix(created, 0).UTC()
	return p, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Profile, error) {
	p, err := scanProfile(s.db.QueryRowContext(ctx, `SELECT `+profileCols+` FROM profiles WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, apierr.NotFound("profile")
	}
	return p, err
}

func (s *SQLStore) GetByEmail(ctx context.Context, email string) (Profile, error) {
	p, err := scanProfile(s.db.QueryRowContext(ctx,
		`SELECT `+profileCols+` FROM profiles WHERE LOWER(email)=$1`, normalizeEmail(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, apierr.NotFound("profile")
	}
	return p, err
}

func (s *SQLStore) List(ctx context.Context, role string) ([]Profile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+profileCols+` FROM profiles ORDER BY email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	want := rbac.NormalizeRole(role)
	out := []Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		if want != "" && rbac.NormalizeRole(p.Role) != want {
			continue
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// normalizeEmail is the stored form of an address; LOWER(email) is unique.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func emailTaken(err error, email string) error {
	if db.IsUniqueViolation(err) {
		return apierr.Conflict("email %s is already registered", email)
	}
	return err
}

// Create inserts a profile. A non-empty password is stored as a bcrypt hash.
func (s *SQLStore) Create(ctx context.Context, p Profile, password string) (Profile, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Email = normalizeEmail(p.Email)
	if p.Email == "" {
		return Profile{}, apierr.Invalid("email is required")
	}
	if p.Role == "" {
		p.Role = rbac.RoleStudent
	}
	if p.Status == "" {
		p.Status = rbac.StatusPending
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
		if err != nil {
			return Profile{}, err
		}
		p.PasswordHash = string(hash)
	}
	p.CreatedAt = time.Now().UTC().Truncate(time.Second)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (`+profileCols+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.Email, p.FirstName, p.LastName, p.Role, p.Status, p.PasswordHash, p.CreatedAt.Unix())
	if err != nil {
		return Profile{}, emailTaken(err, p.Email)
	}
	return p, nil
}

// Update applies a patch. A change that would leave no admin able to sign
// in (demotion or suspension of the last one) is rejected.
func (s *SQLStore) Update(ctx context.Context, id string, patch Patch) (Profile, error) {
	var out Profile
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		cur, err := scanProfile(tx.QueryRowContext(ctx, `SELECT `+profileCols+` FROM profiles WHERE id=$1`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return apierr.NotFound("profile")
		}
		if err != nil {
			return err
		}
		next := cur
		if patch.Email != nil {
			if strings.TrimSpace(*patch.Email) == "" {
				return apierr.Invalid("email is required")
			}
			next.Email = normalizeEmail(*patch.Email)
		}
		if patch.FirstName != nil {
			next.FirstName = strings.TrimSpace(*patch.FirstName)
		}
		if patch.LastName != nil {
			next.LastName = strings.TrimSpace(*patch.LastName)
		}
		if patch.Role != nil {
			next.Role = strings.TrimSpace(*patch.Role)
		}
		if patch.Status != nil {
			next.Status = strings.TrimSpace(*patch.Status)
		}

		if activeAdmin(cur.Role, cur.Status) && !activeAdmin(next.Role, next.Status) {
			n, err := countAdmins(ctx, tx)
			if err != nil {
				return err
			}
			if n <= 1 {
				if rbac.IsAdmin(next.Role) {
					return apierr.Invalid("cannot suspend the last admin")
				}
				return apierr.Invalid("cannot demote the last admin")
			}
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE profiles SET email=$1, first_name=$2, last_name=$3, role=$4, status=$5 WHERE id=$6`,
			next.Email, next.FirstName, next.LastName, next.Role, next.Status, id); err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil && patch.Email != nil {
		return Profile{}, emailTaken(err, normalizeEmail(*patch.Email))
	}
	return out, err
}

// activeAdmin reports whether a profile can still exercise admin rights;
// suspended profiles are turned away at sign-in.
func activeAdmin(role, status string) bool {
	return rbac.IsAdmin(role) && rbac.NormalizeStatus(status) != rbac.StatusSuspended
}

// countAdmins counts admins that are not suspended.
func countAdmins(ctx context.Context, q db.Querier) (int, error) {
	rows, err := q.QueryContext(ctx, `SELECT role, status FROM profiles`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	n := 0
	for rows.Next() {
		var role, status string
		if err := rows.Scan(&role, &status); err != nil {
			return 0, err
		}
		if activeAdmin(role, status) {
			n++
		}
	}
	return n, rows.Err()
}

// Authenticate checks an email/password pair against the stored hash.
func (s *SQLStore) Authenticate(ctx context.Context, email, password string) (Profile, error) {
	p, err := s.GetByEmail(ctx, email)
	if errors.Is(err, apierr.ErrNotFound) {
		return Profile{}, apierr.New(http.StatusUnauthorized, errors.New("invalid credentials"))
	}
	if err != nil {
		return Profile{}, err
	}
	if p.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) != nil {
		return Profile{}, apierr.New(http.StatusUnauthorized, errors.New("invalid credentials"))
	}
	return p, nil
}

// ChangePassword replaces the hash after checking the current password.
// Profiles without a password may set one without the old value.
func (s *SQLStore) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return apierr.Invalid("new_password must be at least 8 characters")
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if p.PasswordHash != "" && bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(oldPassword)) != nil {
		return apierr.New(http.StatusForbidden, errors.New("incorrect old password"))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), hashCost)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `UPDATE profiles SET password_hash=$1 WHERE id=$2`, string(hash), id)
	return err
}

// Import upserts profiles by email in one transaction. New profiles need a
// password; existing ones keep theirs unless one is given.
func (s *SQLStore) Import(ctx context.Context, rows []ImportRow) (inserted, updated int, err error) {
	now := time.Now().Unix()
	err = db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		before, err := countAdmins(ctx, tx)
		if err != nil {
			return err
		}
		for i, r := range rows {
			line := i + 1
			email := normalizeEmail(r.Email)
			if email == "" {
				return apierr.Invalid("row %d: email is required", line)
			}
			role := strings.TrimSpace(r.Role)
			if role == "" {
				role = rbac.RoleStudent
			}
			if !rbac.KnownRole(role) {
				return apierr.Invalid("row %d: invalid role %q", line, role)
			}
			status := strings.TrimSpace(r.Status)
			if status == "" {
				status = rbac.StatusActive
			}

			var phash string
			if r.Password != "" {
				b, err := bcrypt.GenerateFromPassword([]byte(r.Password), hashCost)
				if err != nil {
					return err
				}
				phash = string(b)
			}

			var id string
			err := tx.QueryRowContext(ctx, `SELECT id FROM profiles WHERE LOWER(email)=$1`, email).Scan(&id)
			switch {
			case err == nil:
				if phash != "" {
					_, err = tx.ExecContext(ctx,
						`UPDATE profiles SET first_name=$1, last_name=$2, role=$3, status=$4, password_hash=$5 WHERE id=$6`,
						strings.TrimSpace(r.FirstName), strings.TrimSpace(r.LastName), role, status, phash, id)
				} else {
					_, err = tx.ExecContext(ctx,
						`UPDATE profiles SET first_name=$1, last_name=$2, role=$3, status=$4 WHERE id=$5`,
						strings.TrimSpace(r.FirstName), strings.TrimSpace(r.LastName), role, status, id)
				}
				if err != nil {
					return err
				}
				updated++
			case errors.Is(err, sql.ErrNoRows):
				if phash == "" {
					return apierr.Invalid("row %d: password required for new profile %s", line, email)
				}
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO profiles (`+profileCols+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
					uuid.NewString(), email, strings.TrimSpace(r.FirstName), strings.TrimSpace(r.LastName),
					role, status, phash, now); err != nil {
					return err
				}
				inserted++
			default:
				return err
			}
		}
		after, err := countAdmins(ctx, tx)
		if err != nil {
			return err
		}
		if before > 0 && after == 0 {
			return apierr.Invalid("import would remove the last admin")
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return inserted, updated, nil
}
