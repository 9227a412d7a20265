// Package user defines dashboard accounts and authentication. The report
// engine itself is role-agnostic; roles only gate which operations the
// dashboard exposes.
package user

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Role is a fixed dashboard role.
type Role string

const (
	RoleFaculty     Role = "Faculty"
	RoleHOD         Role = "HOD"
	RoleAdmin       Role = "Admin"
	RoleCoordinator Role = "Coordinator"
)

// Roles lists all valid roles.
var Roles = []Role{RoleFaculty, RoleHOD, RoleAdmin, RoleCoordinator}

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

var (
	// ErrNotFound is returned when the username does not exist.
	ErrNotFound = errors.New("user: not found")

	// ErrInvalidCredentials is returned when the password does not match.
	ErrInvalidCredentials = errors.New("user: invalid credentials")
)

// User is one dashboard account. Password hashes are bcrypt, which carries a
// random per-user salt inside the hash.
type User struct {
	Username     string
	PasswordHash string
	Role         Role
}

// HashPassword hashes a plaintext password with bcrypt at the default cost.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against the stored hash.
func (u User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}

// Repository is the persistence contract for accounts.
type Repository interface {
	// GetByUsername returns one account, or ErrNotFound.
	GetByUsername(ctx context.Context, username string) (User, error)

	// Upsert inserts or replaces an account.
	Upsert(ctx context.Context, u User) error

	// List returns all accounts ordered by username (password hashes
	// included; callers render only username and role).
	List(ctx context.Context) ([]User, error)
}

// Authenticate checks a username/password pair against the repository and
// returns the account on success. A missing user and a wrong password both
// come back as ErrInvalidCredentials so the login form cannot be used to
// probe for usernames.
func Authenticate(ctx context.Context, repo Repository, username, password string) (User, error) {
	u, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if !u.CheckPassword(password) {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}
