package postgres

import (
	"context"

	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/domain/user"
)

// UserRepository implements user.Repository on PostgreSQL.
type UserRepository struct {
	conn *Connection
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(conn *Connection) *UserRepository {
	return &UserRepository{conn: conn}
}

// GetByUsername returns one account by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (user.User, error) {
	var u user.User
	var role string
	err := r.conn.QueryRow(ctx, `
		SELECT username, password_hash, role
		FROM users
		WHERE username = $1
	`, username).Scan(&u.Username, &u.PasswordHash, &role)
	if IsNoRows(err) {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, storageErr("get user", err)
	}
	u.Role = user.Role(role)
	return u, nil
}

// Upsert inserts the account or replaces its hash and role. Used by seeding
// and password resets.
func (r *UserRepository) Upsert(ctx context.Context, u user.User) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO users (username, password_hash, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (username) DO UPDATE
		SET password_hash = EXCLUDED.password_hash,
		    role          = EXCLUDED.role
	`, u.Username, u.PasswordHash, string(u.Role))
	if err != nil {
		return storageErr("upsert user", err)
	}
	return nil
}

// List returns all accounts ordered by username.
func (r *UserRepository) List(ctx context.Context) ([]user.User, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT username, password_hash, role
		FROM users
		ORDER BY username ASC
	`)
	if err != nil {
		return nil, storageErr("list users", err)
	}
	defer rows.Close()

	var out []user.User
	for rows.Next() {
		var u user.User
		var role string
		if err := rows.Scan(&u.Username, &u.PasswordHash, &role); err != nil {
			return nil, storageErr("scan user", err)
		}
		u.Role = user.Role(role)
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list users", err)
	}
	return out, nil
}
