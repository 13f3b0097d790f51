package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserID looks up a user by email.
func (q *Queries) UserID(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)
	return q.lookupID(ctx, EntityUser, email, `SELECT userid FROM users WHERE email = $1`, email)
}

// VerifyUser reports whether a user with id exists.
func (q *Queries) VerifyUser(ctx context.Context, id string) (bool, error) {
	ok, err := q.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE userid = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("verifying user: %w", err)
	}
	return ok, nil
}

// AddUser creates a user. An email already in use fails with an already-exists *Error.
func (q *Queries) AddUser(ctx context.Context, firstName, lastName, email string, role Role) (string, error) {
	if _, err := ParseRole(string(role)); err != nil {
		return "", err
	}
	email = normalizeEmail(email)

	query := `
		INSERT INTO users (userid, firstname, lastname, email, role)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO NOTHING
		RETURNING userid
	`
	var id string
	err := q.q.QueryRow(ctx, query, uuid.NewString(), firstName, lastName, email, string(role)).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", alreadyExists(EntityUser, email)
	}
	if err != nil {
		return "", fmt.Errorf("inserting user: %w", err)
	}
	return id, nil
}

// GetUser retrieves a user by id.
func (q *Queries) GetUser(ctx context.Context, id string) (*User, error) {
	query := `
		SELECT userid, firstname, lastname, email, role
		FROM users
		WHERE userid = $1
	`
	var u User
	err := q.q.QueryRow(ctx, query, id).Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.Role,
	)
	if errors.Is(err, pgx.ErrNoRows) || isMalformedID(err) {
		return nil, notFound(EntityUser, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &u, nil
}

// GetUserRole returns a user's role.
func (q *Queries) GetUserRole(ctx context.Context, id string) (Role, error) {
	var role Role
	err := q.q.QueryRow(ctx, `SELECT role FROM users WHERE userid = $1`, id).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) || isMalformedID(err) {
		return "", notFound(EntityUser, id)
	}
	if err != nil {
		return "", fmt.Errorf("querying user role: %w", err)
	}
	return role, nil
}

// SetUserRole changes a user's role. The role is validated before the user is looked up.
func (q *Queries) SetUserRole(ctx context.Context, id string, role string) error {
	r, err := ParseRole(role)
	if err != nil {
		return err
	}
	return q.execOne(ctx, EntityUser, id,
		`UPDATE users SET role = $2 WHERE userid = $1`, id, string(r))
}

// ModifyEmail changes a user's email. Taking another user's address fails with an already-exists *Error.
func (q *Queries) ModifyEmail(ctx context.Context, id, email string) error {
	email = normalizeEmail(email)
	taken, err := q.exists(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND userid <> $2)`, email, id)
	if err != nil {
		return fmt.Errorf("checking email: %w", err)
	}
	if taken {
		return alreadyExists(EntityUser, email)
	}
	return q.execOne(ctx, EntityUser, id,
		`UPDATE users SET email = $2 WHERE userid = $1`, id, email)
}

// ModifyFirstName changes a user's first name.
func (q *Queries) ModifyFirstName(ctx context.Context, id, name string) error {
	return q.execOne(ctx, EntityUser, id,
		`UPDATE users SET firstname = $2 WHERE userid = $1`, id, name)
}

// ModifyLastName changes a user's last name.
func (q *Queries) ModifyLastName(ctx context.Context, id, name string) error {
	return q.execOne(ctx, EntityUser, id,
		`UPDATE users SET lastname = $2 WHERE userid = $1`, id, name)
}

// ListUsers returns every user ordered by last then first name.
func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	query := `
		SELECT userid, firstname, lastname, email, role
		FROM users
		ORDER BY lastname, firstname, email
	`
	rows, err := q.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Role); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
