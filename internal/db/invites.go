package db

import (
	"context"
	"fmt"
)

// InviteExists reports whether email may sign in.
func (q *Queries) InviteExists(ctx context.Context, email string) (bool, error) {
	ok, err := q.exists(ctx,
		`SELECT EXISTS (SELECT 1 FROM invitedusers WHERE email = $1)`, normalizeEmail(email))
	if err != nil {
		return false, fmt.Errorf("checking invite: %w", err)
	}
	return ok, nil
}

// AddInvite allows email to sign in.
func (q *Queries) AddInvite(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	result, err := q.q.Exec(ctx,
		`INSERT INTO invitedusers (email) VALUES ($1) ON CONFLICT DO NOTHING`, email)
	if err != nil {
		return fmt.Errorf("inserting invite: %w", err)
	}
	if result.RowsAffected() == 0 {
		return alreadyExists(EntityInvite, email)
	}
	return nil
}

// RemoveInvite revokes email's sign-in. Its user row, if any, is kept.
func (q *Queries) RemoveInvite(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	return q.execOne(ctx, EntityInvite, email, `DELETE FROM invitedusers WHERE email = $1`, email)
}

// ListInvites returns every invited email in order.
func (q *Queries) ListInvites(ctx context.Context) ([]Invite, error) {
	rows, err := q.q.Query(ctx, `SELECT email FROM invitedusers ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("querying invites: %w", err)
	}
	defer rows.Close()

	var invites []Invite
	for rows.Next() {
		var i Invite
		if err := rows.Scan(&i.Email); err != nil {
			return nil, fmt.Errorf("scanning invite: %w", err)
		}
		invites = append(invites, i)
	}
	return invites, rows.Err()
}
