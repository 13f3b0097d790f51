package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/witr/library-manager/internal/db"
)

// ErrNotInvited is returned when a verified identity's email is not on the invite list.
var ErrNotInvited = errors.New("email is not invited")

// Store is the part of the data layer a login touches.
type Store interface {
	InviteExists(ctx context.Context, email string) (bool, error)
	UserID(ctx context.Context, email string) (string, error)
	AddUser(ctx context.Context, firstName, lastName, email string, role db.Role) (string, error)
}

// Login resolves a verified identity to a user id. Uninvited emails are
// refused before any user row is touched. A first login creates the user as a member.
func Login(ctx context.Context, store Store, id Identity) (string, error) {
	invited, err := store.InviteExists(ctx, id.Email)
	if err != nil {
		return "", fmt.Errorf("checking invite: %w", err)
	}
	if !invited {
		return "", ErrNotInvited
	}

	userID, err := store.UserID(ctx, id.Email)
	if err == nil {
		return userID, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return "", fmt.Errorf("looking up user: %w", err)
	}

	userID, err = store.AddUser(ctx, id.FirstName, id.LastName, id.Email, db.RoleMember)
	if errors.Is(err, db.ErrAlreadyExists) {
		// A concurrent first login won the insert.
		return store.UserID(ctx, id.Email)
	}
	if err != nil {
		return "", fmt.Errorf("creating user: %w", err)
	}

	slog.Info("created user on first login", slog.String("user_id", userID), slog.String("email", id.Email))
	return userID, nil
}
