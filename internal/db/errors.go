package db

import (
	"errors"
	"fmt"
)

// Sentinels matched by errors.Is against *Error.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidRole   = errors.New("invalid role")
)

// Entity names the table an *Error refers to.
type Entity string

const (
	EntityArtist    Entity = "artist"
	EntityTrack     Entity = "track"
	EntityMedium    Entity = "medium"
	EntityAlbum     Entity = "album"
	EntityReview    Entity = "review"
	EntityUser      Entity = "user"
	EntityInvite    Entity = "invite"
	EntityParameter Entity = "parameter"
	EntityRole      Entity = "role"
)

// Reason classifies an *Error.
type Reason int

const (
	ReasonNotFound Reason = iota + 1
	ReasonAlreadyExists
	ReasonInvalidRole
)

// Error is returned by every catalog operation that fails on a specific row.
// Key is the identifier or natural key the caller supplied.
type Error struct {
	Reason Reason
	Entity Entity
	Key    string
}

func (e *Error) Error() string {
	switch e.Reason {
	case ReasonNotFound:
		return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
	case ReasonAlreadyExists:
		return fmt.Sprintf("%s %q already exists", e.Entity, e.Key)
	case ReasonInvalidRole:
		return fmt.Sprintf("role %q is not valid", e.Key)
	default:
		return fmt.Sprintf("%s %q: unknown error", e.Entity, e.Key)
	}
}

// Is reports whether target is the sentinel for e's reason.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Reason == ReasonNotFound
	case ErrAlreadyExists:
		return e.Reason == ReasonAlreadyExists
	case ErrInvalidRole:
		return e.Reason == ReasonInvalidRole
	}
	return false
}

func notFound(entity Entity, key string) error {
	return &Error{Reason: ReasonNotFound, Entity: entity, Key: key}
}

func alreadyExists(entity Entity, key string) error {
	return &Error{Reason: ReasonAlreadyExists, Entity: entity, Key: key}
}

func invalidRole(role string) error {
	return &Error{Reason: ReasonInvalidRole, Entity: EntityRole, Key: role}
}

// IsNotFoundFor reports whether err is a not-found error for entity.
func IsNotFoundFor(err error, entity Entity) bool {
	var e *Error
	return errors.As(err, &e) && e.Reason == ReasonNotFound && e.Entity == entity
}
