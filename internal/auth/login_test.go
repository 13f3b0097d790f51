package auth

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/witr/library-manager/internal/db"
)

// memStore is an in-memory Store keyed by normalized email.
type memStore struct {
	invites map[string]bool
	users   map[string]string
	roles   map[string]db.Role
	nextID  int
	adds    int
}

func newMemStore(invites ...string) *memStore {
	s := &memStore{
		invites: map[string]bool{},
		users:   map[string]string{},
		roles:   map[string]db.Role{},
	}
	for _, e := range invites {
		s.invites[strings.ToLower(e)] = true
	}
	return s
}

func (s *memStore) InviteExists(_ context.Context, email string) (bool, error) {
	return s.invites[strings.ToLower(email)], nil
}

func (s *memStore) UserID(_ context.Context, email string) (string, error) {
	id, ok := s.users[strings.ToLower(email)]
	if !ok {
		return "", &db.Error{Reason: db.ReasonNotFound, Entity: db.EntityUser, Key: email}
	}
	return id, nil
}

func (s *memStore) AddUser(_ context.Context, _, _, email string, role db.Role) (string, error) {
	email = strings.ToLower(email)
	if _, ok := s.users[email]; ok {
		return "", &db.Error{Reason: db.ReasonAlreadyExists, Entity: db.EntityUser, Key: email}
	}
	s.nextID++
	s.adds++
	id := "u" + strconv.Itoa(s.nextID)
	s.users[email] = id
	s.roles[id] = role
	return id, nil
}

func TestLoginCreatesMemberOnce(t *testing.T) {
	store := newMemStore("a@b.com")
	id := Identity{Email: "a@b.com", FirstName: "Ann", LastName: "Lee"}

	first, err := Login(context.Background(), store, id)
	require.NoError(t, err)
	second, err := Login(context.Background(), store, id)
	require.NoError(t, err, "second login")

	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.adds, "users created")
	assert.Equal(t, db.RoleMember, store.roles[first])
}

func TestLoginRequiresInvite(t *testing.T) {
	store := newMemStore("someone@else.com")

	_, err := Login(context.Background(), store, Identity{Email: "a@b.com"})
	require.ErrorIs(t, err, ErrNotInvited)
	assert.Zero(t, store.adds, "users created")
}

func TestLoginUninvitedExistingUser(t *testing.T) {
	store := newMemStore()
	store.users["a@b.com"] = "u9"

	_, err := Login(context.Background(), store, Identity{Email: "a@b.com"})
	assert.ErrorIs(t, err, ErrNotInvited)
}

// racingStore reports the user absent once, then loses the insert.
type racingStore struct {
	*memStore
	lookups int
}

func (s *racingStore) UserID(ctx context.Context, email string) (string, error) {
	s.lookups++
	if s.lookups == 1 {
		return "", &db.Error{Reason: db.ReasonNotFound, Entity: db.EntityUser, Key: email}
	}
	return s.memStore.UserID(ctx, email)
}

func TestLoginConcurrentFirstLogin(t *testing.T) {
	store := &racingStore{memStore: newMemStore("a@b.com")}
	store.users["a@b.com"] = "u7"

	id, err := Login(context.Background(), store, Identity{Email: "a@b.com"})
	require.NoError(t, err)
	assert.Equal(t, "u7", id)
}

func TestRoleSets(t *testing.T) {
	tests := []struct {
		name string
		set  RoleSet
		role db.Role
		want bool
	}{
		{"member is a member", Members, db.RoleMember, true},
		{"cdnerd is a member", Members, db.RoleCDNerd, true},
		{"member cannot admin library", LibraryAdmins, db.RoleMember, false},
		{"cdnerd cannot admin library", LibraryAdmins, db.RoleCDNerd, false},
		{"staff admins library", LibraryAdmins, db.RoleStaff, true},
		{"cdnerd edits library", LibraryEditors, db.RoleCDNerd, true},
		{"member cannot edit library", LibraryEditors, db.RoleMember, false},
		{"staff is not eboard", Eboard, db.RoleStaff, false},
		{"eboard is eboard", Eboard, db.RoleEboard, true},
		{"unknown role", Members, db.Role("admin"), false},
		{"empty role", Members, db.Role(""), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.set.Allows(tt.role), "Allows(%q)", tt.role)
		})
	}
}
