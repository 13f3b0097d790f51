// Package auth signs station members in through SAML single sign-on and
// decides which roles may reach which pages.
package auth

import (
	"slices"

	"github.com/witr/library-manager/internal/db"
)

// RoleSet is a flat allow-list of roles. There is no inheritance between roles.
type RoleSet []db.Role

// Allows reports whether role is in the set.
func (s RoleSet) Allows(role db.Role) bool {
	return slices.Contains(s, role)
}

// Route sets.
var (
	// Members is every signed-in user.
	Members = RoleSet{db.RoleMember, db.RoleStaff, db.RoleEboard, db.RoleCDNerd}

	// LibraryAdmins manage the catalog, reviews and site parameters.
	LibraryAdmins = RoleSet{db.RoleStaff, db.RoleEboard}

	// LibraryEditors add and edit catalog entries.
	LibraryEditors = RoleSet{db.RoleStaff, db.RoleEboard, db.RoleCDNerd}

	// Eboard manages users, invites and sees review statistics.
	Eboard = RoleSet{db.RoleEboard}
)
