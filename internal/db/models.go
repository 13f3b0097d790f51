package db

import (
	"time"
)

// Role is a user's authorization tier.
type Role string

const (
	RoleMember Role = "member"
	RoleStaff  Role = "staff"
	RoleEboard Role = "eboard"
	RoleCDNerd Role = "cdnerd"
)

// Roles lists every valid role, lowest privilege first.
var Roles = []Role{RoleMember, RoleCDNerd, RoleStaff, RoleEboard}

// ParseRole validates s as a Role.
func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", invalidRole(s)
}

// User is a station member who signed in through SSO at least once.
type User struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Role      Role
}

// Name returns "First Last".
func (u User) Name() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Artist is a performer credited on albums or tracks.
type Artist struct {
	ID   string
	Name string
}

// Medium is a physical or digital format, e.g. "CD" or "Vinyl".
type Medium struct {
	ID   string
	Name string
}

// Track is a single recording.
type Track struct {
	ID       string
	Name     string
	Duration int // seconds, 0 when unknown
	Clean    bool
}

// Album is a catalog release.
type Album struct {
	ID          string
	Name        string
	Code        string
	Genre       string
	Cover       []byte
	ReleaseDate *time.Time // nullable
}

// AlbumMedium is one format an album is held on.
type AlbumMedium struct {
	MediumID string
	Name     string
	UPC      *string // nullable
}

// AlbumTrack is a track as it appears on an album.
type AlbumTrack struct {
	Track
	Number  int
	Artists []string
}

// AlbumView is an album with its relationships resolved.
type AlbumView struct {
	Album
	Artists []string
	Mediums []AlbumMedium
	Tracks  []AlbumTrack
}

// AlbumSummary is one row of a library search.
type AlbumSummary struct {
	ID          string
	Name        string
	Code        string
	Genre       string
	ReleaseDate *time.Time
	Artists     []string
}

// TrackInfo is a track with its artist credits.
type TrackInfo struct {
	Track
	Artists []string
}

// Review is a member's write-up of an album.
type Review struct {
	ID       string
	Body     string
	UserID   string
	AlbumID  string
	Hidden   bool
	Modified time.Time
}

// ReviewView is a review joined with its author and album names.
type ReviewView struct {
	Review
	Author    string
	AlbumName string
}

// Invite is an email allowed to sign in.
type Invite struct {
	Email string
}

// Parameter is a key/value setting.
type Parameter struct {
	Key   string
	Value string
}

// Known parameter keys.
const (
	ParamReviewGuidelines = "review_guidelines"
	ParamGenres           = "genres"
)
