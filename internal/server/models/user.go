package models

import (
	"strings"
	"time"
)

// User is an account record as stored by the user repositories.
// HashedPassword holds a PHC-encoded argon2id hash, never the plaintext.
type User struct {
	ID             string
	Email          string
	HashedPassword string
	FirstName      *string
	LastName       *string
	IsActive       bool
	IsSuperuser    bool
	IsVerified     bool
	CreatedAt      time.Time
	LastLogin      *time.Time
}

// UserPatch is a partial update. Nil fields are left unchanged.
type UserPatch struct {
	HashedPassword *string
	FirstName      *string
	LastName       *string
	IsActive       *bool
	IsSuperuser    *bool
	IsVerified     *bool
	LastLogin      *time.Time
}

// IsEmpty reports whether the patch changes nothing.
func (p UserPatch) IsEmpty() bool {
	return p.HashedPassword == nil && p.FirstName == nil && p.LastName == nil &&
		p.IsActive == nil && p.IsSuperuser == nil && p.IsVerified == nil &&
		p.LastLogin == nil
}

// ApplyTo copies every non-nil field of p onto u.
func (p UserPatch) ApplyTo(u *User) {
	if p.HashedPassword != nil {
		u.HashedPassword = *p.HashedPassword
	}
	if p.FirstName != nil {
		u.FirstName = ptr(*p.FirstName)
	}
	if p.LastName != nil {
		u.LastName = ptr(*p.LastName)
	}
	if p.IsActive != nil {
		u.IsActive = *p.IsActive
	}
	if p.IsSuperuser != nil {
		u.IsSuperuser = *p.IsSuperuser
	}
	if p.IsVerified != nil {
		u.IsVerified = *p.IsVerified
	}
	if p.LastLogin != nil {
		u.LastLogin = ptr(*p.LastLogin)
	}
}

// Clone returns a deep copy of u.
func (u *User) Clone() *User {
	c := *u
	if u.FirstName != nil {
		c.FirstName = ptr(*u.FirstName)
	}
	if u.LastName != nil {
		c.LastName = ptr(*u.LastName)
	}
	if u.LastLogin != nil {
		c.LastLogin = ptr(*u.LastLogin)
	}
	return &c
}

// NormalizeEmail trims and lower-cases an address. Stores key users by the
// normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Deref returns the value behind s, or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ptr[T any](v T) *T { return &v }
