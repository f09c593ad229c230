package domain

import (
	"errors"
	"time"
)

var (
	// ErrNotAMember indicates that the acting user is not a member of the group wallet.
	ErrNotAMember = errors.New("not a member of this account")
	// ErrAlreadyMember indicates that the user is already a member of the group wallet.
	ErrAlreadyMember = errors.New("already a member")
	// ErrMemberNotFound indicates that the target user is not a member of the group wallet.
	ErrMemberNotFound = errors.New("member not found")
	// ErrNoOpRoleChange indicates that the member already holds the requested role.
	ErrNoOpRoleChange = errors.New("member already holds this role")
	// ErrLastOwnerProtected indicates an attempt to demote or remove the sole remaining owner.
	ErrLastOwnerProtected = errors.New("cannot demote or remove the last owner")
	// ErrInvalidRole indicates a role outside OWNER/MEMBER.
	ErrInvalidRole = errors.New("role must be OWNER or MEMBER")
)

// Role is a group wallet membership role.
type Role string

// Membership roles. An OWNER governs membership and account administration;
// a MEMBER has operational access only.
const (
	RoleOwner  Role = "OWNER"
	RoleMember Role = "MEMBER"
)

// ParseRole validates a role string at the boundary.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleOwner:
		return RoleOwner, nil
	case RoleMember:
		return RoleMember, nil
	}

	return "", ErrInvalidRole
}

// GroupMember is one (account, user, role) membership tuple.
//
// Every committed mutation leaves each group wallet with at least one OWNER.
type GroupMember struct {
	ID        int64     `json:"id"`
	AccountID int64     `json:"account_id"`
	UserID    int64     `json:"user_id"`
	Role      Role      `json:"role"`
	JoinedAt  time.Time `json:"joined_at"`
}

// IsOwner reports whether the member holds the OWNER role.
func (m GroupMember) IsOwner() bool {
	return m.Role == RoleOwner
}
