package models

import "time"

// IdentityStatus is the lifecycle state of an account. Deleted is terminal;
// rows are never hard-deleted.
type IdentityStatus string

const (
	IdentityActive    IdentityStatus = "active"
	IdentitySuspended IdentityStatus = "suspended"
	IdentityDeleted   IdentityStatus = "deleted"
)

func (s IdentityStatus) Valid() bool {
	switch s {
	case IdentityActive, IdentitySuspended, IdentityDeleted:
		return true
	}
	return false
}

// Role is a closed set of storefront roles. Guest is a sentinel for
// identities with no current assignment and is never stored in the ledger.
type Role string

const (
	RoleGuest     Role = "guest"
	RoleRetail    Role = "retail"
	RoleWholesale Role = "wholesale"
	RoleVendor    Role = "vendor"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleRetail, RoleWholesale, RoleVendor, RoleAdmin:
		return true
	}
	return false
}

type Identity struct {
	ID            string         `gorm:"type:uuid;primaryKey" json:"id"`
	Email         string         `gorm:"uniqueIndex;not null" json:"email"`
	FullName      string         `json:"full_name,omitempty"`
	Status        IdentityStatus `gorm:"not null;default:active" json:"status"`
	EmailVerified bool           `gorm:"not null;default:false" json:"email_verified"`
	LoginCount    int            `gorm:"not null;default:0" json:"login_count"`
	LastLoginAt   *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Credential is one-to-one with Identity. Password changes replace the row
// rather than mutating the hash in place.
type Credential struct {
	ID             string     `gorm:"type:uuid;primaryKey" json:"id"`
	IdentityID     string     `gorm:"type:uuid;uniqueIndex;not null" json:"identity_id"`
	PasswordHash   string     `gorm:"not null" json:"-"`
	Salt           string     `gorm:"not null" json:"-"`
	FailedAttempts int        `gorm:"not null;default:0" json:"failed_attempts"`
	LockedUntil    *time.Time `json:"locked_until,omitempty"`
	MustChange     bool       `gorm:"not null;default:false" json:"must_change"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Session rows are never deleted; revocation is a terminal flag so the
// token history doubles as an audit trail.
type Session struct {
	Token          string     `gorm:"primaryKey;size:64" json:"token"`
	IdentityID     string     `gorm:"type:uuid;index;not null" json:"identity_id"`
	IssuedAt       time.Time  `gorm:"not null" json:"issued_at"`
	ExpiresAt      time.Time  `gorm:"not null" json:"expires_at"`
	LastActivityAt time.Time  `json:"last_activity_at"`
	Revoked        bool       `gorm:"not null;default:false" json:"revoked"`
	RevokedAt      *time.Time `json:"revoked_at,omitempty"`
	RevokedReason  string     `json:"revoked_reason,omitempty"`
}

// RoleAssignment is an append-only ledger entry. At most one row per
// identity is current and non-revoked at any instant.
type RoleAssignment struct {
	ID            string     `gorm:"type:uuid;primaryKey" json:"id"`
	IdentityID    string     `gorm:"type:uuid;index;not null" json:"identity_id"`
	Role          Role       `gorm:"not null" json:"role"`
	AssignedBy    string     `json:"assigned_by"`
	Reason        string     `json:"reason,omitempty"`
	IsCurrent     bool       `gorm:"not null;default:true;index" json:"is_current"`
	Revoked       bool       `gorm:"not null;default:false" json:"revoked"`
	RevokedAt     *time.Time `json:"revoked_at,omitempty"`
	RevokedReason string     `json:"revoked_reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type AuditEvent struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	EventType  string    `gorm:"not null;index" json:"event_type"`
	IdentityID *string   `gorm:"type:uuid;index" json:"identity_id,omitempty"`
	ActorID    *string   `gorm:"type:uuid" json:"actor_id,omitempty"`
	Metadata   JSONB     `gorm:"type:jsonb;default:'{}'::jsonb" json:"metadata"`
	CreatedAt  time.Time `json:"created_at"`
}
