package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RoleName is a named authorization tier.
type RoleName = string

const (
	// RoleAdmin is the top-level administrative tier.
	RoleAdmin RoleName = "admin"
	// RoleAuthor is the elevated tier.
	RoleAuthor RoleName = "author"
	// RoleEditor is the basic tier.
	RoleEditor RoleName = "editor"
)

// DefaultRoleName is the well-known role assigned to every new account.
const DefaultRoleName RoleName = "BASIC"

// Account is a registered or pending user. Placeholder accounts created by
// InviteSignup carry an invite token and no usable password until the invite
// is accepted.
type Account struct {
	bun.BaseModel     `bun:"table:accounts,alias:acc"`
	ID                uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name              string     `bun:"name" json:"name,omitempty"`
	Email             string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash      string     `bun:"password_hash" json:"-"`
	InviteToken       string     `bun:"invite_token" json:"-"`
	InviteAccepted    bool       `bun:"invite_accepted" json:"invite_accepted"`
	EmailConfirmToken string     `bun:"email_confirm_token" json:"-"`
	EmailConfirmed    bool       `bun:"email_confirmed" json:"email_confirmed"`
	ResetToken        string     `bun:"reset_token" json:"-"`
	ResetExpires      *time.Time `bun:"reset_expires,nullzero" json:"-"`
	LastLogin         *time.Time `bun:"last_login,nullzero" json:"last_login,omitempty"`
	JoinedAt          *time.Time `bun:"joined_at,nullzero" json:"joined_at,omitempty"`
}

// HasPendingReset reports whether the account holds a reset token that is
// still inside its expiry window.
func (a *Account) HasPendingReset(now time.Time) bool {
	return a.ResetToken != "" && a.ResetExpires != nil && now.Before(*a.ResetExpires)
}

// Role is a named authorization tier record. Immutable once created.
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:rol"`
	ID            uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string    `bun:"name,notnull" json:"name,omitempty"`
}

// AccountRole links one account to one role. A given (account, role) pair is
// never duplicated.
type AccountRole struct {
	bun.BaseModel `bun:"table:account_roles,alias:acr"`
	ID            uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AccountID     uuid.UUID `bun:"account_id,notnull,type:uuid" json:"account_id,omitempty"`
	RoleID        uuid.UUID `bun:"role_id,notnull,type:uuid" json:"role_id,omitempty"`
	Role          *Role     `bun:"rel:belongs-to,join:role_id=id" json:"role,omitempty"`
}

// RoleName returns the resolved role name, empty when the relation was not
// loaded.
func (ar *AccountRole) RoleName() string {
	if ar == nil || ar.Role == nil {
		return ""
	}
	return ar.Role.Name
}
