package identity

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Accounts is the persistence contract for account records. Every operation
// is atomic at the single-record granularity; the core assumes no
// cross-record transactions beyond what RunInTx provides.
type Accounts interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, record *Account) (*Account, error)

	AcceptInvite(ctx context.Context, id uuid.UUID, name, passwordHash string) (*Account, error)
	ConfirmEmail(ctx context.Context, id uuid.UUID) (*Account, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, name, email string) (*Account, error)
	SetPasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetResetToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error
	RedeemResetToken(ctx context.Context, id uuid.UUID, passwordHash string) error
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
}

// Roles is the persistence contract for roles and role assignments.
type Roles interface {
	Create(ctx context.Context, record *Role) (*Role, error)
	FindIDByName(ctx context.Context, name string) (uuid.UUID, error)
	AssignmentExists(ctx context.Context, accountID, roleID uuid.UUID) (bool, error)
	CreateAssignment(ctx context.Context, accountID, roleID uuid.UUID) (*AccountRole, error)
	ListAssignments(ctx context.Context, accountID uuid.UUID) ([]*AccountRole, error)
}

// Posts is the persistence contract for the owned resource guarded by the
// authorization rules.
type Posts interface {
	Create(ctx context.Context, record *Post) (*Post, error)
	List(ctx context.Context) ([]*Post, error)
	OwnerExists(ctx context.Context, postID, accountID uuid.UUID) (bool, error)
}

// RepositoryManager exposes all repositories.
type RepositoryManager interface {
	Validate() error
	MustValidate()
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
	Accounts() Accounts
	Roles() Roles
	Posts() Posts
}
