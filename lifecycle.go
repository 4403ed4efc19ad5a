package identity

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// AccountPayload is the result of flows that return the account together with
// its role assignments.
type AccountPayload struct {
	Account *Account       `json:"account"`
	Roles   []*AccountRole `json:"roles"`
}

// AuthPayload is the login result: a session token plus the account and its
// role assignments.
type AuthPayload struct {
	Token   string         `json:"token"`
	Account *Account       `json:"account"`
	Roles   []*AccountRole `json:"roles"`
}

// InviteAck acknowledges an invite. Only the new account identifier is
// exposed; the invite token travels through the Notifier.
type InviteAck struct {
	ID uuid.UUID `json:"id"`
}

// ResetAck is the generic acknowledgment for password reset triggers. It is
// identical whether or not the email had an account, so callers cannot probe
// for registered addresses.
type ResetAck struct {
	OK bool `json:"ok"`
}

// Manager is the account lifecycle engine. It owns every account state
// transition and the validation order inside each flow.
type Manager struct {
	repo             RepositoryManager
	tokens           *TokenService
	logger           Logger
	notifier         Notifier
	deterministicIDs bool
}

// NewManager creates a lifecycle Manager with a no-op notifier and the
// default logger.
func NewManager(repo RepositoryManager, tokens *TokenService) *Manager {
	return &Manager{
		repo:     repo,
		tokens:   tokens,
		logger:   defLogger{},
		notifier: noopNotifier{},
	}
}

// WithLogger overrides the Manager logger.
func (m *Manager) WithLogger(logger Logger) *Manager {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// WithNotifier sets the notification sink used by signup, invite, and reset
// flows.
func (m *Manager) WithNotifier(notifier Notifier) *Manager {
	if notifier != nil {
		m.notifier = notifier
	}
	return m
}

// WithDeterministicIDs derives new account IDs from the email instead of
// random UUIDs.
func (m *Manager) WithDeterministicIDs(enabled bool) *Manager {
	m.deterministicIDs = enabled
	return m
}

// resolveAccount maps the identity context to the acting account.
func (m *Manager) resolveAccount(ctx context.Context, ictx IdentityContext) (*Account, error) {
	accountID, err := m.tokens.VerifySession(ictx.BearerToken())
	if err != nil {
		return nil, err
	}

	account, err := m.repo.Accounts().GetByID(ctx, accountID)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve acting account")
	}

	return account, nil
}

// assignDefaultRole resolves the well-known default role and links the
// account to it. A missing default role is fatal to the calling flow.
func (m *Manager) assignDefaultRole(ctx context.Context, accountID uuid.UUID) error {
	roleID, err := m.repo.Roles().FindIDByName(ctx, DefaultRoleName)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not resolve default role")
	}

	if _, err := m.repo.Roles().CreateAssignment(ctx, accountID, roleID); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not assign default role")
	}

	return nil
}

func (m *Manager) listRoles(ctx context.Context, accountID uuid.UUID) ([]*AccountRole, error) {
	assignments, err := m.repo.Roles().ListAssignments(ctx, accountID)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not list role assignments")
	}
	return assignments, nil
}

// notifyAsync runs a notification best-effort in the background. Failures are
// logged and never surfaced to the triggering caller.
func (m *Manager) notifyAsync(what string, fn func(ctx context.Context) error) {
	go func() {
		if err := fn(context.Background()); err != nil {
			m.logger.Warn("%s notification failed: %v", what, err)
		}
	}()
}
