package identity

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// LoginMessage is the payload for credential verification.
type LoginMessage struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and issues a session token. A wrong password
// fails with the exact same error as an unknown email so callers cannot probe
// which addresses are registered. The last-login stamp runs in the background
// and its failure never reaches the caller.
func (m *Manager) Login(ctx context.Context, msg LoginMessage) (*AuthPayload, error) {
	account, err := m.repo.Accounts().GetByEmail(ctx, msg.Email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account")
	}

	if !account.InviteAccepted {
		return nil, ErrInviteNotAccepted
	}

	if !account.EmailConfirmed {
		return nil, ErrEmailNotConfirmed
	}

	if err := ComparePasswordAndHash(msg.Password, account.PasswordHash); err != nil {
		// Deliberately the same error as account-absent.
		return nil, ErrAccountNotFound
	}

	m.touchLastLogin(account)

	token, err := m.tokens.IssueSession(account.ID)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue session token")
	}

	assignments, err := m.listRoles(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	return &AuthPayload{Token: token, Account: account, Roles: assignments}, nil
}

// touchLastLogin stamps the login timestamp in the background. It may finish
// after the login response is returned; that is fine, the stamp is
// best-effort by contract.
func (m *Manager) touchLastLogin(account *Account) {
	id := account.ID
	go func() {
		if err := m.repo.Accounts().TouchLastLogin(context.Background(), id); err != nil {
			m.logger.Warn("last login touch failed for %s: %v", id, err)
		}
	}()
}
