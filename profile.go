package identity

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// UpdateProfileMessage is the payload for updating the acting account.
type UpdateProfileMessage struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdateProfile updates name and email of the acting account. The new email
// is written without syntax or uniqueness re-validation, matching the
// behavior this engine replaces; hardening it is a conscious product
// decision, not a bug fix to slip in here.
func (m *Manager) UpdateProfile(ctx context.Context, ictx IdentityContext, msg UpdateProfileMessage) (*Account, error) {
	account, err := m.resolveAccount(ctx, ictx)
	if err != nil {
		return nil, err
	}

	updated, err := m.repo.Accounts().UpdateProfile(ctx, account.ID, msg.Name, msg.Email)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not update profile")
	}

	return updated, nil
}

// CurrentAccount resolves the acting account from the identity context.
func (m *Manager) CurrentAccount(ctx context.Context, ictx IdentityContext) (*Account, error) {
	return m.resolveAccount(ctx, ictx)
}
