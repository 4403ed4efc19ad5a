package identity

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
)

// SignupMessage is the payload for direct signup.
type SignupMessage struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup creates a fully formed account: email syntax, then uniqueness, then
// password strength, each short-circuiting before any side effect. The new
// account gets a fresh email confirmation token and the default role.
func (m *Manager) Signup(ctx context.Context, msg SignupMessage) (*AccountPayload, error) {
	if err := validation.Validate(msg.Email, validation.Required, is.Email); err != nil {
		return nil, ErrInvalidEmail
	}

	exists, err := m.repo.Accounts().ExistsByEmail(ctx, msg.Email)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email uniqueness")
	}
	if exists {
		return nil, ErrDuplicateAccount
	}

	if err := ValidatePasswordStrength(msg.Password); err != nil {
		return nil, err
	}

	passwordHash, err := HashPassword(msg.Password)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	account := &Account{
		Name:              msg.Name,
		Email:             msg.Email,
		PasswordHash:      passwordHash,
		EmailConfirmToken: NewOpaqueToken(),
		EmailConfirmed:    false,
		InviteAccepted:    true,
	}
	m.applyDeterministicID(account)

	created, err := m.repo.Accounts().Create(ctx, account)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
	}

	if err := m.assignDefaultRole(ctx, created.ID); err != nil {
		return nil, err
	}

	assignments, err := m.listRoles(ctx, created.ID)
	if err != nil {
		return nil, err
	}

	m.notifyAsync("signup confirmation", func(ctx context.Context) error {
		return m.notifier.SignupConfirmation(ctx, created.Email, created.EmailConfirmToken)
	})

	return &AccountPayload{Account: created, Roles: assignments}, nil
}

// InviteMessage is the payload for invite-based signup.
type InviteMessage struct {
	Email string `json:"email"`
}

// InviteSignup creates a placeholder account with an invite token, no name,
// and no usable password. The default role is assigned exactly as in Signup.
// Only the new account identifier is returned.
func (m *Manager) InviteSignup(ctx context.Context, msg InviteMessage) (*InviteAck, error) {
	if err := validation.Validate(msg.Email, validation.Required, is.Email); err != nil {
		return nil, ErrInvalidEmail
	}

	exists, err := m.repo.Accounts().ExistsByEmail(ctx, msg.Email)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email uniqueness")
	}
	if exists {
		return nil, ErrDuplicateAccount
	}

	account := &Account{
		Name:           "",
		Email:          msg.Email,
		PasswordHash:   "",
		InviteToken:    NewOpaqueToken(),
		InviteAccepted: false,
	}

	created, err := m.repo.Accounts().Create(ctx, account)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create invited account")
	}

	if err := m.assignDefaultRole(ctx, created.ID); err != nil {
		return nil, err
	}

	m.notifyAsync("invite", func(ctx context.Context) error {
		return m.notifier.Invite(ctx, created.Email, created.InviteToken)
	})

	return &InviteAck{ID: created.ID}, nil
}

// AcceptInviteMessage is the payload for redeeming an invite.
type AcceptInviteMessage struct {
	Email       string `json:"email"`
	InviteToken string `json:"invite_token"`
	Name        string `json:"name"`
	Password    string `json:"password"`
}

// AcceptInvite redeems an invite token: the account gets its name and
// password and the token is cleared so it can never be replayed.
func (m *Manager) AcceptInvite(ctx context.Context, msg AcceptInviteMessage) (*AccountPayload, error) {
	// This guard must run before the lookup: an empty invite token would
	// otherwise match any placeholder-free account and let a caller set
	// someone else's password.
	if msg.InviteToken == "" || msg.Email == "" {
		return nil, ErrMissingFields
	}

	account, err := m.repo.Accounts().GetByEmail(ctx, msg.Email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account")
	}

	if account.InviteToken != msg.InviteToken || account.InviteAccepted {
		return nil, ErrInvalidToken
	}

	if err := ValidatePasswordStrength(msg.Password); err != nil {
		return nil, err
	}

	passwordHash, err := HashPassword(msg.Password)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	updated, err := m.repo.Accounts().AcceptInvite(ctx, account.ID, msg.Name, passwordHash)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not accept invite")
	}

	assignments, err := m.listRoles(ctx, updated.ID)
	if err != nil {
		return nil, err
	}

	return &AccountPayload{Account: updated, Roles: assignments}, nil
}

// ConfirmEmailMessage is the payload for email confirmation.
type ConfirmEmailMessage struct {
	Email             string `json:"email"`
	EmailConfirmToken string `json:"email_confirm_token"`
}

// ConfirmEmail redeems the email confirmation token and clears it.
func (m *Manager) ConfirmEmail(ctx context.Context, msg ConfirmEmailMessage) (*AccountPayload, error) {
	if msg.EmailConfirmToken == "" || msg.Email == "" {
		return nil, ErrMissingFields
	}

	account, err := m.repo.Accounts().GetByEmail(ctx, msg.Email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account")
	}

	if account.EmailConfirmToken != msg.EmailConfirmToken || account.EmailConfirmed {
		return nil, ErrInvalidToken
	}

	updated, err := m.repo.Accounts().ConfirmEmail(ctx, account.ID)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not confirm email")
	}

	assignments, err := m.listRoles(ctx, updated.ID)
	if err != nil {
		return nil, err
	}

	return &AccountPayload{Account: updated, Roles: assignments}, nil
}

func (m *Manager) applyDeterministicID(account *Account) {
	if !m.deterministicIDs {
		return
	}

	if id, err := hashid.NewUUID(account.Email); err == nil {
		account.ID = id
	}
}
