package identity

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// ResetTokenTTL is how long a password reset token stays redeemable.
const ResetTokenTTL = 2 * time.Hour

// ChangePasswordMessage is the payload for an authenticated password change.
type ChangePasswordMessage struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ChangePassword verifies the old password and replaces the stored hash.
func (m *Manager) ChangePassword(ctx context.Context, ictx IdentityContext, msg ChangePasswordMessage) (uuid.UUID, error) {
	account, err := m.resolveAccount(ctx, ictx)
	if err != nil {
		return uuid.Nil, err
	}

	if err := ComparePasswordAndHash(msg.OldPassword, account.PasswordHash); err != nil {
		return uuid.Nil, ErrInvalidCredential
	}

	if err := ValidatePasswordStrength(msg.NewPassword); err != nil {
		return uuid.Nil, err
	}

	passwordHash, err := HashPassword(msg.NewPassword)
	if err != nil {
		return uuid.Nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	if err := m.repo.Accounts().SetPasswordHash(ctx, account.ID, passwordHash); err != nil {
		return uuid.Nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not update password")
	}

	return account.ID, nil
}

// TriggerPasswordResetMessage is the payload for starting a reset.
type TriggerPasswordResetMessage struct {
	Email string `json:"email"`
}

// TriggerPasswordReset issues a fresh reset token valid for ResetTokenTTL.
// An unknown email returns the same generic acknowledgment as a known one and
// mutates nothing.
func (m *Manager) TriggerPasswordReset(ctx context.Context, msg TriggerPasswordResetMessage) (*ResetAck, error) {
	if err := validation.Validate(msg.Email, validation.Required, is.Email); err != nil {
		return nil, ErrInvalidEmail
	}

	account, err := m.repo.Accounts().GetByEmail(ctx, msg.Email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return &ResetAck{OK: true}, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account")
	}

	token := NewOpaqueToken()
	expires := time.Now().Add(ResetTokenTTL)

	if err := m.repo.Accounts().SetResetToken(ctx, account.ID, token, expires); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not store reset token")
	}

	m.notifyAsync("password reset", func(ctx context.Context) error {
		return m.notifier.PasswordReset(ctx, account.Email, token)
	})

	return &ResetAck{OK: true}, nil
}

// CompletePasswordResetMessage is the payload for redeeming a reset token.
type CompletePasswordResetMessage struct {
	Email      string `json:"email"`
	ResetToken string `json:"reset_token"`
	Password   string `json:"password"`
}

// CompletePasswordReset redeems a reset token, replacing the stored hash and
// clearing the token and its expiry so it cannot be replayed.
func (m *Manager) CompletePasswordReset(ctx context.Context, msg CompletePasswordResetMessage) (uuid.UUID, error) {
	if msg.ResetToken == "" || msg.Password == "" {
		return uuid.Nil, ErrMissingFields
	}

	account, err := m.repo.Accounts().GetByEmail(ctx, msg.Email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return uuid.Nil, ErrAccountNotFound
		}
		return uuid.Nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account")
	}

	if account.ResetExpires == nil || account.ResetToken != msg.ResetToken {
		return uuid.Nil, ErrAccountNotFound
	}

	if time.Now().After(*account.ResetExpires) {
		return uuid.Nil, ErrResetTokenExpired
	}

	if err := ValidatePasswordStrength(msg.Password); err != nil {
		return uuid.Nil, err
	}

	passwordHash, err := HashPassword(msg.Password)
	if err != nil {
		return uuid.Nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	if err := m.repo.Accounts().RedeemResetToken(ctx, account.ID, passwordHash); err != nil {
		return uuid.Nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not redeem reset token")
	}

	return account.ID, nil
}
