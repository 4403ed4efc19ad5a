package identity

import (
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes carried by the error kinds this package emits. Transports can
// switch on these without parsing messages.
const (
	TextCodeInvalidEmail            = "INVALID_EMAIL"
	TextCodeDuplicateAccount        = "DUPLICATE_ACCOUNT"
	TextCodePasswordPolicy          = "PASSWORD_POLICY_VIOLATION"
	TextCodeMissingFields           = "MISSING_FIELDS"
	TextCodeAccountNotFound         = "ACCOUNT_NOT_FOUND"
	TextCodeInvalidToken            = "INVALID_TOKEN"
	TextCodeInviteNotAccepted       = "INVITE_NOT_ACCEPTED"
	TextCodeEmailNotConfirmed       = "EMAIL_NOT_CONFIRMED"
	TextCodeInvalidCredential       = "INVALID_CREDENTIAL"
	TextCodeResetTokenExpired       = "RESET_TOKEN_EXPIRED"
	TextCodeAuthRequired            = "AUTH_REQUIRED"
	TextCodeTokenMalformed          = "TOKEN_MALFORMED"
	TextCodeAuthorizationDenied     = "AUTHORIZATION_DENIED"
	TextCodeDuplicateRoleAssignment = "DUPLICATE_ROLE_ASSIGNMENT"
	TextCodeRoleNotFound            = "ROLE_NOT_FOUND"
)

// ErrInvalidEmail is returned when an email fails syntax validation.
var ErrInvalidEmail = goerrors.New("given email is invalid", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidEmail).
	WithCode(goerrors.CodeBadRequest)

// ErrDuplicateAccount is returned when a signup or invite targets an email
// that already has an account.
var ErrDuplicateAccount = goerrors.New("account already exists with this email", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateAccount).
	WithCode(goerrors.CodeConflict)

// ErrMissingFields is returned when a flow requires fields the caller left
// empty. AcceptInvite and ConfirmEmail reject empty tokens through this guard
// so an empty stored token can never match by accident.
var ErrMissingFields = goerrors.New("not all required fields are filled in", goerrors.CategoryBadInput).
	WithTextCode(TextCodeMissingFields).
	WithCode(goerrors.CodeBadRequest)

// ErrAccountNotFound is the uniform "no account found" failure. Login also
// returns this exact value for a wrong password; the two cases must stay
// indistinguishable to callers.
var ErrAccountNotFound = goerrors.New("no account found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrInvalidToken is returned when an invite or confirmation token mismatches
// or has already been consumed.
var ErrInvalidToken = goerrors.New("token is invalid", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidToken).
	WithCode(goerrors.CodeBadRequest)

// ErrInviteNotAccepted blocks login for placeholder accounts.
var ErrInviteNotAccepted = goerrors.New("account has not accepted its invite yet", goerrors.CategoryAuth).
	WithTextCode(TextCodeInviteNotAccepted).
	WithCode(goerrors.CodeUnauthorized)

// ErrEmailNotConfirmed blocks login until the confirmation token is redeemed.
var ErrEmailNotConfirmed = goerrors.New("account email has not been confirmed yet", goerrors.CategoryAuth).
	WithTextCode(TextCodeEmailNotConfirmed).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidCredential is returned when the old password fails verification
// during a password change.
var ErrInvalidCredential = goerrors.New("invalid old password", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredential).
	WithCode(goerrors.CodeUnauthorized)

// ErrResetTokenExpired is returned when a reset token is presented after its
// expiry window.
var ErrResetTokenExpired = goerrors.New("reset token has expired", goerrors.CategoryValidation).
	WithTextCode(TextCodeResetTokenExpired).
	WithCode(goerrors.CodeBadRequest)

// ErrAuthRequired is returned when a bearer token is absent.
var ErrAuthRequired = goerrors.New("not authorized", goerrors.CategoryAuth).
	WithTextCode(TextCodeAuthRequired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned when a bearer token cannot be decoded or its
// signature does not verify.
var ErrTokenMalformed = goerrors.New("unable to decode session token", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrAuthorizationDenied is surfaced when the policy for a guarded action
// evaluates to false.
var ErrAuthorizationDenied = goerrors.New("not allowed to perform this operation", goerrors.CategoryAuthz).
	WithTextCode(TextCodeAuthorizationDenied).
	WithCode(goerrors.CodeForbidden)

// ErrRoleNotFound is returned when a role name cannot be resolved.
var ErrRoleNotFound = goerrors.New("role not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeRoleNotFound).
	WithCode(goerrors.CodeNotFound)

// NewPolicyViolation builds the password strength failure. The message names
// only the first unmet rule; callers must not assume every violation is
// reported.
func NewPolicyViolation(msg string) *goerrors.Error {
	return goerrors.New(msg, goerrors.CategoryValidation).
		WithTextCode(TextCodePasswordPolicy).
		WithCode(goerrors.CodeBadRequest)
}

// NewDuplicateRoleAssignment builds the descriptive duplicate-assignment
// failure, naming the assignee and the role.
func NewDuplicateRoleAssignment(email, role string) *goerrors.Error {
	return goerrors.New(fmt.Sprintf("%s already has %s rights", email, role), goerrors.CategoryConflict).
		WithTextCode(TextCodeDuplicateRoleAssignment).
		WithCode(goerrors.CodeConflict).
		WithMetadata(map[string]any{
			"assignee_email": email,
			"role":           role,
		})
}

// IsErrorKind reports whether err is a package error carrying the given text
// code.
func IsErrorKind(err error, textCode string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == textCode
}
