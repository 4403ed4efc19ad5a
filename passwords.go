package identity

import (
	"unicode"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor used when hashing passwords. Exposed so
// operators can tune it; tests lower it to keep suites fast.
var BcryptCost = 14

// ErrNoEmptyString rejects empty passwords before they reach bcrypt.
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode("EMPTY_PASSWORD").
	WithCode(goerrors.CodeBadRequest)

// HashPassword generates a salted bcrypt digest. Two calls with the same
// input produce distinct digests.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	return string(h), err
}

// ComparePasswordAndHash validates the given cleartext password against a
// stored digest. It reports a mismatch for malformed digests instead of
// failing loudly.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredential
	}
	return nil
}

// ValidatePasswordStrength enforces the password policy: at least six
// characters, one digit, one lowercase letter, one uppercase letter. Checks
// run in that fixed order and only the first violation is reported.
func ValidatePasswordStrength(password string) error {
	if len(password) < 6 {
		return NewPolicyViolation("password must contain at least six characters")
	}

	if !containsFunc(password, unicode.IsDigit) {
		return NewPolicyViolation("password must contain at least one number (0-9)")
	}

	if !containsFunc(password, unicode.IsLower) {
		return NewPolicyViolation("password must contain at least one lowercase letter (a-z)")
	}

	if !containsFunc(password, unicode.IsUpper) {
		return NewPolicyViolation("password must contain at least one uppercase letter (A-Z)")
	}

	return nil
}

func containsFunc(s string, fn func(rune) bool) bool {
	for _, r := range s {
		if fn(r) {
			return true
		}
	}
	return false
}
