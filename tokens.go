package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// SessionClaims are the JWT claims carried by a session token.
type SessionClaims struct {
	jwt.RegisteredClaims
	UID string `json:"uid,omitempty"`
}

// AccountID returns the bound account identifier.
func (c *SessionClaims) AccountID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// TokenService mints and verifies session tokens and mints opaque single-use
// tokens. Session tokens are signed with a process-wide secret and carry no
// expiry: they stay valid until the signing key is rotated. Adding an exp
// claim here would break the issuance contract.
type TokenService struct {
	signingKey []byte
	issuer     string
	logger     Logger
}

// NewTokenService creates a TokenService from the given config.
func NewTokenService(cfg Config, logger Logger) *TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenService{
		signingKey: []byte(cfg.GetSigningKey()),
		issuer:     cfg.GetIssuer(),
		logger:     logger,
	}
}

// IssueSession produces a signed bearer token binding the account identifier.
func (ts *TokenService) IssueSession(accountID uuid.UUID) (string, error) {
	if accountID == uuid.Nil {
		return "", goerrors.New("account id is required", goerrors.CategoryBadInput)
	}

	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   ts.issuer,
			Subject:  accountID.String(),
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
		UID: accountID.String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign session token")
	}

	return signed, nil
}

// VerifySession parses and verifies a session token, returning the bound
// account identifier. Absent, malformed, and badly signed tokens all fail
// with an auth error.
func (ts *TokenService) VerifySession(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, ErrAuthRequired
	}

	token, err := jwt.ParseWithClaims(raw, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("session token has unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	})

	if err != nil {
		return uuid.Nil, goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return uuid.Nil, ErrTokenMalformed
	}

	id, err := uuid.Parse(claims.AccountID())
	if err != nil {
		return uuid.Nil, ErrTokenMalformed
	}

	return id, nil
}

// NewOpaqueToken generates a cryptographically random opaque string for
// invite, email-confirmation, and password-reset use.
func NewOpaqueToken() string {
	return uuid.NewString()
}
