package identity

import (
	"context"
	"strings"
)

// BearerScheme is the authorization scheme we strip from incoming headers.
const BearerScheme = "Bearer "

// IdentityContext carries the caller identity as it arrives from the
// transport layer: at minimum an optional bearer token lifted from an
// Authorization-style header.
type IdentityContext struct {
	Authorization string
}

// BearerToken returns the raw session token, stripping the Bearer scheme if
// present. Empty when the request carries no credentials.
func (i IdentityContext) BearerToken() string {
	raw := strings.TrimSpace(i.Authorization)
	if raw == "" {
		return ""
	}
	return strings.TrimPrefix(raw, BearerScheme)
}

var accountCtxKey = &contextKey{"account"}

type contextKey struct {
	name string
}

// WithContext sets the resolved Account in the given context.
func WithContext(ctx context.Context, account *Account) context.Context {
	return context.WithValue(ctx, accountCtxKey, account)
}

// FromContext finds the resolved Account in the context.
func FromContext(ctx context.Context) (*Account, bool) {
	raw, ok := ctx.Value(accountCtxKey).(*Account)
	return raw, ok
}
