package identity

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Action names a guarded operation in the policy table.
type Action string

const (
	// ActionListPosts guards reading the protected resource collection.
	ActionListPosts Action = "posts.list"
	// ActionCreatePost guards creating the protected resource.
	ActionCreatePost Action = "posts.create"
	// ActionUpdatePost guards updating the protected resource.
	ActionUpdatePost Action = "posts.update"
	// ActionInviteAccount guards invite-based signup.
	ActionInviteAccount Action = "accounts.invite"
)

// Principal is the resolved caller: the account behind the bearer token and
// its role assignments. A nil Principal means the request carried no valid
// credentials.
type Principal struct {
	Account *Account
	Roles   []*AccountRole
}

// HasRole reports whether any of the principal's assignments carries the
// given role name.
func (p *Principal) HasRole(name string) bool {
	if p == nil {
		return false
	}
	for _, assignment := range p.Roles {
		if assignment.RoleName() == name {
			return true
		}
	}
	return false
}

// Rule is an atomic authorization predicate. Rules return false for a nil
// principal rather than erroring; errors are reserved for infrastructure
// failures.
type Rule func(ctx context.Context, p *Principal, resourceID uuid.UUID) (bool, error)

// IsAuthenticated passes when a session token resolved to an account.
func IsAuthenticated() Rule {
	return func(ctx context.Context, p *Principal, resourceID uuid.UUID) (bool, error) {
		return p != nil && p.Account != nil, nil
	}
}

// HasRole passes when the principal holds the expected role.
func HasRole(name string) Rule {
	return func(ctx context.Context, p *Principal, resourceID uuid.UUID) (bool, error) {
		return p.HasRole(name), nil
	}
}

// Or combines rules with logical OR, short-circuiting on the first rule that
// passes.
func Or(rules ...Rule) Rule {
	return func(ctx context.Context, p *Principal, resourceID uuid.UUID) (bool, error) {
		for _, rule := range rules {
			ok, err := rule(ctx, p, resourceID)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
}

// And combines rules with logical AND, short-circuiting on the first rule
// that fails.
func And(rules ...Rule) Rule {
	return func(ctx context.Context, p *Principal, resourceID uuid.UUID) (bool, error) {
		for _, rule := range rules {
			ok, err := rule(ctx, p, resourceID)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	}
}

// Authorizer evaluates the policy declared for a guarded action against the
// principal resolved from the identity context.
type Authorizer struct {
	repo     RepositoryManager
	tokens   *TokenService
	policies map[Action]Rule
	logger   Logger
}

// NewAuthorizer creates an Authorizer loaded with the default policy table.
func NewAuthorizer(repo RepositoryManager, tokens *TokenService) *Authorizer {
	a := &Authorizer{
		repo:   repo,
		tokens: tokens,
		logger: defLogger{},
	}
	a.policies = a.defaultPolicies()
	return a
}

// WithLogger overrides the Authorizer logger.
func (a *Authorizer) WithLogger(logger Logger) *Authorizer {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// WithPolicy installs or replaces the rule for an action.
func (a *Authorizer) WithPolicy(action Action, rule Rule) *Authorizer {
	a.policies[action] = rule
	return a
}

// IsResourceOwner passes when a post exists whose owning account matches the
// principal.
func (a *Authorizer) IsResourceOwner() Rule {
	return func(ctx context.Context, p *Principal, resourceID uuid.UUID) (bool, error) {
		if p == nil || p.Account == nil {
			return false, nil
		}
		return a.repo.Posts().OwnerExists(ctx, resourceID, p.Account.ID)
	}
}

func (a *Authorizer) defaultPolicies() map[Action]Rule {
	return map[Action]Rule{
		ActionListPosts:     IsAuthenticated(),
		ActionCreatePost:    IsAuthenticated(),
		ActionInviteAccount: Or(HasRole(RoleAdmin), HasRole(RoleAuthor)),
		ActionUpdatePost:    Or(HasRole(RoleAdmin), HasRole(RoleAuthor), a.IsResourceOwner()),
	}
}

// ResolvePrincipal maps the identity context to a Principal with its role
// assignments loaded.
func (a *Authorizer) ResolvePrincipal(ctx context.Context, ictx IdentityContext) (*Principal, error) {
	accountID, err := a.tokens.VerifySession(ictx.BearerToken())
	if err != nil {
		return nil, err
	}

	account, err := a.repo.Accounts().GetByID(ctx, accountID)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve principal account")
	}

	assignments, err := a.repo.Roles().ListAssignments(ctx, account.ID)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load principal roles")
	}

	return &Principal{Account: account, Roles: assignments}, nil
}

// Authorize evaluates the policy for the action. A nil return means the
// underlying operation may run; any failure of the policy surfaces as
// ErrAuthorizationDenied. Missing or invalid credentials simply evaluate the
// policy against an unauthenticated principal.
func (a *Authorizer) Authorize(ctx context.Context, ictx IdentityContext, action Action, resourceID uuid.UUID) error {
	rule, ok := a.policies[action]
	if !ok {
		// Unknown actions are denied, never silently allowed.
		return ErrAuthorizationDenied
	}

	principal, err := a.ResolvePrincipal(ctx, ictx)
	if err != nil {
		if !isAuthFailure(err) {
			return err
		}
		principal = nil
	}

	passed, err := rule(ctx, principal, resourceID)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "policy evaluation failed")
	}

	if !passed {
		return ErrAuthorizationDenied
	}

	return nil
}

// isAuthFailure reports whether err represents missing or unusable
// credentials as opposed to an infrastructure failure.
func isAuthFailure(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}

	return richErr.Category == goerrors.CategoryAuth ||
		richErr.Category == goerrors.CategoryNotFound
}
