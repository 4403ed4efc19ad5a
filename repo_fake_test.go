package identity_test

import (
	"context"
	"database/sql"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-identity"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	// Keep the suite fast; production cost is exercised implicitly by the
	// bcrypt round-trip tests.
	identity.BcryptCost = bcrypt.MinCost
}

func notFound() error {
	return goerrors.New("record not found", goerrors.CategoryNotFound).
		WithCode(goerrors.CodeNotFound)
}

// fakeAccounts is an in-memory Accounts store. Mutations counts every write
// so tests can assert that a flow performed no persistence at all.
type fakeAccounts struct {
	mu        sync.Mutex
	byID      map[uuid.UUID]*identity.Account
	failTouch error
	Mutations int
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{byID: map[uuid.UUID]*identity.Account{}}
}

func (f *fakeAccounts) clone(a *identity.Account) *identity.Account {
	cp := *a
	return &cp
}

func (f *fakeAccounts) get(id uuid.UUID) (*identity.Account, error) {
	if a, ok := f.byID[id]; ok {
		return f.clone(a), nil
	}
	return nil, notFound()
}

func (f *fakeAccounts) GetByID(ctx context.Context, id uuid.UUID) (*identity.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.get(id)
}

func (f *fakeAccounts) GetByEmail(ctx context.Context, email string) (*identity.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		if a.Email == email {
			return f.clone(a), nil
		}
	}
	return nil, notFound()
}

func (f *fakeAccounts) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		if a.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAccounts) Create(ctx context.Context, record *identity.Account) (*identity.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Mutations++
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.JoinedAt == nil {
		now := time.Now()
		record.JoinedAt = &now
	}
	f.byID[record.ID] = f.clone(record)
	return f.clone(record), nil
}

func (f *fakeAccounts) AcceptInvite(ctx context.Context, id uuid.UUID, name, passwordHash string) (*identity.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, notFound()
	}
	f.Mutations++
	a.Name = name
	a.PasswordHash = passwordHash
	a.InviteToken = ""
	a.InviteAccepted = true
	return f.clone(a), nil
}

func (f *fakeAccounts) ConfirmEmail(ctx context.Context, id uuid.UUID) (*identity.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, notFound()
	}
	f.Mutations++
	a.EmailConfirmed = true
	a.EmailConfirmToken = ""
	return f.clone(a), nil
}

func (f *fakeAccounts) UpdateProfile(ctx context.Context, id uuid.UUID, name, email string) (*identity.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, notFound()
	}
	f.Mutations++
	a.Name = name
	a.Email = email
	return f.clone(a), nil
}

func (f *fakeAccounts) SetPasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return notFound()
	}
	f.Mutations++
	a.PasswordHash = passwordHash
	return nil
}

func (f *fakeAccounts) SetResetToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return notFound()
	}
	f.Mutations++
	a.ResetToken = token
	a.ResetExpires = &expires
	return nil
}

func (f *fakeAccounts) RedeemResetToken(ctx context.Context, id uuid.UUID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return notFound()
	}
	f.Mutations++
	a.ResetToken = ""
	a.ResetExpires = nil
	a.PasswordHash = passwordHash
	return nil
}

func (f *fakeAccounts) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTouch != nil {
		return f.failTouch
	}
	a, ok := f.byID[id]
	if !ok {
		return notFound()
	}
	f.Mutations++
	now := time.Now()
	a.LastLogin = &now
	return nil
}

// stored returns the live record, bypassing clone, so tests can inspect and
// tweak persisted state directly.
func (f *fakeAccounts) stored(id uuid.UUID) *identity.Account {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id]
}

type fakeRoles struct {
	mu          sync.Mutex
	roles       map[uuid.UUID]*identity.Role
	assignments []*identity.AccountRole
}

func newFakeRoles() *fakeRoles {
	return &fakeRoles{roles: map[uuid.UUID]*identity.Role{}}
}

func (f *fakeRoles) Create(ctx context.Context, record *identity.Role) (*identity.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	f.roles[record.ID] = record
	return record, nil
}

func (f *fakeRoles) FindIDByName(ctx context.Context, name string) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.roles {
		if r.Name == name {
			return r.ID, nil
		}
	}
	return uuid.Nil, goerrors.New("role not found", goerrors.CategoryNotFound).
		WithTextCode(identity.TextCodeRoleNotFound).
		WithCode(goerrors.CodeNotFound)
}

func (f *fakeRoles) AssignmentExists(ctx context.Context, accountID, roleID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ar := range f.assignments {
		if ar.AccountID == accountID && ar.RoleID == roleID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRoles) CreateAssignment(ctx context.Context, accountID, roleID uuid.UUID) (*identity.AccountRole, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ar := &identity.AccountRole{
		ID:        uuid.New(),
		AccountID: accountID,
		RoleID:    roleID,
		Role:      f.roles[roleID],
	}
	f.assignments = append(f.assignments, ar)
	return ar, nil
}

func (f *fakeRoles) ListAssignments(ctx context.Context, accountID uuid.UUID) ([]*identity.AccountRole, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*identity.AccountRole
	for _, ar := range f.assignments {
		if ar.AccountID == accountID {
			out = append(out, ar)
		}
	}
	return out, nil
}

type fakePosts struct {
	mu    sync.Mutex
	posts map[uuid.UUID]*identity.Post
}

func newFakePosts() *fakePosts {
	return &fakePosts{posts: map[uuid.UUID]*identity.Post{}}
}

func (f *fakePosts) Create(ctx context.Context, record *identity.Post) (*identity.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	f.posts[record.ID] = record
	return record, nil
}

func (f *fakePosts) List(ctx context.Context) ([]*identity.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*identity.Post
	for _, p := range f.posts {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePosts) OwnerExists(ctx context.Context, postID, accountID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[postID]
	return ok && p.AccountID == accountID, nil
}

type fakeRepo struct {
	accounts *fakeAccounts
	roles    *fakeRoles
	posts    *fakePosts
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		accounts: newFakeAccounts(),
		roles:    newFakeRoles(),
		posts:    newFakePosts(),
	}
}

func (f *fakeRepo) Validate() error { return nil }
func (f *fakeRepo) MustValidate()   {}

func (f *fakeRepo) RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error {
	return fn(ctx, bun.Tx{})
}

func (f *fakeRepo) Accounts() identity.Accounts { return f.accounts }
func (f *fakeRepo) Roles() identity.Roles       { return f.roles }
func (f *fakeRepo) Posts() identity.Posts       { return f.posts }

type testConfig struct {
	signingKey string
	issuer     string
}

func (c testConfig) GetSigningKey() string { return c.signingKey }
func (c testConfig) GetIssuer() string     { return c.issuer }

func newTestTokens() *identity.TokenService {
	return identity.NewTokenService(testConfig{
		signingKey: "test-signing-key",
		issuer:     "go-identity-test",
	}, nil)
}

// newTestManager wires a Manager over fresh fakes with the default role
// already present.
func newTestManager() (*identity.Manager, *fakeRepo) {
	repo := newFakeRepo()
	_, _ = repo.roles.Create(context.Background(), &identity.Role{Name: identity.DefaultRoleName})
	manager := identity.NewManager(repo, newTestTokens())
	return manager, repo
}
