package identity

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// RoleService creates roles and links them to accounts.
type RoleService struct {
	repo RepositoryManager
}

// NewRoleService creates a RoleService.
func NewRoleService(repo RepositoryManager) *RoleService {
	return &RoleService{repo: repo}
}

// CreateRole persists a new named role. Duplicate names are a storage-layer
// concern and are not checked here.
func (s *RoleService) CreateRole(ctx context.Context, name string) (*Role, error) {
	role, err := s.repo.Roles().Create(ctx, &Role{Name: name})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not create role")
	}
	return role, nil
}

// AssignRole links the role to the account behind assigneeEmail. Assigning an
// existing pairing fails with a descriptive error naming the email and the
// role; it is never silently ignored.
func (s *RoleService) AssignRole(ctx context.Context, roleName, assigneeEmail string) (*AccountRole, error) {
	roleID, err := s.repo.Roles().FindIDByName(ctx, roleName)
	if err != nil {
		return nil, err
	}

	account, err := s.repo.Accounts().GetByEmail(ctx, assigneeEmail)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve assignee")
	}

	exists, err := s.repo.Roles().AssignmentExists(ctx, account.ID, roleID)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check existing assignment")
	}
	if exists {
		return nil, NewDuplicateRoleAssignment(assigneeEmail, roleName)
	}

	assignment, err := s.repo.Roles().CreateAssignment(ctx, account.ID, roleID)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not create role assignment")
	}

	return assignment, nil
}
