package identity

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type roles struct {
	base repository.Repository[*Role]
	db   *bun.DB
}

var _ Roles = (*roles)(nil)

// NewRolesRepository builds the Bun-backed Roles store.
func NewRolesRepository(db *bun.DB) Roles {
	base := repository.NewRepository[*Role](db, repository.ModelHandlers[*Role]{
		NewRecord: func() *Role { return &Role{} },
		GetID: func(r *Role) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *Role, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
		GetIdentifier: func() string {
			return "name"
		},
	})

	return &roles{base: base, db: db}
}

// Create persists a new role. Name uniqueness is a storage-layer concern and
// is not enforced here.
func (r *roles) Create(ctx context.Context, record *Role) (*Role, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.base.CreateTx(ctx, r.db, record)
}

// FindIDByName resolves a role name to its identifier, first match wins.
func (r *roles) FindIDByName(ctx context.Context, name string) (uuid.UUID, error) {
	record := &Role{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.name = ?", name).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			// A fresh error per call; decorating the shared sentinel would
			// leak metadata between lookups.
			return uuid.Nil, goerrors.New(ErrRoleNotFound.Message, goerrors.CategoryNotFound).
				WithTextCode(TextCodeRoleNotFound).
				WithCode(goerrors.CodeNotFound).
				WithMetadata(map[string]any{
					"name": name,
				})
		}
		return uuid.Nil, err
	}

	return record.ID, nil
}

func (r *roles) AssignmentExists(ctx context.Context, accountID, roleID uuid.UUID) (bool, error) {
	return r.db.NewSelect().
		Model((*AccountRole)(nil)).
		Where("?TableAlias.account_id = ?", accountID).
		Where("?TableAlias.role_id = ?", roleID).
		Exists(ctx)
}

func (r *roles) CreateAssignment(ctx context.Context, accountID, roleID uuid.UUID) (*AccountRole, error) {
	record := &AccountRole{
		ID:        uuid.New(),
		AccountID: accountID,
		RoleID:    roleID,
	}

	_, err := r.db.NewInsert().
		Model(record).
		Exec(ctx)

	if err != nil {
		return nil, err
	}

	return record, nil
}

// ListAssignments returns every assignment for the account with the role
// relation loaded, so callers can read role names without another query.
func (r *roles) ListAssignments(ctx context.Context, accountID uuid.UUID) ([]*AccountRole, error) {
	var records []*AccountRole
	err := r.db.NewSelect().
		Model(&records).
		Relation("Role").
		Where("?TableAlias.account_id = ?", accountID).
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}
