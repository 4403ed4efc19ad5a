package identity

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Raw statements for the single-use token transitions. Clearing a token means
// writing the zero value, which an omit-zero ORM update would silently skip,
// so these go through SQL directly.
var acceptInviteSQL = `UPDATE "accounts" AS "acc"
SET
	"name" = ?,
	"password_hash" = ?,
	"invite_token" = '',
	"invite_accepted" = TRUE
WHERE
	"acc"."id" = ?
RETURNING *;`

var confirmEmailSQL = `UPDATE "accounts" AS "acc"
SET
	"email_confirmed" = TRUE,
	"email_confirm_token" = ''
WHERE
	"acc"."id" = ?
RETURNING *;`

var redeemResetTokenSQL = `UPDATE "accounts" AS "acc"
SET
	"reset_token" = '',
	"reset_expires" = NULL,
	"password_hash" = ?
WHERE
	"acc"."id" = ?
RETURNING *;`

type accounts struct {
	base repository.Repository[*Account]
	db   *bun.DB
}

var _ Accounts = (*accounts)(nil)

// NewAccountsRepository builds the Bun-backed Accounts store.
func NewAccountsRepository(db *bun.DB) Accounts {
	base := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &accounts{base: base, db: db}
}

func (a *accounts) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	record := &Account{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		return nil, a.mapNotFound(err, "id", id.String())
	}

	return record, nil
}

func (a *accounts) GetByEmail(ctx context.Context, email string) (*Account, error) {
	record := &Account{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)

	if err != nil {
		return nil, a.mapNotFound(err, "email", email)
	}

	return record, nil
}

func (a *accounts) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return a.db.NewSelect().
		Model((*Account)(nil)).
		Where("?TableAlias.email = ?", email).
		Exists(ctx)
}

func (a *accounts) Create(ctx context.Context, record *Account) (*Account, error) {
	prepareAccountDefaults(record)
	return a.base.CreateTx(ctx, a.db, record)
}

func (a *accounts) AcceptInvite(ctx context.Context, id uuid.UUID, name, passwordHash string) (*Account, error) {
	return a.rawReturningOne(ctx, acceptInviteSQL, []any{name, passwordHash, id.String()}, id)
}

func (a *accounts) ConfirmEmail(ctx context.Context, id uuid.UUID) (*Account, error) {
	return a.rawReturningOne(ctx, confirmEmailSQL, []any{id.String()}, id)
}

// UpdateProfile touches only the name and email columns. A model-based update
// would write every zero field and wipe the stored credentials.
func (a *accounts) UpdateProfile(ctx context.Context, id uuid.UUID, name, email string) (*Account, error) {
	_, err := a.db.NewUpdate().
		Model((*Account)(nil)).
		Set("name = ?", name).
		Set("email = ?", email).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)

	if err != nil {
		return nil, err
	}

	return a.GetByID(ctx, id)
}

func (a *accounts) SetPasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	_, err := a.db.NewUpdate().
		Model((*Account)(nil)).
		Set("password_hash = ?", passwordHash).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)

	return err
}

func (a *accounts) SetResetToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error {
	_, err := a.db.NewUpdate().
		Model((*Account)(nil)).
		Set("reset_token = ?", token).
		Set("reset_expires = ?", expires).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)

	return err
}

func (a *accounts) RedeemResetToken(ctx context.Context, id uuid.UUID, passwordHash string) error {
	_, err := a.rawReturningOne(ctx, redeemResetTokenSQL, []any{passwordHash, id.String()}, id)
	return err
}

// TouchLastLogin stamps last_login. Callers treat this as best-effort; the
// statement deliberately carries no other side effects.
func (a *accounts) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	_, err := a.db.NewUpdate().
		Model((*Account)(nil)).
		Set("last_login = ?", now).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)

	return err
}

func (a *accounts) rawReturningOne(ctx context.Context, query string, args []any, id uuid.UUID) (*Account, error) {
	res, err := a.base.RawTx(ctx, a.db, query, args...)
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return res[0], nil
}

func (a *accounts) mapNotFound(err error, key, value string) error {
	if repository.IsRecordNotFound(err) {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				key: value,
			})
	}
	return err
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if record.JoinedAt == nil {
		now := time.Now()
		record.JoinedAt = &now
	}
}
