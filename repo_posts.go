package identity

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type posts struct {
	base repository.Repository[*Post]
	db   *bun.DB
}

var _ Posts = (*posts)(nil)

// NewPostsRepository builds the Bun-backed Posts store.
func NewPostsRepository(db *bun.DB) Posts {
	base := repository.NewRepository[*Post](db, repository.ModelHandlers[*Post]{
		NewRecord: func() *Post { return &Post{} },
		GetID: func(p *Post) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Post, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
	})

	return &posts{base: base, db: db}
}

func (p *posts) Create(ctx context.Context, record *Post) (*Post, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return p.base.CreateTx(ctx, p.db, record)
}

func (p *posts) List(ctx context.Context) ([]*Post, error) {
	var records []*Post
	err := p.db.NewSelect().
		Model(&records).
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

// OwnerExists reports whether a post exists whose owning account matches the
// given principal.
func (p *posts) OwnerExists(ctx context.Context, postID, accountID uuid.UUID) (bool, error) {
	return p.db.NewSelect().
		Model((*Post)(nil)).
		Where("?TableAlias.id = ?", postID).
		Where("?TableAlias.account_id = ?", accountID).
		Exists(ctx)
}
