package identity

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Post is the owned resource guarded by the authorization rules. Ownership of
// a post is what lets a non-elevated account update it.
type Post struct {
	bun.BaseModel `bun:"table:posts,alias:pst"`
	ID            uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Title         string    `bun:"title,notnull" json:"title,omitempty"`
	Text          string    `bun:"text" json:"text,omitempty"`
	Published     bool      `bun:"published" json:"published"`
	AccountID     uuid.UUID `bun:"account_id,notnull,type:uuid" json:"account_id,omitempty"`
}

// PostService exposes the owned-resource operations. The dispatch layer is
// expected to consult the Authorizer before calling these.
type PostService struct {
	repo   RepositoryManager
	tokens *TokenService
}

// NewPostService creates a PostService.
func NewPostService(repo RepositoryManager, tokens *TokenService) *PostService {
	return &PostService{repo: repo, tokens: tokens}
}

// CreatePostMessage is the payload for CreatePost.
type CreatePostMessage struct {
	Title     string `json:"title"`
	Text      string `json:"text"`
	Published bool   `json:"published"`
}

// CreatePost creates a post owned by the authenticated principal.
func (s *PostService) CreatePost(ctx context.Context, ictx IdentityContext, msg CreatePostMessage) (*Post, error) {
	accountID, err := s.tokens.VerifySession(ictx.BearerToken())
	if err != nil {
		return nil, err
	}

	record := &Post{
		ID:        uuid.New(),
		Title:     msg.Title,
		Text:      msg.Text,
		Published: msg.Published,
		AccountID: accountID,
	}

	created, err := s.repo.Posts().Create(ctx, record)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not create post")
	}

	return created, nil
}

// ListPosts returns all posts.
func (s *PostService) ListPosts(ctx context.Context) ([]*Post, error) {
	return s.repo.Posts().List(ctx)
}
