package blogservice

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/sushihentaime/bloglist/internal/common"
)

func NewBlogService(db *sql.DB, cache *common.Cache, mb common.MessageProducer, policy Policy, logger *slog.Logger) *BlogService {
	if logger == nil {
		logger = slog.Default()
	}

	return &BlogService{
		m:      newBlogModel(db),
		c:      cache,
		mb:     mb,
		policy: policy,
		logger: logger,
	}
}

// CreateBlogRequest carries the client supplied fields. The owner is never
// taken from the request, it is always the authenticated actor.
type CreateBlogRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Likes *int   `json:"likes"`
}

// ReplaceBlogRequest is a full update. Nil fields keep their stored value.
// UserID may be echoed back by clients but must match the current owner.
type ReplaceBlogRequest struct {
	Title  *string    `json:"title"`
	URL    *string    `json:"url"`
	Likes  *int       `json:"likes"`
	UserID *uuid.UUID `json:"-"`
}

func (s *BlogService) CreateBlog(ctx context.Context, actor Actor, req *CreateBlogRequest) (*Blog, error) {
	if err := s.policy.authorizeCreate(actor); err != nil {
		return nil, err
	}

	blog := &Blog{
		Title: req.Title,
		URL:   req.URL,
		User:  Owner{ID: actor.ID},
	}
	if req.Likes != nil {
		blog.Likes = *req.Likes
	}

	v := common.NewValidator()
	validateTitle(v, blog.Title)
	validateURL(v, blog.URL)
	validateLikes(v, blog.Likes)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if err := s.m.insert(ctx, blog); err != nil {
		return nil, err
	}

	s.invalidate(blog.ID)

	// reload to populate the owner
	return s.m.getByID(ctx, blog.ID)
}

func (s *BlogService) GetBlog(ctx context.Context, id uuid.UUID) (*Blog, error) {
	key := common.CacheKeyBlog(id)
	if cached, found := s.c.Get(key); found {
		if blog, ok := cached.(*Blog); ok {
			return blog, nil
		}
	}

	gen := s.c.Generation()
	blog, err := s.m.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.readDone()

	s.c.SetIfGeneration(gen, key, blog)

	return blog, nil
}

func (s *BlogService) GetBlogs(ctx context.Context) ([]Blog, error) {
	return s.m.getAll(ctx)
}

// LikeBlog adds exactly one like. Concurrent likes are never lost.
func (s *BlogService) LikeBlog(ctx context.Context, actor Actor, id uuid.UUID) (*Blog, error) {
	if err := s.policy.authorizeLike(actor); err != nil {
		return nil, err
	}

	blog, err := s.m.incrementLikes(ctx, id)
	if err != nil {
		return nil, err
	}

	s.invalidate(id)

	return blog, nil
}

// CommentBlog appends one comment to the end of the blog's comment list.
func (s *BlogService) CommentBlog(ctx context.Context, actor Actor, id uuid.UUID, comment string) (*Blog, error) {
	if err := s.policy.authorizeComment(actor); err != nil {
		return nil, err
	}

	comment = sanitizeComment(comment)

	v := common.NewValidator()
	validateComment(v, comment)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	blog, err := s.m.appendComment(ctx, id, comment)
	if err != nil {
		return nil, err
	}

	s.invalidate(id)
	s.publishComment(ctx, blog, comment)

	return blog, nil
}

// ReplaceBlog overwrites title, url and likes. Nil fields keep whatever is
// stored when the update runs. Comments and the owner are kept.
func (s *BlogService) ReplaceBlog(ctx context.Context, actor Actor, id uuid.UUID, req *ReplaceBlogRequest) (*Blog, error) {
	// the owner never changes, so this read is safe to use for authorization
	current, err := s.m.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.readDone()

	if err := s.policy.authorizeReplace(actor, current); err != nil {
		return nil, err
	}

	v := common.NewValidator()
	if req.Title != nil {
		validateTitle(v, *req.Title)
	}
	if req.URL != nil {
		validateURL(v, *req.URL)
	}
	if req.Likes != nil {
		validateLikes(v, *req.Likes)
	}
	v.Check(req.UserID == nil || *req.UserID == current.User.ID, "user", "cannot be changed")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	blog, err := s.m.replace(ctx, id, req.Title, req.URL, req.Likes)
	if err != nil {
		return nil, err
	}

	s.invalidate(id)

	return blog, nil
}

// DeleteBlog removes a blog owned by the actor. Deleting a blog that does not
// exist succeeds so that retries are harmless.
func (s *BlogService) DeleteBlog(ctx context.Context, actor Actor, id uuid.UUID) error {
	if actor.IsAnonymous() {
		return common.ErrUnauthenticated
	}

	blog, err := s.m.getByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	if err := s.policy.authorizeDelete(actor, blog); err != nil {
		return err
	}

	deleted, err := s.m.delete(ctx, id, actor.ID)
	if err != nil {
		return err
	}

	if deleted {
		s.invalidate(id)
	}

	return nil
}

// Stats summarizes every stored blog. The result is cached until the next write.
func (s *BlogService) Stats(ctx context.Context) (*Stats, error) {
	if cached, found := s.c.Get(common.CacheKeyBlogStats); found {
		if stats, ok := cached.(*Stats); ok {
			return stats, nil
		}
	}

	gen := s.c.Generation()
	blogs, err := s.m.getAll(ctx)
	if err != nil {
		return nil, err
	}
	s.readDone()

	stats := Summarize(blogs)
	s.c.SetIfGeneration(gen, common.CacheKeyBlogStats, &stats)

	return &stats, nil
}

// Reset removes every blog. Only wired when the server runs in the test environment.
func (s *BlogService) Reset(ctx context.Context) error {
	if err := s.m.deleteAll(ctx); err != nil {
		return err
	}

	s.c.Flush()

	return nil
}

func (s *BlogService) readDone() {
	if s.afterRead != nil {
		s.afterRead()
	}
}

func (s *BlogService) invalidate(id uuid.UUID) {
	s.c.Delete(common.CacheKeyBlog(id), common.CacheKeyBlogStats)
}
