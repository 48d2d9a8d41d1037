package blogservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/bloglist/internal/common"
)

type mockProducer struct {
	mock.Mock
}

func (m *mockProducer) Publish(ctx context.Context, msg []byte, key common.BindingKey, exchange common.Exchange) error {
	args := m.Called(ctx, msg, key, exchange)
	return args.Error(0)
}

// setupTestUser inserts a user directly, bypassing the user service.
func setupTestUser(t *testing.T, db *sql.DB, username, email string) Actor {
	t.Helper()

	var id uuid.UUID
	err := db.QueryRow(`
		INSERT INTO users (username, name, email, password)
		VALUES ($1, $2, $3, $4)
		RETURNING id`, username, "Test "+username, email, []byte("not-a-real-hash")).Scan(&id)
	require.NoError(t, err)

	return Actor{ID: id}
}

func setupTestEnvironment(t *testing.T, policy Policy) (*BlogService, *sql.DB, *mockProducer) {
	db := common.TestDB("file://../../migrations", t)
	cache := common.NewCache(5*time.Minute, 10*time.Minute)
	mb := new(mockProducer)

	t.Cleanup(func() {
		_, _ = db.Exec("DELETE FROM users")
		cache.Flush()
	})

	return NewBlogService(db, cache, mb, policy, nil), db, mb
}

func intPtr(i int) *int { return &i }

func strPtr(s string) *string { return &s }

func TestCreateBlog(t *testing.T) {
	s, db, _ := setupTestEnvironment(t, DefaultPolicy())
	author := setupTestUser(t, db, "author", "")
	ctx := context.Background()

	testCases := []struct {
		name        string
		actor       Actor
		req         *CreateBlogRequest
		expectedErr error
	}{
		{
			name:  "valid blog",
			actor: author,
			req:   &CreateBlogRequest{Title: "Go Proverbs", URL: "https://go-proverbs.github.io", Likes: intPtr(3)},
		},
		{
			name:  "likes default to zero",
			actor: author,
			req:   &CreateBlogRequest{Title: "Effective Go", URL: "https://go.dev/doc/effective_go"},
		},
		{
			name:        "anonymous",
			actor:       Actor{},
			req:         &CreateBlogRequest{Title: "Go", URL: "https://go.dev"},
			expectedErr: common.ErrUnauthenticated,
		},
		{
			name:        "missing title",
			actor:       author,
			req:         &CreateBlogRequest{URL: "https://go.dev"},
			expectedErr: common.ValidationError{Errors: map[string]string{"title": "must be provided"}},
		},
		{
			name:        "missing url",
			actor:       author,
			req:         &CreateBlogRequest{Title: "Go"},
			expectedErr: common.ValidationError{Errors: map[string]string{"url": "must be provided"}},
		},
		{
			name:        "owner deleted",
			actor:       Actor{ID: uuid.New()},
			req:         &CreateBlogRequest{Title: "Go", URL: "https://go.dev"},
			expectedErr: ErrUserForeignKey,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			blog, err := s.CreateBlog(ctx, tc.actor, tc.req)
			if tc.expectedErr != nil {
				assert.Equal(t, tc.expectedErr, err)
				assert.Nil(t, blog)
				return
			}

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, blog.ID)
			assert.Equal(t, tc.req.Title, blog.Title)
			assert.Equal(t, author.ID, blog.User.ID)
			assert.Equal(t, "author", blog.User.Username)
			assert.Equal(t, []string{}, blog.Comments)
			if tc.req.Likes == nil {
				assert.Zero(t, blog.Likes)
			} else {
				assert.Equal(t, *tc.req.Likes, blog.Likes)
			}
		})
	}

	t.Run("owned blogs are derived from blogs", func(t *testing.T) {
		var n int
		err := db.QueryRow(`SELECT count(*) FROM blogs WHERE user_id = $1`, author.ID).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})
}

func TestGetBlog(t *testing.T) {
	s, db, _ := setupTestEnvironment(t, DefaultPolicy())
	author := setupTestUser(t, db, "author", "")
	ctx := context.Background()

	created, err := s.CreateBlog(ctx, author, &CreateBlogRequest{Title: "Go", URL: "https://go.dev", Likes: intPtr(4)})
	require.NoError(t, err)

	blog, err := s.GetBlog(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, blog.ID)
	assert.Equal(t, "Go", blog.Title)
	assert.Equal(t, "https://go.dev", blog.URL)
	assert.Equal(t, 4, blog.Likes)
	assert.Equal(t, []string{}, blog.Comments)
	assert.Equal(t, Owner{ID: author.ID, Username: "author", Name: "Test author"}, blog.User)
	assert.WithinDuration(t, created.CreatedAt, blog.CreatedAt, time.Second)

	// served from the cache the second time
	cached, err := s.GetBlog(ctx, created.ID)
	require.NoError(t, err)
	assert.Same(t, blog, cached)

	_, err = s.GetBlog(ctx, uuid.New())
	assert.ErrorIs(t, err, common.ErrRecordNotFound)

	blogs, err := s.GetBlogs(ctx)
	require.NoError(t, err)
	assert.Len(t, blogs, 1)
}

func TestLikeBlog(t *testing.T) {
	s, db, _ := setupTestEnvironment(t, DefaultPolicy())
	author := setupTestUser(t, db, "author", "")
	ctx := context.Background()

	blog, err := s.CreateBlog(ctx, author, &CreateBlogRequest{Title: "Go", URL: "https://go.dev", Likes: intPtr(2)})
	require.NoError(t, err)

	t.Run("anonymous like", func(t *testing.T) {
		liked, err := s.LikeBlog(ctx, Actor{}, blog.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, liked.Likes)
	})

	t.Run("concurrent likes are not lost", func(t *testing.T) {
		const n = 20

		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.LikeBlog(ctx, author, blog.ID)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := s.GetBlog(ctx, blog.ID)
		require.NoError(t, err)
		assert.Equal(t, 3+n, got.Likes)
	})

	t.Run("missing blog", func(t *testing.T) {
		_, err := s.LikeBlog(ctx, author, uuid.New())
		assert.Equal(t, ErrNotFound, err)
	})

	t.Run("likes at column limit", func(t *testing.T) {
		full, err := s.CreateBlog(ctx, author, &CreateBlogRequest{Title: "Full", URL: "https://go.dev/full", Likes: intPtr(math.MaxInt32)})
		require.NoError(t, err)

		_, err = s.LikeBlog(ctx, author, full.ID)
		assert.Equal(t, common.ValidationError{Errors: map[string]string{"likes": "must not be more than 2147483647"}}, err)

		got, err := s.GetBlog(ctx, full.ID)
		require.NoError(t, err)
		assert.Equal(t, math.MaxInt32, got.Likes)
	})

	t.Run("anonymous likes disabled", func(t *testing.T) {
		strict := NewBlogService(db, common.NewCache(time.Minute, time.Minute), nil, Policy{}, nil)
		_, err := strict.LikeBlog(ctx, Actor{}, blog.ID)
		assert.Equal(t, common.ErrUnauthenticated, err)
	})
}

func TestCommentBlog(t *testing.T) {
	s, db, mb := setupTestEnvironment(t, DefaultPolicy())
	author := setupTestUser(t, db, "author", "author@example.com")
	ctx := context.Background()

	blog, err := s.CreateBlog(ctx, author, &CreateBlogRequest{Title: "Go", URL: "https://go.dev"})
	require.NoError(t, err)

	mb.On("Publish", mock.Anything, mock.Anything, common.BlogCommentedKey, common.BlogExchange).Return(nil)

	first, err := s.CommentBlog(ctx, Actor{}, blog.ID, "  first  ")
	require.NoError(t, err)
	assert.Equal(t, []string{"first"}, first.Comments)

	second, err := s.CommentBlog(ctx, author, blog.ID, "second")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, second.Comments)

	mb.AssertNumberOfCalls(t, "Publish", 2)

	msg := mb.Calls[1].Arguments.Get(1).([]byte)
	var event CommentEvent
	require.NoError(t, json.Unmarshal(msg, &event))
	assert.Equal(t, CommentEvent{
		BlogID:     blog.ID,
		Title:      "Go",
		Comment:    "second",
		OwnerName:  "Test author",
		OwnerEmail: "author@example.com",
	}, event)

	_, err = s.CommentBlog(ctx, author, blog.ID, "<script>x()</script>")
	assert.Equal(t, common.ValidationError{Errors: map[string]string{"comment": "must not be empty"}}, err)

	stored, err := s.GetBlog(ctx, blog.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, stored.Comments)
	mb.AssertNumberOfCalls(t, "Publish", 2)

	_, err = s.CommentBlog(ctx, author, uuid.New(), "lost")
	assert.Equal(t, ErrNotFound, err)
}

func TestReplaceBlog(t *testing.T) {
	s, db, mb := setupTestEnvironment(t, DefaultPolicy())
	author := setupTestUser(t, db, "author", "")
	other := setupTestUser(t, db, "other", "")
	ctx := context.Background()

	mb.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	blog, err := s.CreateBlog(ctx, author, &CreateBlogRequest{Title: "Go", URL: "https://go.dev"})
	require.NoError(t, err)
	_, err = s.CommentBlog(ctx, Actor{}, blog.ID, "kept")
	require.NoError(t, err)

	t.Run("full replace keeps comments and owner", func(t *testing.T) {
		got, err := s.ReplaceBlog(ctx, other, blog.ID, &ReplaceBlogRequest{
			Title: strPtr("Go 2"),
			URL:   strPtr("https://go.dev/blog"),
			Likes: intPtr(9),
		})
		require.NoError(t, err)
		assert.Equal(t, "Go 2", got.Title)
		assert.Equal(t, 9, got.Likes)
		assert.Equal(t, []string{"kept"}, got.Comments)
		assert.Equal(t, author.ID, got.User.ID)
	})

	t.Run("missing fields keep stored values", func(t *testing.T) {
		got, err := s.ReplaceBlog(ctx, author, blog.ID, &ReplaceBlogRequest{Likes: intPtr(10)})
		require.NoError(t, err)
		assert.Equal(t, "Go 2", got.Title)
		assert.Equal(t, 10, got.Likes)
	})

	t.Run("empty title", func(t *testing.T) {
		_, err := s.ReplaceBlog(ctx, author, blog.ID, &ReplaceBlogRequest{Title: strPtr("")})
		assert.Equal(t, common.ValidationError{Errors: map[string]string{"title": "must be provided"}}, err)
	})

	t.Run("owner change", func(t *testing.T) {
		_, err := s.ReplaceBlog(ctx, author, blog.ID, &ReplaceBlogRequest{UserID: &other.ID})
		assert.Equal(t, common.ValidationError{Errors: map[string]string{"user": "cannot be changed"}}, err)
	})

	t.Run("missing blog", func(t *testing.T) {
		_, err := s.ReplaceBlog(ctx, author, uuid.New(), &ReplaceBlogRequest{})
		assert.Equal(t, ErrNotFound, err)
	})

	t.Run("likes above column limit", func(t *testing.T) {
		_, err := s.ReplaceBlog(ctx, author, blog.ID, &ReplaceBlogRequest{Likes: intPtr(math.MaxInt32 + 1)})
		assert.Equal(t, common.ValidationError{Errors: map[string]string{"likes": "must not be more than 2147483647"}}, err)
	})

	t.Run("like during replace is kept", func(t *testing.T) {
		before, err := s.GetBlog(ctx, blog.ID)
		require.NoError(t, err)

		racing := NewBlogService(db, common.NewCache(time.Minute, time.Minute), nil, DefaultPolicy(), nil)
		racing.afterRead = func() {
			racing.afterRead = nil
			_, err := s.LikeBlog(ctx, Actor{}, blog.ID)
			require.NoError(t, err)
		}

		got, err := racing.ReplaceBlog(ctx, author, blog.ID, &ReplaceBlogRequest{Title: strPtr("Go 3")})
		require.NoError(t, err)
		assert.Equal(t, "Go 3", got.Title)
		assert.Equal(t, before.Likes+1, got.Likes)
		assert.Equal(t, []string{"kept"}, got.Comments)
	})

	t.Run("owner required", func(t *testing.T) {
		strict := NewBlogService(db, common.NewCache(time.Minute, time.Minute), nil, Policy{ReplaceRequiresOwner: true}, nil)

		_, err := strict.ReplaceBlog(ctx, other, blog.ID, &ReplaceBlogRequest{Likes: intPtr(0)})
		assert.Equal(t, common.ErrForbidden, err)

		_, err = strict.ReplaceBlog(ctx, author, blog.ID, &ReplaceBlogRequest{Likes: intPtr(0)})
		assert.NoError(t, err)
	})
}

func TestDeleteBlog(t *testing.T) {
	s, db, _ := setupTestEnvironment(t, DefaultPolicy())
	author := setupTestUser(t, db, "author", "")
	other := setupTestUser(t, db, "other", "")
	ctx := context.Background()

	blog, err := s.CreateBlog(ctx, author, &CreateBlogRequest{Title: "Go", URL: "https://go.dev"})
	require.NoError(t, err)

	assert.Equal(t, common.ErrUnauthenticated, s.DeleteBlog(ctx, Actor{}, blog.ID))
	assert.Equal(t, common.ErrForbidden, s.DeleteBlog(ctx, other, blog.ID))

	_, err = s.GetBlog(ctx, blog.ID)
	require.NoError(t, err)

	require.NoError(t, s.DeleteBlog(ctx, author, blog.ID))

	_, err = s.GetBlog(ctx, blog.ID)
	assert.ErrorIs(t, err, common.ErrRecordNotFound)

	// a second delete is a no-op
	assert.NoError(t, s.DeleteBlog(ctx, author, blog.ID))
}

func TestStats(t *testing.T) {
	s, db, _ := setupTestEnvironment(t, DefaultPolicy())
	alice := setupTestUser(t, db, "alice", "")
	bob := setupTestUser(t, db, "bob", "")
	ctx := context.Background()

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalLikes)
	assert.Nil(t, stats.FavouriteBlog)

	_, err = s.CreateBlog(ctx, alice, &CreateBlogRequest{Title: "a1", URL: "https://a.dev/1", Likes: intPtr(5)})
	require.NoError(t, err)
	_, err = s.CreateBlog(ctx, alice, &CreateBlogRequest{Title: "a2", URL: "https://a.dev/2", Likes: intPtr(12)})
	require.NoError(t, err)
	b1, err := s.CreateBlog(ctx, bob, &CreateBlogRequest{Title: "b1", URL: "https://b.dev/1", Likes: intPtr(3)})
	require.NoError(t, err)

	stats, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, stats.TotalLikes)
	assert.Equal(t, "a2", stats.FavouriteBlog.Title)
	assert.Equal(t, &AuthorBlogs{Author: "alice", Count: 2}, stats.MostBlogs)
	assert.Equal(t, &AuthorLikes{Author: "alice", TotalLikes: 17}, stats.MostLikes)

	// writes invalidate the cached summary
	_, err = s.LikeBlog(ctx, Actor{}, b1.ID)
	require.NoError(t, err)

	stats, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 21, stats.TotalLikes)

	// a write that lands between the read and the cache fill is not masked
	s.afterRead = func() {
		s.afterRead = nil
		_, err := s.LikeBlog(ctx, Actor{}, b1.ID)
		require.NoError(t, err)
	}
	s.c.Flush()
	stats, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 21, stats.TotalLikes)

	stats, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 22, stats.TotalLikes)

	require.NoError(t, s.Reset(ctx))
	stats, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalLikes)
}

func TestGetBlogCacheFill(t *testing.T) {
	s, db, _ := setupTestEnvironment(t, DefaultPolicy())
	author := setupTestUser(t, db, "author", "")
	ctx := context.Background()

	blog, err := s.CreateBlog(ctx, author, &CreateBlogRequest{Title: "Go", URL: "https://go.dev"})
	require.NoError(t, err)

	s.afterRead = func() {
		s.afterRead = nil
		_, err := s.LikeBlog(ctx, Actor{}, blog.ID)
		require.NoError(t, err)
	}

	got, err := s.GetBlog(ctx, blog.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Likes)

	got, err = s.GetBlog(ctx, blog.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Likes)
}
