package blogservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sushihentaime/bloglist/internal/common"
)

var (
	ErrNotFound       = fmt.Errorf("blog %w", common.ErrRecordNotFound)
	ErrUserForeignKey = fmt.Errorf("owner no longer exists: %w", common.ErrUnauthenticated)
)

// blogColumns selects a blog together with its owner. Every query aliases
// the blog row as b and the owner as u.
const blogColumns = `b.id, b.title, b.url, b.likes, b.comments, b.created_at, u.id, u.username, u.name, u.email`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBlog(row rowScanner) (*Blog, error) {
	var b Blog
	err := row.Scan(&b.ID, &b.Title, &b.URL, &b.Likes, pq.Array(&b.Comments), &b.CreatedAt,
		&b.User.ID, &b.User.Username, &b.User.Name, &b.User.Email)
	if err != nil {
		return nil, err
	}

	if b.Comments == nil {
		b.Comments = []string{}
	}

	return &b, nil
}

func newBlogModel(db *sql.DB) *BlogModel {
	return &BlogModel{db: db}
}

// insert stores the blog and fills in its generated fields. The owner must already be set.
func (m *BlogModel) insert(ctx context.Context, blog *Blog) error {
	query := `
		INSERT INTO blogs (title, url, likes, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, comments, created_at`

	err := m.db.QueryRowContext(ctx, query, blog.Title, blog.URL, blog.Likes, blog.User.ID).
		Scan(&blog.ID, pq.Array(&blog.Comments), &blog.CreatedAt)
	if err != nil {
		switch {
		case common.ForeignKeyViolation(err, "blogs_user_id_fkey"):
			return ErrUserForeignKey
		default:
			return err
		}
	}

	if blog.Comments == nil {
		blog.Comments = []string{}
	}

	return nil
}

func (m *BlogModel) getByID(ctx context.Context, id uuid.UUID) (*Blog, error) {
	query := `
		SELECT ` + blogColumns + `
		FROM blogs b
		JOIN users u ON u.id = b.user_id
		WHERE b.id = $1`

	blog, err := scanBlog(m.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}

	return blog, nil
}

// getAll returns every blog in creation order.
func (m *BlogModel) getAll(ctx context.Context) ([]Blog, error) {
	query := `
		SELECT ` + blogColumns + `
		FROM blogs b
		JOIN users u ON u.id = b.user_id
		ORDER BY b.created_at, b.id`

	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blogs := []Blog{}
	for rows.Next() {
		blog, err := scanBlog(rows)
		if err != nil {
			return nil, err
		}
		blogs = append(blogs, *blog)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return blogs, nil
}

// update runs a single UPDATE on one blog and returns the row joined with its owner,
// so concurrent writers never lose each other's changes.
func (m *BlogModel) update(ctx context.Context, id uuid.UUID, set string, args ...any) (*Blog, error) {
	query := `
		WITH b AS (
			UPDATE blogs SET ` + set + `
			WHERE id = $1
			RETURNING *
		)
		SELECT ` + blogColumns + `
		FROM b
		JOIN users u ON u.id = b.user_id`

	blog, err := scanBlog(m.db.QueryRowContext(ctx, query, append([]any{id}, args...)...))
	if err != nil {
		if common.NumericOutOfRange(err) {
			return nil, common.NewValidationError("likes", likesOverflowMessage)
		}
		return nil, notFound(err)
	}

	return blog, nil
}

func (m *BlogModel) incrementLikes(ctx context.Context, id uuid.UUID) (*Blog, error) {
	return m.update(ctx, id, `likes = likes + 1`)
}

func (m *BlogModel) appendComment(ctx context.Context, id uuid.UUID, comment string) (*Blog, error) {
	return m.update(ctx, id, `comments = array_append(comments, $2)`, comment)
}

// replace overwrites the mutable fields that are non-nil. Nil fields keep the
// value stored at write time, so a like that lands during a replace is kept.
// The owner and comments are left alone.
func (m *BlogModel) replace(ctx context.Context, id uuid.UUID, title, url *string, likes *int) (*Blog, error) {
	return m.update(ctx, id,
		`title = COALESCE($2, title), url = COALESCE($3, url), likes = COALESCE($4::integer, likes)`,
		title, url, likes)
}

// delete removes the blog if it still belongs to userID. It reports whether a row was removed.
func (m *BlogModel) delete(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	query := `
		DELETE FROM blogs
		WHERE id = $1 AND user_id = $2`

	res, err := m.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

func (m *BlogModel) deleteAll(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `DELETE FROM blogs`)
	return err
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
