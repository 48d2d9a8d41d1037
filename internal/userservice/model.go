package userservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sushihentaime/bloglist/internal/common"
)

var (
	ErrDuplicateUsername = fmt.Errorf("duplicate username: %w", common.ErrConflict)
	ErrNotFound          = fmt.Errorf("user %w", common.ErrRecordNotFound)
)

func NewUserModel(db *sql.DB) *UserModel {
	return &UserModel{db: db}
}

func (m *UserModel) insert(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (username, name, email, password)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	args := []any{
		u.Username,
		u.Name,
		u.Email,
		u.Password.hash,
	}

	err := m.db.QueryRowContext(ctx, query, args...).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		switch {
		case common.UniqueViolation(err, "users_username_key"):
			return ErrDuplicateUsername
		default:
			return err
		}
	}

	u.Blogs = []BlogSummary{}

	return nil
}

func (m *UserModel) getByUsername(ctx context.Context, username string) (*User, error) {
	query := `
		SELECT id, username, name, email, password, created_at
		FROM users
		WHERE username = $1`

	var u User
	err := m.db.QueryRowContext(ctx, query, username).Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.Password.hash, &u.CreatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}

	return &u, nil
}

func (m *UserModel) getByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `
		SELECT id, username, name, email, created_at
		FROM users
		WHERE id = $1`

	var u User
	err := m.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.CreatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}

	blogs, err := m.getBlogSummaries(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Blogs = blogs

	return &u, nil
}

// getBlogSummaries resolves a user's blogs through blogs.user_id.
func (m *UserModel) getBlogSummaries(ctx context.Context, userID uuid.UUID) ([]BlogSummary, error) {
	query := `
		SELECT id, title, url, likes
		FROM blogs
		WHERE user_id = $1
		ORDER BY created_at, id`

	rows, err := m.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blogs := []BlogSummary{}
	for rows.Next() {
		var b BlogSummary
		if err := rows.Scan(&b.ID, &b.Title, &b.URL, &b.Likes); err != nil {
			return nil, err
		}
		blogs = append(blogs, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return blogs, nil
}

// getAll returns every user with their blogs, oldest users first.
func (m *UserModel) getAll(ctx context.Context) ([]User, error) {
	query := `
		SELECT u.id, u.username, u.name, u.created_at, b.id, b.title, b.url, b.likes
		FROM users u
		LEFT JOIN blogs b ON b.user_id = u.id
		ORDER BY u.created_at, u.id, b.created_at, b.id`

	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []User{}
	index := make(map[uuid.UUID]int)

	for rows.Next() {
		var (
			u      User
			blogID uuid.NullUUID
			title  sql.NullString
			url    sql.NullString
			likes  sql.NullInt64
		)

		err := rows.Scan(&u.ID, &u.Username, &u.Name, &u.CreatedAt, &blogID, &title, &url, &likes)
		if err != nil {
			return nil, err
		}

		i, ok := index[u.ID]
		if !ok {
			u.Blogs = []BlogSummary{}
			users = append(users, u)
			i = len(users) - 1
			index[u.ID] = i
		}

		if blogID.Valid {
			users[i].Blogs = append(users[i].Blogs, BlogSummary{
				ID:    blogID.UUID,
				Title: title.String,
				URL:   url.String,
				Likes: int(likes.Int64),
			})
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

// deleteAll wipes users and, through the foreign key, their blogs. Used by the test reset endpoint.
func (m *UserModel) deleteAll(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `DELETE FROM users`)
	return err
}
