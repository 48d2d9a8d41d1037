package userservice

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const (
	// bcrypt cost used for new password hashes.
	passwordCost = 10

	DefaultTokenTTL time.Duration = 24 * time.Hour
)

var (
	AnonymousUser = User{}
)

type UserService struct {
	m      *UserModel
	tokens *TokenIssuer
}

type UserModel struct {
	db *sql.DB
}

type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Email     string    `json:"-"`
	Password  Password  `json:"-"`
	CreatedAt time.Time `json:"created_at"`

	// Blogs is derived from blogs.user_id on read; it is never written through the user.
	Blogs []BlogSummary `json:"blogs"`
}

// BlogSummary is the slice of a blog shown on a user's profile.
type BlogSummary struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
	URL   string    `json:"url"`
	Likes int       `json:"likes"`
}

type Password struct {
	Plain string `json:"-"`
	hash  []byte `json:"-"`
}

// AuthToken is returned by a successful login.
type AuthToken struct {
	Token    string    `json:"token"`
	Username string    `json:"username"`
	Name     string    `json:"name"`
	ID       uuid.UUID `json:"id"`
}
