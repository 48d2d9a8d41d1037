package blogservice

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sushihentaime/bloglist/internal/common"
)

type Blog struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Likes     int       `json:"likes"`
	Comments  []string  `json:"comments"`
	User      Owner     `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

// Owner is the user a blog belongs to, as embedded in blog responses.
type Owner struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Name     string    `json:"name"`
	Email    string    `json:"-"`
}

// Author is the key blogs are grouped by in the statistics.
func (b *Blog) Author() string {
	return b.User.Username
}

// Actor is whoever issued the request. The zero value is an anonymous caller.
type Actor struct {
	ID uuid.UUID
}

func (a Actor) IsAnonymous() bool {
	return a.ID == uuid.Nil
}

type BlogModel struct {
	db *sql.DB
}

type BlogService struct {
	m      *BlogModel
	c      *common.Cache
	mb     common.MessageProducer
	policy Policy
	logger *slog.Logger

	// afterRead runs between a store read and the write or cache fill that
	// depends on it. Tests use it to interleave concurrent writes.
	afterRead func()
}
