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
	ErrAuthenticationFailure = fmt.Errorf("invalid username or password")
)

func NewUserService(db *sql.DB, tokens *TokenIssuer) *UserService {
	return &UserService{
		m:      NewUserModel(db),
		tokens: tokens,
	}
}

// CreateUser registers a new account. name and email are optional.
func (s *UserService) CreateUser(ctx context.Context, username, name, email, password string) (*User, error) {
	v := common.NewValidator()
	validateUsername(v, username)
	validateName(v, name)
	validateEmail(v, email)
	validatePassword(v, password)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	u := User{
		Username: username,
		Name:     name,
		Email:    email,
		Blogs:    []BlogSummary{},
	}

	err := u.Password.set(password)
	if err != nil {
		return nil, err
	}

	err = s.m.insert(ctx, &u)
	if err != nil {
		return nil, err
	}

	return &u, nil
}

// LoginUser checks the credentials and returns a signed bearer token.
func (s *UserService) LoginUser(ctx context.Context, username, password string) (*AuthToken, error) {
	v := common.NewValidator()
	validateCredentials(v, username, password)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	user, err := s.m.getByUsername(ctx, username)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			burnCompare(password)
			return nil, ErrAuthenticationFailure
		default:
			return nil, err
		}
	}

	ok, err := user.Password.compare(password)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, ErrAuthenticationFailure
	}

	token, err := s.tokens.issue(user)
	if err != nil {
		return nil, err
	}

	return &AuthToken{
		Token:    token,
		Username: user.Username,
		Name:     user.Name,
		ID:       user.ID,
	}, nil
}

// GetUserByToken resolves the actor behind a bearer token. A token whose user has since been
// removed yields ErrNotFound.
func (s *UserService) GetUserByToken(ctx context.Context, token string) (*User, error) {
	id, err := s.tokens.parse(token)
	if err != nil {
		return nil, err
	}

	return s.m.getByID(ctx, id)
}

func (s *UserService) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.m.getByID(ctx, id)
}

// GetUsers lists every user together with the blogs they own.
func (s *UserService) GetUsers(ctx context.Context) ([]User, error) {
	return s.m.getAll(ctx)
}

// Reset removes every user and blog. Only wired when the server runs in the test environment.
func (s *UserService) Reset(ctx context.Context) error {
	return s.m.deleteAll(ctx)
}

func (u *User) IsAnonymous() bool {
	return u == &AnonymousUser
}
