package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sushihentaime/bloglist/internal/blogservice"
	"github.com/sushihentaime/bloglist/internal/userservice"
)

var seedBlogs = []blogservice.CreateBlogRequest{
	{Title: "React patterns", URL: "https://reactpatterns.com/"},
	{Title: "Go To Statement Considered Harmful", URL: "http://www.u.arizona.edu/~rubinson/copyright_violations/Go_To_Considered_Harmful.html"},
	{Title: "Canonical string reduction", URL: "http://www.cs.utexas.edu/~EWD/transcriptions/EWD08xx/EWD808.html"},
	{Title: "First class tests", URL: "http://blog.cleancoder.com/uncle-bob/2017/05/05/TestDefinitions.htmll"},
	{Title: "TDD harms architecture", URL: "http://blog.cleancoder.com/uncle-bob/2017/03/03/TDD-Harms-Architecture.html"},
	{Title: "Type wars", URL: "http://blog.cleancoder.com/uncle-bob/2016/05/01/TypeWars.html"},
}

var seedLikes = []int{7, 5, 12, 10, 0, 2}

// seed creates the demo user "root" and attaches the sample blogs to it.
// Running it again is a no-op.
func seed(ctx context.Context, users *userservice.UserService, blogs *blogservice.BlogService, logger *slog.Logger) error {
	user, err := users.CreateUser(ctx, "root", "Superuser", "", "salainen")
	if err != nil {
		if errors.Is(err, userservice.ErrDuplicateUsername) {
			logger.Info("database already seeded")
			return nil
		}
		return err
	}

	actor := blogservice.Actor{ID: user.ID}
	for i := range seedBlogs {
		req := seedBlogs[i]
		req.Likes = &seedLikes[i]

		blog, err := blogs.CreateBlog(ctx, actor, &req)
		if err != nil {
			return err
		}
		logger.Info("seeded blog", slog.String("id", blog.ID.String()), slog.String("title", blog.Title))
	}

	return nil
}
