package blogservice

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/sushihentaime/bloglist/internal/common"
)

// CommentEvent is published on the blog exchange after a comment is appended.
type CommentEvent struct {
	BlogID     uuid.UUID `json:"blog_id"`
	Title      string    `json:"title"`
	Comment    string    `json:"comment"`
	OwnerName  string    `json:"owner_name"`
	OwnerEmail string    `json:"owner_email"`
}

// publishComment notifies the owner's mailbox of a new comment. Owners without
// an email address are skipped. Failures are logged and never fail the request.
func (s *BlogService) publishComment(ctx context.Context, blog *Blog, comment string) {
	if s.mb == nil || blog.User.Email == "" {
		return
	}

	msg, err := json.Marshal(CommentEvent{
		BlogID:     blog.ID,
		Title:      blog.Title,
		Comment:    comment,
		OwnerName:  blog.User.Name,
		OwnerEmail: blog.User.Email,
	})
	if err != nil {
		s.logger.Error("could not encode comment event", "blog_id", blog.ID, "error", err)
		return
	}

	if err := s.mb.Publish(ctx, msg, common.BlogCommentedKey, common.BlogExchange); err != nil {
		s.logger.Error("could not publish comment event", "blog_id", blog.ID, "error", err)
	}
}
