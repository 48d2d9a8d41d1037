package blogservice

import "github.com/sushihentaime/bloglist/internal/common"

// Policy holds the capability flags that decide who may mutate a blog.
// Creating and deleting always require an authenticated actor.
type Policy struct {
	// AnonymousLikes lets callers without a token increment likes.
	AnonymousLikes bool
	// AnonymousComments lets callers without a token append comments.
	AnonymousComments bool
	// ReplaceRequiresOwner applies the delete ownership rule to full replaces as well.
	ReplaceRequiresOwner bool
}

// DefaultPolicy keeps likes and comments open and replace unrestricted.
func DefaultPolicy() Policy {
	return Policy{
		AnonymousLikes:       true,
		AnonymousComments:    true,
		ReplaceRequiresOwner: false,
	}
}

func (p Policy) authorizeCreate(actor Actor) error {
	if actor.IsAnonymous() {
		return common.ErrUnauthenticated
	}
	return nil
}

func (p Policy) authorizeLike(actor Actor) error {
	if actor.IsAnonymous() && !p.AnonymousLikes {
		return common.ErrUnauthenticated
	}
	return nil
}

func (p Policy) authorizeComment(actor Actor) error {
	if actor.IsAnonymous() && !p.AnonymousComments {
		return common.ErrUnauthenticated
	}
	return nil
}

func (p Policy) authorizeReplace(actor Actor, blog *Blog) error {
	if !p.ReplaceRequiresOwner {
		return nil
	}
	return p.requireOwner(actor, blog)
}

func (p Policy) authorizeDelete(actor Actor, blog *Blog) error {
	return p.requireOwner(actor, blog)
}

func (p Policy) requireOwner(actor Actor, blog *Blog) error {
	if actor.IsAnonymous() {
		return common.ErrUnauthenticated
	}
	if blog.User.ID != actor.ID {
		return common.ErrForbidden
	}
	return nil
}
