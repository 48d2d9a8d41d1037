package blogservice

import "slices"

// AuthorBlogs is the author with the most blogs.
type AuthorBlogs struct {
	Author string `json:"author"`
	Count  int    `json:"count"`
}

// AuthorLikes is the author whose blogs collected the most likes.
type AuthorLikes struct {
	Author     string `json:"author"`
	TotalLikes int    `json:"total_likes"`
}

type Stats struct {
	TotalLikes    int          `json:"total_likes"`
	FavouriteBlog *Blog        `json:"favourite_blog"`
	MostBlogs     *AuthorBlogs `json:"most_blogs"`
	MostLikes     *AuthorLikes `json:"most_likes"`
}

// Summarize computes every statistic over the same snapshot.
func Summarize(blogs []Blog) Stats {
	return Stats{
		TotalLikes:    TotalLikes(blogs),
		FavouriteBlog: FavouriteBlog(blogs),
		MostBlogs:     MostBlogs(blogs),
		MostLikes:     MostLikes(blogs),
	}
}

func TotalLikes(blogs []Blog) int {
	total := 0
	for i := range blogs {
		total += blogs[i].Likes
	}
	return total
}

// FavouriteBlog returns a copy of the most liked blog, or nil for no blogs.
// On a tie the earliest blog in the slice wins.
func FavouriteBlog(blogs []Blog) *Blog {
	if len(blogs) == 0 {
		return nil
	}

	best := 0
	for i := 1; i < len(blogs); i++ {
		if blogs[i].Likes > blogs[best].Likes {
			best = i
		}
	}

	fav := blogs[best]
	fav.Comments = slices.Clone(fav.Comments)
	return &fav
}

// MostBlogs returns the author with the most blogs, or nil for no blogs.
// Ties go to the author whose first blog appears earliest in the slice.
func MostBlogs(blogs []Blog) *AuthorBlogs {
	tallies := tallyByAuthor(blogs)
	if len(tallies) == 0 {
		return nil
	}

	top := maxTally(tallies, func(t authorTally) int { return t.blogs })
	return &AuthorBlogs{Author: top.author, Count: top.blogs}
}

// MostLikes returns the author with the largest like total, or nil for no blogs.
// Ties are broken the same way as MostBlogs.
func MostLikes(blogs []Blog) *AuthorLikes {
	tallies := tallyByAuthor(blogs)
	if len(tallies) == 0 {
		return nil
	}

	top := maxTally(tallies, func(t authorTally) int { return t.likes })
	return &AuthorLikes{Author: top.author, TotalLikes: top.likes}
}

type authorTally struct {
	author string
	blogs  int
	likes  int
}

// tallyByAuthor groups blogs by author, keeping authors in first-occurrence order.
func tallyByAuthor(blogs []Blog) []authorTally {
	var tallies []authorTally
	index := make(map[string]int)

	for i := range blogs {
		author := blogs[i].Author()

		j, ok := index[author]
		if !ok {
			tallies = append(tallies, authorTally{author: author})
			j = len(tallies) - 1
			index[author] = j
		}

		tallies[j].blogs++
		tallies[j].likes += blogs[i].Likes
	}

	return tallies
}

func maxTally(tallies []authorTally, value func(authorTally) int) authorTally {
	top := tallies[0]
	for _, t := range tallies[1:] {
		if value(t) > value(top) {
			top = t
		}
	}
	return top
}
