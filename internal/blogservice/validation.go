package blogservice

import (
	"math"

	"github.com/sushihentaime/bloglist/internal/common"
)

const likesOverflowMessage = "must not be more than 2147483647"

func validateTitle(v *common.Validator, title string) {
	v.Check(v.NotBlank(title), "title", "must be provided")
	v.Check(v.CheckStringLength(title, 0, 200), "title", "must not be more than 200 characters long")
}

func validateURL(v *common.Validator, url string) {
	v.Check(v.NotBlank(url), "url", "must be provided")
	v.Check(v.CheckStringLength(url, 0, 2048), "url", "must not be more than 2048 characters long")
}

func validateLikes(v *common.Validator, likes int) {
	v.Check(likes >= 0, "likes", "must not be negative")
	v.Check(likes <= math.MaxInt32, "likes", likesOverflowMessage)
}

func validateComment(v *common.Validator, comment string) {
	v.Check(v.NotBlank(comment), "comment", "must not be empty")
	v.Check(v.CheckStringLength(comment, 0, 1000), "comment", "must not be more than 1000 characters long")
}
