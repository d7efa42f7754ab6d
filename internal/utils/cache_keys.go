package utils

import (
	"strconv"

	"github.com/geocoder89/postboard/internal/domain/post"
)

// BuildPostsListCacheKey expects a normalized filter and uses the search term
// exactly as the query will see it.
func BuildPostsListCacheKey(f post.ListFilter) string {
	s := ""
	if f.Search != nil {
		s = *f.Search
	}

	return "posts:list:v1:limit=" + strconv.Itoa(f.Limit) +
		":offset=" + strconv.Itoa(f.Offset) +
		":search=" + s
}
