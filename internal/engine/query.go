package engine

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/IshaanNene/NewsGoat/internal/types"
)

// BuildSearchURL returns the listing URL for one page of a search.
// The query text is percent-encoded as is; no validation happens here.
func BuildSearchURL(baseURL, searchPath, query string, sort types.SortMode, page uint64) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("sort", sort.String())
	params.Set("page", strconv.FormatUint(page, 10))

	path := searchPath
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(baseURL, "/") + path + "?" + params.Encode()
}
