package parser

import (
	"errors"
	"fmt"

	"github.com/IshaanNene/NewsGoat/internal/types"
)

// ExtractListing locates every result fragment of a listing page in
// document order and extracts one News record per fragment.
//
// A page without fragments yields an empty slice and no error; that is how
// the end of the result sequence looks. A fragment that cannot be extracted
// fails the whole page.
func (e *Extractor) ExtractListing(document string) ([]types.News, error) {
	root, err := ParseDocument(document)
	if err != nil {
		return nil, &types.ParseError{URL: "document", Err: err}
	}

	fragments, err := e.matcher.Select(root, e.layout.Listing)
	if err != nil {
		return nil, fmt.Errorf("select listing: %w", err)
	}

	e.logger.Debug("listing fragments located", "count", len(fragments))

	news := make([]types.News, 0, len(fragments))
	for i, fragment := range fragments {
		n, err := e.ExtractNews(InnerHTML(fragment))
		if err != nil {
			var extractErr *types.ExtractError
			if errors.As(err, &extractErr) {
				extractErr.Fragment = i
			}
			return nil, err
		}
		news = append(news, n)
	}
	return news, nil
}
