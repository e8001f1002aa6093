package parser

import (
	"fmt"
	"log/slog"

	"golang.org/x/net/html"

	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

// Field names reported in extraction errors.
const (
	FieldTitle = "title"
	FieldTime  = "time_published"
	FieldBody  = "body"
	FieldImage = "image_reference"
)

// Extractor turns listing pages and result fragments into News records
// according to a LayoutConfig.
type Extractor struct {
	layout  config.LayoutConfig
	matcher Matcher
	logger  *slog.Logger
}

// NewExtractor validates the layout and creates an Extractor for it.
func NewExtractor(layout config.LayoutConfig, logger *slog.Logger) (*Extractor, error) {
	if err := config.ValidateLayout(layout); err != nil {
		return nil, err
	}
	matcher, err := NewMatcher(layout.Engine)
	if err != nil {
		return nil, err
	}
	return &Extractor{
		layout:  layout,
		matcher: matcher,
		logger:  logger.With("component", "extractor", "engine", matcher.Engine()),
	}, nil
}

// ExtractNews maps the inner markup of one result fragment onto a News record.
//
// Every field is looked up independently and is mandatory. When a path
// matches several nodes the last one wins: result items sometimes wrap
// their content in an outer container that re-matches the same path, and
// the innermost, latest node carries the real value.
func (e *Extractor) ExtractNews(fragment string) (types.News, error) {
	root, err := ParseFragment(fragment)
	if err != nil {
		return types.News{}, &types.ParseError{URL: "fragment", Err: err}
	}

	title, err := e.lastMatch(root, FieldTitle, e.layout.Title)
	if err != nil {
		return types.News{}, err
	}
	timePublished, err := e.lastMatch(root, FieldTime, e.layout.Time)
	if err != nil {
		return types.News{}, err
	}
	body, err := e.lastMatch(root, FieldBody, e.layout.Body)
	if err != nil {
		return types.News{}, err
	}
	image, err := e.lastMatch(root, FieldImage, e.layout.Image)
	if err != nil {
		return types.News{}, err
	}
	imageRef, ok := attrValue(image, e.layout.ImageAttr)
	if !ok {
		return types.News{}, &types.ExtractError{
			Kind:      types.MalformedAttribute,
			Field:     FieldImage,
			Selector:  e.layout.Image,
			Attribute: e.layout.ImageAttr,
			Fragment:  -1,
		}
	}

	return types.NewNews(InnerHTML(title), InnerHTML(body), InnerHTML(timePublished), imageRef), nil
}

// lastMatch collects all matches of expr and returns the final one.
func (e *Extractor) lastMatch(root *html.Node, field, expr string) (*html.Node, error) {
	nodes, err := e.matcher.Select(root, expr)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", field, err)
	}
	if len(nodes) == 0 {
		return nil, &types.ExtractError{
			Kind:     types.StructuralMismatch,
			Field:    field,
			Selector: expr,
			Fragment: -1,
		}
	}
	if len(nodes) > 1 {
		e.logger.Debug("multiple matches, keeping last", "field", field, "matches", len(nodes))
	}
	return nodes[len(nodes)-1], nil
}
