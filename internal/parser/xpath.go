package parser

import (
	"sync"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"

	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

// XPathMatcher selects nodes with XPath expressions via htmlquery.
type XPathMatcher struct {
	compiled sync.Map // string -> *xpath.Expr
}

// NewXPathMatcher creates an XPath matcher.
func NewXPathMatcher() *XPathMatcher {
	return &XPathMatcher{}
}

// Engine implements Matcher.
func (m *XPathMatcher) Engine() string { return config.EngineXPath }

// Select implements Matcher.
func (m *XPathMatcher) Select(root *html.Node, expr string) ([]*html.Node, error) {
	compiled, err := m.compile(expr)
	if err != nil {
		return nil, err
	}
	return htmlquery.QuerySelectorAll(root, compiled), nil
}

func (m *XPathMatcher) compile(expr string) (*xpath.Expr, error) {
	if cached, ok := m.compiled.Load(expr); ok {
		return cached.(*xpath.Expr), nil
	}
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, &types.ParseError{Selector: expr, Err: err}
	}
	m.compiled.Store(expr, compiled)
	return compiled, nil
}
