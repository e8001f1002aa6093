package parser

import (
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/IshaanNene/NewsGoat/internal/config"
	"github.com/IshaanNene/NewsGoat/internal/types"
)

// CSSMatcher selects nodes with CSS selectors via goquery.
type CSSMatcher struct {
	compiled sync.Map // string -> cascadia.Selector
}

// NewCSSMatcher creates a CSS selector matcher.
func NewCSSMatcher() *CSSMatcher {
	return &CSSMatcher{}
}

// Engine implements Matcher.
func (m *CSSMatcher) Engine() string { return config.EngineCSS }

// Select implements Matcher.
func (m *CSSMatcher) Select(root *html.Node, expr string) ([]*html.Node, error) {
	sel, err := m.compile(expr)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromNode(root).FindMatcher(sel).Nodes, nil
}

func (m *CSSMatcher) compile(expr string) (cascadia.Selector, error) {
	if cached, ok := m.compiled.Load(expr); ok {
		return cached.(cascadia.Selector), nil
	}
	sel, err := cascadia.Compile(expr)
	if err != nil {
		return nil, &types.ParseError{Selector: expr, Err: err}
	}
	m.compiled.Store(expr, sel)
	return sel, nil
}
