// Package parser maps listing pages and result fragments onto News records.
package parser

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/IshaanNene/NewsGoat/internal/config"
)

// Matcher evaluates a structural path against a markup tree.
type Matcher interface {
	// Select returns every node under root matching expr, in document order.
	Select(root *html.Node, expr string) ([]*html.Node, error)

	// Engine returns the selector dialect understood by the matcher.
	Engine() string
}

// NewMatcher returns the Matcher for a layout engine name.
func NewMatcher(engine string) (Matcher, error) {
	switch engine {
	case config.EngineCSS, "":
		return NewCSSMatcher(), nil
	case config.EngineXPath:
		return NewXPathMatcher(), nil
	default:
		return nil, fmt.Errorf("unknown selector engine %q", engine)
	}
}

// attrValue returns the value of the named attribute of n.
func attrValue(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}
