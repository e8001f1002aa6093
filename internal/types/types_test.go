package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- News Tests ---

func TestNewsAccessors(t *testing.T) {
	n := NewNews("title", "body", "time", "image")
	assert.Equal(t, "title", n.Title())
	assert.Equal(t, "body", n.Body())
	assert.Equal(t, "time", n.TimePublished())
	assert.Equal(t, "image", n.ImageReference())
	assert.True(t, n.Equal(NewNews("title", "body", "time", "image")))
	assert.False(t, n.Equal(NewNews("title", "body", "time", "other")))
}

func TestSortNews(t *testing.T) {
	list := []News{
		NewNews("b", "x", "1", "i"),
		NewNews("a", "y", "1", "i"),
		NewNews("a", "x", "2", "i"),
		NewNews("a", "x", "1", "i"),
	}
	SortNews(list)

	assert.Equal(t, []News{
		NewNews("a", "x", "1", "i"),
		NewNews("a", "x", "2", "i"),
		NewNews("a", "y", "1", "i"),
		NewNews("b", "x", "1", "i"),
	}, list)
	assert.Zero(t, CompareNews(list[0], NewNews("a", "x", "1", "i")))
	assert.True(t, ContainsNews(list, NewNews("a", "y", "1", "i")))
	assert.False(t, ContainsNews(list, NewNews("c", "x", "1", "i")))
}

func TestNewsJSONKeepsMarkup(t *testing.T) {
	n := NewNews("В&nbsp;Ташкенте &amp; <b>Décor</b>", "b", "t", "https://img.test/a.jpg?w=1&h=2")

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	require.NoError(t, enc.Encode(n))
	data := buf.Bytes()

	assert.JSONEq(t, `{
		"title": "В&nbsp;Ташкенте &amp; <b>Décor</b>",
		"body": "b",
		"time_published": "t",
		"image_reference": "https://img.test/a.jpg?w=1&h=2"
	}`, string(data))
	assert.Contains(t, string(data), "<b>")
	assert.Contains(t, string(data), "w=1&h=2")

	var back News
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, n, back)
}

func TestNewsJSONMarshalEscapes(t *testing.T) {
	n := NewNews("<b>t</b>", "b", "t", "i")

	data, err := json.Marshal(n)
	require.NoError(t, err)
	assert.Contains(t, string(data), `\u003cb\u003e`)

	var back News
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, n, back)
}

// --- SortMode Tests ---

func TestParseSortMode(t *testing.T) {
	tests := []struct {
		raw  string
		want SortMode
	}{
		{"date", SortByDate},
		{"DATE", SortByDate},
		{" relevance ", SortByRelevance},
		{"Relevance", SortByRelevance},
	}
	for _, tt := range tests {
		got, err := ParseSortMode(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseSortMode("newest")
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestSortModeText(t *testing.T) {
	assert.Equal(t, "date", SortByDate.String())
	assert.Equal(t, "relevance", SortByRelevance.String())

	var s SortMode
	require.NoError(t, s.UnmarshalText([]byte("relevance")))
	assert.Equal(t, SortByRelevance, s)

	text, err := SortByDate.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "date", string(text))
}

// --- Error Tests ---

func TestFetchErrorMatchesTransport(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("page 2: %w", &FetchError{URL: "https://x.test", Err: cause})

	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrStructuralMismatch)

	withStatus := &FetchError{URL: "https://x.test", StatusCode: 503, Err: cause}
	assert.Contains(t, withStatus.Error(), "status 503")
}

func TestExtractErrorKinds(t *testing.T) {
	mismatch := &ExtractError{Kind: StructuralMismatch, Field: "title", Selector: "div>h3>a", Fragment: 3, Page: 2}
	assert.ErrorIs(t, mismatch, ErrStructuralMismatch)
	assert.NotErrorIs(t, mismatch, ErrMalformedAttribute)
	assert.NotErrorIs(t, mismatch, ErrTransport)
	assert.Contains(t, mismatch.Error(), "page 2, fragment 3")

	malformed := &ExtractError{Kind: MalformedAttribute, Field: "image_reference", Selector: "a>img", Attribute: "data-src", Fragment: -1}
	assert.ErrorIs(t, malformed, ErrMalformedAttribute)
	assert.Contains(t, malformed.Error(), `"data-src"`)
	assert.NotContains(t, malformed.Error(), "fragment")
}

// --- Request Tests ---

func TestNewRequest(t *testing.T) {
	req, err := NewRequest("https://www.gazeta.uz/ru/search?q=x")
	require.NoError(t, err)
	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, "https://www.gazeta.uz/ru/search?q=x", req.URLString())
	assert.NotEmpty(t, req.ID)

	_, err = NewRequest("://bad")
	assert.Error(t, err)
}
