package types

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"
)

// News is a single search result extracted from a listing page.
// Field values keep the markup escaping they had in the source document.
type News struct {
	title          string
	body           string
	timePublished  string
	imageReference string
}

// NewNews builds a News record. It is the only way to populate one.
func NewNews(title, body, timePublished, imageReference string) News {
	return News{
		title:          title,
		body:           body,
		timePublished:  timePublished,
		imageReference: imageReference,
	}
}

// Title returns the headline markup.
func (n News) Title() string { return n.title }

// Body returns the teaser paragraph markup.
func (n News) Body() string { return n.body }

// TimePublished returns the publication time exactly as rendered by the site.
func (n News) TimePublished() string { return n.timePublished }

// ImageReference returns the thumbnail URL taken from the lazy-load attribute.
func (n News) ImageReference() string { return n.imageReference }

// Equal reports whether both records carry identical fields.
func (n News) Equal(other News) bool { return n == other }

// CompareNews orders records by title, then body, time and image reference.
func CompareNews(a, b News) int {
	if c := strings.Compare(a.title, b.title); c != 0 {
		return c
	}
	if c := strings.Compare(a.body, b.body); c != 0 {
		return c
	}
	if c := strings.Compare(a.timePublished, b.timePublished); c != 0 {
		return c
	}
	return strings.Compare(a.imageReference, b.imageReference)
}

// SortNews sorts records in place using CompareNews.
func SortNews(list []News) {
	slices.SortFunc(list, CompareNews)
}

// ContainsNews reports whether target is present in list.
func ContainsNews(list []News, target News) bool {
	for _, n := range list {
		if n == target {
			return true
		}
	}
	return false
}

type newsJSON struct {
	Title          string `json:"title"           yaml:"title"`
	Body           string `json:"body"            yaml:"body"`
	TimePublished  string `json:"time_published"  yaml:"time_published"`
	ImageReference string `json:"image_reference" yaml:"image_reference"`
}

// MarshalJSON implements json.Marshaler. Whether markup characters are
// escaped as \u003c is up to the caller's encoder: json.Marshal escapes
// them, an Encoder with SetEscapeHTML(false) writes them as is. The record
// itself is encoded unescaped so that the latter choice is not overridden.
func (n News) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	err := enc.Encode(newsJSON{
		Title:          n.title,
		Body:           n.body,
		TimePublished:  n.timePublished,
		ImageReference: n.imageReference,
	})
	if err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *News) UnmarshalJSON(data []byte) error {
	var raw newsJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*n = NewNews(raw.Title, raw.Body, raw.TimePublished, raw.ImageReference)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (n News) MarshalYAML() (any, error) {
	return newsJSON{
		Title:          n.title,
		Body:           n.body,
		TimePublished:  n.timePublished,
		ImageReference: n.imageReference,
	}, nil
}

// ToFlatMap returns the record as a column map suitable for CSV export.
func (n News) ToFlatMap() map[string]string {
	return map[string]string{
		"title":           n.title,
		"body":            n.body,
		"time_published":  n.timePublished,
		"image_reference": n.imageReference,
	}
}

// NewsColumns is the fixed column order used for tabular output.
var NewsColumns = []string{"title", "time_published", "body", "image_reference"}
