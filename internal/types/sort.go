package types

import (
	"fmt"
	"strings"
)

// SortMode selects the ordering requested from the search endpoint.
type SortMode int

const (
	SortByDate SortMode = iota
	SortByRelevance
)

// String returns the wire token sent in the sort query parameter.
func (s SortMode) String() string {
	switch s {
	case SortByDate:
		return "date"
	case SortByRelevance:
		return "relevance"
	default:
		return fmt.Sprintf("SortMode(%d)", int(s))
	}
}

// ParseSortMode converts a wire token (case-insensitive) into a SortMode.
func ParseSortMode(raw string) (SortMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "date":
		return SortByDate, nil
	case "relevance":
		return SortByRelevance, nil
	default:
		return 0, fmt.Errorf("%w: unknown sort mode %q (valid: date, relevance)", ErrInvalidQuery, raw)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s SortMode) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *SortMode) UnmarshalText(text []byte) error {
	mode, err := ParseSortMode(string(text))
	if err != nil {
		return err
	}
	*s = mode
	return nil
}
