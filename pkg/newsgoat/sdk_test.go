package newsgoat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listingServer(t *testing.T, pages map[string][]string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		var items string
		for _, title := range pages[r.URL.Query().Get("page")] {
			items += fmt.Sprintf(`<div class="nblock"><a><img data-src="/%[1]s.jpg"></a><div><div class="ndt">now</div><h3><a>%[1]s</a></h3><p>text</p></div></div>`, title)
		}
		fmt.Fprintf(w, `<html><body><div><div class="lenta"><div class="leftContainer"><div>%s</div></div></div></div></body></html>`, items)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestClientSearch(t *testing.T) {
	srv, hits := listingServer(t, map[string][]string{
		"1": {"a", "b"},
		"2": {"c"},
	})

	client, err := NewClient(WithBaseURL(srv.URL))
	require.NoError(t, err)
	defer client.Close()

	news, err := client.Search(context.Background(), "q", SortByDate)
	require.NoError(t, err)
	require.Len(t, news, 3)
	assert.Equal(t, "a", news[0].Title())
	assert.Equal(t, "c", news[2].Title())
	assert.Equal(t, int32(3), hits.Load())
}

func TestClientXPathAndPrefetch(t *testing.T) {
	srv, _ := listingServer(t, map[string][]string{
		"1": {"a"},
		"2": {"b"},
	})

	client, err := NewClient(WithBaseURL(srv.URL), WithXPath(), WithPrefetch())
	require.NoError(t, err)
	defer client.Close()

	news, err := client.Search(context.Background(), "q", SortByRelevance)
	require.NoError(t, err)
	require.Len(t, news, 2)
	assert.Equal(t, "/b.jpg", news[1].ImageReference())
}

func TestClientPageAndWalk(t *testing.T) {
	srv, _ := listingServer(t, map[string][]string{
		"1": {"a"},
		"2": {"b", "c"},
		"3": {"d"},
	})

	client, err := NewClient(WithBaseURL(srv.URL), WithMaxPages(10))
	require.NoError(t, err)
	defer client.Close()

	news, err := client.Page(context.Background(), "q", SortByDate, 2)
	require.NoError(t, err)
	assert.Len(t, news, 2)

	var pages []uint64
	err = client.Walk(context.Background(), "q", SortByDate, func(page uint64, _ []News) error {
		pages = append(pages, page)
		if page == 2 {
			return ErrStopWalk
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, pages)
}

func TestClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := NewClient(WithBaseURL(srv.URL))
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Search(context.Background(), "q", SortByDate)
	assert.True(t, errors.Is(err, ErrTransport))
}

func TestNewClientRejectsBadConfig(t *testing.T) {
	_, err := NewClient(WithBaseURL("not a url"))
	assert.Error(t, err)
}
