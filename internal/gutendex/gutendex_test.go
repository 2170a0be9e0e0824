// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gutendex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/gutenberg-invenio/internal/httputil"
	"github.com/pdiddy/gutenberg-invenio/internal/textclean"
	"github.com/pdiddy/gutenberg-invenio/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// newListingServer serves numbered pages of fake books. pages[i] is the
// number of results on page i+1; failPage (1-based) answers 500 when set.
func newListingServer(t *testing.T, pages []int, failPage int) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		pageNum := 1
		if p := r.URL.Query().Get("page"); p != "" {
			fmt.Sscanf(p, "%d", &pageNum)
		}
		if pageNum == failPage {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		if r.URL.Query().Get("languages") != "en" {
			http.Error(w, "missing language", http.StatusBadRequest)
			return
		}
		n := 0
		if pageNum <= len(pages) {
			n = pages[pageNum-1]
		}
		next := "null"
		if pageNum < len(pages) {
			next = fmt.Sprintf(`"%s/books?languages=en&page=%d"`, ts.URL, pageNum+1)
		}
		results := ""
		for i := 0; i < n; i++ {
			if i > 0 {
				results += ","
			}
			id := pageNum*100 + i
			results += fmt.Sprintf(`{"id": %d, "title": "Book %d", "languages": ["en"]}`, id, id)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"count": 999, "next": %s, "previous": null, "results": [%s]}`, next, results)
	}))
	return ts, &calls
}

func testClient(t *testing.T, ts *httptest.Server) *Client {
	t.Helper()
	cfg := types.HarvestConfig{
		HTTPConfig:      types.HTTPConfig{UserAgent: "gutenberg-harvest-test/0.1"},
		APIBase:         ts.URL + "/books",
		TextURLTemplate: ts.URL + "/files/{id}/{id}-0.txt",
	}
	return NewClient(ts.Client(), cfg, textclean.Default(), zaptest.NewLogger(t))
}

func TestFetchMetadata_TrimsToCount(t *testing.T) {
	ts, calls := newListingServer(t, []int{2, 2}, 0)
	defer ts.Close()

	books, err := testClient(t, ts).FetchMetadata(context.Background(), 3, "en")
	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.Equal(t, []int{100, 101, 200}, ids(books))
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestFetchMetadata_StopsWhenCountReached(t *testing.T) {
	ts, calls := newListingServer(t, []int{2, 2, 2}, 0)
	defer ts.Close()

	books, err := testClient(t, ts).FetchMetadata(context.Background(), 2, "en")
	require.NoError(t, err)
	assert.Len(t, books, 2)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestFetchMetadata_NoMorePages(t *testing.T) {
	ts, _ := newListingServer(t, []int{2, 1}, 0)
	defer ts.Close()

	books, err := testClient(t, ts).FetchMetadata(context.Background(), 10, "en")
	require.NoError(t, err)
	assert.Equal(t, []int{100, 101, 200}, ids(books))
}

func TestFetchMetadata_EmptyFirstPage(t *testing.T) {
	ts, _ := newListingServer(t, []int{0}, 0)
	defer ts.Close()

	books, err := testClient(t, ts).FetchMetadata(context.Background(), 3, "en")
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestFetchMetadata_PartialOnFailure(t *testing.T) {
	ts, _ := newListingServer(t, []int{2, 2, 2}, 3)
	defer ts.Close()

	books, err := testClient(t, ts).FetchMetadata(context.Background(), 10, "en")
	require.Error(t, err)
	assert.Equal(t, []int{100, 101, 200, 201}, ids(books))

	var se *httputil.StatusError
	assert.True(t, errors.As(err, &se))
}

func TestFetchMetadata_BadJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"results": [`)
	}))
	defer ts.Close()

	books, err := testClient(t, ts).FetchMetadata(context.Background(), 3, "en")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing Gutendex response")
	assert.Empty(t, books)
}

func TestFetchMetadata_PageDelay(t *testing.T) {
	ts, _ := newListingServer(t, []int{1, 1}, 0)
	defer ts.Close()

	c := testClient(t, ts)
	c.PageDelay = 20 * time.Millisecond

	start := time.Now()
	books, err := c.FetchMetadata(context.Background(), 2, "en")
	require.NoError(t, err)
	assert.Len(t, books, 2)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

const gutenbergBody = "Header text\r\n*** START OF THIS PROJECT GUTENBERG EBOOK TEST ***\r\nChâpter One\r\n*** END OF THIS PROJECT GUTENBERG EBOOK TEST ***\r\nFooter"

func TestFetchText(t *testing.T) {
	var gotPath, gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/files/84/84-0.txt":
			fmt.Fprint(w, gutenbergBody)
		case "/files/85/85-0.txt":
			// "Chapter" with a latin-1 encoded a-circumflex.
			w.Write([]byte("*** START OF THIS PROJECT GUTENBERG EBOOK X ***\nCh\xe2pter\n"))
		case "/files/86/86-0.txt":
			fmt.Fprint(w, "*** START OF THIS PROJECT GUTENBERG EBOOK X ***\n   \n*** END OF THIS PROJECT GUTENBERG EBOOK X ***")
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()
	c := testClient(t, ts)

	text, err := c.FetchText(context.Background(), 84)
	require.NoError(t, err)
	assert.Equal(t, "Châpter One", text)
	assert.Equal(t, "/files/84/84-0.txt", gotPath)
	assert.Equal(t, "gutenberg-harvest-test/0.1", gotUA)

	text, err = c.FetchText(context.Background(), 85)
	require.NoError(t, err)
	assert.Equal(t, "Châpter", text)

	_, err = c.FetchText(context.Background(), 86)
	assert.ErrorIs(t, err, ErrNoText)

	_, err = c.FetchText(context.Background(), 404)
	var se *httputil.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
}

func TestDecode(t *testing.T) {
	got, err := Decode([]byte("caf\xc3\xa9"))
	require.NoError(t, err)
	assert.Equal(t, "café", got)

	got, err = Decode([]byte("caf\xe9"))
	require.NoError(t, err)
	assert.Equal(t, "café", got)
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(http.DefaultClient, types.HarvestConfig{}, textclean.Default(), nil)
	assert.Equal(t, DefaultAPIBase, c.APIBase)
	assert.Equal(t, "https://www.gutenberg.org/files/84/84-0.txt", c.TextURL(84))
	assert.NotNil(t, c.Logger)
}

func ids(books []types.Book) []int {
	out := make([]int, len(books))
	for i, b := range books {
		out[i] = b.ID
	}
	return out
}
