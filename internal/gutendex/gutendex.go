// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gutendex reads book metadata from the Gutendex catalogue API and
// plain-text bodies from Project Gutenberg.
package gutendex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/pdiddy/gutenberg-invenio/internal/httputil"
	"github.com/pdiddy/gutenberg-invenio/internal/textclean"
	"github.com/pdiddy/gutenberg-invenio/pkg/types"
)

const (
	// DefaultAPIBase is the Gutendex listing endpoint.
	DefaultAPIBase = "https://gutendex.com/books"

	// DefaultTextURLTemplate is the plain-text location of a book.
	DefaultTextURLTemplate = "https://www.gutenberg.org/files/{id}/{id}-0.txt"
)

// ErrNoText is returned when a book's body is empty once cleaned.
var ErrNoText = errors.New("no text after cleaning")

// page is one Gutendex listing response.
type page struct {
	Count   int          `json:"count"`
	Next    *string      `json:"next"`
	Results []types.Book `json:"results"`
}

// Client talks to Gutendex and the Gutenberg file server.
type Client struct {
	HTTP *http.Client

	// APIBase and TextURLTemplate default to the public endpoints.
	APIBase         string
	TextURLTemplate string

	UserAgent string

	// PageDelay is slept after every listing page.
	PageDelay time.Duration

	// Markers strips the licence banners from fetched text.
	Markers textclean.Markers

	Logger *zap.Logger
}

// NewClient returns a Client configured from cfg.
func NewClient(httpClient *http.Client, cfg types.HarvestConfig, markers textclean.Markers, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		HTTP:            httpClient,
		APIBase:         cfg.APIBase,
		TextURLTemplate: cfg.TextURLTemplate,
		UserAgent:       cfg.UserAgent,
		PageDelay:       cfg.PageDelay,
		Markers:         markers,
		Logger:          logger,
	}
	if c.APIBase == "" {
		c.APIBase = DefaultAPIBase
	}
	if c.TextURLTemplate == "" {
		c.TextURLTemplate = DefaultTextURLTemplate
	}
	return c
}

// FetchMetadata pages through the listing for language until count books
// are gathered or no next page remains, and returns exactly count books at
// most. If a page fails, paging stops and the books gathered so far are
// returned along with the error; callers may use the partial list.
func (c *Client) FetchMetadata(ctx context.Context, count int, language string) ([]types.Book, error) {
	var books []types.Book
	next := c.APIBase + "?" + url.Values{"languages": {language}}.Encode()

	for len(books) < count && next != "" {
		p, err := c.fetchPage(ctx, next)
		if err != nil {
			return truncate(books, count), fmt.Errorf("fetching %s: %w", next, err)
		}
		books = append(books, p.Results...)
		next = ""
		if p.Next != nil {
			next = *p.Next
		}
		c.Logger.Debug("fetched metadata page",
			zap.Int("page_results", len(p.Results)),
			zap.Int("total", len(books)))

		if c.PageDelay > 0 {
			if err := httputil.Sleep(ctx, c.PageDelay); err != nil {
				return truncate(books, count), err
			}
		}
	}
	return truncate(books, count), nil
}

func (c *Client) fetchPage(ctx context.Context, pageURL string) (*page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	c.setUserAgent(req)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Gutendex API request: %w", err)
	}
	if err := httputil.CheckResponse(resp); err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var p page
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("parsing Gutendex response: %w", err)
	}
	return &p, nil
}

// TextURL returns the plain-text URL of a book.
func (c *Client) TextURL(id int) string {
	return strings.ReplaceAll(c.TextURLTemplate, "{id}", strconv.Itoa(id))
}

// FetchText downloads a book's body, decodes it, and strips the licence
// banners.
func (c *Client) FetchText(ctx context.Context, id int) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.TextURL(id), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/plain")
	c.setUserAgent(req)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("text request: %w", err)
	}
	if err := httputil.CheckResponse(resp); err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading text: %w", err)
	}
	text, err := Decode(raw)
	if err != nil {
		return "", err
	}
	clean := c.Markers.Strip(text)
	if clean == "" {
		return "", ErrNoText
	}
	return clean, nil
}

// Decode interprets raw as UTF-8, falling back to ISO-8859-1 when the bytes
// are not valid UTF-8.
func Decode(raw []byte) (string, error) {
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decoding text as ISO-8859-1: %w", err)
	}
	return string(out), nil
}

func (c *Client) setUserAgent(req *http.Request) {
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
}

func truncate(books []types.Book, count int) []types.Book {
	if count < 0 {
		count = 0
	}
	if len(books) > count {
		return books[:count]
	}
	return books
}
