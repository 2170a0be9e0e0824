// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package invenio is a client for the InvenioRDM records REST API: drafts,
// file uploads, publishing, listing, and new versions of published records.
package invenio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/gutenberg-invenio/internal/httputil"
)

// DefaultBaseURL is a local development instance.
const DefaultBaseURL = "https://127.0.0.1:5000"

// Client calls an InvenioRDM instance. Mutating calls carry the bearer token.
type Client struct {
	HTTP *http.Client

	// BaseURL is the instance root; the API lives under BaseURL + "/api".
	BaseURL string

	Token     string
	UserAgent string

	Logger *zap.Logger
}

// NewClient returns a Client for baseURL.
func NewClient(httpClient *http.Client, baseURL, token string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		HTTP:    httpClient,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Logger:  logger,
	}
}

// APIURL returns the API root.
func (c *Client) APIURL() string {
	return c.BaseURL + "/api"
}

// RecordURL returns the public landing page of a record.
func (c *Client) RecordURL(id string) string {
	return c.BaseURL + "/records/" + id
}

// CreateDraft creates a public draft with files enabled.
func (c *Client) CreateDraft(ctx context.Context, md Metadata) (*Record, error) {
	body := DraftRequest{
		Access:   Access{Record: "public", Files: "public"},
		Files:    FilesOptions{Enabled: true},
		Metadata: md,
	}
	var rec Record
	if err := c.doJSON(ctx, http.MethodPost, "/records", body, &rec); err != nil {
		return nil, fmt.Errorf("creating draft: %w", err)
	}
	c.Logger.Debug("draft created", zap.String("id", rec.ID))
	return &rec, nil
}

// InitFile registers a file key on a draft.
func (c *Client) InitFile(ctx context.Context, draftID, name string) error {
	body := []map[string]string{{"key": name}}
	if err := c.doJSON(ctx, http.MethodPost, draftFilesPath(draftID), body, nil); err != nil {
		return fmt.Errorf("initializing file %s: %w", name, err)
	}
	return nil
}

// UploadContent sends the bytes of a registered file.
func (c *Client) UploadContent(ctx context.Context, draftID, name string, content io.Reader) error {
	req, err := c.newRequest(ctx, http.MethodPut, draftFilesPath(draftID)+"/"+url.PathEscape(name)+"/content", content)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("uploading file %s: %w", name, err)
	}
	return nil
}

// CommitFile finalizes an uploaded file.
func (c *Client) CommitFile(ctx context.Context, draftID, name string) error {
	path := draftFilesPath(draftID) + "/" + url.PathEscape(name) + "/commit"
	if err := c.doJSON(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("committing file %s: %w", name, err)
	}
	return nil
}

// UploadFile runs the three-step upload: init, content, commit.
func (c *Client) UploadFile(ctx context.Context, draftID, name string, content io.Reader) error {
	if err := c.InitFile(ctx, draftID, name); err != nil {
		return err
	}
	if err := c.UploadContent(ctx, draftID, name, content); err != nil {
		return err
	}
	return c.CommitFile(ctx, draftID, name)
}

// Publish publishes a draft and returns the published record.
func (c *Client) Publish(ctx context.Context, draftID string) (*Record, error) {
	var rec Record
	path := "/records/" + url.PathEscape(draftID) + "/draft/actions/publish"
	if err := c.doJSON(ctx, http.MethodPost, path, nil, &rec); err != nil {
		return nil, fmt.Errorf("publishing draft %s: %w", draftID, err)
	}
	return &rec, nil
}

// ListRecords returns one page (1-based) of published records. The listing
// is public, so no token is sent.
func (c *Client) ListRecords(ctx context.Context, page, size int) ([]Record, error) {
	q := url.Values{"size": {strconv.Itoa(size)}, "page": {strconv.Itoa(page)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIURL()+"/records?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	var res searchResult
	if err := c.do(req, &res); err != nil {
		return nil, fmt.Errorf("listing records page %d: %w", page, err)
	}
	return res.Hits.Hits, nil
}

// NewVersion creates a new-version draft of a published record.
func (c *Client) NewVersion(ctx context.Context, recordID string) (*Record, error) {
	var rec Record
	path := "/records/" + url.PathEscape(recordID) + "/versions"
	if err := c.doJSON(ctx, http.MethodPost, path, nil, &rec); err != nil {
		return nil, fmt.Errorf("creating new version of %s: %w", recordID, err)
	}
	return &rec, nil
}

// ImportFiles copies the previous version's files into a new-version draft.
func (c *Client) ImportFiles(ctx context.Context, draftID string) error {
	path := "/records/" + url.PathEscape(draftID) + "/draft/actions/files-import"
	if err := c.doJSON(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("importing files into %s: %w", draftID, err)
	}
	return nil
}

// UpdateDraft replaces a draft's metadata.
func (c *Client) UpdateDraft(ctx context.Context, draftID string, md Metadata) error {
	body := struct {
		Metadata Metadata `json:"metadata"`
	}{md}
	path := "/records/" + url.PathEscape(draftID) + "/draft"
	if err := c.doJSON(ctx, http.MethodPut, path, body, nil); err != nil {
		return fmt.Errorf("updating draft %s: %w", draftID, err)
	}
	return nil
}

func draftFilesPath(draftID string) string {
	return "/records/" + url.PathEscape(draftID) + "/draft/files"
}

// newRequest builds an authenticated API request.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.APIURL()+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	return req, nil
}

// doJSON sends in (when non-nil) as a JSON body and decodes the response
// into out (when non-nil).
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	c.Logger.Debug("invenio request", zap.String("method", req.Method), zap.String("url", req.URL.String()))
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	if err := httputil.CheckResponse(resp); err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
