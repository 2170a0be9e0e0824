// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package invenio

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/gutenberg-invenio/internal/httputil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type call struct {
	Method      string
	Path        string
	Query       string
	Auth        string
	ContentType string
	Body        string
}

// recorder is a mock InvenioRDM that logs every call and answers from a
// path-keyed table.
type recorder struct {
	mu        sync.Mutex
	calls     []call
	responses map[string]string
	status    map[string]int
}

func (rc *recorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	rc.mu.Lock()
	rc.calls = append(rc.calls, call{
		Method:      r.Method,
		Path:        r.URL.Path,
		Query:       r.URL.RawQuery,
		Auth:        r.Header.Get("Authorization"),
		ContentType: r.Header.Get("Content-Type"),
		Body:        string(body),
	})
	rc.mu.Unlock()

	key := r.Method + " " + r.URL.Path
	if code, ok := rc.status[key]; ok {
		w.WriteHeader(code)
		io.WriteString(w, `{"message":"rejected"}`)
		return
	}
	if resp, ok := rc.responses[key]; ok {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, resp)
		return
	}
	io.WriteString(w, `{}`)
}

func (rc *recorder) Calls() []call {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return append([]call(nil), rc.calls...)
}

func newTestClient(t *testing.T, rc *recorder) (*Client, func()) {
	t.Helper()
	ts := httptest.NewServer(rc)
	c := NewClient(ts.Client(), ts.URL+"/", "secret", zaptest.NewLogger(t))
	return c, ts.Close
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(http.DefaultClient, "", "tok", nil)
	assert.Equal(t, DefaultBaseURL+"/api", c.APIURL())
	assert.Equal(t, DefaultBaseURL+"/records/abc-123", c.RecordURL("abc-123"))
}

func TestCreateDraft(t *testing.T) {
	rc := &recorder{responses: map[string]string{"POST /api/records": `{"id":"d1","links":{"self":"x"}}`}}
	c, done := newTestClient(t, rc)
	defer done()

	rec, err := c.CreateDraft(context.Background(), Metadata{Title: "Frankenstein", PublicationDate: "1818"})
	require.NoError(t, err)
	assert.Equal(t, "d1", rec.ID)

	require.Len(t, rc.Calls(), 1)
	got := rc.Calls()[0]
	assert.Equal(t, "Bearer secret", got.Auth)
	assert.Equal(t, "application/json", got.ContentType)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(got.Body), &body))
	assert.Equal(t, map[string]any{"record": "public", "files": "public"}, body["access"])
	assert.Equal(t, map[string]any{"enabled": true}, body["files"])
	assert.Equal(t, "Frankenstein", body["metadata"].(map[string]any)["title"])
}

func TestUploadFile(t *testing.T) {
	rc := &recorder{}
	c, done := newTestClient(t, rc)
	defer done()

	err := c.UploadFile(context.Background(), "d1", "84_Frankenstein.txt", strings.NewReader("It was a dreary night"))
	require.NoError(t, err)

	require.Len(t, rc.Calls(), 3)
	assert.Equal(t, call{
		Method: http.MethodPost, Path: "/api/records/d1/draft/files",
		Auth: "Bearer secret", ContentType: "application/json",
		Body: `[{"key":"84_Frankenstein.txt"}]`,
	}, rc.Calls()[0])
	assert.Equal(t, call{
		Method: http.MethodPut, Path: "/api/records/d1/draft/files/84_Frankenstein.txt/content",
		Auth: "Bearer secret", ContentType: "application/octet-stream",
		Body: "It was a dreary night",
	}, rc.Calls()[1])
	assert.Equal(t, http.MethodPost, rc.Calls()[2].Method)
	assert.Equal(t, "/api/records/d1/draft/files/84_Frankenstein.txt/commit", rc.Calls()[2].Path)
}

func TestUploadFile_StopsOnInitFailure(t *testing.T) {
	rc := &recorder{status: map[string]int{"POST /api/records/d1/draft/files": http.StatusBadRequest}}
	c, done := newTestClient(t, rc)
	defer done()

	err := c.UploadFile(context.Background(), "d1", "a.txt", strings.NewReader("x"))
	require.Error(t, err)
	assert.Len(t, rc.Calls(), 1)

	var se *httputil.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Contains(t, err.Error(), "rejected")
}

func TestPublish(t *testing.T) {
	rc := &recorder{responses: map[string]string{
		"POST /api/records/d1/draft/actions/publish": `{"id":"p1"}`,
	}}
	c, done := newTestClient(t, rc)
	defer done()

	rec, err := c.Publish(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "p1", rec.ID)
}

func TestListRecords(t *testing.T) {
	rc := &recorder{responses: map[string]string{"GET /api/records": `{"hits":{"total":2,"hits":[
		{"id":"r1","metadata":{"title":"A","publisher":"Project Gutenberg",
			"additional_descriptions":[{"description":"Project Gutenberg eBook #84. Downloaded from x","type":{"id":"other"}}]}},
		{"id":"r2","metadata":{"title":"B","publisher":"Other"}}]}}`}}
	c, done := newTestClient(t, rc)
	defer done()

	recs, err := c.ListRecords(context.Background(), 2, 100)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "r1", recs[0].ID)
	assert.Equal(t, "Project Gutenberg", recs[0].Metadata.Publisher)
	require.Len(t, recs[0].Metadata.AdditionalDescriptions, 1)

	require.Len(t, rc.Calls(), 1)
	assert.Equal(t, "page=2&size=100", rc.Calls()[0].Query)
	assert.Empty(t, rc.Calls()[0].Auth)
}

func TestUpdateFlowCalls(t *testing.T) {
	rc := &recorder{responses: map[string]string{
		"POST /api/records/r1/versions": `{"id":"v2"}`,
	}}
	c, done := newTestClient(t, rc)
	defer done()
	ctx := context.Background()

	draft, err := c.NewVersion(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "v2", draft.ID)

	require.NoError(t, c.ImportFiles(ctx, draft.ID))
	require.NoError(t, c.UpdateDraft(ctx, draft.ID, Metadata{Title: "T", PublicationDate: "1900"}))

	require.Len(t, rc.Calls(), 3)
	assert.Equal(t, "/api/records/v2/draft/actions/files-import", rc.Calls()[1].Path)
	assert.Equal(t, http.MethodPut, rc.Calls()[2].Method)
	assert.Equal(t, "/api/records/v2/draft", rc.Calls()[2].Path)
	assert.JSONEq(t, `{"metadata":{"resource_type":{"id":""},"title":"T","creators":null,"publication_date":"1900"}}`, rc.Calls()[2].Body)
}

func TestMetadataOmitsEmptySections(t *testing.T) {
	data, err := json.Marshal(Metadata{
		ResourceType:    Vocabulary{ID: "publication-book"},
		Title:           "T",
		Creators:        []Creator{{PersonOrOrg: PersonOrOrg{Type: "personal", Name: "X", FamilyName: "X"}}},
		PublicationDate: "1900",
	})
	require.NoError(t, err)
	assert.Equal(t,
		`{"resource_type":{"id":"publication-book"},"title":"T","creators":[{"person_or_org":{"type":"personal","name":"X","family_name":"X"}}],"publication_date":"1900"}`,
		string(data))
}
