package contentstore

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, token string) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{
		ProjectID:  "abc123",
		Dataset:    "production",
		APIVersion: "2021-10-21",
		Token:      token,
		BaseURL:    server.URL,
	})
	require.NoError(t, err)
	return client
}

func TestNewRequiresProjectAndDataset(t *testing.T) {
	_, err := New(Config{Dataset: "production"})
	assert.Error(t, err)

	_, err = New(Config{ProjectID: "abc123"})
	assert.Error(t, err)

	client, err := New(Config{ProjectID: "abc123", Dataset: "production"})
	require.NoError(t, err)
	assert.NotNil(t, client.Images())
}

func TestEndpointHosts(t *testing.T) {
	client, err := New(Config{ProjectID: "abc123", Dataset: "production", APIVersion: "v2021-10-21", UseCDN: true})
	require.NoError(t, err)

	assert.Equal(t, "https://abc123.apicdn.sanity.io/v2021-10-21/data/query/production", client.endpoint(client.useCDN(), "query"))
	assert.Equal(t, "https://abc123.api.sanity.io/v2021-10-21/data/mutate/production", client.endpoint(false, "mutate"))

	client.cfg.Token = "secret"
	assert.False(t, client.useCDN())
}

func TestQuery(t *testing.T) {
	var gotQuery, gotSlug, gotAuth, gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("query")
		gotSlug = r.URL.Query().Get("$slug")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"ms": 3, "query": "", "result": [{"_id": "p1", "title": "Hello"}]}`)
	}, "secret")

	var out []struct {
		ID    string `json:"_id"`
		Title string `json:"title"`
	}
	err := client.Query(context.Background(), `*[_type == "post" && slug.current == $slug]`, map[string]interface{}{"slug": "hello"}, &out)
	require.NoError(t, err)

	assert.Equal(t, "/v2021-10-21/data/query/production", gotPath)
	assert.Equal(t, `*[_type == "post" && slug.current == $slug]`, gotQuery)
	assert.Equal(t, `"hello"`, gotSlug)
	assert.Equal(t, "Bearer secret", gotAuth)
	require.Len(t, out, 1)
	assert.Equal(t, "p1", out[0].ID)
	assert.Equal(t, "Hello", out[0].Title)
}

func TestQueryNullResult(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		io.WriteString(w, `{"result": null}`)
	}, "")

	type doc struct{ ID string }
	out := &doc{ID: "unchanged"}
	err := client.Query(context.Background(), `*[_id == "missing"][0]`, nil, &out)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestQueryError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error": {"description": "unexpected token", "type": "queryParseError"}}`)
	}, "")

	err := client.Query(context.Background(), `*[`, nil, nil)
	require.Error(t, err)

	var storeErr *Error
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, http.StatusBadRequest, storeErr.StatusCode)
	assert.Equal(t, "queryParseError", storeErr.Type)
	assert.Equal(t, "unexpected token", storeErr.Description)
}

func TestCreate(t *testing.T) {
	var gotMethod, gotPath, gotContentType string
	var gotBody map[string]interface{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		gotContentType = r.Header.Get("Content-Type")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		io.WriteString(w, `{"transactionId": "tx1", "results": [{"id": "c1", "operation": "create"}]}`)
	}, "secret")

	id, err := client.Create(context.Background(), map[string]interface{}{"_type": "comment", "name": "KyleRay"})
	require.NoError(t, err)

	assert.Equal(t, "c1", id)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/v2021-10-21/data/mutate/production?returnIds=true&returnDocuments=true", gotPath)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, map[string]interface{}{
		"mutations": []interface{}{
			map[string]interface{}{
				"create": map[string]interface{}{"_type": "comment", "name": "KyleRay"},
			},
		},
	}, gotBody)
}

func TestCreateUnauthorized(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error": "Unauthorized", "message": "Session does not match project host", "statusCode": 401}`)
	}, "bad")

	_, err := client.Create(context.Background(), map[string]string{"_type": "comment"})
	require.Error(t, err)

	var storeErr *Error
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, http.StatusUnauthorized, storeErr.StatusCode)
	assert.Equal(t, "Unauthorized", storeErr.Type)
	assert.Equal(t, "Session does not match project host", storeErr.Description)
}

func TestCreateWithoutResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"transactionId": "tx1", "results": []}`)
	}, "secret")

	_, err := client.Create(context.Background(), map[string]string{"_type": "comment"})
	assert.Error(t, err)
}

func TestParseErrorFallbacks(t *testing.T) {
	e := parseError(http.StatusBadGateway, []byte("upstream down"))
	assert.Equal(t, "upstream down", e.Description)

	data, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{"statusCode": 502, "type": "", "description": "upstream down"}`, string(data))

	e = parseError(http.StatusServiceUnavailable, nil)
	assert.Equal(t, "Service Unavailable", e.Description)

	data, err = json.Marshal(parseError(http.StatusForbidden, []byte(`{"error": {"description": "no", "type": "permission"}}`)))
	require.NoError(t, err)
	assert.JSONEq(t, `{"statusCode": 403, "type": "permission", "description": "no"}`, string(data))
}
