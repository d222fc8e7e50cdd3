// httpclient/request_test.go
package httpclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/deploymenttheory/go-api-http-session/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type contact struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc, idp *mockIdentity) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	var client *Client
	var err error
	if idp != nil {
		client, err = BuildClient(testConfig(srv.URL), idp)
	} else {
		client, err = BuildClient(testConfig(srv.URL), nil)
	}
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestDoRequest_GetDecodesJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/private/contacts", r.URL.Path)
		assert.Equal(t, "Token A", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Empty(t, r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"name":"Alice"},{"id":2,"name":"Bob"}]`))
	}, nil)
	require.NoError(t, client.Session.InitSession(context.Background(), "A"))

	var out []contact
	resp, err := client.DoRequest(context.Background(), http.MethodGet, "/rest/private/contacts", nil, &out)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []contact{{1, "Alice"}, {2, "Bob"}}, out)
}

func TestDoRequest_PostMarshalsBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in contact
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		in.ID = 7
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(in)
	}, nil)

	var out contact
	resp, err := client.DoRequest(context.Background(), http.MethodPost, "rest/private/contacts", contact{Name: "Carol"}, &out)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, contact{ID: 7, Name: "Carol"}, out)
}

func TestDoRequest_RawBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_, _ = w.Write(body)
	}, nil)

	var out []byte
	_, err := client.DoRequest(context.Background(), http.MethodPut, "echo", []byte("raw"), &out)
	require.NoError(t, err)
	assert.Equal(t, "raw", string(out))
}

func TestDoRequest_ErrorResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"contact not found"}`))
	}, nil)

	resp, err := client.DoRequest(context.Background(), http.MethodGet, "rest/private/contacts/9", nil, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var apiErr *response.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "contact not found", apiErr.Message)
	assert.Equal(t, http.MethodGet, apiErr.Method)
}

func TestDoRequest_RefreshesOnUnauthorized(t *testing.T) {
	idp := new(mockIdentity)
	idp.On("RefreshToken", mock.Anything, DefaultMinTokenValidity).Return("B", nil).Once()

	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("Authorization") != "Token B" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var in contact
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(in)
	}, idp)
	require.NoError(t, client.Session.InitSession(context.Background(), "A"))

	var out contact
	resp, err := client.DoRequest(context.Background(), http.MethodPost, "rest/private/contacts", contact{Name: "Dan"}, &out)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Dan", out.Name)
	assert.Equal(t, int32(2), hits.Load())
	idp.AssertExpectations(t)
}

func TestDoRequest_UnfollowedRedirect(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "https://login.example.com/", http.StatusFound)
	}, nil)

	var out contact
	resp, err := client.DoRequest(context.Background(), http.MethodGet, "rest/private/contacts", nil, &out)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://login.example.com/", resp.Header.Get("Location"))
}

func TestDoRequest_RejectsInvalidInput(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}, nil)
	ctx := context.Background()

	_, err := client.DoRequest(ctx, "TRACE", "rest", nil, nil)
	assert.Error(t, err)

	_, err = client.DoRequest(ctx, http.MethodGet, "https://evil.example.net/steal", nil, nil)
	assert.Error(t, err)

	_, err = client.DoRequest(ctx, http.MethodPost, "rest", make(chan int), nil)
	assert.Error(t, err)
}

func TestDoRequest_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := BuildClient(testConfig(url), nil)
	require.NoError(t, err)
	defer client.Close()

	resp, err := client.DoRequest(context.Background(), http.MethodGet, "rest", nil, nil)
	assert.Error(t, err)
	assert.Nil(t, resp)
}

func TestResolve(t *testing.T) {
	client, err := BuildClient(testConfig("https://example.com/contacts"), nil)
	require.NoError(t, err)
	defer client.Close()

	got, err := client.resolve("/rest/private/contacts")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/contacts/rest/private/contacts", got)

	_, err = client.resolve("https://other.example.com/x")
	assert.Error(t, err)
}
