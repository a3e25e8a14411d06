package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GetJSON(t *testing.T) {
	t.Parallel()
	mock := NewMockHTTPClient().AddResponse(http.StatusOK, `{"state":"idle","components":5}`)
	c := &Client{BaseURL: "http://spiview.local", HTTP: mock}

	var got struct {
		State      string `json:"state"`
		Components int    `json:"components"`
	}
	require.NoError(t, c.GetJSON(context.Background(), "/api/status", &got))
	assert.Equal(t, "idle", got.State)
	assert.Equal(t, 5, got.Components)

	req, _ := mock.Request(0)
	require.NotNil(t, req)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "http://spiview.local/api/status", req.URL.String())
}

func TestClient_PostForm(t *testing.T) {
	t.Parallel()
	mock := NewMockHTTPClient()
	c := &Client{BaseURL: "http://h", HTTP: mock}

	require.NoError(t, c.PostForm(context.Background(), "/api/load", url.Values{"path": {"/data/a.csv"}}, nil))

	req, body := mock.Request(0)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "application/x-www-form-urlencoded", req.Header.Get("Content-Type"))
	assert.Equal(t, "path=%2Fdata%2Fa.csv", body)
}

func TestClient_APIError(t *testing.T) {
	t.Parallel()
	mock := NewMockHTTPClient().
		AddResponse(http.StatusNotFound, `{"error":"no such layer"}`).
		AddResponse(http.StatusBadGateway, "upstream down")
	c := &Client{BaseURL: "http://h", HTTP: mock}

	var apiErr *APIError
	err := c.GetJSON(context.Background(), "/api/layers", nil)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "no such layer", apiErr.Message)

	err = c.GetJSON(context.Background(), "/api/layers", nil)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "upstream down", apiErr.Message)
	assert.Equal(t, 2, mock.RequestCount())
}

func TestClient_TransportError(t *testing.T) {
	t.Parallel()
	boom := errors.New("connection refused")
	c := &Client{BaseURL: "http://h", HTTP: NewMockHTTPClient().AddErrorResponse(boom)}
	assert.ErrorIs(t, c.GetJSON(context.Background(), "/", nil), boom)
}

func TestClient_AgainstServer(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteJSONOK(w, map[string]string{"path": r.URL.Path})
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	var got map[string]string
	require.NoError(t, c.GetJSON(context.Background(), "/api/runs", &got))
	assert.Equal(t, "/api/runs", got["path"])
}

func TestMockHTTPClient_RequestOutOfRange(t *testing.T) {
	t.Parallel()
	req, body := NewMockHTTPClient().Request(3)
	assert.Nil(t, req)
	assert.Empty(t, body)
}
