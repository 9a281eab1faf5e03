package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restcheck/restcheck/packages/core/parser"
	"github.com/restcheck/restcheck/packages/core/resolve"
)

func unitFor(method, url string, headers []*parser.Header, body *parser.Body) *resolve.Unit {
	return &resolve.Unit{
		Request: &parser.Request{
			Method:  method,
			URL:     url,
			Headers: headers,
			Body:    body,
		},
		Source: "test.http",
	}
}

func TestExecuteGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/users", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"users": []}`))
	}))
	defer server.Close()

	client := NewClient()
	executed, err := client.Execute(context.Background(), unitFor("GET", server.URL+"/users", nil, nil))
	require.NoError(t, err)

	resp := executed.Response
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, `{"users": []}`, resp.BodyString())
	assert.True(t, resp.IsJSON())
	assert.Greater(t, resp.Duration, time.Duration(0))
}

func TestExecutePostBody(t *testing.T) {
	var received string
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		received = string(b)
		contentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	body := &parser.Body{Raw: `{"name": "Ada"}`, ContentType: "application/json"}
	client := NewClient()
	executed, err := client.Execute(context.Background(), unitFor("POST", server.URL, nil, body))
	require.NoError(t, err)

	assert.Equal(t, 201, executed.Response.StatusCode)
	assert.Equal(t, `{"name": "Ada"}`, received)
	assert.Equal(t, "application/json", contentType)
}

func TestExecuteBodyContentTypeDoesNotOverrideHeader(t *testing.T) {
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
	}))
	defer server.Close()

	headers := []*parser.Header{{Name: "content-type", Value: "application/vnd.api+json"}}
	body := &parser.Body{Raw: "{}", ContentType: "application/json"}
	client := NewClient()
	_, err := client.Execute(context.Background(), unitFor("POST", server.URL, headers, body))
	require.NoError(t, err)

	assert.Equal(t, "application/vnd.api+json", contentType)
}

func TestExecuteDefaultHeadersBeneathRequestHeaders(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer server.Close()

	client := NewClient(WithDefaultHeaders(map[string]string{
		"X-Api-Key": "default-key",
		"X-Team":    "qa",
	}))
	headers := []*parser.Header{{Name: "X-Api-Key", Value: "request-key"}}
	_, err := client.Execute(context.Background(), unitFor("GET", server.URL, headers, nil))
	require.NoError(t, err)

	assert.Equal(t, "request-key", got.Get("X-Api-Key"))
	assert.Equal(t, "qa", got.Get("X-Team"))
}

func TestExecuteTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(WithTimeout(50 * time.Millisecond))
	_, err := client.Execute(context.Background(), unitFor("GET", server.URL, nil, nil))
	assert.Error(t, err)
}

func TestExecuteContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	client := NewClient()
	_, err := client.Execute(ctx, unitFor("GET", server.URL, nil, nil))
	assert.Error(t, err)
}

func TestExecuteRedirectsNotFollowedWhenDisabled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old" {
			http.Redirect(w, r, "/new", http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(WithFollowRedirects(false))
	executed, err := client.Execute(context.Background(), unitFor("GET", server.URL+"/old", nil, nil))
	require.NoError(t, err)
	assert.Equal(t, 302, executed.Response.StatusCode)

	client = NewClient(WithFollowRedirects(true))
	executed, err = client.Execute(context.Background(), unitFor("GET", server.URL+"/old", nil, nil))
	require.NoError(t, err)
	assert.Equal(t, 200, executed.Response.StatusCode)
}

func TestExecuteConnectionError(t *testing.T) {
	client := NewClient(WithTimeout(time.Second))
	_, err := client.Execute(context.Background(), unitFor("GET", "http://127.0.0.1:1/nope", nil, nil))
	assert.Error(t, err)
}

func TestResponseHelpers(t *testing.T) {
	resp := &Response{
		StatusCode: 200,
		Status:     "200 OK",
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
		Body:       []byte(`{"ok": true}`),
		Duration:   1500 * time.Millisecond,
	}

	assert.Equal(t, "OK", resp.StatusText())
	assert.Equal(t, "application/json; charset=utf-8", resp.Header("content-type"))
	assert.True(t, resp.IsJSON())
	assert.True(t, resp.IsSuccess())
	assert.Equal(t, int64(1500), resp.DurationMs())

	v, err := resp.BodyJSON()
	require.NoError(t, err)
	b, _ := json.Marshal(v)
	assert.JSONEq(t, `{"ok": true}`, string(b))
}

func TestBuildRequestSentRecord(t *testing.T) {
	unit := unitFor("PUT", "http://example/x",
		[]*parser.Header{{Name: "Authorization", Value: "Bearer t"}},
		&parser.Body{Raw: "data", ContentType: ""})

	sent := buildRequest(unit, map[string]string{"User-Agent": "restcheck"})

	assert.Equal(t, "PUT", sent.Method)
	assert.Equal(t, "http://example/x", sent.URL)
	assert.Equal(t, "Bearer t", sent.Headers["Authorization"])
	assert.Equal(t, "restcheck", sent.Headers["User-Agent"])
	assert.Equal(t, "data", sent.Body)
	_, hasCT := sent.Headers["Content-Type"]
	assert.False(t, hasCT)
}
