package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	pkgerrors "github.com/angelmondragon/filmex-backend/pkg/errors"
)

type post struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	UserID int    `json:"userId"`
}

func TestClientSendsJSON(t *testing.T) {
	var capturedMethod, capturedURL, capturedContentType string
	var captured post

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedMethod = req.Method
		capturedURL = req.URL.String()
		capturedContentType = req.Header.Get("Content-Type")
		if err := json.NewDecoder(req.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		return &http.Response{
			StatusCode: http.StatusCreated,
			Body:       io.NopCloser(strings.NewReader(`{"id":101,"title":"Nuevo post","userId":1}`)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient("http://upstream.test/", WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	var created post
	if err := client.Post(context.Background(), "/posts", post{Title: "Nuevo post", UserID: 1}, &created); err != nil {
		t.Fatalf("post: %v", err)
	}
	if capturedMethod != http.MethodPost || capturedURL != "http://upstream.test/posts" {
		t.Fatalf("unexpected request %s %s", capturedMethod, capturedURL)
	}
	if capturedContentType != "application/json" {
		t.Fatalf("unexpected content type %q", capturedContentType)
	}
	if captured.Title != "Nuevo post" {
		t.Fatalf("unexpected payload %+v", captured)
	}
	if created.ID != 101 {
		t.Fatalf("unexpected response %+v", created)
	}
}

func TestClientNoContentIsSuccess(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusNoContent, Body: io.NopCloser(strings.NewReader("")), Header: http.Header{}}, nil
	})
	client, err := NewClient("http://upstream.test", WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	var result map[string]any
	if err := client.Delete(context.Background(), "posts/1", &result); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if result["success"] != true {
		t.Fatalf("expected success result, got %+v", result)
	}
}

func TestClientErrorMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/with-message" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"title is required"}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	err = client.Put(context.Background(), "/with-message", post{ID: 1}, nil)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected status error, got %v", err)
	}
	if statusErr.Status != http.StatusBadRequest || statusErr.Message != "title is required" {
		t.Fatalf("unexpected status error %+v", statusErr)
	}
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency code, got %v", err)
	}

	err = client.Get(context.Background(), "/bare", nil)
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected status error, got %v", err)
	}
	if statusErr.Message != "HTTP error! Status: 500" {
		t.Fatalf("unexpected message %q", statusErr.Message)
	}
}

func TestClientCachesCacheableResponses(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Cache-Control", "max-age=60")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":1,"title":"cached"}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	for i := 0; i < 2; i++ {
		var got post
		if err := client.Get(context.Background(), "/posts/1", &got); err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Title != "cached" {
			t.Fatalf("unexpected body %+v", got)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("expected one upstream hit, got %d", hits.Load())
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient("  "); err == nil {
		t.Fatal("expected base url error")
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
