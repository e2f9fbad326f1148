package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPClient_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("missing bearer key")
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Save more.  "}}]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "key", "gemini-1.5-flash", nil)
	got, err := c.Generate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != "Save more." {
		t.Fatalf("unexpected response %q", got)
	}
}

func TestHTTPClient_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "key", "m", nil)
	if _, err := c.Generate(context.Background(), "hello"); !errors.Is(err, ErrBadResponse) {
		t.Fatalf("expected ErrBadResponse, got %v", err)
	}
}

func TestHTTPClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota"}}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "key", "m", nil)
	if _, err := c.Generate(context.Background(), "hello"); err == nil {
		t.Fatalf("expected error on 429")
	}
}

func TestHTTPClient_NoKey(t *testing.T) {
	c := NewHTTPClient("http://unused", "", "m", nil)
	if _, err := c.Generate(context.Background(), "hello"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if _, err := NewDisabledClient().Generate(context.Background(), "x"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured from disabled client, got %v", err)
	}
}
