package caption

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFallback(t *testing.T) {
	got := Fallback("Summer Dress")
	if got != "Check out Summer Dress! #Trending #Fashion" {
		t.Errorf("unexpected fallback %q", got)
	}

	if Fallback("") == "" {
		t.Error("expected non-empty fallback for empty title")
	}
}

func TestDisabled_Caption(t *testing.T) {
	_, err := Disabled{}.Caption(context.Background(), "t", "d")
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestNewHTTPClient_RequiresBaseURL(t *testing.T) {
	_, err := NewHTTPClient("")
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestHTTPClient_Caption(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/caption" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		fmt.Fprint(w, `{"caption":"  Obsessed with this look! #OOTD  "}`)
	}))
	defer srv.Close()

	client, err := NewHTTPClient(srv.URL, WithAPIKey("test-key"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := client.Caption(context.Background(), "Summer Dress", "Lightweight cotton")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Obsessed with this look! #OOTD" {
		t.Errorf("expected trimmed caption, got %q", got)
	}
}

func TestHTTPClient_Caption_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":"quota exceeded"}`)
	}))
	defer srv.Close()

	client, _ := NewHTTPClient(srv.URL)
	_, err := client.Caption(context.Background(), "t", "d")
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("expected service error, got %v", err)
	}
}

func TestHTTPClient_Caption_EmptyCaption(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"caption":"   "}`)
	}))
	defer srv.Close()

	client, _ := NewHTTPClient(srv.URL)
	_, err := client.Caption(context.Background(), "t", "d")
	if err == nil {
		t.Error("expected error for blank caption")
	}
}

func TestHTTPClient_Caption_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	client, _ := NewHTTPClient(srv.URL)
	_, err := client.Caption(context.Background(), "t", "d")
	if err == nil || !strings.Contains(err.Error(), "status 502") {
		t.Errorf("expected status error, got %v", err)
	}
}
