package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rushteam/mediarec/core"
)

func newTestTransport(t *testing.T, handler http.HandlerFunc) *HTTPTransport {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPTransport(srv.URL, "token-123")
}

func TestTransportSuccess(t *testing.T) {
	tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token-123" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}
		w.Write([]byte(`{"data":{"ok":true}}`))
	})

	data, err := tr.Do(context.Background(), "query { ok }", nil)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if string(data) != `{"ok":true}` {
		t.Errorf("data = %s", data)
	}
}

func TestTransportThrottled(t *testing.T) {
	tests := []struct {
		name       string
		retryAfter string
		want       time.Duration
	}{
		{"with retry-after", "30", 30 * time.Second},
		{"without retry-after", "", 0},
		{"malformed retry-after", "soon", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
				if tt.retryAfter != "" {
					w.Header().Set("Retry-After", tt.retryAfter)
				}
				w.WriteHeader(http.StatusTooManyRequests)
			})

			_, err := tr.Do(context.Background(), "query { ok }", nil)
			var throttled *ThrottledError
			if !errors.As(err, &throttled) {
				t.Fatalf("err = %v, want *ThrottledError", err)
			}
			if throttled.RetryAfter != tt.want {
				t.Errorf("RetryAfter = %v, want %v", throttled.RetryAfter, tt.want)
			}
		})
	}
}

func TestTransportAuthErrors(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})

		_, err := tr.Do(context.Background(), "query { ok }", nil)
		if !core.IsUnauthenticated(err) {
			t.Errorf("status %d: err = %v, want unauthenticated", status, err)
		}
	}
}

func TestTransportHTTPError(t *testing.T) {
	tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	})

	_, err := tr.Do(context.Background(), "query { ok }", nil)
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("err = %v, want *HTTPError", err)
	}
	if httpErr.Status != http.StatusBadGateway {
		t.Errorf("Status = %d, want 502", httpErr.Status)
	}
}

func TestTransportGraphQLErrors(t *testing.T) {
	tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":null,"errors":[{"message":"User not found"},{"message":"second"}]}`))
	})

	_, err := tr.Do(context.Background(), "query { ok }", nil)
	if !core.IsGraphQLError(err) {
		t.Fatalf("err = %v, want graphql error", err)
	}
	// 只暴露第一条 message
	var domainErr *core.DomainError
	if errors.As(err, &domainErr) && domainErr.Message != "User not found" {
		t.Errorf("Message = %q, want first graphql error", domainErr.Message)
	}
}
