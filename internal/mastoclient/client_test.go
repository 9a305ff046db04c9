package mastoclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

// helper to create a client pointed at a test server
func newTestClient(ts *httptest.Server) *HTTPClient {
	c := NewHTTPClient(ts.URL, "test-token")
	c.httpClient = ts.Client()
	return c
}

func TestVerifyCredentials(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/accounts/verify_credentials" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("auth header = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"42","username":"alice","acct":"alice"}`))
	}))
	defer ts.Close()

	c := newTestClient(ts)
	acct, err := c.VerifyCredentials(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acct.ID != "42" || acct.Username != "alice" {
		t.Fatalf("account = %+v", acct)
	}
}

func TestVerifyCredentialsRejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	c := newTestClient(ts)
	_, err := c.VerifyCredentials(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsAuth(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestAccountStatusesPaging(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "40" {
			t.Errorf("limit = %q", got)
		}
		if got := r.URL.Query().Get("max_id"); got != "100" {
			t.Errorf("max_id = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"99","created_at":"2020-01-02T03:04:05Z","content":"<p>hi</p>","in_reply_to_id":null,"reblog":null}]`))
	}))
	defer ts.Close()

	c := newTestClient(ts)
	page, err := c.AccountStatuses(context.Background(), "42", "100", 40)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page) != 1 || page[0].ID != "99" {
		t.Fatalf("page = %+v", page)
	}
	if page[0].IsReply() || page[0].IsReblog() {
		t.Fatal("null reply/reblog fields should decode as absent")
	}
}

func TestAccountStatusesOmitsEmptyMaxID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.URL.Query()["max_id"]; ok {
			t.Error("max_id should be omitted on the first page")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	c := newTestClient(ts)
	page, err := c.AccountStatuses(context.Background(), "42", "", 40)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page) != 0 {
		t.Fatalf("expected empty page, got %+v", page)
	}
}

func TestAccountStatusesMalformed(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":"not a list"}`))
	}))
	defer ts.Close()

	c := newTestClient(ts)
	if _, err := c.AccountStatuses(context.Background(), "42", "", 40); err == nil {
		t.Fatal("expected decode error for non-list page")
	}
}

func TestDeleteStatusRateLimited(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s", r.Method)
		}
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	c := newTestClient(ts)
	err := c.DeleteStatus(context.Background(), "99")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsRateLimit(err) {
		t.Fatalf("expected rate limit error, got %v", err)
	}
	if IsAuth(err) {
		t.Fatal("429 must not read as an auth failure")
	}
}

func TestDeleteStatusOK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/statuses/99" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	c := newTestClient(ts)
	if err := c.DeleteStatus(context.Background(), "99"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
