package github

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestClient(tokenURL, emailsURL string) *HTTPClient {
	return NewHTTPClient(tokenURL, emailsURL, "client-id", "client-secret", 2*time.Second, zap.NewNop())
}

func TestExchangeCode_Success(t *testing.T) {
	var gotMethod, gotAccept string
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAccept = r.Header.Get("Accept")
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"access_token":"gho_abc","token_type":"bearer","scope":""}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, srv.URL)
	token, err := client.ExchangeCode(context.Background(), "code-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if token != "gho_abc" {
		t.Fatalf("expected token gho_abc, got %s", token)
	}
	if gotMethod != http.MethodPost {
		t.Fatalf("expected POST, got %s", gotMethod)
	}
	if gotAccept != "application/json" {
		t.Fatalf("expected Accept application/json, got %s", gotAccept)
	}
	if len(gotQuery["client_id"]) == 0 || gotQuery["client_id"][0] != "client-id" {
		t.Fatalf("expected client_id in query, got %v", gotQuery)
	}
	if len(gotQuery["code"]) == 0 || gotQuery["code"][0] != "code-1" {
		t.Fatalf("expected code in query, got %v", gotQuery)
	}
}

func TestExchangeCode_MissingToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, srv.URL)
	_, err := client.ExchangeCode(context.Background(), "code-1")
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestExchangeCode_NonStringToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"access_token":12345}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, srv.URL)
	_, err := client.ExchangeCode(context.Background(), "code-1")
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestExchangeCode_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, srv.URL)
	_, err := client.ExchangeCode(context.Background(), "code-1")
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestExchangeCode_MissingCredentials(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		w.Write([]byte(`{"access_token":"gho_abc"}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, srv.URL, "", "", 2*time.Second, zap.NewNop())
	_, err := client.ExchangeCode(context.Background(), "code-1")
	if !errors.Is(err, ErrConfigMissing) {
		t.Fatalf("expected ErrConfigMissing, got %v", err)
	}
	if requests != 0 {
		t.Fatalf("expected no outbound request, got %d", requests)
	}
}

func TestFetchEmails_Success(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[{"email":"a@x.com","primary":true,"verified":true},{"email":"b@x.com","primary":false,"verified":false}]`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, srv.URL)
	emails, err := client.FetchEmails(context.Background(), "gho_abc")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gotAuth != "token gho_abc" {
		t.Fatalf("expected token auth header, got %s", gotAuth)
	}
	if len(emails) != 2 {
		t.Fatalf("expected 2 emails, got %d", len(emails))
	}
	if emails[0].Email != "a@x.com" || !emails[0].Primary || !emails[0].Verified {
		t.Fatalf("unexpected first email: %+v", emails[0])
	}
}

func TestFetchEmails_EmptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, srv.URL)
	_, err := client.FetchEmails(context.Background(), "gho_abc")
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestFetchEmails_Malformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"message":"bad credentials"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, srv.URL)
	_, err := client.FetchEmails(context.Background(), "gho_abc")
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestFetchEmails_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, srv.URL, "client-id", "client-secret", 50*time.Millisecond, zap.NewNop())
	_, err := client.FetchEmails(context.Background(), "gho_abc")
	if !errors.Is(err, ErrUpstreamTimeout) {
		t.Fatalf("expected ErrUpstreamTimeout, got %v", err)
	}
}
