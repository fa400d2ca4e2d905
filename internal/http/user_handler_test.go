package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"arcade-auth/internal/domain"
)

func TestSaveUserEndpoint_CreatedAndConflict(t *testing.T) {
	repo := newMockUserRepo()
	router := setupRouter(repo, &mockGithubClient{})

	body := gin.H{
		"identity_hash": "hash-1",
		"profile":       gin.H{"email": "a@x.com", "primary": true, "verified": true},
		"progress":      gin.H{"level": 1},
	}

	rec := doJSON(t, router, http.MethodPost, "/users", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	if len(repo.byEmail) != 1 {
		t.Fatalf("expected 1 record stored, got %d", len(repo.byEmail))
	}

	rec = doJSON(t, router, http.MethodPost, "/users", body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate, got %d", rec.Code)
	}
	if len(repo.byEmail) != 1 {
		t.Fatalf("expected store size 1 after conflict, got %d", len(repo.byEmail))
	}
}

func TestSaveUserEndpoint_InvalidEmail(t *testing.T) {
	router := setupRouter(newMockUserRepo(), &mockGithubClient{})

	rec := doJSON(t, router, http.MethodPost, "/users", gin.H{
		"identity_hash": "hash-1",
		"profile":       gin.H{"email": "   "},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUpdateUserEndpoint_ReplacesRecord(t *testing.T) {
	repo := newMockUserRepo()
	seeded := domain.UserRecord{
		ID:           "u1",
		IdentityHash: "hash-old",
		Profile:      domain.UserProfile{Email: "a@x.com"},
		Progress:     []byte(`{"level":1}`),
		CreatedAt:    time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), seeded); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	router := setupRouter(repo, &mockGithubClient{})

	rec := doJSON(t, router, http.MethodPut, "/users", gin.H{
		"identity_hash": "hash-new",
		"profile":       gin.H{"email": "a@x.com"},
		"progress":      gin.H{"level": 2},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	stored := repo.byEmail["a@x.com"]
	if stored.IdentityHash != "hash-new" {
		t.Fatalf("expected replaced hash, got %s", stored.IdentityHash)
	}
	if len(repo.byEmail) != 1 {
		t.Fatalf("expected single record, got %d", len(repo.byEmail))
	}
}

func TestDeleteUserEndpoint(t *testing.T) {
	repo := newMockUserRepo()
	if err := repo.Create(context.Background(), domain.UserRecord{
		ID:           "u1",
		IdentityHash: "hash-1",
		Profile:      domain.UserProfile{Email: "a@x.com"},
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	router := setupRouter(repo, &mockGithubClient{})

	rec := doJSON(t, router, http.MethodDelete, "/users/a@x.com", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Removed int64 `json:"removed"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Removed != 1 {
		t.Fatalf("expected removed 1, got %d", resp.Removed)
	}

	rec = doJSON(t, router, http.MethodDelete, "/users/a@x.com", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on missing user, got %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Removed != 0 {
		t.Fatalf("expected removed 0, got %d", resp.Removed)
	}
}

func TestListUsersEndpoint(t *testing.T) {
	repo := newMockUserRepo()
	router := setupRouter(repo, &mockGithubClient{})

	rec := doJSON(t, router, http.MethodGet, "/users", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Users []domain.UserRecord `json:"users"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Users) != 0 {
		t.Fatalf("expected empty list, got %d", len(resp.Users))
	}

	if err := repo.Create(context.Background(), domain.UserRecord{
		ID:           "u1",
		IdentityHash: "hash-1",
		Profile:      domain.UserProfile{Email: "a@x.com"},
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	rec = doJSON(t, router, http.MethodGet, "/users", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Users) != 1 || resp.Users[0].Profile.Email != "a@x.com" {
		t.Fatalf("expected stored user listed, got %+v", resp.Users)
	}
}
