package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/willr196/vergo-db-sub002/internal/server/config"
	"github.com/willr196/vergo-db-sub002/internal/server/repository/sqlite"
	"github.com/willr196/vergo-db-sub002/internal/server/service"
	"github.com/willr196/vergo-db-sub002/internal/shared/models"
)

type testEnv struct {
	srv  *httptest.Server
	repo *sqlite.Repository
	svc  *service.Services
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo, err := sqlite.New("file:" + filepath.Join(t.TempDir(), "vergo.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	svc := service.NewServices(repo, config.Config{JWTSecret: "test-secret"})
	srv := httptest.NewServer(NewRouter(svc, zerolog.Nop()))
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, repo: repo, svc: svc}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, decoded
}

func (e *testEnv) registerJobSeeker(t *testing.T, email string) (token, refresh string) {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/api/v1/auth/jobseeker/register", "", map[string]string{
		"email": email, "password": "pw123", "full_name": "Ann",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status %d, body %v", resp.StatusCode, body)
	}
	token, _ = body["token"].(string)
	refresh, _ = body["refreshToken"].(string)
	if token == "" || refresh == "" {
		t.Fatalf("register returned no tokens: %v", body)
	}
	return token, refresh
}

func TestRegisterJobSeekerIssuesSession(t *testing.T) {
	e := newTestEnv(t)
	resp, body := e.do(t, http.MethodPost, "/api/v1/auth/jobseeker/register", "", map[string]string{
		"email": "a@b.c", "password": "pw123", "full_name": "Ann",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status %d, want 201", resp.StatusCode)
	}
	if ok, _ := body["ok"].(bool); !ok {
		t.Fatalf("ok flag not set: %v", body)
	}
	user, _ := body["user"].(map[string]any)
	if user == nil || user["email"] != "a@b.c" || user["type"] != "jobseeker" {
		t.Fatalf("unexpected user payload: %v", body["user"])
	}
}

func TestRegisterClientIsPending(t *testing.T) {
	e := newTestEnv(t)
	resp, body := e.do(t, http.MethodPost, "/api/v1/auth/client/register", "", map[string]string{
		"email": "c@d.e", "password": "pw123", "company": "ACME Staffing",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status %d, want 201", resp.StatusCode)
	}
	if pending, _ := body["pending_verification"].(bool); !pending {
		t.Fatalf("pending_verification not set: %v", body)
	}
	if _, hasToken := body["token"]; hasToken {
		t.Fatalf("pending registration must not issue tokens: %v", body)
	}

	resp, body = e.do(t, http.MethodPost, "/api/v1/auth/client/login", "", map[string]string{
		"email": "c@d.e", "password": "pw123",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unverified login status %d, want 401", resp.StatusCode)
	}
	if body["code"] != "pending_verification" {
		t.Fatalf("unexpected error code: %v", body)
	}
}

func TestLoginFailureEnvelope(t *testing.T) {
	e := newTestEnv(t)
	resp, body := e.do(t, http.MethodPost, "/api/v1/auth/jobseeker/login", "", map[string]string{
		"email": "nobody@b.c", "password": "pw123",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", resp.StatusCode)
	}
	if ok, _ := body["ok"].(bool); ok {
		t.Fatalf("failure envelope must carry ok=false: %v", body)
	}
	if body["error"] == "" || body["code"] != "invalid_credentials" {
		t.Fatalf("unexpected envelope: %v", body)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	e := newTestEnv(t)
	resp, body := e.do(t, http.MethodGet, "/api/v1/jobs", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", resp.StatusCode)
	}
	if ok, _ := body["ok"].(bool); ok {
		t.Fatalf("failure envelope must carry ok=false: %v", body)
	}

	resp, _ = e.do(t, http.MethodGet, "/api/v1/jobs", "not-a-jwt", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("garbage token status %d, want 401", resp.StatusCode)
	}
}

func TestRefreshRotatesPair(t *testing.T) {
	e := newTestEnv(t)
	_, refresh := e.registerJobSeeker(t, "a@b.c")

	resp, body := e.do(t, http.MethodPost, "/api/v1/auth/jobseeker/refresh", "", map[string]string{
		"refreshToken": refresh,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("refresh status %d, body %v", resp.StatusCode, body)
	}
	newToken, _ := body["token"].(string)
	newRefresh, _ := body["refreshToken"].(string)
	if newToken == "" || newRefresh == "" || newRefresh == refresh {
		t.Fatalf("refresh must rotate the pair: %v", body)
	}

	resp, _ = e.do(t, http.MethodPost, "/api/v1/auth/jobseeker/refresh", "", map[string]string{
		"refreshToken": refresh,
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("consumed refresh token status %d, want 401", resp.StatusCode)
	}
}

func TestLogoutAlwaysOK(t *testing.T) {
	e := newTestEnv(t)
	_, refresh := e.registerJobSeeker(t, "a@b.c")

	resp, body := e.do(t, http.MethodPost, "/api/v1/auth/logout", "", map[string]string{"refreshToken": refresh})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout status %d", resp.StatusCode)
	}
	if ok, _ := body["ok"].(bool); !ok {
		t.Fatalf("logout envelope: %v", body)
	}
	// Logging out twice is fine.
	resp, _ = e.do(t, http.MethodPost, "/api/v1/auth/logout", "", map[string]string{"refreshToken": refresh})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("second logout status %d", resp.StatusCode)
	}
}

func TestJobsApplyWithdrawFlow(t *testing.T) {
	e := newTestEnv(t)
	job, err := e.repo.CreateJob(context.Background(), models.Job{Title: "Line Cook", Company: "Diner", Location: "York"})
	if err != nil {
		t.Fatalf("seed job: %v", err)
	}
	token, _ := e.registerJobSeeker(t, "a@b.c")

	resp, body := e.do(t, http.MethodGet, "/api/v1/jobs", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list jobs status %d", resp.StatusCode)
	}
	jobs, _ := body["jobs"].([]any)
	if len(jobs) != 1 {
		t.Fatalf("got %d jobs, want 1: %v", len(jobs), body)
	}

	resp, body = e.do(t, http.MethodPost, "/api/v1/jobs/"+job.ID+"/apply", token, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("apply status %d, body %v", resp.StatusCode, body)
	}
	app, _ := body["application"].(map[string]any)
	appID, _ := app["id"].(string)
	if appID == "" || app["status"] != "pending" {
		t.Fatalf("unexpected application payload: %v", body)
	}

	resp, body = e.do(t, http.MethodPost, "/api/v1/jobs/"+job.ID+"/apply", token, nil)
	if resp.StatusCode != http.StatusConflict || body["code"] != "already_applied" {
		t.Fatalf("duplicate apply: status %d, body %v", resp.StatusCode, body)
	}

	resp, body = e.do(t, http.MethodPost, "/api/v1/jobs/no-such-job/apply", token, nil)
	if resp.StatusCode != http.StatusNotFound || body["code"] != "not_found" {
		t.Fatalf("unknown job apply: status %d, body %v", resp.StatusCode, body)
	}

	resp, _ = e.do(t, http.MethodDelete, "/api/v1/applications/"+appID, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("withdraw status %d", resp.StatusCode)
	}
	resp, body = e.do(t, http.MethodDelete, "/api/v1/applications/"+appID, token, nil)
	if resp.StatusCode != http.StatusConflict || body["code"] != "already_withdrawn" {
		t.Fatalf("double withdraw: status %d, body %v", resp.StatusCode, body)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	e := newTestEnv(t)
	token, _ := e.registerJobSeeker(t, "a@b.c")

	resp, body := e.do(t, http.MethodGet, "/api/v1/profile", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get profile status %d", resp.StatusCode)
	}
	user, _ := body["user"].(map[string]any)
	if user["email"] != "a@b.c" {
		t.Fatalf("unexpected profile: %v", body)
	}

	resp, body = e.do(t, http.MethodPut, "/api/v1/profile", token, map[string]string{
		"full_name": "Ann Smith", "phone": "777",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update profile status %d, body %v", resp.StatusCode, body)
	}
	user, _ = body["user"].(map[string]any)
	if user["full_name"] != "Ann Smith" || user["phone"] != "777" {
		t.Fatalf("profile not updated: %v", body)
	}
}
