package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"travelwatch/internal/config"
	"travelwatch/internal/database"
	"travelwatch/internal/http/handler"
	"travelwatch/internal/http/router"
	"travelwatch/internal/repository"
	"travelwatch/internal/security"
	"travelwatch/internal/service"
)

const (
	testAPIKey    = "integration-service-key"
	testJWTSecret = "0123456789abcdef0123456789abcdef"
)

func newGateTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := &config.Config{
		Env:               "test",
		JWTSecret:         testJWTSecret,
		JWTIssuer:         "travelwatch",
		JWTTTL:            time.Hour,
		APIKey:            testAPIKey,
		AuthGoogleEnabled: false,
		FrontendURL:       "http://localhost:3000",
		UpstreamTimeout:   time.Second,
	}

	userRepo := repository.NewUserRepository(db)
	recordRepo := repository.NewRecordRepository(db)
	jwtMgr := security.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	oauthSvc := service.NewOAuthService(service.NewGoogleOAuthProvider(cfg), userRepo)
	authSvc := service.NewAuthService(cfg, oauthSvc, userRepo, jwtMgr)
	recordSvc := service.NewRecordService(recordRepo)
	upstream := service.NewUpstreamClient(cfg)

	mux := router.NewRouter(router.Dependencies{
		AuthHandler:      handler.NewAuthHandler(authSvc, "state-signing-key-16", cfg.FrontendURL, false),
		RecordHandler:    handler.NewRecordHandler(recordSvc),
		ExternalHandler:  handler.NewExternalHandler(upstream),
		JWTManager:       jwtMgr,
		APIKey:           cfg.APIKey,
		CORSOrigins:      []string{"http://localhost:3000"},
		RequestTimeout:   10 * time.Second,
		AuthRateLimitRPM: 1000,
		APIRateLimitRPM:  1000,
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type apiResponse struct {
	status int
	body   map[string]any
}

func doJSON(t *testing.T, client *http.Client, method, url, body string, headers map[string]string) apiResponse {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	out := apiResponse{status: resp.StatusCode}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &out.body); err != nil {
			t.Fatalf("decode body %q: %v", raw, err)
		}
	}
	return out
}

func errorField(t *testing.T, res apiResponse, field string) string {
	t.Helper()
	errObj, ok := res.body["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error envelope, got %+v", res.body)
	}
	val, _ := errObj[field].(string)
	return val
}

func dataField(t *testing.T, res apiResponse, field string) any {
	t.Helper()
	data, ok := res.body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data envelope, got %+v", res.body)
	}
	return data[field]
}

const recordPayload = `{
	"country": "Norway",
	"timestamp": "2024-03-01T12:00:00Z",
	"covid": {"cases": 100, "deaths": 2},
	"travel": {"advisoryText": "Exercise caution"}
}`

func TestSignupLoginAndGatedRecordLifecycle(t *testing.T) {
	srv := newGateTestServer(t)
	client := srv.Client()

	res := doJSON(t, client, http.MethodPost, srv.URL+"/auth/signup",
		`{"name":"Ada","email":"ada@example.com","password":"long-enough-pass"}`, nil)
	if res.status != http.StatusOK {
		t.Fatalf("signup: expected 200, got %d (%+v)", res.status, res.body)
	}
	if _, ok := res.body["data"].(map[string]any)["token"]; ok {
		t.Fatal("signup must not return a token")
	}

	res = doJSON(t, client, http.MethodPost, srv.URL+"/auth/login",
		`{"email":"ada@example.com","password":"long-enough-pass"}`, nil)
	if res.status != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (%+v)", res.status, res.body)
	}
	token, _ := dataField(t, res, "token").(string)
	if token == "" {
		t.Fatal("login must return a token")
	}

	authed := map[string]string{
		"X-API-Key":     testAPIKey,
		"Authorization": "Bearer " + token,
	}

	// The token resolves back to the enrolled identity.
	res = doJSON(t, client, http.MethodGet, srv.URL+"/auth/me", "",
		map[string]string{"Authorization": "Bearer " + token})
	if res.status != http.StatusOK {
		t.Fatalf("me: expected 200, got %d (%+v)", res.status, res.body)
	}
	me, _ := dataField(t, res, "user").(map[string]any)
	if me["email"] != "ada@example.com" {
		t.Fatalf("unexpected identity: %+v", me)
	}

	res = doJSON(t, client, http.MethodGet, srv.URL+"/auth/me", "", nil)
	if res.status != http.StatusUnauthorized {
		t.Fatalf("me without token: expected 401, got %d", res.status)
	}

	res = doJSON(t, client, http.MethodPost, srv.URL+"/records", recordPayload, authed)
	if res.status != http.StatusOK {
		t.Fatalf("create record: expected 200, got %d (%+v)", res.status, res.body)
	}
	recordID, _ := dataField(t, res, "id").(string)
	if recordID == "" {
		t.Fatal("expected record id")
	}

	res = doJSON(t, client, http.MethodGet, srv.URL+"/records", "", authed)
	if res.status != http.StatusOK {
		t.Fatalf("list records: expected 200, got %d", res.status)
	}
	results, _ := dataField(t, res, "results").([]any)
	if len(results) != 1 {
		t.Fatalf("expected one record, got %d", len(results))
	}

	updated := strings.Replace(recordPayload, "Norway", "Sweden", 1)
	res = doJSON(t, client, http.MethodPut, srv.URL+"/records/"+recordID, updated, authed)
	if res.status != http.StatusOK {
		t.Fatalf("update record: expected 200, got %d (%+v)", res.status, res.body)
	}

	res = doJSON(t, client, http.MethodDelete, srv.URL+"/records/"+recordID, "", authed)
	if res.status != http.StatusOK {
		t.Fatalf("delete record: expected 200, got %d", res.status)
	}

	res = doJSON(t, client, http.MethodDelete, srv.URL+"/records/"+recordID, "", authed)
	if res.status != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", res.status)
	}
}

func TestGateOrderServiceKeyBeforeBearer(t *testing.T) {
	srv := newGateTestServer(t)
	client := srv.Client()

	// No service key at all: the first gate answers, even though the
	// bearer token is also absent.
	res := doJSON(t, client, http.MethodGet, srv.URL+"/records", "", nil)
	if res.status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.status)
	}
	if msg := errorField(t, res, "message"); msg != "missing API key" {
		t.Fatalf("expected the service-key gate to answer first, got %q", msg)
	}

	// Wrong service key with a syntactically fine bearer header: still
	// the service-key gate.
	res = doJSON(t, client, http.MethodGet, srv.URL+"/records", "", map[string]string{
		"X-API-Key":     "wrong-key",
		"Authorization": "Bearer whatever",
	})
	if res.status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.status)
	}
	if msg := errorField(t, res, "message"); msg != "invalid API key" {
		t.Fatalf("expected invalid API key, got %q", msg)
	}

	// Valid service key, no bearer: now the bearer gate answers.
	res = doJSON(t, client, http.MethodGet, srv.URL+"/records", "", map[string]string{
		"X-API-Key": testAPIKey,
	})
	if res.status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.status)
	}
	if msg := errorField(t, res, "message"); msg != "missing token" {
		t.Fatalf("expected the bearer gate to answer, got %q", msg)
	}

	// Valid service key, empty bearer value.
	res = doJSON(t, client, http.MethodGet, srv.URL+"/records", "", map[string]string{
		"X-API-Key":     testAPIKey,
		"Authorization": "Bearer ",
	})
	if res.status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for empty bearer, got %d", res.status)
	}
}

func TestShapeGateRunsAfterAuthGates(t *testing.T) {
	srv := newGateTestServer(t)
	client := srv.Client()

	doJSON(t, client, http.MethodPost, srv.URL+"/auth/signup",
		`{"name":"Ada","email":"shape@example.com","password":"long-enough-pass"}`, nil)
	res := doJSON(t, client, http.MethodPost, srv.URL+"/auth/login",
		`{"email":"shape@example.com","password":"long-enough-pass"}`, nil)
	token, _ := dataField(t, res, "token").(string)

	// Shape failures are reported only to fully authenticated callers.
	res = doJSON(t, client, http.MethodPost, srv.URL+"/records",
		`{"country":"Norway"}`, map[string]string{"X-API-Key": testAPIKey})
	if msg := errorField(t, res, "message"); msg != "missing token" {
		t.Fatalf("expected bearer gate before shape gate, got %q", msg)
	}

	res = doJSON(t, client, http.MethodPost, srv.URL+"/records",
		`{"country":"Norway"}`, map[string]string{
			"X-API-Key":     testAPIKey,
			"Authorization": "Bearer " + token,
		})
	if res.status != http.StatusBadRequest {
		t.Fatalf("expected 400 shape rejection, got %d", res.status)
	}
	errObj := res.body["error"].(map[string]any)
	details, _ := errObj["details"].(map[string]any)
	missing, _ := details["missing"].([]any)
	if len(missing) != 3 {
		t.Fatalf("expected timestamp, covid and travel reported together, got %v", missing)
	}
}

func TestAuthRoutesOutsideServiceKeyGate(t *testing.T) {
	srv := newGateTestServer(t)
	client := srv.Client()

	// Signup needs no X-API-Key header; that gate guards data routes only.
	res := doJSON(t, client, http.MethodPost, srv.URL+"/auth/signup",
		`{"name":"Ada","email":"open@example.com","password":"long-enough-pass"}`, nil)
	if res.status != http.StatusOK {
		t.Fatalf("expected 200, got %d (%+v)", res.status, res.body)
	}

	res = doJSON(t, client, http.MethodGet, srv.URL+"/health/live", "", nil)
	if res.status != http.StatusOK {
		t.Fatalf("liveness: expected 200, got %d", res.status)
	}
}

func TestLoginFailureMessages(t *testing.T) {
	srv := newGateTestServer(t)
	client := srv.Client()

	doJSON(t, client, http.MethodPost, srv.URL+"/auth/signup",
		`{"name":"Ada","email":"msg@example.com","password":"long-enough-pass"}`, nil)

	res := doJSON(t, client, http.MethodPost, srv.URL+"/auth/login",
		`{"email":"nobody@example.com","password":"long-enough-pass"}`, nil)
	if res.status != http.StatusBadRequest || errorField(t, res, "message") != "User not found" {
		t.Fatalf("unexpected unknown-user response: %d %+v", res.status, res.body)
	}

	res = doJSON(t, client, http.MethodPost, srv.URL+"/auth/login",
		`{"email":"msg@example.com","password":"wrong-password"}`, nil)
	if res.status != http.StatusBadRequest || errorField(t, res, "message") != "Invalid password" {
		t.Fatalf("unexpected wrong-password response: %d %+v", res.status, res.body)
	}

	res = doJSON(t, client, http.MethodPost, srv.URL+"/auth/signup",
		`{"name":"Twin","email":"msg@example.com","password":"long-enough-pass"}`, nil)
	if res.status != http.StatusBadRequest || errorField(t, res, "message") != "User already exists" {
		t.Fatalf("unexpected duplicate-signup response: %d %+v", res.status, res.body)
	}
}

func TestGoogleRoutesDisabled(t *testing.T) {
	srv := newGateTestServer(t)

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}

	res := doJSON(t, client, http.MethodGet, srv.URL+"/auth/google", "", nil)
	if res.status != http.StatusNotFound {
		t.Fatalf("expected 404 when google auth is off, got %d", res.status)
	}
}
