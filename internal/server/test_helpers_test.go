package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/clipstore/internal/auth"
	"github.com/MarcoPoloResearchLab/clipstore/internal/catalog"
	"github.com/MarcoPoloResearchLab/clipstore/internal/metrics"
	"github.com/MarcoPoloResearchLab/clipstore/internal/search"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSigningSecret = "clipstore-test-secret"
	testIssuer        = "clipstore-auth"
	testAudience      = "clipstore-api"
	testCookieName    = "clipstore_session"
)

type testServer struct {
	handler  http.Handler
	store    *catalog.Store
	tokens   *auth.TokenIssuer
	realtime *RealtimeDispatcher
	metrics  *metrics.Metrics
	logs     *observer.ObservedLogs
}

type testServerOption func(*Dependencies)

func withSearchRate(perSecond float64, burst int) testServerOption {
	return func(deps *Dependencies) {
		deps.SearchRatePerSecond = perSecond
		deps.SearchBurst = burst
	}
}

// withHandlerClock replaces the clock of the http handler only; the store keeps the fixed one.
func withHandlerClock(clock func() time.Time) testServerOption {
	return func(deps *Dependencies) {
		deps.Clock = clock
	}
}

func withHeartbeat(interval time.Duration) testServerOption {
	return func(deps *Dependencies) {
		deps.HeartbeatInterval = interval
	}
}

func newTestServer(t *testing.T, options ...testServerOption) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fixedClock := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return fixedClock }

	store := catalog.NewStore(catalog.Config{Clock: clock, Categories: []string{"Music", "Cooking"}})
	engine, err := search.NewEngine(search.Config{Catalog: store})
	if err != nil {
		t.Fatalf("failed to build search engine: %v", err)
	}
	issuer, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(testSigningSecret),
		Issuer:        testIssuer,
		Audience:      testAudience,
		TokenTTL:      time.Hour,
	})
	if err != nil {
		t.Fatalf("failed to build token issuer: %v", err)
	}
	validator, err := auth.NewSessionValidator(auth.SessionValidatorConfig{
		SigningSecret: []byte(testSigningSecret),
		Issuer:        testIssuer,
		Audience:      testAudience,
		CookieName:    testCookieName,
	})
	if err != nil {
		t.Fatalf("failed to build session validator: %v", err)
	}

	core, logs := observer.New(zapcore.DebugLevel)
	dispatcher := NewRealtimeDispatcher()
	collectors := metrics.New()

	deps := Dependencies{
		Catalog:   store,
		Search:    engine,
		Tokens:    issuer,
		Sessions:  validator,
		Passwords: auth.NewPasswordHasher(bcrypt.MinCost),
		Realtime:  dispatcher,
		Metrics:   collectors,
		Logger:    zap.New(core),
		Clock:     clock,
	}
	for _, option := range options {
		option(&deps)
	}

	handler, err := NewHTTPHandler(deps)
	if err != nil {
		t.Fatalf("failed to build http handler: %v", err)
	}
	return &testServer{
		handler:  handler,
		store:    store,
		tokens:   issuer,
		realtime: dispatcher,
		metrics:  collectors,
		logs:     logs,
	}
}

// do sends body as JSON and authenticates with token when it is not empty.
func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	request := httptest.NewRequest(method, path, reader)
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	s.handler.ServeHTTP(recorder, request)
	return recorder
}

func (s *testServer) mustRegister(t *testing.T, username string) (string, catalog.User) {
	t.Helper()
	recorder := s.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": username,
		"password": "correct-horse",
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d: %s", username, recorder.Code, recorder.Body.String())
	}
	var payload authResponsePayload
	decodeBody(t, recorder, &payload)
	if payload.AccessToken == "" {
		t.Fatalf("register %s: expected access token", username)
	}
	return payload.AccessToken, payload.User
}

func (s *testServer) mustAdminToken(t *testing.T, username string) string {
	t.Helper()
	admin, err := s.store.CreateUser(catalog.NewUser{Username: username, Role: catalog.RoleAdmin})
	if err != nil {
		t.Fatalf("failed to create admin: %v", err)
	}
	token, _, err := s.tokens.IssueToken(auth.Identity{UserID: admin.ID, Username: admin.Username, Role: admin.Role})
	if err != nil {
		t.Fatalf("failed to issue admin token: %v", err)
	}
	return token
}

func (s *testServer) mustCreateVideo(t *testing.T, token, title, description string) catalog.Video {
	t.Helper()
	recorder := s.do(t, http.MethodPost, "/videos", token, map[string]interface{}{
		"title":       title,
		"description": description,
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("create video %q: expected 201, got %d: %s", title, recorder.Code, recorder.Body.String())
	}
	var video catalog.Video
	decodeBody(t, recorder, &video)
	return video
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to decode response %q: %v", recorder.Body.String(), err)
	}
}

func expectStatus(t *testing.T, recorder *httptest.ResponseRecorder, status int) {
	t.Helper()
	if recorder.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, recorder.Code, recorder.Body.String())
	}
}

type errorResponse struct {
	Error  string       `json:"error"`
	Code   string       `json:"code"`
	Fields []fieldError `json:"fields"`
}

func expectError(t *testing.T, recorder *httptest.ResponseRecorder, status int, reason string) errorResponse {
	t.Helper()
	expectStatus(t, recorder, status)
	var payload errorResponse
	decodeBody(t, recorder, &payload)
	if payload.Error != reason {
		t.Fatalf("expected error %q, got %q", reason, payload.Error)
	}
	return payload
}
