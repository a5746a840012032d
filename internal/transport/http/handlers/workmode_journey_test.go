package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"worktime/internal/app/server"
	"worktime/internal/platform/config"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error any             `json:"error"`
}

func testConfig(dbURL string) config.Config {
	return config.Config{
		DatabaseURL:        dbURL,
		JWTSecret:          "test-secret",
		Environment:        "test",
		DefaultLocale:      "en",
		SeedCompanyName:    "Test Company",
		SeedAdminEmail:     "admin@test.local",
		SeedAdminPassword:  "ChangeMe123!",
		EmailFrom:          "no-reply@test.local",
		RunMigrations:      true,
		RunSeed:            true,
		MaxBodyBytes:       1048576,
		RateLimitPerSecond: 1000,
		RateLimitBurst:     1000,
		PermissionCacheTTL: time.Minute,
		IdempotencyTTL:     time.Minute,
		StreamHeartbeat:    time.Second,
		LeaveStore:         "memory",
	}
}

func TestGlobalWorkModeJourney(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := testConfig(dbURL)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	resetWorkMode(t, app)

	ts := httptest.NewServer(app.Router)
	defer ts.Close()

	client := ts.Client()
	token := login(t, client, ts.URL, cfg.SeedAdminEmail, cfg.SeedAdminPassword)

	cfgBody := getJSON(t, client, ts.URL+"/api/v1/work-config", token, http.StatusOK)
	initial := decodeConfig(t, cfgBody)
	if initial["currentMode"] != "idle" {
		t.Fatalf("expected seeded mode idle, got %v", initial["currentMode"])
	}

	// Break from idle is not a legal transition.
	postJSON(t, client, ts.URL+"/api/v1/work-mode/break", token, map[string]any{"reason": "coffee"}, http.StatusConflict)

	started := decodeConfig(t, postJSON(t, client, ts.URL+"/api/v1/work-mode/start", token, map[string]any{}, http.StatusOK))
	if started["currentMode"] != "working" {
		t.Fatalf("expected working, got %v", started["currentMode"])
	}

	// A break without a reason never reaches the store.
	postJSON(t, client, ts.URL+"/api/v1/work-mode/break", token, map[string]any{"reason": "  "}, http.StatusUnprocessableEntity)

	onBreak := decodeConfig(t, postJSON(t, client, ts.URL+"/api/v1/work-mode/break", token, map[string]any{"reason": "lunch"}, http.StatusOK))
	if onBreak["currentMode"] != "break" || onBreak["activeBreakReason"] != "lunch" {
		t.Fatalf("unexpected break state: %v", onBreak)
	}
	if version(t, onBreak) <= version(t, started) {
		t.Fatal("expected version to increase on every write")
	}

	resumed := decodeConfig(t, postJSON(t, client, ts.URL+"/api/v1/work-mode/resume", token, map[string]any{}, http.StatusOK))
	if resumed["currentMode"] != "working" {
		t.Fatalf("expected working after resume, got %v", resumed["currentMode"])
	}
	if reason, ok := resumed["activeBreakReason"]; ok && reason != "" {
		t.Fatalf("break reason survived the resume: %v", reason)
	}

	ended := decodeConfig(t, postJSON(t, client, ts.URL+"/api/v1/work-mode/end", token, map[string]any{}, http.StatusOK))
	if ended["currentMode"] != "ended" {
		t.Fatalf("expected ended, got %v", ended["currentMode"])
	}

	// Ended is terminal within the day.
	postJSON(t, client, ts.URL+"/api/v1/work-mode/start", token, map[string]any{}, http.StatusConflict)
}

func TestScheduleUpdateValidation(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := testConfig(dbURL)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()

	client := ts.Client()
	token := login(t, client, ts.URL, cfg.SeedAdminEmail, cfg.SeedAdminPassword)

	putJSON(t, client, ts.URL+"/api/v1/work-config", token, map[string]any{"workStartTime": "25:00"}, http.StatusUnprocessableEntity)

	updated := decodeConfig(t, putJSON(t, client, ts.URL+"/api/v1/work-config", token, map[string]any{"workStartTime": "08:30"}, http.StatusOK))
	if updated["workStartTime"] != "08:30" {
		t.Fatalf("expected schedule update, got %v", updated["workStartTime"])
	}
}

func TestLeaveRequestJourney(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := testConfig(dbURL)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()

	client := ts.Client()
	token := login(t, client, ts.URL, cfg.SeedAdminEmail, cfg.SeedAdminPassword)

	postJSON(t, client, ts.URL+"/api/v1/leave/requests", token, map[string]any{"reason": ""}, http.StatusUnprocessableEntity)

	created := decodeConfig(t, postJSONStatus(t, client, ts.URL+"/api/v1/leave/requests", token, map[string]any{
		"reason":          "family emergency",
		"workHoursLogged": 5.5,
	}, http.StatusCreated))
	requestID, _ := created["id"].(string)
	if requestID == "" {
		t.Fatal("expected leave request id")
	}
	if created["status"] != "pending" {
		t.Fatalf("expected pending, got %v", created["status"])
	}

	decided := decodeConfig(t, postJSON(t, client, ts.URL+"/api/v1/leave/requests/"+requestID+"/approve", token, map[string]any{}, http.StatusOK))
	if decided["status"] != "approved" {
		t.Fatalf("expected approved, got %v", decided["status"])
	}

	postJSON(t, client, ts.URL+"/api/v1/leave/requests/"+requestID+"/reject", token, map[string]any{}, http.StatusConflict)
}

// resetWorkMode puts the seeded company back to idle so the journey can be
// rerun against the same test database.
func resetWorkMode(t *testing.T, app *server.App) {
	t.Helper()
	_, err := app.DB.Exec(context.Background(), `
    UPDATE company_work_configs
    SET current_mode = 'idle', active_break_reason = NULL, version = version + 1
  `)
	if err != nil {
		t.Fatalf("reset work mode: %v", err)
	}
}

func login(t *testing.T, client *http.Client, baseURL, email, password string) string {
	t.Helper()
	body := postJSONStatus(t, client, baseURL+"/api/v1/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	}, http.StatusOK)

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode login payload: %v", err)
	}
	if payload.Token == "" {
		t.Fatal("expected login token")
	}
	return payload.Token
}

func getJSON(t *testing.T, client *http.Client, url, token string, wantStatus int) json.RawMessage {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	return do(t, client, req, token, wantStatus)
}

func postJSON(t *testing.T, client *http.Client, url, token string, payload map[string]any, wantStatus int) json.RawMessage {
	t.Helper()
	return postJSONStatus(t, client, url, token, payload, wantStatus)
}

func postJSONStatus(t *testing.T, client *http.Client, url, token string, payload map[string]any, wantStatus int) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return do(t, client, req, token, wantStatus)
}

func putJSON(t *testing.T, client *http.Client, url, token string, payload map[string]any, wantStatus int) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return do(t, client, req, token, wantStatus)
}

func do(t *testing.T, client *http.Client, req *http.Request, token string, wantStatus int) json.RawMessage {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope for %s: %v", req.URL.Path, err)
	}
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: expected %d, got %d (error: %v)", req.Method, req.URL.Path, wantStatus, resp.StatusCode, env.Error)
	}
	return env.Data
}

func decodeConfig(t *testing.T, raw json.RawMessage) map[string]any {
	t.Helper()
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	return out
}

func version(t *testing.T, cfg map[string]any) float64 {
	t.Helper()
	v, ok := cfg["version"].(float64)
	if !ok {
		t.Fatalf("missing version in %v", cfg)
	}
	return v
}
