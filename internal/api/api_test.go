package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/erazemk/inventario/internal/auth"
	"github.com/erazemk/inventario/internal/db"
	"github.com/erazemk/inventario/internal/ledger"
	"github.com/erazemk/inventario/internal/metrics"
	"github.com/erazemk/inventario/internal/model"
	"github.com/erazemk/inventario/internal/recognition"
	"github.com/erazemk/inventario/internal/scanner"
	"github.com/erazemk/inventario/internal/store"
)

const (
	testJWTSecret = "test-secret"
	testPassword  = "correct-horse"
)

type recognizerFunc func(ctx context.Context, img recognition.Image) (recognition.Candidate, error)

func (f recognizerFunc) Recognize(ctx context.Context, img recognition.Image) (recognition.Candidate, error) {
	return f(ctx, img)
}

type testEnv struct {
	server *httptest.Server
	token  string
}

func setupTestServer(t *testing.T, rec scanner.Recognizer) *testEnv {
	t.Helper()
	ctx := context.Background()
	database := db.NewTestDB(t)

	hash, err := auth.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	if err := store.SetOperatorPasswordHash(ctx, database, hash); err != nil {
		t.Fatalf("storing password: %v", err)
	}

	reg := prometheus.NewRegistry()
	l, err := ledger.Open(ctx, store.NewKV(database), ledger.WithMetrics(metrics.NewLedger(reg)))
	if err != nil {
		t.Fatalf("opening ledger: %v", err)
	}

	cfg := Config{
		DB:        database,
		JWTSecret: testJWTSecret,
		Ledger:    l,
		Gatherer:  reg,
		Now:       func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
	if rec != nil {
		cfg.Scanner = scanner.New(nil, rec)
	}

	server := httptest.NewServer(LoggingMiddleware(NewRouter(cfg)))
	t.Cleanup(server.Close)

	body, _ := json.Marshal(map[string]string{"password": testPassword})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp map[string]string
	json.NewDecoder(resp.Body).Decode(&loginResp)
	if loginResp["token"] == "" {
		t.Fatal("empty token from login")
	}
	return &testEnv{server: server, token: loginResp["token"]}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return v
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s: expected %d, got %d: %s", resp.Request.Method, resp.Request.URL.Path, want, resp.StatusCode, body)
	}
}

func TestLoginEndpoint(t *testing.T) {
	env := setupTestServer(t, nil)

	body, _ := json.Marshal(map[string]string{"password": "wrong"})
	resp, _ := http.Post(env.server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, _ = http.Post(env.server.URL+"/api/auth/login", "application/json", strings.NewReader(`{}`))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for missing password, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLoginRateLimited(t *testing.T) {
	env := setupTestServer(t, nil)

	limited := false
	for range 10 {
		resp, _ := http.Post(env.server.URL+"/api/auth/login", "application/json", strings.NewReader(`{"password":"nope"}`))
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Error("expected repeated failed logins to be rate limited")
	}
}

func TestUnauthenticated(t *testing.T) {
	env := setupTestServer(t, nil)

	resp, err := http.Get(env.server.URL + "/api/items")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

func TestItemsAPIFlow(t *testing.T) {
	env := setupTestServer(t, nil)

	resp := env.do(t, "POST", "/api/items", model.Draft{
		Name: "Impresora", DeviceType: "Printer", SerialNumber: "PR-1", Quantity: "3", Location: "Recepción",
	})
	expectStatus(t, resp, http.StatusCreated)
	item := decode[model.Item](t, resp)
	if item.ID == "" || item.Quantity != 3 {
		t.Fatalf("unexpected item: %+v", item)
	}

	resp = env.do(t, "POST", "/api/items/"+item.ID+"/adjust", map[string]int{"delta": -2})
	expectStatus(t, resp, http.StatusOK)
	if got := decode[model.Item](t, resp); got.Quantity != 1 {
		t.Errorf("expected quantity 1, got %d", got.Quantity)
	}

	resp = env.do(t, "POST", "/api/items/"+item.ID+"/adjust", map[string]int{"delta": -5})
	expectStatus(t, resp, http.StatusConflict)

	resp = env.do(t, "GET", "/api/items/serial/pr-1", nil)
	expectStatus(t, resp, http.StatusOK)

	resp = env.do(t, "GET", "/api/items?q=recep", nil)
	expectStatus(t, resp, http.StatusOK)
	if got := decode[[]model.Item](t, resp); len(got) != 1 {
		t.Errorf("expected 1 search result, got %d", len(got))
	}

	resp = env.do(t, "POST", "/api/items/decommission", map[string]string{"serialNumber": "PR-1"})
	expectStatus(t, resp, http.StatusOK)
	if tx := decode[model.Transaction](t, resp); tx.Type != model.TransactionBaja || tx.Quantity != 1 {
		t.Errorf("unexpected Baja: %+v", tx)
	}

	resp = env.do(t, "GET", "/api/items/serial/PR-1", nil)
	expectStatus(t, resp, http.StatusNotFound)

	resp = env.do(t, "GET", "/api/transactions", nil)
	expectStatus(t, resp, http.StatusOK)
	txs := decode[[]model.Transaction](t, resp)
	if len(txs) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(txs))
	}
	if txs[0].Type != model.TransactionBaja || txs[2].Type != model.TransactionEntrada {
		t.Errorf("expected most recent first, got %+v", txs)
	}
}

func TestItemsAPIRejections(t *testing.T) {
	env := setupTestServer(t, nil)

	resp := env.do(t, "POST", "/api/items", model.Draft{Name: "", Quantity: "1"})
	expectStatus(t, resp, http.StatusBadRequest)

	resp = env.do(t, "POST", "/api/items", model.Draft{Name: "PC", Quantity: "-1"})
	expectStatus(t, resp, http.StatusBadRequest)

	resp = env.do(t, "POST", "/api/items", model.Draft{Name: "PC", SerialNumber: "S1", Quantity: "1"})
	expectStatus(t, resp, http.StatusCreated)
	resp = env.do(t, "POST", "/api/items", model.Draft{Name: "PC", SerialNumber: "s1", Quantity: "1"})
	expectStatus(t, resp, http.StatusConflict)

	resp = env.do(t, "DELETE", "/api/items/does-not-exist", nil)
	expectStatus(t, resp, http.StatusNotFound)

	resp = env.do(t, "POST", "/api/items/decommission", map[string]string{"serialNumber": "  "})
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestReportEndpoint(t *testing.T) {
	env := setupTestServer(t, nil)

	resp := env.do(t, "GET", "/api/report", nil)
	expectStatus(t, resp, http.StatusNotFound)

	env.do(t, "POST", "/api/items", model.Draft{Name: "Monitor", Quantity: "2"})

	resp = env.do(t, "GET", "/api/report", nil)
	expectStatus(t, resp, http.StatusOK)
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "informe_stock_2025-06-01.csv") {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Nombre,Descripción,Tipo de Dispositivo,Cantidad,N/S,Ubicación") {
		t.Errorf("missing header in report: %q", body)
	}
	if !strings.Contains(string(body), "Monitor,,,2,,") {
		t.Errorf("missing item row in report: %q", body)
	}
}

func scanRequest(t *testing.T, env *testEnv, image []byte, fields map[string]string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("image", "label.png")
	fw.Write(image)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()

	req, _ := http.NewRequest("POST", env.server.URL+"/api/scan", &buf)
	req.Header.Set("Authorization", "Bearer "+env.token)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("scan request: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 40, 20))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestScanEndpoint(t *testing.T) {
	var got recognition.Image
	env := setupTestServer(t, recognizerFunc(func(_ context.Context, img recognition.Image) (recognition.Candidate, error) {
		got = img
		return recognition.Candidate{Name: "HP LaserJet Pro M404dn", Description: "M404dn", SerialNumber: "XYZ", DeviceType: "Printer"}, nil
	}))

	resp := scanRequest(t, env, testPNG(t), map[string]string{"quantity": "1", "location": "Almacén", "name": "typed"})
	expectStatus(t, resp, http.StatusOK)

	var out struct {
		Target    string                `json:"target"`
		Candidate recognition.Candidate `json:"candidate"`
		Draft     *model.Draft          `json:"draft"`
	}
	json.NewDecoder(resp.Body).Decode(&out)

	if got.MIME != "image/jpeg" {
		t.Errorf("expected upload re-encoded as JPEG, got %s", got.MIME)
	}
	if out.Target != "newItem" || out.Candidate.SerialNumber != "XYZ" {
		t.Errorf("unexpected scan result: %+v", out)
	}
	if out.Draft == nil || out.Draft.Name != "HP LaserJet Pro M404dn" || out.Draft.Location != "Almacén" || out.Draft.Quantity != "1" {
		t.Errorf("unexpected draft: %+v", out.Draft)
	}

	resp = scanRequest(t, env, testPNG(t), map[string]string{"target": "search"})
	expectStatus(t, resp, http.StatusOK)
	var search struct {
		Query string       `json:"query"`
		Draft *model.Draft `json:"draft"`
	}
	json.NewDecoder(resp.Body).Decode(&search)
	if search.Query != "XYZ" || search.Draft != nil {
		t.Errorf("unexpected search scan: %+v", search)
	}
}

func TestScanEndpointErrors(t *testing.T) {
	env := setupTestServer(t, recognizerFunc(func(context.Context, recognition.Image) (recognition.Candidate, error) {
		return recognition.Candidate{}, &recognition.AnalysisError{Stage: recognition.StageExtraction, Err: errors.New("boom")}
	}))

	resp := scanRequest(t, env, []byte("GIF89a not really"), nil)
	expectStatus(t, resp, http.StatusUnsupportedMediaType)

	resp = scanRequest(t, env, testPNG(t), nil)
	expectStatus(t, resp, http.StatusUnprocessableEntity)
	if msg := decode[map[string]string](t, resp)["error"]; msg != scanner.MsgAnalysisFailed {
		t.Errorf("expected user-facing message, got %q", msg)
	}
}

func TestScanWithoutRecognition(t *testing.T) {
	env := setupTestServer(t, nil)

	resp := scanRequest(t, env, testPNG(t), nil)
	expectStatus(t, resp, http.StatusServiceUnavailable)
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupTestServer(t, nil)
	env.do(t, "POST", "/api/items", model.Draft{Name: "Ratón", Quantity: "4"})

	resp, err := http.Get(env.server.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		`inventario_ledger_operations_total{operation="add",result="ok"} 1`,
		"inventario_ledger_units 4",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}
