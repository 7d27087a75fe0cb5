package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/kozaktomas/skinstric/internal/analysis"
	"github.com/kozaktomas/skinstric/internal/config"
	"github.com/kozaktomas/skinstric/internal/database"
	"github.com/kozaktomas/skinstric/internal/web/middleware"
	"go.uber.org/zap"
)

const testVisitor = "visitor-1"

// fakeAnalyzer records submissions and answers with a canned result or error.
type fakeAnalyzer struct {
	mu     sync.Mutex
	result *analysis.Result
	err    error
	images []string
}

func (f *fakeAnalyzer) PostPhaseTwo(_ context.Context, image string) (*analysis.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images = append(f.images, image)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeAnalyzer) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.images)
}

// testConfig creates a config with the embedded flow and a dummy analysis endpoint
func testConfig() *config.Config {
	cfg := config.Load()
	cfg.Analysis.URL = "http://phase-two.test"
	cfg.Analysis.MaxImageSize = 0
	return cfg
}

func sampleResult() *analysis.Result {
	return &analysis.Result{
		Message: "success",
		Data: analysis.Demographics{
			Race:   map[string]float64{"East asian": 0.7, "White": 0.3},
			Age:    map[string]float64{"20-29": 0.6, "30-39": 0.4},
			Gender: map[string]float64{"female": 0.8, "male": 0.2},
		},
	}
}

// newTestPages creates a page handler backed by in-memory storage
func newTestPages(t *testing.T, analyzer Analyzer) (*PagesHandler, *database.MemoryKV) {
	t.Helper()
	kv := database.NewMemoryKV()
	h, err := NewPagesHandler(testConfig(), kv, analyzer, zap.NewNop())
	if err != nil {
		t.Fatalf("NewPagesHandler: %v", err)
	}
	return h, kv
}

// requestWithVisitor creates a request carrying the test visitor session
func requestWithVisitor(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	ctx := middleware.SetSessionInContext(req.Context(), &middleware.Session{ID: testVisitor})
	return req.WithContext(ctx)
}

func visitorState(kv database.KV) *database.State {
	return database.NewState(kv, testVisitor, nil)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := range 4 {
		for y := range 4 {
			img.Set(x, y, color.RGBA{R: 200, G: 150, B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func pngDataURL(t *testing.T) string {
	t.Helper()
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t))
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}

// assertRedirect checks for a 303 to the expected location
func assertRedirect(t *testing.T, recorder *httptest.ResponseRecorder, location string) {
	t.Helper()
	assertStatusCode(t, recorder, http.StatusSeeOther)
	if got := recorder.Header().Get("Location"); got != location {
		t.Errorf("expected Location '%s', got '%s'", location, got)
	}
}
