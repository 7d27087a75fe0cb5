package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRespondJSON_SetsStatusCode(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
	}{
		{"OK", http.StatusOK},
		{"BadRequest", http.StatusBadRequest},
		{"BadGateway", http.StatusBadGateway},
		{"GatewayTimeout", http.StatusGatewayTimeout},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondJSON(recorder, tc.statusCode, nil)

			assertStatusCode(t, recorder, tc.statusCode)
			assertContentType(t, recorder, "application/json")
			if recorder.Body.Len() != 0 {
				t.Errorf("expected empty body for nil data, got %q", recorder.Body.String())
			}
		})
	}
}

func TestRespondJSON_EncodesData(t *testing.T) {
	recorder := httptest.NewRecorder()
	respondJSON(recorder, http.StatusOK, map[string]any{"label": "East asian", "raw": 0.7})

	var result map[string]any
	parseJSONResponse(t, recorder, &result)
	if result["label"] != "East asian" || result["raw"] != 0.7 {
		t.Errorf("unexpected body %v", result)
	}
}

func TestRespondError(t *testing.T) {
	recorder := httptest.NewRecorder()
	respondError(recorder, http.StatusBadRequest, "bad image")

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "bad image")
}

func TestHealthCheck(t *testing.T) {
	for _, method := range []string{"GET", "HEAD", "POST"} {
		recorder := httptest.NewRecorder()
		HealthCheck(recorder, httptest.NewRequest(method, "/api/v1/health", nil))

		assertStatusCode(t, recorder, http.StatusOK)
		if method == "HEAD" {
			continue
		}
		var body map[string]string
		if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil || body["status"] != "ok" {
			t.Errorf("%s: body = %q", method, recorder.Body.String())
		}
	}
}

func TestSanitizeForLog(t *testing.T) {
	if got := sanitizeForLog("a\nb\r\nc"); got != "abc" {
		t.Errorf("sanitizeForLog() = %q, want abc", got)
	}
}
