// internal/api/middleware/auth_test.go
package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func protected(apiKey string) http.Handler {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return APIKeyAuth(apiKey)(handler)
}

func TestAPIKeyAuth_ValidKey(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/symbols", nil)
	req.Header.Set("X-API-Key", "secret-key")
	w := httptest.NewRecorder()

	protected("secret-key").ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestAPIKeyAuth_MissingKey(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/symbols", nil)
	w := httptest.NewRecorder()

	protected("secret-key").ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding error envelope: %v", err)
	}
	if body.Error.Code != "CONFIG_MISSING" {
		t.Errorf("error code = %q, want CONFIG_MISSING", body.Error.Code)
	}
}

func TestAPIKeyAuth_InvalidKey(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/symbols", nil)
	req.Header.Set("X-API-Key", "wrong-key")
	w := httptest.NewRecorder()

	protected("secret-key").ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding error envelope: %v", err)
	}
	if body.Error.Code != "CONFIG_INVALID" {
		t.Errorf("error code = %q, want CONFIG_INVALID", body.Error.Code)
	}
}

func TestAPIKeyAuth_EmptyConfiguredKey(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/symbols", nil)
	w := httptest.NewRecorder()

	protected("").ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 when auth disabled, got %d", w.Code)
	}
}
