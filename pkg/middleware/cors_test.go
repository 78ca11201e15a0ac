package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	config := CORSConfig{
		AllowedOrigins:   []string{"https://app.strayaid.org", "*.strayaid.org"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           600,
	}

	tests := []struct {
		name           string
		origin         string
		method         string
		expectedOrigin string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "exact origin match",
			origin:         "https://app.strayaid.org",
			method:         "GET",
			expectedOrigin: "https://app.strayaid.org",
			expectedStatus: http.StatusOK,
			expectedBody:   "OK",
		},
		{
			name:           "wildcard subdomain match",
			origin:         "https://field.strayaid.org",
			method:         "GET",
			expectedOrigin: "https://field.strayaid.org",
			expectedStatus: http.StatusOK,
			expectedBody:   "OK",
		},
		{
			name:           "origin not in allowed list",
			origin:         "https://evil.example.com",
			method:         "GET",
			expectedOrigin: "",
			expectedStatus: http.StatusOK,
			expectedBody:   "OK",
		},
		{
			name:           "preflight OPTIONS short-circuits",
			origin:         "https://app.strayaid.org",
			method:         "OPTIONS",
			expectedOrigin: "https://app.strayaid.org",
			expectedStatus: http.StatusNoContent,
			expectedBody:   "",
		},
		{
			name:           "no origin header",
			origin:         "",
			method:         "GET",
			expectedOrigin: "",
			expectedStatus: http.StatusOK,
			expectedBody:   "OK",
		},
	}

	corsHandler := CORS(config)(handler)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "http://example.com/test", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()

			corsHandler.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.expectedOrigin {
				t.Errorf("expected Access-Control-Allow-Origin %q, got %q", tt.expectedOrigin, got)
			}
			if got := w.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST" {
				t.Errorf("expected Access-Control-Allow-Methods %q, got %q", "GET, POST", got)
			}
			if got := w.Header().Get("Access-Control-Max-Age"); got != "600" {
				t.Errorf("expected Access-Control-Max-Age %q, got %q", "600", got)
			}
			if w.Body.String() != tt.expectedBody {
				t.Errorf("expected response body %q, got %q", tt.expectedBody, w.Body.String())
			}
		})
	}
}

func TestCORS_DefaultMaxAge(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	corsHandler := CORS(CORSConfig{
		AllowedOrigins: []string{"https://app.strayaid.org"},
		AllowedMethods: []string{"GET"},
		AllowedHeaders: []string{"Content-Type"},
	})(handler)

	req := httptest.NewRequest("GET", "http://example.com/test", nil)
	w := httptest.NewRecorder()
	corsHandler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Max-Age"); got != "300" {
		t.Errorf("expected default max age %q, got %q", "300", got)
	}
}
