package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDemoMiddleware(t *testing.T) {
	// Backend handler that always returns 200 OK.
	backend := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	handler := DemoMiddleware("/api/v1/auth/")(backend)

	tests := []struct {
		name          string
		method        string
		path          string
		wantStatus    int
		wantPassThru  bool
		wantDemoError bool
	}{
		{name: "GET passes through", method: http.MethodGet, path: "/api/v1/reports", wantStatus: http.StatusOK, wantPassThru: true},
		{name: "HEAD passes through", method: http.MethodHead, path: "/api/v1/reports", wantStatus: http.StatusOK, wantPassThru: true},
		{name: "OPTIONS passes through", method: http.MethodOptions, path: "/api/v1/reports", wantStatus: http.StatusOK, wantPassThru: true},
		{name: "POST blocked", method: http.MethodPost, path: "/api/v1/reports", wantStatus: http.StatusForbidden, wantDemoError: true},
		{name: "PUT blocked", method: http.MethodPut, path: "/api/v1/appearance", wantStatus: http.StatusForbidden, wantDemoError: true},
		{name: "DELETE blocked", method: http.MethodDelete, path: "/api/v1/chat/threads/t1", wantStatus: http.StatusForbidden, wantDemoError: true},
		{name: "PATCH blocked", method: http.MethodPatch, path: "/api/v1/reports/views/v1", wantStatus: http.StatusForbidden, wantDemoError: true},
		{name: "login allowed", method: http.MethodPost, path: "/api/v1/auth/login", wantStatus: http.StatusOK, wantPassThru: true},
		{name: "token refresh allowed", method: http.MethodPost, path: "/api/v1/auth/refresh", wantStatus: http.StatusOK, wantPassThru: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, http.NoBody)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tc.wantStatus)
			}

			body, _ := io.ReadAll(w.Result().Body)
			bodyStr := string(body)

			if tc.wantPassThru && !strings.Contains(bodyStr, `"status":"ok"`) {
				t.Errorf("expected backend response, got %q", bodyStr)
			}

			if tc.wantDemoError && !strings.Contains(bodyStr, "demo mode") {
				t.Errorf("expected 'demo mode' in body, got %q", bodyStr)
			}
		})
	}
}
