package auth

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeMap(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "admins.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write admin map: %v", err)
	}
	return path
}

func TestAdminResolver_GetAdminID(t *testing.T) {
	path := writeMap(t, "\"10.0.1.5\": 123456\n\"10.0.1.8\": 789012\n")
	resolver := NewAdminResolver(path)
	if !resolver.IsLoaded() {
		t.Fatal("resolver should be loaded")
	}

	tests := []struct {
		name          string
		remoteAddr    string
		xForwardedFor string
		xRealIP       string
		expectedID    int
		expectedFound bool
	}{
		{
			name:          "remote addr match",
			remoteAddr:    "10.0.1.5:12345",
			expectedID:    123456,
			expectedFound: true,
		},
		{
			name:          "x-forwarded-for match",
			remoteAddr:    "192.168.1.1:12345",
			xForwardedFor: "10.0.1.8",
			expectedID:    789012,
			expectedFound: true,
		},
		{
			name:          "x-real-ip match",
			remoteAddr:    "192.168.1.1:12345",
			xRealIP:       "10.0.1.5",
			expectedID:    123456,
			expectedFound: true,
		},
		{
			name:          "unknown ip",
			remoteAddr:    "192.168.1.1:12345",
			expectedFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xForwardedFor != "" {
				req.Header.Set("X-Forwarded-For", tt.xForwardedFor)
			}
			if tt.xRealIP != "" {
				req.Header.Set("X-Real-IP", tt.xRealIP)
			}

			adminID, found := resolver.GetAdminID(req)
			if found != tt.expectedFound {
				t.Errorf("GetAdminID() found = %v, want %v", found, tt.expectedFound)
			}
			if found && adminID != tt.expectedID {
				t.Errorf("GetAdminID() adminID = %v, want %v", adminID, tt.expectedID)
			}
		})
	}
}

func TestAdminResolver_MissingFileStaysUnloaded(t *testing.T) {
	resolver := NewAdminResolver(filepath.Join(t.TempDir(), "absent.yaml"))
	if resolver.IsLoaded() {
		t.Fatal("resolver should stay unloaded when the file is missing")
	}
}

func TestAdminResolver_Reload(t *testing.T) {
	path := writeMap(t, "\"10.0.1.5\": 1\n")
	resolver := NewAdminResolver(path)

	if err := os.WriteFile(path, []byte("\"10.0.1.5\": 1\n\"10.0.1.9\": 2\n"), 0644); err != nil {
		t.Fatalf("failed to rewrite admin map: %v", err)
	}
	if err := resolver.Reload(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.1.9:555"
	if id, found := resolver.GetAdminID(req); !found || id != 2 {
		t.Fatalf("expected reloaded entry, got id=%d found=%v", id, found)
	}
}

func TestMiddleware(t *testing.T) {
	path := writeMap(t, "\"10.0.1.5\": 42\n")
	resolver := NewAdminResolver(path)
	mw := NewAdminAuthMiddleware(resolver)

	var gotAdmin int
	var gotOK bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAdmin, gotOK = GetAdminIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("known ip passes with admin in context", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/admin/citizens", nil)
		req.RemoteAddr = "10.0.1.5:9999"
		rec := httptest.NewRecorder()
		mw.Handler(next).ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected pass-through, got %d", rec.Code)
		}
		if !gotOK || gotAdmin != 42 {
			t.Fatalf("expected admin 42 in context, got %d (%v)", gotAdmin, gotOK)
		}
	})

	t.Run("unknown ip gets 403", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/admin/citizens", nil)
		req.RemoteAddr = "172.16.0.1:9999"
		rec := httptest.NewRecorder()
		mw.Handler(next).ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name          string
		remoteAddr    string
		xForwardedFor string
		xRealIP       string
		expectedIP    string
	}{
		{
			name:       "remote addr only",
			remoteAddr: "192.168.1.1:12345",
			expectedIP: "192.168.1.1",
		},
		{
			name:          "x-forwarded-for single ip",
			remoteAddr:    "192.168.1.1:12345",
			xForwardedFor: "10.0.1.5",
			expectedIP:    "10.0.1.5",
		},
		{
			name:          "x-forwarded-for multiple ips",
			remoteAddr:    "192.168.1.1:12345",
			xForwardedFor: "10.0.1.5, 192.168.1.2, 192.168.1.3",
			expectedIP:    "10.0.1.5",
		},
		{
			name:       "x-real-ip",
			remoteAddr: "192.168.1.1:12345",
			xRealIP:    "10.0.1.8",
			expectedIP: "10.0.1.8",
		},
		{
			name:          "x-forwarded-for wins over x-real-ip",
			remoteAddr:    "192.168.1.1:12345",
			xForwardedFor: "10.0.1.5",
			xRealIP:       "10.0.1.8",
			expectedIP:    "10.0.1.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &http.Request{
				RemoteAddr: tt.remoteAddr,
				Header:     make(http.Header),
			}
			if tt.xForwardedFor != "" {
				req.Header.Set("X-Forwarded-For", tt.xForwardedFor)
			}
			if tt.xRealIP != "" {
				req.Header.Set("X-Real-IP", tt.xRealIP)
			}

			if ip := extractClientIP(req); ip != tt.expectedIP {
				t.Errorf("extractClientIP() = %v, want %v", ip, tt.expectedIP)
			}
		})
	}
}
