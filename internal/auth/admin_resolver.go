// Package auth maps client IP addresses to admin member IDs. The registry
// runs on a closed municipal network, so the allowlist is a small yaml file
// of IP to admin ID entries rather than a full login flow.
package auth

import (
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// AdminResolver resolves client IP addresses to admin member IDs.
type AdminResolver struct {
	mu       sync.RWMutex
	ipToID   map[string]int
	loaded   bool
	yamlPath string
}

// NewAdminResolver creates a resolver backed by the yaml file at path.
// A missing or unreadable file is not fatal: the resolver stays unloaded and
// every state-changing request is rejected until the file appears and
// Reload succeeds.
func NewAdminResolver(path string) *AdminResolver {
	resolver := &AdminResolver{
		ipToID: make(map[string]int),
	}

	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			log.Printf("auth: cannot determine working directory: %v", err)
			return resolver
		}
		path = filepath.Join(cwd, "admins.yaml")
	}

	if err := resolver.loadConfig(path); err != nil {
		log.Printf("auth: admin IP map not loaded from %s: %v", path, err)
		log.Printf("auth: registry writes are blocked until the file is present at %s", path)
	} else {
		log.Printf("auth: loaded admin IP map from %s (%d entries)", path, resolver.count())
	}
	resolver.yamlPath = path

	return resolver
}

func (r *AdminResolver) loadConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var entries map[string]int
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.ipToID = entries
	r.loaded = true
	return nil
}

// Reload re-reads the admin map from disk. Called when the config watcher
// signals a change.
func (r *AdminResolver) Reload() error {
	if r.yamlPath == "" {
		return nil
	}
	return r.loadConfig(r.yamlPath)
}

// IsLoaded reports whether a map was successfully read at least once.
func (r *AdminResolver) IsLoaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

func (r *AdminResolver) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ipToID)
}

// GetAdminID resolves the request's client IP to an admin member ID.
func (r *AdminResolver) GetAdminID(req *http.Request) (int, bool) {
	ip := extractClientIP(req)

	r.mu.RLock()
	defer r.mu.RUnlock()

	adminID, found := r.ipToID[ip]
	return adminID, found
}

// GetClientIP returns the client IP address from the request.
func (r *AdminResolver) GetClientIP(req *http.Request) string {
	return extractClientIP(req)
}

// extractClientIP extracts the real client IP from the request.
// Handles X-Forwarded-For and X-Real-IP headers for reverse proxy scenarios.
func extractClientIP(req *http.Request) string {
	if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
		// X-Forwarded-For can contain multiple IPs, take the first one
		if ip := parseFirstIP(xff); ip != "" {
			return ip
		}
	}

	if xri := req.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return ip
}

// parseFirstIP extracts the first IP from a comma-separated list.
func parseFirstIP(xff string) string {
	for i := 0; i < len(xff); i++ {
		if xff[i] == ',' {
			return xff[:i]
		}
	}
	return xff
}
