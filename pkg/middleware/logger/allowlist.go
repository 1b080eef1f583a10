package logger

import (
	"net/http"
	"strings"
	"sync"
)

// maxLoggedBody caps request bodies written to the access log.
const maxLoggedBody = 1 << 16

var (
	bodyLogMu       sync.RWMutex
	bodyLogPrefixes = map[string]struct{}{}
)

// AddBodyLogPaths allowlists route prefixes whose request bodies are logged.
// "/csp/math" covers "/csp/math" and "/csp/math/add".
func AddBodyLogPaths(paths ...string) {
	bodyLogMu.Lock()
	for _, p := range paths {
		p = strings.TrimRight(strings.TrimSpace(p), "/")
		if p != "" {
			bodyLogPrefixes[p] = struct{}{}
		}
	}
	bodyLogMu.Unlock()
}

// Only log small JSON request bodies on allowlisted routes.
func shouldLogBody(r *http.Request, body []byte) bool {
	if r.Method != http.MethodPost {
		return false
	}
	if len(body) == 0 || len(body) > maxLoggedBody {
		return false
	}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return false
	}
	path := r.URL.Path
	bodyLogMu.RLock()
	defer bodyLogMu.RUnlock()
	for p := range bodyLogPrefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
