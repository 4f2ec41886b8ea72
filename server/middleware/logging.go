package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/kbukum/flowkit/logger"
)

// quietPaths are probed often and not logged.
var quietPaths = map[string]bool{"/health": true, "/version": true}

// RequestLogger logs each request with its status and duration. 5xx logs
// at error, 4xx at warn, the rest at debug. Preview streams are logged
// when they close.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if quietPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			fields := logger.MergeWithDuration(logger.Fields(
				"method", r.Method,
				"path", r.URL.Path,
				logger.FieldStatus, sw.status,
			), time.Since(start))
			if id := r.Header.Get(RequestIDHeader); id != "" {
				fields["request_id"] = id
			}
			if strings.HasPrefix(r.URL.Path, "/v1/preview/") {
				fields["stream"] = true
			}

			switch {
			case sw.status >= 500:
				log.Error("request completed", fields)
			case sw.status >= 400:
				log.Warn("request completed", fields)
			default:
				log.Debug("request completed", fields)
			}
		})
	}
}
