package log

import (
	"time"
)

// LogHTTPRequest logs one served HTTP request. Requests that failed are
// logged at error level with the cause.
func LogHTTPRequest(method, path string, status int, duration time.Duration, size int, remoteAddr, userAgent string, err error) {
	fields := []interface{}{
		"method", method,
		"path", path,
		"status", status,
		"duration_ms", duration.Milliseconds(),
		"size", size,
		"remote_addr", remoteAddr,
		"user_agent", userAgent,
	}

	if err != nil || status >= 500 {
		if err != nil {
			fields = append(fields, "error", err.Error())
		}
		Errorw("http request", fields...)
		return
	}
	Infow("http request", fields...)
}
