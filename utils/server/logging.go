package server

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/difygen/difygen/utils/config"
)

// logger is a custom logger for HTTP requests, shared across the package
var logger = log.New(os.Stdout, "", log.LstdFlags)

// responseWriter wraps http.ResponseWriter to capture status and size
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (w *responseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.written += int64(n)
	return n, err
}

// maskToken masks a token for secure logging by showing only first and last 4 characters
func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "****" + token[len(token)-4:]
}

func logRequest(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		// Build auth info string, masking the token
		var authInfo string
		if auth := r.Header.Get("Authorization"); auth != "" {
			authInfo = maskToken(strings.TrimPrefix(auth, "Bearer "))
		}

		config.VerboseLog("Incoming request: %s %s", r.Method, r.URL.String())
		config.DebugLog("Request details: remote=%s content-length=%d host=%s",
			r.RemoteAddr, r.ContentLength, r.Host)

		handler(wrapped, r)

		duration := time.Since(start)
		logEntry := fmt.Sprintf("Request: method=%s path=%s auth=%s status=%d duration=%v",
			r.Method,
			r.URL.Path,
			authInfo,
			wrapped.statusCode,
			duration)

		config.VerboseLog("Response: status=%d bytes=%d duration=%v",
			wrapped.statusCode,
			wrapped.written,
			duration)

		logger.Print(logEntry)
	}
}
