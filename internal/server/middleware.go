package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/GreenhouseOperations/packingslip-parser/internal/common"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestLog tags every request with a req_id and logs the in/out pair.
func (h *Handler) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.New().String()
		start := time.Now()

		h.logger.Info("http.request",
			"req_id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
			"content_length", r.ContentLength,
		)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(common.WithRequestID(r.Context(), reqID)))

		h.logger.Info("http.response",
			"req_id", reqID,
			"status", rec.status,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}
