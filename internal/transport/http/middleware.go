package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cimillas/seatplan/internal/logging"
)

const requestIDHeader = "X-Request-ID"

// RequestMetrics receives one observation per served request.
type RequestMetrics interface {
	RequestCompleted(method string, status int, elapsed time.Duration)
}

// RequestLogger tags each request with an id, logs its outcome and latency,
// and turns handler panics into a 500.
func RequestLogger(next http.Handler, logger *zap.Logger, metrics RequestMetrics) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(requestIDHeader)
		if !logging.ValidRequestID(id) {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		r = r.WithContext(logging.WithRequestID(r.Context(), id))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				logging.For(r.Context(), logger).Error("handler panic",
					zap.Any("panic", p),
					zap.String("path", r.URL.Path),
					zap.Stack("stack"),
				)
				if !rec.wrote {
					writeError(rec, http.StatusInternalServerError, codeInternalError, "internal error")
				}
			}

			elapsed := time.Since(start)
			if metrics != nil {
				metrics.RequestCompleted(r.Method, rec.status, elapsed)
			}
			logging.For(r.Context(), logger).Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", elapsed),
			)
		}()

		next.ServeHTTP(rec, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.wrote {
		return
	}
	r.status = code
	r.wrote = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wrote = true
	return r.ResponseWriter.Write(b)
}
