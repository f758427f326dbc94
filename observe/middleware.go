package observe

import (
	"fmt"
	"net/http"
	"time"
)

// Middleware wraps an operator endpoint with a span and one log line per
// request. route names the span: selfheal.http.<route>.
//
// Contract:
//   - Concurrency: the returned handler is safe for concurrent use.
//   - Errors: responses with status 500 and above end the span with an error.
func (i *Instrumentation) Middleware(route string, next http.Handler) http.Handler {
	i = i.OrNop()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		meta := Meta{Component: ComponentHTTP, ID: route, Name: r.Method}
		ctx, span := i.Tracer.StartSpan(r.Context(), meta)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(ctx))
		duration := time.Since(start)

		var err error
		if rec.status >= http.StatusInternalServerError {
			err = fmt.Errorf("http status %d", rec.status)
		}
		i.Tracer.EndSpan(span, err)

		fields := append(meta.Fields(),
			Field{Key: "status", Value: rec.status},
			Field{Key: "duration_ms", Value: float64(duration.Milliseconds())},
		)
		if err != nil {
			i.Logger.Error(ctx, "http request failed", fields...)
			return
		}
		i.Logger.Info(ctx, "http request", fields...)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
