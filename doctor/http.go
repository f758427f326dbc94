package doctor

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/jonwraymond/selfheal/auth"
	"github.com/jonwraymond/selfheal/heal"
	"github.com/jonwraymond/selfheal/health"
	"github.com/jonwraymond/selfheal/observe"
	"github.com/jonwraymond/selfheal/resilience"
)

// ShutdownTimeout bounds the graceful shutdown in Serve.
const ShutdownTimeout = 5 * time.Second

// Handler returns the operator HTTP surface:
//
//	GET  /healthz       liveness, unauthenticated
//	GET  /readyz        quick-mode readiness, unauthenticated
//	GET  /health        detailed report       (health:read)
//	GET  /heal/pending  prompts awaiting an operator (heal:view)
//	POST /heal/confirm  approve or decline a prompt  (heal:confirm)
//	POST /diagnose      run checks and heal   (diagnose:run, rate limited)
//
// Every request is traced and logged. The check set is captured when Handler
// is called.
func (d *Doctor) Handler() http.Handler {
	checks := d.Checks()

	mux := http.NewServeMux()
	route := func(pattern, name string, h http.Handler) {
		mux.Handle(pattern, d.inst.Middleware(name, h))
	}
	route("/healthz", "healthz", health.LivenessHandler())
	route("/readyz", "readyz", health.ReadinessHandler(d.engine, checks))
	route("/health", "health", d.guard.Require(auth.ActionHealthRead, health.DetailedHandler(d.engine, checks)))
	route("/heal/pending", "heal.pending", d.guard.Require(auth.ActionHealView, heal.PendingHandler(d.healer)))
	route("/heal/confirm", "heal.confirm", d.guard.Require(auth.ActionHealConfirm, heal.ConfirmHandler(d.healer)))
	route("/diagnose", "diagnose", d.guard.Require(auth.ActionDiagnose, d.diagnoseHandler()))
	return mux
}

// diagnoseHandler runs Diagnose. The mode is taken from the "mode" query
// parameter (default quick). Requests beyond the diagnose limit get 429.
func (d *Doctor) diagnoseHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !d.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			http.Error(w, resilience.ErrRateLimited.Error(), http.StatusTooManyRequests)
			return
		}
		mode := health.ModeQuick
		if r.URL.Query().Get("mode") == string(health.ModeFull) {
			mode = health.ModeFull
		}

		report := d.Diagnose(r.Context(), mode)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(report)
	}
}

// Serve listens on the configured address until ctx is done, then shuts the
// server down gracefully.
func (d *Doctor) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", d.config.Addr)
	if err != nil {
		return err
	}
	return d.serve(ctx, ln)
}

func (d *Doctor) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      d.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: d.writeTimeout(),
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		d.inst.Logger.Info(ctx, "operator http listening", observe.Field{Key: "addr", Value: ln.Addr().String()})
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		d.inst.Logger.Warn(shutdownCtx, "operator http shutdown", observe.Field{Key: "error", Value: err.Error()})
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// writeTimeout leaves room for a full-mode run behind /health and /diagnose.
func (d *Doctor) writeTimeout() time.Duration {
	return d.engine.ModeTimeout(health.ModeFull) + 15*time.Second
}
