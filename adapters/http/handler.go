// Package http provides HTTP handlers for the metering service.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/artpar/metergate/adapters/metrics"
	"github.com/artpar/metergate/app"
	"github.com/artpar/metergate/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// ErrorResponseBody is the JSON shape of every error response.
type ErrorResponseBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the machine-readable code and human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// VersionResponse is the version endpoint response.
type VersionResponse struct {
	Version string `json:"version"`
	Service string `json:"service"`
}

// InferenceResponse is the successful inference response.
type InferenceResponse struct {
	Result string `json:"result"`
	Usage  int64  `json:"usage"`
}

// CheckoutRequest is the checkout initiation request body.
type CheckoutRequest struct {
	Email string `json:"email"`
}

// CheckoutResponse is the checkout initiation response. Exactly one of the
// URLs is set.
type CheckoutResponse struct {
	CheckoutURL string `json:"checkoutUrl,omitempty"`
	RedirectURL string `json:"redirectUrl,omitempty"`
}

// userIDHeader is the trusted identity header set by the fronting
// authenticator. Requests without it are unauthenticated.
const userIDHeader = "X-User-ID"

// maxBodyBytes caps request and webhook payload sizes.
const maxBodyBytes = 1 << 20 // 1MB

// Handler wraps the application services for HTTP handling.
type Handler struct {
	inference *app.InferenceService
	checkout  *app.CheckoutService
	sync      *app.SyncService
	provider  ports.BillingProvider
	logger    zerolog.Logger
	metrics   *metrics.Collector
}

// HandlerDeps contains dependencies for Handler.
type HandlerDeps struct {
	Inference *app.InferenceService
	Checkout  *app.CheckoutService
	Sync      *app.SyncService
	Provider  ports.BillingProvider
	Logger    zerolog.Logger
	Metrics   *metrics.Collector // optional
}

// NewHandler creates a new HTTP handler.
func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{
		inference: deps.Inference,
		checkout:  deps.Checkout,
		sync:      deps.Sync,
		provider:  deps.Provider,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
	}
}

// Inference handles a metered inference request. Identity comes from the
// trusted X-User-ID header; quota exhaustion maps to 402.
func (h *Handler) Inference(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userIDHeader)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "Missing user identity")
		return
	}

	var body struct {
		Prompt string `json:"prompt"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid JSON body")
		return
	}

	start := time.Now()
	res, err := h.inference.Run(r.Context(), userID, body.Prompt)
	if err != nil {
		if errors.Is(err, app.ErrQuotaExceeded) {
			writeError(w, http.StatusPaymentRequired, "upgrade_required", "Monthly request quota exceeded. Upgrade to continue.")
			return
		}
		h.logger.Error().Err(err).Str("user_id", userID).Msg("inference failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}

	// Denied and failed requests would skew the latency distribution, so
	// only completed inferences are observed.
	if h.metrics != nil {
		h.metrics.InferenceDuration.Observe(time.Since(start).Seconds())
	}

	writeJSON(w, http.StatusOK, InferenceResponse{Result: res.Result, Usage: res.Usage})
}

// Checkout initiates an upgrade checkout session for the user.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userIDHeader)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "Missing user identity")
		return
	}

	var body CheckoutRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid JSON body")
		return
	}

	res, err := h.checkout.StartCheckout(r.Context(), userID, body.Email)
	if err != nil {
		if errors.Is(err, app.ErrEmailRequired) {
			writeError(w, http.StatusBadRequest, "email_required", "A contact email is required to start checkout")
			return
		}
		h.logger.Error().Err(err).Str("user_id", userID).Msg("checkout failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}

	if res.AlreadySubscribed {
		writeJSON(w, http.StatusOK, CheckoutResponse{RedirectURL: res.RedirectURL})
		return
	}
	writeJSON(w, http.StatusOK, CheckoutResponse{CheckoutURL: res.CheckoutURL})
}

// Webhook receives billing provider events. Signature verification happens
// against the raw body before anything is parsed; a non-2xx response makes
// the provider redeliver, so only unprocessed events may return one.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Failed to read request body")
		return
	}

	ev, err := h.provider.VerifyWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.Warn().Err(err).Msg("webhook verification failed")
		writeError(w, http.StatusBadRequest, "invalid_signature", "Webhook signature verification failed")
		return
	}

	if err := h.sync.Apply(r.Context(), ev); err != nil {
		h.logger.Error().Err(err).Str("type", ev.Type).Msg("webhook apply failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "Event processing failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Health is a simple liveness check.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Version returns the service version.
func Version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{
		Version: "dev",
		Service: "metergate",
	})
}

// RouterConfig holds optional configuration for the router.
type RouterConfig struct {
	Metrics     *metrics.Collector
	MetricsPath string // default "/metrics"
}

// NewRouter creates the main HTTP router.
func NewRouter(h *Handler, logger zerolog.Logger, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	if cfg.Metrics != nil {
		r.Use(NewMetricsMiddleware(cfg.Metrics))

		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, promhttp.Handler())
	}

	r.Get("/healthz", h.Health)
	r.Get("/version", Version)

	r.Post("/v1/inference", h.Inference)
	r.Post("/v1/checkout", h.Checkout)

	// Provider webhooks are not authenticated; signature verification
	// happens inside the handler.
	r.Post("/webhooks/billing", h.Webhook)

	return r
}

// NewMetricsMiddleware creates middleware that records in-flight requests.
func NewMetricsMiddleware(m *metrics.Collector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			next.ServeHTTP(w, r)
		})
	}
}

// NewLoggingMiddleware creates middleware that logs HTTP requests.
func NewLoggingMiddleware(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			// Skip logging for health checks and metrics
			if strings.HasPrefix(r.URL.Path, "/healthz") || r.URL.Path == "/metrics" {
				return
			}

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponseBody{Error: ErrorDetail{Code: code, Message: message}})
}
