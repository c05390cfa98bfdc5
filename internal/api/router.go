// Package api serves the analysis operations as a JSON REST API.
package api

import (
	"io"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Config holds the REST limits.
type Config struct {
	MaxDocumentBytes int64
	RateLimit        float64
	RateLimitBurst   int
	AllowedOrigins   []string
}

func NewRouter(h *Handler, gatherer prometheus.Gatherer, config Config) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", h.health).Methods("GET")
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.Use(rateLimit(rate.NewLimiter(rate.Limit(config.RateLimit), config.RateLimitBurst)))
	v1.HandleFunc("/parse", h.parse).Methods("POST")
	v1.HandleFunc("/validate", h.validate).Methods("POST")
	v1.HandleFunc("/summary", h.summary).Methods("POST")
	v1.HandleFunc("/dataset", h.datasetSnapshot).Methods("GET")
	v1.HandleFunc("/timezones", h.timezones).Methods("GET")
	v1.HandleFunc("/convert", h.convert).Methods("GET")
	v1.HandleFunc("/prompt", h.prompt).Methods("POST")

	return r
}

// Wrap adds panic recovery, CORS and an access log in combined format.
func Wrap(router http.Handler, accessLog io.Writer, logger *logrus.Logger, config Config) http.Handler {
	origins := config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "X-Request-Id"}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(logger),
		handlers.PrintRecoveryStack(false),
	)
	return handlers.CombinedLoggingHandler(accessLog, recovery(cors(router)))
}

func rateLimit(limiter *rate.Limiter) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeError(w, http.StatusTooManyRequests, errRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
