package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the application collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	DonorSearches      *prometheus.CounterVec
	SearchCandidates   prometheus.Histogram
	DonorCacheLookups  *prometheus.CounterVec
	WorkflowSteps      *prometheus.CounterVec
	RequestsCreated    *prometheus.CounterVec
	DonorResponses     prometheus.Counter
	RequestsExpired    prometheus.Counter
	HTTPRequestLatency *prometheus.HistogramVec
}

func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		DonorSearches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "donor_searches_total",
			Help:      "Donor searches by mode (nearby, unbounded)",
		}, []string{"mode"}),
		SearchCandidates: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "donor_search_candidates",
			Help:      "Number of candidates returned per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		}),
		DonorCacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "donor_cache_lookups_total",
			Help:      "Donor pool cache lookups by result",
		}, []string{"result"}),
		WorkflowSteps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emergency_workflow_transitions_total",
			Help:      "Emergency workflow transitions by action and result",
		}, []string{"action", "result"}),
		RequestsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blood_requests_created_total",
			Help:      "Blood requests activated by source and urgency",
		}, []string{"source", "urgency"}),
		DonorResponses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "donor_responses_total",
			Help:      "Donor responses appended to requests",
		}),
		RequestsExpired: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blood_requests_expired_total",
			Help:      "Active requests expired by the background worker",
		}),
		HTTPRequestLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveSearch(mode string, candidates int) {
	if m == nil {
		return
	}
	m.DonorSearches.WithLabelValues(mode).Inc()
	m.SearchCandidates.Observe(float64(candidates))
}

func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.DonorCacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) Transition(action string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.WorkflowSteps.WithLabelValues(action, result).Inc()
}

func (m *Metrics) RequestCreated(source, urgency string) {
	if m == nil {
		return
	}
	m.RequestsCreated.WithLabelValues(source, urgency).Inc()
}

func (m *Metrics) ResponseAdded() {
	if m == nil {
		return
	}
	m.DonorResponses.Inc()
}

func (m *Metrics) Expired(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.RequestsExpired.Add(float64(n))
}

// Middleware records request latency labelled by the chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequestLatency.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}
