package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "catalogsync"

// Run outcomes used as the result label of catalogsync_sync_runs_total.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultSkipped = "skipped"
)

// Registry holds sync collectors on a dedicated prometheus registry.
// A nil *Registry is valid and records nothing.
type Registry struct {
	reg *prometheus.Registry

	Runs            *prometheus.CounterVec
	Running         prometheus.Gauge
	RunDuration     prometheus.Histogram
	LastSuccess     prometheus.Gauge
	OrdersSynced    prometheus.Counter
	OrderErrors     prometheus.Counter
	OrdersDeleted   prometheus.Counter
	ProductsDeleted prometheus.Counter
	ProductsFetched prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_runs_total",
		Help:      "Sync runs by result.",
	}, []string{"result"})
	running := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sync_running",
		Help:      "1 while a sync run is in progress.",
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sync_duration_seconds",
		Help:      "Duration of sync runs.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
	})
	lastSuccess := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sync_last_success_timestamp_seconds",
		Help:      "Unix time of the last successful sync run.",
	})
	ordersSynced := prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "orders_synced_total"})
	orderErrors := prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "order_errors_total"})
	ordersDeleted := prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "orders_deleted_total"})
	productsDeleted := prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "products_deleted_total"})
	productsFetched := prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "products_fetched_total"})

	r.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		runs, running, duration, lastSuccess,
		ordersSynced, orderErrors, ordersDeleted, productsDeleted, productsFetched,
	)

	return &Registry{
		reg:             r,
		Runs:            runs,
		Running:         running,
		RunDuration:     duration,
		LastSuccess:     lastSuccess,
		OrdersSynced:    ordersSynced,
		OrderErrors:     orderErrors,
		OrdersDeleted:   ordersDeleted,
		ProductsDeleted: productsDeleted,
		ProductsFetched: productsFetched,
	}
}

// RunStarted marks a sync run as in progress.
func (r *Registry) RunStarted() {
	if r == nil {
		return
	}
	r.Running.Set(1)
}

// RunFinished records the outcome of a run that was started.
func (r *Registry) RunFinished(err error, elapsed time.Duration, finishedAt time.Time) {
	if r == nil {
		return
	}
	r.Running.Set(0)
	r.RunDuration.Observe(elapsed.Seconds())
	if err != nil {
		r.Runs.WithLabelValues(ResultFailure).Inc()
		return
	}
	r.Runs.WithLabelValues(ResultSuccess).Inc()
	r.LastSuccess.Set(float64(finishedAt.Unix()))
}

// RunSkipped counts a trigger rejected because another run was in progress.
func (r *Registry) RunSkipped() {
	if r == nil {
		return
	}
	r.Runs.WithLabelValues(ResultSkipped).Inc()
}

func (r *Registry) OrdersProcessed(synced, errors int) {
	if r == nil {
		return
	}
	r.OrdersSynced.Add(float64(synced))
	r.OrderErrors.Add(float64(errors))
}

func (r *Registry) Cleaned(orders, products int64) {
	if r == nil {
		return
	}
	r.OrdersDeleted.Add(float64(orders))
	r.ProductsDeleted.Add(float64(products))
}

func (r *Registry) ProductFetched() {
	if r == nil {
		return
	}
	r.ProductsFetched.Inc()
}

// Gatherer exposes collected families, mostly for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
