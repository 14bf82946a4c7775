package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry 进程内的 prometheus 指标
// 所有方法对 nil 接收者安全，未启用指标时直接传 nil
type Registry struct {
	reg *prometheus.Registry

	PagesFetched    prometheus.Counter
	ItemsFetched    prometheus.Counter
	RecordsMapped   prometheus.Counter
	APIRetries      prometheus.Counter
	SinkWrites      *prometheus.CounterVec
	SinkErrors      *prometheus.CounterVec
	APIRequestSec   *prometheus.HistogramVec
	TaskRuns        *prometheus.CounterVec
	TaskDurationSec *prometheus.HistogramVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	pages := prometheus.NewCounter(prometheus.CounterOpts{Name: "demotools_pages_fetched_total"})
	items := prometheus.NewCounter(prometheus.CounterOpts{Name: "demotools_items_fetched_total"})
	mapped := prometheus.NewCounter(prometheus.CounterOpts{Name: "demotools_records_mapped_total"})
	retries := prometheus.NewCounter(prometheus.CounterOpts{Name: "demotools_api_retries_total"})
	sinkWrites := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "demotools_sink_writes_total"}, []string{"sink"})
	sinkErrors := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "demotools_sink_errors_total"}, []string{"sink"})
	apiLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "demotools_api_request_seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "code"})
	taskRuns := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "demotools_task_runs_total"}, []string{"task", "result"})
	taskDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "demotools_task_duration_seconds",
		Buckets: prometheus.ExponentialBuckets(0.1, 4, 8),
	}, []string{"task"})

	r.MustRegister(pages, items, mapped, retries, sinkWrites, sinkErrors, apiLatency, taskRuns, taskDuration)
	return &Registry{
		reg:             r,
		PagesFetched:    pages,
		ItemsFetched:    items,
		RecordsMapped:   mapped,
		APIRetries:      retries,
		SinkWrites:      sinkWrites,
		SinkErrors:      sinkErrors,
		APIRequestSec:   apiLatency,
		TaskRuns:        taskRuns,
		TaskDurationSec: taskDuration,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

// Gatherer 供测试读取指标
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

func (r *Registry) ObservePage(items int) {
	if r == nil {
		return
	}
	r.PagesFetched.Inc()
	r.ItemsFetched.Add(float64(items))
}

func (r *Registry) ObserveMapped(n int) {
	if r == nil {
		return
	}
	r.RecordsMapped.Add(float64(n))
}

func (r *Registry) ObserveRetry() {
	if r == nil {
		return
	}
	r.APIRetries.Inc()
}

func (r *Registry) ObserveRequest(method string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.APIRequestSec.WithLabelValues(method, strconv.Itoa(status)).Observe(d.Seconds())
}

func (r *Registry) ObserveSinkWrite(sink string, n int, err error) {
	if r == nil {
		return
	}
	if err != nil {
		r.SinkErrors.WithLabelValues(sink).Inc()
		return
	}
	r.SinkWrites.WithLabelValues(sink).Add(float64(n))
}

func (r *Registry) ObserveTask(task string, d time.Duration, err error) {
	if r == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	r.TaskRuns.WithLabelValues(task, result).Inc()
	r.TaskDurationSec.WithLabelValues(task).Observe(d.Seconds())
}
