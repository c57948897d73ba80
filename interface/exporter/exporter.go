package exporter

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	METRIC_ERROR_COUNT         = "error_count"
	METRIC_TX_SUBMITTED_COUNT  = "tx_submitted_count"
	METRIC_TX_CONFIRMED_COUNT  = "tx_confirmed_count"
	METRIC_EVENT_REFRESH_COUNT = "event_refresh_count"
	METRIC_NOTIFICATION_COUNT  = "notification_count"
	METRIC_DROPPED_NOTIF_COUNT = "dropped_notification_count"
)

var (
	counters map[string]prometheus.Counter
)

func Init() {

	// --- Static Metrics: the metrics which are not depended on running configuration

	// Create metric spaces
	counters = make(map[string]prometheus.Counter)

	register := func(name string, help string) {
		counter := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ghooey",
			Subsystem: "driver",
			Name:      name,
			Help:      help,
		})
		prometheus.MustRegister(counter)
		counters[name] = counter
	}

	register(METRIC_ERROR_COUNT, "Counts the number of failed write operations")
	register(METRIC_TX_SUBMITTED_COUNT, "Counts the number of submitted transactions")
	register(METRIC_TX_CONFIRMED_COUNT, "Counts the number of confirmed transactions")
	register(METRIC_EVENT_REFRESH_COUNT, "Counts the cache refreshes triggered by contract events")
	register(METRIC_NOTIFICATION_COUNT, "Counts the emitted domain notifications")
	register(METRIC_DROPPED_NOTIF_COUNT, "Counts the notifications dropped by slow subscribers")
}

func GetCounter(name string) prometheus.Counter {
	return counters[name]
}

// add is a no-op before Init so library consumers without the metrics
// endpoint still work.
func add(name string, n float64) {
	if counter, ok := counters[name]; ok {
		counter.Add(n)
	}
}

func IncErrorCount() {
	add(METRIC_ERROR_COUNT, 1)
}

func AddSubmittedTxCount(n int) {
	add(METRIC_TX_SUBMITTED_COUNT, float64(n))
}

func AddConfirmedTxCount(n int) {
	add(METRIC_TX_CONFIRMED_COUNT, float64(n))
}

func IncEventRefreshCount() {
	add(METRIC_EVENT_REFRESH_COUNT, 1)
}

func IncNotificationCount() {
	add(METRIC_NOTIFICATION_COUNT, 1)
}

func IncDroppedNotificationCount() {
	add(METRIC_DROPPED_NOTIF_COUNT, 1)
}
