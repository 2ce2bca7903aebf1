package api

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	healthChecks *prometheus.CounterVec
	databaseUp   *prometheus.GaugeVec
	notFound     prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		healthChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fully_health_checks_total",
			Help: "Health check requests by resulting status.",
		}, []string{"status"}),
		databaseUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fully_database_up",
			Help: "1 if the named database was healthy at the last health check.",
		}, []string{"name"}),
		notFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fully_not_found_total",
			Help: "Requests answered with the not-found page.",
		}),
	}
	reg.MustRegister(m.healthChecks, m.databaseUp, m.notFound)
	return m
}

func (m *metrics) observeHealth(status string, databases map[string]bool) {
	m.healthChecks.WithLabelValues(status).Inc()
	for name, up := range databases {
		v := 0.0
		if up {
			v = 1
		}
		m.databaseUp.WithLabelValues(name).Set(v)
	}
}
