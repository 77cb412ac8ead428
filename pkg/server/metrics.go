package server

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	submissions *prometheus.CounterVec
	fetches     *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "answer_store",
			Name:      "submissions_total",
			Help:      "Answer submissions by result: stored, rejected or error.",
		}, []string{"result"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "answer_store",
			Name:      "fetches_total",
			Help:      "Answer reads by result: ok or error.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.submissions, m.fetches)
	return m
}
