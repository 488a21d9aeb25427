package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"parking-slots/internal/parking"
)

// registryCollector reports free and occupied slots per class at scrape time.
type registryCollector struct {
	registry *parking.InstrumentedRegistry
	free     *prometheus.Desc
	occupied *prometheus.Desc
	total    *prometheus.Desc
}

func newRegistryCollector(registry *parking.InstrumentedRegistry) *registryCollector {
	return &registryCollector{
		registry: registry,
		free: prometheus.NewDesc("parking_slots_free",
			"Number of free slots per class.", []string{"class"}, nil),
		occupied: prometheus.NewDesc("parking_slots_occupied",
			"Number of occupied slots per class.", []string{"class"}, nil),
		total: prometheus.NewDesc("parking_slots_total",
			"Number of slots per class.", []string{"class"}, nil),
	}
}

func (c *registryCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.free
	ch <- c.occupied
	ch <- c.total
}

func (c *registryCollector) Collect(ch chan<- prometheus.Metric) {
	for _, count := range c.registry.Counts() {
		ch <- prometheus.MustNewConstMetric(c.free, prometheus.GaugeValue, float64(count.Free), count.Class)
		ch <- prometheus.MustNewConstMetric(c.occupied, prometheus.GaugeValue, float64(count.Occupied), count.Class)
		ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(count.Total), count.Class)
	}
}

func newPrometheusRegistry(registry *parking.InstrumentedRegistry) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		newRegistryCollector(registry),
	)
	return reg
}
