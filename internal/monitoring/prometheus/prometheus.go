// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package prometheus

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/canonical/taskboard/internal/logging"
	"github.com/canonical/taskboard/internal/monitoring"
)

var _ monitoring.MonitorInterface = (*Monitor)(nil)

type Monitor struct {
	service string

	responseTime           *prometheus.HistogramVec
	dependencyAvailability *prometheus.GaugeVec
	authorizationDecisions *prometheus.CounterVec
	limitChecks            *prometheus.CounterVec

	logger logging.LoggerInterface
}

func (m *Monitor) GetService() string {
	return m.service
}

func (m *Monitor) SetResponseTimeMetric(tags map[string]string, value float64) error {
	if m.responseTime == nil {
		return fmt.Errorf("metric not instantiated")
	}

	m.responseTime.With(tags).Observe(value)

	return nil
}

func (m *Monitor) SetDependencyAvailability(tags map[string]string, value float64) error {
	if m.dependencyAvailability == nil {
		return fmt.Errorf("metric not instantiated")
	}

	m.dependencyAvailability.With(tags).Set(value)

	return nil
}

func (m *Monitor) IncAuthorizationDecision(tags map[string]string) error {
	if m.authorizationDecisions == nil {
		return fmt.Errorf("metric not instantiated")
	}

	m.authorizationDecisions.With(tags).Inc()

	return nil
}

func (m *Monitor) IncLimitCheck(tags map[string]string) error {
	if m.limitChecks == nil {
		return fmt.Errorf("metric not instantiated")
	}

	m.limitChecks.With(tags).Inc()

	return nil
}

func (m *Monitor) registerHistograms() {
	m.responseTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "http_response_time_seconds",
			Help:        "http_response_time_seconds",
			ConstLabels: prometheus.Labels{"service": m.service},
		},
		[]string{"route", "status"},
	)

	if err := prometheus.Register(m.responseTime); err != nil {
		m.logger.Debugf("metric already registered: %v", err)
	}
}

func (m *Monitor) registerGauges() {
	m.dependencyAvailability = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name:        "dependency_available",
			Help:        "dependency_available",
			ConstLabels: prometheus.Labels{"service": m.service},
		},
		[]string{"component"},
	)

	if err := prometheus.Register(m.dependencyAvailability); err != nil {
		m.logger.Debugf("metric already registered: %v", err)
	}
}

func (m *Monitor) registerCounters() {
	m.authorizationDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "authorization_decisions_total",
			Help:        "authorization decisions by action, outcome and deny reason",
			ConstLabels: prometheus.Labels{"service": m.service},
		},
		[]string{"action", "outcome", "reason"},
	)

	m.limitChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "subscription_limit_checks_total",
			Help:        "subscription limit checks by resource kind and outcome",
			ConstLabels: prometheus.Labels{"service": m.service},
		},
		[]string{"kind", "outcome"},
	)

	for _, c := range []prometheus.Collector{m.authorizationDecisions, m.limitChecks} {
		if err := prometheus.Register(c); err != nil {
			m.logger.Debugf("metric already registered: %v", err)
		}
	}
}

func NewMonitor(service string, logger logging.LoggerInterface) *Monitor {
	m := new(Monitor)

	m.service = service
	m.logger = logger

	m.registerHistograms()
	m.registerGauges()
	m.registerCounters()

	return m
}
