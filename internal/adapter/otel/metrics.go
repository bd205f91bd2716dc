package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "athena"

// Metrics holds all hub metric instruments.
type Metrics struct {
	ChecklistToggles metric.Int64Counter
	AlertsRaised     metric.Int64Counter
	AlertsResolved   metric.Int64Counter
	RevenueEvents    metric.Int64Counter
	RevenueAmount    metric.Float64Counter
	ReviewSyncs      metric.Int64Counter
	ReviewSyncErrors metric.Int64Counter
	SnapshotPushes   metric.Int64Counter
	SnapshotBuild    metric.Float64Histogram
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.ChecklistToggles, err = meter.Int64Counter("athena.checklist.toggles",
		metric.WithDescription("Number of checklist item updates"))
	if err != nil {
		return nil, err
	}

	m.AlertsRaised, err = meter.Int64Counter("athena.alerts.raised",
		metric.WithDescription("Number of alerts raised"))
	if err != nil {
		return nil, err
	}

	m.AlertsResolved, err = meter.Int64Counter("athena.alerts.resolved",
		metric.WithDescription("Number of alerts acknowledged"))
	if err != nil {
		return nil, err
	}

	m.RevenueEvents, err = meter.Int64Counter("athena.revenue.events",
		metric.WithDescription("Number of confirmed revenue events"))
	if err != nil {
		return nil, err
	}

	m.RevenueAmount, err = meter.Float64Counter("athena.revenue.amount",
		metric.WithDescription("Confirmed revenue amount"),
		metric.WithUnit("EUR"))
	if err != nil {
		return nil, err
	}

	m.ReviewSyncs, err = meter.Int64Counter("athena.reviews.synced",
		metric.WithDescription("Number of successful review syncs"))
	if err != nil {
		return nil, err
	}

	m.ReviewSyncErrors, err = meter.Int64Counter("athena.reviews.sync_errors",
		metric.WithDescription("Number of failed review fetches"))
	if err != nil {
		return nil, err
	}

	m.SnapshotPushes, err = meter.Int64Counter("athena.dashboard.pushes",
		metric.WithDescription("Number of dashboard snapshots pushed to viewers"))
	if err != nil {
		return nil, err
	}

	m.SnapshotBuild, err = meter.Float64Histogram("athena.dashboard.build_seconds",
		metric.WithDescription("Time to build and encode a dashboard snapshot"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
