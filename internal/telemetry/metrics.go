package telemetry

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/senyabanana/unlisted-market"

// Metrics - счетчики переходов торга. Нулевой указатель допустим и ничего не записывает.
type Metrics struct {
	transitions   metric.Int64Counter
	deals         metric.Int64Counter
	platformFees  metric.Float64Counter
	notifications metric.Int64Counter
}

// NewMetrics регистрирует инструменты в провайдере mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)

	transitions, err := meter.Int64Counter("market.transitions",
		metric.WithDescription("Status transitions of listings and bids"))
	if err != nil {
		return nil, err
	}
	deals, err := meter.Int64Counter("market.deals",
		metric.WithDescription("Deal records by resulting status"))
	if err != nil {
		return nil, err
	}
	fees, err := meter.Float64Counter("market.platform_fee",
		metric.WithDescription("Platform fee of confirmed deals"))
	if err != nil {
		return nil, err
	}
	notifications, err := meter.Int64Counter("market.notifications",
		metric.WithDescription("Notification delivery attempts by outcome"))
	if err != nil {
		return nil, err
	}
	return &Metrics{transitions: transitions, deals: deals, platformFees: fees, notifications: notifications}, nil
}

// Transition учитывает переход entity в статус status.
func (m *Metrics) Transition(ctx context.Context, entity, status string) {
	if m == nil {
		return
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("status", status)))
}

// Deal учитывает изменение сделки. Комиссия считается только для подтвержденных.
func (m *Metrics) Deal(ctx context.Context, status string, fee decimal.Decimal) {
	if m == nil {
		return
	}
	m.deals.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	if status == "confirmed" {
		m.platformFees.Add(ctx, fee.InexactFloat64())
	}
}

// Notification учитывает результат сохранения уведомления.
func (m *Metrics) Notification(ctx context.Context, ok bool) {
	if m == nil {
		return
	}
	outcome := "delivered"
	if !ok {
		outcome = "failed"
	}
	m.notifications.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
