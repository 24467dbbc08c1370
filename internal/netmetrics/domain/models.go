package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	MetricTotalNetRevenue     = "Total Net Revenue"
	MetricAverageOrderValue   = "Average Order Value (AOV)"
	MetricAttachRate          = "Accessory Attach Rate"
	MetricEstimatedCommission = "Est. Commission"
)

// Service computes net metrics from a loaded store. A line item is net when
// no return references it; every figure is computed on net items only.
type Service interface {
	Compute(ctx context.Context) (Report, error)
}

// Metric is one row of the KPI table. An invalid Value means undefined,
// which is distinct from zero.
type Metric struct {
	Name  string              `json:"metric"`
	Value decimal.NullDecimal `json:"value"`
}

type DailyRevenue struct {
	Date       time.Time       `json:"sale_date"`
	NetRevenue decimal.Decimal `json:"net_revenue"`
}

type RepRevenue struct {
	RepID      int64           `json:"rep_id"`
	RepName    string          `json:"rep_name"`
	NetRevenue decimal.Decimal `json:"net_revenue"`
}

type Summary struct {
	TotalNetRevenue     decimal.Decimal
	AverageOrderValue   decimal.NullDecimal
	AttachRate          decimal.NullDecimal
	EstimatedCommission decimal.Decimal
	CommissionRate      decimal.Decimal

	NetSales    int64
	NetDevices  int64
	NetAddOns   int64
	ReturnCount int64
}

// Report is the fully computed metric set handed to the reporting stage.
type Report struct {
	Summary Summary
	ByDay   []DailyRevenue
	ByRep   []RepRevenue
}

// Metrics returns the four KPI rows in display order.
func (s Summary) Metrics() []Metric {
	return []Metric{
		{Name: MetricTotalNetRevenue, Value: defined(s.TotalNetRevenue)},
		{Name: MetricAverageOrderValue, Value: s.AverageOrderValue},
		{Name: MetricAttachRate, Value: s.AttachRate},
		{Name: CommissionLabel(s.CommissionRate), Value: defined(s.EstimatedCommission)},
	}
}

// CommissionLabel names the commission metric after its rate, e.g.
// "Est. Commission (2%)".
func CommissionLabel(rate decimal.Decimal) string {
	return MetricEstimatedCommission + " (" + rate.Mul(decimal.NewFromInt(100)).String() + "%)"
}

func defined(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
