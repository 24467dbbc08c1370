package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	netmetrics "github.com/smallbiznis/telcostore/internal/netmetrics/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const netItemFilter = `NOT EXISTS (SELECT 1 FROM returns r WHERE r.sale_item_id = si.sale_item_id)`

type Service struct {
	db             *gorm.DB
	log            *zap.Logger
	commissionRate decimal.Decimal
}

func NewService(db *gorm.DB, log *zap.Logger, commissionRate decimal.Decimal) netmetrics.Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		db:             db,
		log:            log.Named("netmetrics.service"),
		commissionRate: commissionRate,
	}
}

func (s *Service) Compute(ctx context.Context) (netmetrics.Report, error) {
	byDay, err := s.RevenueByDay(ctx)
	if err != nil {
		return netmetrics.Report{}, err
	}
	byRep, err := s.RevenueByRep(ctx)
	if err != nil {
		return netmetrics.Report{}, err
	}

	total := decimal.Zero
	for _, d := range byDay {
		total = total.Add(d.NetRevenue)
	}

	summary := netmetrics.Summary{
		TotalNetRevenue:     total,
		EstimatedCommission: total.Mul(s.commissionRate).Round(2),
		CommissionRate:      s.commissionRate,
	}

	if err := s.averageOrderValue(ctx, &summary); err != nil {
		return netmetrics.Report{}, err
	}
	if err := s.attachRate(ctx, &summary); err != nil {
		return netmetrics.Report{}, err
	}
	if err := s.db.WithContext(ctx).Table("returns").Count(&summary.ReturnCount).Error; err != nil {
		return netmetrics.Report{}, fmt.Errorf("count returns: %w", err)
	}

	s.log.Debug("net metrics computed",
		zap.String("total_net_revenue", total.StringFixed(2)),
		zap.Int64("net_sales", summary.NetSales),
		zap.Int64("net_devices", summary.NetDevices),
		zap.Int64("net_add_ons", summary.NetAddOns),
	)
	return netmetrics.Report{Summary: summary, ByDay: byDay, ByRep: byRep}, nil
}

type dailyRevenueRow struct {
	SaleDate   string          `gorm:"column:sale_date"`
	NetRevenue decimal.Decimal `gorm:"column:net_revenue"`
}

// RevenueByDay returns net revenue per calendar date, oldest first.
func (s *Service) RevenueByDay(ctx context.Context) ([]netmetrics.DailyRevenue, error) {
	var rows []dailyRevenueRow
	query := `
		SELECT DATE(s.sale_datetime) AS sale_date,
		       SUM(si.unit_price * si.quantity - si.discount_amount) AS net_revenue
		FROM sales s
		JOIN sale_items si ON si.sale_id = s.sale_id
		WHERE ` + netItemFilter + `
		GROUP BY DATE(s.sale_datetime)
		ORDER BY sale_date ASC`

	if err := s.db.WithContext(ctx).Raw(query).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("revenue by day: %w", err)
	}

	out := make([]netmetrics.DailyRevenue, 0, len(rows))
	for _, row := range rows {
		date, err := parseDate(row.SaleDate)
		if err != nil {
			return nil, err
		}
		out = append(out, netmetrics.DailyRevenue{
			Date:       date,
			NetRevenue: row.NetRevenue.Round(2),
		})
	}
	return out, nil
}

type repRevenueRow struct {
	RepID      int64           `gorm:"column:rep_id"`
	RepName    string          `gorm:"column:rep_name"`
	NetRevenue decimal.Decimal `gorm:"column:net_revenue"`
}

// RevenueByRep returns net revenue per rep, highest first. Ties are broken
// by rep id.
func (s *Service) RevenueByRep(ctx context.Context) ([]netmetrics.RepRevenue, error) {
	var rows []repRevenueRow
	query := `
		SELECT s.rep_id AS rep_id,
		       rp.rep_name AS rep_name,
		       SUM(si.unit_price * si.quantity - si.discount_amount) AS net_revenue
		FROM sales s
		JOIN sale_items si ON si.sale_id = s.sale_id
		JOIN reps rp ON rp.rep_id = s.rep_id
		WHERE ` + netItemFilter + `
		GROUP BY s.rep_id, rp.rep_name
		ORDER BY net_revenue DESC, s.rep_id ASC`

	if err := s.db.WithContext(ctx).Raw(query).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("revenue by rep: %w", err)
	}

	out := make([]netmetrics.RepRevenue, 0, len(rows))
	for _, row := range rows {
		out = append(out, netmetrics.RepRevenue{
			RepID:      row.RepID,
			RepName:    row.RepName,
			NetRevenue: row.NetRevenue.Round(2),
		})
	}
	return out, nil
}

type saleTotalRow struct {
	SaleID    int64           `gorm:"column:sale_id"`
	SaleTotal decimal.Decimal `gorm:"column:sale_total"`
}

// averageOrderValue averages per-sale net totals over sales with at least
// one net item. Fully returned sales drop out of both sides. sqlite sums
// NUMERIC columns as REAL, so each sale total is snapped back to cents and
// the mean is taken in decimal.
func (s *Service) averageOrderValue(ctx context.Context, summary *netmetrics.Summary) error {
	var rows []saleTotalRow
	query := `
		SELECT si.sale_id AS sale_id,
		       SUM(si.unit_price * si.quantity - si.discount_amount) AS sale_total
		FROM sale_items si
		WHERE ` + netItemFilter + `
		GROUP BY si.sale_id`

	if err := s.db.WithContext(ctx).Raw(query).Scan(&rows).Error; err != nil {
		return fmt.Errorf("average order value: %w", err)
	}

	summary.NetSales = int64(len(rows))
	if len(rows) == 0 {
		return nil
	}
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.SaleTotal.Round(2))
	}
	summary.AverageOrderValue = decimal.NullDecimal{
		Decimal: total.Div(decimal.NewFromInt(summary.NetSales)).Round(2),
		Valid:   true,
	}
	return nil
}

type attachRow struct {
	Devices int64 `gorm:"column:devices"`
	AddOns  int64 `gorm:"column:add_ons"`
}

// attachRate divides net add-on quantity by net device quantity. With no
// net devices the rate is undefined.
func (s *Service) attachRate(ctx context.Context, summary *netmetrics.Summary) error {
	var row attachRow
	query := `
		SELECT COALESCE(SUM(CASE WHEN p.category = 'Device' THEN si.quantity ELSE 0 END), 0) AS devices,
		       COALESCE(SUM(CASE WHEN p.category IN ('Accessory', 'Protection') THEN si.quantity ELSE 0 END), 0) AS add_ons
		FROM sale_items si
		JOIN products p ON p.product_id = si.product_id
		WHERE si.item_type = 'Product'
		  AND ` + netItemFilter

	if err := s.db.WithContext(ctx).Raw(query).Scan(&row).Error; err != nil {
		return fmt.Errorf("attach rate: %w", err)
	}

	summary.NetDevices = row.Devices
	summary.NetAddOns = row.AddOns
	if row.Devices == 0 {
		return nil
	}
	summary.AttachRate = decimal.NullDecimal{
		Decimal: decimal.NewFromInt(row.AddOns).Div(decimal.NewFromInt(row.Devices)),
		Valid:   true,
	}
	return nil
}

// parseDate accepts the DATE() output of both dialects: a plain date from
// sqlite or an RFC 3339 timestamp from postgres.
func parseDate(value string) (time.Time, error) {
	if len(value) < len(time.DateOnly) {
		return time.Time{}, fmt.Errorf("unexpected sale date %q", value)
	}
	return time.ParseInLocation(time.DateOnly, value[:len(time.DateOnly)], time.UTC)
}
