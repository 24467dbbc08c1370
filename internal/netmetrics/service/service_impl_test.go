package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/telcostore/internal/config"
	"github.com/smallbiznis/telcostore/internal/loader"
	netmetrics "github.com/smallbiznis/telcostore/internal/netmetrics/domain"
	"github.com/smallbiznis/telcostore/internal/randstream"
	"github.com/smallbiznis/telcostore/internal/referencedata"
	"github.com/smallbiznis/telcostore/internal/retail/domain"
	"github.com/smallbiznis/telcostore/internal/simulation"
	"github.com/smallbiznis/telcostore/pkg/db"
	"github.com/stretchr/testify/require"
)

var (
	day0 = time.Date(2025, 2, 10, 9, 0, 0, 0, time.UTC)
	rate = decimal.RequireFromString("0.02")
)

func setupStore(t *testing.T, ds domain.Dataset) *Service {
	t.Helper()
	conn, err := db.NewTest(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(conn) })

	require.NoError(t, loader.Insert(context.Background(), conn, ds, nil))
	return NewService(conn, nil, rate).(*Service)
}

func ptr(v int64) *int64 { return &v }

// fixture builds a store with two reps, one plan, a device and an accessory.
func fixture() domain.Dataset {
	return domain.Dataset{
		ReferenceData: domain.ReferenceData{
			Customers: []domain.Customer{{ID: 1, FirstName: "Neel", LastName: "Patel", City: "Regina", Segment: "Student", CreatedAt: day0.AddDate(0, -1, 0)}},
			Reps: []domain.Rep{
				{ID: 1, Name: "Samar", StoreCity: "Regina"},
				{ID: 2, Name: "Avery", StoreCity: "Regina"},
			},
			Plans: []domain.Plan{{ID: 1, Name: "Everyday 30GB", Type: domain.PlanTypePostpaid, DataGB: 30, MonthlyPrice: decimal.NewFromInt(65)}},
			Products: []domain.Product{
				{ID: 1, SKU: "DEV-1", Name: "Phone", Category: domain.CategoryDevice, Brand: "Test", UnitCost: decimal.NewFromInt(600), UnitPrice: decimal.NewFromInt(900)},
				{ID: 2, SKU: "ACC-1", Name: "Case", Category: domain.CategoryAccessory, Brand: "Generic", UnitCost: decimal.NewFromInt(8), UnitPrice: decimal.NewFromInt(29)},
			},
			Inventory: []domain.InventoryRecord{
				{ProductID: 1, StockOnHand: 4, ReorderLevel: 5},
				{ProductID: 2, StockOnHand: 20, ReorderLevel: 10},
			},
		},
	}
}

func addSale(ds *domain.Dataset, rep int64, at time.Time) int64 {
	id := int64(len(ds.Sales) + 1)
	ds.Sales = append(ds.Sales, domain.Sale{ID: id, SoldAt: at, RepID: rep, CustomerID: 1, Channel: domain.ChannelInStore})
	return id
}

func addProduct(ds *domain.Dataset, sale, product int64, price, discount int64) int64 {
	id := int64(len(ds.SaleItems) + 1)
	ds.SaleItems = append(ds.SaleItems, domain.SaleItem{
		ID: id, SaleID: sale, ItemType: domain.ItemTypeProduct, ProductID: ptr(product), Quantity: 1,
		UnitPrice: decimal.NewFromInt(price), DiscountAmount: decimal.NewFromInt(discount),
	})
	return id
}

func addPlan(ds *domain.Dataset, sale int64) int64 {
	id := int64(len(ds.SaleItems) + 1)
	ds.SaleItems = append(ds.SaleItems, domain.SaleItem{
		ID: id, SaleID: sale, ItemType: domain.ItemTypePlan, PlanID: ptr(1), Quantity: 1,
		UnitPrice: decimal.NewFromInt(65), DiscountAmount: decimal.Zero,
	})
	return id
}

func addReturn(ds *domain.Dataset, item int64, at time.Time) {
	ds.Returns = append(ds.Returns, domain.Return{
		ID: int64(len(ds.Returns) + 1), SaleItemID: item, ReturnedAt: at.AddDate(0, 0, 2), Reason: "Defective",
	})
}

func TestComputeSingleBundleSale(t *testing.T) {
	ds := fixture()
	sale := addSale(&ds, 1, day0)
	addProduct(&ds, sale, 1, 900, 0)
	addPlan(&ds, sale)

	report, err := setupStore(t, ds).Compute(context.Background())
	require.NoError(t, err)

	require.Len(t, report.ByDay, 1)
	require.Equal(t, "2025-02-10", report.ByDay[0].Date.Format(time.DateOnly))
	require.Equal(t, "965.00", report.ByDay[0].NetRevenue.StringFixed(2))

	s := report.Summary
	require.Equal(t, "965.00", s.TotalNetRevenue.StringFixed(2))
	require.True(t, s.AverageOrderValue.Valid)
	require.Equal(t, "965.00", s.AverageOrderValue.Decimal.StringFixed(2))
	require.True(t, s.AttachRate.Valid)
	require.True(t, s.AttachRate.Decimal.IsZero())
	require.Equal(t, "19.30", s.EstimatedCommission.StringFixed(2))

	metrics := s.Metrics()
	require.Len(t, metrics, 4)
	require.Equal(t, "Est. Commission (2%)", metrics[3].Name)
}

func TestComputeExcludesReturnedItems(t *testing.T) {
	ds := fixture()
	s1 := addSale(&ds, 1, day0)
	addProduct(&ds, s1, 1, 900, 50)
	addPlan(&ds, s1)
	returned := addProduct(&ds, s1, 2, 29, 0)
	addReturn(&ds, returned, day0)

	s2 := addSale(&ds, 2, day0.AddDate(0, 0, 1))
	addProduct(&ds, s2, 2, 29, 0)
	addPlan(&ds, s2)

	report, err := setupStore(t, ds).Compute(context.Background())
	require.NoError(t, err)

	require.Len(t, report.ByDay, 2)
	require.Equal(t, "915.00", report.ByDay[0].NetRevenue.StringFixed(2))
	require.Equal(t, "94.00", report.ByDay[1].NetRevenue.StringFixed(2))
	require.Equal(t, "1009.00", report.Summary.TotalNetRevenue.StringFixed(2))

	require.Len(t, report.ByRep, 2)
	require.Equal(t, "Samar", report.ByRep[0].RepName)
	require.Equal(t, "915.00", report.ByRep[0].NetRevenue.StringFixed(2))
	require.Equal(t, "Avery", report.ByRep[1].RepName)

	// One device, one net accessory; the returned case does not count.
	require.Equal(t, int64(1), report.Summary.NetDevices)
	require.Equal(t, int64(1), report.Summary.NetAddOns)
	require.Equal(t, "1", report.Summary.AttachRate.Decimal.String())
	require.Equal(t, int64(1), report.Summary.ReturnCount)
}

func TestAttachRateUndefinedWithoutNetDevices(t *testing.T) {
	ds := fixture()
	s1 := addSale(&ds, 1, day0)
	addPlan(&ds, s1)
	addProduct(&ds, s1, 2, 29, 0)

	// A returned device does not count toward the denominator.
	s2 := addSale(&ds, 1, day0)
	device := addProduct(&ds, s2, 1, 900, 0)
	addReturn(&ds, device, day0)

	report, err := setupStore(t, ds).Compute(context.Background())
	require.NoError(t, err)

	require.False(t, report.Summary.AttachRate.Valid)
	require.Equal(t, int64(0), report.Summary.NetDevices)
	require.False(t, report.Summary.Metrics()[2].Value.Valid)
}

func TestAverageOrderValueSkipsFullyReturnedSales(t *testing.T) {
	ds := fixture()
	s1 := addSale(&ds, 1, day0)
	addPlan(&ds, s1)
	addProduct(&ds, s1, 2, 29, 0)

	s2 := addSale(&ds, 2, day0)
	item := addProduct(&ds, s2, 1, 900, 0)
	addReturn(&ds, item, day0)

	report, err := setupStore(t, ds).Compute(context.Background())
	require.NoError(t, err)

	require.Equal(t, int64(1), report.Summary.NetSales)
	require.Equal(t, "94.00", report.Summary.AverageOrderValue.Decimal.StringFixed(2))
	require.Len(t, report.ByRep, 1)
}

func TestComputeOnEmptyStore(t *testing.T) {
	report, err := setupStore(t, fixture()).Compute(context.Background())
	require.NoError(t, err)

	require.Empty(t, report.ByDay)
	require.Empty(t, report.ByRep)
	require.True(t, report.Summary.TotalNetRevenue.IsZero())
	require.False(t, report.Summary.AverageOrderValue.Valid)
	require.False(t, report.Summary.AttachRate.Valid)
}

func TestComputeMatchesInMemoryAggregation(t *testing.T) {
	anchor := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	rs := randstream.New(7)
	ref, err := referencedata.NewFactory(config.DefaultRules()).Build(rs, 60, anchor)
	require.NoError(t, err)
	tx, err := simulation.NewEngine(simulation.DefaultPolicy()).Generate(ref, simulation.Params{
		Days: 30, SalesPerDayMin: 6, SalesPerDayMax: 16, Anchor: anchor,
	}, rs)
	require.NoError(t, err)
	ds := domain.Dataset{ReferenceData: ref, Transactions: tx}

	returned := map[int64]bool{}
	for _, r := range ds.Returns {
		returned[r.SaleItemID] = true
	}
	saleDay := map[int64]string{}
	for _, s := range ds.Sales {
		saleDay[s.ID] = s.SoldAt.Format(time.DateOnly)
	}
	byDay := map[string]decimal.Decimal{}
	total := decimal.Zero
	for _, it := range ds.SaleItems {
		if returned[it.ID] {
			continue
		}
		day := saleDay[it.SaleID]
		byDay[day] = byDay[day].Add(it.LineTotal())
		total = total.Add(it.LineTotal())
	}
	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)

	report, err := setupStore(t, ds).Compute(context.Background())
	require.NoError(t, err)

	require.Len(t, report.ByDay, len(days))
	for i, d := range days {
		require.Equal(t, d, report.ByDay[i].Date.Format(time.DateOnly))
		require.Equal(t, byDay[d].StringFixed(2), report.ByDay[i].NetRevenue.StringFixed(2))
	}
	require.Equal(t, total.StringFixed(2), report.Summary.TotalNetRevenue.StringFixed(2))
	require.Equal(t, total.Mul(rate).StringFixed(2), report.Summary.EstimatedCommission.StringFixed(2))

	for i := 1; i < len(report.ByRep); i++ {
		require.False(t, report.ByRep[i].NetRevenue.GreaterThan(report.ByRep[i-1].NetRevenue), "reps must be sorted descending")
	}
}

func TestAverageOrderValueRoundsHalfCentUp(t *testing.T) {
	ds := fixture()
	ds.Products = append(ds.Products,
		domain.Product{ID: 3, SKU: "ACC-2", Name: "Cable", Category: domain.CategoryAccessory, Brand: "Generic", UnitCost: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("10.02")},
		domain.Product{ID: 4, SKU: "ACC-3", Name: "Stand", Category: domain.CategoryAccessory, Brand: "Generic", UnitCost: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("10.03")},
	)
	ds.Inventory = append(ds.Inventory,
		domain.InventoryRecord{ProductID: 3, StockOnHand: 10, ReorderLevel: 10},
		domain.InventoryRecord{ProductID: 4, StockOnHand: 10, ReorderLevel: 10},
	)
	for _, p := range ds.Products[2:] {
		sale := addSale(&ds, 1, day0)
		ds.SaleItems = append(ds.SaleItems, domain.SaleItem{
			ID: int64(len(ds.SaleItems) + 1), SaleID: sale, ItemType: domain.ItemTypeProduct, ProductID: ptr(p.ID), Quantity: 1,
			UnitPrice: p.UnitPrice, DiscountAmount: decimal.Zero,
		})
	}

	report, err := setupStore(t, ds).Compute(context.Background())
	require.NoError(t, err)

	aov := report.Summary.AverageOrderValue
	require.True(t, aov.Valid)
	require.Equal(t, "10.03", aov.Decimal.String())
	require.Equal(t, "20.05", report.Summary.TotalNetRevenue.StringFixed(2))
}

var _ netmetrics.Service = (*Service)(nil)
