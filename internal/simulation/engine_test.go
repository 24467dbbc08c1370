package simulation

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/telcostore/internal/config"
	"github.com/smallbiznis/telcostore/internal/randstream"
	"github.com/smallbiznis/telcostore/internal/referencedata"
	"github.com/smallbiznis/telcostore/internal/retail/domain"
	"github.com/stretchr/testify/require"
)

var anchor = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func defaultRun(t *testing.T, seed uint64) (domain.ReferenceData, domain.Transactions) {
	t.Helper()
	rs := randstream.New(seed)
	ref, err := referencedata.NewFactory(config.DefaultRules()).Build(rs, 250, anchor)
	require.NoError(t, err)

	tx, err := NewEngine(DefaultPolicy()).Generate(ref, Params{
		Days: 60, SalesPerDayMin: 6, SalesPerDayMax: 16, Anchor: anchor,
	}, rs)
	require.NoError(t, err)
	return ref, tx
}

func TestGenerateReferentialClosure(t *testing.T) {
	ref, tx := defaultRun(t, 7)
	require.NotEmpty(t, tx.Sales)

	reps := map[int64]bool{}
	for _, r := range ref.Reps {
		reps[r.ID] = true
	}
	customers := map[int64]bool{}
	for _, c := range ref.Customers {
		customers[c.ID] = true
	}
	plans := map[int64]bool{}
	for _, p := range ref.Plans {
		plans[p.ID] = true
	}
	products := map[int64]domain.Product{}
	for _, p := range ref.Products {
		products[p.ID] = p
	}

	sales := map[int64]domain.Sale{}
	for _, s := range tx.Sales {
		require.True(t, reps[s.RepID], "sale %d has unknown rep %d", s.ID, s.RepID)
		require.True(t, customers[s.CustomerID], "sale %d has unknown customer %d", s.ID, s.CustomerID)
		sales[s.ID] = s
	}

	items := map[int64]domain.SaleItem{}
	itemsPerSale := map[int64]int{}
	for _, it := range tx.SaleItems {
		_, ok := sales[it.SaleID]
		require.True(t, ok, "item %d references missing sale %d", it.ID, it.SaleID)
		items[it.ID] = it
		itemsPerSale[it.SaleID]++

		switch it.ItemType {
		case domain.ItemTypePlan:
			require.NotNil(t, it.PlanID)
			require.Nil(t, it.ProductID)
			require.True(t, plans[*it.PlanID])
		case domain.ItemTypeProduct:
			require.NotNil(t, it.ProductID)
			require.Nil(t, it.PlanID)
			_, ok := products[*it.ProductID]
			require.True(t, ok)
		default:
			t.Fatalf("unexpected item type %q", it.ItemType)
		}
		require.GreaterOrEqual(t, it.Quantity, 1)
	}
	for _, s := range tx.Sales {
		require.Positive(t, itemsPerSale[s.ID], "sale %d has no items", s.ID)
	}

	returned := map[int64]bool{}
	for _, r := range tx.Returns {
		it, ok := items[r.SaleItemID]
		require.True(t, ok, "return %d references missing item %d", r.ID, r.SaleItemID)
		require.False(t, returned[r.SaleItemID], "item %d returned twice", r.SaleItemID)
		returned[r.SaleItemID] = true

		sale := sales[it.SaleID]
		require.Equal(t, domain.ItemTypeProduct, it.ItemType)
		require.Equal(t, domain.ChannelInStore, sale.Channel)

		gap := r.ReturnedAt.Sub(sale.SoldAt)
		if gap < 24*time.Hour || gap > 14*24*time.Hour {
			t.Fatalf("return %d is %s after its sale", r.ID, gap)
		}
	}
}

func TestGenerateIdentifiersAreSequential(t *testing.T) {
	_, tx := defaultRun(t, 3)

	for i, s := range tx.Sales {
		require.Equal(t, int64(i+1), s.ID)
	}
	for i, it := range tx.SaleItems {
		require.Equal(t, int64(i+1), it.ID)
	}
	for i, r := range tx.Returns {
		require.Equal(t, int64(i+1), r.ID)
	}
}

func TestGenerateDiscountsOnlyOnDevices(t *testing.T) {
	ref, tx := defaultRun(t, 21)

	categories := map[int64]domain.Category{}
	for _, p := range ref.Products {
		categories[p.ID] = p.Category
	}
	pool := map[string]bool{}
	for _, d := range DefaultPolicy().DeviceDiscounts {
		pool[d.String()] = true
	}

	for _, it := range tx.SaleItems {
		isDevice := it.ItemType == domain.ItemTypeProduct && categories[*it.ProductID] == domain.CategoryDevice
		if !isDevice {
			require.True(t, it.DiscountAmount.IsZero(), "item %d is discounted", it.ID)
			continue
		}
		require.True(t, pool[it.DiscountAmount.String()], "discount %s not in pool", it.DiscountAmount)
	}
}

func TestGenerateSalesInsideHorizon(t *testing.T) {
	_, tx := defaultRun(t, 5)

	first := anchor.AddDate(0, 0, -60)
	for i, s := range tx.Sales {
		if s.SoldAt.Before(first) || !s.SoldAt.Before(anchor) {
			t.Fatalf("sale %d at %s outside horizon", s.ID, s.SoldAt)
		}
		if s.SoldAt.Hour() < 9 || s.SoldAt.Hour() > 19 {
			t.Fatalf("sale %d at %s outside opening window", s.ID, s.SoldAt)
		}
		if i > 0 {
			prevDay := tx.Sales[i-1].SoldAt.Truncate(24 * time.Hour)
			require.False(t, s.SoldAt.Truncate(24*time.Hour).Before(prevDay), "days must be generated oldest first")
		}
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	refA, a := defaultRun(t, 99)
	refB, b := defaultRun(t, 99)
	require.Equal(t, refA, refB)
	require.Equal(t, a, b)

	_, c := defaultRun(t, 100)
	require.NotEqual(t, a, c)
}

func singleBundleRules() config.Rules {
	rules := config.DefaultRules()
	rules.Sales.Mix = []config.MixRule{{
		Branch: "device_bundle", Weight: 1, Device: true, Plan: true,
		AddOns: []config.WeightedCount{{Count: 0, Weight: 1}},
	}}
	rules.Sales.DeviceDiscounts = []string{"0"}
	rules.Sales.Returns.Probability = 0
	return rules
}

func singleSaleReference() domain.ReferenceData {
	return domain.ReferenceData{
		Customers: []domain.Customer{{ID: 1, FirstName: "Neel", LastName: "Patel", City: "Regina", Segment: "Student", CreatedAt: anchor.AddDate(0, 0, -30)}},
		Reps:      []domain.Rep{{ID: 1, Name: "Samar", StoreCity: "Regina"}},
		Plans:     []domain.Plan{{ID: 1, Name: "Everyday 30GB", Type: domain.PlanTypePostpaid, DataGB: 30, MonthlyPrice: decimal.NewFromInt(65)}},
		Products: []domain.Product{{
			ID: 1, SKU: "DEV-TEST", Name: "Test Phone", Category: domain.CategoryDevice, Brand: "Test",
			UnitCost: decimal.NewFromInt(600), UnitPrice: decimal.NewFromInt(900),
		}},
		Inventory: []domain.InventoryRecord{{ProductID: 1, StockOnHand: 3, ReorderLevel: 5}},
	}
}

func TestGenerateSingleBundleSale(t *testing.T) {
	policy, err := NewPolicy(singleBundleRules())
	require.NoError(t, err)

	tx, err := NewEngine(policy).Generate(singleSaleReference(), Params{
		Days: 1, SalesPerDayMin: 1, SalesPerDayMax: 1, Anchor: anchor,
	}, randstream.New(1))
	require.NoError(t, err)

	require.Len(t, tx.Sales, 1)
	require.Len(t, tx.SaleItems, 2)
	require.Empty(t, tx.Returns)

	require.Equal(t, domain.ItemTypeProduct, tx.SaleItems[0].ItemType)
	require.Equal(t, domain.ItemTypePlan, tx.SaleItems[1].ItemType)

	total := decimal.Zero
	for _, it := range tx.SaleItems {
		total = total.Add(it.LineTotal())
	}
	require.Equal(t, "965.00", total.StringFixed(2))
}

func TestGenerateRejectsEmptyReferenceSets(t *testing.T) {
	engine := NewEngine(DefaultPolicy())
	params := Params{Days: 1, SalesPerDayMin: 1, SalesPerDayMax: 2, Anchor: anchor}

	ref := singleSaleReference()
	ref.Plans = nil
	_, err := engine.Generate(ref, params, randstream.New(1))
	if !errors.Is(err, domain.ErrEmptyReferenceSet) {
		t.Fatalf("expected empty reference set, got %v", err)
	}

	// No add-on products while the default mix can draw accessories.
	ref = singleSaleReference()
	_, err = engine.Generate(ref, params, randstream.New(1))
	require.ErrorIs(t, err, domain.ErrEmptyReferenceSet)

	ref.Customers = nil
	_, err = engine.Generate(ref, params, randstream.New(1))
	require.ErrorIs(t, err, domain.ErrEmptyReferenceSet)
}

func TestGenerateAllowsEmptySetsOnUnreachableBranches(t *testing.T) {
	rules := singleBundleRules()
	policy, err := NewPolicy(rules)
	require.NoError(t, err)

	// The only reachable branch never draws add-ons, so none are needed.
	_, err = NewEngine(policy).Generate(singleSaleReference(), Params{
		Days: 2, SalesPerDayMin: 0, SalesPerDayMax: 3, Anchor: anchor,
	}, randstream.New(4))
	require.NoError(t, err)
}

func TestGenerateRejectsInvalidParams(t *testing.T) {
	engine := NewEngine(DefaultPolicy())
	ref := singleSaleReference()

	_, err := engine.Generate(ref, Params{Days: 0, SalesPerDayMin: 1, SalesPerDayMax: 1, Anchor: anchor}, randstream.New(1))
	require.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = engine.Generate(ref, Params{Days: 1, SalesPerDayMin: 5, SalesPerDayMax: 2, Anchor: anchor}, randstream.New(1))
	require.ErrorIs(t, err, domain.ErrInvalidConfig)
}
