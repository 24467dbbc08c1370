package interchange

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smallbiznis/telcostore/internal/config"
	"github.com/smallbiznis/telcostore/internal/randstream"
	"github.com/smallbiznis/telcostore/internal/referencedata"
	"github.com/smallbiznis/telcostore/internal/retail/domain"
	"github.com/smallbiznis/telcostore/internal/simulation"
	"github.com/stretchr/testify/require"
)

func generated(t *testing.T) domain.Dataset {
	t.Helper()
	anchor := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	rs := randstream.New(7)
	ref, err := referencedata.NewFactory(config.DefaultRules()).Build(rs, 30, anchor)
	require.NoError(t, err)
	tx, err := simulation.NewEngine(simulation.DefaultPolicy()).Generate(ref, simulation.Params{
		Days: 10, SalesPerDayMin: 4, SalesPerDayMax: 8, Anchor: anchor,
	}, rs)
	require.NoError(t, err)
	return domain.Dataset{ReferenceData: ref, Transactions: tx}
}

func TestWriteReadPreservesEveryRecord(t *testing.T) {
	dir := t.TempDir()
	ds := generated(t)

	require.NoError(t, Write(dir, ds))
	got, err := Read(dir)
	require.NoError(t, err)

	require.Equal(t, ds.RowCounts(), got.RowCounts())
	require.Equal(t, ds.Customers, got.Customers)
	require.Equal(t, ds.Reps, got.Reps)
	require.Equal(t, ds.Sales, got.Sales)
	require.Equal(t, ds.Returns, got.Returns)

	for i, want := range ds.SaleItems {
		item := got.SaleItems[i]
		require.Equal(t, want.ID, item.ID)
		require.Equal(t, want.SaleID, item.SaleID)
		require.Equal(t, want.ItemType, item.ItemType)
		require.Equal(t, want.PlanID, item.PlanID)
		require.Equal(t, want.ProductID, item.ProductID)
		require.Equal(t, want.Quantity, item.Quantity)
		require.True(t, want.UnitPrice.Equal(item.UnitPrice))
		require.True(t, want.DiscountAmount.Equal(item.DiscountAmount))
	}
	for i, want := range ds.Products {
		require.True(t, want.UnitPrice.Equal(got.Products[i].UnitPrice))
		require.Equal(t, want.SKU, got.Products[i].SKU)
	}

	// A second round trip is a fixed point.
	again := t.TempDir()
	require.NoError(t, Write(again, got))
	second, err := Read(again)
	require.NoError(t, err)
	require.Equal(t, got, second)
}

func TestWriteUsesStoreColumnNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Write(dir, generated(t)))

	raw, err := os.ReadFile(filepath.Join(dir, "sale_items.csv"))
	require.NoError(t, err)
	require.Contains(t, string(raw), "sale_item_id,sale_id,item_type,plan_id,product_id,quantity,unit_price,discount_amount\n")

	raw, err = os.ReadFile(filepath.Join(dir, "plans.csv"))
	require.NoError(t, err)
	require.Contains(t, string(raw), "1,Saver 10GB,Postpaid,10,45.00\n")
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(t.TempDir())
	if !errors.Is(err, domain.ErrInterchangeNotFound) {
		t.Fatalf("expected interchange_not_found, got %v", err)
	}
}

func TestReadRejectsMalformedValues(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Write(dir, generated(t)))

	path := filepath.Join(dir, "reps.csv")
	require.NoError(t, os.WriteFile(path, []byte("rep_id,rep_name,store_city\nx,Samar,Regina\n"), 0o644))

	_, err := Read(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse reps row x")
}
