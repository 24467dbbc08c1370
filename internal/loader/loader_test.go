package loader

import (
	"context"
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
	"github.com/smallbiznis/telcostore/pkg/db"
	"github.com/stretchr/testify/require"
)

func dataset(t *testing.T, seed uint64) domain.Dataset {
	t.Helper()
	anchor := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	rs := randstream.New(seed)
	ref, err := referencedata.NewFactory(config.DefaultRules()).Build(rs, 40, anchor)
	require.NoError(t, err)
	tx, err := simulation.NewEngine(simulation.DefaultPolicy()).Generate(ref, simulation.Params{
		Days: 14, SalesPerDayMin: 6, SalesPerDayMax: 16, Anchor: anchor,
	}, rs)
	require.NoError(t, err)
	return domain.Dataset{ReferenceData: ref, Transactions: tx}
}

func sqliteConfig(t *testing.T) db.Config {
	t.Helper()
	return db.Config{Type: db.TypeSQLite, Path: filepath.Join(t.TempDir(), "store", "telecom_store.db")}
}

func countRows(t *testing.T, cfg db.Config) map[string]int {
	t.Helper()
	conn, err := db.Open(cfg, nil)
	require.NoError(t, err)
	defer db.Close(conn)

	out := map[string]int{}
	for _, table := range domain.Tables {
		var n int64
		require.NoError(t, conn.Table(table).Count(&n).Error)
		out[table] = int(n)
	}
	return out
}

func TestBuildLoadsEveryTable(t *testing.T) {
	cfg := sqliteConfig(t)
	ds := dataset(t, 7)

	require.NoError(t, New(cfg, nil, nil).Build(context.Background(), ds))

	require.Equal(t, ds.RowCounts(), countRows(t, cfg))
	_, err := os.Stat(cfg.Path + ".building")
	require.True(t, os.IsNotExist(err))
}

func TestBuildReplacesPreviousStore(t *testing.T) {
	cfg := sqliteConfig(t)
	l := New(cfg, nil, nil)

	require.NoError(t, l.Build(context.Background(), dataset(t, 1)))
	second := dataset(t, 2)
	require.NoError(t, l.Build(context.Background(), second))

	require.Equal(t, second.RowCounts(), countRows(t, cfg))
}

func TestBuildRejectsDanglingForeignKey(t *testing.T) {
	cfg := sqliteConfig(t)
	ds := dataset(t, 7)
	ds.Sales[0].RepID = 999

	err := New(cfg, nil, nil).Build(context.Background(), ds)
	if !errors.Is(err, domain.ErrIntegrityViolation) {
		t.Fatalf("expected integrity violation, got %v", err)
	}

	for _, path := range []string{cfg.Path, cfg.Path + ".building"} {
		if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
			t.Fatalf("expected %s to be absent, stat err %v", path, statErr)
		}
	}
}

func TestBuildFailureKeepsPreviousStore(t *testing.T) {
	cfg := sqliteConfig(t)
	l := New(cfg, nil, nil)

	good := dataset(t, 3)
	require.NoError(t, l.Build(context.Background(), good))

	bad := dataset(t, 4)
	bad.Returns = append(bad.Returns, domain.Return{
		ID:         int64(len(bad.Returns) + 1),
		SaleItemID: bad.SaleItems[0].ID,
		ReturnedAt: bad.Sales[0].SoldAt.Add(48 * time.Hour),
		Reason:     "Defective",
	}, domain.Return{
		ID:         int64(len(bad.Returns) + 2),
		SaleItemID: bad.SaleItems[0].ID,
		ReturnedAt: bad.Sales[0].SoldAt.Add(72 * time.Hour),
		Reason:     "Defective",
	})
	err := l.Build(context.Background(), bad)
	require.ErrorIs(t, err, domain.ErrIntegrityViolation)

	require.Equal(t, good.RowCounts(), countRows(t, cfg))
}

func TestInsertClassifiesCheckViolation(t *testing.T) {
	conn, err := db.NewTest(t.Name())
	require.NoError(t, err)

	ds := dataset(t, 5)
	ds.SaleItems[0].Quantity = 0

	err = Insert(context.Background(), conn, ds, nil)
	require.ErrorIs(t, err, domain.ErrIntegrityViolation)
}
