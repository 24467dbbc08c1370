package migration

import (
	"database/sql"
	"testing"

	_ "github.com/glebarez/go-sqlite"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared&_pragma=foreign_keys(1)")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableNames(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type = 'table' AND name <> 'schema_migrations' ORDER BY name`)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	return names
}

func TestRunMigrationsCreatesStoreTables(t *testing.T) {
	db := openMemory(t)

	require.NoError(t, RunMigrations(db, "sqlite"))
	// Second run is a no-op.
	require.NoError(t, RunMigrations(db, "sqlite"))

	require.Equal(t, []string{
		"customers", "inventory", "plans", "products", "reps", "returns", "sale_items", "sales",
	}, tableNames(t, db))
}

func TestResetEmptiesStore(t *testing.T) {
	db := openMemory(t)
	require.NoError(t, RunMigrations(db, "sqlite"))

	_, err := db.Exec(`INSERT INTO reps (rep_id, rep_name, store_city) VALUES (1, 'Samar', 'Regina')`)
	require.NoError(t, err)

	require.NoError(t, Reset(db, "sqlite"))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM reps`).Scan(&count))
	require.Zero(t, count)
}

func TestSchemaRejectsMixedItemType(t *testing.T) {
	db := openMemory(t)
	require.NoError(t, RunMigrations(db, "sqlite"))

	_, err := db.Exec(`INSERT INTO reps VALUES (1, 'Samar', 'Regina')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO customers VALUES (1, 'Neel', 'Patel', 'Regina', 'Student', '2025-01-01 00:00:00')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO plans VALUES (1, 'Saver 10GB', 'Postpaid', 10, 45)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO sales VALUES (1, '2025-01-02 09:00:00', 1, 1, 'InStore')`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO sale_items VALUES (1, 1, 'Product', 1, NULL, 1, 45, 0)`)
	require.Error(t, err)

	_, err = db.Exec(`INSERT INTO sale_items VALUES (1, 1, 'Plan', 1, NULL, 1, 45, 0)`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO sale_items VALUES (2, 99, 'Plan', 1, NULL, 1, 45, 0)`)
	require.Error(t, err, "foreign keys must be enforced")
}
