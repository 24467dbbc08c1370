package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestIntegrityErrorClassification(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		duplicate bool
		foreign   bool
		check     bool
	}{
		{"nil", nil, false, false, false},
		{"sqlite unique", errors.New("constraint failed: UNIQUE constraint failed: returns.sale_item_id (2067)"), true, false, false},
		{"postgres unique", errors.New(`ERROR: duplicate key value violates unique constraint "returns_sale_item_id_key" (SQLSTATE 23505)`), true, false, false},
		{"sqlite fk", errors.New("constraint failed: FOREIGN KEY constraint failed (787)"), false, true, false},
		{"postgres fk", errors.New(`ERROR: insert or update on table "sales" violates foreign key constraint "sales_rep_id_fkey" (SQLSTATE 23503)`), false, true, false},
		{"sqlite check", errors.New("constraint failed: CHECK constraint failed: quantity >= 1 (275)"), false, false, true},
		{"gorm sentinel", fmt.Errorf("insert: %w", gorm.ErrForeignKeyViolated), false, true, false},
		{"unrelated", errors.New("disk I/O error"), false, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.duplicate, IsDuplicateKeyErr(tc.err))
			require.Equal(t, tc.foreign, IsForeignKeyErr(tc.err))
			require.Equal(t, tc.check, IsCheckErr(tc.err))
			require.Equal(t, tc.duplicate || tc.foreign || tc.check, IsIntegrityErr(tc.err))
		})
	}
}

func TestSQLiteDSN(t *testing.T) {
	require.Equal(t, "store.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", SQLiteDSN("store.db"))
	require.Equal(t, "file:x?mode=memory&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", SQLiteDSN("file:x?mode=memory"))
}
