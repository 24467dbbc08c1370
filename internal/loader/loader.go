package loader

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/smallbiznis/telcostore/internal/migration"
	"github.com/smallbiznis/telcostore/internal/retail/domain"
	"github.com/smallbiznis/telcostore/pkg/db"
	"github.com/smallbiznis/telcostore/pkg/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Loader recreates the relational store from a dataset.
type Loader struct {
	cfg     db.Config
	log     *zap.Logger
	gormLog gormlogger.Interface
}

func New(cfg db.Config, log *zap.Logger, gormLog gormlogger.Interface) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{cfg: cfg, log: log.Named("loader"), gormLog: gormLog}
}

// Build replaces the store with ds. Either the whole dataset is visible
// afterwards or the previous store is left untouched.
func (l *Loader) Build(ctx context.Context, ds domain.Dataset) error {
	if l.cfg.IsSQLite() {
		return l.buildSQLite(ctx, ds)
	}
	return l.buildPostgres(ctx, ds)
}

func (l *Loader) buildSQLite(ctx context.Context, ds domain.Dataset) error {
	target := l.cfg.Path
	building := target + ".building"

	if dir := filepath.Dir(target); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create store dir: %w", err)
		}
	}
	if err := removeIfExists(building); err != nil {
		return err
	}

	if err := l.populate(ctx, l.cfg.WithPath(building), ds, migration.RunMigrations); err != nil {
		_ = removeIfExists(building)
		return err
	}

	if err := os.Rename(building, target); err != nil {
		_ = removeIfExists(building)
		return fmt.Errorf("replace store: %w", err)
	}
	l.log.Info("store replaced", zap.String("path", target))
	return nil
}

func (l *Loader) buildPostgres(ctx context.Context, ds domain.Dataset) error {
	return l.populate(ctx, l.cfg, ds, migration.Reset)
}

func (l *Loader) populate(ctx context.Context, cfg db.Config, ds domain.Dataset, prepare func(*sql.DB, string) error) error {
	conn, err := db.Open(cfg, l.gormLog)
	if err != nil {
		return err
	}
	defer db.Close(conn)

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	if err := prepare(sqlDB, cfg.Type); err != nil {
		return fmt.Errorf("prepare schema: %w", err)
	}

	return conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return Insert(ctx, tx, ds, l.log)
	})
}

// Insert writes every table of ds in foreign key dependency order.
func Insert(ctx context.Context, tx *gorm.DB, ds domain.Dataset, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	steps := []struct {
		table string
		rows  int
		run   func() error
	}{
		{"customers", len(ds.Customers), func() error { return insertAll(ctx, tx, ds.Customers) }},
		{"reps", len(ds.Reps), func() error { return insertAll(ctx, tx, ds.Reps) }},
		{"plans", len(ds.Plans), func() error { return insertAll(ctx, tx, ds.Plans) }},
		{"products", len(ds.Products), func() error { return insertAll(ctx, tx, ds.Products) }},
		{"inventory", len(ds.Inventory), func() error { return insertAll(ctx, tx, ds.Inventory) }},
		{"sales", len(ds.Sales), func() error { return insertAll(ctx, tx, ds.Sales) }},
		{"sale_items", len(ds.SaleItems), func() error { return insertAll(ctx, tx, ds.SaleItems) }},
		{"returns", len(ds.Returns), func() error { return insertAll(ctx, tx, ds.Returns) }},
	}

	for _, step := range steps {
		if err := step.run(); err != nil {
			if db.IsIntegrityErr(err) {
				return fmt.Errorf("%w: insert %s: %v", domain.ErrIntegrityViolation, step.table, err)
			}
			return fmt.Errorf("insert %s: %w", step.table, err)
		}
		log.Debug("table loaded", zap.String("table", step.table), zap.Int("rows", step.rows))
	}
	return nil
}

func insertAll[T any](ctx context.Context, tx *gorm.DB, rows []T) error {
	return repository.ProvideStore[T](tx).BatchCreate(ctx, rows)
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}
