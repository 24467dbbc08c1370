package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	netmetrics "github.com/smallbiznis/telcostore/internal/netmetrics/domain"
	"go.uber.org/zap"
)

const (
	KPISummaryCSV   = "kpi_summary.csv"
	RevenueByDayCSV = "revenue_by_day.csv"
	RevenueByRepCSV = "revenue_by_rep.csv"
	WorkbookFile    = "insights.xlsx"
	SummaryPDF      = "kpi_summary.pdf"

	// Undefined is written wherever a metric has no value.
	Undefined = "undefined"
)

// Meta identifies the run that produced a set of artifacts.
type Meta struct {
	RunID       string
	GeneratedAt time.Time
}

// Writer renders a metrics report into the insights directory.
type Writer struct {
	dir string
	log *zap.Logger
}

func NewWriter(dir string, log *zap.Logger) *Writer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Writer{dir: dir, log: log.Named("report")}
}

// WriteAll produces every artifact and returns their paths.
func (w *Writer) WriteAll(ctx context.Context, r netmetrics.Report, meta Meta) ([]string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create insights dir: %w", err)
	}

	steps := []struct {
		name  string
		write func(string) error
	}{
		{KPISummaryCSV, func(path string) error { return writeSummaryCSV(path, r.Summary) }},
		{RevenueByDayCSV, func(path string) error { return writeRevenueByDayCSV(path, r.ByDay) }},
		{RevenueByRepCSV, func(path string) error { return writeRevenueByRepCSV(path, r.ByRep) }},
		{WorkbookFile, func(path string) error { return writeWorkbook(path, r, meta) }},
		{SummaryPDF, func(path string) error { return writeSummaryPDF(path, r, meta) }},
	}

	paths := make([]string, 0, len(steps))
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		path := filepath.Join(w.dir, step.name)
		if err := step.write(path); err != nil {
			return paths, fmt.Errorf("write %s: %w", step.name, err)
		}
		w.log.Debug("artifact written", zap.String("path", path))
		paths = append(paths, path)
	}
	return paths, nil
}

// FormatValue renders a metric value with two decimals, or Undefined.
func FormatValue(v decimal.NullDecimal) string {
	if !v.Valid {
		return Undefined
	}
	return v.Decimal.StringFixed(2)
}
