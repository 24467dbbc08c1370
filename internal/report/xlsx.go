package report

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	netmetrics "github.com/smallbiznis/telcostore/internal/netmetrics/domain"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet    = "Summary"
	byDaySheet      = "RevenueByDay"
	byRepSheet      = "RevenueByRep"
	attachRateSheet = "AttachRate"
)

func writeWorkbook(path string, r netmetrics.Report, meta Meta) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	for _, name := range []string{byDaySheet, byRepSheet, attachRateSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}

	if err := writeSummarySheet(f, r.Summary, meta); err != nil {
		return err
	}
	if err := writeByDaySheet(f, r.ByDay); err != nil {
		return err
	}
	if err := writeByRepSheet(f, r.ByRep); err != nil {
		return err
	}
	if err := writeAttachRateSheet(f, r.Summary); err != nil {
		return err
	}

	return f.SaveAs(path)
}

func writeSummarySheet(f *excelize.File, s netmetrics.Summary, meta Meta) error {
	rows := [][]any{{"metric", "value"}}
	for _, m := range s.Metrics() {
		rows = append(rows, []any{m.Name, cellValue(m.Value)})
	}
	rows = append(rows,
		[]any{},
		[]any{"run_id", meta.RunID},
		[]any{"generated_at", meta.GeneratedAt.UTC().Format(time.RFC3339)},
	)
	return setRows(f, summarySheet, rows)
}

func writeByDaySheet(f *excelize.File, days []netmetrics.DailyRevenue) error {
	rows := [][]any{{"sale_date", "net_revenue"}}
	for _, d := range days {
		rows = append(rows, []any{d.Date.Format(time.DateOnly), d.NetRevenue.Round(2).InexactFloat64()})
	}
	if err := setRows(f, byDaySheet, rows); err != nil {
		return err
	}
	if len(days) == 0 {
		return nil
	}
	return f.AddChart(byDaySheet, "D2", &excelize.Chart{
		Type:  excelize.Line,
		Title: []excelize.RichTextRun{{Text: "Net Revenue by Day"}},
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$B$1", byDaySheet),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", byDaySheet, len(days)+1),
			Values:     fmt.Sprintf("%s!$B$2:$B$%d", byDaySheet, len(days)+1),
		}},
	})
}

func writeByRepSheet(f *excelize.File, reps []netmetrics.RepRevenue) error {
	rows := [][]any{{"rep_name", "net_revenue"}}
	for _, r := range reps {
		rows = append(rows, []any{r.RepName, r.NetRevenue.Round(2).InexactFloat64()})
	}
	if err := setRows(f, byRepSheet, rows); err != nil {
		return err
	}
	if len(reps) == 0 {
		return nil
	}
	return f.AddChart(byRepSheet, "D2", &excelize.Chart{
		Type:  excelize.Col,
		Title: []excelize.RichTextRun{{Text: "Net Revenue by Rep"}},
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$B$1", byRepSheet),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", byRepSheet, len(reps)+1),
			Values:     fmt.Sprintf("%s!$B$2:$B$%d", byRepSheet, len(reps)+1),
		}},
	})
}

func writeAttachRateSheet(f *excelize.File, s netmetrics.Summary) error {
	rows := [][]any{
		{"metric", "value"},
		{"Attach Rate", cellValue(s.AttachRate)},
		{"net_devices", s.NetDevices},
		{"net_add_ons", s.NetAddOns},
	}
	if err := setRows(f, attachRateSheet, rows); err != nil {
		return err
	}
	// An undefined rate has nothing to plot.
	if !s.AttachRate.Valid {
		return nil
	}
	return f.AddChart(attachRateSheet, "D2", &excelize.Chart{
		Type:  excelize.Col,
		Title: []excelize.RichTextRun{{Text: "Accessory Attach Rate (Upsell)"}},
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$A$2", attachRateSheet),
			Categories: fmt.Sprintf("%s!$A$2:$A$2", attachRateSheet),
			Values:     fmt.Sprintf("%s!$B$2:$B$2", attachRateSheet),
		}},
	})
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// cellValue keeps defined metrics numeric so charts can plot them.
func cellValue(v decimal.NullDecimal) any {
	if !v.Valid {
		return Undefined
	}
	return v.Decimal.Round(2).InexactFloat64()
}
