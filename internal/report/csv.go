package report

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	netmetrics "github.com/smallbiznis/telcostore/internal/netmetrics/domain"
)

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeSummaryCSV(path string, s netmetrics.Summary) error {
	metrics := s.Metrics()
	rows := make([][]string, 0, len(metrics))
	for _, m := range metrics {
		rows = append(rows, []string{m.Name, FormatValue(m.Value)})
	}
	return writeCSV(path, []string{"metric", "value"}, rows)
}

func writeRevenueByDayCSV(path string, days []netmetrics.DailyRevenue) error {
	rows := make([][]string, 0, len(days))
	for _, d := range days {
		rows = append(rows, []string{d.Date.Format(time.DateOnly), d.NetRevenue.StringFixed(2)})
	}
	return writeCSV(path, []string{"sale_date", "net_revenue"}, rows)
}

func writeRevenueByRepCSV(path string, reps []netmetrics.RepRevenue) error {
	rows := make([][]string, 0, len(reps))
	for _, r := range reps {
		rows = append(rows, []string{strconv.FormatInt(r.RepID, 10), r.RepName, r.NetRevenue.StringFixed(2)})
	}
	return writeCSV(path, []string{"rep_id", "rep_name", "net_revenue"}, rows)
}
