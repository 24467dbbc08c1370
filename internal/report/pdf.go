package report

import (
	"os"
	"strconv"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	netmetrics "github.com/smallbiznis/telcostore/internal/netmetrics/domain"
)

func writeSummaryPDF(path string, r netmetrics.Report, meta Meta) error {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Store Performance Summary", props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)
	m.AddRow(10,
		col.New(12).Add(
			text.New("Run: "+meta.RunID, props.Text{Size: 8, Top: 0}),
			text.New("Generated: "+meta.GeneratedAt.UTC().Format(time.RFC3339), props.Text{Size: 8, Top: 4}),
		),
	)

	m.AddRow(10,
		text.NewCol(8, "Metric", props.Text{Style: fontstyle.Bold, Size: 10}),
		text.NewCol(4, "Value", props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
	)
	for _, metric := range r.Summary.Metrics() {
		m.AddRow(8,
			text.NewCol(8, metric.Name, props.Text{Size: 9}),
			text.NewCol(4, FormatValue(metric.Value), props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(14,
		text.NewCol(12, "Net Revenue by Rep", props.Text{Size: 12, Style: fontstyle.Bold, Top: 6}),
	)
	for _, rep := range r.ByRep {
		m.AddRow(7,
			text.NewCol(2, strconv.FormatInt(rep.RepID, 10), props.Text{Size: 9}),
			text.NewCol(6, rep.RepName, props.Text{Size: 9}),
			text.NewCol(4, rep.NetRevenue.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(14,
		text.NewCol(12, "Net Revenue by Day", props.Text{Size: 12, Style: fontstyle.Bold, Top: 6}),
	)
	for _, day := range r.ByDay {
		m.AddRow(6,
			text.NewCol(8, day.Date.Format(time.DateOnly), props.Text{Size: 8}),
			text.NewCol(4, day.NetRevenue.StringFixed(2), props.Text{Size: 8, Align: align.Right}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return err
	}
	return os.WriteFile(path, doc.GetBytes(), 0o644)
}
