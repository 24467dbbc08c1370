package referencedata

import (
	"fmt"
	"time"

	"github.com/smallbiznis/telcostore/internal/config"
	"github.com/smallbiznis/telcostore/internal/randstream"
	"github.com/smallbiznis/telcostore/internal/retail/domain"
)

const (
	deviceStockMin = 2
	deviceStockMax = 25
	deviceReorder  = 5
	otherStockMin  = 5
	otherStockMax  = 60
	otherReorder   = 10
)

// Factory produces the independent entity sets of a run.
type Factory struct {
	rules config.ReferenceRules
}

func NewFactory(rules config.Rules) *Factory {
	return &Factory{rules: rules.Reference}
}

// Build draws customers and inventory from rs and attaches the fixed
// catalogs. Customers are created during the history window before anchor.
func (f *Factory) Build(rs *randstream.Stream, customers int, anchor time.Time) (domain.ReferenceData, error) {
	if customers < 1 {
		return domain.ReferenceData{}, fmt.Errorf("%w: customer count must be at least 1, got %d", domain.ErrInvalidConfig, customers)
	}

	generated, err := f.Customers(rs, customers, anchor)
	if err != nil {
		return domain.ReferenceData{}, err
	}
	products := Products()

	return domain.ReferenceData{
		Customers: generated,
		Reps:      Reps(),
		Plans:     Plans(),
		Products:  products,
		Inventory: Inventory(rs, products),
	}, nil
}

// Customers draws n customers. Per customer the draw order is first name,
// last name, city, segment, then created offset.
func (f *Factory) Customers(rs *randstream.Stream, n int, anchor time.Time) ([]domain.Customer, error) {
	cityWeights := weightsOf(f.rules.Cities)
	segmentWeights := weightsOf(f.rules.Segments)
	base := anchor.AddDate(0, 0, -f.rules.HistoryDays)

	out := make([]domain.Customer, 0, n)
	for i := 1; i <= n; i++ {
		first := f.rules.FirstNames[rs.Index(len(f.rules.FirstNames))]
		last := f.rules.LastNames[rs.Index(len(f.rules.LastNames))]

		city, err := rs.Weighted(cityWeights)
		if err != nil {
			return nil, fmt.Errorf("%w: cities: %v", domain.ErrInvalidConfig, err)
		}
		segment, err := rs.Weighted(segmentWeights)
		if err != nil {
			return nil, fmt.Errorf("%w: segments: %v", domain.ErrInvalidConfig, err)
		}
		offset := rs.IntRange(0, f.rules.HistoryDays)

		out = append(out, domain.Customer{
			ID:        int64(i),
			FirstName: first,
			LastName:  last,
			City:      f.rules.Cities[city].Value,
			Segment:   f.rules.Segments[segment].Value,
			CreatedAt: base.AddDate(0, 0, offset),
		})
	}
	return out, nil
}

// Inventory draws one stock level per product, in product order.
func Inventory(rs *randstream.Stream, products []domain.Product) []domain.InventoryRecord {
	out := make([]domain.InventoryRecord, 0, len(products))
	for _, p := range products {
		rec := domain.InventoryRecord{ProductID: p.ID}
		if p.Category == domain.CategoryDevice {
			rec.StockOnHand = rs.IntRange(deviceStockMin, deviceStockMax)
			rec.ReorderLevel = deviceReorder
		} else {
			rec.StockOnHand = rs.IntRange(otherStockMin, otherStockMax)
			rec.ReorderLevel = otherReorder
		}
		out = append(out, rec)
	}
	return out
}

func weightsOf(values []config.WeightedValue) []int {
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = v.Weight
	}
	return out
}
