package referencedata

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/telcostore/internal/retail/domain"
)

type catalogProduct struct {
	sku      string
	name     string
	category domain.Category
	brand    string
	cost     int64
	price    int64
}

var defaultProducts = []catalogProduct{
	{"DEV-APL-014", "iPhone 14", domain.CategoryDevice, "Apple", 650, 899},
	{"DEV-APL-015", "iPhone 15", domain.CategoryDevice, "Apple", 780, 1099},
	{"DEV-SAM-S23", "Galaxy S23", domain.CategoryDevice, "Samsung", 700, 999},
	{"DEV-GOO-P08", "Pixel 8", domain.CategoryDevice, "Google", 620, 899},
	{"ACC-CASE-PR", "Protective Case", domain.CategoryAccessory, "Generic", 8, 29},
	{"ACC-GLASS", "Screen Protector", domain.CategoryAccessory, "Generic", 2, 15},
	{"ACC-CHRG-25", "Fast Charger 25W", domain.CategoryAccessory, "Generic", 10, 35},
	{"PROT-PLUS", "Device Protection", domain.CategoryProtection, "Coverage", 0, 12},
	{"ACC-EARB-WL", "Wireless Earbuds", domain.CategoryAccessory, "Generic", 18, 59},
}

// Reps returns the fixed store staff.
func Reps() []domain.Rep {
	return []domain.Rep{
		{ID: 1, Name: "Samar", StoreCity: "Regina"},
		{ID: 2, Name: "Avery", StoreCity: "Regina"},
		{ID: 3, Name: "Devon", StoreCity: "Regina"},
		{ID: 4, Name: "Kai", StoreCity: "Regina"},
	}
}

// Plans returns the fixed plan catalog.
func Plans() []domain.Plan {
	return []domain.Plan{
		{ID: 1, Name: "Saver 10GB", Type: domain.PlanTypePostpaid, DataGB: 10, MonthlyPrice: decimal.NewFromInt(45)},
		{ID: 2, Name: "Everyday 30GB", Type: domain.PlanTypePostpaid, DataGB: 30, MonthlyPrice: decimal.NewFromInt(65)},
		{ID: 3, Name: "Unlimited 60GB", Type: domain.PlanTypePostpaid, DataGB: 60, MonthlyPrice: decimal.NewFromInt(80)},
		{ID: 4, Name: "Prepaid 5GB", Type: domain.PlanTypePrepaid, DataGB: 5, MonthlyPrice: decimal.NewFromInt(30)},
		{ID: 5, Name: "Business Pro 100GB", Type: domain.PlanTypeBusiness, DataGB: 100, MonthlyPrice: decimal.NewFromInt(120)},
	}
}

// Products returns the fixed product catalog with ids assigned in order.
func Products() []domain.Product {
	out := make([]domain.Product, 0, len(defaultProducts))
	for i, p := range defaultProducts {
		out = append(out, domain.Product{
			ID:        int64(i + 1),
			SKU:       p.sku,
			Name:      p.name,
			Category:  p.category,
			Brand:     p.brand,
			UnitCost:  decimal.NewFromInt(p.cost),
			UnitPrice: decimal.NewFromInt(p.price),
		})
	}
	return out
}
