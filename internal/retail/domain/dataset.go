package domain

// ReferenceData holds the independent entity sets produced before any sale is
// generated.
type ReferenceData struct {
	Customers []Customer
	Reps      []Rep
	Plans     []Plan
	Products  []Product
	Inventory []InventoryRecord
}

// Transactions holds the output of one generation run.
type Transactions struct {
	Sales     []Sale
	SaleItems []SaleItem
	Returns   []Return
}

// Dataset is one complete snapshot, ready to be exchanged or loaded.
type Dataset struct {
	ReferenceData
	Transactions
}

// Tables lists the store tables in foreign key dependency order.
var Tables = []string{
	"customers",
	"reps",
	"plans",
	"products",
	"inventory",
	"sales",
	"sale_items",
	"returns",
}

// RowCounts returns the number of rows per table.
func (d Dataset) RowCounts() map[string]int {
	return map[string]int{
		"customers":  len(d.Customers),
		"reps":       len(d.Reps),
		"plans":      len(d.Plans),
		"products":   len(d.Products),
		"inventory":  len(d.Inventory),
		"sales":      len(d.Sales),
		"sale_items": len(d.SaleItems),
		"returns":    len(d.Returns),
	}
}
