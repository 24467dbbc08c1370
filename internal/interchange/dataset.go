package interchange

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/telcostore/internal/retail/domain"
)

var ErrNotFound = domain.ErrInterchangeNotFound

var (
	customerHeader  = []string{"customer_id", "first_name", "last_name", "city", "segment", "created_at"}
	repHeader       = []string{"rep_id", "rep_name", "store_city"}
	planHeader      = []string{"plan_id", "plan_name", "plan_type", "data_gb", "monthly_price"}
	productHeader   = []string{"product_id", "sku", "product_name", "category", "brand", "unit_cost", "unit_price"}
	inventoryHeader = []string{"product_id", "stock_on_hand", "reorder_level"}
	saleHeader      = []string{"sale_id", "sale_datetime", "rep_id", "customer_id", "channel"}
	saleItemHeader  = []string{"sale_item_id", "sale_id", "item_type", "plan_id", "product_id", "quantity", "unit_price", "discount_amount"}
	returnHeader    = []string{"return_id", "sale_item_id", "return_datetime", "reason"}
)

// Write stores ds under dir, replacing any previous files.
func Write(dir string, ds domain.Dataset) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create interchange dir: %w", err)
	}

	steps := []func() error{
		func() error {
			return writeTable(dir, "customers", customerHeader, len(ds.Customers), func(i int) []string {
				c := ds.Customers[i]
				return []string{id(c.ID), c.FirstName, c.LastName, c.City, c.Segment, stamp(c.CreatedAt)}
			})
		},
		func() error {
			return writeTable(dir, "reps", repHeader, len(ds.Reps), func(i int) []string {
				r := ds.Reps[i]
				return []string{id(r.ID), r.Name, r.StoreCity}
			})
		},
		func() error {
			return writeTable(dir, "plans", planHeader, len(ds.Plans), func(i int) []string {
				p := ds.Plans[i]
				return []string{id(p.ID), p.Name, string(p.Type), strconv.Itoa(p.DataGB), money(p.MonthlyPrice)}
			})
		},
		func() error {
			return writeTable(dir, "products", productHeader, len(ds.Products), func(i int) []string {
				p := ds.Products[i]
				return []string{id(p.ID), p.SKU, p.Name, string(p.Category), p.Brand, money(p.UnitCost), money(p.UnitPrice)}
			})
		},
		func() error {
			return writeTable(dir, "inventory", inventoryHeader, len(ds.Inventory), func(i int) []string {
				r := ds.Inventory[i]
				return []string{id(r.ProductID), strconv.Itoa(r.StockOnHand), strconv.Itoa(r.ReorderLevel)}
			})
		},
		func() error {
			return writeTable(dir, "sales", saleHeader, len(ds.Sales), func(i int) []string {
				s := ds.Sales[i]
				return []string{id(s.ID), stamp(s.SoldAt), id(s.RepID), id(s.CustomerID), string(s.Channel)}
			})
		},
		func() error {
			return writeTable(dir, "sale_items", saleItemHeader, len(ds.SaleItems), func(i int) []string {
				it := ds.SaleItems[i]
				return []string{
					id(it.ID), id(it.SaleID), string(it.ItemType), optionalID(it.PlanID), optionalID(it.ProductID),
					strconv.Itoa(it.Quantity), money(it.UnitPrice), money(it.DiscountAmount),
				}
			})
		},
		func() error {
			return writeTable(dir, "returns", returnHeader, len(ds.Returns), func(i int) []string {
				r := ds.Returns[i]
				return []string{id(r.ID), id(r.SaleItemID), stamp(r.ReturnedAt), r.Reason}
			})
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// Read loads every table from dir. A missing file fails with ErrNotFound.
func Read(dir string) (domain.Dataset, error) {
	var ds domain.Dataset
	p := &rowParser{}

	rows, err := readTable(dir, "customers", customerHeader)
	if err != nil {
		return ds, err
	}
	for _, r := range rows {
		p.at("customers", r[0])
		ds.Customers = append(ds.Customers, domain.Customer{
			ID: p.id(r[0]), FirstName: r[1], LastName: r[2], City: r[3], Segment: r[4], CreatedAt: p.stamp(r[5]),
		})
	}

	if rows, err = readTable(dir, "reps", repHeader); err != nil {
		return ds, err
	}
	for _, r := range rows {
		p.at("reps", r[0])
		ds.Reps = append(ds.Reps, domain.Rep{ID: p.id(r[0]), Name: r[1], StoreCity: r[2]})
	}

	if rows, err = readTable(dir, "plans", planHeader); err != nil {
		return ds, err
	}
	for _, r := range rows {
		p.at("plans", r[0])
		ds.Plans = append(ds.Plans, domain.Plan{
			ID: p.id(r[0]), Name: r[1], Type: domain.PlanType(r[2]), DataGB: p.int(r[3]), MonthlyPrice: p.money(r[4]),
		})
	}

	if rows, err = readTable(dir, "products", productHeader); err != nil {
		return ds, err
	}
	for _, r := range rows {
		p.at("products", r[0])
		ds.Products = append(ds.Products, domain.Product{
			ID: p.id(r[0]), SKU: r[1], Name: r[2], Category: domain.Category(r[3]), Brand: r[4],
			UnitCost: p.money(r[5]), UnitPrice: p.money(r[6]),
		})
	}

	if rows, err = readTable(dir, "inventory", inventoryHeader); err != nil {
		return ds, err
	}
	for _, r := range rows {
		p.at("inventory", r[0])
		ds.Inventory = append(ds.Inventory, domain.InventoryRecord{
			ProductID: p.id(r[0]), StockOnHand: p.int(r[1]), ReorderLevel: p.int(r[2]),
		})
	}

	if rows, err = readTable(dir, "sales", saleHeader); err != nil {
		return ds, err
	}
	for _, r := range rows {
		p.at("sales", r[0])
		ds.Sales = append(ds.Sales, domain.Sale{
			ID: p.id(r[0]), SoldAt: p.stamp(r[1]), RepID: p.id(r[2]), CustomerID: p.id(r[3]), Channel: domain.Channel(r[4]),
		})
	}

	if rows, err = readTable(dir, "sale_items", saleItemHeader); err != nil {
		return ds, err
	}
	for _, r := range rows {
		p.at("sale_items", r[0])
		ds.SaleItems = append(ds.SaleItems, domain.SaleItem{
			ID: p.id(r[0]), SaleID: p.id(r[1]), ItemType: domain.ItemType(r[2]),
			PlanID: p.optionalID(r[3]), ProductID: p.optionalID(r[4]),
			Quantity: p.int(r[5]), UnitPrice: p.money(r[6]), DiscountAmount: p.money(r[7]),
		})
	}

	if rows, err = readTable(dir, "returns", returnHeader); err != nil {
		return ds, err
	}
	for _, r := range rows {
		p.at("returns", r[0])
		ds.Returns = append(ds.Returns, domain.Return{
			ID: p.id(r[0]), SaleItemID: p.id(r[1]), ReturnedAt: p.stamp(r[2]), Reason: r[3],
		})
	}

	if p.err != nil {
		return domain.Dataset{}, p.err
	}
	return ds, nil
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}

func optionalID(v *int64) string {
	if v == nil {
		return ""
	}
	return id(*v)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func stamp(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// rowParser keeps the first malformed field so Read reports one error.
type rowParser struct {
	table string
	key   string
	err   error
}

func (p *rowParser) at(table, key string) {
	p.table = table
	p.key = key
}

func (p *rowParser) fail(value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("parse %s row %s: value %q: %w", p.table, p.key, value, err)
	}
}

func (p *rowParser) id(value string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		p.fail(value, err)
	}
	return v
}

func (p *rowParser) optionalID(value string) *int64 {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	v := p.id(value)
	return &v
}

func (p *rowParser) int(value string) int {
	v, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		p.fail(value, err)
	}
	return v
}

func (p *rowParser) money(value string) decimal.Decimal {
	v, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		p.fail(value, err)
	}
	return v
}

func (p *rowParser) stamp(value string) time.Time {
	v, err := time.ParseInLocation(TimeLayout, strings.TrimSpace(value), time.UTC)
	if err != nil {
		p.fail(value, err)
	}
	return v
}
