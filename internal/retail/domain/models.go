package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryDevice     Category = "Device"
	CategoryAccessory  Category = "Accessory"
	CategoryProtection Category = "Protection"
)

// IsAddOn reports whether the category counts toward the attach rate numerator.
func (c Category) IsAddOn() bool {
	return c == CategoryAccessory || c == CategoryProtection
}

type PlanType string

const (
	PlanTypePostpaid PlanType = "Postpaid"
	PlanTypePrepaid  PlanType = "Prepaid"
	PlanTypeBusiness PlanType = "Business"
)

type Channel string

const (
	ChannelInStore Channel = "InStore"
	ChannelPhone   Channel = "Phone"
	ChannelEmail   Channel = "Email"
)

type ItemType string

const (
	ItemTypeProduct ItemType = "Product"
	ItemTypePlan    ItemType = "Plan"
)

type Customer struct {
	ID        int64     `json:"customer_id" gorm:"column:customer_id;primaryKey;autoIncrement:false"`
	FirstName string    `json:"first_name" gorm:"column:first_name;type:text;not null"`
	LastName  string    `json:"last_name" gorm:"column:last_name;type:text;not null"`
	City      string    `json:"city" gorm:"column:city;type:text;not null"`
	Segment   string    `json:"segment" gorm:"column:segment;type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;not null;autoCreateTime:false"`
}

func (Customer) TableName() string { return "customers" }

type Rep struct {
	ID        int64  `json:"rep_id" gorm:"column:rep_id;primaryKey;autoIncrement:false"`
	Name      string `json:"rep_name" gorm:"column:rep_name;type:text;not null"`
	StoreCity string `json:"store_city" gorm:"column:store_city;type:text;not null"`
}

func (Rep) TableName() string { return "reps" }

type Plan struct {
	ID           int64           `json:"plan_id" gorm:"column:plan_id;primaryKey;autoIncrement:false"`
	Name         string          `json:"plan_name" gorm:"column:plan_name;type:text;not null"`
	Type         PlanType        `json:"plan_type" gorm:"column:plan_type;type:text;not null"`
	DataGB       int             `json:"data_gb" gorm:"column:data_gb;not null"`
	MonthlyPrice decimal.Decimal `json:"monthly_price" gorm:"column:monthly_price;type:numeric(10,2);not null"`
}

func (Plan) TableName() string { return "plans" }

type Product struct {
	ID        int64           `json:"product_id" gorm:"column:product_id;primaryKey;autoIncrement:false"`
	SKU       string          `json:"sku" gorm:"column:sku;type:text;not null"`
	Name      string          `json:"product_name" gorm:"column:product_name;type:text;not null"`
	Category  Category        `json:"category" gorm:"column:category;type:text;not null"`
	Brand     string          `json:"brand" gorm:"column:brand;type:text;not null"`
	UnitCost  decimal.Decimal `json:"unit_cost" gorm:"column:unit_cost;type:numeric(10,2);not null"`
	UnitPrice decimal.Decimal `json:"unit_price" gorm:"column:unit_price;type:numeric(10,2);not null"`
}

func (Product) TableName() string { return "products" }

type InventoryRecord struct {
	ProductID    int64 `json:"product_id" gorm:"column:product_id;primaryKey;autoIncrement:false"`
	StockOnHand  int   `json:"stock_on_hand" gorm:"column:stock_on_hand;not null"`
	ReorderLevel int   `json:"reorder_level" gorm:"column:reorder_level;not null"`
}

func (InventoryRecord) TableName() string { return "inventory" }

type Sale struct {
	ID         int64     `json:"sale_id" gorm:"column:sale_id;primaryKey;autoIncrement:false"`
	SoldAt     time.Time `json:"sale_datetime" gorm:"column:sale_datetime;not null"`
	RepID      int64     `json:"rep_id" gorm:"column:rep_id;not null"`
	CustomerID int64     `json:"customer_id" gorm:"column:customer_id;not null"`
	Channel    Channel   `json:"channel" gorm:"column:channel;type:text;not null"`
}

func (Sale) TableName() string { return "sales" }

// SaleItem is a single line of a sale. Exactly one of PlanID and ProductID is
// set, matching ItemType. UnitPrice is the catalog price at the time of sale.
type SaleItem struct {
	ID             int64           `json:"sale_item_id" gorm:"column:sale_item_id;primaryKey;autoIncrement:false"`
	SaleID         int64           `json:"sale_id" gorm:"column:sale_id;not null"`
	ItemType       ItemType        `json:"item_type" gorm:"column:item_type;type:text;not null"`
	PlanID         *int64          `json:"plan_id" gorm:"column:plan_id"`
	ProductID      *int64          `json:"product_id" gorm:"column:product_id"`
	Quantity       int             `json:"quantity" gorm:"column:quantity;not null"`
	UnitPrice      decimal.Decimal `json:"unit_price" gorm:"column:unit_price;type:numeric(10,2);not null"`
	DiscountAmount decimal.Decimal `json:"discount_amount" gorm:"column:discount_amount;type:numeric(10,2);not null"`
}

func (SaleItem) TableName() string { return "sale_items" }

// LineTotal is unit_price * quantity - discount_amount.
func (i SaleItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity))).Sub(i.DiscountAmount)
}

type Return struct {
	ID         int64     `json:"return_id" gorm:"column:return_id;primaryKey;autoIncrement:false"`
	SaleItemID int64     `json:"sale_item_id" gorm:"column:sale_item_id;not null"`
	ReturnedAt time.Time `json:"return_datetime" gorm:"column:return_datetime;not null"`
	Reason     string    `json:"reason" gorm:"column:reason;type:text;not null"`
}

func (Return) TableName() string { return "returns" }
