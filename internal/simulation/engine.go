package simulation

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/telcostore/internal/randstream"
	"github.com/smallbiznis/telcostore/internal/retail/domain"
)

// Params bound one generation run.
type Params struct {
	Days           int
	SalesPerDayMin int
	SalesPerDayMax int
	// Anchor is the exclusive end of the horizon; the first simulated day is
	// Anchor minus Days.
	Anchor time.Time
}

func (p Params) validate() error {
	if p.Days < 1 {
		return fmt.Errorf("%w: days must be at least 1, got %d", domain.ErrInvalidConfig, p.Days)
	}
	if p.SalesPerDayMin < 0 || p.SalesPerDayMax < p.SalesPerDayMin {
		return fmt.Errorf("%w: sales per day range [%d, %d] is invalid",
			domain.ErrInvalidConfig, p.SalesPerDayMin, p.SalesPerDayMax)
	}
	return nil
}

// Engine turns reference data into sales, line items and returns.
type Engine struct {
	policy Policy
}

func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy}
}

func (e *Engine) Policy() Policy {
	return e.policy
}

// Generate walks the horizon oldest day first. All randomness comes from rs in
// a fixed order, so equal inputs and seed give an identical result.
func (e *Engine) Generate(ref domain.ReferenceData, params Params, rs *randstream.Stream) (domain.Transactions, error) {
	if err := params.validate(); err != nil {
		return domain.Transactions{}, err
	}
	c := newCatalog(ref)
	if err := e.policy.validate(c, params.SalesPerDayMax > 0); err != nil {
		return domain.Transactions{}, err
	}

	g := &generator{
		policy: e.policy,
		cat:    c,
		rs:     rs,
		seq:    NewIDSequence(),
	}

	anchor := time.Date(params.Anchor.Year(), params.Anchor.Month(), params.Anchor.Day(), 0, 0, 0, 0, time.UTC)
	start := anchor.AddDate(0, 0, -params.Days)
	for d := 0; d < params.Days; d++ {
		day := start.AddDate(0, 0, d)
		count := rs.IntRange(params.SalesPerDayMin, params.SalesPerDayMax)
		for i := 0; i < count; i++ {
			if err := g.sale(day); err != nil {
				return domain.Transactions{}, err
			}
		}
	}
	return g.out, nil
}

// generator carries the per-run state shared by the sale helpers.
type generator struct {
	policy Policy
	cat    catalog
	rs     *randstream.Stream
	seq    *IDSequence
	out    domain.Transactions
}

// sale draws, in order: minute offset, rep, customer, channel, branch, then
// the branch components device, plan, add-on count and add-ons.
func (g *generator) sale(day time.Time) error {
	minute := g.rs.IntRange(0, g.policy.WindowMinutes)
	soldAt := day.Add(time.Duration(g.policy.OpeningHour)*time.Hour + time.Duration(minute)*time.Minute)

	rep := g.cat.reps[g.rs.Index(len(g.cat.reps))]
	customer := g.cat.customers[g.rs.Index(len(g.cat.customers))]

	ch, err := g.rs.Weighted(g.policy.ChannelWeights)
	if err != nil {
		return fmt.Errorf("%w: channels: %v", domain.ErrInvalidConfig, err)
	}
	bi, err := g.rs.Weighted(g.policy.BranchWeights)
	if err != nil {
		return fmt.Errorf("%w: mix: %v", domain.ErrInvalidConfig, err)
	}
	branch := g.policy.Branches[bi]

	sale := domain.Sale{
		ID:         g.seq.NextSale(),
		SoldAt:     soldAt,
		RepID:      rep.ID,
		CustomerID: customer.ID,
		Channel:    g.policy.Channels[ch],
	}
	g.out.Sales = append(g.out.Sales, sale)

	if branch.Device {
		device := g.cat.devices[g.rs.Index(len(g.cat.devices))]
		discount := g.policy.DeviceDiscounts[g.rs.Index(len(g.policy.DeviceDiscounts))]
		g.addProduct(sale, device, discount)
	}
	if branch.Plan {
		g.addPlan(sale, g.cat.plans[g.rs.Index(len(g.cat.plans))])
	}
	if len(branch.AddOnCounts) > 0 {
		ai, err := g.rs.Weighted(branch.AddOnWeights)
		if err != nil {
			return fmt.Errorf("%w: add-ons of %q: %v", domain.ErrInvalidConfig, branch.Name, err)
		}
		for n := 0; n < branch.AddOnCounts[ai]; n++ {
			g.addProduct(sale, g.cat.addOns[g.rs.Index(len(g.cat.addOns))], decimal.Zero)
		}
	}
	return nil
}

func (g *generator) addProduct(sale domain.Sale, product domain.Product, discount decimal.Decimal) {
	productID := product.ID
	item := domain.SaleItem{
		ID:             g.seq.NextSaleItem(),
		SaleID:         sale.ID,
		ItemType:       domain.ItemTypeProduct,
		ProductID:      &productID,
		Quantity:       1,
		UnitPrice:      product.UnitPrice,
		DiscountAmount: discount,
	}
	g.out.SaleItems = append(g.out.SaleItems, item)
	g.maybeReturn(sale, item)
}

func (g *generator) addPlan(sale domain.Sale, plan domain.Plan) {
	planID := plan.ID
	g.out.SaleItems = append(g.out.SaleItems, domain.SaleItem{
		ID:             g.seq.NextSaleItem(),
		SaleID:         sale.ID,
		ItemType:       domain.ItemTypePlan,
		PlanID:         &planID,
		Quantity:       1,
		UnitPrice:      plan.MonthlyPrice,
		DiscountAmount: decimal.Zero,
	})
}

// maybeReturn rolls only for eligible items, so ineligible items consume no
// draws.
func (g *generator) maybeReturn(sale domain.Sale, item domain.SaleItem) {
	rp := g.policy.Returns
	if !rp.Eligible[sale.Channel] || rp.Probability <= 0 {
		return
	}
	if !g.rs.Chance(rp.Probability) {
		return
	}
	days := g.rs.IntRange(rp.MinDays, rp.MaxDays)
	reason := rp.Reasons[g.rs.Index(len(rp.Reasons))]

	g.out.Returns = append(g.out.Returns, domain.Return{
		ID:         g.seq.NextReturn(),
		SaleItemID: item.ID,
		ReturnedAt: sale.SoldAt.AddDate(0, 0, days),
		Reason:     reason,
	})
}
