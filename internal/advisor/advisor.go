package advisor

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/telcostore/internal/retail/domain"
)

var (
	ErrUnknownUsage        = errors.New("unknown_usage_tier")
	ErrUnknownDeviceFamily = errors.New("unknown_device_family")
	ErrNoMatchingPlan      = errors.New("no_matching_plan")
)

type Usage string

const (
	UsageLow    Usage = "low"
	UsageMedium Usage = "medium"
	UsageHigh   Usage = "high"
)

type DeviceFamily string

const (
	FamilyIPhone  DeviceFamily = "iphone"
	FamilyAndroid DeviceFamily = "android"
	FamilyOther   DeviceFamily = "other"
)

const (
	skuProtectiveCase = "ACC-CASE-PR"
	skuFastCharger    = "ACC-CHRG-25"
	skuEarbuds        = "ACC-EARB-WL"

	brandApple = "Apple"
)

var minimumDataGB = map[Usage]int{
	UsageLow:    5,
	UsageMedium: 20,
	UsageHigh:   60,
}

var familyAccessories = map[DeviceFamily][]string{
	FamilyIPhone:  {skuProtectiveCase, skuFastCharger},
	FamilyAndroid: {skuProtectiveCase, skuEarbuds},
	FamilyOther:   nil,
}

// Recommendation is what a rep would offer at the counter.
type Recommendation struct {
	Plan        domain.Plan
	Device      *domain.Product
	Accessories []domain.Product

	// OneTimeTotal is device plus accessories; the plan is billed monthly.
	OneTimeTotal decimal.Decimal
	MonthlyTotal decimal.Decimal
}

// Advisor recommends from a fixed catalog.
type Advisor struct {
	plans    []domain.Plan
	products []domain.Product
}

func New(plans []domain.Plan, products []domain.Product) *Advisor {
	return &Advisor{plans: plans, products: products}
}

func ParseUsage(value string) (Usage, error) {
	u := Usage(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := minimumDataGB[u]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownUsage, value)
	}
	return u, nil
}

func ParseDeviceFamily(value string) (DeviceFamily, error) {
	f := DeviceFamily(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := familyAccessories[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDeviceFamily, value)
	}
	return f, nil
}

func (a *Advisor) Recommend(usage Usage, family DeviceFamily) (Recommendation, error) {
	minGB, ok := minimumDataGB[usage]
	if !ok {
		return Recommendation{}, fmt.Errorf("%w: %q", ErrUnknownUsage, usage)
	}
	skus, ok := familyAccessories[family]
	if !ok {
		return Recommendation{}, fmt.Errorf("%w: %q", ErrUnknownDeviceFamily, family)
	}

	plan, err := a.cheapestPlan(minGB)
	if err != nil {
		return Recommendation{}, err
	}

	rec := Recommendation{
		Plan:         plan,
		OneTimeTotal: decimal.Zero,
		MonthlyTotal: plan.MonthlyPrice,
	}
	if device := a.cheapestDevice(family); device != nil {
		rec.Device = device
		rec.OneTimeTotal = rec.OneTimeTotal.Add(device.UnitPrice)
	}
	for _, sku := range skus {
		p, ok := a.productBySKU(sku)
		if !ok {
			continue
		}
		rec.Accessories = append(rec.Accessories, p)
		rec.OneTimeTotal = rec.OneTimeTotal.Add(p.UnitPrice)
	}
	return rec, nil
}

func (a *Advisor) cheapestPlan(minGB int) (domain.Plan, error) {
	candidates := make([]domain.Plan, 0, len(a.plans))
	for _, p := range a.plans {
		if p.DataGB >= minGB {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return domain.Plan{}, fmt.Errorf("%w: at least %dGB", ErrNoMatchingPlan, minGB)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if !candidates[i].MonthlyPrice.Equal(candidates[j].MonthlyPrice) {
			return candidates[i].MonthlyPrice.LessThan(candidates[j].MonthlyPrice)
		}
		return candidates[i].ID < candidates[j].ID
	})
	return candidates[0], nil
}

// cheapestDevice picks an Apple device for iphone and a non-Apple device for
// every other family.
func (a *Advisor) cheapestDevice(family DeviceFamily) *domain.Product {
	var best *domain.Product
	for i := range a.products {
		p := a.products[i]
		if p.Category != domain.CategoryDevice {
			continue
		}
		if (p.Brand == brandApple) != (family == FamilyIPhone) {
			continue
		}
		if best == nil || p.UnitPrice.LessThan(best.UnitPrice) {
			best = &p
		}
	}
	return best
}

func (a *Advisor) productBySKU(sku string) (domain.Product, bool) {
	for _, p := range a.products {
		if p.SKU == sku {
			return p, true
		}
	}
	return domain.Product{}, false
}
