package simulation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/telcostore/internal/config"
	"github.com/smallbiznis/telcostore/internal/retail/domain"
)

// Branch is one outcome of the item-mix draw.
type Branch struct {
	Name         string
	Weight       int
	Device       bool
	Plan         bool
	AddOnCounts  []int
	AddOnWeights []int
}

// maxAddOns is the largest add-on count the branch can draw.
func (b Branch) maxAddOns() int {
	max := 0
	for i, c := range b.AddOnCounts {
		if b.AddOnWeights[i] > 0 && c > max {
			max = c
		}
	}
	return max
}

type ReturnPolicy struct {
	Probability float64
	Eligible    map[domain.Channel]bool
	MinDays     int
	MaxDays     int
	Reasons     []string
}

// Policy is the resolved branching table of the generator: every weighted
// condition the engine draws against, in one inspectable value.
type Policy struct {
	OpeningHour     int
	WindowMinutes   int
	Channels        []domain.Channel
	ChannelWeights  []int
	Branches        []Branch
	BranchWeights   []int
	DeviceDiscounts []decimal.Decimal
	Returns         ReturnPolicy
}

func NewPolicy(rules config.Rules) (Policy, error) {
	if err := rules.Validate(); err != nil {
		return Policy{}, err
	}
	s := rules.Sales

	p := Policy{
		OpeningHour:   s.OpeningHour,
		WindowMinutes: s.WindowMinutes,
		Returns: ReturnPolicy{
			Probability: s.Returns.Probability,
			Eligible:    map[domain.Channel]bool{},
			MinDays:     s.Returns.MinDays,
			MaxDays:     s.Returns.MaxDays,
			Reasons:     append([]string(nil), s.Returns.Reasons...),
		},
	}
	for _, c := range s.Channels {
		p.Channels = append(p.Channels, domain.Channel(c.Value))
		p.ChannelWeights = append(p.ChannelWeights, c.Weight)
	}
	for _, m := range s.Mix {
		b := Branch{Name: m.Branch, Weight: m.Weight, Device: m.Device, Plan: m.Plan}
		for _, a := range m.AddOns {
			b.AddOnCounts = append(b.AddOnCounts, a.Count)
			b.AddOnWeights = append(b.AddOnWeights, a.Weight)
		}
		p.Branches = append(p.Branches, b)
		p.BranchWeights = append(p.BranchWeights, m.Weight)
	}
	for _, raw := range s.DeviceDiscounts {
		d, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return Policy{}, fmt.Errorf("%w: device discount %q: %v", domain.ErrInvalidConfig, raw, err)
		}
		p.DeviceDiscounts = append(p.DeviceDiscounts, d)
	}
	for _, c := range s.Returns.EligibleChannels {
		p.Returns.Eligible[domain.Channel(c)] = true
	}
	return p, nil
}

// DefaultPolicy resolves the built-in rule tables.
func DefaultPolicy() Policy {
	p, err := NewPolicy(config.DefaultRules())
	if err != nil {
		panic(err)
	}
	return p
}

// catalog is the reference data split the way the engine draws from it.
type catalog struct {
	customers []domain.Customer
	reps      []domain.Rep
	plans     []domain.Plan
	devices   []domain.Product
	addOns    []domain.Product
}

func newCatalog(ref domain.ReferenceData) catalog {
	c := catalog{
		customers: ref.Customers,
		reps:      ref.Reps,
		plans:     ref.Plans,
	}
	for _, p := range ref.Products {
		switch {
		case p.Category == domain.CategoryDevice:
			c.devices = append(c.devices, p)
		case p.Category.IsAddOn():
			c.addOns = append(c.addOns, p)
		}
	}
	return c
}

// validate fails when a reference set needed by a reachable branch is empty.
func (p Policy) validate(c catalog, salesPossible bool) error {
	if !salesPossible {
		return nil
	}
	if len(c.customers) == 0 {
		return fmt.Errorf("%w: customers", domain.ErrEmptyReferenceSet)
	}
	if len(c.reps) == 0 {
		return fmt.Errorf("%w: reps", domain.ErrEmptyReferenceSet)
	}
	for _, b := range p.Branches {
		if b.Weight == 0 {
			continue
		}
		if b.Device && len(c.devices) == 0 {
			return fmt.Errorf("%w: devices required by branch %q", domain.ErrEmptyReferenceSet, b.Name)
		}
		if b.Plan && len(c.plans) == 0 {
			return fmt.Errorf("%w: plans required by branch %q", domain.ErrEmptyReferenceSet, b.Name)
		}
		if b.maxAddOns() > 0 && len(c.addOns) == 0 {
			return fmt.Errorf("%w: accessories required by branch %q", domain.ErrEmptyReferenceSet, b.Name)
		}
	}
	return nil
}
