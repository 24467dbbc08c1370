package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/telcostore/internal/retail/domain"
	"github.com/spf13/viper"
)

// Rules are the weighted business-rule tables driving the generator. The
// defaults reproduce the reference store; they are tunable assumptions, not
// business truth.
type Rules struct {
	Reference ReferenceRules `mapstructure:"reference"`
	Sales     SalesRules     `mapstructure:"sales"`
}

type WeightedValue struct {
	Value  string `mapstructure:"value"`
	Weight int    `mapstructure:"weight"`
}

type WeightedCount struct {
	Count  int `mapstructure:"count"`
	Weight int `mapstructure:"weight"`
}

type ReferenceRules struct {
	Cities      []WeightedValue `mapstructure:"cities"`
	Segments    []WeightedValue `mapstructure:"segments"`
	FirstNames  []string        `mapstructure:"first_names"`
	LastNames   []string        `mapstructure:"last_names"`
	HistoryDays int             `mapstructure:"history_days"`
}

type SalesRules struct {
	OpeningHour     int             `mapstructure:"opening_hour"`
	WindowMinutes   int             `mapstructure:"window_minutes"`
	Channels        []WeightedValue `mapstructure:"channels"`
	Mix             []MixRule       `mapstructure:"mix"`
	DeviceDiscounts []string        `mapstructure:"device_discounts"`
	Returns         ReturnRules     `mapstructure:"returns"`
}

// MixRule is one item-mix branch: which components a sale gets and how many
// add-on (accessory or protection) items follow.
type MixRule struct {
	Branch string          `mapstructure:"branch"`
	Weight int             `mapstructure:"weight"`
	Device bool            `mapstructure:"device"`
	Plan   bool            `mapstructure:"plan"`
	AddOns []WeightedCount `mapstructure:"add_ons"`
}

type ReturnRules struct {
	Probability      float64  `mapstructure:"probability"`
	EligibleChannels []string `mapstructure:"eligible_channels"`
	MinDays          int      `mapstructure:"min_days"`
	MaxDays          int      `mapstructure:"max_days"`
	Reasons          []string `mapstructure:"reasons"`
}

func DefaultRules() Rules {
	return Rules{
		Reference: ReferenceRules{
			Cities: []WeightedValue{
				{Value: "Regina", Weight: 1},
				{Value: "Saskatoon", Weight: 1},
				{Value: "Moose Jaw", Weight: 1},
				{Value: "Prince Albert", Weight: 1},
				{Value: "Swift Current", Weight: 1},
				{Value: "Yorkton", Weight: 1},
			},
			Segments: []WeightedValue{
				{Value: "Student", Weight: 18},
				{Value: "Family", Weight: 28},
				{Value: "Business", Weight: 12},
				{Value: "Senior", Weight: 10},
				{Value: "General", Weight: 32},
			},
			FirstNames: []string{
				"Neel", "Aman", "Raj", "Simran", "Kiran", "Arjun", "Priya", "Riya",
				"Sara", "Noah", "Liam", "Olivia", "Emma", "Maya", "Ishaan",
			},
			LastNames: []string{
				"Patel", "Singh", "Kaur", "Sharma", "Gupta", "Brown", "Smith",
				"Johnson", "Williams", "Davis", "Miller",
			},
			HistoryDays: 180,
		},
		Sales: SalesRules{
			OpeningHour:   9,
			WindowMinutes: 600,
			Channels: []WeightedValue{
				{Value: string(domain.ChannelInStore), Weight: 78},
				{Value: string(domain.ChannelPhone), Weight: 12},
				{Value: string(domain.ChannelEmail), Weight: 10},
			},
			Mix: []MixRule{
				{
					Branch: "device_bundle", Weight: 70, Device: true, Plan: true,
					AddOns: []WeightedCount{{0, 25}, {1, 40}, {2, 25}, {3, 10}},
				},
				{
					Branch: "plan_only", Weight: 20, Plan: true,
					AddOns: []WeightedCount{{0, 65}, {1, 35}},
				},
				{
					Branch: "accessory_only", Weight: 10,
					AddOns: []WeightedCount{{1, 1}},
				},
			},
			DeviceDiscounts: []string{"0", "0", "0", "20", "30", "40", "50"},
			Returns: ReturnRules{
				Probability:      0.06,
				EligibleChannels: []string{string(domain.ChannelInStore)},
				MinDays:          1,
				MaxDays:          14,
				Reasons:          []string{"Changed mind", "Defective", "Wrong fit", "Better deal elsewhere"},
			},
		},
	}
}

// LoadRules reads rules.yml when present and falls back to DefaultRules for
// every key the file does not set.
func LoadRules(cfg Config) (Rules, error) {
	v := viper.New()

	if cfg.Sim.RulesFile != "" {
		v.SetConfigFile(cfg.Sim.RulesFile)
	} else {
		v.SetConfigName("rules")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/telcostore")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("TELCOSTORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultRules()
	v.SetDefault("reference.cities", defaults.Reference.Cities)
	v.SetDefault("reference.segments", defaults.Reference.Segments)
	v.SetDefault("reference.first_names", defaults.Reference.FirstNames)
	v.SetDefault("reference.last_names", defaults.Reference.LastNames)
	v.SetDefault("reference.history_days", defaults.Reference.HistoryDays)
	v.SetDefault("sales.opening_hour", defaults.Sales.OpeningHour)
	v.SetDefault("sales.window_minutes", defaults.Sales.WindowMinutes)
	v.SetDefault("sales.channels", defaults.Sales.Channels)
	v.SetDefault("sales.mix", defaults.Sales.Mix)
	v.SetDefault("sales.device_discounts", defaults.Sales.DeviceDiscounts)
	v.SetDefault("sales.returns.probability", defaults.Sales.Returns.Probability)
	v.SetDefault("sales.returns.eligible_channels", defaults.Sales.Returns.EligibleChannels)
	v.SetDefault("sales.returns.min_days", defaults.Sales.Returns.MinDays)
	v.SetDefault("sales.returns.max_days", defaults.Sales.Returns.MaxDays)
	v.SetDefault("sales.returns.reasons", defaults.Sales.Returns.Reasons)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || cfg.Sim.RulesFile != "" {
			return Rules{}, fmt.Errorf("%w: read rules: %v", domain.ErrInvalidConfig, err)
		}
	}

	var rules Rules
	if err := v.Unmarshal(&rules); err != nil {
		return Rules{}, fmt.Errorf("%w: decode rules: %v", domain.ErrInvalidConfig, err)
	}
	if err := rules.Validate(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

// Validate checks the tables are usable. Reference-set emptiness is checked by
// the generator, which knows which branches are reachable.
func (r Rules) Validate() error {
	if err := validateWeights("reference.cities", r.Reference.Cities); err != nil {
		return err
	}
	if err := validateWeights("reference.segments", r.Reference.Segments); err != nil {
		return err
	}
	if len(r.Reference.FirstNames) == 0 || len(r.Reference.LastNames) == 0 {
		return fmt.Errorf("%w: reference name pools cannot be empty", domain.ErrInvalidConfig)
	}
	if r.Reference.HistoryDays < 0 {
		return fmt.Errorf("%w: reference.history_days must not be negative", domain.ErrInvalidConfig)
	}

	s := r.Sales
	if s.OpeningHour < 0 || s.OpeningHour > 23 {
		return fmt.Errorf("%w: sales.opening_hour must be within 0..23", domain.ErrInvalidConfig)
	}
	if s.WindowMinutes < 0 || s.OpeningHour*60+s.WindowMinutes >= 24*60 {
		return fmt.Errorf("%w: sales.window_minutes must keep sales inside the day", domain.ErrInvalidConfig)
	}
	if err := validateWeights("sales.channels", s.Channels); err != nil {
		return err
	}
	for _, c := range s.Channels {
		if !knownChannel(c.Value) {
			return fmt.Errorf("%w: unknown channel %q", domain.ErrInvalidConfig, c.Value)
		}
	}

	if len(s.Mix) == 0 {
		return fmt.Errorf("%w: sales.mix cannot be empty", domain.ErrInvalidConfig)
	}
	total := 0
	for _, m := range s.Mix {
		if m.Weight < 0 {
			return fmt.Errorf("%w: mix branch %q has a negative weight", domain.ErrInvalidConfig, m.Branch)
		}
		if !m.Device && !m.Plan && maxCount(m.AddOns) == 0 {
			return fmt.Errorf("%w: mix branch %q produces empty sales", domain.ErrInvalidConfig, m.Branch)
		}
		if len(m.AddOns) > 0 {
			if err := validateCounts("sales.mix."+m.Branch+".add_ons", m.AddOns); err != nil {
				return err
			}
		}
		total += m.Weight
	}
	if total == 0 {
		return fmt.Errorf("%w: sales.mix weights sum to zero", domain.ErrInvalidConfig)
	}

	if len(s.DeviceDiscounts) == 0 {
		return fmt.Errorf("%w: sales.device_discounts cannot be empty", domain.ErrInvalidConfig)
	}
	for _, raw := range s.DeviceDiscounts {
		d, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil || d.IsNegative() {
			return fmt.Errorf("%w: invalid device discount %q", domain.ErrInvalidConfig, raw)
		}
	}

	ret := s.Returns
	if ret.Probability < 0 || ret.Probability > 1 {
		return fmt.Errorf("%w: sales.returns.probability must be within [0, 1]", domain.ErrInvalidConfig)
	}
	if ret.MinDays < 1 || ret.MaxDays < ret.MinDays {
		return fmt.Errorf("%w: return window [%d, %d] is invalid", domain.ErrInvalidConfig, ret.MinDays, ret.MaxDays)
	}
	if ret.Probability > 0 && len(ret.Reasons) == 0 {
		return fmt.Errorf("%w: sales.returns.reasons cannot be empty", domain.ErrInvalidConfig)
	}
	for _, c := range ret.EligibleChannels {
		if !knownChannel(c) {
			return fmt.Errorf("%w: unknown return channel %q", domain.ErrInvalidConfig, c)
		}
	}
	return nil
}

func validateWeights(name string, values []WeightedValue) error {
	if len(values) == 0 {
		return fmt.Errorf("%w: %s cannot be empty", domain.ErrInvalidConfig, name)
	}
	total := 0
	for _, v := range values {
		if v.Weight < 0 {
			return fmt.Errorf("%w: %s has a negative weight for %q", domain.ErrInvalidConfig, name, v.Value)
		}
		total += v.Weight
	}
	if total == 0 {
		return fmt.Errorf("%w: %s weights sum to zero", domain.ErrInvalidConfig, name)
	}
	return nil
}

func validateCounts(name string, counts []WeightedCount) error {
	total := 0
	for _, c := range counts {
		if c.Count < 0 || c.Weight < 0 {
			return fmt.Errorf("%w: %s has a negative entry", domain.ErrInvalidConfig, name)
		}
		total += c.Weight
	}
	if total == 0 {
		return fmt.Errorf("%w: %s weights sum to zero", domain.ErrInvalidConfig, name)
	}
	return nil
}

func maxCount(counts []WeightedCount) int {
	max := 0
	for _, c := range counts {
		if c.Weight > 0 && c.Count > max {
			max = c.Count
		}
	}
	return max
}

func knownChannel(value string) bool {
	switch domain.Channel(value) {
	case domain.ChannelInStore, domain.ChannelPhone, domain.ChannelEmail:
		return true
	default:
		return false
	}
}
