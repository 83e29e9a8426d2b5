package billing

import (
	"github.com/shopspring/decimal"
)

// ElectricityTier is one consumption bracket with its own per-kWh rate.
// A zero SpanKwh marks the open-ended final bracket.
type ElectricityTier struct {
	SpanKwh    decimal.Decimal `json:"span_kwh"`
	RatePerKwh decimal.Decimal `json:"rate_per_kwh"`
}

// Tariff holds the rate configuration used by the fee calculator
type Tariff struct {
	ElectricityTiers []ElectricityTier `json:"electricity_tiers"`
	ElectricityVAT   decimal.Decimal   `json:"electricity_vat"` // percent applied to the tier subtotal
	WaterPerOccupant decimal.Decimal   `json:"water_per_occupant"`
	ParkingBaseRate  decimal.Decimal   `json:"parking_base_rate"`
}

// DefaultTariff returns the fallback rate table used when a room has no
// tariff configured. Electricity follows the EVN residential brackets.
func DefaultTariff() *Tariff {
	return &Tariff{
		ElectricityTiers: []ElectricityTier{
			{SpanKwh: decimal.NewFromInt(50), RatePerKwh: decimal.NewFromInt(1678)},
			{SpanKwh: decimal.NewFromInt(50), RatePerKwh: decimal.NewFromInt(1734)},
			{SpanKwh: decimal.NewFromInt(100), RatePerKwh: decimal.NewFromInt(2014)},
			{SpanKwh: decimal.NewFromInt(100), RatePerKwh: decimal.NewFromInt(2536)},
			{SpanKwh: decimal.NewFromInt(100), RatePerKwh: decimal.NewFromInt(2834)},
			{SpanKwh: decimal.Zero, RatePerKwh: decimal.NewFromInt(2927)},
		},
		ElectricityVAT:   decimal.NewFromInt(10),
		WaterPerOccupant: decimal.NewFromInt(100000),
		ParkingBaseRate:  decimal.NewFromInt(100000),
	}
}

// Validate checks the tariff configuration
func (t *Tariff) Validate() error {
	if len(t.ElectricityTiers) == 0 {
		return NewValidationError("tariff requires at least one electricity tier")
	}
	for _, tier := range t.ElectricityTiers {
		if tier.SpanKwh.IsNegative() {
			return NewValidationError("electricity tier span cannot be negative")
		}
		if tier.RatePerKwh.IsNegative() {
			return NewValidationError("electricity tier rate cannot be negative")
		}
	}
	if t.ElectricityVAT.IsNegative() {
		return NewValidationError("electricity VAT percent cannot be negative")
	}
	if t.WaterPerOccupant.IsNegative() {
		return NewValidationError("water rate cannot be negative")
	}
	if t.ParkingBaseRate.IsNegative() {
		return NewValidationError("parking base rate cannot be negative")
	}
	return nil
}
