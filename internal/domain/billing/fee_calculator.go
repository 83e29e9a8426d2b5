package billing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/nhatro/backend/internal/domain/shared/valueobject"
)

// VehicleType identifies a parked vehicle category
type VehicleType string

const (
	VehicleTypeMotorbike    VehicleType = "motorbike"
	VehicleTypeElectricBike VehicleType = "electric_bike"
	VehicleTypeBicycle      VehicleType = "bicycle"
)

// IsValid checks if the vehicle type is valid
func (v VehicleType) IsValid() bool {
	switch v {
	case VehicleTypeMotorbike, VehicleTypeElectricBike, VehicleTypeBicycle:
		return true
	}
	return false
}

// electricBikeSurcharge is the multiplier applied to the parking base rate
// for electric bikes (charging cost is carried by the operator).
var electricBikeSurcharge = decimal.NewFromInt(2)

// Vehicle is one parked vehicle declared for a room
type Vehicle struct {
	Type         VehicleType `json:"type"`
	LicensePlate string      `json:"license_plate,omitempty"`
}

// UsageInput carries one month's metered usage for a room.
// WaterM3 is accepted for forward compatibility but unused: water is billed
// flat per occupant, an explicit product decision.
type UsageInput struct {
	ElectricityKwh decimal.Decimal `json:"electricity_kwh"`
	WaterM3        decimal.Decimal `json:"water_m3"`
	OccupantCount  int             `json:"occupant_count"`
	Vehicles       []Vehicle       `json:"vehicles,omitempty"`
	VehicleCount   int             `json:"vehicle_count,omitempty"` // legacy simple mode, ignored when Vehicles is set
	ExcludeRent    bool            `json:"exclude_rent"`
}

// Validate checks the usage input
func (u *UsageInput) Validate() error {
	if u.ElectricityKwh.IsNegative() {
		return NewValidationError("electricity consumption cannot be negative")
	}
	if u.WaterM3.IsNegative() {
		return NewValidationError("water consumption cannot be negative")
	}
	if u.OccupantCount < 0 {
		return NewValidationError("occupant count cannot be negative")
	}
	if u.VehicleCount < 0 {
		return NewValidationError("vehicle count cannot be negative")
	}
	for _, v := range u.Vehicles {
		if !v.Type.IsValid() {
			return NewValidationError(fmt.Sprintf("invalid vehicle type: %s", v.Type))
		}
	}
	return nil
}

// FeeBreakdown is the result of a monthly fee calculation. Total is always
// the exact sum of the line totals, never independently recomputed.
type FeeBreakdown struct {
	LineItems   LineItems         `json:"line_items"`
	Total       valueobject.Money `json:"total"`
	Electricity valueobject.Money `json:"electricity"`
	Water       valueobject.Money `json:"water"`
	Parking     valueobject.Money `json:"parking"`
	Rent        valueobject.Money `json:"rent"`
}

// CalculateMonthlyFees computes the itemized monthly charges for a room from
// its configuration and the month's usage. Pure: no clock, no storage.
// A nil tariff falls back to DefaultTariff.
func CalculateMonthlyFees(monthlyRent valueobject.Money, tariff *Tariff, usage UsageInput) (*FeeBreakdown, error) {
	if err := usage.Validate(); err != nil {
		return nil, err
	}
	if tariff == nil {
		tariff = DefaultTariff()
	}
	if err := tariff.Validate(); err != nil {
		return nil, err
	}

	var items LineItems
	breakdown := &FeeBreakdown{
		Electricity: valueobject.ZeroVND(),
		Water:       valueobject.ZeroVND(),
		Parking:     valueobject.ZeroVND(),
		Rent:        valueobject.ZeroVND(),
	}

	if !usage.ExcludeRent {
		rent, err := NewLineItem("Room rent", decimal.NewFromInt(1), monthlyRent.Amount())
		if err != nil {
			return nil, err
		}
		items = append(items, rent)
		breakdown.Rent = rent.GetLineTotalMoney()
	}

	electricityItems, electricityTotal, err := electricityLineItems(tariff, usage.ElectricityKwh)
	if err != nil {
		return nil, err
	}
	items = append(items, electricityItems...)
	breakdown.Electricity = valueobject.NewMoneyVND(electricityTotal)

	if usage.OccupantCount > 0 {
		water, err := NewLineItem("Water (flat rate per occupant)",
			decimal.NewFromInt(int64(usage.OccupantCount)), tariff.WaterPerOccupant)
		if err != nil {
			return nil, err
		}
		items = append(items, water)
		breakdown.Water = water.GetLineTotalMoney()
	}

	parkingItems, parkingTotal, err := parkingLineItems(tariff, usage)
	if err != nil {
		return nil, err
	}
	items = append(items, parkingItems...)
	breakdown.Parking = valueobject.NewMoneyVND(parkingTotal)

	breakdown.LineItems = items
	breakdown.Total = valueobject.NewMoneyVND(items.Total())
	return breakdown, nil
}

// electricityLineItems splits consumption progressively across the tier
// table and applies VAT to the tier subtotal.
func electricityLineItems(tariff *Tariff, consumptionKwh decimal.Decimal) (LineItems, decimal.Decimal, error) {
	if consumptionKwh.IsZero() {
		return nil, decimal.Zero, nil
	}

	var items LineItems
	remaining := consumptionKwh
	for i, tier := range tariff.ElectricityTiers {
		if !remaining.IsPositive() {
			break
		}
		inTier := remaining
		if tier.SpanKwh.IsPositive() && remaining.GreaterThan(tier.SpanKwh) {
			inTier = tier.SpanKwh
		}
		line, err := NewLineItem(fmt.Sprintf("Electricity tier %d", i+1), inTier, tier.RatePerKwh)
		if err != nil {
			return nil, decimal.Zero, err
		}
		items = append(items, line)
		remaining = remaining.Sub(inTier)
	}
	if remaining.IsPositive() {
		// Consumption beyond the last bounded tier bills at the final tier rate
		last := tariff.ElectricityTiers[len(tariff.ElectricityTiers)-1]
		line, err := NewLineItem("Electricity overage", remaining, last.RatePerKwh)
		if err != nil {
			return nil, decimal.Zero, err
		}
		items = append(items, line)
	}

	subtotal := items.Total()
	if tariff.ElectricityVAT.IsPositive() {
		vatAmount := subtotal.Mul(tariff.ElectricityVAT).Div(decimal.NewFromInt(100)).Round(valueobject.MoneyScale)
		vat, err := NewLineItem(fmt.Sprintf("Electricity VAT (%s%%)", tariff.ElectricityVAT.String()),
			decimal.NewFromInt(1), vatAmount)
		if err != nil {
			return nil, decimal.Zero, err
		}
		items = append(items, vat)
	}

	return items, items.Total(), nil
}

// parkingLineItems bills declared vehicles per type, or falls back to the
// legacy flat count when no vehicle list is given.
func parkingLineItems(tariff *Tariff, usage UsageInput) (LineItems, decimal.Decimal, error) {
	var items LineItems

	if len(usage.Vehicles) > 0 {
		counts := map[VehicleType]int64{}
		for _, v := range usage.Vehicles {
			counts[v.Type]++
		}
		for _, vt := range []VehicleType{VehicleTypeMotorbike, VehicleTypeElectricBike, VehicleTypeBicycle} {
			n, ok := counts[vt]
			if !ok {
				continue
			}
			rate := tariff.ParkingBaseRate
			desc := fmt.Sprintf("Parking (%s)", vt)
			if vt == VehicleTypeElectricBike {
				rate = tariff.ParkingBaseRate.Mul(electricBikeSurcharge)
			}
			line, err := NewLineItem(desc, decimal.NewFromInt(n), rate)
			if err != nil {
				return nil, decimal.Zero, err
			}
			items = append(items, line)
		}
	} else if usage.VehicleCount > 0 {
		line, err := NewLineItem("Parking", decimal.NewFromInt(int64(usage.VehicleCount)), tariff.ParkingBaseRate)
		if err != nil {
			return nil, decimal.Zero, err
		}
		items = append(items, line)
	}

	return items, items.Total(), nil
}
