package commission

import (
	"time"

	commissionerrors "estate-crm/internal/commission/errors"
	"estate-crm/internal/partner"
	"estate-crm/internal/rule"
	"estate-crm/internal/sale"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// BreakdownLine keeps the unrounded amount so the audit trail can always be
// reconciled against the rounded persisted totals.
type BreakdownLine struct {
	Label  string          `json:"label"`
	Base   decimal.Decimal `json:"base"`
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

type BonusLine struct {
	Name   string          `json:"name"`
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

type DeductionLine struct {
	Name   string          `json:"name"`
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

// Calculation is the calculator's output. Gross, totals and net are rounded
// half-up to 2 decimal places; the line slices retain full precision.
type Calculation struct {
	Method          rule.CalculationMethod
	Breakdown       []BreakdownLine
	GrossCommission decimal.Decimal
	Bonuses         []BonusLine
	TotalBonuses    decimal.Decimal
	Deductions      []DeductionLine
	TotalDeductions decimal.Decimal
	NetCommission   decimal.Decimal
	TDSDeducted     decimal.Decimal
	GSTAmount       decimal.Decimal
	CalculatedAt    time.Time
}

// methodCalculator computes the unrounded gross for one calculation method.
// One variant exists per method so each method's edge cases stay localized.
type methodCalculator interface {
	calculate(snap sale.Snapshot, perf partner.Performance, r *rule.CommissionRule) (decimal.Decimal, []BreakdownLine, error)
}

func calculatorFor(r *rule.CommissionRule) (methodCalculator, error) {
	switch r.CalculationMethod {
	case rule.MethodFlat:
		return flatCalculator{}, nil
	case rule.MethodTieredVolume:
		return tieredVolumeCalculator{}, nil
	case rule.MethodPerUnitType:
		return perUnitTypeCalculator{}, nil
	default:
		return nil, commissionerrors.ErrRuleMismatch
	}
}

type flatCalculator struct{}

func (flatCalculator) calculate(snap sale.Snapshot, _ partner.Performance, r *rule.CommissionRule) (decimal.Decimal, []BreakdownLine, error) {
	gross := snap.SalePrice.Mul(r.BaseRate).Div(hundred)
	lines := []BreakdownLine{{
		Label:  "flat rate on sale price",
		Base:   snap.SalePrice,
		Rate:   r.BaseRate,
		Amount: gross,
	}}
	return gross, lines, nil
}

type tieredVolumeCalculator struct{}

// The band is located by the partner's cumulative sales volume (which
// includes the current sale); the band's rate then applies to the current
// sale price alone, not the whole volume.
func (tieredVolumeCalculator) calculate(snap sale.Snapshot, perf partner.Performance, r *rule.CommissionRule) (decimal.Decimal, []BreakdownLine, error) {
	volume := perf.TotalSalesVolume

	var band *rule.Tier
	for i := range r.Tiers {
		t := r.Tiers[i]
		if volume.LessThan(t.MinSales) {
			continue
		}
		if t.MaxSales != nil && !volume.LessThan(*t.MaxSales) {
			continue
		}
		band = &t
		break
	}
	if band == nil {
		return decimal.Zero, nil, commissionerrors.ErrRuleMismatch
	}

	gross := snap.SalePrice.Mul(band.Rate).Div(hundred)
	lines := []BreakdownLine{{
		Label:  "tier rate for volume " + volume.String(),
		Base:   snap.SalePrice,
		Rate:   band.Rate,
		Amount: gross,
	}}
	return gross, lines, nil
}

type perUnitTypeCalculator struct{}

func (perUnitTypeCalculator) calculate(snap sale.Snapshot, _ partner.Performance, r *rule.CommissionRule) (decimal.Decimal, []BreakdownLine, error) {
	for _, ur := range r.UnitTypeRates {
		if ur.UnitType != snap.UnitType {
			continue
		}
		gross := snap.SalePrice.Mul(ur.Rate).Div(hundred)
		lines := []BreakdownLine{{
			Label:  "unit type rate: " + snap.UnitType,
			Base:   snap.SalePrice,
			Rate:   ur.Rate,
			Amount: gross,
		}}
		return gross, lines, nil
	}

	// No silent default: an unmapped unit type is a rule/sale mismatch.
	return decimal.Zero, nil, commissionerrors.ErrRuleMismatch
}

// Calculate maps (sale snapshot, partner performance, rule) to a full
// calculation breakdown. It is pure: no I/O, no clock reads besides now.
func Calculate(snap sale.Snapshot, perf partner.Performance, r *rule.CommissionRule, now time.Time) (Calculation, error) {
	mc, err := calculatorFor(r)
	if err != nil {
		return Calculation{}, err
	}

	gross, breakdown, err := mc.calculate(snap, perf, r)
	if err != nil {
		return Calculation{}, err
	}

	bonuses, totalBonuses := applyBonuses(snap, perf, r, gross)
	deductions, totalDeductions, tds, gst := applyDeductions(r, gross)

	// Rounding happens once, on the final full-precision net; rounding each
	// intermediate term would compound the error.
	net := gross.Add(totalBonuses).Sub(totalDeductions)
	if net.IsNegative() {
		return Calculation{}, commissionerrors.ErrNegativeNet
	}

	return Calculation{
		Method:          r.CalculationMethod,
		Breakdown:       breakdown,
		GrossCommission: roundMoney(gross),
		Bonuses:         bonuses,
		TotalBonuses:    roundMoney(totalBonuses),
		Deductions:      deductions,
		TotalDeductions: roundMoney(totalDeductions),
		NetCommission:   roundMoney(net),
		TDSDeducted:     roundMoney(tds),
		GSTAmount:       roundMoney(gst),
		CalculatedAt:    now,
	}, nil
}

func applyBonuses(snap sale.Snapshot, perf partner.Performance, r *rule.CommissionRule, gross decimal.Decimal) ([]BonusLine, decimal.Decimal) {
	var lines []BonusLine
	total := decimal.Zero

	for _, b := range r.BonusRules {
		if !b.Applies(snap.SaleDate) {
			continue
		}
		if !bonusConditionMet(b.Condition, snap, perf) {
			continue
		}

		amount := b.Amount
		if b.Rate.IsPositive() {
			amount = gross.Mul(b.Rate).Div(hundred)
		}

		lines = append(lines, BonusLine{Name: b.Name, Rate: b.Rate, Amount: amount})
		total = total.Add(amount)
	}

	return lines, total
}

func bonusConditionMet(c rule.BonusCondition, snap sale.Snapshot, perf partner.Performance) bool {
	if c.MinSalePrice != nil && snap.SalePrice.LessThan(*c.MinSalePrice) {
		return false
	}
	if c.MinUnitsSold != nil && perf.TotalUnitsSold < *c.MinUnitsSold {
		return false
	}
	if c.MinRating != nil && perf.AverageRating.LessThan(*c.MinRating) {
		return false
	}
	if c.MinMonthsWith != nil && perf.MonthsWithCompany < *c.MinMonthsWith {
		return false
	}
	return true
}

func applyDeductions(r *rule.CommissionRule, gross decimal.Decimal) (lines []DeductionLine, total, tds, gst decimal.Decimal) {
	total = decimal.Zero

	tds = gross.Mul(r.TDSRate).Div(hundred)
	if tds.IsPositive() {
		lines = append(lines, DeductionLine{Name: "TDS", Rate: r.TDSRate, Amount: tds})
		total = total.Add(tds)
	}

	gst = gross.Mul(r.GSTRate).Div(hundred)
	if gst.IsPositive() && r.GSTTreatment == rule.GSTWithheld {
		// GSTAdded is invoiced on top of the receivable and collected
		// outside the engine, so it never reduces the net here.
		lines = append(lines, DeductionLine{Name: "GST", Rate: r.GSTRate, Amount: gst})
		total = total.Add(gst)
	}

	for _, d := range r.OtherDeductions {
		amount := d.Amount
		if d.Rate.IsPositive() {
			amount = gross.Mul(d.Rate).Div(hundred)
		}
		if amount.IsZero() {
			continue
		}
		lines = append(lines, DeductionLine{Name: d.Name, Rate: d.Rate, Amount: amount})
		total = total.Add(amount)
	}

	return lines, total, tds, gst
}

// roundMoney rounds half-up to the currency's minor unit.
func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
