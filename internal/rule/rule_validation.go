package rule

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// tdsWarningThreshold: a TDS rate above this is almost certainly a typo,
// but legal, so it only warns.
var tdsWarningThreshold = decimal.NewFromInt(30)

var hundred = decimal.NewFromInt(100)

type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *ValidationResult) addError(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

func (v *ValidationResult) addWarning(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}

// Validate checks a rule draft before it is saved. Commission creation
// never re-validates: a persisted rule is trusted.
func Validate(r *CommissionRule) ValidationResult {
	res := ValidationResult{Errors: []string{}, Warnings: []string{}}

	if r.Name == "" {
		res.addError("name is required")
	}

	if !r.ValidFrom.Before(r.ValidUntil) {
		res.addError("valid_from must be before valid_until")
	}

	switch r.CalculationMethod {
	case MethodFlat:
		if !rateInRange(r.BaseRate) {
			res.addError("base_rate must be between 0 and 100")
		}
	case MethodTieredVolume:
		validateTiers(r.Tiers, &res)
	case MethodPerUnitType:
		validateUnitTypeRates(r.UnitTypeRates, &res)
	case "":
		res.addError("calculation_method is required")
	default:
		res.addError("unknown calculation_method %q", r.CalculationMethod)
	}

	for i, b := range r.BonusRules {
		validateBonusRule(i, b, &res)
	}

	for i, d := range r.OtherDeductions {
		if d.Name == "" {
			res.addError("deduction %d: name is required", i+1)
		}
		if d.Rate.IsNegative() || d.Rate.GreaterThan(hundred) {
			res.addError("deduction %q: rate must be between 0 and 100", d.Name)
		}
		if d.Amount.IsNegative() {
			res.addError("deduction %q: amount must not be negative", d.Name)
		}
	}

	if !rateInRange(r.TDSRate) {
		res.addError("tds_rate must be between 0 and 100")
	} else if r.TDSRate.GreaterThan(tdsWarningThreshold) {
		res.addWarning("tds_rate above 30%% is unusual, please double-check")
	}

	if !rateInRange(r.GSTRate) {
		res.addError("gst_rate must be between 0 and 100")
	}
	if r.GSTRate.IsPositive() && r.GSTTreatment == "" {
		res.addError("gst_treatment is required when gst_rate is set")
	}
	if r.GSTTreatment != "" && r.GSTTreatment != GSTWithheld && r.GSTTreatment != GSTAdded {
		res.addError("gst_treatment must be %q or %q", GSTWithheld, GSTAdded)
	}

	switch r.PaymentSchedule {
	case ScheduleImmediate, ScheduleMonthly:
	default:
		res.addError("payment_schedule must be %q or %q", ScheduleImmediate, ScheduleMonthly)
	}
	if r.PaymentDelayDays < 0 {
		res.addError("payment_delay_days must not be negative")
	}
	if r.HoldPeriodDays < 0 {
		res.addError("hold_period_days must not be negative")
	}
	if r.MinimumPayoutAmount.IsNegative() {
		res.addError("minimum_payout_amount must not be negative")
	}

	if r.RequiresApproval && r.RequiredApprovalCount < 1 {
		res.addError("required_approval_count must be at least 1 when approval is required")
	}

	if r.ClawbackEligible && r.ClawbackPeriodDays < 1 {
		res.addError("clawback_period_days must be at least 1 when clawback is enabled")
	}

	res.IsValid = len(res.Errors) == 0
	return res
}

func validateTiers(tiers []Tier, res *ValidationResult) {
	if len(tiers) == 0 {
		res.addError("tiered_volume rules need at least one tier")
		return
	}

	for i, t := range tiers {
		if !rateInRange(t.Rate) {
			res.addError("tier %d: rate must be between 0 and 100", i+1)
		}
		if t.MinSales.IsNegative() {
			res.addError("tier %d: min_sales must not be negative", i+1)
		}
		if t.MaxSales != nil && !t.MinSales.LessThan(*t.MaxSales) {
			res.addError("tier %d: min_sales must be less than max_sales", i+1)
		}
		if t.MaxSales == nil && i != len(tiers)-1 {
			res.addError("tier %d: only the last tier may be open-ended", i+1)
		}
		if i > 0 {
			prev := tiers[i-1]
			if prev.MaxSales == nil {
				continue // already reported above
			}
			if !t.MinSales.Equal(*prev.MaxSales) {
				res.addError("tier %d: bands must be contiguous (min_sales must equal the previous max_sales)", i+1)
			}
		}
	}
}

func validateUnitTypeRates(rates []UnitTypeRate, res *ValidationResult) {
	if len(rates) == 0 {
		res.addError("per_unit_type rules need at least one unit type rate")
		return
	}

	seen := make(map[string]bool, len(rates))
	for i, ur := range rates {
		if ur.UnitType == "" {
			res.addError("unit type rate %d: unit_type is required", i+1)
			continue
		}
		if seen[ur.UnitType] {
			res.addError("unit type %q is configured more than once", ur.UnitType)
		}
		seen[ur.UnitType] = true
		if !rateInRange(ur.Rate) {
			res.addError("unit type %q: rate must be between 0 and 100", ur.UnitType)
		}
	}
}

func validateBonusRule(i int, b BonusRule, res *ValidationResult) {
	if b.Name == "" {
		res.addError("bonus rule %d: name is required", i+1)
	}
	if !b.ValidFrom.Before(b.ValidUntil) {
		res.addError("bonus rule %q: valid_from must be before valid_until", b.Name)
	}
	hasAmount := b.Amount.IsPositive()
	hasRate := b.Rate.IsPositive()
	if hasAmount == hasRate {
		res.addError("bonus rule %q: exactly one of amount or rate must be set", b.Name)
	}
	if b.Amount.IsNegative() {
		res.addError("bonus rule %q: amount must not be negative", b.Name)
	}
	if b.Rate.IsNegative() || b.Rate.GreaterThan(hundred) {
		res.addError("bonus rule %q: rate must be between 0 and 100", b.Name)
	}
}

func rateInRange(rate decimal.Decimal) bool {
	return !rate.IsNegative() && !rate.GreaterThan(hundred)
}
