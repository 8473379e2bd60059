package rule

import (
	"time"

	"github.com/shopspring/decimal"
)

type TierRequest struct {
	MinSales decimal.Decimal  `json:"min_sales"`
	MaxSales *decimal.Decimal `json:"max_sales"`
	Rate     decimal.Decimal  `json:"rate"`
}

type UnitTypeRateRequest struct {
	UnitType string          `json:"unit_type" binding:"required"`
	Rate     decimal.Decimal `json:"rate"`
}

type BonusRuleRequest struct {
	Name       string          `json:"name" binding:"required"`
	Condition  BonusCondition  `json:"condition"`
	Amount     decimal.Decimal `json:"amount"`
	Rate       decimal.Decimal `json:"rate"`
	ValidFrom  string          `json:"valid_from" binding:"required"`
	ValidUntil string          `json:"valid_until" binding:"required"`
}

type DeductionRequest struct {
	Name   string          `json:"name" binding:"required"`
	Amount decimal.Decimal `json:"amount"`
	Rate   decimal.Decimal `json:"rate"`
}

type CreateRuleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	ValidFrom   string `json:"valid_from" binding:"required"`
	ValidUntil  string `json:"valid_until" binding:"required"`

	CalculationMethod string                `json:"calculation_method" binding:"required"`
	BaseRate          decimal.Decimal       `json:"base_rate"`
	Tiers             []TierRequest         `json:"tiers"`
	UnitTypeRates     []UnitTypeRateRequest `json:"unit_type_rates"`

	BonusRules      []BonusRuleRequest `json:"bonus_rules"`
	OtherDeductions []DeductionRequest `json:"other_deductions"`

	TDSRate      decimal.Decimal `json:"tds_rate"`
	GSTRate      decimal.Decimal `json:"gst_rate"`
	GSTTreatment string          `json:"gst_treatment"`

	PaymentSchedule     string          `json:"payment_schedule" binding:"required"`
	PaymentDelayDays    int             `json:"payment_delay_days"`
	HoldPeriodDays      int             `json:"hold_period_days"`
	MinimumPayoutAmount decimal.Decimal `json:"minimum_payout_amount"`

	RequiresApproval      bool     `json:"requires_approval"`
	RequiredApprovalCount int      `json:"required_approval_count"`
	Approvers             []string `json:"approvers"`

	ClawbackEligible   bool `json:"clawback_eligible"`
	ClawbackPeriodDays int  `json:"clawback_period_days"`
}

type RuleResponse struct {
	ID          string `json:"id"`
	CompanyID   string `json:"company_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"is_active"`
	ValidFrom   string `json:"valid_from"`
	ValidUntil  string `json:"valid_until"`

	CalculationMethod string          `json:"calculation_method"`
	BaseRate          decimal.Decimal `json:"base_rate"`
	Tiers             []Tier          `json:"tiers,omitempty"`
	UnitTypeRates     []UnitTypeRate  `json:"unit_type_rates,omitempty"`

	BonusRules      []BonusRule `json:"bonus_rules,omitempty"`
	OtherDeductions []Deduction `json:"other_deductions,omitempty"`

	TDSRate      decimal.Decimal `json:"tds_rate"`
	GSTRate      decimal.Decimal `json:"gst_rate"`
	GSTTreatment string          `json:"gst_treatment,omitempty"`

	PaymentSchedule     string          `json:"payment_schedule"`
	PaymentDelayDays    int             `json:"payment_delay_days"`
	HoldPeriodDays      int             `json:"hold_period_days"`
	MinimumPayoutAmount decimal.Decimal `json:"minimum_payout_amount"`

	RequiresApproval      bool     `json:"requires_approval"`
	RequiredApprovalCount int      `json:"required_approval_count"`
	Approvers             []string `json:"approvers,omitempty"`

	ClawbackEligible   bool `json:"clawback_eligible"`
	ClawbackPeriodDays int  `json:"clawback_period_days"`

	UsageCount          int64           `json:"usage_count"`
	TotalCommissionPaid decimal.Decimal `json:"total_commission_paid"`
	LastUsedAt          *string         `json:"last_used_at,omitempty"`

	CreatedBy string `json:"created_by"`
	CreatedAt string `json:"created_at"`
}

func mapToResponse(r CommissionRule) RuleResponse {
	resp := RuleResponse{
		ID:                r.ID.String(),
		CompanyID:         r.CompanyID.String(),
		Name:              r.Name,
		Description:       r.Description,
		IsActive:          r.IsActive,
		ValidFrom:         r.ValidFrom.Format("2006-01-02"),
		ValidUntil:        r.ValidUntil.Format("2006-01-02"),
		CalculationMethod: string(r.CalculationMethod),
		BaseRate:          r.BaseRate,
		Tiers:             r.Tiers,
		UnitTypeRates:     r.UnitTypeRates,
		BonusRules:        r.BonusRules,
		OtherDeductions:   r.OtherDeductions,
		TDSRate:           r.TDSRate,
		GSTRate:           r.GSTRate,
		GSTTreatment:      string(r.GSTTreatment),

		PaymentSchedule:     string(r.PaymentSchedule),
		PaymentDelayDays:    r.PaymentDelayDays,
		HoldPeriodDays:      r.HoldPeriodDays,
		MinimumPayoutAmount: r.MinimumPayoutAmount,

		RequiresApproval:      r.RequiresApproval,
		RequiredApprovalCount: r.RequiredApprovalCount,
		Approvers:             r.Approvers,

		ClawbackEligible:   r.ClawbackEligible,
		ClawbackPeriodDays: r.ClawbackPeriodDays,

		UsageCount:          r.UsageCount,
		TotalCommissionPaid: r.TotalCommissionPaid,

		CreatedBy: r.CreatedBy.String(),
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
	}
	if r.LastUsedAt != nil {
		v := r.LastUsedAt.Format(time.RFC3339)
		resp.LastUsedAt = &v
	}
	return resp
}

func mapToListResponse(rules []CommissionRule) []RuleResponse {
	resp := make([]RuleResponse, len(rules))
	for i, r := range rules {
		resp[i] = mapToResponse(r)
	}
	return resp
}
