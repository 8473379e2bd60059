package commission

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateCommissionRequest struct {
	SaleID    string `json:"sale_id" binding:"required,uuid"`
	PartnerID string `json:"partner_id" binding:"required,uuid"`
	RuleID    string `json:"rule_id" binding:"required,uuid"`
}

type ApproveCommissionRequest struct {
	Notes string `json:"notes"`
}

type RejectCommissionRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type RecordPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Method    string          `json:"method" binding:"required,oneof=bank_transfer cheque upi cash"`
	Reference string          `json:"reference"`
	PaidOn    string          `json:"paid_on" binding:"required"`
}

type ClawbackCommissionRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type RecalculateCommissionRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type BulkApproveRequest struct {
	CommissionIDs []string `json:"commission_ids" binding:"required,min=1,max=100,dive,uuid"`
	Notes         string   `json:"notes"`
}

type BulkRecordPaymentsRequest struct {
	CommissionIDs []string `json:"commission_ids" binding:"required,min=1,max=100,dive,uuid"`
	Method        string   `json:"method" binding:"required,oneof=bank_transfer cheque upi cash"`
	Reference     string   `json:"reference"`
	PaidOn        string   `json:"paid_on" binding:"required"`
}

type ListCommissionsQuery struct {
	Status        string `form:"status" binding:"omitempty,oneof=PENDING_APPROVAL APPROVED PARTIALLY_PAID PAID REJECTED CLAWED_BACK"`
	PartnerID     string `form:"partner_id" binding:"omitempty,uuid"`
	FinancialYear string `form:"financial_year"`
	Page          int    `form:"page,default=1" binding:"omitempty,min=1"`
	Limit         int    `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
}

type BreakdownLineResponse struct {
	Label  string          `json:"label"`
	Base   decimal.Decimal `json:"base"`
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

type BonusLineResponse struct {
	Name   string          `json:"name"`
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

type DeductionLineResponse struct {
	Name   string          `json:"name"`
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

type InstallmentResponse struct {
	ID        string          `json:"id"`
	Number    int             `json:"number"`
	Amount    decimal.Decimal `json:"amount"`
	DueDate   string          `json:"due_date"`
	HoldUntil *string         `json:"hold_until,omitempty"`
	Status    string          `json:"status"`
	PaidAt    *string         `json:"paid_at,omitempty"`
}

type AdjustmentResponse struct {
	ID             string          `json:"id"`
	Type           string          `json:"type"`
	Amount         decimal.Decimal `json:"amount"`
	PreviousAmount decimal.Decimal `json:"previous_amount"`
	NewAmount      decimal.Decimal `json:"new_amount"`
	Reason         string          `json:"reason"`
	ActorID        string          `json:"actor_id"`
	CreatedAt      string          `json:"created_at"`
}

type DecisionResponse struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Decision  string `json:"decision"`
	Notes     string `json:"notes,omitempty"`
	DecidedAt string `json:"decided_at"`
}

type PaymentResponse struct {
	ID         string          `json:"id"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
	Reference  string          `json:"reference,omitempty"`
	PaidOn     string          `json:"paid_on"`
	RecordedBy string          `json:"recorded_by"`
}

type CommissionResponse struct {
	ID              string                  `json:"id"`
	CompanyID       string                  `json:"company_id"`
	SaleID          string                  `json:"sale_id"`
	PartnerID       string                  `json:"partner_id"`
	RuleID          string                  `json:"rule_id"`
	Method          string                  `json:"method"`
	Breakdown       []BreakdownLineResponse `json:"breakdown,omitempty"`
	Bonuses         []BonusLineResponse     `json:"bonuses,omitempty"`
	Deductions      []DeductionLineResponse `json:"deductions,omitempty"`
	GrossCommission decimal.Decimal         `json:"gross_commission"`
	TotalBonuses    decimal.Decimal         `json:"total_bonuses"`
	TotalDeductions decimal.Decimal         `json:"total_deductions"`
	NetCommission   decimal.Decimal         `json:"net_commission"`
	TotalPaid       decimal.Decimal         `json:"total_paid"`
	TotalPending    decimal.Decimal         `json:"total_pending"`
	TDSDeducted     decimal.Decimal         `json:"tds_deducted"`
	GSTAmount       decimal.Decimal         `json:"gst_amount"`
	FinancialYear   string                  `json:"financial_year"`
	Status          string                  `json:"status"`
	ApprovalStatus  string                  `json:"approval_status"`
	RejectionReason *string                 `json:"rejection_reason,omitempty"`
	Installments    []InstallmentResponse   `json:"installments,omitempty"`
	Adjustments     []AdjustmentResponse    `json:"adjustments,omitempty"`
	Decisions       []DecisionResponse      `json:"decisions,omitempty"`
	Payments        []PaymentResponse       `json:"payments,omitempty"`
	Version         int64                   `json:"version"`
	CalculatedAt    string                  `json:"calculated_at"`
	CreatedAt       string                  `json:"created_at"`
	ApprovedAt      *string                 `json:"approved_at,omitempty"`
	PaidAt          *string                 `json:"paid_at,omitempty"`
}

// BulkItemResult reports one item of a bulk request; failures never abort
// the surrounding batch.
type BulkItemResult struct {
	CommissionID string          `json:"commission_id"`
	Ok           bool            `json:"ok"`
	Amount       decimal.Decimal `json:"amount"`
	Status       string          `json:"status,omitempty"`
	ErrorCode    string          `json:"error_code,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

type BulkResponse struct {
	Succeeded   int              `json:"succeeded"`
	Failed      int              `json:"failed"`
	TotalAmount decimal.Decimal  `json:"total_amount"`
	Results     []BulkItemResult `json:"results"`
}

// RecalculateResponse distinguishes a recorded adjustment from a no-op
// whose delta never cleared the adjustment threshold.
type RecalculateResponse struct {
	Commission   CommissionResponse `json:"commission"`
	OldAmount    decimal.Decimal    `json:"old_amount"`
	NewAmount    decimal.Decimal    `json:"new_amount"`
	Delta        decimal.Decimal    `json:"delta"`
	Recalculated bool               `json:"recalculated"`
}

type RecalculatedItem struct {
	CommissionID string          `json:"commission_id"`
	PartnerID    string          `json:"partner_id"`
	OldAmount    decimal.Decimal `json:"old_amount"`
	NewAmount    decimal.Decimal `json:"new_amount"`
	Delta        decimal.Decimal `json:"delta"`
}

// RecalculateForSaleResponse lists only the records an adjustment was
// actually recorded for; unchanged records are counted, not listed.
type RecalculateForSaleResponse struct {
	Adjusted  []RecalculatedItem `json:"adjusted"`
	Unchanged int                `json:"unchanged"`
	Failures  []BulkItemResult   `json:"failures,omitempty"`
}

func mapToResponse(rec CommissionRecord) CommissionResponse {
	resp := CommissionResponse{
		ID:              rec.ID.String(),
		CompanyID:       rec.CompanyID.String(),
		SaleID:          rec.SaleID.String(),
		PartnerID:       rec.PartnerID.String(),
		RuleID:          rec.RuleID.String(),
		Method:          rec.Method,
		GrossCommission: rec.GrossCommission,
		TotalBonuses:    rec.TotalBonuses,
		TotalDeductions: rec.TotalDeductions,
		NetCommission:   rec.NetCommission,
		TotalPaid:       rec.TotalPaid,
		TotalPending:    rec.TotalPending,
		TDSDeducted:     rec.TDSDeducted,
		GSTAmount:       rec.GSTAmount,
		FinancialYear:   rec.FinancialYear,
		Status:          rec.Status,
		ApprovalStatus:  rec.ApprovalStatus,
		RejectionReason: rec.RejectionReason,
		Version:         rec.Version,
		CalculatedAt:    rec.CalculatedAt.Format(time.RFC3339),
		CreatedAt:       rec.CreatedAt.Format(time.RFC3339),
		ApprovedAt:      formatTimePtr(rec.ApprovedAt),
		PaidAt:          formatTimePtr(rec.PaidAt),
	}

	for _, l := range rec.Breakdown {
		resp.Breakdown = append(resp.Breakdown, BreakdownLineResponse(l))
	}
	for _, b := range rec.Bonuses {
		resp.Bonuses = append(resp.Bonuses, BonusLineResponse(b))
	}
	for _, d := range rec.Deductions {
		resp.Deductions = append(resp.Deductions, DeductionLineResponse(d))
	}
	for _, inst := range rec.Installments {
		resp.Installments = append(resp.Installments, mapInstallment(inst))
	}
	for _, a := range rec.Adjustments {
		resp.Adjustments = append(resp.Adjustments, AdjustmentResponse{
			ID:             a.ID.String(),
			Type:           a.Type,
			Amount:         a.Amount,
			PreviousAmount: a.PreviousAmount,
			NewAmount:      a.NewAmount,
			Reason:         a.Reason,
			ActorID:        a.ActorID.String(),
			CreatedAt:      a.CreatedAt.Format(time.RFC3339),
		})
	}
	for _, d := range rec.Decisions {
		resp.Decisions = append(resp.Decisions, DecisionResponse{
			ID:        d.ID.String(),
			ActorID:   d.ActorID.String(),
			Decision:  d.Decision,
			Notes:     d.Notes,
			DecidedAt: d.DecidedAt.Format(time.RFC3339),
		})
	}
	for _, p := range rec.Payments {
		resp.Payments = append(resp.Payments, PaymentResponse{
			ID:         p.ID.String(),
			Amount:     p.Amount,
			Method:     p.Method,
			Reference:  p.Reference,
			PaidOn:     p.PaidOn.Format("2006-01-02"),
			RecordedBy: p.RecordedBy.String(),
		})
	}

	return resp
}

func mapInstallment(inst Installment) InstallmentResponse {
	resp := InstallmentResponse{
		ID:      inst.ID.String(),
		Number:  inst.Number,
		Amount:  inst.Amount,
		DueDate: inst.DueDate.Format("2006-01-02"),
		Status:  inst.Status,
		PaidAt:  formatTimePtr(inst.PaidAt),
	}
	if inst.HoldUntil != nil {
		v := inst.HoldUntil.Format("2006-01-02")
		resp.HoldUntil = &v
	}
	return resp
}

func mapToListResponse(recs []CommissionRecord) []CommissionResponse {
	responses := make([]CommissionResponse, 0, len(recs))
	for _, rec := range recs {
		responses = append(responses, mapToResponse(rec))
	}
	return responses
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.Format(time.RFC3339)
	return &v
}
