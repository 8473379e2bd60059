package commission

import (
	"time"

	commissionerrors "estate-crm/internal/commission/errors"
	"estate-crm/internal/partner"
	"estate-crm/internal/sale"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// canTransition is the single source of truth for the status machine.
//
//	PENDING_APPROVAL -> APPROVED | REJECTED
//	APPROVED         -> PARTIALLY_PAID | PAID | CLAWED_BACK
//	PARTIALLY_PAID   -> PARTIALLY_PAID | PAID | CLAWED_BACK
//	PAID             -> CLAWED_BACK
func canTransition(from, to string) bool {
	switch from {
	case StatusPendingApproval:
		return to == StatusApproved || to == StatusRejected
	case StatusApproved:
		return to == StatusPartiallyPaid || to == StatusPaid || to == StatusClawedBack
	case StatusPartiallyPaid:
		return to == StatusPartiallyPaid || to == StatusPaid || to == StatusClawedBack
	case StatusPaid:
		return to == StatusClawedBack
	default:
		return false
	}
}

func isTerminal(status string) bool {
	return status == StatusPaid || status == StatusRejected || status == StatusClawedBack
}

// The transition functions below mutate the aggregate in memory and return
// a typed error when the transition is illegal. They perform no I/O, so
// every effect of a transition is visible here and testable without a
// datastore. Persistence (and its transaction) is the service's concern.

// applyApproval records one approval decision and flips the record to
// APPROVED once enough approvals have accumulated.
func applyApproval(rec *CommissionRecord, actorID uuid.UUID, notes string, now time.Time) (*ApprovalDecision, error) {
	if rec.Status != StatusPendingApproval {
		return nil, commissionerrors.ErrInvalidStateTransition
	}
	if len(rec.Approvers) > 0 && !containsActor(rec.Approvers, actorID) {
		return nil, commissionerrors.ErrNotAnApprover
	}
	for _, d := range rec.Decisions {
		if d.ActorID == actorID {
			return nil, commissionerrors.ErrAlreadyDecided
		}
	}

	decision := &ApprovalDecision{
		ID:           uuid.New(),
		CommissionID: rec.ID,
		ActorID:      actorID,
		Decision:     ApprovalApproved,
		Notes:        notes,
		DecidedAt:    now,
	}
	rec.Decisions = append(rec.Decisions, *decision)

	approvals := 0
	for _, d := range rec.Decisions {
		if d.Decision == ApprovalApproved {
			approvals++
		}
	}
	if approvals >= rec.RequiredApprovalCount {
		rec.Status = StatusApproved
		rec.ApprovalStatus = ApprovalApproved
		rec.ApprovedAt = &now
	}

	return decision, nil
}

// applyRejection is terminal and only legal while approval is pending.
func applyRejection(rec *CommissionRecord, actorID uuid.UUID, reason string, now time.Time) (*ApprovalDecision, error) {
	if rec.Status != StatusPendingApproval {
		return nil, commissionerrors.ErrInvalidStateTransition
	}
	if reason == "" {
		return nil, commissionerrors.ErrRejectionReasonRequired
	}
	if len(rec.Approvers) > 0 && !containsActor(rec.Approvers, actorID) {
		return nil, commissionerrors.ErrNotAnApprover
	}

	decision := &ApprovalDecision{
		ID:           uuid.New(),
		CommissionID: rec.ID,
		ActorID:      actorID,
		Decision:     ApprovalRejected,
		Notes:        reason,
		DecidedAt:    now,
	}
	rec.Decisions = append(rec.Decisions, *decision)
	rec.Status = StatusRejected
	rec.ApprovalStatus = ApprovalRejected
	rec.RejectionReason = &reason

	return decision, nil
}

// applyPayment books a payment against the pending balance and settles
// installments oldest-first. Over-payment is rejected, never clamped.
func applyPayment(rec *CommissionRecord, amount decimal.Decimal, method, reference string, paidOn time.Time, actorID uuid.UUID, now time.Time) (*Payment, error) {
	if rec.Status != StatusApproved && rec.Status != StatusPartiallyPaid {
		return nil, commissionerrors.ErrInvalidStateTransition
	}
	if !amount.IsPositive() {
		return nil, commissionerrors.ErrInvalidPaymentAmount
	}
	if amount.GreaterThan(rec.TotalPending) {
		return nil, commissionerrors.ErrAmountExceedsPending
	}

	rec.TotalPaid = rec.TotalPaid.Add(amount)
	rec.TotalPending = rec.TotalPending.Sub(amount)

	if rec.TotalPending.IsZero() {
		rec.Status = StatusPaid
		rec.PaidAt = &now
		if rec.ClawbackEligible && rec.ClawbackPeriodDays > 0 {
			expires := now.AddDate(0, 0, rec.ClawbackPeriodDays)
			rec.ClawbackExpiresAt = &expires
		}
	} else {
		rec.Status = StatusPartiallyPaid
	}

	settleInstallments(rec, now)

	payment := &Payment{
		ID:           uuid.New(),
		CommissionID: rec.ID,
		Amount:       amount,
		Method:       method,
		Reference:    reference,
		PaidOn:       paidOn,
		RecordedBy:   actorID,
	}
	rec.Payments = append(rec.Payments, *payment)

	return payment, nil
}

// settleInstallments marks installments paid, oldest first, as far as the
// cumulative paid amount covers them.
func settleInstallments(rec *CommissionRecord, now time.Time) {
	covered := rec.TotalPaid
	for i := range rec.Installments {
		inst := &rec.Installments[i]
		if inst.Status == InstallmentPaid {
			covered = covered.Sub(inst.Amount)
			continue
		}
		if covered.LessThan(inst.Amount) {
			break
		}
		inst.Status = InstallmentPaid
		paidAt := now
		inst.PaidAt = &paidAt
		covered = covered.Sub(inst.Amount)
	}
}

// applyAdjustment swaps in a new calculation and reconciles the pending
// balance. A net below what was already paid is refused: that situation
// needs an explicit clawback, not a silent negative pending.
func applyAdjustment(rec *CommissionRecord, newCalc Calculation, newSale sale.Snapshot, newPerf partner.Performance, reason string, actorID uuid.UUID, now time.Time) (*Adjustment, error) {
	if isTerminal(rec.Status) {
		return nil, commissionerrors.ErrInvalidStateTransition
	}

	newPending := newCalc.NetCommission.Sub(rec.TotalPaid)
	if newPending.IsNegative() {
		return nil, commissionerrors.ErrOverpaidRequiresClawback
	}

	previous := rec.NetCommission

	rec.Method = string(newCalc.Method)
	rec.Breakdown = newCalc.Breakdown
	rec.Bonuses = newCalc.Bonuses
	rec.Deductions = newCalc.Deductions
	rec.GrossCommission = newCalc.GrossCommission
	rec.TotalBonuses = newCalc.TotalBonuses
	rec.TotalDeductions = newCalc.TotalDeductions
	rec.NetCommission = newCalc.NetCommission
	rec.TDSDeducted = newCalc.TDSDeducted
	rec.GSTAmount = newCalc.GSTAmount
	rec.CalculatedAt = newCalc.CalculatedAt
	rec.FinancialYear = financialYear(newSale.SaleDate)
	rec.SaleSnapshot = newSnapshotColumn(newSale)
	rec.PartnerSnapshot = newPerformanceColumn(newPerf)

	rec.TotalPending = newPending
	if rec.TotalPending.IsZero() && rec.TotalPaid.IsPositive() {
		rec.Status = StatusPaid
		rec.PaidAt = &now
	}

	adj := &Adjustment{
		ID:             uuid.New(),
		CommissionID:   rec.ID,
		Type:           AdjustmentRecalculation,
		Amount:         newCalc.NetCommission.Sub(previous),
		PreviousAmount: previous,
		NewAmount:      newCalc.NetCommission,
		Reason:         reason,
		ActorID:        actorID,
	}
	rec.Adjustments = append(rec.Adjustments, *adj)

	return adj, nil
}

// applyClawback terminates the record and records the reclaimed amount.
// Once fully paid the clawback window applies; before that, a clawback is
// always allowed (typically the sale was cancelled before payout).
func applyClawback(rec *CommissionRecord, actorID uuid.UUID, reason string, now time.Time) (*Adjustment, error) {
	if !canTransition(rec.Status, StatusClawedBack) {
		return nil, commissionerrors.ErrInvalidStateTransition
	}
	if !rec.ClawbackEligible {
		return nil, commissionerrors.ErrClawbackNotEligible
	}
	if rec.Status == StatusPaid {
		if rec.ClawbackExpiresAt == nil || now.After(*rec.ClawbackExpiresAt) {
			return nil, commissionerrors.ErrClawbackWindowExpired
		}
	}

	previous := rec.NetCommission
	rec.Status = StatusClawedBack
	rec.TotalPending = decimal.Zero

	adj := &Adjustment{
		ID:             uuid.New(),
		CommissionID:   rec.ID,
		Type:           AdjustmentClawback,
		Amount:         previous.Neg(),
		PreviousAmount: previous,
		NewAmount:      decimal.Zero,
		Reason:         reason,
		ActorID:        actorID,
	}
	rec.Adjustments = append(rec.Adjustments, *adj)

	return adj, nil
}

func containsActor(approvers []string, actorID uuid.UUID) bool {
	id := actorID.String()
	for _, a := range approvers {
		if a == id {
			return true
		}
	}
	return false
}
