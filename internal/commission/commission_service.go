package commission

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	commissionerrors "estate-crm/internal/commission/errors"
	"estate-crm/internal/events"
	"estate-crm/internal/messaging/kafka"
	"estate-crm/internal/partner"
	"estate-crm/internal/rule"
	"estate-crm/internal/sale"
	"estate-crm/internal/shared/apperror"
	"estate-crm/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// adjustmentThreshold is the smallest net delta worth recording; a
// recalculation below it is a no-op so repeated recalculations converge.
var adjustmentThreshold = decimal.NewFromFloat(0.01)

type Service interface {
	Create(ctx context.Context, companyID, actorID string, req CreateCommissionRequest) (CommissionResponse, error)
	GetAll(ctx context.Context, companyID string, q ListCommissionsQuery) ([]CommissionResponse, int64, error)
	GetByID(ctx context.Context, companyID, id string) (CommissionResponse, error)
	Approve(ctx context.Context, companyID, actorID, id string, req ApproveCommissionRequest) (CommissionResponse, error)
	Reject(ctx context.Context, companyID, actorID, id string, req RejectCommissionRequest) (CommissionResponse, error)
	RecordPayment(ctx context.Context, companyID, actorID, id string, req RecordPaymentRequest) (CommissionResponse, error)
	Clawback(ctx context.Context, companyID, actorID, id string, req ClawbackCommissionRequest) (CommissionResponse, error)
	Recalculate(ctx context.Context, companyID, actorID, id string, req RecalculateCommissionRequest) (RecalculateResponse, error)
	RecalculateForSale(ctx context.Context, companyID, actorID, saleID, reason string) (RecalculateForSaleResponse, error)
	BulkApprove(ctx context.Context, companyID, actorID string, req BulkApproveRequest) (BulkResponse, error)
	BulkRecordPayments(ctx context.Context, companyID, actorID string, req BulkRecordPaymentsRequest) (BulkResponse, error)
}

type service struct {
	db       *gorm.DB
	repo     Repository
	rules    rule.Repository
	sales    sale.Repository
	partners partner.Repository
	outbox   kafka.OutboxRepository
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(
	db *gorm.DB,
	repo Repository,
	rules rule.Repository,
	sales sale.Repository,
	partners partner.Repository,
	outbox kafka.OutboxRepository,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("commission.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("commission.service")
	}
	return &service{
		db:       db,
		repo:     repo,
		rules:    rules,
		sales:    sales,
		partners: partners,
		outbox:   outbox,
		logger:   l,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create calculates and persists a commission for a (sale, partner, rule)
// triple. The calculation inputs are snapshotted so later edits to the
// sale or partner never silently change this record.
func (s *service) Create(ctx context.Context, companyID, actorID string, req CreateCommissionRequest) (CommissionResponse, error) {
	s.logger.Debug("create commission requested",
		zap.String("company_id", companyID),
		zap.String("sale_id", req.SaleID),
		zap.String("partner_id", req.PartnerID),
	)

	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return CommissionResponse{}, commissionerrors.ErrInvalidCompanyID
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return CommissionResponse{}, commissionerrors.ErrInvalidActorID
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		s.logger.Error("create commission begin tx failed", zap.Error(tx.Error))
		return CommissionResponse{}, tx.Error
	}
	defer tx.Rollback()

	sl, err := s.sales.WithTx(tx).FindByIDAndCompany(ctx, companyID, req.SaleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CommissionResponse{}, commissionerrors.ErrSaleNotFound
		}
		return CommissionResponse{}, err
	}
	if sl.Status == sale.StatusCancelled {
		s.logger.Warn("create commission rejected: sale cancelled", zap.String("sale_id", req.SaleID))
		return CommissionResponse{}, commissionerrors.ErrSaleCancelled
	}

	if _, err := s.partners.WithTx(tx).FindByIDAndCompany(ctx, companyID, req.PartnerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CommissionResponse{}, commissionerrors.ErrPartnerNotFound
		}
		return CommissionResponse{}, err
	}

	r, err := s.rules.WithTx(tx).FindByIDAndCompany(ctx, companyID, req.RuleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CommissionResponse{}, commissionerrors.ErrRuleNotFound
		}
		return CommissionResponse{}, err
	}
	if !r.IsActive || !r.ContainsDate(sl.SaleDate) {
		s.logger.Warn("create commission rejected: rule not applicable",
			zap.String("rule_id", req.RuleID),
			zap.Time("sale_date", sl.SaleDate),
		)
		return CommissionResponse{}, commissionerrors.ErrRuleNotApplicable
	}

	now := s.now()
	perf, err := s.partners.WithTx(tx).GetPerformance(ctx, companyID, req.PartnerID, now)
	if err != nil {
		return CommissionResponse{}, err
	}

	snap := sl.Snapshot()
	calc, err := Calculate(snap, perf, r, now)
	if err != nil {
		s.logger.Warn("create commission calculation rejected", zap.Error(err))
		return CommissionResponse{}, err
	}

	rec := buildRecord(companyUUID, actorUUID, req, snap, perf, r, calc, now)
	qtx := s.repo.WithTx(tx)
	if err := qtx.Create(ctx, rec); err != nil {
		mapped := mapRepositoryError(err)
		if errors.Is(mapped, commissionerrors.ErrDuplicateCommission) {
			s.logger.Warn("create commission rejected: duplicate",
				zap.String("sale_id", req.SaleID),
				zap.String("partner_id", req.PartnerID),
			)
		} else {
			s.logger.Error("create commission persist failed", zap.Error(err))
		}
		return CommissionResponse{}, mapped
	}

	if err := s.rules.WithTx(tx).RecordUsage(ctx, req.RuleID, rec.NetCommission, now); err != nil {
		return CommissionResponse{}, err
	}

	if err := s.appendLifecycleEvent(ctx, tx, rec, events.CommissionCreated, now); err != nil {
		return CommissionResponse{}, err
	}

	if err := tx.Commit().Error; err != nil {
		s.logger.Error("create commission commit failed", zap.Error(err))
		return CommissionResponse{}, err
	}
	s.logger.Info("create commission success",
		zap.String("commission_id", rec.ID.String()),
		zap.String("net_commission", rec.NetCommission.String()),
		zap.String("status", rec.Status),
	)

	return mapToResponse(*rec), nil
}

func buildRecord(
	companyUUID, actorUUID uuid.UUID,
	req CreateCommissionRequest,
	snap sale.Snapshot,
	perf partner.Performance,
	r *rule.CommissionRule,
	calc Calculation,
	now time.Time,
) *CommissionRecord {
	rec := &CommissionRecord{
		ID:        uuid.New(),
		CompanyID: companyUUID,
		SaleID:    uuid.MustParse(req.SaleID),
		PartnerID: uuid.MustParse(req.PartnerID),
		RuleID:    r.ID,

		SaleSnapshot:    newSnapshotColumn(snap),
		PartnerSnapshot: newPerformanceColumn(perf),

		Method:          string(calc.Method),
		Breakdown:       calc.Breakdown,
		Bonuses:         calc.Bonuses,
		Deductions:      calc.Deductions,
		GrossCommission: calc.GrossCommission,
		TotalBonuses:    calc.TotalBonuses,
		TotalDeductions: calc.TotalDeductions,
		NetCommission:   calc.NetCommission,
		CalculatedAt:    calc.CalculatedAt,

		TotalPaid:    decimal.Zero,
		TotalPending: calc.NetCommission,

		TDSRate:       r.TDSRate,
		TDSDeducted:   calc.TDSDeducted,
		GSTRate:       r.GSTRate,
		GSTAmount:     calc.GSTAmount,
		FinancialYear: financialYear(snap.SaleDate),

		RequiresApproval:      r.RequiresApproval,
		RequiredApprovalCount: r.RequiredApprovalCount,
		Approvers:             r.Approvers,

		ClawbackEligible:   r.ClawbackEligible,
		ClawbackPeriodDays: r.ClawbackPeriodDays,

		Version:   1,
		CreatedBy: actorUUID,
	}

	if r.RequiresApproval {
		rec.Status = StatusPendingApproval
		rec.ApprovalStatus = ApprovalPending
	} else {
		// No approval policy: the record is immediately payable.
		rec.Status = StatusApproved
		rec.ApprovalStatus = ApprovalApproved
		rec.ApprovedAt = &now
	}

	installments := buildSchedule(calc.NetCommission, r, snap.SaleDate)
	for i := range installments {
		installments[i].ID = uuid.New()
		installments[i].CommissionID = rec.ID
	}
	rec.Installments = installments

	return rec
}

func (s *service) GetAll(ctx context.Context, companyID string, q ListCommissionsQuery) ([]CommissionResponse, int64, error) {
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Limit == 0 {
		q.Limit = 20
	}

	recs, total, err := s.repo.FindAllByCompany(ctx, companyID, ListFilter{
		Status:        q.Status,
		PartnerID:     q.PartnerID,
		FinancialYear: q.FinancialYear,
		Page:          q.Page,
		Limit:         q.Limit,
	})
	if err != nil {
		return nil, 0, err
	}
	return mapToListResponse(recs), total, nil
}

func (s *service) GetByID(ctx context.Context, companyID, id string) (CommissionResponse, error) {
	rec, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return CommissionResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(*rec), nil
}

func (s *service) Approve(ctx context.Context, companyID, actorID, id string, req ApproveCommissionRequest) (CommissionResponse, error) {
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return CommissionResponse{}, commissionerrors.ErrInvalidActorID
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return CommissionResponse{}, tx.Error
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	rec, err := qtx.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return CommissionResponse{}, mapRepositoryError(err)
	}

	now := s.now()
	decision, err := applyApproval(rec, actorUUID, req.Notes, now)
	if err != nil {
		s.logger.Warn("approve commission rejected",
			zap.String("commission_id", id),
			zap.Error(err),
		)
		return CommissionResponse{}, err
	}

	if err := qtx.AppendDecision(ctx, decision); err != nil {
		return CommissionResponse{}, err
	}
	if err := qtx.Update(ctx, rec); err != nil {
		return CommissionResponse{}, err
	}

	if rec.Status == StatusApproved {
		if err := s.appendLifecycleEvent(ctx, tx, rec, events.CommissionApproved, now); err != nil {
			return CommissionResponse{}, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return CommissionResponse{}, err
	}
	s.logger.Info("approve commission success",
		zap.String("commission_id", id),
		zap.String("status", rec.Status),
	)

	return mapToResponse(*rec), nil
}

func (s *service) Reject(ctx context.Context, companyID, actorID, id string, req RejectCommissionRequest) (CommissionResponse, error) {
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return CommissionResponse{}, commissionerrors.ErrInvalidActorID
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return CommissionResponse{}, tx.Error
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	rec, err := qtx.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return CommissionResponse{}, mapRepositoryError(err)
	}

	now := s.now()
	decision, err := applyRejection(rec, actorUUID, req.Reason, now)
	if err != nil {
		s.logger.Warn("reject commission rejected",
			zap.String("commission_id", id),
			zap.Error(err),
		)
		return CommissionResponse{}, err
	}

	if err := qtx.AppendDecision(ctx, decision); err != nil {
		return CommissionResponse{}, err
	}
	if err := qtx.Update(ctx, rec); err != nil {
		return CommissionResponse{}, err
	}
	if err := s.appendLifecycleEvent(ctx, tx, rec, events.CommissionRejected, now); err != nil {
		return CommissionResponse{}, err
	}

	if err := tx.Commit().Error; err != nil {
		return CommissionResponse{}, err
	}
	s.logger.Info("reject commission success", zap.String("commission_id", id))

	return mapToResponse(*rec), nil
}

func (s *service) RecordPayment(ctx context.Context, companyID, actorID, id string, req RecordPaymentRequest) (CommissionResponse, error) {
	paidOn, err := time.Parse("2006-01-02", req.PaidOn)
	if err != nil {
		return CommissionResponse{}, commissionerrors.ErrInvalidDateFormat
	}
	return s.recordPayment(ctx, companyID, actorID, id, req.Amount, req.Method, req.Reference, paidOn)
}

func (s *service) recordPayment(ctx context.Context, companyID, actorID, id string, amount decimal.Decimal, method, reference string, paidOn time.Time) (CommissionResponse, error) {
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return CommissionResponse{}, commissionerrors.ErrInvalidActorID
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return CommissionResponse{}, tx.Error
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	rec, err := qtx.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return CommissionResponse{}, mapRepositoryError(err)
	}

	now := s.now()
	payment, err := applyPayment(rec, amount, method, reference, paidOn, actorUUID, now)
	if err != nil {
		s.logger.Warn("record payment rejected",
			zap.String("commission_id", id),
			zap.String("amount", amount.String()),
			zap.Error(err),
		)
		return CommissionResponse{}, err
	}

	if err := qtx.AppendPayment(ctx, payment); err != nil {
		return CommissionResponse{}, err
	}
	if err := qtx.Update(ctx, rec); err != nil {
		return CommissionResponse{}, err
	}
	if err := qtx.SaveInstallments(ctx, rec.Installments); err != nil {
		return CommissionResponse{}, err
	}

	if rec.Status == StatusPaid {
		if err := s.appendLifecycleEvent(ctx, tx, rec, events.CommissionPaid, now); err != nil {
			return CommissionResponse{}, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return CommissionResponse{}, err
	}
	s.logger.Info("record payment success",
		zap.String("commission_id", id),
		zap.String("amount", amount.String()),
		zap.String("total_pending", rec.TotalPending.String()),
		zap.String("status", rec.Status),
	)

	return mapToResponse(*rec), nil
}

func (s *service) Clawback(ctx context.Context, companyID, actorID, id string, req ClawbackCommissionRequest) (CommissionResponse, error) {
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return CommissionResponse{}, commissionerrors.ErrInvalidActorID
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return CommissionResponse{}, tx.Error
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	rec, err := qtx.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return CommissionResponse{}, mapRepositoryError(err)
	}

	now := s.now()
	adj, err := applyClawback(rec, actorUUID, req.Reason, now)
	if err != nil {
		s.logger.Warn("clawback rejected",
			zap.String("commission_id", id),
			zap.Error(err),
		)
		return CommissionResponse{}, err
	}

	if err := qtx.AppendAdjustment(ctx, adj); err != nil {
		return CommissionResponse{}, err
	}
	if err := qtx.Update(ctx, rec); err != nil {
		return CommissionResponse{}, err
	}
	if err := s.appendLifecycleEvent(ctx, tx, rec, events.CommissionClawedBack, now); err != nil {
		return CommissionResponse{}, err
	}

	if err := tx.Commit().Error; err != nil {
		return CommissionResponse{}, err
	}
	s.logger.Info("clawback success",
		zap.String("commission_id", id),
		zap.String("reclaimed", adj.Amount.Neg().String()),
	)

	return mapToResponse(*rec), nil
}

// Recalculate re-runs the calculation against the sale's and partner's
// current state. A delta at or below adjustmentThreshold is ignored so a
// recalculation that changes nothing stays a true no-op.
func (s *service) Recalculate(ctx context.Context, companyID, actorID, id string, req RecalculateCommissionRequest) (RecalculateResponse, error) {
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return RecalculateResponse{}, commissionerrors.ErrInvalidActorID
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return RecalculateResponse{}, tx.Error
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	rec, err := qtx.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return RecalculateResponse{}, mapRepositoryError(err)
	}
	if isTerminal(rec.Status) {
		return RecalculateResponse{}, commissionerrors.ErrInvalidStateTransition
	}

	sl, err := s.sales.WithTx(tx).FindByIDAndCompany(ctx, companyID, rec.SaleID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RecalculateResponse{}, commissionerrors.ErrSaleNotFound
		}
		return RecalculateResponse{}, err
	}

	r, err := s.rules.WithTx(tx).FindByIDAndCompany(ctx, companyID, rec.RuleID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RecalculateResponse{}, commissionerrors.ErrRuleNotFound
		}
		return RecalculateResponse{}, err
	}

	now := s.now()
	perf, err := s.partners.WithTx(tx).GetPerformance(ctx, companyID, rec.PartnerID.String(), now)
	if err != nil {
		return RecalculateResponse{}, err
	}

	snap := sl.Snapshot()
	calc, err := Calculate(snap, perf, r, now)
	if err != nil {
		s.logger.Warn("recalculate rejected",
			zap.String("commission_id", id),
			zap.Error(err),
		)
		return RecalculateResponse{}, err
	}

	oldNet := rec.NetCommission
	delta := calc.NetCommission.Sub(oldNet)
	if !delta.Abs().GreaterThan(adjustmentThreshold) {
		s.logger.Debug("recalculate no-op",
			zap.String("commission_id", id),
			zap.String("delta", delta.String()),
		)
		return RecalculateResponse{
			Commission: mapToResponse(*rec),
			OldAmount:  oldNet,
			NewAmount:  calc.NetCommission,
			Delta:      delta,
		}, nil
	}

	adj, err := applyAdjustment(rec, calc, snap, perf, req.Reason, actorUUID, now)
	if err != nil {
		s.logger.Warn("recalculate rejected",
			zap.String("commission_id", id),
			zap.Error(err),
		)
		return RecalculateResponse{}, err
	}

	if err := qtx.AppendAdjustment(ctx, adj); err != nil {
		return RecalculateResponse{}, err
	}
	if err := qtx.Update(ctx, rec); err != nil {
		return RecalculateResponse{}, err
	}

	// Replace the unpaid schedule with one sized to the new pending
	// balance; already-paid installments are immutable history.
	var fresh []Installment
	if rec.TotalPending.IsPositive() {
		fresh = buildSchedule(rec.TotalPending, r, snap.SaleDate)
		for i := range fresh {
			fresh[i].ID = uuid.New()
			fresh[i].CommissionID = rec.ID
		}
	}
	if err := qtx.ReplaceInstallments(ctx, rec.ID.String(), fresh); err != nil {
		return RecalculateResponse{}, err
	}

	if err := s.appendLifecycleEvent(ctx, tx, rec, events.CommissionAdjusted, now); err != nil {
		return RecalculateResponse{}, err
	}

	if err := tx.Commit().Error; err != nil {
		return RecalculateResponse{}, err
	}
	s.logger.Info("recalculate success",
		zap.String("commission_id", id),
		zap.String("previous_net", adj.PreviousAmount.String()),
		zap.String("new_net", adj.NewAmount.String()),
	)

	return RecalculateResponse{
		Commission:   mapToResponse(*rec),
		OldAmount:    adj.PreviousAmount,
		NewAmount:    adj.NewAmount,
		Delta:        delta,
		Recalculated: true,
	}, nil
}

// RecalculateForSale recalculates every non-terminal commission tied to a
// sale, each in its own transaction so one failure never blocks the rest.
// Only records that actually received an adjustment are listed.
func (s *service) RecalculateForSale(ctx context.Context, companyID, actorID, saleID, reason string) (RecalculateForSaleResponse, error) {
	recs, err := s.repo.FindBySaleAndCompany(ctx, companyID, saleID)
	if err != nil {
		return RecalculateForSaleResponse{}, err
	}

	var resp RecalculateForSaleResponse
	for _, rec := range recs {
		if isTerminal(rec.Status) {
			continue
		}
		id := rec.ID.String()
		rr, err := s.Recalculate(ctx, companyID, actorID, id, RecalculateCommissionRequest{Reason: reason})
		if err != nil {
			resp.Failures = append(resp.Failures, bulkResult(id, err))
			continue
		}
		if !rr.Recalculated {
			resp.Unchanged++
			continue
		}
		resp.Adjusted = append(resp.Adjusted, RecalculatedItem{
			CommissionID: id,
			PartnerID:    rec.PartnerID.String(),
			OldAmount:    rr.OldAmount,
			NewAmount:    rr.NewAmount,
			Delta:        rr.Delta,
		})
	}

	s.logger.Info("recalculate for sale finished",
		zap.String("sale_id", saleID),
		zap.Int("adjusted", len(resp.Adjusted)),
		zap.Int("unchanged", resp.Unchanged),
		zap.Int("failed", len(resp.Failures)),
	)
	return resp, nil
}

func (s *service) BulkApprove(ctx context.Context, companyID, actorID string, req BulkApproveRequest) (BulkResponse, error) {
	var resp BulkResponse
	for _, id := range req.CommissionIDs {
		cr, err := s.Approve(ctx, companyID, actorID, id, ApproveCommissionRequest{Notes: req.Notes})
		item := bulkResult(id, err)
		if err != nil {
			resp.Failed++
		} else {
			item.Amount = cr.NetCommission
			item.Status = cr.Status
			resp.TotalAmount = resp.TotalAmount.Add(cr.NetCommission)
			resp.Succeeded++
		}
		resp.Results = append(resp.Results, item)
	}

	s.logger.Info("bulk approve finished",
		zap.Int("succeeded", resp.Succeeded),
		zap.Int("failed", resp.Failed),
	)
	return resp, nil
}

// BulkRecordPayments settles each listed commission's full pending balance
// with a shared method/reference/date.
func (s *service) BulkRecordPayments(ctx context.Context, companyID, actorID string, req BulkRecordPaymentsRequest) (BulkResponse, error) {
	paidOn, err := time.Parse("2006-01-02", req.PaidOn)
	if err != nil {
		return BulkResponse{}, commissionerrors.ErrInvalidDateFormat
	}

	var resp BulkResponse
	for _, id := range req.CommissionIDs {
		cr, paid, err := s.payFullPending(ctx, companyID, actorID, id, req.Method, req.Reference, paidOn)
		item := bulkResult(id, err)
		if err != nil {
			resp.Failed++
		} else {
			item.Amount = paid
			item.Status = cr.Status
			resp.TotalAmount = resp.TotalAmount.Add(paid)
			resp.Succeeded++
		}
		resp.Results = append(resp.Results, item)
	}

	s.logger.Info("bulk record payments finished",
		zap.Int("succeeded", resp.Succeeded),
		zap.Int("failed", resp.Failed),
	)
	return resp, nil
}

func (s *service) payFullPending(ctx context.Context, companyID, actorID, id, method, reference string, paidOn time.Time) (CommissionResponse, decimal.Decimal, error) {
	rec, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return CommissionResponse{}, decimal.Zero, mapRepositoryError(err)
	}
	amount := rec.TotalPending
	cr, err := s.recordPayment(ctx, companyID, actorID, id, amount, method, reference, paidOn)
	if err != nil {
		return CommissionResponse{}, decimal.Zero, err
	}
	return cr, amount, nil
}

func bulkResult(id string, err error) BulkItemResult {
	if err == nil {
		return BulkItemResult{CommissionID: id, Ok: true}
	}
	httpErr := apperror.ToHTTP(err)
	return BulkItemResult{
		CommissionID: id,
		Ok:           false,
		ErrorCode:    httpErr.Code,
		ErrorMessage: httpErr.Message,
	}
}

func (s *service) appendLifecycleEvent(ctx context.Context, tx *gorm.DB, rec *CommissionRecord, eventType string, now time.Time) error {
	event := events.CommissionLifecycleEvent{
		EventType:    eventType,
		CommissionID: rec.ID.String(),
		SaleID:       rec.SaleID.String(),
		PartnerID:    rec.PartnerID.String(),
		CompanyID:    rec.CompanyID.String(),
		NetAmount:    rec.NetCommission.String(),
		Status:       rec.Status,
		OccurredAt:   now,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "commission",
		AggregateID:   rec.ID.String(),
		EventType:     eventType,
		Topic:         events.CommissionLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}
