package commission_test

import (
	"context"
	"testing"
	"time"

	"estate-crm/internal/commission"
	commissionerrors "estate-crm/internal/commission/errors"
	"estate-crm/internal/messaging/kafka"
	"estate-crm/internal/partner"
	"estate-crm/internal/rule"
	"estate-crm/internal/sale"
	"estate-crm/internal/shared/apperror"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

type fakeCommissionRepository struct {
	createFn              func(ctx context.Context, rec *commission.CommissionRecord) error
	findByIDAndCompanyFn  func(ctx context.Context, companyID, id string) (*commission.CommissionRecord, error)
	findBySaleAndCompanyFn func(ctx context.Context, companyID, saleID string) ([]commission.CommissionRecord, error)
	findAllByCompanyFn    func(ctx context.Context, companyID string, filter commission.ListFilter) ([]commission.CommissionRecord, int64, error)
	updateFn              func(ctx context.Context, rec *commission.CommissionRecord) error
	appendDecisionFn      func(ctx context.Context, d *commission.ApprovalDecision) error
	appendAdjustmentFn    func(ctx context.Context, a *commission.Adjustment) error
	appendPaymentFn       func(ctx context.Context, p *commission.Payment) error
	saveInstallmentsFn    func(ctx context.Context, insts []commission.Installment) error
	replaceInstallmentsFn func(ctx context.Context, commissionID string, insts []commission.Installment) error
}

func (f *fakeCommissionRepository) WithTx(tx *gorm.DB) commission.Repository { return f }

func (f *fakeCommissionRepository) Create(ctx context.Context, rec *commission.CommissionRecord) error {
	if f.createFn != nil {
		return f.createFn(ctx, rec)
	}
	return nil
}

func (f *fakeCommissionRepository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*commission.CommissionRecord, error) {
	if f.findByIDAndCompanyFn != nil {
		return f.findByIDAndCompanyFn(ctx, companyID, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCommissionRepository) FindBySaleAndCompany(ctx context.Context, companyID, saleID string) ([]commission.CommissionRecord, error) {
	if f.findBySaleAndCompanyFn != nil {
		return f.findBySaleAndCompanyFn(ctx, companyID, saleID)
	}
	return nil, nil
}

func (f *fakeCommissionRepository) FindAllByCompany(ctx context.Context, companyID string, filter commission.ListFilter) ([]commission.CommissionRecord, int64, error) {
	if f.findAllByCompanyFn != nil {
		return f.findAllByCompanyFn(ctx, companyID, filter)
	}
	return nil, 0, nil
}

func (f *fakeCommissionRepository) Update(ctx context.Context, rec *commission.CommissionRecord) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, rec)
	}
	return nil
}

func (f *fakeCommissionRepository) AppendDecision(ctx context.Context, d *commission.ApprovalDecision) error {
	if f.appendDecisionFn != nil {
		return f.appendDecisionFn(ctx, d)
	}
	return nil
}

func (f *fakeCommissionRepository) AppendAdjustment(ctx context.Context, a *commission.Adjustment) error {
	if f.appendAdjustmentFn != nil {
		return f.appendAdjustmentFn(ctx, a)
	}
	return nil
}

func (f *fakeCommissionRepository) AppendPayment(ctx context.Context, p *commission.Payment) error {
	if f.appendPaymentFn != nil {
		return f.appendPaymentFn(ctx, p)
	}
	return nil
}

func (f *fakeCommissionRepository) SaveInstallments(ctx context.Context, insts []commission.Installment) error {
	if f.saveInstallmentsFn != nil {
		return f.saveInstallmentsFn(ctx, insts)
	}
	return nil
}

func (f *fakeCommissionRepository) ReplaceInstallments(ctx context.Context, commissionID string, insts []commission.Installment) error {
	if f.replaceInstallmentsFn != nil {
		return f.replaceInstallmentsFn(ctx, commissionID, insts)
	}
	return nil
}

type fakeRuleRepository struct {
	findByIDAndCompanyFn func(ctx context.Context, companyID, id string) (*rule.CommissionRule, error)
	recordUsageFn        func(ctx context.Context, id string, amount decimal.Decimal, usedAt time.Time) error
}

func (f *fakeRuleRepository) WithTx(tx *gorm.DB) rule.Repository                 { return f }
func (f *fakeRuleRepository) Create(ctx context.Context, r *rule.CommissionRule) error { return nil }

func (f *fakeRuleRepository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*rule.CommissionRule, error) {
	if f.findByIDAndCompanyFn != nil {
		return f.findByIDAndCompanyFn(ctx, companyID, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRuleRepository) FindAllByCompany(ctx context.Context, companyID string) ([]rule.CommissionRule, error) {
	return nil, nil
}

func (f *fakeRuleRepository) RecordUsage(ctx context.Context, id string, amount decimal.Decimal, usedAt time.Time) error {
	if f.recordUsageFn != nil {
		return f.recordUsageFn(ctx, id, amount, usedAt)
	}
	return nil
}

type fakeSaleRepository struct {
	findByIDAndCompanyFn func(ctx context.Context, companyID, id string) (*sale.Sale, error)
}

func (f *fakeSaleRepository) WithTx(tx *gorm.DB) sale.Repository       { return f }
func (f *fakeSaleRepository) Update(ctx context.Context, s *sale.Sale) error { return nil }

func (f *fakeSaleRepository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*sale.Sale, error) {
	if f.findByIDAndCompanyFn != nil {
		return f.findByIDAndCompanyFn(ctx, companyID, id)
	}
	return nil, gorm.ErrRecordNotFound
}

type fakePartnerRepository struct {
	findByIDAndCompanyFn func(ctx context.Context, companyID, id string) (*partner.Partner, error)
	getPerformanceFn     func(ctx context.Context, companyID, partnerID string, asOf time.Time) (partner.Performance, error)
}

func (f *fakePartnerRepository) WithTx(tx *gorm.DB) partner.Repository { return f }

func (f *fakePartnerRepository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*partner.Partner, error) {
	if f.findByIDAndCompanyFn != nil {
		return f.findByIDAndCompanyFn(ctx, companyID, id)
	}
	return &partner.Partner{}, nil
}

func (f *fakePartnerRepository) GetPerformance(ctx context.Context, companyID, partnerID string, asOf time.Time) (partner.Performance, error) {
	if f.getPerformanceFn != nil {
		return f.getPerformanceFn(ctx, companyID, partnerID, asOf)
	}
	return partner.Performance{}, nil
}

type fakeOutboxRepository struct {
	created []kafka.OutboxEvent
}

func (f *fakeOutboxRepository) WithTx(tx *gorm.DB) kafka.OutboxRepository { return f }

func (f *fakeOutboxRepository) Create(ctx context.Context, event kafka.OutboxEvent) error {
	f.created = append(f.created, event)
	return nil
}

func (f *fakeOutboxRepository) ListPending(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return nil, nil
}
func (f *fakeOutboxRepository) MarkSent(ctx context.Context, id string) error { return nil }
func (f *fakeOutboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	return nil
}

type commissionServiceDeps struct {
	sqlMock  sqlmock.Sqlmock
	service  commission.Service
	repo     *fakeCommissionRepository
	rules    *fakeRuleRepository
	sales    *fakeSaleRepository
	partners *fakePartnerRepository
	outbox   *fakeOutboxRepository
}

func setupCommissionServiceTest(t *testing.T) *commissionServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	assert.NoError(t, err)

	repo := &fakeCommissionRepository{}
	rules := &fakeRuleRepository{}
	sales := &fakeSaleRepository{}
	partners := &fakePartnerRepository{}
	outbox := &fakeOutboxRepository{}

	svc := commission.NewService(gormDB, repo, rules, sales, partners, outbox)

	return &commissionServiceDeps{
		sqlMock:  sqlMock,
		service:  svc,
		repo:     repo,
		rules:    rules,
		sales:    sales,
		partners: partners,
		outbox:   outbox,
	}
}

func activeFlatRule(companyID uuid.UUID) *rule.CommissionRule {
	return &rule.CommissionRule{
		ID:                uuid.New(),
		CompanyID:         companyID,
		Name:              "standard flat",
		IsActive:          true,
		ValidFrom:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		ValidUntil:        time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
		CalculationMethod: rule.MethodFlat,
		BaseRate:          dec("2.0"),
		GSTTreatment:      rule.GSTAdded,
		PaymentSchedule:   rule.ScheduleImmediate,
	}
}

func bookedSale(companyID uuid.UUID) *sale.Sale {
	return &sale.Sale{
		ID:        uuid.New(),
		CompanyID: companyID,
		PartnerID: uuid.New(),
		SalePrice: dec("5000000"),
		BasePrice: dec("4800000"),
		UnitType:  "apartment",
		SaleDate:  time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC),
		Status:    sale.StatusBooked,
	}
}

func TestCommissionService_Create(t *testing.T) {
	ctx := context.Background()
	companyUUID := uuid.New()
	companyID := companyUUID.String()
	actorID := uuid.New().String()

	t.Run("success without approval policy", func(t *testing.T) {
		deps := setupCommissionServiceTest(t)
		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()

		sl := bookedSale(companyUUID)
		r := activeFlatRule(companyUUID)

		deps.sales.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*sale.Sale, error) {
			assert.Equal(t, companyID, cid)
			return sl, nil
		}
		deps.rules.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*rule.CommissionRule, error) {
			return r, nil
		}

		var created *commission.CommissionRecord
		deps.repo.createFn = func(ctx context.Context, rec *commission.CommissionRecord) error {
			created = rec
			return nil
		}

		usageRecorded := false
		deps.rules.recordUsageFn = func(ctx context.Context, id string, amount decimal.Decimal, usedAt time.Time) error {
			usageRecorded = true
			assert.True(t, amount.Equal(dec("100000")))
			return nil
		}

		resp, err := deps.service.Create(ctx, companyID, actorID, commission.CreateCommissionRequest{
			SaleID:    sl.ID.String(),
			PartnerID: sl.PartnerID.String(),
			RuleID:    r.ID.String(),
		})

		assert.NoError(t, err)
		assert.Equal(t, commission.StatusApproved, resp.Status)
		assert.True(t, resp.NetCommission.Equal(dec("100000")))
		assert.True(t, resp.TotalPending.Equal(dec("100000")))
		assert.Equal(t, "2026-27", resp.FinancialYear)
		assert.Len(t, resp.Installments, 1)
		assert.True(t, usageRecorded)
		assert.NotNil(t, created)
		assert.Equal(t, int64(1), created.Version)

		assert.Len(t, deps.outbox.created, 1)
		assert.Equal(t, "commission_created", deps.outbox.created[0].EventType)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("approval policy starts the record pending", func(t *testing.T) {
		deps := setupCommissionServiceTest(t)
		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()

		sl := bookedSale(companyUUID)
		r := activeFlatRule(companyUUID)
		r.RequiresApproval = true
		r.RequiredApprovalCount = 2
		r.Approvers = []string{uuid.New().String(), uuid.New().String()}

		deps.sales.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*sale.Sale, error) {
			return sl, nil
		}
		deps.rules.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*rule.CommissionRule, error) {
			return r, nil
		}

		resp, err := deps.service.Create(ctx, companyID, actorID, commission.CreateCommissionRequest{
			SaleID:    sl.ID.String(),
			PartnerID: sl.PartnerID.String(),
			RuleID:    r.ID.String(),
		})

		assert.NoError(t, err)
		assert.Equal(t, commission.StatusPendingApproval, resp.Status)
		assert.Nil(t, resp.ApprovedAt)
	})

	t.Run("duplicate sale and partner maps the constraint violation", func(t *testing.T) {
		deps := setupCommissionServiceTest(t)
		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()

		sl := bookedSale(companyUUID)
		r := activeFlatRule(companyUUID)
		deps.sales.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*sale.Sale, error) {
			return sl, nil
		}
		deps.rules.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*rule.CommissionRule, error) {
			return r, nil
		}
		deps.repo.createFn = func(ctx context.Context, rec *commission.CommissionRecord) error {
			return &pgconn.PgError{Code: "23505", ConstraintName: "uq_commissions_sale_partner"}
		}

		_, err := deps.service.Create(ctx, companyID, actorID, commission.CreateCommissionRequest{
			SaleID:    sl.ID.String(),
			PartnerID: sl.PartnerID.String(),
			RuleID:    r.ID.String(),
		})

		assert.ErrorIs(t, err, commissionerrors.ErrDuplicateCommission)
		assert.Empty(t, deps.outbox.created)
	})

	t.Run("cancelled sale is refused", func(t *testing.T) {
		deps := setupCommissionServiceTest(t)
		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()

		sl := bookedSale(companyUUID)
		sl.Status = sale.StatusCancelled
		deps.sales.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*sale.Sale, error) {
			return sl, nil
		}

		_, err := deps.service.Create(ctx, companyID, actorID, commission.CreateCommissionRequest{
			SaleID:    sl.ID.String(),
			PartnerID: sl.PartnerID.String(),
			RuleID:    uuid.New().String(),
		})
		assert.ErrorIs(t, err, commissionerrors.ErrSaleCancelled)
	})

	t.Run("inactive rule is refused", func(t *testing.T) {
		deps := setupCommissionServiceTest(t)
		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()

		sl := bookedSale(companyUUID)
		r := activeFlatRule(companyUUID)
		r.IsActive = false
		deps.sales.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*sale.Sale, error) {
			return sl, nil
		}
		deps.rules.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*rule.CommissionRule, error) {
			return r, nil
		}

		_, err := deps.service.Create(ctx, companyID, actorID, commission.CreateCommissionRequest{
			SaleID:    sl.ID.String(),
			PartnerID: sl.PartnerID.String(),
			RuleID:    r.ID.String(),
		})
		assert.ErrorIs(t, err, commissionerrors.ErrRuleNotApplicable)
	})

	t.Run("sale date outside the rule window is refused", func(t *testing.T) {
		deps := setupCommissionServiceTest(t)
		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()

		sl := bookedSale(companyUUID)
		sl.SaleDate = time.Date(2027, 2, 1, 0, 0, 0, 0, time.UTC)
		r := activeFlatRule(companyUUID)
		deps.sales.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*sale.Sale, error) {
			return sl, nil
		}
		deps.rules.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*rule.CommissionRule, error) {
			return r, nil
		}

		_, err := deps.service.Create(ctx, companyID, actorID, commission.CreateCommissionRequest{
			SaleID:    sl.ID.String(),
			PartnerID: sl.PartnerID.String(),
			RuleID:    r.ID.String(),
		})
		assert.ErrorIs(t, err, commissionerrors.ErrRuleNotApplicable)
	})

	t.Run("missing sale", func(t *testing.T) {
		deps := setupCommissionServiceTest(t)
		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()

		_, err := deps.service.Create(ctx, companyID, actorID, commission.CreateCommissionRequest{
			SaleID:    uuid.New().String(),
			PartnerID: uuid.New().String(),
			RuleID:    uuid.New().String(),
		})
		assert.ErrorIs(t, err, commissionerrors.ErrSaleNotFound)
	})
}

func storedRecord(companyID uuid.UUID, status string, net string) *commission.CommissionRecord {
	rec := &commission.CommissionRecord{
		ID:             uuid.New(),
		CompanyID:      companyID,
		SaleID:         uuid.New(),
		PartnerID:      uuid.New(),
		RuleID:         uuid.New(),
		Method:         "flat",
		NetCommission:  dec(net),
		TotalPending:   dec(net),
		TotalPaid:      decimal.Zero,
		Status:         status,
		ApprovalStatus: commission.ApprovalApproved,
		FinancialYear:  "2026-27",
		Version:        1,
	}
	if status == commission.StatusPendingApproval {
		rec.RequiresApproval = true
		rec.RequiredApprovalCount = 1
		rec.ApprovalStatus = commission.ApprovalPending
	}
	return rec
}

func TestCommissionService_Approve(t *testing.T) {
	ctx := context.Background()
	companyUUID := uuid.New()
	companyID := companyUUID.String()
	actorID := uuid.New().String()

	t.Run("success emits the approved event", func(t *testing.T) {
		deps := setupCommissionServiceTest(t)
		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()

		rec := storedRecord(companyUUID, commission.StatusPendingApproval, "50000")
		deps.repo.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*commission.CommissionRecord, error) {
			return rec, nil
		}

		var updated *commission.CommissionRecord
		deps.repo.updateFn = func(ctx context.Context, r *commission.CommissionRecord) error {
			updated = r
			return nil
		}

		resp, err := deps.service.Approve(ctx, companyID, actorID, rec.ID.String(), commission.ApproveCommissionRequest{Notes: "ok"})

		assert.NoError(t, err)
		assert.Equal(t, commission.StatusApproved, resp.Status)
		assert.NotNil(t, updated)
		assert.Len(t, deps.outbox.created, 1)
		assert.Equal(t, "commission_approved", deps.outbox.created[0].EventType)
	})

	t.Run("version conflict surfaces as retryable", func(t *testing.T) {
		deps := setupCommissionServiceTest(t)
		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()

		rec := storedRecord(companyUUID, commission.StatusPendingApproval, "50000")
		deps.repo.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*commission.CommissionRecord, error) {
			return rec, nil
		}
		deps.repo.updateFn = func(ctx context.Context, r *commission.CommissionRecord) error {
			return apperror.ErrVersionConflict
		}

		_, err := deps.service.Approve(ctx, companyID, actorID, rec.ID.String(), commission.ApproveCommissionRequest{})
		assert.ErrorIs(t, err, apperror.ErrVersionConflict)
		assert.Empty(t, deps.outbox.created)
	})

	t.Run("approving an approved record fails", func(t *testing.T) {
		deps := setupCommissionServiceTest(t)
		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()

		rec := storedRecord(companyUUID, commission.StatusApproved, "50000")
		deps.repo.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*commission.CommissionRecord, error) {
			return rec, nil
		}

		_, err := deps.service.Approve(ctx, companyID, actorID, rec.ID.String(), commission.ApproveCommissionRequest{})
		assert.ErrorIs(t, err, commissionerrors.ErrInvalidStateTransition)
	})
}

func TestCommissionService_RecordPayment(t *testing.T) {
	ctx := context.Background()
	companyUUID := uuid.New()
	companyID := companyUUID.String()
	actorID := uuid.New().String()

	t.Run("full payment emits the paid event", func(t *testing.T) {
		deps := setupCommissionServiceTest(t)
		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()

		rec := storedRecord(companyUUID, commission.StatusApproved, "50000")
		deps.repo.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*commission.CommissionRecord, error) {
			return rec, nil
		}

		var payment *commission.Payment
		deps.repo.appendPaymentFn = func(ctx context.Context, p *commission.Payment) error {
			payment = p
			return nil
		}

		resp, err := deps.service.RecordPayment(ctx, companyID, actorID, rec.ID.String(), commission.RecordPaymentRequest{
			Amount: dec("50000"),
			Method: "bank_transfer",
			PaidOn: "2026-07-01",
		})

		assert.NoError(t, err)
		assert.Equal(t, commission.StatusPaid, resp.Status)
		assert.True(t, resp.TotalPending.IsZero())
		assert.NotNil(t, payment)
		assert.Len(t, deps.outbox.created, 1)
		assert.Equal(t, "commission_paid", deps.outbox.created[0].EventType)
	})

	t.Run("partial payment emits no event", func(t *testing.T) {
		deps := setupCommissionServiceTest(t)
		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()

		rec := storedRecord(companyUUID, commission.StatusApproved, "50000")
		deps.repo.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*commission.CommissionRecord, error) {
			return rec, nil
		}

		resp, err := deps.service.RecordPayment(ctx, companyID, actorID, rec.ID.String(), commission.RecordPaymentRequest{
			Amount: dec("10000"),
			Method: "upi",
			PaidOn: "2026-07-01",
		})

		assert.NoError(t, err)
		assert.Equal(t, commission.StatusPartiallyPaid, resp.Status)
		assert.Empty(t, deps.outbox.created)
	})

	t.Run("overpayment is refused", func(t *testing.T) {
		deps := setupCommissionServiceTest(t)
		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()

		rec := storedRecord(companyUUID, commission.StatusApproved, "50000")
		deps.repo.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*commission.CommissionRecord, error) {
			return rec, nil
		}

		_, err := deps.service.RecordPayment(ctx, companyID, actorID, rec.ID.String(), commission.RecordPaymentRequest{
			Amount: dec("60000"),
			Method: "cheque",
			PaidOn: "2026-07-01",
		})
		assert.ErrorIs(t, err, commissionerrors.ErrAmountExceedsPending)
	})

	t.Run("malformed date is refused before any transaction", func(t *testing.T) {
		deps := setupCommissionServiceTest(t)
		_, err := deps.service.RecordPayment(ctx, companyID, actorID, uuid.New().String(), commission.RecordPaymentRequest{
			Amount: dec("100"),
			Method: "cash",
			PaidOn: "07/01/2026",
		})
		assert.ErrorIs(t, err, commissionerrors.ErrInvalidDateFormat)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestCommissionService_Recalculate(t *testing.T) {
	ctx := context.Background()
	companyUUID := uuid.New()
	companyID := companyUUID.String()
	actorID := uuid.New().String()

	setupRecalc := func(deps *commissionServiceDeps, rec *commission.CommissionRecord, salePrice string) {
		sl := bookedSale(companyUUID)
		sl.ID = rec.SaleID
		sl.SalePrice = dec(salePrice)
		r := activeFlatRule(companyUUID)
		r.ID = rec.RuleID

		deps.repo.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*commission.CommissionRecord, error) {
			return rec, nil
		}
		deps.sales.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*sale.Sale, error) {
			return sl, nil
		}
		deps.rules.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*rule.CommissionRule, error) {
			return r, nil
		}
	}

	t.Run("price change adjusts the record and reschedules", func(t *testing.T) {
		deps := setupCommissionServiceTest(t)
		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()

		rec := storedRecord(companyUUID, commission.StatusApproved, "100000")
		setupRecalc(deps, rec, "6000000") // 2% -> 120000

		var adj *commission.Adjustment
		deps.repo.appendAdjustmentFn = func(ctx context.Context, a *commission.Adjustment) error {
			adj = a
			return nil
		}
		var replaced []commission.Installment
		deps.repo.replaceInstallmentsFn = func(ctx context.Context, commissionID string, insts []commission.Installment) error {
			replaced = insts
			return nil
		}

		resp, err := deps.service.Recalculate(ctx, companyID, actorID, rec.ID.String(), commission.RecalculateCommissionRequest{Reason: "price corrected"})

		assert.NoError(t, err)
		assert.True(t, resp.Recalculated)
		assert.True(t, resp.OldAmount.Equal(dec("100000")))
		assert.True(t, resp.NewAmount.Equal(dec("120000")))
		assert.True(t, resp.Delta.Equal(dec("20000")))
		assert.True(t, resp.Commission.NetCommission.Equal(dec("120000")))
		assert.True(t, resp.Commission.TotalPending.Equal(dec("120000")))
		assert.NotNil(t, adj)
		assert.True(t, adj.Amount.Equal(dec("20000")))
		assert.NotEmpty(t, replaced)
		assert.Len(t, deps.outbox.created, 1)
		assert.Equal(t, "commission_adjusted", deps.outbox.created[0].EventType)
	})

	t.Run("delta below a cent is a no-op", func(t *testing.T) {
		deps := setupCommissionServiceTest(t)
		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()

		rec := storedRecord(companyUUID, commission.StatusApproved, "100000")
		setupRecalc(deps, rec, "5000000") // same 2% -> 100000

		adjusted := false
		deps.repo.appendAdjustmentFn = func(ctx context.Context, a *commission.Adjustment) error {
			adjusted = true
			return nil
		}

		resp, err := deps.service.Recalculate(ctx, companyID, actorID, rec.ID.String(), commission.RecalculateCommissionRequest{Reason: "noise"})

		assert.NoError(t, err)
		assert.False(t, adjusted)
		assert.False(t, resp.Recalculated)
		assert.True(t, resp.Commission.NetCommission.Equal(dec("100000")))
		assert.Empty(t, deps.outbox.created)
	})

	t.Run("delta of exactly one cent is still a no-op", func(t *testing.T) {
		deps := setupCommissionServiceTest(t)
		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()

		rec := storedRecord(companyUUID, commission.StatusApproved, "100000")
		setupRecalc(deps, rec, "5000000.50") // 2% -> 100000.01

		adjusted := false
		deps.repo.appendAdjustmentFn = func(ctx context.Context, a *commission.Adjustment) error {
			adjusted = true
			return nil
		}

		resp, err := deps.service.Recalculate(ctx, companyID, actorID, rec.ID.String(), commission.RecalculateCommissionRequest{Reason: "rounding"})

		assert.NoError(t, err)
		assert.False(t, adjusted)
		assert.False(t, resp.Recalculated)
		assert.True(t, resp.Delta.Equal(dec("0.01")))
		assert.True(t, resp.Commission.NetCommission.Equal(dec("100000")))
		assert.Empty(t, deps.outbox.created)
	})

	t.Run("recalculation below the paid amount requires a clawback", func(t *testing.T) {
		deps := setupCommissionServiceTest(t)
		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()

		rec := storedRecord(companyUUID, commission.StatusPartiallyPaid, "100000")
		rec.TotalPaid = dec("90000")
		rec.TotalPending = dec("10000")
		setupRecalc(deps, rec, "4000000") // 2% -> 80000 < 90000 paid

		_, err := deps.service.Recalculate(ctx, companyID, actorID, rec.ID.String(), commission.RecalculateCommissionRequest{Reason: "shrunk"})
		assert.ErrorIs(t, err, commissionerrors.ErrOverpaidRequiresClawback)
	})

	t.Run("terminal records are refused", func(t *testing.T) {
		deps := setupCommissionServiceTest(t)
		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()

		rec := storedRecord(companyUUID, commission.StatusRejected, "100000")
		deps.repo.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*commission.CommissionRecord, error) {
			return rec, nil
		}

		_, err := deps.service.Recalculate(ctx, companyID, actorID, rec.ID.String(), commission.RecalculateCommissionRequest{Reason: "late"})
		assert.ErrorIs(t, err, commissionerrors.ErrInvalidStateTransition)
	})
}

func TestCommissionService_Clawback(t *testing.T) {
	ctx := context.Background()
	companyUUID := uuid.New()
	companyID := companyUUID.String()
	actorID := uuid.New().String()

	t.Run("success emits the clawed back event", func(t *testing.T) {
		deps := setupCommissionServiceTest(t)
		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()

		rec := storedRecord(companyUUID, commission.StatusApproved, "50000")
		rec.ClawbackEligible = true
		rec.ClawbackPeriodDays = 90
		deps.repo.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*commission.CommissionRecord, error) {
			return rec, nil
		}

		resp, err := deps.service.Clawback(ctx, companyID, actorID, rec.ID.String(), commission.ClawbackCommissionRequest{Reason: "sale fell through"})

		assert.NoError(t, err)
		assert.Equal(t, commission.StatusClawedBack, resp.Status)
		assert.Len(t, deps.outbox.created, 1)
		assert.Equal(t, "commission_clawed_back", deps.outbox.created[0].EventType)
	})
}

func TestCommissionService_Bulk(t *testing.T) {
	ctx := context.Background()
	companyUUID := uuid.New()
	companyID := companyUUID.String()
	actorID := uuid.New().String()

	t.Run("bulk approve isolates failures per item", func(t *testing.T) {
		deps := setupCommissionServiceTest(t)

		good := storedRecord(companyUUID, commission.StatusPendingApproval, "50000")
		bad := storedRecord(companyUUID, commission.StatusPaid, "40000")

		// One transaction per item.
		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()
		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()

		deps.repo.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*commission.CommissionRecord, error) {
			if id == good.ID.String() {
				return good, nil
			}
			return bad, nil
		}

		resp, err := deps.service.BulkApprove(ctx, companyID, actorID, commission.BulkApproveRequest{
			CommissionIDs: []string{good.ID.String(), bad.ID.String()},
		})

		assert.NoError(t, err)
		assert.Equal(t, 1, resp.Succeeded)
		assert.Equal(t, 1, resp.Failed)
		assert.True(t, resp.Results[0].Ok)
		assert.True(t, resp.Results[0].Amount.Equal(dec("50000")))
		assert.Equal(t, commission.StatusApproved, resp.Results[0].Status)
		assert.False(t, resp.Results[1].Ok)
		assert.Equal(t, "INVALID_STATE", resp.Results[1].ErrorCode)
		assert.True(t, resp.TotalAmount.Equal(dec("50000")))
	})

	t.Run("bulk payments settle each full pending balance", func(t *testing.T) {
		deps := setupCommissionServiceTest(t)

		recA := storedRecord(companyUUID, commission.StatusApproved, "50000")
		recB := storedRecord(companyUUID, commission.StatusApproved, "30000")

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()
		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()

		deps.repo.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*commission.CommissionRecord, error) {
			if id == recA.ID.String() {
				return recA, nil
			}
			return recB, nil
		}

		var amounts []decimal.Decimal
		deps.repo.appendPaymentFn = func(ctx context.Context, p *commission.Payment) error {
			amounts = append(amounts, p.Amount)
			return nil
		}

		resp, err := deps.service.BulkRecordPayments(ctx, companyID, actorID, commission.BulkRecordPaymentsRequest{
			CommissionIDs: []string{recA.ID.String(), recB.ID.String()},
			Method:        "bank_transfer",
			PaidOn:        "2026-07-01",
		})

		assert.NoError(t, err)
		assert.Equal(t, 2, resp.Succeeded)
		assert.Equal(t, 0, resp.Failed)
		assert.Len(t, amounts, 2)
		assert.True(t, amounts[0].Equal(dec("50000")))
		assert.True(t, amounts[1].Equal(dec("30000")))
		assert.Equal(t, commission.StatusPaid, recA.Status)
		assert.Equal(t, commission.StatusPaid, recB.Status)
		assert.True(t, resp.TotalAmount.Equal(dec("80000")))
	})
}

func TestCommissionService_RecalculateForSale(t *testing.T) {
	ctx := context.Background()
	companyUUID := uuid.New()
	companyID := companyUUID.String()
	actorID := uuid.New().String()

	deps := setupCommissionServiceTest(t)

	sl := bookedSale(companyUUID)
	r := activeFlatRule(companyUUID)

	open := storedRecord(companyUUID, commission.StatusApproved, "100000")
	open.SaleID = sl.ID
	open.RuleID = r.ID
	terminal := storedRecord(companyUUID, commission.StatusClawedBack, "100000")
	terminal.SaleID = sl.ID

	// Only the open record is recalculated, in its own transaction.
	deps.sqlMock.ExpectBegin()
	deps.sqlMock.ExpectCommit()

	deps.repo.findBySaleAndCompanyFn = func(ctx context.Context, cid, saleID string) ([]commission.CommissionRecord, error) {
		return []commission.CommissionRecord{*open, *terminal}, nil
	}
	deps.repo.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*commission.CommissionRecord, error) {
		return open, nil
	}
	sl.SalePrice = dec("6000000")
	deps.sales.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*sale.Sale, error) {
		return sl, nil
	}
	deps.rules.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*rule.CommissionRule, error) {
		return r, nil
	}

	resp, err := deps.service.RecalculateForSale(ctx, companyID, actorID, sl.ID.String(), "price corrected")

	assert.NoError(t, err)
	assert.Len(t, resp.Adjusted, 1)
	assert.Equal(t, open.ID.String(), resp.Adjusted[0].CommissionID)
	assert.Equal(t, open.PartnerID.String(), resp.Adjusted[0].PartnerID)
	assert.True(t, resp.Adjusted[0].OldAmount.Equal(dec("100000")))
	assert.True(t, resp.Adjusted[0].NewAmount.Equal(dec("120000")))
	assert.True(t, resp.Adjusted[0].Delta.Equal(dec("20000")))
	assert.Equal(t, 0, resp.Unchanged)
	assert.Empty(t, resp.Failures)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestCommissionService_RecalculateForSale_UnchangedRecordIsNotListed(t *testing.T) {
	ctx := context.Background()
	companyUUID := uuid.New()
	companyID := companyUUID.String()
	actorID := uuid.New().String()

	deps := setupCommissionServiceTest(t)

	sl := bookedSale(companyUUID)
	r := activeFlatRule(companyUUID)

	open := storedRecord(companyUUID, commission.StatusApproved, "100000")
	open.SaleID = sl.ID
	open.RuleID = r.ID

	// Same price, same net: the record's recalculation rolls back as a no-op.
	deps.sqlMock.ExpectBegin()
	deps.sqlMock.ExpectRollback()

	deps.repo.findBySaleAndCompanyFn = func(ctx context.Context, cid, saleID string) ([]commission.CommissionRecord, error) {
		return []commission.CommissionRecord{*open}, nil
	}
	deps.repo.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*commission.CommissionRecord, error) {
		return open, nil
	}
	deps.sales.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*sale.Sale, error) {
		return sl, nil
	}
	deps.rules.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*rule.CommissionRule, error) {
		return r, nil
	}

	resp, err := deps.service.RecalculateForSale(ctx, companyID, actorID, sl.ID.String(), "no real change")

	assert.NoError(t, err)
	assert.Empty(t, resp.Adjusted)
	assert.Equal(t, 1, resp.Unchanged)
	assert.Empty(t, resp.Failures)
	assert.Empty(t, deps.outbox.created)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}
