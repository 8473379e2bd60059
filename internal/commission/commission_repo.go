package commission

import (
	"context"

	"estate-crm/internal/shared/apperror"

	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, rec *CommissionRecord) error
	FindByIDAndCompany(ctx context.Context, companyID, id string) (*CommissionRecord, error)
	FindBySaleAndCompany(ctx context.Context, companyID, saleID string) ([]CommissionRecord, error)
	FindAllByCompany(ctx context.Context, companyID string, filter ListFilter) ([]CommissionRecord, int64, error)
	Update(ctx context.Context, rec *CommissionRecord) error
	AppendDecision(ctx context.Context, d *ApprovalDecision) error
	AppendAdjustment(ctx context.Context, a *Adjustment) error
	AppendPayment(ctx context.Context, p *Payment) error
	SaveInstallments(ctx context.Context, insts []Installment) error
	ReplaceInstallments(ctx context.Context, commissionID string, insts []Installment) error
}

// ListFilter narrows FindAllByCompany; zero values mean "no filter".
type ListFilter struct {
	Status        string
	PartnerID     string
	FinancialYear string
	Page          int
	Limit         int
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

// Create persists the aggregate and its children in one insert; gorm
// cascades the associations.
func (r *repository) Create(ctx context.Context, rec *CommissionRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*CommissionRecord, error) {
	var rec CommissionRecord
	err := r.db.WithContext(ctx).
		Preload("Installments", func(db *gorm.DB) *gorm.DB { return db.Order("number ASC") }).
		Preload("Adjustments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Decisions", func(db *gorm.DB) *gorm.DB { return db.Order("decided_at ASC") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("id = ?", id).
		Where("company_id = ?", companyID).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *repository) FindBySaleAndCompany(ctx context.Context, companyID, saleID string) ([]CommissionRecord, error) {
	var recs []CommissionRecord
	err := r.db.WithContext(ctx).
		Preload("Installments", func(db *gorm.DB) *gorm.DB { return db.Order("number ASC") }).
		Where("sale_id = ?", saleID).
		Where("company_id = ?", companyID).
		Find(&recs).Error
	return recs, err
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string, filter ListFilter) ([]CommissionRecord, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&CommissionRecord{}).
		Where("company_id = ?", companyID)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PartnerID != "" {
		query = query.Where("partner_id = ?", filter.PartnerID)
	}
	if filter.FinancialYear != "" {
		query = query.Where("financial_year = ?", filter.FinancialYear)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recs []CommissionRecord
	err := query.
		Order("created_at DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&recs).Error
	return recs, total, err
}

// Update writes the aggregate guarded by its version. A concurrent writer
// makes the predicate miss, which surfaces as ErrVersionConflict so the
// caller can re-read and retry.
func (r *repository) Update(ctx context.Context, rec *CommissionRecord) error {
	currentVersion := rec.Version
	rec.Version = currentVersion + 1

	result := r.db.WithContext(ctx).
		Model(&CommissionRecord{}).
		Where("id = ?", rec.ID).
		Where("version = ?", currentVersion).
		Select(
			"method", "breakdown", "bonuses", "deductions",
			"gross_commission", "total_bonuses", "total_deductions", "net_commission",
			"tds_deducted", "gst_amount", "calculated_at", "financial_year",
			"sale_snapshot", "partner_snapshot",
			"total_paid", "total_pending",
			"approval_status", "status", "rejection_reason",
			"clawback_expires_at", "approved_at", "paid_at",
			"version", "updated_at",
		).
		Updates(rec)
	if result.Error != nil {
		rec.Version = currentVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		rec.Version = currentVersion
		return apperror.ErrVersionConflict
	}
	return nil
}

func (r *repository) AppendDecision(ctx context.Context, d *ApprovalDecision) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *repository) AppendAdjustment(ctx context.Context, a *Adjustment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *repository) AppendPayment(ctx context.Context, p *Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *repository) SaveInstallments(ctx context.Context, insts []Installment) error {
	for i := range insts {
		if err := r.db.WithContext(ctx).Save(&insts[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// ReplaceInstallments swaps the unpaid schedule after a recalculation;
// paid installments are history and stay untouched.
func (r *repository) ReplaceInstallments(ctx context.Context, commissionID string, insts []Installment) error {
	err := r.db.WithContext(ctx).
		Where("commission_id = ?", commissionID).
		Where("status = ?", InstallmentPending).
		Delete(&Installment{}).Error
	if err != nil {
		return err
	}
	if len(insts) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&insts).Error
}
