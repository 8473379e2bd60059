package rule

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, r *CommissionRule) error
	FindByIDAndCompany(ctx context.Context, companyID, id string) (*CommissionRule, error)
	FindAllByCompany(ctx context.Context, companyID string) ([]CommissionRule, error)
	RecordUsage(ctx context.Context, id string, amount decimal.Decimal, usedAt time.Time) error
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

func (r *repository) Create(ctx context.Context, rule *CommissionRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*CommissionRule, error) {
	var rule CommissionRule
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Where("company_id = ?", companyID).
		First(&rule).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string) ([]CommissionRule, error) {
	var rules []CommissionRule
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Find(&rules).Error
	return rules, err
}

// RecordUsage bumps the usage counters in one statement. last_used_at is kept
// monotonic so late-arriving recalculations cannot move it backwards.
func (r *repository) RecordUsage(ctx context.Context, id string, amount decimal.Decimal, usedAt time.Time) error {
	query := `
UPDATE commission_rules
SET
	usage_count = usage_count + 1,
	total_commission_paid = total_commission_paid + ?,
	last_used_at = GREATEST(COALESCE(last_used_at, ?), ?),
	updated_at = NOW()
WHERE id = ?
`
	return r.db.WithContext(ctx).Exec(query, amount, usedAt, usedAt, id).Error
}
