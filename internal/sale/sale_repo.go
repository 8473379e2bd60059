package sale

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByIDAndCompany(ctx context.Context, companyID, id string) (*Sale, error)
	Update(ctx context.Context, s *Sale) error
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

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*Sale, error) {
	var s Sale
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Where("company_id = ?", companyID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) Update(ctx context.Context, s *Sale) error {
	return r.db.WithContext(ctx).Save(s).Error
}
