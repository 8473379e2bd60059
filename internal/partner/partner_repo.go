package partner

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByIDAndCompany(ctx context.Context, companyID, id string) (*Partner, error)
	GetPerformance(ctx context.Context, companyID, partnerID string, asOf time.Time) (Performance, error)
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

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*Partner, error) {
	var p Partner
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Where("company_id = ?", companyID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type performanceRow struct {
	TotalSalesVolume decimal.Decimal
	TotalUnitsSold   int
	AverageRating    decimal.Decimal
	JoinedAt         time.Time
	LastSaleDate     *time.Time
}

// GetPerformance aggregates the partner's non-cancelled sales in one query.
// Cancelled sales never count toward tier volume.
func (r *repository) GetPerformance(ctx context.Context, companyID, partnerID string, asOf time.Time) (Performance, error) {
	query := `
SELECT
	COALESCE(SUM(sales.sale_price), 0) AS total_sales_volume,
	COUNT(sales.id)                    AS total_units_sold,
	partners.rating                    AS average_rating,
	partners.joined_at                 AS joined_at,
	MAX(sales.sale_date)               AS last_sale_date
FROM partners
LEFT JOIN sales
	ON sales.partner_id = partners.id
	AND sales.status <> 'CANCELLED'
WHERE partners.id = ?
	AND partners.company_id = ?
GROUP BY partners.id, partners.rating, partners.joined_at
`

	var row performanceRow
	err := r.db.WithContext(ctx).Raw(query, partnerID, companyID).Scan(&row).Error
	if err != nil {
		return Performance{}, err
	}
	if row.JoinedAt.IsZero() {
		return Performance{}, gorm.ErrRecordNotFound
	}

	months := int(asOf.Sub(row.JoinedAt).Hours() / (24 * 30))
	if months < 0 {
		months = 0
	}

	return Performance{
		TotalSalesVolume:  row.TotalSalesVolume,
		TotalUnitsSold:    row.TotalUnitsSold,
		AverageRating:     row.AverageRating,
		MonthsWithCompany: months,
		LastSaleDate:      row.LastSaleDate,
	}, nil
}
