package partner

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Partner struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index"`

	FullName string          `gorm:"type:varchar(120);not null"`
	Email    string          `gorm:"type:varchar(120)"`
	Phone    string          `gorm:"type:varchar(30)"`
	Rating   decimal.Decimal `gorm:"type:decimal(3,2);not null;default:0"`
	JoinedAt time.Time       `gorm:"type:date;not null"`
	IsActive bool            `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Partner) TableName() string {
	return "partners"
}

// Performance is the partner's live track record, derived from sales
// history at the moment it is requested. Commission records keep their own
// snapshot of it; this type is always fetched fresh.
type Performance struct {
	TotalSalesVolume  decimal.Decimal `json:"total_sales_volume"`
	TotalUnitsSold    int             `json:"total_units_sold"`
	AverageRating     decimal.Decimal `json:"average_rating"`
	MonthsWithCompany int             `json:"months_with_company"`
	LastSaleDate      *time.Time      `json:"last_sale_date,omitempty"`
}
