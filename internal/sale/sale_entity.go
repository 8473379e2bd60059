package sale

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatusBooked    = "BOOKED"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
)

type Sale struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index:idx_sales_company_partner"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index"`
	PartnerID uuid.UUID `gorm:"type:uuid;not null;index:idx_sales_company_partner"`

	UnitNumber string          `gorm:"type:varchar(40);not null"`
	UnitType   string          `gorm:"type:varchar(40);not null"`
	SalePrice  decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	BasePrice  decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	SaleDate   time.Time       `gorm:"type:date;not null"`

	Status    string    `gorm:"type:varchar(20);not null;default:'BOOKED'"`
	CreatedBy uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Sale) TableName() string {
	return "sales"
}

// Snapshot is the commission engine's calculation input of record. It is
// captured from the sale at creation/recalculation time, never live-linked.
type Snapshot struct {
	SalePrice decimal.Decimal `json:"sale_price"`
	BasePrice decimal.Decimal `json:"base_price"`
	UnitType  string          `json:"unit_type"`
	SaleDate  time.Time       `json:"sale_date"`
}

func (s *Sale) Snapshot() Snapshot {
	return Snapshot{
		SalePrice: s.SalePrice,
		BasePrice: s.BasePrice,
		UnitType:  s.UnitType,
		SaleDate:  s.SaleDate,
	}
}
