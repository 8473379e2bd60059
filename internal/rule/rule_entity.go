package rule

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type CalculationMethod string

const (
	MethodFlat         CalculationMethod = "flat"
	MethodTieredVolume CalculationMethod = "tiered_volume"
	MethodPerUnitType  CalculationMethod = "per_unit_type"
)

type GSTTreatment string

const (
	// GSTWithheld deducts GST from the partner's receivable.
	GSTWithheld GSTTreatment = "withheld"
	// GSTAdded invoices GST on top of the receivable; it never reduces the net.
	GSTAdded GSTTreatment = "added"
)

type ScheduleType string

const (
	ScheduleImmediate ScheduleType = "immediate"
	ScheduleMonthly   ScheduleType = "monthly"
)

// Tier is one volume band of a tiered_volume rule. MaxSales nil means the
// band is open-ended; bands must be contiguous and non-overlapping.
type Tier struct {
	MinSales decimal.Decimal  `json:"min_sales"`
	MaxSales *decimal.Decimal `json:"max_sales,omitempty"`
	Rate     decimal.Decimal  `json:"rate"`
}

type UnitTypeRate struct {
	UnitType string          `json:"unit_type"`
	Rate     decimal.Decimal `json:"rate"`
}

// BonusCondition gates a bonus. All set fields must hold for the bonus to
// apply; an empty condition always applies.
type BonusCondition struct {
	MinSalePrice  *decimal.Decimal `json:"min_sale_price,omitempty"`
	MinUnitsSold  *int             `json:"min_units_sold,omitempty"`
	MinRating     *decimal.Decimal `json:"min_rating,omitempty"`
	MinMonthsWith *int             `json:"min_months_with_company,omitempty"`
}

// BonusRule awards either a fixed Amount or a Rate (percent of gross),
// never both, within its validity window.
type BonusRule struct {
	Name       string          `json:"name"`
	Condition  BonusCondition  `json:"condition"`
	Amount     decimal.Decimal `json:"amount"`
	Rate       decimal.Decimal `json:"rate"`
	ValidFrom  time.Time       `json:"valid_from"`
	ValidUntil time.Time       `json:"valid_until"`
}

// Deduction is an extra deduction on top of TDS/GST, either fixed or a
// percent of gross.
type Deduction struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Rate   decimal.Decimal `json:"rate"`
}

type CommissionRule struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID   uuid.UUID `gorm:"type:uuid;not null;index:idx_rules_company_active"`
	Name        string    `gorm:"type:varchar(120);not null"`
	Description string    `gorm:"type:text"`
	IsActive    bool      `gorm:"not null;default:true;index:idx_rules_company_active"`

	// Validity window, [valid_from, valid_until)
	ValidFrom  time.Time `gorm:"type:date;not null"`
	ValidUntil time.Time `gorm:"type:date;not null"`

	CalculationMethod CalculationMethod                `gorm:"type:varchar(20);not null"`
	BaseRate          decimal.Decimal                  `gorm:"type:decimal(5,2);not null;default:0"`
	Tiers             datatypes.JSONSlice[Tier]        `gorm:"type:jsonb"`
	UnitTypeRates     datatypes.JSONSlice[UnitTypeRate] `gorm:"type:jsonb"`

	BonusRules      datatypes.JSONSlice[BonusRule] `gorm:"type:jsonb"`
	OtherDeductions datatypes.JSONSlice[Deduction] `gorm:"type:jsonb"`

	TDSRate      decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	GSTRate      decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	GSTTreatment GSTTreatment    `gorm:"type:varchar(10)"`

	// Payment terms
	PaymentSchedule     ScheduleType    `gorm:"type:varchar(10);not null;default:'immediate'"`
	PaymentDelayDays    int             `gorm:"not null;default:0"`
	HoldPeriodDays      int             `gorm:"not null;default:0"`
	MinimumPayoutAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`

	// Approval policy
	RequiresApproval      bool                        `gorm:"not null;default:false"`
	RequiredApprovalCount int                         `gorm:"not null;default:1"`
	Approvers             datatypes.JSONSlice[string] `gorm:"type:jsonb"`

	// Clawback policy
	ClawbackEligible   bool `gorm:"not null;default:false"`
	ClawbackPeriodDays int  `gorm:"not null;default:0"`

	// Usage statistics. Monotonic, updated via RecordUsage only.
	UsageCount          int64           `gorm:"not null;default:0"`
	TotalCommissionPaid decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	LastUsedAt          *time.Time

	CreatedBy uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (CommissionRule) TableName() string {
	return "commission_rules"
}

// ContainsDate reports whether d falls inside the rule's validity window.
func (r *CommissionRule) ContainsDate(d time.Time) bool {
	return !d.Before(r.ValidFrom) && d.Before(r.ValidUntil)
}

// Applies reports whether the bonus window contains the sale date.
func (b *BonusRule) Applies(saleDate time.Time) bool {
	return !saleDate.Before(b.ValidFrom) && saleDate.Before(b.ValidUntil)
}
