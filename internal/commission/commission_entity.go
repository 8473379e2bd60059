package commission

import (
	"fmt"
	"time"

	"estate-crm/internal/partner"
	"estate-crm/internal/sale"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	StatusPendingApproval = "PENDING_APPROVAL"
	StatusApproved        = "APPROVED"
	StatusPartiallyPaid   = "PARTIALLY_PAID"
	StatusPaid            = "PAID"
	StatusRejected        = "REJECTED"
	StatusClawedBack      = "CLAWED_BACK"
)

const (
	ApprovalPending  = "PENDING"
	ApprovalApproved = "APPROVED"
	ApprovalRejected = "REJECTED"
)

const (
	InstallmentPending = "PENDING"
	InstallmentPaid    = "PAID"
)

const (
	AdjustmentRecalculation = "RECALCULATION"
	AdjustmentClawback      = "CLAWBACK"
)

// CommissionRecord is the aggregate root. One record exists per
// (sale, partner) pair, enforced by uq_commissions_sale_partner.
type CommissionRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index:idx_commissions_company_status"`
	SaleID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_commissions_sale_partner"`
	PartnerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_commissions_sale_partner"`
	RuleID    uuid.UUID `gorm:"type:uuid;not null"`

	// Snapshots captured at creation and replaced only by a recalculation.
	SaleSnapshot    datatypes.JSONType[sale.Snapshot]        `gorm:"type:jsonb;not null"`
	PartnerSnapshot datatypes.JSONType[partner.Performance]  `gorm:"type:jsonb;not null"`

	// Calculation. Breakdown lines keep full precision for audit; the
	// persisted totals are rounded to 2 decimal places.
	Method          string                               `gorm:"type:varchar(20);not null"`
	Breakdown       datatypes.JSONSlice[BreakdownLine]   `gorm:"type:jsonb"`
	Bonuses         datatypes.JSONSlice[BonusLine]       `gorm:"type:jsonb"`
	Deductions      datatypes.JSONSlice[DeductionLine]   `gorm:"type:jsonb"`
	GrossCommission decimal.Decimal                      `gorm:"type:decimal(18,2);not null"`
	TotalBonuses    decimal.Decimal                      `gorm:"type:decimal(18,2);not null;default:0"`
	TotalDeductions decimal.Decimal                      `gorm:"type:decimal(18,2);not null;default:0"`
	NetCommission   decimal.Decimal                      `gorm:"type:decimal(18,2);not null"`
	CalculatedAt    time.Time                            `gorm:"not null"`

	// Payment details. total_paid + total_pending == net_commission after
	// every committed operation.
	TotalPaid    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	TotalPending decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`

	// Tax details
	TDSRate       decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	TDSDeducted   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	GSTRate       decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	GSTAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	FinancialYear string          `gorm:"type:varchar(10);not null"`

	// Approval workflow
	RequiresApproval      bool                        `gorm:"not null;default:false"`
	ApprovalStatus        string                      `gorm:"type:varchar(10);not null"`
	RequiredApprovalCount int                         `gorm:"not null;default:0"`
	Approvers             datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Decisions             []ApprovalDecision          `gorm:"foreignKey:CommissionID"`

	// Clawback policy. The window opens when the record is fully paid;
	// before that a clawback is always allowed (nothing has vested yet).
	ClawbackEligible   bool       `gorm:"not null;default:false"`
	ClawbackPeriodDays int        `gorm:"not null;default:0"`
	ClawbackExpiresAt  *time.Time

	Status          string  `gorm:"type:varchar(20);not null;index:idx_commissions_company_status"`
	RejectionReason *string `gorm:"type:text"`

	// Version guards concurrent writers; a stale update affects zero rows
	// and surfaces as a retryable conflict.
	Version int64 `gorm:"not null;default:1"`

	Installments []Installment `gorm:"foreignKey:CommissionID"`
	Adjustments  []Adjustment  `gorm:"foreignKey:CommissionID"`
	Payments     []Payment     `gorm:"foreignKey:CommissionID"`

	CreatedBy  uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ApprovedAt *time.Time
	PaidAt     *time.Time
}

func (CommissionRecord) TableName() string {
	return "commissions"
}

type Installment struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CommissionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Number       int             `gorm:"not null"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	DueDate      time.Time       `gorm:"type:date;not null"`
	HoldUntil    *time.Time      `gorm:"type:date"`
	Status       string          `gorm:"type:varchar(10);not null;default:'PENDING'"`
	PaidAt       *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Installment) TableName() string {
	return "commission_installments"
}

// Adjustment is an append-only audit entry; rows are never updated.
type Adjustment struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CommissionID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Type           string          `gorm:"type:varchar(20);not null"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	PreviousAmount decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	NewAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Reason         string          `gorm:"type:text;not null"`
	ActorID        uuid.UUID       `gorm:"type:uuid;not null"`
	CreatedAt      time.Time
}

func (Adjustment) TableName() string {
	return "commission_adjustments"
}

type ApprovalDecision struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CommissionID uuid.UUID `gorm:"type:uuid;not null;index"`
	ActorID      uuid.UUID `gorm:"type:uuid;not null"`
	Decision     string    `gorm:"type:varchar(10);not null"`
	Notes        string    `gorm:"type:text"`
	DecidedAt    time.Time `gorm:"not null"`
}

func (ApprovalDecision) TableName() string {
	return "commission_approval_decisions"
}

type Payment struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CommissionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Method       string          `gorm:"type:varchar(30);not null"`
	Reference    string          `gorm:"type:varchar(80)"`
	PaidOn       time.Time       `gorm:"type:date;not null"`
	RecordedBy   uuid.UUID       `gorm:"type:uuid;not null"`
	CreatedAt    time.Time
}

func (Payment) TableName() string {
	return "commission_payments"
}

func newSnapshotColumn(s sale.Snapshot) datatypes.JSONType[sale.Snapshot] {
	return datatypes.NewJSONType(s)
}

func newPerformanceColumn(p partner.Performance) datatypes.JSONType[partner.Performance] {
	return datatypes.NewJSONType(p)
}

// financialYear maps a date to the Indian fiscal year it belongs to; the
// year boundary is 1 April, so Jan-Mar belongs to the year that started
// the previous April.
func financialYear(d time.Time) string {
	start := d.Year()
	if d.Month() < time.April {
		start--
	}
	return fmt.Sprintf("%d-%02d", start, (start+1)%100)
}
