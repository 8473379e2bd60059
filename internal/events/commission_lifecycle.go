package events

import "time"

const CommissionLifecycleTopic = "crm.commission.lifecycle.v1"

const (
	CommissionCreated    = "commission_created"
	CommissionApproved   = "commission_approved"
	CommissionRejected   = "commission_rejected"
	CommissionAdjusted   = "commission_adjusted"
	CommissionPaid       = "commission_paid"
	CommissionClawedBack = "commission_clawed_back"
)

type CommissionLifecycleEvent struct {
	EventType    string    `json:"event_type"`
	CommissionID string    `json:"commission_id"`
	SaleID       string    `json:"sale_id"`
	PartnerID    string    `json:"partner_id"`
	CompanyID    string    `json:"company_id"`
	NetAmount    string    `json:"net_amount"`
	Status       string    `json:"status"`
	OccurredAt   time.Time `json:"occurred_at"`
}
