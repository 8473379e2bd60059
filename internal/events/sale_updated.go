package events

import "time"

const SaleLifecycleTopic = "crm.sale.lifecycle.v1"

const SaleUpdated = "sale_updated"

// SaleUpdatedEvent is emitted when a sale's commission-relevant fields
// change; the consumer reacts by recalculating affected commissions.
type SaleUpdatedEvent struct {
	EventType     string    `json:"event_type"`
	SaleID        string    `json:"sale_id"`
	CompanyID     string    `json:"company_id"`
	ChangedFields []string  `json:"changed_fields"`
	ActorID       string    `json:"actor_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}
