package sale

import (
	"time"

	"github.com/shopspring/decimal"
)

// UpdateSaleRequest corrects the commission-relevant fields of a sale.
// Omitted fields are left untouched.
type UpdateSaleRequest struct {
	SalePrice *decimal.Decimal `json:"sale_price"`
	BasePrice *decimal.Decimal `json:"base_price"`
	UnitType  *string          `json:"unit_type"`
}

type SaleResponse struct {
	ID         string          `json:"id"`
	CompanyID  string          `json:"company_id"`
	ProjectID  string          `json:"project_id"`
	PartnerID  string          `json:"partner_id"`
	UnitNumber string          `json:"unit_number"`
	UnitType   string          `json:"unit_type"`
	SalePrice  decimal.Decimal `json:"sale_price"`
	BasePrice  decimal.Decimal `json:"base_price"`
	SaleDate   string          `json:"sale_date"`
	Status     string          `json:"status"`
	CreatedAt  string          `json:"created_at"`
}

func mapToResponse(s Sale) SaleResponse {
	return SaleResponse{
		ID:         s.ID.String(),
		CompanyID:  s.CompanyID.String(),
		ProjectID:  s.ProjectID.String(),
		PartnerID:  s.PartnerID.String(),
		UnitNumber: s.UnitNumber,
		UnitType:   s.UnitType,
		SalePrice:  s.SalePrice,
		BasePrice:  s.BasePrice,
		SaleDate:   s.SaleDate.Format("2006-01-02"),
		Status:     s.Status,
		CreatedAt:  s.CreatedAt.Format(time.RFC3339),
	}
}
