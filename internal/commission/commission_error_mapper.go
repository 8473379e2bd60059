package commission

import (
	"errors"
	"strings"

	commissionerrors "estate-crm/internal/commission/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return commissionerrors.ErrCommissionNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" && pgErr.ConstraintName == "uq_commissions_sale_partner" {
			return commissionerrors.ErrDuplicateCommission
		}
	}

	// Drivers that do not surface pgconn.PgError still report the
	// constraint by name in the message.
	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "duplicate key value") && strings.Contains(errMsg, "uq_commissions_sale_partner") {
		return commissionerrors.ErrDuplicateCommission
	}

	return err
}
