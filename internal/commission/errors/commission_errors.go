package commissionerrors

import (
	"net/http"

	"estate-crm/internal/shared/apperror"
)

var (
	ErrCommissionNotFound = apperror.New(
		apperror.CodeNotFound,
		"Commission record not found",
		http.StatusNotFound,
	)

	ErrDuplicateCommission = apperror.New(
		apperror.CodeDuplicateCommission,
		"A commission already exists for this sale and partner",
		http.StatusConflict,
	)

	ErrInvalidStateTransition = apperror.New(
		apperror.CodeInvalidState,
		"The commission status does not allow this operation",
		http.StatusConflict,
	)

	ErrAmountExceedsPending = apperror.New(
		apperror.CodeAmountExceedsPending,
		"Payment amount exceeds the pending balance",
		http.StatusUnprocessableEntity,
	)

	ErrNegativeNet = apperror.New(
		apperror.CodeInvalidCalculation,
		"The rule produces a negative net commission",
		http.StatusUnprocessableEntity,
	)

	ErrRuleMismatch = apperror.New(
		apperror.CodeInvalidCalculation,
		"The rule cannot be applied to this sale",
		http.StatusUnprocessableEntity,
	)

	ErrOverpaidRequiresClawback = apperror.New(
		apperror.CodeInvalidState,
		"The recalculated amount is below what was already paid; a manual clawback is required",
		http.StatusConflict,
	)

	ErrNotAnApprover = apperror.New(
		apperror.CodeForbidden,
		"You are not an approver for this commission",
		http.StatusForbidden,
	)

	ErrAlreadyDecided = apperror.New(
		apperror.CodeInvalidState,
		"You have already recorded a decision on this commission",
		http.StatusConflict,
	)

	ErrClawbackWindowExpired = apperror.New(
		apperror.CodeInvalidState,
		"The clawback window for this commission has expired",
		http.StatusConflict,
	)

	ErrClawbackNotEligible = apperror.New(
		apperror.CodeInvalidState,
		"This commission is not eligible for clawback",
		http.StatusConflict,
	)

	ErrInvalidPaymentAmount = apperror.New(
		apperror.CodeInvalidInput,
		"Payment amount must be positive",
		http.StatusBadRequest,
	)

	ErrRejectionReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"A rejection reason is required",
		http.StatusBadRequest,
	)

	ErrSaleNotFound = apperror.New(
		apperror.CodeNotFound,
		"Sale not found",
		http.StatusNotFound,
	)

	ErrSaleCancelled = apperror.New(
		apperror.CodeInvalidState,
		"A commission cannot be created for a cancelled sale",
		http.StatusConflict,
	)

	ErrPartnerNotFound = apperror.New(
		apperror.CodeNotFound,
		"Partner not found",
		http.StatusNotFound,
	)

	ErrRuleNotFound = apperror.New(
		apperror.CodeNotFound,
		"Commission rule not found",
		http.StatusNotFound,
	)

	ErrRuleNotApplicable = apperror.New(
		apperror.CodeInvalidCalculation,
		"The rule is inactive or its validity window does not cover the sale date",
		http.StatusUnprocessableEntity,
	)

	ErrInvalidCompanyID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid company id",
		http.StatusBadRequest,
	)

	ErrInvalidActorID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid actor id",
		http.StatusBadRequest,
	)

	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"Dates must use the YYYY-MM-DD format",
		http.StatusBadRequest,
	)
)
