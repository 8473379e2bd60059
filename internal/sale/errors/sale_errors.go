package saleerrors

import (
	"net/http"

	"estate-crm/internal/shared/apperror"
)

var (
	ErrSaleNotFound = apperror.New(
		apperror.CodeNotFound,
		"Sale not found",
		http.StatusNotFound,
	)

	ErrSaleCancelled = apperror.New(
		apperror.CodeInvalidState,
		"A cancelled sale cannot be modified",
		http.StatusConflict,
	)

	ErrNoFieldsToUpdate = apperror.New(
		apperror.CodeInvalidInput,
		"At least one of sale_price, base_price or unit_type must be provided",
		http.StatusBadRequest,
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
)
