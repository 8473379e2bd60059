package ruleerrors

import (
	"net/http"

	"estate-crm/internal/shared/apperror"
)

var (
	ErrRuleNotFound = apperror.New(
		apperror.CodeNotFound,
		"Commission rule not found",
		http.StatusNotFound,
	)

	ErrRuleInvalid = apperror.New(
		apperror.CodeInvalidInput,
		"Commission rule configuration is invalid",
		http.StatusBadRequest,
	)

	ErrRuleInactive = apperror.New(
		apperror.CodeInvalidState,
		"Commission rule is not active",
		http.StatusConflict,
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
